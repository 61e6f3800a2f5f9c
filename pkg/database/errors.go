package database

import (
	"strings"

	"github.com/lib/pq"

	"github.com/threebee1/hrms-sub001/pkg/errors"
)

// MapPQError converts a PostgreSQL error to an AppError with meaningful messages.
// Returns nil if the error is not a pq.Error.
func MapPQError(err error) *errors.AppError {
	pqErr, ok := err.(*pq.Error)
	if !ok {
		return nil
	}

	switch pqErr.Code {
	// Unique constraint violation (23505). The shift_records unique index on
	// (employee_id, work_date) is the authoritative one-shift-per-day guard,
	// so its violation is the DuplicateShiftError signal.
	case "23505":
		if strings.Contains(pqErr.Constraint, "shift_records_employee_date") {
			return errors.DuplicateShift()
		}
		if strings.Contains(pqErr.Constraint, "email") {
			return errors.Conflict("an employee with this email already exists")
		}
		return errors.Conflict("a record with these values already exists")

	// Check constraint violation (23514)
	case "23514":
		return mapCheckConstraint(pqErr)

	// Foreign key violation (23503)
	case "23503":
		return errors.BadRequest("referenced record does not exist")

	// Not null violation (23502)
	case "23502":
		col := pqErr.Column
		if col == "" {
			col = "required field"
		}
		return errors.Validation(map[string]string{
			col: "must not be empty",
		})

	default:
		return nil
	}
}

// mapCheckConstraint maps specific CHECK constraint names to user-friendly messages.
func mapCheckConstraint(pqErr *pq.Error) *errors.AppError {
	constraint := pqErr.Constraint

	switch {
	case strings.Contains(constraint, "break_minutes_non_negative"):
		return errors.Validation(map[string]string{
			"break_duration": "must be zero or greater",
		})

	case strings.Contains(constraint, "total_hours_non_negative"):
		return errors.Validation(map[string]string{
			"total_hours": "must be zero or greater",
		})

	case strings.Contains(constraint, "status_valid"):
		return errors.Validation(map[string]string{
			"status": "must be one of: pending, approved",
		})

	default:
		return errors.BadRequest("data validation failed: " + constraint)
	}
}
