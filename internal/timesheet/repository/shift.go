package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/threebee1/hrms-sub001/pkg/database"
	"github.com/threebee1/hrms-sub001/pkg/errors"
)

// Shift record statuses
const (
	StatusPending  = "pending"
	StatusApproved = "approved"
)

// ShiftRecord is one employee's recorded work period for a single calendar
// date. A record with a nil ClockOut is an open shift; the unique index on
// (employee_id, work_date) guarantees at most one record per employee per day.
type ShiftRecord struct {
	ID           string    `db:"id" json:"id"`
	EmployeeID   int64     `db:"employee_id" json:"employee_id"`
	WorkDate     time.Time `db:"work_date" json:"work_date"`
	ClockIn      string    `db:"clock_in" json:"clock_in"`
	ClockOut     *string   `db:"clock_out" json:"clock_out,omitempty"`
	BreakMinutes *int      `db:"break_minutes" json:"break_minutes,omitempty"`
	TotalHours   *float64  `db:"total_hours" json:"total_hours,omitempty"`
	Status       string    `db:"status" json:"status"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// Open reports whether the shift has no clock-out yet.
func (s *ShiftRecord) Open() bool {
	return s.ClockOut == nil
}

// ShiftRecordView is a denormalized report row joined with the employee name.
type ShiftRecordView struct {
	EmployeeID   int64     `db:"employee_id" json:"employee_id"`
	EmployeeName string    `db:"employee_name" json:"employee_name"`
	WorkDate     time.Time `db:"work_date" json:"work_date"`
	ClockIn      string    `db:"clock_in" json:"clock_in"`
	ClockOut     *string   `db:"clock_out" json:"clock_out,omitempty"`
	BreakMinutes *int      `db:"break_minutes" json:"break_minutes,omitempty"`
	TotalHours   *float64  `db:"total_hours" json:"total_hours,omitempty"`
	Status       string    `db:"status" json:"status"`
}

// SortKey selects the report ordering.
type SortKey string

// Supported report sort keys. Anything else falls back to SortDateDesc.
const (
	SortDateDesc SortKey = "date_desc"
	SortDateAsc  SortKey = "date_asc"
	SortNameAsc  SortKey = "name_asc"
	SortNameDesc SortKey = "name_desc"
)

var sortClauses = map[SortKey]string{
	SortDateDesc: "s.work_date DESC, s.clock_in",
	SortDateAsc:  "s.work_date ASC, s.clock_in",
	SortNameAsc:  "e.first_name ASC, e.last_name ASC, s.work_date DESC",
	SortNameDesc: "e.first_name DESC, e.last_name DESC, s.work_date DESC",
}

// OrderClause returns the SQL ORDER BY expression for the key.
func (k SortKey) OrderClause() string {
	if clause, ok := sortClauses[k]; ok {
		return clause
	}
	return sortClauses[SortDateDesc]
}

// QueryFilter narrows a report query. Nil fields are not applied.
type QueryFilter struct {
	EmployeeID *int64
	Date       *time.Time
	Sort       SortKey
	Limit      int // 0 means no limit, the full result set is returned
	Offset     int
}

// ShiftRepository is the single source of truth for shift record persistence.
type ShiftRepository struct {
	db *database.DB
}

// NewShiftRepository creates a new shift repository
func NewShiftRepository(db *database.DB) *ShiftRepository {
	return &ShiftRepository{db: db}
}

const shiftColumns = `id, employee_id, work_date, clock_in, clock_out, break_minutes, total_hours, status, created_at, updated_at`

// FindOpenShift returns the open record for the employee/date, or nil.
func (r *ShiftRepository) FindOpenShift(ctx context.Context, employeeID int64, date time.Time) (*ShiftRecord, error) {
	var rec ShiftRecord

	query := `
		SELECT ` + shiftColumns + `
		FROM shift_records
		WHERE employee_id = $1 AND work_date = $2 AND clock_out IS NULL
	`
	err := r.db.GetContext(ctx, &rec, query, employeeID, date)
	if err == sql.ErrNoRows {
		return nil, nil // no open shift is not an error
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find open shift: %w", err)
	}

	return &rec, nil
}

// FindShift returns the record for the employee/date regardless of state,
// or nil. Used to detect duplicate clock-ins before the insert is attempted.
func (r *ShiftRepository) FindShift(ctx context.Context, employeeID int64, date time.Time) (*ShiftRecord, error) {
	var rec ShiftRecord

	query := `
		SELECT ` + shiftColumns + `
		FROM shift_records
		WHERE employee_id = $1 AND work_date = $2
	`
	err := r.db.GetContext(ctx, &rec, query, employeeID, date)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find shift: %w", err)
	}

	return &rec, nil
}

// CreateShift inserts a new open shift record. A concurrent insert for the
// same (employee, date) loses on the unique index and surfaces as
// DuplicateShiftError rather than a raw constraint violation.
func (r *ShiftRepository) CreateShift(ctx context.Context, rec *ShiftRecord) error {
	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}

	query := `
		INSERT INTO shift_records (id, employee_id, work_date, clock_in, status)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at, updated_at
	`
	err := r.db.QueryRowxContext(ctx, query,
		rec.ID, rec.EmployeeID, rec.WorkDate, rec.ClockIn, rec.Status,
	).Scan(&rec.CreatedAt, &rec.UpdatedAt)

	if err != nil {
		if appErr := database.MapPQError(err); appErr != nil {
			return appErr
		}
		return fmt.Errorf("failed to create shift: %w", err)
	}

	return nil
}

// CreateCompleteShift inserts an already-closed record in one step (the HR
// direct-entry path). Without override the one-record-per-day rule applies
// exactly like self-service; with override an existing record for the day
// is replaced in place.
func (r *ShiftRepository) CreateCompleteShift(ctx context.Context, rec *ShiftRecord, override bool) error {
	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}

	query := `
		INSERT INTO shift_records (id, employee_id, work_date, clock_in, clock_out, break_minutes, total_hours, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	if override {
		query += `
		ON CONFLICT (employee_id, work_date) DO UPDATE SET
			clock_in = EXCLUDED.clock_in,
			clock_out = EXCLUDED.clock_out,
			break_minutes = EXCLUDED.break_minutes,
			total_hours = EXCLUDED.total_hours,
			status = EXCLUDED.status,
			updated_at = NOW()
	`
	}
	query += ` RETURNING id, created_at, updated_at`

	err := r.db.QueryRowxContext(ctx, query,
		rec.ID, rec.EmployeeID, rec.WorkDate, rec.ClockIn, rec.ClockOut,
		rec.BreakMinutes, rec.TotalHours, rec.Status,
	).Scan(&rec.ID, &rec.CreatedAt, &rec.UpdatedAt)

	if err != nil {
		if appErr := database.MapPQError(err); appErr != nil {
			return appErr
		}
		return fmt.Errorf("failed to create complete shift: %w", err)
	}

	return nil
}

// CloseShiftFunc validates an open shift and returns the closing fields.
type CloseShiftFunc func(open *ShiftRecord) (clockOut string, breakMinutes int, totalHours float64, err error)

// CloseShift locks the open record for the employee/date, lets the caller
// validate against it, then fills clock-out, break and total in one
// transaction. The row lock closes the read-then-update race between two
// concurrent clock-out requests. Returns NoOpenShiftError when no open
// record exists.
func (r *ShiftRepository) CloseShift(ctx context.Context, employeeID int64, date time.Time, fn CloseShiftFunc) (*ShiftRecord, error) {
	var rec ShiftRecord

	err := r.db.Transaction(ctx, func(tx *sqlx.Tx) error {
		query := `
			SELECT ` + shiftColumns + `
			FROM shift_records
			WHERE employee_id = $1 AND work_date = $2 AND clock_out IS NULL
			FOR UPDATE
		`
		err := tx.GetContext(ctx, &rec, query, employeeID, date)
		if err == sql.ErrNoRows {
			return errors.NoOpenShift()
		}
		if err != nil {
			return fmt.Errorf("failed to lock open shift: %w", err)
		}

		clockOut, breakMinutes, totalHours, err := fn(&rec)
		if err != nil {
			return err
		}

		update := `
			UPDATE shift_records
			SET clock_out = $2, break_minutes = $3, total_hours = $4, updated_at = NOW()
			WHERE id = $1
		`
		result, err := tx.ExecContext(ctx, update, rec.ID, clockOut, breakMinutes, totalHours)
		if err != nil {
			return fmt.Errorf("failed to close shift: %w", err)
		}

		affected, _ := result.RowsAffected()
		if affected == 0 {
			return errors.NotFound("shift record")
		}

		rec.ClockOut = &clockOut
		rec.BreakMinutes = &breakMinutes
		rec.TotalHours = &totalHours
		return nil
	})

	if err != nil {
		return nil, err
	}

	return &rec, nil
}

// ListForEmployee returns an employee's records within a date range,
// newest first.
func (r *ShiftRepository) ListForEmployee(ctx context.Context, employeeID int64, from, to time.Time) ([]*ShiftRecord, error) {
	var records []*ShiftRecord

	query := `
		SELECT ` + shiftColumns + `
		FROM shift_records
		WHERE employee_id = $1 AND work_date >= $2 AND work_date <= $3
		ORDER BY work_date DESC
	`
	if err := r.db.SelectContext(ctx, &records, query, employeeID, from, to); err != nil {
		return nil, fmt.Errorf("failed to list shifts: %w", err)
	}

	return records, nil
}

// Query returns denormalized report rows joined with employee names,
// filtered and ordered per the filter. The full result set is returned
// unless a limit is requested.
func (r *ShiftRepository) Query(ctx context.Context, filter QueryFilter) ([]*ShiftRecordView, error) {
	var (
		conditions []string
		args       []interface{}
	)

	if filter.EmployeeID != nil {
		args = append(args, *filter.EmployeeID)
		conditions = append(conditions, fmt.Sprintf("s.employee_id = $%d", len(args)))
	}
	if filter.Date != nil {
		args = append(args, *filter.Date)
		conditions = append(conditions, fmt.Sprintf("s.work_date = $%d", len(args)))
	}

	query := `
		SELECT s.employee_id,
		       CONCAT(e.first_name, ' ', e.last_name) AS employee_name,
		       s.work_date, s.clock_in, s.clock_out,
		       s.break_minutes, s.total_hours, s.status
		FROM shift_records s
		JOIN employees e ON s.employee_id = e.id
	`
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY " + filter.Sort.OrderClause()

	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
		if filter.Offset > 0 {
			args = append(args, filter.Offset)
			query += fmt.Sprintf(" OFFSET $%d", len(args))
		}
	}

	var rows []*ShiftRecordView
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("failed to query shift records: %w", err)
	}

	return rows, nil
}
