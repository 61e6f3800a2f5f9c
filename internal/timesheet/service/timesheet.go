package service

import (
	"context"
	"time"

	"github.com/threebee1/hrms-sub001/internal/timesheet/repository"
	"github.com/threebee1/hrms-sub001/internal/timesheet/timeclock"
	"github.com/threebee1/hrms-sub001/pkg/errors"
	"github.com/threebee1/hrms-sub001/pkg/logger"
)

const dateLayout = "2006-01-02"

// ShiftStore is the persistence surface the workflow depends on.
type ShiftStore interface {
	FindOpenShift(ctx context.Context, employeeID int64, date time.Time) (*repository.ShiftRecord, error)
	FindShift(ctx context.Context, employeeID int64, date time.Time) (*repository.ShiftRecord, error)
	CreateShift(ctx context.Context, rec *repository.ShiftRecord) error
	CreateCompleteShift(ctx context.Context, rec *repository.ShiftRecord, override bool) error
	CloseShift(ctx context.Context, employeeID int64, date time.Time, fn repository.CloseShiftFunc) (*repository.ShiftRecord, error)
	ListForEmployee(ctx context.Context, employeeID int64, from, to time.Time) ([]*repository.ShiftRecord, error)
	Query(ctx context.Context, filter repository.QueryFilter) ([]*repository.ShiftRecordView, error)
}

// AuditPublisher receives audit events for timesheet mutations.
type AuditPublisher interface {
	PublishClockIn(ctx context.Context, rec *repository.ShiftRecord)
	PublishClockOut(ctx context.Context, rec *repository.ShiftRecord)
	PublishManualEntry(ctx context.Context, rec *repository.ShiftRecord, enteredBy string, override bool)
}

// TimesheetService orchestrates the clock-in / clock-out workflow.
// Per (employee, date) a record moves NoRecord -> Open -> Closed; there is
// no transition out of Closed.
type TimesheetService struct {
	store     ShiftStore
	publisher AuditPublisher
	logger    *logger.Logger
}

// NewTimesheetService creates a new timesheet service
func NewTimesheetService(store ShiftStore, publisher AuditPublisher, log *logger.Logger) *TimesheetService {
	return &TimesheetService{
		store:     store,
		publisher: publisher,
		logger:    log,
	}
}

// ClockInInput carries a self-service clock-in submission.
type ClockInInput struct {
	Date    string `json:"date" validate:"required,datetime=2006-01-02"`
	ClockIn string `json:"clock_in" validate:"required"`
}

// ClockOutInput carries a self-service clock-out submission.
type ClockOutInput struct {
	Date          string `json:"date" validate:"required,datetime=2006-01-02"`
	ClockOut      string `json:"clock_out" validate:"required"`
	BreakDuration *int   `json:"break_duration" validate:"required,gte=0"`
}

// ManualEntryInput carries an HR direct entry of a complete shift.
type ManualEntryInput struct {
	EmployeeID    int64  `json:"employee_id" validate:"required"`
	Date          string `json:"date" validate:"required,datetime=2006-01-02"`
	ClockIn       string `json:"clock_in" validate:"required"`
	ClockOut      string `json:"clock_out" validate:"required"`
	BreakDuration int    `json:"break_duration" validate:"gte=0"`
	Override      bool   `json:"override"`
}

// ClockIn records the start of a shift. Clock-in is a once-per-day action:
// any existing record for the date, open or closed, rejects the attempt.
func (s *TimesheetService) ClockIn(ctx context.Context, employeeID int64, input ClockInInput) (*repository.ShiftRecord, error) {
	log := s.logger.With().
		Str("action", "clock_in").
		Int64("employee_id", employeeID).
		Str("date", input.Date).
		Str("clock_in", input.ClockIn).
		Logger()

	date, err := time.Parse(dateLayout, input.Date)
	if err != nil {
		return nil, errors.Validation(map[string]string{"date": "must match format YYYY-MM-DD"})
	}

	clockIn, err := timeclock.Parse(input.ClockIn)
	if err != nil {
		return nil, errors.Validation(map[string]string{"clock_in": "must be a valid time (HH:MM)"})
	}

	existing, err := s.store.FindShift(ctx, employeeID, date)
	if err != nil {
		log.Error().Err(err).Msg("duplicate check failed")
		return nil, errors.Internal("could not record clock-in, please try again")
	}
	if existing != nil {
		log.Warn().Msg("clock-in rejected, record already exists")
		return nil, errors.DuplicateShift()
	}

	rec := &repository.ShiftRecord{
		EmployeeID: employeeID,
		WorkDate:   date,
		ClockIn:    clockIn.String(),
		Status:     repository.StatusPending,
	}

	if err := s.store.CreateShift(ctx, rec); err != nil {
		// A concurrent clock-in may win between the check and the insert;
		// the unique index turns that into the same duplicate error.
		if errors.Is(err, errors.ErrDuplicateShift) {
			log.Warn().Msg("clock-in lost duplicate race")
			return nil, errors.DuplicateShift()
		}
		log.Error().Err(err).Msg("clock-in persist failed")
		return nil, errors.Internal("could not record clock-in, please try again")
	}

	log.Info().Str("shift_id", rec.ID).Msg("clock-in recorded")
	s.publisher.PublishClockIn(ctx, rec)

	return rec, nil
}

// ClockOut closes the open shift for the date, computing net worked hours.
func (s *TimesheetService) ClockOut(ctx context.Context, employeeID int64, input ClockOutInput) (*repository.ShiftRecord, error) {
	log := s.logger.With().
		Str("action", "clock_out").
		Int64("employee_id", employeeID).
		Str("date", input.Date).
		Str("clock_out", input.ClockOut).
		Logger()

	date, err := time.Parse(dateLayout, input.Date)
	if err != nil {
		return nil, errors.Validation(map[string]string{"date": "must match format YYYY-MM-DD"})
	}

	clockOut, err := timeclock.Parse(input.ClockOut)
	if err != nil {
		return nil, errors.Validation(map[string]string{"clock_out": "must be a valid time (HH:MM)"})
	}

	if input.BreakDuration == nil || *input.BreakDuration < 0 {
		return nil, errors.Validation(map[string]string{"break_duration": "must be zero or greater"})
	}
	breakMinutes := *input.BreakDuration

	rec, err := s.store.CloseShift(ctx, employeeID, date,
		func(open *repository.ShiftRecord) (string, int, float64, error) {
			clockIn, err := timeclock.Parse(open.ClockIn)
			if err != nil {
				return "", 0, 0, errors.Internal("stored clock-in time is unreadable")
			}

			if !clockIn.Before(clockOut) {
				return "", 0, 0, errors.ClockOrder()
			}

			hours := timeclock.WorkedHours(clockIn, clockOut, breakMinutes)
			if hours <= 0 {
				return "", 0, 0, errors.ZeroDuration()
			}

			return clockOut.String(), breakMinutes, hours, nil
		})
	if err != nil {
		switch {
		case errors.Is(err, errors.ErrNoOpenShift),
			errors.Is(err, errors.ErrClockOrder),
			errors.Is(err, errors.ErrZeroDuration):
			log.Warn().Err(err).Msg("clock-out rejected")
			return nil, err
		default:
			var appErr *errors.AppError
			if errors.As(err, &appErr) && appErr.StatusCode < 500 {
				return nil, err
			}
			log.Error().Err(err).Msg("clock-out persist failed")
			return nil, errors.Internal("could not record clock-out, please try again")
		}
	}

	log.Info().
		Str("shift_id", rec.ID).
		Int("break_minutes", breakMinutes).
		Float64("total_hours", *rec.TotalHours).
		Msg("clock-out recorded")
	s.publisher.PublishClockOut(ctx, rec)

	return rec, nil
}

// ManualEntry records a complete shift in one step on behalf of an employee
// (HR back-fill path). Without override the one-record-per-day rule applies;
// with override an existing record for the day is replaced.
func (s *TimesheetService) ManualEntry(ctx context.Context, enteredBy string, input ManualEntryInput) (*repository.ShiftRecord, error) {
	log := s.logger.With().
		Str("action", "manual_entry").
		Str("entered_by", enteredBy).
		Int64("employee_id", input.EmployeeID).
		Str("date", input.Date).
		Bool("override", input.Override).
		Logger()

	date, err := time.Parse(dateLayout, input.Date)
	if err != nil {
		return nil, errors.Validation(map[string]string{"date": "must match format YYYY-MM-DD"})
	}

	clockIn, err := timeclock.Parse(input.ClockIn)
	if err != nil {
		return nil, errors.Validation(map[string]string{"clock_in": "must be a valid time (HH:MM)"})
	}

	clockOut, err := timeclock.Parse(input.ClockOut)
	if err != nil {
		return nil, errors.Validation(map[string]string{"clock_out": "must be a valid time (HH:MM)"})
	}

	if input.BreakDuration < 0 {
		return nil, errors.Validation(map[string]string{"break_duration": "must be zero or greater"})
	}

	// Overnight entries are allowed here: a clock-out at or before the
	// clock-in wraps past midnight.
	hours := timeclock.WorkedHours(clockIn, clockOut, input.BreakDuration)
	if hours <= 0 {
		return nil, errors.ZeroDuration()
	}

	clockOutStr := clockOut.String()
	breakMinutes := input.BreakDuration
	rec := &repository.ShiftRecord{
		EmployeeID:   input.EmployeeID,
		WorkDate:     date,
		ClockIn:      clockIn.String(),
		ClockOut:     &clockOutStr,
		BreakMinutes: &breakMinutes,
		TotalHours:   &hours,
		Status:       repository.StatusApproved,
	}

	if err := s.store.CreateCompleteShift(ctx, rec, input.Override); err != nil {
		if errors.Is(err, errors.ErrDuplicateShift) {
			log.Warn().Msg("manual entry rejected, record already exists")
			return nil, errors.DuplicateShift()
		}
		var appErr *errors.AppError
		if errors.As(err, &appErr) && appErr.StatusCode < 500 {
			return nil, err
		}
		log.Error().Err(err).Msg("manual entry persist failed")
		return nil, errors.Internal("could not record shift entry, please try again")
	}

	log.Info().Str("shift_id", rec.ID).Msg("manual entry recorded")
	s.publisher.PublishManualEntry(ctx, rec, enteredBy, input.Override)

	return rec, nil
}

// History returns the employee's own records within a date range.
func (s *TimesheetService) History(ctx context.Context, employeeID int64, from, to time.Time) ([]*repository.ShiftRecord, error) {
	records, err := s.store.ListForEmployee(ctx, employeeID, from, to)
	if err != nil {
		s.logger.Error().Err(err).Int64("employee_id", employeeID).Msg("history query failed")
		return nil, errors.Internal("could not load timesheet history")
	}
	return records, nil
}
