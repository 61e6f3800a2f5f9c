package events

import (
	"context"

	"github.com/threebee1/hrms-sub001/internal/timesheet/repository"
	"github.com/threebee1/hrms-sub001/pkg/logger"
	"github.com/threebee1/hrms-sub001/pkg/messaging"
)

// TimesheetEventPublisher publishes timesheet audit events. It is an audit
// trail collaborator, not a correctness dependency: publish failures are
// logged and swallowed, and a nil publisher is a no-op.
type TimesheetEventPublisher struct {
	publisher *messaging.Publisher
	logger    *logger.Logger
}

// NewTimesheetEventPublisher creates a new timesheet event publisher
func NewTimesheetEventPublisher(rmq *messaging.RabbitMQ, log *logger.Logger) (*TimesheetEventPublisher, error) {
	publisher, err := messaging.NewPublisher(rmq, messaging.ExchangeTimesheetEvents, "hrms-server", log)
	if err != nil {
		return nil, err
	}

	return &TimesheetEventPublisher{
		publisher: publisher,
		logger:    log,
	}, nil
}

// PublishClockIn publishes a clock-in audit event
func (p *TimesheetEventPublisher) PublishClockIn(ctx context.Context, rec *repository.ShiftRecord) {
	if p == nil {
		return
	}

	data := messaging.ShiftClockInEvent{
		ShiftID:    rec.ID,
		EmployeeID: rec.EmployeeID,
		WorkDate:   rec.WorkDate.Format("2006-01-02"),
		ClockIn:    rec.ClockIn,
		Status:     rec.Status,
	}

	if err := p.publisher.Publish(ctx, messaging.EventShiftClockIn, data); err != nil {
		p.logger.Error().Err(err).Str("shift_id", rec.ID).Msg("failed to publish clock-in event")
	}
}

// PublishClockOut publishes a clock-out audit event
func (p *TimesheetEventPublisher) PublishClockOut(ctx context.Context, rec *repository.ShiftRecord) {
	if p == nil {
		return
	}

	data := messaging.ShiftClockOutEvent{
		ShiftID:    rec.ID,
		EmployeeID: rec.EmployeeID,
		WorkDate:   rec.WorkDate.Format("2006-01-02"),
	}
	if rec.ClockOut != nil {
		data.ClockOut = *rec.ClockOut
	}
	if rec.BreakMinutes != nil {
		data.BreakMinutes = *rec.BreakMinutes
	}
	if rec.TotalHours != nil {
		data.TotalHours = *rec.TotalHours
	}

	if err := p.publisher.Publish(ctx, messaging.EventShiftClockOut, data); err != nil {
		p.logger.Error().Err(err).Str("shift_id", rec.ID).Msg("failed to publish clock-out event")
	}
}

// PublishManualEntry publishes an HR direct-entry audit event
func (p *TimesheetEventPublisher) PublishManualEntry(ctx context.Context, rec *repository.ShiftRecord, enteredBy string, override bool) {
	if p == nil {
		return
	}

	data := messaging.ShiftManualEntryEvent{
		ShiftID:    rec.ID,
		EmployeeID: rec.EmployeeID,
		WorkDate:   rec.WorkDate.Format("2006-01-02"),
		EnteredBy:  enteredBy,
		Override:   override,
	}

	if err := p.publisher.Publish(ctx, messaging.EventShiftManualEntry, data); err != nil {
		p.logger.Error().Err(err).Str("shift_id", rec.ID).Msg("failed to publish manual entry event")
	}
}
