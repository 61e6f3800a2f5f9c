package messaging

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Event types
const (
	// Timesheet audit events
	EventShiftClockIn     = "timesheet.shift.clock_in"
	EventShiftClockOut    = "timesheet.shift.clock_out"
	EventShiftManualEntry = "timesheet.shift.manual_entry"
)

// Exchange names
const (
	ExchangeTimesheetEvents = "timesheet.events"
)

// Event is the base event structure
type Event struct {
	ID            string          `json:"id"`
	Type          string          `json:"type"`
	Source        string          `json:"source"`
	Timestamp     time.Time       `json:"timestamp"`
	CorrelationID string          `json:"correlation_id"`
	Data          json.RawMessage `json:"data"`
}

// NewEvent creates a new event with the given type and data
func NewEvent(eventType, source, correlationID string, data interface{}) (*Event, error) {
	dataBytes, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}

	return &Event{
		ID:            uuid.New().String(),
		Type:          eventType,
		Source:        source,
		Timestamp:     time.Now().UTC(),
		CorrelationID: correlationID,
		Data:          dataBytes,
	}, nil
}

// UnmarshalData unmarshals the event data into the provided struct
func (e *Event) UnmarshalData(v interface{}) error {
	return json.Unmarshal(e.Data, v)
}

// ShiftClockInEvent is published when an employee clocks in
type ShiftClockInEvent struct {
	ShiftID    string `json:"shift_id"`
	EmployeeID int64  `json:"employee_id"`
	WorkDate   string `json:"work_date"`
	ClockIn    string `json:"clock_in"`
	Status     string `json:"status"`
}

// ShiftClockOutEvent is published when an employee clocks out
type ShiftClockOutEvent struct {
	ShiftID      string  `json:"shift_id"`
	EmployeeID   int64   `json:"employee_id"`
	WorkDate     string  `json:"work_date"`
	ClockOut     string  `json:"clock_out"`
	BreakMinutes int     `json:"break_minutes"`
	TotalHours   float64 `json:"total_hours"`
}

// ShiftManualEntryEvent is published when HR records a complete shift directly
type ShiftManualEntryEvent struct {
	ShiftID    string `json:"shift_id"`
	EmployeeID int64  `json:"employee_id"`
	WorkDate   string `json:"work_date"`
	EnteredBy  string `json:"entered_by"`
	Override   bool   `json:"override"`
}
