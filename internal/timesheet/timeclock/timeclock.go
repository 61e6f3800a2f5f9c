// Package timeclock holds the pure time arithmetic for the timesheet
// subsystem: parsing wall-clock times and computing net worked duration.
package timeclock

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrInvalidTimeFormat is returned when a time expression cannot be parsed.
var ErrInvalidTimeFormat = errors.New("invalid time format")

// NotAvailable is the sentinel rendered for an absent duration.
const NotAvailable = "N/A"

// layouts accepted by Parse, tried in order.
var layouts = []string{
	"15:04",    // 24-hour
	"3:04 PM",  // 12-hour with space
	"3:04PM",   // 12-hour without space
	"15:04:05", // 24-hour with seconds (database TIME columns)
}

// TimeOfDay is a wall-clock time with minute resolution.
type TimeOfDay struct {
	Hour   int
	Minute int
}

// Parse normalizes a time expression into a TimeOfDay. It accepts 24-hour
// HH:MM and 12-hour h:MM AM/PM forms.
func Parse(raw string) (TimeOfDay, error) {
	s := strings.ToUpper(strings.TrimSpace(raw))
	if s == "" {
		return TimeOfDay{}, ErrInvalidTimeFormat
	}

	for _, layout := range layouts {
		t, err := time.Parse(layout, s)
		if err == nil {
			return TimeOfDay{Hour: t.Hour(), Minute: t.Minute()}, nil
		}
	}

	return TimeOfDay{}, fmt.Errorf("%w: %q", ErrInvalidTimeFormat, raw)
}

// Minutes returns the time as minutes since midnight.
func (t TimeOfDay) Minutes() int {
	return t.Hour*60 + t.Minute
}

// Before reports whether t is strictly earlier in the day than other.
func (t TimeOfDay) Before(other TimeOfDay) bool {
	return t.Minutes() < other.Minutes()
}

// String renders the time as zero-padded 24-hour HH:MM.
func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour, t.Minute)
}

// WorkedHours computes net worked duration in fractional hours for a shift
// spanning clockIn to clockOut on the same calendar day, minus breakMinutes.
//
// When clockOut <= clockIn the shift is assumed to cross midnight exactly
// once and 24 hours are added before subtracting. Shifts longer than 24
// hours are not representable. The result is clamped at 0; a break longer
// than the gross shift yields 0, not an error.
func WorkedHours(clockIn, clockOut TimeOfDay, breakMinutes int) float64 {
	outMinutes := clockOut.Minutes()
	if outMinutes <= clockIn.Minutes() {
		outMinutes += 24 * 60
	}

	workedSeconds := (outMinutes-clockIn.Minutes())*60 - breakMinutes*60
	if workedSeconds < 0 {
		return 0
	}

	return float64(workedSeconds) / 3600
}

// FormatDuration renders fractional hours as zero-padded HH:MM, or the
// NotAvailable sentinel when hours is absent.
func FormatDuration(hours *float64) string {
	if hours == nil {
		return NotAvailable
	}

	totalMinutes := int(*hours*60 + 0.5)
	return fmt.Sprintf("%02d:%02d", totalMinutes/60, totalMinutes%60)
}
