package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/threebee1/hrms-sub001/internal/timesheet/repository"
	"github.com/threebee1/hrms-sub001/pkg/errors"
	"github.com/threebee1/hrms-sub001/pkg/logger"
)

// fakeStore is an in-memory ShiftStore keyed by (employee, date).
type fakeStore struct {
	records map[string]*repository.ShiftRecord
	views   []*repository.ShiftRecordView

	createErr    error
	lastOverride bool
	lastFilter   repository.QueryFilter
}

func newFakeStore() *fakeStore {
	return &fakeStore{records: make(map[string]*repository.ShiftRecord)}
}

func key(employeeID int64, date time.Time) string {
	return fmt.Sprintf("%d/%s", employeeID, date.Format("2006-01-02"))
}

func (f *fakeStore) FindOpenShift(_ context.Context, employeeID int64, date time.Time) (*repository.ShiftRecord, error) {
	rec := f.records[key(employeeID, date)]
	if rec == nil || !rec.Open() {
		return nil, nil
	}
	return rec, nil
}

func (f *fakeStore) FindShift(_ context.Context, employeeID int64, date time.Time) (*repository.ShiftRecord, error) {
	return f.records[key(employeeID, date)], nil
}

func (f *fakeStore) CreateShift(_ context.Context, rec *repository.ShiftRecord) error {
	if f.createErr != nil {
		return f.createErr
	}
	k := key(rec.EmployeeID, rec.WorkDate)
	if _, ok := f.records[k]; ok {
		return errors.DuplicateShift()
	}
	rec.ID = k
	f.records[k] = rec
	return nil
}

func (f *fakeStore) CreateCompleteShift(_ context.Context, rec *repository.ShiftRecord, override bool) error {
	f.lastOverride = override
	k := key(rec.EmployeeID, rec.WorkDate)
	if _, ok := f.records[k]; ok && !override {
		return errors.DuplicateShift()
	}
	rec.ID = k
	f.records[k] = rec
	return nil
}

func (f *fakeStore) CloseShift(ctx context.Context, employeeID int64, date time.Time, fn repository.CloseShiftFunc) (*repository.ShiftRecord, error) {
	open, err := f.FindOpenShift(ctx, employeeID, date)
	if err != nil {
		return nil, err
	}
	if open == nil {
		return nil, errors.NoOpenShift()
	}
	clockOut, breakMinutes, totalHours, err := fn(open)
	if err != nil {
		return nil, err
	}
	open.ClockOut = &clockOut
	open.BreakMinutes = &breakMinutes
	open.TotalHours = &totalHours
	return open, nil
}

func (f *fakeStore) ListForEmployee(_ context.Context, employeeID int64, _, _ time.Time) ([]*repository.ShiftRecord, error) {
	var out []*repository.ShiftRecord
	for _, rec := range f.records {
		if rec.EmployeeID == employeeID {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (f *fakeStore) Query(_ context.Context, filter repository.QueryFilter) ([]*repository.ShiftRecordView, error) {
	f.lastFilter = filter
	return f.views, nil
}

// fakePublisher records which audit events were emitted.
type fakePublisher struct {
	clockIns      []*repository.ShiftRecord
	clockOuts     []*repository.ShiftRecord
	manualEntries []*repository.ShiftRecord
}

func (f *fakePublisher) PublishClockIn(_ context.Context, rec *repository.ShiftRecord) {
	f.clockIns = append(f.clockIns, rec)
}

func (f *fakePublisher) PublishClockOut(_ context.Context, rec *repository.ShiftRecord) {
	f.clockOuts = append(f.clockOuts, rec)
}

func (f *fakePublisher) PublishManualEntry(_ context.Context, rec *repository.ShiftRecord, _ string, _ bool) {
	f.manualEntries = append(f.manualEntries, rec)
}

func newTestService() (*TimesheetService, *fakeStore, *fakePublisher) {
	store := newFakeStore()
	pub := &fakePublisher{}
	log := logger.New("timesheet-test", "test")
	return NewTimesheetService(store, pub, log), store, pub
}

func intPtr(v int) *int { return &v }

func TestTimesheetService_ClockIn(t *testing.T) {
	ctx := context.Background()

	t.Run("creates open pending record", func(t *testing.T) {
		svc, _, pub := newTestService()

		rec, err := svc.ClockIn(ctx, 7, ClockInInput{Date: "2026-03-02", ClockIn: "9:00 AM"})
		require.NoError(t, err)

		assert.Equal(t, int64(7), rec.EmployeeID)
		assert.Equal(t, "09:00", rec.ClockIn)
		assert.Equal(t, repository.StatusPending, rec.Status)
		assert.True(t, rec.Open())
		assert.Len(t, pub.clockIns, 1)
	})

	t.Run("rejects malformed date", func(t *testing.T) {
		svc, _, _ := newTestService()

		_, err := svc.ClockIn(ctx, 7, ClockInInput{Date: "03/02/2026", ClockIn: "09:00"})
		assert.ErrorIs(t, err, errors.ErrValidation)
	})

	t.Run("rejects malformed time", func(t *testing.T) {
		svc, _, _ := newTestService()

		_, err := svc.ClockIn(ctx, 7, ClockInInput{Date: "2026-03-02", ClockIn: "25:00"})
		assert.ErrorIs(t, err, errors.ErrValidation)
	})

	t.Run("rejects second clock-in for the same day", func(t *testing.T) {
		svc, _, pub := newTestService()

		_, err := svc.ClockIn(ctx, 7, ClockInInput{Date: "2026-03-02", ClockIn: "09:00"})
		require.NoError(t, err)

		_, err = svc.ClockIn(ctx, 7, ClockInInput{Date: "2026-03-02", ClockIn: "10:00"})
		assert.ErrorIs(t, err, errors.ErrDuplicateShift)
		assert.Len(t, pub.clockIns, 1)
	})

	t.Run("clock-in after clock-out is still rejected", func(t *testing.T) {
		svc, _, _ := newTestService()

		_, err := svc.ClockIn(ctx, 7, ClockInInput{Date: "2026-03-02", ClockIn: "09:00"})
		require.NoError(t, err)
		_, err = svc.ClockOut(ctx, 7, ClockOutInput{Date: "2026-03-02", ClockOut: "17:00", BreakDuration: intPtr(0)})
		require.NoError(t, err)

		_, err = svc.ClockIn(ctx, 7, ClockInInput{Date: "2026-03-02", ClockIn: "18:00"})
		assert.ErrorIs(t, err, errors.ErrDuplicateShift)
	})

	t.Run("maps insert race to duplicate error", func(t *testing.T) {
		svc, store, _ := newTestService()
		store.createErr = errors.DuplicateShift()

		_, err := svc.ClockIn(ctx, 7, ClockInInput{Date: "2026-03-02", ClockIn: "09:00"})
		assert.ErrorIs(t, err, errors.ErrDuplicateShift)
	})

	t.Run("same date, different employees", func(t *testing.T) {
		svc, _, _ := newTestService()

		_, err := svc.ClockIn(ctx, 7, ClockInInput{Date: "2026-03-02", ClockIn: "09:00"})
		require.NoError(t, err)
		_, err = svc.ClockIn(ctx, 8, ClockInInput{Date: "2026-03-02", ClockIn: "09:00"})
		assert.NoError(t, err)
	})
}

func TestTimesheetService_ClockOut(t *testing.T) {
	ctx := context.Background()

	clockIn := func(t *testing.T, svc *TimesheetService, at string) {
		t.Helper()
		_, err := svc.ClockIn(ctx, 7, ClockInInput{Date: "2026-03-02", ClockIn: at})
		require.NoError(t, err)
	}

	t.Run("closes shift and computes hours", func(t *testing.T) {
		svc, _, pub := newTestService()
		clockIn(t, svc, "09:00")

		rec, err := svc.ClockOut(ctx, 7, ClockOutInput{Date: "2026-03-02", ClockOut: "17:30", BreakDuration: intPtr(30)})
		require.NoError(t, err)

		require.NotNil(t, rec.ClockOut)
		assert.Equal(t, "17:30", *rec.ClockOut)
		require.NotNil(t, rec.TotalHours)
		assert.InDelta(t, 8.0, *rec.TotalHours, 0.001)
		assert.False(t, rec.Open())
		assert.Len(t, pub.clockOuts, 1)
	})

	t.Run("rejects when no shift is open", func(t *testing.T) {
		svc, _, _ := newTestService()

		_, err := svc.ClockOut(ctx, 7, ClockOutInput{Date: "2026-03-02", ClockOut: "17:00", BreakDuration: intPtr(0)})
		assert.ErrorIs(t, err, errors.ErrNoOpenShift)
	})

	t.Run("rejects clock-out at or before clock-in", func(t *testing.T) {
		svc, _, _ := newTestService()
		clockIn(t, svc, "09:00")

		_, err := svc.ClockOut(ctx, 7, ClockOutInput{Date: "2026-03-02", ClockOut: "09:00", BreakDuration: intPtr(0)})
		assert.ErrorIs(t, err, errors.ErrClockOrder)

		_, err = svc.ClockOut(ctx, 7, ClockOutInput{Date: "2026-03-02", ClockOut: "08:00", BreakDuration: intPtr(0)})
		assert.ErrorIs(t, err, errors.ErrClockOrder)
	})

	t.Run("rejects break swallowing the whole shift", func(t *testing.T) {
		svc, _, _ := newTestService()
		clockIn(t, svc, "09:00")

		_, err := svc.ClockOut(ctx, 7, ClockOutInput{Date: "2026-03-02", ClockOut: "09:30", BreakDuration: intPtr(45)})
		assert.ErrorIs(t, err, errors.ErrZeroDuration)
	})

	t.Run("rejects missing or negative break", func(t *testing.T) {
		svc, _, _ := newTestService()
		clockIn(t, svc, "09:00")

		_, err := svc.ClockOut(ctx, 7, ClockOutInput{Date: "2026-03-02", ClockOut: "17:00"})
		assert.ErrorIs(t, err, errors.ErrValidation)

		_, err = svc.ClockOut(ctx, 7, ClockOutInput{Date: "2026-03-02", ClockOut: "17:00", BreakDuration: intPtr(-10)})
		assert.ErrorIs(t, err, errors.ErrValidation)
	})

	t.Run("failed clock-out leaves shift open", func(t *testing.T) {
		svc, store, _ := newTestService()
		clockIn(t, svc, "09:00")

		_, err := svc.ClockOut(ctx, 7, ClockOutInput{Date: "2026-03-02", ClockOut: "08:00", BreakDuration: intPtr(0)})
		require.Error(t, err)

		rec := store.records[key(7, mustDate(t, "2026-03-02"))]
		require.NotNil(t, rec)
		assert.True(t, rec.Open())
	})
}

func TestTimesheetService_ManualEntry(t *testing.T) {
	ctx := context.Background()

	t.Run("records approved complete shift", func(t *testing.T) {
		svc, store, pub := newTestService()

		rec, err := svc.ManualEntry(ctx, "hr@example.com", ManualEntryInput{
			EmployeeID:    7,
			Date:          "2026-03-02",
			ClockIn:       "08:30",
			ClockOut:      "16:30",
			BreakDuration: 60,
		})
		require.NoError(t, err)

		assert.Equal(t, repository.StatusApproved, rec.Status)
		require.NotNil(t, rec.TotalHours)
		assert.InDelta(t, 7.0, *rec.TotalHours, 0.001)
		assert.False(t, store.lastOverride)
		assert.Len(t, pub.manualEntries, 1)
	})

	t.Run("allows overnight shifts", func(t *testing.T) {
		svc, _, _ := newTestService()

		rec, err := svc.ManualEntry(ctx, "hr@example.com", ManualEntryInput{
			EmployeeID:    7,
			Date:          "2026-03-02",
			ClockIn:       "22:00",
			ClockOut:      "06:00",
			BreakDuration: 0,
		})
		require.NoError(t, err)
		assert.InDelta(t, 8.0, *rec.TotalHours, 0.001)
	})

	t.Run("rejects existing record without override", func(t *testing.T) {
		svc, _, _ := newTestService()

		_, err := svc.ClockIn(ctx, 7, ClockInInput{Date: "2026-03-02", ClockIn: "09:00"})
		require.NoError(t, err)

		_, err = svc.ManualEntry(ctx, "hr@example.com", ManualEntryInput{
			EmployeeID:    7,
			Date:          "2026-03-02",
			ClockIn:       "08:00",
			ClockOut:      "16:00",
			BreakDuration: 0,
		})
		assert.ErrorIs(t, err, errors.ErrDuplicateShift)
	})

	t.Run("override replaces existing record", func(t *testing.T) {
		svc, store, _ := newTestService()

		_, err := svc.ClockIn(ctx, 7, ClockInInput{Date: "2026-03-02", ClockIn: "09:00"})
		require.NoError(t, err)

		rec, err := svc.ManualEntry(ctx, "hr@example.com", ManualEntryInput{
			EmployeeID:    7,
			Date:          "2026-03-02",
			ClockIn:       "08:00",
			ClockOut:      "16:00",
			BreakDuration: 0,
			Override:      true,
		})
		require.NoError(t, err)
		assert.True(t, store.lastOverride)
		assert.InDelta(t, 8.0, *rec.TotalHours, 0.001)
	})

	t.Run("rejects break swallowing the whole shift", func(t *testing.T) {
		svc, _, _ := newTestService()

		_, err := svc.ManualEntry(ctx, "hr@example.com", ManualEntryInput{
			EmployeeID:    7,
			Date:          "2026-03-02",
			ClockIn:       "09:00",
			ClockOut:      "10:00",
			BreakDuration: 120,
		})
		assert.ErrorIs(t, err, errors.ErrZeroDuration)
	})
}

func mustDate(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := time.Parse("2006-01-02", s)
	require.NoError(t, err)
	return d
}
