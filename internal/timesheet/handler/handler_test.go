package handler_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/threebee1/hrms-sub001/internal/timesheet/handler"
	"github.com/threebee1/hrms-sub001/internal/timesheet/repository"
	"github.com/threebee1/hrms-sub001/internal/timesheet/service"
	apperrors "github.com/threebee1/hrms-sub001/pkg/errors"
	"github.com/threebee1/hrms-sub001/pkg/httputil"
	"github.com/threebee1/hrms-sub001/pkg/logger"
)

// memStore is an in-memory service.ShiftStore keyed by (employee, date).
type memStore struct {
	records map[string]*repository.ShiftRecord
	views   []*repository.ShiftRecordView
}

func newMemStore() *memStore {
	return &memStore{records: make(map[string]*repository.ShiftRecord)}
}

func storeKey(employeeID int64, date time.Time) string {
	return fmt.Sprintf("%d/%s", employeeID, date.Format("2006-01-02"))
}

func (m *memStore) FindOpenShift(_ context.Context, employeeID int64, date time.Time) (*repository.ShiftRecord, error) {
	rec := m.records[storeKey(employeeID, date)]
	if rec == nil || !rec.Open() {
		return nil, nil
	}
	return rec, nil
}

func (m *memStore) FindShift(_ context.Context, employeeID int64, date time.Time) (*repository.ShiftRecord, error) {
	return m.records[storeKey(employeeID, date)], nil
}

func (m *memStore) CreateShift(_ context.Context, rec *repository.ShiftRecord) error {
	k := storeKey(rec.EmployeeID, rec.WorkDate)
	rec.ID = k
	m.records[k] = rec
	return nil
}

func (m *memStore) CreateCompleteShift(_ context.Context, rec *repository.ShiftRecord, override bool) error {
	k := storeKey(rec.EmployeeID, rec.WorkDate)
	rec.ID = k
	m.records[k] = rec
	return nil
}

func (m *memStore) CloseShift(ctx context.Context, employeeID int64, date time.Time, fn repository.CloseShiftFunc) (*repository.ShiftRecord, error) {
	open, err := m.FindOpenShift(ctx, employeeID, date)
	if err != nil {
		return nil, err
	}
	if open == nil {
		return nil, apperrors.NoOpenShift()
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

func (m *memStore) ListForEmployee(_ context.Context, employeeID int64, _, _ time.Time) ([]*repository.ShiftRecord, error) {
	var out []*repository.ShiftRecord
	for _, rec := range m.records {
		if rec.EmployeeID == employeeID {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (m *memStore) Query(_ context.Context, _ repository.QueryFilter) ([]*repository.ShiftRecordView, error) {
	return m.views, nil
}

type noopPublisher struct{}

func (noopPublisher) PublishClockIn(context.Context, *repository.ShiftRecord)                   {}
func (noopPublisher) PublishClockOut(context.Context, *repository.ShiftRecord)                  {}
func (noopPublisher) PublishManualEntry(context.Context, *repository.ShiftRecord, string, bool) {}

// asEmployee injects an authenticated employee into the request context.
func asEmployee(employeeID int64, role string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := httputil.WithUserContext(r.Context(), fmt.Sprintf("%d", employeeID), employeeID, role, "sess-test")
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func newTestRouter(store *memStore) chi.Router {
	log := logger.New("handler-test", "test")
	timesheetSvc := service.NewTimesheetService(store, noopPublisher{}, log)
	reportSvc := service.NewReportService(store, log)
	exportSvc := service.NewExportService(reportSvc, log)

	th := handler.NewTimesheetHandler(timesheetSvc, log)
	rh := handler.NewReportHandler(reportSvc, exportSvc, timesheetSvc, log)

	r := chi.NewRouter()
	r.Group(func(r chi.Router) {
		r.Use(asEmployee(7, "employee"))
		r.Post("/api/v1/timesheet/clock-in", th.ClockIn)
		r.Post("/api/v1/timesheet/clock-out", th.ClockOut)
		r.Get("/api/v1/timesheet/me", th.History)
	})
	r.Group(func(r chi.Router) {
		r.Use(asEmployee(1, "hr"))
		r.Get("/api/v1/reports/timesheet", rh.Report)
		r.Post("/api/v1/reports/timesheet/entries", rh.ManualEntry)
	})
	return r
}

func doJSON(t *testing.T, router http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decodeResponse(t *testing.T, rec *httptest.ResponseRecorder) httputil.Response {
	t.Helper()
	var resp httputil.Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func TestClockInEndpoint(t *testing.T) {
	t.Run("creates record", func(t *testing.T) {
		router := newTestRouter(newMemStore())

		rec := doJSON(t, router, http.MethodPost, "/api/v1/timesheet/clock-in",
			`{"date":"2026-03-02","clock_in":"09:00"}`)

		require.Equal(t, http.StatusCreated, rec.Code)
		resp := decodeResponse(t, rec)
		assert.True(t, resp.Success)

		data := resp.Data.(map[string]interface{})
		assert.Equal(t, "09:00", data["clock_in"])
		assert.Equal(t, "pending", data["status"])
	})

	t.Run("duplicate returns 409", func(t *testing.T) {
		router := newTestRouter(newMemStore())

		doJSON(t, router, http.MethodPost, "/api/v1/timesheet/clock-in",
			`{"date":"2026-03-02","clock_in":"09:00"}`)
		rec := doJSON(t, router, http.MethodPost, "/api/v1/timesheet/clock-in",
			`{"date":"2026-03-02","clock_in":"10:00"}`)

		require.Equal(t, http.StatusConflict, rec.Code)
		resp := decodeResponse(t, rec)
		assert.Equal(t, "DUPLICATE_SHIFT", resp.Error.Code)
	})

	t.Run("missing fields return 400", func(t *testing.T) {
		router := newTestRouter(newMemStore())

		rec := doJSON(t, router, http.MethodPost, "/api/v1/timesheet/clock-in", `{"date":"2026-03-02"}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("invalid JSON returns 400", func(t *testing.T) {
		router := newTestRouter(newMemStore())

		rec := doJSON(t, router, http.MethodPost, "/api/v1/timesheet/clock-in", `{`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestClockOutEndpoint(t *testing.T) {
	t.Run("closes open shift", func(t *testing.T) {
		router := newTestRouter(newMemStore())

		doJSON(t, router, http.MethodPost, "/api/v1/timesheet/clock-in",
			`{"date":"2026-03-02","clock_in":"09:00"}`)
		rec := doJSON(t, router, http.MethodPost, "/api/v1/timesheet/clock-out",
			`{"date":"2026-03-02","clock_out":"17:30","break_duration":30}`)

		require.Equal(t, http.StatusOK, rec.Code)
		resp := decodeResponse(t, rec)
		data := resp.Data.(map[string]interface{})
		assert.Equal(t, "17:30", data["clock_out"])
		assert.InDelta(t, 8.0, data["total_hours"].(float64), 0.001)
	})

	t.Run("no open shift returns 400", func(t *testing.T) {
		router := newTestRouter(newMemStore())

		rec := doJSON(t, router, http.MethodPost, "/api/v1/timesheet/clock-out",
			`{"date":"2026-03-02","clock_out":"17:30","break_duration":0}`)

		require.Equal(t, http.StatusBadRequest, rec.Code)
		resp := decodeResponse(t, rec)
		assert.Equal(t, "NO_OPEN_SHIFT", resp.Error.Code)
	})

	t.Run("clock-out before clock-in returns 400", func(t *testing.T) {
		router := newTestRouter(newMemStore())

		doJSON(t, router, http.MethodPost, "/api/v1/timesheet/clock-in",
			`{"date":"2026-03-02","clock_in":"09:00"}`)
		rec := doJSON(t, router, http.MethodPost, "/api/v1/timesheet/clock-out",
			`{"date":"2026-03-02","clock_out":"08:00","break_duration":0}`)

		require.Equal(t, http.StatusBadRequest, rec.Code)
		resp := decodeResponse(t, rec)
		assert.Equal(t, "CLOCK_ORDER", resp.Error.Code)
	})
}

func TestHistoryEndpoint(t *testing.T) {
	t.Run("lists own records with count", func(t *testing.T) {
		router := newTestRouter(newMemStore())

		doJSON(t, router, http.MethodPost, "/api/v1/timesheet/clock-in",
			`{"date":"2026-03-02","clock_in":"09:00"}`)

		req := httptest.NewRequest(http.MethodGet, "/api/v1/timesheet/me", nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		resp := decodeResponse(t, rec)
		require.NotNil(t, resp.Meta)
		assert.Equal(t, 1, resp.Meta.Count)
	})

	t.Run("bad range returns 400", func(t *testing.T) {
		router := newTestRouter(newMemStore())

		req := httptest.NewRequest(http.MethodGet, "/api/v1/timesheet/me?from=garbage", nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func sampleViews() []*repository.ShiftRecordView {
	clockOut := "17:00:00"
	breakMinutes := 30
	totalHours := 7.5
	return []*repository.ShiftRecordView{
		{
			EmployeeID:   7,
			EmployeeName: "Ada Lovelace",
			WorkDate:     time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC),
			ClockIn:      "09:00:00",
			ClockOut:     &clockOut,
			BreakMinutes: &breakMinutes,
			TotalHours:   &totalHours,
			Status:       repository.StatusApproved,
		},
	}
}

func TestReportEndpoint(t *testing.T) {
	t.Run("returns rows with count", func(t *testing.T) {
		store := newMemStore()
		store.views = sampleViews()
		router := newTestRouter(store)

		req := httptest.NewRequest(http.MethodGet, "/api/v1/reports/timesheet?sort=name_asc", nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		resp := decodeResponse(t, rec)
		require.NotNil(t, resp.Meta)
		assert.Equal(t, 1, resp.Meta.Count)
	})

	t.Run("export=pdf streams a PDF download", func(t *testing.T) {
		store := newMemStore()
		store.views = sampleViews()
		router := newTestRouter(store)

		req := httptest.NewRequest(http.MethodGet, "/api/v1/reports/timesheet?export=pdf", nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "application/pdf", rec.Header().Get("Content-Type"))
		assert.Contains(t, rec.Header().Get("Content-Disposition"), "timesheet_report_")
		assert.Equal(t, "%PDF", rec.Body.String()[:4])
	})

	t.Run("export=excel streams a workbook", func(t *testing.T) {
		store := newMemStore()
		store.views = sampleViews()
		router := newTestRouter(store)

		req := httptest.NewRequest(http.MethodGet, "/api/v1/reports/timesheet?export=excel", nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", rec.Header().Get("Content-Type"))
		assert.Contains(t, rec.Header().Get("Content-Disposition"), ".xlsx")
		assert.NotZero(t, rec.Body.Len())
	})

	t.Run("unknown export format returns 400", func(t *testing.T) {
		router := newTestRouter(newMemStore())

		req := httptest.NewRequest(http.MethodGet, "/api/v1/reports/timesheet?export=csv", nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestManualEntryEndpoint(t *testing.T) {
	t.Run("creates approved record", func(t *testing.T) {
		router := newTestRouter(newMemStore())

		rec := doJSON(t, router, http.MethodPost, "/api/v1/reports/timesheet/entries",
			`{"employee_id":7,"date":"2026-03-02","clock_in":"08:00","clock_out":"16:00","break_duration":30}`)

		require.Equal(t, http.StatusCreated, rec.Code)
		resp := decodeResponse(t, rec)
		data := resp.Data.(map[string]interface{})
		assert.Equal(t, "approved", data["status"])
		assert.InDelta(t, 7.5, data["total_hours"].(float64), 0.001)
	})

	t.Run("missing employee_id returns 400", func(t *testing.T) {
		router := newTestRouter(newMemStore())

		rec := doJSON(t, router, http.MethodPost, "/api/v1/reports/timesheet/entries",
			`{"date":"2026-03-02","clock_in":"08:00","clock_out":"16:00"}`)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}
