package handler

import (
	"net/http"
	"time"

	"github.com/threebee1/hrms-sub001/internal/timesheet/service"
	"github.com/threebee1/hrms-sub001/pkg/errors"
	"github.com/threebee1/hrms-sub001/pkg/httputil"
	"github.com/threebee1/hrms-sub001/pkg/logger"
)

// TimesheetHandler handles the self-service clock-in / clock-out endpoints
type TimesheetHandler struct {
	service *service.TimesheetService
	logger  *logger.Logger
}

// NewTimesheetHandler creates a new timesheet handler
func NewTimesheetHandler(svc *service.TimesheetService, log *logger.Logger) *TimesheetHandler {
	return &TimesheetHandler{
		service: svc,
		logger:  log,
	}
}

// ClockIn records the start of the authenticated employee's shift
func (h *TimesheetHandler) ClockIn(w http.ResponseWriter, r *http.Request) {
	var req service.ClockInInput
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, err)
		return
	}

	if err := httputil.Validate(&req); err != nil {
		httputil.Error(w, err)
		return
	}

	rec, err := h.service.ClockIn(r.Context(), httputil.GetEmployeeID(r.Context()), req)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.Created(w, rec)
}

// ClockOut closes the authenticated employee's open shift
func (h *TimesheetHandler) ClockOut(w http.ResponseWriter, r *http.Request) {
	var req service.ClockOutInput
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, err)
		return
	}

	if err := httputil.Validate(&req); err != nil {
		httputil.Error(w, err)
		return
	}

	rec, err := h.service.ClockOut(r.Context(), httputil.GetEmployeeID(r.Context()), req)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, rec)
}

// History lists the authenticated employee's own records. Defaults to the
// last 30 days when no range is given.
func (h *TimesheetHandler) History(w http.ResponseWriter, r *http.Request) {
	to := time.Now()
	from := to.AddDate(0, 0, -30)

	if raw := r.URL.Query().Get("from"); raw != "" {
		t, err := time.Parse("2006-01-02", raw)
		if err != nil {
			httputil.Error(w, errors.BadRequest("invalid from date, expected YYYY-MM-DD"))
			return
		}
		from = t
	}
	if raw := r.URL.Query().Get("to"); raw != "" {
		t, err := time.Parse("2006-01-02", raw)
		if err != nil {
			httputil.Error(w, errors.BadRequest("invalid to date, expected YYYY-MM-DD"))
			return
		}
		to = t
	}

	records, err := h.service.History(r.Context(), httputil.GetEmployeeID(r.Context()), from, to)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSONWithMeta(w, http.StatusOK, records, &httputil.Meta{Count: len(records)})
}
