package handler

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/threebee1/hrms-sub001/internal/timesheet/service"
	"github.com/threebee1/hrms-sub001/pkg/errors"
	"github.com/threebee1/hrms-sub001/pkg/httputil"
	"github.com/threebee1/hrms-sub001/pkg/logger"
)

// ReportHandler handles the HR report and export endpoints
type ReportHandler struct {
	reports   *service.ReportService
	exports   *service.ExportService
	timesheet *service.TimesheetService
	logger    *logger.Logger
}

// NewReportHandler creates a new report handler
func NewReportHandler(reports *service.ReportService, exports *service.ExportService, timesheet *service.TimesheetService, log *logger.Logger) *ReportHandler {
	return &ReportHandler{
		reports:   reports,
		exports:   exports,
		timesheet: timesheet,
		logger:    log,
	}
}

func reportFilterFromQuery(r *http.Request) service.ReportFilter {
	filter := service.ReportFilter{
		Date: r.URL.Query().Get("date"),
		Sort: r.URL.Query().Get("sort"),
	}

	if raw := r.URL.Query().Get("employee_id"); raw != "" {
		if id, err := strconv.ParseInt(raw, 10, 64); err == nil && id > 0 {
			filter.EmployeeID = &id
		}
	}
	if limit, _ := strconv.Atoi(r.URL.Query().Get("limit")); limit > 0 {
		filter.Limit = limit
	}
	if offset, _ := strconv.Atoi(r.URL.Query().Get("offset")); offset > 0 {
		filter.Offset = offset
	}

	return filter
}

// Report lists shift records across employees, optionally exported as a
// PDF or Excel download via ?export=pdf|excel.
func (h *ReportHandler) Report(w http.ResponseWriter, r *http.Request) {
	filter := reportFilterFromQuery(r)

	switch r.URL.Query().Get("export") {
	case "":
	case "pdf":
		h.servePDF(w, r, filter)
		return
	case "excel":
		h.serveExcel(w, r, filter)
		return
	default:
		httputil.Error(w, errors.BadRequest("unknown export format, expected pdf or excel"))
		return
	}

	views, err := h.reports.Query(r.Context(), filter)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSONWithMeta(w, http.StatusOK, views, &httputil.Meta{
		Limit:  filter.Limit,
		Offset: filter.Offset,
		Count:  len(views),
	})
}

func (h *ReportHandler) servePDF(w http.ResponseWriter, r *http.Request, filter service.ReportFilter) {
	pdfBytes, filename, err := h.exports.ExportPDF(r.Context(), filter)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.Header().Set("Content-Length", fmt.Sprintf("%d", len(pdfBytes)))
	w.Header().Set("Cache-Control", "no-cache")
	w.Write(pdfBytes)
}

func (h *ReportHandler) serveExcel(w http.ResponseWriter, r *http.Request, filter service.ReportFilter) {
	xlsxBytes, filename, err := h.exports.ExportExcel(r.Context(), filter)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.Header().Set("Content-Length", fmt.Sprintf("%d", len(xlsxBytes)))
	w.Header().Set("Cache-Control", "no-cache")
	w.Write(xlsxBytes)
}

// ManualEntry records a complete shift on behalf of an employee
func (h *ReportHandler) ManualEntry(w http.ResponseWriter, r *http.Request) {
	var req service.ManualEntryInput
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, err)
		return
	}

	if err := httputil.Validate(&req); err != nil {
		httputil.Error(w, err)
		return
	}

	rec, err := h.timesheet.ManualEntry(r.Context(), httputil.GetUserID(r.Context()), req)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.Created(w, rec)
}
