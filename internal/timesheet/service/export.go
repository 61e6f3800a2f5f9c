package service

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/go-pdf/fpdf"
	"github.com/xuri/excelize/v2"

	"github.com/threebee1/hrms-sub001/internal/timesheet/repository"
	"github.com/threebee1/hrms-sub001/internal/timesheet/timeclock"
	"github.com/threebee1/hrms-sub001/pkg/errors"
	"github.com/threebee1/hrms-sub001/pkg/logger"
)

// reportColumns are the export column headers, in render order.
var reportColumns = []string{"Employee", "Date", "Clock In", "Clock Out", "Break (mins)", "Total Hours"}

// ExportService renders timesheet reports as downloadable documents.
type ExportService struct {
	reports *ReportService
	logger  *logger.Logger
	now     func() time.Time
}

// NewExportService creates a new export service
func NewExportService(reports *ReportService, log *logger.Logger) *ExportService {
	return &ExportService{
		reports: reports,
		logger:  log,
		now:     time.Now,
	}
}

// reportRow is one formatted export line. Open shifts render N/A for the
// fields that only exist after clock-out.
type reportRow struct {
	Employee  string
	Date      string
	ClockIn   string
	ClockOut  string
	BreakMins string
	Total     string
}

func formatRow(v *repository.ShiftRecordView) reportRow {
	row := reportRow{
		Employee:  v.EmployeeName,
		Date:      v.WorkDate.Format("2006-01-02"),
		ClockIn:   displayTime(v.ClockIn),
		ClockOut:  timeclock.NotAvailable,
		BreakMins: timeclock.NotAvailable,
		Total:     timeclock.FormatDuration(v.TotalHours),
	}
	if v.ClockOut != nil {
		row.ClockOut = displayTime(*v.ClockOut)
	}
	if v.BreakMinutes != nil {
		row.BreakMins = fmt.Sprintf("%d", *v.BreakMinutes)
	}
	return row
}

// displayTime normalizes a stored TIME value ("09:00" or "09:00:00") to HH:MM.
func displayTime(raw string) string {
	t, err := timeclock.Parse(raw)
	if err != nil {
		return raw
	}
	return t.String()
}

func (s *ExportService) rows(ctx context.Context, filter ReportFilter) ([]reportRow, error) {
	views, err := s.reports.Query(ctx, filter)
	if err != nil {
		return nil, err
	}
	rows := make([]reportRow, 0, len(views))
	for _, v := range views {
		rows = append(rows, formatRow(v))
	}
	return rows, nil
}

// ExportPDF renders the filtered report as a PDF and returns the document
// bytes with a date-stamped download filename.
func (s *ExportService) ExportPDF(ctx context.Context, filter ReportFilter) ([]byte, string, error) {
	rows, err := s.rows(ctx, filter)
	if err != nil {
		return nil, "", err
	}

	pdf := fpdf.New("L", "mm", "A4", "")
	pdf.SetTitle("Timesheet Report", false)
	pdf.SetAutoPageBreak(true, 15)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 14)
	pdf.CellFormat(0, 10, "Timesheet Report", "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 9)
	pdf.CellFormat(0, 6, fmt.Sprintf("Generated %s", s.now().Format("2006-01-02 15:04")), "", 1, "L", false, 0, "")
	pdf.Ln(4)

	widths := []float64{70, 35, 30, 30, 35, 35}

	pdf.SetFont("Helvetica", "B", 10)
	pdf.SetFillColor(230, 230, 230)
	for i, col := range reportColumns {
		pdf.CellFormat(widths[i], 8, col, "1", 0, "L", true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Helvetica", "", 10)
	for _, row := range rows {
		cells := []string{row.Employee, row.Date, row.ClockIn, row.ClockOut, row.BreakMins, row.Total}
		for i, cell := range cells {
			pdf.CellFormat(widths[i], 7, cell, "1", 0, "L", false, 0, "")
		}
		pdf.Ln(-1)
	}

	if len(rows) == 0 {
		pdf.Ln(2)
		pdf.SetFont("Helvetica", "I", 10)
		pdf.CellFormat(0, 8, "No records match the selected filters.", "", 1, "L", false, 0, "")
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		s.logger.Error().Err(err).Msg("pdf render failed")
		return nil, "", errors.Internal("could not generate PDF report")
	}

	filename := fmt.Sprintf("timesheet_report_%s.pdf", s.now().Format("20060102"))
	return buf.Bytes(), filename, nil
}

// ExportExcel renders the filtered report as an xlsx workbook.
func (s *ExportService) ExportExcel(ctx context.Context, filter ReportFilter) ([]byte, string, error) {
	rows, err := s.rows(ctx, filter)
	if err != nil {
		return nil, "", err
	}

	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Timesheet Report"
	idx, err := f.NewSheet(sheet)
	if err != nil {
		s.logger.Error().Err(err).Msg("xlsx sheet create failed")
		return nil, "", errors.Internal("could not generate Excel report")
	}
	f.SetActiveSheet(idx)
	f.DeleteSheet("Sheet1")

	f.SetColWidth(sheet, "A", "A", 28)
	f.SetColWidth(sheet, "B", "F", 14)

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#D9D9D9"}, Pattern: 1},
	})

	for i, col := range reportColumns {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(sheet, cell, col)
		f.SetCellStyle(sheet, cell, cell, headerStyle)
	}

	for r, row := range rows {
		cells := []string{row.Employee, row.Date, row.ClockIn, row.ClockOut, row.BreakMins, row.Total}
		for c, value := range cells {
			cell, _ := excelize.CoordinatesToCellName(c+1, r+2)
			f.SetCellValue(sheet, cell, value)
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		s.logger.Error().Err(err).Msg("xlsx render failed")
		return nil, "", errors.Internal("could not generate Excel report")
	}

	filename := fmt.Sprintf("timesheet_report_%s.xlsx", s.now().Format("20060102"))
	return buf.Bytes(), filename, nil
}
