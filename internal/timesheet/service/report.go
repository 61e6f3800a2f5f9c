package service

import (
	"context"
	"time"

	"github.com/threebee1/hrms-sub001/internal/timesheet/repository"
	"github.com/threebee1/hrms-sub001/pkg/errors"
	"github.com/threebee1/hrms-sub001/pkg/logger"
)

// ReportFilter carries the raw, unvalidated report query parameters.
type ReportFilter struct {
	EmployeeID *int64
	Date       string
	Sort       string
	Limit      int
	Offset     int
}

// ReportService answers HR timesheet report queries.
type ReportService struct {
	store  ShiftStore
	logger *logger.Logger
}

// NewReportService creates a new report service
func NewReportService(store ShiftStore, log *logger.Logger) *ReportService {
	return &ReportService{store: store, logger: log}
}

// Query returns the report rows matching the filter. A malformed date filter
// is dropped rather than rejected, and an unknown sort key falls back to the
// default ordering, so a stale or hand-edited report URL still renders.
func (s *ReportService) Query(ctx context.Context, filter ReportFilter) ([]*repository.ShiftRecordView, error) {
	qf := repository.QueryFilter{
		EmployeeID: filter.EmployeeID,
		Sort:       repository.SortKey(filter.Sort),
		Limit:      filter.Limit,
		Offset:     filter.Offset,
	}

	if filter.Date != "" {
		date, err := time.Parse(dateLayout, filter.Date)
		if err == nil {
			qf.Date = &date
		} else {
			s.logger.Warn().Str("date", filter.Date).Msg("ignoring malformed report date filter")
		}
	}

	views, err := s.store.Query(ctx, qf)
	if err != nil {
		s.logger.Error().Err(err).Msg("report query failed")
		return nil, errors.Internal("could not load timesheet report")
	}
	return views, nil
}
