package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/attendance-report-api/internal/dto"
	"github.com/noah-isme/attendance-report-api/internal/models"
	appErrors "github.com/noah-isme/attendance-report-api/pkg/errors"
)

// RawEventSource abstracts the store that produces the flat event rows a
// report is built from. FetchEvents must emit one synthetic row with a nil
// Date for every staff member who has no events inside the window.
type RawEventSource interface {
	FetchEvents(ctx context.Context, schoolID, subjectID string, window models.ReportWindow) ([]models.RawEvent, error)
	ListEvents(ctx context.Context, filter models.RawEventFilter) ([]models.RawEvent, int, error)
}

// ReportService orchestrates window resolution, event retrieval, and the two
// aggregation passes that make up an attendance report.
type ReportService struct {
	source     RawEventSource
	windows    *WindowResolver
	aggregator *Aggregator
	reducer    *SummaryReducer
	cache      *CacheService
	metrics    *MetricsService
	validate   *validator.Validate
	logger     *zap.Logger
}

// NewReportService constructs the report service.
func NewReportService(source RawEventSource, windows *WindowResolver, aggregator *Aggregator, reducer *SummaryReducer, cache *CacheService, metrics *MetricsService, logger *zap.Logger) *ReportService {
	if windows == nil {
		windows = NewWindowResolver(nil)
	}
	if aggregator == nil {
		aggregator = NewAggregator(DefaultExpectedArrival)
	}
	if reducer == nil {
		reducer = NewSummaryReducer(DefaultExpectedArrival)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReportService{
		source:     source,
		windows:    windows,
		aggregator: aggregator,
		reducer:    reducer,
		cache:      cache,
		metrics:    metrics,
		validate:   validator.New(),
		logger:     logger,
	}
}

// Generate builds the attendance report for the requested window. The second
// return value reports whether the response came from cache.
func (s *ReportService) Generate(ctx context.Context, req dto.AttendanceReportRequest) (*dto.AttendanceReportResponse, bool, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, false, appErrors.Clone(appErrors.ErrValidation, "schoolId is required")
	}
	start := time.Now()

	window := s.windows.Resolve(WindowParams{
		Mode:      req.Mode,
		StartDate: req.StartDate,
		EndDate:   req.EndDate,
		Term:      req.Term,
		Year:      req.Year,
		Month:     req.Month,
	})

	subject := subjectFilter(req.SubjectFilter)
	cacheKey := reportCacheKey(req.SchoolID, subject, window)
	if s.cache.Enabled() {
		var cached dto.AttendanceReportResponse
		if hit, err := s.cache.Get(ctx, cacheKey, &cached); err == nil && hit {
			return &cached, true, nil
		}
	}

	fetchStart := time.Now()
	events, err := s.source.FetchEvents(ctx, req.SchoolID, subject, window)
	if s.metrics != nil {
		s.metrics.ObserveDBQuery("report_fetch_events", time.Since(fetchStart))
	}
	if err != nil {
		s.logger.Error("failed to fetch attendance events",
			zap.String("school_id", req.SchoolID),
			zap.String("mode", string(window.Mode)),
			zap.Error(err))
		return nil, false, appErrors.Wrap(err, appErrors.ErrDataUnavailable.Code, appErrors.ErrDataUnavailable.Status, appErrors.ErrDataUnavailable.Message)
	}

	resp := &dto.AttendanceReportResponse{
		Window:     window,
		PerSubject: s.aggregator.Aggregate(events),
		Overall:    s.reducer.Reduce(events),
	}

	if s.cache.Enabled() {
		_ = s.cache.Set(ctx, cacheKey, resp, 0)
	}
	if s.metrics != nil {
		s.metrics.ObserveReportGeneration(string(window.Mode), time.Since(start))
	}
	return resp, false, nil
}

// ListEvents exposes the raw event rows behind a report for drill-down views.
func (s *ReportService) ListEvents(ctx context.Context, req dto.RawEventListRequest) ([]models.RawEvent, models.Pagination, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, models.Pagination{}, appErrors.Clone(appErrors.ErrValidation, "invalid event listing parameters")
	}
	if req.Page <= 0 {
		req.Page = 1
	}
	if req.PageSize <= 0 {
		req.PageSize = 50
	}

	window := s.windows.Resolve(WindowParams{
		Mode:      req.Mode,
		StartDate: req.StartDate,
		EndDate:   req.EndDate,
		Term:      req.Term,
		Year:      req.Year,
		Month:     req.Month,
	})

	listStart := time.Now()
	events, total, err := s.source.ListEvents(ctx, models.RawEventFilter{
		SchoolID:  req.SchoolID,
		SubjectID: subjectFilter(req.SubjectFilter),
		Window:    window,
		Page:      req.Page,
		PageSize:  req.PageSize,
	})
	if s.metrics != nil {
		s.metrics.ObserveDBQuery("report_list_events", time.Since(listStart))
	}
	if err != nil {
		s.logger.Error("failed to list attendance events",
			zap.String("school_id", req.SchoolID),
			zap.Error(err))
		return nil, models.Pagination{}, appErrors.Wrap(err, appErrors.ErrDataUnavailable.Code, appErrors.ErrDataUnavailable.Status, appErrors.ErrDataUnavailable.Message)
	}
	return events, models.Pagination{Page: req.Page, PageSize: req.PageSize, TotalCount: total}, nil
}

// InvalidateSchool drops every cached report for the school, for use after
// upstream attendance corrections.
func (s *ReportService) InvalidateSchool(ctx context.Context, schoolID string) error {
	return s.cache.Invalidate(ctx, fmt.Sprintf("report:attendance:%s:*", schoolID))
}

// subjectFilter normalises the staff filter from the portal UI. The "all"
// sentinel means every staff member, the same as sending no filter.
func subjectFilter(raw string) string {
	raw = strings.TrimSpace(raw)
	if strings.EqualFold(raw, "all") {
		return ""
	}
	return raw
}

func reportCacheKey(schoolID, subject string, window models.ReportWindow) string {
	if subject == "" {
		subject = "all"
	}
	parts := []string{
		"report:attendance",
		schoolID,
		string(window.Mode),
		window.Start.Format("2006-01-02"),
		window.End.Format("2006-01-02"),
		fmt.Sprintf("%d", window.PointYear),
		subject,
	}
	return strings.Join(parts, ":")
}
