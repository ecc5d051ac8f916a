package handler

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/noah-isme/attendance-report-api/internal/dto"
	"github.com/noah-isme/attendance-report-api/internal/middleware"
	"github.com/noah-isme/attendance-report-api/internal/models"
	appErrors "github.com/noah-isme/attendance-report-api/pkg/errors"
	"github.com/noah-isme/attendance-report-api/pkg/export"
	"github.com/noah-isme/attendance-report-api/pkg/response"
)

type reportService interface {
	Generate(ctx context.Context, req dto.AttendanceReportRequest) (*dto.AttendanceReportResponse, bool, error)
	ListEvents(ctx context.Context, req dto.RawEventListRequest) ([]models.RawEvent, models.Pagination, error)
	InvalidateSchool(ctx context.Context, schoolID string) error
}

// ReportHandler wires the attendance report service to HTTP endpoints.
type ReportHandler struct {
	service reportService
	csv     *export.CSVExporter
}

// NewReportHandler constructs the handler.
func NewReportHandler(service reportService, csv *export.CSVExporter) *ReportHandler {
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	return &ReportHandler{service: service, csv: csv}
}

// Generate godoc
// @Summary Generate attendance report
// @Tags Reports
// @Produce json
// @Param schoolId query string true "School ID"
// @Param type query string false "Report window mode (daily, weekly, monthly, termly, yearly)"
// @Param staffId query string false "Restrict the report to one staff member"
// @Param startDate query string false "Window start (YYYY-MM-DD)"
// @Param endDate query string false "Window end (YYYY-MM-DD)"
// @Param term query string false "Term name for termly mode"
// @Param year query int false "Calendar year"
// @Param month query int false "Month number (1-12)"
// @Param format query string false "Response format (json or csv)"
// @Success 200 {object} response.Envelope
// @Router /reports/attendance [get]
func (h *ReportHandler) Generate(c *gin.Context) {
	if h.service == nil {
		response.Error(c, appErrors.ErrInternal)
		return
	}
	req := parseReportRequest(c)
	if req.SchoolID == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "schoolId is required"))
		return
	}
	start := time.Now()
	report, cacheHit, err := h.service.Generate(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	if strings.EqualFold(strings.TrimSpace(c.Query("format")), "csv") {
		payload, renderErr := h.csv.Render(export.AttendanceReportDataset(report))
		if renderErr != nil {
			response.Error(c, appErrors.Wrap(renderErr, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render csv export"))
			return
		}
		filename := fmt.Sprintf("attendance-report-%s.csv", time.Now().UTC().Format("20060102-150405"))
		c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
		c.Data(http.StatusOK, "text/csv", payload)
		return
	}

	middleware.SetCacheHit(c, cacheHit)
	middleware.SetReportID(c, uuid.NewString())
	meta := middleware.ExtractMeta(c)
	if meta == nil {
		meta = map[string]interface{}{}
	}
	meta["processing_time_ms"] = time.Since(start).Milliseconds()
	response.JSON(c, http.StatusOK, report, nil, meta)
}

// Events godoc
// @Summary List raw attendance events behind a report
// @Tags Reports
// @Produce json
// @Param schoolId query string true "School ID"
// @Param staffId query string false "Restrict to one staff member"
// @Param page query int false "Page number"
// @Param pageSize query int false "Page size (max 200)"
// @Success 200 {object} response.Envelope
// @Router /reports/attendance/events [get]
func (h *ReportHandler) Events(c *gin.Context) {
	if h.service == nil {
		response.Error(c, appErrors.ErrInternal)
		return
	}
	req := dto.RawEventListRequest{
		AttendanceReportRequest: parseReportRequest(c),
		Page:                    queryInt(c, "page"),
		PageSize:                queryInt(c, "pageSize"),
	}
	if req.SchoolID == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "schoolId is required"))
		return
	}
	events, pagination, err := h.service.ListEvents(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, events, &pagination)
}

// InvalidateCache godoc
// @Summary Drop cached attendance reports for a school
// @Tags Reports
// @Param schoolId query string true "School ID"
// @Success 204
// @Router /reports/attendance/cache [delete]
func (h *ReportHandler) InvalidateCache(c *gin.Context) {
	if h.service == nil {
		response.Error(c, appErrors.ErrInternal)
		return
	}
	schoolID := strings.TrimSpace(c.Query("schoolId"))
	if schoolID == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "schoolId is required"))
		return
	}
	if err := h.service.InvalidateSchool(c.Request.Context(), schoolID); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to invalidate report cache"))
		return
	}
	response.NoContent(c)
}

func parseReportRequest(c *gin.Context) dto.AttendanceReportRequest {
	return dto.AttendanceReportRequest{
		SchoolID:      strings.TrimSpace(c.Query("schoolId")),
		Mode:          strings.TrimSpace(c.Query("type")),
		SubjectFilter: strings.TrimSpace(c.Query("staffId")),
		StartDate:     strings.TrimSpace(c.Query("startDate")),
		EndDate:       strings.TrimSpace(c.Query("endDate")),
		Term:          strings.TrimSpace(c.Query("term")),
		Year:          queryInt(c, "year"),
		Month:         queryInt(c, "month"),
	}
}

// queryInt parses an integer query parameter, treating malformed values as
// absent so window resolution can fall back to its defaults.
func queryInt(c *gin.Context, name string) int {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return 0
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0
	}
	return value
}
