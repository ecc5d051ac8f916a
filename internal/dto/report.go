package dto

import "github.com/noah-isme/attendance-report-api/internal/models"

// AttendanceReportRequest carries the loosely-specified report parameters as
// received from the portal UI. Everything except SchoolID is optional;
// malformed values degrade to documented defaults instead of failing.
type AttendanceReportRequest struct {
	SchoolID      string `json:"school_id" validate:"required"`
	Mode          string `json:"type"`
	SubjectFilter string `json:"staff_id"`
	StartDate     string `json:"start_date"`
	EndDate       string `json:"end_date"`
	Term          string `json:"term"`
	Year          int    `json:"year"`
	Month         int    `json:"month"`
}

// AttendanceReportResponse is the logical report shape returned to callers.
type AttendanceReportResponse struct {
	Window     models.ReportWindow    `json:"window"`
	PerSubject []models.SubjectReport `json:"per_subject"`
	Overall    models.OverallSummary  `json:"overall"`
}

// RawEventListRequest scopes the drill-down event listing.
type RawEventListRequest struct {
	AttendanceReportRequest
	Page     int `json:"page" validate:"omitempty,min=1"`
	PageSize int `json:"page_size" validate:"omitempty,min=1,max=200"`
}
