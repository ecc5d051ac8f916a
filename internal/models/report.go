package models

import "time"

// ApprovalStatus is the permission state attached to a staff attendance event.
type ApprovalStatus string

const (
	StatusAgreed    ApprovalStatus = "agreed"
	StatusNotAgreed ApprovalStatus = "not_agreed"
	StatusPending   ApprovalStatus = "pending"
)

// Known reports whether the status is one of the three supported values.
func (s ApprovalStatus) Known() bool {
	switch s {
	case StatusAgreed, StatusNotAgreed, StatusPending:
		return true
	default:
		return false
	}
}

// Bucket maps the status onto the counter it increments. Unrecognized values
// tally as pending while the raw string stays visible on the daily record.
func (s ApprovalStatus) Bucket() ApprovalStatus {
	if s == StatusAgreed || s == StatusNotAgreed {
		return s
	}
	return StatusPending
}

// ReportMode selects the reporting window shape.
type ReportMode string

const (
	ModeDaily   ReportMode = "daily"
	ModeWeekly  ReportMode = "weekly"
	ModeMonthly ReportMode = "monthly"
	ModeTermly  ReportMode = "termly"
	ModeYearly  ReportMode = "yearly"
)

// Valid returns true when the mode is a supported value.
func (m ReportMode) Valid() bool {
	switch m {
	case ModeDaily, ModeWeekly, ModeMonthly, ModeTermly, ModeYearly:
		return true
	default:
		return false
	}
}

// RawEvent is one observed attendance event for one staff member on a date.
// A nil Date marks the synthetic row the window join emits for staff with no
// events in range; it means "no activity", never "one event".
type RawEvent struct {
	SubjectID       string         `db:"subject_id" json:"subject_id"`
	SubjectName     string         `db:"subject_name" json:"subject_name"`
	Date            *time.Time     `db:"date" json:"date,omitempty"`
	EventTime       *string        `db:"event_time" json:"event_time,omitempty"`
	ApprovalStatus  ApprovalStatus `db:"approval_status" json:"approval_status"`
	ExpectedArrival string         `db:"expected_arrival" json:"expected_arrival"`
	Note            *string        `db:"note" json:"note,omitempty"`
}

// ReportWindow is the resolved time range a report covers. For yearly mode
// Start/End serialize as the zero time and PointYear carries the
// calendar-year filter.
type ReportWindow struct {
	Mode      ReportMode `json:"mode"`
	Start     time.Time  `json:"start"`
	End       time.Time  `json:"end"`
	PointYear int        `json:"point_year,omitempty"`
}

// DailyRecord is one staff member's derived state for one dated event.
type DailyRecord struct {
	Date           time.Time      `json:"date"`
	FirstEventTime *string        `json:"first_event_time,omitempty"`
	ApprovalStatus ApprovalStatus `json:"approval_status"`
	IsLate         bool           `json:"is_late"`
	Note           *string        `json:"note,omitempty"`
}

// Tally holds attendance counters for one staff member or a whole report.
// TotalDays counts dated events only; AbsentDays is tracked separately and
// never contributes to TotalDays.
type Tally struct {
	TotalDays     int `json:"total_days"`
	PresentDays   int `json:"present_days"`
	AbsentDays    int `json:"absent_days"`
	LateDays      int `json:"late_days"`
	AgreedDays    int `json:"agreed_days"`
	NotAgreedDays int `json:"not_agreed_days"`
	PendingDays   int `json:"pending_days"`
}

// SubjectReport aggregates one staff member's view of the window.
type SubjectReport struct {
	SubjectID       string        `json:"subject_id"`
	SubjectName     string        `json:"subject_name"`
	ExpectedArrival string        `json:"expected_arrival"`
	DailyRecords    []DailyRecord `json:"daily_records"`
	Summary         Tally         `json:"summary"`
	AttendanceRate  float64       `json:"attendance_rate"`
}

// OverallSummary is the cross-staff tally with its derived rate. Its counters
// are deduplicated per (subject, date) pair, unlike the per-subject Summary.
type OverallSummary struct {
	Tally
	AttendanceRate float64 `json:"attendance_rate"`
}

// RawEventFilter scopes event listing queries.
type RawEventFilter struct {
	SchoolID  string
	SubjectID string
	Window    ReportWindow
	Page      int
	PageSize  int
}
