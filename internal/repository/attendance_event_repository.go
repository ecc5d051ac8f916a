package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/attendance-report-api/internal/models"
)

// AttendanceEventRepository loads staff attendance events for reporting.
type AttendanceEventRepository struct {
	db *sqlx.DB
}

// NewAttendanceEventRepository constructs the repository.
func NewAttendanceEventRepository(db *sqlx.DB) *AttendanceEventRepository {
	return &AttendanceEventRepository{db: db}
}

// FetchEvents returns the flat event rows for the school inside the window.
// The LEFT JOIN keeps one row per active staff member even when no events
// fall in range; that row carries a NULL date and marks the member absent.
func (r *AttendanceEventRepository) FetchEvents(ctx context.Context, schoolID, subjectID string, window models.ReportWindow) ([]models.RawEvent, error) {
	args := []interface{}{schoolID}
	joinCond, args := windowCondition(window, args)

	query := fmt.Sprintf(`SELECT s.id AS subject_id, s.full_name AS subject_name,
        e.date, to_char(e.event_time, 'HH24:MI') AS event_time,
        COALESCE(e.approval_status, '') AS approval_status,
        COALESCE(to_char(s.expected_arrival, 'HH24:MI'), '') AS expected_arrival,
        e.note
        FROM staff s
        LEFT JOIN staff_attendance_events e
          ON e.staff_id = s.id AND e.school_id = s.school_id AND %s
        WHERE s.school_id = $1 AND s.active = TRUE`, joinCond)
	if subjectID != "" {
		query += fmt.Sprintf(" AND s.id = $%d", len(args)+1)
		args = append(args, subjectID)
	}
	query += " ORDER BY s.full_name, s.id, e.date, e.event_time"

	var rows []models.RawEvent
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("fetch attendance events: %w", err)
	}
	return rows, nil
}

// ListEvents returns the recorded events inside the window, paginated.
// Unlike FetchEvents it excludes the synthetic no-activity rows.
func (r *AttendanceEventRepository) ListEvents(ctx context.Context, filter models.RawEventFilter) ([]models.RawEvent, int, error) {
	base := `FROM staff_attendance_events e
JOIN staff s ON s.id = e.staff_id AND s.school_id = e.school_id`
	where := []string{"e.school_id = $1"}
	args := []interface{}{filter.SchoolID}

	cond, args := windowCondition(filter.Window, args)
	where = append(where, cond)
	if filter.SubjectID != "" {
		where = append(where, fmt.Sprintf("e.staff_id = $%d", len(args)+1))
		args = append(args, filter.SubjectID)
	}
	whereClause := strings.Join(where, " AND ")

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 200 {
		size = 50
	}
	offset := (page - 1) * size

	query := fmt.Sprintf(`SELECT s.id AS subject_id, s.full_name AS subject_name,
        e.date, to_char(e.event_time, 'HH24:MI') AS event_time,
        COALESCE(e.approval_status, '') AS approval_status,
        COALESCE(to_char(s.expected_arrival, 'HH24:MI'), '') AS expected_arrival,
        e.note
        %s WHERE %s
        ORDER BY e.date DESC, e.event_time DESC
        LIMIT %d OFFSET %d`, base, whereClause, size, offset)

	var rows []models.RawEvent
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list attendance events: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s WHERE %s", base, whereClause)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count attendance events: %w", err)
	}
	return rows, total, nil
}

// windowCondition renders the date filter for the window and appends its
// bind values. Yearly windows match on the calendar year; everything else
// uses the inclusive start/end range.
func windowCondition(window models.ReportWindow, args []interface{}) (string, []interface{}) {
	if window.Mode == models.ModeYearly {
		cond := fmt.Sprintf("EXTRACT(YEAR FROM e.date) = $%d", len(args)+1)
		return cond, append(args, window.PointYear)
	}
	cond := fmt.Sprintf("e.date BETWEEN $%d AND $%d", len(args)+1, len(args)+2)
	return cond, append(args, window.Start, window.End)
}
