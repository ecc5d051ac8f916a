package service

import (
	"strings"
	"time"

	"github.com/noah-isme/attendance-report-api/internal/models"
)

// WindowParams are the loosely-specified window inputs from the caller.
type WindowParams struct {
	Mode      string
	StartDate string
	EndDate   string
	Term      string
	Year      int
	Month     int
}

// WindowResolver turns WindowParams into one authoritative ReportWindow.
// It never fails: every malformed input degrades to a documented default so
// report generation stays available regardless of what the UI sends.
type WindowResolver struct {
	terms *TermCalendar
	now   func() time.Time
}

// NewWindowResolver constructs a resolver around the given term calendar.
func NewWindowResolver(terms *TermCalendar) *WindowResolver {
	if terms == nil {
		terms = NewTermCalendar()
	}
	return &WindowResolver{terms: terms, now: time.Now}
}

// Resolve computes the report window for the given parameters.
func (r *WindowResolver) Resolve(params WindowParams) models.ReportWindow {
	today := dateOnly(r.now().UTC())

	mode := models.ReportMode(strings.ToLower(strings.TrimSpace(params.Mode)))
	if !mode.Valid() {
		mode = models.ModeMonthly
	}
	year, _ := validYear(params.Year, today.Year())
	month, _ := validMonth(params.Month, today.Month())

	switch mode {
	case models.ModeDaily:
		return models.ReportWindow{Mode: mode, Start: today, End: today}
	case models.ModeWeekly:
		monday := isoWeekStart(today)
		return models.ReportWindow{Mode: mode, Start: monday, End: monday.AddDate(0, 0, 6)}
	case models.ModeTermly:
		start, end := r.terms.Resolve(params.Term, year)
		return models.ReportWindow{Mode: mode, Start: start, End: end}
	case models.ModeYearly:
		// Yearly reports filter on the calendar year, not a date range.
		return models.ReportWindow{Mode: mode, PointYear: year}
	default:
		firstOfMonth := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
		lastOfMonth := firstOfMonth.AddDate(0, 1, -1)
		start, _ := validDate(params.StartDate, firstOfMonth)
		end, _ := validDate(params.EndDate, lastOfMonth)
		if start.After(end) {
			start, end = end, start
		}
		return models.ReportWindow{Mode: models.ModeMonthly, Start: start, End: end}
	}
}

// validDate parses an ISO calendar date and reports whether the fallback was
// used instead.
func validDate(raw string, fallback time.Time) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return fallback, true
	}
	parsed, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return fallback, true
	}
	return parsed.UTC(), false
}

// validYear clamps the year to the supported range, reporting default usage.
func validYear(year, fallback int) (int, bool) {
	if year < 2000 || year > 2100 {
		return fallback, true
	}
	return year, false
}

// validMonth clamps the month to [1, 12], reporting default usage.
func validMonth(month int, fallback time.Month) (time.Month, bool) {
	if month < 1 || month > 12 {
		return fallback, true
	}
	return time.Month(month), false
}

// isoWeekStart returns the Monday of the ISO week containing the given date.
func isoWeekStart(day time.Time) time.Time {
	weekday := int(day.Weekday())
	if weekday == 0 {
		weekday = 7
	}
	return day.AddDate(0, 0, 1-weekday)
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
