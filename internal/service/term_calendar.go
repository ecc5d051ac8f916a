package service

import (
	"strconv"
	"strings"
	"time"

	"github.com/noah-isme/attendance-report-api/pkg/config"
)

// Canonical term names recognised by the calendar.
const (
	TermFirst  = "1st Term"
	TermSecond = "2nd Term"
	TermThird  = "3rd Term"
)

// TermDates describes one term's boundaries relative to the academic year.
// The year offsets are structural: the first term sits inside the academic
// year, the second and third roll into the following calendar year.
type TermDates struct {
	StartMonth      time.Month
	StartDay        int
	EndMonth        time.Month
	EndDay          int
	StartYearOffset int
	EndYearOffset   int
}

// DefaultTermDates is the built-in term boundary table. Schools with a
// different calendar override the month-day boundaries via configuration.
var DefaultTermDates = map[string]TermDates{
	TermFirst:  {StartMonth: time.September, StartDay: 15, EndMonth: time.December, EndDay: 15},
	TermSecond: {StartMonth: time.January, StartDay: 10, EndMonth: time.April, EndDay: 10, StartYearOffset: 1, EndYearOffset: 1},
	TermThird:  {StartMonth: time.May, StartDay: 5, EndMonth: time.August, EndDay: 5, StartYearOffset: 1, EndYearOffset: 1},
}

// TermCalendar maps a named academic term plus year to a concrete window.
type TermCalendar struct {
	table map[string]TermDates
}

// NewTermCalendar builds a calendar backed by the default boundary table.
func NewTermCalendar() *TermCalendar {
	table := make(map[string]TermDates, len(DefaultTermDates))
	for name, dates := range DefaultTermDates {
		table[name] = dates
	}
	return &TermCalendar{table: table}
}

// NewTermCalendarFromConfig applies configured month-day overrides on top of
// the default table. Malformed overrides are ignored.
func NewTermCalendarFromConfig(cfg config.TermsConfig) *TermCalendar {
	cal := NewTermCalendar()
	cal.override(TermFirst, cfg.First)
	cal.override(TermSecond, cfg.Second)
	cal.override(TermThird, cfg.Third)
	return cal
}

func (c *TermCalendar) override(name string, boundary config.TermBoundary) {
	dates := c.table[name]
	if month, day, ok := parseMonthDay(boundary.StartMonthDay); ok {
		dates.StartMonth, dates.StartDay = month, day
	}
	if month, day, ok := parseMonthDay(boundary.EndMonthDay); ok {
		dates.EndMonth, dates.EndDay = month, day
	}
	c.table[name] = dates
}

// Resolve maps a term name and academic year to its date window. Unrecognized
// term names deterministically fall back to the first term; the function is
// total and never fails.
func (c *TermCalendar) Resolve(term string, year int) (time.Time, time.Time) {
	dates, ok := c.table[strings.TrimSpace(term)]
	if !ok {
		dates = c.table[TermFirst]
	}
	start := time.Date(year+dates.StartYearOffset, dates.StartMonth, dates.StartDay, 0, 0, 0, 0, time.UTC)
	end := time.Date(year+dates.EndYearOffset, dates.EndMonth, dates.EndDay, 0, 0, 0, 0, time.UTC)
	return start, end
}

// parseMonthDay parses an "MM-DD" boundary override.
func parseMonthDay(raw string) (time.Month, int, bool) {
	raw = strings.TrimSpace(raw)
	parts := strings.SplitN(raw, "-", 2)
	if len(parts) != 2 {
		return 0, 0, false
	}
	month, err := strconv.Atoi(parts[0])
	if err != nil || month < 1 || month > 12 {
		return 0, 0, false
	}
	day, err := strconv.Atoi(parts[1])
	if err != nil || day < 1 || day > 31 {
		return 0, 0, false
	}
	return time.Month(month), day, true
}
