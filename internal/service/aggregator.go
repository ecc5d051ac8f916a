package service

import (
	"sort"
	"strings"

	"github.com/noah-isme/attendance-report-api/internal/models"
)

// DefaultExpectedArrival is used for staff whose roster row carries no
// expected arrival time.
const DefaultExpectedArrival = "08:00"

// Aggregator folds raw attendance events into per-staff reports.
//
// Its tally deliberately counts per event: a staff member clocking in twice
// on the same day increments TotalDays twice. The deduplicated view lives in
// SummaryReducer; the two policies feed different parts of the report and
// must not be unified.
type Aggregator struct {
	defaultExpectedArrival string
}

// NewAggregator constructs an aggregator with the given arrival fallback.
func NewAggregator(defaultExpectedArrival string) *Aggregator {
	if defaultExpectedArrival == "" {
		defaultExpectedArrival = DefaultExpectedArrival
	}
	return &Aggregator{defaultExpectedArrival: defaultExpectedArrival}
}

// Aggregate groups events by staff member and derives daily records plus a
// per-staff tally. Staff present only via the synthetic null-dated row get an
// empty record list and exactly one absence, however long the window is.
func (a *Aggregator) Aggregate(events []models.RawEvent) []models.SubjectReport {
	order := make([]string, 0)
	bySubject := make(map[string]*models.SubjectReport)

	for _, ev := range events {
		report, ok := bySubject[ev.SubjectID]
		if !ok {
			report = &models.SubjectReport{
				SubjectID:       ev.SubjectID,
				SubjectName:     ev.SubjectName,
				ExpectedArrival: a.expectedArrival(ev),
				DailyRecords:    []models.DailyRecord{},
			}
			bySubject[ev.SubjectID] = report
			order = append(order, ev.SubjectID)
		}

		if ev.Date == nil {
			// No activity in window: one absence, not a per-day count.
			report.Summary.AbsentDays++
			continue
		}

		late := isLate(ev.EventTime, a.expectedArrival(ev))
		report.DailyRecords = append(report.DailyRecords, models.DailyRecord{
			Date:           *ev.Date,
			FirstEventTime: ev.EventTime,
			ApprovalStatus: ev.ApprovalStatus,
			IsLate:         late,
			Note:           ev.Note,
		})

		report.Summary.TotalDays++
		switch ev.ApprovalStatus.Bucket() {
		case models.StatusAgreed:
			report.Summary.AgreedDays++
			report.Summary.PresentDays++
		case models.StatusNotAgreed:
			report.Summary.NotAgreedDays++
		default:
			report.Summary.PendingDays++
		}
		if late {
			report.Summary.LateDays++
		}
	}

	reports := make([]models.SubjectReport, 0, len(order))
	for _, subjectID := range order {
		report := bySubject[subjectID]
		sort.SliceStable(report.DailyRecords, func(i, j int) bool {
			return report.DailyRecords[i].Date.After(report.DailyRecords[j].Date)
		})
		report.AttendanceRate = Rate(report.Summary.PresentDays, report.Summary.TotalDays)
		reports = append(reports, *report)
	}
	sort.SliceStable(reports, func(i, j int) bool {
		return displayKey(reports[i]) < displayKey(reports[j])
	})
	return reports
}

func (a *Aggregator) expectedArrival(ev models.RawEvent) string {
	if strings.TrimSpace(ev.ExpectedArrival) == "" {
		return a.defaultExpectedArrival
	}
	return ev.ExpectedArrival
}

func displayKey(report models.SubjectReport) string {
	if report.SubjectName != "" {
		return report.SubjectName
	}
	return report.SubjectID
}

// isLate compares clock times with strict greater-than: arriving exactly at
// the expected time is not late.
func isLate(eventTime *string, expectedArrival string) bool {
	if eventTime == nil {
		return false
	}
	return normalizeClock(*eventTime) > normalizeClock(expectedArrival)
}

// normalizeClock pads "HH:MM" to "HH:MM:SS" so zero-padded lexicographic
// comparison matches chronological order.
func normalizeClock(raw string) string {
	raw = strings.TrimSpace(raw)
	if len(raw) == 5 {
		return raw + ":00"
	}
	return raw
}
