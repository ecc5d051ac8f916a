package service

import (
	"strings"

	"github.com/noah-isme/attendance-report-api/internal/models"
)

// SummaryReducer folds the full event set into one cross-staff summary with
// deduplicated counting: a (staff, date) pair contributes at most once no
// matter how many clock-ins it produced, and TotalDays counts distinct
// calendar dates across all staff.
type SummaryReducer struct {
	defaultExpectedArrival string
}

// NewSummaryReducer constructs a reducer with the given arrival fallback.
func NewSummaryReducer(defaultExpectedArrival string) *SummaryReducer {
	if defaultExpectedArrival == "" {
		defaultExpectedArrival = DefaultExpectedArrival
	}
	return &SummaryReducer{defaultExpectedArrival: defaultExpectedArrival}
}

type subjectDate struct {
	subjectID string
	date      string
}

// Reduce computes the overall summary in a single pass. Synthetic null-dated
// rows each contribute one absence; AbsentDays otherwise stays zero.
func (r *SummaryReducer) Reduce(events []models.RawEvent) models.OverallSummary {
	seenDates := make(map[string]struct{})
	seenPairs := make(map[subjectDate]struct{})

	var summary models.OverallSummary
	for _, ev := range events {
		if ev.Date == nil {
			summary.AbsentDays++
			continue
		}
		day := ev.Date.Format("2006-01-02")
		if _, ok := seenDates[day]; !ok {
			seenDates[day] = struct{}{}
			summary.TotalDays++
		}

		pair := subjectDate{subjectID: ev.SubjectID, date: day}
		if _, ok := seenPairs[pair]; ok {
			// Later events for an already-counted pair are ignored.
			continue
		}
		seenPairs[pair] = struct{}{}

		switch ev.ApprovalStatus.Bucket() {
		case models.StatusAgreed:
			summary.AgreedDays++
			summary.PresentDays++
		case models.StatusNotAgreed:
			summary.NotAgreedDays++
		default:
			summary.PendingDays++
		}

		expected := ev.ExpectedArrival
		if strings.TrimSpace(expected) == "" {
			expected = r.defaultExpectedArrival
		}
		if isLate(ev.EventTime, expected) {
			summary.LateDays++
		}
	}

	summary.AttendanceRate = Rate(summary.PresentDays, summary.TotalDays)
	return summary
}
