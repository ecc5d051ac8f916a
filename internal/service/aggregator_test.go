package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/attendance-report-api/internal/models"
)

func datePtr(year int, month time.Month, day int) *time.Time {
	d := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	return &d
}

func strPtr(s string) *string {
	return &s
}

func TestAggregatorCountsEveryEvent(t *testing.T) {
	agg := NewAggregator("")
	events := []models.RawEvent{
		{SubjectID: "s1", SubjectName: "Alice", Date: datePtr(2024, time.March, 4), EventTime: strPtr("07:55"), ApprovalStatus: models.StatusAgreed, ExpectedArrival: "08:00"},
		{SubjectID: "s1", SubjectName: "Alice", Date: datePtr(2024, time.March, 4), EventTime: strPtr("13:10"), ApprovalStatus: models.StatusAgreed, ExpectedArrival: "08:00"},
	}

	reports := agg.Aggregate(events)
	require.Len(t, reports, 1)

	// Two clock-ins on the same day count twice in the per-staff tally.
	assert.Equal(t, 2, reports[0].Summary.TotalDays)
	assert.Equal(t, 2, reports[0].Summary.PresentDays)
	assert.Equal(t, 2, reports[0].Summary.AgreedDays)
	assert.Equal(t, 1, reports[0].Summary.LateDays)
	assert.Len(t, reports[0].DailyRecords, 2)
	assert.Equal(t, 100.0, reports[0].AttendanceRate)
}

func TestAggregatorSyntheticRowIsOneAbsence(t *testing.T) {
	agg := NewAggregator("")
	events := []models.RawEvent{
		{SubjectID: "s2", SubjectName: "Bob", Date: nil, ApprovalStatus: "", ExpectedArrival: "08:00"},
	}

	reports := agg.Aggregate(events)
	require.Len(t, reports, 1)

	assert.Equal(t, 1, reports[0].Summary.AbsentDays)
	assert.Equal(t, 0, reports[0].Summary.TotalDays)
	assert.Empty(t, reports[0].DailyRecords)
	assert.Equal(t, 0.0, reports[0].AttendanceRate)
}

func TestAggregatorUnknownStatusTalliesAsPending(t *testing.T) {
	agg := NewAggregator("")
	events := []models.RawEvent{
		{SubjectID: "s1", SubjectName: "Alice", Date: datePtr(2024, time.March, 4), EventTime: strPtr("08:00"), ApprovalStatus: "under_review", ExpectedArrival: "08:00"},
	}

	reports := agg.Aggregate(events)
	require.Len(t, reports, 1)

	assert.Equal(t, 1, reports[0].Summary.PendingDays)
	assert.Equal(t, 0, reports[0].Summary.PresentDays)
	// The raw status string survives on the daily record.
	require.Len(t, reports[0].DailyRecords, 1)
	assert.Equal(t, models.ApprovalStatus("under_review"), reports[0].DailyRecords[0].ApprovalStatus)
}

func TestAggregatorLateIsStrictlyAfterExpected(t *testing.T) {
	agg := NewAggregator("")
	events := []models.RawEvent{
		{SubjectID: "s1", SubjectName: "Alice", Date: datePtr(2024, time.March, 4), EventTime: strPtr("08:00"), ApprovalStatus: models.StatusAgreed, ExpectedArrival: "08:00"},
		{SubjectID: "s1", SubjectName: "Alice", Date: datePtr(2024, time.March, 5), EventTime: strPtr("08:01"), ApprovalStatus: models.StatusAgreed, ExpectedArrival: "08:00"},
		{SubjectID: "s1", SubjectName: "Alice", Date: datePtr(2024, time.March, 6), EventTime: strPtr("08:00:30"), ApprovalStatus: models.StatusAgreed, ExpectedArrival: "08:00"},
	}

	reports := agg.Aggregate(events)
	require.Len(t, reports, 1)

	assert.Equal(t, 2, reports[0].Summary.LateDays)
	records := reports[0].DailyRecords
	require.Len(t, records, 3)
	// Records come back newest first.
	assert.True(t, records[0].IsLate)
	assert.True(t, records[1].IsLate)
	assert.False(t, records[2].IsLate)
}

func TestAggregatorExpectedArrivalFallback(t *testing.T) {
	agg := NewAggregator("09:30")
	events := []models.RawEvent{
		{SubjectID: "s1", SubjectName: "Alice", Date: datePtr(2024, time.March, 4), EventTime: strPtr("09:31"), ApprovalStatus: models.StatusAgreed, ExpectedArrival: ""},
	}

	reports := agg.Aggregate(events)
	require.Len(t, reports, 1)
	assert.Equal(t, "09:30", reports[0].ExpectedArrival)
	assert.Equal(t, 1, reports[0].Summary.LateDays)
}

func TestAggregatorSortsReportsByName(t *testing.T) {
	agg := NewAggregator("")
	events := []models.RawEvent{
		{SubjectID: "s9", SubjectName: "Zoe", Date: datePtr(2024, time.March, 4), ApprovalStatus: models.StatusAgreed},
		{SubjectID: "s1", SubjectName: "Alice", Date: datePtr(2024, time.March, 4), ApprovalStatus: models.StatusAgreed},
		{SubjectID: "s5", SubjectName: "", Date: datePtr(2024, time.March, 4), ApprovalStatus: models.StatusAgreed},
	}

	reports := agg.Aggregate(events)
	require.Len(t, reports, 3)
	assert.Equal(t, "Alice", reports[0].SubjectName)
	// Nameless staff sort by their identifier.
	assert.Equal(t, "s5", reports[1].SubjectID)
	assert.Equal(t, "Zoe", reports[2].SubjectName)
}

func TestAggregatorNilEventTimeIsNotLate(t *testing.T) {
	agg := NewAggregator("")
	events := []models.RawEvent{
		{SubjectID: "s1", SubjectName: "Alice", Date: datePtr(2024, time.March, 4), EventTime: nil, ApprovalStatus: models.StatusAgreed, ExpectedArrival: "08:00"},
	}

	reports := agg.Aggregate(events)
	require.Len(t, reports, 1)
	assert.Equal(t, 0, reports[0].Summary.LateDays)
}
