package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/attendance-report-api/internal/dto"
	"github.com/noah-isme/attendance-report-api/internal/models"
	appErrors "github.com/noah-isme/attendance-report-api/pkg/errors"
)

type fakeEventSource struct {
	events      []models.RawEvent
	total       int
	err         error
	lastSchool  string
	lastSubject string
	lastFilter  models.RawEventFilter
	calls       int
}

func (f *fakeEventSource) FetchEvents(_ context.Context, schoolID, subjectID string, _ models.ReportWindow) ([]models.RawEvent, error) {
	f.calls++
	f.lastSchool = schoolID
	f.lastSubject = subjectID
	return f.events, f.err
}

func (f *fakeEventSource) ListEvents(_ context.Context, filter models.RawEventFilter) ([]models.RawEvent, int, error) {
	f.lastFilter = filter
	return f.events, f.total, f.err
}

type memoryCacheRepo struct {
	values map[string][]byte
}

func newMemoryCacheRepo() *memoryCacheRepo {
	return &memoryCacheRepo{values: map[string][]byte{}}
}

func (m *memoryCacheRepo) Get(_ context.Context, key string, dest interface{}) error {
	raw, ok := m.values[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (m *memoryCacheRepo) Set(_ context.Context, key string, value interface{}, _ time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.values[key] = raw
	return nil
}

func (m *memoryCacheRepo) DeleteByPattern(context.Context, string) error {
	m.values = map[string][]byte{}
	return nil
}

func newTestReportService(source RawEventSource, cache *CacheService) *ReportService {
	windows := NewWindowResolver(nil)
	windows.now = func() time.Time {
		return time.Date(2024, time.March, 13, 10, 0, 0, 0, time.UTC)
	}
	return NewReportService(source, windows, NewAggregator(""), NewSummaryReducer(""), cache, nil, nil)
}

func TestReportServiceGenerateRequiresSchool(t *testing.T) {
	svc := newTestReportService(&fakeEventSource{}, nil)

	_, _, err := svc.Generate(context.Background(), dto.AttendanceReportRequest{})

	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
}

func TestReportServiceGenerateEndToEnd(t *testing.T) {
	source := &fakeEventSource{events: []models.RawEvent{
		{SubjectID: "s1", SubjectName: "Alice", Date: datePtr(2024, time.March, 4), EventTime: strPtr("07:55"), ApprovalStatus: models.StatusAgreed, ExpectedArrival: "08:00"},
		{SubjectID: "s1", SubjectName: "Alice", Date: datePtr(2024, time.March, 5), EventTime: strPtr("08:02"), ApprovalStatus: models.StatusNotAgreed, ExpectedArrival: "08:00"},
		{SubjectID: "s2", SubjectName: "Bob", Date: nil, ExpectedArrival: "08:00"},
	}}
	svc := newTestReportService(source, nil)

	report, cacheHit, err := svc.Generate(context.Background(), dto.AttendanceReportRequest{
		SchoolID: "school-1",
		Mode:     "monthly",
	})
	require.NoError(t, err)
	assert.False(t, cacheHit)
	assert.Equal(t, "school-1", source.lastSchool)

	require.Len(t, report.PerSubject, 2)
	alice := report.PerSubject[0]
	assert.Equal(t, "Alice", alice.SubjectName)
	assert.Equal(t, 2, alice.Summary.TotalDays)
	assert.Equal(t, 1, alice.Summary.AgreedDays)
	assert.Equal(t, 1, alice.Summary.NotAgreedDays)
	assert.Equal(t, 1, alice.Summary.PresentDays)
	assert.Equal(t, 0, alice.Summary.LateDays)
	assert.Equal(t, 50.0, alice.AttendanceRate)

	bob := report.PerSubject[1]
	assert.Equal(t, 1, bob.Summary.AbsentDays)
	assert.Equal(t, 0, bob.Summary.TotalDays)

	assert.Equal(t, 2, report.Overall.TotalDays)
	assert.Equal(t, 1, report.Overall.PresentDays)
	assert.Equal(t, 1, report.Overall.NotAgreedDays)
	assert.Equal(t, 1, report.Overall.AbsentDays)
	assert.Equal(t, 50.0, report.Overall.AttendanceRate)
	assert.Equal(t, models.ModeMonthly, report.Window.Mode)
}

func TestReportServiceGenerateTreatsAllAsNoFilter(t *testing.T) {
	source := &fakeEventSource{}
	svc := newTestReportService(source, nil)

	for _, sentinel := range []string{"all", "All", "ALL", " all "} {
		_, _, err := svc.Generate(context.Background(), dto.AttendanceReportRequest{
			SchoolID:      "school-1",
			SubjectFilter: sentinel,
		})
		require.NoError(t, err)
		assert.Empty(t, source.lastSubject)
	}

	_, _, err := svc.Generate(context.Background(), dto.AttendanceReportRequest{
		SchoolID:      "school-1",
		SubjectFilter: "staff-7",
	})
	require.NoError(t, err)
	assert.Equal(t, "staff-7", source.lastSubject)
}

func TestReportServiceListEventsTreatsAllAsNoFilter(t *testing.T) {
	source := &fakeEventSource{}
	svc := newTestReportService(source, nil)

	_, _, err := svc.ListEvents(context.Background(), dto.RawEventListRequest{
		AttendanceReportRequest: dto.AttendanceReportRequest{SchoolID: "school-1", SubjectFilter: "ALL"},
	})
	require.NoError(t, err)
	assert.Empty(t, source.lastFilter.SubjectID)
}

func TestReportServiceRecordsQueryAndReportMetrics(t *testing.T) {
	source := &fakeEventSource{events: []models.RawEvent{
		{SubjectID: "s1", SubjectName: "Alice", Date: datePtr(2024, time.March, 4), ApprovalStatus: models.StatusAgreed},
	}}
	metrics := NewMetricsService()
	windows := NewWindowResolver(nil)
	windows.now = func() time.Time {
		return time.Date(2024, time.March, 13, 10, 0, 0, 0, time.UTC)
	}
	svc := NewReportService(source, windows, NewAggregator(""), NewSummaryReducer(""), nil, metrics, nil)

	_, _, err := svc.Generate(context.Background(), dto.AttendanceReportRequest{SchoolID: "school-1"})
	require.NoError(t, err)

	snapshot := metrics.Snapshot()
	assert.Equal(t, uint64(1), snapshot.DBQueryCount)
	assert.Equal(t, uint64(1), snapshot.ReportsGenerated)

	_, _, err = svc.ListEvents(context.Background(), dto.RawEventListRequest{
		AttendanceReportRequest: dto.AttendanceReportRequest{SchoolID: "school-1"},
	})
	require.NoError(t, err)
	assert.Equal(t, uint64(2), metrics.Snapshot().DBQueryCount)
}

func TestReportServiceGenerateMapsSourceFailure(t *testing.T) {
	source := &fakeEventSource{err: errors.New("connection refused")}
	svc := newTestReportService(source, nil)

	_, _, err := svc.Generate(context.Background(), dto.AttendanceReportRequest{SchoolID: "school-1"})

	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrDataUnavailable.Code, appErr.Code)
	assert.Equal(t, appErrors.ErrDataUnavailable.Status, appErr.Status)
}

func TestReportServiceGenerateUsesCache(t *testing.T) {
	source := &fakeEventSource{events: []models.RawEvent{
		{SubjectID: "s1", SubjectName: "Alice", Date: datePtr(2024, time.March, 4), ApprovalStatus: models.StatusAgreed},
	}}
	cache := NewCacheService(newMemoryCacheRepo(), nil, time.Minute, nil, true)
	svc := newTestReportService(source, cache)

	req := dto.AttendanceReportRequest{SchoolID: "school-1", Mode: "monthly"}

	first, hit, err := svc.Generate(context.Background(), req)
	require.NoError(t, err)
	assert.False(t, hit)

	second, hit, err := svc.Generate(context.Background(), req)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, 1, source.calls)
	assert.Equal(t, first.Overall, second.Overall)
}

func TestReportServiceInvalidateSchoolDropsCachedReports(t *testing.T) {
	source := &fakeEventSource{events: []models.RawEvent{
		{SubjectID: "s1", SubjectName: "Alice", Date: datePtr(2024, time.March, 4), ApprovalStatus: models.StatusAgreed},
	}}
	cache := NewCacheService(newMemoryCacheRepo(), nil, time.Minute, nil, true)
	svc := newTestReportService(source, cache)

	req := dto.AttendanceReportRequest{SchoolID: "school-1", Mode: "monthly"}

	_, _, err := svc.Generate(context.Background(), req)
	require.NoError(t, err)
	require.NoError(t, svc.InvalidateSchool(context.Background(), "school-1"))

	_, hit, err := svc.Generate(context.Background(), req)
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, 2, source.calls)
}

func TestReportServiceListEventsDefaultsPagination(t *testing.T) {
	source := &fakeEventSource{total: 7}
	svc := newTestReportService(source, nil)

	_, pagination, err := svc.ListEvents(context.Background(), dto.RawEventListRequest{
		AttendanceReportRequest: dto.AttendanceReportRequest{SchoolID: "school-1"},
	})
	require.NoError(t, err)

	assert.Equal(t, 1, pagination.Page)
	assert.Equal(t, 50, pagination.PageSize)
	assert.Equal(t, 7, pagination.TotalCount)
	assert.Equal(t, "school-1", source.lastFilter.SchoolID)
}

func TestReportServiceListEventsMapsSourceFailure(t *testing.T) {
	source := &fakeEventSource{err: errors.New("timeout")}
	svc := newTestReportService(source, nil)

	_, _, err := svc.ListEvents(context.Background(), dto.RawEventListRequest{
		AttendanceReportRequest: dto.AttendanceReportRequest{SchoolID: "school-1"},
	})

	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrDataUnavailable.Code, appErr.Code)
}
