package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/attendance-report-api/internal/models"
)

func newEventRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func eventColumns() *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"subject_id", "subject_name", "date", "event_time",
		"approval_status", "expected_arrival", "note",
	})
}

func TestAttendanceEventRepositoryFetchEvents(t *testing.T) {
	db, mock, cleanup := newEventRepoMock(t)
	defer cleanup()
	repo := NewAttendanceEventRepository(db)

	window := models.ReportWindow{
		Mode:  models.ModeMonthly,
		Start: time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2024, time.March, 31, 0, 0, 0, 0, time.UTC),
	}

	eventDate := time.Date(2024, time.March, 4, 0, 0, 0, 0, time.UTC)
	rows := eventColumns().
		AddRow("staff-1", "Alice", eventDate, "07:55", "agreed", "08:00", nil).
		AddRow("staff-2", "Bob", nil, nil, "", "08:00", nil)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT s.id AS subject_id, s.full_name AS subject_name")).
		WithArgs("school-1", window.Start, window.End).
		WillReturnRows(rows)

	events, err := repo.FetchEvents(context.Background(), "school-1", "", window)
	require.NoError(t, err)
	require.Len(t, events, 2)

	assert.Equal(t, "staff-1", events[0].SubjectID)
	require.NotNil(t, events[0].Date)
	require.NotNil(t, events[0].EventTime)
	assert.Equal(t, "07:55", *events[0].EventTime)

	// Staff with no events in range come back as one null-dated row.
	assert.Nil(t, events[1].Date)
	assert.Nil(t, events[1].EventTime)
	assert.Equal(t, models.ApprovalStatus(""), events[1].ApprovalStatus)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAttendanceEventRepositoryFetchEventsStaffFilter(t *testing.T) {
	db, mock, cleanup := newEventRepoMock(t)
	defer cleanup()
	repo := NewAttendanceEventRepository(db)

	window := models.ReportWindow{
		Mode:  models.ModeDaily,
		Start: time.Date(2024, time.March, 4, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2024, time.March, 4, 0, 0, 0, 0, time.UTC),
	}

	mock.ExpectQuery(regexp.QuoteMeta("AND s.id = $4")).
		WithArgs("school-1", window.Start, window.End, "staff-1").
		WillReturnRows(eventColumns())

	_, err := repo.FetchEvents(context.Background(), "school-1", "staff-1", window)
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAttendanceEventRepositoryFetchEventsYearly(t *testing.T) {
	db, mock, cleanup := newEventRepoMock(t)
	defer cleanup()
	repo := NewAttendanceEventRepository(db)

	window := models.ReportWindow{Mode: models.ModeYearly, PointYear: 2023}

	mock.ExpectQuery(regexp.QuoteMeta("EXTRACT(YEAR FROM e.date) = $2")).
		WithArgs("school-1", 2023).
		WillReturnRows(eventColumns())

	_, err := repo.FetchEvents(context.Background(), "school-1", "", window)
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAttendanceEventRepositoryListEvents(t *testing.T) {
	db, mock, cleanup := newEventRepoMock(t)
	defer cleanup()
	repo := NewAttendanceEventRepository(db)

	window := models.ReportWindow{
		Mode:  models.ModeMonthly,
		Start: time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2024, time.March, 31, 0, 0, 0, 0, time.UTC),
	}

	eventDate := time.Date(2024, time.March, 4, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery(regexp.QuoteMeta("FROM staff_attendance_events e")).
		WithArgs("school-1", window.Start, window.End).
		WillReturnRows(eventColumns().AddRow("staff-1", "Alice", eventDate, "07:55", "agreed", "08:00", nil))

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*)")).
		WithArgs("school-1", window.Start, window.End).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	events, total, err := repo.ListEvents(context.Background(), models.RawEventFilter{
		SchoolID: "school-1",
		Window:   window,
		Page:     1,
		PageSize: 20,
	})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, events, 1)
	assert.Equal(t, "Alice", events[0].SubjectName)

	require.NoError(t, mock.ExpectationsWereMet())
}
