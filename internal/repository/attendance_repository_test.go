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

	"github.com/edupoint/coaching-admin-api/internal/models"
)

func newRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func attendanceColumns() []string {
	return []string{"id", "student_id", "batch_id", "date", "status", "marked_by", "notification_sent", "created_at", "updated_at"}
}

func TestAttendanceRepositoryUpsertReturnsRow(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewAttendanceRepository(db)

	day := time.Date(2026, 8, 10, 0, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows(attendanceColumns()).
		AddRow("a1", "s1", "b1", day, "absent", "u1", true, time.Now(), time.Now())
	mock.ExpectQuery("INSERT INTO attendance").
		WithArgs(sqlmock.AnyArg(), "s1", "b1", day, "absent", "u1", sqlmock.AnyArg()).
		WillReturnRows(rows)

	saved, err := repo.Upsert(context.Background(), &models.Attendance{
		StudentID: "s1",
		BatchID:   "b1",
		Date:      day,
		Status:    models.AttendanceStatusAbsent,
		MarkedBy:  "u1",
	})
	require.NoError(t, err)
	assert.Equal(t, "a1", saved.ID)
	// The database keeps the existing flag on conflict.
	assert.True(t, saved.NotificationSent)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAttendanceRepositorySetNotificationSent(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewAttendanceRepository(db)

	mock.ExpectExec("UPDATE attendance SET notification_sent = TRUE").
		WithArgs("a1", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.SetNotificationSent(context.Background(), "a1"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAttendanceRepositoryListByBatchAndDate(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewAttendanceRepository(db)

	day := time.Date(2026, 8, 10, 0, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows(attendanceColumns()).
		AddRow("a1", "s1", "b1", day, "present", "u1", false, time.Now(), time.Now()).
		AddRow("a2", "s2", "b1", day, "absent", "u1", true, time.Now(), time.Now())
	mock.ExpectQuery("SELECT (.+) FROM attendance WHERE batch_id").
		WithArgs("b1", day).
		WillReturnRows(rows)

	records, err := repo.ListByBatchAndDate(context.Background(), "b1", day)
	require.NoError(t, err)
	assert.Len(t, records, 2)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAttendanceRepositoryCountForDate(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewAttendanceRepository(db)

	day := time.Date(2026, 8, 10, 0, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows([]string{"status", "total"}).
		AddRow("present", 80).
		AddRow("absent", 12)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT status, COUNT(*) AS total FROM attendance WHERE date = $1 GROUP BY status")).
		WithArgs(day).
		WillReturnRows(rows)

	counts, err := repo.CountForDate(context.Background(), day)
	require.NoError(t, err)
	assert.Equal(t, 80, counts[models.AttendanceStatusPresent])
	assert.Equal(t, 12, counts[models.AttendanceStatusAbsent])
	assert.Equal(t, 0, counts[models.AttendanceStatusLeave])
	assert.NoError(t, mock.ExpectationsWereMet())
}
