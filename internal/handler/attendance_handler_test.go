package handler

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edupoint/coaching-admin-api/internal/middleware"
	"github.com/edupoint/coaching-admin-api/internal/models"
	"github.com/edupoint/coaching-admin-api/internal/service"
)

const (
	testStudentID = "7b4b3f2a-5c1d-4e6f-8a9b-0c1d2e3f4a5b"
	testBatchID   = "1a2b3c4d-5e6f-4a8b-9c0d-1e2f3a4b5c6d"
)

type attendanceRepoStub struct {
	last *models.Attendance
}

func (s *attendanceRepoStub) Upsert(_ context.Context, record *models.Attendance) (*models.Attendance, error) {
	saved := *record
	saved.ID = "att-1"
	s.last = &saved
	return &saved, nil
}

func (s *attendanceRepoStub) SetNotificationSent(context.Context, string) error { return nil }

func (s *attendanceRepoStub) ListByBatchAndDate(context.Context, string, time.Time) ([]models.Attendance, error) {
	return nil, nil
}

func (s *attendanceRepoStub) ListByStudent(context.Context, string, string, time.Time, time.Time) ([]models.Attendance, error) {
	return nil, nil
}

func (s *attendanceRepoStub) ListByStudentWithBatch(context.Context, string, time.Time, time.Time) ([]models.AttendanceWithBatch, error) {
	return nil, nil
}

type batchRepoStub struct{}

func (batchRepoStub) FindByID(_ context.Context, id string) (*models.BatchDetail, error) {
	if id != testBatchID {
		return nil, sql.ErrNoRows
	}
	return &models.BatchDetail{
		Batch:      models.Batch{ID: testBatchID, Name: "Physics Evening"},
		StudentIDs: []string{testStudentID},
	}, nil
}

func (batchRepoStub) ListStudents(context.Context, string) ([]models.BatchStudentRow, error) {
	return []models.BatchStudentRow{{StudentID: testStudentID, FullName: "Asha Verma", RollNumber: "R-01"}}, nil
}

type studentRepoStub struct{}

func (studentRepoStub) FindByID(_ context.Context, id string) (*models.StudentDetail, error) {
	if id != testStudentID {
		return nil, sql.ErrNoRows
	}
	return &models.StudentDetail{Student: models.Student{ID: testStudentID, FullName: "Asha Verma"}}, nil
}

func (studentRepoStub) Contact(context.Context, string) (*models.StudentContact, error) {
	return &models.StudentContact{StudentID: testStudentID, StudentName: "Asha Verma"}, nil
}

func newAttendanceHandler(repo *attendanceRepoStub) *AttendanceHandler {
	svc := service.NewAttendanceService(repo, batchRepoStub{}, studentRepoStub{}, nil, nil, nil, nil)
	return NewAttendanceHandler(svc)
}

func TestAttendanceHandlerMarkSuccess(t *testing.T) {
	gin.SetMode(gin.TestMode)
	repo := &attendanceRepoStub{}
	handler := newAttendanceHandler(repo)

	payload, err := json.Marshal(models.MarkAttendanceRequest{
		StudentID: testStudentID,
		BatchID:   testBatchID,
		Date:      "2026-08-10",
		Status:    models.AttendanceStatusPresent,
	})
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodPost, "/attendance/mark", bytes.NewReader(payload))
	c.Request.Header.Set("Content-Type", "application/json")
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "user-1", Role: models.RoleTeacher})

	handler.Mark(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, repo.last)
	assert.Equal(t, "user-1", repo.last.MarkedBy)
	assert.Equal(t, models.AttendanceStatusPresent, repo.last.Status)
}

func TestAttendanceHandlerMarkInvalidPayload(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := newAttendanceHandler(&attendanceRepoStub{})

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodPost, "/attendance/mark", bytes.NewBufferString("{"))
	c.Request.Header.Set("Content-Type", "application/json")

	handler.Mark(c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAttendanceHandlerMarkUnknownBatch(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := newAttendanceHandler(&attendanceRepoStub{})

	payload, err := json.Marshal(models.MarkAttendanceRequest{
		StudentID: testStudentID,
		BatchID:   "9f8e7d6c-5b4a-4321-8765-4321fedcba98",
		Date:      "2026-08-10",
		Status:    models.AttendanceStatusAbsent,
	})
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodPost, "/attendance/mark", bytes.NewReader(payload))
	c.Request.Header.Set("Content-Type", "application/json")
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "user-1", Role: models.RoleTeacher})

	handler.Mark(c)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAttendanceHandlerBatchDayRequiresParams(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := newAttendanceHandler(&attendanceRepoStub{})

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/attendance/batch?date=2026-08-10", nil)

	handler.BatchDay(c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAttendanceHandlerBatchDaySuccess(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := newAttendanceHandler(&attendanceRepoStub{})

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/attendance/batch?batchId="+testBatchID+"&date=2026-08-10", nil)

	handler.BatchDay(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	var envelope struct {
		Data models.BatchDayReport `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.Equal(t, "Physics Evening", envelope.Data.BatchName)
	require.Len(t, envelope.Data.Entries, 1)
	assert.Equal(t, models.AttendanceStatusAbsent, envelope.Data.Entries[0].Status)
	assert.False(t, envelope.Data.Entries[0].Recorded)
}

func TestAttendanceHandlerMonthlyReportInvalidMonth(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := newAttendanceHandler(&attendanceRepoStub{})

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/attendance/monthly-report?studentId="+testStudentID+"&month=13&year=2026", nil)

	handler.MonthlyReport(c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
