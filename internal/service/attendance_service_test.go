package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edupoint/coaching-admin-api/internal/models"
	"github.com/edupoint/coaching-admin-api/internal/notification"
	appErrors "github.com/edupoint/coaching-admin-api/pkg/errors"
	"github.com/edupoint/coaching-admin-api/pkg/jobs"
)

const (
	testStudentID = "7b4b3f2a-5c1d-4e6f-8a9b-0c1d2e3f4a5b"
	testBatchID   = "1a2b3c4d-5e6f-4a8b-9c0d-1e2f3a4b5c6d"
	testTeacherID = "9f8e7d6c-5b4a-4392-8171-605f4e3d2c1b"
)

type mockAttendanceRepo struct {
	records     map[string]*models.Attendance
	flagged     []string
	flagErr     error
	byBatchDate []models.Attendance
	byStudent   []models.Attendance
	withBatch   []models.AttendanceWithBatch
}

func attendanceKey(studentID, batchID string, date time.Time) string {
	return fmt.Sprintf("%s|%s|%s", studentID, batchID, date.Format(models.DateLayout))
}

func (m *mockAttendanceRepo) Upsert(_ context.Context, record *models.Attendance) (*models.Attendance, error) {
	if m.records == nil {
		m.records = make(map[string]*models.Attendance)
	}
	key := attendanceKey(record.StudentID, record.BatchID, record.Date)
	if existing, ok := m.records[key]; ok {
		existing.Status = record.Status
		existing.MarkedBy = record.MarkedBy
		cp := *existing
		return &cp, nil
	}
	cp := *record
	if cp.ID == "" {
		cp.ID = "att-" + key
	}
	m.records[key] = &cp
	out := cp
	return &out, nil
}

func (m *mockAttendanceRepo) SetNotificationSent(_ context.Context, id string) error {
	if m.flagErr != nil {
		return m.flagErr
	}
	m.flagged = append(m.flagged, id)
	for _, rec := range m.records {
		if rec.ID == id {
			rec.NotificationSent = true
		}
	}
	return nil
}

func (m *mockAttendanceRepo) ListByBatchAndDate(context.Context, string, time.Time) ([]models.Attendance, error) {
	return m.byBatchDate, nil
}

func (m *mockAttendanceRepo) ListByStudent(context.Context, string, string, time.Time, time.Time) ([]models.Attendance, error) {
	return m.byStudent, nil
}

func (m *mockAttendanceRepo) ListByStudentWithBatch(context.Context, string, time.Time, time.Time) ([]models.AttendanceWithBatch, error) {
	return m.withBatch, nil
}

type mockBatchFinder struct {
	batches map[string]*models.BatchDetail
	roster  []models.BatchStudentRow
}

func (m *mockBatchFinder) FindByID(_ context.Context, id string) (*models.BatchDetail, error) {
	if batch, ok := m.batches[id]; ok {
		cp := *batch
		return &cp, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockBatchFinder) ListStudents(context.Context, string) ([]models.BatchStudentRow, error) {
	return m.roster, nil
}

type mockStudentResolver struct {
	students map[string]*models.StudentDetail
	contacts map[string]*models.StudentContact
}

func (m *mockStudentResolver) FindByID(_ context.Context, id string) (*models.StudentDetail, error) {
	if student, ok := m.students[id]; ok {
		cp := *student
		return &cp, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockStudentResolver) Contact(_ context.Context, studentID string) (*models.StudentContact, error) {
	if contact, ok := m.contacts[studentID]; ok {
		cp := *contact
		return &cp, nil
	}
	return nil, sql.ErrNoRows
}

type fakeGateway struct {
	alerts   []notification.AbsenceAlert
	receipts []notification.ReceiptEmail
	reports  []notification.MonthlyReportEmail

	alertErr   error
	receiptErr error
	reportErr  error
}

func (f *fakeGateway) SendAbsenceAlert(_ context.Context, alert notification.AbsenceAlert) error {
	if f.alertErr != nil {
		return f.alertErr
	}
	f.alerts = append(f.alerts, alert)
	return nil
}

func (f *fakeGateway) SendReceiptEmail(_ context.Context, receipt notification.ReceiptEmail) error {
	if f.receiptErr != nil {
		return f.receiptErr
	}
	f.receipts = append(f.receipts, receipt)
	return nil
}

func (f *fakeGateway) SendMonthlyReportEmail(_ context.Context, report notification.MonthlyReportEmail) error {
	if f.reportErr != nil {
		return f.reportErr
	}
	f.reports = append(f.reports, report)
	return nil
}

func strPtr(s string) *string { return &s }

func newAttendanceFixture(gateway *fakeGateway) (*AttendanceService, *mockAttendanceRepo, *mockBatchFinder, *mockStudentResolver) {
	repo := &mockAttendanceRepo{}
	batches := &mockBatchFinder{
		batches: map[string]*models.BatchDetail{
			testBatchID: {
				Batch:      models.Batch{ID: testBatchID, Name: "Physics Evening"},
				StudentIDs: []string{testStudentID},
			},
		},
	}
	students := &mockStudentResolver{
		students: map[string]*models.StudentDetail{
			testStudentID: {Student: models.Student{ID: testStudentID, FullName: "Asha Verma"}},
		},
		contacts: map[string]*models.StudentContact{
			testStudentID: {
				StudentID:   testStudentID,
				StudentName: "Asha Verma",
				ParentName:  strPtr("Ravi Verma"),
				Phone:       strPtr("+911234567890"),
				Email:       strPtr("ravi@example.com"),
			},
		},
	}
	svc := NewAttendanceService(repo, batches, students, gateway, nil, nil, nil)
	return svc, repo, batches, students
}

func TestAttendanceServiceMarkPresent(t *testing.T) {
	gateway := &fakeGateway{}
	svc, repo, _, _ := newAttendanceFixture(gateway)

	record, err := svc.Mark(context.Background(), models.MarkAttendanceRequest{
		StudentID: testStudentID,
		BatchID:   testBatchID,
		Date:      "2026-08-10",
		Status:    models.AttendanceStatusPresent,
	}, testTeacherID)
	require.NoError(t, err)
	assert.Equal(t, models.AttendanceStatusPresent, record.Status)
	assert.Equal(t, testTeacherID, record.MarkedBy)
	assert.Empty(t, gateway.alerts)
	assert.Len(t, repo.records, 1)
}

func TestAttendanceServiceMarkAbsentSendsAlert(t *testing.T) {
	gateway := &fakeGateway{}
	svc, repo, _, _ := newAttendanceFixture(gateway)

	record, err := svc.Mark(context.Background(), models.MarkAttendanceRequest{
		StudentID: testStudentID,
		BatchID:   testBatchID,
		Date:      "2026-08-10",
		Status:    models.AttendanceStatusAbsent,
	}, testTeacherID)
	require.NoError(t, err)
	assert.True(t, record.NotificationSent)
	require.Len(t, gateway.alerts, 1)
	assert.Equal(t, "Asha Verma", gateway.alerts[0].StudentName)
	assert.Equal(t, "+911234567890", gateway.alerts[0].Phone)
	assert.Equal(t, []string{record.ID}, repo.flagged)
}

func TestAttendanceServiceRemarkUpdatesInPlace(t *testing.T) {
	gateway := &fakeGateway{}
	svc, repo, _, _ := newAttendanceFixture(gateway)

	req := models.MarkAttendanceRequest{
		StudentID: testStudentID,
		BatchID:   testBatchID,
		Date:      "2026-08-10",
		Status:    models.AttendanceStatusAbsent,
	}
	first, err := svc.Mark(context.Background(), req, testTeacherID)
	require.NoError(t, err)

	req.Status = models.AttendanceStatusPresent
	second, err := svc.Mark(context.Background(), req, testTeacherID)
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, models.AttendanceStatusPresent, second.Status)
	assert.Len(t, repo.records, 1)
}

func TestAttendanceServiceAbsenceAlertSentOnce(t *testing.T) {
	gateway := &fakeGateway{}
	svc, _, _, _ := newAttendanceFixture(gateway)

	req := models.MarkAttendanceRequest{
		StudentID: testStudentID,
		BatchID:   testBatchID,
		Date:      "2026-08-10",
		Status:    models.AttendanceStatusAbsent,
	}
	_, err := svc.Mark(context.Background(), req, testTeacherID)
	require.NoError(t, err)
	_, err = svc.Mark(context.Background(), req, testTeacherID)
	require.NoError(t, err)

	assert.Len(t, gateway.alerts, 1)
}

func TestAttendanceServiceAlertFailureRetriesOnRemark(t *testing.T) {
	gateway := &fakeGateway{alertErr: errors.New("gateway down")}
	svc, repo, _, _ := newAttendanceFixture(gateway)

	req := models.MarkAttendanceRequest{
		StudentID: testStudentID,
		BatchID:   testBatchID,
		Date:      "2026-08-10",
		Status:    models.AttendanceStatusAbsent,
	}
	record, err := svc.Mark(context.Background(), req, testTeacherID)
	require.NoError(t, err)
	assert.False(t, record.NotificationSent)
	assert.Empty(t, repo.flagged)

	gateway.alertErr = nil
	record, err = svc.Mark(context.Background(), req, testTeacherID)
	require.NoError(t, err)
	assert.True(t, record.NotificationSent)
	assert.Len(t, gateway.alerts, 1)
}

func TestAttendanceServiceAlertSkippedWithoutPhone(t *testing.T) {
	gateway := &fakeGateway{}
	svc, repo, _, students := newAttendanceFixture(gateway)
	students.contacts[testStudentID].Phone = nil

	record, err := svc.Mark(context.Background(), models.MarkAttendanceRequest{
		StudentID: testStudentID,
		BatchID:   testBatchID,
		Date:      "2026-08-10",
		Status:    models.AttendanceStatusAbsent,
	}, testTeacherID)
	require.NoError(t, err)
	assert.False(t, record.NotificationSent)
	assert.Empty(t, gateway.alerts)
	assert.Empty(t, repo.flagged)
}

func TestAttendanceServiceMarkRejectsUnenrolledStudent(t *testing.T) {
	gateway := &fakeGateway{}
	svc, _, batches, _ := newAttendanceFixture(gateway)
	batches.batches[testBatchID].StudentIDs = nil

	_, err := svc.Mark(context.Background(), models.MarkAttendanceRequest{
		StudentID: testStudentID,
		BatchID:   testBatchID,
		Date:      "2026-08-10",
		Status:    models.AttendanceStatusPresent,
	}, testTeacherID)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestAttendanceServiceMarkDefaultsToToday(t *testing.T) {
	gateway := &fakeGateway{}
	svc, repo, _, _ := newAttendanceFixture(gateway)
	svc.now = func() time.Time { return time.Date(2026, 8, 15, 10, 30, 0, 0, time.UTC) }

	record, err := svc.Mark(context.Background(), models.MarkAttendanceRequest{
		StudentID: testStudentID,
		BatchID:   testBatchID,
		Status:    models.AttendanceStatusPresent,
	}, testTeacherID)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 8, 15, 0, 0, 0, 0, time.UTC), record.Date)
	assert.Len(t, repo.records, 1)
}

func TestAttendanceServiceMarkUnknownStudent(t *testing.T) {
	gateway := &fakeGateway{}
	svc, repo, _, _ := newAttendanceFixture(gateway)

	_, err := svc.Mark(context.Background(), models.MarkAttendanceRequest{
		StudentID: "2c3d4e5f-6a7b-4c8d-9e0f-1a2b3c4d5e6f",
		BatchID:   testBatchID,
		Date:      "2026-08-10",
		Status:    models.AttendanceStatusPresent,
	}, testTeacherID)
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErr.Code)
	assert.Equal(t, 404, appErr.Status)
	assert.Empty(t, repo.records)
}

func TestAttendanceServiceMarkDropsDashboardCache(t *testing.T) {
	gateway := &fakeGateway{}
	svc, _, _, _ := newAttendanceFixture(gateway)
	cache := &fakeDashboardCache{entries: map[string][]byte{dashboardCacheKey: []byte("{}")}}
	svc.SetDashboard(NewDashboardService(cache, nil, nil, nil, nil, nil, nil, time.Minute, nil))

	_, err := svc.Mark(context.Background(), models.MarkAttendanceRequest{
		StudentID: testStudentID,
		BatchID:   testBatchID,
		Date:      "2026-08-10",
		Status:    models.AttendanceStatusPresent,
	}, testTeacherID)
	require.NoError(t, err)
	assert.Contains(t, cache.dropped, dashboardCacheKey)
}

func TestAttendanceServiceBatchDayDefaultsToAbsent(t *testing.T) {
	gateway := &fakeGateway{}
	svc, repo, batches, _ := newAttendanceFixture(gateway)
	batches.roster = []models.BatchStudentRow{
		{StudentID: testStudentID, FullName: "Asha Verma", RollNumber: "R-01"},
		{StudentID: "other", FullName: "Vikram Rao", RollNumber: "R-02"},
	}
	day := time.Date(2026, 8, 10, 0, 0, 0, 0, time.UTC)
	repo.byBatchDate = []models.Attendance{
		{ID: "a1", StudentID: testStudentID, BatchID: testBatchID, Date: day, Status: models.AttendanceStatusPresent},
	}

	report, err := svc.BatchDay(context.Background(), testBatchID, day)
	require.NoError(t, err)
	require.Len(t, report.Entries, 2)

	assert.Equal(t, models.AttendanceStatusPresent, report.Entries[0].Status)
	assert.True(t, report.Entries[0].Recorded)
	assert.Equal(t, models.AttendanceStatusAbsent, report.Entries[1].Status)
	assert.False(t, report.Entries[1].Recorded)
}

func TestAttendanceServiceExportBatchDay(t *testing.T) {
	gateway := &fakeGateway{}
	svc, _, batches, _ := newAttendanceFixture(gateway)
	batches.roster = []models.BatchStudentRow{
		{StudentID: testStudentID, FullName: "Asha Verma", RollNumber: "R-01"},
	}
	day := time.Date(2026, 8, 10, 0, 0, 0, 0, time.UTC)

	payload, filename, err := svc.ExportBatchDay(context.Background(), testBatchID, day)
	require.NoError(t, err)
	assert.Equal(t, "attendance_"+testBatchID+"_2026-08-10.csv", filename)
	assert.Contains(t, string(payload), "Roll Number,Student,Status,Recorded")
	assert.Contains(t, string(payload), "R-01,Asha Verma,absent,no")
}

func TestAttendanceServiceStudentHistoryStats(t *testing.T) {
	gateway := &fakeGateway{}
	svc, repo, _, _ := newAttendanceFixture(gateway)
	repo.byStudent = []models.Attendance{
		{Status: models.AttendanceStatusPresent},
		{Status: models.AttendanceStatusPresent},
		{Status: models.AttendanceStatusAbsent},
	}
	from := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, 8, 31, 0, 0, 0, 0, time.UTC)

	report, err := svc.StudentHistory(context.Background(), testStudentID, "", from, to)
	require.NoError(t, err)
	assert.Equal(t, 3, report.Stats.Total)
	assert.Equal(t, 2, report.Stats.Present)
	assert.Equal(t, 1, report.Stats.Absent)
	assert.Equal(t, "66.67", report.Stats.Percentage)
}

func TestAttendanceServiceStudentHistoryEmptyPercentage(t *testing.T) {
	gateway := &fakeGateway{}
	svc, _, _, _ := newAttendanceFixture(gateway)
	from := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, 8, 31, 0, 0, 0, 0, time.UTC)

	report, err := svc.StudentHistory(context.Background(), testStudentID, "", from, to)
	require.NoError(t, err)
	assert.Equal(t, 0, report.Stats.Total)
	assert.Equal(t, "0.00", report.Stats.Percentage)
}

func TestAttendanceServiceMonthlyReportRounding(t *testing.T) {
	gateway := &fakeGateway{}
	svc, repo, _, _ := newAttendanceFixture(gateway)
	repo.withBatch = []models.AttendanceWithBatch{
		{Attendance: models.Attendance{BatchID: testBatchID, Status: models.AttendanceStatusPresent}, BatchName: "Physics Evening"},
		{Attendance: models.Attendance{BatchID: testBatchID, Status: models.AttendanceStatusPresent}, BatchName: "Physics Evening"},
		{Attendance: models.Attendance{BatchID: testBatchID, Status: models.AttendanceStatusAbsent}, BatchName: "Physics Evening"},
	}

	report, err := svc.MonthlyReport(context.Background(), testStudentID, 8, 2026)
	require.NoError(t, err)
	assert.Equal(t, 3, report.TotalClasses)
	assert.Equal(t, 2, report.Attended)
	assert.Equal(t, 67, report.Percentage)
	require.Len(t, report.BatchDetails, 1)
	assert.Equal(t, "Physics Evening", report.BatchDetails[0].BatchName)
	assert.Equal(t, 67, report.BatchDetails[0].Percentage)
}

func TestAttendanceServiceMonthlyReportInvalidMonth(t *testing.T) {
	gateway := &fakeGateway{}
	svc, _, _, _ := newAttendanceFixture(gateway)

	_, err := svc.MonthlyReport(context.Background(), testStudentID, 13, 2026)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestAttendanceServiceEmailMonthlyReportsQueues(t *testing.T) {
	gateway := &fakeGateway{}
	svc, _, batches, _ := newAttendanceFixture(gateway)
	batches.roster = []models.BatchStudentRow{
		{StudentID: testStudentID},
		{StudentID: "other"},
	}

	queue := jobs.NewQueue("test-reports", func(context.Context, jobs.Job) error { return nil }, jobs.Config{QueueSize: 8})
	queue.Start(context.Background())
	defer queue.Stop()
	svc.SetQueue(queue)

	queued, err := svc.EmailMonthlyReports(context.Background(), testBatchID, 8, 2026)
	require.NoError(t, err)
	assert.Equal(t, 2, queued)
}

func TestAttendanceServiceEmailMonthlyReportsWithoutQueue(t *testing.T) {
	gateway := &fakeGateway{}
	svc, _, _, _ := newAttendanceFixture(gateway)

	_, err := svc.EmailMonthlyReports(context.Background(), testBatchID, 8, 2026)
	require.Error(t, err)
}

func TestAttendanceServiceHandleMonthlyReportJob(t *testing.T) {
	gateway := &fakeGateway{}
	svc, repo, _, _ := newAttendanceFixture(gateway)
	repo.withBatch = []models.AttendanceWithBatch{
		{Attendance: models.Attendance{BatchID: testBatchID, Status: models.AttendanceStatusPresent}, BatchName: "Physics Evening"},
	}

	err := svc.HandleMonthlyReportJob(context.Background(), jobs.Job{
		Payload: MonthlyReportJobPayload{StudentID: testStudentID, Month: 8, Year: 2026},
	})
	require.NoError(t, err)
	require.Len(t, gateway.reports, 1)
	assert.Equal(t, "ravi@example.com", gateway.reports[0].Email)
	assert.Equal(t, 100, gateway.reports[0].Percentage)
}

func TestAttendanceServiceHandleMonthlyReportJobNoEmail(t *testing.T) {
	gateway := &fakeGateway{}
	svc, _, _, students := newAttendanceFixture(gateway)
	students.contacts[testStudentID].Email = nil

	err := svc.HandleMonthlyReportJob(context.Background(), jobs.Job{
		Payload: MonthlyReportJobPayload{StudentID: testStudentID, Month: 8, Year: 2026},
	})
	require.NoError(t, err)
	assert.Empty(t, gateway.reports)
}
