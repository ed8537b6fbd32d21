package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/edupoint/coaching-admin-api/internal/models"
	"github.com/edupoint/coaching-admin-api/internal/notification"
	appErrors "github.com/edupoint/coaching-admin-api/pkg/errors"
	"github.com/edupoint/coaching-admin-api/pkg/export"
	"github.com/edupoint/coaching-admin-api/pkg/jobs"
)

type attendanceRepository interface {
	Upsert(ctx context.Context, record *models.Attendance) (*models.Attendance, error)
	SetNotificationSent(ctx context.Context, id string) error
	ListByBatchAndDate(ctx context.Context, batchID string, date time.Time) ([]models.Attendance, error)
	ListByStudent(ctx context.Context, studentID, batchID string, from, to time.Time) ([]models.Attendance, error)
	ListByStudentWithBatch(ctx context.Context, studentID string, from, to time.Time) ([]models.AttendanceWithBatch, error)
}

type attendanceBatchRepository interface {
	FindByID(ctx context.Context, id string) (*models.BatchDetail, error)
	ListStudents(ctx context.Context, batchID string) ([]models.BatchStudentRow, error)
}

type contactResolver interface {
	FindByID(ctx context.Context, id string) (*models.StudentDetail, error)
	Contact(ctx context.Context, studentID string) (*models.StudentContact, error)
}

// MonthlyReportJobPayload is the unit of work for the report email fan-out.
type MonthlyReportJobPayload struct {
	StudentID string
	Month     int
	Year      int
}

// AttendanceService provides attendance recording and reporting use cases.
type AttendanceService struct {
	repo      attendanceRepository
	batches   attendanceBatchRepository
	students  contactResolver
	gateway   notification.Gateway
	csv       *export.CSVExporter
	queue     *jobs.Queue
	metrics   *MetricsService
	dashboard *DashboardService
	validator *validator.Validate
	logger    *zap.Logger
	now       func() time.Time
}

// NewAttendanceService constructs an AttendanceService instance. The queue
// is optional; EmailMonthlyReports fails without one.
func NewAttendanceService(repo attendanceRepository, batches attendanceBatchRepository, students contactResolver,
	gateway notification.Gateway, csv *export.CSVExporter, validate *validator.Validate, logger *zap.Logger) *AttendanceService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	if gateway == nil {
		gateway = notification.NoopGateway{}
	}
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	return &AttendanceService{
		repo:      repo,
		batches:   batches,
		students:  students,
		gateway:   gateway,
		csv:       csv,
		validator: validate,
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// SetQueue attaches the background queue used for report email fan-out.
func (s *AttendanceService) SetQueue(queue *jobs.Queue) {
	s.queue = queue
}

// SetMetrics attaches the Prometheus recorder. Optional.
func (s *AttendanceService) SetMetrics(metrics *MetricsService) {
	s.metrics = metrics
}

// SetDashboard attaches the dashboard cache so marks refresh the summary.
// Optional.
func (s *AttendanceService) SetDashboard(dashboard *DashboardService) {
	s.dashboard = dashboard
}

// Mark records one attendance mark. An omitted date means today. Marking
// the same (student, batch, day) again overwrites the status. When the
// resulting status is absent and no alert went out for that day yet, a
// WhatsApp alert is attempted; delivery failure never fails the mark and
// leaves the flag unset so a later re-mark retries.
func (s *AttendanceService) Mark(ctx context.Context, req models.MarkAttendanceRequest, markedBy string) (*models.Attendance, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid attendance payload")
	}

	var date time.Time
	if req.Date == "" {
		n := s.now()
		date = time.Date(n.Year(), n.Month(), n.Day(), 0, 0, 0, 0, time.UTC)
	} else {
		var err error
		date, err = time.Parse(models.DateLayout, req.Date)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid attendance date")
		}
	}

	if _, err := s.students.FindByID(ctx, req.StudentID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch student")
	}

	batch, err := s.batches.FindByID(ctx, req.BatchID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "batch not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch batch")
	}

	enrolled := false
	for _, id := range batch.StudentIDs {
		if id == req.StudentID {
			enrolled = true
			break
		}
	}
	if !enrolled {
		return nil, appErrors.Clone(appErrors.ErrValidation, "student is not enrolled in this batch")
	}

	record, err := s.repo.Upsert(ctx, &models.Attendance{
		StudentID: req.StudentID,
		BatchID:   req.BatchID,
		Date:      date,
		Status:    req.Status,
		MarkedBy:  markedBy,
	})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record attendance")
	}
	s.dashboard.Invalidate(ctx)

	if record.Status == models.AttendanceStatusAbsent && !record.NotificationSent {
		s.notifyAbsence(ctx, record, batch.Name)
	}
	return record, nil
}

// notifyAbsence attempts the guardian alert and flags the record on
// success. Failures are logged only.
func (s *AttendanceService) notifyAbsence(ctx context.Context, record *models.Attendance, batchName string) {
	contact, err := s.students.Contact(ctx, record.StudentID)
	if err != nil {
		s.logger.Warn("absence alert skipped: contact lookup failed",
			zap.String("student_id", record.StudentID), zap.Error(err))
		return
	}
	if contact.Phone == nil || *contact.Phone == "" {
		s.logger.Warn("absence alert skipped: no guardian phone",
			zap.String("student_id", record.StudentID))
		return
	}

	parentName := ""
	if contact.ParentName != nil {
		parentName = *contact.ParentName
	}
	alert := notification.AbsenceAlert{
		StudentName: contact.StudentName,
		ParentName:  parentName,
		Phone:       *contact.Phone,
		BatchName:   batchName,
		Date:        record.Date,
	}
	if err := s.gateway.SendAbsenceAlert(ctx, alert); err != nil {
		s.logger.Warn("absence alert delivery failed",
			zap.String("student_id", record.StudentID), zap.Error(err))
		s.metrics.RecordNotification("whatsapp", false)
		return
	}
	s.metrics.RecordNotification("whatsapp", true)
	if err := s.repo.SetNotificationSent(ctx, record.ID); err != nil {
		s.logger.Error("failed to flag absence alert",
			zap.String("attendance_id", record.ID), zap.Error(err))
		return
	}
	record.NotificationSent = true
}

// BatchDay builds the full roster view for one batch and day. Students
// without a recorded mark appear as absent with Recorded false.
func (s *AttendanceService) BatchDay(ctx context.Context, batchID string, date time.Time) (*models.BatchDayReport, error) {
	batch, err := s.batches.FindByID(ctx, batchID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "batch not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch batch")
	}

	roster, err := s.batches.ListStudents(ctx, batchID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list roster")
	}
	records, err := s.repo.ListByBatchAndDate(ctx, batchID, date)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list attendance")
	}

	recorded := make(map[string]models.Attendance, len(records))
	for _, rec := range records {
		recorded[rec.StudentID] = rec
	}

	report := &models.BatchDayReport{
		BatchID:   batchID,
		BatchName: batch.Name,
		Date:      date,
		Entries:   make([]models.BatchDayEntry, 0, len(roster)),
	}
	for _, student := range roster {
		entry := models.BatchDayEntry{
			StudentID:   student.StudentID,
			StudentName: student.FullName,
			RollNumber:  student.RollNumber,
			Status:      models.AttendanceStatusAbsent,
		}
		if rec, ok := recorded[student.StudentID]; ok {
			entry.Status = rec.Status
			entry.NotificationSent = rec.NotificationSent
			entry.Recorded = true
		}
		report.Entries = append(report.Entries, entry)
	}
	return report, nil
}

// ExportBatchDay renders the batch/day report as a CSV day sheet.
func (s *AttendanceService) ExportBatchDay(ctx context.Context, batchID string, date time.Time) ([]byte, string, error) {
	report, err := s.BatchDay(ctx, batchID, date)
	if err != nil {
		return nil, "", err
	}

	dataset := export.Dataset{
		Headers: []string{"Roll Number", "Student", "Status", "Recorded"},
	}
	for _, entry := range report.Entries {
		recorded := "no"
		if entry.Recorded {
			recorded = "yes"
		}
		dataset.Rows = append(dataset.Rows, map[string]string{
			"Roll Number": entry.RollNumber,
			"Student":     entry.StudentName,
			"Status":      string(entry.Status),
			"Recorded":    recorded,
		})
	}

	payload, err := s.csv.Render(dataset)
	if err != nil {
		return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render day sheet")
	}
	filename := fmt.Sprintf("attendance_%s_%s.csv", report.BatchID, date.Format(models.DateLayout))
	return payload, filename, nil
}

// StudentHistory returns a student's marks in a date range with summary
// statistics. The percentage is present/total to two decimals, "0.00"
// when no marks exist.
func (s *AttendanceService) StudentHistory(ctx context.Context, studentID, batchID string, from, to time.Time) (*models.StudentAttendanceReport, error) {
	if _, err := s.students.FindByID(ctx, studentID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch student")
	}
	if to.Before(from) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "end date must not precede start date")
	}

	records, err := s.repo.ListByStudent(ctx, studentID, batchID, from, to)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list attendance")
	}

	stats := models.AttendanceStats{Total: len(records)}
	for _, rec := range records {
		switch rec.Status {
		case models.AttendanceStatusPresent:
			stats.Present++
		case models.AttendanceStatusAbsent:
			stats.Absent++
		case models.AttendanceStatusLeave:
			stats.Leave++
		}
	}
	stats.Percentage = "0.00"
	if stats.Total > 0 {
		stats.Percentage = fmt.Sprintf("%.2f", float64(stats.Present)*100/float64(stats.Total))
	}

	return &models.StudentAttendanceReport{
		StudentID: studentID,
		Records:   records,
		Stats:     stats,
	}, nil
}

// MonthlyReport summarizes one student's calendar month across batches.
// Percentages use integer rounding.
func (s *AttendanceService) MonthlyReport(ctx context.Context, studentID string, month, year int) (*models.MonthlyAttendanceReport, error) {
	if month < 1 || month > 12 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "month must be between 1 and 12")
	}
	student, err := s.students.FindByID(ctx, studentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch student")
	}

	from := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 1, -1)
	records, err := s.repo.ListByStudentWithBatch(ctx, studentID, from, to)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list attendance")
	}

	report := &models.MonthlyAttendanceReport{
		StudentID:   studentID,
		StudentName: student.FullName,
		Month:       month,
		Year:        year,
	}

	type bucket struct {
		name     string
		attended int
		total    int
	}
	order := []string{}
	buckets := map[string]*bucket{}
	for _, rec := range records {
		b, ok := buckets[rec.BatchID]
		if !ok {
			b = &bucket{name: rec.BatchName}
			buckets[rec.BatchID] = b
			order = append(order, rec.BatchID)
		}
		b.total++
		report.TotalClasses++
		if rec.Status == models.AttendanceStatusPresent {
			b.attended++
			report.Attended++
		}
	}

	for _, batchID := range order {
		b := buckets[batchID]
		report.BatchDetails = append(report.BatchDetails, models.MonthlyBatchBreakdown{
			BatchID:    batchID,
			BatchName:  b.name,
			Attended:   b.attended,
			Total:      b.total,
			Percentage: roundPercent(b.attended, b.total),
		})
	}
	report.Percentage = roundPercent(report.Attended, report.TotalClasses)
	return report, nil
}

// EmailMonthlyReports fans out one report email per student of the batch
// through the background queue. Returns how many jobs were queued.
func (s *AttendanceService) EmailMonthlyReports(ctx context.Context, batchID string, month, year int) (int, error) {
	if s.queue == nil {
		return 0, appErrors.Clone(appErrors.ErrInternal, "report queue is not configured")
	}
	if month < 1 || month > 12 {
		return 0, appErrors.Clone(appErrors.ErrValidation, "month must be between 1 and 12")
	}
	if _, err := s.batches.FindByID(ctx, batchID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, appErrors.Clone(appErrors.ErrNotFound, "batch not found")
		}
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch batch")
	}

	roster, err := s.batches.ListStudents(ctx, batchID)
	if err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list roster")
	}

	queued := 0
	for _, student := range roster {
		job := jobs.Job{
			ID:   uuid.NewString(),
			Type: "monthly-report-email",
			Payload: MonthlyReportJobPayload{
				StudentID: student.StudentID,
				Month:     month,
				Year:      year,
			},
		}
		if err := s.queue.Enqueue(job); err != nil {
			s.logger.Warn("report email not queued",
				zap.String("student_id", student.StudentID), zap.Error(err))
			continue
		}
		queued++
	}
	return queued, nil
}

// HandleMonthlyReportJob composes and sends one student's monthly report
// email. Wired as the queue handler.
func (s *AttendanceService) HandleMonthlyReportJob(ctx context.Context, job jobs.Job) error {
	payload, ok := job.Payload.(MonthlyReportJobPayload)
	if !ok {
		return fmt.Errorf("unexpected payload type %T", job.Payload)
	}

	report, err := s.MonthlyReport(ctx, payload.StudentID, payload.Month, payload.Year)
	if err != nil {
		return err
	}
	contact, err := s.students.Contact(ctx, payload.StudentID)
	if err != nil {
		return fmt.Errorf("resolve contact: %w", err)
	}
	if contact.Email == nil || *contact.Email == "" {
		s.logger.Warn("report email skipped: no guardian email",
			zap.String("student_id", payload.StudentID))
		return nil
	}

	parentName := ""
	if contact.ParentName != nil {
		parentName = *contact.ParentName
	}
	err = s.gateway.SendMonthlyReportEmail(ctx, notification.MonthlyReportEmail{
		StudentName:  report.StudentName,
		ParentName:   parentName,
		Email:        *contact.Email,
		Month:        time.Month(payload.Month),
		Year:         payload.Year,
		Attended:     report.Attended,
		TotalClasses: report.TotalClasses,
		Percentage:   report.Percentage,
	})
	s.metrics.RecordNotification("email", err == nil)
	return err
}

func roundPercent(part, total int) int {
	if total == 0 {
		return 0
	}
	return int(math.Round(float64(part) * 100 / float64(total)))
}
