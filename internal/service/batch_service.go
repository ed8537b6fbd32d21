package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/edupoint/coaching-admin-api/internal/models"
	appErrors "github.com/edupoint/coaching-admin-api/pkg/errors"
)

type batchRepository interface {
	List(ctx context.Context, filter models.BatchFilter) ([]models.Batch, int, error)
	FindByID(ctx context.Context, id string) (*models.BatchDetail, error)
	Create(ctx context.Context, batch *models.Batch) error
	Update(ctx context.Context, batch *models.Batch) error
	Delete(ctx context.Context, id string) error
	AddTeacher(ctx context.Context, batchID, teacherID string) error
	RemoveTeacher(ctx context.Context, batchID, teacherID string) error
	AddStudent(ctx context.Context, batchID, studentID string) error
	RemoveStudent(ctx context.Context, batchID, studentID string) error
	ListStudents(ctx context.Context, batchID string) ([]models.BatchStudentRow, error)
	CountStudents(ctx context.Context, batchID string) (int, error)
}

type teacherFinder interface {
	FindByID(ctx context.Context, id string) (*models.Teacher, error)
}

type studentFinder interface {
	FindByID(ctx context.Context, id string) (*models.StudentDetail, error)
}

// BatchService provides batch management use cases.
type BatchService struct {
	repo      batchRepository
	teachers  teacherFinder
	students  studentFinder
	dashboard *DashboardService
	validator *validator.Validate
	logger    *zap.Logger
}

// SetDashboard attaches the dashboard cache so batch writes refresh the
// summary. Optional.
func (s *BatchService) SetDashboard(dashboard *DashboardService) {
	s.dashboard = dashboard
}

// NewBatchService constructs a BatchService instance.
func NewBatchService(repo batchRepository, teachers teacherFinder, students studentFinder, validate *validator.Validate, logger *zap.Logger) *BatchService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &BatchService{repo: repo, teachers: teachers, students: students, validator: validate, logger: logger}
}

// List returns batches matching the filter.
func (s *BatchService) List(ctx context.Context, filter models.BatchFilter) ([]models.Batch, int, error) {
	batches, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list batches")
	}
	return batches, total, nil
}

// Get returns a batch with its membership sets.
func (s *BatchService) Get(ctx context.Context, id string) (*models.BatchDetail, error) {
	batch, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "batch not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch batch")
	}
	return batch, nil
}

// Create opens a batch.
func (s *BatchService) Create(ctx context.Context, req models.CreateBatchRequest) (*models.Batch, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid batch payload")
	}

	startDate, endDate, err := parseBatchDates(req.StartDate, req.EndDate)
	if err != nil {
		return nil, err
	}
	if req.ScheduleEnd <= req.ScheduleStart {
		return nil, appErrors.Clone(appErrors.ErrValidation, "schedule end must be after schedule start")
	}

	batch := &models.Batch{
		Name:          req.Name,
		Subject:       req.Subject,
		Grade:         req.Grade,
		ScheduleDays:  req.ScheduleDays,
		ScheduleStart: req.ScheduleStart,
		ScheduleEnd:   req.ScheduleEnd,
		StartDate:     startDate,
		EndDate:       endDate,
		Status:        models.BatchStatusUpcoming,
		MaxStudents:   req.MaxStudents,
		MonthlyFee:    req.MonthlyFee,
	}
	if !startDate.After(time.Now().UTC()) {
		batch.Status = models.BatchStatusActive
	}

	if err := s.repo.Create(ctx, batch); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create batch")
	}
	s.dashboard.Invalidate(ctx)
	s.logger.Info("batch created", zap.String("batch_id", batch.ID))
	return batch, nil
}

// Update edits a batch.
func (s *BatchService) Update(ctx context.Context, id string, req models.UpdateBatchRequest) (*models.Batch, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid batch payload")
	}
	if req.Status != nil && !req.Status.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "invalid batch status")
	}

	detail, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	batch := detail.Batch

	startDate, endDate, err := parseBatchDates(req.StartDate, req.EndDate)
	if err != nil {
		return nil, err
	}
	if req.ScheduleEnd <= req.ScheduleStart {
		return nil, appErrors.Clone(appErrors.ErrValidation, "schedule end must be after schedule start")
	}
	if req.MaxStudents != nil {
		enrolled, err := s.repo.CountStudents(ctx, id)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count batch students")
		}
		if *req.MaxStudents < enrolled {
			return nil, appErrors.Clone(appErrors.ErrValidation, "max students cannot be below current enrollment")
		}
	}

	batch.Name = req.Name
	batch.Subject = req.Subject
	batch.Grade = req.Grade
	batch.ScheduleDays = req.ScheduleDays
	batch.ScheduleStart = req.ScheduleStart
	batch.ScheduleEnd = req.ScheduleEnd
	batch.StartDate = startDate
	batch.EndDate = endDate
	batch.MaxStudents = req.MaxStudents
	batch.MonthlyFee = req.MonthlyFee
	if req.Status != nil {
		batch.Status = *req.Status
	}

	if err := s.repo.Update(ctx, &batch); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update batch")
	}
	s.dashboard.Invalidate(ctx)
	return &batch, nil
}

// Delete removes a batch and its membership rows.
func (s *BatchService) Delete(ctx context.Context, id string) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete batch")
	}
	s.dashboard.Invalidate(ctx)
	s.logger.Info("batch deleted", zap.String("batch_id", id))
	return nil
}

// AssignTeacher links a teacher to the batch. Assigning twice is a no-op.
func (s *BatchService) AssignTeacher(ctx context.Context, batchID, teacherID string) error {
	if _, err := s.Get(ctx, batchID); err != nil {
		return err
	}
	if _, err := s.teachers.FindByID(ctx, teacherID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "teacher not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch teacher")
	}
	if err := s.repo.AddTeacher(ctx, batchID, teacherID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to assign teacher")
	}
	return nil
}

// UnassignTeacher unlinks a teacher from the batch.
func (s *BatchService) UnassignTeacher(ctx context.Context, batchID, teacherID string) error {
	if _, err := s.Get(ctx, batchID); err != nil {
		return err
	}
	if err := s.repo.RemoveTeacher(ctx, batchID, teacherID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to unassign teacher")
	}
	return nil
}

// EnrollStudent adds a student to the batch, enforcing capacity when the
// batch has a maximum. Enrolling twice is a no-op.
func (s *BatchService) EnrollStudent(ctx context.Context, batchID, studentID string) error {
	detail, err := s.Get(ctx, batchID)
	if err != nil {
		return err
	}
	if _, err := s.students.FindByID(ctx, studentID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch student")
	}

	for _, existing := range detail.StudentIDs {
		if existing == studentID {
			return nil
		}
	}
	if detail.MaxStudents != nil && len(detail.StudentIDs) >= *detail.MaxStudents {
		return appErrors.Clone(appErrors.ErrBatchFull, "")
	}

	if err := s.repo.AddStudent(ctx, batchID, studentID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to enroll student")
	}
	return nil
}

// RemoveStudent drops a student from the batch roster.
func (s *BatchService) RemoveStudent(ctx context.Context, batchID, studentID string) error {
	if _, err := s.Get(ctx, batchID); err != nil {
		return err
	}
	if err := s.repo.RemoveStudent(ctx, batchID, studentID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to remove student")
	}
	return nil
}

// Roster returns the current students of a batch.
func (s *BatchService) Roster(ctx context.Context, batchID string) ([]models.BatchStudentRow, error) {
	if _, err := s.Get(ctx, batchID); err != nil {
		return nil, err
	}
	rows, err := s.repo.ListStudents(ctx, batchID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list roster")
	}
	return rows, nil
}

func parseBatchDates(start string, end *string) (time.Time, *time.Time, error) {
	startDate, err := time.Parse(models.DateLayout, start)
	if err != nil {
		return time.Time{}, nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid start date")
	}
	if end == nil {
		return startDate, nil, nil
	}
	endDate, err := time.Parse(models.DateLayout, *end)
	if err != nil {
		return time.Time{}, nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid end date")
	}
	if endDate.Before(startDate) {
		return time.Time{}, nil, appErrors.Clone(appErrors.ErrValidation, "end date must not precede start date")
	}
	return startDate, &endDate, nil
}
