package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/edupoint/coaching-admin-api/internal/models"
)

// BatchRepository handles persistence for batches and their membership.
type BatchRepository struct {
	db *sqlx.DB
}

// NewBatchRepository constructs the repository.
func NewBatchRepository(db *sqlx.DB) *BatchRepository {
	return &BatchRepository{db: db}
}

// List returns batches matching the provided filter with a total count.
func (r *BatchRepository) List(ctx context.Context, filter models.BatchFilter) ([]models.Batch, int, error) {
	where := []string{"1=1"}
	args := []interface{}{}
	if filter.Search != "" {
		where = append(where, fmt.Sprintf("b.name ILIKE $%d", len(args)+1))
		args = append(args, "%"+filter.Search+"%")
	}
	if filter.Subject != "" {
		where = append(where, fmt.Sprintf("b.subject = $%d", len(args)+1))
		args = append(args, filter.Subject)
	}
	if filter.Grade != "" {
		where = append(where, fmt.Sprintf("b.grade = $%d", len(args)+1))
		args = append(args, filter.Grade)
	}
	if filter.Status != nil && filter.Status.Valid() {
		where = append(where, fmt.Sprintf("b.status = $%d", len(args)+1))
		args = append(args, *filter.Status)
	}
	if filter.TeacherID != "" {
		where = append(where, fmt.Sprintf("EXISTS(SELECT 1 FROM batch_teachers bt WHERE bt.batch_id = b.id AND bt.teacher_id = $%d)", len(args)+1))
		args = append(args, filter.TeacherID)
	}
	whereClause := strings.Join(where, " AND ")

	allowedSort := map[string]string{
		"name":       "b.name",
		"start_date": "b.start_date",
		"created_at": "b.created_at",
	}
	sortColumn, ok := allowedSort[filter.SortBy]
	if !ok {
		sortColumn = "b.created_at"
	}
	order := strings.ToUpper(filter.SortOrder)
	if order != "ASC" && order != "DESC" {
		order = "DESC"
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 200 {
		size = 20
	}
	offset := (page - 1) * size

	query := fmt.Sprintf(`SELECT b.id, b.name, b.subject, b.grade, b.schedule_days, b.schedule_start, b.schedule_end,
        b.start_date, b.end_date, b.status, b.max_students, b.monthly_fee, b.created_at, b.updated_at
        FROM batches b WHERE %s ORDER BY %s %s LIMIT %d OFFSET %d`, whereClause, sortColumn, order, size, offset)

	var batches []models.Batch
	if err := r.db.SelectContext(ctx, &batches, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list batches: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM batches b WHERE %s", whereClause)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count batches: %w", err)
	}
	return batches, total, nil
}

// FindByID returns the batch with its teacher and student membership sets.
func (r *BatchRepository) FindByID(ctx context.Context, id string) (*models.BatchDetail, error) {
	const query = `SELECT id, name, subject, grade, schedule_days, schedule_start, schedule_end,
        start_date, end_date, status, max_students, monthly_fee, created_at, updated_at
        FROM batches WHERE id = $1 LIMIT 1`
	var batch models.Batch
	if err := r.db.GetContext(ctx, &batch, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find batch by id: %w", err)
	}

	detail := &models.BatchDetail{Batch: batch}
	if err := r.db.SelectContext(ctx, &detail.TeacherIDs, `SELECT teacher_id FROM batch_teachers WHERE batch_id = $1`, id); err != nil {
		return nil, fmt.Errorf("load batch teachers: %w", err)
	}
	if err := r.db.SelectContext(ctx, &detail.StudentIDs, `SELECT student_id FROM batch_students WHERE batch_id = $1`, id); err != nil {
		return nil, fmt.Errorf("load batch students: %w", err)
	}
	return detail, nil
}

// Create inserts a batch row.
func (r *BatchRepository) Create(ctx context.Context, batch *models.Batch) error {
	now := time.Now().UTC()
	if batch.ID == "" {
		batch.ID = uuid.NewString()
	}
	batch.CreatedAt = now
	batch.UpdatedAt = now
	const query = `INSERT INTO batches (id, name, subject, grade, schedule_days, schedule_start, schedule_end, start_date, end_date, status, max_students, monthly_fee, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`
	if _, err := r.db.ExecContext(ctx, query, batch.ID, batch.Name, batch.Subject, batch.Grade, batch.ScheduleDays, batch.ScheduleStart, batch.ScheduleEnd, batch.StartDate, batch.EndDate, batch.Status, batch.MaxStudents, batch.MonthlyFee, batch.CreatedAt, batch.UpdatedAt); err != nil {
		return fmt.Errorf("create batch: %w", err)
	}
	return nil
}

// Update modifies a batch row.
func (r *BatchRepository) Update(ctx context.Context, batch *models.Batch) error {
	batch.UpdatedAt = time.Now().UTC()
	const query = `UPDATE batches SET name = $2, subject = $3, grade = $4, schedule_days = $5, schedule_start = $6, schedule_end = $7,
        start_date = $8, end_date = $9, status = $10, max_students = $11, monthly_fee = $12, updated_at = $13 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, batch.ID, batch.Name, batch.Subject, batch.Grade, batch.ScheduleDays, batch.ScheduleStart, batch.ScheduleEnd, batch.StartDate, batch.EndDate, batch.Status, batch.MaxStudents, batch.MonthlyFee, batch.UpdatedAt); err != nil {
		return fmt.Errorf("update batch: %w", err)
	}
	return nil
}

// Delete removes a batch and its membership rows. Historical attendance
// and fee rows keep the batch id.
func (r *BatchRepository) Delete(ctx context.Context, id string) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin delete batch: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			tx.Rollback()
		}
	}()
	if _, err := tx.ExecContext(ctx, `DELETE FROM batch_teachers WHERE batch_id = $1`, id); err != nil {
		return fmt.Errorf("delete batch teachers: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM batch_students WHERE batch_id = $1`, id); err != nil {
		return fmt.Errorf("delete batch students: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM batches WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete batch: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit delete batch: %w", err)
	}
	committed = true
	return nil
}

// AddTeacher links a teacher to the batch. Duplicate links are ignored.
func (r *BatchRepository) AddTeacher(ctx context.Context, batchID, teacherID string) error {
	const query = `INSERT INTO batch_teachers (batch_id, teacher_id, created_at) VALUES ($1, $2, $3)
ON CONFLICT (batch_id, teacher_id) DO NOTHING`
	if _, err := r.db.ExecContext(ctx, query, batchID, teacherID, time.Now().UTC()); err != nil {
		return fmt.Errorf("add batch teacher: %w", err)
	}
	return nil
}

// RemoveTeacher unlinks a teacher from the batch.
func (r *BatchRepository) RemoveTeacher(ctx context.Context, batchID, teacherID string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM batch_teachers WHERE batch_id = $1 AND teacher_id = $2`, batchID, teacherID); err != nil {
		return fmt.Errorf("remove batch teacher: %w", err)
	}
	return nil
}

// AddStudent links a student to the batch. Duplicate links are ignored.
func (r *BatchRepository) AddStudent(ctx context.Context, batchID, studentID string) error {
	const query = `INSERT INTO batch_students (batch_id, student_id, created_at) VALUES ($1, $2, $3)
ON CONFLICT (batch_id, student_id) DO NOTHING`
	if _, err := r.db.ExecContext(ctx, query, batchID, studentID, time.Now().UTC()); err != nil {
		return fmt.Errorf("add batch student: %w", err)
	}
	return nil
}

// RemoveStudent unlinks a student from the batch.
func (r *BatchRepository) RemoveStudent(ctx context.Context, batchID, studentID string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM batch_students WHERE batch_id = $1 AND student_id = $2`, batchID, studentID); err != nil {
		return fmt.Errorf("remove batch student: %w", err)
	}
	return nil
}

// ListStudents returns the current roster of a batch.
func (r *BatchRepository) ListStudents(ctx context.Context, batchID string) ([]models.BatchStudentRow, error) {
	const query = `SELECT s.id AS student_id, s.full_name, s.roll_number, s.grade
        FROM batch_students bs
        JOIN students s ON s.id = bs.student_id
        WHERE bs.batch_id = $1
        ORDER BY s.roll_number ASC`
	var rows []models.BatchStudentRow
	if err := r.db.SelectContext(ctx, &rows, query, batchID); err != nil {
		return nil, fmt.Errorf("list batch students: %w", err)
	}
	return rows, nil
}

// CountStudents returns the current roster size.
func (r *BatchRepository) CountStudents(ctx context.Context, batchID string) (int, error) {
	var count int
	if err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM batch_students WHERE batch_id = $1`, batchID); err != nil {
		return 0, fmt.Errorf("count batch students: %w", err)
	}
	return count, nil
}

// CountByStatus returns the number of batches in the given status.
func (r *BatchRepository) CountByStatus(ctx context.Context, status models.BatchStatus) (int, error) {
	var count int
	if err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM batches WHERE status = $1`, status); err != nil {
		return 0, fmt.Errorf("count batches: %w", err)
	}
	return count, nil
}
