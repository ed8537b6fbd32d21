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

// StudentRepository handles persistence for students.
type StudentRepository struct {
	db *sqlx.DB
}

// NewStudentRepository constructs the repository.
func NewStudentRepository(db *sqlx.DB) *StudentRepository {
	return &StudentRepository{db: db}
}

// List returns students matching the provided filter with a total count.
func (r *StudentRepository) List(ctx context.Context, filter models.StudentFilter) ([]models.StudentDetail, int, error) {
	base := `FROM students s
LEFT JOIN parents p ON p.id = s.parent_id
LEFT JOIN users u ON u.id = p.user_id`
	where := []string{"1=1"}
	args := []interface{}{}
	if filter.Search != "" {
		where = append(where, fmt.Sprintf("(s.full_name ILIKE $%d OR s.roll_number ILIKE $%d)", len(args)+1, len(args)+1))
		args = append(args, "%"+filter.Search+"%")
	}
	if filter.Grade != "" {
		where = append(where, fmt.Sprintf("s.grade = $%d", len(args)+1))
		args = append(args, filter.Grade)
	}
	if filter.ParentID != "" {
		where = append(where, fmt.Sprintf("s.parent_id = $%d", len(args)+1))
		args = append(args, filter.ParentID)
	}
	if filter.BatchID != "" {
		where = append(where, fmt.Sprintf("EXISTS(SELECT 1 FROM batch_students bs WHERE bs.student_id = s.id AND bs.batch_id = $%d)", len(args)+1))
		args = append(args, filter.BatchID)
	}
	whereClause := strings.Join(where, " AND ")

	allowedSort := map[string]string{
		"name":        "s.full_name",
		"roll_number": "s.roll_number",
		"created_at":  "s.created_at",
	}
	sortColumn, ok := allowedSort[filter.SortBy]
	if !ok {
		sortColumn = "s.created_at"
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

	query := fmt.Sprintf(`SELECT s.id, s.full_name, s.roll_number, s.grade, s.parent_id, s.address, s.date_of_birth, s.created_at, s.updated_at,
        u.full_name AS parent_name, u.phone AS parent_phone
        %s WHERE %s ORDER BY %s %s LIMIT %d OFFSET %d`, base, whereClause, sortColumn, order, size, offset)

	var students []models.StudentDetail
	if err := r.db.SelectContext(ctx, &students, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list students: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s WHERE %s", base, whereClause)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count students: %w", err)
	}
	return students, total, nil
}

// FindByID returns the student with parent context and batch membership.
func (r *StudentRepository) FindByID(ctx context.Context, id string) (*models.StudentDetail, error) {
	const query = `SELECT s.id, s.full_name, s.roll_number, s.grade, s.parent_id, s.address, s.date_of_birth, s.created_at, s.updated_at,
        u.full_name AS parent_name, u.phone AS parent_phone
        FROM students s
        LEFT JOIN parents p ON p.id = s.parent_id
        LEFT JOIN users u ON u.id = p.user_id
        WHERE s.id = $1 LIMIT 1`
	var student models.StudentDetail
	if err := r.db.GetContext(ctx, &student, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find student by id: %w", err)
	}
	var batchIDs []string
	if err := r.db.SelectContext(ctx, &batchIDs, `SELECT batch_id FROM batch_students WHERE student_id = $1`, id); err != nil {
		return nil, fmt.Errorf("load student batches: %w", err)
	}
	student.BatchIDs = batchIDs
	return &student, nil
}

// ExistsByRollNumber reports whether a student already uses the roll
// number, optionally excluding one record.
func (r *StudentRepository) ExistsByRollNumber(ctx context.Context, rollNumber string, excludeID string) (bool, error) {
	const query = `SELECT EXISTS(SELECT 1 FROM students WHERE roll_number = $1 AND ($2 = '' OR id <> $2))`
	var exists bool
	if err := r.db.GetContext(ctx, &exists, query, rollNumber, excludeID); err != nil {
		return false, fmt.Errorf("check roll number: %w", err)
	}
	return exists, nil
}

// Create inserts a student row.
func (r *StudentRepository) Create(ctx context.Context, student *models.Student) error {
	now := time.Now().UTC()
	if student.ID == "" {
		student.ID = uuid.NewString()
	}
	student.CreatedAt = now
	student.UpdatedAt = now
	const query = `INSERT INTO students (id, full_name, roll_number, grade, parent_id, address, date_of_birth, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	if _, err := r.db.ExecContext(ctx, query, student.ID, student.FullName, student.RollNumber, student.Grade, student.ParentID, student.Address, student.DateOfBirth, student.CreatedAt, student.UpdatedAt); err != nil {
		return fmt.Errorf("create student: %w", err)
	}
	return nil
}

// Update modifies an existing student row.
func (r *StudentRepository) Update(ctx context.Context, student *models.Student) error {
	student.UpdatedAt = time.Now().UTC()
	const query = `UPDATE students SET full_name = $2, roll_number = $3, grade = $4, parent_id = $5, address = $6, date_of_birth = $7, updated_at = $8 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, student.ID, student.FullName, student.RollNumber, student.Grade, student.ParentID, student.Address, student.DateOfBirth, student.UpdatedAt); err != nil {
		return fmt.Errorf("update student: %w", err)
	}
	return nil
}

// Delete removes a student row and its batch memberships. Historical
// attendance and fee rows are intentionally left in place.
func (r *StudentRepository) Delete(ctx context.Context, id string) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin delete student: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			tx.Rollback()
		}
	}()
	if _, err := tx.ExecContext(ctx, `DELETE FROM batch_students WHERE student_id = $1`, id); err != nil {
		return fmt.Errorf("delete student memberships: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM students WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete student: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit delete student: %w", err)
	}
	committed = true
	return nil
}

// Contact resolves the notification target for a student through the
// parent's linked account. Missing links surface as NULL columns, not
// as errors.
func (r *StudentRepository) Contact(ctx context.Context, studentID string) (*models.StudentContact, error) {
	const query = `SELECT s.id AS student_id, s.full_name AS student_name,
        u.full_name AS parent_name, u.phone, u.email
        FROM students s
        LEFT JOIN parents p ON p.id = s.parent_id
        LEFT JOIN users u ON u.id = p.user_id
        WHERE s.id = $1 LIMIT 1`
	var contact models.StudentContact
	if err := r.db.GetContext(ctx, &contact, query, studentID); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("resolve student contact: %w", err)
	}
	return &contact, nil
}

// Count returns the total number of students.
func (r *StudentRepository) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM students`); err != nil {
		return 0, fmt.Errorf("count students: %w", err)
	}
	return count, nil
}
