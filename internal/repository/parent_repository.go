package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/edupoint/coaching-admin-api/internal/models"
)

// ParentRepository handles persistence for guardians.
type ParentRepository struct {
	db *sqlx.DB
}

// NewParentRepository constructs the repository.
func NewParentRepository(db *sqlx.DB) *ParentRepository {
	return &ParentRepository{db: db}
}

// FindByID returns a parent joined with its account contact details.
func (r *ParentRepository) FindByID(ctx context.Context, id string) (*models.ParentDetail, error) {
	const query = `SELECT p.id, p.user_id, p.occupation, p.alternate_phone, p.address, p.created_at, p.updated_at,
        u.full_name, u.email, u.phone
        FROM parents p JOIN users u ON u.id = p.user_id WHERE p.id = $1 LIMIT 1`
	var parent models.ParentDetail
	if err := r.db.GetContext(ctx, &parent, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find parent by id: %w", err)
	}
	return &parent, nil
}

// List returns all parents with account contact details.
func (r *ParentRepository) List(ctx context.Context, page, size int) ([]models.ParentDetail, int, error) {
	if page < 1 {
		page = 1
	}
	if size <= 0 || size > 200 {
		size = 20
	}
	offset := (page - 1) * size
	query := fmt.Sprintf(`SELECT p.id, p.user_id, p.occupation, p.alternate_phone, p.address, p.created_at, p.updated_at,
        u.full_name, u.email, u.phone
        FROM parents p JOIN users u ON u.id = p.user_id
        ORDER BY u.full_name ASC LIMIT %d OFFSET %d`, size, offset)
	var parents []models.ParentDetail
	if err := r.db.SelectContext(ctx, &parents, query); err != nil {
		return nil, 0, fmt.Errorf("list parents: %w", err)
	}
	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM parents`); err != nil {
		return nil, 0, fmt.Errorf("count parents: %w", err)
	}
	return parents, total, nil
}

// CreateWithAccount inserts the parent row and its login account in one
// transaction.
func (r *ParentRepository) CreateWithAccount(ctx context.Context, parent *models.Parent, account *models.User) error {
	now := time.Now().UTC()
	if account.ID == "" {
		account.ID = uuid.NewString()
	}
	account.CreatedAt = now
	account.UpdatedAt = now
	if parent.ID == "" {
		parent.ID = uuid.NewString()
	}
	parent.UserID = account.ID
	parent.CreatedAt = now
	parent.UpdatedAt = now

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin create parent: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			tx.Rollback()
		}
	}()

	const userQuery = `INSERT INTO users (id, email, password_hash, full_name, role, phone, active, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	if _, err := tx.ExecContext(ctx, userQuery, account.ID, account.Email, account.PasswordHash, account.FullName, account.Role, account.Phone, account.Active, account.CreatedAt, account.UpdatedAt); err != nil {
		return fmt.Errorf("create parent account: %w", err)
	}

	const parentQuery = `INSERT INTO parents (id, user_id, occupation, alternate_phone, address, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)`
	if _, err := tx.ExecContext(ctx, parentQuery, parent.ID, parent.UserID, parent.Occupation, parent.AlternatePhone, parent.Address, parent.CreatedAt, parent.UpdatedAt); err != nil {
		return fmt.Errorf("create parent: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit create parent: %w", err)
	}
	committed = true
	return nil
}

// Update modifies the guardian profile fields.
func (r *ParentRepository) Update(ctx context.Context, parent *models.Parent) error {
	parent.UpdatedAt = time.Now().UTC()
	const query = `UPDATE parents SET occupation = $2, alternate_phone = $3, address = $4, updated_at = $5 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, parent.ID, parent.Occupation, parent.AlternatePhone, parent.Address, parent.UpdatedAt); err != nil {
		return fmt.Errorf("update parent: %w", err)
	}
	return nil
}

// StudentsOf lists the students owned by a parent.
func (r *ParentRepository) StudentsOf(ctx context.Context, parentID string) ([]models.Student, error) {
	const query = `SELECT id, full_name, roll_number, grade, parent_id, address, date_of_birth, created_at, updated_at
        FROM students WHERE parent_id = $1 ORDER BY full_name ASC`
	var students []models.Student
	if err := r.db.SelectContext(ctx, &students, query, parentID); err != nil {
		return nil, fmt.Errorf("list parent students: %w", err)
	}
	return students, nil
}
