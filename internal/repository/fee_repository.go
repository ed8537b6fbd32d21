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

// FeeRepository handles persistence for fee obligations and receipts.
type FeeRepository struct {
	db *sqlx.DB
}

// NewFeeRepository constructs the repository.
func NewFeeRepository(db *sqlx.DB) *FeeRepository {
	return &FeeRepository{db: db}
}

// NextReceiptSequence atomically reserves the next receipt sequence for a
// billing period. Concurrent callers never observe the same value.
func (r *FeeRepository) NextReceiptSequence(ctx context.Context, year, month int) (int, error) {
	const query = `INSERT INTO receipt_counters (year, month, seq) VALUES ($1, $2, 1)
ON CONFLICT (year, month) DO UPDATE SET seq = receipt_counters.seq + 1
RETURNING seq`
	var seq int
	if err := r.db.GetContext(ctx, &seq, query, year, month); err != nil {
		return 0, fmt.Errorf("next receipt sequence: %w", err)
	}
	return seq, nil
}

// ExistsForPeriod reports whether the student already has a fee for the
// batch and billing period.
func (r *FeeRepository) ExistsForPeriod(ctx context.Context, studentID, batchID, month string, year int) (bool, error) {
	const query = `SELECT EXISTS(SELECT 1 FROM fees WHERE student_id = $1 AND batch_id = $2 AND month = $3 AND year = $4)`
	var exists bool
	if err := r.db.GetContext(ctx, &exists, query, studentID, batchID, month, year); err != nil {
		return false, fmt.Errorf("check fee period: %w", err)
	}
	return exists, nil
}

// Create inserts a fee row.
func (r *FeeRepository) Create(ctx context.Context, fee *models.Fee) error {
	now := time.Now().UTC()
	if fee.ID == "" {
		fee.ID = uuid.NewString()
	}
	fee.CreatedAt = now
	fee.UpdatedAt = now
	const query = `INSERT INTO fees (id, student_id, batch_id, amount, due_date, status, receipt_number, month, year, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`
	if _, err := r.db.ExecContext(ctx, query, fee.ID, fee.StudentID, fee.BatchID, fee.Amount, fee.DueDate, fee.Status, fee.ReceiptNumber, fee.Month, fee.Year, fee.CreatedAt, fee.UpdatedAt); err != nil {
		return fmt.Errorf("create fee: %w", err)
	}
	return nil
}

// FindByID returns the fee by identifier.
func (r *FeeRepository) FindByID(ctx context.Context, id string) (*models.Fee, error) {
	const query = `SELECT id, student_id, batch_id, amount, due_date, paid_date, status, payment_method, transaction_id,
        receipt_number, receipt_generated_at, month, year, created_at, updated_at
        FROM fees WHERE id = $1 LIMIT 1`
	var fee models.Fee
	if err := r.db.GetContext(ctx, &fee, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find fee by id: %w", err)
	}
	return &fee, nil
}

// UpdatePayment marks a fee paid with the payment details.
func (r *FeeRepository) UpdatePayment(ctx context.Context, fee *models.Fee) error {
	fee.UpdatedAt = time.Now().UTC()
	const query = `UPDATE fees SET status = $2, paid_date = $3, payment_method = $4, transaction_id = $5, receipt_generated_at = $6, updated_at = $7
        WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, fee.ID, fee.Status, fee.PaidDate, fee.PaymentMethod, fee.TransactionID, fee.ReceiptGeneratedAt, fee.UpdatedAt); err != nil {
		return fmt.Errorf("update fee payment: %w", err)
	}
	return nil
}

// List returns fees matching the provided filter with a total count.
func (r *FeeRepository) List(ctx context.Context, filter models.FeeFilter) ([]models.Fee, int, error) {
	where := []string{"1=1"}
	args := []interface{}{}
	if filter.StudentID != "" {
		where = append(where, fmt.Sprintf("f.student_id = $%d", len(args)+1))
		args = append(args, filter.StudentID)
	}
	if filter.BatchID != "" {
		where = append(where, fmt.Sprintf("f.batch_id = $%d", len(args)+1))
		args = append(args, filter.BatchID)
	}
	if filter.Status != nil && filter.Status.Valid() {
		where = append(where, fmt.Sprintf("f.status = $%d", len(args)+1))
		args = append(args, *filter.Status)
	}
	if filter.Month != "" {
		where = append(where, fmt.Sprintf("f.month = $%d", len(args)+1))
		args = append(args, filter.Month)
	}
	if filter.Year != 0 {
		where = append(where, fmt.Sprintf("f.year = $%d", len(args)+1))
		args = append(args, filter.Year)
	}
	whereClause := strings.Join(where, " AND ")

	allowedSort := map[string]string{
		"due_date":   "f.due_date",
		"amount":     "f.amount",
		"created_at": "f.created_at",
	}
	sortColumn, ok := allowedSort[filter.SortBy]
	if !ok {
		sortColumn = "f.due_date"
	}
	order := strings.ToUpper(filter.SortOrder)
	if order != "ASC" && order != "DESC" {
		order = "ASC"
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

	query := fmt.Sprintf(`SELECT f.id, f.student_id, f.batch_id, f.amount, f.due_date, f.paid_date, f.status, f.payment_method,
        f.transaction_id, f.receipt_number, f.receipt_generated_at, f.month, f.year, f.created_at, f.updated_at
        FROM fees f WHERE %s ORDER BY %s %s LIMIT %d OFFSET %d`, whereClause, sortColumn, order, size, offset)

	var fees []models.Fee
	if err := r.db.SelectContext(ctx, &fees, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list fees: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM fees f WHERE %s", whereClause)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count fees: %w", err)
	}
	return fees, total, nil
}

// ListByStatus returns all fees in the given status ordered by due date.
func (r *FeeRepository) ListByStatus(ctx context.Context, status models.FeeStatus) ([]models.Fee, error) {
	const query = `SELECT id, student_id, batch_id, amount, due_date, paid_date, status, payment_method, transaction_id,
        receipt_number, receipt_generated_at, month, year, created_at, updated_at
        FROM fees WHERE status = $1 ORDER BY due_date ASC`
	var fees []models.Fee
	if err := r.db.SelectContext(ctx, &fees, query, status); err != nil {
		return nil, fmt.Errorf("list fees by status: %w", err)
	}
	return fees, nil
}

// SweepOverdue flips pending fees with a due date strictly before asOf to
// overdue. Returns how many rows changed.
func (r *FeeRepository) SweepOverdue(ctx context.Context, asOf time.Time) (int64, error) {
	const query = `UPDATE fees SET status = $1, updated_at = $2 WHERE status = $3 AND due_date < $4`
	res, err := r.db.ExecContext(ctx, query, models.FeeStatusOverdue, time.Now().UTC(), models.FeeStatusPending, asOf)
	if err != nil {
		return 0, fmt.Errorf("sweep overdue fees: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("sweep overdue rows: %w", err)
	}
	return affected, nil
}

// ReceiptContext loads the denormalized receipt projection for a fee.
func (r *FeeRepository) ReceiptContext(ctx context.Context, feeID string) (*models.FeeReceipt, error) {
	const query = `SELECT f.id, f.student_id, f.batch_id, f.amount, f.due_date, f.paid_date, f.status, f.payment_method,
        f.transaction_id, f.receipt_number, f.receipt_generated_at, f.month, f.year, f.created_at, f.updated_at,
        s.full_name AS student_name, s.roll_number,
        pu.full_name AS parent_name,
        b.name AS batch_name, b.subject
        FROM fees f
        JOIN students s ON s.id = f.student_id
        JOIN batches b ON b.id = f.batch_id
        LEFT JOIN parents p ON p.id = s.parent_id
        LEFT JOIN users pu ON pu.id = p.user_id
        WHERE f.id = $1 LIMIT 1`
	row := r.db.QueryRowxContext(ctx, query, feeID)

	var fee models.Fee
	var studentName, rollNumber, batchName, subject string
	var parentName *string
	if err := row.Scan(&fee.ID, &fee.StudentID, &fee.BatchID, &fee.Amount, &fee.DueDate, &fee.PaidDate, &fee.Status,
		&fee.PaymentMethod, &fee.TransactionID, &fee.ReceiptNumber, &fee.ReceiptGeneratedAt, &fee.Month, &fee.Year,
		&fee.CreatedAt, &fee.UpdatedAt, &studentName, &rollNumber, &parentName, &batchName, &subject); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("load receipt context: %w", err)
	}
	return &models.FeeReceipt{
		Fee:         fee,
		StudentName: studentName,
		RollNumber:  rollNumber,
		ParentName:  parentName,
		BatchName:   batchName,
		Subject:     subject,
	}, nil
}

// StatusTotals returns the count and amount sum for one fee status.
func (r *FeeRepository) StatusTotals(ctx context.Context, status models.FeeStatus) (int, float64, error) {
	const query = `SELECT COUNT(*), COALESCE(SUM(amount), 0) FROM fees WHERE status = $1`
	var count int
	var amount float64
	if err := r.db.QueryRowxContext(ctx, query, status).Scan(&count, &amount); err != nil {
		return 0, 0, fmt.Errorf("fee status totals: %w", err)
	}
	return count, amount, nil
}

// CollectedForPeriod sums payments received for a billing period.
func (r *FeeRepository) CollectedForPeriod(ctx context.Context, month string, year int) (float64, error) {
	const query = `SELECT COALESCE(SUM(amount), 0) FROM fees WHERE status = $1 AND month = $2 AND year = $3`
	var amount float64
	if err := r.db.GetContext(ctx, &amount, query, models.FeeStatusPaid, month, year); err != nil {
		return 0, fmt.Errorf("collected for period: %w", err)
	}
	return amount, nil
}
