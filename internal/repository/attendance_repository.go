package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/edupoint/coaching-admin-api/internal/models"
)

// AttendanceRepository handles persistence for attendance marks.
type AttendanceRepository struct {
	db *sqlx.DB
}

// NewAttendanceRepository constructs the repository.
func NewAttendanceRepository(db *sqlx.DB) *AttendanceRepository {
	return &AttendanceRepository{db: db}
}

// Upsert records an attendance mark for (student, batch, date). Re-marking
// the same day overwrites status and marked_by but keeps notification_sent,
// so an already-delivered absence alert is never repeated. Returns the
// resulting row.
func (r *AttendanceRepository) Upsert(ctx context.Context, record *models.Attendance) (*models.Attendance, error) {
	now := time.Now().UTC()
	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	const query = `INSERT INTO attendance (id, student_id, batch_id, date, status, marked_by, notification_sent, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, FALSE, $7, $7)
ON CONFLICT (student_id, batch_id, date)
DO UPDATE SET status = EXCLUDED.status, marked_by = EXCLUDED.marked_by, updated_at = EXCLUDED.updated_at
RETURNING id, student_id, batch_id, date, status, marked_by, notification_sent, created_at, updated_at`
	var saved models.Attendance
	if err := r.db.GetContext(ctx, &saved, query, record.ID, record.StudentID, record.BatchID, record.Date, record.Status, record.MarkedBy, now); err != nil {
		return nil, fmt.Errorf("upsert attendance: %w", err)
	}
	return &saved, nil
}

// SetNotificationSent flags a record once an absence alert was delivered.
func (r *AttendanceRepository) SetNotificationSent(ctx context.Context, id string) error {
	const query = `UPDATE attendance SET notification_sent = TRUE, updated_at = $2 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, time.Now().UTC()); err != nil {
		return fmt.Errorf("flag attendance notification: %w", err)
	}
	return nil
}

// ListByBatchAndDate returns the recorded marks for one batch on one day.
func (r *AttendanceRepository) ListByBatchAndDate(ctx context.Context, batchID string, date time.Time) ([]models.Attendance, error) {
	const query = `SELECT id, student_id, batch_id, date, status, marked_by, notification_sent, created_at, updated_at
        FROM attendance WHERE batch_id = $1 AND date = $2`
	var records []models.Attendance
	if err := r.db.SelectContext(ctx, &records, query, batchID, date); err != nil {
		return nil, fmt.Errorf("list batch attendance: %w", err)
	}
	return records, nil
}

// ListByStudent returns a student's marks inside a date range, optionally
// limited to one batch, newest first.
func (r *AttendanceRepository) ListByStudent(ctx context.Context, studentID, batchID string, from, to time.Time) ([]models.Attendance, error) {
	const query = `SELECT id, student_id, batch_id, date, status, marked_by, notification_sent, created_at, updated_at
        FROM attendance
        WHERE student_id = $1 AND date >= $2 AND date <= $3 AND ($4 = '' OR batch_id = $4)
        ORDER BY date DESC`
	var records []models.Attendance
	if err := r.db.SelectContext(ctx, &records, query, studentID, from, to, batchID); err != nil {
		return nil, fmt.Errorf("list student attendance: %w", err)
	}
	return records, nil
}

// ListByStudentWithBatch returns a student's marks inside a date range
// joined with batch names, for per-batch report breakdowns.
func (r *AttendanceRepository) ListByStudentWithBatch(ctx context.Context, studentID string, from, to time.Time) ([]models.AttendanceWithBatch, error) {
	const query = `SELECT a.id, a.student_id, a.batch_id, a.date, a.status, a.marked_by, a.notification_sent, a.created_at, a.updated_at,
        b.name AS batch_name
        FROM attendance a
        JOIN batches b ON b.id = a.batch_id
        WHERE a.student_id = $1 AND a.date >= $2 AND a.date <= $3
        ORDER BY a.date ASC`
	var records []models.AttendanceWithBatch
	if err := r.db.SelectContext(ctx, &records, query, studentID, from, to); err != nil {
		return nil, fmt.Errorf("list student attendance with batch: %w", err)
	}
	return records, nil
}

// CountForDate returns present/absent/leave totals across all batches for
// one day.
func (r *AttendanceRepository) CountForDate(ctx context.Context, date time.Time) (map[models.AttendanceStatus]int, error) {
	const query = `SELECT status, COUNT(*) AS total FROM attendance WHERE date = $1 GROUP BY status`
	rows, err := r.db.QueryxContext(ctx, query, date)
	if err != nil {
		return nil, fmt.Errorf("count attendance: %w", err)
	}
	defer rows.Close()

	counts := map[models.AttendanceStatus]int{}
	for rows.Next() {
		var row struct {
			Status models.AttendanceStatus `db:"status"`
			Total  int                     `db:"total"`
		}
		if err := rows.StructScan(&row); err != nil {
			return nil, fmt.Errorf("scan attendance count: %w", err)
		}
		counts[row.Status] = row.Total
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate attendance counts: %w", err)
	}
	return counts, nil
}
