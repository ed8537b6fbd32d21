package models

import (
	"time"

	"github.com/lib/pq"
)

// BatchStatus represents the lifecycle state of a batch.
type BatchStatus string

const (
	BatchStatusActive   BatchStatus = "active"
	BatchStatusInactive BatchStatus = "inactive"
	BatchStatusUpcoming BatchStatus = "upcoming"
)

// Valid returns true when the status is a supported value.
func (s BatchStatus) Valid() bool {
	switch s {
	case BatchStatusActive, BatchStatusInactive, BatchStatusUpcoming:
		return true
	default:
		return false
	}
}

// Batch is a recurring scheduled class grouping teachers and students
// under one subject. Teacher membership is a set (many-to-many).
type Batch struct {
	ID            string         `db:"id" json:"id"`
	Name          string         `db:"name" json:"name"`
	Subject       string         `db:"subject" json:"subject"`
	Grade         string         `db:"grade" json:"grade"`
	ScheduleDays  pq.StringArray `db:"schedule_days" json:"schedule_days"`
	ScheduleStart string         `db:"schedule_start" json:"schedule_start"`
	ScheduleEnd   string         `db:"schedule_end" json:"schedule_end"`
	StartDate     time.Time      `db:"start_date" json:"start_date"`
	EndDate       *time.Time     `db:"end_date" json:"end_date,omitempty"`
	Status        BatchStatus    `db:"status" json:"status"`
	MaxStudents   *int           `db:"max_students" json:"max_students,omitempty"`
	MonthlyFee    *float64       `db:"monthly_fee" json:"monthly_fee,omitempty"`
	CreatedAt     time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time      `db:"updated_at" json:"updated_at"`
}

// BatchDetail extends the batch with its membership sets.
type BatchDetail struct {
	Batch
	TeacherIDs []string `json:"teacher_ids"`
	StudentIDs []string `json:"student_ids"`
}

// BatchFilter scopes batch listing queries.
type BatchFilter struct {
	Search    string
	Subject   string
	Grade     string
	Status    *BatchStatus
	TeacherID string
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}

// BatchStudentRow is a roster entry for a batch.
type BatchStudentRow struct {
	StudentID  string `db:"student_id" json:"student_id"`
	FullName   string `db:"full_name" json:"full_name"`
	RollNumber string `db:"roll_number" json:"roll_number"`
	Grade      string `db:"grade" json:"grade"`
}
