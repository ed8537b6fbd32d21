package models

import "time"

// TeacherStatus marks whether a teacher is currently employed.
type TeacherStatus string

const (
	TeacherStatusActive   TeacherStatus = "active"
	TeacherStatusInactive TeacherStatus = "inactive"
)

// Valid returns true when the status is a supported value.
func (s TeacherStatus) Valid() bool {
	return s == TeacherStatusActive || s == TeacherStatusInactive
}

// Teacher represents a teaching staff member. Credentials live on the
// linked user account, never on this row.
type Teacher struct {
	ID          string        `db:"id" json:"id"`
	UserID      string        `db:"user_id" json:"user_id"`
	FullName    string        `db:"full_name" json:"full_name"`
	Email       string        `db:"email" json:"email"`
	Phone       string        `db:"phone" json:"phone"`
	Subject     string        `db:"subject" json:"subject"`
	JoiningDate time.Time     `db:"joining_date" json:"joining_date"`
	Status      TeacherStatus `db:"status" json:"status"`
	CreatedAt   time.Time     `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time     `db:"updated_at" json:"updated_at"`
}

// TeacherFilter captures filtering criteria for listing teachers.
type TeacherFilter struct {
	Search    string
	Subject   string
	Status    *TeacherStatus
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}
