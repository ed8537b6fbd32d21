package models

import "time"

// Student represents a learner enrolled at the institute.
type Student struct {
	ID          string    `db:"id" json:"id"`
	FullName    string    `db:"full_name" json:"full_name"`
	RollNumber  string    `db:"roll_number" json:"roll_number"`
	Grade       string    `db:"grade" json:"grade"`
	ParentID    string    `db:"parent_id" json:"parent_id"`
	Address     string    `db:"address" json:"address"`
	DateOfBirth time.Time `db:"date_of_birth" json:"date_of_birth"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// StudentDetail extends the student row with parent and batch context.
type StudentDetail struct {
	Student
	ParentName  *string  `db:"parent_name" json:"parent_name,omitempty"`
	ParentPhone *string  `db:"parent_phone" json:"parent_phone,omitempty"`
	BatchIDs    []string `db:"-" json:"batch_ids"`
}

// StudentFilter encapsulates allowed search parameters for listing students.
type StudentFilter struct {
	Search    string
	Grade     string
	BatchID   string
	ParentID  string
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}

// StudentContact is the resolved notification target for a student:
// student -> parent -> parent's linked account. Phone and Email are nil
// when a link in that chain is missing.
type StudentContact struct {
	StudentID   string  `db:"student_id"`
	StudentName string  `db:"student_name"`
	ParentName  *string `db:"parent_name"`
	Phone       *string `db:"phone"`
	Email       *string `db:"email"`
}

// Parent represents a guardian owning one or more students. Contact
// details live on the linked user account.
type Parent struct {
	ID             string    `db:"id" json:"id"`
	UserID         string    `db:"user_id" json:"user_id"`
	Occupation     string    `db:"occupation" json:"occupation"`
	AlternatePhone string    `db:"alternate_phone" json:"alternate_phone"`
	Address        string    `db:"address" json:"address"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time `db:"updated_at" json:"updated_at"`
}

// ParentDetail joins the parent with its account contact details.
type ParentDetail struct {
	Parent
	FullName string `db:"full_name" json:"full_name"`
	Email    string `db:"email" json:"email"`
	Phone    string `db:"phone" json:"phone"`
}
