package models

// DateLayout is the wire format for calendar dates.
const DateLayout = "2006-01-02"

// CreateTeacherRequest is the payload for onboarding a teacher. A login
// account is provisioned alongside the profile.
type CreateTeacherRequest struct {
	FullName    string `json:"full_name" validate:"required,min=2,max=120"`
	Email       string `json:"email" validate:"required,email"`
	Phone       string `json:"phone" validate:"required,min=7,max=20"`
	Subject     string `json:"subject" validate:"required,min=2,max=80"`
	JoiningDate string `json:"joining_date" validate:"required,datetime=2006-01-02"`
	Password    string `json:"password" validate:"required,min=8"`
}

// UpdateTeacherRequest is the payload for editing a teacher profile.
type UpdateTeacherRequest struct {
	FullName    string         `json:"full_name" validate:"required,min=2,max=120"`
	Email       string         `json:"email" validate:"required,email"`
	Phone       string         `json:"phone" validate:"required,min=7,max=20"`
	Subject     string         `json:"subject" validate:"required,min=2,max=80"`
	JoiningDate string         `json:"joining_date" validate:"required,datetime=2006-01-02"`
	Status      *TeacherStatus `json:"status" validate:"omitempty"`
}

// CreateParentRequest is the payload for registering a guardian. A login
// account is provisioned alongside the profile.
type CreateParentRequest struct {
	FullName       string `json:"full_name" validate:"required,min=2,max=120"`
	Email          string `json:"email" validate:"required,email"`
	Phone          string `json:"phone" validate:"required,min=7,max=20"`
	Password       string `json:"password" validate:"required,min=8"`
	Occupation     string `json:"occupation" validate:"max=80"`
	AlternatePhone string `json:"alternate_phone" validate:"max=20"`
	Address        string `json:"address" validate:"max=255"`
}

// UpdateParentRequest is the payload for editing a guardian profile.
type UpdateParentRequest struct {
	Occupation     string `json:"occupation" validate:"max=80"`
	AlternatePhone string `json:"alternate_phone" validate:"max=20"`
	Address        string `json:"address" validate:"max=255"`
}

// CreateStudentRequest is the payload for enrolling a student.
type CreateStudentRequest struct {
	FullName    string `json:"full_name" validate:"required,min=2,max=120"`
	RollNumber  string `json:"roll_number" validate:"required,min=1,max=30"`
	Grade       string `json:"grade" validate:"required,min=1,max=20"`
	ParentID    string `json:"parent_id" validate:"required,uuid4"`
	Address     string `json:"address" validate:"max=255"`
	DateOfBirth string `json:"date_of_birth" validate:"required,datetime=2006-01-02"`
}

// UpdateStudentRequest is the payload for editing a student.
type UpdateStudentRequest struct {
	FullName    string `json:"full_name" validate:"required,min=2,max=120"`
	RollNumber  string `json:"roll_number" validate:"required,min=1,max=30"`
	Grade       string `json:"grade" validate:"required,min=1,max=20"`
	ParentID    string `json:"parent_id" validate:"required,uuid4"`
	Address     string `json:"address" validate:"max=255"`
	DateOfBirth string `json:"date_of_birth" validate:"required,datetime=2006-01-02"`
}

// CreateBatchRequest is the payload for opening a batch.
type CreateBatchRequest struct {
	Name          string   `json:"name" validate:"required,min=2,max=120"`
	Subject       string   `json:"subject" validate:"required,min=2,max=80"`
	Grade         string   `json:"grade" validate:"required,min=1,max=20"`
	ScheduleDays  []string `json:"schedule_days" validate:"required,min=1,dive,oneof=monday tuesday wednesday thursday friday saturday sunday"`
	ScheduleStart string   `json:"schedule_start" validate:"required,datetime=15:04"`
	ScheduleEnd   string   `json:"schedule_end" validate:"required,datetime=15:04"`
	StartDate     string   `json:"start_date" validate:"required,datetime=2006-01-02"`
	EndDate       *string  `json:"end_date" validate:"omitempty,datetime=2006-01-02"`
	MaxStudents   *int     `json:"max_students" validate:"omitempty,min=1"`
	MonthlyFee    *float64 `json:"monthly_fee" validate:"omitempty,gt=0"`
}

// UpdateBatchRequest is the payload for editing a batch.
type UpdateBatchRequest struct {
	Name          string       `json:"name" validate:"required,min=2,max=120"`
	Subject       string       `json:"subject" validate:"required,min=2,max=80"`
	Grade         string       `json:"grade" validate:"required,min=1,max=20"`
	ScheduleDays  []string     `json:"schedule_days" validate:"required,min=1,dive,oneof=monday tuesday wednesday thursday friday saturday sunday"`
	ScheduleStart string       `json:"schedule_start" validate:"required,datetime=15:04"`
	ScheduleEnd   string       `json:"schedule_end" validate:"required,datetime=15:04"`
	StartDate     string       `json:"start_date" validate:"required,datetime=2006-01-02"`
	EndDate       *string      `json:"end_date" validate:"omitempty,datetime=2006-01-02"`
	Status        *BatchStatus `json:"status" validate:"omitempty"`
	MaxStudents   *int         `json:"max_students" validate:"omitempty,min=1"`
	MonthlyFee    *float64     `json:"monthly_fee" validate:"omitempty,gt=0"`
}

// MarkAttendanceRequest is the payload for recording one attendance mark.
// An omitted date defaults to today.
type MarkAttendanceRequest struct {
	StudentID string           `json:"student_id" validate:"required,uuid4"`
	BatchID   string           `json:"batch_id" validate:"required,uuid4"`
	Date      string           `json:"date" validate:"omitempty,datetime=2006-01-02"`
	Status    AttendanceStatus `json:"status" validate:"required,oneof=present absent leave"`
}

// CreateFeeRequest is the payload for raising a fee obligation.
type CreateFeeRequest struct {
	StudentID string  `json:"student_id" validate:"required,uuid4"`
	BatchID   string  `json:"batch_id" validate:"required,uuid4"`
	Amount    float64 `json:"amount" validate:"required,gt=0"`
	DueDate   string  `json:"due_date" validate:"required,datetime=2006-01-02"`
	Month     string  `json:"month" validate:"required,oneof=January February March April May June July August September October November December"`
	Year      int     `json:"year" validate:"required,min=2000,max=2100"`
}

// RecordPaymentRequest is the payload for settling a fee.
type RecordPaymentRequest struct {
	FeeID         string        `json:"fee_id" validate:"required,uuid4"`
	PaymentMethod PaymentMethod `json:"payment_method" validate:"required,oneof=cash card upi bank_transfer online"`
	TransactionID *string       `json:"transaction_id" validate:"omitempty,max=80"`
	PaidDate      *string       `json:"paid_date" validate:"omitempty,datetime=2006-01-02"`
}
