package models

import "time"

// FeeStatus tracks a fee obligation through its lifecycle.
type FeeStatus string

const (
	FeeStatusPending FeeStatus = "pending"
	FeeStatusPaid    FeeStatus = "paid"
	FeeStatusOverdue FeeStatus = "overdue"
)

// Valid returns true when the status is a supported value.
func (s FeeStatus) Valid() bool {
	switch s {
	case FeeStatusPending, FeeStatusPaid, FeeStatusOverdue:
		return true
	default:
		return false
	}
}

// PaymentMethod enumerates accepted payment channels.
type PaymentMethod string

const (
	PaymentMethodCash         PaymentMethod = "cash"
	PaymentMethodCard         PaymentMethod = "card"
	PaymentMethodUPI          PaymentMethod = "upi"
	PaymentMethodBankTransfer PaymentMethod = "bank_transfer"
	PaymentMethodOnline       PaymentMethod = "online"
)

// Valid returns true when the method is a supported value.
func (m PaymentMethod) Valid() bool {
	switch m {
	case PaymentMethodCash, PaymentMethodCard, PaymentMethodUPI, PaymentMethodBankTransfer, PaymentMethodOnline:
		return true
	default:
		return false
	}
}

// Fee is one student's obligation for one batch and billing period.
// At most one row exists per (student, batch, month, year). The receipt
// number is assigned at creation, whether or not the fee is ever paid.
type Fee struct {
	ID                 string         `db:"id" json:"id"`
	StudentID          string         `db:"student_id" json:"student_id"`
	BatchID            string         `db:"batch_id" json:"batch_id"`
	Amount             float64        `db:"amount" json:"amount"`
	DueDate            time.Time      `db:"due_date" json:"due_date"`
	PaidDate           *time.Time     `db:"paid_date" json:"paid_date,omitempty"`
	Status             FeeStatus      `db:"status" json:"status"`
	PaymentMethod      *PaymentMethod `db:"payment_method" json:"payment_method,omitempty"`
	TransactionID      *string        `db:"transaction_id" json:"transaction_id,omitempty"`
	ReceiptNumber      string         `db:"receipt_number" json:"receipt_number"`
	ReceiptGeneratedAt *time.Time     `db:"receipt_generated_at" json:"receipt_generated_at,omitempty"`
	Month              string         `db:"month" json:"month"`
	Year               int            `db:"year" json:"year"`
	CreatedAt          time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt          time.Time      `db:"updated_at" json:"updated_at"`
}

// FeeFilter scopes fee listing queries.
type FeeFilter struct {
	StudentID string
	BatchID   string
	Status    *FeeStatus
	Month     string
	Year      int
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}

// InstituteInfo is the static letterhead block printed on receipts.
type InstituteInfo struct {
	Name    string `json:"name"`
	Address string `json:"address"`
	Phone   string `json:"phone"`
	Email   string `json:"email"`
}

// FeeReceipt is a read-only denormalized projection of a paid fee.
type FeeReceipt struct {
	Fee         Fee           `json:"fee"`
	StudentName string        `json:"student_name"`
	RollNumber  string        `json:"roll_number"`
	ParentName  *string       `json:"parent_name,omitempty"`
	BatchName   string        `json:"batch_name"`
	Subject     string        `json:"subject"`
	Institute   InstituteInfo `json:"institute"`
}

// DashboardSummary is the cached admin landing-page payload.
type DashboardSummary struct {
	ActiveTeachers    int       `json:"active_teachers"`
	ActiveStudents    int       `json:"active_students"`
	ActiveBatches     int       `json:"active_batches"`
	PendingFees       int       `json:"pending_fees"`
	PendingAmount     float64   `json:"pending_amount"`
	OverdueFees       int       `json:"overdue_fees"`
	OverdueAmount     float64   `json:"overdue_amount"`
	CollectedThisMonth float64  `json:"collected_this_month"`
	MarkedToday       int       `json:"marked_today"`
	AbsentToday       int       `json:"absent_today"`
	GeneratedAt       time.Time `json:"generated_at"`
}
