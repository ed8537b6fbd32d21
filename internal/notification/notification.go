package notification

import (
	"context"
	"fmt"
	"time"
)

// AbsenceAlert carries everything needed to tell a guardian their child
// was marked absent.
type AbsenceAlert struct {
	StudentName string
	ParentName  string
	Phone       string
	BatchName   string
	Date        time.Time
}

// ReceiptEmail carries a fee receipt to the guardian's inbox, optionally
// with the rendered PDF attached.
type ReceiptEmail struct {
	StudentName   string
	ParentName    string
	Email         string
	ReceiptNumber string
	BatchName     string
	Amount        float64
	Month         string
	Year          int
	PDF           []byte
}

// MonthlyReportEmail carries a student's monthly attendance summary.
type MonthlyReportEmail struct {
	StudentName  string
	ParentName   string
	Email        string
	Month        time.Month
	Year         int
	Attended     int
	TotalClasses int
	Percentage   int
}

// Gateway delivers guardian-facing notifications. Every method is
// best-effort from the caller's point of view: a returned error means the
// message did not go out, never that domain state is wrong.
type Gateway interface {
	SendAbsenceAlert(ctx context.Context, alert AbsenceAlert) error
	SendReceiptEmail(ctx context.Context, receipt ReceiptEmail) error
	SendMonthlyReportEmail(ctx context.Context, report MonthlyReportEmail) error
}

// ComposeAbsenceMessage renders the WhatsApp text for an absence alert.
func ComposeAbsenceMessage(alert AbsenceAlert, instituteName string) string {
	return fmt.Sprintf("Dear %s, your child %s was marked absent in %s on %s. - %s",
		alert.ParentName, alert.StudentName, alert.BatchName, alert.Date.Format("02 Jan 2006"), instituteName)
}

// ComposeReceiptSubject renders the receipt email subject line.
func ComposeReceiptSubject(receipt ReceiptEmail) string {
	return fmt.Sprintf("Fee Receipt %s - %s %d", receipt.ReceiptNumber, receipt.Month, receipt.Year)
}

// ComposeReceiptBody renders the plain-text receipt email body.
func ComposeReceiptBody(receipt ReceiptEmail, instituteName string) string {
	return fmt.Sprintf("Dear %s,\n\nWe have received the fee payment of %.2f for %s (%s, %s %d).\nReceipt number: %s.\n\nThank you,\n%s",
		receipt.ParentName, receipt.Amount, receipt.StudentName, receipt.BatchName,
		receipt.Month, receipt.Year, receipt.ReceiptNumber, instituteName)
}

// ComposeMonthlyReportSubject renders the monthly report subject line.
func ComposeMonthlyReportSubject(report MonthlyReportEmail) string {
	return fmt.Sprintf("Attendance Report %s %d - %s", report.Month.String(), report.Year, report.StudentName)
}

// ComposeMonthlyReportBody renders the plain-text monthly report body.
func ComposeMonthlyReportBody(report MonthlyReportEmail, instituteName string) string {
	return fmt.Sprintf("Dear %s,\n\n%s attended %d of %d classes in %s %d (%d%%).\n\nRegards,\n%s",
		report.ParentName, report.StudentName, report.Attended, report.TotalClasses,
		report.Month.String(), report.Year, report.Percentage, instituteName)
}

// NoopGateway drops every message. Used when notifications are disabled.
type NoopGateway struct{}

// SendAbsenceAlert implements Gateway.
func (NoopGateway) SendAbsenceAlert(context.Context, AbsenceAlert) error { return nil }

// SendReceiptEmail implements Gateway.
func (NoopGateway) SendReceiptEmail(context.Context, ReceiptEmail) error { return nil }

// SendMonthlyReportEmail implements Gateway.
func (NoopGateway) SendMonthlyReportEmail(context.Context, MonthlyReportEmail) error { return nil }
