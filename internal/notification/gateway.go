package notification

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/edupoint/coaching-admin-api/pkg/config"
)

// TwilioSendGridGateway routes absence alerts over WhatsApp and receipt /
// report mail over SendGrid.
type TwilioSendGridGateway struct {
	whatsapp      *WhatsAppSender
	email         *EmailSender
	instituteName string
	logger        *zap.Logger
}

var _ Gateway = (*TwilioSendGridGateway)(nil)

// NewGateway builds the configured gateway. When notifications are
// disabled it returns a NoopGateway so callers never branch on config.
func NewGateway(cfg *config.Config, logger *zap.Logger) Gateway {
	if !cfg.Notifications.Enabled {
		return NoopGateway{}
	}
	return &TwilioSendGridGateway{
		whatsapp:      NewWhatsAppSender(cfg.Notifications.TwilioAccountSID, cfg.Notifications.TwilioAuthToken, cfg.Notifications.WhatsAppFrom, logger),
		email:         NewEmailSender(cfg.Notifications.SendGridAPIKey, cfg.Notifications.EmailFrom, cfg.Notifications.EmailFromName, logger),
		instituteName: cfg.Institute.Name,
		logger:        logger,
	}
}

// SendAbsenceAlert delivers the absence message to the guardian's phone.
func (g *TwilioSendGridGateway) SendAbsenceAlert(ctx context.Context, alert AbsenceAlert) error {
	if alert.Phone == "" {
		return fmt.Errorf("absence alert for %s: no guardian phone on file", alert.StudentName)
	}
	body := ComposeAbsenceMessage(alert, g.instituteName)
	return g.whatsapp.Send(ctx, alert.Phone, body)
}

// SendReceiptEmail delivers the payment confirmation, attaching the PDF
// when one was rendered.
func (g *TwilioSendGridGateway) SendReceiptEmail(ctx context.Context, receipt ReceiptEmail) error {
	if receipt.Email == "" {
		return fmt.Errorf("receipt %s: no guardian email on file", receipt.ReceiptNumber)
	}
	subject := ComposeReceiptSubject(receipt)
	body := ComposeReceiptBody(receipt, g.instituteName)

	var attachments []Attachment
	if len(receipt.PDF) > 0 {
		attachments = append(attachments, Attachment{
			Filename:    receipt.ReceiptNumber + ".pdf",
			ContentType: "application/pdf",
			Content:     receipt.PDF,
		})
	}
	return g.email.Send(ctx, receipt.ParentName, receipt.Email, subject, body, attachments...)
}

// SendMonthlyReportEmail delivers the monthly attendance summary.
func (g *TwilioSendGridGateway) SendMonthlyReportEmail(ctx context.Context, report MonthlyReportEmail) error {
	if report.Email == "" {
		return fmt.Errorf("monthly report for %s: no guardian email on file", report.StudentName)
	}
	subject := ComposeMonthlyReportSubject(report)
	body := ComposeMonthlyReportBody(report, g.instituteName)
	return g.email.Send(ctx, report.ParentName, report.Email, subject, body)
}
