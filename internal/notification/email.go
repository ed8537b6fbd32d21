package notification

import (
	"context"
	"encoding/base64"
	"fmt"
	"html"
	"net/http"
	"strings"

	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"
	"go.uber.org/zap"
)

const (
	sendgridHost     = "https://api.sendgrid.com"
	sendgridEndpoint = "/v3/mail/send"
)

// EmailSender delivers transactional mail through SendGrid.
type EmailSender struct {
	key    string
	from   *sgmail.Email
	logger *zap.Logger
}

// NewEmailSender constructs a sender from a SendGrid API key.
func NewEmailSender(apiKey, fromEmail, fromName string, logger *zap.Logger) *EmailSender {
	return &EmailSender{
		key:    apiKey,
		from:   sgmail.NewEmail(fromName, fromEmail),
		logger: logger,
	}
}

// Attachment is an optional file carried with a message.
type Attachment struct {
	Filename    string
	ContentType string
	Content     []byte
}

// Send delivers one message with plain-text and HTML bodies, optionally
// with attachments.
func (s *EmailSender) Send(ctx context.Context, toName, toEmail, subject, body string, attachments ...Attachment) error {
	p := sgmail.NewPersonalization()
	p.Subject = subject
	p.AddTos(sgmail.NewEmail(toName, toEmail))

	m := sgmail.NewV3Mail()
	m.SetFrom(s.from)
	m.AddPersonalizations(p)
	// SendGrid requires text/plain before text/html.
	m.AddContent(sgmail.NewContent("text/plain", body))
	m.AddContent(sgmail.NewContent("text/html", HTMLBody(body)))

	for _, at := range attachments {
		m.AddAttachment(&sgmail.Attachment{
			Content:     base64.StdEncoding.EncodeToString(at.Content),
			Type:        at.ContentType,
			Filename:    at.Filename,
			Disposition: "attachment",
		})
	}

	req := sendgrid.GetRequest(s.key, sendgridEndpoint, sendgridHost)
	req.Method = http.MethodPost
	req.Body = sgmail.GetRequestBody(m)

	res, err := sendgrid.MakeRequestWithContext(ctx, req)
	if err != nil {
		return fmt.Errorf("send email: %w", err)
	}
	if res.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("send email: status %d: %s", res.StatusCode, res.Body)
	}
	s.logger.Debug("email sent", zap.String("to", toEmail), zap.String("subject", subject))
	return nil
}

// HTMLBody renders the plain-text body as its HTML alternative.
func HTMLBody(body string) string {
	escaped := html.EscapeString(body)
	return "<html><body><p>" + strings.ReplaceAll(escaped, "\n", "<br>") + "</p></body></html>"
}
