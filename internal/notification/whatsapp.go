package notification

import (
	"context"
	"fmt"
	"strings"

	"github.com/twilio/twilio-go"
	twilioapi "github.com/twilio/twilio-go/rest/api/v2010"
	"go.uber.org/zap"
)

// WhatsAppSender delivers text messages over the Twilio WhatsApp channel.
type WhatsAppSender struct {
	client *twilio.RestClient
	from   string
	logger *zap.Logger
}

// NewWhatsAppSender constructs a sender from Twilio credentials.
func NewWhatsAppSender(accountSID, authToken, from string, logger *zap.Logger) *WhatsAppSender {
	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: accountSID,
		Password: authToken,
	})
	return &WhatsAppSender{client: client, from: from, logger: logger}
}

// Send delivers one message to the given phone number.
func (s *WhatsAppSender) Send(ctx context.Context, phone, body string) error {
	_ = ctx // the Twilio REST client does not take a context

	params := &twilioapi.CreateMessageParams{}
	params.SetTo(whatsAppAddress(phone))
	params.SetFrom(whatsAppAddress(s.from))
	params.SetBody(body)

	if _, err := s.client.Api.CreateMessage(params); err != nil {
		return fmt.Errorf("send whatsapp message: %w", err)
	}
	s.logger.Debug("whatsapp message sent", zap.String("to", phone))
	return nil
}

func whatsAppAddress(phone string) string {
	if strings.HasPrefix(phone, "whatsapp:") {
		return phone
	}
	return "whatsapp:" + phone
}
