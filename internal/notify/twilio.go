package notify

import (
	"context"
	"fmt"
	"strings"

	"github.com/twilio/twilio-go"
	api "github.com/twilio/twilio-go/rest/api/v2010"
	"go.uber.org/zap"
)

// TwilioSender delivers text messages through Twilio.
type TwilioSender struct {
	client     *twilio.RestClient
	fromNumber string
	logger     *zap.Logger
}

// NewTwilioSender creates a TwilioSender.
func NewTwilioSender(accountSID, authToken, fromNumber string, logger *zap.Logger) *TwilioSender {
	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username:   accountSID,
		Password:   authToken,
		AccountSid: accountSID,
	})
	return &TwilioSender{client: client, fromNumber: fromNumber, logger: logger}
}

// SendSMS sends body to an E.164 number.
func (t *TwilioSender) SendSMS(_ context.Context, to, body string) error {
	if !strings.HasPrefix(to, "+") {
		return fmt.Errorf("phone number %q is not in E.164 format", to)
	}

	params := &api.CreateMessageParams{}
	params.SetTo(to)
	params.SetFrom(t.fromNumber)
	params.SetBody(body)

	resp, err := t.client.Api.CreateMessage(params)
	if err != nil {
		return fmt.Errorf("failed to send sms via twilio: %w", err)
	}

	if resp != nil && resp.Sid != nil {
		t.logger.Debug("sms sent", zap.String("sid", *resp.Sid))
	}
	return nil
}
