package notify

import (
	"context"
	"fmt"
	"html"
	"strings"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
	"go.uber.org/zap"
)

// SendGridMailer delivers e-mail through the SendGrid v3 API.
type SendGridMailer struct {
	client    *sendgrid.Client
	fromEmail string
	fromName  string
	logger    *zap.Logger
}

// NewSendGridMailer creates a SendGridMailer.
func NewSendGridMailer(apiKey, fromEmail, fromName string, logger *zap.Logger) *SendGridMailer {
	return &SendGridMailer{
		client:    sendgrid.NewSendClient(apiKey),
		fromEmail: fromEmail,
		fromName:  fromName,
		logger:    logger,
	}
}

// SendEmail sends a plain-text message with an HTML twin.
func (m *SendGridMailer) SendEmail(ctx context.Context, toAddress, toName, subject, body string) error {
	from := mail.NewEmail(m.fromName, m.fromEmail)
	to := mail.NewEmail(toName, toAddress)
	message := mail.NewSingleEmail(from, subject, to, body, toHTML(body))

	response, err := m.client.SendWithContext(ctx, message)
	if err != nil {
		return fmt.Errorf("failed to send e-mail via sendgrid: %w", err)
	}
	if response.StatusCode < 200 || response.StatusCode >= 300 {
		return fmt.Errorf("sendgrid returned status %d: %s", response.StatusCode, response.Body)
	}

	m.logger.Debug("e-mail sent",
		zap.String("to", toAddress),
		zap.String("subject", subject),
		zap.Int("status", response.StatusCode),
	)
	return nil
}

func toHTML(body string) string {
	paragraphs := strings.Split(html.EscapeString(body), "\n\n")
	for i, p := range paragraphs {
		paragraphs[i] = "<p>" + strings.ReplaceAll(p, "\n", "<br>") + "</p>"
	}
	return strings.Join(paragraphs, "")
}
