package email

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

// SendGridProvider delivers mail through the SendGrid API.
type SendGridProvider struct {
	client *sendgrid.Client
	log    *slog.Logger
}

// NewSendGridProvider creates a new SendGridProvider.
func NewSendGridProvider(apiKey string, log *slog.Logger) *SendGridProvider {
	return &SendGridProvider{
		client: sendgrid.NewSendClient(apiKey),
		log:    log,
	}
}

// Send submits one message and returns SendGrid's X-Message-Id.
func (p *SendGridProvider) Send(ctx context.Context, msg Message) (string, error) {
	const op = "email.SendGridProvider.Send"

	from := mail.NewEmail(msg.FromName, msg.From)
	to := mail.NewEmail(msg.ToName, msg.To)
	message := mail.NewSingleEmail(from, msg.Subject, to, "", msg.HTML)

	response, err := p.client.SendWithContext(ctx, message)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	if response.StatusCode >= 400 {
		return "", fmt.Errorf("%s: sendgrid rejected message to %s: %d", op, msg.To, response.StatusCode)
	}

	messageID := response.Headers["X-Message-Id"]
	id := ""
	if len(messageID) > 0 {
		id = messageID[0]
	}
	p.log.Info("email sent", slog.String("to", msg.To), slog.String("message_id", id))
	return id, nil
}
