// Package email defines the delivery provider abstraction and its SMTP,
// SendGrid and mock implementations. The engine prevents duplicate sends on
// its own side, so providers only need best-effort delivery with a timeout.
package email

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/tmisi76/legolcsobbkotelezo-sub000/internal/config"
)

// Message is one outbound email.
type Message struct {
	From     string
	FromName string
	To       string
	ToName   string
	Subject  string
	HTML     string
}

// Provider delivers one message and returns a provider message id.
// Implementations must honor ctx cancellation and deadlines.
type Provider interface {
	Send(ctx context.Context, msg Message) (string, error)
}

// NewProvider builds the provider selected by cfg.Mode.
func NewProvider(cfg config.Email, log *slog.Logger) (Provider, error) {
	const op = "email.NewProvider"
	switch cfg.Mode {
	case "smtp":
		if cfg.SMTPHost == "" || cfg.SMTPUser == "" {
			return nil, fmt.Errorf("%s: smtp credentials are not configured", op)
		}
		return NewSMTPProvider(cfg, log), nil
	case "sendgrid":
		if cfg.SendGridAPIKey == "" {
			return nil, fmt.Errorf("%s: sendgrid api key is not configured", op)
		}
		return NewSendGridProvider(cfg.SendGridAPIKey, log), nil
	case "mock":
		return NewMockProvider(log), nil
	default:
		return nil, fmt.Errorf("%s: unknown email mode %q", op, cfg.Mode)
	}
}
