package email

import (
	"context"
	"crypto/tls"
	"fmt"
	"log/slog"
	"net"
	"net/smtp"
	"strings"

	"github.com/google/uuid"

	"github.com/tmisi76/legolcsobbkotelezo-sub000/internal/config"
	"github.com/tmisi76/legolcsobbkotelezo-sub000/internal/lib/sl"
)

// SMTPProvider delivers mail over SMTP with STARTTLS.
type SMTPProvider struct {
	cfg config.Email
	log *slog.Logger
}

// NewSMTPProvider creates a new SMTPProvider.
func NewSMTPProvider(cfg config.Email, log *slog.Logger) *SMTPProvider {
	return &SMTPProvider{cfg: cfg, log: log}
}

// Send connects, authenticates and submits one message. The connection
// honors the ctx deadline; a generated Message-ID header is returned as the
// provider message id.
func (p *SMTPProvider) Send(ctx context.Context, msg Message) (string, error) {
	const op = "email.SMTPProvider.Send"

	client, err := p.connect(ctx)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	defer func() { _ = client.Close() }()

	messageID := fmt.Sprintf("<%s@%s>", uuid.New().String(), p.cfg.SMTPHost)
	body := strings.Join([]string{
		"From: " + msg.From,
		"To: " + msg.To,
		"Subject: " + msg.Subject,
		"Message-ID: " + messageID,
		"MIME-Version: 1.0",
		"Content-Type: text/html; charset=\"UTF-8\"",
		"",
		msg.HTML,
	}, "\r\n")

	if err := client.Mail(msg.From); err != nil {
		return "", fmt.Errorf("%s: mail from: %w", op, err)
	}
	if err := client.Rcpt(msg.To); err != nil {
		return "", fmt.Errorf("%s: rcpt to: %w", op, err)
	}

	wc, err := client.Data()
	if err != nil {
		return "", fmt.Errorf("%s: data: %w", op, err)
	}
	if _, err = wc.Write([]byte(body)); err != nil {
		return "", fmt.Errorf("%s: write body: %w", op, err)
	}
	if err = wc.Close(); err != nil {
		return "", fmt.Errorf("%s: close body: %w", op, err)
	}
	if err = client.Quit(); err != nil {
		return "", fmt.Errorf("%s: quit: %w", op, err)
	}

	p.log.Info("email sent", slog.String("to", msg.To), slog.String("message_id", messageID))
	return messageID, nil
}

func (p *SMTPProvider) connect(ctx context.Context) (*smtp.Client, error) {
	addr := p.cfg.SMTPHost + ":" + p.cfg.SMTPPort

	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		p.log.Error("failed to dial SMTP server", sl.Err(err))
		return nil, fmt.Errorf("failed to dial SMTP server: %w", err)
	}
	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}

	client, err := smtp.NewClient(conn, p.cfg.SMTPHost)
	if err != nil {
		p.log.Error("failed to create SMTP client", sl.Err(err))
		if closeErr := conn.Close(); closeErr != nil {
			p.log.Error("failed to close connection", sl.Err(closeErr))
		}
		return nil, fmt.Errorf("failed to create SMTP client: %w", err)
	}

	tlsConfig := &tls.Config{
		ServerName: p.cfg.SMTPHost,
		MinVersion: tls.VersionTLS12,
	}
	ok, _ := client.Extension("STARTTLS")
	if !ok {
		p.log.Error("SMTP server does not support STARTTLS")
		if closeErr := client.Close(); closeErr != nil {
			p.log.Error("failed to close client", sl.Err(closeErr))
		}
		return nil, fmt.Errorf("smtp server does not support STARTTLS")
	}
	if err = client.StartTLS(tlsConfig); err != nil {
		p.log.Error("failed to start TLS", sl.Err(err))
		if closeErr := client.Close(); closeErr != nil {
			p.log.Error("failed to close client", sl.Err(closeErr))
		}
		return nil, fmt.Errorf("failed to start TLS: %w", err)
	}

	auth := smtp.PlainAuth("", p.cfg.SMTPUser, p.cfg.SMTPPass, p.cfg.SMTPHost)
	if err = client.Auth(auth); err != nil {
		p.log.Error("smtp auth failed", sl.Err(err))
		if closeErr := client.Close(); closeErr != nil {
			p.log.Error("failed to close client", sl.Err(closeErr))
		}
		return nil, fmt.Errorf("smtp auth failed: %w", err)
	}

	return client, nil
}
