package email

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
)

// MockProvider logs the message and reports success. Used in local
// development and by tests that only care about the orchestration outcome.
type MockProvider struct {
	log *slog.Logger
}

// NewMockProvider creates a new MockProvider.
func NewMockProvider(log *slog.Logger) *MockProvider {
	return &MockProvider{log: log}
}

// Send logs the message and returns a generated id.
func (p *MockProvider) Send(_ context.Context, msg Message) (string, error) {
	id := uuid.New().String()
	p.log.Info("MOCK EMAIL",
		slog.String("to", msg.To),
		slog.String("subject", msg.Subject),
		slog.String("message_id", id))
	return id, nil
}
