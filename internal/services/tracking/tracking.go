// Package tracking applies passive recipient events (open, click, callback,
// offer) to the reminder attempt ledger. Events arrive over the tracking
// queue; correlation is purely by the opaque attempt id.
package tracking

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/tmisi76/legolcsobbkotelezo-sub000/internal/lib/sl"
	"github.com/tmisi76/legolcsobbkotelezo-sub000/internal/metrics"
	"github.com/tmisi76/legolcsobbkotelezo-sub000/internal/models"
)

// AttemptRepository is the ledger surface the service needs. Every Mark
// method is monotonic: TRUE is absorbing, repeated events are no-ops.
type AttemptRepository interface {
	MarkOpened(ctx context.Context, id uuid.UUID) (bool, error)
	MarkLinkClicked(ctx context.Context, id uuid.UUID) (bool, error)
	MarkCallbackRequested(ctx context.Context, id uuid.UUID) (bool, error)
	MarkOfferRequested(ctx context.Context, id uuid.UUID) (bool, error)
}

// Service consumes tracking events.
type Service struct {
	repo AttemptRepository
	log  *slog.Logger
}

// New creates a tracking Service.
func New(repo AttemptRepository, log *slog.Logger) *Service {
	return &Service{repo: repo, log: log}
}

// HandleMessage unmarshals one queue message and applies it. It is the
// rabbitmq consumer handler: a returned error nacks the message for retry,
// so only repository failures are returned — malformed payloads and unknown
// ids are dropped after logging, retrying cannot fix them.
func (s *Service) HandleMessage(body []byte) error {
	var event models.TrackingEvent
	if err := json.Unmarshal(body, &event); err != nil {
		s.log.Error("failed to unmarshal tracking event", sl.Err(err))
		return nil
	}
	return s.Apply(context.Background(), event)
}

// Apply sets the ledger flag matching the event kind. Unknown attempt ids
// and unknown kinds are logged and ignored.
func (s *Service) Apply(ctx context.Context, event models.TrackingEvent) error {
	const op = "tracking.Apply"

	var (
		resolved bool
		err      error
	)
	switch event.Kind {
	case models.TrackingOpen:
		resolved, err = s.repo.MarkOpened(ctx, event.AttemptID)
	case models.TrackingClick:
		resolved, err = s.repo.MarkLinkClicked(ctx, event.AttemptID)
	case models.TrackingCallback:
		resolved, err = s.repo.MarkCallbackRequested(ctx, event.AttemptID)
	case models.TrackingOffer:
		resolved, err = s.repo.MarkOfferRequested(ctx, event.AttemptID)
	default:
		s.log.Warn("unknown tracking event kind", slog.String("kind", event.Kind))
		return nil
	}
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if !resolved {
		s.log.Info("tracking event for unknown attempt id",
			slog.String("attempt_id", event.AttemptID.String()),
			slog.String("kind", event.Kind))
		return nil
	}

	metrics.TrackingEvents.WithLabelValues(event.Kind).Inc()
	s.log.Info("tracking event applied",
		slog.String("attempt_id", event.AttemptID.String()),
		slog.String("kind", event.Kind))
	return nil
}
