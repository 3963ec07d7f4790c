// Package open implements the open-tracking pixel. Every reminder email
// embeds a 1x1 image pointing here; fetching it signals the email was
// opened. The pixel is always served, whatever happens on the way: a broken
// tracker must never break the recipient's mail client.
package open

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/middleware"
	"github.com/google/uuid"

	"github.com/tmisi76/legolcsobbkotelezo-sub000/internal/lib/rabbitmq"
	"github.com/tmisi76/legolcsobbkotelezo-sub000/internal/lib/sl"
	"github.com/tmisi76/legolcsobbkotelezo-sub000/internal/models"
)

// pixel is a transparent 1x1 GIF.
var pixel = []byte{
	0x47, 0x49, 0x46, 0x38, 0x39, 0x61, 0x01, 0x00, 0x01, 0x00, 0x80, 0x00,
	0x00, 0x00, 0x00, 0x00, 0xff, 0xff, 0xff, 0x21, 0xf9, 0x04, 0x01, 0x00,
	0x00, 0x00, 0x00, 0x2c, 0x00, 0x00, 0x00, 0x00, 0x01, 0x00, 0x01, 0x00,
	0x00, 0x02, 0x02, 0x44, 0x01, 0x00, 0x3b,
}

// Handler serves the open-tracking pixel.
type Handler struct {
	log     *slog.Logger
	channel rabbitmq.Channel
}

// New creates a new Handler.
func New(log *slog.Logger, channel rabbitmq.Channel) *Handler {
	return &Handler{log: log, channel: channel}
}

// ServeHTTP godoc
// @Summary Open-tracking pixel
// @Description Records that a reminder email was opened and serves a 1x1 GIF. Always returns the image.
// @Tags Tracking
// @Produce image/gif
// @Param id query string true "Attempt id"
// @Success 200 {string} binary "1x1 GIF"
// @Router /track/open [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.tracking.open"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	if id, err := uuid.Parse(r.URL.Query().Get("id")); err != nil {
		log.Warn("open pixel requested with invalid id")
	} else {
		event := models.TrackingEvent{
			AttemptID:  id,
			Kind:       models.TrackingOpen,
			OccurredAt: time.Now().UTC(),
		}
		if err := rabbitmq.PublishMessage(h.channel, rabbitmq.ExchangeName,
			rabbitmq.TrackingRoutingKey, event); err != nil {
			log.Error("failed to publish open event", sl.Err(err))
		}
	}

	w.Header().Set("Content-Type", "image/gif")
	w.Header().Set("Cache-Control", "no-store, no-cache, must-revalidate")
	_, _ = w.Write(pixel)
}
