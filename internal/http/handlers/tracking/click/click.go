// Package click implements the click-redirect endpoint. Outbound links in
// reminder emails are rewritten through it so a click can be correlated to
// its attempt. The recipient is always redirected to the real destination,
// even when recording the click fails.
package click

import (
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/go-chi/chi/middleware"
	"github.com/google/uuid"

	"github.com/tmisi76/legolcsobbkotelezo-sub000/internal/lib/rabbitmq"
	"github.com/tmisi76/legolcsobbkotelezo-sub000/internal/lib/sl"
	"github.com/tmisi76/legolcsobbkotelezo-sub000/internal/models"
)

// Handler serves the click redirect.
type Handler struct {
	log         *slog.Logger
	channel     rabbitmq.Channel
	fallbackURL string
}

// New creates a new Handler. fallbackURL is used when the destination
// parameter is missing or unusable.
func New(log *slog.Logger, channel rabbitmq.Channel, fallbackURL string) *Handler {
	return &Handler{log: log, channel: channel, fallbackURL: fallbackURL}
}

// ServeHTTP godoc
// @Summary Click redirect
// @Description Records that a tracked link was followed and redirects to the original destination. Always redirects.
// @Tags Tracking
// @Param id query string true "Attempt id"
// @Param url query string true "Original destination"
// @Success 302 {string} string "Redirect to destination"
// @Router /track/click [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.tracking.click"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	if id, err := uuid.Parse(r.URL.Query().Get("id")); err != nil {
		log.Warn("click redirect requested with invalid id")
	} else {
		event := models.TrackingEvent{
			AttemptID:  id,
			Kind:       models.TrackingClick,
			OccurredAt: time.Now().UTC(),
		}
		if err := rabbitmq.PublishMessage(h.channel, rabbitmq.ExchangeName,
			rabbitmq.TrackingRoutingKey, event); err != nil {
			log.Error("failed to publish click event", sl.Err(err))
		}
	}

	destination := r.URL.Query().Get("url")
	if parsed, err := url.Parse(destination); err != nil || !parsed.IsAbs() {
		log.Warn("click redirect without usable destination",
			slog.String("url", destination))
		destination = h.fallbackURL
	}
	http.Redirect(w, r, destination, http.StatusFound)
}
