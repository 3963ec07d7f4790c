// Package action implements the callback and offer request links of a
// reminder email. Following one records the recipient's intent and lands
// them on a thank-you page. The redirect is always issued.
package action

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

// actionKinds maps the query parameter to the queued event kind.
var actionKinds = map[string]string{
	models.TrackingCallback: models.TrackingCallback,
	models.TrackingOffer:    models.TrackingOffer,
}

// Handler serves the action links.
type Handler struct {
	log        *slog.Logger
	channel    rabbitmq.Channel
	confirmURL string
}

// New creates a new Handler. confirmURL is the thank-you page recipients
// land on.
func New(log *slog.Logger, channel rabbitmq.Channel, confirmURL string) *Handler {
	return &Handler{log: log, channel: channel, confirmURL: confirmURL}
}

// ServeHTTP godoc
// @Summary Callback or offer request
// @Description Records that the recipient asked for a callback or an offer and redirects to the confirmation page.
// @Tags Tracking
// @Param id query string true "Attempt id"
// @Param action query string true "callback or offer"
// @Success 302 {string} string "Redirect to confirmation page"
// @Router /track/action [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.tracking.action"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	id, err := uuid.Parse(r.URL.Query().Get("id"))
	kind, known := actionKinds[r.URL.Query().Get("action")]
	switch {
	case err != nil:
		log.Warn("action link requested with invalid id")
	case !known:
		log.Warn("action link requested with unknown action",
			slog.String("action", r.URL.Query().Get("action")))
	default:
		event := models.TrackingEvent{
			AttemptID:  id,
			Kind:       kind,
			OccurredAt: time.Now().UTC(),
		}
		if err := rabbitmq.PublishMessage(h.channel, rabbitmq.ExchangeName,
			rabbitmq.TrackingRoutingKey, event); err != nil {
			log.Error("failed to publish action event", sl.Err(err))
		}
	}

	http.Redirect(w, r, h.confirmURL, http.StatusFound)
}
