// Package run implements the HTTP trigger of the daily reminder batch.
//
// Handler starts one orchestration pass for the current day and reports the
// per-offset outcome. The operation is idempotent: re-triggering the same
// day sends nothing twice.
package run

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/tmisi76/legolcsobbkotelezo-sub000/internal/http/response"
	"github.com/tmisi76/legolcsobbkotelezo-sub000/internal/lib/sl"
	"github.com/tmisi76/legolcsobbkotelezo-sub000/internal/models"
	"github.com/tmisi76/legolcsobbkotelezo-sub000/internal/services/orchestrator"
)

// Handler serves the reminder run trigger.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service is the business logic interface of the reminder run.
type Service interface {
	Run(ctx context.Context, today time.Time) ([]models.OffsetResult, error)
}

// New creates a new Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Trigger the daily reminder batch
// @Description Runs one orchestration pass over all configured offsets and returns per-offset counts. Safe to re-trigger.
// @Tags Reminders
// @Produce json
// @Success 200 {object} map[string]any "Per-offset results"
// @Failure 409 {object} response.ErrorResponse "A run is already in progress"
// @Failure 500 {object} response.ErrorResponse "Run failed to start"
// @Router /run-reminders [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.reminder.run"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	results, err := h.service.Run(r.Context(), time.Now())
	if err != nil {
		if errors.Is(err, orchestrator.ErrRunInProgress) {
			log.Warn("run rejected, another run holds the lock")
			w.WriteHeader(http.StatusConflict)
			render.JSON(w, r, response.Error("a reminder run is already in progress"))
			return
		}
		log.Error("failed to run reminders", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not run reminders"))
		return
	}

	log.Info("reminder run finished", slog.Int("offsets", len(results)))
	render.JSON(w, r, response.OKWithData(map[string]any{
		"results": results,
	}))
}
