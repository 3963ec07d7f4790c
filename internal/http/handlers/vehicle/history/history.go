// Package history implements the HTTP handler returning the reminder
// delivery log of one vehicle.
package history

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/tmisi76/legolcsobbkotelezo-sub000/internal/http/response"
	"github.com/tmisi76/legolcsobbkotelezo-sub000/internal/lib/sl"
	"github.com/tmisi76/legolcsobbkotelezo-sub000/internal/models"
)

// Handler serves the reminder history of a vehicle.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service is the business logic interface of the history read.
type Service interface {
	History(ctx context.Context, id int) ([]models.ReminderAttempt, error)
}

// New creates a new Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Reminder history of one vehicle
// @Description Returns every recorded reminder attempt of the vehicle, newest first, with its tracking flags.
// @Tags Vehicles
// @Produce json
// @Param id path int true "Vehicle id"
// @Success 200 {object} map[string]any "Attempts"
// @Failure 400 {object} response.ErrorResponse "Invalid id"
// @Failure 500 {object} response.ErrorResponse "Storage failure"
// @Router /vehicles/{id}/attempts [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.vehicle.history"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		log.Error("failed to decode id from url", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("failed to decode id from url"))
		return
	}

	attempts, err := h.service.History(r.Context(), id)
	if err != nil {
		log.Error("failed to list reminder attempts", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not list reminder attempts"))
		return
	}

	render.JSON(w, r, response.OKWithData(map[string]any{
		"attempts": attempts,
	}))
}
