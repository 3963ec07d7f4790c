// Package remove implements the HTTP handler deleting a vehicle. Reminder
// history of the vehicle is removed with it.
package remove

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
)

// Handler serves vehicle removal.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service is the business logic interface of the vehicle removal.
type Service interface {
	Remove(ctx context.Context, id int) (int, error)
}

// New creates a new Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Remove one vehicle
// @Description Deletes the vehicle with the given id and its reminder history.
// @Tags Vehicles
// @Produce json
// @Param id path int true "Vehicle id"
// @Success 200 {object} map[string]any "Number of deleted records"
// @Failure 400 {object} response.ErrorResponse "Invalid id"
// @Failure 404 {object} response.ErrorResponse "Vehicle not found"
// @Failure 500 {object} response.ErrorResponse "Storage failure"
// @Router /vehicles/{id} [delete]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.vehicle.remove"
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

	count, err := h.service.Remove(r.Context(), id)
	if err != nil {
		log.Error("failed to remove vehicle", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not remove vehicle"))
		return
	}
	if count == 0 {
		w.WriteHeader(http.StatusNotFound)
		render.JSON(w, r, response.Error("vehicle not found"))
		return
	}

	log.Info("vehicle removed", slog.Int("id", id))
	render.JSON(w, r, response.OKWithData(map[string]any{
		"deleted": count,
	}))
}
