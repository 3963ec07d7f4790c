// Package read implements the HTTP handler returning one vehicle by id.
package read

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/tmisi76/legolcsobbkotelezo-sub000/internal/http/response"
	"github.com/tmisi76/legolcsobbkotelezo-sub000/internal/lib/sl"
	"github.com/tmisi76/legolcsobbkotelezo-sub000/internal/models"
	"github.com/tmisi76/legolcsobbkotelezo-sub000/internal/storage/repository"
)

// Handler serves single-vehicle reads.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service is the business logic interface of the vehicle read.
type Service interface {
	Read(ctx context.Context, id int) (*models.Vehicle, error)
}

// New creates a new Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Read one vehicle
// @Description Returns the vehicle with the given id.
// @Tags Vehicles
// @Produce json
// @Param id path int true "Vehicle id"
// @Success 200 {object} map[string]any "Vehicle"
// @Failure 400 {object} response.ErrorResponse "Invalid id"
// @Failure 404 {object} response.ErrorResponse "Vehicle not found"
// @Failure 500 {object} response.ErrorResponse "Storage failure"
// @Router /vehicles/{id} [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.vehicle.read"
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

	vehicle, err := h.service.Read(r.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			w.WriteHeader(http.StatusNotFound)
			render.JSON(w, r, response.Error("vehicle not found"))
			return
		}
		log.Error("failed to read vehicle", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not read vehicle"))
		return
	}

	render.JSON(w, r, response.OKWithData(map[string]any{
		"vehicle": vehicle,
	}))
}
