// Package status implements the HTTP handler serving the renewal urgency of
// one vehicle: days remaining, urgency state with its Hungarian label, a
// progress value for the dashboard gauge and the switch-window flag.
package status

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/tmisi76/legolcsobbkotelezo-sub000/internal/http/response"
	"github.com/tmisi76/legolcsobbkotelezo-sub000/internal/lib/sl"
	"github.com/tmisi76/legolcsobbkotelezo-sub000/internal/services/vehicle"
	"github.com/tmisi76/legolcsobbkotelezo-sub000/internal/storage/repository"
)

// Handler serves the renewal status of a vehicle.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service is the business logic interface of the status read.
type Service interface {
	Status(ctx context.Context, id int, today time.Time) (*vehicle.StatusView, error)
}

// New creates a new Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Renewal status of one vehicle
// @Description Classifies the vehicle's renewal date against today and returns the urgency window.
// @Tags Vehicles
// @Produce json
// @Param id path int true "Vehicle id"
// @Success 200 {object} map[string]any "Status"
// @Failure 400 {object} response.ErrorResponse "Invalid id"
// @Failure 404 {object} response.ErrorResponse "Vehicle not found"
// @Failure 500 {object} response.ErrorResponse "Storage failure"
// @Router /vehicles/{id}/status [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.vehicle.status"
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

	view, err := h.service.Status(r.Context(), id, time.Now())
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			w.WriteHeader(http.StatusNotFound)
			render.JSON(w, r, response.Error("vehicle not found"))
			return
		}
		log.Error("failed to compute vehicle status", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not compute vehicle status"))
		return
	}

	render.JSON(w, r, response.OKWithData(map[string]any{
		"vehicle_id":      view.Vehicle.ID,
		"plate":           view.Vehicle.Plate,
		"nickname":        view.Vehicle.Nickname,
		"renewal_date":    view.Vehicle.RenewalDate.Format("2006-01-02"),
		"days_remaining":  view.DaysRemaining,
		"state":           view.State,
		"label":           view.Label,
		"progress":        view.Progress,
		"can_switch":      view.CanSwitch,
		"next_renewal_in": view.NextRenewalIn,
	}))
}
