// Package list implements the HTTP handler returning all vehicles of one
// user.
package list

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/tmisi76/legolcsobbkotelezo-sub000/internal/http/response"
	"github.com/tmisi76/legolcsobbkotelezo-sub000/internal/lib/sl"
	"github.com/tmisi76/legolcsobbkotelezo-sub000/internal/models"
)

// Handler serves the vehicle list.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service is the business logic interface of the vehicle list.
type Service interface {
	List(ctx context.Context, userUID string) ([]models.Vehicle, error)
}

// New creates a new Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary List vehicles of a user
// @Description Returns every vehicle registered under the user_uid query parameter.
// @Tags Vehicles
// @Produce json
// @Param user_uid query string true "User identifier"
// @Success 200 {object} map[string]any "Vehicles"
// @Failure 400 {object} response.ErrorResponse "Missing user_uid"
// @Failure 500 {object} response.ErrorResponse "Storage failure"
// @Router /vehicles [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.vehicle.list"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	userUID := r.URL.Query().Get("user_uid")
	if userUID == "" {
		log.Error("user_uid query parameter is missing")
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("user_uid is required"))
		return
	}

	vehicles, err := h.service.List(r.Context(), userUID)
	if err != nil {
		log.Error("failed to list vehicles", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not list vehicles"))
		return
	}

	log.Info("vehicles listed", slog.Int("count", len(vehicles)))
	render.JSON(w, r, response.OKWithData(map[string]any{
		"vehicles": vehicles,
	}))
}
