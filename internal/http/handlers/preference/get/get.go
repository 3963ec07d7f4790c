// Package get implements the HTTP handler returning the notification
// preference of one user.
package get

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/tmisi76/legolcsobbkotelezo-sub000/internal/http/response"
	"github.com/tmisi76/legolcsobbkotelezo-sub000/internal/lib/sl"
	"github.com/tmisi76/legolcsobbkotelezo-sub000/internal/models"
	"github.com/tmisi76/legolcsobbkotelezo-sub000/internal/storage/repository"
)

// Handler serves preference reads.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service is the business logic interface of the preference read.
type Service interface {
	Get(ctx context.Context, userUID string) (*models.NotificationPreference, error)
}

// New creates a new Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Read notification preference
// @Description Returns the notification preference of one user, with the default schedule filled in.
// @Tags Preferences
// @Produce json
// @Param user_uid path string true "User identifier"
// @Success 200 {object} map[string]any "Preference"
// @Failure 404 {object} response.ErrorResponse "Preference not found"
// @Failure 500 {object} response.ErrorResponse "Storage failure"
// @Router /preferences/{user_uid} [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.preference.get"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	userUID := chi.URLParam(r, "user_uid")

	pref, err := h.service.Get(r.Context(), userUID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			w.WriteHeader(http.StatusNotFound)
			render.JSON(w, r, response.Error("preference not found"))
			return
		}
		log.Error("failed to read preference", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not read preference"))
		return
	}

	render.JSON(w, r, response.OKWithData(map[string]any{
		"preference": pref,
	}))
}
