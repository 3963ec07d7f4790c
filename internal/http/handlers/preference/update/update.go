// Package update implements the HTTP handler storing the notification
// preference of one user, creating it on first write.
package update

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"

	"github.com/tmisi76/legolcsobbkotelezo-sub000/internal/http/response"
	"github.com/tmisi76/legolcsobbkotelezo-sub000/internal/lib/sl"
	"github.com/tmisi76/legolcsobbkotelezo-sub000/internal/models"
)

// Handler serves preference updates.
type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

// Service is the business logic interface of the preference update.
type Service interface {
	Update(ctx context.Context, userUID string, req models.DummyPreference) error
}

// New creates a new Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service, validate: validator.New()}
}

// ServeHTTP godoc
// @Summary Update notification preference
// @Description Stores the notification preference of one user. Disabling reminders stops all future sends for the user's vehicles.
// @Tags Preferences
// @Accept json
// @Produce json
// @Param user_uid path string true "User identifier"
// @Param request body models.DummyPreference true "Preference data"
// @Success 200 {object} response.Response "Stored"
// @Failure 400 {object} response.ErrorResponse "Invalid JSON"
// @Failure 422 {object} response.ErrorResponse "Validation failed"
// @Failure 500 {object} response.ErrorResponse "Storage failure"
// @Router /preferences/{user_uid} [put]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.preference.update"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	userUID := chi.URLParam(r, "user_uid")

	var req models.DummyPreference
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Error("failed to decode request", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid request body"))
		return
	}

	if err := h.validate.Struct(req); err != nil {
		log.Error("validation failed", sl.Err(err))
		w.WriteHeader(http.StatusUnprocessableEntity)
		render.JSON(w, r, response.ValidationError(err.(validator.ValidationErrors)))
		return
	}

	if err := h.service.Update(r.Context(), userUID, req); err != nil {
		log.Error("failed to update preference", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not update preference"))
		return
	}

	log.Info("preference updated", slog.String("user_uid", userUID))
	render.JSON(w, r, response.OK())
}
