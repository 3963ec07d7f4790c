// Package testsend implements the HTTP handler that delivers one reminder
// on demand for preview purposes. Test sends bypass the policy and leave no
// trace in the dedup ledger; the subject is tagged so they are recognisable.
package testsend

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"

	"github.com/tmisi76/legolcsobbkotelezo-sub000/internal/http/response"
	"github.com/tmisi76/legolcsobbkotelezo-sub000/internal/lib/sl"
)

// Handler serves the test-send endpoint.
type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

// Service is the business logic interface of the test send.
type Service interface {
	SendTest(ctx context.Context, vehicleID, offset int) (string, error)
}

// Request is the JSON payload of a test send.
type Request struct {
	VehicleID int `json:"vehicle_id" validate:"required,gt=0"`
	Offset    int `json:"offset" validate:"required,gt=0"`
}

// New creates a new Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service, validate: validator.New()}
}

// ServeHTTP godoc
// @Summary Send one test reminder
// @Description Renders and delivers the reminder of the given offset for one vehicle without recording an attempt.
// @Tags Reminders
// @Accept json
// @Produce json
// @Param request body Request true "Vehicle and offset to preview"
// @Success 200 {object} map[string]any "Provider message id"
// @Failure 400 {object} response.ErrorResponse "Invalid JSON"
// @Failure 422 {object} response.ErrorResponse "Validation failed"
// @Failure 500 {object} response.ErrorResponse "Delivery failed"
// @Router /reminders/test [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.reminder.testsend"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	var req Request
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

	messageID, err := h.service.SendTest(r.Context(), req.VehicleID, req.Offset)
	if err != nil {
		log.Error("failed to send test reminder", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not send test reminder"))
		return
	}

	log.Info("test reminder sent", slog.String("message_id", messageID))
	render.JSON(w, r, response.OKWithData(map[string]any{
		"message_id": messageID,
	}))
}
