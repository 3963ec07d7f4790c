// Package get implements the HTTP handler returning one stored email
// template together with the placeholder keys it references.
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

// Handler serves template reads.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service is the business logic interface of the template read.
type Service interface {
	Get(ctx context.Context, key string) (*models.EmailTemplate, []string, error)
}

// New creates a new Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Read one email template
// @Description Returns the stored template and the placeholder keys found in its subject and body.
// @Tags Templates
// @Produce json
// @Param key path string true "Template key, e.g. reminder_30"
// @Success 200 {object} map[string]any "Template"
// @Failure 404 {object} response.ErrorResponse "Template not found"
// @Failure 500 {object} response.ErrorResponse "Storage failure"
// @Router /templates/{key} [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.template.get"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	key := chi.URLParam(r, "key")

	tmpl, keys, err := h.service.Get(r.Context(), key)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			w.WriteHeader(http.StatusNotFound)
			render.JSON(w, r, response.Error("template not found"))
			return
		}
		log.Error("failed to read template", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not read template"))
		return
	}

	render.JSON(w, r, response.OKWithData(map[string]any{
		"template":     tmpl,
		"placeholders": keys,
	}))
}
