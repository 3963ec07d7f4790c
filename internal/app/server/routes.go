package server

import (
	"log/slog"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tmisi76/legolcsobbkotelezo-sub000/internal/config"
	"github.com/tmisi76/legolcsobbkotelezo-sub000/internal/http/handlers/health"
	preferenceget "github.com/tmisi76/legolcsobbkotelezo-sub000/internal/http/handlers/preference/get"
	preferenceupdate "github.com/tmisi76/legolcsobbkotelezo-sub000/internal/http/handlers/preference/update"
	"github.com/tmisi76/legolcsobbkotelezo-sub000/internal/http/handlers/reminder/run"
	"github.com/tmisi76/legolcsobbkotelezo-sub000/internal/http/handlers/reminder/testsend"
	"github.com/tmisi76/legolcsobbkotelezo-sub000/internal/http/handlers/tracking/action"
	"github.com/tmisi76/legolcsobbkotelezo-sub000/internal/http/handlers/tracking/click"
	"github.com/tmisi76/legolcsobbkotelezo-sub000/internal/http/handlers/tracking/open"
	templateget "github.com/tmisi76/legolcsobbkotelezo-sub000/internal/http/handlers/template/get"
	templateupsert "github.com/tmisi76/legolcsobbkotelezo-sub000/internal/http/handlers/template/upsert"
	"github.com/tmisi76/legolcsobbkotelezo-sub000/internal/http/handlers/vehicle/create"
	"github.com/tmisi76/legolcsobbkotelezo-sub000/internal/http/handlers/vehicle/history"
	"github.com/tmisi76/legolcsobbkotelezo-sub000/internal/http/handlers/vehicle/list"
	"github.com/tmisi76/legolcsobbkotelezo-sub000/internal/http/handlers/vehicle/read"
	"github.com/tmisi76/legolcsobbkotelezo-sub000/internal/http/handlers/vehicle/remove"
	"github.com/tmisi76/legolcsobbkotelezo-sub000/internal/http/handlers/vehicle/status"
	"github.com/tmisi76/legolcsobbkotelezo-sub000/internal/http/handlers/vehicle/update"
	"github.com/tmisi76/legolcsobbkotelezo-sub000/internal/http/middlewarectx"
	"github.com/tmisi76/legolcsobbkotelezo-sub000/internal/lib/rabbitmq"
	orchestratorservice "github.com/tmisi76/legolcsobbkotelezo-sub000/internal/services/orchestrator"
	preferenceservice "github.com/tmisi76/legolcsobbkotelezo-sub000/internal/services/preference"
	templateservice "github.com/tmisi76/legolcsobbkotelezo-sub000/internal/services/template"
	vehicleservice "github.com/tmisi76/legolcsobbkotelezo-sub000/internal/services/vehicle"
	"github.com/tmisi76/legolcsobbkotelezo-sub000/internal/storage/repository"
)

// Services bundles everything the routes need.
type Services struct {
	Orchestrator *orchestratorservice.Service
	Vehicle      *vehicleservice.Service
	Preference   *preferenceservice.Service
	Template     *templateservice.Service
	Storage      *repository.Storage
	Channel      rabbitmq.Channel
	Reminders    config.Reminders
}

// RegisterRoutes registers all routes of the API server.
func RegisterRoutes(r chi.Router, logger *slog.Logger, s *Services) {
	r.Use(
		middleware.RequestID,
		middleware.Logger,
		middleware.Recoverer,
		middleware.URLFormat,
	)

	r.Post("/run-reminders", run.New(logger, s.Orchestrator).ServeHTTP)

	// Tracking endpoints are hit from mail clients; no auth, rate limited.
	r.Group(func(r chi.Router) {
		r.Use(middlewarectx.RateLimitMiddleware(logger, 50, 100))
		r.Get("/track/open", open.New(logger, s.Channel).ServeHTTP)
		r.Get("/track/click", click.New(logger, s.Channel, s.Reminders.BaseURL).ServeHTTP)
		r.Get("/track/action", action.New(logger, s.Channel, s.Reminders.ConfirmURL).ServeHTTP)
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/vehicles", create.New(logger, s.Vehicle).ServeHTTP)
		r.Get("/vehicles", list.New(logger, s.Vehicle).ServeHTTP)
		r.Get("/vehicles/{id}", read.New(logger, s.Vehicle).ServeHTTP)
		r.Put("/vehicles/{id}", update.New(logger, s.Vehicle).ServeHTTP)
		r.Delete("/vehicles/{id}", remove.New(logger, s.Vehicle).ServeHTTP)
		r.Get("/vehicles/{id}/status", status.New(logger, s.Vehicle).ServeHTTP)
		r.Get("/vehicles/{id}/attempts", history.New(logger, s.Vehicle).ServeHTTP)

		r.Get("/preferences/{user_uid}", preferenceget.New(logger, s.Preference).ServeHTTP)
		r.Put("/preferences/{user_uid}", preferenceupdate.New(logger, s.Preference).ServeHTTP)

		r.Get("/templates/{key}", templateget.New(logger, s.Template).ServeHTTP)
		r.Put("/templates/{key}", templateupsert.New(logger, s.Template).ServeHTTP)

		r.Post("/reminders/test", testsend.New(logger, s.Orchestrator).ServeHTTP)
	})

	r.Get("/health", health.New(logger, s.Storage).ServeHTTP)
	r.Handle("/metrics", promhttp.Handler())
}
