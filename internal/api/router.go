package api

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/MikeSquared-Agency/Funding/internal/policy"
	"github.com/MikeSquared-Agency/Funding/internal/scenario"
	"github.com/MikeSquared-Agency/Funding/internal/store"
)

// Engine is the scenario engine as seen by the handlers.
type Engine interface {
	Evaluate(ctx context.Context, p policy.Params) (*scenario.Evaluation, error)
	Geographies() []string
	Baseline(geo string) (*scenario.BaselineView, error)
	Stats() scenario.Stats
	Reload(ctx context.Context, src store.Store) error
}

type Options struct {
	AdminToken         string
	RateLimitPerMinute int
	// Source is reloaded by POST /admin/reload; nil disables reloads.
	Source store.Store
}

func NewRouter(e Engine, opts Options, logger *slog.Logger) http.Handler {
	r := chi.NewRouter()

	if opts.RateLimitPerMinute <= 0 {
		opts.RateLimitPerMinute = 120
	}

	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.RequestID)
	r.Use(RequestLogger(logger))
	r.Use(RateLimitMiddleware(opts.RateLimitPerMinute))

	scenarios := NewScenariosHandler(e, logger)
	catalogue := NewCatalogueHandler(e)
	admin := NewAdminHandler(e, opts.Source, logger)

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/scenarios", scenarios.Create)

		r.Get("/geographies", catalogue.Geographies)
		r.Get("/programs", catalogue.Programs)
		r.Get("/baseline/{geography}", catalogue.Baseline)

		r.Route("/admin", func(r chi.Router) {
			r.Use(AdminAuthMiddleware(opts.AdminToken))
			r.Get("/stats", admin.Stats)
			r.Post("/reload", admin.Reload)
		})
	})

	return r
}

// NewMetricsRouter serves /health and /metrics. A nil gatherer serves the
// default registry.
func NewMetricsRouter(g prometheus.Gatherer) http.Handler {
	r := chi.NewRouter()
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	if g == nil {
		r.Handle("/metrics", promhttp.Handler())
	} else {
		r.Handle("/metrics", promhttp.HandlerFor(g, promhttp.HandlerOpts{}))
	}
	return r
}
