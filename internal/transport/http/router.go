// Package http wires the REST surface: health, pipeline control,
// quality reports, sales analytics, cache maintenance, and Prometheus
// metrics.
package http

import (
	"log/slog"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"salesetl/internal/cache"
	"salesetl/internal/config"
	"salesetl/internal/errors"
	"salesetl/internal/middleware"
	"salesetl/internal/pipeline"
)

// RouterDeps bundles what the router needs.
type RouterDeps struct {
	Config       *config.Config
	Runner       *pipeline.Runner
	CacheManager *cache.Manager
	Version      VersionInfo
	Logger       *slog.Logger
}

// NewRouter builds the chi router with the full middleware chain.
func NewRouter(deps RouterDeps) chi.Router {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	errHandler := errors.NewErrorHandler(logger, false)

	health := NewHealthHandler(deps.Version, logger)
	pipelineHandler := NewPipelineHandler(deps.Runner, errHandler, logger)
	qualityHandler := NewQualityHandler(deps.Runner, errHandler, logger)
	analyticsHandler := NewAnalyticsHandler(deps.Runner, errHandler, logger)
	cacheHandler := NewCacheHandler(deps.CacheManager, errHandler, logger)

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.StructuredLogger(logger))
	r.Use(errors.RecoveryMiddleware(errHandler))

	if deps.Config != nil && deps.Config.Server.RateLimit.Enabled {
		limiter := middleware.NewRateLimiter(
			deps.Config.Server.RateLimit.RPS,
			deps.Config.Server.RateLimit.Burst,
			logger,
		)
		r.Use(limiter.Handler)
	}

	r.NotFound(errHandler.NotFound)
	r.MethodNotAllowed(errHandler.MethodNotAllowed)

	r.Get("/healthz", health.LivenessCheck)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Route("/health", func(r chi.Router) {
			r.Get("/", health.HealthCheck)
			r.Get("/live", health.LivenessCheck)
			r.Get("/ready", health.ReadinessCheck)
		})
		r.Get("/version", health.Version)

		r.Route("/pipeline", func(r chi.Router) {
			r.Post("/run", pipelineHandler.Run)
			r.Get("/status", pipelineHandler.Status)
		})

		r.Route("/quality", func(r chi.Router) {
			r.Get("/report", qualityHandler.Report)
			r.Get("/summary", qualityHandler.Summary)
		})

		r.Route("/analytics", func(r chi.Router) {
			r.Get("/summary", analyticsHandler.Summary)
			r.Get("/trends", analyticsHandler.Trends)
			r.Get("/products", analyticsHandler.Products)
		})

		r.Route("/cache", func(r chi.Router) {
			r.Get("/stats", cacheHandler.Stats)
			r.Post("/clear-expired", cacheHandler.ClearExpired)
			r.Delete("/", cacheHandler.Clear)
		})
	})

	return r
}
