package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/render"
	"github.com/spf13/cast"

	"salesetl/internal/analytics"
	"salesetl/internal/errors"
	"salesetl/internal/pipeline"
)

// AnalyticsHandler serves sales analytics computed over the most recent
// transformed dataset.
type AnalyticsHandler struct {
	runner  *pipeline.Runner
	handler *errors.ErrorHandler
	logger  *slog.Logger
}

// NewAnalyticsHandler creates a new analytics handler
func NewAnalyticsHandler(runner *pipeline.Runner, handler *errors.ErrorHandler, logger *slog.Logger) *AnalyticsHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &AnalyticsHandler{
		runner:  runner,
		handler: handler,
		logger:  logger.With(slog.String("handler", "analytics")),
	}
}

func (h *AnalyticsHandler) analyzer(w http.ResponseWriter, r *http.Request) *analytics.Analyzer {
	ds := h.runner.LastDataset()
	if ds == nil {
		h.handler.HandleError(w, r, errors.ErrDatasetNotFound)
		return nil
	}
	return analytics.NewAnalyzer(ds, h.logger)
}

// Summary handles GET /api/analytics/summary
func (h *AnalyticsHandler) Summary(w http.ResponseWriter, r *http.Request) {
	analyzer := h.analyzer(w, r)
	if analyzer == nil {
		return
	}
	render.JSON(w, r, analyzer.Summary())
}

// Trends handles GET /api/analytics/trends. period selects the grouping
// (month, quarter, year); the default is month.
func (h *AnalyticsHandler) Trends(w http.ResponseWriter, r *http.Request) {
	analyzer := h.analyzer(w, r)
	if analyzer == nil {
		return
	}

	period := analytics.PeriodMonth
	if p := r.URL.Query().Get("period"); p != "" {
		period = analytics.Period(p)
	}

	trends, err := analyzer.RevenueTrends(period)
	if err != nil {
		h.handler.HandleError(w, r, errors.New(
			http.StatusBadRequest, "INVALID_PERIOD", err.Error()))
		return
	}
	render.JSON(w, r, map[string]any{
		"period": string(period),
		"trends": trends,
	})
}

// Products handles GET /api/analytics/products. top caps the list size;
// the default is 10.
func (h *AnalyticsHandler) Products(w http.ResponseWriter, r *http.Request) {
	analyzer := h.analyzer(w, r)
	if analyzer == nil {
		return
	}

	top := 10
	if raw := r.URL.Query().Get("top"); raw != "" {
		n, err := cast.ToIntE(raw)
		if err != nil || n <= 0 {
			h.handler.HandleError(w, r, errors.New(
				http.StatusBadRequest, "INVALID_PARAMETER", "top must be a positive integer"))
			return
		}
		top = n
	}

	render.JSON(w, r, map[string]any{
		"products": analyzer.TopProducts(top),
	})
}
