package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/render"

	"salesetl/internal/errors"
	"salesetl/internal/pipeline"
)

// QualityHandler serves the latest data quality report.
type QualityHandler struct {
	runner  *pipeline.Runner
	handler *errors.ErrorHandler
	logger  *slog.Logger
}

// NewQualityHandler creates a new quality handler
func NewQualityHandler(runner *pipeline.Runner, handler *errors.ErrorHandler, logger *slog.Logger) *QualityHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &QualityHandler{
		runner:  runner,
		handler: handler,
		logger:  logger.With(slog.String("handler", "quality")),
	}
}

// Report handles GET /api/quality/report. format=txt returns the plain
// text rendering; the default is JSON.
func (h *QualityHandler) Report(w http.ResponseWriter, r *http.Request) {
	report := h.runner.LastReport()
	if report == nil {
		h.handler.HandleError(w, r, errors.ErrReportNotFound)
		return
	}

	if r.URL.Query().Get("format") == "txt" {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.Write([]byte(report.ToText()))
		return
	}

	render.JSON(w, r, report.ToMap())
}

// Summary handles GET /api/quality/summary
func (h *QualityHandler) Summary(w http.ResponseWriter, r *http.Request) {
	report := h.runner.LastReport()
	if report == nil {
		h.handler.HandleError(w, r, errors.ErrReportNotFound)
		return
	}

	render.JSON(w, r, map[string]any{
		"overall_score":   report.OverallScore,
		"total_records":   report.TotalRecords,
		"critical_issues": len(report.CriticalIssues()),
		"warnings":        len(report.Warnings()),
		"failed_metrics":  len(report.FailedMetrics()),
	})
}
