package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/render"

	"salesetl/internal/errors"
	"salesetl/internal/pipeline"
)

// PipelineHandler exposes pipeline runs over the API.
type PipelineHandler struct {
	runner  *pipeline.Runner
	handler *errors.ErrorHandler
	logger  *slog.Logger
}

// NewPipelineHandler creates a new pipeline handler
func NewPipelineHandler(runner *pipeline.Runner, handler *errors.ErrorHandler, logger *slog.Logger) *PipelineHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &PipelineHandler{
		runner:  runner,
		handler: handler,
		logger:  logger.With(slog.String("handler", "pipeline")),
	}
}

// Run handles POST /api/pipeline/run. The run executes synchronously;
// a concurrent request while one is in progress gets a 409.
func (h *PipelineHandler) Run(w http.ResponseWriter, r *http.Request) {
	state, err := h.runner.Run(r.Context())
	if err != nil {
		if state == nil {
			// Rejected before starting (already running).
			h.handler.HandleError(w, r, err)
			return
		}
		// The run started and failed; return the state alongside the
		// problem so callers can inspect which step broke.
		h.logger.ErrorContext(r.Context(), "pipeline run failed over api",
			slog.String("run_id", state.ID),
			slog.String("error", err.Error()))
		h.handler.HandleError(w, r, err)
		return
	}

	snap := state.Snapshot()
	render.JSON(w, r, map[string]any{
		"success": true,
		"run":     snap,
	})
}

// Status handles GET /api/pipeline/status
func (h *PipelineHandler) Status(w http.ResponseWriter, r *http.Request) {
	state := h.runner.LastState()
	if state == nil {
		h.handler.HandleError(w, r, errors.ErrRunNotFound)
		return
	}
	snap := state.Snapshot()
	render.JSON(w, r, map[string]any{
		"running": h.runner.Running(),
		"run":     snap,
	})
}
