package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/render"

	"salesetl/internal/cache"
	"salesetl/internal/errors"
)

// CacheHandler exposes transform cache maintenance endpoints.
type CacheHandler struct {
	manager *cache.Manager
	handler *errors.ErrorHandler
	logger  *slog.Logger
}

// NewCacheHandler creates a new cache handler
func NewCacheHandler(manager *cache.Manager, handler *errors.ErrorHandler, logger *slog.Logger) *CacheHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &CacheHandler{
		manager: manager,
		handler: handler,
		logger:  logger.With(slog.String("handler", "cache")),
	}
}

// Stats handles GET /api/cache/stats
func (h *CacheHandler) Stats(w http.ResponseWriter, r *http.Request) {
	if h.manager == nil {
		h.handler.HandleError(w, r, errors.New(http.StatusServiceUnavailable, "CACHE_DISABLED", "Transform cache is disabled"))
		return
	}
	render.JSON(w, r, h.manager.GetCacheStats())
}

// ClearExpired handles POST /api/cache/clear-expired
func (h *CacheHandler) ClearExpired(w http.ResponseWriter, r *http.Request) {
	if h.manager == nil {
		h.handler.HandleError(w, r, errors.New(http.StatusServiceUnavailable, "CACHE_DISABLED", "Transform cache is disabled"))
		return
	}
	before := h.manager.GetCacheStats()
	h.manager.ClearExpired()
	after := h.manager.GetCacheStats()
	render.JSON(w, r, map[string]any{
		"removed": before.FileCount - after.FileCount,
		"stats":   after,
	})
}

// Clear handles DELETE /api/cache
func (h *CacheHandler) Clear(w http.ResponseWriter, r *http.Request) {
	if h.manager == nil {
		h.handler.HandleError(w, r, errors.New(http.StatusServiceUnavailable, "CACHE_DISABLED", "Transform cache is disabled"))
		return
	}
	h.manager.ClearAll()
	render.JSON(w, r, map[string]any{"cleared": true})
}
