// Package cache implements a content-addressed filesystem cache for
// dataset transformations. Entries are keyed by (operation name, content
// hash of the input dataset) and expire after a fixed time-to-live.
//
// The cache is an optimization, never a correctness requirement: every
// read or write error is logged and treated as a miss, and callers must
// always be prepared to recompute. The cache directory is a shared
// mutable resource; concurrent writers are last-writer-wins.
package cache

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"salesetl/internal/monitoring"
	"salesetl/pkg/contracts/domain"
)

// fileExt is the extension for cache entry files.
const fileExt = ".msgpack"

// DefaultTTL is the default entry time-to-live.
const DefaultTTL = 24 * time.Hour

// Manager owns a cache directory and its time-to-live policy.
type Manager struct {
	dir    string
	ttl    time.Duration
	logger *slog.Logger
}

// Stats describes the current state of the cache directory.
type Stats struct {
	FileCount      int     `json:"file_count"`
	TotalSizeBytes int64   `json:"total_size_bytes"`
	ExpiredCount   int     `json:"expired_count"`
	TTLHours       float64 `json:"ttl_hours"`
	Dir            string  `json:"dir"`
}

// NewManager creates a cache manager rooted at dir. The directory is
// created if it does not exist.
func NewManager(dir string, ttl time.Duration, logger *slog.Logger) (*Manager, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create cache directory %s: %w", dir, err)
	}
	return &Manager{dir: dir, ttl: ttl, logger: logger}, nil
}

// key builds the composite cache key for an operation and input dataset.
func (m *Manager) key(operation string, input *domain.Dataset) string {
	return operation + "_" + input.ContentHash()
}

func (m *Manager) path(key string) string {
	return filepath.Join(m.dir, key+fileExt)
}

// Get returns the cached output for (operation, input), or nil on a miss.
// An expired entry is removed as a side effect of the lookup. Any I/O or
// decode error is logged and reported as a miss.
func (m *Manager) Get(operation string, input *domain.Dataset) *domain.Dataset {
	key := m.key(operation, input)
	path := m.path(key)

	info, err := os.Stat(path)
	if err != nil {
		monitoring.CacheMisses.WithLabelValues(operation).Inc()
		return nil
	}

	if time.Since(info.ModTime()) > m.ttl {
		m.logger.Info("cache entry expired",
			slog.String("operation", operation),
			slog.String("key", key))
		if err := os.Remove(path); err != nil {
			m.logger.Warn("failed to remove expired cache entry",
				slog.String("key", key),
				slog.String("error", err.Error()))
		}
		monitoring.CacheMisses.WithLabelValues(operation).Inc()
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		m.logger.Warn("failed to read cache entry",
			slog.String("key", key),
			slog.String("error", err.Error()))
		monitoring.CacheMisses.WithLabelValues(operation).Inc()
		return nil
	}

	ds, err := domain.UnmarshalSnapshot(data)
	if err != nil {
		m.logger.Warn("failed to decode cache entry",
			slog.String("key", key),
			slog.String("error", err.Error()))
		monitoring.CacheMisses.WithLabelValues(operation).Inc()
		return nil
	}

	m.logger.Info("using cached result",
		slog.String("operation", operation),
		slog.Int("rows", ds.Len()))
	monitoring.CacheHits.WithLabelValues(operation).Inc()
	return ds
}

// Set stores the output dataset for (operation, input). Failures are
// logged and otherwise ignored.
func (m *Manager) Set(operation string, input, output *domain.Dataset) {
	key := m.key(operation, input)

	data, err := output.MarshalSnapshot()
	if err != nil {
		m.logger.Warn("failed to encode cache entry",
			slog.String("key", key),
			slog.String("error", err.Error()))
		return
	}

	if err := os.WriteFile(m.path(key), data, 0644); err != nil {
		m.logger.Warn("failed to write cache entry",
			slog.String("key", key),
			slog.String("error", err.Error()))
		return
	}

	m.logger.Debug("cached result",
		slog.String("operation", operation),
		slog.String("key", key))
}

// ClearExpired removes all entries older than the time-to-live.
func (m *Manager) ClearExpired() {
	entries, err := os.ReadDir(m.dir)
	if err != nil {
		m.logger.Error("failed to list cache directory",
			slog.String("dir", m.dir),
			slog.String("error", err.Error()))
		return
	}

	for _, entry := range entries {
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if time.Since(info.ModTime()) > m.ttl {
			path := filepath.Join(m.dir, entry.Name())
			if err := os.Remove(path); err != nil {
				m.logger.Warn("failed to remove expired cache file",
					slog.String("file", entry.Name()),
					slog.String("error", err.Error()))
				continue
			}
			m.logger.Info("removed expired cache file",
				slog.String("file", entry.Name()))
		}
	}
}

// ClearAll removes every entry in the cache directory.
func (m *Manager) ClearAll() {
	entries, err := os.ReadDir(m.dir)
	if err != nil {
		m.logger.Error("failed to list cache directory",
			slog.String("dir", m.dir),
			slog.String("error", err.Error()))
		return
	}
	for _, entry := range entries {
		if err := os.Remove(filepath.Join(m.dir, entry.Name())); err != nil {
			m.logger.Warn("failed to remove cache file",
				slog.String("file", entry.Name()),
				slog.String("error", err.Error()))
		}
	}
	m.logger.Info("cleared all cache entries", slog.String("dir", m.dir))
}

// GetCacheStats reports file count, total size, and expired entry count.
func (m *Manager) GetCacheStats() Stats {
	stats := Stats{
		TTLHours: m.ttl.Hours(),
		Dir:      m.dir,
	}

	entries, err := os.ReadDir(m.dir)
	if err != nil {
		m.logger.Error("failed to stat cache directory",
			slog.String("dir", m.dir),
			slog.String("error", err.Error()))
		return stats
	}

	for _, entry := range entries {
		info, err := entry.Info()
		if err != nil {
			continue
		}
		stats.FileCount++
		stats.TotalSizeBytes += info.Size()
		if time.Since(info.ModTime()) > m.ttl {
			stats.ExpiredCount++
		}
	}
	return stats
}
