package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	cfg := Default()

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "cache/transform", cfg.Cache.Dir)
	assert.Equal(t, 24, cfg.Cache.TTLHours)
	assert.Equal(t, 95.0, cfg.Quality.CompletenessThreshold)
	assert.Equal(t, 99.0, cfg.Quality.AccuracyThreshold)
	assert.Equal(t, 0.01, cfg.Quality.ConsistencyTolerance)
	assert.Equal(t, 30, cfg.Quality.FreshnessWindowDays)
	assert.Equal(t, 3, cfg.Retry.MaxAttempts)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
}

func TestDefaultWeightsSumToOne(t *testing.T) {
	cfg := Default()

	require.Len(t, cfg.Quality.OverallWeights, 5)
	var sum float64
	for _, w := range cfg.Quality.OverallWeights {
		sum += w
	}
	assert.InDelta(t, 1.0, sum, 1e-9)
	assert.Equal(t, 0.25, cfg.Quality.OverallWeights["completeness"])
	assert.Equal(t, 0.10, cfg.Quality.OverallWeights["timeliness"])
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("ETL_CACHE_TTL_HOURS", "48")
	t.Setenv("ETL_QUALITY_MIN_SCORE", "90")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 48, cfg.Cache.TTLHours)
	assert.Equal(t, 90.0, cfg.Quality.MinScore)
}

func TestLoadFromFileOverlay(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "etl.yaml")
	content := []byte("cache:\n  dir: /tmp/etl-cache\npipeline:\n  source: excel\n")
	require.NoError(t, os.WriteFile(path, content, 0644))

	t.Setenv("ETL_CONFIG_FILE", path)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "/tmp/etl-cache", cfg.Cache.Dir)
	assert.Equal(t, "excel", cfg.Pipeline.Source)
}

func TestValidateRejectsBadWeights(t *testing.T) {
	cfg := Default()
	cfg.Quality.OverallWeights = map[string]float64{
		"completeness": 0.9,
		"accuracy":     0.9,
	}

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "weights")
}

func TestValidateRejectsUnknownSource(t *testing.T) {
	cfg := Default()
	cfg.Pipeline.Source = "ftp"

	assert.Error(t, cfg.Validate())
}
