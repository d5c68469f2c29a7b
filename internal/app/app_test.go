package app

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"salesetl/internal/config"
	"salesetl/internal/infrastructure"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()
	cfg := config.Default()
	cfg.Logging.Output = "console"
	cfg.Cache.Dir = filepath.Join(dir, "cache")
	cfg.Pipeline.SourcePath = filepath.Join(dir, "sales.csv")
	cfg.Pipeline.OutputDir = filepath.Join(dir, "out")
	cfg.Pipeline.ReportsDir = filepath.Join(dir, "reports")
	cfg.Database.DSN = filepath.Join(dir, "sales.db")
	return cfg
}

func TestNewApplicationWiresComponents(t *testing.T) {
	infrastructure.ResetLoggerForTesting()
	cfg := testConfig(t)

	application, err := NewApplication(cfg)
	require.NoError(t, err)

	assert.NotNil(t, application.Runner)
	assert.NotNil(t, application.CacheManager)
	assert.NotNil(t, application.Server)
	assert.Equal(t, ":8080", application.Server.Addr)
}

func TestNewApplicationCacheDisabled(t *testing.T) {
	infrastructure.ResetLoggerForTesting()
	cfg := testConfig(t)
	cfg.Cache.Enabled = false

	application, err := NewApplication(cfg)
	require.NoError(t, err)
	assert.Nil(t, application.CacheManager)
}

func TestNewApplicationRejectsBadSource(t *testing.T) {
	infrastructure.ResetLoggerForTesting()
	cfg := testConfig(t)
	cfg.Pipeline.Source = "ftp"

	_, err := NewApplication(cfg)
	assert.Error(t, err)
}

func TestNewApplicationDatabaseSource(t *testing.T) {
	infrastructure.ResetLoggerForTesting()
	cfg := testConfig(t)
	cfg.Pipeline.Source = "database"
	cfg.Pipeline.SourceQuery = "SELECT * FROM raw_sales"

	application, err := NewApplication(cfg)
	require.NoError(t, err)
	assert.NotNil(t, application.Runner)
}

func TestNewApplicationAPISourceNeedsURL(t *testing.T) {
	infrastructure.ResetLoggerForTesting()
	cfg := testConfig(t)
	cfg.Pipeline.Source = "api"
	cfg.Pipeline.SourceURL = ""

	_, err := NewApplication(cfg)
	assert.ErrorContains(t, err, "source_url")
}
