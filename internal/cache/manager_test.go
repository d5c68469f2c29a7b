package cache

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"salesetl/pkg/contracts/domain"
)

func testDataset(quantities ...int) *domain.Dataset {
	d := domain.NewDataset("product_id", "quantity")
	for i, q := range quantities {
		d.Append(domain.Row{"product_id": i + 1, "quantity": q})
	}
	return d
}

func newTestManager(t *testing.T, ttl time.Duration) *Manager {
	t.Helper()
	m, err := NewManager(t.TempDir(), ttl, nil)
	require.NoError(t, err)
	return m
}

func TestGetMissThenHit(t *testing.T) {
	m := newTestManager(t, time.Hour)
	input := testDataset(10, 20)
	output := testDataset(10)

	assert.Nil(t, m.Get("clean_data", input), "empty cache is a miss")

	m.Set("clean_data", input, output)

	got := m.Get("clean_data", input)
	require.NotNil(t, got)
	assert.Equal(t, output.ContentHash(), got.ContentHash())
}

func TestKeyIncludesOperation(t *testing.T) {
	m := newTestManager(t, time.Hour)
	input := testDataset(10)

	m.Set("clean_data", input, testDataset(10))

	assert.Nil(t, m.Get("calculate_metrics", input),
		"same input under a different operation must miss")
}

func TestKeyIsOrderSensitive(t *testing.T) {
	m := newTestManager(t, time.Hour)

	a := testDataset(10, 20)
	b := domain.NewDataset(a.Columns...)
	b.Append(a.Rows[1])
	b.Append(a.Rows[0])

	m.Set("clean_data", a, testDataset(10))

	assert.Nil(t, m.Get("clean_data", b),
		"reordered rows form a different cache key")
}

func TestExpiredEntryRemovedOnLookup(t *testing.T) {
	m := newTestManager(t, time.Hour)
	input := testDataset(10)
	m.Set("clean_data", input, testDataset(10))

	// Age the entry past the TTL.
	path := m.path(m.key("clean_data", input))
	old := time.Now().Add(-2 * time.Hour)
	require.NoError(t, os.Chtimes(path, old, old))

	assert.Nil(t, m.Get("clean_data", input))
	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err), "expired entry is deleted by lookup")
}

func TestClearExpired(t *testing.T) {
	m := newTestManager(t, time.Hour)
	fresh := testDataset(1)
	stale := testDataset(2)
	m.Set("clean_data", fresh, fresh)
	m.Set("clean_data", stale, stale)

	stalePath := m.path(m.key("clean_data", stale))
	old := time.Now().Add(-2 * time.Hour)
	require.NoError(t, os.Chtimes(stalePath, old, old))

	m.ClearExpired()

	stats := m.GetCacheStats()
	assert.Equal(t, 1, stats.FileCount)
	assert.Equal(t, 0, stats.ExpiredCount)
}

func TestClearAll(t *testing.T) {
	m := newTestManager(t, time.Hour)
	m.Set("clean_data", testDataset(1), testDataset(1))
	m.Set("clean_data", testDataset(2), testDataset(2))

	m.ClearAll()

	assert.Equal(t, 0, m.GetCacheStats().FileCount)
}

func TestGetCacheStats(t *testing.T) {
	m := newTestManager(t, time.Hour)
	m.Set("clean_data", testDataset(1), testDataset(1, 2, 3))

	stats := m.GetCacheStats()
	assert.Equal(t, 1, stats.FileCount)
	assert.Greater(t, stats.TotalSizeBytes, int64(0))
	assert.Equal(t, 1.0, stats.TTLHours)
	assert.Equal(t, m.dir, stats.Dir)
}

func TestCorruptEntryIsAMiss(t *testing.T) {
	m := newTestManager(t, time.Hour)
	input := testDataset(10)
	m.Set("clean_data", input, testDataset(10))

	path := m.path(m.key("clean_data", input))
	require.NoError(t, os.WriteFile(path, []byte("not msgpack"), 0644))

	assert.Nil(t, m.Get("clean_data", input), "decode failure degrades to a miss")
}

func TestSetIsNonFatalOnWriteFailure(t *testing.T) {
	dir := t.TempDir()
	m, err := NewManager(filepath.Join(dir, "cache"), time.Hour, nil)
	require.NoError(t, err)

	// Make the directory unwritable; Set must not panic or error out.
	require.NoError(t, os.Chmod(filepath.Join(dir, "cache"), 0555))
	t.Cleanup(func() { os.Chmod(filepath.Join(dir, "cache"), 0755) })

	assert.NotPanics(t, func() {
		m.Set("clean_data", testDataset(1), testDataset(1))
	})
}
