package transform

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"salesetl/internal/cache"
	"salesetl/pkg/contracts/domain"
)

func pipelineInput() *domain.Dataset {
	ds := domain.NewDataset("date", "product_id", "quantity", "unit_price", "discount", "total_sales")
	rows := []struct {
		q, ts float64
		id    string
	}{
		{10, 50, "P001"},
		{20, 100, "P002"},
		{30, 150, "P003"},
	}
	for _, r := range rows {
		ds.Append(domain.Row{
			"date":        "2024-06-01",
			"product_id":  r.id,
			"quantity":    r.q,
			"unit_price":  5.0,
			"discount":    0.0,
			"total_sales": r.ts,
		})
	}
	return ds
}

func testClock() func() time.Time {
	return fixedClock(time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC))
}

func TestTransformEndToEnd(t *testing.T) {
	p := NewPipeline(nil, nil, testClock())

	got, err := p.Transform(context.Background(), pipelineInput())
	require.NoError(t, err)
	require.Equal(t, 3, got.Len())

	for _, col := range []string{"gross_sales", "discount_amount", "profit_margin", "total_sales"} {
		assert.True(t, got.HasColumn(col), col)
	}

	gross, _ := got.Float(0, "gross_sales")
	assert.Equal(t, 50.0, gross)
	margin, _ := got.Float(2, "profit_margin")
	assert.Equal(t, 1.0, margin)
}

func TestTransformIdempotentViaCache(t *testing.T) {
	cm, err := cache.NewManager(t.TempDir(), time.Hour, nil)
	require.NoError(t, err)
	p := NewPipeline(cm, nil, testClock())

	first, err := p.Transform(context.Background(), pipelineInput())
	require.NoError(t, err)

	statsAfterFirst := cm.GetCacheStats()
	require.Greater(t, statsAfterFirst.FileCount, 0)

	second, err := p.Transform(context.Background(), pipelineInput())
	require.NoError(t, err)

	assert.Equal(t, first.ContentHash(), second.ContentHash(),
		"transform is bit-identical for identical input")
	assert.Equal(t, statsAfterFirst.FileCount, cm.GetCacheStats().FileCount,
		"second call is a cache hit, no new entries written")
}

func TestTransformStageReuseAcrossCallers(t *testing.T) {
	cm, err := cache.NewManager(t.TempDir(), time.Hour, nil)
	require.NoError(t, err)

	// One pipeline warms the per-stage entries; a fresh pipeline sharing
	// the same cache directory reuses them.
	warm := NewPipeline(cm, nil, testClock())
	_, err = warm.Transform(context.Background(), pipelineInput())
	require.NoError(t, err)

	count := cm.GetCacheStats().FileCount
	fresh := NewPipeline(cm, nil, testClock())
	_, err = fresh.Transform(context.Background(), pipelineInput())
	require.NoError(t, err)

	assert.Equal(t, count, cm.GetCacheStats().FileCount)
}

func TestTransformStageErrorAborts(t *testing.T) {
	p := NewPipeline(nil, nil, testClock())
	ds := domain.NewDataset("date", "quantity", "unit_price", "discount")
	ds.Append(domain.Row{"date": "garbage", "quantity": 1.0, "unit_price": 1.0, "discount": 0.0})

	_, err := p.Transform(context.Background(), ds)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid date")
}

func TestTransformDropsDuplicateAndFutureRows(t *testing.T) {
	ds := pipelineInput()
	ds.Append(ds.Rows[0]) // duplicate
	ds.Append(domain.Row{
		"date":        "2030-01-01", // future
		"product_id":  "P009",
		"quantity":    1.0,
		"unit_price":  5.0,
		"discount":    0.0,
		"total_sales": 5.0,
	})

	p := NewPipeline(nil, nil, testClock())
	got, err := p.Transform(context.Background(), ds)
	require.NoError(t, err)
	assert.Equal(t, 3, got.Len())
}
