package transform

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"salesetl/pkg/contracts/domain"
)

func TestCalculateDerivesTotalSalesWhenAbsent(t *testing.T) {
	ds := domain.NewDataset("quantity", "unit_price", "discount")
	ds.Append(domain.Row{"quantity": 10.0, "unit_price": 5.0, "discount": 0.2})

	got, err := NewMetricsCalculator(nil).Calculate(context.Background(), ds)
	require.NoError(t, err)

	total, ok := got.Float(0, "total_sales")
	require.True(t, ok)
	assert.InDelta(t, 40.0, total, 1e-9) // 10 * 5 * (1 - 0.2)
}

func TestCalculateKeepsExistingTotalSales(t *testing.T) {
	ds := domain.NewDataset("quantity", "unit_price", "discount", "total_sales")
	ds.Append(domain.Row{"quantity": 10.0, "unit_price": 5.0, "discount": 0.0, "total_sales": 47.5})

	got, err := NewMetricsCalculator(nil).Calculate(context.Background(), ds)
	require.NoError(t, err)

	total, _ := got.Float(0, "total_sales")
	assert.Equal(t, 47.5, total, "present total_sales is never recomputed")
}

func TestCalculateExampleScenario(t *testing.T) {
	ds := domain.NewDataset("quantity", "unit_price", "discount", "total_sales")
	ds.Append(domain.Row{"quantity": 10.0, "unit_price": 5.0, "discount": 0.0, "total_sales": 50.0})
	ds.Append(domain.Row{"quantity": 20.0, "unit_price": 5.0, "discount": 0.0, "total_sales": 100.0})
	ds.Append(domain.Row{"quantity": 30.0, "unit_price": 5.0, "discount": 0.0, "total_sales": 150.0})

	got, err := NewMetricsCalculator(nil).Calculate(context.Background(), ds)
	require.NoError(t, err)

	wantGross := []float64{50, 100, 150}
	for i := range wantGross {
		gross, _ := got.Float(i, "gross_sales")
		assert.Equal(t, wantGross[i], gross)

		discount, _ := got.Float(i, "discount_amount")
		assert.Equal(t, 0.0, discount)

		margin, _ := got.Float(i, "profit_margin")
		assert.Equal(t, 1.0, margin)
	}
}

func TestCalculateZeroGrossSalesYieldsMissingMargin(t *testing.T) {
	ds := domain.NewDataset("quantity", "unit_price", "discount", "total_sales")
	ds.Append(domain.Row{"quantity": 0.0, "unit_price": 5.0, "discount": 0.0, "total_sales": 0.0})

	got, err := NewMetricsCalculator(nil).Calculate(context.Background(), ds)
	require.NoError(t, err)

	assert.True(t, got.IsMissing(0, "profit_margin"),
		"undefined margin propagates as missing, not a crash")
	gross, _ := got.Float(0, "gross_sales")
	assert.Equal(t, 0.0, gross)
}

func TestCalculateWithDiscount(t *testing.T) {
	ds := domain.NewDataset("quantity", "unit_price", "discount", "total_sales")
	ds.Append(domain.Row{"quantity": 4.0, "unit_price": 25.0, "discount": 0.1, "total_sales": 90.0})

	got, err := NewMetricsCalculator(nil).Calculate(context.Background(), ds)
	require.NoError(t, err)

	gross, _ := got.Float(0, "gross_sales")
	assert.InDelta(t, 100.0, gross, 1e-9)

	amount, _ := got.Float(0, "discount_amount")
	assert.InDelta(t, 10.0, amount, 1e-9)

	margin, _ := got.Float(0, "profit_margin")
	assert.InDelta(t, 0.8, margin, 1e-9) // (90 - 10) / 100
}

func TestCalculateFailsOnMissingBaseColumn(t *testing.T) {
	ds := domain.NewDataset("quantity", "unit_price")
	ds.Append(domain.Row{"quantity": 1.0, "unit_price": 2.0})

	_, err := NewMetricsCalculator(nil).Calculate(context.Background(), ds)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "discount")
}
