package transform

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"salesetl/pkg/contracts/domain"
)

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func TestValidateDatesParsesAndKeepsPastDates(t *testing.T) {
	now := time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)
	ds := domain.NewDataset("date", "quantity")
	ds.Append(domain.Row{"date": "2024-06-01", "quantity": 1.0})
	ds.Append(domain.Row{"date": "2024-05-20", "quantity": 2.0})

	got, err := NewDateValidator(nil, fixedClock(now)).Validate(context.Background(), ds)
	require.NoError(t, err)
	require.Equal(t, 2, got.Len())

	ts, ok := got.Time(0, "date")
	require.True(t, ok)
	assert.Equal(t, time.June, ts.Month())
}

func TestValidateDatesDropsFutureRows(t *testing.T) {
	now := time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC)
	ds := domain.NewDataset("date")
	ds.Append(domain.Row{"date": "2024-06-10"})
	ds.Append(domain.Row{"date": "2024-07-01"}) // future
	ds.Append(domain.Row{"date": now})          // exactly now is kept

	got, err := NewDateValidator(nil, fixedClock(now)).Validate(context.Background(), ds)
	require.NoError(t, err)
	assert.Equal(t, 2, got.Len())
}

func TestValidateDatesFailsOnUnparseableDate(t *testing.T) {
	ds := domain.NewDataset("date")
	ds.Append(domain.Row{"date": "not-a-date"})

	_, err := NewDateValidator(nil, nil).Validate(context.Background(), ds)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid date")
}

func TestValidateDatesNoDateColumn(t *testing.T) {
	ds := domain.NewDataset("quantity")
	ds.Append(domain.Row{"quantity": 1.0})

	got, err := NewDateValidator(nil, nil).Validate(context.Background(), ds)
	require.NoError(t, err)
	assert.Equal(t, 1, got.Len())
}

func TestStandardizeNormalizesColumnNames(t *testing.T) {
	ds := domain.NewDataset(" Unit Price ", "Product ID", "quantity")
	ds.Append(domain.Row{" Unit Price ": 5.0, "Product ID": "P001", "quantity": 2.0})

	got, err := NewColumnStandardizer(nil).Standardize(context.Background(), ds)
	require.NoError(t, err)

	assert.Equal(t, []string{"unit_price", "product_id", "quantity"}, got.Columns)
	v, ok := got.Float(0, "unit_price")
	require.True(t, ok)
	assert.Equal(t, 5.0, v)
}

func TestStandardizeRoundsNumericCells(t *testing.T) {
	ds := domain.NewDataset("unit_price", "profit_margin", "product_id")
	ds.Append(domain.Row{"unit_price": 5.4567, "profit_margin": 0.98765, "product_id": "P001"})

	got, err := NewColumnStandardizer(nil).Standardize(context.Background(), ds)
	require.NoError(t, err)

	price, _ := got.Float(0, "unit_price")
	assert.Equal(t, 5.46, price)

	margin, _ := got.Float(0, "profit_margin")
	assert.Equal(t, 0.99, margin)

	id, _ := got.String(0, "product_id")
	assert.Equal(t, "P001", id, "string cells pass through untouched")
}
