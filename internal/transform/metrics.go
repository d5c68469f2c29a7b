package transform

import (
	"context"
	"fmt"
	"log/slog"

	"salesetl/pkg/contracts/domain"
)

// MetricsCalculator derives financial metric columns from the base
// sales columns.
type MetricsCalculator struct {
	logger *slog.Logger
}

// NewMetricsCalculator creates a metrics calculator.
func NewMetricsCalculator(logger *slog.Logger) *MetricsCalculator {
	if logger == nil {
		logger = slog.Default()
	}
	return &MetricsCalculator{logger: logger}
}

// Calculate returns a copy of the dataset with derived columns:
//
//	total_sales     = quantity * unit_price * (1 - discount)  (only if absent)
//	gross_sales     = quantity * unit_price
//	discount_amount = gross_sales * discount
//	profit_margin   = (total_sales - discount_amount) / gross_sales
//
// profit_margin is stored as missing when gross_sales is zero.
func (m *MetricsCalculator) Calculate(ctx context.Context, ds *domain.Dataset) (*domain.Dataset, error) {
	out := ds.Clone()

	deriveTotal := !out.HasColumn(domain.ColTotalSales)
	if deriveTotal {
		out.AddColumn(domain.ColTotalSales)
	}
	out.AddColumn(domain.ColGrossSales)
	out.AddColumn(domain.ColDiscountAmount)
	out.AddColumn(domain.ColProfitMargin)

	for i, row := range out.Rows {
		quantity, err := requireFloat(out, i, domain.ColQuantity)
		if err != nil {
			return nil, err
		}
		unitPrice, err := requireFloat(out, i, domain.ColUnitPrice)
		if err != nil {
			return nil, err
		}
		discount, err := requireFloat(out, i, domain.ColDiscount)
		if err != nil {
			return nil, err
		}

		if deriveTotal {
			row[domain.ColTotalSales] = quantity * unitPrice * (1 - discount)
		}
		totalSales, err := requireFloat(out, i, domain.ColTotalSales)
		if err != nil {
			return nil, err
		}

		grossSales := quantity * unitPrice
		discountAmount := grossSales * discount

		row[domain.ColGrossSales] = grossSales
		row[domain.ColDiscountAmount] = discountAmount
		if grossSales == 0 {
			// Division by zero; propagate as missing, not a crash.
			row[domain.ColProfitMargin] = nil
		} else {
			row[domain.ColProfitMargin] = (totalSales - discountAmount) / grossSales
		}
	}

	m.logger.InfoContext(ctx, "calculated sales metrics",
		slog.Int("rows", out.Len()),
		slog.Bool("derived_total_sales", deriveTotal))
	return out, nil
}

// requireFloat coerces a cell to float64, failing on missing or
// non-numeric values. The cleaner runs first, so missing cells here mean
// the input skipped cleaning.
func requireFloat(ds *domain.Dataset, i int, column string) (float64, error) {
	v, ok := ds.Float(i, column)
	if !ok {
		return 0, fmt.Errorf("missing or non-numeric value in column %s at row %d", column, i)
	}
	return v, nil
}
