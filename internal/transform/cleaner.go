package transform

import (
	"context"
	"fmt"
	"log/slog"
	"math"

	"salesetl/internal/monitoring"
	"salesetl/pkg/contracts/domain"
)

// outlierColumns are filtered sequentially, in this order. A row removed
// by an earlier column's pass is excluded from the population used for
// the later ones.
var outlierColumns = []string{domain.ColQuantity, domain.ColUnitPrice, domain.ColTotalSales}

// outlierSigma is the symmetric standard-deviation bound for outlier removal.
const outlierSigma = 3.0

// Cleaner removes duplicate rows, fills missing numeric values, and drops
// statistical outliers.
type Cleaner struct {
	logger *slog.Logger
}

// NewCleaner creates a cleaner.
func NewCleaner(logger *slog.Logger) *Cleaner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Cleaner{logger: logger}
}

// Clean returns a cleaned copy of the dataset:
//
//  1. exact-duplicate rows removed (first occurrence wins),
//  2. missing values filled (quantity and discount with 0, unit_price
//     with the column mean),
//  3. rows beyond 3 standard deviations dropped per numeric column,
//     applied sequentially over quantity, unit_price, total_sales.
//
// A present but non-numeric cell in a numeric column is a fatal error.
func (c *Cleaner) Clean(ctx context.Context, ds *domain.Dataset) (*domain.Dataset, error) {
	out := ds.Clone()

	out, removed := c.dropDuplicates(out)
	if removed > 0 {
		c.logger.InfoContext(ctx, "removed duplicate rows",
			slog.Int("count", removed))
		monitoring.RecordsDropped.WithLabelValues("duplicate").Add(float64(removed))
	}

	if err := c.fillMissing(out); err != nil {
		return nil, err
	}

	for _, col := range outlierColumns {
		if !out.HasColumn(col) {
			continue
		}
		filtered, dropped, err := c.dropOutliers(out, col)
		if err != nil {
			return nil, err
		}
		if dropped > 0 {
			c.logger.InfoContext(ctx, "removed outlier rows",
				slog.String("column", col),
				slog.Int("count", dropped))
			monitoring.RecordsDropped.WithLabelValues("outlier").Add(float64(dropped))
		}
		out = filtered
	}

	return out, nil
}

// dropDuplicates removes rows whose full-row fingerprint has been seen.
func (c *Cleaner) dropDuplicates(ds *domain.Dataset) (*domain.Dataset, int) {
	seen := make(map[string]bool, ds.Len())
	out := ds.Filter(func(i int) bool {
		fp := ds.Rows[i].Fingerprint(ds.Columns)
		if seen[fp] {
			return false
		}
		seen[fp] = true
		return true
	})
	return out, ds.Len() - out.Len()
}

// fillMissing fills missing quantity and discount cells with zero and
// missing unit_price cells with the mean of the non-missing prices.
// The asymmetry is deliberate: a missing quantity or discount means none,
// a missing price is best approximated by the typical price.
func (c *Cleaner) fillMissing(ds *domain.Dataset) error {
	if ds.HasColumn(domain.ColQuantity) {
		if err := fillConstant(ds, domain.ColQuantity, 0.0); err != nil {
			return err
		}
	}
	if ds.HasColumn(domain.ColDiscount) {
		if err := fillConstant(ds, domain.ColDiscount, 0.0); err != nil {
			return err
		}
	}
	if ds.HasColumn(domain.ColUnitPrice) {
		mean, err := columnMean(ds, domain.ColUnitPrice)
		if err != nil {
			return err
		}
		if err := fillConstant(ds, domain.ColUnitPrice, mean); err != nil {
			return err
		}
	}
	return nil
}

// dropOutliers removes rows whose value in column deviates more than
// outlierSigma population standard deviations from the column mean.
// With zero deviation the bound is unreachable and nothing is dropped.
// Rows with a missing cell in the column are dropped with the outliers.
func (c *Cleaner) dropOutliers(ds *domain.Dataset, column string) (*domain.Dataset, int, error) {
	values := make([]float64, 0, ds.Len())
	missing := make([]bool, ds.Len())
	for i := range ds.Rows {
		if ds.IsMissing(i, column) {
			missing[i] = true
			continue
		}
		v, ok := ds.Float(i, column)
		if !ok {
			return nil, 0, fmt.Errorf("non-numeric value in column %s at row %d", column, i)
		}
		values = append(values, v)
	}

	if len(values) == 0 {
		return ds, 0, nil
	}

	mean, stddev := meanStddev(values)
	if stddev == 0 {
		// Constant column: the bound is unreachable, drop nothing.
		return ds, 0, nil
	}

	out := ds.Filter(func(i int) bool {
		if missing[i] {
			return false
		}
		v, _ := ds.Float(i, column)
		return math.Abs(v-mean) <= outlierSigma*stddev
	})
	return out, ds.Len() - out.Len(), nil
}

// fillConstant replaces missing cells in column with value.
func fillConstant(ds *domain.Dataset, column string, value float64) error {
	for i, row := range ds.Rows {
		if ds.IsMissing(i, column) {
			row[column] = value
			continue
		}
		if _, ok := ds.Float(i, column); !ok {
			return fmt.Errorf("non-numeric value in column %s at row %d", column, i)
		}
	}
	return nil
}

// columnMean returns the mean of the non-missing values of a column,
// or zero when every cell is missing.
func columnMean(ds *domain.Dataset, column string) (float64, error) {
	var sum float64
	var n int
	for i := range ds.Rows {
		if ds.IsMissing(i, column) {
			continue
		}
		v, ok := ds.Float(i, column)
		if !ok {
			return 0, fmt.Errorf("non-numeric value in column %s at row %d", column, i)
		}
		sum += v
		n++
	}
	if n == 0 {
		return 0, nil
	}
	return sum / float64(n), nil
}

// meanStddev returns the mean and population standard deviation.
func meanStddev(values []float64) (float64, float64) {
	var sum float64
	for _, v := range values {
		sum += v
	}
	mean := sum / float64(len(values))

	var sq float64
	for _, v := range values {
		d := v - mean
		sq += d * d
	}
	return mean, math.Sqrt(sq / float64(len(values)))
}
