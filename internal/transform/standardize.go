package transform

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	"salesetl/pkg/contracts/domain"
)

// DateValidator parses the date column and removes rows dated in the
// future. The reference clock is injectable for tests.
type DateValidator struct {
	logger *slog.Logger
	now    func() time.Time
}

// NewDateValidator creates a date validator using the given clock, or
// time.Now when nil.
func NewDateValidator(logger *slog.Logger, now func() time.Time) *DateValidator {
	if logger == nil {
		logger = slog.Default()
	}
	if now == nil {
		now = time.Now
	}
	return &DateValidator{logger: logger, now: now}
}

// Validate returns a copy of the dataset with the date column coerced to
// time.Time and rows strictly after "now" removed. An unparseable date
// is a fatal error.
func (v *DateValidator) Validate(ctx context.Context, ds *domain.Dataset) (*domain.Dataset, error) {
	out := ds.Clone()
	if !out.HasColumn(domain.ColDate) {
		return out, nil
	}

	cutoff := v.now()
	parsed := make([]time.Time, out.Len())
	for i := range out.Rows {
		t, ok := out.Time(i, domain.ColDate)
		if !ok {
			return nil, fmt.Errorf("invalid date value in row %d: %v", i, out.Rows[i][domain.ColDate])
		}
		parsed[i] = t
		out.Rows[i][domain.ColDate] = t
	}

	filtered := out.Filter(func(i int) bool { return !parsed[i].After(cutoff) })
	if dropped := out.Len() - filtered.Len(); dropped > 0 {
		v.logger.InfoContext(ctx, "removed future-dated rows",
			slog.Int("count", dropped))
	}
	return filtered, nil
}

// ColumnStandardizer normalizes column names and rounds numeric cells.
type ColumnStandardizer struct {
	logger *slog.Logger
}

// NewColumnStandardizer creates a column standardizer.
func NewColumnStandardizer(logger *slog.Logger) *ColumnStandardizer {
	if logger == nil {
		logger = slog.Default()
	}
	return &ColumnStandardizer{logger: logger}
}

// Standardize returns a copy of the dataset with column names trimmed,
// lower-cased, and space-to-underscore normalized, and every numeric
// cell rounded to two decimal places.
func (s *ColumnStandardizer) Standardize(ctx context.Context, ds *domain.Dataset) (*domain.Dataset, error) {
	out := domain.NewDataset()
	renames := make(map[string]string, len(ds.Columns))
	for _, col := range ds.Columns {
		name := standardizeName(col)
		renames[col] = name
		out.AddColumn(name)
	}

	for _, row := range ds.Rows {
		nr := make(domain.Row, len(row))
		for col, v := range row {
			name := renames[col]
			if name == "" {
				name = standardizeName(col)
			}
			nr[name] = roundNumeric(v)
		}
		out.Append(nr)
	}

	s.logger.DebugContext(ctx, "standardized columns",
		slog.Int("columns", len(out.Columns)))
	return out, nil
}

// standardizeName lower-cases, trims, and underscore-normalizes a column name.
func standardizeName(name string) string {
	return strings.ReplaceAll(strings.TrimSpace(strings.ToLower(name)), " ", "_")
}

// roundNumeric rounds numeric cells to 2 decimal places; everything else
// passes through unchanged.
func roundNumeric(v any) any {
	switch val := v.(type) {
	case float64:
		if math.IsNaN(val) || math.IsInf(val, 0) {
			return nil
		}
		return math.Round(val*100) / 100
	case float32:
		return math.Round(float64(val)*100) / 100
	default:
		return v
	}
}
