// Package extract provides source adapters that read raw sales records
// into a Dataset. Adapters normalize cells on the way in: empty cells
// become nil, numeric-looking strings become float64, everything else
// is kept verbatim for the downstream quality checks to judge.
package extract

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"salesetl/pkg/contracts/domain"
)

// Source reads sales records from some origin into a Dataset.
type Source interface {
	Extract(ctx context.Context) (*domain.Dataset, error)
}

// ValidateSchema checks that the dataset carries every required column.
func ValidateSchema(ds *domain.Dataset) error {
	var missing []string
	for _, col := range domain.RequiredColumns {
		if !ds.HasColumn(col) {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("dataset missing required columns: %s", strings.Join(missing, ", "))
	}
	return nil
}

// coerceCell converts a raw string cell into its dataset representation.
// Empty cells are missing; parseable numbers become float64; anything
// else stays a string.
func coerceCell(raw string) any {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil
	}
	if v, err := strconv.ParseFloat(trimmed, 64); err == nil {
		return v
	}
	return trimmed
}
