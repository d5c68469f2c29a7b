// Package load provides destination adapters that persist a transformed
// Dataset: relational databases via GORM and flat CSV/JSON exports.
package load

import (
	"context"
	"strconv"
	"time"

	"github.com/spf13/cast"

	"salesetl/pkg/contracts/domain"
)

// Destination persists a dataset somewhere.
type Destination interface {
	Load(ctx context.Context, ds *domain.Dataset) error
}

// formatCell renders a dataset cell for flat-file output. Missing cells
// become empty strings; dates use ISO layout.
func formatCell(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case time.Time:
		return val.Format("2006-01-02")
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(val), 'f', -1, 32)
	case string:
		return val
	default:
		return cast.ToString(v)
	}
}
