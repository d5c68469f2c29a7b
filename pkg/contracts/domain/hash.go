package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cast"
)

// Separators for the canonical encoding. Control characters keep the
// encoding unambiguous for ordinary cell values.
const (
	fieldSep = "\x1f"
	rowSep   = "\x1e"
)

// ContentHash returns a deterministic SHA-256 hex digest of the dataset
// content. The encoding is row-major: column names first (sorted), then
// each row in order with cells in sorted-column order. Two datasets with
// the same rows in a different order hash differently.
func (d *Dataset) ContentHash() string {
	columns := append([]string{}, d.Columns...)
	sort.Strings(columns)

	h := sha256.New()
	h.Write([]byte(strings.Join(columns, fieldSep)))
	h.Write([]byte(rowSep))
	for _, row := range d.Rows {
		for j, col := range columns {
			if j > 0 {
				h.Write([]byte(fieldSep))
			}
			h.Write([]byte(canonicalCell(row[col])))
		}
		h.Write([]byte(rowSep))
	}
	return hex.EncodeToString(h.Sum(nil))
}

// Fingerprint returns a canonical encoding of a single row over the given
// columns, used for exact-duplicate detection.
func (r Row) Fingerprint(columns []string) string {
	sorted := append([]string{}, columns...)
	sort.Strings(sorted)

	parts := make([]string, 0, len(sorted))
	for _, col := range sorted {
		parts = append(parts, canonicalCell(r[col]))
	}
	return strings.Join(parts, fieldSep)
}

// canonicalCell renders a cell value deterministically. Floats use the
// shortest round-trip representation so 1.0 and 1 encode identically
// regardless of how the value was produced.
func canonicalCell(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case float64:
		if math.IsNaN(val) {
			return ""
		}
		return strconv.FormatFloat(val, 'g', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(val), 'g', -1, 64)
	case int:
		return strconv.FormatFloat(float64(val), 'g', -1, 64)
	case int64:
		return strconv.FormatFloat(float64(val), 'g', -1, 64)
	case time.Time:
		return val.UTC().Format(time.RFC3339Nano)
	default:
		return cast.ToString(v)
	}
}
