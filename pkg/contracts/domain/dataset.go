package domain

import (
	"time"

	"github.com/spf13/cast"
)

// Row maps a column name to a cell value. A nil value means the cell is
// missing. Cells hold one of: float64, int, string, time.Time.
type Row map[string]any

// Dataset is an in-memory ordered table of rows with named columns.
// Column order and row order are both significant.
type Dataset struct {
	Columns []string `json:"columns"`
	Rows    []Row    `json:"rows"`
}

// NewDataset creates an empty dataset with the given column order.
func NewDataset(columns ...string) *Dataset {
	return &Dataset{
		Columns: append([]string{}, columns...),
		Rows:    []Row{},
	}
}

// Len returns the number of rows.
func (d *Dataset) Len() int {
	return len(d.Rows)
}

// HasColumn reports whether the named column exists.
func (d *Dataset) HasColumn(name string) bool {
	for _, c := range d.Columns {
		if c == name {
			return true
		}
	}
	return false
}

// AddColumn registers a new column name. Existing rows keep their values;
// cells for the new column are missing until set. No-op if already present.
func (d *Dataset) AddColumn(name string) {
	if !d.HasColumn(name) {
		d.Columns = append(d.Columns, name)
	}
}

// Append adds a row to the end of the dataset.
func (d *Dataset) Append(row Row) {
	d.Rows = append(d.Rows, row)
}

// Clone returns a deep copy of the dataset. Stages operate on copies so
// the caller's dataset is never mutated in place.
func (d *Dataset) Clone() *Dataset {
	out := NewDataset(d.Columns...)
	out.Rows = make([]Row, 0, len(d.Rows))
	for _, row := range d.Rows {
		nr := make(Row, len(row))
		for k, v := range row {
			nr[k] = v
		}
		out.Rows = append(out.Rows, nr)
	}
	return out
}

// Float returns the cell at (row, column) coerced to float64.
// The second return is false when the cell is missing or not numeric.
func (d *Dataset) Float(i int, column string) (float64, bool) {
	v, ok := d.Rows[i][column]
	if !ok || v == nil {
		return 0, false
	}
	f, err := cast.ToFloat64E(v)
	if err != nil {
		return 0, false
	}
	return f, true
}

// Time returns the cell at (row, column) coerced to time.Time.
// String cells are parsed with the usual date layouts.
func (d *Dataset) Time(i int, column string) (time.Time, bool) {
	v, ok := d.Rows[i][column]
	if !ok || v == nil {
		return time.Time{}, false
	}
	t, err := cast.ToTimeE(v)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// String returns the cell at (row, column) rendered as a string.
func (d *Dataset) String(i int, column string) (string, bool) {
	v, ok := d.Rows[i][column]
	if !ok || v == nil {
		return "", false
	}
	return cast.ToString(v), true
}

// IsMissing reports whether the cell at (row, column) is absent or nil.
func (d *Dataset) IsMissing(i int, column string) bool {
	v, ok := d.Rows[i][column]
	return !ok || v == nil
}

// FloatColumn returns all non-missing numeric values of a column, in row
// order. Non-numeric cells are skipped.
func (d *Dataset) FloatColumn(column string) []float64 {
	values := make([]float64, 0, len(d.Rows))
	for i := range d.Rows {
		if f, ok := d.Float(i, column); ok {
			values = append(values, f)
		}
	}
	return values
}

// Filter returns a new dataset containing only the rows for which keep
// returns true. Row order is preserved.
func (d *Dataset) Filter(keep func(i int) bool) *Dataset {
	out := NewDataset(d.Columns...)
	for i, row := range d.Rows {
		if keep(i) {
			out.Append(row)
		}
	}
	return out
}
