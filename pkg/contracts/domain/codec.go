package domain

import (
	"fmt"

	"github.com/vmihailenco/msgpack/v5"
)

// snapshot is the wire form of a dataset used for cache persistence.
type snapshot struct {
	Columns []string         `msgpack:"columns"`
	Rows    []map[string]any `msgpack:"rows"`
}

// MarshalSnapshot encodes the dataset as a msgpack snapshot suitable for
// cache persistence. time.Time cells round-trip via the msgpack time
// extension.
func (d *Dataset) MarshalSnapshot() ([]byte, error) {
	s := snapshot{
		Columns: d.Columns,
		Rows:    make([]map[string]any, 0, len(d.Rows)),
	}
	for _, row := range d.Rows {
		s.Rows = append(s.Rows, map[string]any(row))
	}
	data, err := msgpack.Marshal(&s)
	if err != nil {
		return nil, fmt.Errorf("marshal dataset snapshot: %w", err)
	}
	return data, nil
}

// UnmarshalSnapshot decodes a msgpack snapshot back into a dataset.
func UnmarshalSnapshot(data []byte) (*Dataset, error) {
	var s snapshot
	if err := msgpack.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("unmarshal dataset snapshot: %w", err)
	}
	out := NewDataset(s.Columns...)
	for _, row := range s.Rows {
		out.Append(Row(row))
	}
	return out, nil
}
