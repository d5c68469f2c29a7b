package extract

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"os"

	"salesetl/pkg/contracts/domain"
)

// CSVSource reads sales records from a CSV file with a header row.
type CSVSource struct {
	path   string
	logger *slog.Logger
}

// NewCSVSource creates a CSV source for the given file path.
func NewCSVSource(path string, logger *slog.Logger) *CSVSource {
	if logger == nil {
		logger = slog.Default()
	}
	return &CSVSource{path: path, logger: logger}
}

// Extract reads the whole file into a Dataset.
func (s *CSVSource) Extract(ctx context.Context) (*domain.Dataset, error) {
	file, err := os.Open(s.path)
	if err != nil {
		return nil, fmt.Errorf("open csv source %s: %w", s.path, err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1 // ragged rows are padded with nils below

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read csv header: %w", err)
	}

	ds := domain.NewDataset(header...)
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv row: %w", err)
		}

		row := make(domain.Row, len(header))
		for i, col := range header {
			if i < len(record) {
				row[col] = coerceCell(record[i])
			} else {
				row[col] = nil
			}
		}
		ds.Append(row)
	}

	s.logger.InfoContext(ctx, "csv extraction completed",
		slog.String("path", s.path),
		slog.Int("records", ds.Len()))
	return ds, nil
}
