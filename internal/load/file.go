package load

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"salesetl/pkg/contracts/domain"
)

// CSVWriter exports a dataset to a CSV file with a header row.
type CSVWriter struct {
	path   string
	logger *slog.Logger
}

// NewCSVWriter creates a CSV destination for the given output path.
func NewCSVWriter(path string, logger *slog.Logger) *CSVWriter {
	if logger == nil {
		logger = slog.Default()
	}
	return &CSVWriter{path: path, logger: logger}
}

// Load writes the dataset to the configured path, creating parent
// directories as needed.
func (w *CSVWriter) Load(ctx context.Context, ds *domain.Dataset) error {
	if err := os.MkdirAll(filepath.Dir(w.path), 0755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	file, err := os.Create(w.path)
	if err != nil {
		return fmt.Errorf("create csv output %s: %w", w.path, err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	if err := writer.Write(ds.Columns); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}

	record := make([]string, len(ds.Columns))
	for i := range ds.Rows {
		if err := ctx.Err(); err != nil {
			return err
		}
		for j, col := range ds.Columns {
			record[j] = formatCell(ds.Rows[i][col])
		}
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("write csv row %d: %w", i, err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("flush csv output: %w", err)
	}

	w.logger.InfoContext(ctx, "csv load completed",
		slog.String("path", w.path),
		slog.Int("records", ds.Len()))
	return nil
}

// JSONWriter exports a dataset as an indented JSON array of objects.
type JSONWriter struct {
	path   string
	logger *slog.Logger
}

// NewJSONWriter creates a JSON destination for the given output path.
func NewJSONWriter(path string, logger *slog.Logger) *JSONWriter {
	if logger == nil {
		logger = slog.Default()
	}
	return &JSONWriter{path: path, logger: logger}
}

// Load writes the dataset to the configured path. Cells keep their
// native JSON types; dates are formatted as ISO strings.
func (w *JSONWriter) Load(ctx context.Context, ds *domain.Dataset) error {
	if err := os.MkdirAll(filepath.Dir(w.path), 0755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	records := make([]map[string]any, 0, ds.Len())
	for i := range ds.Rows {
		record := make(map[string]any, len(ds.Columns))
		for _, col := range ds.Columns {
			v := ds.Rows[i][col]
			if t, ok := ds.Time(i, col); ok && col == domain.ColDate {
				record[col] = t.Format("2006-01-02")
				continue
			}
			record[col] = v
		}
		records = append(records, record)
	}

	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal json output: %w", err)
	}
	if err := os.WriteFile(w.path, data, 0644); err != nil {
		return fmt.Errorf("write json output %s: %w", w.path, err)
	}

	w.logger.InfoContext(ctx, "json load completed",
		slog.String("path", w.path),
		slog.Int("records", ds.Len()))
	return nil
}
