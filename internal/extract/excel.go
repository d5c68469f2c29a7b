package extract

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/xuri/excelize/v2"

	"salesetl/pkg/contracts/domain"
)

// ExcelSource reads sales records from an Excel workbook. The first row
// of the chosen sheet is treated as the header.
type ExcelSource struct {
	path   string
	sheet  string
	logger *slog.Logger
}

// NewExcelSource creates an Excel source. sheet may be empty, in which
// case the source looks for a sheet whose header mentions the expected
// sales columns and falls back to the first sheet.
func NewExcelSource(path, sheet string, logger *slog.Logger) *ExcelSource {
	if logger == nil {
		logger = slog.Default()
	}
	return &ExcelSource{path: path, sheet: sheet, logger: logger}
}

// Extract reads the sheet into a Dataset.
func (s *ExcelSource) Extract(ctx context.Context) (*domain.Dataset, error) {
	f, err := excelize.OpenFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("open excel source %s: %w", s.path, err)
	}
	defer f.Close()

	sheet := s.sheet
	if sheet == "" {
		sheet = s.findSalesSheet(f)
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheet, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("sheet %q is empty", sheet)
	}

	header := rows[0]
	ds := domain.NewDataset(header...)
	for _, record := range rows[1:] {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if isBlankRow(record) {
			continue
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

	s.logger.InfoContext(ctx, "excel extraction completed",
		slog.String("path", s.path),
		slog.String("sheet", sheet),
		slog.Int("records", ds.Len()))
	return ds, nil
}

// findSalesSheet returns the first sheet whose header row mentions the
// sales columns, falling back to the workbook's first sheet.
func (s *ExcelSource) findSalesSheet(f *excelize.File) string {
	list := f.GetSheetList()
	for _, name := range list {
		rows, err := f.GetRows(name)
		if err != nil || len(rows) == 0 {
			continue
		}
		headerText := strings.ToLower(strings.Join(rows[0], " "))
		if strings.Contains(headerText, domain.ColProductID) && strings.Contains(headerText, domain.ColQuantity) {
			return name
		}
	}
	if len(list) > 0 {
		return list[0]
	}
	return ""
}

func isBlankRow(record []string) bool {
	for _, cell := range record {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
