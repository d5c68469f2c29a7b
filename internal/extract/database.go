package extract

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"salesetl/internal/config"
	"salesetl/internal/errors"
	"salesetl/internal/retry"
	"salesetl/pkg/contracts/domain"
)

// DBSource reads sales records from a relational table via GORM. The
// query may be full SQL or a bare table name; when empty it defaults to
// the configured table. Queries are retried with backoff.
type DBSource struct {
	db     *gorm.DB
	query  string
	logger *slog.Logger
	retry  []retry.Option
}

// NewDBSource opens a database connection per the configured driver.
func NewDBSource(cfg config.DatabaseConfig, query string, logger *slog.Logger, opts ...retry.Option) (*DBSource, error) {
	if logger == nil {
		logger = slog.Default()
	}

	gormCfg := &gorm.Config{Logger: gormlogger.Default.LogMode(gormlogger.Silent)}

	var db *gorm.DB
	var err error
	switch cfg.Driver {
	case "postgres":
		db, err = gorm.Open(postgres.Open(cfg.DSN), gormCfg)
	case "sqlite":
		db, err = gorm.Open(sqlite.Open(cfg.DSN), gormCfg)
	default:
		return nil, errors.NewConfigError(fmt.Sprintf("unsupported database driver %q", cfg.Driver), nil)
	}
	if err != nil {
		return nil, fmt.Errorf("open %s database: %w", cfg.Driver, err)
	}

	if query == "" {
		query = cfg.Table
	}
	// A bare table name selects everything from it.
	if !strings.ContainsAny(query, " \t\n") {
		query = "SELECT * FROM " + query
	}

	return &DBSource{
		db:     db,
		query:  query,
		logger: logger,
		retry:  opts,
	}, nil
}

// Extract runs the query and builds a Dataset in the result's natural
// column order.
func (s *DBSource) Extract(ctx context.Context) (*domain.Dataset, error) {
	var ds *domain.Dataset

	err := retry.Do(ctx, "database extract", func(ctx context.Context) error {
		out, err := s.runQuery(ctx)
		if err != nil {
			return err
		}
		ds = out
		return nil
	}, s.retry...)
	if err != nil {
		return nil, err
	}

	if ds.Len() == 0 {
		s.logger.WarnContext(ctx, "no data returned from query",
			slog.String("query", s.query))
	}
	s.logger.InfoContext(ctx, "database extraction completed",
		slog.Int("records", ds.Len()))
	return ds, nil
}

func (s *DBSource) runQuery(ctx context.Context) (*domain.Dataset, error) {
	rows, err := s.db.WithContext(ctx).Raw(s.query).Rows()
	if err != nil {
		return nil, fmt.Errorf("run query: %w", err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("read columns: %w", err)
	}

	ds := domain.NewDataset(columns...)
	values := make([]any, len(columns))
	pointers := make([]any, len(columns))
	for i := range values {
		pointers[i] = &values[i]
	}

	for rows.Next() {
		if err := rows.Scan(pointers...); err != nil {
			return nil, fmt.Errorf("scan row %d: %w", ds.Len(), err)
		}
		row := make(domain.Row, len(columns))
		for i, col := range columns {
			row[col] = coerceDBValue(values[i])
		}
		ds.Append(row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}
	return ds, nil
}

// coerceDBValue normalizes driver-specific scan results into the cell
// types the rest of the pipeline expects.
func coerceDBValue(v any) any {
	switch val := v.(type) {
	case nil:
		return nil
	case []byte:
		return coerceCell(string(val))
	case string:
		return coerceCell(val)
	case int64:
		return float64(val)
	case float64:
		return val
	case time.Time:
		return val
	default:
		return val
	}
}
