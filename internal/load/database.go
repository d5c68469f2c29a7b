package load

import (
	"context"
	"fmt"
	"log/slog"
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

// SalesRecord is the relational row shape for a transformed sale.
// Nullable metrics use pointers so a missing profit_margin persists as
// NULL rather than zero.
type SalesRecord struct {
	ID             uint      `gorm:"primaryKey"`
	Date           time.Time `gorm:"index"`
	ProductID      string    `gorm:"index;size:64"`
	Quantity       float64
	UnitPrice      float64
	Discount       float64
	TotalSales     float64
	GrossSales     *float64
	DiscountAmount *float64
	ProfitMargin   *float64
	LoadedAt       time.Time `gorm:"autoCreateTime"`
}

// DBLoader persists datasets into a relational table via GORM.
type DBLoader struct {
	db        *gorm.DB
	table     string
	batchSize int
	logger    *slog.Logger
	retry     []retry.Option
}

// NewDBLoader opens a database connection per the configured driver and
// migrates the target table.
func NewDBLoader(cfg config.DatabaseConfig, logger *slog.Logger, opts ...retry.Option) (*DBLoader, error) {
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

	if err := db.Table(cfg.Table).AutoMigrate(&SalesRecord{}); err != nil {
		return nil, fmt.Errorf("migrate table %s: %w", cfg.Table, err)
	}

	return &DBLoader{
		db:        db,
		table:     cfg.Table,
		batchSize: cfg.BatchSize,
		logger:    logger,
		retry:     opts,
	}, nil
}

// Load converts the dataset to records and inserts them in batches.
func (l *DBLoader) Load(ctx context.Context, ds *domain.Dataset) error {
	records := make([]SalesRecord, 0, ds.Len())
	for i := range ds.Rows {
		record, err := l.toRecord(ds, i)
		if err != nil {
			return errors.NewLoadError("convert row", err).WithContext("row", i)
		}
		records = append(records, record)
	}

	if len(records) == 0 {
		l.logger.InfoContext(ctx, "nothing to load", slog.String("table", l.table))
		return nil
	}

	err := retry.Do(ctx, "database load", func(ctx context.Context) error {
		return l.db.WithContext(ctx).Table(l.table).CreateInBatches(records, l.batchSize).Error
	}, l.retry...)
	if err != nil {
		return errors.NewLoadError("insert batch", err).WithContext("table", l.table)
	}

	l.logger.InfoContext(ctx, "database load completed",
		slog.String("table", l.table),
		slog.Int("records", len(records)))
	return nil
}

func (l *DBLoader) toRecord(ds *domain.Dataset, i int) (SalesRecord, error) {
	var record SalesRecord

	date, ok := ds.Time(i, domain.ColDate)
	if !ok {
		return record, fmt.Errorf("row %d: unparseable date", i)
	}
	productID, _ := ds.String(i, domain.ColProductID)

	quantity, ok := ds.Float(i, domain.ColQuantity)
	if !ok {
		return record, fmt.Errorf("row %d: unparseable quantity", i)
	}
	unitPrice, ok := ds.Float(i, domain.ColUnitPrice)
	if !ok {
		return record, fmt.Errorf("row %d: unparseable unit_price", i)
	}
	discount, ok := ds.Float(i, domain.ColDiscount)
	if !ok {
		return record, fmt.Errorf("row %d: unparseable discount", i)
	}
	totalSales, ok := ds.Float(i, domain.ColTotalSales)
	if !ok {
		return record, fmt.Errorf("row %d: unparseable total_sales", i)
	}

	record = SalesRecord{
		Date:           date,
		ProductID:      productID,
		Quantity:       quantity,
		UnitPrice:      unitPrice,
		Discount:       discount,
		TotalSales:     totalSales,
		GrossSales:     l.optional(ds, i, domain.ColGrossSales),
		DiscountAmount: l.optional(ds, i, domain.ColDiscountAmount),
		ProfitMargin:   l.optional(ds, i, domain.ColProfitMargin),
	}
	return record, nil
}

// optional returns a pointer to the cell's numeric value, or nil when
// the column or value is missing.
func (l *DBLoader) optional(ds *domain.Dataset, i int, column string) *float64 {
	if !ds.HasColumn(column) || ds.IsMissing(i, column) {
		return nil
	}
	if v, ok := ds.Float(i, column); ok {
		return &v
	}
	return nil
}
