package transform

import (
	"context"
	"log/slog"
	"time"

	"salesetl/internal/cache"
	"salesetl/internal/monitoring"
	"salesetl/pkg/contracts/domain"
)

// Stage operation names, used as cache key prefixes.
const (
	OpFullTransform      = "full_transform"
	OpCleanData          = "clean_data"
	OpValidateDates      = "validate_dates"
	OpCalculateMetrics   = "calculate_metrics"
	OpStandardizeColumns = "standardize_columns"
)

// Pipeline orchestrates the transform stages, wrapping each with the
// content cache. Stages run clean -> validate_dates -> calculate_metrics
// -> standardize_columns; a stage error aborts the whole call with no
// partial commit.
type Pipeline struct {
	cleaner      *Cleaner
	dates        *DateValidator
	calculator   *MetricsCalculator
	standardizer *ColumnStandardizer
	cache        *cache.Manager
	logger       *slog.Logger
}

// NewPipeline creates a transform pipeline. cacheManager may be nil to
// disable caching; now may be nil to use the wall clock.
func NewPipeline(cacheManager *cache.Manager, logger *slog.Logger, now func() time.Time) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		cleaner:      NewCleaner(logger),
		dates:        NewDateValidator(logger, now),
		calculator:   NewMetricsCalculator(logger),
		standardizer: NewColumnStandardizer(logger),
		cache:        cacheManager,
		logger:       logger,
	}
}

// stageFunc is one pure transformation step.
type stageFunc func(ctx context.Context, ds *domain.Dataset) (*domain.Dataset, error)

// Transform applies the full stage sequence to the dataset. The result
// for the whole sequence is cached under "full_transform"; each stage is
// additionally cached under its own operation name so identical stage
// inputs are reused across callers.
func (p *Pipeline) Transform(ctx context.Context, ds *domain.Dataset) (*domain.Dataset, error) {
	if cached := p.cacheGet(OpFullTransform, ds); cached != nil {
		return cached, nil
	}

	stages := []struct {
		name string
		fn   stageFunc
	}{
		{OpCleanData, p.cleaner.Clean},
		{OpValidateDates, p.dates.Validate},
		{OpCalculateMetrics, p.calculator.Calculate},
		{OpStandardizeColumns, p.standardizer.Standardize},
	}

	out := ds
	for _, stage := range stages {
		var err error
		out, err = p.runStage(ctx, stage.name, out, stage.fn)
		if err != nil {
			// Propagate unchanged; the caller owns translation.
			return nil, err
		}
	}

	p.cacheSet(OpFullTransform, ds, out)
	p.logger.InfoContext(ctx, "transform pipeline completed",
		slog.Int("rows_in", ds.Len()),
		slog.Int("rows_out", out.Len()))
	return out, nil
}

// runStage executes one cache-checked stage.
func (p *Pipeline) runStage(ctx context.Context, name string, in *domain.Dataset, fn stageFunc) (*domain.Dataset, error) {
	if cached := p.cacheGet(name, in); cached != nil {
		return cached, nil
	}

	start := time.Now()
	out, err := fn(ctx, in)
	if err != nil {
		p.logger.ErrorContext(ctx, "transform stage failed",
			slog.String("stage", name),
			slog.String("error", err.Error()))
		monitoring.PipelineErrors.WithLabelValues(name).Inc()
		return nil, err
	}

	monitoring.StageDuration.WithLabelValues(name).Observe(time.Since(start).Seconds())
	monitoring.RecordsProcessed.WithLabelValues(name).Add(float64(out.Len()))

	p.cacheSet(name, in, out)
	return out, nil
}

func (p *Pipeline) cacheGet(operation string, in *domain.Dataset) *domain.Dataset {
	if p.cache == nil {
		return nil
	}
	return p.cache.Get(operation, in)
}

func (p *Pipeline) cacheSet(operation string, in, out *domain.Dataset) {
	if p.cache == nil {
		return
	}
	p.cache.Set(operation, in, out)
}
