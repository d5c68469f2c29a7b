// Package pipeline orchestrates a full ETL run: extract, transform,
// quality checks, and load. At most one run executes at a time.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"salesetl/internal/errors"
	"salesetl/internal/extract"
	"salesetl/internal/infrastructure"
	"salesetl/internal/load"
	"salesetl/internal/monitoring"
	"salesetl/internal/quality"
	"salesetl/internal/transform"
	"salesetl/pkg/contracts/domain"
)

// Runner wires the stage components into an end-to-end run.
type Runner struct {
	source       extract.Source
	transformer  *transform.Pipeline
	checker      *quality.Checker
	destinations []load.Destination
	minScore     float64
	reportsDir   string
	logger       *slog.Logger

	mu          sync.Mutex
	running     bool
	lastState   *RunState
	lastReport  *quality.Report
	lastDataset *domain.Dataset
}

// Option configures a Runner.
type Option func(*Runner)

// WithDestinations sets the load targets for accepted datasets.
func WithDestinations(dests ...load.Destination) Option {
	return func(r *Runner) { r.destinations = dests }
}

// WithReportsDir sets where quality reports are written. Empty disables
// report persistence.
func WithReportsDir(dir string) Option {
	return func(r *Runner) { r.reportsDir = dir }
}

// WithMinScore sets the acceptance bar for loading.
func WithMinScore(score float64) Option {
	return func(r *Runner) { r.minScore = score }
}

// NewRunner creates a pipeline runner.
func NewRunner(source extract.Source, transformer *transform.Pipeline, checker *quality.Checker, logger *slog.Logger, opts ...Option) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	r := &Runner{
		source:      source,
		transformer: transformer,
		checker:     checker,
		minScore:    80,
		logger:      logger,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run executes one full pipeline run. It returns ErrPipelineRunning if
// a run is already in progress.
func (r *Runner) Run(ctx context.Context) (*RunState, error) {
	r.mu.Lock()
	if r.running {
		r.mu.Unlock()
		return nil, errors.ErrPipelineRunning
	}
	r.running = true
	state := NewRunState(uuid.NewString())
	r.lastState = state
	r.mu.Unlock()

	defer func() {
		r.mu.Lock()
		r.running = false
		r.mu.Unlock()
	}()

	ctx = infrastructure.WithTraceID(ctx, state.ID)
	logger := r.logger.With(slog.String("run_id", state.ID))
	state.Start()
	logger.InfoContext(ctx, "pipeline run started")

	if err := r.execute(ctx, state, logger); err != nil {
		state.Fail(err)
		logger.ErrorContext(ctx, "pipeline run failed", slog.String("error", err.Error()))
		return state, err
	}

	state.Complete()
	logger.InfoContext(ctx, "pipeline run completed",
		slog.Float64("quality_score", state.QualityScore),
		slog.Int("records_loaded", state.RecordsLoaded))
	return state, nil
}

func (r *Runner) execute(ctx context.Context, state *RunState, logger *slog.Logger) error {
	raw, err := r.step(ctx, state, "extract", func() (*domain.Dataset, error) {
		ds, err := r.source.Extract(ctx)
		if err != nil {
			return nil, errors.NewExtractError("read source", err)
		}
		if err := extract.ValidateSchema(ds); err != nil {
			return nil, errors.NewExtractError("schema validation", err)
		}
		return ds, nil
	})
	if err != nil {
		return err
	}
	state.SetExtracted(raw.Len())

	transformed, err := r.step(ctx, state, "transform", func() (*domain.Dataset, error) {
		out, err := r.transformer.Transform(ctx, raw)
		if err != nil {
			return nil, errors.NewTransformError("run transform", err)
		}
		return out, nil
	})
	if err != nil {
		return err
	}

	report := r.checker.RunAllChecks(ctx, transformed)
	r.mu.Lock()
	r.lastReport = report
	r.lastDataset = transformed
	r.mu.Unlock()
	acceptable := report.IsAcceptable(r.minScore)
	state.SetQuality(report.OverallScore, acceptable)
	state.AddStep(StepState{Name: "quality", Records: transformed.Len()})

	r.saveReport(ctx, state.ID, report, logger)

	if !acceptable {
		return errors.NewQualityError(
			fmt.Sprintf("score %.1f below %.1f or critical issues present", report.OverallScore, r.minScore), nil).
			WithContext("critical_issues", len(report.CriticalIssues()))
	}

	for _, dest := range r.destinations {
		if _, err := r.step(ctx, state, "load", func() (*domain.Dataset, error) {
			if err := dest.Load(ctx, transformed); err != nil {
				return nil, err
			}
			return transformed, nil
		}); err != nil {
			return err
		}
	}
	state.SetLoaded(transformed.Len())
	return nil
}

// step runs one pipeline step with timing, state, and metrics capture.
func (r *Runner) step(ctx context.Context, state *RunState, name string, fn func() (*domain.Dataset, error)) (*domain.Dataset, error) {
	start := time.Now()
	ds, err := fn()
	elapsed := time.Since(start)

	step := StepState{Name: name, Duration: elapsed}
	if err != nil {
		step.Error = err.Error()
		state.AddStep(step)
		monitoring.PipelineErrors.WithLabelValues(name).Inc()
		return nil, err
	}
	step.Records = ds.Len()
	state.AddStep(step)
	return ds, nil
}

// saveReport persists the quality report. Failures are logged and do
// not fail the run.
func (r *Runner) saveReport(ctx context.Context, runID string, report *quality.Report, logger *slog.Logger) {
	if r.reportsDir == "" {
		return
	}
	for _, format := range []string{"json", "txt"} {
		path := filepath.Join(r.reportsDir, fmt.Sprintf("quality_%s.%s", runID, format))
		if err := report.SaveToFile(path, format); err != nil {
			logger.WarnContext(ctx, "failed to save quality report",
				slog.String("path", path),
				slog.String("error", err.Error()))
		}
	}
}

// LastReport returns the most recent quality report, or nil before the
// first run reaches the quality stage.
func (r *Runner) LastReport() *quality.Report {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lastReport
}

// LastDataset returns the most recent transformed dataset, or nil
// before the first run reaches the quality stage. It is retained even
// when the quality gate rejects the run, so the data can be inspected.
func (r *Runner) LastDataset() *domain.Dataset {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lastDataset
}

// LastState returns the most recent run state, or nil before any run.
func (r *Runner) LastState() *RunState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lastState
}

// Running reports whether a run is currently in progress.
func (r *Runner) Running() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.running
}
