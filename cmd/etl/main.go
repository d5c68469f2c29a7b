// Command etl performs a single batch run: extract the configured
// source, transform it, score data quality, and load the result.
//
// Exit codes: 0 success, 1 initialization or stage failure, 2 data
// quality below the acceptance bar.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"salesetl/internal/app"
	"salesetl/internal/config"
	apperrors "salesetl/internal/errors"
	"salesetl/internal/infrastructure"
	"salesetl/internal/pipeline"
)

func main() {
	source := flag.String("source", "", "source kind: csv, excel, or api (defaults to configuration)")
	sourcePath := flag.String("in", "", "input file path for csv/excel sources")
	sourceURL := flag.String("url", "", "endpoint URL for the api source")
	outDir := flag.String("out", "", "output directory for processed files")
	reportsDir := flag.String("reports", "", "directory for quality reports")
	minScore := flag.Float64("min-score", 0, "override the quality acceptance score")
	noCache := flag.Bool("no-cache", false, "disable the transform content cache")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}
	applyFlags(cfg, *source, *sourcePath, *sourceURL, *outDir, *reportsDir, *minScore, *noCache)
	if err := cfg.Validate(); err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		slog.Error("failed to initialize logger", "error", err)
		os.Exit(1)
	}
	defer infrastructure.CloseLogFile()

	runner, _, err := app.BuildRunner(cfg, logger)
	if err != nil {
		logger.Error("failed to build pipeline", "error", err)
		os.Exit(1)
	}

	state, err := runner.Run(context.Background())
	if err != nil {
		var appErr *apperrors.AppError
		if errors.As(err, &appErr) && appErr.Type == apperrors.TypeQuality {
			printSummary(runner, state)
			fmt.Fprintf(os.Stderr, "data quality gate failed: %v\n", err)
			os.Exit(2)
		}
		logger.Error("pipeline run failed", "error", err)
		os.Exit(1)
	}

	printSummary(runner, state)
}

func applyFlags(cfg *config.Config, source, sourcePath, sourceURL, outDir, reportsDir string, minScore float64, noCache bool) {
	if source != "" {
		cfg.Pipeline.Source = source
	}
	if sourcePath != "" {
		cfg.Pipeline.SourcePath = sourcePath
	}
	if sourceURL != "" {
		cfg.Pipeline.SourceURL = sourceURL
	}
	if outDir != "" {
		cfg.Pipeline.OutputDir = outDir
	}
	if reportsDir != "" {
		cfg.Pipeline.ReportsDir = reportsDir
	}
	if minScore > 0 {
		cfg.Quality.MinScore = minScore
	}
	if noCache {
		cfg.Cache.Enabled = false
	}
}

func printSummary(runner *pipeline.Runner, state *pipeline.RunState) {
	if state == nil {
		return
	}
	snap := state.Snapshot()
	fmt.Printf("run %s: %s\n", snap.ID, snap.Status)
	fmt.Printf("  extracted: %d records\n", snap.RecordsExtracted)
	fmt.Printf("  loaded:    %d records\n", snap.RecordsLoaded)
	if report := runner.LastReport(); report != nil {
		fmt.Printf("  quality:   %.1f (acceptable: %v)\n", report.OverallScore, snap.Acceptable)
		if issues := len(report.Issues); issues > 0 {
			fmt.Printf("  issues:    %d (%d critical)\n", issues, len(report.CriticalIssues()))
		}
	}
}
