package quality

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"salesetl/internal/monitoring"
	"salesetl/pkg/contracts/domain"
)

// numericColumns are checked for numeric parseability by the accuracy family.
var numericColumns = []string{
	domain.ColQuantity,
	domain.ColUnitPrice,
	domain.ColDiscount,
	domain.ColTotalSales,
}

// maxSampleRows bounds the mismatched rows attached to a consistency issue.
const maxSampleRows = 3

// Checker runs the quality check battery over a dataset. Each check
// family is independently callable; RunAllChecks executes all of them
// and aggregates the result into a Report.
//
// A Checker is stateless between calls: RunAllChecks resets the issue
// and metric accumulators before running.
type Checker struct {
	rules  Rules
	logger *slog.Logger
	now    func() time.Time

	metrics []Metric
	issues  []Issue
}

// NewChecker creates a checker with the given rules. now may be nil to
// use the wall clock.
func NewChecker(rules Rules, logger *slog.Logger, now func() time.Time) *Checker {
	if logger == nil {
		logger = slog.Default()
	}
	if now == nil {
		now = time.Now
	}
	return &Checker{rules: rules, logger: logger, now: now}
}

// RunAllChecks executes completeness, accuracy, consistency, validity,
// and timeliness in order and returns an aggregate report. An internal
// failure in one family degrades the report (that family contributes no
// metrics) instead of aborting the run.
func (c *Checker) RunAllChecks(ctx context.Context, ds *domain.Dataset) *Report {
	c.logger.InfoContext(ctx, "starting data quality checks",
		slog.Int("records", ds.Len()),
		slog.Int("columns", len(ds.Columns)))

	c.metrics = nil
	c.issues = nil

	families := []struct {
		name string
		fn   func(*domain.Dataset) []Metric
	}{
		{CategoryCompleteness, c.CheckCompleteness},
		{CategoryAccuracy, c.CheckAccuracy},
		{CategoryConsistency, c.CheckConsistency},
		{CategoryValidity, c.CheckValidity},
		{CategoryTimeliness, func(ds *domain.Dataset) []Metric { return c.CheckTimeliness(ctx, ds) }},
	}
	for _, family := range families {
		c.metrics = append(c.metrics, c.runFamily(ctx, family.name, family.fn, ds)...)
	}

	report := &Report{
		Timestamp:    c.now(),
		TotalRecords: ds.Len(),
		TotalColumns: len(ds.Columns),
		Metrics:      c.metrics,
		Issues:       c.issues,
		OverallScore: c.overallScore(),
	}

	monitoring.QualityScore.Set(report.OverallScore)
	for _, sev := range []Severity{SeverityError, SeverityWarning, SeverityInfo} {
		monitoring.QualityIssues.WithLabelValues(string(sev)).Set(float64(report.countBySeverity(sev)))
	}

	c.logger.InfoContext(ctx, "quality checks completed",
		slog.Float64("overall_score", report.OverallScore),
		slog.Int("metrics", len(report.Metrics)),
		slog.Int("issues", len(report.Issues)))
	return report
}

// runFamily executes one check family, converting a panic into a
// degraded (empty) result for that family.
func (c *Checker) runFamily(ctx context.Context, name string, fn func(*domain.Dataset) []Metric, ds *domain.Dataset) (metrics []Metric) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.WarnContext(ctx, "quality check family failed",
				slog.String("family", name),
				slog.Any("panic", r))
			metrics = nil
		}
	}()
	return fn(ds)
}

// CheckCompleteness measures the share of non-null cells, overall and
// per column. Key columns (date, product_id) use a stricter threshold.
func (c *Checker) CheckCompleteness(ds *domain.Dataset) []Metric {
	var metrics []Metric
	if ds.Len() == 0 || len(ds.Columns) == 0 {
		return metrics
	}

	totalCells := ds.Len() * len(ds.Columns)
	nonNull := 0
	for i := range ds.Rows {
		for _, col := range ds.Columns {
			if !ds.IsMissing(i, col) {
				nonNull++
			}
		}
	}
	overallRate := float64(nonNull) / float64(totalCells) * 100

	metrics = append(metrics, Metric{
		Name:        "overall_completeness",
		Value:       overallRate,
		Threshold:   c.rules.CompletenessThreshold,
		Passed:      overallRate >= c.rules.CompletenessThreshold,
		Description: "Percentage of non-null values across all columns",
	})

	for _, col := range ds.Columns {
		nullCount := 0
		for i := range ds.Rows {
			if ds.IsMissing(i, col) {
				nullCount++
			}
		}
		rate := float64(ds.Len()-nullCount) / float64(ds.Len()) * 100
		threshold := c.rules.completenessThresholdFor(col)

		metrics = append(metrics, Metric{
			Name:        "completeness_" + col,
			Value:       rate,
			Threshold:   threshold,
			Passed:      rate >= threshold,
			Description: fmt.Sprintf("Completeness percentage for column %s", col),
		})

		if rate < threshold {
			severity := SeverityError
			if rate >= c.rules.CompletenessErrorBar {
				severity = SeverityWarning
			}
			c.issues = append(c.issues, Issue{
				RuleName:        "completeness",
				Severity:        severity,
				Message:         fmt.Sprintf("Column %s has %d null values (%.1f%% complete)", col, nullCount, rate),
				AffectedRows:    nullCount,
				AffectedColumns: []string{col},
			})
		}
	}
	return metrics
}

// CheckAccuracy measures parseability: dates as dates, numeric columns
// as numbers. A missing cell counts as unparseable.
func (c *Checker) CheckAccuracy(ds *domain.Dataset) []Metric {
	var metrics []Metric
	if ds.Len() == 0 {
		return metrics
	}

	if ds.HasColumn(domain.ColDate) {
		invalid := 0
		for i := range ds.Rows {
			if _, ok := ds.Time(i, domain.ColDate); !ok {
				invalid++
			}
		}
		rate := float64(ds.Len()-invalid) / float64(ds.Len()) * 100

		metrics = append(metrics, Metric{
			Name:        "accuracy_date",
			Value:       rate,
			Threshold:   c.rules.AccuracyThreshold,
			Passed:      rate >= c.rules.AccuracyThreshold,
			Description: "Percentage of valid date values",
		})

		if rate < c.rules.AccuracyThreshold {
			c.issues = append(c.issues, Issue{
				RuleName:        "accuracy_date",
				Severity:        SeverityError,
				Message:         fmt.Sprintf("Found %d invalid date values", invalid),
				AffectedRows:    invalid,
				AffectedColumns: []string{domain.ColDate},
			})
		}
	}

	for _, col := range numericColumns {
		if !ds.HasColumn(col) {
			continue
		}
		invalid := 0
		for i := range ds.Rows {
			if _, ok := ds.Float(i, col); !ok {
				invalid++
			}
		}
		rate := float64(ds.Len()-invalid) / float64(ds.Len()) * 100

		metrics = append(metrics, Metric{
			Name:        "accuracy_" + col,
			Value:       rate,
			Threshold:   c.rules.AccuracyThreshold,
			Passed:      rate >= c.rules.AccuracyThreshold,
			Description: fmt.Sprintf("Percentage of valid numeric values in %s", col),
		})

		if rate < c.rules.AccuracyThreshold {
			c.issues = append(c.issues, Issue{
				RuleName:        "accuracy_numeric",
				Severity:        SeverityError,
				Message:         fmt.Sprintf("Column %s has %d invalid numeric values", col, invalid),
				AffectedRows:    invalid,
				AffectedColumns: []string{col},
			})
		}
	}
	return metrics
}

// CheckConsistency recomputes total_sales from its base columns and
// compares within the absolute tolerance, then checks row uniqueness.
// A difference of exactly the tolerance is consistent.
func (c *Checker) CheckConsistency(ds *domain.Dataset) []Metric {
	var metrics []Metric
	if ds.Len() == 0 {
		return metrics
	}

	hasAll := true
	for _, col := range []string{domain.ColQuantity, domain.ColUnitPrice, domain.ColDiscount, domain.ColTotalSales} {
		if !ds.HasColumn(col) {
			hasAll = false
			break
		}
	}

	if hasAll {
		inconsistent := 0
		var samples []domain.Row
		for i := range ds.Rows {
			quantity, ok1 := ds.Float(i, domain.ColQuantity)
			unitPrice, ok2 := ds.Float(i, domain.ColUnitPrice)
			discount, ok3 := ds.Float(i, domain.ColDiscount)
			totalSales, ok4 := ds.Float(i, domain.ColTotalSales)
			if !ok1 || !ok2 || !ok3 || !ok4 {
				// Unparseable rows are accuracy's problem, not consistency's.
				continue
			}
			expected := quantity * unitPrice * (1 - discount)
			diff := totalSales - expected
			if diff < 0 {
				diff = -diff
			}
			if diff > c.rules.ConsistencyTolerance {
				inconsistent++
				if len(samples) < maxSampleRows {
					samples = append(samples, ds.Rows[i])
				}
			}
		}
		rate := float64(ds.Len()-inconsistent) / float64(ds.Len()) * 100

		metrics = append(metrics, Metric{
			Name:        "consistency_calculation",
			Value:       rate,
			Threshold:   c.rules.ConsistencyThreshold,
			Passed:      rate >= c.rules.ConsistencyThreshold,
			Description: "Percentage of records with consistent calculations",
		})

		if inconsistent > 0 {
			c.issues = append(c.issues, Issue{
				RuleName:     "consistency_calculation",
				Severity:     SeverityError,
				Message:      fmt.Sprintf("Found %d records with inconsistent calculations", inconsistent),
				AffectedRows: inconsistent,
				AffectedColumns: []string{
					domain.ColQuantity,
					domain.ColUnitPrice,
					domain.ColDiscount,
					domain.ColTotalSales,
				},
				SampleRows: samples,
			})
		}
	}

	seen := make(map[string]bool, ds.Len())
	duplicates := 0
	for i := range ds.Rows {
		fp := ds.Rows[i].Fingerprint(ds.Columns)
		if seen[fp] {
			duplicates++
			continue
		}
		seen[fp] = true
	}
	uniquenessRate := float64(ds.Len()-duplicates) / float64(ds.Len()) * 100

	metrics = append(metrics, Metric{
		Name:        "consistency_uniqueness",
		Value:       uniquenessRate,
		Threshold:   100.0,
		Passed:      duplicates == 0,
		Description: "Percentage of unique records",
	})

	if duplicates > 0 {
		c.issues = append(c.issues, Issue{
			RuleName:        "consistency_uniqueness",
			Severity:        SeverityWarning,
			Message:         fmt.Sprintf("Found %d duplicate records", duplicates),
			AffectedRows:    duplicates,
			AffectedColumns: append([]string{}, ds.Columns...),
		})
	}
	return metrics
}

// CheckValidity applies the business range rules: quantity > 0,
// unit_price >= 0, discount within [0, 1]. Each rule runs only when its
// column is present.
func (c *Checker) CheckValidity(ds *domain.Dataset) []Metric {
	var metrics []Metric
	if ds.Len() == 0 {
		return metrics
	}

	if ds.HasColumn(domain.ColQuantity) {
		invalid := 0
		for i := range ds.Rows {
			if v, ok := ds.Float(i, domain.ColQuantity); ok && v <= 0 {
				invalid++
			}
		}
		metrics = append(metrics, c.validityMetric("validity_quantity", invalid, ds.Len(),
			"Percentage of records with valid quantities (> 0)"))
		if invalid > 0 {
			c.issues = append(c.issues, Issue{
				RuleName:        "validity_quantity",
				Severity:        SeverityError,
				Message:         fmt.Sprintf("Found %d records with invalid quantities (<= 0)", invalid),
				AffectedRows:    invalid,
				AffectedColumns: []string{domain.ColQuantity},
			})
		}
	}

	if ds.HasColumn(domain.ColUnitPrice) {
		invalid := 0
		for i := range ds.Rows {
			if v, ok := ds.Float(i, domain.ColUnitPrice); ok && v < 0 {
				invalid++
			}
		}
		metrics = append(metrics, c.validityMetric("validity_unit_price", invalid, ds.Len(),
			"Percentage of records with valid prices (>= 0)"))
		if invalid > 0 {
			c.issues = append(c.issues, Issue{
				RuleName:        "validity_unit_price",
				Severity:        SeverityError,
				Message:         fmt.Sprintf("Found %d records with negative prices", invalid),
				AffectedRows:    invalid,
				AffectedColumns: []string{domain.ColUnitPrice},
			})
		}
	}

	if ds.HasColumn(domain.ColDiscount) {
		invalid := 0
		for i := range ds.Rows {
			if v, ok := ds.Float(i, domain.ColDiscount); ok && (v < 0 || v > 1) {
				invalid++
			}
		}
		metrics = append(metrics, c.validityMetric("validity_discount", invalid, ds.Len(),
			"Percentage of records with valid discounts (0-100%)"))
		if invalid > 0 {
			c.issues = append(c.issues, Issue{
				RuleName:        "validity_discount",
				Severity:        SeverityError,
				Message:         fmt.Sprintf("Found %d records with invalid discounts", invalid),
				AffectedRows:    invalid,
				AffectedColumns: []string{domain.ColDiscount},
			})
		}
	}
	return metrics
}

func (c *Checker) validityMetric(name string, invalid, total int, description string) Metric {
	rate := float64(total-invalid) / float64(total) * 100
	return Metric{
		Name:        name,
		Value:       rate,
		Threshold:   100.0,
		Passed:      invalid == 0,
		Description: description,
	}
}

// CheckTimeliness verifies no dates lie in the future and that enough
// rows fall inside the freshness window. If the date column cannot be
// parsed at all the family degrades and contributes nothing.
func (c *Checker) CheckTimeliness(ctx context.Context, ds *domain.Dataset) []Metric {
	var metrics []Metric
	if ds.Len() == 0 || !ds.HasColumn(domain.ColDate) {
		return metrics
	}

	current := c.now()
	windowStart := current.AddDate(0, 0, -c.rules.FreshnessWindowDays)

	futureCount := 0
	oldCount := 0
	for i := range ds.Rows {
		if ds.IsMissing(i, domain.ColDate) {
			continue
		}
		t, ok := ds.Time(i, domain.ColDate)
		if !ok {
			c.logger.WarnContext(ctx, "timeliness check degraded: unparseable date",
				slog.Int("row", i))
			return nil
		}
		if t.After(current) {
			futureCount++
		}
		if t.Before(windowStart) {
			oldCount++
		}
	}

	timelinessRate := float64(ds.Len()-futureCount) / float64(ds.Len()) * 100
	metrics = append(metrics, Metric{
		Name:        "timeliness_no_future_dates",
		Value:       timelinessRate,
		Threshold:   100.0,
		Passed:      futureCount == 0,
		Description: "Percentage of records with valid dates (not in future)",
	})
	if futureCount > 0 {
		c.issues = append(c.issues, Issue{
			RuleName:        "timeliness_no_future_dates",
			Severity:        SeverityError,
			Message:         fmt.Sprintf("Found %d records with future dates", futureCount),
			AffectedRows:    futureCount,
			AffectedColumns: []string{domain.ColDate},
		})
	}

	freshnessRate := float64(ds.Len()-oldCount) / float64(ds.Len()) * 100
	metrics = append(metrics, Metric{
		Name:        "timeliness_freshness",
		Value:       freshnessRate,
		Threshold:   c.rules.FreshnessThreshold,
		Passed:      freshnessRate >= c.rules.FreshnessThreshold,
		Description: fmt.Sprintf("Percentage of records from last %d days", c.rules.FreshnessWindowDays),
	})
	if freshnessRate < c.rules.FreshnessThreshold {
		c.issues = append(c.issues, Issue{
			RuleName:        "timeliness_freshness",
			Severity:        SeverityWarning,
			Message:         fmt.Sprintf("Only %.1f%% of data is from last %d days", freshnessRate, c.rules.FreshnessWindowDays),
			AffectedRows:    oldCount,
			AffectedColumns: []string{domain.ColDate},
		})
	}
	return metrics
}

// overallScore groups metrics by category (the first token of the
// metric name) and returns the weighted sum of per-category averages.
// Categories without metrics contribute zero; weights are deliberately
// not renormalized, so incomplete datasets cap below 100.
func (c *Checker) overallScore() float64 {
	if len(c.metrics) == 0 {
		return 0
	}

	sums := make(map[string]float64)
	counts := make(map[string]int)
	for _, metric := range c.metrics {
		category := metricCategory(metric.Name)
		if _, weighted := c.rules.Weights[category]; !weighted {
			continue
		}
		sums[category] += metric.Value
		counts[category]++
	}

	var score float64
	for category, weight := range c.rules.Weights {
		if counts[category] == 0 {
			continue
		}
		score += sums[category] / float64(counts[category]) * weight
	}
	return score
}

// metricCategory returns the metric name's leading token.
func metricCategory(name string) string {
	if idx := strings.Index(name, "_"); idx >= 0 {
		return name[:idx]
	}
	return name
}
