package quality

import "salesetl/internal/config"

// Category names used to group metrics for the overall score. The first
// token of a metric name (up to the first underscore) selects its
// category; names outside this set do not contribute to the score.
const (
	CategoryCompleteness = "completeness"
	CategoryAccuracy     = "accuracy"
	CategoryConsistency  = "consistency"
	CategoryValidity     = "validity"
	CategoryTimeliness   = "timeliness"
)

// Rules holds the thresholds, tolerances, and scoring weights for a
// check run.
type Rules struct {
	// CompletenessThreshold is the pass bar for overall and ordinary
	// per-column completeness. Key columns (date, product_id) use
	// KeyColumnThreshold instead.
	CompletenessThreshold float64
	KeyColumnThreshold    float64
	// CompletenessErrorBar is the completeness level below which an
	// issue escalates from warning to error.
	CompletenessErrorBar float64
	// AccuracyThreshold is the pass bar for parseability checks.
	AccuracyThreshold float64
	// ConsistencyThreshold is the pass bar for the calculation
	// consistency rate; ConsistencyTolerance is the absolute amount by
	// which total_sales may differ from the recomputed value. A
	// difference of exactly the tolerance is still consistent.
	ConsistencyThreshold float64
	ConsistencyTolerance float64
	// FreshnessWindowDays and FreshnessThreshold control the timeliness
	// freshness metric.
	FreshnessWindowDays int
	FreshnessThreshold  float64
	// Weights maps category name to its share of the overall score.
	// Categories with no metrics contribute zero; the remaining weights
	// are not renormalized.
	Weights map[string]float64
}

// DefaultRules returns the standard rule set.
func DefaultRules() Rules {
	return Rules{
		CompletenessThreshold: 95.0,
		KeyColumnThreshold:    99.0,
		CompletenessErrorBar:  90.0,
		AccuracyThreshold:     99.0,
		ConsistencyThreshold:  99.0,
		ConsistencyTolerance:  0.01,
		FreshnessWindowDays:   30,
		FreshnessThreshold:    80.0,
		Weights: map[string]float64{
			CategoryCompleteness: 0.25,
			CategoryAccuracy:     0.25,
			CategoryConsistency:  0.20,
			CategoryValidity:     0.20,
			CategoryTimeliness:   0.10,
		},
	}
}

// RulesFromConfig builds a rule set from the quality configuration,
// falling back to defaults for anything unset.
func RulesFromConfig(cfg config.QualityConfig) Rules {
	rules := DefaultRules()
	if cfg.CompletenessThreshold > 0 {
		rules.CompletenessThreshold = cfg.CompletenessThreshold
	}
	if cfg.AccuracyThreshold > 0 {
		rules.AccuracyThreshold = cfg.AccuracyThreshold
		rules.ConsistencyThreshold = cfg.AccuracyThreshold
	}
	if cfg.ConsistencyTolerance > 0 {
		rules.ConsistencyTolerance = cfg.ConsistencyTolerance
	}
	if cfg.FreshnessWindowDays > 0 {
		rules.FreshnessWindowDays = cfg.FreshnessWindowDays
	}
	if len(cfg.OverallWeights) > 0 {
		rules.Weights = cfg.OverallWeights
	}
	return rules
}

// completenessThresholdFor returns the completeness threshold for a column.
func (r Rules) completenessThresholdFor(column string) float64 {
	if column == "date" || column == "product_id" {
		return r.KeyColumnThreshold
	}
	return r.CompletenessThreshold
}
