package quality

import "salesetl/pkg/contracts/domain"

// Severity classifies how serious a quality issue is.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
	SeverityInfo    Severity = "info"
)

// Metric is a single named, scored, thresholded measurement of one data
// quality dimension. Immutable once computed.
type Metric struct {
	Name        string  `json:"name"`
	Value       float64 `json:"value"`
	Threshold   float64 `json:"threshold"`
	Passed      bool    `json:"passed"`
	Description string  `json:"description"`
}

// Issue records a violation surfaced when a metric fails or partially
// fails its threshold.
type Issue struct {
	RuleName        string       `json:"rule_name"`
	Severity        Severity     `json:"severity"`
	Message         string       `json:"message"`
	AffectedRows    int          `json:"affected_rows"`
	AffectedColumns []string     `json:"affected_columns"`
	SampleRows      []domain.Row `json:"sample_rows,omitempty"`
}
