package quality

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Report is the aggregate result of one RunAllChecks invocation. It is
// never mutated after construction.
type Report struct {
	Timestamp    time.Time `json:"timestamp"`
	TotalRecords int       `json:"total_records"`
	TotalColumns int       `json:"total_columns"`
	Metrics      []Metric  `json:"metrics"`
	Issues       []Issue   `json:"issues"`
	OverallScore float64   `json:"overall_score"`
}

// IsAcceptable reports whether the data quality clears the bar: the
// overall score meets minScore and no issue has error severity.
func (r *Report) IsAcceptable(minScore float64) bool {
	return r.OverallScore >= minScore && len(r.CriticalIssues()) == 0
}

// CriticalIssues returns the issues with error severity.
func (r *Report) CriticalIssues() []Issue {
	var out []Issue
	for _, issue := range r.Issues {
		if issue.Severity == SeverityError {
			out = append(out, issue)
		}
	}
	return out
}

// Warnings returns the issues with warning severity.
func (r *Report) Warnings() []Issue {
	var out []Issue
	for _, issue := range r.Issues {
		if issue.Severity == SeverityWarning {
			out = append(out, issue)
		}
	}
	return out
}

// FailedMetrics returns the metrics that missed their thresholds.
func (r *Report) FailedMetrics() []Metric {
	var out []Metric
	for _, metric := range r.Metrics {
		if !metric.Passed {
			out = append(out, metric)
		}
	}
	return out
}

// ToMap converts the report into a serializable map with summary and
// breakdown sections.
func (r *Report) ToMap() map[string]any {
	metrics := make([]any, 0, len(r.Metrics))
	for _, m := range r.Metrics {
		metrics = append(metrics, map[string]any{
			"name":        m.Name,
			"value":       m.Value,
			"threshold":   m.Threshold,
			"passed":      m.Passed,
			"description": m.Description,
		})
	}

	issues := make([]any, 0, len(r.Issues))
	for _, issue := range r.Issues {
		entry := map[string]any{
			"rule_name":        issue.RuleName,
			"severity":         string(issue.Severity),
			"message":          issue.Message,
			"affected_rows":    issue.AffectedRows,
			"affected_columns": issue.AffectedColumns,
		}
		if len(issue.SampleRows) > 0 {
			entry["sample_rows"] = issue.SampleRows
		}
		issues = append(issues, entry)
	}

	return map[string]any{
		"timestamp": r.Timestamp.Format(time.RFC3339),
		"summary": map[string]any{
			"total_records": r.TotalRecords,
			"total_columns": r.TotalColumns,
			"overall_score": math.Round(r.OverallScore*100) / 100,
			"total_issues":  len(r.Issues),
			"total_metrics": len(r.Metrics),
		},
		"metrics":            metrics,
		"issues":             issues,
		"severity_breakdown": r.severityBreakdown(),
		"category_breakdown": r.categoryBreakdown(),
	}
}

// ToJSON renders the report as indented JSON.
func (r *Report) ToJSON() (string, error) {
	data, err := json.MarshalIndent(r.ToMap(), "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal quality report: %w", err)
	}
	return string(data), nil
}

// ToText renders the report as a human-readable summary.
func (r *Report) ToText() string {
	var b strings.Builder
	line := strings.Repeat("=", 60)

	fmt.Fprintln(&b, line)
	fmt.Fprintln(&b, "DATA QUALITY REPORT")
	fmt.Fprintln(&b, line)
	fmt.Fprintf(&b, "Generated: %s\n", r.Timestamp.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(&b, "Total Records: %d\n", r.TotalRecords)
	fmt.Fprintf(&b, "Total Columns: %d\n", r.TotalColumns)
	fmt.Fprintf(&b, "Overall Score: %.1f%%\n\n", r.OverallScore)

	fmt.Fprintln(&b, "SUMMARY")
	fmt.Fprintln(&b, strings.Repeat("-", 20))
	fmt.Fprintf(&b, "Total Issues: %d\n", len(r.Issues))
	fmt.Fprintf(&b, "Total Metrics: %d\n", len(r.Metrics))

	if breakdown := r.severityBreakdown(); len(breakdown) > 0 {
		fmt.Fprintln(&b, "\nIssues by Severity:")
		for _, severity := range []Severity{SeverityError, SeverityWarning, SeverityInfo} {
			if count, ok := breakdown[string(severity)]; ok {
				fmt.Fprintf(&b, "  %s%s: %d\n", strings.ToUpper(string(severity)[:1]), string(severity)[1:], count)
			}
		}
	}

	if len(r.Metrics) > 0 {
		fmt.Fprintln(&b, "\nQUALITY METRICS")
		fmt.Fprintln(&b, strings.Repeat("-", 20))
		for _, category := range r.metricCategories() {
			fmt.Fprintf(&b, "\n%s%s:\n", strings.ToUpper(category[:1]), category[1:])
			for _, metric := range r.Metrics {
				if metricCategory(metric.Name) != category {
					continue
				}
				status := "PASS"
				if !metric.Passed {
					status = "FAIL"
				}
				fmt.Fprintf(&b, "  [%s] %s: %.1f%% (threshold: %g%%)\n", status, metric.Name, metric.Value, metric.Threshold)
				fmt.Fprintf(&b, "        %s\n", metric.Description)
			}
		}
	}

	if len(r.Issues) > 0 {
		fmt.Fprintln(&b, "\nQUALITY ISSUES")
		fmt.Fprintln(&b, strings.Repeat("-", 20))
		for _, severity := range []Severity{SeverityError, SeverityWarning, SeverityInfo} {
			issues := r.issuesBySeverity(severity)
			if len(issues) == 0 {
				continue
			}
			fmt.Fprintf(&b, "\n%sS:\n", strings.ToUpper(string(severity)))
			for _, issue := range issues {
				fmt.Fprintf(&b, "  - %s\n", issue.Message)
				fmt.Fprintf(&b, "    Affected: %d rows, columns: %s\n", issue.AffectedRows, strings.Join(issue.AffectedColumns, ", "))
			}
		}
	}

	fmt.Fprintln(&b, "")
	fmt.Fprintln(&b, line)
	return b.String()
}

// SaveToFile writes the report to disk as "json" or "txt".
func (r *Report) SaveToFile(path, format string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create report directory: %w", err)
	}

	var content string
	switch strings.ToLower(format) {
	case "json":
		rendered, err := r.ToJSON()
		if err != nil {
			return err
		}
		content = rendered
	case "txt":
		content = r.ToText()
	default:
		return fmt.Errorf("unsupported report format: %s", format)
	}

	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		return fmt.Errorf("write quality report %s: %w", path, err)
	}
	return nil
}

func (r *Report) severityBreakdown() map[string]int {
	breakdown := make(map[string]int)
	for _, issue := range r.Issues {
		breakdown[string(issue.Severity)]++
	}
	return breakdown
}

func (r *Report) categoryBreakdown() map[string]int {
	breakdown := make(map[string]int)
	for _, metric := range r.Metrics {
		breakdown[metricCategory(metric.Name)]++
	}
	return breakdown
}

func (r *Report) countBySeverity(severity Severity) int {
	count := 0
	for _, issue := range r.Issues {
		if issue.Severity == severity {
			count++
		}
	}
	return count
}

func (r *Report) issuesBySeverity(severity Severity) []Issue {
	var out []Issue
	for _, issue := range r.Issues {
		if issue.Severity == severity {
			out = append(out, issue)
		}
	}
	return out
}

// metricCategories returns the distinct categories in first-seen order.
func (r *Report) metricCategories() []string {
	seen := make(map[string]bool)
	var out []string
	for _, metric := range r.Metrics {
		category := metricCategory(metric.Name)
		if !seen[category] {
			seen[category] = true
			out = append(out, category)
		}
	}
	return out
}
