package quality

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleReport() *Report {
	return &Report{
		Timestamp:    time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC),
		TotalRecords: 100,
		TotalColumns: 6,
		Metrics: []Metric{
			{Name: "overall_completeness", Value: 98.0, Threshold: 95.0, Passed: true, Description: "Percentage of non-null values across all columns"},
			{Name: "completeness_quantity", Value: 92.0, Threshold: 95.0, Passed: false, Description: "Completeness percentage for column quantity"},
			{Name: "consistency_calculation", Value: 100.0, Threshold: 99.0, Passed: true, Description: "Percentage of records with consistent calculations"},
			{Name: "validity_quantity", Value: 100.0, Threshold: 100.0, Passed: true, Description: "Percentage of records with valid quantities (> 0)"},
		},
		Issues: []Issue{
			{RuleName: "completeness", Severity: SeverityWarning, Message: "Column quantity has 8 null values (92.0% complete)", AffectedRows: 8, AffectedColumns: []string{"quantity"}},
			{RuleName: "validity_unit_price", Severity: SeverityError, Message: "Found 2 records with negative prices", AffectedRows: 2, AffectedColumns: []string{"unit_price"}},
		},
		OverallScore: 87.456,
	}
}

func TestReportIsAcceptable(t *testing.T) {
	tests := []struct {
		name   string
		score  float64
		issues []Issue
		min    float64
		want   bool
	}{
		{"above_min_no_issues", 90, nil, 80, true},
		{"at_min_no_issues", 80, nil, 80, true},
		{"below_min", 79.9, nil, 80, false},
		{"error_issue_blocks", 95, []Issue{{Severity: SeverityError}}, 80, false},
		{"warning_does_not_block", 85, []Issue{{Severity: SeverityWarning}}, 80, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := &Report{OverallScore: tt.score, Issues: tt.issues}
			assert.Equal(t, tt.want, r.IsAcceptable(tt.min))
		})
	}
}

func TestReportAccessors(t *testing.T) {
	r := sampleReport()

	assert.Len(t, r.CriticalIssues(), 1)
	assert.Equal(t, "validity_unit_price", r.CriticalIssues()[0].RuleName)
	assert.Len(t, r.Warnings(), 1)

	failed := r.FailedMetrics()
	require.Len(t, failed, 1)
	assert.Equal(t, "completeness_quantity", failed[0].Name)
}

func TestReportToMap(t *testing.T) {
	m := sampleReport().ToMap()

	assert.Equal(t, "2024-06-15T12:00:00Z", m["timestamp"])

	summary := m["summary"].(map[string]any)
	assert.Equal(t, 100, summary["total_records"])
	assert.Equal(t, 6, summary["total_columns"])
	assert.Equal(t, 87.46, summary["overall_score"], "score rounded to 2 decimals")
	assert.Equal(t, 2, summary["total_issues"])
	assert.Equal(t, 4, summary["total_metrics"])

	severity := m["severity_breakdown"].(map[string]int)
	assert.Equal(t, 1, severity["error"])
	assert.Equal(t, 1, severity["warning"])

	category := m["category_breakdown"].(map[string]int)
	assert.Equal(t, 2, category["completeness"]+category["overall"])
	assert.Equal(t, 1, category["consistency"])
	assert.Equal(t, 1, category["validity"])
}

func TestReportToJSON(t *testing.T) {
	rendered, err := sampleReport().ToJSON()
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal([]byte(rendered), &decoded))
	assert.Contains(t, decoded, "summary")
	assert.Contains(t, decoded, "metrics")
	assert.Contains(t, decoded, "issues")
}

func TestReportToText(t *testing.T) {
	text := sampleReport().ToText()

	assert.Contains(t, text, "DATA QUALITY REPORT")
	assert.Contains(t, text, "Total Records: 100")
	assert.Contains(t, text, "Overall Score: 87.5%")
	assert.Contains(t, text, "[PASS] overall_completeness")
	assert.Contains(t, text, "[FAIL] completeness_quantity")
	assert.Contains(t, text, "ERRORS:")
	assert.Contains(t, text, "WARNINGS:")
	assert.Contains(t, text, "Found 2 records with negative prices")
}

func TestReportSaveToFile(t *testing.T) {
	dir := t.TempDir()
	r := sampleReport()

	jsonPath := filepath.Join(dir, "reports", "quality.json")
	require.NoError(t, r.SaveToFile(jsonPath, "json"))
	data, err := os.ReadFile(jsonPath)
	require.NoError(t, err)
	var decoded map[string]any
	assert.NoError(t, json.Unmarshal(data, &decoded))

	txtPath := filepath.Join(dir, "quality.txt")
	require.NoError(t, r.SaveToFile(txtPath, "txt"))
	data, err = os.ReadFile(txtPath)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(data), "DATA QUALITY REPORT"))

	err = r.SaveToFile(filepath.Join(dir, "quality.xml"), "xml")
	assert.ErrorContains(t, err, "unsupported report format")
}
