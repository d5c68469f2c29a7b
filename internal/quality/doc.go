// Package quality implements the data quality assessment engine.
//
// A Checker runs five independent check families over a dataset:
// completeness, accuracy, consistency, validity, and timeliness. Each
// family produces named, thresholded metrics and structured issues;
// RunAllChecks aggregates everything into a Report with one weighted
// overall score in [0, 100].
//
// Scoring groups metrics by the leading token of their name and
// averages within each category before applying the category weight.
// A category with no applicable metrics (for example timeliness on a
// dataset without a date column) contributes zero, and the remaining
// weights are not renormalized, so such datasets cannot reach 100.
//
// An internal failure inside one family degrades the report to fewer
// metrics rather than failing the whole run.
package quality
