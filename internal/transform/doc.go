// Package transform implements the sales data transformation pipeline.
//
// The pipeline takes a raw tabular dataset and applies four stages in
// order:
//
//   - clean_data: duplicate removal, missing-value fill, and sequential
//     per-column 3-sigma outlier removal
//   - validate_dates: date parsing and future-date removal
//   - calculate_metrics: derived financial columns (gross_sales,
//     discount_amount, profit_margin, and total_sales when absent)
//   - standardize_columns: column name normalization and 2-decimal
//     rounding of numeric cells
//
// Every stage is wrapped with the content cache from internal/cache, so
// repeated transformations of identical inputs are served from disk.
// Stages never mutate their input; each returns a new dataset.
//
// Error semantics: a stage error aborts the whole Transform call and is
// logged with the stage name, then propagated to the caller unchanged.
// Cache failures are never fatal.
package transform
