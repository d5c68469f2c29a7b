package extract

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sort"
	"time"

	"golang.org/x/time/rate"

	"salesetl/internal/retry"
	"salesetl/pkg/contracts/domain"
)

// APISource reads sales records from an HTTP endpoint returning a JSON
// array of objects. Requests are rate limited and retried with backoff.
type APISource struct {
	url     string
	client  *http.Client
	limiter *rate.Limiter
	logger  *slog.Logger
	retry   []retry.Option
}

// NewAPISource creates an HTTP source for the given URL. client may be
// nil to use a default with a 30s timeout.
func NewAPISource(url string, client *http.Client, logger *slog.Logger, opts ...retry.Option) *APISource {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &APISource{
		url:     url,
		client:  client,
		limiter: rate.NewLimiter(rate.Every(time.Second), 2),
		logger:  logger,
		retry:   opts,
	}
}

// Extract fetches the endpoint and decodes the response into a Dataset.
func (s *APISource) Extract(ctx context.Context) (*domain.Dataset, error) {
	var records []map[string]any

	err := retry.Do(ctx, "api extract", func(ctx context.Context) error {
		if err := s.limiter.Wait(ctx); err != nil {
			return err
		}
		return s.fetch(ctx, &records)
	}, s.retry...)
	if err != nil {
		return nil, err
	}

	ds := datasetFromRecords(records)
	s.logger.InfoContext(ctx, "api extraction completed",
		slog.String("url", s.url),
		slog.Int("records", ds.Len()))
	return ds, nil
}

func (s *APISource) fetch(ctx context.Context, out *[]map[string]any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("fetch %s: %w", s.url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("fetch %s: unexpected status %d", s.url, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// datasetFromRecords builds a Dataset with a deterministic column order:
// keys are collected across all records and sorted.
func datasetFromRecords(records []map[string]any) *domain.Dataset {
	keys := make(map[string]bool)
	for _, record := range records {
		for k := range record {
			keys[k] = true
		}
	}
	columns := make([]string, 0, len(keys))
	for k := range keys {
		columns = append(columns, k)
	}
	sort.Strings(columns)

	ds := domain.NewDataset(columns...)
	for _, record := range records {
		row := make(domain.Row, len(columns))
		for _, col := range columns {
			v, ok := record[col]
			if !ok || v == nil {
				row[col] = nil
				continue
			}
			if str, isString := v.(string); isString {
				row[col] = coerceCell(str)
				continue
			}
			row[col] = v
		}
		ds.Append(row)
	}
	return ds
}
