// Package analytics computes summary statistics, revenue trends, and
// product performance over a transformed sales dataset. The analyzer is
// read-only: it never mutates the dataset it is given.
package analytics

import (
	"fmt"
	"log/slog"
	"math"
	"sort"
	"time"

	"salesetl/pkg/contracts/domain"
)

// Period selects the grouping granularity for trend analysis.
type Period string

const (
	PeriodMonth   Period = "month"
	PeriodQuarter Period = "quarter"
	PeriodYear    Period = "year"
)

// DateRange bounds the dates present in the dataset.
type DateRange struct {
	Start string `json:"start,omitempty"`
	End   string `json:"end,omitempty"`
}

// Summary holds the basic sales metrics.
type Summary struct {
	TotalRecords   int       `json:"total_records"`
	DateRange      DateRange `json:"date_range"`
	TotalRevenue   float64   `json:"total_revenue"`
	TotalQuantity  float64   `json:"total_quantity"`
	AvgUnitPrice   float64   `json:"avg_unit_price"`
	AvgDiscount    float64   `json:"avg_discount"`
	UniqueProducts int       `json:"unique_products"`
}

// Trend compares one period's revenue against the previous period.
type Trend struct {
	Period        string  `json:"period"`
	Metric        string  `json:"metric"`
	CurrentValue  float64 `json:"current_value"`
	PreviousValue float64 `json:"previous_value"`
	ChangePercent float64 `json:"change_percent"`
	Direction     string  `json:"direction"`
}

// ProductPerformance aggregates one product's sales.
type ProductPerformance struct {
	ProductID     string  `json:"product_id"`
	TotalRevenue  float64 `json:"total_revenue"`
	AvgOrderValue float64 `json:"avg_order_value"`
	OrderCount    int     `json:"order_count"`
	TotalQuantity float64 `json:"total_quantity"`
	AvgPrice      float64 `json:"avg_price"`
	AvgDiscount   float64 `json:"avg_discount"`
	RevenueRank   int     `json:"revenue_rank"`
}

// Analyzer computes analytics over a single dataset.
type Analyzer struct {
	ds     *domain.Dataset
	logger *slog.Logger
}

// NewAnalyzer creates an analyzer over the given dataset.
func NewAnalyzer(ds *domain.Dataset, logger *slog.Logger) *Analyzer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Analyzer{ds: ds, logger: logger}
}

// Summary returns the basic sales metrics. Columns absent from the
// dataset contribute zero values.
func (a *Analyzer) Summary() Summary {
	s := Summary{TotalRecords: a.ds.Len()}

	s.TotalRevenue = round2(sum(a.ds.FloatColumn(domain.ColTotalSales)))
	s.TotalQuantity = round2(sum(a.ds.FloatColumn(domain.ColQuantity)))
	s.AvgUnitPrice = round2(mean(a.ds.FloatColumn(domain.ColUnitPrice)))
	s.AvgDiscount = round2(mean(a.ds.FloatColumn(domain.ColDiscount)))

	if a.ds.HasColumn(domain.ColProductID) {
		products := make(map[string]bool)
		for i := range a.ds.Rows {
			if id, ok := a.ds.String(i, domain.ColProductID); ok {
				products[id] = true
			}
		}
		s.UniqueProducts = len(products)
	}

	if start, end, ok := a.dateBounds(); ok {
		s.DateRange = DateRange{
			Start: start.Format("2006-01-02"),
			End:   end.Format("2006-01-02"),
		}
	}
	return s
}

// RevenueTrends groups revenue by the given period and reports the
// period-over-period change. The first period has no predecessor and
// produces no trend entry.
func (a *Analyzer) RevenueTrends(period Period) ([]Trend, error) {
	if !a.ds.HasColumn(domain.ColDate) || !a.ds.HasColumn(domain.ColTotalSales) {
		return nil, nil
	}

	grouped := make(map[string]float64)
	for i := range a.ds.Rows {
		t, ok := a.ds.Time(i, domain.ColDate)
		if !ok {
			continue
		}
		revenue, ok := a.ds.Float(i, domain.ColTotalSales)
		if !ok {
			continue
		}
		key, err := periodKey(t, period)
		if err != nil {
			return nil, err
		}
		grouped[key] += revenue
	}

	keys := make([]string, 0, len(grouped))
	for k := range grouped {
		keys = append(keys, k)
	}
	// Period keys are zero-padded, so lexicographic order is
	// chronological order.
	sort.Strings(keys)

	trends := make([]Trend, 0, len(keys))
	for i := 1; i < len(keys); i++ {
		current := grouped[keys[i]]
		previous := grouped[keys[i-1]]

		var change float64
		if previous != 0 {
			change = (current - previous) / previous * 100
		}
		direction := "stable"
		switch {
		case change > 0:
			direction = "up"
		case change < 0:
			direction = "down"
		}

		trends = append(trends, Trend{
			Period:        keys[i],
			Metric:        "revenue",
			CurrentValue:  round2(current),
			PreviousValue: round2(previous),
			ChangePercent: round2(change),
			Direction:     direction,
		})
	}
	return trends, nil
}

// TopProducts returns the n highest-revenue products with their
// aggregate performance, ranked by revenue.
func (a *Analyzer) TopProducts(n int) []ProductPerformance {
	if !a.ds.HasColumn(domain.ColProductID) || n <= 0 {
		return nil
	}

	type accumulator struct {
		revenue  float64
		quantity float64
		price    float64
		discount float64
		count    int
	}
	byProduct := make(map[string]*accumulator)
	order := make([]string, 0)

	for i := range a.ds.Rows {
		id, ok := a.ds.String(i, domain.ColProductID)
		if !ok {
			continue
		}
		acc := byProduct[id]
		if acc == nil {
			acc = &accumulator{}
			byProduct[id] = acc
			order = append(order, id)
		}
		if v, ok := a.ds.Float(i, domain.ColTotalSales); ok {
			acc.revenue += v
		}
		if v, ok := a.ds.Float(i, domain.ColQuantity); ok {
			acc.quantity += v
		}
		if v, ok := a.ds.Float(i, domain.ColUnitPrice); ok {
			acc.price += v
		}
		if v, ok := a.ds.Float(i, domain.ColDiscount); ok {
			acc.discount += v
		}
		acc.count++
	}

	sort.SliceStable(order, func(i, j int) bool {
		return byProduct[order[i]].revenue > byProduct[order[j]].revenue
	})

	if n > len(order) {
		n = len(order)
	}
	results := make([]ProductPerformance, 0, n)
	for rank, id := range order[:n] {
		acc := byProduct[id]
		count := float64(acc.count)
		results = append(results, ProductPerformance{
			ProductID:     id,
			TotalRevenue:  round2(acc.revenue),
			AvgOrderValue: round2(acc.revenue / count),
			OrderCount:    acc.count,
			TotalQuantity: round2(acc.quantity),
			AvgPrice:      round2(acc.price / count),
			AvgDiscount:   round2(acc.discount / count),
			RevenueRank:   rank + 1,
		})
	}
	return results
}

// dateBounds returns the earliest and latest parseable dates.
func (a *Analyzer) dateBounds() (time.Time, time.Time, bool) {
	if !a.ds.HasColumn(domain.ColDate) {
		return time.Time{}, time.Time{}, false
	}
	var start, end time.Time
	found := false
	for i := range a.ds.Rows {
		t, ok := a.ds.Time(i, domain.ColDate)
		if !ok {
			continue
		}
		if !found || t.Before(start) {
			start = t
		}
		if !found || t.After(end) {
			end = t
		}
		found = true
	}
	return start, end, found
}

// periodKey formats a date into its grouping key: "2024-06", "2024-Q2",
// or "2024".
func periodKey(t time.Time, period Period) (string, error) {
	switch period {
	case PeriodMonth:
		return fmt.Sprintf("%04d-%02d", t.Year(), int(t.Month())), nil
	case PeriodQuarter:
		return fmt.Sprintf("%04d-Q%d", t.Year(), (int(t.Month())+2)/3), nil
	case PeriodYear:
		return fmt.Sprintf("%04d", t.Year()), nil
	default:
		return "", fmt.Errorf("unsupported trend period %q", period)
	}
}

func sum(values []float64) float64 {
	var total float64
	for _, v := range values {
		total += v
	}
	return total
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	return sum(values) / float64(len(values))
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
