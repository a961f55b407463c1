package analytics

import (
	"sort"

	"github.com/okian/evalboard/internal/domain/model"
	"github.com/okian/evalboard/internal/domain/types"
)

// Trend sums units per date, ascending by date.
func Trend(records []model.EvaluationRecord) []types.TrendPoint {
	totals := make(map[string]int)
	for _, r := range records {
		totals[r.Date] += r.Count
	}

	points := make([]types.TrendPoint, 0, len(totals))
	for date, count := range totals {
		points = append(points, types.TrendPoint{Date: date, Count: count})
	}
	sort.Slice(points, func(i, j int) bool {
		return points[i].Date < points[j].Date
	})
	return points
}

// CategoryBreakdown sums units per main item.
func CategoryBreakdown(records []model.EvaluationRecord) []types.Share {
	return breakdown(records, func(r model.EvaluationRecord) string { return r.MainItem })
}

// ItemPerformance sums units per sub item.
func ItemPerformance(records []model.EvaluationRecord) []types.Share {
	return breakdown(records, func(r model.EvaluationRecord) string { return r.SubItem })
}

// breakdown groups by key, sorted by value descending. Ties keep the order
// in which groups were first seen.
func breakdown(records []model.EvaluationRecord, key func(model.EvaluationRecord) string) []types.Share {
	index := make(map[string]int)
	shares := make([]types.Share, 0)
	total := 0

	for _, r := range records {
		k := key(r)
		i, ok := index[k]
		if !ok {
			i = len(shares)
			index[k] = i
			shares = append(shares, types.Share{Name: k})
		}
		shares[i].Value += r.Count
		total += r.Count
	}

	for i := range shares {
		shares[i].Percentage = Round(Percent(float64(shares[i].Value), float64(total)))
	}

	sort.SliceStable(shares, func(i, j int) bool {
		return shares[i].Value > shares[j].Value
	})
	return shares
}
