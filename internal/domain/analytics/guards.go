package analytics

import (
	"math"
	"time"

	"github.com/okian/evalboard/internal/domain/model"
	"github.com/okian/evalboard/internal/domain/types"
)

// Percent returns 100*part/whole, or 0 when whole is not positive.
func Percent(part, whole float64) float64 {
	if whole <= 0 {
		return 0
	}
	return maxPercent * part / whole
}

// Ratio returns num/den, or 0 when den is not positive.
func Ratio(num, den float64) float64 {
	if den <= 0 {
		return 0
	}
	return num / den
}

// Cap clamps a sub-metric to the 0..100 scale.
func Cap(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	return math.Min(v, maxPercent)
}

// Round rounds half away from zero, matching half-up for the non-negative
// values produced here.
func Round(v float64) int {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return int(math.Round(v))
}

// RecordApprovalRate is the share of approved records, by record count.
func RecordApprovalRate(records []model.EvaluationRecord) float64 {
	approved := 0
	for _, r := range records {
		if r.Approved() {
			approved++
		}
	}
	return Percent(float64(approved), float64(len(records)))
}

// ApprovedUnits sums the count field of approved records.
func ApprovedUnits(records []model.EvaluationRecord) int {
	approved := 0
	for _, r := range records {
		if r.Approved() {
			approved += r.Count
		}
	}
	return approved
}

// UnitApprovalRate is the share of approved units, by the count field.
func UnitApprovalRate(records []model.EvaluationRecord) float64 {
	return Percent(float64(ApprovedUnits(records)), float64(TotalUnits(records)))
}

// WeightedScore combines the three sub-metrics into the 0..100 composite.
// Each input is capped at 100 before weighting.
func WeightedScore(targetAchievement, commitmentRate, approvalRate float64) int {
	return Round(achievementWeight*Cap(targetAchievement) +
		commitmentWeight*Cap(commitmentRate) +
		approvalWeight*Cap(approvalRate))
}

// GradeFor buckets a weighted score.
func GradeFor(score int) types.Grade {
	switch {
	case score >= gradeAThreshold:
		return types.GradeA
	case score >= gradeBThreshold:
		return types.GradeB
	case score >= gradeCThreshold:
		return types.GradeC
	default:
		return types.GradeD
	}
}

// DistinctDates counts the distinct record dates.
func DistinctDates(records []model.EvaluationRecord) int {
	seen := make(map[string]struct{}, len(records))
	for _, r := range records {
		seen[r.Date] = struct{}{}
	}
	return len(seen)
}

// TotalUnits sums the count field.
func TotalUnits(records []model.EvaluationRecord) int {
	total := 0
	for _, r := range records {
		total += r.Count
	}
	return total
}

// ExpectedDays counts the calendar days of w, inclusive, minus the engine's
// non-working days. Open or unparsable bounds and inverted windows yield 0.
func (e *Engine) ExpectedDays(w Window) int {
	from, err := time.Parse(model.DateLayout, w.From)
	if err != nil {
		return 0
	}
	to, err := time.Parse(model.DateLayout, w.To)
	if err != nil || to.Before(from) {
		return 0
	}

	days := 0
	for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
		if _, off := e.weekend[d.Weekday()]; off {
			continue
		}
		if _, off := e.nonWorkingDays[d.Format(model.DateLayout)]; off {
			continue
		}
		days++
	}
	return days
}
