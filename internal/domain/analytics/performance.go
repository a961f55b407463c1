package analytics

import (
	"github.com/okian/evalboard/internal/domain/model"
	"github.com/okian/evalboard/internal/domain/types"
)

// Evaluate computes the performance of one inspector over w.
//
// The approval rate is counted by units. Without a matching target the
// achievement is 0 and HasTarget is false, distinct from an assigned target
// of 0.
func (e *Engine) Evaluate(records []model.EvaluationRecord, inspector model.Inspector, targets []model.Target, w Window) types.AdvancedPerformanceMetric {
	own := make([]model.EvaluationRecord, 0)
	for _, r := range records {
		if r.InspectorID == inspector.ID && w.Contains(r.Date) {
			own = append(own, r)
		}
	}

	totalUnits := TotalUnits(own)
	approvedUnits := ApprovedUnits(own)
	approvalRate := UnitApprovalRate(own)

	targetValue, hasTarget := e.EffectiveTarget(targets, inspector.ID, w)
	achievement := Percent(float64(totalUnits), float64(targetValue))

	daysExpected := e.ExpectedDays(w)
	daysActive := DistinctDates(own)
	commitment := Percent(float64(daysActive), float64(daysExpected))

	score := WeightedScore(achievement, commitment, approvalRate)
	grade := GradeFor(score)

	return types.AdvancedPerformanceMetric{
		InspectorID:       inspector.ID,
		InspectorName:     inspector.Name,
		TargetAchievement: achievement,
		CommitmentRate:    commitment,
		ApprovalRate:      approvalRate,
		WeightedScore:     score,
		ScoreGrade:        grade,
		GradeLabel:        grade.Label(),
		DaysActive:        daysActive,
		DaysExpected:      daysExpected,
		TotalRecords:      len(own),
		TotalUnits:        totalUnits,
		ApprovedUnits:     approvedUnits,
		TargetValue:       targetValue,
		HasTarget:         hasTarget,
	}
}

// InspectorPerformance looks the inspector up in the roster and evaluates
// it. The boolean is false when the id is not in the roster.
func (e *Engine) InspectorPerformance(records []model.EvaluationRecord, roster []model.Inspector, targets []model.Target, inspectorID string, w Window) (types.AdvancedPerformanceMetric, bool) {
	for _, in := range roster {
		if in.ID == inspectorID {
			return e.Evaluate(records, in, targets, w), true
		}
	}
	return types.AdvancedPerformanceMetric{}, false
}

// EffectiveTarget sums the target values assigned to inspectorID, filtered
// by the engine's matching mode. The boolean reports whether any target row
// matched.
func (e *Engine) EffectiveTarget(targets []model.Target, inspectorID string, w Window) (int, bool) {
	return sumTargets(targets, inspectorID, w, e.targetMatch)
}

func sumTargets(targets []model.Target, inspectorID string, w Window, mode TargetMatch) (int, bool) {
	total, matched := 0, false
	for _, t := range targets {
		if t.InspectorID != inspectorID {
			continue
		}
		if mode == TargetMatchOverlap && !t.Overlaps(w.From, w.To) {
			continue
		}
		total += t.TargetValue
		matched = true
	}
	return total, matched
}
