package analytics

import (
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/okian/evalboard/internal/domain/model"
	"github.com/okian/evalboard/internal/domain/types"
)

// EvaluateAll runs Evaluate for every inspector of the roster. Inspectors
// are evaluated independently in parallel; the result keeps roster order.
func (e *Engine) EvaluateAll(records []model.EvaluationRecord, roster []model.Inspector, targets []model.Target, w Window) []types.AdvancedPerformanceMetric {
	byInspector := make(map[string][]model.EvaluationRecord, len(roster))
	for _, r := range records {
		byInspector[r.InspectorID] = append(byInspector[r.InspectorID], r)
	}

	out := make([]types.AdvancedPerformanceMetric, len(roster))

	var g errgroup.Group
	g.SetLimit(e.parallelism)
	for i, in := range roster {
		g.Go(func() error {
			out[i] = e.Evaluate(byInspector[in.ID], in, targets, w)
			return nil
		})
	}
	_ = g.Wait() // workers never fail

	return out
}

// BuildMatrix produces one row per roster inspector, ranked by weighted
// score descending. Ties keep roster order.
func (e *Engine) BuildMatrix(records []model.EvaluationRecord, roster []model.Inspector, targets []model.Target, w Window) []types.ComparativeMatrixRow {
	metrics := e.EvaluateAll(records, roster, targets, w)

	rows := make([]types.ComparativeMatrixRow, len(metrics))
	for i, m := range metrics {
		rows[i] = types.ComparativeMatrixRow{
			InspectorID:    m.InspectorID,
			InspectorName:  m.InspectorName,
			WeightedScore:  m.WeightedScore,
			TargetAchieved: m.TargetAchievement,
			Commitment:     m.CommitmentRate,
			Quality:        m.ApprovalRate,
			DailyAvg:       Ratio(float64(m.TotalUnits), float64(m.DaysActive)),
			RiskLevel:      e.ClassifyRisk(m),
		}
	}

	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].WeightedScore > rows[j].WeightedScore
	})
	return rows
}

// ClassifyRisk assigns a risk tier. Rules are checked from most to least
// severe and the first match wins. An inspector without a target has 0%
// achievement and is judged by it like everyone else.
func (e *Engine) ClassifyRisk(m types.AdvancedPerformanceMetric) types.RiskLevel {
	if m.TotalRecords < e.riskMinRecords {
		return types.RiskLow
	}

	lowCommitment := m.CommitmentRate < riskCommitmentFloor
	lowAchievement := m.TargetAchievement < riskAchievementFloor
	lowApproval := m.ApprovalRate < riskApprovalFloor

	switch {
	case lowCommitment && lowAchievement:
		return types.RiskCritical
	case lowCommitment || lowAchievement || lowApproval:
		return types.RiskHigh
	case m.ApprovalRate < riskApprovalComfortCeiling:
		return types.RiskMedium
	case Ratio(float64(m.TotalUnits), float64(m.TotalRecords)) >= e.bulkEntryThreshold:
		return types.RiskMedium
	default:
		return types.RiskLow
	}
}

// Summaries returns the compact risk-view rows, most severe first. Ties
// keep roster order.
func (e *Engine) Summaries(records []model.EvaluationRecord, roster []model.Inspector, targets []model.Target, w Window) []types.InspectorPerformance {
	metrics := e.EvaluateAll(records, roster, targets, w)

	rows := make([]types.InspectorPerformance, len(metrics))
	for i, m := range metrics {
		rows[i] = types.InspectorPerformance{
			InspectorID:      m.InspectorID,
			InspectorName:    m.InspectorName,
			TotalInspections: m.TotalRecords,
			TotalItems:       m.TotalUnits,
			ApprovedItems:    m.ApprovedUnits,
			PendingItems:     m.TotalUnits - m.ApprovedUnits,
			ApprovalRate:     Round(m.ApprovalRate),
			Score:            m.WeightedScore,
			RiskFactor:       e.ClassifyRisk(m),
		}
	}

	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].RiskFactor.Severity() > rows[j].RiskFactor.Severity()
	})
	return rows
}

// RiskCounts tallies matrix rows per risk tier. Every tier is present.
func RiskCounts(rows []types.ComparativeMatrixRow) map[types.RiskLevel]int {
	counts := emptyRiskCounts()
	for _, r := range rows {
		counts[r.RiskLevel]++
	}
	return counts
}

// SummaryRiskCounts tallies risk-view rows per risk tier. Every tier is
// present.
func SummaryRiskCounts(rows []types.InspectorPerformance) map[types.RiskLevel]int {
	counts := emptyRiskCounts()
	for _, r := range rows {
		counts[r.RiskFactor]++
	}
	return counts
}

func emptyRiskCounts() map[types.RiskLevel]int {
	return map[types.RiskLevel]int{
		types.RiskLow:      0,
		types.RiskMedium:   0,
		types.RiskHigh:     0,
		types.RiskCritical: 0,
	}
}
