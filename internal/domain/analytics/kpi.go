package analytics

import (
	"github.com/okian/evalboard/internal/domain/model"
	"github.com/okian/evalboard/internal/domain/types"
)

// ComputeGlobalKPIs reduces an already filtered record set to summary
// counters. The approval rate is counted by records, not units.
func ComputeGlobalKPIs(records []model.EvaluationRecord) types.GlobalKPIs {
	totalUnits := TotalUnits(records)

	days := DistinctDates(records)
	if days < 1 {
		days = 1
	}

	return types.GlobalKPIs{
		TotalRecords:  len(records),
		TotalUnits:    totalUnits,
		ApprovalRate:  Round(RecordApprovalRate(records)),
		DailyVelocity: Round(float64(totalUnits) / float64(days)),
	}
}

// KPIMetrics renders the summary counters as display-ready metrics.
func KPIMetrics(k types.GlobalKPIs) []types.KPIMetric {
	return []types.KPIMetric{
		{Label: "Total records", Value: k.TotalRecords, Color: "blue", Icon: "clipboard-list"},
		{Label: "Total units", Value: k.TotalUnits, Color: "indigo", Icon: "layers"},
		{Label: "Approval rate", Value: k.ApprovalRate, Color: "green", Icon: "check-circle"},
		{Label: "Daily velocity", Value: k.DailyVelocity, Color: "amber", Icon: "trending-up"},
	}
}
