package analytics_test

import (
	"fmt"
	"testing"

	"github.com/okian/evalboard/internal/domain/analytics"
	"github.com/okian/evalboard/internal/domain/model"
	"github.com/okian/evalboard/internal/domain/types"
	. "github.com/smartystreets/goconvey/convey"
)

func TestBuildMatrix(t *testing.T) {
	window := analytics.Window{From: "2024-05-01", To: "2024-05-20"}

	Convey("Given a roster of four inspectors", t, func() {
		engine := analytics.NewEngine(analytics.WithParallelism(2))
		roster := []model.Inspector{
			{ID: "idle-1", Name: "Idle One"},
			{ID: "steady", Name: "Steady"},
			{ID: "idle-2", Name: "Idle Two"},
			{ID: "light", Name: "Light"},
		}
		records := append(steadyInspector("steady"),
			rec("2024-05-03", "light", 2, model.StatusApproved),
			rec("2024-05-04", "light", 2, model.StatusPending),
		)
		targets := []model.Target{
			{InspectorID: "steady", TargetValue: 100},
			{InspectorID: "light", TargetValue: 100},
		}

		Convey("When building the matrix", func() {
			rows := engine.BuildMatrix(records, roster, targets, window)

			Convey("Then there is one row per roster inspector", func() {
				So(len(rows), ShouldEqual, len(roster))
			})

			Convey("Then rows are ordered by weighted score, ties in roster order", func() {
				for i := 1; i < len(rows); i++ {
					So(rows[i-1].WeightedScore, ShouldBeGreaterThanOrEqualTo, rows[i].WeightedScore)
				}
				So(rows[0].InspectorID, ShouldEqual, "steady")
				So(rows[1].InspectorID, ShouldEqual, "light")
				So(rows[2].InspectorID, ShouldEqual, "idle-1")
				So(rows[3].InspectorID, ShouldEqual, "idle-2")
			})

			Convey("Then daily average divides units by active days", func() {
				So(rows[0].DailyAvg, ShouldAlmostEqual, 80.0/18.0, 1e-9)
				So(rows[2].DailyAvg, ShouldEqual, 0)
			})

			Convey("Then every row has a valid risk level", func() {
				for _, r := range rows {
					So(r.RiskLevel, ShouldBeIn, types.RiskLow, types.RiskMedium, types.RiskHigh, types.RiskCritical)
				}
			})

			Convey("Then the counts cover every tier", func() {
				counts := analytics.RiskCounts(rows)
				So(len(counts), ShouldEqual, 4)
				total := 0
				for _, n := range counts {
					total += n
				}
				So(total, ShouldEqual, len(rows))
			})
		})

		Convey("When the roster is large", func() {
			big := make([]model.Inspector, 0, 50)
			for i := 0; i < 50; i++ {
				big = append(big, model.Inspector{ID: fmt.Sprintf("x%02d", i)})
			}
			metrics := engine.EvaluateAll(nil, big, nil, window)

			Convey("Then results keep roster order", func() {
				So(len(metrics), ShouldEqual, 50)
				for i, m := range metrics {
					So(m.InspectorID, ShouldEqual, big[i].ID)
				}
			})
		})
	})

	Convey("Given risk-view rows", t, func() {
		rows := []types.InspectorPerformance{
			{InspectorID: "a", RiskFactor: types.RiskHigh},
			{InspectorID: "b", RiskFactor: types.RiskHigh},
			{InspectorID: "c", RiskFactor: types.RiskLow},
		}

		Convey("Then the summary counts cover every tier", func() {
			counts := analytics.SummaryRiskCounts(rows)
			So(len(counts), ShouldEqual, 4)
			So(counts[types.RiskHigh], ShouldEqual, 2)
			So(counts[types.RiskLow], ShouldEqual, 1)
			So(counts[types.RiskCritical], ShouldEqual, 0)
		})
	})

	Convey("Given an empty roster", t, func() {
		engine := analytics.NewEngine()
		rows := engine.BuildMatrix(steadyInspector("steady"), nil, nil, window)

		Convey("Then the matrix is empty", func() {
			So(rows, ShouldBeEmpty)
		})
	})
}

func TestClassifyRisk(t *testing.T) {
	Convey("Given the default engine", t, func() {
		engine := analytics.NewEngine()
		base := types.AdvancedPerformanceMetric{
			TotalRecords:      4,
			TotalUnits:        20,
			HasTarget:         true,
			TargetAchievement: 90,
			CommitmentRate:    90,
			ApprovalRate:      95,
		}

		Convey("Then low commitment and low achievement is critical", func() {
			m := base
			m.CommitmentRate, m.TargetAchievement = 40, 40
			So(engine.ClassifyRisk(m), ShouldEqual, types.RiskCritical)
		})

		Convey("Then low commitment alone is high", func() {
			m := base
			m.CommitmentRate = 40
			So(engine.ClassifyRisk(m), ShouldEqual, types.RiskHigh)
		})

		Convey("Then low achievement alone is high", func() {
			m := base
			m.TargetAchievement = 10
			So(engine.ClassifyRisk(m), ShouldEqual, types.RiskHigh)
		})

		Convey("Then poor approval is high", func() {
			m := base
			m.ApprovalRate = 55
			So(engine.ClassifyRisk(m), ShouldEqual, types.RiskHigh)
		})

		Convey("Then middling approval is medium", func() {
			m := base
			m.ApprovalRate = 70
			So(engine.ClassifyRisk(m), ShouldEqual, types.RiskMedium)
		})

		Convey("Then bulk entries are medium", func() {
			m := base
			m.TotalUnits = 100
			So(engine.ClassifyRisk(m), ShouldEqual, types.RiskMedium)
		})

		Convey("Then a healthy inspector is low", func() {
			So(engine.ClassifyRisk(base), ShouldEqual, types.RiskLow)
		})

		Convey("Then a missing target counts as zero achievement", func() {
			m := base
			m.HasTarget, m.TargetAchievement = false, 0
			So(engine.ClassifyRisk(m), ShouldEqual, types.RiskHigh)

			m.CommitmentRate = 40
			So(engine.ClassifyRisk(m), ShouldEqual, types.RiskCritical)
		})

		Convey("Then a diligent inspector without a target is still high", func() {
			window := analytics.Window{From: "2024-05-01", To: "2024-05-20"}
			records := steadyInspector("i1")
			for i := range records {
				records[i].Status = model.StatusApproved
			}
			m := engine.Evaluate(records, model.Inspector{ID: "i1"}, nil, window)
			So(m.HasTarget, ShouldBeFalse)
			So(m.TargetAchievement, ShouldEqual, 0)
			So(m.CommitmentRate, ShouldAlmostEqual, 90, 1e-9)
			So(m.ApprovalRate, ShouldEqual, 100)
			So(engine.ClassifyRisk(m), ShouldEqual, types.RiskHigh)
		})

		Convey("Then an inspector without records is low", func() {
			So(engine.ClassifyRisk(types.AdvancedPerformanceMetric{}), ShouldEqual, types.RiskLow)
		})
	})

	Convey("Given a custom record minimum and bulk threshold", t, func() {
		engine := analytics.NewEngine(analytics.WithRiskMinRecords(10), analytics.WithBulkEntryThreshold(3))

		Convey("Then inspectors below the minimum are low", func() {
			m := types.AdvancedPerformanceMetric{TotalRecords: 9, CommitmentRate: 0, ApprovalRate: 0}
			So(engine.ClassifyRisk(m), ShouldEqual, types.RiskLow)
		})

		Convey("Then the bulk threshold applies", func() {
			m := types.AdvancedPerformanceMetric{TotalRecords: 10, TotalUnits: 30, TargetAchievement: 90, CommitmentRate: 90, ApprovalRate: 90}
			So(engine.ClassifyRisk(m), ShouldEqual, types.RiskMedium)
		})
	})
}

func TestSummaries(t *testing.T) {
	Convey("Given a mix of healthy and struggling inspectors", t, func() {
		engine := analytics.NewEngine()
		window := analytics.Window{From: "2024-05-01", To: "2024-05-20"}
		roster := []model.Inspector{{ID: "steady"}, {ID: "late"}}
		records := append(steadyInspector("steady"), rec("2024-05-02", "late", 3, model.StatusPending))
		targets := []model.Target{{InspectorID: "steady", TargetValue: 80}, {InspectorID: "late", TargetValue: 80}}

		rows := engine.Summaries(records, roster, targets, window)

		Convey("Then the most severe inspector comes first", func() {
			So(len(rows), ShouldEqual, 2)
			So(rows[0].InspectorID, ShouldEqual, "late")
			So(rows[0].RiskFactor, ShouldEqual, types.RiskCritical)
			So(rows[0].PendingItems, ShouldEqual, 3)
			So(rows[1].InspectorID, ShouldEqual, "steady")
			So(rows[1].ApprovedItems, ShouldEqual, 72)
			So(rows[1].ApprovalRate, ShouldEqual, 90)
		})
	})
}
