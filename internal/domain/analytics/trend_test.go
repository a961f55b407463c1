package analytics_test

import (
	"testing"

	"github.com/okian/evalboard/internal/domain/analytics"
	"github.com/okian/evalboard/internal/domain/model"
	"github.com/okian/evalboard/internal/domain/types"
	. "github.com/smartystreets/goconvey/convey"
)

func itemRec(date, main, sub string, count int) model.EvaluationRecord {
	r := rec(date, "i1", count, model.StatusApproved)
	r.MainItem = main
	r.SubItem = sub
	return r
}

func TestTrend(t *testing.T) {
	Convey("Given records out of date order", t, func() {
		records := []model.EvaluationRecord{
			rec("2024-05-03", "i1", 2, model.StatusApproved),
			rec("2024-05-01", "i2", 4, model.StatusPending),
			rec("2024-05-03", "i2", 1, model.StatusApproved),
		}

		Convey("When building the trend", func() {
			points := analytics.Trend(records)

			Convey("Then units are summed per date, ascending", func() {
				So(points, ShouldResemble, []types.TrendPoint{
					{Date: "2024-05-01", Count: 4},
					{Date: "2024-05-03", Count: 3},
				})
			})

			Convey("Then re-trending the points is idempotent", func() {
				again := make([]model.EvaluationRecord, 0, len(points))
				for _, p := range points {
					again = append(again, rec(p.Date, "x", p.Count, model.StatusPending))
				}
				So(analytics.Trend(again), ShouldResemble, points)
			})
		})
	})

	Convey("Given no records", t, func() {
		Convey("Then the trend is empty", func() {
			So(analytics.Trend(nil), ShouldBeEmpty)
		})
	})
}

func TestBreakdowns(t *testing.T) {
	Convey("Given records over three categories", t, func() {
		records := []model.EvaluationRecord{
			itemRec("2024-05-01", "Fire", "Extinguisher", 30),
			itemRec("2024-05-01", "Electrical", "Panel", 20),
			itemRec("2024-05-02", "Electrical", "Wiring", 30),
			itemRec("2024-05-02", "Safety", "Exit sign", 20),
		}

		Convey("When breaking down by main item", func() {
			shares := analytics.CategoryBreakdown(records)

			Convey("Then groups are ranked by value with percentages", func() {
				So(shares, ShouldResemble, []types.Share{
					{Name: "Electrical", Value: 50, Percentage: 50},
					{Name: "Fire", Value: 30, Percentage: 30},
					{Name: "Safety", Value: 20, Percentage: 20},
				})
			})
		})

		Convey("When breaking down by sub item", func() {
			shares := analytics.ItemPerformance(records)

			Convey("Then ties keep first-seen order", func() {
				So(len(shares), ShouldEqual, 4)
				So(shares[0].Name, ShouldEqual, "Extinguisher")
				So(shares[1].Name, ShouldEqual, "Wiring")
				So(shares[2].Name, ShouldEqual, "Panel")
				So(shares[3].Name, ShouldEqual, "Exit sign")
			})

			Convey("Then values add up to the total units", func() {
				sum := 0
				for _, s := range shares {
					sum += s.Value
				}
				So(sum, ShouldEqual, analytics.TotalUnits(records))
			})
		})
	})

	Convey("Given records with zero units", t, func() {
		records := []model.EvaluationRecord{itemRec("2024-05-01", "Fire", "Hose", 0)}

		Convey("Then the percentage is zero rather than undefined", func() {
			shares := analytics.CategoryBreakdown(records)
			So(len(shares), ShouldEqual, 1)
			So(shares[0].Percentage, ShouldEqual, 0)
		})
	})
}
