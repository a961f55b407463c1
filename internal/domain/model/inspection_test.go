package model_test

import (
	"testing"

	model "github.com/okian/evalboard/internal/domain/model"
	"github.com/smartystreets/goconvey/convey"
)

func TestStatus(t *testing.T) {
	convey.Convey("Given the approval states", t, func() {
		convey.Convey("Then only pending and approved are valid", func() {
			convey.So(model.StatusPending.Valid(), convey.ShouldBeTrue)
			convey.So(model.StatusApproved.Valid(), convey.ShouldBeTrue)
			convey.So(model.Status("rejected").Valid(), convey.ShouldBeFalse)
			convey.So(model.Status("").Valid(), convey.ShouldBeFalse)
		})
	})
}

func TestEvaluationRecord(t *testing.T) {
	convey.Convey("Given a record dated 2024-05-10", t, func() {
		r := model.EvaluationRecord{Date: "2024-05-10", Count: 3, Status: model.StatusPending}

		convey.Convey("When it is pending", func() {
			convey.Convey("Then it is not approved", func() {
				convey.So(r.Approved(), convey.ShouldBeFalse)
			})
		})

		convey.Convey("When it is approved", func() {
			r.Status = model.StatusApproved

			convey.Convey("Then it reports approval", func() {
				convey.So(r.Approved(), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When checking windows", func() {
			convey.Convey("Then inclusive bounds contain it", func() {
				convey.So(r.InWindow("2024-05-10", "2024-05-10"), convey.ShouldBeTrue)
				convey.So(r.InWindow("2024-05-01", ""), convey.ShouldBeTrue)
				convey.So(r.InWindow("", ""), convey.ShouldBeTrue)
			})

			convey.Convey("Then windows on either side exclude it", func() {
				convey.So(r.InWindow("2024-05-11", ""), convey.ShouldBeFalse)
				convey.So(r.InWindow("", "2024-05-09"), convey.ShouldBeFalse)
			})
		})
	})
}

func TestTargetOverlaps(t *testing.T) {
	convey.Convey("Given a May 2024 target", t, func() {
		target := model.Target{StartDate: "2024-05-01", EndDate: "2024-05-31", TargetValue: 100}

		convey.Convey("Then windows touching May overlap", func() {
			convey.So(target.Overlaps("2024-04-15", "2024-05-01"), convey.ShouldBeTrue)
			convey.So(target.Overlaps("2024-05-31", "2024-06-30"), convey.ShouldBeTrue)
			convey.So(target.Overlaps("2024-05-10", "2024-05-12"), convey.ShouldBeTrue)
			convey.So(target.Overlaps("", ""), convey.ShouldBeTrue)
		})

		convey.Convey("Then disjoint windows do not", func() {
			convey.So(target.Overlaps("2024-06-01", "2024-06-30"), convey.ShouldBeFalse)
			convey.So(target.Overlaps("2024-03-01", "2024-04-30"), convey.ShouldBeFalse)
		})

		convey.Convey("When the target is open-ended", func() {
			open := model.Target{StartDate: "2024-05-01"}

			convey.Convey("Then any later window overlaps", func() {
				convey.So(open.Overlaps("2030-01-01", "2030-01-31"), convey.ShouldBeTrue)
				convey.So(open.Overlaps("2024-01-01", "2024-04-30"), convey.ShouldBeFalse)
			})
		})
	})
}
