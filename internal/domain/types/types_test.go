package types_test

import (
	"testing"

	types "github.com/okian/evalboard/internal/domain/types"
	. "github.com/smartystreets/goconvey/convey"
)

func TestGrade(t *testing.T) {
	Convey("Given the score grades", t, func() {
		Convey("Then each has a report label", func() {
			So(types.GradeA.Label(), ShouldEqual, "excellent")
			So(types.GradeB.Label(), ShouldEqual, "very good")
			So(types.GradeC.Label(), ShouldEqual, "acceptable")
			So(types.GradeD.Label(), ShouldEqual, "weak")
		})
	})
}

func TestRiskLevel(t *testing.T) {
	Convey("Given the risk tiers", t, func() {
		Convey("Then severity increases from low to critical", func() {
			So(types.RiskLow.Severity(), ShouldBeLessThan, types.RiskMedium.Severity())
			So(types.RiskMedium.Severity(), ShouldBeLessThan, types.RiskHigh.Severity())
			So(types.RiskHigh.Severity(), ShouldBeLessThan, types.RiskCritical.Severity())
		})

		Convey("Then an unknown tier is treated as low", func() {
			So(types.RiskLevel("unknown").Severity(), ShouldEqual, types.RiskLow.Severity())
		})
	})
}
