package seed_test

import (
	"context"
	"testing"
	"time"

	"github.com/okian/evalboard/internal/adapters/repository"
	"github.com/okian/evalboard/internal/domain/analytics"
	"github.com/okian/evalboard/internal/domain/model"
	"github.com/okian/evalboard/internal/seed"
	. "github.com/smartystreets/goconvey/convey"
)

func TestGenerate(t *testing.T) {
	now := time.Date(2024, time.May, 20, 9, 0, 0, 0, time.UTC)

	Convey("Given the default generator", t, func() {
		d := seed.Generate(now)

		Convey("Then the roster, catalogue and targets are complete", func() {
			So(len(d.Inspectors), ShouldEqual, 8)
			So(len(d.Targets), ShouldEqual, 8)
			So(len(d.Items), ShouldEqual, 9)
			So(d.Items[len(d.Items)-1].Status, ShouldEqual, model.StatusPending)
		})

		Convey("Then every record is valid and falls month-to-date", func() {
			So(d.Records, ShouldNotBeEmpty)
			w := analytics.MonthToDate(now)
			for _, r := range d.Records {
				So(repository.ValidateRecord(r), ShouldBeNil)
				So(w.Contains(r.Date), ShouldBeTrue)
			}
		})

		Convey("Then the same seed gives the same data", func() {
			So(seed.Generate(now), ShouldResemble, d)
		})

		Convey("Then a different seed gives different ids", func() {
			other := seed.Generate(now, seed.WithSeed(7))
			So(other.Inspectors[0].ID, ShouldNotEqual, d.Inspectors[0].ID)
		})

		Convey("Then the matrix spans several risk tiers", func() {
			rows := analytics.NewEngine().BuildMatrix(d.Records, d.Inspectors, d.Targets, analytics.MonthToDate(now))
			tiers := 0
			for _, n := range analytics.RiskCounts(rows) {
				if n > 0 {
					tiers++
				}
			}
			So(tiers, ShouldBeGreaterThanOrEqualTo, 2)
		})
	})

	Convey("Given custom options", t, func() {
		d := seed.Generate(now, seed.WithInspectors(15), seed.WithoutSuggestedItem())

		Convey("Then they are applied", func() {
			So(len(d.Inspectors), ShouldEqual, 15)
			So(d.Inspectors[14].Name, ShouldNotBeEmpty)
			for _, it := range d.Items {
				So(it.Status, ShouldEqual, model.StatusApproved)
			}
		})
	})
}

func TestLoad(t *testing.T) {
	Convey("Given a generated data set and an empty store", t, func() {
		ctx := context.Background()
		d := seed.Generate(time.Date(2024, time.May, 20, 9, 0, 0, 0, time.UTC))
		store := repository.NewMemStore()

		Convey("When loading it", func() {
			So(seed.Load(ctx, store, d), ShouldBeNil)

			Convey("Then the store holds every row", func() {
				n, err := store.Count(ctx)
				So(err, ShouldBeNil)
				So(n, ShouldEqual, len(d.Records))
				roster, _ := store.ListInspectors(ctx)
				So(len(roster), ShouldEqual, len(d.Inspectors))
				targets, _ := store.ListTargets(ctx)
				So(len(targets), ShouldEqual, len(d.Targets))
			})
		})
	})
}

func TestSubmissions(t *testing.T) {
	Convey("Given a data set", t, func() {
		d := seed.Generate(time.Date(2024, time.May, 20, 9, 0, 0, 0, time.UTC))

		Convey("When generating submissions with repeats", func() {
			subs := seed.Submissions(d, 10, "2024-05-20", 1, 5)

			Convey("Then every fifth repeats its predecessor", func() {
				So(len(subs), ShouldEqual, 10)
				So(subs[5], ShouldResemble, subs[4])
				So(subs[1].SubmissionID, ShouldNotEqual, subs[0].SubmissionID)
			})

			Convey("Then only approved items are used", func() {
				for _, s := range subs {
					So(s.ItemID, ShouldNotEqual, "SG-01")
					So(s.Count, ShouldBeBetweenOrEqual, 1, 5)
				}
			})
		})

		Convey("When the data set is empty", func() {
			So(seed.Submissions(seed.Dataset{}, 3, "2024-05-20", 1, 0), ShouldBeEmpty)
		})
	})
}
