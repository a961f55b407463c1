package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/okian/evalboard/internal/adapters/repository"
	"github.com/okian/evalboard/internal/config"
	"github.com/okian/evalboard/pkg/logger"
	"github.com/smartystreets/goconvey/convey"
)

func init() {
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

func TestBuildService(t *testing.T) {
	convey.Convey("Given configuration from the environment", t, func() {
		t.Setenv("EVALBOARD_ADDR", ":8080")
		t.Setenv("EVALBOARD_QUEUE_SIZE", "100")
		t.Setenv("EVALBOARD_WORKER_COUNT", "2")
		t.Setenv("EVALBOARD_WEEKEND_DAYS", "friday,saturday")

		ctx := context.Background()
		cfg, err := config.Load(ctx)
		convey.So(err, convey.ShouldBeNil)
		convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
		convey.So(cfg.QueueSize, convey.ShouldEqual, 100)

		convey.Convey("When the service is built over a memory store", func() {
			store, closeStore, err := openStore(ctx, cfg)
			convey.So(err, convey.ShouldBeNil)
			defer closeStore()

			svc, err := buildService(cfg, store, time.UTC, logger.NewNop())
			convey.So(err, convey.ShouldBeNil)
			convey.So(svc.AnalystEnabled(), convey.ShouldBeFalse)

			convey.Convey("Then it starts, serves and stops", func() {
				convey.So(svc.Start(ctx), convey.ShouldBeNil)
				mux := newMux(ctx, svc)

				for _, path := range []string{"/healthz", "/kpis", "/api-docs", "/openapi.yaml"} {
					w := httptest.NewRecorder()
					mux.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, http.NoBody))
					convey.So(w.Code, convey.ShouldEqual, http.StatusOK)
				}

				stats := svc.GetStats(ctx)
				convey.So(stats["workerCount"], convey.ShouldEqual, 2)
				convey.So(svc.Stop(ctx), convey.ShouldBeNil)
			})
		})

		convey.Convey("When an analyst key is configured", func() {
			cfg.AnalystAPIKey = "key"
			svc, err := buildService(cfg, repository.NewMemStore(), time.UTC, logger.NewNop())

			convey.Convey("Then analysis is enabled", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(svc.AnalystEnabled(), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When the weekend is malformed", func() {
			cfg.WeekendDays = []string{"someday"}
			_, err := buildEngine(cfg)

			convey.Convey("Then the engine is not built", func() {
				convey.So(err, convey.ShouldNotBeNil)
			})
		})
	})

	convey.Convey("Given an unknown store backend", t, func() {
		t.Setenv("EVALBOARD_STORE", "postgres")

		convey.Convey("Then configuration loading fails", func() {
			cfg, err := config.Load(context.Background())
			convey.So(err, convey.ShouldNotBeNil)
			convey.So(cfg, convey.ShouldBeNil)
		})
	})
}

func TestSeedIfEmpty(t *testing.T) {
	convey.Convey("Given an empty memory store", t, func() {
		ctx := context.Background()
		store := repository.NewMemStore()
		now := time.Date(2024, time.May, 10, 12, 0, 0, 0, time.UTC)

		convey.Convey("When seeding twice", func() {
			convey.So(seedIfEmpty(ctx, store, now), convey.ShouldBeNil)
			first, err := store.Count(ctx)
			convey.So(err, convey.ShouldBeNil)
			convey.So(seedIfEmpty(ctx, store, now), convey.ShouldBeNil)
			second, _ := store.Count(ctx)

			convey.Convey("Then the second run leaves the store alone", func() {
				convey.So(first, convey.ShouldBeGreaterThan, 0)
				convey.So(second, convey.ShouldEqual, first)
			})
		})
	})
}

func TestMetricsUpdaters(t *testing.T) {
	convey.Convey("Given the background updaters", t, func() {
		convey.Convey("Then they return once the context ends", func() {
			ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
			defer cancel()

			convey.So(func() { startSystemMetricsUpdater(ctx) }, convey.ShouldNotPanic)
			convey.So(updateSystemMetrics, convey.ShouldNotPanic)
		})
	})
}
