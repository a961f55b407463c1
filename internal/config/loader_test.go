package config_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/okian/evalboard/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfigLoader(t *testing.T) {
	convey.Convey("Given a config loader", t, func() {
		ctx := context.Background()
		clearConfigEnvVars()
		defer clearConfigEnvVars()

		convey.Convey("When loading config with defaults only", func() {
			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load successfully with defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg, convey.ShouldNotBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9080")
				convey.So(cfg.QueueSize, convey.ShouldEqual, 10_000)
				convey.So(cfg.Store, convey.ShouldEqual, config.StoreMemory)
			})
		})

		convey.Convey("When loading config with environment variables", func() {
			_ = os.Setenv("EVALBOARD_ADDR", ":8080")
			_ = os.Setenv("EVALBOARD_QUEUE_SIZE", "500")
			_ = os.Setenv("EVALBOARD_WORKER_COUNT", "3")
			_ = os.Setenv("EVALBOARD_SEED_DEMO", "true")
			_ = os.Setenv("EVALBOARD_WEEKEND_DAYS", "fri, sat")
			_ = os.Setenv("EVALBOARD_NON_WORKING_DAYS", "2024-05-06,2024-05-07")

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should override defaults with env vars", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
				convey.So(cfg.QueueSize, convey.ShouldEqual, 500)
				convey.So(cfg.WorkerCount, convey.ShouldEqual, 3)
				convey.So(cfg.SeedDemo, convey.ShouldBeTrue)
				convey.So(cfg.WeekendDays, convey.ShouldResemble, []string{"fri", "sat"})
				convey.So(cfg.NonWorkingDays, convey.ShouldResemble, []string{"2024-05-06", "2024-05-07"})
			})
		})

		convey.Convey("When loading config with YAML file", func() {
			path := writeTemp(t, "config.yaml", `
addr: ":9090"
queue_size: 300
forecast_fallback_target: 25
target_matching: overlap
weekend_days: [friday, saturday]
`)
			_ = os.Setenv("EVALBOARD_CONFIG", path)

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load from YAML file", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9090")
				convey.So(cfg.QueueSize, convey.ShouldEqual, 300)
				convey.So(cfg.ForecastFallbackTarget, convey.ShouldEqual, 25)
				convey.So(cfg.TargetMatching, convey.ShouldEqual, "overlap")
				convey.So(cfg.WeekendDays, convey.ShouldResemble, []string{"friday", "saturday"})
			})

			convey.Convey("Then env vars take precedence over the file", func() {
				_ = os.Setenv("EVALBOARD_QUEUE_SIZE", "42")
				cfg, err := config.Load(ctx)
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.QueueSize, convey.ShouldEqual, 42)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9090")
			})
		})

		convey.Convey("When a .env file is given", func() {
			path := writeTemp(t, "test.env", "EVALBOARD_ANALYST_API_KEY=secret\nEVALBOARD_MAX_LIST_LIMIT=50\n")
			_ = os.Setenv("EVALBOARD_ENV_FILE", path)

			cfg, err := config.Load(ctx)

			convey.Convey("Then its values are applied", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.AnalystAPIKey, convey.ShouldEqual, "secret")
				convey.So(cfg.AnalystEnabled(), convey.ShouldBeTrue)
				convey.So(cfg.MaxListLimit, convey.ShouldEqual, 50)
			})
		})

		convey.Convey("When the .env file does not exist", func() {
			_ = os.Setenv("EVALBOARD_ENV_FILE", filepath.Join(t.TempDir(), "missing.env"))

			_, err := config.Load(ctx)

			convey.Convey("Then loading still succeeds", func() {
				convey.So(err, convey.ShouldBeNil)
			})
		})

		convey.Convey("When the YAML file does not exist", func() {
			_ = os.Setenv("EVALBOARD_CONFIG", filepath.Join(t.TempDir(), "missing.yaml"))

			_, err := config.Load(ctx)

			convey.Convey("Then a load error is returned", func() {
				convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When a value fails validation", func() {
			_ = os.Setenv("EVALBOARD_STORE", "redis")

			_, err := config.Load(ctx)

			convey.Convey("Then an invalid config error is returned", func() {
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
			})
		})
	})
}

func writeTemp(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func clearConfigEnvVars() {
	for _, kv := range os.Environ() {
		name, _, _ := strings.Cut(kv, "=")
		if strings.HasPrefix(name, "EVALBOARD_") {
			_ = os.Unsetenv(name)
		}
	}
}
