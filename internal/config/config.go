// Package config defines service configuration and how it is loaded.
//
// Conventions:
// - New(ctx) returns a Config holding every default.
// - Load(ctx) layers .env, an optional YAML file and EVALBOARD_* env vars on
//   top of the defaults and validates the result.
// - Errors are wrapped with this package's sentinel kinds.
package config

import (
	"context"
	"fmt"
	"runtime"
	"strings"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/okian/evalboard/internal/domain/model"
)

// Store backends.
const (
	StoreMemory = "memory"
	StoreMongo  = "mongo"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address, e.g. ":9080".
	Addr string `koanf:"addr"`

	// Store selects the record store backend: memory or mongo.
	Store    string `koanf:"store"`
	MongoURI string `koanf:"mongo_uri"`
	MongoDB  string `koanf:"mongo_db"`

	// SeedDemo loads synthetic data into an empty memory store.
	SeedDemo bool `koanf:"seed_demo"`

	// QueueSize bounds the submission queue.
	QueueSize int `koanf:"queue_size"`

	// WorkerCount sets the number of intake workers.
	WorkerCount int `koanf:"worker_count"`

	// DedupeSize sets how many submission ids are remembered.
	DedupeSize int `koanf:"dedupe_size"`

	// Analytics tunables.
	MatrixParallelism      int      `koanf:"matrix_parallelism"`
	ForecastFallbackTarget int      `koanf:"forecast_fallback_target"`
	RiskMinRecords         int      `koanf:"risk_min_records"`
	BulkEntryThreshold     float64  `koanf:"bulk_entry_threshold"`
	TargetMatching         string   `koanf:"target_matching"`
	NonWorkingDays         []string `koanf:"non_working_days"`
	WeekendDays            []string `koanf:"weekend_days"`

	// Timezone is the IANA zone "today" is computed in.
	Timezone string `koanf:"timezone"`

	// DigestCron schedules the risk digest. Empty disables it.
	DigestCron string `koanf:"digest_cron"`

	// Analyst service. Without a key the analysis endpoint is disabled.
	AnalystAPIKey  string `koanf:"analyst_api_key"`
	AnalystModel   string `koanf:"analyst_model"`
	AnalystBaseURL string `koanf:"analyst_base_url"`

	// MaxListLimit caps GET /records?limit.
	MaxListLimit int `koanf:"max_list_limit"`
}

// New creates a Config holding the defaults. The context is accepted first
// to follow the project-wide convention.
func New(_ context.Context) *Config {
	return &Config{
		LogLevel:               "info",
		Addr:                   ":9080",
		Store:                  StoreMemory,
		MongoDB:                "evalboard",
		SeedDemo:               false,
		QueueSize:              10_000,
		WorkerCount:            runtime.NumCPU() * 2,
		DedupeSize:             50_000,
		MatrixParallelism:      runtime.NumCPU() * 2,
		ForecastFallbackTarget: 10,
		RiskMinRecords:         1,
		BulkEntryThreshold:     20,
		TargetMatching:         "all",
		Timezone:               "UTC",
		DigestCron:             "0 20 * * *",
		AnalystModel:           "claude-3-5-haiku-latest",
		AnalystBaseURL:         "https://api.anthropic.com",
		MaxListLimit:           1000,
	}
}

// Validate checks the configuration for values the service cannot run with.
func (c *Config) Validate() error {
	switch {
	case c.Addr == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.Store != StoreMemory && c.Store != StoreMongo:
		return fmt.Errorf("%w: unknown store %q", ErrInvalidConfig, c.Store)
	case c.Store == StoreMongo && c.MongoURI == "":
		return fmt.Errorf("%w: mongo store requires mongo_uri", ErrInvalidConfig)
	case c.QueueSize < 1:
		return fmt.Errorf("%w: queue_size must be positive", ErrInvalidConfig)
	case c.WorkerCount < 1:
		return fmt.Errorf("%w: worker_count must be positive", ErrInvalidConfig)
	case c.ForecastFallbackTarget < 1:
		return fmt.Errorf("%w: forecast_fallback_target must be positive", ErrInvalidConfig)
	case c.RiskMinRecords < 0:
		return fmt.Errorf("%w: risk_min_records must not be negative", ErrInvalidConfig)
	case c.TargetMatching != "all" && c.TargetMatching != "overlap":
		return fmt.Errorf("%w: target_matching must be all or overlap", ErrInvalidConfig)
	case c.MaxListLimit < 1:
		return fmt.Errorf("%w: max_list_limit must be positive", ErrInvalidConfig)
	}

	for _, d := range c.NonWorkingDays {
		if _, err := time.Parse(model.DateLayout, d); err != nil {
			return fmt.Errorf("%w: non_working_days: bad date %q", ErrInvalidConfig, d)
		}
	}
	if _, err := c.Weekend(); err != nil {
		return err
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	if c.DigestCron != "" {
		if _, err := cron.ParseStandard(c.DigestCron); err != nil {
			return fmt.Errorf("%w: digest_cron: %v", ErrInvalidConfig, err)
		}
	}
	return nil
}

// Weekend parses WeekendDays into weekdays.
func (c *Config) Weekend() ([]time.Weekday, error) {
	out := make([]time.Weekday, 0, len(c.WeekendDays))
	for _, name := range c.WeekendDays {
		d, ok := weekdays[strings.ToLower(strings.TrimSpace(name))]
		if !ok {
			return nil, fmt.Errorf("%w: weekend_days: unknown day %q", ErrInvalidConfig, name)
		}
		out = append(out, d)
	}
	return out, nil
}

// Location loads the configured timezone.
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("%w: timezone: %v", ErrInvalidConfig, err)
	}
	return loc, nil
}

// AnalystEnabled reports whether an analyst key is configured.
func (c *Config) AnalystEnabled() bool {
	return c.AnalystAPIKey != ""
}

var weekdays = map[string]time.Weekday{ //nolint:gochecknoglobals // lookup table
	"sunday": time.Sunday, "sun": time.Sunday,
	"monday": time.Monday, "mon": time.Monday,
	"tuesday": time.Tuesday, "tue": time.Tuesday,
	"wednesday": time.Wednesday, "wed": time.Wednesday,
	"thursday": time.Thursday, "thu": time.Thursday,
	"friday": time.Friday, "fri": time.Friday,
	"saturday": time.Saturday, "sat": time.Saturday,
}
