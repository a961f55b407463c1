package loadgen

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/okian/evalboard/internal/domain/model"
	"github.com/okian/evalboard/internal/seed"
	"github.com/okian/evalboard/pkg/logger"
)

// ErrNoRoster is returned when the service has no inspectors to submit for.
var ErrNoRoster = errors.New("service has no inspectors")

// Run executes one load run against cfg.BaseURL.
func Run(ctx context.Context, cfg *Config) (Stats, error) {
	start := time.Now()
	c := cfg.withDefaults(start)
	log := logger.Get().Named("loadgen")
	api := newClient(c.BaseURL, c.Timeout)

	log.Info(ctx, "starting load run",
		logger.String("baseURL", c.BaseURL),
		logger.Int("records", c.Records),
		logger.Int("workers", c.Workers),
		logger.String("date", c.Date),
	)

	if err := api.health(ctx); err != nil {
		return Stats{}, fmt.Errorf("health check: %w", err)
	}

	rows, err := api.matrix(ctx, c.Date)
	if err != nil {
		return Stats{}, fmt.Errorf("read roster: %w", err)
	}
	if len(rows) == 0 {
		return Stats{}, ErrNoRoster
	}
	before, err := api.kpis(ctx, c.Date)
	if err != nil {
		return Stats{}, fmt.Errorf("read kpis: %w", err)
	}

	d := seed.Dataset{Items: seed.Generate(start).Items}
	for _, r := range rows {
		d.Inspectors = append(d.Inspectors, model.Inspector{ID: r.InspectorID, Name: r.InspectorName})
	}
	subs := seed.Submissions(d, c.Records, c.Date, c.Seed, c.DupEvery)

	stats := submitAll(ctx, api, subs, c.Workers)
	stats.Inspectors = len(rows)

	stats.Persisted, err = awaitRecords(ctx, api, c, before.TotalRecords, stats.Accepted)
	if err != nil {
		return stats, err
	}
	if err := verifyMatrix(ctx, api, c.Date); err != nil {
		return stats, err
	}

	stats.Duration = time.Since(start)
	log.Info(ctx, "load run finished",
		logger.Int("submitted", stats.Submitted),
		logger.Int("accepted", stats.Accepted),
		logger.Int("duplicate", stats.Duplicate),
		logger.Int("throttled", stats.Throttled),
		logger.Int("failed", stats.Failed),
		logger.Int("persisted", stats.Persisted),
		logger.String("duration", stats.Duration.String()),
	)
	return stats, nil
}

// submitAll posts every submission with at most workers in flight.
func submitAll(ctx context.Context, api *client, subs []model.Submission, workers int) Stats {
	var accepted, duplicate, throttled, failed atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for _, sub := range subs {
		g.Go(func() error {
			switch api.submit(gctx, sub) {
			case outcomeAccepted:
				accepted.Add(1)
			case outcomeDuplicate:
				duplicate.Add(1)
			case outcomeThrottled:
				throttled.Add(1)
			default:
				failed.Add(1)
			}
			return nil
		})
	}
	_ = g.Wait()

	return Stats{
		Submitted: len(subs),
		Accepted:  int(accepted.Load()),
		Duplicate: int(duplicate.Load()),
		Throttled: int(throttled.Load()),
		Failed:    int(failed.Load()),
	}
}
