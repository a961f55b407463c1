// Package scheduler runs the periodic risk digest.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	service "github.com/okian/evalboard/internal/app"
	"github.com/okian/evalboard/internal/domain/analytics"
	"github.com/okian/evalboard/internal/domain/model"
	"github.com/okian/evalboard/internal/domain/types"
	"github.com/okian/evalboard/pkg/logger"
	"github.com/okian/evalboard/pkg/metrics"
)

// NotificationKind tags digest notifications.
const NotificationKind = "risk_digest"

// Source is what the digest needs from the service.
type Source interface {
	Matrix(ctx context.Context, w analytics.Window) ([]types.ComparativeMatrixRow, error)
	Notify(ctx context.Context, n model.Notification) error
	Analysis(ctx context.Context, w analytics.Window) (string, error)
}

// Digest is the outcome of one run.
type Digest struct {
	Window    analytics.Window
	Counts    map[types.RiskLevel]int
	Flagged   []types.ComparativeMatrixRow
	Narrative string
}

// Scheduler manages scheduled tasks.
type Scheduler struct {
	cron    *cron.Cron
	source  Source
	spec    string
	loc     *time.Location
	timeout time.Duration
	logger  logger.Logger
}

// New creates a scheduler. It does nothing until Start.
func New(source Source, opts ...Option) *Scheduler {
	s := &Scheduler{
		source:  source,
		spec:    defaultSpec,
		loc:     time.UTC,
		timeout: defaultTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("scheduler")
	}
	s.cron = cron.New(cron.WithLocation(s.loc))
	return s
}

// Start registers the digest job and starts the cron loop.
func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc(s.spec, s.run); err != nil {
		return fmt.Errorf("schedule digest %q: %w", s.spec, err)
	}
	s.logger.Info(context.Background(), "starting scheduler", logger.String("spec", s.spec))
	s.cron.Start()
	return nil
}

// Stop stops the cron loop and waits for a running digest to finish or
// for ctx to end.
func (s *Scheduler) Stop(ctx context.Context) {
	s.logger.Info(ctx, "stopping scheduler")
	done := s.cron.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
	}
}

func (s *Scheduler) run() {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()
	if _, err := s.RunOnce(ctx, time.Now().In(s.loc)); err != nil {
		s.logger.Error(ctx, "risk digest failed", logger.Error(err))
	}
}

// RunOnce computes the month-to-date matrix at now, notifies every high or
// critical inspector and refreshes the risk gauges.
func (s *Scheduler) RunOnce(ctx context.Context, now time.Time) (Digest, error) {
	w := analytics.MonthToDate(now)
	d := Digest{Window: w}

	rows, err := s.source.Matrix(ctx, w)
	if err != nil {
		metrics.RecordDigestRun("error")
		return d, fmt.Errorf("build matrix: %w", err)
	}

	d.Counts = analytics.RiskCounts(rows)
	for level, n := range d.Counts {
		metrics.UpdateRiskInspectors(string(level), n)
	}

	for _, r := range rows {
		if r.RiskLevel.Severity() < types.RiskHigh.Severity() {
			continue
		}
		d.Flagged = append(d.Flagged, r)
		n := model.Notification{
			InspectorID: r.InspectorID,
			Kind:        NotificationKind,
			Message:     message(r, w),
			CreatedAt:   now,
		}
		if err := s.source.Notify(ctx, n); err != nil {
			s.logger.Error(ctx, "failed to store notification",
				logger.String("inspector_id", r.InspectorID),
				logger.Error(err),
			)
		}
	}

	narrative, err := s.source.Analysis(ctx, w)
	switch {
	case err == nil:
		d.Narrative = narrative
	case errors.Is(err, service.ErrAnalystDisabled):
	default:
		s.logger.Warn(ctx, "digest narrative unavailable", logger.Error(err))
	}

	metrics.RecordDigestRun("ok")
	s.logger.Info(ctx, "risk digest",
		logger.String("from", w.From),
		logger.String("to", w.To),
		logger.Int("inspectors", len(rows)),
		logger.Int("critical", d.Counts[types.RiskCritical]),
		logger.Int("high", d.Counts[types.RiskHigh]),
		logger.Int("medium", d.Counts[types.RiskMedium]),
		logger.Int("low", d.Counts[types.RiskLow]),
	)
	return d, nil
}

func message(r types.ComparativeMatrixRow, w analytics.Window) string {
	return fmt.Sprintf("%s risk for %s to %s: score %d, target %.0f%%, commitment %.0f%%, quality %.0f%%.",
		r.RiskLevel, w.From, w.To, r.WeightedScore, r.TargetAchieved, r.Commitment, r.Quality)
}
