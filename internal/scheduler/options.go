package scheduler

import (
	"time"

	"github.com/okian/evalboard/pkg/logger"
)

const (
	defaultSpec    = "0 20 * * *"
	defaultTimeout = 2 * time.Minute
)

// Option configures the scheduler.
type Option func(*Scheduler)

// WithSpec sets the standard five-field cron expression of the digest.
func WithSpec(spec string) Option {
	return func(s *Scheduler) {
		if spec != "" {
			s.spec = spec
		}
	}
}

// WithLocation sets the timezone the cron expression is read in.
func WithLocation(loc *time.Location) Option {
	return func(s *Scheduler) {
		if loc != nil {
			s.loc = loc
		}
	}
}

// WithTimeout bounds one digest run.
func WithTimeout(d time.Duration) Option {
	return func(s *Scheduler) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(s *Scheduler) {
		if l != nil {
			s.logger = l
		}
	}
}
