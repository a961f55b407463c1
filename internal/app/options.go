package service

import (
	"time"

	"github.com/okian/evalboard/internal/adapters/repository"
	"github.com/okian/evalboard/internal/domain/analytics"
	"github.com/okian/evalboard/pkg/clients/analyst"
	"github.com/okian/evalboard/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithStore sets the record store. The default is an empty MemStore.
func WithStore(store repository.Store) Option {
	return func(s *Service) {
		if store != nil {
			s.store = store
		}
	}
}

// WithEngine sets the analytics engine.
func WithEngine(engine *analytics.Engine) Option {
	return func(s *Service) {
		if engine != nil {
			s.engine = engine
		}
	}
}

// WithAnalyst enables narrative analyses.
func WithAnalyst(client analyst.Client) Option {
	return func(s *Service) {
		s.analyst = client
	}
}

// WithWorkerCount sets the number of intake workers.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithQueueSize sets the maximum number of queued submissions.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithDedupeSize sets how many submission ids are remembered.
func WithDedupeSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.dedupeSize = size
		}
	}
}

// WithMaxListLimit caps the number of records a listing returns.
func WithMaxListLimit(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxListLimit = n
		}
	}
}

// WithLocation sets the timezone "today" is computed in.
func WithLocation(loc *time.Location) Option {
	return func(s *Service) {
		if loc != nil {
			s.loc = loc
		}
	}
}

// WithClock replaces time.Now, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}
