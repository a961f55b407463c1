package worker

import (
	"context"

	"github.com/okian/evalboard/pkg/logger"
)

// Option applies a configuration option to a worker or a pool.
type Option func(*settings)

type settings struct {
	name     string
	logger   logger.Logger
	newID    func() string
	onReject func(ctx context.Context, s Submission, err error)
}

// WithName sets the worker name for identification and logging.
func WithName(name string) Option {
	return func(s *settings) {
		if name != "" {
			s.name = name
		}
	}
}

// WithLogger sets a custom logger.
func WithLogger(l logger.Logger) Option {
	return func(s *settings) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithIDGenerator replaces the record id generator.
func WithIDGenerator(gen func() string) Option {
	return func(s *settings) {
		if gen != nil {
			s.newID = gen
		}
	}
}

// WithRejectHandler is called for every submission that could not be
// persisted, e.g. to let the client retry under the same submission id.
func WithRejectHandler(fn func(ctx context.Context, s Submission, err error)) Option {
	return func(s *settings) {
		s.onReject = fn
	}
}
