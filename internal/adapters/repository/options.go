package repository

import "time"

// MongoOption applies a configuration option to the MongoStore.
type MongoOption func(*MongoStore)

// WithOperationTimeout bounds every MongoDB round trip.
func WithOperationTimeout(timeout time.Duration) MongoOption {
	return func(s *MongoStore) {
		if timeout > 0 {
			s.timeout = timeout
		}
	}
}

// WithCollectionPrefix prefixes every collection name, e.g. to share one
// database between environments.
func WithCollectionPrefix(prefix string) MongoOption {
	return func(s *MongoStore) {
		s.prefix = prefix
	}
}
