package seed

const (
	defaultSeed       = 42
	defaultInspectors = 8
)

type settings struct {
	seed       int64
	inspectors int
	pending    bool
}

// Option configures Generate.
type Option func(*settings)

// WithSeed changes the random seed. The same seed and date give the same
// data set.
func WithSeed(seed int64) Option {
	return func(s *settings) {
		s.seed = seed
	}
}

// WithInspectors sets the roster size.
func WithInspectors(n int) Option {
	return func(s *settings) {
		if n > 0 {
			s.inspectors = n
		}
	}
}

// WithoutSuggestedItem leaves the pending catalogue entry out.
func WithoutSuggestedItem() Option {
	return func(s *settings) {
		s.pending = false
	}
}
