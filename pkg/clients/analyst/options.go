package analyst

import "time"

const (
	defaultBaseURL = "https://api.anthropic.com"
	defaultModel   = "claude-3-5-haiku-latest"
	defaultTimeout = 30 * time.Second
)

type options struct {
	baseURL string
	model   string
	timeout time.Duration
}

// Option configures the client.
type Option func(*options)

// WithBaseURL points the client at another host, e.g. a test server.
func WithBaseURL(url string) Option {
	return func(o *options) {
		if url != "" {
			o.baseURL = url
		}
	}
}

// WithModel selects the model name sent with each request.
func WithModel(model string) Option {
	return func(o *options) {
		o.model = model
	}
}

// WithTimeout bounds each request.
func WithTimeout(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.timeout = d
		}
	}
}
