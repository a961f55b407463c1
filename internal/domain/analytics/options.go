package analytics

import "time"

// Option applies a configuration option to the Engine.
type Option func(*Engine)

// WithForecastFallbackTarget sets the target assumed by forecasts for an
// inspector without one. Non-positive values are ignored.
func WithForecastFallbackTarget(target int) Option {
	return func(e *Engine) {
		if target > 0 {
			e.fallbackTarget = target
		}
	}
}

// WithBulkEntryThreshold sets the units-per-record average at or above which
// an inspector is flagged medium risk.
func WithBulkEntryThreshold(threshold float64) Option {
	return func(e *Engine) {
		if threshold > 0 {
			e.bulkEntryThreshold = threshold
		}
	}
}

// WithRiskMinRecords sets how many records an inspector needs before the
// risk rules apply. Below it the inspector is classified low.
func WithRiskMinRecords(n int) Option {
	return func(e *Engine) {
		if n >= 0 {
			e.riskMinRecords = n
		}
	}
}

// WithTargetMatching selects how target rows are matched to a window.
func WithTargetMatching(mode TargetMatch) Option {
	return func(e *Engine) {
		switch mode {
		case TargetMatchAll, TargetMatchOverlap:
			e.targetMatch = mode
		}
	}
}

// WithNonWorkingDays excludes the given YYYY-MM-DD dates from expected days.
func WithNonWorkingDays(dates ...string) Option {
	return func(e *Engine) {
		for _, d := range dates {
			if d != "" {
				e.nonWorkingDays[d] = struct{}{}
			}
		}
	}
}

// WithWeekend excludes the given weekdays from expected days.
func WithWeekend(days ...time.Weekday) Option {
	return func(e *Engine) {
		for _, d := range days {
			e.weekend[d] = struct{}{}
		}
	}
}

// WithParallelism bounds the goroutines used by the matrix builder.
func WithParallelism(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.parallelism = n
		}
	}
}
