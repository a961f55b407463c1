// Package loadgen drives a running evalboard over HTTP: it submits
// generated inspection records concurrently and checks that the analytics
// views reflect them.
package loadgen

import "time"

// Defaults used when a Config field is zero.
const (
	DefaultRecords  = 1000
	DefaultWorkers  = 8
	DefaultTimeout  = 10 * time.Second
	DefaultSettle   = 30 * time.Second
	DefaultDupEvery = 10
	DefaultSeed     = 7
	pollInterval    = 250 * time.Millisecond
)

// Config holds one run's parameters.
type Config struct {
	BaseURL  string
	Records  int           // submissions to send, duplicates included
	Workers  int           // concurrent submitters
	DupEvery int           // every n-th submission repeats the previous id; 0 disables
	Seed     int64         // drives the generated submissions
	Date     string        // record date, YYYY-MM-DD; empty means today
	Timeout  time.Duration // per request
	Settle   time.Duration // how long to wait for the queue to drain
}

func (c *Config) withDefaults(now time.Time) Config {
	out := *c
	if out.Records <= 0 {
		out.Records = DefaultRecords
	}
	if out.Workers <= 0 {
		out.Workers = DefaultWorkers
	}
	if out.DupEvery < 0 {
		out.DupEvery = 0
	}
	if out.Seed == 0 {
		out.Seed = DefaultSeed
	}
	if out.Date == "" {
		out.Date = now.Format("2006-01-02")
	}
	if out.Timeout <= 0 {
		out.Timeout = DefaultTimeout
	}
	if out.Settle <= 0 {
		out.Settle = DefaultSettle
	}
	return out
}

// Stats summarises a run.
type Stats struct {
	Submitted  int
	Accepted   int
	Duplicate  int
	Throttled  int // 429 answers
	Failed     int
	Persisted  int // records the KPI view gained over the run
	Inspectors int
	Duration   time.Duration
}
