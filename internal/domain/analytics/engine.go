// Package analytics turns inspection records into KPIs, per-inspector
// scores, a ranked comparative matrix, risk tiers, forecasts and trend
// breakdowns.
//
// Every function here is a pure computation over an already materialised
// snapshot. Nothing in the package performs I/O, mutates its inputs or
// returns an error: degenerate arithmetic resolves to a defined zero value.
package analytics

import (
	"runtime"
	"time"

	"github.com/okian/evalboard/internal/domain/model"
)

// Default engine configuration constants.
const (
	defaultFallbackTarget      = 10
	defaultBulkEntryThreshold  = 20.0
	defaultRiskMinRecords      = 1
	defaultParallelismPerCPU   = 2
	maxPercent                 = 100.0
	achievementWeight          = 0.4
	commitmentWeight           = 0.3
	approvalWeight             = 0.3
	gradeAThreshold            = 80
	gradeBThreshold            = 65
	gradeCThreshold            = 50
	riskCommitmentFloor        = 50.0
	riskAchievementFloor       = 50.0
	riskApprovalFloor          = 60.0
	riskApprovalComfortCeiling = 80.0
)

// TargetMatch selects which target rows count toward an inspector's
// effective target.
type TargetMatch string

// Target matching modes.
const (
	// TargetMatchAll sums every target assigned to the inspector.
	TargetMatchAll TargetMatch = "all"
	// TargetMatchOverlap sums only targets whose window overlaps the query window.
	TargetMatchOverlap TargetMatch = "overlap"
)

// Window is an inclusive calendar-day range in YYYY-MM-DD form. Empty bounds
// are open.
type Window struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// Contains reports whether date lies inside the window.
func (w Window) Contains(date string) bool {
	if w.From != "" && date < w.From {
		return false
	}
	if w.To != "" && date > w.To {
		return false
	}
	return true
}

// MonthToDate returns the window from the first day of now's month to now.
func MonthToDate(now time.Time) Window {
	first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	return Window{From: first.Format(model.DateLayout), To: now.Format(model.DateLayout)}
}

// Month returns the full calendar month containing now.
func Month(now time.Time) Window {
	first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	last := first.AddDate(0, 1, -1)
	return Window{From: first.Format(model.DateLayout), To: last.Format(model.DateLayout)}
}

// DaysInMonth returns the number of days of now's month.
func DaysInMonth(now time.Time) int {
	return time.Date(now.Year(), now.Month()+1, 0, 0, 0, 0, 0, now.Location()).Day()
}

// Engine holds the tunables of the calculators. It is immutable after
// construction and safe for concurrent use.
type Engine struct {
	fallbackTarget     int
	bulkEntryThreshold float64
	riskMinRecords     int
	targetMatch        TargetMatch
	nonWorkingDays     map[string]struct{}
	weekend            map[time.Weekday]struct{}
	parallelism        int
}

// NewEngine creates an Engine with configuration options.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		fallbackTarget:     defaultFallbackTarget,
		bulkEntryThreshold: defaultBulkEntryThreshold,
		riskMinRecords:     defaultRiskMinRecords,
		targetMatch:        TargetMatchAll,
		nonWorkingDays:     make(map[string]struct{}),
		weekend:            make(map[time.Weekday]struct{}),
		parallelism:        runtime.NumCPU() * defaultParallelismPerCPU,
	}

	for _, opt := range opts {
		opt(e)
	}

	return e
}

// FallbackTarget returns the target used by forecasts when none is assigned.
func (e *Engine) FallbackTarget() int {
	return e.fallbackTarget
}
