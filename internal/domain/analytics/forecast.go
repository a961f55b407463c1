package analytics

import (
	"time"

	"github.com/okian/evalboard/internal/domain/model"
	"github.com/okian/evalboard/internal/domain/types"
)

// Forecast extrapolates the velocity observed over currentDay days to a
// totalDays period. A non-positive target is replaced by the engine's
// fallback target and flagged as defaulted.
func (e *Engine) Forecast(actual, target, currentDay, totalDays int) types.Forecast {
	defaulted := false
	if target <= 0 {
		target = e.fallbackTarget
		defaulted = true
	}

	velocity := Ratio(float64(actual), float64(currentDay))
	projected := Round(velocity * float64(totalDays))

	status := types.ForecastOnTrack
	if projected < target {
		status = types.ForecastWillMiss
	}

	return types.Forecast{
		Actual:          actual,
		Target:          target,
		TargetDefaulted: defaulted,
		CurrentDay:      currentDay,
		TotalDays:       totalDays,
		Velocity:        velocity,
		Projected:       projected,
		Percent:         Round(Percent(float64(actual), float64(target))),
		Status:          status,
	}
}

// MonthlyForecast projects an inspector's units for the month containing
// now. Actual units are counted from the first of the month through now;
// the target is the sum of the inspector's targets overlapping the month.
func (e *Engine) MonthlyForecast(records []model.EvaluationRecord, targets []model.Target, inspectorID string, now time.Time) types.Forecast {
	soFar := MonthToDate(now)

	actual := 0
	for _, r := range records {
		if r.InspectorID == inspectorID && soFar.Contains(r.Date) {
			actual += r.Count
		}
	}

	target, _ := sumTargets(targets, inspectorID, Month(now), TargetMatchOverlap)

	f := e.Forecast(actual, target, now.Day(), DaysInMonth(now))
	f.InspectorID = inspectorID
	return f
}
