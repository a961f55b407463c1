// Package types contains the derived analytics shapes returned to callers.
// None of them is persisted; they are recomputed from a snapshot per query.
package types

// KPIMetric is a display-ready summary datum.
type KPIMetric struct {
	Label string `json:"label"`
	Value int    `json:"value"`
	Color string `json:"color"`
	Icon  string `json:"icon"`
}

// GlobalKPIs summarises a record set.
type GlobalKPIs struct {
	TotalRecords  int `json:"total_records"`
	TotalUnits    int `json:"total_units"`
	ApprovalRate  int `json:"approval_rate"` // by record count
	DailyVelocity int `json:"daily_velocity"`
}

// Grade buckets a weighted score.
type Grade string

// Score grades, best first.
const (
	GradeA Grade = "A"
	GradeB Grade = "B"
	GradeC Grade = "C"
	GradeD Grade = "D"
)

// Label returns the human wording used in reports.
func (g Grade) Label() string {
	switch g {
	case GradeA:
		return "excellent"
	case GradeB:
		return "very good"
	case GradeC:
		return "acceptable"
	default:
		return "weak"
	}
}

// RiskLevel is the coarse risk tier of an inspector.
type RiskLevel string

// Risk tiers, least severe first.
const (
	RiskLow      RiskLevel = "low"
	RiskMedium   RiskLevel = "medium"
	RiskHigh     RiskLevel = "high"
	RiskCritical RiskLevel = "critical"
)

// Severity orders risk levels; higher is worse.
func (r RiskLevel) Severity() int {
	switch r {
	case RiskCritical:
		return 3
	case RiskHigh:
		return 2
	case RiskMedium:
		return 1
	default:
		return 0
	}
}

// AdvancedPerformanceMetric is the per-inspector result over a date window.
type AdvancedPerformanceMetric struct {
	InspectorID       string  `json:"inspector_id"`
	InspectorName     string  `json:"inspector_name"`
	TargetAchievement float64 `json:"target_achievement"`
	CommitmentRate    float64 `json:"commitment_rate"`
	ApprovalRate      float64 `json:"approval_rate"` // by unit count
	WeightedScore     int     `json:"weighted_score"`
	ScoreGrade        Grade   `json:"score_grade"`
	GradeLabel        string  `json:"grade_label"`
	DaysActive        int     `json:"days_active"`
	DaysExpected      int     `json:"days_expected"`
	TotalRecords      int     `json:"total_records"`
	TotalUnits        int     `json:"total_units"`
	ApprovedUnits     int     `json:"approved_units"`
	TargetValue       int     `json:"target_value"`
	HasTarget         bool    `json:"has_target"`
}

// InspectorPerformance is the compact per-inspector row of the risk view.
type InspectorPerformance struct {
	InspectorID      string    `json:"inspector_id"`
	InspectorName    string    `json:"inspector_name"`
	TotalInspections int       `json:"total_inspections"`
	TotalItems       int       `json:"total_items"`
	ApprovedItems    int       `json:"approved_items"`
	PendingItems     int       `json:"pending_items"`
	ApprovalRate     int       `json:"approval_rate"`
	Score            int       `json:"score"`
	RiskFactor       RiskLevel `json:"risk_factor"`
}

// ComparativeMatrixRow is one ranked line of the comparative matrix.
type ComparativeMatrixRow struct {
	InspectorID    string    `json:"inspector_id"`
	InspectorName  string    `json:"inspector_name"`
	WeightedScore  int       `json:"weighted_score"`
	TargetAchieved float64   `json:"target_achieved"`
	Commitment     float64   `json:"commitment"`
	Quality        float64   `json:"quality"`
	DailyAvg       float64   `json:"daily_avg"`
	RiskLevel      RiskLevel `json:"risk_level"`
}

// ForecastStatus is the verdict of a period-end projection.
type ForecastStatus string

// Forecast verdicts.
const (
	ForecastOnTrack  ForecastStatus = "on track"
	ForecastWillMiss ForecastStatus = "will miss target"
)

// Forecast projects current velocity to the end of a period.
type Forecast struct {
	InspectorID     string         `json:"inspector_id,omitempty"`
	Actual          int            `json:"actual"`
	Target          int            `json:"target"`
	TargetDefaulted bool           `json:"target_defaulted"`
	CurrentDay      int            `json:"current_day"`
	TotalDays       int            `json:"total_days"`
	Velocity        float64        `json:"velocity"`
	Projected       int            `json:"forecast"`
	Percent         int            `json:"percent"`
	Status          ForecastStatus `json:"status"`
}

// TrendPoint is the unit total of one day.
type TrendPoint struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}

// Share is one group of a breakdown with its percentage of the total.
type Share struct {
	Name       string `json:"name"`
	Value      int    `json:"value"`
	Percentage int    `json:"percentage"`
}
