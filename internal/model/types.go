package model

import "time"

const (
	LogStatusComplete = "complete"
	LogStatusPartial  = "partial"
	LogStatusSkipped  = "skipped"
)

const (
	GoalTypeLose     = "lose"
	GoalTypeMaintain = "maintain"
	GoalTypeGain     = "gain"
)

type Meal struct {
	ID       int64
	Name     string
	Calories int
	ProteinG float64
	CarbsG   float64
	FatG     float64
	LoggedAt time.Time
	Notes    string
}

type FoodLog struct {
	ID       int64
	Name     string
	Calories int
	ProteinG float64
	CarbsG   float64
	FatG     float64
	LoggedAt time.Time
	Source   string
}

type WeightLog struct {
	ID         int64
	WeightKg   float64
	MeasuredAt time.Time
	Notes      string
}

// DailyLog is the per-date rollup of everything logged on one local calendar
// day. It is produced only by the aggregator; date is the primary key.
type DailyLog struct {
	Date              string   `json:"date"`
	ScaleWeightKg     *float64 `json:"scale_weight_kg,omitempty"`
	NutritionCalories *int     `json:"nutrition_calories,omitempty"`
	NutritionProteinG *float64 `json:"nutrition_protein_g,omitempty"`
	NutritionCarbsG   *float64 `json:"nutrition_carbs_g,omitempty"`
	NutritionFatG     *float64 `json:"nutrition_fat_g,omitempty"`
	StepCount         *int     `json:"step_count,omitempty"`
	LogStatus         string   `json:"log_status"`
}

// ComputedState is the per-date output of the trend/TDEE estimator, derived
// deterministically from the DailyLog series up to and including its date.
type ComputedState struct {
	Date                string  `json:"date"`
	TrendWeightKg       float64 `json:"trend_weight_kg"`
	EstimatedTDEEKcal   float64 `json:"estimated_tdee_kcal"`
	RawTDEEKcal         float64 `json:"raw_tdee_kcal"`
	FluxConfidenceRange float64 `json:"flux_confidence_range"`
	EnergyDensityUsed   float64 `json:"energy_density_used"`
	WeightDeltaKg       float64 `json:"weight_delta_kg"`
}

type UserGoals struct {
	ID                int64   `json:"id,omitempty"`
	CalorieGoal       int     `json:"calorie_goal"`
	ProteinGoalG      float64 `json:"protein_goal_g"`
	CarbsGoalG        float64 `json:"carbs_goal_g"`
	FatGoalG          float64 `json:"fat_goal_g"`
	GoalType          string  `json:"goal_type"`
	GoalRateKgPerWeek float64 `json:"goal_rate_kg_per_week"`
	EffectiveDate     string  `json:"effective_date"`
	CreatedAt         time.Time
}
