package service

import "github.com/fluxtrack/flux/internal/model"

// Params holds every tunable of the engine. All values are fixed per engine
// instance; nothing in this package reads mutable package-level state.
type Params struct {
	// TrendSmoothing is the EWMA factor applied to scale weight. 0.10 gives
	// an effective window of roughly ten days, enough to absorb day-to-day
	// water noise without lagging real change by more than a week.
	TrendSmoothing float64

	// IntakeWindowDays is the trailing window the raw TDEE estimate is
	// computed over.
	IntakeWindowDays int

	// StatsWindowDays bounds the rolling sample used for outlier rejection
	// and the confidence range.
	StatsWindowDays int

	// EnergyDensityKcalPerKg converts body-mass change to energy (7700
	// kcal/kg by convention).
	EnergyDensityKcalPerKg float64

	// EstimateBlend is how far the published estimate moves toward a fresh
	// raw estimate each valid day.
	EstimateBlend float64

	// OutlierPriorWeight is the share of the prior estimate kept when a raw
	// estimate is rejected as an outlier.
	OutlierPriorWeight float64

	// FallbackTDEEKcal seeds the recurrence when there is no computed
	// history and no calorie goal to borrow from.
	FallbackTDEEKcal float64

	// ConfidenceFloorKcal is the cold-start confidence range; it shrinks
	// linearly as the stats window fills.
	ConfidenceFloorKcal float64

	// DefaultGoals is used when the profile has no goals set.
	DefaultGoals model.UserGoals
}

func DefaultParams() Params {
	return Params{
		TrendSmoothing:         0.10,
		IntakeWindowDays:       7,
		StatsWindowDays:        14,
		EnergyDensityKcalPerKg: 7700,
		EstimateBlend:          0.25,
		OutlierPriorWeight:     0.7,
		FallbackTDEEKcal:       2000,
		ConfidenceFloorKcal:    150,
		DefaultGoals: model.UserGoals{
			CalorieGoal:  2000,
			ProteinGoalG: 120,
			CarbsGoalG:   220,
			FatGoalG:     65,
			GoalType:     model.GoalTypeMaintain,
		},
	}
}
