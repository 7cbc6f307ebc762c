package service

import (
	"fmt"
	"math"

	"github.com/fluxtrack/flux/internal/model"
)

// Edge-case correctors. Everything in this file is a pure function over
// scalars or in-memory series; no I/O, no clock, no logger.

const (
	// Below this absolute floor a logged day is assumed incomplete no matter
	// what the TDEE estimate says.
	partialAbsoluteFloorKcal = 500

	// Below this fraction of the TDEE estimate a day is treated as partially
	// logged rather than a genuine low-intake day.
	partialTDEEFraction = 0.5

	whooshScaleDeltaFloorKg  = 0.5
	whooshDivergenceFloorKg  = 0.3
	whooshExtremeThresholdKg = 1.5

	whooshDampMild     = 0.7
	whooshDampModerate = 0.5
	whooshDampExtreme  = 0.3

	// Fraction of the daily energy gap between the old and new goal rates
	// credited to metabolic adaptation on a lose<->gain transition.
	goalTransitionFraction = 0.10

	// Conventional energy density of body-mass change.
	energyDensityKcalPerKg = 7700.0

	outlierStdDevMultiple = 2.0
)

const (
	WhooshMild     = "mild"
	WhooshModerate = "moderate"
	WhooshExtreme  = "extreme"
)

type PartialLoggingResult struct {
	IsPartial bool   `json:"is_partial"`
	Reason    string `json:"reason,omitempty"`
}

// IsPartialLogging flags a day whose calorie total looks like an abandoned
// log rather than real intake. A nil total is an untracked day and zero is
// treated as deliberate fasting; neither is partial.
func IsPartialLogging(calories *int, tdee float64) PartialLoggingResult {
	if calories == nil || *calories == 0 {
		return PartialLoggingResult{}
	}
	if *calories < partialAbsoluteFloorKcal {
		return PartialLoggingResult{
			IsPartial: true,
			Reason:    fmt.Sprintf("calorie total %d looks likely incomplete (below %d kcal floor)", *calories, partialAbsoluteFloorKcal),
		}
	}
	if tdee > 0 && float64(*calories) < partialTDEEFraction*tdee {
		return PartialLoggingResult{
			IsPartial: true,
			Reason:    fmt.Sprintf("logged less than 50%% of estimated TDEE (%d of %.0f kcal)", *calories, tdee),
		}
	}
	return PartialLoggingResult{}
}

type LogValidation struct {
	IsValid bool   `json:"is_valid"`
	Reason  string `json:"reason,omitempty"`
}

// ValidateDailyLogForTDEE is the gate a day must pass before it contributes
// intake signal to the TDEE recurrence.
func ValidateDailyLogForTDEE(d model.DailyLog, tdee float64) LogValidation {
	if d.LogStatus == model.LogStatusSkipped {
		return LogValidation{Reason: "day was skipped"}
	}
	if d.NutritionCalories == nil {
		return LogValidation{Reason: "no nutrition data logged"}
	}
	if p := IsPartialLogging(d.NutritionCalories, tdee); p.IsPartial {
		return LogValidation{Reason: p.Reason}
	}
	return LogValidation{IsValid: true}
}

type WhooshResult struct {
	IsWhoosh bool   `json:"is_whoosh"`
	Severity string `json:"severity,omitempty"`
}

// IsWhooshEffect compares the raw scale delta with the smoothed trend delta
// to catch delayed water-retention swings. Direction-agnostic: a sudden gain
// is classified exactly like a sudden drop.
func IsWhooshEffect(scaleWeightDeltaKg, trendWeightDeltaKg float64) WhooshResult {
	absScale := math.Abs(scaleWeightDeltaKg)
	divergence := absScale - math.Abs(trendWeightDeltaKg)
	if absScale < whooshScaleDeltaFloorKg && divergence <= whooshDivergenceFloorKg {
		return WhooshResult{}
	}
	switch {
	case absScale >= whooshExtremeThresholdKg:
		return WhooshResult{IsWhoosh: true, Severity: WhooshExtreme}
	case absScale >= whooshScaleDeltaFloorKg:
		return WhooshResult{IsWhoosh: true, Severity: WhooshModerate}
	default:
		return WhooshResult{IsWhoosh: true, Severity: WhooshMild}
	}
}

// DampWhooshEffect returns the weight delta the TDEE recurrence should see
// for the day. Without a whoosh the trend delta passes through untouched;
// with one, the raw delta is scaled down by severity so a single
// water-retention swing cannot corrupt the estimate.
func DampWhooshEffect(rawWeightDeltaKg, trendWeightDeltaKg float64) float64 {
	w := IsWhooshEffect(rawWeightDeltaKg, trendWeightDeltaKg)
	if !w.IsWhoosh {
		return trendWeightDeltaKg
	}
	switch w.Severity {
	case WhooshExtreme:
		return rawWeightDeltaKg * whooshDampExtreme
	case WhooshModerate:
		return rawWeightDeltaKg * whooshDampModerate
	default:
		return rawWeightDeltaKg * whooshDampMild
	}
}

type GoalTransitionAdjustment struct {
	AdjustedTDEE float64 `json:"adjusted_tdee"`
	Adjustment   float64 `json:"adjustment"`
	Reason       string  `json:"reason,omitempty"`
}

// CalculateGoalTransitionAdjustment compensates the estimate for expected
// metabolic adaptation when the user flips between cutting and bulking.
// Transitions into or out of maintenance leave the estimate alone.
func CalculateGoalTransitionAdjustment(currentTDEE float64, previousGoalType, newGoalType string, previousRate, newRate float64) GoalTransitionAdjustment {
	if previousGoalType == newGoalType ||
		previousGoalType == model.GoalTypeMaintain || newGoalType == model.GoalTypeMaintain {
		return GoalTransitionAdjustment{AdjustedTDEE: currentTDEE}
	}

	// Daily energy gap between losing at the old rate and gaining at the new.
	gap := (previousRate + newRate) * energyDensityKcalPerKg / 7
	adjustment := goalTransitionFraction * gap

	if previousGoalType == model.GoalTypeLose && newGoalType == model.GoalTypeGain {
		return GoalTransitionAdjustment{
			AdjustedTDEE: currentTDEE + adjustment,
			Adjustment:   adjustment,
			Reason:       fmt.Sprintf("TDEE increased by %.0f kcal for %s to %s transition", adjustment, previousGoalType, newGoalType),
		}
	}
	return GoalTransitionAdjustment{
		AdjustedTDEE: currentTDEE - adjustment,
		Adjustment:   -adjustment,
		Reason:       fmt.Sprintf("TDEE decreased by %.0f kcal for %s to %s transition", adjustment, previousGoalType, newGoalType),
	}
}

type GoalTransition struct {
	HasTransitioned bool   `json:"has_transitioned"`
	Details         string `json:"details,omitempty"`
}

// DetectGoalTransition reports whether the goals snapshot changed in a way
// the estimator cares about. Rate changes are ignored at maintenance, where
// the rate is meaningless.
func DetectGoalTransition(previousGoals *model.UserGoals, newGoals model.UserGoals) GoalTransition {
	if previousGoals == nil {
		return GoalTransition{}
	}
	if previousGoals.GoalType != newGoals.GoalType {
		return GoalTransition{
			HasTransitioned: true,
			Details:         fmt.Sprintf("goal type changed from %s to %s", previousGoals.GoalType, newGoals.GoalType),
		}
	}
	if previousGoals.GoalType != model.GoalTypeMaintain && previousGoals.GoalRateKgPerWeek != newGoals.GoalRateKgPerWeek {
		return GoalTransition{
			HasTransitioned: true,
			Details:         fmt.Sprintf("Rate changed from %.2f to %.2f kg/week", previousGoals.GoalRateKgPerWeek, newGoals.GoalRateKgPerWeek),
		}
	}
	return GoalTransition{}
}

type QualityReport struct {
	Score  float64  `json:"score"`
	Issues []string `json:"issues,omitempty"`
}

const (
	qualityCompletionTarget  = 0.8
	qualityCompletionPenalty = 40.0
	qualityPartialPenalty    = 20.0
	qualityWeightTarget      = 0.5
	qualityWeightPenalty     = 25.0
)

// CalculateDataQualityScore grades a sample of daily logs on how much TDEE
// signal they can carry: completion rate, partial-looking days, and weight
// coverage.
func CalculateDataQualityScore(dailyLogs []model.DailyLog, tdee float64) QualityReport {
	if len(dailyLogs) == 0 {
		return QualityReport{Score: 0, Issues: []string{"no daily logs available to score"}}
	}

	total := len(dailyLogs)
	complete, partialLooking, withWeight := 0, 0, 0
	for _, d := range dailyLogs {
		if d.LogStatus == model.LogStatusComplete {
			complete++
		}
		if d.LogStatus == model.LogStatusPartial || IsPartialLogging(d.NutritionCalories, tdee).IsPartial {
			partialLooking++
		}
		if d.ScaleWeightKg != nil {
			withWeight++
		}
	}

	score := 100.0
	issues := make([]string, 0, 3)

	completionRate := float64(complete) / float64(total)
	if completionRate < qualityCompletionTarget {
		score -= (qualityCompletionTarget - completionRate) / qualityCompletionTarget * qualityCompletionPenalty
		issues = append(issues, fmt.Sprintf("low completion rate: only %.0f%% of days fully logged", completionRate*100))
	}

	if partialLooking > 0 {
		score -= qualityPartialPenalty
		issues = append(issues, fmt.Sprintf("%d of %d days look incomplete (partial logging)", partialLooking, total))
	}

	weightRate := float64(withWeight) / float64(total)
	if weightRate < qualityWeightTarget {
		score -= qualityWeightPenalty
		issues = append(issues, fmt.Sprintf("missing weight data on %d of %d days", total-withWeight, total))
	}

	if score < 0 {
		score = 0
	}
	return QualityReport{Score: score, Issues: issues}
}

type OutlierResult struct {
	IsOutlier bool    `json:"is_outlier"`
	Deviation float64 `json:"deviation"`
}

// IsTDEEOutlier flags a candidate estimate more than two standard deviations
// from the rolling mean. A zero standard deviation (single data point) never
// flags.
func IsTDEEOutlier(candidateTDEE, meanTDEE, stdDevTDEE float64) OutlierResult {
	deviation := math.Abs(candidateTDEE - meanTDEE)
	return OutlierResult{
		IsOutlier: stdDevTDEE > 0 && deviation > outlierStdDevMultiple*stdDevTDEE,
		Deviation: deviation,
	}
}

type TDEEStatistics struct {
	Average float64 `json:"average"`
	StdDev  float64 `json:"std_dev"`
	Min     float64 `json:"min"`
	Max     float64 `json:"max"`
}

// CalculateTDEEStatistics computes population statistics over the estimated
// TDEE of a state series. Empty input yields the zero value.
func CalculateTDEEStatistics(states []model.ComputedState) TDEEStatistics {
	if len(states) == 0 {
		return TDEEStatistics{}
	}

	stats := TDEEStatistics{Min: states[0].EstimatedTDEEKcal, Max: states[0].EstimatedTDEEKcal}
	sum := 0.0
	for _, s := range states {
		v := s.EstimatedTDEEKcal
		sum += v
		if v < stats.Min {
			stats.Min = v
		}
		if v > stats.Max {
			stats.Max = v
		}
	}
	stats.Average = sum / float64(len(states))

	variance := 0.0
	for _, s := range states {
		d := s.EstimatedTDEEKcal - stats.Average
		variance += d * d
	}
	stats.StdDev = math.Sqrt(variance / float64(len(states)))
	return stats
}
