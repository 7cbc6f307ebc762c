package service

import (
	"context"
	"fmt"
	"time"

	"github.com/fluxtrack/flux/internal/model"
)

// tdeeAccumulator is the state threaded through the forward fold. One day's
// output depends on the previous day's, so the fold is strictly sequential.
type tdeeAccumulator struct {
	trendWeight float64
	haveTrend   bool
	lastScale   float64
	haveScale   bool
	estimate    float64
	intake      []float64
	deltas      []float64
	recent      []model.ComputedState
	prevGoals   *model.UserGoals
}

// RecalculateTDEEFromDate rebuilds DailyLog and ComputedState rows from the
// local day containing when through the most recent date with raw data. All
// writes are keyed upserts, so re-running over the same inputs reproduces the
// same rows. Returns the number of dates for which a state was written; 0
// when there is no weight data to anchor the trend.
func (e *Engine) RecalculateTDEEFromDate(ctx context.Context, when time.Time) (int, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	p := e.params
	anchor := beginningOfDay(when)
	anchorKey := dayKey(anchor)

	lastKey, err := e.store.LatestEntryDate(ctx)
	if err != nil {
		return 0, fmt.Errorf("resolve latest entry date: %w", err)
	}
	if lastKey == "" {
		return 0, nil
	}
	if lastKey < anchorKey {
		lastKey = anchorKey
	}
	last, err := time.ParseInLocation("2006-01-02", lastKey, time.Local)
	if err != nil {
		return 0, fmt.Errorf("parse latest entry date %q: %w", lastKey, err)
	}

	acc, err := e.seedAccumulator(ctx, anchor)
	if err != nil {
		return 0, err
	}

	count := 0
	for day := anchor; !day.After(last); day = day.AddDate(0, 0, 1) {
		dlog, err := aggregateDay(ctx, e.store, day, acc.estimate)
		if err != nil {
			return count, err
		}

		goals, err := e.store.GoalsForDate(ctx, dlog.Date)
		if err != nil {
			return count, fmt.Errorf("goals for %s: %w", dlog.Date, err)
		}
		if goals == nil {
			g := p.DefaultGoals
			goals = &g
		}

		state := acc.step(dlog, goals, p)
		if state == nil {
			continue
		}
		if err := e.store.UpsertComputedState(ctx, *state); err != nil {
			return count, err
		}
		acc.push(*state, p)
		count++
	}
	return count, nil
}

// seedAccumulator primes the fold from rows persisted strictly before the
// anchor. Those rows are not touched by the recalculation, which is what
// makes a re-run over unchanged inputs bit-identical.
func (e *Engine) seedAccumulator(ctx context.Context, anchor time.Time) (*tdeeAccumulator, error) {
	p := e.params
	anchorKey := dayKey(anchor)
	prevKey := dayKey(anchor.AddDate(0, 0, -1))

	acc := &tdeeAccumulator{estimate: p.FallbackTDEEKcal}

	goals, err := e.store.GoalsForDate(ctx, prevKey)
	if err != nil {
		return nil, fmt.Errorf("seed goals: %w", err)
	}
	if goals == nil {
		g := p.DefaultGoals
		goals = &g
	}
	acc.prevGoals = goals
	if goals.CalorieGoal > 0 {
		acc.estimate = float64(goals.CalorieGoal)
	}

	prior, err := e.store.LatestComputedStateBefore(ctx, anchorKey)
	if err != nil {
		return nil, fmt.Errorf("seed prior state: %w", err)
	}
	if prior != nil {
		acc.trendWeight = prior.TrendWeightKg
		acc.haveTrend = true
		acc.estimate = prior.EstimatedTDEEKcal
	}

	statsFrom := dayKey(anchor.AddDate(0, 0, -p.StatsWindowDays))
	states, err := e.store.ListComputedStates(ctx, statsFrom, prevKey)
	if err != nil {
		return nil, fmt.Errorf("seed recent states: %w", err)
	}
	acc.recent = states
	for _, s := range states {
		acc.deltas = append(acc.deltas, s.WeightDeltaKg)
	}
	if len(acc.deltas) > p.IntakeWindowDays {
		acc.deltas = acc.deltas[len(acc.deltas)-p.IntakeWindowDays:]
	}

	intakeFrom := dayKey(anchor.AddDate(0, 0, -p.IntakeWindowDays))
	logs, err := e.store.ListDailyLogs(ctx, intakeFrom, prevKey)
	if err != nil {
		return nil, fmt.Errorf("seed intake window: %w", err)
	}
	for _, d := range logs {
		if ValidateDailyLogForTDEE(d, acc.estimate).IsValid {
			acc.intake = append(acc.intake, float64(*d.NutritionCalories))
		}
		if d.ScaleWeightKg != nil {
			acc.lastScale = *d.ScaleWeightKg
			acc.haveScale = true
		}
	}
	return acc, nil
}

// step folds one day into the accumulator. It returns nil until a scale
// weight has anchored the trend; before that there is nothing to estimate.
func (a *tdeeAccumulator) step(d *model.DailyLog, goals *model.UserGoals, p Params) *model.ComputedState {
	var rawDelta float64
	hasRaw := false
	trendDelta := 0.0

	if d.ScaleWeightKg != nil {
		w := *d.ScaleWeightKg
		if !a.haveTrend {
			a.trendWeight = w
			a.haveTrend = true
		} else {
			prev := a.trendWeight
			a.trendWeight = prev + p.TrendSmoothing*(w-prev)
			trendDelta = a.trendWeight - prev
		}
		if a.haveScale {
			rawDelta = w - a.lastScale
			hasRaw = true
		}
		a.lastScale = w
		a.haveScale = true
	}
	if !a.haveTrend {
		return nil
	}

	if hasRaw {
		corrected := DampWhooshEffect(rawDelta, trendDelta)
		a.deltas = append(a.deltas, corrected)
		if len(a.deltas) > p.IntakeWindowDays {
			a.deltas = a.deltas[len(a.deltas)-p.IntakeWindowDays:]
		}
	}

	raw := a.estimate
	est := a.estimate
	if ValidateDailyLogForTDEE(*d, a.estimate).IsValid {
		a.intake = append(a.intake, float64(*d.NutritionCalories))
		if len(a.intake) > p.IntakeWindowDays {
			a.intake = a.intake[len(a.intake)-p.IntakeWindowDays:]
		}

		avgIntake := mean(a.intake)
		windowChange := sum(a.deltas)
		raw = avgIntake - windowChange*p.EnergyDensityKcalPerKg/float64(p.IntakeWindowDays)

		stats := CalculateTDEEStatistics(a.recent)
		if IsTDEEOutlier(raw, stats.Average, stats.StdDev).IsOutlier {
			est = p.OutlierPriorWeight*a.estimate + (1-p.OutlierPriorWeight)*raw
		} else {
			est = a.estimate + p.EstimateBlend*(raw-a.estimate)
		}
	}

	if tr := DetectGoalTransition(a.prevGoals, *goals); tr.HasTransitioned {
		adj := CalculateGoalTransitionAdjustment(est, a.prevGoals.GoalType, goals.GoalType, a.prevGoals.GoalRateKgPerWeek, goals.GoalRateKgPerWeek)
		est = adj.AdjustedTDEE
	}
	a.prevGoals = goals

	a.estimate = est
	return &model.ComputedState{
		Date:                d.Date,
		TrendWeightKg:       a.trendWeight,
		EstimatedTDEEKcal:   est,
		RawTDEEKcal:         raw,
		FluxConfidenceRange: a.confidenceRange(p),
		EnergyDensityUsed:   p.EnergyDensityKcalPerKg,
		WeightDeltaKg:       trendDelta,
	}
}

// confidenceRange widens with estimate volatility and with how empty the
// stats window still is (cold start).
func (a *tdeeAccumulator) confidenceRange(p Params) float64 {
	stats := CalculateTDEEStatistics(a.recent)
	r := 2 * stats.StdDev
	if n := len(a.recent); n < p.StatsWindowDays {
		floor := p.ConfidenceFloorKcal * float64(p.StatsWindowDays-n) / float64(p.StatsWindowDays)
		if floor > r {
			r = floor
		}
	}
	return r
}

func (a *tdeeAccumulator) push(st model.ComputedState, p Params) {
	a.recent = append(a.recent, st)
	if len(a.recent) > p.StatsWindowDays {
		a.recent = a.recent[len(a.recent)-p.StatsWindowDays:]
	}
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	return sum(values) / float64(len(values))
}

func sum(values []float64) float64 {
	total := 0.0
	for _, v := range values {
		total += v
	}
	return total
}
