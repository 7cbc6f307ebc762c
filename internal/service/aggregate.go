package service

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/fluxtrack/flux/internal/model"
	"github.com/fluxtrack/flux/internal/store"
)

// AggregateDailyNutrition rebuilds the DailyLog for the local calendar day
// containing when and persists it. The logging-completeness classification
// uses the newest TDEE estimate on record before that day (falling back to
// the calorie goal, then Params.FallbackTDEEKcal).
func AggregateDailyNutrition(ctx context.Context, st store.Store, when time.Time, p Params) (*model.DailyLog, error) {
	day := beginningOfDay(when)
	refTDEE, err := referenceTDEE(ctx, st, dayKey(day), p)
	if err != nil {
		return nil, err
	}
	return aggregateDay(ctx, st, day, refTDEE)
}

func referenceTDEE(ctx context.Context, st store.Store, date string, p Params) (float64, error) {
	cs, err := st.LatestComputedStateBefore(ctx, date)
	if err != nil {
		return 0, fmt.Errorf("resolve reference tdee: %w", err)
	}
	if cs != nil {
		return cs.EstimatedTDEEKcal, nil
	}
	goals, err := st.GoalsForDate(ctx, date)
	if err != nil {
		return 0, fmt.Errorf("resolve reference goals: %w", err)
	}
	if goals != nil && goals.CalorieGoal > 0 {
		return float64(goals.CalorieGoal), nil
	}
	if p.DefaultGoals.CalorieGoal > 0 {
		return float64(p.DefaultGoals.CalorieGoal), nil
	}
	return p.FallbackTDEEKcal, nil
}

// aggregateDay is the fold-friendly core: the caller supplies the TDEE the
// completeness classification should be judged against, so the estimator can
// keep classification consistent with its own running estimate.
func aggregateDay(ctx context.Context, st store.Store, day time.Time, refTDEE float64) (*model.DailyLog, error) {
	start := beginningOfDay(day)
	end := start.AddDate(0, 0, 1)

	var (
		meals   []model.Meal
		foods   []model.FoodLog
		weights []model.WeightLog
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		meals, err = st.ListMeals(gctx, start, end)
		return err
	})
	g.Go(func() error {
		var err error
		foods, err = st.ListFoodLogs(gctx, start, end)
		return err
	})
	g.Go(func() error {
		var err error
		weights, err = st.ListWeightLogs(gctx, start, end)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("fetch day sources for %s: %w", dayKey(day), err)
	}

	d := model.DailyLog{Date: dayKey(day), LogStatus: model.LogStatusSkipped}

	if len(meals)+len(foods) > 0 {
		var calories int
		var protein, carbs, fat float64
		for _, m := range meals {
			calories += m.Calories
			protein += m.ProteinG
			carbs += m.CarbsG
			fat += m.FatG
		}
		for _, f := range foods {
			calories += f.Calories
			protein += f.ProteinG
			carbs += f.CarbsG
			fat += f.FatG
		}
		d.NutritionCalories = &calories
		d.NutritionProteinG = &protein
		d.NutritionCarbsG = &carbs
		d.NutritionFatG = &fat

		if IsPartialLogging(d.NutritionCalories, refTDEE).IsPartial {
			d.LogStatus = model.LogStatusPartial
		} else {
			d.LogStatus = model.LogStatusComplete
		}
	}

	if len(weights) > 0 {
		// Tie-break policy: the latest measurement of the day wins.
		latest := weights[0]
		for _, w := range weights[1:] {
			if w.MeasuredAt.After(latest.MeasuredAt) {
				latest = w
			}
		}
		v := latest.WeightKg
		d.ScaleWeightKg = &v
	}

	if err := st.UpsertDailyLog(ctx, d); err != nil {
		return nil, fmt.Errorf("persist daily log %s: %w", d.Date, err)
	}
	return &d, nil
}
