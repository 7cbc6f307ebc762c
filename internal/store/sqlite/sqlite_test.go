package sqlite_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/fluxtrack/flux/internal/model"
	"github.com/fluxtrack/flux/internal/store/sqlite"
)

func newStore(t *testing.T) *sqlite.Store {
	t.Helper()
	st, err := sqlite.Open(filepath.Join(t.TempDir(), "flux.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() {
		if err := st.Close(); err != nil {
			t.Errorf("close store: %v", err)
		}
	})
	return st
}

func at(day int, hour int) time.Time {
	return time.Date(2024, time.March, day, hour, 0, 0, 0, time.Local)
}

func TestMealRoundTrip(t *testing.T) {
	t.Parallel()
	st := newStore(t)
	ctx := context.Background()

	id, err := st.CreateMeal(ctx, model.Meal{
		Name: "oatmeal", Calories: 350, ProteinG: 12, CarbsG: 60, FatG: 6,
		LoggedAt: at(5, 8), Notes: "with berries",
	})
	if err != nil {
		t.Fatalf("create meal: %v", err)
	}
	if id == 0 {
		t.Fatal("id = 0, want assigned rowid")
	}

	meals, err := st.ListMeals(ctx, at(5, 0), at(6, 0))
	if err != nil {
		t.Fatalf("list meals: %v", err)
	}
	if len(meals) != 1 {
		t.Fatalf("meals = %d, want 1", len(meals))
	}
	got := meals[0]
	if got.Name != "oatmeal" || got.Calories != 350 || got.Notes != "with berries" {
		t.Fatalf("meal = %+v", got)
	}
	if !got.LoggedAt.Equal(at(5, 8)) {
		t.Fatalf("LoggedAt = %v, want %v", got.LoggedAt, at(5, 8))
	}

	// Range bounds are [from, to).
	meals, err = st.ListMeals(ctx, at(6, 0), at(7, 0))
	if err != nil {
		t.Fatalf("list meals: %v", err)
	}
	if len(meals) != 0 {
		t.Fatalf("meals = %d, want 0 outside the range", len(meals))
	}
}

func TestLatestEntryDate(t *testing.T) {
	t.Parallel()
	st := newStore(t)
	ctx := context.Background()

	got, err := st.LatestEntryDate(ctx)
	if err != nil {
		t.Fatalf("latest entry date: %v", err)
	}
	if got != "" {
		t.Fatalf("latest = %q, want empty for a fresh store", got)
	}

	if _, err := st.CreateMeal(ctx, model.Meal{Name: "lunch", Calories: 600, LoggedAt: at(3, 12)}); err != nil {
		t.Fatalf("create meal: %v", err)
	}
	if _, err := st.CreateWeightLog(ctx, model.WeightLog{WeightKg: 80, MeasuredAt: at(7, 7)}); err != nil {
		t.Fatalf("create weight log: %v", err)
	}
	if _, err := st.CreateFoodLog(ctx, model.FoodLog{Name: "apple", Calories: 90, LoggedAt: at(5, 15)}); err != nil {
		t.Fatalf("create food log: %v", err)
	}

	got, err = st.LatestEntryDate(ctx)
	if err != nil {
		t.Fatalf("latest entry date: %v", err)
	}
	if got != "2024-03-07" {
		t.Fatalf("latest = %q, want 2024-03-07", got)
	}
}

func TestDailyLogUpsert(t *testing.T) {
	t.Parallel()
	st := newStore(t)
	ctx := context.Background()

	missing, err := st.DailyLog(ctx, "2024-03-05")
	if err != nil {
		t.Fatalf("get missing: %v", err)
	}
	if missing != nil {
		t.Fatalf("missing = %+v, want nil", missing)
	}

	cal := 1800
	weight := 80.5
	d := model.DailyLog{
		Date:              "2024-03-05",
		ScaleWeightKg:     &weight,
		NutritionCalories: &cal,
		LogStatus:         model.LogStatusComplete,
	}
	if err := st.UpsertDailyLog(ctx, d); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	// Second upsert for the same date replaces, never duplicates.
	cal2 := 2100
	d.NutritionCalories = &cal2
	d.LogStatus = model.LogStatusPartial
	if err := st.UpsertDailyLog(ctx, d); err != nil {
		t.Fatalf("second upsert: %v", err)
	}

	logs, err := st.ListDailyLogs(ctx, "2024-03-01", "2024-03-31")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(logs) != 1 {
		t.Fatalf("logs = %d, want 1 after re-upsert", len(logs))
	}
	got := logs[0]
	if got.NutritionCalories == nil || *got.NutritionCalories != 2100 {
		t.Fatalf("calories = %v, want 2100", got.NutritionCalories)
	}
	if got.LogStatus != model.LogStatusPartial {
		t.Fatalf("LogStatus = %q, want %q", got.LogStatus, model.LogStatusPartial)
	}
	if got.ScaleWeightKg == nil || *got.ScaleWeightKg != 80.5 {
		t.Fatalf("weight = %v, want 80.5", got.ScaleWeightKg)
	}
	if got.NutritionProteinG != nil {
		t.Fatalf("protein = %v, want nil when never set", *got.NutritionProteinG)
	}
}

func TestComputedStateUpsertAndLookup(t *testing.T) {
	t.Parallel()
	st := newStore(t)
	ctx := context.Background()

	states := []model.ComputedState{
		{Date: "2024-03-01", TrendWeightKg: 80.0, EstimatedTDEEKcal: 2000, RawTDEEKcal: 2000, EnergyDensityUsed: 7700},
		{Date: "2024-03-02", TrendWeightKg: 80.1, EstimatedTDEEKcal: 2050, RawTDEEKcal: 2200, EnergyDensityUsed: 7700, WeightDeltaKg: 0.1},
		{Date: "2024-03-03", TrendWeightKg: 80.2, EstimatedTDEEKcal: 2080, RawTDEEKcal: 2170, EnergyDensityUsed: 7700, WeightDeltaKg: 0.1},
	}
	for _, s := range states {
		if err := st.UpsertComputedState(ctx, s); err != nil {
			t.Fatalf("upsert %s: %v", s.Date, err)
		}
	}

	// Strictly-before lookup must skip the given date itself.
	prior, err := st.LatestComputedStateBefore(ctx, "2024-03-03")
	if err != nil {
		t.Fatalf("latest before: %v", err)
	}
	if prior == nil || prior.Date != "2024-03-02" {
		t.Fatalf("prior = %+v, want 2024-03-02", prior)
	}

	prior, err = st.LatestComputedStateBefore(ctx, "2024-03-01")
	if err != nil {
		t.Fatalf("latest before first: %v", err)
	}
	if prior != nil {
		t.Fatalf("prior = %+v, want nil before the first state", prior)
	}

	// Overwrite keeps the date unique.
	states[2].EstimatedTDEEKcal = 2111
	if err := st.UpsertComputedState(ctx, states[2]); err != nil {
		t.Fatalf("re-upsert: %v", err)
	}
	all, err := st.ListComputedStates(ctx, "2024-03-01", "2024-03-31")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("states = %d, want 3", len(all))
	}
	if all[2].EstimatedTDEEKcal != 2111 {
		t.Fatalf("estimate = %v, want 2111 after overwrite", all[2].EstimatedTDEEKcal)
	}
}

func TestGoalsForDate(t *testing.T) {
	t.Parallel()
	st := newStore(t)
	ctx := context.Background()

	none, err := st.GoalsForDate(ctx, "2024-03-05")
	if err != nil {
		t.Fatalf("goals: %v", err)
	}
	if none != nil {
		t.Fatalf("goals = %+v, want nil before any are set", none)
	}

	if err := st.SetGoals(ctx, model.UserGoals{
		CalorieGoal: 2200, GoalType: model.GoalTypeLose, GoalRateKgPerWeek: 0.5, EffectiveDate: "2024-03-01",
	}); err != nil {
		t.Fatalf("set goals: %v", err)
	}
	if err := st.SetGoals(ctx, model.UserGoals{
		CalorieGoal: 2600, GoalType: model.GoalTypeGain, GoalRateKgPerWeek: 0.25, EffectiveDate: "2024-03-10",
	}); err != nil {
		t.Fatalf("set goals: %v", err)
	}

	got, err := st.GoalsForDate(ctx, "2024-03-05")
	if err != nil {
		t.Fatalf("goals: %v", err)
	}
	if got == nil || got.GoalType != model.GoalTypeLose {
		t.Fatalf("goals for 03-05 = %+v, want the lose snapshot", got)
	}

	got, err = st.GoalsForDate(ctx, "2024-03-10")
	if err != nil {
		t.Fatalf("goals: %v", err)
	}
	if got == nil || got.GoalType != model.GoalTypeGain || got.CalorieGoal != 2600 {
		t.Fatalf("goals for 03-10 = %+v, want the gain snapshot", got)
	}

	if got, err = st.GoalsForDate(ctx, "2024-02-20"); err != nil || got != nil {
		t.Fatalf("goals for 02-20 = %+v (err %v), want nil before the first snapshot", got, err)
	}

	// Re-setting the same effective date revises in place.
	if err := st.SetGoals(ctx, model.UserGoals{
		CalorieGoal: 2500, GoalType: model.GoalTypeGain, GoalRateKgPerWeek: 0.25, EffectiveDate: "2024-03-10",
	}); err != nil {
		t.Fatalf("revise goals: %v", err)
	}
	got, err = st.GoalsForDate(ctx, "2024-03-15")
	if err != nil {
		t.Fatalf("goals: %v", err)
	}
	if got == nil || got.CalorieGoal != 2500 {
		t.Fatalf("goals for 03-15 = %+v, want revised 2500 kcal", got)
	}
}

func TestWeightLogRange(t *testing.T) {
	t.Parallel()
	st := newStore(t)
	ctx := context.Background()

	for i, w := range []float64{80.4, 80.1, 79.8} {
		if _, err := st.CreateWeightLog(ctx, model.WeightLog{WeightKg: w, MeasuredAt: at(5, 7+i*4)}); err != nil {
			t.Fatalf("create weight log: %v", err)
		}
	}

	logs, err := st.ListWeightLogs(ctx, at(5, 0), at(6, 0))
	if err != nil {
		t.Fatalf("list weight logs: %v", err)
	}
	if len(logs) != 3 {
		t.Fatalf("logs = %d, want 3", len(logs))
	}
	// Sorted ascending by measurement time.
	for i := 1; i < len(logs); i++ {
		if logs[i].MeasuredAt.Before(logs[i-1].MeasuredAt) {
			t.Fatalf("logs out of order: %v before %v", logs[i].MeasuredAt, logs[i-1].MeasuredAt)
		}
	}
}
