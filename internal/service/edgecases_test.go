package service_test

import (
	"strings"
	"testing"

	"github.com/fluxtrack/flux/internal/model"
	"github.com/fluxtrack/flux/internal/service"
)

func TestIsPartialLogging(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		calories    *int
		tdee        float64
		wantPartial bool
		wantReason  string
	}{
		{name: "untracked day", calories: nil, tdee: 2500},
		{name: "deliberate fast", calories: intPtr(0), tdee: 2500},
		{name: "below absolute floor", calories: intPtr(400), tdee: 2500, wantPartial: true, wantReason: "likely incomplete"},
		{name: "below half of tdee", calories: intPtr(1000), tdee: 2500, wantPartial: true, wantReason: "less than 50%"},
		{name: "exactly half of tdee is complete", calories: intPtr(1000), tdee: 2000},
		{name: "above half of tdee", calories: intPtr(1300), tdee: 2500},
		{name: "no tdee reference uses floor only", calories: intPtr(600), tdee: 0},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got := service.IsPartialLogging(tc.calories, tc.tdee)
			if got.IsPartial != tc.wantPartial {
				t.Fatalf("IsPartial = %v, want %v (reason: %q)", got.IsPartial, tc.wantPartial, got.Reason)
			}
			if tc.wantReason != "" && !strings.Contains(got.Reason, tc.wantReason) {
				t.Fatalf("Reason = %q, want substring %q", got.Reason, tc.wantReason)
			}
		})
	}
}

func TestValidateDailyLogForTDEE(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		log       model.DailyLog
		tdee      float64
		wantValid bool
	}{
		{
			name:      "complete day passes",
			log:       model.DailyLog{NutritionCalories: intPtr(2000), LogStatus: model.LogStatusComplete},
			tdee:      2000,
			wantValid: true,
		},
		{
			name: "skipped day fails",
			log:  model.DailyLog{LogStatus: model.LogStatusSkipped},
			tdee: 2000,
		},
		{
			name: "no nutrition fails",
			log:  model.DailyLog{ScaleWeightKg: floatPtr(80), LogStatus: model.LogStatusComplete},
			tdee: 2000,
		},
		{
			name: "partial-looking total fails",
			log:  model.DailyLog{NutritionCalories: intPtr(400), LogStatus: model.LogStatusComplete},
			tdee: 2000,
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got := service.ValidateDailyLogForTDEE(tc.log, tc.tdee)
			if got.IsValid != tc.wantValid {
				t.Fatalf("IsValid = %v, want %v (reason: %q)", got.IsValid, tc.wantValid, got.Reason)
			}
			if !got.IsValid && got.Reason == "" {
				t.Fatal("invalid result must carry a reason")
			}
		})
	}
}

func TestIsWhooshEffect(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name         string
		scaleDelta   float64
		trendDelta   float64
		wantWhoosh   bool
		wantSeverity string
	}{
		{name: "small aligned move", scaleDelta: -0.3, trendDelta: -0.2},
		{name: "moderate drop", scaleDelta: -0.6, trendDelta: -0.2, wantWhoosh: true, wantSeverity: service.WhooshModerate},
		{name: "mild divergence", scaleDelta: -0.45, trendDelta: -0.1, wantWhoosh: true, wantSeverity: service.WhooshMild},
		{name: "extreme drop", scaleDelta: -2.0, trendDelta: -0.3, wantWhoosh: true, wantSeverity: service.WhooshExtreme},
		{name: "extreme gain is symmetric", scaleDelta: 1.8, trendDelta: 0.2, wantWhoosh: true, wantSeverity: service.WhooshExtreme},
		{name: "moderate gain", scaleDelta: 0.9, trendDelta: 0.1, wantWhoosh: true, wantSeverity: service.WhooshModerate},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got := service.IsWhooshEffect(tc.scaleDelta, tc.trendDelta)
			if got.IsWhoosh != tc.wantWhoosh {
				t.Fatalf("IsWhoosh = %v, want %v", got.IsWhoosh, tc.wantWhoosh)
			}
			if got.Severity != tc.wantSeverity {
				t.Fatalf("Severity = %q, want %q", got.Severity, tc.wantSeverity)
			}
		})
	}
}

func TestDampWhooshEffect(t *testing.T) {
	t.Parallel()

	// No whoosh: the smoothed trend delta passes through unchanged.
	approx(t, service.DampWhooshEffect(-0.3, -0.2), -0.2, 1e-9, "no-whoosh passthrough")

	// Severity scales the raw delta down.
	approx(t, service.DampWhooshEffect(-0.45, -0.1), -0.45*0.7, 1e-9, "mild damp")
	approx(t, service.DampWhooshEffect(-0.6, -0.2), -0.6*0.5, 1e-9, "moderate damp")
	approx(t, service.DampWhooshEffect(-2.0, -0.3), -2.0*0.3, 1e-9, "extreme damp")
	approx(t, service.DampWhooshEffect(1.8, 0.2), 1.8*0.3, 1e-9, "extreme gain damp")
}

func TestCalculateGoalTransitionAdjustment(t *testing.T) {
	t.Parallel()

	t.Run("lose to gain raises tdee", func(t *testing.T) {
		t.Parallel()
		got := service.CalculateGoalTransitionAdjustment(2500, model.GoalTypeLose, model.GoalTypeGain, 0.5, 0.5)
		if got.AdjustedTDEE <= 2500 {
			t.Fatalf("AdjustedTDEE = %v, want > 2500", got.AdjustedTDEE)
		}
		// 10% of (0.5+0.5)*7700/7 = 110 kcal.
		approx(t, got.Adjustment, 110, 0.5, "Adjustment")
		if !strings.Contains(got.Reason, "increased") {
			t.Fatalf("Reason = %q, want mention of increase", got.Reason)
		}
	})

	t.Run("gain to lose lowers tdee", func(t *testing.T) {
		t.Parallel()
		got := service.CalculateGoalTransitionAdjustment(2500, model.GoalTypeGain, model.GoalTypeLose, 0.5, 0.5)
		if got.AdjustedTDEE >= 2500 {
			t.Fatalf("AdjustedTDEE = %v, want < 2500", got.AdjustedTDEE)
		}
		approx(t, got.Adjustment, -110, 0.5, "Adjustment")
	})

	t.Run("through maintenance is neutral", func(t *testing.T) {
		t.Parallel()
		for _, pair := range [][2]string{
			{model.GoalTypeLose, model.GoalTypeMaintain},
			{model.GoalTypeMaintain, model.GoalTypeGain},
			{model.GoalTypeLose, model.GoalTypeLose},
		} {
			got := service.CalculateGoalTransitionAdjustment(2500, pair[0], pair[1], 0.5, 0.5)
			if got.AdjustedTDEE != 2500 || got.Adjustment != 0 {
				t.Fatalf("%s->%s: AdjustedTDEE = %v, Adjustment = %v, want 2500 / 0", pair[0], pair[1], got.AdjustedTDEE, got.Adjustment)
			}
		}
	})
}

func TestDetectGoalTransition(t *testing.T) {
	t.Parallel()

	lose := model.UserGoals{GoalType: model.GoalTypeLose, GoalRateKgPerWeek: 0.5}
	gain := model.UserGoals{GoalType: model.GoalTypeGain, GoalRateKgPerWeek: 0.25}
	maintain := model.UserGoals{GoalType: model.GoalTypeMaintain}

	if got := service.DetectGoalTransition(nil, gain); got.HasTransitioned {
		t.Fatal("no previous goals must not count as a transition")
	}
	if got := service.DetectGoalTransition(&lose, gain); !got.HasTransitioned {
		t.Fatal("type change must be detected")
	}
	fasterLose := lose
	fasterLose.GoalRateKgPerWeek = 1.0
	if got := service.DetectGoalTransition(&lose, fasterLose); !got.HasTransitioned {
		t.Fatal("rate change on an active goal must be detected")
	}
	otherMaintain := maintain
	otherMaintain.GoalRateKgPerWeek = 1.0
	if got := service.DetectGoalTransition(&maintain, otherMaintain); got.HasTransitioned {
		t.Fatal("rate change at maintenance must be ignored")
	}
	if got := service.DetectGoalTransition(&lose, lose); got.HasTransitioned {
		t.Fatal("identical goals must not count as a transition")
	}
}

func TestCalculateDataQualityScore(t *testing.T) {
	t.Parallel()

	t.Run("empty sample scores zero", func(t *testing.T) {
		t.Parallel()
		got := service.CalculateDataQualityScore(nil, 2000)
		if got.Score != 0 {
			t.Fatalf("Score = %v, want 0", got.Score)
		}
		if len(got.Issues) == 0 {
			t.Fatal("empty sample must report an issue")
		}
	})

	t.Run("full logging scores 100", func(t *testing.T) {
		t.Parallel()
		logs := make([]model.DailyLog, 10)
		for i := range logs {
			logs[i] = model.DailyLog{
				Date:              dayKey(i + 1),
				NutritionCalories: intPtr(2100),
				ScaleWeightKg:     floatPtr(80),
				LogStatus:         model.LogStatusComplete,
			}
		}
		got := service.CalculateDataQualityScore(logs, 2000)
		if got.Score != 100 {
			t.Fatalf("Score = %v, want 100 (issues: %v)", got.Score, got.Issues)
		}
		if len(got.Issues) != 0 {
			t.Fatalf("unexpected issues: %v", got.Issues)
		}
	})

	t.Run("sparse logging is penalized", func(t *testing.T) {
		t.Parallel()
		logs := make([]model.DailyLog, 10)
		for i := range logs {
			logs[i] = model.DailyLog{Date: dayKey(i + 1), LogStatus: model.LogStatusSkipped}
		}
		logs[0].LogStatus = model.LogStatusComplete
		logs[0].NutritionCalories = intPtr(2100)
		logs[1].LogStatus = model.LogStatusComplete
		logs[1].NutritionCalories = intPtr(2100)

		got := service.CalculateDataQualityScore(logs, 2000)
		// Completion 2/10: (0.8-0.2)/0.8*40 = 30 off; no weights: 25 off.
		approx(t, got.Score, 45, 1e-9, "Score")
		if len(got.Issues) != 2 {
			t.Fatalf("Issues = %v, want completion and weight issues", got.Issues)
		}
	})

	t.Run("partial days are flagged", func(t *testing.T) {
		t.Parallel()
		logs := make([]model.DailyLog, 10)
		for i := range logs {
			logs[i] = model.DailyLog{
				Date:              dayKey(i + 1),
				NutritionCalories: intPtr(2100),
				ScaleWeightKg:     floatPtr(80),
				LogStatus:         model.LogStatusComplete,
			}
		}
		logs[3].LogStatus = model.LogStatusPartial
		logs[3].NutritionCalories = intPtr(400)

		got := service.CalculateDataQualityScore(logs, 2000)
		if got.Score >= 100 {
			t.Fatalf("Score = %v, want < 100", got.Score)
		}
		found := false
		for _, issue := range got.Issues {
			if strings.Contains(issue, "incomplete") {
				found = true
			}
		}
		if !found {
			t.Fatalf("Issues = %v, want a partial-logging issue", got.Issues)
		}
	})

	t.Run("score never goes negative", func(t *testing.T) {
		t.Parallel()
		logs := []model.DailyLog{
			{Date: dayKey(1), LogStatus: model.LogStatusPartial, NutritionCalories: intPtr(300)},
		}
		got := service.CalculateDataQualityScore(logs, 2000)
		if got.Score < 0 {
			t.Fatalf("Score = %v, want >= 0", got.Score)
		}
	})
}

func TestIsTDEEOutlier(t *testing.T) {
	t.Parallel()

	got := service.IsTDEEOutlier(2800, 2500, 100)
	if !got.IsOutlier {
		t.Fatal("2800 vs mean 2500 with stddev 100 must be an outlier")
	}
	approx(t, got.Deviation, 300, 1e-9, "Deviation")

	if got := service.IsTDEEOutlier(2650, 2500, 100); got.IsOutlier {
		t.Fatal("1.5 sigma must not be an outlier")
	}
	if got := service.IsTDEEOutlier(2700, 2500, 100); got.IsOutlier {
		t.Fatal("exactly 2 sigma must not be an outlier")
	}
	if got := service.IsTDEEOutlier(9999, 2500, 0); got.IsOutlier {
		t.Fatal("zero stddev must never flag an outlier")
	}
}

func TestCalculateTDEEStatistics(t *testing.T) {
	t.Parallel()

	if got := service.CalculateTDEEStatistics(nil); got != (service.TDEEStatistics{}) {
		t.Fatalf("empty input = %+v, want zero value", got)
	}

	states := []model.ComputedState{
		{Date: dayKey(1), EstimatedTDEEKcal: 2400},
		{Date: dayKey(2), EstimatedTDEEKcal: 2500},
		{Date: dayKey(3), EstimatedTDEEKcal: 2600},
	}
	got := service.CalculateTDEEStatistics(states)
	approx(t, got.Average, 2500, 1e-9, "Average")
	approx(t, got.Min, 2400, 1e-9, "Min")
	approx(t, got.Max, 2600, 1e-9, "Max")
	approx(t, got.StdDev, 81.6497, 0.001, "StdDev")
}
