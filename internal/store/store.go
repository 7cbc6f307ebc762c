// Package store defines the persistence boundary of the engine. Everything
// the engine reads or writes goes through the Store interface; the engine
// itself never sees SQL or a concrete database handle.
package store

import (
	"context"
	"time"

	"github.com/fluxtrack/flux/internal/model"
)

// Store is the keyed record store the engine runs against. DailyLog and
// ComputedState upserts are keyed by date and must be last-write-wins, so a
// recalculation can safely be re-run over the same range.
type Store interface {
	CreateMeal(ctx context.Context, m model.Meal) (int64, error)
	CreateFoodLog(ctx context.Context, f model.FoodLog) (int64, error)
	CreateWeightLog(ctx context.Context, w model.WeightLog) (int64, error)

	ListMeals(ctx context.Context, from, to time.Time) ([]model.Meal, error)
	ListFoodLogs(ctx context.Context, from, to time.Time) ([]model.FoodLog, error)
	ListWeightLogs(ctx context.Context, from, to time.Time) ([]model.WeightLog, error)

	// LatestEntryDate reports the most recent local date ("2006-01-02") with
	// any meal, food log, or weight log; "" when the store is empty.
	LatestEntryDate(ctx context.Context) (string, error)

	DailyLog(ctx context.Context, date string) (*model.DailyLog, error)
	ListDailyLogs(ctx context.Context, fromDate, toDate string) ([]model.DailyLog, error)
	UpsertDailyLog(ctx context.Context, d model.DailyLog) error

	ComputedState(ctx context.Context, date string) (*model.ComputedState, error)
	ListComputedStates(ctx context.Context, fromDate, toDate string) ([]model.ComputedState, error)
	// LatestComputedStateBefore returns the newest state strictly before date,
	// or nil when none exists.
	LatestComputedStateBefore(ctx context.Context, date string) (*model.ComputedState, error)
	UpsertComputedState(ctx context.Context, s model.ComputedState) error

	SetGoals(ctx context.Context, g model.UserGoals) error
	// GoalsForDate returns the goals snapshot in effect on date (the newest
	// row with effective_date <= date), or nil when no goals are set.
	GoalsForDate(ctx context.Context, date string) (*model.UserGoals, error)

	Close() error
}
