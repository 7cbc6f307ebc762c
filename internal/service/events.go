package service

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/fluxtrack/flux/internal/store"
)

// Engine ties the aggregator and estimator to a store and serializes
// recalculation runs. One Engine per user; concurrent event callbacks for
// overlapping date ranges queue on the mutex instead of racing.
type Engine struct {
	store  store.Store
	params Params
	log    *slog.Logger
	mu     sync.Mutex
}

func NewEngine(st store.Store, p Params, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{store: st, params: p, log: logger}
}

// OnMealLogged re-aggregates the day a meal or food log landed on and
// recalculates forward from it.
func (e *Engine) OnMealLogged(ctx context.Context, when time.Time) error {
	return e.handleEvent(ctx, "meal_logged", when)
}

// OnWeightLogged re-aggregates the day a weight entry landed on and
// recalculates forward from it. A mid-sequence weight changes trend weight
// for every later day, so the whole tail is recomputed.
func (e *Engine) OnWeightLogged(ctx context.Context, when time.Time) error {
	return e.handleEvent(ctx, "weight_logged", when)
}

// handleEvent is the one throw/catch boundary of the engine: the triggering
// meal/weight row is already persisted by the time we run, so failures here
// are logged and swallowed rather than bubbled back to the caller.
func (e *Engine) handleEvent(ctx context.Context, event string, when time.Time) error {
	day := beginningOfDay(when)
	logger := e.log.With("run_id", uuid.NewString(), "event", event, "date", dayKey(day))

	defer func() {
		if r := recover(); r != nil {
			logger.Error("recalculation panicked", "panic", r)
		}
	}()

	if _, err := AggregateDailyNutrition(ctx, e.store, day, e.params); err != nil {
		// Non-fatal: the recalculation below re-aggregates the day anyway.
		logger.Warn("daily aggregation failed", "error", err)
	}

	count, err := e.RecalculateTDEEFromDate(ctx, day)
	if err != nil {
		logger.Error("recalculation failed", "error", err)
		return nil
	}
	logger.Info("recalculation complete", "days", count)
	return nil
}
