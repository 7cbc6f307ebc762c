package flux

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/fluxtrack/flux/internal/app"
	"github.com/fluxtrack/flux/internal/service"
	"github.com/fluxtrack/flux/internal/store"
	"github.com/fluxtrack/flux/internal/store/postgres"
	"github.com/fluxtrack/flux/internal/store/sqlite"
)

func withStore(run func(store.Store) error) error {
	if dsn := resolveDSN(); dsn != "" {
		st, err := postgres.Open(dsn)
		if err != nil {
			return err
		}
		defer st.Close()
		return run(st)
	}

	path, err := resolveDBPath()
	if err != nil {
		return err
	}
	if err := app.EnsureDBDir(path); err != nil {
		return err
	}
	st, err := sqlite.Open(path)
	if err != nil {
		return err
	}
	defer st.Close()
	return run(st)
}

func resolveDSN() string {
	if strings.TrimSpace(pgDSN) != "" {
		return strings.TrimSpace(pgDSN)
	}
	return strings.TrimSpace(os.Getenv("FLUX_PG_DSN"))
}

func resolveDBPath() (string, error) {
	if strings.TrimSpace(dbPath) != "" {
		return strings.TrimSpace(dbPath), nil
	}
	if env := strings.TrimSpace(os.Getenv("FLUX_DB")); env != "" {
		return env, nil
	}
	return app.DefaultDBPath()
}

func currentTDEE(ctx context.Context, st store.Store, p service.Params) (float64, error) {
	tomorrow := time.Now().AddDate(0, 0, 1).Format("2006-01-02")
	cs, err := st.LatestComputedStateBefore(ctx, tomorrow)
	if err != nil {
		return 0, err
	}
	if cs != nil {
		return cs.EstimatedTDEEKcal, nil
	}
	goals, err := st.GoalsForDate(ctx, time.Now().Format("2006-01-02"))
	if err != nil {
		return 0, err
	}
	if goals != nil && goals.CalorieGoal > 0 {
		return float64(goals.CalorieGoal), nil
	}
	return p.FallbackTDEEKcal, nil
}

// previousScaleWeight looks back up to a week for the most recent weigh-in
// to warn against a large day-over-day change.
func previousScaleWeight(ctx context.Context, st store.Store, at time.Time) (*float64, error) {
	from := at.AddDate(0, 0, -7).Format("2006-01-02")
	to := at.AddDate(0, 0, -1).Format("2006-01-02")
	logs, err := st.ListDailyLogs(ctx, from, to)
	if err != nil {
		return nil, err
	}
	var prev *float64
	for _, d := range logs {
		if d.ScaleWeightKg != nil {
			v := *d.ScaleWeightKg
			prev = &v
		}
	}
	return prev, nil
}

func parseDateTimeOrNow(date, timeStr string) (time.Time, error) {
	date = strings.TrimSpace(date)
	timeStr = strings.TrimSpace(timeStr)
	if date == "" && timeStr == "" {
		return time.Now(), nil
	}
	if date == "" {
		return time.Time{}, fmt.Errorf("--date is required when --time is set")
	}
	if timeStr == "" {
		t, err := time.ParseInLocation("2006-01-02", date, time.Local)
		if err != nil {
			return time.Time{}, fmt.Errorf("invalid --date %q (expected YYYY-MM-DD)", date)
		}
		return t, nil
	}
	t, err := time.ParseInLocation("2006-01-02 15:04", date+" "+timeStr, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid --date/--time (expected YYYY-MM-DD and HH:MM)")
	}
	return t, nil
}
