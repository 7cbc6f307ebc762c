// Package sqlite is the default Store adapter, backed by a local sqlite file.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/fluxtrack/flux/internal/db"
	"github.com/fluxtrack/flux/internal/model"
	"github.com/fluxtrack/flux/internal/store"
)

type Store struct {
	db *sql.DB
}

var _ store.Store = (*Store)(nil)

// Open opens (creating if needed) the sqlite database at path and applies
// pending migrations.
func Open(path string) (*Store, error) {
	sqldb, err := db.Open(path)
	if err != nil {
		return nil, err
	}
	if err := db.ApplyMigrations(sqldb); err != nil {
		_ = sqldb.Close()
		return nil, err
	}
	return &Store{db: sqldb}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) CreateMeal(ctx context.Context, m model.Meal) (int64, error) {
	res, err := s.db.ExecContext(ctx, `
INSERT INTO meals(name, calories, protein_g, carbs_g, fat_g, logged_at, notes)
VALUES(?, ?, ?, ?, ?, ?, ?)
`, m.Name, m.Calories, m.ProteinG, m.CarbsG, m.FatG, m.LoggedAt.Format(time.RFC3339), m.Notes)
	if err != nil {
		return 0, fmt.Errorf("insert meal: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("resolve inserted meal id: %w", err)
	}
	return id, nil
}

func (s *Store) CreateFoodLog(ctx context.Context, f model.FoodLog) (int64, error) {
	if f.Source == "" {
		f.Source = "manual"
	}
	res, err := s.db.ExecContext(ctx, `
INSERT INTO food_logs(name, calories, protein_g, carbs_g, fat_g, logged_at, source)
VALUES(?, ?, ?, ?, ?, ?, ?)
`, f.Name, f.Calories, f.ProteinG, f.CarbsG, f.FatG, f.LoggedAt.Format(time.RFC3339), f.Source)
	if err != nil {
		return 0, fmt.Errorf("insert food log: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("resolve inserted food log id: %w", err)
	}
	return id, nil
}

func (s *Store) CreateWeightLog(ctx context.Context, w model.WeightLog) (int64, error) {
	res, err := s.db.ExecContext(ctx, `
INSERT INTO weight_logs(weight_kg, measured_at, notes)
VALUES(?, ?, ?)
`, w.WeightKg, w.MeasuredAt.Format(time.RFC3339), w.Notes)
	if err != nil {
		return 0, fmt.Errorf("insert weight log: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("resolve inserted weight log id: %w", err)
	}
	return id, nil
}

func (s *Store) ListMeals(ctx context.Context, from, to time.Time) ([]model.Meal, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT id, name, calories, protein_g, carbs_g, fat_g, logged_at, IFNULL(notes, '')
FROM meals
WHERE logged_at >= ? AND logged_at < ?
ORDER BY logged_at ASC
`, from.Format(time.RFC3339), to.Format(time.RFC3339))
	if err != nil {
		return nil, fmt.Errorf("list meals: %w", err)
	}
	defer rows.Close()

	items := make([]model.Meal, 0)
	for rows.Next() {
		var m model.Meal
		var loggedAtRaw string
		if err := rows.Scan(&m.ID, &m.Name, &m.Calories, &m.ProteinG, &m.CarbsG, &m.FatG, &loggedAtRaw, &m.Notes); err != nil {
			return nil, fmt.Errorf("scan meal: %w", err)
		}
		m.LoggedAt, err = time.Parse(time.RFC3339, loggedAtRaw)
		if err != nil {
			return nil, fmt.Errorf("parse meal logged_at: %w", err)
		}
		items = append(items, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate meals: %w", err)
	}
	return items, nil
}

func (s *Store) ListFoodLogs(ctx context.Context, from, to time.Time) ([]model.FoodLog, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT id, name, calories, protein_g, carbs_g, fat_g, logged_at, source
FROM food_logs
WHERE logged_at >= ? AND logged_at < ?
ORDER BY logged_at ASC
`, from.Format(time.RFC3339), to.Format(time.RFC3339))
	if err != nil {
		return nil, fmt.Errorf("list food logs: %w", err)
	}
	defer rows.Close()

	items := make([]model.FoodLog, 0)
	for rows.Next() {
		var f model.FoodLog
		var loggedAtRaw string
		if err := rows.Scan(&f.ID, &f.Name, &f.Calories, &f.ProteinG, &f.CarbsG, &f.FatG, &loggedAtRaw, &f.Source); err != nil {
			return nil, fmt.Errorf("scan food log: %w", err)
		}
		f.LoggedAt, err = time.Parse(time.RFC3339, loggedAtRaw)
		if err != nil {
			return nil, fmt.Errorf("parse food log logged_at: %w", err)
		}
		items = append(items, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate food logs: %w", err)
	}
	return items, nil
}

func (s *Store) ListWeightLogs(ctx context.Context, from, to time.Time) ([]model.WeightLog, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT id, weight_kg, measured_at, IFNULL(notes, '')
FROM weight_logs
WHERE measured_at >= ? AND measured_at < ?
ORDER BY measured_at ASC
`, from.Format(time.RFC3339), to.Format(time.RFC3339))
	if err != nil {
		return nil, fmt.Errorf("list weight logs: %w", err)
	}
	defer rows.Close()

	items := make([]model.WeightLog, 0)
	for rows.Next() {
		var w model.WeightLog
		var measuredAtRaw string
		if err := rows.Scan(&w.ID, &w.WeightKg, &measuredAtRaw, &w.Notes); err != nil {
			return nil, fmt.Errorf("scan weight log: %w", err)
		}
		w.MeasuredAt, err = time.Parse(time.RFC3339, measuredAtRaw)
		if err != nil {
			return nil, fmt.Errorf("parse weight log measured_at: %w", err)
		}
		items = append(items, w)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate weight logs: %w", err)
	}
	return items, nil
}

func (s *Store) LatestEntryDate(ctx context.Context) (string, error) {
	var latest sql.NullString
	err := s.db.QueryRowContext(ctx, `
SELECT MAX(ts) FROM (
  SELECT MAX(logged_at) AS ts FROM meals
  UNION ALL
  SELECT MAX(logged_at) AS ts FROM food_logs
  UNION ALL
  SELECT MAX(measured_at) AS ts FROM weight_logs
)
`).Scan(&latest)
	if err != nil {
		return "", fmt.Errorf("latest entry date: %w", err)
	}
	if !latest.Valid || latest.String == "" {
		return "", nil
	}
	ts, err := time.Parse(time.RFC3339, latest.String)
	if err != nil {
		return "", fmt.Errorf("parse latest entry timestamp: %w", err)
	}
	return ts.In(time.Local).Format("2006-01-02"), nil
}

func (s *Store) DailyLog(ctx context.Context, date string) (*model.DailyLog, error) {
	row := s.db.QueryRowContext(ctx, `
SELECT date, scale_weight_kg, nutrition_calories, nutrition_protein_g, nutrition_carbs_g, nutrition_fat_g, step_count, log_status
FROM daily_logs
WHERE date = ?
`, date)
	d, err := scanDailyLog(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get daily log %s: %w", date, err)
	}
	return d, nil
}

func (s *Store) ListDailyLogs(ctx context.Context, fromDate, toDate string) ([]model.DailyLog, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT date, scale_weight_kg, nutrition_calories, nutrition_protein_g, nutrition_carbs_g, nutrition_fat_g, step_count, log_status
FROM daily_logs
WHERE date >= ? AND date <= ?
ORDER BY date ASC
`, fromDate, toDate)
	if err != nil {
		return nil, fmt.Errorf("list daily logs: %w", err)
	}
	defer rows.Close()

	items := make([]model.DailyLog, 0)
	for rows.Next() {
		d, err := scanDailyLog(rows)
		if err != nil {
			return nil, fmt.Errorf("scan daily log: %w", err)
		}
		items = append(items, *d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate daily logs: %w", err)
	}
	return items, nil
}

func (s *Store) UpsertDailyLog(ctx context.Context, d model.DailyLog) error {
	_, err := s.db.ExecContext(ctx, `
INSERT INTO daily_logs(date, scale_weight_kg, nutrition_calories, nutrition_protein_g, nutrition_carbs_g, nutrition_fat_g, step_count, log_status)
VALUES(?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(date) DO UPDATE SET
  scale_weight_kg=excluded.scale_weight_kg,
  nutrition_calories=excluded.nutrition_calories,
  nutrition_protein_g=excluded.nutrition_protein_g,
  nutrition_carbs_g=excluded.nutrition_carbs_g,
  nutrition_fat_g=excluded.nutrition_fat_g,
  step_count=excluded.step_count,
  log_status=excluded.log_status,
  updated_at=CURRENT_TIMESTAMP
`, d.Date, d.ScaleWeightKg, d.NutritionCalories, d.NutritionProteinG, d.NutritionCarbsG, d.NutritionFatG, d.StepCount, d.LogStatus)
	if err != nil {
		return fmt.Errorf("upsert daily log %s: %w", d.Date, err)
	}
	return nil
}

func (s *Store) ComputedState(ctx context.Context, date string) (*model.ComputedState, error) {
	row := s.db.QueryRowContext(ctx, `
SELECT date, trend_weight_kg, estimated_tdee_kcal, raw_tdee_kcal, flux_confidence_range, energy_density_used, weight_delta_kg
FROM computed_states
WHERE date = ?
`, date)
	var st model.ComputedState
	err := row.Scan(&st.Date, &st.TrendWeightKg, &st.EstimatedTDEEKcal, &st.RawTDEEKcal, &st.FluxConfidenceRange, &st.EnergyDensityUsed, &st.WeightDeltaKg)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get computed state %s: %w", date, err)
	}
	return &st, nil
}

func (s *Store) ListComputedStates(ctx context.Context, fromDate, toDate string) ([]model.ComputedState, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT date, trend_weight_kg, estimated_tdee_kcal, raw_tdee_kcal, flux_confidence_range, energy_density_used, weight_delta_kg
FROM computed_states
WHERE date >= ? AND date <= ?
ORDER BY date ASC
`, fromDate, toDate)
	if err != nil {
		return nil, fmt.Errorf("list computed states: %w", err)
	}
	defer rows.Close()

	items := make([]model.ComputedState, 0)
	for rows.Next() {
		var st model.ComputedState
		if err := rows.Scan(&st.Date, &st.TrendWeightKg, &st.EstimatedTDEEKcal, &st.RawTDEEKcal, &st.FluxConfidenceRange, &st.EnergyDensityUsed, &st.WeightDeltaKg); err != nil {
			return nil, fmt.Errorf("scan computed state: %w", err)
		}
		items = append(items, st)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate computed states: %w", err)
	}
	return items, nil
}

func (s *Store) LatestComputedStateBefore(ctx context.Context, date string) (*model.ComputedState, error) {
	row := s.db.QueryRowContext(ctx, `
SELECT date, trend_weight_kg, estimated_tdee_kcal, raw_tdee_kcal, flux_confidence_range, energy_density_used, weight_delta_kg
FROM computed_states
WHERE date < ?
ORDER BY date DESC
LIMIT 1
`, date)
	var st model.ComputedState
	err := row.Scan(&st.Date, &st.TrendWeightKg, &st.EstimatedTDEEKcal, &st.RawTDEEKcal, &st.FluxConfidenceRange, &st.EnergyDensityUsed, &st.WeightDeltaKg)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("latest computed state before %s: %w", date, err)
	}
	return &st, nil
}

func (s *Store) UpsertComputedState(ctx context.Context, st model.ComputedState) error {
	_, err := s.db.ExecContext(ctx, `
INSERT INTO computed_states(date, trend_weight_kg, estimated_tdee_kcal, raw_tdee_kcal, flux_confidence_range, energy_density_used, weight_delta_kg)
VALUES(?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(date) DO UPDATE SET
  trend_weight_kg=excluded.trend_weight_kg,
  estimated_tdee_kcal=excluded.estimated_tdee_kcal,
  raw_tdee_kcal=excluded.raw_tdee_kcal,
  flux_confidence_range=excluded.flux_confidence_range,
  energy_density_used=excluded.energy_density_used,
  weight_delta_kg=excluded.weight_delta_kg,
  updated_at=CURRENT_TIMESTAMP
`, st.Date, st.TrendWeightKg, st.EstimatedTDEEKcal, st.RawTDEEKcal, st.FluxConfidenceRange, st.EnergyDensityUsed, st.WeightDeltaKg)
	if err != nil {
		return fmt.Errorf("upsert computed state %s: %w", st.Date, err)
	}
	return nil
}

func (s *Store) SetGoals(ctx context.Context, g model.UserGoals) error {
	_, err := s.db.ExecContext(ctx, `
INSERT INTO user_goals(calorie_goal, protein_goal_g, carbs_goal_g, fat_goal_g, goal_type, goal_rate_kg_per_week, effective_date)
VALUES(?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(effective_date) DO UPDATE SET
  calorie_goal=excluded.calorie_goal,
  protein_goal_g=excluded.protein_goal_g,
  carbs_goal_g=excluded.carbs_goal_g,
  fat_goal_g=excluded.fat_goal_g,
  goal_type=excluded.goal_type,
  goal_rate_kg_per_week=excluded.goal_rate_kg_per_week
`, g.CalorieGoal, g.ProteinGoalG, g.CarbsGoalG, g.FatGoalG, g.GoalType, g.GoalRateKgPerWeek, g.EffectiveDate)
	if err != nil {
		return fmt.Errorf("set goals: %w", err)
	}
	return nil
}

func (s *Store) GoalsForDate(ctx context.Context, date string) (*model.UserGoals, error) {
	row := s.db.QueryRowContext(ctx, `
SELECT id, calorie_goal, protein_goal_g, carbs_goal_g, fat_goal_g, goal_type, goal_rate_kg_per_week, effective_date, created_at
FROM user_goals
WHERE effective_date <= ?
ORDER BY effective_date DESC
LIMIT 1
`, date)
	var g model.UserGoals
	var createdAtRaw string
	err := row.Scan(&g.ID, &g.CalorieGoal, &g.ProteinGoalG, &g.CarbsGoalG, &g.FatGoalG, &g.GoalType, &g.GoalRateKgPerWeek, &g.EffectiveDate, &createdAtRaw)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("goals for %s: %w", date, err)
	}
	g.CreatedAt = parseTimestamp(createdAtRaw)
	return &g, nil
}

// parseTimestamp handles both sqlite's CURRENT_TIMESTAMP format and RFC 3339.
func parseTimestamp(raw string) time.Time {
	if t, err := time.Parse("2006-01-02 15:04:05", raw); err == nil {
		return t
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t
	}
	return time.Time{}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDailyLog(row rowScanner) (*model.DailyLog, error) {
	var d model.DailyLog
	var weight sql.NullFloat64
	var calories, steps sql.NullInt64
	var protein, carbs, fat sql.NullFloat64
	if err := row.Scan(&d.Date, &weight, &calories, &protein, &carbs, &fat, &steps, &d.LogStatus); err != nil {
		return nil, err
	}
	if weight.Valid {
		v := weight.Float64
		d.ScaleWeightKg = &v
	}
	if calories.Valid {
		v := int(calories.Int64)
		d.NutritionCalories = &v
	}
	if protein.Valid {
		v := protein.Float64
		d.NutritionProteinG = &v
	}
	if carbs.Valid {
		v := carbs.Float64
		d.NutritionCarbsG = &v
	}
	if fat.Valid {
		v := fat.Float64
		d.NutritionFatG = &v
	}
	if steps.Valid {
		v := int(steps.Int64)
		d.StepCount = &v
	}
	return &d, nil
}
