// Package postgres is a Store adapter for server deployments where the
// engine shares a database with the rest of the application.
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"

	"github.com/fluxtrack/flux/internal/model"
	"github.com/fluxtrack/flux/internal/store"
)

type Store struct {
	db *sql.DB
}

var _ store.Store = (*Store)(nil)

// Open connects to PostgreSQL, pings, and ensures the schema exists.
func Open(connStr string) (*Store, error) {
	sqldb, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	sqldb.SetMaxOpenConns(10)
	sqldb.SetMaxIdleConns(5)
	sqldb.SetConnMaxLifetime(5 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := sqldb.PingContext(ctx); err != nil {
		_ = sqldb.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	s := &Store{db: sqldb}
	if err := s.migrate(ctx); err != nil {
		_ = sqldb.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS meals (
			id BIGSERIAL PRIMARY KEY,
			name TEXT NOT NULL,
			calories INTEGER NOT NULL CHECK(calories >= 0),
			protein_g DOUBLE PRECISION NOT NULL DEFAULT 0,
			carbs_g DOUBLE PRECISION NOT NULL DEFAULT 0,
			fat_g DOUBLE PRECISION NOT NULL DEFAULT 0,
			logged_at TIMESTAMPTZ NOT NULL,
			notes TEXT NOT NULL DEFAULT ''
		);`,
		`CREATE INDEX IF NOT EXISTS idx_meals_logged_at ON meals(logged_at);`,
		`CREATE TABLE IF NOT EXISTS food_logs (
			id BIGSERIAL PRIMARY KEY,
			name TEXT NOT NULL,
			calories INTEGER NOT NULL CHECK(calories >= 0),
			protein_g DOUBLE PRECISION NOT NULL DEFAULT 0,
			carbs_g DOUBLE PRECISION NOT NULL DEFAULT 0,
			fat_g DOUBLE PRECISION NOT NULL DEFAULT 0,
			logged_at TIMESTAMPTZ NOT NULL,
			source TEXT NOT NULL DEFAULT 'manual'
		);`,
		`CREATE INDEX IF NOT EXISTS idx_food_logs_logged_at ON food_logs(logged_at);`,
		`CREATE TABLE IF NOT EXISTS weight_logs (
			id BIGSERIAL PRIMARY KEY,
			weight_kg DOUBLE PRECISION NOT NULL CHECK(weight_kg > 0),
			measured_at TIMESTAMPTZ NOT NULL,
			notes TEXT NOT NULL DEFAULT ''
		);`,
		`CREATE INDEX IF NOT EXISTS idx_weight_logs_measured_at ON weight_logs(measured_at);`,
		`CREATE TABLE IF NOT EXISTS daily_logs (
			date TEXT PRIMARY KEY,
			scale_weight_kg DOUBLE PRECISION,
			nutrition_calories INTEGER,
			nutrition_protein_g DOUBLE PRECISION,
			nutrition_carbs_g DOUBLE PRECISION,
			nutrition_fat_g DOUBLE PRECISION,
			step_count INTEGER,
			log_status TEXT NOT NULL CHECK(log_status IN ('complete', 'partial', 'skipped')),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		);`,
		`CREATE TABLE IF NOT EXISTS computed_states (
			date TEXT PRIMARY KEY,
			trend_weight_kg DOUBLE PRECISION NOT NULL,
			estimated_tdee_kcal DOUBLE PRECISION NOT NULL,
			raw_tdee_kcal DOUBLE PRECISION NOT NULL,
			flux_confidence_range DOUBLE PRECISION NOT NULL DEFAULT 0,
			energy_density_used DOUBLE PRECISION NOT NULL,
			weight_delta_kg DOUBLE PRECISION NOT NULL DEFAULT 0,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		);`,
		`CREATE TABLE IF NOT EXISTS user_goals (
			id BIGSERIAL PRIMARY KEY,
			calorie_goal INTEGER NOT NULL CHECK(calorie_goal >= 0),
			protein_goal_g DOUBLE PRECISION NOT NULL DEFAULT 0,
			carbs_goal_g DOUBLE PRECISION NOT NULL DEFAULT 0,
			fat_goal_g DOUBLE PRECISION NOT NULL DEFAULT 0,
			goal_type TEXT NOT NULL CHECK(goal_type IN ('lose', 'maintain', 'gain')),
			goal_rate_kg_per_week DOUBLE PRECISION NOT NULL DEFAULT 0,
			effective_date TEXT NOT NULL UNIQUE,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		);`,
	}

	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}

func (s *Store) CreateMeal(ctx context.Context, m model.Meal) (int64, error) {
	var id int64
	err := s.db.QueryRowContext(ctx, `
INSERT INTO meals(name, calories, protein_g, carbs_g, fat_g, logged_at, notes)
VALUES($1, $2, $3, $4, $5, $6, $7) RETURNING id
`, m.Name, m.Calories, m.ProteinG, m.CarbsG, m.FatG, m.LoggedAt.UTC(), m.Notes).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert meal: %w", err)
	}
	return id, nil
}

func (s *Store) CreateFoodLog(ctx context.Context, f model.FoodLog) (int64, error) {
	if f.Source == "" {
		f.Source = "manual"
	}
	var id int64
	err := s.db.QueryRowContext(ctx, `
INSERT INTO food_logs(name, calories, protein_g, carbs_g, fat_g, logged_at, source)
VALUES($1, $2, $3, $4, $5, $6, $7) RETURNING id
`, f.Name, f.Calories, f.ProteinG, f.CarbsG, f.FatG, f.LoggedAt.UTC(), f.Source).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert food log: %w", err)
	}
	return id, nil
}

func (s *Store) CreateWeightLog(ctx context.Context, w model.WeightLog) (int64, error) {
	var id int64
	err := s.db.QueryRowContext(ctx, `
INSERT INTO weight_logs(weight_kg, measured_at, notes)
VALUES($1, $2, $3) RETURNING id
`, w.WeightKg, w.MeasuredAt.UTC(), w.Notes).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert weight log: %w", err)
	}
	return id, nil
}

func (s *Store) ListMeals(ctx context.Context, from, to time.Time) ([]model.Meal, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT id, name, calories, protein_g, carbs_g, fat_g, logged_at, notes
FROM meals
WHERE logged_at >= $1 AND logged_at < $2
ORDER BY logged_at ASC
`, from.UTC(), to.UTC())
	if err != nil {
		return nil, fmt.Errorf("list meals: %w", err)
	}
	defer rows.Close()

	items := make([]model.Meal, 0)
	for rows.Next() {
		var m model.Meal
		if err := rows.Scan(&m.ID, &m.Name, &m.Calories, &m.ProteinG, &m.CarbsG, &m.FatG, &m.LoggedAt, &m.Notes); err != nil {
			return nil, fmt.Errorf("scan meal: %w", err)
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
WHERE logged_at >= $1 AND logged_at < $2
ORDER BY logged_at ASC
`, from.UTC(), to.UTC())
	if err != nil {
		return nil, fmt.Errorf("list food logs: %w", err)
	}
	defer rows.Close()

	items := make([]model.FoodLog, 0)
	for rows.Next() {
		var f model.FoodLog
		if err := rows.Scan(&f.ID, &f.Name, &f.Calories, &f.ProteinG, &f.CarbsG, &f.FatG, &f.LoggedAt, &f.Source); err != nil {
			return nil, fmt.Errorf("scan food log: %w", err)
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
SELECT id, weight_kg, measured_at, notes
FROM weight_logs
WHERE measured_at >= $1 AND measured_at < $2
ORDER BY measured_at ASC
`, from.UTC(), to.UTC())
	if err != nil {
		return nil, fmt.Errorf("list weight logs: %w", err)
	}
	defer rows.Close()

	items := make([]model.WeightLog, 0)
	for rows.Next() {
		var w model.WeightLog
		if err := rows.Scan(&w.ID, &w.WeightKg, &w.MeasuredAt, &w.Notes); err != nil {
			return nil, fmt.Errorf("scan weight log: %w", err)
		}
		items = append(items, w)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate weight logs: %w", err)
	}
	return items, nil
}

func (s *Store) LatestEntryDate(ctx context.Context) (string, error) {
	var latest sql.NullTime
	err := s.db.QueryRowContext(ctx, `
SELECT GREATEST(
  (SELECT MAX(logged_at) FROM meals),
  (SELECT MAX(logged_at) FROM food_logs),
  (SELECT MAX(measured_at) FROM weight_logs)
)
`).Scan(&latest)
	if err != nil {
		return "", fmt.Errorf("latest entry date: %w", err)
	}
	if !latest.Valid {
		return "", nil
	}
	return latest.Time.In(time.Local).Format("2006-01-02"), nil
}

func (s *Store) DailyLog(ctx context.Context, date string) (*model.DailyLog, error) {
	row := s.db.QueryRowContext(ctx, `
SELECT date, scale_weight_kg, nutrition_calories, nutrition_protein_g, nutrition_carbs_g, nutrition_fat_g, step_count, log_status
FROM daily_logs
WHERE date = $1
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
WHERE date >= $1 AND date <= $2
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
VALUES($1, $2, $3, $4, $5, $6, $7, $8)
ON CONFLICT(date) DO UPDATE SET
  scale_weight_kg=excluded.scale_weight_kg,
  nutrition_calories=excluded.nutrition_calories,
  nutrition_protein_g=excluded.nutrition_protein_g,
  nutrition_carbs_g=excluded.nutrition_carbs_g,
  nutrition_fat_g=excluded.nutrition_fat_g,
  step_count=excluded.step_count,
  log_status=excluded.log_status,
  updated_at=now()
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
WHERE date = $1
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
WHERE date >= $1 AND date <= $2
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
WHERE date < $1
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
VALUES($1, $2, $3, $4, $5, $6, $7)
ON CONFLICT(date) DO UPDATE SET
  trend_weight_kg=excluded.trend_weight_kg,
  estimated_tdee_kcal=excluded.estimated_tdee_kcal,
  raw_tdee_kcal=excluded.raw_tdee_kcal,
  flux_confidence_range=excluded.flux_confidence_range,
  energy_density_used=excluded.energy_density_used,
  weight_delta_kg=excluded.weight_delta_kg,
  updated_at=now()
`, st.Date, st.TrendWeightKg, st.EstimatedTDEEKcal, st.RawTDEEKcal, st.FluxConfidenceRange, st.EnergyDensityUsed, st.WeightDeltaKg)
	if err != nil {
		return fmt.Errorf("upsert computed state %s: %w", st.Date, err)
	}
	return nil
}

func (s *Store) SetGoals(ctx context.Context, g model.UserGoals) error {
	_, err := s.db.ExecContext(ctx, `
INSERT INTO user_goals(calorie_goal, protein_goal_g, carbs_goal_g, fat_goal_g, goal_type, goal_rate_kg_per_week, effective_date)
VALUES($1, $2, $3, $4, $5, $6, $7)
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
WHERE effective_date <= $1
ORDER BY effective_date DESC
LIMIT 1
`, date)
	var g model.UserGoals
	err := row.Scan(&g.ID, &g.CalorieGoal, &g.ProteinGoalG, &g.CarbsGoalG, &g.FatGoalG, &g.GoalType, &g.GoalRateKgPerWeek, &g.EffectiveDate, &g.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("goals for %s: %w", date, err)
	}
	return &g, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDailyLog(row rowScanner) (*model.DailyLog, error) {
	var d model.DailyLog
	var weight, protein, carbs, fat sql.NullFloat64
	var calories, steps sql.NullInt64
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
