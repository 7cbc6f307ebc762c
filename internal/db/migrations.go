package db

import (
	"database/sql"
	"fmt"
)

type migration struct {
	version int
	name    string
	sql     string
}

var migrations = []migration{
	{
		version: 1,
		name:    "raw_logs",
		sql: `
CREATE TABLE IF NOT EXISTS schema_migrations (
  version INTEGER PRIMARY KEY,
  name TEXT NOT NULL,
  applied_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS meals (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  name TEXT NOT NULL,
  calories INTEGER NOT NULL CHECK(calories >= 0),
  protein_g REAL NOT NULL DEFAULT 0 CHECK(protein_g >= 0),
  carbs_g REAL NOT NULL DEFAULT 0 CHECK(carbs_g >= 0),
  fat_g REAL NOT NULL DEFAULT 0 CHECK(fat_g >= 0),
  logged_at DATETIME NOT NULL,
  notes TEXT NOT NULL DEFAULT '',
  created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_meals_logged_at ON meals(logged_at);

CREATE TABLE IF NOT EXISTS food_logs (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  name TEXT NOT NULL,
  calories INTEGER NOT NULL CHECK(calories >= 0),
  protein_g REAL NOT NULL DEFAULT 0 CHECK(protein_g >= 0),
  carbs_g REAL NOT NULL DEFAULT 0 CHECK(carbs_g >= 0),
  fat_g REAL NOT NULL DEFAULT 0 CHECK(fat_g >= 0),
  logged_at DATETIME NOT NULL,
  source TEXT NOT NULL DEFAULT 'manual',
  created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_food_logs_logged_at ON food_logs(logged_at);

CREATE TABLE IF NOT EXISTS weight_logs (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  weight_kg REAL NOT NULL CHECK(weight_kg > 0),
  measured_at DATETIME NOT NULL,
  notes TEXT NOT NULL DEFAULT '',
  created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_weight_logs_measured_at ON weight_logs(measured_at);
`,
	},
	{
		version: 2,
		name:    "derived_state",
		sql: `
CREATE TABLE IF NOT EXISTS daily_logs (
  date TEXT PRIMARY KEY,
  scale_weight_kg REAL,
  nutrition_calories INTEGER,
  nutrition_protein_g REAL,
  nutrition_carbs_g REAL,
  nutrition_fat_g REAL,
  step_count INTEGER,
  log_status TEXT NOT NULL CHECK(log_status IN ('complete', 'partial', 'skipped')),
  updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS computed_states (
  date TEXT PRIMARY KEY,
  trend_weight_kg REAL NOT NULL,
  estimated_tdee_kcal REAL NOT NULL,
  raw_tdee_kcal REAL NOT NULL,
  flux_confidence_range REAL NOT NULL DEFAULT 0,
  energy_density_used REAL NOT NULL,
  weight_delta_kg REAL NOT NULL DEFAULT 0,
  updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);
`,
	},
	{
		version: 3,
		name:    "user_goals",
		sql: `
CREATE TABLE IF NOT EXISTS user_goals (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  calorie_goal INTEGER NOT NULL CHECK(calorie_goal >= 0),
  protein_goal_g REAL NOT NULL DEFAULT 0 CHECK(protein_goal_g >= 0),
  carbs_goal_g REAL NOT NULL DEFAULT 0 CHECK(carbs_goal_g >= 0),
  fat_goal_g REAL NOT NULL DEFAULT 0 CHECK(fat_goal_g >= 0),
  goal_type TEXT NOT NULL CHECK(goal_type IN ('lose', 'maintain', 'gain')),
  goal_rate_kg_per_week REAL NOT NULL DEFAULT 0 CHECK(goal_rate_kg_per_week >= 0),
  effective_date TEXT NOT NULL,
  created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
  UNIQUE(effective_date)
);
`,
	},
}

func ApplyMigrations(db *sql.DB) error {
	if _, err := db.Exec(`
CREATE TABLE IF NOT EXISTS schema_migrations (
  version INTEGER PRIMARY KEY,
  name TEXT NOT NULL,
  applied_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);
`); err != nil {
		return fmt.Errorf("ensure schema_migrations table: %w", err)
	}

	for _, m := range migrations {
		var exists int
		err := db.QueryRow(`SELECT 1 FROM schema_migrations WHERE version = ?`, m.version).Scan(&exists)
		if err == nil {
			continue
		}
		if err != sql.ErrNoRows {
			return fmt.Errorf("check migration version %d: %w", m.version, err)
		}

		tx, err := db.Begin()
		if err != nil {
			return fmt.Errorf("begin migration tx: %w", err)
		}

		if _, err := tx.Exec(m.sql); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("apply migration version %d (%s): %w", m.version, m.name, err)
		}
		if _, err := tx.Exec(`INSERT INTO schema_migrations(version, name) VALUES(?, ?)`, m.version, m.name); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("record migration version %d: %w", m.version, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit migration version %d: %w", m.version, err)
		}
	}

	return nil
}
