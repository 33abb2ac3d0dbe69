package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"
)

// DB wraps a *sql.DB and implements domain repository interfaces.
type DB struct {
	sql *sql.DB
}

// Open connects to PostgreSQL, pings, and runs migrations.
func Open(connStr string) (*DB, error) {
	s, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, err
	}
	s.SetMaxOpenConns(10)
	s.SetMaxIdleConns(5)
	s.SetConnMaxLifetime(5 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.PingContext(ctx); err != nil {
		_ = s.Close()
		return nil, err
	}

	d := &DB{sql: s}
	if err := d.migrate(ctx); err != nil {
		_ = s.Close()
		return nil, err
	}
	return d, nil
}

// Close closes the underlying database connection.
func (d *DB) Close() error {
	return d.sql.Close()
}

func (d *DB) migrate(ctx context.Context) error {
	// Days are stored as TEXT in the 2006-01-02 form so that range
	// predicates compare lexicographically.
	stmts := []string{
		"CREATE TABLE IF NOT EXISTS users (id BIGSERIAL PRIMARY KEY, username TEXT UNIQUE NOT NULL, password_hash TEXT NOT NULL, created_at TIMESTAMPTZ NOT NULL);",
		"CREATE TABLE IF NOT EXISTS sessions (token TEXT PRIMARY KEY, user_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE, expires_at TIMESTAMPTZ NOT NULL, created_at TIMESTAMPTZ NOT NULL);",
		"CREATE INDEX IF NOT EXISTS idx_sessions_expires_at ON sessions(expires_at);",
		"CREATE TABLE IF NOT EXISTS wellness_checkins (id BIGSERIAL PRIMARY KEY, user_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE, day TEXT NOT NULL, energy_level INT NOT NULL, hunger_level INT NOT NULL, sleep_quality INT, stress_level INT, cravings_intensity INT, adherence_perception INT, recovery_readiness INT, illness_status BOOLEAN, illness_severity INT, illness_type TEXT, notes TEXT, created_at TIMESTAMPTZ NOT NULL, UNIQUE(user_id, day));",
		"CREATE TABLE IF NOT EXISTS weekly_wellness_summaries (id BIGSERIAL PRIMARY KEY, user_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE, week_start TEXT NOT NULL, avg_energy DOUBLE PRECISION, avg_hunger DOUBLE PRECISION, avg_sleep DOUBLE PRECISION, avg_stress DOUBLE PRECISION, avg_cravings DOUBLE PRECISION, avg_adherence DOUBLE PRECISION, avg_recovery DOUBLE PRECISION, days_tracked INT NOT NULL, computed_at TIMESTAMPTZ NOT NULL, UNIQUE(user_id, week_start));",
		"CREATE TABLE IF NOT EXISTS mesocycles (id BIGSERIAL PRIMARY KEY, user_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE, name TEXT NOT NULL, current_week INT NOT NULL, total_weeks INT NOT NULL, is_active BOOLEAN NOT NULL, is_paused BOOLEAN NOT NULL DEFAULT FALSE, pause_reason TEXT, paused_at TIMESTAMPTZ, pre_illness_week INT, illness_adjustments JSONB, recovery_tracking_started TIMESTAMPTZ, created_at TIMESTAMPTZ NOT NULL);",
		"CREATE INDEX IF NOT EXISTS idx_mesocycles_user_active ON mesocycles(user_id, is_active);",
		"CREATE TABLE IF NOT EXISTS diet_goals (id BIGSERIAL PRIMARY KEY, user_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE, goal TEXT NOT NULL CHECK(goal IN ('cut','bulk','maintain')), tdee DOUBLE PRECISION NOT NULL, target_calories DOUBLE PRECISION NOT NULL, custom_target_calories DOUBLE PRECISION, use_custom_calories BOOLEAN NOT NULL DEFAULT FALSE, target_protein DOUBLE PRECISION NOT NULL, target_carbs DOUBLE PRECISION NOT NULL, target_fat DOUBLE PRECISION NOT NULL, auto_regulation BOOLEAN NOT NULL DEFAULT TRUE, weekly_weight_target DOUBLE PRECISION NOT NULL DEFAULT 0, created_at TIMESTAMPTZ NOT NULL);",
		"CREATE INDEX IF NOT EXISTS idx_diet_goals_user_created ON diet_goals(user_id, created_at);",
		"CREATE TABLE IF NOT EXISTS weekly_nutrition_goals (id BIGSERIAL PRIMARY KEY, user_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE, week_start TEXT NOT NULL, daily_calories DOUBLE PRECISION NOT NULL, protein DOUBLE PRECISION NOT NULL, carbs DOUBLE PRECISION NOT NULL, fat DOUBLE PRECISION NOT NULL, adherence_percentage DOUBLE PRECISION NOT NULL, adjustment_reason TEXT NOT NULL, adjustment_percentage DOUBLE PRECISION NOT NULL, avg_energy DOUBLE PRECISION, avg_hunger DOUBLE PRECISION, avg_sleep DOUBLE PRECISION, avg_stress DOUBLE PRECISION, previous_weight DOUBLE PRECISION, current_weight DOUBLE PRECISION, created_at TIMESTAMPTZ NOT NULL);",
		"CREATE INDEX IF NOT EXISTS idx_weekly_nutrition_goals_user_week ON weekly_nutrition_goals(user_id, week_start);",
		"CREATE TABLE IF NOT EXISTS nutrition_logs (id BIGSERIAL PRIMARY KEY, user_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE, day TEXT NOT NULL, calories DOUBLE PRECISION NOT NULL, protein DOUBLE PRECISION NOT NULL DEFAULT 0, carbs DOUBLE PRECISION NOT NULL DEFAULT 0, fat DOUBLE PRECISION NOT NULL DEFAULT 0, logged_at TIMESTAMPTZ NOT NULL);",
		"CREATE INDEX IF NOT EXISTS idx_nutrition_logs_user_day ON nutrition_logs(user_id, day);",
		"CREATE TABLE IF NOT EXISTS body_metrics (id BIGSERIAL PRIMARY KEY, user_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE, day TEXT NOT NULL, weight DOUBLE PRECISION NOT NULL, unit TEXT NOT NULL CHECK(unit IN ('kg','lb')), recorded_at TIMESTAMPTZ NOT NULL);",
		"CREATE INDEX IF NOT EXISTS idx_body_metrics_user_day ON body_metrics(user_id, day);",
	}

	for _, stmt := range stmts {
		if _, err := d.sql.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}
