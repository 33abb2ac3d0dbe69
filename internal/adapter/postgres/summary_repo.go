package postgres

import (
	"context"
	"database/sql"
	"errors"

	"autoreg/internal/domain"
)

const summaryColumns = "id, user_id, week_start, avg_energy, avg_hunger, avg_sleep, avg_stress, avg_cravings, avg_adherence, avg_recovery, days_tracked, computed_at"

// UpsertWeeklySummary inserts or replaces the summary for (userID, weekStart).
func (d *DB) UpsertWeeklySummary(ctx context.Context, s *domain.WeeklyWellnessSummary) (*domain.WeeklyWellnessSummary, error) {
	row := d.sql.QueryRowContext(ctx,
		`INSERT INTO weekly_wellness_summaries (user_id, week_start, avg_energy, avg_hunger, avg_sleep, avg_stress, avg_cravings, avg_adherence, avg_recovery, days_tracked, computed_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		 ON CONFLICT (user_id, week_start) DO UPDATE SET
		   avg_energy = EXCLUDED.avg_energy,
		   avg_hunger = EXCLUDED.avg_hunger,
		   avg_sleep = EXCLUDED.avg_sleep,
		   avg_stress = EXCLUDED.avg_stress,
		   avg_cravings = EXCLUDED.avg_cravings,
		   avg_adherence = EXCLUDED.avg_adherence,
		   avg_recovery = EXCLUDED.avg_recovery,
		   days_tracked = EXCLUDED.days_tracked,
		   computed_at = EXCLUDED.computed_at
		 RETURNING `+summaryColumns,
		s.UserID, s.WeekStart, s.AvgEnergy, s.AvgHunger, s.AvgSleep, s.AvgStress,
		s.AvgCravings, s.AvgAdherence, s.AvgRecovery, s.DaysTracked, s.ComputedAt,
	)
	return scanSummary(row)
}

// GetWeeklySummary returns the summary for (userID, weekStart), or nil if none exists.
func (d *DB) GetWeeklySummary(ctx context.Context, userID int64, weekStart string) (*domain.WeeklyWellnessSummary, error) {
	row := d.sql.QueryRowContext(ctx,
		"SELECT "+summaryColumns+" FROM weekly_wellness_summaries WHERE user_id = $1 AND week_start = $2",
		userID, weekStart,
	)
	s, err := scanSummary(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return s, err
}

func scanSummary(row rowScanner) (*domain.WeeklyWellnessSummary, error) {
	var s domain.WeeklyWellnessSummary
	err := row.Scan(&s.ID, &s.UserID, &s.WeekStart, &s.AvgEnergy, &s.AvgHunger,
		&s.AvgSleep, &s.AvgStress, &s.AvgCravings, &s.AvgAdherence, &s.AvgRecovery,
		&s.DaysTracked, &s.ComputedAt)
	if err != nil {
		return nil, err
	}
	return &s, nil
}
