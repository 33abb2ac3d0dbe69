package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"autoreg/internal/domain"
)

const checkinColumns = "id, user_id, day, energy_level, hunger_level, sleep_quality, stress_level, cravings_intensity, adherence_perception, recovery_readiness, illness_status, illness_severity, illness_type, notes, created_at"

// UpsertCheckin inserts or fully replaces the check-in for (userID, day).
// Optional columns omitted from data overwrite stored values with NULL.
func (d *DB) UpsertCheckin(ctx context.Context, userID int64, day string, data domain.CheckinData) (*domain.WellnessCheckin, error) {
	row := d.sql.QueryRowContext(ctx,
		`INSERT INTO wellness_checkins (user_id, day, energy_level, hunger_level, sleep_quality, stress_level, cravings_intensity, adherence_perception, recovery_readiness, illness_status, illness_severity, illness_type, notes, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		 ON CONFLICT (user_id, day) DO UPDATE SET
		   energy_level = EXCLUDED.energy_level,
		   hunger_level = EXCLUDED.hunger_level,
		   sleep_quality = EXCLUDED.sleep_quality,
		   stress_level = EXCLUDED.stress_level,
		   cravings_intensity = EXCLUDED.cravings_intensity,
		   adherence_perception = EXCLUDED.adherence_perception,
		   recovery_readiness = EXCLUDED.recovery_readiness,
		   illness_status = EXCLUDED.illness_status,
		   illness_severity = EXCLUDED.illness_severity,
		   illness_type = EXCLUDED.illness_type,
		   notes = EXCLUDED.notes
		 RETURNING `+checkinColumns,
		userID, day, data.EnergyLevel, data.HungerLevel, data.SleepQuality, data.StressLevel,
		data.CravingsIntensity, data.AdherencePerception, data.RecoveryReadiness,
		data.IllnessStatus, data.IllnessSeverity, data.IllnessType, data.Notes, time.Now().UTC(),
	)
	return scanCheckin(row)
}

// GetCheckin returns the check-in for (userID, day), or nil if none exists.
func (d *DB) GetCheckin(ctx context.Context, userID int64, day string) (*domain.WellnessCheckin, error) {
	row := d.sql.QueryRowContext(ctx,
		"SELECT "+checkinColumns+" FROM wellness_checkins WHERE user_id = $1 AND day = $2",
		userID, day,
	)
	c, err := scanCheckin(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return c, err
}

// ListCheckinsInRange returns check-ins for days in [from, to], ordered by day ascending.
func (d *DB) ListCheckinsInRange(ctx context.Context, userID int64, from, to string) ([]domain.WellnessCheckin, error) {
	rows, err := d.sql.QueryContext(ctx,
		"SELECT "+checkinColumns+" FROM wellness_checkins WHERE user_id = $1 AND day >= $2 AND day <= $3 ORDER BY day ASC",
		userID, from, to,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.WellnessCheckin
	for rows.Next() {
		c, err := scanCheckin(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *c)
	}
	return out, rows.Err()
}

// CountCheckins returns the total number of check-ins for the user.
func (d *DB) CountCheckins(ctx context.Context, userID int64) (int, error) {
	var count int
	err := d.sql.QueryRowContext(ctx, "SELECT COUNT(*) FROM wellness_checkins WHERE user_id = $1", userID).Scan(&count)
	return count, err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCheckin(row rowScanner) (*domain.WellnessCheckin, error) {
	var c domain.WellnessCheckin
	err := row.Scan(&c.ID, &c.UserID, &c.Day, &c.EnergyLevel, &c.HungerLevel,
		&c.SleepQuality, &c.StressLevel, &c.CravingsIntensity, &c.AdherencePerception,
		&c.RecoveryReadiness, &c.IllnessStatus, &c.IllnessSeverity, &c.IllnessType,
		&c.Notes, &c.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &c, nil
}
