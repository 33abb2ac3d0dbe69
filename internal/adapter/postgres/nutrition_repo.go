package postgres

import (
	"context"
	"database/sql"
	"errors"

	"autoreg/internal/domain"
)

// ListNutritionLogsInRange returns logged entries for days in [from, to],
// ordered by day ascending.
func (d *DB) ListNutritionLogsInRange(ctx context.Context, userID int64, from, to string) ([]domain.NutritionLog, error) {
	rows, err := d.sql.QueryContext(ctx,
		"SELECT id, user_id, day, calories, protein, carbs, fat, logged_at FROM nutrition_logs WHERE user_id = $1 AND day >= $2 AND day <= $3 ORDER BY day ASC, id ASC",
		userID, from, to,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.NutritionLog
	for rows.Next() {
		var l domain.NutritionLog
		if err := rows.Scan(&l.ID, &l.UserID, &l.Day, &l.Calories, &l.Protein, &l.Carbs, &l.Fat, &l.LoggedAt); err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

// LatestWeightInRange returns the most recent body-weight sample for
// days in [from, to], or nil if none exists.
func (d *DB) LatestWeightInRange(ctx context.Context, userID int64, from, to string) (*domain.BodyMetric, error) {
	var m domain.BodyMetric
	err := d.sql.QueryRowContext(ctx,
		"SELECT id, user_id, day, weight, unit, recorded_at FROM body_metrics WHERE user_id = $1 AND day >= $2 AND day <= $3 ORDER BY day DESC, recorded_at DESC LIMIT 1",
		userID, from, to,
	).Scan(&m.ID, &m.UserID, &m.Day, &m.Weight, &m.Unit, &m.RecordedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}
