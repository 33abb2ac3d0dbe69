package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"autoreg/internal/domain"
)

const mesocycleColumns = "id, user_id, name, current_week, total_weeks, is_active, is_paused, pause_reason, paused_at, pre_illness_week, illness_adjustments, recovery_tracking_started, created_at"

// CreateMesocycle inserts a new active mesocycle starting at week 1.
func (d *DB) CreateMesocycle(ctx context.Context, userID int64, name string, totalWeeks int) (*domain.Mesocycle, error) {
	row := d.sql.QueryRowContext(ctx,
		`INSERT INTO mesocycles (user_id, name, current_week, total_weeks, is_active, is_paused, created_at)
		 VALUES ($1, $2, 1, $3, TRUE, FALSE, $4)
		 RETURNING `+mesocycleColumns,
		userID, name, totalWeeks, time.Now().UTC(),
	)
	return scanMesocycle(row)
}

// GetActiveMesocycle returns the user's active unpaused mesocycle, or nil.
func (d *DB) GetActiveMesocycle(ctx context.Context, userID int64) (*domain.Mesocycle, error) {
	row := d.sql.QueryRowContext(ctx,
		"SELECT "+mesocycleColumns+" FROM mesocycles WHERE user_id = $1 AND is_active AND NOT is_paused ORDER BY created_at DESC LIMIT 1",
		userID,
	)
	m, err := scanMesocycle(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return m, err
}

// GetPausedMesocycle returns the user's active paused mesocycle, or nil.
func (d *DB) GetPausedMesocycle(ctx context.Context, userID int64) (*domain.Mesocycle, error) {
	row := d.sql.QueryRowContext(ctx,
		"SELECT "+mesocycleColumns+" FROM mesocycles WHERE user_id = $1 AND is_active AND is_paused ORDER BY created_at DESC LIMIT 1",
		userID,
	)
	m, err := scanMesocycle(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return m, err
}

// PauseForIllness locks the active unpaused mesocycle and transitions it
// to the paused state in one transaction. The row lock makes concurrent
// pause attempts serialize; the loser sees no unpaused row and gets
// (nil, nil).
func (d *DB) PauseForIllness(ctx context.Context, userID int64, adj domain.IllnessAdjustments, now time.Time) (*domain.Mesocycle, error) {
	tx, err := d.sql.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	var id int64
	err = tx.QueryRowContext(ctx,
		"SELECT id FROM mesocycles WHERE user_id = $1 AND is_active AND NOT is_paused ORDER BY created_at DESC LIMIT 1 FOR UPDATE",
		userID,
	).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	blob, err := json.Marshal(adj)
	if err != nil {
		return nil, fmt.Errorf("marshal illness adjustments: %w", err)
	}

	row := tx.QueryRowContext(ctx,
		`UPDATE mesocycles SET
		   is_paused = TRUE,
		   pause_reason = $2,
		   paused_at = $3,
		   pre_illness_week = current_week,
		   illness_adjustments = $4,
		   recovery_tracking_started = $3
		 WHERE id = $1
		 RETURNING `+mesocycleColumns,
		id, "illness", now.UTC(), blob,
	)
	m, err := scanMesocycle(row)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return m, nil
}

// Resume clears the pause state of the mesocycle and sets its current
// week. Returns (nil, nil) when the mesocycle is no longer paused.
func (d *DB) Resume(ctx context.Context, userID int64, mesocycleID int64, currentWeek int) (*domain.Mesocycle, error) {
	row := d.sql.QueryRowContext(ctx,
		`UPDATE mesocycles SET
		   is_paused = FALSE,
		   pause_reason = NULL,
		   paused_at = NULL,
		   pre_illness_week = NULL,
		   illness_adjustments = NULL,
		   recovery_tracking_started = NULL,
		   current_week = $3
		 WHERE id = $1 AND user_id = $2 AND is_paused
		 RETURNING `+mesocycleColumns,
		mesocycleID, userID, currentWeek,
	)
	m, err := scanMesocycle(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return m, err
}

func scanMesocycle(row rowScanner) (*domain.Mesocycle, error) {
	var m domain.Mesocycle
	var blob []byte
	err := row.Scan(&m.ID, &m.UserID, &m.Name, &m.CurrentWeek, &m.TotalWeeks,
		&m.IsActive, &m.IsPaused, &m.PauseReason, &m.PausedAt, &m.PreIllnessWeek,
		&blob, &m.RecoveryTrackingStarted, &m.CreatedAt)
	if err != nil {
		return nil, err
	}
	if len(blob) > 0 {
		var adj domain.IllnessAdjustments
		if err := json.Unmarshal(blob, &adj); err != nil {
			return nil, fmt.Errorf("unmarshal illness adjustments: %w", err)
		}
		m.IllnessAdjustments = &adj
	}
	return &m, nil
}
