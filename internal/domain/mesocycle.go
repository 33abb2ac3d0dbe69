package domain

import (
	"context"
	"time"
)

// IllnessAdjustments records why and how a mesocycle was paused for
// illness. It is serialized to JSON only at the storage boundary.
type IllnessAdjustments struct {
	Severity       int       `json:"severity"`
	Type           string    `json:"type"`
	AutoDetected   bool      `json:"autoDetected"`
	Confidence     float64   `json:"confidence"`
	Triggers       []string  `json:"triggers"`
	PausedAt       time.Time `json:"pausedAt"`
	ExpectedDeload bool      `json:"expectedDeload"`
}

// Mesocycle is a multi-week training block. At most one mesocycle per
// user may be active and unpaused at a time; that row is the one the
// auto-regulation engine acts on.
type Mesocycle struct {
	ID                      int64               `json:"id"`
	UserID                  int64               `json:"userId"`
	Name                    string              `json:"name"`
	CurrentWeek             int                 `json:"currentWeek"`
	TotalWeeks              int                 `json:"totalWeeks"`
	IsActive                bool                `json:"isActive"`
	IsPaused                bool                `json:"isPaused"`
	PauseReason             *string             `json:"pauseReason,omitempty"`
	PausedAt                *time.Time          `json:"pausedAt,omitempty"`
	PreIllnessWeek          *int                `json:"preIllnessWeek,omitempty"`
	IllnessAdjustments      *IllnessAdjustments `json:"illnessAdjustments,omitempty"`
	RecoveryTrackingStarted *time.Time          `json:"recoveryTrackingStarted,omitempty"`
	CreatedAt               time.Time           `json:"createdAt"`
}

// MesocycleRepository is the port for mesocycle persistence.
type MesocycleRepository interface {
	CreateMesocycle(ctx context.Context, userID int64, name string, totalWeeks int) (*Mesocycle, error)
	// GetActiveMesocycle returns the user's active unpaused mesocycle, or
	// nil if there is none.
	GetActiveMesocycle(ctx context.Context, userID int64) (*Mesocycle, error)
	// GetPausedMesocycle returns the user's active paused mesocycle, or
	// nil if there is none.
	GetPausedMesocycle(ctx context.Context, userID int64) (*Mesocycle, error)
	// PauseForIllness atomically checks for an active unpaused mesocycle
	// and transitions it to the paused state. Returns (nil, nil) when no
	// such mesocycle exists, so concurrent pause attempts cannot both
	// succeed.
	PauseForIllness(ctx context.Context, userID int64, adj IllnessAdjustments, now time.Time) (*Mesocycle, error)
	// Resume clears the pause state of the mesocycle and sets its current
	// week. Returns (nil, nil) when the mesocycle is not paused.
	Resume(ctx context.Context, userID int64, mesocycleID int64, currentWeek int) (*Mesocycle, error)
}
