// Package domain contains the core business entities and interfaces.
package domain

import (
	"context"
	"time"
)

// WellnessCheckin is a user's self-report for one local calendar day.
// Energy and hunger are required; everything else is optional.
type WellnessCheckin struct {
	ID                  int64     `json:"id"`
	UserID              int64     `json:"userId"`
	Day                 string    `json:"day"`
	EnergyLevel         int       `json:"energyLevel"`
	HungerLevel         int       `json:"hungerLevel"`
	SleepQuality        *int      `json:"sleepQuality,omitempty"`
	StressLevel         *int      `json:"stressLevel,omitempty"`
	CravingsIntensity   *int      `json:"cravingsIntensity,omitempty"`
	AdherencePerception *int      `json:"adherencePerception,omitempty"`
	RecoveryReadiness   *int      `json:"recoveryReadiness,omitempty"`
	IllnessStatus       *bool     `json:"illnessStatus,omitempty"`
	IllnessSeverity     *int      `json:"illnessSeverity,omitempty"`
	IllnessType         *string   `json:"illnessType,omitempty"`
	Notes               *string   `json:"notes,omitempty"`
	CreatedAt           time.Time `json:"createdAt"`
}

// CheckinData is the caller-supplied portion of a check-in. An upsert
// replaces the whole stored row with these values, so omitted optional
// fields clear any previously stored ones.
type CheckinData struct {
	EnergyLevel         int     `json:"energyLevel"`
	HungerLevel         int     `json:"hungerLevel"`
	SleepQuality        *int    `json:"sleepQuality,omitempty"`
	StressLevel         *int    `json:"stressLevel,omitempty"`
	CravingsIntensity   *int    `json:"cravingsIntensity,omitempty"`
	AdherencePerception *int    `json:"adherencePerception,omitempty"`
	RecoveryReadiness   *int    `json:"recoveryReadiness,omitempty"`
	IllnessStatus       *bool   `json:"illnessStatus,omitempty"`
	IllnessSeverity     *int    `json:"illnessSeverity,omitempty"`
	IllnessType         *string `json:"illnessType,omitempty"`
	Notes               *string `json:"notes,omitempty"`
}

// WeeklyWellnessSummary is the cached roll-up of one week's check-ins.
// A nil average means the metric was never reported that week.
// DaysTracked counts check-in rows, independent of which metrics they carry.
type WeeklyWellnessSummary struct {
	ID           int64     `json:"id"`
	UserID       int64     `json:"userId"`
	WeekStart    string    `json:"weekStart"`
	AvgEnergy    *float64  `json:"avgEnergy,omitempty"`
	AvgHunger    *float64  `json:"avgHunger,omitempty"`
	AvgSleep     *float64  `json:"avgSleep,omitempty"`
	AvgStress    *float64  `json:"avgStress,omitempty"`
	AvgCravings  *float64  `json:"avgCravings,omitempty"`
	AvgAdherence *float64  `json:"avgAdherence,omitempty"`
	AvgRecovery  *float64  `json:"avgRecovery,omitempty"`
	DaysTracked  int       `json:"daysTracked"`
	ComputedAt   time.Time `json:"computedAt"`
}

// CheckinRepository is the port for check-in persistence.
type CheckinRepository interface {
	// UpsertCheckin atomically inserts or fully replaces the row keyed by
	// (userID, day) and returns the stored record.
	UpsertCheckin(ctx context.Context, userID int64, day string, data CheckinData) (*WellnessCheckin, error)
	GetCheckin(ctx context.Context, userID int64, day string) (*WellnessCheckin, error)
	// ListCheckinsInRange returns check-ins for days in [from, to],
	// ordered by day ascending.
	ListCheckinsInRange(ctx context.Context, userID int64, from, to string) ([]WellnessCheckin, error)
	CountCheckins(ctx context.Context, userID int64) (int, error)
}

// SummaryRepository is the port for weekly summary persistence.
type SummaryRepository interface {
	// UpsertWeeklySummary atomically inserts or replaces the summary keyed
	// by (userID, weekStart).
	UpsertWeeklySummary(ctx context.Context, s *WeeklyWellnessSummary) (*WeeklyWellnessSummary, error)
	GetWeeklySummary(ctx context.Context, userID int64, weekStart string) (*WeeklyWellnessSummary, error)
}
