package domain

import (
	"context"
	"time"
)

// NutritionLog is one logged food entry. Rows are written by the
// nutrition-log collaborator; this core only reads them.
type NutritionLog struct {
	ID       int64     `json:"id"`
	UserID   int64     `json:"userId"`
	Day      string    `json:"day"`
	Calories float64   `json:"calories"`
	Protein  float64   `json:"protein"`
	Carbs    float64   `json:"carbs"`
	Fat      float64   `json:"fat"`
	LoggedAt time.Time `json:"loggedAt"`
}

// BodyMetric is one dated body-weight sample with its recorded unit.
// Rows are written by the body-weight collaborator; this core only
// reads them.
type BodyMetric struct {
	ID         int64     `json:"id"`
	UserID     int64     `json:"userId"`
	Day        string    `json:"day"`
	Weight     float64   `json:"weight"`
	Unit       string    `json:"unit"`
	RecordedAt time.Time `json:"recordedAt"`
}

// WeightKg returns the sample normalized to kilograms.
func (m *BodyMetric) WeightKg() float64 {
	return ConvertWeight(m.Weight, m.Unit, "kg")
}

// NutritionLogRepository is the read-only port for logged food entries.
type NutritionLogRepository interface {
	// ListNutritionLogsInRange returns entries for days in [from, to],
	// ordered by day ascending.
	ListNutritionLogsInRange(ctx context.Context, userID int64, from, to string) ([]NutritionLog, error)
}

// BodyMetricsRepository is the read-only port for body-weight samples.
type BodyMetricsRepository interface {
	// LatestWeightInRange returns the most recent sample for days in
	// [from, to], or nil if none exists.
	LatestWeightInRange(ctx context.Context, userID int64, from, to string) (*BodyMetric, error)
}
