package domain

import (
	"context"
	"time"
)

// Diet goal types.
const (
	GoalCut      = "cut"
	GoalBulk     = "bulk"
	GoalMaintain = "maintain"
)

// DietGoal is a user's calorie/macro target. Goals are append-only
// history; the most recently created row is the current one.
type DietGoal struct {
	ID                   int64     `json:"id"`
	UserID               int64     `json:"userId"`
	Goal                 string    `json:"goal"`
	TDEE                 float64   `json:"tdee"`
	TargetCalories       float64   `json:"targetCalories"`
	CustomTargetCalories *float64  `json:"customTargetCalories,omitempty"`
	UseCustomCalories    bool      `json:"useCustomCalories"`
	TargetProtein        float64   `json:"targetProtein"`
	TargetCarbs          float64   `json:"targetCarbs"`
	TargetFat            float64   `json:"targetFat"`
	AutoRegulation       bool      `json:"autoRegulation"`
	WeeklyWeightTarget   float64   `json:"weeklyWeightTarget"`
	CreatedAt            time.Time `json:"createdAt"`
}

// EffectiveTargetCalories returns the calorie target the engine adjusts
// from, honoring a custom override when one is set.
func (g *DietGoal) EffectiveTargetCalories() float64 {
	if g.UseCustomCalories && g.CustomTargetCalories != nil && *g.CustomTargetCalories > 0 {
		return *g.CustomTargetCalories
	}
	return g.TargetCalories
}

// WeeklyNutritionGoal is the append-only record of one week's outcome:
// the targets that resulted, how the week went, and why the engine moved
// (or didn't move) the numbers.
type WeeklyNutritionGoal struct {
	ID                   int64     `json:"id"`
	UserID               int64     `json:"userId"`
	WeekStart            string    `json:"weekStart"`
	DailyCalories        float64   `json:"dailyCalories"`
	Protein              float64   `json:"protein"`
	Carbs                float64   `json:"carbs"`
	Fat                  float64   `json:"fat"`
	AdherencePercentage  float64   `json:"adherencePercentage"`
	AdjustmentReason     string    `json:"adjustmentReason"`
	AdjustmentPercentage float64   `json:"adjustmentPercentage"`
	AvgEnergy            *float64  `json:"avgEnergy,omitempty"`
	AvgHunger            *float64  `json:"avgHunger,omitempty"`
	AvgSleep             *float64  `json:"avgSleep,omitempty"`
	AvgStress            *float64  `json:"avgStress,omitempty"`
	PreviousWeight       *float64  `json:"previousWeight,omitempty"`
	CurrentWeight        *float64  `json:"currentWeight,omitempty"`
	CreatedAt            time.Time `json:"createdAt"`
}

// DietGoalRepository is the port for diet-goal persistence.
type DietGoalRepository interface {
	CreateDietGoal(ctx context.Context, g *DietGoal) (*DietGoal, error)
	// CurrentDietGoal returns the most recently created goal for the
	// user, or nil if the user has never set one.
	CurrentDietGoal(ctx context.Context, userID int64) (*DietGoal, error)
}

// WeeklyGoalRepository is the port for weekly outcome records.
type WeeklyGoalRepository interface {
	CreateWeeklyGoal(ctx context.Context, g *WeeklyNutritionGoal) (*WeeklyNutritionGoal, error)
	GetWeeklyGoal(ctx context.Context, userID int64, weekStart string) (*WeeklyNutritionGoal, error)
}
