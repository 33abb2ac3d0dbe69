package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"autoreg/internal/domain"
)

const dietGoalColumns = "id, user_id, goal, tdee, target_calories, custom_target_calories, use_custom_calories, target_protein, target_carbs, target_fat, auto_regulation, weekly_weight_target, created_at"

// CreateDietGoal appends a new diet goal row. Goals are history; the
// newest row becomes the current goal.
func (d *DB) CreateDietGoal(ctx context.Context, g *domain.DietGoal) (*domain.DietGoal, error) {
	row := d.sql.QueryRowContext(ctx,
		`INSERT INTO diet_goals (user_id, goal, tdee, target_calories, custom_target_calories, use_custom_calories, target_protein, target_carbs, target_fat, auto_regulation, weekly_weight_target, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		 RETURNING `+dietGoalColumns,
		g.UserID, g.Goal, g.TDEE, g.TargetCalories, g.CustomTargetCalories,
		g.UseCustomCalories, g.TargetProtein, g.TargetCarbs, g.TargetFat,
		g.AutoRegulation, g.WeeklyWeightTarget, time.Now().UTC(),
	)
	return scanDietGoal(row)
}

// CurrentDietGoal returns the user's most recently created goal, or nil.
func (d *DB) CurrentDietGoal(ctx context.Context, userID int64) (*domain.DietGoal, error) {
	row := d.sql.QueryRowContext(ctx,
		"SELECT "+dietGoalColumns+" FROM diet_goals WHERE user_id = $1 ORDER BY created_at DESC, id DESC LIMIT 1",
		userID,
	)
	g, err := scanDietGoal(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return g, err
}

func scanDietGoal(row rowScanner) (*domain.DietGoal, error) {
	var g domain.DietGoal
	err := row.Scan(&g.ID, &g.UserID, &g.Goal, &g.TDEE, &g.TargetCalories,
		&g.CustomTargetCalories, &g.UseCustomCalories, &g.TargetProtein,
		&g.TargetCarbs, &g.TargetFat, &g.AutoRegulation, &g.WeeklyWeightTarget,
		&g.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &g, nil
}

const weeklyGoalColumns = "id, user_id, week_start, daily_calories, protein, carbs, fat, adherence_percentage, adjustment_reason, adjustment_percentage, avg_energy, avg_hunger, avg_sleep, avg_stress, previous_weight, current_weight, created_at"

// CreateWeeklyGoal appends one week's accepted outcome record.
func (d *DB) CreateWeeklyGoal(ctx context.Context, g *domain.WeeklyNutritionGoal) (*domain.WeeklyNutritionGoal, error) {
	row := d.sql.QueryRowContext(ctx,
		`INSERT INTO weekly_nutrition_goals (user_id, week_start, daily_calories, protein, carbs, fat, adherence_percentage, adjustment_reason, adjustment_percentage, avg_energy, avg_hunger, avg_sleep, avg_stress, previous_weight, current_weight, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
		 RETURNING `+weeklyGoalColumns,
		g.UserID, g.WeekStart, g.DailyCalories, g.Protein, g.Carbs, g.Fat,
		g.AdherencePercentage, g.AdjustmentReason, g.AdjustmentPercentage,
		g.AvgEnergy, g.AvgHunger, g.AvgSleep, g.AvgStress,
		g.PreviousWeight, g.CurrentWeight, g.CreatedAt.UTC(),
	)
	return scanWeeklyGoal(row)
}

// GetWeeklyGoal returns the most recently created record for the week,
// or nil if none exists.
func (d *DB) GetWeeklyGoal(ctx context.Context, userID int64, weekStart string) (*domain.WeeklyNutritionGoal, error) {
	row := d.sql.QueryRowContext(ctx,
		"SELECT "+weeklyGoalColumns+" FROM weekly_nutrition_goals WHERE user_id = $1 AND week_start = $2 ORDER BY created_at DESC, id DESC LIMIT 1",
		userID, weekStart,
	)
	g, err := scanWeeklyGoal(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return g, err
}

func scanWeeklyGoal(row rowScanner) (*domain.WeeklyNutritionGoal, error) {
	var g domain.WeeklyNutritionGoal
	err := row.Scan(&g.ID, &g.UserID, &g.WeekStart, &g.DailyCalories, &g.Protein,
		&g.Carbs, &g.Fat, &g.AdherencePercentage, &g.AdjustmentReason,
		&g.AdjustmentPercentage, &g.AvgEnergy, &g.AvgHunger, &g.AvgSleep,
		&g.AvgStress, &g.PreviousWeight, &g.CurrentWeight, &g.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &g, nil
}
