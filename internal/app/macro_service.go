package app

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"autoreg/internal/domain"
)

// ErrNoDietGoal indicates the user has never set a diet goal.
var ErrNoDietGoal = errors.New("no diet goal found")

// Adjustment reasons.
const (
	ReasonLowAdherence = "low_adherence"
	ReasonStandard     = "standard_adjustment"
	ReasonHighHunger   = "high_hunger_adjustment"
	ReasonPoorSleep    = "poor_sleep_adjustment"
	ReasonHighStress   = "high_stress_adjustment"
)

// Weekly recommendations emitted by the read-time projection.
const (
	RecommendIncreaseCalories = "increase_calories"
	RecommendDecreaseCalories = "decrease_calories"
	RecommendImproveAdherence = "improve_adherence"
	RecommendMaintain         = "maintain"
)

// MacroTargets is one set of daily calorie/macro targets.
type MacroTargets struct {
	Calories float64 `json:"calories"`
	Protein  float64 `json:"protein"`
	Carbs    float64 `json:"carbs"`
	Fat      float64 `json:"fat"`
}

// RPAdjustment is the engine's proposed target change for the next week.
type RPAdjustment struct {
	MacroTargets
	AdjustmentPercentage float64 `json:"adjustmentPercentage"`
	Reason               string  `json:"reason"`
}

// WeeklyAdjustment is the full computation returned to the caller.
// Nothing is persisted until the caller accepts it via CreateWeeklyGoal.
type WeeklyAdjustment struct {
	WeekStart           string          `json:"weekStart"`
	AdherencePercentage float64         `json:"adherencePercentage"`
	Adjustment          RPAdjustment    `json:"adjustment"`
	CurrentGoal         domain.DietGoal `json:"currentGoal"`
	Wellness            MacroWellness   `json:"wellness"`
	WeeklyLogCount      int             `json:"weeklyLogCount"`
}

// WeightTrend compares the latest kg-normalized weights of the current
// and previous weeks.
type WeightTrend struct {
	PreviousWeight *float64 `json:"previousWeight,omitempty"`
	CurrentWeight  *float64 `json:"currentWeight,omitempty"`
	DeltaKg        float64  `json:"deltaKg"`
	Trend          string   `json:"trend"`
}

// WeeklyNutrition is one week's outcome: either the persisted record or
// a deterministic read-time projection from raw logs.
type WeeklyNutrition struct {
	WeekStart           string      `json:"weekStart"`
	DailyCalories       float64     `json:"dailyCalories"`
	Protein             float64     `json:"protein"`
	Carbs               float64     `json:"carbs"`
	Fat                 float64     `json:"fat"`
	AdherencePercentage float64     `json:"adherencePercentage"`
	Recommendation      string      `json:"recommendation"`
	WeightTrend         WeightTrend `json:"weightTrend"`
	DaysLogged          int         `json:"daysLogged"`
	Persisted           bool        `json:"persisted"`
}

// WellnessProvider supplies the weekly wellness snapshot to the macro
// engine. Satisfied by *WellnessService.
type WellnessProvider interface {
	WellnessForMacroAdjustment(ctx context.Context, userID int64, weekStart string) MacroWellness
}

// MacroService computes weekly adherence and calorie/macro adjustments.
type MacroService struct {
	goals    domain.DietGoalRepository
	weekly   domain.WeeklyGoalRepository
	logs     domain.NutritionLogRepository
	body     domain.BodyMetricsRepository
	wellness WellnessProvider
}

// NewMacroService creates a MacroService backed by the given collaborators.
func NewMacroService(goals domain.DietGoalRepository, weekly domain.WeeklyGoalRepository, logs domain.NutritionLogRepository, body domain.BodyMetricsRepository, wellness WellnessProvider) *MacroService {
	return &MacroService{goals: goals, weekly: weekly, logs: logs, body: body, wellness: wellness}
}

// CurrentGoal returns the user's most recently created diet goal.
func (s *MacroService) CurrentGoal(ctx context.Context, userID int64) (*domain.DietGoal, error) {
	g, err := s.goals.CurrentDietGoal(ctx, userID)
	if err != nil {
		return nil, err
	}
	if g == nil {
		return nil, ErrNoDietGoal
	}
	return g, nil
}

// SetGoal appends a new diet goal for the user. Goals are history, not a
// mutable singleton; the newest row becomes current.
func (s *MacroService) SetGoal(ctx context.Context, g *domain.DietGoal) (*domain.DietGoal, error) {
	if g.Goal != domain.GoalCut && g.Goal != domain.GoalBulk && g.Goal != domain.GoalMaintain {
		return nil, fmt.Errorf("goal must be %q, %q or %q", domain.GoalCut, domain.GoalBulk, domain.GoalMaintain)
	}
	if g.TargetCalories <= 0 {
		return nil, errors.New("targetCalories must be > 0")
	}
	return s.goals.CreateDietGoal(ctx, g)
}

// CalculateWeeklyAdjustment computes next week's calorie/macro targets
// for the week starting at weekStart. The in-progress day (today) and
// future days never count toward adherence.
func (s *MacroService) CalculateWeeklyAdjustment(ctx context.Context, userID int64, weekStart, today string) (*WeeklyAdjustment, error) {
	goal, err := s.CurrentGoal(ctx, userID)
	if err != nil {
		return nil, err
	}
	weekEnd, err := domain.AddDays(weekStart, 6)
	if err != nil {
		return nil, fmt.Errorf("invalid week start %q: %w", weekStart, err)
	}
	logs, err := s.logs.ListNutritionLogsInRange(ctx, userID, weekStart, weekEnd)
	if err != nil {
		return nil, err
	}

	adherence := adherenceFromLogs(logs, goal.EffectiveTargetCalories(), today)
	wellness := s.wellness.WellnessForMacroAdjustment(ctx, userID, weekStart)
	adj := calculateRPAdjustment(goal, adherence, wellness)

	return &WeeklyAdjustment{
		WeekStart:           weekStart,
		AdherencePercentage: adherence,
		Adjustment:          adj,
		CurrentGoal:         *goal,
		Wellness:            wellness,
		WeeklyLogCount:      len(logs),
	}, nil
}

// CreateWeeklyGoal persists an accepted weekly computation as the
// append-only outcome record for the week, snapshotting the wellness
// averages and the surrounding weight trend.
func (s *MacroService) CreateWeeklyGoal(ctx context.Context, userID int64, adj *WeeklyAdjustment) (*domain.WeeklyNutritionGoal, error) {
	trend, err := s.weightTrend(ctx, userID, adj.WeekStart)
	if err != nil {
		return nil, err
	}
	rec := &domain.WeeklyNutritionGoal{
		UserID:               userID,
		WeekStart:            adj.WeekStart,
		DailyCalories:        adj.Adjustment.Calories,
		Protein:              adj.Adjustment.Protein,
		Carbs:                adj.Adjustment.Carbs,
		Fat:                  adj.Adjustment.Fat,
		AdherencePercentage:  adj.AdherencePercentage,
		AdjustmentReason:     adj.Adjustment.Reason,
		AdjustmentPercentage: adj.Adjustment.AdjustmentPercentage,
		AvgEnergy:            &adj.Wellness.AvgEnergy,
		AvgHunger:            &adj.Wellness.AvgHunger,
		AvgSleep:             &adj.Wellness.AvgSleep,
		AvgStress:            &adj.Wellness.AvgStress,
		PreviousWeight:       trend.PreviousWeight,
		CurrentWeight:        trend.CurrentWeight,
		CreatedAt:            time.Now().UTC(),
	}
	return s.weekly.CreateWeeklyGoal(ctx, rec)
}

// WeeklyNutrition returns the persisted outcome record for the week, or
// a projection synthesized from raw logs when none exists. The
// projection is never stored; repeated calls recompute it from the same
// source rows.
func (s *MacroService) WeeklyNutrition(ctx context.Context, userID int64, weekStart, today string) (*WeeklyNutrition, error) {
	stored, err := s.weekly.GetWeeklyGoal(ctx, userID, weekStart)
	if err != nil {
		return nil, err
	}
	trend, err := s.weightTrend(ctx, userID, weekStart)
	if err != nil {
		return nil, err
	}
	if stored != nil {
		return &WeeklyNutrition{
			WeekStart:           stored.WeekStart,
			DailyCalories:       stored.DailyCalories,
			Protein:             stored.Protein,
			Carbs:               stored.Carbs,
			Fat:                 stored.Fat,
			AdherencePercentage: stored.AdherencePercentage,
			Recommendation:      stored.AdjustmentReason,
			WeightTrend:         trend,
			Persisted:           true,
		}, nil
	}

	goal, err := s.CurrentGoal(ctx, userID)
	if err != nil {
		return nil, err
	}
	weekEnd, err := domain.AddDays(weekStart, 6)
	if err != nil {
		return nil, fmt.Errorf("invalid week start %q: %w", weekStart, err)
	}
	logs, err := s.logs.ListNutritionLogsInRange(ctx, userID, weekStart, weekEnd)
	if err != nil {
		return nil, err
	}

	days := sumByDay(logs)
	out := &WeeklyNutrition{
		WeekStart:           weekStart,
		AdherencePercentage: adherenceFromLogs(logs, goal.EffectiveTargetCalories(), today),
		WeightTrend:         trend,
		DaysLogged:          len(days),
	}
	if len(days) > 0 {
		var cal, pro, carb, fat float64
		for _, d := range days {
			cal += d.Calories
			pro += d.Protein
			carb += d.Carbs
			fat += d.Fat
		}
		n := float64(len(days))
		out.DailyCalories = math.Round(cal / n)
		out.Protein = math.Round(pro / n)
		out.Carbs = math.Round(carb / n)
		out.Fat = math.Round(fat / n)
	}
	out.Recommendation = recommend(goal.Goal, out.AdherencePercentage, trend.Trend)
	return out, nil
}

// weightTrend compares the latest weight of the week against the latest
// weight of the previous week, both normalized to kilograms.
func (s *MacroService) weightTrend(ctx context.Context, userID int64, weekStart string) (WeightTrend, error) {
	weekEnd, err := domain.AddDays(weekStart, 6)
	if err != nil {
		return WeightTrend{}, fmt.Errorf("invalid week start %q: %w", weekStart, err)
	}
	prevStart, err := domain.AddDays(weekStart, -7)
	if err != nil {
		return WeightTrend{}, err
	}
	prevEnd, err := domain.AddDays(weekStart, -1)
	if err != nil {
		return WeightTrend{}, err
	}

	current, err := s.body.LatestWeightInRange(ctx, userID, weekStart, weekEnd)
	if err != nil {
		return WeightTrend{}, err
	}
	previous, err := s.body.LatestWeightInRange(ctx, userID, prevStart, prevEnd)
	if err != nil {
		return WeightTrend{}, err
	}

	trend := WeightTrend{Trend: "unknown"}
	if current != nil {
		kg := current.WeightKg()
		trend.CurrentWeight = &kg
	}
	if previous != nil {
		kg := previous.WeightKg()
		trend.PreviousWeight = &kg
	}
	if trend.CurrentWeight != nil && trend.PreviousWeight != nil {
		trend.DeltaKg = *trend.CurrentWeight - *trend.PreviousWeight
		switch {
		case math.Abs(trend.DeltaKg) < 0.1:
			trend.Trend = "stable"
		case trend.DeltaKg > 0:
			trend.Trend = "gaining"
		default:
			trend.Trend = "losing"
		}
	}
	return trend, nil
}

// calculateRPAdjustment applies the goal's base weekly progression plus
// wellness feedback, clamped to the goal's safe band. Branches evaluate
// in a fixed order (energy, hunger, sleep, stress); a later matching
// branch overwrites the reason string.
func calculateRPAdjustment(goal *domain.DietGoal, adherence float64, w MacroWellness) RPAdjustment {
	target := goal.EffectiveTargetCalories()
	current := MacroTargets{
		Calories: target,
		Protein:  goal.TargetProtein,
		Carbs:    goal.TargetCarbs,
		Fat:      goal.TargetFat,
	}
	if adherence < 80 {
		return RPAdjustment{MacroTargets: current, AdjustmentPercentage: 0, Reason: ReasonLowAdherence}
	}

	isCut := goal.Goal == domain.GoalCut
	isBulk := goal.Goal == domain.GoalBulk

	var base float64
	switch {
	case isCut:
		base = -3
	case isBulk:
		base = 3
	}

	var wellnessAdj float64
	reason := ReasonStandard
	if w.AvgEnergy <= 4 {
		wellnessAdj++
	}
	if w.AvgEnergy >= 8 {
		if isCut {
			wellnessAdj--
		} else if isBulk {
			wellnessAdj++
		}
	}
	if w.AvgHunger >= 8 {
		if isCut {
			wellnessAdj += 2
		} else if isBulk {
			wellnessAdj++
		}
		reason = ReasonHighHunger
	}
	if w.AvgHunger <= 3 {
		if isCut {
			wellnessAdj--
		}
	}
	if w.AvgSleep <= 4 {
		wellnessAdj++
		reason = ReasonPoorSleep
	}
	if w.AvgStress >= 8 {
		wellnessAdj++
		reason = ReasonHighStress
	}

	pct := base + wellnessAdj
	switch {
	case isCut:
		pct = clamp(pct, -8, 0)
	case isBulk:
		pct = clamp(pct, 0, 8)
	}
	// No clamp for maintain: a wellness-only shift passes through.

	newCalories := math.Round(target * (1 + pct/100))
	return RPAdjustment{
		MacroTargets: MacroTargets{
			Calories: newCalories,
			Protein:  math.Round(newCalories * goal.TargetProtein / target),
			Carbs:    math.Round(newCalories * goal.TargetCarbs / target),
			Fat:      math.Round(newCalories * goal.TargetFat / target),
		},
		AdjustmentPercentage: pct,
		Reason:               reason,
	}
}

type dayTotals struct {
	Calories float64
	Protein  float64
	Carbs    float64
	Fat      float64
}

func sumByDay(logs []domain.NutritionLog) map[string]dayTotals {
	days := make(map[string]dayTotals)
	for _, l := range logs {
		d := days[l.Day]
		d.Calories += l.Calories
		d.Protein += l.Protein
		d.Carbs += l.Carbs
		d.Fat += l.Fat
		days[l.Day] = d
	}
	return days
}

// adherenceFromLogs averages per-day closeness to the calorie target
// over completed days only (strictly before today), so an in-progress
// day never drags the score down. Returns 0 when no completed day has
// logs.
func adherenceFromLogs(logs []domain.NutritionLog, targetCalories float64, today string) float64 {
	if targetCalories <= 0 {
		return 0
	}
	days := sumByDay(logs)
	var sum float64
	var n int
	for day, totals := range days {
		if day >= today {
			continue
		}
		diff := math.Abs(totals.Calories-targetCalories) / targetCalories * 100
		sum += math.Max(0, 100-diff)
		n++
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}

func recommend(goal string, adherence float64, trend string) string {
	if adherence < 70 {
		return RecommendImproveAdherence
	}
	switch goal {
	case domain.GoalCut:
		if trend == "stable" || trend == "gaining" {
			return RecommendDecreaseCalories
		}
	case domain.GoalBulk:
		if trend == "stable" || trend == "losing" {
			return RecommendIncreaseCalories
		}
	case domain.GoalMaintain:
		if trend == "gaining" {
			return RecommendDecreaseCalories
		}
		if trend == "losing" {
			return RecommendIncreaseCalories
		}
	}
	return RecommendMaintain
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
