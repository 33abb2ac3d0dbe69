// Package app holds the application services and business logic.
package app

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"autoreg/internal/domain"
)

// ErrCheckinNotFound indicates that no check-in exists for the requested day.
var ErrCheckinNotFound = errors.New("check-in not found")

// MacroWellness is the weekly wellness snapshot consumed by the macro
// adjustment engine. All five fields are always populated: metrics that
// were never reported fall back to the neutral midpoint 5.
type MacroWellness struct {
	AvgEnergy   float64 `json:"avgEnergy"`
	AvgHunger   float64 `json:"avgHunger"`
	AvgSleep    float64 `json:"avgSleep"`
	AvgStress   float64 `json:"avgStress"`
	DaysTracked int     `json:"daysTracked"`
}

// WellnessService owns daily check-in upserts and the weekly roll-up.
type WellnessService struct {
	checkins  domain.CheckinRepository
	summaries domain.SummaryRepository
}

// NewWellnessService creates a WellnessService backed by the given repositories.
func NewWellnessService(checkins domain.CheckinRepository, summaries domain.SummaryRepository) *WellnessService {
	return &WellnessService{checkins: checkins, summaries: summaries}
}

// UpsertCheckin validates and stores the check-in for (userID, day),
// replacing every field of any existing row for that day.
func (s *WellnessService) UpsertCheckin(ctx context.Context, userID int64, day string, data domain.CheckinData) (*domain.WellnessCheckin, error) {
	if _, err := domain.ParseDay(day); err != nil {
		return nil, fmt.Errorf("invalid day %q: %w", day, err)
	}
	if err := validateCheckin(data); err != nil {
		return nil, err
	}
	return s.checkins.UpsertCheckin(ctx, userID, day, data)
}

// Checkin returns the stored check-in for (userID, day).
func (s *WellnessService) Checkin(ctx context.Context, userID int64, day string) (*domain.WellnessCheckin, error) {
	c, err := s.checkins.GetCheckin(ctx, userID, day)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, ErrCheckinNotFound
	}
	return c, nil
}

// ListCheckins returns check-ins for days in [from, to], oldest first.
func (s *WellnessService) ListCheckins(ctx context.Context, userID int64, from, to string) ([]domain.WellnessCheckin, error) {
	return s.checkins.ListCheckinsInRange(ctx, userID, from, to)
}

// ComputeWeeklyAverages recomputes the summary for the week starting at
// weekStart from the raw check-ins. Returns nil when the week has no
// check-ins. Each metric is averaged only over the check-ins that carry
// it, so different metrics can have different denominators; DaysTracked
// is the metric-independent row count.
func (s *WellnessService) ComputeWeeklyAverages(ctx context.Context, userID int64, weekStart string) (*domain.WeeklyWellnessSummary, error) {
	weekEnd, err := domain.AddDays(weekStart, 6)
	if err != nil {
		return nil, fmt.Errorf("invalid week start %q: %w", weekStart, err)
	}
	rows, err := s.checkins.ListCheckinsInRange(ctx, userID, weekStart, weekEnd)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}

	sum := &domain.WeeklyWellnessSummary{
		UserID:      userID,
		WeekStart:   weekStart,
		DaysTracked: len(rows),
		ComputedAt:  time.Now().UTC(),
	}

	var energy, hunger []int
	var sleep, stress, cravings, adherence, recovery []int
	for _, c := range rows {
		energy = append(energy, c.EnergyLevel)
		hunger = append(hunger, c.HungerLevel)
		sleep = appendPresent(sleep, c.SleepQuality)
		stress = appendPresent(stress, c.StressLevel)
		cravings = appendPresent(cravings, c.CravingsIntensity)
		adherence = appendPresent(adherence, c.AdherencePerception)
		recovery = appendPresent(recovery, c.RecoveryReadiness)
	}
	sum.AvgEnergy = avgRounded(energy)
	sum.AvgHunger = avgRounded(hunger)
	sum.AvgSleep = avgRounded(sleep)
	sum.AvgStress = avgRounded(stress)
	sum.AvgCravings = avgRounded(cravings)
	sum.AvgAdherence = avgRounded(adherence)
	sum.AvgRecovery = avgRounded(recovery)
	return sum, nil
}

// UpsertWeeklySummary recomputes and stores the summary for the week.
// Recomputing from unchanged check-ins stores identical values, so the
// call is idempotent. Returns nil when the week has no check-ins.
func (s *WellnessService) UpsertWeeklySummary(ctx context.Context, userID int64, weekStart string) (*domain.WeeklyWellnessSummary, error) {
	sum, err := s.ComputeWeeklyAverages(ctx, userID, weekStart)
	if err != nil || sum == nil {
		return nil, err
	}
	return s.summaries.UpsertWeeklySummary(ctx, sum)
}

// WellnessForMacroAdjustment returns the weekly wellness snapshot the
// macro engine consumes: the stored summary when present, otherwise a
// freshly computed and stored one, otherwise the cold-start default.
// It always returns all five fields; storage failures degrade to the
// cold-start default rather than propagating.
func (s *WellnessService) WellnessForMacroAdjustment(ctx context.Context, userID int64, weekStart string) MacroWellness {
	sum, err := s.summaries.GetWeeklySummary(ctx, userID, weekStart)
	if err == nil && sum == nil {
		sum, err = s.UpsertWeeklySummary(ctx, userID, weekStart)
	}
	if err != nil || sum == nil {
		return MacroWellness{AvgEnergy: 5, AvgHunger: 5, AvgSleep: 5, AvgStress: 5, DaysTracked: 0}
	}
	return MacroWellness{
		AvgEnergy:   orNeutral(sum.AvgEnergy),
		AvgHunger:   orNeutral(sum.AvgHunger),
		AvgSleep:    orNeutral(sum.AvgSleep),
		AvgStress:   orNeutral(sum.AvgStress),
		DaysTracked: sum.DaysTracked,
	}
}

func validateCheckin(data domain.CheckinData) error {
	if data.EnergyLevel < 1 || data.EnergyLevel > 10 {
		return errors.New("energyLevel must be between 1 and 10")
	}
	if data.HungerLevel < 1 || data.HungerLevel > 10 {
		return errors.New("hungerLevel must be between 1 and 10")
	}
	optional := map[string]*int{
		"sleepQuality":        data.SleepQuality,
		"stressLevel":         data.StressLevel,
		"cravingsIntensity":   data.CravingsIntensity,
		"adherencePerception": data.AdherencePerception,
		"recoveryReadiness":   data.RecoveryReadiness,
	}
	for name, v := range optional {
		if v != nil && (*v < 1 || *v > 10) {
			return fmt.Errorf("%s must be between 1 and 10", name)
		}
	}
	if data.IllnessSeverity != nil && (*data.IllnessSeverity < 1 || *data.IllnessSeverity > 5) {
		return errors.New("illnessSeverity must be between 1 and 5")
	}
	return nil
}

func appendPresent(dst []int, v *int) []int {
	if v != nil {
		dst = append(dst, *v)
	}
	return dst
}

// avgRounded returns the mean rounded to one decimal, or nil for an
// empty slice.
func avgRounded(vals []int) *float64 {
	if len(vals) == 0 {
		return nil
	}
	var sum int
	for _, v := range vals {
		sum += v
	}
	avg := math.Round(float64(sum)/float64(len(vals))*10) / 10
	return &avg
}

func orNeutral(v *float64) float64 {
	if v == nil {
		return 5
	}
	return *v
}
