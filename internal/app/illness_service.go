package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"autoreg/internal/domain"
)

var (
	// ErrNoActiveMesocycle indicates there is no active unpaused mesocycle to pause.
	ErrNoActiveMesocycle = errors.New("no active mesocycle found to pause")
	// ErrNoPausedMesocycle indicates there is no illness-paused mesocycle to resume.
	ErrNoPausedMesocycle = errors.New("no illness-paused mesocycle found")
)

// PauseReasonIllness is the pause reason set by the illness state machine.
const PauseReasonIllness = "illness"

// Trigger weights for the illness confidence score.
const (
	weightEnergyDrop        = 0.30
	weightSleepDisruption   = 0.25
	weightStressPeak        = 0.20
	weightConsistentDecline = 0.35
	lowReadingsBonus        = 0.15
	detectionThreshold      = 0.6
)

// IllnessDetection is the outcome of scanning the trailing week of
// check-ins for illness signals.
type IllnessDetection struct {
	IsDetected   bool     `json:"isDetected"`
	Confidence   float64  `json:"confidence"`
	AutoDetected bool     `json:"autoDetected"`
	Severity     int      `json:"severity"`
	Type         string   `json:"type"`
	Triggers     []string `json:"triggers"`
}

// RecoveryEvaluation reports whether a user paused for illness is ready
// to resume training.
type RecoveryEvaluation struct {
	IsReadyToResume bool     `json:"isReadyToResume"`
	RecoveryScore   int      `json:"recoveryScore"`
	DaysInRecovery  int      `json:"daysInRecovery"`
	Recommendations []string `json:"recommendations"`
}

// IllnessService detects likely illness from wellness check-ins and
// drives the mesocycle pause/resume state machine.
type IllnessService struct {
	checkins   domain.CheckinRepository
	mesocycles domain.MesocycleRepository
}

// NewIllnessService creates an IllnessService backed by the given repositories.
func NewIllnessService(checkins domain.CheckinRepository, mesocycles domain.MesocycleRepository) *IllnessService {
	return &IllnessService{checkins: checkins, mesocycles: mesocycles}
}

// DetectIllnessTriggers scans the trailing 7 days of check-ins ending at
// today. A manual illness report short-circuits with full confidence;
// otherwise four trend triggers are scored and combined.
func (s *IllnessService) DetectIllnessTriggers(ctx context.Context, userID int64, today string) (*IllnessDetection, error) {
	from, err := domain.AddDays(today, -6)
	if err != nil {
		return nil, fmt.Errorf("invalid day %q: %w", today, err)
	}
	rows, err := s.checkins.ListCheckinsInRange(ctx, userID, from, today)
	if err != nil {
		return nil, err
	}
	if len(rows) < 3 {
		return &IllnessDetection{IsDetected: false, Type: "insufficient_data"}, nil
	}

	// Most recent manual report wins over trend analysis.
	for i := len(rows) - 1; i >= 0; i-- {
		c := rows[i]
		if c.IllnessStatus != nil && *c.IllnessStatus {
			det := &IllnessDetection{
				IsDetected:   true,
				Confidence:   1.0,
				AutoDetected: false,
				Severity:     3,
				Type:         "reported",
				Triggers:     []string{"illness reported in daily check-in"},
			}
			if c.IllnessSeverity != nil {
				det.Severity = *c.IllnessSeverity
			}
			if c.IllnessType != nil && *c.IllnessType != "" {
				det.Type = *c.IllnessType
			}
			return det, nil
		}
	}

	return scoreIllnessTriggers(rows), nil
}

// scoreIllnessTriggers evaluates the four trend triggers over check-ins
// ordered oldest to newest.
func scoreIllnessTriggers(rows []domain.WellnessCheckin) *IllnessDetection {
	energy := make([]float64, len(rows))
	var hunger []float64
	var sleep, stress []float64
	for i, c := range rows {
		energy[i] = float64(c.EnergyLevel)
		hunger = append(hunger, float64(c.HungerLevel))
		if c.SleepQuality != nil {
			sleep = append(sleep, float64(*c.SleepQuality))
		}
		if c.StressLevel != nil {
			stress = append(stress, float64(*c.StressLevel))
		}
	}

	mid := len(energy) / 2
	earlierMean := mean(energy[:mid])
	recentMean := mean(energy[mid:])
	energyDrop := earlierMean > 6 && earlierMean-recentMean >= 2

	sleepDisruption := countBelow(lastN(sleep, 3), 6) >= 2
	stressPeak := countAbove(lastN(stress, 3), 7) >= 2

	consistentDecline := false
	if len(rows) >= 4 {
		declines := 0
		for _, series := range [][]float64{energy, sleep, hunger} {
			if len(series) >= 4 && mean(lastN(series, 2)) <= mean(series[:2])-1 {
				declines++
			}
		}
		consistentDecline = declines >= 2
	}

	confidence := 0.0
	var triggers []string
	if energyDrop {
		confidence += weightEnergyDrop
		triggers = append(triggers, "energy dropped sharply compared to earlier in the week")
	}
	if sleepDisruption {
		confidence += weightSleepDisruption
		triggers = append(triggers, "sleep quality below 6 on recent nights")
	}
	if stressPeak {
		confidence += weightStressPeak
		triggers = append(triggers, "stress above 7 on recent days")
	}
	if consistentDecline {
		confidence += weightConsistentDecline
		triggers = append(triggers, "consistent decline across energy, sleep and hunger")
	}

	lowReadings := 0
	for _, c := range rows {
		if c.EnergyLevel <= 3 || (c.SleepQuality != nil && *c.SleepQuality <= 4) {
			lowReadings++
		}
	}
	if lowReadings >= 2 {
		confidence += lowReadingsBonus
	}
	if confidence > 1 {
		confidence = 1
	}

	det := &IllnessDetection{
		IsDetected:   confidence >= detectionThreshold,
		Confidence:   confidence,
		AutoDetected: true,
		Triggers:     triggers,
	}
	if det.IsDetected && len(triggers) == 0 {
		det.Triggers = []string{"multiple very low energy or poor sleep readings"}
	}

	meanEnergy := mean(energy)
	latestEnergy := energy[len(energy)-1]
	switch {
	case meanEnergy <= 3 || latestEnergy <= 2:
		det.Severity = 4
	case (meanEnergy <= 4 && consistentDecline) || (energyDrop && sleepDisruption):
		det.Severity = 3
	case energyDrop || sleepDisruption:
		det.Severity = 2
	default:
		det.Severity = 1
	}

	switch {
	case stressPeak && mean(stress) > 7:
		det.Type = "stress"
	case sleepDisruption && mean(sleep) < 5:
		det.Type = "fatigue"
	case energyDrop && consistentDecline:
		det.Type = "systemic_fatigue"
	default:
		det.Type = "general_illness"
	}
	return det
}

// PauseMesocycleForIllness transitions the user's single active unpaused
// mesocycle into the illness-paused state. The check and the transition
// happen atomically in the repository, so concurrent pause attempts
// cannot both succeed.
func (s *IllnessService) PauseMesocycleForIllness(ctx context.Context, userID int64, det *IllnessDetection, now time.Time) (*domain.Mesocycle, error) {
	adj := domain.IllnessAdjustments{
		Severity:       det.Severity,
		Type:           det.Type,
		AutoDetected:   det.AutoDetected,
		Confidence:     det.Confidence,
		Triggers:       det.Triggers,
		PausedAt:       now,
		ExpectedDeload: det.Severity >= 3,
	}
	m, err := s.mesocycles.PauseForIllness(ctx, userID, adj, now)
	if err != nil {
		return nil, err
	}
	if m == nil {
		return nil, ErrNoActiveMesocycle
	}
	return m, nil
}

// EvaluateRecoveryReadiness scores the trailing 3 days of check-ins for
// a user whose mesocycle is paused for illness. Missing preconditions
// yield a not-ready evaluation rather than an error.
func (s *IllnessService) EvaluateRecoveryReadiness(ctx context.Context, userID int64, now time.Time) (*RecoveryEvaluation, error) {
	m, err := s.mesocycles.GetPausedMesocycle(ctx, userID)
	if err != nil {
		return nil, err
	}
	if m == nil || m.PauseReason == nil || *m.PauseReason != PauseReasonIllness || m.PausedAt == nil {
		return &RecoveryEvaluation{
			Recommendations: []string{"no mesocycle is currently paused for illness"},
		}, nil
	}
	daysInRecovery := int(now.Sub(*m.PausedAt).Hours() / 24)

	today := domain.FormatDay(now)
	from, err := domain.AddDays(today, -2)
	if err != nil {
		return nil, err
	}
	rows, err := s.checkins.ListCheckinsInRange(ctx, userID, from, today)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return &RecoveryEvaluation{
			DaysInRecovery:  daysInRecovery,
			Recommendations: []string{"no recent check-ins; log a daily check-in so recovery can be tracked"},
		}, nil
	}

	var energy, sleep, stress, recovery []float64
	illnessReported := false
	for _, c := range rows {
		energy = append(energy, float64(c.EnergyLevel))
		if c.SleepQuality != nil {
			sleep = append(sleep, float64(*c.SleepQuality))
		}
		if c.StressLevel != nil {
			stress = append(stress, float64(*c.StressLevel))
		}
		if c.RecoveryReadiness != nil {
			recovery = append(recovery, float64(*c.RecoveryReadiness))
		}
		if c.IllnessStatus != nil && *c.IllnessStatus {
			illnessReported = true
		}
	}

	score := 0
	switch meanEnergy := mean(energy); {
	case meanEnergy >= 7:
		score += 30
	case meanEnergy >= 6:
		score += 20
	case meanEnergy >= 5:
		score += 10
	}
	if len(sleep) > 0 {
		switch meanSleep := mean(sleep); {
		case meanSleep >= 7:
			score += 25
		case meanSleep >= 6:
			score += 15
		}
	}
	if len(stress) > 0 {
		switch meanStress := mean(stress); {
		case meanStress <= 5:
			score += 20
		case meanStress <= 6:
			score += 10
		}
	}
	if !illnessReported {
		score += 15
	}
	if len(recovery) > 0 && mean(recovery) >= 7 {
		score += 10
	}

	eval := &RecoveryEvaluation{
		RecoveryScore:  score,
		DaysInRecovery: daysInRecovery,
	}
	eval.IsReadyToResume = score >= 80 && !illnessReported && daysInRecovery >= 2
	if score < 80 {
		eval.Recommendations = append(eval.Recommendations,
			fmt.Sprintf("recovery score %d is below 80; keep resting and tracking", score))
	}
	if illnessReported {
		eval.Recommendations = append(eval.Recommendations,
			"illness still reported in recent check-ins")
	}
	if daysInRecovery < 2 {
		eval.Recommendations = append(eval.Recommendations,
			"allow at least 2 days of recovery before resuming")
	}
	if eval.IsReadyToResume {
		eval.Recommendations = append(eval.Recommendations,
			"wellness has recovered; ready to resume training")
	}
	return eval, nil
}

// ResumeMesocycle clears the illness pause and restores the training
// week. When the pause recorded an expected deload, the mesocycle
// resumes one week earlier than where it stopped (never before week 1).
func (s *IllnessService) ResumeMesocycle(ctx context.Context, userID int64) (*domain.Mesocycle, error) {
	m, err := s.mesocycles.GetPausedMesocycle(ctx, userID)
	if err != nil {
		return nil, err
	}
	if m == nil || m.PauseReason == nil || *m.PauseReason != PauseReasonIllness {
		return nil, ErrNoPausedMesocycle
	}

	week := m.CurrentWeek
	if m.PreIllnessWeek != nil {
		week = *m.PreIllnessWeek
	}
	if m.IllnessAdjustments != nil && m.IllnessAdjustments.ExpectedDeload && week > 1 {
		week--
	}

	resumed, err := s.mesocycles.Resume(ctx, userID, m.ID, week)
	if err != nil {
		return nil, err
	}
	if resumed == nil {
		return nil, ErrNoPausedMesocycle
	}
	return resumed, nil
}

// CreateMesocycle starts a new training block at week 1.
func (s *IllnessService) CreateMesocycle(ctx context.Context, userID int64, name string, totalWeeks int) (*domain.Mesocycle, error) {
	if name == "" {
		return nil, errors.New("name is required")
	}
	if totalWeeks < 1 || totalWeeks > 52 {
		return nil, errors.New("totalWeeks must be between 1 and 52")
	}
	return s.mesocycles.CreateMesocycle(ctx, userID, name, totalWeeks)
}

// CurrentMesocycle returns the user's active mesocycle, paused or not,
// or nil when none exists.
func (s *IllnessService) CurrentMesocycle(ctx context.Context, userID int64) (*domain.Mesocycle, error) {
	m, err := s.mesocycles.GetActiveMesocycle(ctx, userID)
	if err != nil || m != nil {
		return m, err
	}
	return s.mesocycles.GetPausedMesocycle(ctx, userID)
}

func mean(vals []float64) float64 {
	if len(vals) == 0 {
		return 0
	}
	var sum float64
	for _, v := range vals {
		sum += v
	}
	return sum / float64(len(vals))
}

func lastN(vals []float64, n int) []float64 {
	if len(vals) <= n {
		return vals
	}
	return vals[len(vals)-n:]
}

func countBelow(vals []float64, limit float64) int {
	n := 0
	for _, v := range vals {
		if v < limit {
			n++
		}
	}
	return n
}

func countAbove(vals []float64, limit float64) int {
	n := 0
	for _, v := range vals {
		if v > limit {
			n++
		}
	}
	return n
}
