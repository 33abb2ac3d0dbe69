package app

import (
	"context"
	"errors"
	"testing"
	"time"

	"autoreg/internal/domain"
)

func iptr(v int) *int         { return &v }
func fptr(v float64) *float64 { return &v }
func bptr(v bool) *bool       { return &v }
func sptr(v string) *string   { return &v }

type mockCheckinRepo struct {
	upsertFn func(ctx context.Context, userID int64, day string, data domain.CheckinData) (*domain.WellnessCheckin, error)
	getFn    func(ctx context.Context, userID int64, day string) (*domain.WellnessCheckin, error)
	listFn   func(ctx context.Context, userID int64, from, to string) ([]domain.WellnessCheckin, error)
	countFn  func(ctx context.Context, userID int64) (int, error)
}

func (m *mockCheckinRepo) UpsertCheckin(ctx context.Context, userID int64, day string, data domain.CheckinData) (*domain.WellnessCheckin, error) {
	if m.upsertFn != nil {
		return m.upsertFn(ctx, userID, day, data)
	}
	return &domain.WellnessCheckin{UserID: userID, Day: day, EnergyLevel: data.EnergyLevel, HungerLevel: data.HungerLevel}, nil
}

func (m *mockCheckinRepo) GetCheckin(ctx context.Context, userID int64, day string) (*domain.WellnessCheckin, error) {
	if m.getFn != nil {
		return m.getFn(ctx, userID, day)
	}
	return nil, nil
}

func (m *mockCheckinRepo) ListCheckinsInRange(ctx context.Context, userID int64, from, to string) ([]domain.WellnessCheckin, error) {
	if m.listFn != nil {
		return m.listFn(ctx, userID, from, to)
	}
	return nil, nil
}

func (m *mockCheckinRepo) CountCheckins(ctx context.Context, userID int64) (int, error) {
	if m.countFn != nil {
		return m.countFn(ctx, userID)
	}
	return 0, nil
}

type mockSummaryRepo struct {
	upsertFn func(ctx context.Context, s *domain.WeeklyWellnessSummary) (*domain.WeeklyWellnessSummary, error)
	getFn    func(ctx context.Context, userID int64, weekStart string) (*domain.WeeklyWellnessSummary, error)
}

func (m *mockSummaryRepo) UpsertWeeklySummary(ctx context.Context, s *domain.WeeklyWellnessSummary) (*domain.WeeklyWellnessSummary, error) {
	if m.upsertFn != nil {
		return m.upsertFn(ctx, s)
	}
	return s, nil
}

func (m *mockSummaryRepo) GetWeeklySummary(ctx context.Context, userID int64, weekStart string) (*domain.WeeklyWellnessSummary, error) {
	if m.getFn != nil {
		return m.getFn(ctx, userID, weekStart)
	}
	return nil, nil
}

func TestUpsertCheckin_Validation(t *testing.T) {
	svc := NewWellnessService(&mockCheckinRepo{}, &mockSummaryRepo{})

	tests := []struct {
		name string
		day  string
		data domain.CheckinData
	}{
		{"bad day", "not-a-day", domain.CheckinData{EnergyLevel: 5, HungerLevel: 5}},
		{"energy too low", "2026-03-02", domain.CheckinData{EnergyLevel: 0, HungerLevel: 5}},
		{"energy too high", "2026-03-02", domain.CheckinData{EnergyLevel: 11, HungerLevel: 5}},
		{"hunger too low", "2026-03-02", domain.CheckinData{EnergyLevel: 5, HungerLevel: 0}},
		{"sleep out of range", "2026-03-02", domain.CheckinData{EnergyLevel: 5, HungerLevel: 5, SleepQuality: iptr(11)}},
		{"stress out of range", "2026-03-02", domain.CheckinData{EnergyLevel: 5, HungerLevel: 5, StressLevel: iptr(0)}},
		{"severity out of range", "2026-03-02", domain.CheckinData{EnergyLevel: 5, HungerLevel: 5, IllnessSeverity: iptr(6)}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.UpsertCheckin(context.Background(), 1, tc.day, tc.data)
			if err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
}

func TestUpsertCheckin_ReplacesWholeRow(t *testing.T) {
	var got domain.CheckinData
	repo := &mockCheckinRepo{
		upsertFn: func(_ context.Context, _ int64, day string, data domain.CheckinData) (*domain.WellnessCheckin, error) {
			got = data
			return &domain.WellnessCheckin{Day: day, EnergyLevel: data.EnergyLevel, HungerLevel: data.HungerLevel}, nil
		},
	}
	svc := NewWellnessService(repo, &mockSummaryRepo{})

	first := domain.CheckinData{EnergyLevel: 7, HungerLevel: 4, SleepQuality: iptr(8), Notes: sptr("slept well")}
	if _, err := svc.UpsertCheckin(context.Background(), 1, "2026-03-02", first); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second := domain.CheckinData{EnergyLevel: 5, HungerLevel: 6}
	if _, err := svc.UpsertCheckin(context.Background(), 1, "2026-03-02", second); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.SleepQuality != nil || got.Notes != nil {
		t.Fatalf("second upsert should clear optional fields, got %+v", got)
	}
}

func TestCheckin_NotFound(t *testing.T) {
	svc := NewWellnessService(&mockCheckinRepo{}, &mockSummaryRepo{})
	_, err := svc.Checkin(context.Background(), 1, "2026-03-02")
	if !errors.Is(err, ErrCheckinNotFound) {
		t.Fatalf("expected ErrCheckinNotFound, got %v", err)
	}
}

func weekCheckins() []domain.WellnessCheckin {
	return []domain.WellnessCheckin{
		{Day: "2026-03-02", EnergyLevel: 7, HungerLevel: 5, SleepQuality: iptr(6), StressLevel: iptr(4)},
		{Day: "2026-03-03", EnergyLevel: 8, HungerLevel: 5, SleepQuality: iptr(7)},
		{Day: "2026-03-05", EnergyLevel: 6, HungerLevel: 4},
	}
}

func TestComputeWeeklyAverages_NoData(t *testing.T) {
	svc := NewWellnessService(&mockCheckinRepo{}, &mockSummaryRepo{})
	sum, err := svc.ComputeWeeklyAverages(context.Background(), 1, "2026-03-02")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sum != nil {
		t.Fatalf("expected nil summary for empty week, got %+v", sum)
	}
}

func TestComputeWeeklyAverages_PerMetricDenominators(t *testing.T) {
	repo := &mockCheckinRepo{
		listFn: func(_ context.Context, _ int64, from, to string) ([]domain.WellnessCheckin, error) {
			if from != "2026-03-02" || to != "2026-03-08" {
				t.Fatalf("unexpected window [%s, %s]", from, to)
			}
			return weekCheckins(), nil
		},
	}
	svc := NewWellnessService(repo, &mockSummaryRepo{})
	sum, err := svc.ComputeWeeklyAverages(context.Background(), 1, "2026-03-02")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sum.DaysTracked != 3 {
		t.Errorf("DaysTracked = %d; want 3", sum.DaysTracked)
	}
	if sum.AvgEnergy == nil || *sum.AvgEnergy != 7.0 {
		t.Errorf("AvgEnergy = %v; want 7.0", sum.AvgEnergy)
	}
	// hunger 5+5+4 over 3 days, rounded to one decimal
	if sum.AvgHunger == nil || *sum.AvgHunger != 4.7 {
		t.Errorf("AvgHunger = %v; want 4.7", sum.AvgHunger)
	}
	// sleep reported on 2 of 3 days; denominator is 2
	if sum.AvgSleep == nil || *sum.AvgSleep != 6.5 {
		t.Errorf("AvgSleep = %v; want 6.5", sum.AvgSleep)
	}
	// stress reported once
	if sum.AvgStress == nil || *sum.AvgStress != 4.0 {
		t.Errorf("AvgStress = %v; want 4.0", sum.AvgStress)
	}
	// cravings never reported
	if sum.AvgCravings != nil {
		t.Errorf("AvgCravings = %v; want nil", sum.AvgCravings)
	}
}

func TestUpsertWeeklySummary_Idempotent(t *testing.T) {
	var stored []*domain.WeeklyWellnessSummary
	repo := &mockCheckinRepo{
		listFn: func(_ context.Context, _ int64, _, _ string) ([]domain.WellnessCheckin, error) {
			return weekCheckins(), nil
		},
	}
	summaries := &mockSummaryRepo{
		upsertFn: func(_ context.Context, s *domain.WeeklyWellnessSummary) (*domain.WeeklyWellnessSummary, error) {
			stored = append(stored, s)
			return s, nil
		},
	}
	svc := NewWellnessService(repo, summaries)
	for i := 0; i < 2; i++ {
		if _, err := svc.UpsertWeeklySummary(context.Background(), 1, "2026-03-02"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if len(stored) != 2 {
		t.Fatalf("expected 2 upserts, got %d", len(stored))
	}
	a, b := stored[0], stored[1]
	if *a.AvgEnergy != *b.AvgEnergy || *a.AvgHunger != *b.AvgHunger || a.DaysTracked != b.DaysTracked {
		t.Errorf("recompute from unchanged rows differed: %+v vs %+v", a, b)
	}
}

func TestWellnessForMacroAdjustment_ColdStart(t *testing.T) {
	svc := NewWellnessService(&mockCheckinRepo{}, &mockSummaryRepo{})
	w := svc.WellnessForMacroAdjustment(context.Background(), 1, "2026-03-02")
	want := MacroWellness{AvgEnergy: 5, AvgHunger: 5, AvgSleep: 5, AvgStress: 5, DaysTracked: 0}
	if w != want {
		t.Errorf("cold start = %+v; want %+v", w, want)
	}
}

func TestWellnessForMacroAdjustment_FillsMissingMetrics(t *testing.T) {
	summaries := &mockSummaryRepo{
		getFn: func(_ context.Context, _ int64, _ string) (*domain.WeeklyWellnessSummary, error) {
			return &domain.WeeklyWellnessSummary{
				AvgEnergy:   fptr(6.5),
				AvgHunger:   fptr(7.0),
				DaysTracked: 4,
			}, nil
		},
	}
	svc := NewWellnessService(&mockCheckinRepo{}, summaries)
	w := svc.WellnessForMacroAdjustment(context.Background(), 1, "2026-03-02")
	if w.AvgEnergy != 6.5 || w.AvgHunger != 7.0 {
		t.Errorf("reported metrics not passed through: %+v", w)
	}
	if w.AvgSleep != 5 || w.AvgStress != 5 {
		t.Errorf("missing metrics should default to 5: %+v", w)
	}
	if w.DaysTracked != 4 {
		t.Errorf("DaysTracked = %d; want 4", w.DaysTracked)
	}
}

func TestWellnessForMacroAdjustment_ComputesAndStores(t *testing.T) {
	var upserted bool
	repo := &mockCheckinRepo{
		listFn: func(_ context.Context, _ int64, _, _ string) ([]domain.WellnessCheckin, error) {
			return weekCheckins(), nil
		},
	}
	summaries := &mockSummaryRepo{
		upsertFn: func(_ context.Context, s *domain.WeeklyWellnessSummary) (*domain.WeeklyWellnessSummary, error) {
			upserted = true
			return s, nil
		},
	}
	svc := NewWellnessService(repo, summaries)
	w := svc.WellnessForMacroAdjustment(context.Background(), 1, "2026-03-02")
	if !upserted {
		t.Error("expected summary to be stored")
	}
	if w.AvgEnergy != 7.0 || w.DaysTracked != 3 {
		t.Errorf("unexpected snapshot: %+v", w)
	}
}

func TestWellnessForMacroAdjustment_StorageErrorDegrades(t *testing.T) {
	summaries := &mockSummaryRepo{
		getFn: func(_ context.Context, _ int64, _ string) (*domain.WeeklyWellnessSummary, error) {
			return nil, errors.New("db down")
		},
	}
	svc := NewWellnessService(&mockCheckinRepo{}, summaries)
	w := svc.WellnessForMacroAdjustment(context.Background(), 1, "2026-03-02")
	want := MacroWellness{AvgEnergy: 5, AvgHunger: 5, AvgSleep: 5, AvgStress: 5, DaysTracked: 0}
	if w != want {
		t.Errorf("on storage error = %+v; want cold-start %+v", w, want)
	}
}

// Guard against accidental use of the checkin timestamp in averages.
func TestComputeWeeklyAverages_IgnoresCreatedAt(t *testing.T) {
	rows := weekCheckins()
	for i := range rows {
		rows[i].CreatedAt = time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)
	}
	repo := &mockCheckinRepo{
		listFn: func(_ context.Context, _ int64, _, _ string) ([]domain.WellnessCheckin, error) {
			return rows, nil
		},
	}
	svc := NewWellnessService(repo, &mockSummaryRepo{})
	sum, err := svc.ComputeWeeklyAverages(context.Background(), 1, "2026-03-02")
	if err != nil || sum == nil {
		t.Fatalf("unexpected result: %v, %v", sum, err)
	}
	if sum.DaysTracked != 3 {
		t.Errorf("DaysTracked = %d; want 3", sum.DaysTracked)
	}
}
