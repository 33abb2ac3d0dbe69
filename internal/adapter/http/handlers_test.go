package adapthttp_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	adapthttp "autoreg/internal/adapter/http"
	"autoreg/internal/adapter/memory"
	"autoreg/internal/app"
	"autoreg/internal/domain"
)

// ---------------------------------------------------------------------------
// Test-server helper
// ---------------------------------------------------------------------------

// newTestServer wires the full stack over the in-memory adapter. Auth is
// disabled; every request acts as user 1.
func newTestServer(t *testing.T) (*httptest.Server, *memory.DB) {
	t.Helper()

	db := memory.New()
	wellness := app.NewWellnessService(db, db)
	illness := app.NewIllnessService(db, db)
	macros := app.NewMacroService(db, db, db, db, wellness)
	authSvc := app.NewAuthService(db, db.NewSessionRepo())

	srv := adapthttp.New(wellness, illness, macros, authSvc, adapthttp.OIDCConfig{}).WithoutAuth()
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts, db
}

func decodeBody(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	var m map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&m); err != nil {
		t.Fatalf("failed to decode response body: %v", err)
	}
	return m
}

func doJSON(t *testing.T, method, url string, payload any) *http.Response {
	t.Helper()
	var body *bytes.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			t.Fatalf("marshal payload: %v", err)
		}
		body = bytes.NewReader(b)
	} else {
		body = bytes.NewReader(nil)
	}
	req, err := http.NewRequest(method, url, body)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	return resp
}

func seedCheckin(t *testing.T, db *memory.DB, day string, energy, hunger int) {
	t.Helper()
	_, err := db.UpsertCheckin(context.Background(), 1, day, domain.CheckinData{
		EnergyLevel: energy,
		HungerLevel: hunger,
	})
	if err != nil {
		t.Fatalf("seed check-in: %v", err)
	}
}

// ---------------------------------------------------------------------------
// Tests
// ---------------------------------------------------------------------------

func TestHealthEndpoint(t *testing.T) {
	ts, _ := newTestServer(t)

	resp, err := http.Get(ts.URL + "/api/health")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	body := decodeBody(t, resp)
	if body["ok"] != true {
		t.Fatalf("expected ok=true, got %v", body["ok"])
	}
}

func TestCheckinPut(t *testing.T) {
	tests := []struct {
		name       string
		payload    map[string]any
		wantStatus int
	}{
		{
			name:       "valid minimal",
			payload:    map[string]any{"energyLevel": 7, "hungerLevel": 4},
			wantStatus: http.StatusOK,
		},
		{
			name:       "valid with optionals",
			payload:    map[string]any{"energyLevel": 6, "hungerLevel": 5, "sleepQuality": 8, "stressLevel": 3},
			wantStatus: http.StatusOK,
		},
		{
			name:       "energy out of range",
			payload:    map[string]any{"energyLevel": 11, "hungerLevel": 4},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "missing hunger",
			payload:    map[string]any{"energyLevel": 7},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "unknown field",
			payload:    map[string]any{"energyLevel": 7, "hungerLevel": 4, "mood": 9},
			wantStatus: http.StatusBadRequest,
		},
	}

	ts, _ := newTestServer(t)
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			resp := doJSON(t, http.MethodPut, ts.URL+"/api/wellness/checkin?day=2026-03-02", tc.payload)
			defer resp.Body.Close() //nolint:errcheck
			if resp.StatusCode != tc.wantStatus {
				t.Fatalf("expected %d, got %d", tc.wantStatus, resp.StatusCode)
			}
		})
	}
}

func TestCheckinGet(t *testing.T) {
	ts, db := newTestServer(t)
	seedCheckin(t, db, "2026-03-02", 7, 4)

	resp, err := http.Get(ts.URL + "/api/wellness/checkin?day=2026-03-02")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close() //nolint:errcheck
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	body := decodeBody(t, resp)
	checkin, ok := body["checkin"].(map[string]any)
	if !ok {
		t.Fatalf("response missing checkin object: %v", body)
	}
	if checkin["energyLevel"] != float64(7) {
		t.Errorf("expected energyLevel 7, got %v", checkin["energyLevel"])
	}

	missing, err := http.Get(ts.URL + "/api/wellness/checkin?day=2026-03-09")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer missing.Body.Close() //nolint:errcheck
	if missing.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404 for missing day, got %d", missing.StatusCode)
	}
}

func TestWeeklySummary(t *testing.T) {
	ts, db := newTestServer(t)
	seedCheckin(t, db, "2026-03-02", 7, 4)
	seedCheckin(t, db, "2026-03-03", 5, 6)

	resp, err := http.Get(ts.URL + "/api/wellness/weekly-summary?weekStart=2026-03-02")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close() //nolint:errcheck
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	body := decodeBody(t, resp)
	summary, ok := body["summary"].(map[string]any)
	if !ok {
		t.Fatalf("response missing summary object: %v", body)
	}
	if summary["daysTracked"] != float64(2) {
		t.Errorf("expected daysTracked 2, got %v", summary["daysTracked"])
	}
	if summary["avgEnergy"] != float64(6) {
		t.Errorf("expected avgEnergy 6, got %v", summary["avgEnergy"])
	}

	noWeek, err := http.Get(ts.URL + "/api/wellness/weekly-summary")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer noWeek.Body.Close() //nolint:errcheck
	if noWeek.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 without weekStart, got %d", noWeek.StatusCode)
	}
}

func TestRecomputeSummaryPersists(t *testing.T) {
	ts, db := newTestServer(t)
	seedCheckin(t, db, "2026-03-02", 8, 5)

	resp := doJSON(t, http.MethodPost, ts.URL+"/api/wellness/weekly-summary/recompute", map[string]any{"weekStart": "2026-03-02"})
	defer resp.Body.Close() //nolint:errcheck
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	stored, err := db.GetWeeklySummary(context.Background(), 1, "2026-03-02")
	if err != nil {
		t.Fatalf("GetWeeklySummary: %v", err)
	}
	if stored == nil || stored.DaysTracked != 1 {
		t.Errorf("expected persisted summary with 1 day, got %+v", stored)
	}
}

func TestIllnessDetectInsufficientData(t *testing.T) {
	ts, _ := newTestServer(t)

	resp, err := http.Get(ts.URL + "/api/mesocycle/illness/detect?day=2026-03-08")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close() //nolint:errcheck
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	body := decodeBody(t, resp)
	det, ok := body["detection"].(map[string]any)
	if !ok {
		t.Fatalf("response missing detection object: %v", body)
	}
	if det["isDetected"] != false || det["type"] != "insufficient_data" {
		t.Errorf("unexpected detection: %v", det)
	}
}

func TestIllnessPauseLifecycle(t *testing.T) {
	ts, _ := newTestServer(t)

	// No mesocycle yet: manual pause conflicts.
	resp := doJSON(t, http.MethodPost, ts.URL+"/api/mesocycle/illness/pause", map[string]any{"severity": 3, "type": "flu"})
	resp.Body.Close() //nolint:errcheck
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("expected 409 without a mesocycle, got %d", resp.StatusCode)
	}

	created := doJSON(t, http.MethodPost, ts.URL+"/api/mesocycle", map[string]any{"name": "Hypertrophy Block 1", "totalWeeks": 6})
	created.Body.Close() //nolint:errcheck
	if created.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201 creating mesocycle, got %d", created.StatusCode)
	}

	paused := doJSON(t, http.MethodPost, ts.URL+"/api/mesocycle/illness/pause", map[string]any{"severity": 3, "type": "flu"})
	defer paused.Body.Close() //nolint:errcheck
	if paused.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 pausing, got %d", paused.StatusCode)
	}
	body := decodeBody(t, paused)
	m, ok := body["mesocycle"].(map[string]any)
	if !ok {
		t.Fatalf("response missing mesocycle object: %v", body)
	}
	if m["isPaused"] != true {
		t.Errorf("expected paused mesocycle, got %v", m)
	}
	adj, ok := m["illnessAdjustments"].(map[string]any)
	if !ok {
		t.Fatalf("mesocycle missing illnessAdjustments: %v", m)
	}
	if adj["expectedDeload"] != true {
		t.Errorf("severity 3 should expect a deload, got %v", adj)
	}

	// Second pause sees no unpaused mesocycle.
	again := doJSON(t, http.MethodPost, ts.URL+"/api/mesocycle/illness/pause", map[string]any{"severity": 2})
	again.Body.Close() //nolint:errcheck
	if again.StatusCode != http.StatusConflict {
		t.Fatalf("expected 409 on double pause, got %d", again.StatusCode)
	}

	// Resume restores the pre-illness week minus the deload.
	resumed := doJSON(t, http.MethodPost, ts.URL+"/api/mesocycle/illness/resume", nil)
	defer resumed.Body.Close() //nolint:errcheck
	if resumed.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 resuming, got %d", resumed.StatusCode)
	}
	rbody := decodeBody(t, resumed)
	rm, ok := rbody["mesocycle"].(map[string]any)
	if !ok {
		t.Fatalf("response missing mesocycle object: %v", rbody)
	}
	if rm["isPaused"] != false || rm["currentWeek"] != float64(1) {
		t.Errorf("unexpected resumed state: %v", rm)
	}

	// Nothing left to resume.
	empty := doJSON(t, http.MethodPost, ts.URL+"/api/mesocycle/illness/resume", nil)
	empty.Body.Close() //nolint:errcheck
	if empty.StatusCode != http.StatusConflict {
		t.Fatalf("expected 409 resuming unpaused, got %d", empty.StatusCode)
	}
}

func TestPauseWithoutDetectionConflicts(t *testing.T) {
	ts, _ := newTestServer(t)

	created := doJSON(t, http.MethodPost, ts.URL+"/api/mesocycle", map[string]any{"name": "Block", "totalWeeks": 4})
	created.Body.Close() //nolint:errcheck

	// No check-ins, so auto-detection cannot fire.
	resp := doJSON(t, http.MethodPost, ts.URL+"/api/mesocycle/illness/pause", map[string]any{"day": "2026-03-08"})
	defer resp.Body.Close() //nolint:errcheck
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("expected 409 without detection, got %d", resp.StatusCode)
	}
}

func TestRecoveryWithoutPause(t *testing.T) {
	ts, _ := newTestServer(t)

	resp, err := http.Get(ts.URL + "/api/mesocycle/illness/recovery")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close() //nolint:errcheck
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	body := decodeBody(t, resp)
	eval, ok := body["recovery"].(map[string]any)
	if !ok {
		t.Fatalf("response missing recovery object: %v", body)
	}
	if eval["isReadyToResume"] != false {
		t.Errorf("expected not ready without a paused mesocycle, got %v", eval)
	}
}

func TestDietGoalRoundTrip(t *testing.T) {
	ts, _ := newTestServer(t)

	missing, err := http.Get(ts.URL + "/api/nutrition/goal")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	missing.Body.Close() //nolint:errcheck
	if missing.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404 without a goal, got %d", missing.StatusCode)
	}

	created := doJSON(t, http.MethodPost, ts.URL+"/api/nutrition/goal", map[string]any{
		"goal": "cut", "tdee": 2500, "targetCalories": 2000,
		"targetProtein": 150, "targetCarbs": 200, "targetFat": 60,
		"autoRegulation": true,
	})
	defer created.Body.Close() //nolint:errcheck
	if created.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", created.StatusCode)
	}

	got, err := http.Get(ts.URL + "/api/nutrition/goal")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer got.Body.Close() //nolint:errcheck
	if got.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", got.StatusCode)
	}
	body := decodeBody(t, got)
	goal, ok := body["goal"].(map[string]any)
	if !ok {
		t.Fatalf("response missing goal object: %v", body)
	}
	if goal["goal"] != "cut" || goal["targetCalories"] != float64(2000) {
		t.Errorf("unexpected goal: %v", goal)
	}

	invalid := doJSON(t, http.MethodPost, ts.URL+"/api/nutrition/goal", map[string]any{"goal": "recomp", "targetCalories": 2000})
	invalid.Body.Close() //nolint:errcheck
	if invalid.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 for invalid goal type, got %d", invalid.StatusCode)
	}
}

func TestWeeklyAdjustmentNoGoal(t *testing.T) {
	ts, _ := newTestServer(t)

	resp, err := http.Get(ts.URL + "/api/nutrition/weekly-adjustment?weekStart=2026-03-02&day=2026-03-09")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close() //nolint:errcheck
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404 without a diet goal, got %d", resp.StatusCode)
	}
}

func TestWeeklyAdjustmentAndAccept(t *testing.T) {
	ts, db := newTestServer(t)

	created := doJSON(t, http.MethodPost, ts.URL+"/api/nutrition/goal", map[string]any{
		"goal": "cut", "tdee": 2500, "targetCalories": 2000,
		"targetProtein": 150, "targetCarbs": 200, "targetFat": 60,
	})
	created.Body.Close() //nolint:errcheck

	for _, day := range []string{"2026-03-02", "2026-03-03", "2026-03-04"} {
		db.AddNutritionLog(domain.NutritionLog{UserID: 1, Day: day, Calories: 1950, Protein: 145, Carbs: 195, Fat: 58})
	}

	resp, err := http.Get(ts.URL + "/api/nutrition/weekly-adjustment?weekStart=2026-03-02&day=2026-03-09")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close() //nolint:errcheck
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	body := decodeBody(t, resp)
	if body["adherencePercentage"] != float64(97.5) {
		t.Errorf("expected adherence 97.5, got %v", body["adherencePercentage"])
	}

	accepted := doJSON(t, http.MethodPost, ts.URL+"/api/nutrition/weekly-adjustment/accept", map[string]any{
		"weekStart": "2026-03-02", "day": "2026-03-09",
	})
	defer accepted.Body.Close() //nolint:errcheck
	if accepted.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201 accepting, got %d", accepted.StatusCode)
	}

	stored, err := db.GetWeeklyGoal(context.Background(), 1, "2026-03-02")
	if err != nil {
		t.Fatalf("GetWeeklyGoal: %v", err)
	}
	if stored == nil {
		t.Fatal("expected accepted adjustment to be persisted")
	}

	// After acceptance the weekly view serves the stored record.
	view, err := http.Get(ts.URL + "/api/nutrition/weekly?weekStart=2026-03-02&day=2026-03-09")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer view.Body.Close() //nolint:errcheck
	vbody := decodeBody(t, view)
	if vbody["persisted"] != true {
		t.Errorf("expected persisted weekly record, got %v", vbody)
	}
}

func TestWeeklyNutritionProjection(t *testing.T) {
	ts, db := newTestServer(t)

	created := doJSON(t, http.MethodPost, ts.URL+"/api/nutrition/goal", map[string]any{
		"goal": "maintain", "tdee": 2400, "targetCalories": 2400,
		"targetProtein": 160, "targetCarbs": 250, "targetFat": 70,
	})
	created.Body.Close() //nolint:errcheck

	db.AddNutritionLog(domain.NutritionLog{UserID: 1, Day: "2026-03-02", Calories: 2300})
	db.AddNutritionLog(domain.NutritionLog{UserID: 1, Day: "2026-03-03", Calories: 2500})

	resp, err := http.Get(ts.URL + "/api/nutrition/weekly?weekStart=2026-03-02&day=2026-03-09")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close() //nolint:errcheck
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	body := decodeBody(t, resp)
	if body["persisted"] != false {
		t.Errorf("expected a projection, got %v", body["persisted"])
	}
	if body["dailyCalories"] != float64(2400) {
		t.Errorf("expected dailyCalories 2400, got %v", body["dailyCalories"])
	}
	if body["daysLogged"] != float64(2) {
		t.Errorf("expected daysLogged 2, got %v", body["daysLogged"])
	}
}

func TestSSOLoginDisabled(t *testing.T) {
	ts, _ := newTestServer(t)

	resp, err := http.Get(ts.URL + "/api/auth/sso/login")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close() //nolint:errcheck
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404 with SSO disabled, got %d", resp.StatusCode)
	}
}
