// Package memory implements an in-memory repository for development and testing.
package memory

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"autoreg/internal/domain"
)

// DB implements an in-memory database storage.
type DB struct {
	mu          sync.Mutex
	checkins    []domain.WellnessCheckin
	summaries   []domain.WeeklyWellnessSummary
	mesocycles  []*domain.Mesocycle
	dietGoals   []domain.DietGoal
	weeklyGoals []domain.WeeklyNutritionGoal
	logs        []domain.NutritionLog
	metrics     []domain.BodyMetric
	users       []*domain.User
	sessions    map[string]*domain.Session

	checkinIDCounter   int64
	summaryIDCounter   int64
	mesocycleIDCounter int64
	dietGoalIDCounter  int64
	weeklyIDCounter    int64
	logIDCounter       int64
	metricIDCounter    int64
	userIDCounter      int64
}

// New creates a new in-memory database.
func New() *DB {
	return &DB{
		sessions: make(map[string]*domain.Session),
	}
}

// Ensure interfaces are met.
var _ domain.CheckinRepository = (*DB)(nil)
var _ domain.SummaryRepository = (*DB)(nil)
var _ domain.MesocycleRepository = (*DB)(nil)
var _ domain.DietGoalRepository = (*DB)(nil)
var _ domain.WeeklyGoalRepository = (*DB)(nil)
var _ domain.NutritionLogRepository = (*DB)(nil)
var _ domain.BodyMetricsRepository = (*DB)(nil)
var _ domain.UserRepository = (*DB)(nil)
var _ domain.SessionRepository = (*SessionRepo)(nil)

// --- CheckinRepository ---

// UpsertCheckin inserts or fully replaces the check-in for (userID, day).
func (db *DB) UpsertCheckin(ctx context.Context, userID int64, day string, data domain.CheckinData) (*domain.WellnessCheckin, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	for i := range db.checkins {
		c := &db.checkins[i]
		if c.UserID == userID && c.Day == day {
			// Replace every data field; omitted optionals clear stored values.
			id, createdAt := c.ID, c.CreatedAt
			*c = checkinFromData(id, userID, day, data, createdAt)
			ret := *c
			return &ret, nil
		}
	}

	db.checkinIDCounter++
	c := checkinFromData(db.checkinIDCounter, userID, day, data, time.Now().UTC())
	db.checkins = append(db.checkins, c)
	ret := c
	return &ret, nil
}

func checkinFromData(id, userID int64, day string, data domain.CheckinData, createdAt time.Time) domain.WellnessCheckin {
	return domain.WellnessCheckin{
		ID:                  id,
		UserID:              userID,
		Day:                 day,
		EnergyLevel:         data.EnergyLevel,
		HungerLevel:         data.HungerLevel,
		SleepQuality:        data.SleepQuality,
		StressLevel:         data.StressLevel,
		CravingsIntensity:   data.CravingsIntensity,
		AdherencePerception: data.AdherencePerception,
		RecoveryReadiness:   data.RecoveryReadiness,
		IllnessStatus:       data.IllnessStatus,
		IllnessSeverity:     data.IllnessSeverity,
		IllnessType:         data.IllnessType,
		Notes:               data.Notes,
		CreatedAt:           createdAt,
	}
}

// GetCheckin returns the check-in for (userID, day), or nil.
func (db *DB) GetCheckin(ctx context.Context, userID int64, day string) (*domain.WellnessCheckin, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	for i := range db.checkins {
		if db.checkins[i].UserID == userID && db.checkins[i].Day == day {
			ret := db.checkins[i]
			return &ret, nil
		}
	}
	return nil, nil
}

// ListCheckinsInRange returns check-ins for days in [from, to], ordered by day ascending.
func (db *DB) ListCheckinsInRange(ctx context.Context, userID int64, from, to string) ([]domain.WellnessCheckin, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	var out []domain.WellnessCheckin
	for i := range db.checkins {
		c := db.checkins[i]
		if c.UserID == userID && c.Day >= from && c.Day <= to {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Day < out[j].Day })
	return out, nil
}

// CountCheckins returns the total number of check-ins for the user.
func (db *DB) CountCheckins(ctx context.Context, userID int64) (int, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	count := 0
	for i := range db.checkins {
		if db.checkins[i].UserID == userID {
			count++
		}
	}
	return count, nil
}

// --- SummaryRepository ---

// UpsertWeeklySummary inserts or replaces the summary for (userID, weekStart).
func (db *DB) UpsertWeeklySummary(ctx context.Context, s *domain.WeeklyWellnessSummary) (*domain.WeeklyWellnessSummary, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	for i := range db.summaries {
		if db.summaries[i].UserID == s.UserID && db.summaries[i].WeekStart == s.WeekStart {
			stored := *s
			stored.ID = db.summaries[i].ID
			db.summaries[i] = stored
			ret := stored
			return &ret, nil
		}
	}

	db.summaryIDCounter++
	stored := *s
	stored.ID = db.summaryIDCounter
	db.summaries = append(db.summaries, stored)
	ret := stored
	return &ret, nil
}

// GetWeeklySummary returns the summary for (userID, weekStart), or nil.
func (db *DB) GetWeeklySummary(ctx context.Context, userID int64, weekStart string) (*domain.WeeklyWellnessSummary, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	for i := range db.summaries {
		if db.summaries[i].UserID == userID && db.summaries[i].WeekStart == weekStart {
			ret := db.summaries[i]
			return &ret, nil
		}
	}
	return nil, nil
}

// --- MesocycleRepository ---

// CreateMesocycle inserts a new active mesocycle starting at week 1.
func (db *DB) CreateMesocycle(ctx context.Context, userID int64, name string, totalWeeks int) (*domain.Mesocycle, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	db.mesocycleIDCounter++
	m := &domain.Mesocycle{
		ID:          db.mesocycleIDCounter,
		UserID:      userID,
		Name:        name,
		CurrentWeek: 1,
		TotalWeeks:  totalWeeks,
		IsActive:    true,
		CreatedAt:   time.Now().UTC(),
	}
	db.mesocycles = append(db.mesocycles, m)
	ret := *m
	return &ret, nil
}

// GetActiveMesocycle returns the user's active unpaused mesocycle, or nil.
func (db *DB) GetActiveMesocycle(ctx context.Context, userID int64) (*domain.Mesocycle, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	m := db.findMesocycleLocked(userID, false)
	if m == nil {
		return nil, nil
	}
	ret := *m
	return &ret, nil
}

// GetPausedMesocycle returns the user's active paused mesocycle, or nil.
func (db *DB) GetPausedMesocycle(ctx context.Context, userID int64) (*domain.Mesocycle, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	m := db.findMesocycleLocked(userID, true)
	if m == nil {
		return nil, nil
	}
	ret := *m
	return &ret, nil
}

// findMesocycleLocked returns the newest active mesocycle matching the
// paused flag. Caller holds db.mu.
func (db *DB) findMesocycleLocked(userID int64, paused bool) *domain.Mesocycle {
	var newest *domain.Mesocycle
	for _, m := range db.mesocycles {
		if m.UserID != userID || !m.IsActive || m.IsPaused != paused {
			continue
		}
		if newest == nil || m.CreatedAt.After(newest.CreatedAt) {
			newest = m
		}
	}
	return newest
}

// PauseForIllness transitions the active unpaused mesocycle to the
// paused state. The check and the transition happen under one lock, so
// of two concurrent pause attempts only one can win; the other sees no
// unpaused row and gets (nil, nil).
func (db *DB) PauseForIllness(ctx context.Context, userID int64, adj domain.IllnessAdjustments, now time.Time) (*domain.Mesocycle, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	m := db.findMesocycleLocked(userID, false)
	if m == nil {
		return nil, nil
	}

	reason := "illness"
	pausedAt := now.UTC()
	week := m.CurrentWeek
	adjCopy := adj

	m.IsPaused = true
	m.PauseReason = &reason
	m.PausedAt = &pausedAt
	m.PreIllnessWeek = &week
	m.IllnessAdjustments = &adjCopy
	m.RecoveryTrackingStarted = &pausedAt

	ret := *m
	return &ret, nil
}

// Resume clears the pause state and sets the current week. Returns
// (nil, nil) when the mesocycle is not paused.
func (db *DB) Resume(ctx context.Context, userID int64, mesocycleID int64, currentWeek int) (*domain.Mesocycle, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	for _, m := range db.mesocycles {
		if m.ID != mesocycleID || m.UserID != userID {
			continue
		}
		if !m.IsPaused {
			return nil, nil
		}
		m.IsPaused = false
		m.PauseReason = nil
		m.PausedAt = nil
		m.PreIllnessWeek = nil
		m.IllnessAdjustments = nil
		m.RecoveryTrackingStarted = nil
		m.CurrentWeek = currentWeek
		ret := *m
		return &ret, nil
	}
	return nil, nil
}

// --- DietGoalRepository ---

// CreateDietGoal appends a new diet goal row.
func (db *DB) CreateDietGoal(ctx context.Context, g *domain.DietGoal) (*domain.DietGoal, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	db.dietGoalIDCounter++
	stored := *g
	stored.ID = db.dietGoalIDCounter
	stored.CreatedAt = time.Now().UTC()
	db.dietGoals = append(db.dietGoals, stored)
	ret := stored
	return &ret, nil
}

// CurrentDietGoal returns the user's most recently created goal, or nil.
func (db *DB) CurrentDietGoal(ctx context.Context, userID int64) (*domain.DietGoal, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	var newest *domain.DietGoal
	for i := range db.dietGoals {
		g := &db.dietGoals[i]
		if g.UserID != userID {
			continue
		}
		if newest == nil || g.ID > newest.ID {
			newest = g
		}
	}
	if newest == nil {
		return nil, nil
	}
	ret := *newest
	return &ret, nil
}

// --- WeeklyGoalRepository ---

// CreateWeeklyGoal appends one week's accepted outcome record.
func (db *DB) CreateWeeklyGoal(ctx context.Context, g *domain.WeeklyNutritionGoal) (*domain.WeeklyNutritionGoal, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	db.weeklyIDCounter++
	stored := *g
	stored.ID = db.weeklyIDCounter
	db.weeklyGoals = append(db.weeklyGoals, stored)
	ret := stored
	return &ret, nil
}

// GetWeeklyGoal returns the most recently created record for the week, or nil.
func (db *DB) GetWeeklyGoal(ctx context.Context, userID int64, weekStart string) (*domain.WeeklyNutritionGoal, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	var newest *domain.WeeklyNutritionGoal
	for i := range db.weeklyGoals {
		g := &db.weeklyGoals[i]
		if g.UserID != userID || g.WeekStart != weekStart {
			continue
		}
		if newest == nil || g.ID > newest.ID {
			newest = g
		}
	}
	if newest == nil {
		return nil, nil
	}
	ret := *newest
	return &ret, nil
}

// --- NutritionLogRepository ---

// AddNutritionLog seeds a logged food entry. The engine only reads
// these; writes exist for development and tests.
func (db *DB) AddNutritionLog(l domain.NutritionLog) domain.NutritionLog {
	db.mu.Lock()
	defer db.mu.Unlock()

	db.logIDCounter++
	l.ID = db.logIDCounter
	db.logs = append(db.logs, l)
	return l
}

// ListNutritionLogsInRange returns entries for days in [from, to], ordered by day ascending.
func (db *DB) ListNutritionLogsInRange(ctx context.Context, userID int64, from, to string) ([]domain.NutritionLog, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	var out []domain.NutritionLog
	for i := range db.logs {
		l := db.logs[i]
		if l.UserID == userID && l.Day >= from && l.Day <= to {
			out = append(out, l)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Day < out[j].Day })
	return out, nil
}

// --- BodyMetricsRepository ---

// AddBodyMetric seeds a body-weight sample. The engine only reads
// these; writes exist for development and tests.
func (db *DB) AddBodyMetric(m domain.BodyMetric) domain.BodyMetric {
	db.mu.Lock()
	defer db.mu.Unlock()

	db.metricIDCounter++
	m.ID = db.metricIDCounter
	db.metrics = append(db.metrics, m)
	return m
}

// LatestWeightInRange returns the most recent sample for days in [from, to], or nil.
func (db *DB) LatestWeightInRange(ctx context.Context, userID int64, from, to string) (*domain.BodyMetric, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	var latest *domain.BodyMetric
	for i := range db.metrics {
		m := &db.metrics[i]
		if m.UserID != userID || m.Day < from || m.Day > to {
			continue
		}
		if latest == nil || m.Day > latest.Day || (m.Day == latest.Day && m.RecordedAt.After(latest.RecordedAt)) {
			latest = m
		}
	}
	if latest == nil {
		return nil, nil
	}
	ret := *latest
	return &ret, nil
}

// --- UserRepository ---

// GetByUsername retrieves a user by username.
func (db *DB) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	for _, u := range db.users {
		if u.Username == username {
			return u, nil
		}
	}
	return nil, nil
}

// GetByID retrieves a user by ID.
func (db *DB) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	for _, u := range db.users {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, nil
}

// Create creates a new user.
func (db *DB) Create(ctx context.Context, username, passwordHash string) (*domain.User, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	for _, u := range db.users {
		if u.Username == username {
			return nil, errors.New("user already exists")
		}
	}

	db.userIDCounter++
	u := &domain.User{
		ID:           db.userIDCounter,
		Username:     username,
		PasswordHash: passwordHash,
		CreatedAt:    time.Now().UTC(),
	}
	db.users = append(db.users, u)
	return u, nil
}

// Count returns the total number of users.
func (db *DB) Count(ctx context.Context) (int, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	return len(db.users), nil
}

// --- SessionRepository ---

// SessionRepo implements session persistence.
type SessionRepo struct {
	db *DB
}

// NewSessionRepo creates a new session repository.
func (db *DB) NewSessionRepo() *SessionRepo {
	return &SessionRepo{db: db}
}

// Create creates a new session.
func (r *SessionRepo) Create(ctx context.Context, userID int64, token string, expiresAt time.Time) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	r.db.sessions[token] = &domain.Session{
		Token:     token,
		UserID:    userID,
		ExpiresAt: expiresAt,
		CreatedAt: time.Now().UTC(),
	}
	return nil
}

// GetByToken retrieves a session by token.
func (r *SessionRepo) GetByToken(ctx context.Context, token string) (*domain.Session, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if s, ok := r.db.sessions[token]; ok {
		if time.Now().After(s.ExpiresAt) {
			delete(r.db.sessions, token)
			return nil, nil
		}
		return s, nil
	}
	return nil, nil
}

// Delete deletes a session.
func (r *SessionRepo) Delete(ctx context.Context, token string) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	delete(r.db.sessions, token)
	return nil
}

// DeleteExpired deletes all expired sessions.
func (r *SessionRepo) DeleteExpired(ctx context.Context) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	now := time.Now()
	for k, v := range r.db.sessions {
		if now.After(v.ExpiresAt) {
			delete(r.db.sessions, k)
		}
	}
	return nil
}
