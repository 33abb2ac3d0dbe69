package adapthttp

import (
	"errors"
	"net/http"
	"time"

	"autoreg/internal/app"
	"autoreg/internal/domain"
)

func (s *Server) handleDietGoal(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := currentUserID(r)

	switch r.Method {
	case http.MethodGet:
		goal, err := s.macros.CurrentGoal(ctx, userID)
		if errors.Is(err, app.ErrNoDietGoal) {
			writeError(w, http.StatusNotFound, err)
			return
		}
		if err != nil {
			writeError(w, http.StatusInternalServerError, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"goal": goal})

	case http.MethodPost:
		var body domain.DietGoal
		if err := parseJSON(r, &body); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		body.UserID = userID
		goal, err := s.macros.SetGoal(ctx, &body)
		if err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		writeJSON(w, http.StatusCreated, map[string]any{"goal": goal})

	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (s *Server) handleWeeklyAdjustment(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	weekStart := r.URL.Query().Get("weekStart")
	if weekStart == "" {
		writeError(w, http.StatusBadRequest, errWeekStartRequired)
		return
	}
	today := dayQuery(r, "day")

	adj, err := s.macros.CalculateWeeklyAdjustment(r.Context(), currentUserID(r), weekStart, today)
	if errors.Is(err, app.ErrNoDietGoal) {
		writeError(w, http.StatusNotFound, err)
		return
	}
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	writeJSON(w, http.StatusOK, adj)
}

// handleAcceptAdjustment recomputes the week's adjustment and persists
// it as the accepted weekly goal.
func (s *Server) handleAcceptAdjustment(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	ctx := r.Context()
	userID := currentUserID(r)

	var body struct {
		WeekStart string `json:"weekStart"`
		Day       string `json:"day,omitempty"`
	}
	if err := parseJSON(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if body.WeekStart == "" {
		writeError(w, http.StatusBadRequest, errWeekStartRequired)
		return
	}
	today := body.Day
	if today == "" {
		today = localDayString(time.Now())
	}

	adj, err := s.macros.CalculateWeeklyAdjustment(ctx, userID, body.WeekStart, today)
	if errors.Is(err, app.ErrNoDietGoal) {
		writeError(w, http.StatusNotFound, err)
		return
	}
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	record, err := s.macros.CreateWeeklyGoal(ctx, userID, adj)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"weeklyGoal": record, "adjustment": adj})
}

func (s *Server) handleWeeklyNutrition(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	weekStart := r.URL.Query().Get("weekStart")
	if weekStart == "" {
		writeError(w, http.StatusBadRequest, errWeekStartRequired)
		return
	}
	today := dayQuery(r, "day")

	out, err := s.macros.WeeklyNutrition(r.Context(), currentUserID(r), weekStart, today)
	if errors.Is(err, app.ErrNoDietGoal) {
		writeError(w, http.StatusNotFound, err)
		return
	}
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}
