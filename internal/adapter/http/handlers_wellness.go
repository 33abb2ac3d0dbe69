package adapthttp

import (
	"errors"
	"net/http"

	"autoreg/internal/app"
	"autoreg/internal/domain"
)

func (s *Server) handleCheckin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := currentUserID(r)
	day := dayQuery(r, "day")

	switch r.Method {
	case http.MethodGet:
		checkin, err := s.wellness.Checkin(ctx, userID, day)
		if errors.Is(err, app.ErrCheckinNotFound) {
			writeError(w, http.StatusNotFound, err)
			return
		}
		if err != nil {
			writeError(w, http.StatusInternalServerError, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"day": day, "checkin": checkin})

	case http.MethodPut:
		var body domain.CheckinData
		if err := parseJSON(r, &body); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		checkin, err := s.wellness.UpsertCheckin(ctx, userID, day, body)
		if err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"day": day, "checkin": checkin})

	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (s *Server) handleWeeklySummary(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	weekStart := r.URL.Query().Get("weekStart")
	if weekStart == "" {
		writeError(w, http.StatusBadRequest, errWeekStartRequired)
		return
	}
	summary, err := s.wellness.ComputeWeeklyAverages(r.Context(), currentUserID(r), weekStart)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"weekStart": weekStart, "summary": summary})
}

func (s *Server) handleRecomputeSummary(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	var body struct {
		WeekStart string `json:"weekStart"`
	}
	if err := parseJSON(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if body.WeekStart == "" {
		writeError(w, http.StatusBadRequest, errWeekStartRequired)
		return
	}
	summary, err := s.wellness.UpsertWeeklySummary(r.Context(), currentUserID(r), body.WeekStart)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"weekStart": body.WeekStart, "summary": summary})
}
