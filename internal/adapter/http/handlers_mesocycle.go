package adapthttp

import (
	"errors"
	"net/http"
	"time"

	"autoreg/internal/app"
)

func (s *Server) handleMesocycle(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := currentUserID(r)

	switch r.Method {
	case http.MethodGet:
		m, err := s.illness.CurrentMesocycle(ctx, userID)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"mesocycle": m})

	case http.MethodPost:
		var body struct {
			Name       string `json:"name"`
			TotalWeeks int    `json:"totalWeeks"`
		}
		if err := parseJSON(r, &body); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		m, err := s.illness.CreateMesocycle(ctx, userID, body.Name, body.TotalWeeks)
		if err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		writeJSON(w, http.StatusCreated, map[string]any{"mesocycle": m})

	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (s *Server) handleIllnessDetect(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	today := dayQuery(r, "day")
	det, err := s.illness.DetectIllnessTriggers(r.Context(), currentUserID(r), today)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"day": today, "detection": det})
}

// handleIllnessPause pauses the active mesocycle. Without a request
// body the current detection must cross the confidence threshold; a
// body with severity set records a manual pause.
func (s *Server) handleIllnessPause(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	ctx := r.Context()
	userID := currentUserID(r)

	var body struct {
		Day      string `json:"day,omitempty"`
		Severity int    `json:"severity,omitempty"`
		Type     string `json:"type,omitempty"`
	}
	if r.ContentLength > 0 {
		if err := parseJSON(r, &body); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
	}

	var det *app.IllnessDetection
	if body.Severity > 0 {
		if body.Severity > 5 {
			writeError(w, http.StatusBadRequest, errors.New("severity must be between 1 and 5"))
			return
		}
		illType := body.Type
		if illType == "" {
			illType = "reported"
		}
		det = &app.IllnessDetection{
			IsDetected: true,
			Confidence: 1.0,
			Severity:   body.Severity,
			Type:       illType,
			Triggers:   []string{"manual pause request"},
		}
	} else {
		today := body.Day
		if today == "" {
			today = localDayString(time.Now())
		}
		var err error
		det, err = s.illness.DetectIllnessTriggers(ctx, userID, today)
		if err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		if !det.IsDetected {
			writeError(w, http.StatusConflict, errors.New("no illness detected; supply a severity to pause manually"))
			return
		}
	}

	m, err := s.illness.PauseMesocycleForIllness(ctx, userID, det, time.Now())
	if errors.Is(err, app.ErrNoActiveMesocycle) {
		writeError(w, http.StatusConflict, err)
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"mesocycle": m, "detection": det})
}

func (s *Server) handleRecovery(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	eval, err := s.illness.EvaluateRecoveryReadiness(r.Context(), currentUserID(r), time.Now())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"recovery": eval})
}

func (s *Server) handleResume(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	m, err := s.illness.ResumeMesocycle(r.Context(), currentUserID(r))
	if errors.Is(err, app.ErrNoPausedMesocycle) {
		writeError(w, http.StatusConflict, err)
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"mesocycle": m})
}
