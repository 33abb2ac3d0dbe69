package adapthttp

import (
	"net/http"

	"autoreg/internal/app"

	"github.com/coreos/go-oidc/v3/oidc"
	"golang.org/x/oauth2"
)

// OIDCConfig holds optional single sign-on settings. When Enabled is
// false the SSO endpoints respond 404 and only password and forward
// auth are available.
type OIDCConfig struct {
	Enabled      bool
	Provider     *oidc.Provider
	OAuth2Config *oauth2.Config
}

// Server is the driving HTTP adapter that routes requests to application
// services.
type Server struct {
	wellness    *app.WellnessService
	illness     *app.IllnessService
	macros      *app.MacroService
	authSvc     *app.AuthService
	oidcConfig  OIDCConfig
	disableAuth bool
}

// New creates a Server wired to the given application services.
func New(ws *app.WellnessService, is *app.IllnessService, ms *app.MacroService, as *app.AuthService, oidcConfig OIDCConfig) *Server {
	return &Server{wellness: ws, illness: is, macros: ms, authSvc: as, oidcConfig: oidcConfig}
}

// WithoutAuth disables session validation. For tests only.
func (s *Server) WithoutAuth() *Server {
	s.disableAuth = true
	return s
}

// Handler returns the root http.Handler for the application.
func (s *Server) Handler() http.Handler {
	api := http.NewServeMux()
	api.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
	})

	api.HandleFunc("/auth/login", s.handleLogin)
	api.HandleFunc("/auth/logout", s.handleLogout)
	api.HandleFunc("/auth/setup", s.handleSetupUser)
	api.HandleFunc("/auth/config", s.handleConfig)
	api.HandleFunc("/auth/sso/login", s.handleSSOLogin)
	api.HandleFunc("/auth/sso/callback", s.handleSSOCallback)

	protected := http.NewServeMux()
	protected.HandleFunc("/auth/me", s.handleMe)

	protected.HandleFunc("/wellness/checkin", s.handleCheckin)
	protected.HandleFunc("/wellness/weekly-summary", s.handleWeeklySummary)
	protected.HandleFunc("/wellness/weekly-summary/recompute", s.handleRecomputeSummary)

	protected.HandleFunc("/mesocycle", s.handleMesocycle)
	protected.HandleFunc("/mesocycle/illness/detect", s.handleIllnessDetect)
	protected.HandleFunc("/mesocycle/illness/pause", s.handleIllnessPause)
	protected.HandleFunc("/mesocycle/illness/recovery", s.handleRecovery)
	protected.HandleFunc("/mesocycle/illness/resume", s.handleResume)

	protected.HandleFunc("/nutrition/goal", s.handleDietGoal)
	protected.HandleFunc("/nutrition/weekly-adjustment", s.handleWeeklyAdjustment)
	protected.HandleFunc("/nutrition/weekly-adjustment/accept", s.handleAcceptAdjustment)
	protected.HandleFunc("/nutrition/weekly", s.handleWeeklyNutrition)

	api.Handle("/", s.authMiddleware(protected))

	root := http.NewServeMux()
	root.Handle("/api/", http.StripPrefix("/api", api))

	return withNoCache(s.loggingMiddleware(root))
}
