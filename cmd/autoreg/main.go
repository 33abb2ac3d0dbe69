package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"

	adapthttp "autoreg/internal/adapter/http"
	"autoreg/internal/adapter/postgres"
	"autoreg/internal/app"

	"github.com/coreos/go-oidc/v3/oidc"
	"golang.org/x/oauth2"
)

func main() {
	addr := env("ADDR", ":8080")

	connStr := os.Getenv("DATABASE_URL")
	if connStr == "" {
		log.Fatal("DATABASE_URL is required")
	}

	db, err := postgres.Open(connStr)
	if err != nil {
		log.Fatalf("db open: %v", err)
	}
	defer func() { _ = db.Close() }()

	sessionRepo := postgres.NewSessionRepo(db)

	wellnessSvc := app.NewWellnessService(db, db)
	illnessSvc := app.NewIllnessService(db, db)
	macroSvc := app.NewMacroService(db, db, db, db, wellnessSvc)
	authSvc := app.NewAuthService(db, sessionRepo)

	oidcConfig, err := loadOIDCConfig(context.Background())
	if err != nil {
		log.Fatalf("oidc setup: %v", err)
	}

	h := adapthttp.New(wellnessSvc, illnessSvc, macroSvc, authSvc, oidcConfig).Handler()
	log.Printf("listening on %s", addr)
	if err := http.ListenAndServe(addr, h); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal(err)
	}
}

// loadOIDCConfig builds the SSO configuration from OIDC_* environment
// variables. SSO stays disabled when OIDC_ISSUER is unset.
func loadOIDCConfig(ctx context.Context) (adapthttp.OIDCConfig, error) {
	issuer := os.Getenv("OIDC_ISSUER")
	if issuer == "" {
		return adapthttp.OIDCConfig{}, nil
	}

	provider, err := oidc.NewProvider(ctx, issuer)
	if err != nil {
		return adapthttp.OIDCConfig{}, err
	}

	return adapthttp.OIDCConfig{
		Enabled:  true,
		Provider: provider,
		OAuth2Config: &oauth2.Config{
			ClientID:     os.Getenv("OIDC_CLIENT_ID"),
			ClientSecret: os.Getenv("OIDC_CLIENT_SECRET"),
			RedirectURL:  env("OIDC_REDIRECT_URL", "http://localhost:8080/api/auth/sso/callback"),
			Endpoint:     provider.Endpoint(),
			Scopes:       []string{oidc.ScopeOpenID, "email", "profile"},
		},
	}, nil
}

func env(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
