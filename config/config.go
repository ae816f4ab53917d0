// Package config builds the process configuration at startup.
//
// All values come from the environment (with .env support for local
// development) exactly once, at Load time. Components never read the
// environment themselves; they receive values from this struct.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Defaults.
const (
	DefaultLocation       = "us-central1"
	DefaultModel          = "gemini-2.0-flash"
	DefaultSessionTimeout = time.Hour
	DefaultBudget         = 5 * time.Minute
	DefaultMaxIterations  = 15
	DefaultAddr           = ":8000"
	DefaultWorkspace      = "."
)

// Config is the resolved process configuration.
type Config struct {
	// ProjectID is the GCP project for Vertex AI. Required.
	ProjectID string

	// Location is the Vertex AI region.
	Location string

	// Model is the model name used for both agent runs and reviews.
	Model string

	// Workspace is the root directory file-operation tools are confined to.
	Workspace string

	// RolesFile optionally overrides the embedded role profiles.
	RolesFile string

	// SessionTimeout is the session inactivity expiry window.
	SessionTimeout time.Duration

	// Budget is the per-run wall-clock budget.
	Budget time.Duration

	// MaxIterations is the per-run iteration cap.
	MaxIterations int

	// Addr is the HTTP listen address.
	Addr string
}

// Load reads .env (if present) and the environment, applies defaults and
// validates. A missing project id is an error: nothing downstream can work
// without it.
func Load() (*Config, error) {
	// .env is a local development convenience; absence is not an error.
	_ = godotenv.Load()

	cfg := &Config{
		ProjectID:      os.Getenv("GCP_PROJECT_ID"),
		Location:       envOr("GCP_LOCATION", DefaultLocation),
		Model:          envOr("CREW_MODEL", DefaultModel),
		Workspace:      envOr("CREW_WORKSPACE", DefaultWorkspace),
		RolesFile:      os.Getenv("CREW_ROLES_FILE"),
		SessionTimeout: DefaultSessionTimeout,
		Budget:         DefaultBudget,
		MaxIterations:  DefaultMaxIterations,
		Addr:           envOr("CREW_ADDR", DefaultAddr),
	}

	if cfg.ProjectID == "" {
		return nil, fmt.Errorf("GCP_PROJECT_ID is not set; export it or add it to .env")
	}

	var err error
	if cfg.SessionTimeout, err = envDuration("CREW_SESSION_TIMEOUT", DefaultSessionTimeout); err != nil {
		return nil, err
	}
	if cfg.Budget, err = envDuration("CREW_BUDGET", DefaultBudget); err != nil {
		return nil, err
	}
	if cfg.MaxIterations, err = envInt("CREW_MAX_ITERATIONS", DefaultMaxIterations); err != nil {
		return nil, err
	}
	if cfg.MaxIterations < 1 {
		return nil, fmt.Errorf("CREW_MAX_ITERATIONS must be at least 1")
	}

	return cfg, nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s: invalid duration %q: %w", key, v, err)
	}
	return d, nil
}

func envInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s: invalid integer %q: %w", key, v, err)
	}
	return n, nil
}
