// Package config loads the application configuration from environment
// variables, once, at startup. The resulting struct is treated as immutable.
package config

import (
	"fmt"
	"os"
	"strconv"
)

type Config struct {
	Port        int
	DBPath      string
	TemplateDir string
	StaticDir   string

	// StateSecret signs the OAuth state parameter. Required whenever the
	// Google credentials are set.
	StateSecret string

	// Google OAuth is optional: leave the credentials empty and the app runs
	// with local registration only (the Google routes aren't registered).
	GoogleClientID     string
	GoogleClientSecret string
	GoogleCallbackURL  string

	// CookieSecure sets the Secure flag on session cookies. Off by default
	// for local development over plain HTTP.
	CookieSecure bool
}

// Load reads the configuration from the environment, applying development
// defaults for everything that has a sensible one.
func Load() (*Config, error) {
	cfg := &Config{
		Port:        8080,
		DBPath:      "data/planttoucher.db",
		TemplateDir: "web/templates",
		StaticDir:   "web/static",
	}

	if v := os.Getenv("PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("config: invalid PORT %q: %w", v, err)
		}
		cfg.Port = port
	}
	if v := os.Getenv("DB_PATH"); v != "" {
		cfg.DBPath = v
	}
	if v := os.Getenv("TEMPLATE_DIR"); v != "" {
		cfg.TemplateDir = v
	}
	if v := os.Getenv("STATIC_DIR"); v != "" {
		cfg.StaticDir = v
	}

	cfg.StateSecret = os.Getenv("STATE_SECRET")
	cfg.GoogleClientID = os.Getenv("GOOGLE_CLIENT_ID")
	cfg.GoogleClientSecret = os.Getenv("GOOGLE_CLIENT_SECRET")
	cfg.GoogleCallbackURL = os.Getenv("GOOGLE_CALLBACK_URL")
	if cfg.GoogleCallbackURL == "" {
		cfg.GoogleCallbackURL = fmt.Sprintf("http://localhost:%d/auth/google/callback", cfg.Port)
	}

	cfg.CookieSecure = os.Getenv("COOKIE_SECURE") == "true"

	if cfg.GoogleEnabled() && cfg.StateSecret == "" {
		return nil, fmt.Errorf("config: STATE_SECRET is required when Google OAuth is configured")
	}

	return cfg, nil
}

// GoogleEnabled reports whether the Google OAuth routes should exist.
func (c *Config) GoogleEnabled() bool {
	return c.GoogleClientID != "" && c.GoogleClientSecret != ""
}
