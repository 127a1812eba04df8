package config

import (
	"errors"
	"fmt"
	"os"
	"time"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	HTTPAddr string

	// Base64-encoded service account JSON; when empty the service runs on
	// the in-memory store for local development.
	FirebaseCredentials string
	FirebaseDatabaseURL string

	MapsAPIKey string

	RetentionWindow time.Duration
	SweepCron       string
	GeocodeTimeout  time.Duration
	StoreTimeout    time.Duration
}

// Load reads configuration from environment variables, applying defaults
// where unset.
func Load() (*Config, error) {
	retention, err := envDuration("RETENTION_WINDOW", 24*time.Hour)
	if err != nil {
		return nil, err
	}
	geocodeTimeout, err := envDuration("GEOCODE_TIMEOUT", 5*time.Second)
	if err != nil {
		return nil, err
	}
	storeTimeout, err := envDuration("STORE_TIMEOUT", 10*time.Second)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		HTTPAddr:            envOrDefault("HTTP_ADDR", ":8080"),
		FirebaseCredentials: os.Getenv("FIREBASE_CREDENTIALS"),
		FirebaseDatabaseURL: os.Getenv("FIREBASE_DATABASE_URL"),
		MapsAPIKey:          os.Getenv("MAPS_CREDENTIALS"),
		RetentionWindow:     retention,
		SweepCron:           envOrDefault("SWEEP_CRON", "0 * * * *"),
		GeocodeTimeout:      geocodeTimeout,
		StoreTimeout:        storeTimeout,
	}

	if cfg.FirebaseCredentials != "" && cfg.FirebaseDatabaseURL == "" {
		return nil, errors.New("FIREBASE_CREDENTIALS is set but FIREBASE_DATABASE_URL is not")
	}
	return cfg, nil
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envDuration(key string, def time.Duration) (time.Duration, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s: %q", key, s)
	}
	return d, nil
}
