package config

import (
	"testing"

	"github.com/spf13/viper"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(viper.New())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.AppPort != "8080" || cfg.KeepStaleOnError || cfg.DatabaseName != "taskmaster" {
		t.Fatalf("unexpected defaults %+v", cfg)
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("API_BASE_URL", "https://jobs.example.com/")
	t.Setenv("KEEP_STALE_ON_ERROR", "true")
	t.Setenv("POLL_INTERVAL_SECONDS", "30")
	t.Setenv("CORS_ORIGINS", "http://localhost:8081, http://localhost:19006")

	cfg, err := Load(viper.New())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.APIBaseURL != "https://jobs.example.com/" || !cfg.KeepStaleOnError || cfg.PollIntervalSeconds != 30 {
		t.Fatalf("env not applied: %+v", cfg)
	}
	origins := cfg.AllowedOrigins()
	if len(origins) != 2 || origins[1] != "http://localhost:19006" {
		t.Fatalf("AllowedOrigins = %v", origins)
	}
}
