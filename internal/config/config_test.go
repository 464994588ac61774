package config

import (
	"log/slog"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("GRADEFLOW_SERVER_URL", "")
	t.Setenv("GRADEFLOW_POLL_INTERVAL", "")
	t.Setenv("SURREALDB_NAMESPACE", "")

	cfg := Load()

	if cfg.ServerURL != "http://localhost:8580" {
		t.Errorf("ServerURL = %q", cfg.ServerURL)
	}
	if cfg.PollInterval != 2*time.Second {
		t.Errorf("PollInterval = %v, want 2s", cfg.PollInterval)
	}
	if cfg.SurrealDBNamespace != "gradeflow" {
		t.Errorf("SurrealDBNamespace = %q", cfg.SurrealDBNamespace)
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("GRADEFLOW_SERVER_URL", "http://backend:9999")
	t.Setenv("GRADEFLOW_POLL_INTERVAL", "500ms")
	t.Setenv("GRADEFLOW_LOG_LEVEL", "debug")

	cfg := Load()
	if cfg.ServerURL != "http://backend:9999" {
		t.Errorf("ServerURL = %q", cfg.ServerURL)
	}
	if cfg.PollInterval != 500*time.Millisecond {
		t.Errorf("PollInterval = %v", cfg.PollInterval)
	}
	if cfg.LogLevel != slog.LevelDebug {
		t.Errorf("LogLevel = %v", cfg.LogLevel)
	}
}

func TestParseDurationRejectsGarbage(t *testing.T) {
	tests := []struct {
		in   string
		want time.Duration
	}{
		{"3s", 3 * time.Second},
		{"oops", 2 * time.Second},
		{"-1s", 2 * time.Second},
		{"", 2 * time.Second},
	}
	for _, tt := range tests {
		if got := parseDuration(tt.in, 2*time.Second); got != tt.want {
			t.Errorf("parseDuration(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"DEBUG", slog.LevelDebug},
		{"warn", slog.LevelWarn},
		{"WARNING", slog.LevelWarn},
		{"error", slog.LevelError},
		{"nonsense", slog.LevelInfo},
	}
	for _, tt := range tests {
		if got := parseLogLevel(tt.in); got != tt.want {
			t.Errorf("parseLogLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
