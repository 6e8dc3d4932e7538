package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/claude/stagecoach/internal/analyzer"
	"github.com/claude/stagecoach/internal/session"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

const minimalYAML = `
server:
  host: 127.0.0.1
  port: 8080
database:
  host: localhost
  port: 5432
  name: stagecoach
  user: coach
  password: secret
`

// TestLoadMinimal verifies a minimal file loads with engine defaults filled
// in.
func TestLoadMinimal(t *testing.T) {
	cfg, err := Load(writeConfig(t, minimalYAML))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("server.port = %d, want 8080", cfg.Server.Port)
	}
	if cfg.Engine.Analyzer != analyzer.DefaultParams() {
		t.Errorf("analyzer params = %+v, want defaults", cfg.Engine.Analyzer)
	}
	if cfg.Engine.Session != session.DefaultParams() {
		t.Errorf("session params = %+v, want defaults", cfg.Engine.Session)
	}
}

// TestLoadPartialEngineTuning verifies a file naming one threshold keeps the
// defaults for everything else.
func TestLoadPartialEngineTuning(t *testing.T) {
	cfg, err := Load(writeConfig(t, minimalYAML+`
engine:
  analyzer:
    head_drop_threshold: 0.5
  session:
    streak_threshold: 75
`))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Engine.Analyzer.HeadDropThreshold != 0.5 {
		t.Errorf("head_drop_threshold = %v, want 0.5", cfg.Engine.Analyzer.HeadDropThreshold)
	}
	if want := analyzer.DefaultParams().SlouchPenalty; cfg.Engine.Analyzer.SlouchPenalty != want {
		t.Errorf("slouch_penalty = %v, want default %v", cfg.Engine.Analyzer.SlouchPenalty, want)
	}
	if cfg.Engine.Session.StreakThreshold != 75 {
		t.Errorf("streak_threshold = %v, want 75", cfg.Engine.Session.StreakThreshold)
	}
	if want := session.DefaultParams().SmoothWindow; cfg.Engine.Session.SmoothWindow != want {
		t.Errorf("smooth_window = %v, want default %v", cfg.Engine.Session.SmoothWindow, want)
	}
}

// TestEnvOverrides verifies environment variables win over file values.
func TestEnvOverrides(t *testing.T) {
	t.Setenv("STAGECOACH_DB_HOST", "db.internal")
	t.Setenv("STAGECOACH_SERVER_PORT", "9999")
	t.Setenv("STAGECOACH_AUTH_API_KEY", "env-key")
	t.Setenv("STAGECOACH_RECORDING_DIR", "/var/recordings")

	cfg, err := Load(writeConfig(t, minimalYAML))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Database.Host != "db.internal" {
		t.Errorf("database.host = %q, want env override", cfg.Database.Host)
	}
	if cfg.Server.Port != 9999 {
		t.Errorf("server.port = %d, want 9999", cfg.Server.Port)
	}
	if cfg.Auth.APIKey != "env-key" {
		t.Errorf("auth.api_key = %q, want env override", cfg.Auth.APIKey)
	}
	if !cfg.Recording.Enabled || cfg.Recording.Dir != "/var/recordings" {
		t.Errorf("recording = %+v, want enabled with env dir", cfg.Recording)
	}
}

// TestValidation exercises the required-field checks.
func TestValidation(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{"missing server port", strings.Replace(minimalYAML, "port: 8080", "port: 0", 1), "server.port"},
		{"missing db name", strings.Replace(minimalYAML, "name: stagecoach", "name: \"\"", 1), "database.name"},
		{"recording without dir", minimalYAML + "\nrecording:\n  enabled: true\n", "recording.dir"},
		{"tailscale without hostname", minimalYAML + "\ntailscale:\n  enabled: true\n", "tailscale.hostname"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.yaml))
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Load err = %v, want mention of %q", err, tt.wantErr)
			}
		})
	}
}

// TestDSN checks the connection string format and the sslmode default.
func TestDSN(t *testing.T) {
	d := DatabaseConfig{Host: "localhost", Port: 5432, Name: "stagecoach", User: "coach", Password: "pw"}
	want := "postgres://coach:pw@localhost:5432/stagecoach?sslmode=disable"
	if got := d.DSN(); got != want {
		t.Errorf("DSN = %q, want %q", got, want)
	}

	d.SSLMode = "require"
	if got := d.DSN(); !strings.HasSuffix(got, "sslmode=require") {
		t.Errorf("DSN = %q, want sslmode=require", got)
	}
}

// TestLoadMissingFile verifies a useful error for an absent path.
func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("Load on missing file returned nil error")
	}
}
