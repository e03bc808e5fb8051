package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestApplyDefaults(t *testing.T) {
	cfg := Config{}
	cfg.ApplyDefaults()

	if cfg.Name != "scribed" {
		t.Errorf("expected default name scribed, got %q", cfg.Name)
	}
	if cfg.Environment != "development" {
		t.Errorf("expected development, got %q", cfg.Environment)
	}
	if !cfg.Debug {
		t.Error("expected debug=true for development")
	}
	if cfg.Media.MemoryLimitBytes != 5<<20 {
		t.Errorf("expected 5MiB memory limit, got %d", cfg.Media.MemoryLimitBytes)
	}
	if cfg.Media.ProbeChunkBytes != 1<<20 {
		t.Errorf("expected 1MiB probe chunk, got %d", cfg.Media.ProbeChunkBytes)
	}
	if cfg.Quota.AnonDailySeconds != 540 {
		t.Errorf("expected anon daily limit 540s, got %d", cfg.Quota.AnonDailySeconds)
	}
	if cfg.Retention.TTL != 24*time.Hour {
		t.Errorf("expected 24h TTL, got %v", cfg.Retention.TTL)
	}
	if cfg.FFmpeg.Binary != "ffmpeg" || cfg.FFmpeg.ProbeBinary != "ffprobe" {
		t.Errorf("unexpected ffmpeg defaults: %+v", cfg.FFmpeg)
	}
}

func TestValidate(t *testing.T) {
	cfg := Config{}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaulted config should validate: %v", err)
	}

	bad := cfg
	bad.Server.Port = -1
	if err := bad.Validate(); err == nil {
		t.Error("expected error for negative port")
	}

	bad = cfg
	bad.Environment = "qa"
	if err := bad.Validate(); err == nil {
		t.Error("expected error for unknown environment")
	}

	bad = cfg
	bad.Whisper.URL = "not a url"
	if err := bad.Validate(); err == nil {
		t.Error("expected error for invalid whisper url")
	}
}

func TestLoadConfigFromYAML(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.yml")
	yaml := `
name: scribed
environment: production
server:
  port: 9090
media:
  scratch_dir: /var/scribe/files
quota:
  anon_daily_seconds: 600
`
	if err := os.WriteFile(configPath, []byte(yaml), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load("scribed", WithConfigFile(configPath))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Server.Port != 9090 {
		t.Errorf("expected port 9090, got %d", cfg.Server.Port)
	}
	if cfg.Media.ScratchDir != "/var/scribe/files" {
		t.Errorf("expected scratch dir from file, got %q", cfg.Media.ScratchDir)
	}
	if cfg.Quota.AnonDailySeconds != 600 {
		t.Errorf("expected 600s anon limit, got %d", cfg.Quota.AnonDailySeconds)
	}
	if cfg.Environment != "production" {
		t.Errorf("expected production, got %q", cfg.Environment)
	}
	if cfg.Debug {
		t.Error("expected debug=false in production")
	}
	// Defaults still fill unspecified sections.
	if cfg.Workers.Count != 2 {
		t.Errorf("expected default worker count, got %d", cfg.Workers.Count)
	}
}

func TestEnvKeyVariants(t *testing.T) {
	variants := envKeyVariants("SERVER_PORT")
	want := map[string]bool{"server_port": true, "server.port": true}
	for _, v := range variants {
		delete(want, v)
	}
	if len(want) != 0 {
		t.Errorf("missing variants: %v (got %v)", want, variants)
	}

	if got := envKeyVariants("PATH"); len(got) != 1 || got[0] != "path" {
		t.Errorf("expected single variant for PATH, got %v", got)
	}
}

func TestLoadConfigEnvOverride(t *testing.T) {
	t.Setenv("QUOTA_ANON_DAILY_SECONDS", "720")

	cfg, err := Load("scribed")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Quota.AnonDailySeconds != 720 {
		t.Errorf("expected env override 720, got %d", cfg.Quota.AnonDailySeconds)
	}
}
