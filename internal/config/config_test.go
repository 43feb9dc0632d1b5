package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	if err := cfg.normalize(); err != nil {
		t.Fatalf("normalize returned error: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate returned error: %v", err)
	}
	if cfg.PollTick() != 800*time.Millisecond {
		t.Fatalf("poll tick = %v", cfg.PollTick())
	}
	if cfg.PollTimeout() != 10*time.Minute {
		t.Fatalf("poll timeout = %v", cfg.PollTimeout())
	}
	if cfg.PreviewRefresh() != 10*time.Second || cfg.DataReload() != 30*time.Second {
		t.Fatalf("preview cadence = %v / %v", cfg.PreviewRefresh(), cfg.DataReload())
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, _, exists, err := Load(filepath.Join(t.TempDir(), "absent.toml"))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if exists {
		t.Fatal("expected exists=false for missing file")
	}
	if cfg.Retry.MaxAttempts != 3 || cfg.RetryBaseDelay() != time.Second {
		t.Fatalf("unexpected retry defaults %+v", cfg.Retry)
	}
}

func TestLoadParsesOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	content := `
[backend]
base_url = "http://backend.example:8080/"

[processing]
poll_tick_millis = 250
poll_timeout = 120

[retry]
max_attempts = 5
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, resolved, exists, err := Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists || resolved == "" {
		t.Fatalf("exists=%v resolved=%q", exists, resolved)
	}
	if cfg.Backend.BaseURL != "http://backend.example:8080" {
		t.Fatalf("base url not normalized: %q", cfg.Backend.BaseURL)
	}
	if cfg.PollTick() != 250*time.Millisecond || cfg.Processing.PollTimeout != 120 {
		t.Fatalf("processing overrides not applied: %+v", cfg.Processing)
	}
	if cfg.Retry.MaxAttempts != 5 {
		t.Fatalf("retry override not applied: %+v", cfg.Retry)
	}
}

func TestValidateRejectsBadBaseURL(t *testing.T) {
	cfg := Default()
	cfg.Backend.BaseURL = "ftp://backend"
	if err := cfg.normalize(); err != nil {
		t.Fatalf("normalize returned error: %v", err)
	}
	err := cfg.Validate()
	if err == nil || !strings.Contains(err.Error(), "base_url") {
		t.Fatalf("expected base_url validation error, got %v", err)
	}
}

func TestValidateRejectsProgressCeiling100(t *testing.T) {
	cfg := Default()
	cfg.Processing.ProgressCeiling = 100
	if err := cfg.normalize(); err != nil {
		t.Fatalf("normalize returned error: %v", err)
	}
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected ceiling validation error")
	}
}

func TestValidateRejectsTickBeyondTimeout(t *testing.T) {
	cfg := Default()
	cfg.Processing.PollTickMillis = 5000
	cfg.Processing.PollTimeout = 4
	if err := cfg.normalize(); err != nil {
		t.Fatalf("normalize returned error: %v", err)
	}
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected tick/timeout validation error")
	}
}

func TestAcceptsMediaType(t *testing.T) {
	cfg := Default()
	if err := cfg.normalize(); err != nil {
		t.Fatalf("normalize returned error: %v", err)
	}
	cases := []struct {
		mediaType string
		want      bool
	}{
		{"video/mp4", true},
		{"VIDEO/MP4", true},
		{"video/mp4; codecs=avc1", true},
		{"video/x-matroska", true},
		{"image/png", false},
		{"", false},
	}
	for _, tc := range cases {
		if got := cfg.AcceptsMediaType(tc.mediaType); got != tc.want {
			t.Errorf("AcceptsMediaType(%q) = %v, want %v", tc.mediaType, got, tc.want)
		}
	}
}

func TestCreateSample(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	if err := CreateSample(path); err != nil {
		t.Fatalf("CreateSample returned error: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read sample: %v", err)
	}
	if !strings.Contains(string(data), "[processing]") {
		t.Fatal("sample missing processing section")
	}
}
