package testsupport

import (
	"path/filepath"
	"testing"

	"vigil/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*config.Config)

// NewConfig produces a config seeded with unique temp directories per test
// and timings shrunk so polling tests run quickly.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	cfg.Paths.SnapshotDir = filepath.Join(base, "snapshots")
	cfg.Processing.PollTickMillis = 5
	cfg.Retry.BaseDelayMillis = 1

	for _, opt := range opts {
		opt(&cfg)
	}
	return &cfg
}

// WithBackendURL points the test config at a fake backend server.
func WithBackendURL(url string) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Backend.BaseURL = url
	}
}

// WithPollTimeout overrides the completion-polling ceiling in seconds.
func WithPollTimeout(seconds int) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Processing.PollTimeout = seconds
	}
}
