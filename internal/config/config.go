package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"mime"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Backend contains connection settings for the video-analysis backend.
type Backend struct {
	BaseURL        string `toml:"base_url"`
	RequestTimeout int    `toml:"request_timeout"`
}

// Uploads contains validation settings applied before a video leaves the client.
type Uploads struct {
	AcceptedMediaTypes []string `toml:"accepted_media_types"`
	MaxSizeMiB         int      `toml:"max_size_mib"`
}

// Processing contains completion-poller timing and synthetic progress bounds.
type Processing struct {
	PollTickMillis  int `toml:"poll_tick_millis"`
	PollTimeout     int `toml:"poll_timeout"`
	ProgressCeiling int `toml:"progress_ceiling"`
	ProgressStepMin int `toml:"progress_step_min"`
	ProgressStepMax int `toml:"progress_step_max"`
}

// Preview contains live-preview refresh cadence and stream probe settings.
type Preview struct {
	RefreshInterval    int `toml:"refresh_interval"`
	DataReloadInterval int `toml:"data_reload_interval"`
	StreamProbeTimeout int `toml:"stream_probe_timeout"`
}

// Retry contains the resource-loader backoff policy.
type Retry struct {
	MaxAttempts     int `toml:"max_attempts"`
	BaseDelayMillis int `toml:"base_delay_millis"`
}

// Notifications contains configuration for ntfy push notifications.
type Notifications struct {
	NtfyTopic      string `toml:"ntfy_topic"`
	RequestTimeout int    `toml:"request_timeout"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Paths contains directory configuration.
type Paths struct {
	LogDir      string `toml:"log_dir"`
	SnapshotDir string `toml:"snapshot_dir"`
}

// Config encapsulates all configuration values for vigil.
//
// Configuration sections by subsystem:
//   - Backend: video-analysis backend base URL and request timeout
//   - Uploads: media-type allow list and size guard
//   - Processing: completion poller tick, ceiling, and progress bounds
//   - Preview: snapshot refresh and full data reload cadence
//   - Retry: resource-loader attempt limit and base delay
//   - Notifications: ntfy push notification settings
//   - Logging: log format and level
//   - Paths: log and snapshot directories
type Config struct {
	Backend       Backend       `toml:"backend"`
	Uploads       Uploads       `toml:"uploads"`
	Processing    Processing    `toml:"processing"`
	Preview       Preview       `toml:"preview"`
	Retry         Retry         `toml:"retry"`
	Notifications Notifications `toml:"notifications"`
	Logging       Logging       `toml:"logging"`
	Paths         Paths         `toml:"paths"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/vigil/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned config
// has all path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("vigil.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates required directories for daemon operation.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.LogDir, c.Paths.SnapshotDir} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// AcceptsMediaType reports whether the declared media type passes the upload
// allow list. Parameters (e.g. codecs) are stripped before comparison.
func (c *Config) AcceptsMediaType(mediaType string) bool {
	parsed, _, err := mime.ParseMediaType(strings.TrimSpace(mediaType))
	if err != nil {
		parsed = strings.ToLower(strings.TrimSpace(mediaType))
	}
	if parsed == "" {
		return false
	}
	for _, accepted := range c.Uploads.AcceptedMediaTypes {
		if parsed == accepted {
			return true
		}
	}
	return false
}

// PollTick returns the completion poller tick interval.
func (c *Config) PollTick() time.Duration {
	return time.Duration(c.Processing.PollTickMillis) * time.Millisecond
}

// PollTimeout returns the absolute completion-polling ceiling.
func (c *Config) PollTimeout() time.Duration {
	return time.Duration(c.Processing.PollTimeout) * time.Second
}

// PreviewRefresh returns the aggregate snapshot refresh interval.
func (c *Config) PreviewRefresh() time.Duration {
	return time.Duration(c.Preview.RefreshInterval) * time.Second
}

// DataReload returns the full camera/video list reload interval.
func (c *Config) DataReload() time.Duration {
	return time.Duration(c.Preview.DataReloadInterval) * time.Second
}

// StreamProbeTimeout returns the deadline for one stream transport attempt.
func (c *Config) StreamProbeTimeout() time.Duration {
	return time.Duration(c.Preview.StreamProbeTimeout) * time.Second
}

// RetryBaseDelay returns the base unit of the resource-loader backoff.
func (c *Config) RetryBaseDelay() time.Duration {
	return time.Duration(c.Retry.BaseDelayMillis) * time.Millisecond
}

// NotificationTimeout returns the per-request timeout for ntfy calls.
func (c *Config) NotificationTimeout() time.Duration {
	return time.Duration(c.Notifications.RequestTimeout) * time.Second
}

// BackendTimeout returns the per-request timeout for backend HTTP calls.
func (c *Config) BackendTimeout() time.Duration {
	return time.Duration(c.Backend.RequestTimeout) * time.Second
}

// SocketPath returns the daemon IPC socket location.
func (c *Config) SocketPath() string {
	return filepath.Join(c.Paths.LogDir, "vigil.sock")
}

// LockPath returns the daemon single-instance lock file location.
func (c *Config) LockPath() string {
	return filepath.Join(c.Paths.LogDir, "vigild.lock")
}

// LogPath returns the daemon log file location.
func (c *Config) LogPath() string {
	return filepath.Join(c.Paths.LogDir, "vigil.log")
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
