package config

const (
	defaultBackendBaseURL        = "http://127.0.0.1:5000"
	defaultBackendRequestTimeout = 30
	defaultUploadMaxSizeMiB      = 2048
	defaultPollTickMillis        = 800
	defaultPollTimeout           = 600
	defaultProgressCeiling       = 90
	defaultProgressStepMin       = 2
	defaultProgressStepMax       = 10
	defaultPreviewRefresh        = 10
	defaultDataReload            = 30
	defaultStreamProbeTimeout    = 5
	defaultRetryMaxAttempts      = 3
	defaultRetryBaseDelayMillis  = 1000
	defaultNotifyRequestTimeout  = 10
	defaultLogFormat             = "console"
	defaultLogLevel              = "info"
	defaultLogDir                = "~/.local/share/vigil/logs"
	defaultSnapshotDir           = "~/.local/share/vigil/snapshots"
)

// defaultAcceptedMediaTypes mirrors the backend's container allow list
// (mp4, avi, mov, mkv).
var defaultAcceptedMediaTypes = []string{
	"video/mp4",
	"video/x-msvideo",
	"video/quicktime",
	"video/x-matroska",
}

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Backend: Backend{
			BaseURL:        defaultBackendBaseURL,
			RequestTimeout: defaultBackendRequestTimeout,
		},
		Uploads: Uploads{
			AcceptedMediaTypes: append([]string(nil), defaultAcceptedMediaTypes...),
			MaxSizeMiB:         defaultUploadMaxSizeMiB,
		},
		Processing: Processing{
			PollTickMillis:  defaultPollTickMillis,
			PollTimeout:     defaultPollTimeout,
			ProgressCeiling: defaultProgressCeiling,
			ProgressStepMin: defaultProgressStepMin,
			ProgressStepMax: defaultProgressStepMax,
		},
		Preview: Preview{
			RefreshInterval:    defaultPreviewRefresh,
			DataReloadInterval: defaultDataReload,
			StreamProbeTimeout: defaultStreamProbeTimeout,
		},
		Retry: Retry{
			MaxAttempts:     defaultRetryMaxAttempts,
			BaseDelayMillis: defaultRetryBaseDelayMillis,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNotifyRequestTimeout,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
		Paths: Paths{
			LogDir:      defaultLogDir,
			SnapshotDir: defaultSnapshotDir,
		},
	}
}
