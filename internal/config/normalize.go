package config

import "strings"

func (c *Config) normalize() error {
	c.Backend.BaseURL = strings.TrimRight(strings.TrimSpace(c.Backend.BaseURL), "/")
	if c.Backend.BaseURL == "" {
		c.Backend.BaseURL = defaultBackendBaseURL
	}
	if c.Backend.RequestTimeout <= 0 {
		c.Backend.RequestTimeout = defaultBackendRequestTimeout
	}

	c.Uploads.AcceptedMediaTypes = normalizeMediaTypes(c.Uploads.AcceptedMediaTypes)
	if len(c.Uploads.AcceptedMediaTypes) == 0 {
		c.Uploads.AcceptedMediaTypes = append([]string(nil), defaultAcceptedMediaTypes...)
	}
	if c.Uploads.MaxSizeMiB < 0 {
		c.Uploads.MaxSizeMiB = 0
	}

	if c.Processing.PollTickMillis <= 0 {
		c.Processing.PollTickMillis = defaultPollTickMillis
	}
	if c.Processing.PollTimeout <= 0 {
		c.Processing.PollTimeout = defaultPollTimeout
	}
	if c.Processing.ProgressCeiling <= 0 {
		c.Processing.ProgressCeiling = defaultProgressCeiling
	}
	if c.Processing.ProgressStepMin <= 0 {
		c.Processing.ProgressStepMin = defaultProgressStepMin
	}
	if c.Processing.ProgressStepMax <= 0 {
		c.Processing.ProgressStepMax = defaultProgressStepMax
	}

	if c.Preview.RefreshInterval <= 0 {
		c.Preview.RefreshInterval = defaultPreviewRefresh
	}
	if c.Preview.DataReloadInterval <= 0 {
		c.Preview.DataReloadInterval = defaultDataReload
	}
	if c.Preview.StreamProbeTimeout <= 0 {
		c.Preview.StreamProbeTimeout = defaultStreamProbeTimeout
	}

	if c.Retry.MaxAttempts <= 0 {
		c.Retry.MaxAttempts = defaultRetryMaxAttempts
	}
	if c.Retry.BaseDelayMillis <= 0 {
		c.Retry.BaseDelayMillis = defaultRetryBaseDelayMillis
	}

	c.Notifications.NtfyTopic = strings.TrimSpace(c.Notifications.NtfyTopic)
	if c.Notifications.RequestTimeout <= 0 {
		c.Notifications.RequestTimeout = defaultNotifyRequestTimeout
	}

	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}

	for _, field := range []*string{&c.Paths.LogDir, &c.Paths.SnapshotDir} {
		trimmed := strings.TrimSpace(*field)
		if trimmed == "" {
			continue
		}
		expanded, err := expandPath(trimmed)
		if err != nil {
			return err
		}
		*field = expanded
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		expanded, err := expandPath(defaultLogDir)
		if err != nil {
			return err
		}
		c.Paths.LogDir = expanded
	}
	if strings.TrimSpace(c.Paths.SnapshotDir) == "" {
		expanded, err := expandPath(defaultSnapshotDir)
		if err != nil {
			return err
		}
		c.Paths.SnapshotDir = expanded
	}

	return nil
}

func normalizeMediaTypes(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	normalized := make([]string, 0, len(values))
	for _, value := range values {
		trimmed := strings.ToLower(strings.TrimSpace(value))
		if trimmed == "" {
			continue
		}
		if _, ok := seen[trimmed]; ok {
			continue
		}
		seen[trimmed] = struct{}{}
		normalized = append(normalized, trimmed)
	}
	return normalized
}
