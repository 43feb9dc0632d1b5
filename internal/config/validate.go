package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

var validLogFormats = map[string]struct{}{
	"console": {},
	"json":    {},
}

var validLogLevels = map[string]struct{}{
	"debug": {},
	"info":  {},
	"warn":  {},
	"error": {},
}

// Validate checks configuration invariants after normalization.
func (c *Config) Validate() error {
	var problems []string

	parsed, err := url.Parse(c.Backend.BaseURL)
	if err != nil || parsed.Host == "" || (parsed.Scheme != "http" && parsed.Scheme != "https") {
		problems = append(problems, fmt.Sprintf("backend.base_url %q must be an http or https URL", c.Backend.BaseURL))
	}

	for _, mediaType := range c.Uploads.AcceptedMediaTypes {
		if !strings.Contains(mediaType, "/") {
			problems = append(problems, fmt.Sprintf("uploads.accepted_media_types entry %q is not a media type", mediaType))
		}
	}

	if c.Processing.ProgressCeiling > 99 {
		problems = append(problems, "processing.progress_ceiling must stay below 100; only confirmed completion reports 100")
	}
	if c.Processing.ProgressStepMin > c.Processing.ProgressStepMax {
		problems = append(problems, fmt.Sprintf(
			"processing.progress_step_min %d exceeds progress_step_max %d",
			c.Processing.ProgressStepMin, c.Processing.ProgressStepMax))
	}
	if tick, timeout := c.PollTick(), c.PollTimeout(); tick >= timeout {
		problems = append(problems, fmt.Sprintf(
			"processing.poll_tick_millis %v must be shorter than poll_timeout %v", tick, timeout))
	}

	if _, ok := validLogFormats[c.Logging.Format]; !ok {
		problems = append(problems, fmt.Sprintf("logging.format %q must be console or json", c.Logging.Format))
	}
	if _, ok := validLogLevels[c.Logging.Level]; !ok {
		problems = append(problems, fmt.Sprintf("logging.level %q must be debug, info, warn, or error", c.Logging.Level))
	}

	if len(problems) > 0 {
		return errors.New("invalid configuration: " + strings.Join(problems, "; "))
	}
	return nil
}
