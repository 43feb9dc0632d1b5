package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"vigil/internal/config"
)

const userAgent = "Vigil/0.1.0"

// Service defines the notification surface exposed to the daemon
// components.
type Service interface {
	NotifyUploadCompleted(ctx context.Context, filename string) error
	NotifyProcessingCompleted(ctx context.Context, filename string, duration time.Duration) error
	NotifyProcessingFailed(ctx context.Context, filename, reason string) error
	NotifyProcessingTimeout(ctx context.Context, filename string, waited time.Duration) error
	NotifyFetchExhausted(ctx context.Context, resource string, attempts int) error
	NotifySnapshotFailed(ctx context.Context, cameraName string) error
	NotifyError(ctx context.Context, err error, context string) error
	TestNotification(ctx context.Context) error
}

// NewService builds a notification service backed by ntfy when configured.
// When no ntfy topic is configured, a noop implementation is returned.
func NewService(cfg *config.Config) Service {
	topic := strings.TrimSpace(cfg.Notifications.NtfyTopic)
	if topic == "" {
		return noopService{}
	}

	timeout := cfg.NotificationTimeout()
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	client := &http.Client{Timeout: timeout}
	return &ntfyService{
		endpoint: topic,
		client:   client,
	}
}

type payload struct {
	title    string
	message  string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint string
	client   *http.Client
}

func (n *ntfyService) NotifyUploadCompleted(ctx context.Context, filename string) error {
	filename = strings.TrimSpace(filename)
	data := payload{
		title:   "Vigil - Upload Complete",
		message: fmt.Sprintf("Uploaded: %s", filename),
		tags:    []string{"vigil", "upload", "completed"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyProcessingCompleted(ctx context.Context, filename string, duration time.Duration) error {
	filename = strings.TrimSpace(filename)
	duration = duration.Round(time.Second)
	if duration < 0 {
		duration = 0
	}
	data := payload{
		title:    "Vigil - Analysis Complete",
		message:  fmt.Sprintf("Analysis complete: %s (%s)", filename, duration),
		tags:     []string{"vigil", "analysis", "completed"},
		priority: "high",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyProcessingFailed(ctx context.Context, filename, reason string) error {
	filename = strings.TrimSpace(filename)
	reason = strings.TrimSpace(reason)
	if reason == "" {
		reason = "unknown"
	}
	data := payload{
		title:    "Vigil - Analysis Failed",
		message:  fmt.Sprintf("Analysis failed: %s\nReason: %s", filename, reason),
		tags:     []string{"vigil", "analysis", "failed"},
		priority: "high",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyProcessingTimeout(ctx context.Context, filename string, waited time.Duration) error {
	filename = strings.TrimSpace(filename)
	waited = waited.Round(time.Second)
	if waited < 0 {
		waited = 0
	}
	data := payload{
		title:    "Vigil - Analysis Timed Out",
		message:  fmt.Sprintf("No result for %s after %s", filename, waited),
		tags:     []string{"vigil", "analysis", "timeout"},
		priority: "high",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyFetchExhausted(ctx context.Context, resource string, attempts int) error {
	resource = strings.TrimSpace(resource)
	data := payload{
		title:   "Vigil - Backend Unreachable",
		message: fmt.Sprintf("Could not load %s after %d attempts", resource, attempts),
		tags:    []string{"vigil", "fetch", "exhausted"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifySnapshotFailed(ctx context.Context, cameraName string) error {
	cameraName = strings.TrimSpace(cameraName)
	data := payload{
		title:   "Vigil - Camera Offline",
		message: fmt.Sprintf("No stream or snapshot available for camera: %s", cameraName),
		tags:    []string{"vigil", "preview", "offline"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyError(ctx context.Context, err error, contextLabel string) error {
	var builder strings.Builder
	builder.WriteString("Error")
	if contextLabel = strings.TrimSpace(contextLabel); contextLabel != "" {
		builder.WriteString(" with ")
		builder.WriteString(contextLabel)
	}
	builder.WriteString(": ")
	if err != nil {
		builder.WriteString(strings.TrimSpace(err.Error()))
	} else {
		builder.WriteString("unknown")
	}

	data := payload{
		title:    "Vigil - Error",
		message:  builder.String(),
		tags:     []string{"vigil", "error", "alert"},
		priority: "high",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) TestNotification(ctx context.Context) error {
	data := payload{
		title:    "Vigil - Test",
		message:  "Notification system test",
		tags:     []string{"vigil", "test"},
		priority: "low",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) send(ctx context.Context, data payload) error {
	if n == nil || n.client == nil {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(data.message))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	if data.title != "" {
		req.Header.Set("Title", data.title)
	}
	if len(data.tags) > 0 {
		req.Header.Set("Tags", strings.Join(data.tags, ","))
	}
	if data.priority != "" && data.priority != "default" {
		req.Header.Set("Priority", data.priority)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send ntfy notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("ntfy returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

type noopService struct{}

func (noopService) NotifyUploadCompleted(context.Context, string) error                        { return nil }
func (noopService) NotifyProcessingCompleted(context.Context, string, time.Duration) error     { return nil }
func (noopService) NotifyProcessingFailed(context.Context, string, string) error               { return nil }
func (noopService) NotifyProcessingTimeout(context.Context, string, time.Duration) error       { return nil }
func (noopService) NotifyFetchExhausted(context.Context, string, int) error                    { return nil }
func (noopService) NotifySnapshotFailed(context.Context, string) error                         { return nil }
func (noopService) NotifyError(context.Context, error, string) error                           { return nil }
func (noopService) TestNotification(context.Context) error                                     { return nil }
