package notifications_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"vigil/internal/config"
	"vigil/internal/notifications"
)

func TestNewServiceReturnsNoopWhenTopicMissing(t *testing.T) {
	cfg := config.Default()
	cfg.Notifications.NtfyTopic = ""
	svc := notifications.NewService(&cfg)
	if err := svc.NotifyUploadCompleted(context.Background(), "clip.mp4"); err != nil {
		t.Fatalf("expected noop notifier to return nil, got %v", err)
	}
	if err := svc.TestNotification(context.Background()); err != nil {
		t.Fatalf("expected noop notifier to return nil, got %v", err)
	}
}

func TestNtfyServiceFormatsPayloads(t *testing.T) {
	tests := []struct {
		name           string
		notify         func(svc notifications.Service) error
		expectTitle    string
		expectMessage  string
		expectTags     string
		expectPriority string
	}{
		{
			name: "upload completed",
			notify: func(svc notifications.Service) error {
				return svc.NotifyUploadCompleted(context.Background(), "clip.mp4")
			},
			expectTitle:   "Vigil - Upload Complete",
			expectMessage: "Uploaded: clip.mp4",
			expectTags:    "vigil,upload,completed",
		},
		{
			name: "processing completed",
			notify: func(svc notifications.Service) error {
				return svc.NotifyProcessingCompleted(context.Background(), "processed_clip.mp4", 92*time.Second)
			},
			expectTitle:    "Vigil - Analysis Complete",
			expectMessage:  "Analysis complete: processed_clip.mp4 (1m32s)",
			expectTags:     "vigil,analysis,completed",
			expectPriority: "high",
		},
		{
			name: "processing failed",
			notify: func(svc notifications.Service) error {
				return svc.NotifyProcessingFailed(context.Background(), "clip.mp4", "Video file not found")
			},
			expectTitle:    "Vigil - Analysis Failed",
			expectMessage:  "Analysis failed: clip.mp4\nReason: Video file not found",
			expectTags:     "vigil,analysis,failed",
			expectPriority: "high",
		},
		{
			name: "processing timeout",
			notify: func(svc notifications.Service) error {
				return svc.NotifyProcessingTimeout(context.Background(), "clip.mp4", 10*time.Minute)
			},
			expectTitle:    "Vigil - Analysis Timed Out",
			expectMessage:  "No result for clip.mp4 after 10m0s",
			expectTags:     "vigil,analysis,timeout",
			expectPriority: "high",
		},
		{
			name: "fetch exhausted",
			notify: func(svc notifications.Service) error {
				return svc.NotifyFetchExhausted(context.Background(), "cameras", 3)
			},
			expectTitle:   "Vigil - Backend Unreachable",
			expectMessage: "Could not load cameras after 3 attempts",
			expectTags:    "vigil,fetch,exhausted",
		},
		{
			name: "snapshot failed",
			notify: func(svc notifications.Service) error {
				return svc.NotifySnapshotFailed(context.Background(), "gate")
			},
			expectTitle:   "Vigil - Camera Offline",
			expectMessage: "No stream or snapshot available for camera: gate",
			expectTags:    "vigil,preview,offline",
		},
		{
			name: "error",
			notify: func(svc notifications.Service) error {
				return svc.NotifyError(context.Background(), errors.New("connection refused"), "upload")
			},
			expectTitle:    "Vigil - Error",
			expectMessage:  "Error with upload: connection refused",
			expectTags:     "vigil,error,alert",
			expectPriority: "high",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var captured struct {
				title    string
				tags     string
				priority string
				body     string
			}

			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.Method != http.MethodPost {
					t.Fatalf("unexpected method: %s", r.Method)
				}
				captured.title = r.Header.Get("Title")
				captured.tags = r.Header.Get("Tags")
				captured.priority = r.Header.Get("Priority")
				body, err := io.ReadAll(r.Body)
				if err != nil {
					t.Fatalf("read body: %v", err)
				}
				captured.body = string(body)
				_ = r.Body.Close()
				w.WriteHeader(http.StatusOK)
			}))
			defer server.Close()

			cfg := config.Default()
			cfg.Notifications.NtfyTopic = server.URL
			cfg.Notifications.RequestTimeout = 5

			svc := notifications.NewService(&cfg)
			if err := tc.notify(svc); err != nil {
				t.Fatalf("notification returned error: %v", err)
			}

			if captured.title != tc.expectTitle {
				t.Fatalf("expected title %q, got %q", tc.expectTitle, captured.title)
			}
			if captured.body != tc.expectMessage {
				t.Fatalf("expected message %q, got %q", tc.expectMessage, captured.body)
			}
			if captured.tags != tc.expectTags {
				t.Fatalf("expected tags %q, got %q", tc.expectTags, captured.tags)
			}
			if captured.priority != tc.expectPriority {
				t.Fatalf("expected priority %q, got %q", tc.expectPriority, captured.priority)
			}
		})
	}
}

func TestNtfyServiceSurfacesHTTPFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte("forbidden"))
	}))
	defer server.Close()

	cfg := config.Default()
	cfg.Notifications.NtfyTopic = server.URL

	svc := notifications.NewService(&cfg)
	if err := svc.TestNotification(context.Background()); err == nil {
		t.Fatal("expected error for non-2xx ntfy response")
	}
}
