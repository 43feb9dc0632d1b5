package backend_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"vigil/internal/backend"
)

func newClient(t *testing.T, url string) *backend.Client {
	t.Helper()
	client, err := backend.New(url, 5*time.Second)
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	return client
}

func TestNewRejectsBadURL(t *testing.T) {
	if _, err := backend.New("", time.Second); err == nil {
		t.Fatal("expected error for empty base url")
	}
	if _, err := backend.New("ftp://host", time.Second); err == nil {
		t.Fatal("expected error for non-http scheme")
	}
}

func TestUploadVideo(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/upload-video" || r.Method != http.MethodPost {
			t.Fatalf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if r.Header.Get("X-Request-ID") == "" {
			t.Fatal("missing request id header")
		}
		file, header, err := r.FormFile("video")
		if err != nil {
			t.Fatalf("missing video form field: %v", err)
		}
		defer file.Close()
		if header.Filename != "clip.mp4" {
			t.Fatalf("filename = %q", header.Filename)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"success":true,"filename":"upload_clip.mp4","duration":4.2,"fps":30,"frame_count":126,"width":640,"height":480,"file_size":9}`))
	}))
	t.Cleanup(server.Close)

	dir := t.TempDir()
	path := filepath.Join(dir, "clip.mp4")
	if err := os.WriteFile(path, []byte("videodata"), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	result, err := newClient(t, server.URL).UploadVideo(context.Background(), path)
	if err != nil {
		t.Fatalf("UploadVideo returned error: %v", err)
	}
	if result.Filename != "upload_clip.mp4" || result.Duration != 4.2 || result.Width != 640 {
		t.Fatalf("unexpected result %+v", result)
	}
}

func TestStartProcessingCarriesBackendError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":"Video file not found"}`))
	}))
	t.Cleanup(server.Close)

	_, err := newClient(t, server.URL).StartProcessing(context.Background(), backend.ProcessRequest{Filename: "ghost.mp4"})
	var apiErr *backend.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %v", err)
	}
	if apiErr.StatusCode != http.StatusNotFound || apiErr.Message != "Video file not found" {
		t.Fatalf("unexpected APIError %+v", apiErr)
	}
}

func TestStartProcessingSuccess(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/process-video" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"success":true,"processed_filename":"processed_clip.mp4"}`))
	}))
	t.Cleanup(server.Close)

	result, err := newClient(t, server.URL).StartProcessing(context.Background(), backend.ProcessRequest{
		Filename:      "upload_clip.mp4",
		Depersonalize: true,
	})
	if err != nil {
		t.Fatalf("StartProcessing returned error: %v", err)
	}
	if result.ProcessedFilename != "processed_clip.mp4" {
		t.Fatalf("unexpected result %+v", result)
	}
}

func TestProbeProcessedNotReadyIsNotAnError(t *testing.T) {
	var status = http.StatusNotFound
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
	}))
	t.Cleanup(server.Close)

	client := newClient(t, server.URL)
	ready, err := client.ProbeProcessed(context.Background(), "processed_clip.mp4")
	if err != nil {
		t.Fatalf("ProbeProcessed returned error: %v", err)
	}
	if ready {
		t.Fatal("expected not ready")
	}

	status = http.StatusOK
	ready, err = client.ProbeProcessed(context.Background(), "processed_clip.mp4")
	if err != nil {
		t.Fatalf("ProbeProcessed returned error: %v", err)
	}
	if !ready {
		t.Fatal("expected ready")
	}
}

func TestListCameras(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/cameras" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"id":1,"name":"gate","ip_address":"10.0.0.8","port":554,"rtsp_path":"/stream1","enabled":true}]`))
	}))
	t.Cleanup(server.Close)

	cameras, err := newClient(t, server.URL).ListCameras(context.Background())
	if err != nil {
		t.Fatalf("ListCameras returned error: %v", err)
	}
	if len(cameras) != 1 || cameras[0].Name != "gate" || cameras[0].Port != 554 {
		t.Fatalf("unexpected cameras %+v", cameras)
	}
}

func TestStreamInfoAndSnapshot(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/stream/3":
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"camera_id":3,"camera_name":"lot","rtsp_url":"rtsp://user:pw@10.0.0.9:554/stream1"}`))
		case "/api/stream/3/snapshot":
			w.Header().Set("Content-Type", "image/jpeg")
			_, _ = w.Write([]byte{0xFF, 0xD8, 0xFF})
		default:
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
	}))
	t.Cleanup(server.Close)

	client := newClient(t, server.URL)
	info, err := client.StreamInfo(context.Background(), 3)
	if err != nil {
		t.Fatalf("StreamInfo returned error: %v", err)
	}
	if info.CameraName != "lot" || info.RTSPURL == "" {
		t.Fatalf("unexpected info %+v", info)
	}

	snap, err := client.Snapshot(context.Background(), 3)
	if err != nil {
		t.Fatalf("Snapshot returned error: %v", err)
	}
	if snap.ContentType != "image/jpeg" || len(snap.Data) != 3 {
		t.Fatalf("unexpected snapshot %+v", snap)
	}
}

func TestSnapshotFailureIsError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"Could not capture frame"}`))
	}))
	t.Cleanup(server.Close)

	_, err := newClient(t, server.URL).Snapshot(context.Background(), 1)
	var apiErr *backend.APIError
	if !errors.As(err, &apiErr) || apiErr.Message != "Could not capture frame" {
		t.Fatalf("expected capture error, got %v", err)
	}
}
