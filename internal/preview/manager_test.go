package preview_test

import (
	"context"
	"errors"
	"os"
	"sync"
	"testing"
	"time"

	"vigil/internal/backend"
	"vigil/internal/fetch"
	"vigil/internal/preview"
	"vigil/internal/services"
	"vigil/internal/testsupport"
)

type fakeBackend struct {
	mu sync.Mutex

	cameras    []backend.Camera
	camerasErr error
	videos     []backend.Video
	videosErr  error
	uploads    []backend.UploadedVideo
	uploadsErr error

	streamInfoErr error
	snapshotErr   map[int64]error

	cameraListCalls int
}

func (f *fakeBackend) ListCameras(context.Context) ([]backend.Camera, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cameraListCalls++
	if f.camerasErr != nil {
		return nil, f.camerasErr
	}
	return f.cameras, nil
}

func (f *fakeBackend) ListVideos(context.Context) ([]backend.Video, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.videosErr != nil {
		return nil, f.videosErr
	}
	return f.videos, nil
}

func (f *fakeBackend) ListUploadedVideos(context.Context) ([]backend.UploadedVideo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.uploadsErr != nil {
		return nil, f.uploadsErr
	}
	return f.uploads, nil
}

func (f *fakeBackend) StreamInfo(_ context.Context, cameraID int64) (*backend.StreamInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.streamInfoErr != nil {
		return nil, f.streamInfoErr
	}
	return &backend.StreamInfo{
		CameraID:   cameraID,
		CameraName: "gate",
		RTSPURL:    "rtsp://user:pw@10.0.0.8:554/stream1",
	}, nil
}

func (f *fakeBackend) Snapshot(_ context.Context, cameraID int64) (*backend.Snapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.snapshotErr[cameraID]; err != nil {
		return nil, err
	}
	return &backend.Snapshot{ContentType: "image/jpeg", Data: []byte{0xFF, 0xD8, 0xFF}}, nil
}

type fakeTransport struct {
	err error
}

func (f *fakeTransport) Probe(context.Context, string) error { return f.err }

func noSleepRetrier(maxAttempts int, opts ...fetch.Option) *fetch.Retrier {
	opts = append(opts, fetch.WithSleep(func(context.Context, time.Duration) error { return nil }))
	return fetch.New(maxAttempts, time.Millisecond, nil, opts...)
}

func newManager(t *testing.T, be *fakeBackend, transport preview.Transport, notifier *testsupport.Notifier) *preview.Manager {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	return preview.NewManager(cfg, be, nil, notifier,
		preview.WithTransport(transport),
		preview.WithRetrier(noSleepRetrier(cfg.Retry.MaxAttempts)))
}

func TestOpenUsesStreamWhenTransportAnswers(t *testing.T) {
	manager := newManager(t, &fakeBackend{}, &fakeTransport{}, &testsupport.Notifier{})

	session, err := manager.Open(context.Background(), 3)
	if err != nil {
		t.Fatalf("Open returned error: %v", err)
	}
	if session.Mode != preview.ModeStream {
		t.Fatalf("mode = %s", session.Mode)
	}
	if session.CameraName != "gate" || session.StreamURL == "" {
		t.Fatalf("metadata not recorded: %+v", session)
	}
}

func TestOpenFallsBackToSnapshot(t *testing.T) {
	manager := newManager(t, &fakeBackend{}, &fakeTransport{err: errors.New("connection refused")}, &testsupport.Notifier{})

	session, err := manager.Open(context.Background(), 3)
	if err != nil {
		t.Fatalf("Open returned error: %v", err)
	}
	if session.Mode != preview.ModeSnapshot {
		t.Fatalf("mode = %s", session.Mode)
	}
	if !session.HasSnapshot() || session.SnapshotType != "image/jpeg" {
		t.Fatalf("snapshot not recorded: %+v", session)
	}
}

func TestOpenGoesOfflineWhenBothTiersFail(t *testing.T) {
	be := &fakeBackend{snapshotErr: map[int64]error{3: errors.New("capture failed")}}
	notifier := &testsupport.Notifier{}
	manager := newManager(t, be, &fakeTransport{err: errors.New("refused")}, notifier)

	session, err := manager.Open(context.Background(), 3)
	if err != nil {
		t.Fatalf("Open returned error: %v", err)
	}
	if session.Mode != preview.ModeOffline {
		t.Fatalf("mode = %s", session.Mode)
	}
	if session.LastError == "" {
		t.Fatal("expected capture failure recorded")
	}
	if failures := notifier.SnapshotFailures(); len(failures) != 1 || failures[0] != "gate" {
		t.Fatalf("snapshot failure notifications = %v", failures)
	}
}

func TestOpenMetadataFailureLeavesCameraUnpreviewed(t *testing.T) {
	be := &fakeBackend{streamInfoErr: errors.New("boom")}
	manager := newManager(t, be, &fakeTransport{}, &testsupport.Notifier{})

	if _, err := manager.Open(context.Background(), 3); !errors.Is(err, services.ErrBackend) {
		t.Fatalf("expected backend error, got %v", err)
	}
	if manager.Session(3) != nil {
		t.Fatal("session should not exist after metadata failure")
	}
}

func TestCloseAndManualControlsAreNoopsWithoutSession(t *testing.T) {
	manager := newManager(t, &fakeBackend{}, &fakeTransport{}, &testsupport.Notifier{})

	manager.Close(7)

	session, err := manager.RefreshStream(context.Background(), 7)
	if err != nil || session != nil {
		t.Fatalf("RefreshStream without session = (%v, %v)", session, err)
	}

	path, err := manager.CaptureSnapshot(context.Background(), 7)
	if err != nil || path != "" {
		t.Fatalf("CaptureSnapshot without session = (%q, %v)", path, err)
	}
}

func TestCaptureSnapshotWritesFile(t *testing.T) {
	manager := newManager(t, &fakeBackend{}, &fakeTransport{}, &testsupport.Notifier{})
	if _, err := manager.Open(context.Background(), 3); err != nil {
		t.Fatalf("Open returned error: %v", err)
	}

	path, err := manager.CaptureSnapshot(context.Background(), 3)
	if err != nil {
		t.Fatalf("CaptureSnapshot returned error: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read captured snapshot: %v", err)
	}
	if len(data) != 3 {
		t.Fatalf("snapshot size = %d", len(data))
	}
}

func TestRefreshAllTagsCamerasIndependently(t *testing.T) {
	be := &fakeBackend{
		cameras: []backend.Camera{
			{ID: 1, Name: "gate"},
			{ID: 2, Name: "lot"},
		},
		snapshotErr: map[int64]error{2: errors.New("capture failed")},
	}
	manager := newManager(t, be, &fakeTransport{}, &testsupport.Notifier{})
	if err := manager.ReloadData(context.Background()); err != nil {
		t.Fatalf("ReloadData returned error: %v", err)
	}

	manager.RefreshAll(context.Background())

	statuses := manager.Statuses()
	if len(statuses) != 2 {
		t.Fatalf("statuses = %+v", statuses)
	}
	byID := map[int64]bool{}
	for _, status := range statuses {
		byID[status.Camera.ID] = status.Online
	}
	if !byID[1] || byID[2] {
		t.Fatalf("online tags = %v", byID)
	}
}

func TestReloadDataRetriesAndRecovers(t *testing.T) {
	be := &fakeBackend{
		cameras:    []backend.Camera{{ID: 1, Name: "gate"}},
		camerasErr: errors.New("connection refused"),
	}
	cleared := false
	// The retrier's sleep hook clears the fault, simulating the backend
	// coming back between attempts.
	manager := preview.NewManager(testsupport.NewConfig(t), be, nil, &testsupport.Notifier{},
		preview.WithTransport(&fakeTransport{}),
		preview.WithRetrier(fetch.New(3, time.Millisecond, nil,
			fetch.WithSleep(func(context.Context, time.Duration) error {
				if !cleared {
					be.mu.Lock()
					be.camerasErr = nil
					be.mu.Unlock()
					cleared = true
				}
				return nil
			}))))

	if err := manager.ReloadData(context.Background()); err != nil {
		t.Fatalf("ReloadData returned error: %v", err)
	}
	if cameras := manager.Cameras(); len(cameras) != 1 || cameras[0].Name != "gate" {
		t.Fatalf("cameras = %+v", cameras)
	}
}

func TestReloadDataExhaustionNotifies(t *testing.T) {
	be := &fakeBackend{camerasErr: errors.New("connection refused")}
	notifier := &testsupport.Notifier{}
	cfg := testsupport.NewConfig(t)
	manager := preview.NewManager(cfg, be, nil, notifier,
		preview.WithTransport(&fakeTransport{}),
		preview.WithRetrier(noSleepRetrier(2, fetch.WithExhausted(func(ctx context.Context, key string, attempts int, err error) {
			_ = notifier.NotifyFetchExhausted(ctx, key, attempts)
		}))))

	if err := manager.ReloadData(context.Background()); err == nil {
		t.Fatal("expected error after exhaustion")
	}
	found := false
	for _, resource := range notifier.FetchExhausted {
		if resource == "cameras" {
			found = true
		}
	}
	if !found {
		t.Fatalf("exhaustion notifications = %v", notifier.FetchExhausted)
	}
}
