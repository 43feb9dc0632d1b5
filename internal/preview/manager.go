package preview

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"vigil/internal/backend"
	"vigil/internal/config"
	"vigil/internal/fetch"
	"vigil/internal/logging"
	"vigil/internal/notifications"
	"vigil/internal/services"
)

// Backend is the slice of the backend client the preview manager uses.
type Backend interface {
	ListCameras(ctx context.Context) ([]backend.Camera, error)
	ListVideos(ctx context.Context) ([]backend.Video, error)
	ListUploadedVideos(ctx context.Context) ([]backend.UploadedVideo, error)
	StreamInfo(ctx context.Context, cameraID int64) (*backend.StreamInfo, error)
	Snapshot(ctx context.Context, cameraID int64) (*backend.Snapshot, error)
}

// CameraStatus is one row of the aggregate preview panel.
type CameraStatus struct {
	Camera backend.Camera
	Online bool
}

// Manager owns the per-camera preview sessions and the periodic refresh
// loops. Camera state machines are independent; one camera going
// offline never disturbs another's session.
type Manager struct {
	cfg       *config.Config
	client    Backend
	transport Transport
	retrier   *fetch.Retrier
	logger    *slog.Logger
	notifier  notifications.Service

	mu       sync.RWMutex
	sessions map[int64]*Session
	cameras  []backend.Camera
	videos   []backend.Video
	uploads  []backend.UploadedVideo
	online   map[int64]bool
}

// Option adjusts Manager construction.
type Option func(*Manager)

// WithTransport replaces the stream prober.
func WithTransport(transport Transport) Option {
	return func(m *Manager) { m.transport = transport }
}

// WithRetrier replaces the resource-load retrier.
func WithRetrier(retrier *fetch.Retrier) Option {
	return func(m *Manager) { m.retrier = retrier }
}

// NewManager constructs the preview manager.
func NewManager(cfg *config.Config, client Backend, logger *slog.Logger, notifier notifications.Service, opts ...Option) *Manager {
	if logger == nil {
		logger = logging.NewNop()
	}
	if notifier == nil {
		notifier = notifications.NewService(cfg)
	}
	m := &Manager{
		cfg:       cfg,
		client:    client,
		transport: NewRTSPTransport(cfg.StreamProbeTimeout()),
		logger:    logger.With(logging.String(logging.FieldComponent, "preview")),
		notifier:  notifier,
		sessions:  make(map[int64]*Session),
		online:    make(map[int64]bool),
	}
	m.retrier = fetch.New(cfg.Retry.MaxAttempts, cfg.RetryBaseDelay(), m.logger,
		fetch.WithExhausted(func(ctx context.Context, key string, attempts int, err error) {
			if notifyErr := m.notifier.NotifyFetchExhausted(ctx, key, attempts); notifyErr != nil {
				m.logger.Warn("fetch exhaustion notification failed", logging.Error(notifyErr))
			}
		}))
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Open starts a preview session for a camera: first the direct stream
// transport, then a single still image, then offline. A metadata
// failure leaves the camera unpreviewed and is returned as an error.
func (m *Manager) Open(ctx context.Context, cameraID int64) (*Session, error) {
	ctx = services.WithCameraID(ctx, cameraID)
	logger := m.logger.With(logging.Int64(logging.FieldCameraID, cameraID))

	info, err := m.client.StreamInfo(ctx, cameraID)
	if err != nil {
		return nil, services.Wrap(services.ErrBackend, "preview", "open", fmt.Sprintf("stream metadata for camera %d", cameraID), err)
	}

	session := &Session{
		CameraID:   info.CameraID,
		CameraName: info.CameraName,
		StreamURL:  info.RTSPURL,
		UpdatedAt:  time.Now(),
	}

	if err := m.transport.Probe(ctx, info.RTSPURL); err == nil {
		session.Mode = ModeStream
		logger.Info("preview using direct stream")
	} else {
		logger.Warn("stream transport failed, falling back to snapshot", logging.Error(err))
		m.fallbackToSnapshot(ctx, logger, session)
	}

	m.mu.Lock()
	m.sessions[session.CameraID] = session
	m.mu.Unlock()
	return session.clone(), nil
}

// fallbackToSnapshot fills the session from the still-image tier, or
// marks it offline for this cycle when that fails too.
func (m *Manager) fallbackToSnapshot(ctx context.Context, logger *slog.Logger, session *Session) {
	snap, err := m.client.Snapshot(ctx, session.CameraID)
	if err != nil {
		session.Mode = ModeOffline
		session.LastError = err.Error()
		logger.Warn("snapshot fallback failed, camera offline", logging.Error(err))
		if notifyErr := m.notifier.NotifySnapshotFailed(ctx, session.CameraName); notifyErr != nil {
			logger.Warn("snapshot failure notification failed", logging.Error(notifyErr))
		}
		return
	}
	session.Mode = ModeSnapshot
	session.Snapshot = snap.Data
	session.SnapshotType = snap.ContentType
	session.LastError = ""
	logger.Info("preview using snapshot fallback", logging.Int("bytes", len(snap.Data)))
}

// Close dismisses a camera's preview session. Closing an unknown camera
// is a no-op.
func (m *Manager) Close(cameraID int64) {
	m.mu.Lock()
	delete(m.sessions, cameraID)
	m.mu.Unlock()
}

// Session returns a copy of the camera's session, or nil when none exists.
func (m *Manager) Session(cameraID int64) *Session {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.sessions[cameraID].clone()
}

// Sessions returns copies of all live sessions.
func (m *Manager) Sessions() []*Session {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*Session, 0, len(m.sessions))
	for _, session := range m.sessions {
		out = append(out, session.clone())
	}
	return out
}

// RefreshStream re-runs the transport ladder for an open session. It is
// a no-op when the camera has no session.
func (m *Manager) RefreshStream(ctx context.Context, cameraID int64) (*Session, error) {
	m.mu.RLock()
	_, exists := m.sessions[cameraID]
	m.mu.RUnlock()
	if !exists {
		return nil, nil
	}
	return m.Open(ctx, cameraID)
}

// CaptureSnapshot grabs a fresh still for an open session and writes it
// under the configured snapshot directory. It is a no-op when the
// camera has no session.
func (m *Manager) CaptureSnapshot(ctx context.Context, cameraID int64) (string, error) {
	m.mu.RLock()
	session := m.sessions[cameraID].clone()
	m.mu.RUnlock()
	if session == nil {
		return "", nil
	}

	snap, err := m.client.Snapshot(services.WithCameraID(ctx, cameraID), cameraID)
	if err != nil {
		return "", services.Wrap(services.ErrBackend, "preview", "capture", fmt.Sprintf("snapshot for camera %d", cameraID), err)
	}

	if err := os.MkdirAll(m.cfg.Paths.SnapshotDir, 0o755); err != nil {
		return "", services.Wrap(services.ErrConfiguration, "preview", "capture", "create snapshot directory", err)
	}
	name := fmt.Sprintf("camera_%d_%s.jpg", cameraID, time.Now().Format("20060102_150405"))
	path := filepath.Join(m.cfg.Paths.SnapshotDir, name)
	if err := os.WriteFile(path, snap.Data, 0o644); err != nil {
		return "", services.Wrap(services.ErrConfiguration, "preview", "capture", "write snapshot", err)
	}

	m.mu.Lock()
	if live, ok := m.sessions[cameraID]; ok {
		live.Snapshot = snap.Data
		live.SnapshotType = snap.ContentType
		live.UpdatedAt = time.Now()
	}
	m.mu.Unlock()
	return path, nil
}

// Cameras returns the cached camera list.
func (m *Manager) Cameras() []backend.Camera {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]backend.Camera, len(m.cameras))
	copy(out, m.cameras)
	return out
}

// Videos returns the cached recorded-video list.
func (m *Manager) Videos() []backend.Video {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]backend.Video, len(m.videos))
	copy(out, m.videos)
	return out
}

// UploadedVideos returns the cached upload list.
func (m *Manager) UploadedVideos() []backend.UploadedVideo {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]backend.UploadedVideo, len(m.uploads))
	copy(out, m.uploads)
	return out
}

// Statuses returns the aggregate panel: every known camera tagged with
// the outcome of the latest snapshot probe cycle.
func (m *Manager) Statuses() []CameraStatus {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]CameraStatus, 0, len(m.cameras))
	for _, camera := range m.cameras {
		out = append(out, CameraStatus{Camera: camera, Online: m.online[camera.ID]})
	}
	return out
}
