package daemon

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"sync/atomic"

	"log/slog"

	"github.com/gofrs/flock"

	"vigil/internal/backend"
	"vigil/internal/config"
	"vigil/internal/jobs"
	"vigil/internal/logging"
	"vigil/internal/notifications"
	"vigil/internal/preview"
	"vigil/internal/processing"
)

// Daemon owns the session controllers and enforces single-instance
// execution via a file lock.
type Daemon struct {
	cfg        *config.Config
	logger     *slog.Logger
	store      *jobs.Store
	controller *processing.Controller
	previews   *preview.Manager
	notifier   notifications.Service
	logPath    string

	lockPath string
	lock     *flock.Flock

	running atomic.Bool

	// lifecycle serializes Start and Stop, which can race when issued
	// over separate IPC connections.
	lifecycle sync.Mutex
	cancel    context.CancelFunc
	wg        sync.WaitGroup
}

// Status represents daemon runtime information.
type Status struct {
	Running    bool
	PID        int
	BackendURL string
	LockPath   string
	ActiveJob  *jobs.Job
	Session    jobs.HealthSummary
}

// New constructs a daemon with initialized dependencies.
func New(cfg *config.Config, store *jobs.Store, logger *slog.Logger, controller *processing.Controller, previews *preview.Manager, notifier notifications.Service) (*Daemon, error) {
	if cfg == nil || store == nil || controller == nil || previews == nil {
		return nil, errors.New("daemon requires config, store, controller, and preview manager")
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	if notifier == nil {
		notifier = notifications.NewService(cfg)
	}

	lockPath := cfg.LockPath()
	return &Daemon{
		cfg:        cfg,
		logger:     logger,
		store:      store,
		controller: controller,
		previews:   previews,
		notifier:   notifier,
		logPath:    cfg.LogPath(),
		lockPath:   lockPath,
		lock:       flock.New(lockPath),
	}, nil
}

// Start acquires the daemon lock and launches the preview refresh loop.
func (d *Daemon) Start(ctx context.Context) error {
	d.lifecycle.Lock()
	defer d.lifecycle.Unlock()

	if d.running.Load() {
		return errors.New("daemon already running")
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another vigil daemon instance is already running")
	}

	runCtx, cancel := context.WithCancel(ctx)
	d.cancel = cancel
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		d.previews.Run(runCtx)
	}()

	d.running.Store(true)
	d.logger.Info("vigil daemon started",
		logging.String("lock", d.lockPath),
		logging.String("backend", d.cfg.Backend.BaseURL))
	return nil
}

// Stop halts background loops and releases the daemon lock.
func (d *Daemon) Stop() {
	d.lifecycle.Lock()
	defer d.lifecycle.Unlock()

	if !d.running.Load() {
		return
	}

	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	d.controller.Stop()
	d.wg.Wait()
	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("failed to release daemon lock", logging.Error(err))
	}
	d.running.Store(false)
	d.logger.Info("vigil daemon stopped")
}

// Close releases resources held by the daemon.
func (d *Daemon) Close() error {
	d.Stop()
	if d.store != nil {
		return d.store.Close()
	}
	return nil
}

// Upload streams a local file to the backend through the controller.
func (d *Daemon) Upload(ctx context.Context, path string) (*jobs.Job, error) {
	return d.controller.Upload(ctx, path)
}

// Process submits an uploaded job for analysis.
func (d *Daemon) Process(ctx context.Context, jobID int64, depersonalize bool) (*jobs.Job, error) {
	return d.controller.Submit(ctx, jobID, depersonalize)
}

// CurrentJob returns the active job, or the most recent one when idle.
func (d *Daemon) CurrentJob(ctx context.Context) (*jobs.Job, error) {
	return d.controller.Status(ctx)
}

// ListJobs returns session jobs filtered by optional statuses.
func (d *Daemon) ListJobs(ctx context.Context, statuses []jobs.Status) ([]*jobs.Job, error) {
	if len(statuses) == 0 {
		return d.store.List(ctx)
	}
	return d.store.List(ctx, statuses...)
}

// GetJob returns one session job by id.
func (d *Daemon) GetJob(ctx context.Context, id int64) (*jobs.Job, error) {
	return d.store.GetByID(ctx, id)
}

// ClearJobs removes all session job records.
func (d *Daemon) ClearJobs(ctx context.Context) (int64, error) {
	return d.store.Clear(ctx)
}

// SessionHealth returns aggregate session job counts.
func (d *Daemon) SessionHealth(ctx context.Context) (jobs.HealthSummary, error) {
	return d.store.Health(ctx)
}

// Cameras returns the cached camera list, loading it on first use.
func (d *Daemon) Cameras(ctx context.Context) ([]backend.Camera, error) {
	cameras := d.previews.Cameras()
	if len(cameras) == 0 {
		if err := d.previews.ReloadData(ctx); err != nil {
			return nil, err
		}
		cameras = d.previews.Cameras()
	}
	return cameras, nil
}

// Videos returns the cached recorded-video list, loading it on first use.
func (d *Daemon) Videos(ctx context.Context) ([]backend.Video, error) {
	videos := d.previews.Videos()
	if len(videos) == 0 {
		if err := d.previews.ReloadData(ctx); err != nil {
			return nil, err
		}
		videos = d.previews.Videos()
	}
	return videos, nil
}

// UploadedVideos returns the cached upload list, loading it on first use.
func (d *Daemon) UploadedVideos(ctx context.Context) ([]backend.UploadedVideo, error) {
	uploads := d.previews.UploadedVideos()
	if len(uploads) == 0 {
		if err := d.previews.ReloadData(ctx); err != nil {
			return nil, err
		}
		uploads = d.previews.UploadedVideos()
	}
	return uploads, nil
}

// OpenPreview starts a preview session for a camera.
func (d *Daemon) OpenPreview(ctx context.Context, cameraID int64) (*preview.Session, error) {
	return d.previews.Open(ctx, cameraID)
}

// ClosePreview dismisses a camera's preview session.
func (d *Daemon) ClosePreview(cameraID int64) {
	d.previews.Close(cameraID)
}

// RefreshPreview re-runs the transport ladder for an open session.
func (d *Daemon) RefreshPreview(ctx context.Context, cameraID int64) (*preview.Session, error) {
	return d.previews.RefreshStream(ctx, cameraID)
}

// CaptureSnapshot saves a fresh still for an open session.
func (d *Daemon) CaptureSnapshot(ctx context.Context, cameraID int64) (string, error) {
	return d.previews.CaptureSnapshot(ctx, cameraID)
}

// PreviewStatuses returns the aggregate camera panel.
func (d *Daemon) PreviewStatuses() []preview.CameraStatus {
	return d.previews.Statuses()
}

// PreviewSessions returns the live preview sessions.
func (d *Daemon) PreviewSessions() []*preview.Session {
	return d.previews.Sessions()
}

// TestNotification triggers a test notification using the current configuration.
func (d *Daemon) TestNotification(ctx context.Context) (bool, string, error) {
	if strings.TrimSpace(d.cfg.Notifications.NtfyTopic) == "" {
		return false, "ntfy topic not configured", nil
	}
	if err := d.notifier.TestNotification(ctx); err != nil {
		return false, "failed to send notification", err
	}
	return true, "test notification sent", nil
}

// LogPath returns the path to the daemon log file.
func (d *Daemon) LogPath() string {
	return d.logPath
}

// Status returns the current daemon status.
func (d *Daemon) Status(ctx context.Context) Status {
	status := Status{
		Running:    d.running.Load(),
		PID:        os.Getpid(),
		BackendURL: d.cfg.Backend.BaseURL,
		LockPath:   d.lockPath,
	}
	if job, err := d.controller.Status(ctx); err == nil {
		status.ActiveJob = job
	}
	if summary, err := d.store.Health(ctx); err == nil {
		status.Session = summary
	}
	return status
}
