package processing

import (
	"context"
	"fmt"
	"log/slog"
	"mime"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"vigil/internal/backend"
	"vigil/internal/config"
	"vigil/internal/jobs"
	"vigil/internal/logging"
	"vigil/internal/notifications"
	"vigil/internal/services"
)

// Backend is the slice of the backend client the controller depends on.
type Backend interface {
	UploadVideo(ctx context.Context, path string) (*backend.UploadResult, error)
	StartProcessing(ctx context.Context, req backend.ProcessRequest) (*backend.ProcessResult, error)
	ProbeProcessed(ctx context.Context, filename string) (bool, error)
}

// Listener observes job transitions as the controller applies them.
type Listener interface {
	JobUpdated(job jobs.Job)
}

// Controller drives the upload-then-analyze lifecycle for the session.
// At most one upload and one analysis run at a time; concurrent requests
// are rejected rather than queued.
type Controller struct {
	cfg      *config.Config
	store    *jobs.Store
	client   Backend
	logger   *slog.Logger
	notifier notifications.Service

	uploadGuard  *jobs.Flight
	processGuard *jobs.Flight

	step func() int
	now  func() time.Time

	mu        sync.Mutex
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	listeners []Listener
}

// Option adjusts Controller construction.
type Option func(*Controller)

// WithStepFunc replaces the synthetic progress step source. Tests use
// this for deterministic progress.
func WithStepFunc(fn func() int) Option {
	return func(c *Controller) { c.step = fn }
}

// WithClock replaces the controller's time source.
func WithClock(fn func() time.Time) Option {
	return func(c *Controller) { c.now = fn }
}

// NewController constructs the lifecycle controller.
func NewController(cfg *config.Config, store *jobs.Store, client Backend, logger *slog.Logger, notifier notifications.Service, opts ...Option) *Controller {
	if logger == nil {
		logger = logging.NewNop()
	}
	if notifier == nil {
		notifier = notifications.NewService(cfg)
	}
	c := &Controller{
		cfg:          cfg,
		store:        store,
		client:       client,
		logger:       logger.With(logging.String(logging.FieldComponent, "processing")),
		notifier:     notifier,
		uploadGuard:  jobs.NewFlight("upload"),
		processGuard: jobs.NewFlight("process"),
		step:         defaultStep(cfg),
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Subscribe registers a transition listener.
func (c *Controller) Subscribe(listener Listener) {
	if listener == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.listeners = append(c.listeners, listener)
}

// Stop cancels any in-flight completion poller and waits for it to exit.
func (c *Controller) Stop() {
	c.mu.Lock()
	cancel := c.cancel
	c.cancel = nil
	c.mu.Unlock()
	if cancel != nil {
		cancel()
	}
	c.wg.Wait()
}

// Wait blocks until the current completion poller, if any, has finished.
func (c *Controller) Wait() {
	c.wg.Wait()
}

// Upload validates and streams a local video file to the backend,
// recording the returned descriptor on a fresh job. Only one upload may
// be in flight at a time.
func (c *Controller) Upload(ctx context.Context, path string) (*jobs.Job, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, services.Wrap(services.ErrValidation, "processing", "upload", "no file selected", nil)
	}
	info, err := os.Stat(path)
	if err != nil {
		return nil, services.Wrap(services.ErrValidation, "processing", "upload", fmt.Sprintf("cannot read %s", path), err)
	}
	if info.IsDir() {
		return nil, services.Wrap(services.ErrValidation, "processing", "upload", fmt.Sprintf("%s is a directory", path), nil)
	}
	mediaType := mediaTypeForFile(path)
	if !c.cfg.AcceptsMediaType(mediaType) {
		return nil, services.Wrap(services.ErrValidation, "processing", "upload",
			fmt.Sprintf("unsupported media type %q for %s", mediaType, filepath.Base(path)), nil)
	}
	if maxBytes := int64(c.cfg.Uploads.MaxSizeMiB) * 1024 * 1024; maxBytes > 0 && info.Size() > maxBytes {
		return nil, services.Wrap(services.ErrValidation, "processing", "upload",
			fmt.Sprintf("%s exceeds the %d MiB upload limit", filepath.Base(path), c.cfg.Uploads.MaxSizeMiB), nil)
	}

	if !c.uploadGuard.TryAcquire() {
		c.logger.Info("duplicate upload ignored",
			logging.String(logging.FieldEventType, "duplicate_upload"),
			logging.String("file", filepath.Base(path)))
		return nil, services.Wrap(services.ErrBusy, "processing", "upload", "an upload is already in progress", nil)
	}
	defer c.uploadGuard.Release()

	job, err := c.store.NewUpload(ctx, filepath.Base(path))
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "processing", "upload", "record upload", err)
	}
	ctx = services.WithJobID(services.WithOperation(ctx, "upload"), job.ID)
	logger := logging.WithContext(ctx, c.logger)
	logger.Info("upload started",
		logging.String("file", filepath.Base(path)),
		logging.Int64("size_bytes", info.Size()))

	result, err := c.client.UploadVideo(ctx, path)
	if err != nil {
		failure := services.Wrap(services.ErrBackend, "processing", "upload", "upload rejected", err)
		applyFailure(job, failure, err.Error())
		if updateErr := c.store.Update(ctx, job); updateErr != nil {
			logger.Error("record upload failure", logging.Error(updateErr))
		}
		c.publish(*job)
		return job, failure
	}

	job.RecordDescriptor(jobs.Descriptor{
		Filename:        result.Filename,
		OriginalName:    filepath.Base(path),
		DurationSeconds: result.Duration,
		FPS:             result.FPS,
		FrameCount:      result.FrameCount,
		Width:           result.Width,
		Height:          result.Height,
		FileSizeBytes:   result.FileSize,
		UploadedAt:      c.now(),
	})
	if err := c.store.Update(ctx, job); err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "processing", "upload", "record descriptor", err)
	}

	logger.Info("upload complete", logging.String("backend_filename", job.SourceFilename))
	if err := c.notifier.NotifyUploadCompleted(ctx, job.OriginalName); err != nil {
		logger.Warn("upload notification failed", logging.Error(err))
	}
	c.publish(*job)
	return job, nil
}

// Submit asks the backend to analyze an uploaded job and starts the
// completion poller. When jobID is zero the most recent uploaded job is
// used. Only one analysis may be active at a time.
func (c *Controller) Submit(ctx context.Context, jobID int64, depersonalize bool) (*jobs.Job, error) {
	job, err := c.resolveSubmission(ctx, jobID)
	if err != nil {
		return nil, err
	}

	if !c.processGuard.TryAcquire() {
		c.logger.Info("duplicate analysis request ignored",
			logging.String(logging.FieldEventType, "duplicate_submit"),
			logging.Int64(logging.FieldJobID, job.ID))
		return nil, services.Wrap(services.ErrBusy, "processing", "submit", "an analysis is already in progress", nil)
	}
	release := true
	defer func() {
		if release {
			c.processGuard.Release()
		}
	}()

	ctx = services.WithJobID(services.WithOperation(ctx, "submit"), job.ID)
	logger := logging.WithContext(ctx, c.logger)

	started := c.now()
	job.Status = jobs.StatusSubmitting
	job.Depersonalize = depersonalize
	job.StartedAt = &started
	if err := c.store.Update(ctx, job); err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "processing", "submit", "mark submitting", err)
	}
	c.publish(*job)
	logger.Info("analysis submitted",
		logging.String("file", job.SourceFilename),
		logging.Bool("depersonalize", depersonalize))

	result, err := c.client.StartProcessing(ctx, backend.ProcessRequest{
		Filename:      job.SourceFilename,
		Depersonalize: depersonalize,
	})
	if err != nil {
		failure := services.Wrap(services.ErrBackend, "processing", "submit", "backend rejected analysis", err)
		applyFailure(job, failure, err.Error())
		if updateErr := c.store.Update(ctx, job); updateErr != nil {
			logger.Error("record submission failure", logging.Error(updateErr))
		}
		c.publish(*job)
		if notifyErr := c.notifier.NotifyProcessingFailed(ctx, job.SourceFilename, err.Error()); notifyErr != nil {
			logger.Warn("failure notification failed", logging.Error(notifyErr))
		}
		return job, failure
	}

	job.OutputFilename = result.ProcessedFilename
	job.Status = jobs.StatusPolling
	if err := c.store.Update(ctx, job); err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "processing", "submit", "mark polling", err)
	}
	c.publish(*job)

	// The poller owns the guard from here and releases it on the
	// terminal transition.
	release = false
	c.startPoller(job.ID, job.OutputFilename, started)
	return job, nil
}

// Status returns the job occupying the processing slot, or the most
// recent job when the session is idle.
func (c *Controller) Status(ctx context.Context) (*jobs.Job, error) {
	active, err := c.store.Active(ctx)
	if err != nil {
		return nil, err
	}
	if active != nil {
		return active, nil
	}
	list, err := c.store.List(ctx)
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, nil
	}
	return list[0], nil
}

func (c *Controller) resolveSubmission(ctx context.Context, jobID int64) (*jobs.Job, error) {
	if jobID != 0 {
		job, err := c.store.GetByID(ctx, jobID)
		if err != nil {
			return nil, services.Wrap(services.ErrNotFound, "processing", "submit", fmt.Sprintf("job %d", jobID), err)
		}
		if job.Status != jobs.StatusUploaded {
			return nil, services.Wrap(services.ErrValidation, "processing", "submit",
				fmt.Sprintf("job %d is %s, not uploaded", job.ID, job.Status), nil)
		}
		return job, nil
	}

	job, err := c.store.LatestUploaded(ctx)
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "processing", "submit", "lookup uploaded job", err)
	}
	if job == nil {
		return nil, services.Wrap(services.ErrValidation, "processing", "submit", "no uploaded video to analyze", nil)
	}
	return job, nil
}

// applyFailure records the terminal status implied by the error class:
// timeout-tagged errors end as timed_out, everything else as failed.
func applyFailure(job *jobs.Job, classified error, message string) {
	if services.FailureStatus(classified) == jobs.StatusTimedOut {
		job.SetTimedOut(message)
	} else {
		job.SetFailed(message)
	}
}

func (c *Controller) publish(job jobs.Job) {
	c.mu.Lock()
	listeners := make([]Listener, len(c.listeners))
	copy(listeners, c.listeners)
	c.mu.Unlock()
	for _, listener := range listeners {
		listener.JobUpdated(job)
	}
}

func mediaTypeForFile(path string) string {
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".mp4":
		return "video/mp4"
	case ".avi":
		return "video/x-msvideo"
	case ".mov":
		return "video/quicktime"
	case ".mkv":
		return "video/x-matroska"
	}
	if byExt := mime.TypeByExtension(ext); byExt != "" {
		return byExt
	}
	return "application/octet-stream"
}
