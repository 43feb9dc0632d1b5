package ipc

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/rpc"
	"net/rpc/jsonrpc"
	"os"
	"sync"
	"time"

	"log/slog"

	"vigil/internal/daemon"
	"vigil/internal/jobs"
	"vigil/internal/logging"
	"vigil/internal/logs"
	"vigil/internal/services"
)

// Server exposes daemon control via JSON-RPC over a Unix domain socket.
type Server struct {
	path      string
	daemon    *daemon.Daemon
	logger    *slog.Logger
	listener  net.Listener
	rpcServer *rpc.Server

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewServer configures the IPC server at the given socket path.
func NewServer(ctx context.Context, path string, d *daemon.Daemon, logger *slog.Logger) (*Server, error) {
	if d == nil {
		return nil, errors.New("ipc server requires daemon")
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	if err := os.RemoveAll(path); err != nil {
		return nil, fmt.Errorf("remove existing socket: %w", err)
	}

	listener, err := net.Listen("unix", path)
	if err != nil {
		return nil, fmt.Errorf("listen on socket: %w", err)
	}

	rpcServer := rpc.NewServer()
	srv := &service{daemon: d, logger: logger, ctx: ctx}
	if err := rpcServer.RegisterName("Vigil", srv); err != nil {
		listener.Close()
		return nil, fmt.Errorf("register rpc service: %w", err)
	}

	serverCtx, cancel := context.WithCancel(ctx)
	return &Server{
		path:      path,
		daemon:    d,
		logger:    logger,
		listener:  listener,
		rpcServer: rpcServer,
		ctx:       serverCtx,
		cancel:    cancel,
	}, nil
}

// Serve starts accepting RPC connections until the context is canceled.
func (s *Server) Serve() {
	s.logger.Debug("IPC server listening", logging.String("socket", s.path))
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		for {
			conn, err := s.listener.Accept()
			if err != nil {
				select {
				case <-s.ctx.Done():
					return
				default:
				}
				s.logger.Warn("accept failed",
					logging.Error(err),
					logging.String(logging.FieldEventType, "ipc_accept_failed"))
				continue
			}
			s.wg.Add(1)
			go func(c net.Conn) {
				defer s.wg.Done()
				s.rpcServer.ServeCodec(jsonrpc.NewServerCodec(c))
			}(conn)
		}
	}()
}

// Close stops the server and removes the socket file.
func (s *Server) Close() {
	s.cancel()
	if s.listener != nil {
		_ = s.listener.Close()
	}
	s.wg.Wait()
	if err := os.RemoveAll(s.path); err != nil {
		s.logger.Warn("failed to remove socket",
			logging.String("socket", s.path),
			logging.Error(err),
			logging.String(logging.FieldEventType, "ipc_socket_cleanup_failed"))
	}
}

type service struct {
	daemon *daemon.Daemon
	logger *slog.Logger
	ctx    context.Context
}

func (s *service) log() *slog.Logger {
	if s.logger == nil {
		return logging.NewNop()
	}
	return s.logger.With(logging.String(logging.FieldComponent, "ipc"))
}

func (s *service) Start(_ StartRequest, resp *StartResponse) error {
	s.log().Debug("daemon start requested")
	if err := s.daemon.Start(s.ctx); err != nil {
		resp.Started = false
		resp.Message = err.Error()
		return nil
	}
	resp.Started = true
	resp.Message = "daemon started"
	s.log().Info("daemon started via IPC",
		logging.String(logging.FieldEventType, "daemon_start"))
	return nil
}

func (s *service) Stop(_ StopRequest, resp *StopResponse) error {
	s.log().Debug("daemon stop requested")
	s.daemon.Stop()
	resp.Stopped = true
	s.log().Info("daemon stopped via IPC",
		logging.String(logging.FieldEventType, "daemon_stop"))
	return nil
}

func (s *service) Status(_ StatusRequest, resp *StatusResponse) error {
	status := s.daemon.Status(s.ctx)
	resp.Running = status.Running
	resp.PID = status.PID
	resp.BackendURL = status.BackendURL
	resp.LockPath = status.LockPath
	resp.ActiveJob = FromJob(status.ActiveJob)
	resp.Session = map[string]int{
		"total":     status.Session.Total,
		"active":    status.Session.Active,
		"complete":  status.Session.Complete,
		"failed":    status.Session.Failed,
		"timed_out": status.Session.TimedOut,
	}
	return nil
}

func (s *service) Upload(req UploadRequest, resp *UploadResponse) error {
	s.log().Debug("upload requested", logging.String("path", req.Path))
	job, err := s.daemon.Upload(s.ctx, req.Path)
	if err != nil {
		if errors.Is(err, services.ErrBusy) {
			resp.Notice = "an upload is already in progress; request ignored"
			return nil
		}
		return err
	}
	resp.Job = *FromJob(job)
	return nil
}

func (s *service) Process(req ProcessRequest, resp *ProcessResponse) error {
	s.log().Debug("process requested",
		logging.Int64(logging.FieldJobID, req.JobID),
		logging.Bool("depersonalize", req.Depersonalize))
	job, err := s.daemon.Process(s.ctx, req.JobID, req.Depersonalize)
	if err != nil {
		if errors.Is(err, services.ErrBusy) {
			resp.Notice = "an analysis is already in progress; request ignored"
			return nil
		}
		return err
	}
	resp.Job = *FromJob(job)
	return nil
}

func (s *service) JobStatus(_ JobStatusRequest, resp *JobStatusResponse) error {
	job, err := s.daemon.CurrentJob(s.ctx)
	if err != nil {
		return err
	}
	resp.Job = FromJob(job)
	return nil
}

func (s *service) JobList(req JobListRequest, resp *JobListResponse) error {
	statuses := make([]jobs.Status, 0, len(req.Statuses))
	for _, status := range req.Statuses {
		parsed, ok := jobs.ParseStatus(status)
		if !ok {
			continue
		}
		statuses = append(statuses, parsed)
	}
	records, err := s.daemon.ListJobs(s.ctx, statuses)
	if err != nil {
		return err
	}
	resp.Jobs = make([]Job, 0, len(records))
	for _, record := range records {
		if dto := FromJob(record); dto != nil {
			resp.Jobs = append(resp.Jobs, *dto)
		}
	}
	return nil
}

func (s *service) JobClear(_ JobClearRequest, resp *JobClearResponse) error {
	removed, err := s.daemon.ClearJobs(s.ctx)
	if err != nil {
		return err
	}
	resp.Removed = removed
	s.log().Info("session jobs cleared",
		logging.String(logging.FieldEventType, "jobs_clear"),
		logging.Int64("removed_count", removed))
	return nil
}

func (s *service) Cameras(_ CamerasRequest, resp *CamerasResponse) error {
	cameras, err := s.daemon.Cameras(s.ctx)
	if err != nil {
		return err
	}
	online := make(map[int64]bool)
	for _, status := range s.daemon.PreviewStatuses() {
		online[status.Camera.ID] = status.Online
	}
	resp.Cameras = make([]Camera, 0, len(cameras))
	for _, camera := range cameras {
		resp.Cameras = append(resp.Cameras, Camera{
			ID:        camera.ID,
			Name:      camera.Name,
			IPAddress: camera.IPAddress,
			Port:      camera.Port,
			Enabled:   camera.Enabled,
			Online:    online[camera.ID],
		})
	}
	return nil
}

func (s *service) Videos(_ VideosRequest, resp *VideosResponse) error {
	videos, err := s.daemon.Videos(s.ctx)
	if err != nil {
		return err
	}
	resp.Videos = make([]Video, 0, len(videos))
	for _, video := range videos {
		resp.Videos = append(resp.Videos, Video{
			ID:             video.ID,
			Filename:       video.Filename,
			CameraName:     video.CameraName,
			Duration:       video.Duration,
			FacesDetected:  video.FacesDetected,
			PlatesDetected: video.PlatesDetected,
			Depersonalized: video.Depersonalized,
			CreatedAt:      video.CreatedAt,
		})
	}
	return nil
}

func (s *service) UploadedVideos(_ UploadedVideosRequest, resp *UploadedVideosResponse) error {
	uploads, err := s.daemon.UploadedVideos(s.ctx)
	if err != nil {
		return err
	}
	resp.Videos = make([]UploadedVideo, 0, len(uploads))
	for _, upload := range uploads {
		resp.Videos = append(resp.Videos, UploadedVideo{
			Filename:   upload.Filename,
			FileSize:   upload.FileSize,
			UploadedAt: upload.UploadedAt,
		})
	}
	return nil
}

func (s *service) PreviewOpen(req PreviewOpenRequest, resp *PreviewOpenResponse) error {
	s.log().Debug("preview open requested", logging.Int64(logging.FieldCameraID, req.CameraID))
	session, err := s.daemon.OpenPreview(s.ctx, req.CameraID)
	if err != nil {
		return err
	}
	resp.Session = *fromSession(session)
	return nil
}

func (s *service) PreviewClose(req PreviewCloseRequest, _ *PreviewCloseResponse) error {
	s.daemon.ClosePreview(req.CameraID)
	return nil
}

func (s *service) PreviewRefresh(req PreviewRefreshRequest, resp *PreviewRefreshResponse) error {
	session, err := s.daemon.RefreshPreview(s.ctx, req.CameraID)
	if err != nil {
		return err
	}
	resp.Session = fromSession(session)
	return nil
}

func (s *service) Snapshot(req SnapshotRequest, resp *SnapshotResponse) error {
	path, err := s.daemon.CaptureSnapshot(s.ctx, req.CameraID)
	if err != nil {
		return err
	}
	resp.Path = path
	return nil
}

func (s *service) PreviewStatus(_ PreviewStatusRequest, resp *PreviewStatusResponse) error {
	for _, status := range s.daemon.PreviewStatuses() {
		resp.Cameras = append(resp.Cameras, Camera{
			ID:        status.Camera.ID,
			Name:      status.Camera.Name,
			IPAddress: status.Camera.IPAddress,
			Port:      status.Camera.Port,
			Enabled:   status.Camera.Enabled,
			Online:    status.Online,
		})
	}
	for _, session := range s.daemon.PreviewSessions() {
		if dto := fromSession(session); dto != nil {
			resp.Sessions = append(resp.Sessions, *dto)
		}
	}
	return nil
}

func (s *service) LogTail(req LogTailRequest, resp *LogTailResponse) error {
	logPath := s.daemon.LogPath()
	if logPath == "" {
		resp.Offset = 0
		return nil
	}
	wait := time.Duration(req.WaitMillis) * time.Millisecond
	if wait <= 0 && req.Follow {
		wait = time.Second
	}
	options := logs.TailOptions{
		Offset: req.Offset,
		Limit:  req.Limit,
		Follow: req.Follow,
		Wait:   wait,
	}
	ctx := s.ctx
	if req.Follow && wait > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(s.ctx, wait+500*time.Millisecond)
		defer cancel()
	}
	result, err := logs.Tail(ctx, logPath, options)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			resp.Offset = result.Offset
			return nil
		}
		return err
	}
	resp.Lines = result.Lines
	resp.Offset = result.Offset
	return nil
}

func (s *service) TestNotification(_ TestNotificationRequest, resp *TestNotificationResponse) error {
	sent, message, err := s.daemon.TestNotification(s.ctx)
	resp.Sent = sent
	resp.Message = message
	return err
}
