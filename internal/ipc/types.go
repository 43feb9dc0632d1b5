package ipc

import (
	"time"

	"vigil/internal/jobs"
	"vigil/internal/preview"
)

// Job mirrors the session job record for IPC callers.
type Job struct {
	ID              int64   `json:"id"`
	SourceFilename  string  `json:"source_filename"`
	OriginalName    string  `json:"original_name"`
	DurationSeconds float64 `json:"duration_seconds"`
	FPS             float64 `json:"fps"`
	FrameCount      int64   `json:"frame_count"`
	Width           int     `json:"width"`
	Height          int     `json:"height"`
	FileSizeBytes   int64   `json:"file_size_bytes"`
	OutputFilename  string  `json:"output_filename"`
	Depersonalize   bool    `json:"depersonalize"`
	Status          string  `json:"status"`
	Progress        int     `json:"progress"`
	ErrorMessage    string  `json:"error_message"`
	CreatedAt       string  `json:"created_at"`
	UpdatedAt       string  `json:"updated_at"`
	StartedAt       string  `json:"started_at,omitempty"`
}

// FromJob converts a store record into the IPC DTO.
func FromJob(job *jobs.Job) *Job {
	if job == nil {
		return nil
	}
	dto := &Job{
		ID:              job.ID,
		SourceFilename:  job.SourceFilename,
		OriginalName:    job.OriginalName,
		DurationSeconds: job.DurationSeconds,
		FPS:             job.FPS,
		FrameCount:      job.FrameCount,
		Width:           job.Width,
		Height:          job.Height,
		FileSizeBytes:   job.FileSizeBytes,
		OutputFilename:  job.OutputFilename,
		Depersonalize:   job.Depersonalize,
		Status:          string(job.Status),
		Progress:        job.Progress,
		ErrorMessage:    job.ErrorMessage,
		CreatedAt:       job.CreatedAt.Format(time.RFC3339),
		UpdatedAt:       job.UpdatedAt.Format(time.RFC3339),
	}
	if job.StartedAt != nil {
		dto.StartedAt = job.StartedAt.Format(time.RFC3339)
	}
	return dto
}

// Camera mirrors a backend camera record for IPC callers.
type Camera struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	IPAddress string `json:"ip_address"`
	Port      int    `json:"port"`
	Enabled   bool   `json:"enabled"`
	Online    bool   `json:"online"`
}

// Video mirrors a recorded video with its detection counters.
type Video struct {
	ID             int64   `json:"id"`
	Filename       string  `json:"filename"`
	CameraName     string  `json:"camera_name"`
	Duration       float64 `json:"duration"`
	FacesDetected  int     `json:"faces_detected"`
	PlatesDetected int     `json:"plates_detected"`
	Depersonalized bool    `json:"depersonalized"`
	CreatedAt      string  `json:"created_at"`
}

// UploadedVideo mirrors a stored upload record.
type UploadedVideo struct {
	Filename   string `json:"filename"`
	FileSize   int64  `json:"file_size"`
	UploadedAt string `json:"uploaded_at"`
}

// PreviewSession mirrors a live preview session.
type PreviewSession struct {
	CameraID     int64  `json:"camera_id"`
	CameraName   string `json:"camera_name"`
	StreamURL    string `json:"stream_url"`
	Mode         string `json:"mode"`
	HasSnapshot  bool   `json:"has_snapshot"`
	SnapshotType string `json:"snapshot_type,omitempty"`
	LastError    string `json:"last_error,omitempty"`
}

func fromSession(session *preview.Session) *PreviewSession {
	if session == nil {
		return nil
	}
	return &PreviewSession{
		CameraID:     session.CameraID,
		CameraName:   session.CameraName,
		StreamURL:    session.StreamURL,
		Mode:         string(session.Mode),
		HasSnapshot:  session.HasSnapshot(),
		SnapshotType: session.SnapshotType,
		LastError:    session.LastError,
	}
}

// StartRequest triggers daemon startup.
type StartRequest struct{}

// StartResponse indicates whether the daemon was started.
type StartResponse struct {
	Started bool   `json:"started"`
	Message string `json:"message"`
}

// StopRequest stops the daemon.
type StopRequest struct{}

// StopResponse indicates stop result.
type StopResponse struct {
	Stopped bool `json:"stopped"`
}

// StatusRequest fetches daemon status.
type StatusRequest struct{}

// StatusResponse represents combined daemon/session status information.
type StatusResponse struct {
	Running    bool           `json:"running"`
	PID        int            `json:"pid"`
	BackendURL string         `json:"backend_url"`
	LockPath   string         `json:"lock_path"`
	ActiveJob  *Job           `json:"active_job"`
	Session    map[string]int `json:"session"`
}

// UploadRequest streams a local file to the backend.
type UploadRequest struct {
	Path string `json:"path"`
}

// UploadResponse carries the recorded upload job. Notice is set instead
// of Job when the request was ignored because an upload is already in
// flight.
type UploadResponse struct {
	Job    Job    `json:"job"`
	Notice string `json:"notice,omitempty"`
}

// ProcessRequest submits an uploaded job for analysis.
type ProcessRequest struct {
	JobID         int64 `json:"job_id"`
	Depersonalize bool  `json:"depersonalize"`
}

// ProcessResponse carries the job as it enters polling. Notice is set
// instead of Job when the request was ignored because an analysis is
// already running.
type ProcessResponse struct {
	Job    Job    `json:"job"`
	Notice string `json:"notice,omitempty"`
}

// JobStatusRequest fetches the active (or most recent) job.
type JobStatusRequest struct{}

// JobStatusResponse carries the job, if any.
type JobStatusResponse struct {
	Job *Job `json:"job"`
}

// JobListRequest filters the session job listing by status.
type JobListRequest struct {
	Statuses []string `json:"statuses"`
}

// JobListResponse contains session job records.
type JobListResponse struct {
	Jobs []Job `json:"jobs"`
}

// JobClearRequest removes all session job records.
type JobClearRequest struct{}

// JobClearResponse reports the number of removed records.
type JobClearResponse struct {
	Removed int64 `json:"removed"`
}

// CamerasRequest fetches the camera list with online tags.
type CamerasRequest struct{}

// CamerasResponse contains camera entries.
type CamerasResponse struct {
	Cameras []Camera `json:"cameras"`
}

// VideosRequest fetches the recorded-video list.
type VideosRequest struct{}

// VideosResponse contains recorded-video entries.
type VideosResponse struct {
	Videos []Video `json:"videos"`
}

// UploadedVideosRequest fetches the upload list.
type UploadedVideosRequest struct{}

// UploadedVideosResponse contains upload entries.
type UploadedVideosResponse struct {
	Videos []UploadedVideo `json:"videos"`
}

// PreviewOpenRequest starts a preview session for a camera.
type PreviewOpenRequest struct {
	CameraID int64 `json:"camera_id"`
}

// PreviewOpenResponse carries the resulting session.
type PreviewOpenResponse struct {
	Session PreviewSession `json:"session"`
}

// PreviewCloseRequest dismisses a camera's preview session.
type PreviewCloseRequest struct {
	CameraID int64 `json:"camera_id"`
}

// PreviewCloseResponse acknowledges the close.
type PreviewCloseResponse struct{}

// PreviewRefreshRequest re-runs the transport ladder for a session.
type PreviewRefreshRequest struct {
	CameraID int64 `json:"camera_id"`
}

// PreviewRefreshResponse carries the refreshed session, absent when the
// camera had no session.
type PreviewRefreshResponse struct {
	Session *PreviewSession `json:"session"`
}

// SnapshotRequest captures a still for an open preview session.
type SnapshotRequest struct {
	CameraID int64 `json:"camera_id"`
}

// SnapshotResponse reports where the still was written; empty when the
// camera had no session.
type SnapshotResponse struct {
	Path string `json:"path"`
}

// PreviewStatusRequest fetches the aggregate camera panel.
type PreviewStatusRequest struct{}

// PreviewStatusResponse contains panel rows and live sessions.
type PreviewStatusResponse struct {
	Cameras  []Camera         `json:"cameras"`
	Sessions []PreviewSession `json:"sessions"`
}

// LogTailRequest fetches log lines based on offset and follow semantics.
type LogTailRequest struct {
	Offset     int64 `json:"offset"`
	Limit      int   `json:"limit"`
	Follow     bool  `json:"follow"`
	WaitMillis int   `json:"wait_millis"`
}

// LogTailResponse returns log lines and the next offset.
type LogTailResponse struct {
	Lines  []string `json:"lines"`
	Offset int64    `json:"offset"`
}

// TestNotificationRequest triggers a notification test.
type TestNotificationRequest struct{}

// TestNotificationResponse reports notification test outcome.
type TestNotificationResponse struct {
	Sent    bool   `json:"sent"`
	Message string `json:"message"`
}
