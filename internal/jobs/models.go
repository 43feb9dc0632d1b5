package jobs

import (
	"strings"
	"time"
)

// Status represents the lifecycle of a processing job within one session.
type Status string

const (
	StatusUploading  Status = "uploading"
	StatusUploaded   Status = "uploaded"
	StatusSubmitting Status = "submitting"
	StatusPolling    Status = "polling"
	StatusComplete   Status = "complete"
	StatusFailed     Status = "failed"
	StatusTimedOut   Status = "timed_out"
)

var allStatuses = []Status{
	StatusUploading,
	StatusUploaded,
	StatusSubmitting,
	StatusPolling,
	StatusComplete,
	StatusFailed,
	StatusTimedOut,
}

var statusSet = func() map[Status]struct{} {
	set := make(map[Status]struct{}, len(allStatuses))
	for _, status := range allStatuses {
		set[status] = struct{}{}
	}
	return set
}()

// activeStatuses are the states between submission acceptance and a terminal
// transition. The processing guard admits at most one job in these states.
var activeStatuses = map[Status]struct{}{
	StatusSubmitting: {},
	StatusPolling:    {},
}

// Descriptor captures the backend's response to a successful upload. It is
// immutable once recorded on a job.
type Descriptor struct {
	Filename        string
	OriginalName    string
	DurationSeconds float64
	FPS             float64
	FrameCount      int64
	Width           int
	Height          int
	FileSizeBytes   int64
	UploadedAt      time.Time
}

// Job represents one upload-and-process record persisted in the session store.
type Job struct {
	ID             int64
	SourceFilename string
	OriginalName   string

	DurationSeconds float64
	FPS             float64
	FrameCount      int64
	Width           int
	Height          int
	FileSizeBytes   int64

	OutputFilename string
	Depersonalize  bool

	Status       Status
	Progress     int
	ErrorMessage string

	CreatedAt time.Time
	UpdatedAt time.Time
	StartedAt *time.Time
}

// AllStatuses returns the ordered list of known statuses.
func AllStatuses() []Status {
	cp := make([]Status, len(allStatuses))
	copy(cp, allStatuses)
	return cp
}

// ParseStatus converts a string into a known Status.
func ParseStatus(value string) (Status, bool) {
	normalized := Status(strings.ToLower(strings.TrimSpace(value)))
	if normalized == "" {
		return "", false
	}
	_, ok := statusSet[normalized]
	return normalized, ok
}

// IsActive returns true when the job occupies the session's processing slot.
func (j Job) IsActive() bool {
	return IsActiveStatus(j.Status)
}

// IsActiveStatus reports whether a status reflects an in-flight processing job.
func IsActiveStatus(status Status) bool {
	_, ok := activeStatuses[status]
	return ok
}

// IsTerminal reports whether a status admits no further automatic transition.
func (s Status) IsTerminal() bool {
	switch s {
	case StatusComplete, StatusFailed, StatusTimedOut:
		return true
	default:
		return false
	}
}

// RecordDescriptor copies upload response fields onto the job and marks it
// uploaded.
func (j *Job) RecordDescriptor(desc Descriptor) {
	j.SourceFilename = desc.Filename
	if desc.OriginalName != "" {
		j.OriginalName = desc.OriginalName
	}
	j.DurationSeconds = desc.DurationSeconds
	j.FPS = desc.FPS
	j.FrameCount = desc.FrameCount
	j.Width = desc.Width
	j.Height = desc.Height
	j.FileSizeBytes = desc.FileSizeBytes
	j.Status = StatusUploaded
}

// AdvanceProgress raises the synthetic progress estimate by step without
// exceeding ceiling. Progress never decreases and never reaches 100 through
// this path; only SetComplete reports 100.
func (j *Job) AdvanceProgress(step, ceiling int) {
	if step <= 0 || j.Progress >= ceiling {
		return
	}
	next := j.Progress + step
	if next > ceiling {
		next = ceiling
	}
	if next > 99 {
		next = 99
	}
	if next > j.Progress {
		j.Progress = next
	}
}

// SetComplete marks the job complete with the authoritative output reference.
// This is the only transition allowed to report 100 percent.
func (j *Job) SetComplete(outputFilename string) {
	if outputFilename != "" {
		j.OutputFilename = outputFilename
	}
	j.Status = StatusComplete
	j.Progress = 100
	j.ErrorMessage = ""
}

// SetFailed marks the job failed with the given error message.
func (j *Job) SetFailed(message string) {
	j.Status = StatusFailed
	j.ErrorMessage = message
}

// SetTimedOut marks the job timed out. The synthetic progress is left at
// whatever value it reached.
func (j *Job) SetTimedOut(message string) {
	j.Status = StatusTimedOut
	j.ErrorMessage = message
}

// HealthSummary describes aggregated job counts per key lifecycle states.
type HealthSummary struct {
	Total    int
	Active   int
	Complete int
	Failed   int
	TimedOut int
}
