package testsupport

import (
	"context"
	"sync"
	"time"
)

// Notifier records notification calls for assertions in tests. It
// implements notifications.Service.
type Notifier struct {
	mu sync.Mutex

	Uploads        []string
	Completed      []string
	Failed         []string
	TimedOut       []string
	FetchExhausted []string
	SnapshotFailed []string
	Errors         []string
	Tests          int
}

func (n *Notifier) NotifyUploadCompleted(_ context.Context, filename string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.Uploads = append(n.Uploads, filename)
	return nil
}

func (n *Notifier) NotifyProcessingCompleted(_ context.Context, filename string, _ time.Duration) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.Completed = append(n.Completed, filename)
	return nil
}

func (n *Notifier) NotifyProcessingFailed(_ context.Context, filename, _ string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.Failed = append(n.Failed, filename)
	return nil
}

func (n *Notifier) NotifyProcessingTimeout(_ context.Context, filename string, _ time.Duration) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.TimedOut = append(n.TimedOut, filename)
	return nil
}

func (n *Notifier) NotifyFetchExhausted(_ context.Context, resource string, _ int) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.FetchExhausted = append(n.FetchExhausted, resource)
	return nil
}

func (n *Notifier) NotifySnapshotFailed(_ context.Context, cameraName string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.SnapshotFailed = append(n.SnapshotFailed, cameraName)
	return nil
}

func (n *Notifier) NotifyError(_ context.Context, err error, contextLabel string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	label := contextLabel
	if err != nil {
		label += ": " + err.Error()
	}
	n.Errors = append(n.Errors, label)
	return nil
}

func (n *Notifier) TestNotification(context.Context) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.Tests++
	return nil
}

// SnapshotFailures returns a copy of the recorded snapshot failures.
func (n *Notifier) SnapshotFailures() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]string, len(n.SnapshotFailed))
	copy(out, n.SnapshotFailed)
	return out
}
