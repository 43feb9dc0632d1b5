package daemon_test

import (
	"context"
	"sync"
	"testing"

	"vigil/internal/daemon"
	"vigil/internal/fetch"
	"vigil/internal/preview"
	"vigil/internal/processing"
	"vigil/internal/testsupport"
)

func newDaemon(t *testing.T) *daemon.Daemon {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("ensure directories: %v", err)
	}
	store := testsupport.MustOpenStore(t)
	notifier := &testsupport.Notifier{}

	be := &stubBackend{}
	controller := processing.NewController(cfg, store, be, nil, notifier)
	previews := preview.NewManager(cfg, be, nil, notifier,
		preview.WithTransport(stubTransport{}),
		preview.WithRetrier(fetch.New(1, 0, nil)))

	d, err := daemon.New(cfg, store, nil, controller, previews, notifier)
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}
	t.Cleanup(func() { _ = d.Close() })
	return d
}

func TestDaemonStartStop(t *testing.T) {
	d := newDaemon(t)

	if err := d.Start(context.Background()); err != nil {
		t.Fatalf("Start returned error: %v", err)
	}
	if err := d.Start(context.Background()); err == nil {
		t.Fatal("second Start should fail while running")
	}

	status := d.Status(context.Background())
	if !status.Running || status.PID == 0 {
		t.Fatalf("status = %+v", status)
	}

	d.Stop()
	if status := d.Status(context.Background()); status.Running {
		t.Fatal("daemon still reported running after Stop")
	}

	// The lock is released, so a restart succeeds.
	if err := d.Start(context.Background()); err != nil {
		t.Fatalf("restart returned error: %v", err)
	}
	d.Stop()
}

func TestDaemonConcurrentStartStop(t *testing.T) {
	d := newDaemon(t)

	// Start and Stop arrive on separate IPC connections, each served in
	// its own goroutine. Hammer the lifecycle from both sides; the race
	// detector flags unsynchronized field access.
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_ = d.Start(context.Background())
		}()
		go func() {
			defer wg.Done()
			d.Stop()
		}()
	}
	wg.Wait()

	d.Stop()
	if err := d.Start(context.Background()); err != nil {
		t.Fatalf("start after churn returned error: %v", err)
	}
	d.Stop()
}

func TestDaemonSessionOperations(t *testing.T) {
	d := newDaemon(t)

	if job, err := d.CurrentJob(context.Background()); err != nil || job != nil {
		t.Fatalf("CurrentJob on idle session = (%v, %v)", job, err)
	}

	health, err := d.SessionHealth(context.Background())
	if err != nil {
		t.Fatalf("SessionHealth returned error: %v", err)
	}
	if health.Total != 0 {
		t.Fatalf("fresh session total = %d", health.Total)
	}

	removed, err := d.ClearJobs(context.Background())
	if err != nil || removed != 0 {
		t.Fatalf("ClearJobs = (%d, %v)", removed, err)
	}
}

func TestDaemonTestNotificationWithoutTopic(t *testing.T) {
	d := newDaemon(t)
	sent, message, err := d.TestNotification(context.Background())
	if err != nil {
		t.Fatalf("TestNotification returned error: %v", err)
	}
	if sent || message == "" {
		t.Fatalf("TestNotification = (%v, %q)", sent, message)
	}
}
