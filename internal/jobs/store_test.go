package jobs

import (
	"context"
	"testing"
	"time"
)

func newStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open()
	if err != nil {
		t.Fatalf("Open returned error: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestNewUploadAndGet(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	job, err := store.NewUpload(ctx, "dashcam.mp4")
	if err != nil {
		t.Fatalf("NewUpload returned error: %v", err)
	}
	if job.ID == 0 || job.Status != StatusUploading {
		t.Fatalf("unexpected job %+v", job)
	}
	if job.OriginalName != "dashcam.mp4" {
		t.Fatalf("original name = %q", job.OriginalName)
	}

	fetched, err := store.GetByID(ctx, job.ID)
	if err != nil {
		t.Fatalf("GetByID returned error: %v", err)
	}
	if fetched.Status != StatusUploading || fetched.OriginalName != "dashcam.mp4" {
		t.Fatalf("unexpected fetched job %+v", fetched)
	}
}

func TestUpdateRoundTrip(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	job, err := store.NewUpload(ctx, "clip.mkv")
	if err != nil {
		t.Fatalf("NewUpload returned error: %v", err)
	}

	job.RecordDescriptor(Descriptor{
		Filename:        "upload_20260826_clip.mkv",
		DurationSeconds: 12.5,
		FPS:             30,
		FrameCount:      375,
		Width:           1920,
		Height:          1080,
		FileSizeBytes:   10 << 20,
	})
	started := time.Now().UTC()
	job.StartedAt = &started
	job.Depersonalize = true
	if err := store.Update(ctx, job); err != nil {
		t.Fatalf("Update returned error: %v", err)
	}

	fetched, err := store.GetByID(ctx, job.ID)
	if err != nil {
		t.Fatalf("GetByID returned error: %v", err)
	}
	if fetched.Status != StatusUploaded || fetched.SourceFilename != "upload_20260826_clip.mkv" {
		t.Fatalf("descriptor not persisted: %+v", fetched)
	}
	if !fetched.Depersonalize || fetched.Width != 1920 || fetched.DurationSeconds != 12.5 {
		t.Fatalf("fields not persisted: %+v", fetched)
	}
	if fetched.StartedAt == nil {
		t.Fatal("started_at not persisted")
	}
}

func TestUpdateMissingJob(t *testing.T) {
	store := newStore(t)
	job := &Job{ID: 42, Status: StatusFailed}
	if err := store.Update(context.Background(), job); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestActiveJobTracking(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	active, err := store.Active(ctx)
	if err != nil {
		t.Fatalf("Active returned error: %v", err)
	}
	if active != nil {
		t.Fatalf("expected idle session, got %+v", active)
	}

	job, err := store.NewUpload(ctx, "a.mp4")
	if err != nil {
		t.Fatalf("NewUpload returned error: %v", err)
	}
	job.Status = StatusPolling
	if err := store.Update(ctx, job); err != nil {
		t.Fatalf("Update returned error: %v", err)
	}

	active, err = store.Active(ctx)
	if err != nil {
		t.Fatalf("Active returned error: %v", err)
	}
	if active == nil || active.ID != job.ID {
		t.Fatalf("Active = %+v, want job %d", active, job.ID)
	}

	job.SetComplete("processed_a.mp4")
	if err := store.Update(ctx, job); err != nil {
		t.Fatalf("Update returned error: %v", err)
	}
	active, err = store.Active(ctx)
	if err != nil {
		t.Fatalf("Active returned error: %v", err)
	}
	if active != nil {
		t.Fatalf("session should be idle after completion, got %+v", active)
	}
}

func TestLatestUploaded(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	if job, err := store.LatestUploaded(ctx); err != nil || job != nil {
		t.Fatalf("LatestUploaded = %+v, %v", job, err)
	}

	first, _ := store.NewUpload(ctx, "first.mp4")
	first.RecordDescriptor(Descriptor{Filename: "upload_first.mp4"})
	if err := store.Update(ctx, first); err != nil {
		t.Fatalf("Update returned error: %v", err)
	}
	second, _ := store.NewUpload(ctx, "second.mp4")
	second.RecordDescriptor(Descriptor{Filename: "upload_second.mp4"})
	if err := store.Update(ctx, second); err != nil {
		t.Fatalf("Update returned error: %v", err)
	}

	latest, err := store.LatestUploaded(ctx)
	if err != nil {
		t.Fatalf("LatestUploaded returned error: %v", err)
	}
	if latest == nil || latest.SourceFilename != "upload_second.mp4" {
		t.Fatalf("latest = %+v", latest)
	}
}

func TestListAndHealth(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	a, _ := store.NewUpload(ctx, "a.mp4")
	a.SetComplete("processed_a.mp4")
	_ = store.Update(ctx, a)

	b, _ := store.NewUpload(ctx, "b.mp4")
	b.SetFailed("backend rejected submission")
	_ = store.Update(ctx, b)

	c, _ := store.NewUpload(ctx, "c.mp4")
	c.Status = StatusPolling
	_ = store.Update(ctx, c)

	all, err := store.List(ctx)
	if err != nil {
		t.Fatalf("List returned error: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("expected 3 jobs, got %d", len(all))
	}
	if all[0].ID != c.ID {
		t.Fatalf("expected newest first, got job %d", all[0].ID)
	}

	failed, err := store.List(ctx, StatusFailed)
	if err != nil {
		t.Fatalf("List(failed) returned error: %v", err)
	}
	if len(failed) != 1 || failed[0].ID != b.ID {
		t.Fatalf("failed listing = %+v", failed)
	}

	health, err := store.Health(ctx)
	if err != nil {
		t.Fatalf("Health returned error: %v", err)
	}
	if health.Total != 3 || health.Active != 1 || health.Complete != 1 || health.Failed != 1 {
		t.Fatalf("unexpected health %+v", health)
	}
}

func TestClear(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()
	_, _ = store.NewUpload(ctx, "a.mp4")
	_, _ = store.NewUpload(ctx, "b.mp4")

	removed, err := store.Clear(ctx)
	if err != nil {
		t.Fatalf("Clear returned error: %v", err)
	}
	if removed != 2 {
		t.Fatalf("removed = %d", removed)
	}
}
