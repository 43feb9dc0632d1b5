package testsupport

import (
	"context"
	"testing"

	"vigil/internal/jobs"
)

// MustOpenStore opens an in-memory session store for tests and registers
// cleanup.
func MustOpenStore(t testing.TB) *jobs.Store {
	t.Helper()

	store, err := jobs.Open()
	if err != nil {
		t.Fatalf("jobs.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

// NewUpload creates a job record for tests using the provided store.
func NewUpload(t testing.TB, store *jobs.Store, originalName string) *jobs.Job {
	t.Helper()

	job, err := store.NewUpload(context.Background(), originalName)
	if err != nil {
		t.Fatalf("store.NewUpload: %v", err)
	}
	return job
}
