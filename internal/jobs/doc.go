// Package jobs defines the processing-job model, the single-flight guards
// protecting upload and processing submissions, and the in-memory SQLite
// session store that tracks job lifecycle state for the life of the daemon.
package jobs
