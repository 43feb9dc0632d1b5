package jobs

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// ErrNotFound indicates the requested job does not exist in the session store.
var ErrNotFound = errors.New("job not found")

// Store manages session job records backed by an in-memory SQLite database.
// The store lives and dies with the owning process; nothing is persisted
// across restarts.
type Store struct {
	db *sql.DB
}

const schemaSQL = `
CREATE TABLE IF NOT EXISTS jobs (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    source_filename TEXT NOT NULL DEFAULT '',
    original_name TEXT NOT NULL DEFAULT '',
    duration_seconds REAL NOT NULL DEFAULT 0,
    fps REAL NOT NULL DEFAULT 0,
    frame_count INTEGER NOT NULL DEFAULT 0,
    width INTEGER NOT NULL DEFAULT 0,
    height INTEGER NOT NULL DEFAULT 0,
    file_size_bytes INTEGER NOT NULL DEFAULT 0,
    output_filename TEXT NOT NULL DEFAULT '',
    depersonalize INTEGER NOT NULL DEFAULT 0,
    status TEXT NOT NULL,
    progress INTEGER NOT NULL DEFAULT 0,
    error_message TEXT NOT NULL DEFAULT '',
    created_at TEXT NOT NULL,
    updated_at TEXT NOT NULL,
    started_at TEXT
);
CREATE INDEX IF NOT EXISTS idx_jobs_status ON jobs(status);
`

// Open initializes a fresh in-memory session store.
func Open() (*Store, error) {
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		return nil, fmt.Errorf("open session db: %w", err)
	}
	// A single connection keeps the in-memory database alive and serializes
	// all mutations, mirroring the session's sequential transition model.
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create session schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the underlying database connection, discarding all session state.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// NewUpload inserts a job record for an upload that has just been admitted.
func (s *Store) NewUpload(ctx context.Context, originalName string) (*Job, error) {
	now := time.Now().UTC()
	timestamp := now.Format(time.RFC3339Nano)

	res, err := s.db.ExecContext(
		ctx,
		`INSERT INTO jobs (original_name, status, progress, created_at, updated_at)
         VALUES (?, ?, 0, ?, ?)`,
		originalName,
		StatusUploading,
		timestamp,
		timestamp,
	)
	if err != nil {
		return nil, fmt.Errorf("insert upload: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}

	return s.GetByID(ctx, id)
}

// Update writes the mutable job fields back to the store.
func (s *Store) Update(ctx context.Context, job *Job) error {
	if job == nil {
		return errors.New("job is nil")
	}
	job.UpdatedAt = time.Now().UTC()

	var startedAt any
	if job.StartedAt != nil {
		startedAt = job.StartedAt.UTC().Format(time.RFC3339Nano)
	}

	res, err := s.db.ExecContext(
		ctx,
		`UPDATE jobs SET
            source_filename = ?, original_name = ?, duration_seconds = ?, fps = ?,
            frame_count = ?, width = ?, height = ?, file_size_bytes = ?,
            output_filename = ?, depersonalize = ?, status = ?, progress = ?,
            error_message = ?, updated_at = ?, started_at = ?
         WHERE id = ?`,
		job.SourceFilename,
		job.OriginalName,
		job.DurationSeconds,
		job.FPS,
		job.FrameCount,
		job.Width,
		job.Height,
		job.FileSizeBytes,
		job.OutputFilename,
		boolToInt(job.Depersonalize),
		job.Status,
		job.Progress,
		job.ErrorMessage,
		job.UpdatedAt.Format(time.RFC3339Nano),
		startedAt,
		job.ID,
	)
	if err != nil {
		return fmt.Errorf("update job %d: %w", job.ID, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// GetByID fetches a single job.
func (s *Store) GetByID(ctx context.Context, id int64) (*Job, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+jobColumns+` FROM jobs WHERE id = ?`, id)
	job, err := scanJob(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get job %d: %w", id, err)
	}
	return job, nil
}

// Active returns the job currently occupying the session's processing slot,
// or nil when the session is idle.
func (s *Store) Active(ctx context.Context) (*Job, error) {
	row := s.db.QueryRowContext(
		ctx,
		`SELECT `+jobColumns+` FROM jobs WHERE status IN (?, ?) ORDER BY id DESC LIMIT 1`,
		StatusSubmitting,
		StatusPolling,
	)
	job, err := scanJob(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("active job: %w", err)
	}
	return job, nil
}

// LatestUploaded returns the most recent job whose upload completed but whose
// processing has not been submitted yet, or nil when none exists.
func (s *Store) LatestUploaded(ctx context.Context) (*Job, error) {
	row := s.db.QueryRowContext(
		ctx,
		`SELECT `+jobColumns+` FROM jobs WHERE status = ? ORDER BY id DESC LIMIT 1`,
		StatusUploaded,
	)
	job, err := scanJob(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("latest uploaded job: %w", err)
	}
	return job, nil
}

// List returns jobs filtered by optional statuses, newest first.
func (s *Store) List(ctx context.Context, statuses ...Status) ([]*Job, error) {
	query := `SELECT ` + jobColumns + ` FROM jobs`
	args := make([]any, 0, len(statuses))
	if len(statuses) > 0 {
		placeholders := make([]string, len(statuses))
		for i, status := range statuses {
			placeholders[i] = "?"
			args = append(args, status)
		}
		query += ` WHERE status IN (` + strings.Join(placeholders, ", ") + `)`
	}
	query += ` ORDER BY id DESC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
	}
	defer rows.Close()

	var items []*Job
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, fmt.Errorf("scan job: %w", err)
		}
		items = append(items, job)
	}
	return items, rows.Err()
}

// Clear removes all job records and returns the number removed.
func (s *Store) Clear(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM jobs`)
	if err != nil {
		return 0, fmt.Errorf("clear jobs: %w", err)
	}
	return res.RowsAffected()
}

// Health returns aggregate session counts.
func (s *Store) Health(ctx context.Context) (HealthSummary, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT status, COUNT(1) FROM jobs GROUP BY status`)
	if err != nil {
		return HealthSummary{}, fmt.Errorf("job health: %w", err)
	}
	defer rows.Close()

	var summary HealthSummary
	for rows.Next() {
		var statusStr string
		var count int
		if err := rows.Scan(&statusStr, &count); err != nil {
			return HealthSummary{}, fmt.Errorf("scan health row: %w", err)
		}
		summary.Total += count
		status := Status(statusStr)
		switch {
		case IsActiveStatus(status):
			summary.Active += count
		case status == StatusComplete:
			summary.Complete += count
		case status == StatusFailed:
			summary.Failed += count
		case status == StatusTimedOut:
			summary.TimedOut += count
		}
	}
	return summary, rows.Err()
}

const jobColumns = "id, source_filename, original_name, duration_seconds, fps, frame_count, width, height, file_size_bytes, output_filename, depersonalize, status, progress, error_message, created_at, updated_at, started_at"

func scanJob(scanner interface{ Scan(dest ...any) error }) (*Job, error) {
	var (
		job        Job
		statusStr  string
		deperson   int64
		createdRaw string
		updatedRaw string
		startedRaw sql.NullString
	)

	if err := scanner.Scan(
		&job.ID,
		&job.SourceFilename,
		&job.OriginalName,
		&job.DurationSeconds,
		&job.FPS,
		&job.FrameCount,
		&job.Width,
		&job.Height,
		&job.FileSizeBytes,
		&job.OutputFilename,
		&deperson,
		&statusStr,
		&job.Progress,
		&job.ErrorMessage,
		&createdRaw,
		&updatedRaw,
		&startedRaw,
	); err != nil {
		return nil, err
	}

	job.Depersonalize = deperson != 0
	job.Status = Status(statusStr)
	job.CreatedAt = parseTimestamp(createdRaw)
	job.UpdatedAt = parseTimestamp(updatedRaw)
	if startedRaw.Valid && strings.TrimSpace(startedRaw.String) != "" {
		ts := parseTimestamp(startedRaw.String)
		job.StartedAt = &ts
	}
	return &job, nil
}

func parseTimestamp(raw string) time.Time {
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339} {
		if ts, err := time.Parse(layout, raw); err == nil {
			return ts.UTC()
		}
	}
	return time.Time{}
}

func boolToInt(value bool) int64 {
	if value {
		return 1
	}
	return 0
}
