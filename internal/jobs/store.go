package jobs

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"loom/internal/config"
)

// Store manages composition job persistence backed by SQLite.
type Store struct {
	db   *sql.DB
	path string

	// appendMu serializes read-merge-write step appends. The daemon lock
	// guarantees a single process, so a process-wide mutex is sufficient to
	// keep concurrent appends to the same job from clobbering each other.
	appendMu sync.Mutex
}

// Open initializes or connects to the jobs database and applies the schema.
func Open(cfg *config.Config) (*Store, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}

	dbPath := filepath.Join(cfg.Paths.LogDir, "loom.db")
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: dbPath}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}

	return store, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the database file location.
func (s *Store) Path() string {
	return s.path
}

// Create inserts a new job in pending state and returns the stored record.
func (s *Store) Create(ctx context.Context, folderPath string) (*Job, error) {
	now := time.Now().UTC()
	timestamp := now.Format(time.RFC3339Nano)
	id := uuid.NewString()

	_, err := s.db.ExecContext(
		ctx,
		`INSERT INTO composition_jobs (
            id, status, steps, folder_path, video_path, expiration_time, created_at, updated_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		id,
		StatusPending,
		"[]",
		nullableString(folderPath),
		nil,
		nil,
		timestamp,
		timestamp,
	)
	if err != nil {
		return nil, fmt.Errorf("insert job: %w", err)
	}

	return s.Get(ctx, id)
}

// Get fetches a job by identifier. A missing job returns (nil, nil).
func (s *Store) Get(ctx context.Context, id string) (*Job, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+jobColumns+` FROM composition_jobs WHERE id = ?`, id)
	job, err := scanJob(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get job: %w", err)
	}
	return job, nil
}

// AppendSteps fetches the current step log, concatenates the new steps, and
// persists the result. Appends are serialized so concurrent writers to the
// same job id cannot interleave-and-lose entries.
func (s *Store) AppendSteps(ctx context.Context, id string, steps ...string) error {
	if len(steps) == 0 {
		return nil
	}

	s.appendMu.Lock()
	defer s.appendMu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin append tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var raw string
	if err := tx.QueryRowContext(ctx, `SELECT steps FROM composition_jobs WHERE id = ?`, id).Scan(&raw); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("append steps: job %s not found", id)
		}
		return fmt.Errorf("read step log: %w", err)
	}

	current, err := decodeSteps(raw)
	if err != nil {
		return fmt.Errorf("decode step log: %w", err)
	}
	merged, err := encodeSteps(append(current, steps...))
	if err != nil {
		return fmt.Errorf("encode step log: %w", err)
	}

	if _, err := tx.ExecContext(
		ctx,
		`UPDATE composition_jobs SET steps = ?, updated_at = ? WHERE id = ?`,
		merged,
		time.Now().UTC().Format(time.RFC3339Nano),
		id,
	); err != nil {
		return fmt.Errorf("write step log: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit step log: %w", err)
	}
	return nil
}

// SetStatus persists a status value. The store records whatever the caller
// provides as long as it is a known status; forward-only movement is the
// call sites' contract, checked via Status.Rank.
func (s *Store) SetStatus(ctx context.Context, id string, status Status) error {
	if !status.Known() {
		return fmt.Errorf("unknown status %q", status)
	}
	res, err := s.db.ExecContext(
		ctx,
		`UPDATE composition_jobs SET status = ?, updated_at = ? WHERE id = ?`,
		status,
		time.Now().UTC().Format(time.RFC3339Nano),
		id,
	)
	if err != nil {
		return fmt.Errorf("set status: %w", err)
	}
	return requireRow(res, id)
}

// SetFolder records the scratch directory owned by the job.
func (s *Store) SetFolder(ctx context.Context, id, folderPath string) error {
	res, err := s.db.ExecContext(
		ctx,
		`UPDATE composition_jobs SET folder_path = ?, updated_at = ? WHERE id = ?`,
		nullableString(folderPath),
		time.Now().UTC().Format(time.RFC3339Nano),
		id,
	)
	if err != nil {
		return fmt.Errorf("set folder: %w", err)
	}
	return requireRow(res, id)
}

// SetOutput records the produced artifact path and its expiration.
func (s *Store) SetOutput(ctx context.Context, id, videoPath string, expiresAt time.Time) error {
	res, err := s.db.ExecContext(
		ctx,
		`UPDATE composition_jobs SET video_path = ?, expiration_time = ?, updated_at = ? WHERE id = ?`,
		nullableString(videoPath),
		expiresAt.UTC().Format(time.RFC3339Nano),
		time.Now().UTC().Format(time.RFC3339Nano),
		id,
	)
	if err != nil {
		return fmt.Errorf("set output: %w", err)
	}
	return requireRow(res, id)
}

// ClearReclaimed nulls the artifact path and expiration after a sweep so the
// job is not retried for a file that no longer needs reclaiming. The record
// itself is retained as an audit trail.
func (s *Store) ClearReclaimed(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(
		ctx,
		`UPDATE composition_jobs SET video_path = NULL, expiration_time = NULL, updated_at = ? WHERE id = ?`,
		time.Now().UTC().Format(time.RFC3339Nano),
		id,
	)
	if err != nil {
		return fmt.Errorf("clear reclaimed: %w", err)
	}
	return requireRow(res, id)
}

// FindExpired returns jobs whose expiration has elapsed and whose artifact
// path is still set, ordered by expiration.
func (s *Store) FindExpired(ctx context.Context, now time.Time) ([]*Job, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT `+jobColumns+` FROM composition_jobs
         WHERE expiration_time IS NOT NULL AND expiration_time < ? AND video_path IS NOT NULL
         ORDER BY expiration_time`,
		now.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return nil, fmt.Errorf("query expired jobs: %w", err)
	}
	defer rows.Close()

	var expired []*Job
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		expired = append(expired, job)
	}
	return expired, rows.Err()
}

// List returns jobs filtered by status set (or all jobs when no status is
// provided), newest first.
func (s *Store) List(ctx context.Context, statuses ...Status) ([]*Job, error) {
	var (
		rows *sql.Rows
		err  error
	)

	baseQuery := `SELECT ` + jobColumns + ` FROM composition_jobs`
	orderClause := ` ORDER BY created_at DESC`

	if len(statuses) == 0 {
		rows, err = s.db.QueryContext(ctx, baseQuery+orderClause)
	} else {
		placeholders := makePlaceholders(len(statuses))
		args := make([]any, len(statuses))
		for i, status := range statuses {
			args[i] = status
		}
		rows, err = s.db.QueryContext(ctx, baseQuery+` WHERE status IN (`+placeholders+`)`+orderClause, args...)
	}
	if err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
	}
	defer rows.Close()

	var listed []*Job
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		listed = append(listed, job)
	}
	return listed, rows.Err()
}

// Stats returns a count of jobs grouped by status.
func (s *Store) Stats(ctx context.Context) (StatsSummary, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT status, COUNT(1) FROM composition_jobs GROUP BY status`)
	if err != nil {
		return StatsSummary{}, fmt.Errorf("job stats: %w", err)
	}
	defer rows.Close()

	var stats StatsSummary
	for rows.Next() {
		var status Status
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return StatsSummary{}, err
		}
		stats.Total += count
		switch status {
		case StatusPending:
			stats.Pending += count
		case StatusInProgress:
			stats.InProgress += count
		case StatusCompleted:
			stats.Completed += count
		case StatusFailed:
			stats.Failed += count
		}
	}
	return stats, rows.Err()
}

const jobColumns = "id, status, steps, folder_path, video_path, expiration_time, created_at, updated_at"

func scanJob(scanner interface{ Scan(dest ...any) error }) (*Job, error) {
	var (
		id         string
		statusStr  string
		stepsRaw   string
		folderPath sql.NullString
		videoPath  sql.NullString
		expiration sql.NullString
		createdRaw string
		updatedRaw string
	)

	if err := scanner.Scan(
		&id,
		&statusStr,
		&stepsRaw,
		&folderPath,
		&videoPath,
		&expiration,
		&createdRaw,
		&updatedRaw,
	); err != nil {
		return nil, err
	}

	steps, err := decodeSteps(stepsRaw)
	if err != nil {
		return nil, fmt.Errorf("decode step log for %s: %w", id, err)
	}

	job := &Job{
		ID:         id,
		Status:     Status(statusStr),
		Steps:      steps,
		FolderPath: folderPath.String,
		VideoPath:  videoPath.String,
	}

	if created, err := parseTimeString(createdRaw); err == nil {
		job.CreatedAt = created
	}
	if updated, err := parseTimeString(updatedRaw); err == nil {
		job.UpdatedAt = updated
	}
	if expiration.Valid {
		if expires, err := parseTimeString(expiration.String); err == nil {
			job.ExpiresAt = &expires
		}
	}
	return job, nil
}

func decodeSteps(raw string) ([]string, error) {
	if raw == "" {
		return nil, nil
	}
	var steps []string
	if err := json.Unmarshal([]byte(raw), &steps); err != nil {
		return nil, err
	}
	return steps, nil
}

func encodeSteps(steps []string) (string, error) {
	if steps == nil {
		steps = []string{}
	}
	encoded, err := json.Marshal(steps)
	if err != nil {
		return "", err
	}
	return string(encoded), nil
}

func requireRow(res sql.Result, id string) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("job %s not found", id)
	}
	return nil
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func parseTimeString(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, errors.New("empty")
	}
	return time.Parse(time.RFC3339Nano, value)
}

func makePlaceholders(count int) string {
	if count <= 0 {
		return ""
	}
	placeholders := make([]byte, 0, count*2)
	for i := 0; i < count; i++ {
		if i > 0 {
			placeholders = append(placeholders, ',')
		}
		placeholders = append(placeholders, '?')
	}
	return string(placeholders)
}
