package jobs

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"waveforge/internal/config"
)

// ErrNotFound is returned when a mutation targets an unknown job id.
var ErrNotFound = errors.New("job not found")

// ErrFinalized is returned when a mutation targets a job that already
// reached a terminal status.
var ErrFinalized = errors.New("job is finalized")

// Store manages job persistence backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
}

// Open initializes or connects to the job database under the log directory.
func Open(cfg *config.Config) (*Store, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}

	dbPath := filepath.Join(cfg.Paths.LogDir, "jobs.db")
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
	if err := applySchema(context.Background(), db); err != nil {
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

// Create inserts a new pending job and returns it. totalSteps is one
// acquisition step plus one step per selected profile.
func (s *Store) Create(ctx context.Context, locator string, profileNames []string, outputDir string) (*Job, error) {
	if strings.TrimSpace(locator) == "" {
		return nil, errors.New("locator is required")
	}
	if len(profileNames) == 0 {
		return nil, errors.New("at least one profile is required")
	}
	if strings.TrimSpace(outputDir) == "" {
		return nil, errors.New("output directory is required")
	}

	profilesJSON, err := json.Marshal(profileNames)
	if err != nil {
		return nil, fmt.Errorf("marshal profiles: %w", err)
	}

	now := time.Now().UTC()
	timestamp := now.Format(time.RFC3339Nano)
	id := uuid.NewString()

	_, err = s.db.ExecContext(
		ctx,
		`INSERT INTO jobs (
            id, locator, profiles_json, output_dir, total_steps,
            completed_steps, phase, log_json, status, created_at, updated_at
        ) VALUES (?, ?, ?, ?, ?, 0, ?, '[]', ?, ?, ?)`,
		id,
		locator,
		string(profilesJSON),
		outputDir,
		1+len(profileNames),
		"Queued",
		StatusPending,
		timestamp,
		timestamp,
	)
	if err != nil {
		return nil, fmt.Errorf("insert job: %w", err)
	}

	return s.Get(ctx, id)
}

// Get fetches a job by identifier. Returns (nil, nil) when absent.
func (s *Store) Get(ctx context.Context, id string) (*Job, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+jobColumns+` FROM jobs WHERE id = ?`, id)
	job, err := scanJob(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get job: %w", err)
	}
	return job, nil
}

// NextPending returns the oldest pending job, or nil when the queue is empty.
func (s *Store) NextPending(ctx context.Context) (*Job, error) {
	row := s.db.QueryRowContext(
		ctx,
		`SELECT `+jobColumns+` FROM jobs WHERE status = ? ORDER BY created_at LIMIT 1`,
		StatusPending,
	)
	job, err := scanJob(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("next pending: %w", err)
	}
	return job, nil
}

// List returns jobs filtered by status set (or all jobs when none given),
// oldest first.
func (s *Store) List(ctx context.Context, statuses ...Status) ([]*Job, error) {
	query := `SELECT ` + jobColumns + ` FROM jobs`
	args := make([]any, 0, len(statuses))
	if len(statuses) > 0 {
		placeholders := make([]string, len(statuses))
		for i, status := range statuses {
			placeholders[i] = "?"
			args = append(args, status)
		}
		query += ` WHERE status IN (` + strings.Join(placeholders, ",") + `)`
	}
	query += ` ORDER BY created_at`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
	}
	defer rows.Close()

	var out []*Job
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, job)
	}
	return out, rows.Err()
}

// Advance atomically increments the step counter, overwrites the phase, and
// appends logMessage (when non-empty) to the log. A reader therefore never
// observes the counter without its matching log line. The counter can never
// exceed total_steps and never moves on a finalized job.
func (s *Store) Advance(ctx context.Context, id string, delta int, phase, logMessage string) error {
	if delta <= 0 {
		return fmt.Errorf("advance delta must be positive, got %d", delta)
	}
	return s.mutate(ctx, id, func(job *Job) error {
		if job.CompletedSteps+delta > job.TotalSteps {
			return fmt.Errorf("step overflow: %d+%d exceeds total %d", job.CompletedSteps, delta, job.TotalSteps)
		}
		job.CompletedSteps += delta
		if phase != "" {
			job.Phase = phase
		}
		if logMessage != "" {
			job.Log = append(job.Log, LogEntry{At: time.Now().UTC(), Message: logMessage})
		}
		return nil
	})
}

// SetPhase overwrites the phase text without moving the step counter.
func (s *Store) SetPhase(ctx context.Context, id, phase string) error {
	return s.mutate(ctx, id, func(job *Job) error {
		job.Phase = phase
		return nil
	})
}

// AppendLog appends one timestamped message to the job log.
func (s *Store) AppendLog(ctx context.Context, id, message string) error {
	return s.mutate(ctx, id, func(job *Job) error {
		job.Log = append(job.Log, LogEntry{At: time.Now().UTC(), Message: message})
		return nil
	})
}

// SetStatus moves the job to a non-terminal processing status.
func (s *Store) SetStatus(ctx context.Context, id string, status Status) error {
	if IsTerminal(status) {
		return fmt.Errorf("use Fail or Succeed for terminal status %q", status)
	}
	return s.mutate(ctx, id, func(job *Job) error {
		job.Status = status
		return nil
	})
}

// SetTitle records the resolved, sanitized media title.
func (s *Store) SetTitle(ctx context.Context, id, title string) error {
	return s.mutate(ctx, id, func(job *Job) error {
		job.Title = title
		return nil
	})
}

// Fail finalizes the job with a terminal error. No further mutation is
// permitted afterwards.
func (s *Store) Fail(ctx context.Context, id, message string) error {
	return s.mutate(ctx, id, func(job *Job) error {
		job.Status = StatusFailed
		job.ErrorMessage = message
		job.Phase = "Error: " + message
		job.Log = append(job.Log, LogEntry{At: time.Now().UTC(), Message: "Error: " + message})
		return nil
	})
}

// Succeed finalizes the job with the archive location.
func (s *Store) Succeed(ctx context.Context, id, archivePath string) error {
	return s.mutate(ctx, id, func(job *Job) error {
		job.Status = StatusCompleted
		job.ArchivePath = archivePath
		job.Phase = "Conversion completed!"
		return nil
	})
}

// ResetStuckProcessing fails jobs left mid-processing by a previous daemon
// run. Called once at startup before the worker starts.
func (s *Store) ResetStuckProcessing(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(
		ctx,
		`UPDATE jobs
         SET status = ?, error_message = ?, phase = ?, updated_at = ?
         WHERE status IN (?, ?, ?, ?, ?)`,
		StatusFailed,
		RestartFailureReason,
		"Error: "+RestartFailureReason,
		time.Now().UTC().Format(time.RFC3339Nano),
		StatusResolving,
		StatusAcquiring,
		StatusTranscoding,
		StatusReporting,
		StatusPackaging,
	)
	if err != nil {
		return 0, fmt.Errorf("reset stuck jobs: %w", err)
	}
	return res.RowsAffected()
}

// Stats returns a count of jobs grouped by status.
func (s *Store) Stats(ctx context.Context) (map[Status]int, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT status, COUNT(1) FROM jobs GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("job stats: %w", err)
	}
	defer rows.Close()

	stats := make(map[Status]int)
	for rows.Next() {
		var status Status
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		stats[status] = count
	}
	return stats, rows.Err()
}

// Health aggregates job counts for diagnostic output.
func (s *Store) Health(ctx context.Context) (HealthSummary, error) {
	stats, err := s.Stats(ctx)
	if err != nil {
		return HealthSummary{}, err
	}
	health := HealthSummary{}
	for status, count := range stats {
		health.Total += count
		switch {
		case status == StatusPending:
			health.Pending += count
		case status == StatusCompleted:
			health.Completed += count
		case status == StatusFailed:
			health.Failed += count
		case IsProcessing(status):
			health.Processing += count
		}
	}
	return health, nil
}

// mutate applies fn to the job row inside one transaction so readers always
// observe step counter, phase, and log as a unit.
func (s *Store) mutate(ctx context.Context, id string, fn func(*Job) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	row := tx.QueryRowContext(ctx, `SELECT `+jobColumns+` FROM jobs WHERE id = ?`, id)
	job, err := scanJob(row)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("load job: %w", err)
	}
	if IsTerminal(job.Status) {
		return ErrFinalized
	}

	if err := fn(job); err != nil {
		return err
	}

	logJSON, err := json.Marshal(job.Log)
	if err != nil {
		return fmt.Errorf("marshal log: %w", err)
	}
	profilesJSON, err := json.Marshal(job.Profiles)
	if err != nil {
		return fmt.Errorf("marshal profiles: %w", err)
	}

	job.UpdatedAt = time.Now().UTC()
	_, err = tx.ExecContext(
		ctx,
		`UPDATE jobs
         SET locator = ?, profiles_json = ?, output_dir = ?, title = ?,
             total_steps = ?, completed_steps = ?, phase = ?, log_json = ?,
             status = ?, error_message = ?, archive_path = ?, updated_at = ?
         WHERE id = ?`,
		job.Locator,
		string(profilesJSON),
		job.OutputDir,
		nullableString(job.Title),
		job.TotalSteps,
		job.CompletedSteps,
		nullableString(job.Phase),
		string(logJSON),
		job.Status,
		nullableString(job.ErrorMessage),
		nullableString(job.ArchivePath),
		job.UpdatedAt.Format(time.RFC3339Nano),
		job.ID,
	)
	if err != nil {
		return fmt.Errorf("update job: %w", err)
	}
	return tx.Commit()
}

const jobColumns = "id, locator, profiles_json, output_dir, title, total_steps, completed_steps, phase, log_json, status, error_message, archive_path, created_at, updated_at"

func scanJob(scanner interface{ Scan(dest ...any) error }) (*Job, error) {
	var (
		id             string
		locator        string
		profilesJSON   string
		outputDir      string
		title          sql.NullString
		totalSteps     int
		completedSteps int
		phase          sql.NullString
		logJSON        string
		statusStr      string
		errorMessage   sql.NullString
		archivePath    sql.NullString
		createdRaw     string
		updatedRaw     string
	)

	if err := scanner.Scan(
		&id,
		&locator,
		&profilesJSON,
		&outputDir,
		&title,
		&totalSteps,
		&completedSteps,
		&phase,
		&logJSON,
		&statusStr,
		&errorMessage,
		&archivePath,
		&createdRaw,
		&updatedRaw,
	); err != nil {
		return nil, err
	}

	job := &Job{
		ID:             id,
		Locator:        locator,
		OutputDir:      outputDir,
		Title:          title.String,
		TotalSteps:     totalSteps,
		CompletedSteps: completedSteps,
		Phase:          phase.String,
		Status:         Status(statusStr),
		ErrorMessage:   errorMessage.String,
		ArchivePath:    archivePath.String,
	}

	if err := json.Unmarshal([]byte(profilesJSON), &job.Profiles); err != nil {
		return nil, fmt.Errorf("decode profiles: %w", err)
	}
	if err := json.Unmarshal([]byte(logJSON), &job.Log); err != nil {
		return nil, fmt.Errorf("decode log: %w", err)
	}

	if created, err := time.Parse(time.RFC3339Nano, createdRaw); err == nil {
		job.CreatedAt = created
	}
	if updated, err := time.Parse(time.RFC3339Nano, updatedRaw); err == nil {
		job.UpdatedAt = updated
	}
	return job, nil
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}
