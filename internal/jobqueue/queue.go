package jobqueue

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/keagan/slopforge/pkg/util"
)

// Job statuses. A job moves queued -> processing -> finished | error.
const (
	StatusQueued     = "queued"
	StatusProcessing = "processing"
	StatusFinished   = "finished"
	StatusError      = "error"
)

// ErrNoJob is returned by ClaimNext when the queue is empty.
var ErrNoJob = errors.New("no queued jobs")

// Params describes the work a job asks for.
type Params struct {
	InputPaths []string `json:"input_paths"`
	NumVideos  int      `json:"num_videos"`
	UseEffects bool     `json:"use_effects"`
	UseText    bool     `json:"use_text"`
	CustomText string   `json:"custom_text,omitempty"`
	AudioPaths []string `json:"audio_paths,omitempty"`
}

// Job is a single batch request and its current state.
type Job struct {
	ID          string
	Params      Params
	Status      string
	Progress    int
	Message     string
	OutputPaths []string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Store persists jobs in a local sqlite database.
type Store struct {
	db *sql.DB
}

const schema = `
CREATE TABLE IF NOT EXISTS jobs (
	id           TEXT PRIMARY KEY,
	params       TEXT NOT NULL,
	status       TEXT NOT NULL DEFAULT 'queued',
	progress     INTEGER NOT NULL DEFAULT 0,
	message      TEXT NOT NULL DEFAULT '',
	output_paths TEXT NOT NULL DEFAULT '[]',
	created_at   TIMESTAMP NOT NULL,
	updated_at   TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_jobs_status ON jobs(status, created_at);
`

// Open opens (and if needed creates) the job database at path.
func Open(path string) (*Store, error) {
	if err := util.EnsureDir(filepath.Dir(path)); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open job database: %w", err)
	}
	// sqlite handles one writer at a time
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// Enqueue inserts a new queued job and returns its ID.
func (s *Store) Enqueue(params Params) (string, error) {
	raw, err := json.Marshal(params)
	if err != nil {
		return "", fmt.Errorf("failed to encode job params: %w", err)
	}

	id := uuid.New().String()
	now := time.Now().UTC()
	_, err = s.db.Exec(
		`INSERT INTO jobs (id, params, status, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`,
		id, string(raw), StatusQueued, now, now,
	)
	if err != nil {
		return "", fmt.Errorf("failed to enqueue job: %w", err)
	}
	return id, nil
}

// ClaimNext atomically takes the oldest queued job and marks it processing.
func (s *Store) ClaimNext() (*Job, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to begin claim: %w", err)
	}
	defer tx.Rollback()

	row := tx.QueryRow(
		`SELECT id, params, status, progress, message, output_paths, created_at, updated_at
		 FROM jobs WHERE status = ? ORDER BY created_at LIMIT 1`, StatusQueued)

	job, err := scanJob(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNoJob
		}
		return nil, err
	}

	now := time.Now().UTC()
	_, err = tx.Exec(
		`UPDATE jobs SET status = ?, message = ?, updated_at = ? WHERE id = ?`,
		StatusProcessing, "picked up by worker", now, job.ID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to claim job %s: %w", job.ID, err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit claim: %w", err)
	}

	job.Status = StatusProcessing
	job.UpdatedAt = now
	return job, nil
}

// SetProgress records the latest progress percent and message for a job.
func (s *Store) SetProgress(id string, percent int, message string) error {
	_, err := s.db.Exec(
		`UPDATE jobs SET progress = ?, message = ?, updated_at = ? WHERE id = ?`,
		percent, message, time.Now().UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("failed to update progress for job %s: %w", id, err)
	}
	return nil
}

// Finish marks a job complete with the paths of its rendered outputs.
func (s *Store) Finish(id string, outputPaths []string) error {
	raw, err := json.Marshal(outputPaths)
	if err != nil {
		return fmt.Errorf("failed to encode output paths: %w", err)
	}
	_, err = s.db.Exec(
		`UPDATE jobs SET status = ?, progress = 100, message = ?, output_paths = ?, updated_at = ? WHERE id = ?`,
		StatusFinished, "done", string(raw), time.Now().UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("failed to finish job %s: %w", id, err)
	}
	return nil
}

// Fail marks a job failed with a reason.
func (s *Store) Fail(id string, reason string) error {
	_, err := s.db.Exec(
		`UPDATE jobs SET status = ?, message = ?, updated_at = ? WHERE id = ?`,
		StatusError, reason, time.Now().UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("failed to mark job %s as errored: %w", id, err)
	}
	return nil
}

// Get fetches a job by ID.
func (s *Store) Get(id string) (*Job, error) {
	row := s.db.QueryRow(
		`SELECT id, params, status, progress, message, output_paths, created_at, updated_at
		 FROM jobs WHERE id = ?`, id)
	job, err := scanJob(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("job %s not found", id)
		}
		return nil, err
	}
	return job, nil
}

func scanJob(row *sql.Row) (*Job, error) {
	var (
		job        Job
		rawParams  string
		rawOutputs string
	)
	err := row.Scan(&job.ID, &rawParams, &job.Status, &job.Progress, &job.Message,
		&rawOutputs, &job.CreatedAt, &job.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(rawParams), &job.Params); err != nil {
		return nil, fmt.Errorf("corrupt params for job %s: %w", job.ID, err)
	}
	if err := json.Unmarshal([]byte(rawOutputs), &job.OutputPaths); err != nil {
		return nil, fmt.Errorf("corrupt output paths for job %s: %w", job.ID, err)
	}
	return &job, nil
}
