package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"radiosim/internal/model"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

const createJobsTable = `
CREATE TABLE IF NOT EXISTS jobs (
    id         TEXT PRIMARY KEY,
    status     TEXT NOT NULL,
    progress   INTEGER NOT NULL,
    error      TEXT NOT NULL DEFAULT '',
    config     TEXT NOT NULL,
    result     BLOB,
    created_at DATETIME NOT NULL,
    updated_at DATETIME NOT NULL
)`

// Compile-time interface satisfaction check.
var _ Store = (*SQLiteStore)(nil)

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens the SQLite database at dbPath and runs migrations.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set busy timeout: %w", err)
	}

	if _, err := db.Exec(createJobsTable); err != nil {
		db.Close()
		return nil, fmt.Errorf("create jobs table: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// CreateJob inserts a new job record. A taken id is reported as ErrExists so
// racing duplicate creates do not surface as opaque constraint failures.
func (s *SQLiteStore) CreateJob(ctx context.Context, j *model.Job) error {
	config, err := json.Marshal(j.Config)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO jobs (id, status, progress, error, config, result, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		j.ID, j.Status, j.Progress, j.Error, string(config), nullableBlob(j.Result), j.CreatedAt, j.UpdatedAt,
	)
	if err != nil {
		var se *sqlite.Error
		if errors.As(err, &se) && se.Code() == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY {
			return ErrExists
		}
		return fmt.Errorf("insert job: %w", err)
	}
	return nil
}

// GetJob retrieves a job by ID.
func (s *SQLiteStore) GetJob(ctx context.Context, id string) (*model.Job, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, status, progress, error, config, result, created_at, updated_at
		FROM jobs WHERE id = ?`, id,
	)
	j, err := scanJob(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get job: %w", err)
	}
	return j, nil
}

// ListJobs returns all jobs in backlog order, most recently created first.
func (s *SQLiteStore) ListJobs(ctx context.Context) ([]*model.Job, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, status, progress, error, config, result, created_at, updated_at
		FROM jobs ORDER BY created_at DESC, rowid DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
	}
	defer rows.Close()

	var jobs []*model.Job
	for rows.Next() {
		j, err := scanJob(rows)
		if err != nil {
			return nil, fmt.Errorf("scan job: %w", err)
		}
		jobs = append(jobs, j)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate jobs: %w", err)
	}

	return jobs, nil
}

// UpdateJob merges the supplied fields into an existing record and refreshes
// updated_at. Status-progress invariants are not validated here.
func (s *SQLiteStore) UpdateJob(ctx context.Context, id string, upd model.JobUpdate) error {
	var result sql.Result
	var err error

	if upd.Result != nil {
		result, err = s.db.ExecContext(ctx,
			`UPDATE jobs SET status = ?, progress = ?, error = ?, result = ?, updated_at = ? WHERE id = ?`,
			upd.Status, upd.Progress, upd.Error, []byte(upd.Result), time.Now().UTC(), id,
		)
	} else {
		result, err = s.db.ExecContext(ctx,
			`UPDATE jobs SET status = ?, progress = ?, error = ?, updated_at = ? WHERE id = ?`,
			upd.Status, upd.Progress, upd.Error, time.Now().UTC(), id,
		)
	}

	if err != nil {
		return fmt.Errorf("update job: %w", err)
	}
	return checkAffected(result)
}

// ClaimJob atomically transitions a job from pending to processing. Exactly
// one of the racing callers (push dispatch vs. poller) wins; the rest get
// ErrNotPending.
func (s *SQLiteStore) ClaimJob(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx,
		`UPDATE jobs SET status = ?, progress = 0, updated_at = ? WHERE id = ? AND status = ?`,
		model.StatusProcessing, time.Now().UTC(), id, model.StatusPending,
	)
	if err != nil {
		return fmt.Errorf("claim job: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check rows affected: %w", err)
	}
	if affected == 0 {
		if _, err := s.GetJob(ctx, id); err != nil {
			return err
		}
		return ErrNotPending
	}
	return nil
}

// DeleteJob removes a job record. Deleting the row also removes the job from
// the backlog, since the backlog is the ordered table itself.
func (s *SQLiteStore) DeleteJob(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, "DELETE FROM jobs WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete job: %w", err)
	}
	return checkAffected(result)
}

// GetJobStats returns aggregate job counts grouped by status.
func (s *SQLiteStore) GetJobStats(ctx context.Context) (*JobStats, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT status, COUNT(*) FROM jobs GROUP BY status")
	if err != nil {
		return nil, fmt.Errorf("count jobs: %w", err)
	}
	defer rows.Close()

	stats := &JobStats{CountByStatus: make(map[string]int)}
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, fmt.Errorf("scan stats: %w", err)
		}
		stats.CountByStatus[status] = count
		stats.Total += count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate stats: %w", err)
	}
	return stats, nil
}

// scanner is satisfied by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanJob(row scanner) (*model.Job, error) {
	j := &model.Job{}
	var config string
	var result []byte
	if err := row.Scan(&j.ID, &j.Status, &j.Progress, &j.Error, &config, &result, &j.CreatedAt, &j.UpdatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(config), &j.Config); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if len(result) > 0 {
		j.Result = json.RawMessage(result)
	}
	return j, nil
}

func nullableBlob(b []byte) any {
	if len(b) == 0 {
		return nil
	}
	return b
}

func checkAffected(result sql.Result) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check rows affected: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}
