package store

import (
	"context"
	"errors"

	"radiosim/internal/model"
)

// ErrNotFound is returned when a job is not found.
var ErrNotFound = errors.New("job not found")

// ErrExists is returned when creating a job whose id is already taken.
var ErrExists = errors.New("job already exists")

// ErrNotPending is returned when a claim loses the pending->processing
// transition because the job already left the pending state.
var ErrNotPending = errors.New("job is not pending")

// JobStats holds aggregate job counts.
type JobStats struct {
	Total         int            `json:"total"`
	CountByStatus map[string]int `json:"count_by_status"`
}

// Store defines the persistence operations for jobs. Implementations are safe
// for concurrent use; per-id mutation is last-write-wins except for ClaimJob,
// which is an atomic conditional transition.
type Store interface {
	CreateJob(ctx context.Context, j *model.Job) error
	GetJob(ctx context.Context, id string) (*model.Job, error)
	ListJobs(ctx context.Context) ([]*model.Job, error)
	UpdateJob(ctx context.Context, id string, upd model.JobUpdate) error
	ClaimJob(ctx context.Context, id string) error
	DeleteJob(ctx context.Context, id string) error
	GetJobStats(ctx context.Context) (*JobStats, error)
	Close() error
}
