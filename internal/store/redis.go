package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"radiosim/internal/model"
)

const backlogKey = "jobs"

// Compile-time interface satisfaction check.
var _ Store = (*RedisStore)(nil)

// RedisStore implements Store using Redis: one hash per job plus a backlog
// list of ids in most-recently-created-first order.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore connects to Redis at addr and verifies the connection.
func NewRedisStore(ctx context.Context, addr string) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return &RedisStore{client: client}, nil
}

// Close closes the underlying Redis connection.
func (s *RedisStore) Close() error {
	return s.client.Close()
}

func jobKey(id string) string {
	return "job:" + id
}

// CreateJob stores the job hash and pushes its id onto the backlog. The id
// field is reserved first with HSETNX, so of two racing creates exactly one
// wins and the other gets ErrExists.
func (s *RedisStore) CreateJob(ctx context.Context, j *model.Job) error {
	fields, err := jobFields(j)
	if err != nil {
		return err
	}

	reserved, err := s.client.HSetNX(ctx, jobKey(j.ID), "id", j.ID).Result()
	if err != nil {
		return fmt.Errorf("create job: %w", err)
	}
	if !reserved {
		return ErrExists
	}

	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, jobKey(j.ID), fields)
		pipe.LPush(ctx, backlogKey, j.ID)
		return nil
	})
	if err != nil {
		return fmt.Errorf("create job: %w", err)
	}
	return nil
}

// GetJob retrieves a job by ID.
func (s *RedisStore) GetJob(ctx context.Context, id string) (*model.Job, error) {
	data, err := s.client.HGetAll(ctx, jobKey(id)).Result()
	if err != nil {
		return nil, fmt.Errorf("get job: %w", err)
	}
	if len(data) == 0 {
		return nil, ErrNotFound
	}
	return jobFromFields(data)
}

// ListJobs returns all jobs in backlog order. Ids whose hash has vanished are
// skipped rather than failing the whole listing.
func (s *RedisStore) ListJobs(ctx context.Context) ([]*model.Job, error) {
	ids, err := s.client.LRange(ctx, backlogKey, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("read backlog: %w", err)
	}

	var jobs []*model.Job
	for _, id := range ids {
		j, err := s.GetJob(ctx, id)
		if errors.Is(err, ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, j)
	}
	return jobs, nil
}

// UpdateJob merges the supplied fields into the job hash and refreshes
// updated_at.
func (s *RedisStore) UpdateJob(ctx context.Context, id string, upd model.JobUpdate) error {
	key := jobKey(id)

	exists, err := s.client.Exists(ctx, key).Result()
	if err != nil {
		return fmt.Errorf("update job: %w", err)
	}
	if exists == 0 {
		return ErrNotFound
	}

	fields := map[string]any{
		"status":     upd.Status,
		"progress":   upd.Progress,
		"error":      upd.Error,
		"updated_at": time.Now().UTC().Format(time.RFC3339Nano),
	}
	if upd.Result != nil {
		fields["result"] = string(upd.Result)
	}

	if err := s.client.HSet(ctx, key, fields).Err(); err != nil {
		return fmt.Errorf("update job: %w", err)
	}
	return nil
}

// ClaimJob transitions a job from pending to processing using an optimistic
// WATCH transaction, so only one racing claimer succeeds.
func (s *RedisStore) ClaimJob(ctx context.Context, id string) error {
	key := jobKey(id)

	claim := func(tx *redis.Tx) error {
		status, err := tx.HGet(ctx, key, "status").Result()
		if errors.Is(err, redis.Nil) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		if status != model.StatusPending {
			return ErrNotPending
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.HSet(ctx, key, map[string]any{
				"status":     model.StatusProcessing,
				"progress":   0,
				"updated_at": time.Now().UTC().Format(time.RFC3339Nano),
			})
			return nil
		})
		return err
	}

	err := s.client.Watch(ctx, claim, key)
	if errors.Is(err, redis.TxFailedErr) {
		// Another claimer modified the job between read and write.
		return ErrNotPending
	}
	if err != nil && !errors.Is(err, ErrNotFound) && !errors.Is(err, ErrNotPending) {
		return fmt.Errorf("claim job: %w", err)
	}
	return err
}

// DeleteJob removes the job hash and its backlog entry together.
func (s *RedisStore) DeleteJob(ctx context.Context, id string) error {
	exists, err := s.client.Exists(ctx, jobKey(id)).Result()
	if err != nil {
		return fmt.Errorf("delete job: %w", err)
	}
	if exists == 0 {
		return ErrNotFound
	}

	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.LRem(ctx, backlogKey, 0, id)
		pipe.Del(ctx, jobKey(id))
		return nil
	})
	if err != nil {
		return fmt.Errorf("delete job: %w", err)
	}
	return nil
}

// GetJobStats returns aggregate job counts grouped by status.
func (s *RedisStore) GetJobStats(ctx context.Context) (*JobStats, error) {
	jobs, err := s.ListJobs(ctx)
	if err != nil {
		return nil, err
	}

	stats := &JobStats{CountByStatus: make(map[string]int)}
	for _, j := range jobs {
		stats.CountByStatus[j.Status]++
		stats.Total++
	}
	return stats, nil
}

func jobFields(j *model.Job) (map[string]any, error) {
	config, err := json.Marshal(j.Config)
	if err != nil {
		return nil, fmt.Errorf("marshal config: %w", err)
	}

	fields := map[string]any{
		"id":         j.ID,
		"status":     j.Status,
		"progress":   j.Progress,
		"error":      j.Error,
		"config":     string(config),
		"created_at": j.CreatedAt.UTC().Format(time.RFC3339Nano),
		"updated_at": j.UpdatedAt.UTC().Format(time.RFC3339Nano),
	}
	if j.Result != nil {
		fields["result"] = string(j.Result)
	}
	return fields, nil
}

func jobFromFields(data map[string]string) (*model.Job, error) {
	j := &model.Job{
		ID:     data["id"],
		Status: data["status"],
		Error:  data["error"],
	}

	if v, ok := data["progress"]; ok {
		progress, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("parse progress: %w", err)
		}
		j.Progress = progress
	}
	if err := json.Unmarshal([]byte(data["config"]), &j.Config); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if v, ok := data["result"]; ok && v != "" {
		j.Result = json.RawMessage(v)
	}

	var err error
	if j.CreatedAt, err = time.Parse(time.RFC3339Nano, data["created_at"]); err != nil {
		return nil, fmt.Errorf("parse created_at: %w", err)
	}
	if j.UpdatedAt, err = time.Parse(time.RFC3339Nano, data["updated_at"]); err != nil {
		return nil, fmt.Errorf("parse updated_at: %w", err)
	}
	return j, nil
}
