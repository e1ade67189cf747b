package store

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/alicebob/miniredis/v2"

	"radiosim/internal/model"
)

func newTestRedisStore(t *testing.T) *RedisStore {
	t.Helper()
	mr := miniredis.RunT(t)
	s, err := NewRedisStore(context.Background(), mr.Addr())
	if err != nil {
		t.Fatalf("NewRedisStore: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestRedisCreateAndGetJob(t *testing.T) {
	s := newTestRedisStore(t)
	ctx := context.Background()
	j := makeTestJob()

	if err := s.CreateJob(ctx, j); err != nil {
		t.Fatalf("CreateJob: %v", err)
	}

	got, err := s.GetJob(ctx, j.ID)
	if err != nil {
		t.Fatalf("GetJob: %v", err)
	}
	if got.ID != j.ID {
		t.Errorf("ID = %q, want %q", got.ID, j.ID)
	}
	if got.Status != model.StatusPending {
		t.Errorf("Status = %q, want %q", got.Status, model.StatusPending)
	}
	if got.Config.SceneName != j.Config.SceneName {
		t.Errorf("SceneName = %q, want %q", got.Config.SceneName, j.Config.SceneName)
	}
	if !got.CreatedAt.Equal(j.CreatedAt) {
		t.Errorf("CreatedAt = %v, want %v", got.CreatedAt, j.CreatedAt)
	}
}

func TestRedisCreateJobDuplicateID(t *testing.T) {
	s := newTestRedisStore(t)
	ctx := context.Background()
	j := makeTestJob()

	if err := s.CreateJob(ctx, j); err != nil {
		t.Fatalf("first CreateJob: %v", err)
	}
	if err := s.CreateJob(ctx, j); !errors.Is(err, ErrExists) {
		t.Errorf("second CreateJob error = %v, want ErrExists", err)
	}

	// The losing create must not duplicate the backlog entry.
	jobs, err := s.ListJobs(ctx)
	if err != nil {
		t.Fatalf("ListJobs: %v", err)
	}
	if len(jobs) != 1 {
		t.Errorf("len(jobs) = %d, want 1", len(jobs))
	}
}

func TestRedisGetJobNotFound(t *testing.T) {
	s := newTestRedisStore(t)

	_, err := s.GetJob(context.Background(), "nonexistent")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("GetJob error = %v, want ErrNotFound", err)
	}
}

func TestRedisListJobsBacklogOrder(t *testing.T) {
	s := newTestRedisStore(t)
	ctx := context.Background()

	var ids []string
	for i := 0; i < 3; i++ {
		j := makeTestJob()
		if err := s.CreateJob(ctx, j); err != nil {
			t.Fatalf("CreateJob[%d]: %v", i, err)
		}
		ids = append(ids, j.ID)
	}

	jobs, err := s.ListJobs(ctx)
	if err != nil {
		t.Fatalf("ListJobs: %v", err)
	}
	if len(jobs) != 3 {
		t.Fatalf("len(jobs) = %d, want 3", len(jobs))
	}
	for i, j := range jobs {
		want := ids[len(ids)-1-i]
		if j.ID != want {
			t.Errorf("jobs[%d].ID = %q, want %q", i, j.ID, want)
		}
	}
}

func TestRedisUpdateJob(t *testing.T) {
	s := newTestRedisStore(t)
	ctx := context.Background()
	j := makeTestJob()

	if err := s.CreateJob(ctx, j); err != nil {
		t.Fatalf("CreateJob: %v", err)
	}

	result := json.RawMessage(`{"0":{"results":{"shape":[1,2]}}}`)
	if err := s.UpdateJob(ctx, j.ID, model.JobUpdate{Status: model.StatusCompleted, Progress: 100, Result: result}); err != nil {
		t.Fatalf("UpdateJob: %v", err)
	}

	got, err := s.GetJob(ctx, j.ID)
	if err != nil {
		t.Fatalf("GetJob: %v", err)
	}
	if got.Status != model.StatusCompleted || got.Progress != 100 {
		t.Errorf("job = %s/%d, want completed/100", got.Status, got.Progress)
	}
	if string(got.Result) != string(result) {
		t.Errorf("Result = %s, want %s", got.Result, result)
	}

	err = s.UpdateJob(ctx, "nonexistent", model.JobUpdate{Status: model.StatusFailed})
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("UpdateJob unknown id = %v, want ErrNotFound", err)
	}
}

func TestRedisClaimJob(t *testing.T) {
	s := newTestRedisStore(t)
	ctx := context.Background()
	j := makeTestJob()

	if err := s.CreateJob(ctx, j); err != nil {
		t.Fatalf("CreateJob: %v", err)
	}

	if err := s.ClaimJob(ctx, j.ID); err != nil {
		t.Fatalf("first ClaimJob: %v", err)
	}
	if err := s.ClaimJob(ctx, j.ID); !errors.Is(err, ErrNotPending) {
		t.Errorf("second ClaimJob error = %v, want ErrNotPending", err)
	}
	if err := s.ClaimJob(ctx, "nonexistent"); !errors.Is(err, ErrNotFound) {
		t.Errorf("ClaimJob unknown id = %v, want ErrNotFound", err)
	}
}

func TestRedisDeleteJob(t *testing.T) {
	s := newTestRedisStore(t)
	ctx := context.Background()
	j := makeTestJob()

	if err := s.CreateJob(ctx, j); err != nil {
		t.Fatalf("CreateJob: %v", err)
	}

	if err := s.DeleteJob(ctx, j.ID); err != nil {
		t.Fatalf("DeleteJob: %v", err)
	}

	// The backlog entry goes with the hash.
	jobs, err := s.ListJobs(ctx)
	if err != nil {
		t.Fatalf("ListJobs: %v", err)
	}
	if len(jobs) != 0 {
		t.Errorf("len(jobs) after delete = %d, want 0", len(jobs))
	}

	if err := s.DeleteJob(ctx, j.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("second DeleteJob error = %v, want ErrNotFound", err)
	}
}
