package worker_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"radiosim/internal/codec"
	"radiosim/internal/model"
	"radiosim/internal/sim"
	"radiosim/internal/store"
	"radiosim/internal/worker"
)

// countingSolver returns a trivial response and counts invocations.
type countingSolver struct {
	calls atomic.Int32
}

func (c *countingSolver) Solve(_ context.Context, _ sim.SolveRequest) (*sim.ChannelResponse, error) {
	c.calls.Add(1)
	mag, err := codec.FromFloat64s([]int{1}, []float64{1})
	if err != nil {
		return nil, err
	}
	phase, err := codec.FromFloat64s([]int{1}, []float64{0})
	if err != nil {
		return nil, err
	}
	return &sim.ChannelResponse{Mag: mag, Phase: phase}, nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

func newFixture(t *testing.T) (store.Store, *sim.Executor, *countingSolver) {
	t.Helper()
	s, err := store.NewSQLiteStore(":memory:")
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}
	t.Cleanup(func() { s.Close() })

	solver := &countingSolver{}
	exec := sim.NewExecutor(s, solver, discardLogger())
	return s, exec, solver
}

func pendingJob(t *testing.T, s store.Store, id string) *model.Job {
	t.Helper()
	now := time.Now().UTC()
	j := &model.Job{
		ID:     id,
		Status: model.StatusPending,
		Config: model.JobConfig{
			JobID:           id,
			SceneName:       "warehouse",
			SimulationSteps: 2,
			MoveTogether:    true,
			Drones:          []model.EntityConfig{{Location: model.Vec3{0, 0, 10}}},
		},
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.CreateJob(context.Background(), j); err != nil {
		t.Fatalf("CreateJob: %v", err)
	}
	return j
}

func waitForStatus(t *testing.T, s store.Store, id, expected string, timeout time.Duration) *model.Job {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		j, err := s.GetJob(context.Background(), id)
		if err != nil {
			t.Fatalf("GetJob: %v", err)
		}
		if j.Status == expected {
			return j
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("job %s did not reach status %q within %v", id, expected, timeout)
	return nil
}

func TestPollerPicksUpPendingJobs(t *testing.T) {
	s, exec, solver := newFixture(t)
	pendingJob(t, s, "poll-1")
	pendingJob(t, s, "poll-2")

	p := worker.NewPoller(s, exec, 20*time.Millisecond, discardLogger())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		p.Run(ctx)
		close(done)
	}()

	waitForStatus(t, s, "poll-1", model.StatusCompleted, 3*time.Second)
	waitForStatus(t, s, "poll-2", model.StatusCompleted, 3*time.Second)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("poller did not stop after cancellation")
	}

	if got := solver.calls.Load(); got != 4 {
		t.Errorf("solver calls = %d, want 2 jobs x 2 steps = 4", got)
	}
}

func TestPollerIgnoresNonPending(t *testing.T) {
	s, exec, solver := newFixture(t)
	j := pendingJob(t, s, "done-job")
	if err := s.UpdateJob(context.Background(), j.ID, model.JobUpdate{Status: model.StatusCompleted, Progress: 100}); err != nil {
		t.Fatalf("UpdateJob: %v", err)
	}

	p := worker.NewPoller(s, exec, 10*time.Millisecond, discardLogger())
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	p.Run(ctx)

	if got := solver.calls.Load(); got != 0 {
		t.Errorf("solver calls = %d, want 0", got)
	}
}

// failingJobs always fails listing, exercising the empty-cycle path.
type failingJobs struct{}

func (failingJobs) ListJobs(context.Context) ([]*model.Job, error) {
	return nil, errors.New("store unreachable")
}
func (failingJobs) ClaimJob(context.Context, string) error { return nil }

func (failingJobs) UpdateJob(context.Context, string, model.JobUpdate) error { return nil }

func TestPollerSurvivesListErrors(t *testing.T) {
	exec := sim.NewExecutor(failingJobs{}, &countingSolver{}, discardLogger())
	p := worker.NewPoller(failingJobs{}, exec, 10*time.Millisecond, discardLogger())

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	// Must keep cycling and return only on cancellation.
	p.Run(ctx)
}

func TestStartSimulationEndpoint(t *testing.T) {
	s, exec, _ := newFixture(t)
	j := pendingJob(t, s, "pushed-1")

	srv := worker.NewServer(":0", exec, discardLogger())
	ts := httptest.NewServer(srv.Router())
	defer ts.Close()

	body, err := json.Marshal(map[string]model.JobConfig{"config": j.Config})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	resp, err := http.Post(ts.URL+"/api/start_simulation", "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("POST: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusAccepted {
		t.Fatalf("status = %d, want 202", resp.StatusCode)
	}

	var ack struct {
		JobID string `json:"job_id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&ack); err != nil {
		t.Fatalf("decode ack: %v", err)
	}
	if ack.JobID != "pushed-1" {
		t.Errorf("ack job id = %q", ack.JobID)
	}

	waitForStatus(t, s, "pushed-1", model.StatusCompleted, 3*time.Second)
}

func TestStartSimulationRejectsBadRequests(t *testing.T) {
	_, exec, _ := newFixture(t)
	srv := worker.NewServer(":0", exec, discardLogger())
	ts := httptest.NewServer(srv.Router())
	defer ts.Close()

	cases := []struct {
		name string
		body string
	}{
		{"invalid json", "{"},
		{"missing job id", `{"config":{"scene_name":"warehouse","simulation_steps":3,"drones":[{"location":[0,0,0]}]}}`},
		{"invalid config", `{"config":{"job_id":"x","scene_name":"","simulation_steps":0,"drones":[]}}`},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			resp, err := http.Post(ts.URL+"/api/start_simulation", "application/json", bytes.NewReader([]byte(c.body)))
			if err != nil {
				t.Fatalf("POST: %v", err)
			}
			resp.Body.Close()
			if resp.StatusCode != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", resp.StatusCode)
			}
		})
	}
}

func TestHealthEndpoint(t *testing.T) {
	_, exec, _ := newFixture(t)
	srv := worker.NewServer(":0", exec, discardLogger())
	ts := httptest.NewServer(srv.Router())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/api/health")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200", resp.StatusCode)
	}
}
