package sim

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/avast/retry-go"

	"radiosim/internal/codec"
	"radiosim/internal/model"
	"radiosim/internal/store"
	"radiosim/internal/trajectory"
)

const (
	updateAttempts = 3
	updateDelay    = 100 * time.Millisecond
)

// StepRecord is the accumulated outcome of one step: the entity placements
// used and the encoded channel response.
type StepRecord struct {
	DroneLocations []model.Vec3 `json:"drone_locations"`
	Results        StepPayload  `json:"results"`
}

// StepPayload packages one step's channel response for transport. Magnitude
// and phase share a dtype and shape.
type StepPayload struct {
	CIRMag    string      `json:"cir_mag"`
	CIRPhase  string      `json:"cir_phase"`
	DType     codec.DType `json:"dtype"`
	Shape     []int       `json:"shape"`
	NumDrones int         `json:"num_drones"`
	SceneName string      `json:"scene_name"`
}

// Executor drives one job at a time from pending to a terminal state.
type Executor struct {
	jobs   Jobs
	solver Solver
	logger *slog.Logger
}

// NewExecutor creates an executor reporting to jobs and computing via solver.
func NewExecutor(jobs Jobs, solver Solver, logger *slog.Logger) *Executor {
	return &Executor{
		jobs:   jobs,
		solver: solver,
		logger: logger,
	}
}

// Run claims the job and executes it to completion. If another trigger
// already claimed the job, Run returns nil without touching it. Any config or
// step error marks the job failed (progress 0, partial results discarded) and
// is returned to the caller; callers never retry a failed job.
func (e *Executor) Run(ctx context.Context, job *model.Job) error {
	log := e.logger.With("job_id", job.ID)

	err := e.jobs.ClaimJob(ctx, job.ID)
	if errors.Is(err, store.ErrNotPending) {
		log.Info("job already claimed, skipping")
		return nil
	}
	if err != nil {
		return fmt.Errorf("claim job %s: %w", job.ID, err)
	}

	log.Info("starting simulation", "scene", job.Config.SceneName, "steps", job.Config.SimulationSteps)

	if err := e.execute(ctx, job, log); err != nil {
		log.Error("simulation failed", "error", err)
		jobsFinishedTotal.WithLabelValues(model.StatusFailed).Inc()
		e.report(ctx, job.ID, model.JobUpdate{
			Status: model.StatusFailed,
			Error:  err.Error(),
		}, log)
		return err
	}

	log.Info("simulation completed")
	jobsFinishedTotal.WithLabelValues(model.StatusCompleted).Inc()
	return nil
}

func (e *Executor) execute(ctx context.Context, job *model.Job, log *slog.Logger) error {
	cfg := job.Config
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	paths, err := trajectory.Generate(cfg.Drones, cfg.SimulationSteps)
	if err != nil {
		return fmt.Errorf("generate trajectories: %w", err)
	}

	steps := BuildPlan(cfg, paths)
	results := make(map[string]StepRecord, len(steps))

	for done, step := range steps {
		if err := ctx.Err(); err != nil {
			return err
		}

		start := time.Now()
		resp, err := e.solver.Solve(ctx, SolveRequest{
			SceneName: cfg.SceneName,
			Radio:     cfg.Radio,
			Antenna:   cfg.Antenna,
			Positions: step.Positions,
		})
		if err != nil {
			return fmt.Errorf("step %s: %w", step.ID, err)
		}
		stepDuration.Observe(time.Since(start).Seconds())
		stepsTotal.Inc()

		payload, err := packResponse(cfg.SceneName, step, resp)
		if err != nil {
			return fmt.Errorf("step %s: %w", step.ID, err)
		}
		results[step.ID] = StepRecord{
			DroneLocations: step.Positions,
			Results:        payload,
		}

		e.report(ctx, job.ID, model.JobUpdate{
			Status:   model.StatusProcessing,
			Progress: progressFor(done+1, len(steps)),
		}, log)
	}

	encoded, err := json.Marshal(results)
	if err != nil {
		return fmt.Errorf("marshal results: %w", err)
	}

	e.report(ctx, job.ID, model.JobUpdate{
		Status:   model.StatusCompleted,
		Progress: 100,
		Result:   encoded,
	}, log)
	return nil
}

// report pushes a status update with a few quick retries. A persistently
// failing update is logged and dropped: the run keeps going with stale
// progress rather than aborting.
func (e *Executor) report(ctx context.Context, id string, upd model.JobUpdate, log *slog.Logger) {
	err := retry.Do(
		func() error { return e.jobs.UpdateJob(ctx, id, upd) },
		retry.Attempts(updateAttempts),
		retry.Delay(updateDelay),
		retry.LastErrorOnly(true),
	)
	if err != nil {
		log.Error("failed to report job status", "status", upd.Status, "progress", upd.Progress, "error", err)
	}
}

func packResponse(sceneName string, step Step, resp *ChannelResponse) (StepPayload, error) {
	mag, err := codec.Encode(resp.Mag)
	if err != nil {
		return StepPayload{}, fmt.Errorf("encode magnitude: %w", err)
	}
	phase, err := codec.Encode(resp.Phase)
	if err != nil {
		return StepPayload{}, fmt.Errorf("encode phase: %w", err)
	}
	if mag.DType != phase.DType || !equalShape(mag.Shape, phase.Shape) {
		return StepPayload{}, fmt.Errorf("magnitude %v/%s and phase %v/%s disagree", mag.Shape, mag.DType, phase.Shape, phase.DType)
	}

	return StepPayload{
		CIRMag:    mag.Token,
		CIRPhase:  phase.Token,
		DType:     mag.DType,
		Shape:     mag.Shape,
		NumDrones: len(step.Positions),
		SceneName: sceneName,
	}, nil
}

func equalShape(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// progressFor reports completion as a 0-100 percentage, rounded up so every
// finished step is visible and the last step lands exactly on 100.
func progressFor(done, total int) int {
	return int(math.Ceil(100 * float64(done) / float64(total)))
}
