// Package sim drives simulation jobs from pending to a terminal state: it
// claims a job, expands its motion declarations into a step plan, runs the
// external per-step channel computation, and reports progress to the job
// store after every step.
package sim

import (
	"context"

	"radiosim/internal/codec"
	"radiosim/internal/model"
)

// SolveRequest is one invocation of the external per-step computation: a
// scene, the job's shared radio/antenna parameters, and the entity placements
// for this step.
type SolveRequest struct {
	SceneName string
	Radio     model.RadioConfig
	Antenna   model.AntennaConfig
	Positions []model.Vec3
}

// ChannelResponse is the complex-valued impulse response of one step, carried
// as separate magnitude and phase tensors of identical dtype and shape.
type ChannelResponse struct {
	Mag   codec.Tensor
	Phase codec.Tensor
}

// Solver computes the channel response for a single step. Implementations own
// any per-step scratch resources and must release them before returning,
// success or failure. A returned error aborts the whole job.
type Solver interface {
	Solve(ctx context.Context, req SolveRequest) (*ChannelResponse, error)
}

// Jobs is the slice of the job store the executor and poller consume. It is
// satisfied by store.Store directly and by storeclient.Client over HTTP.
type Jobs interface {
	ListJobs(ctx context.Context) ([]*model.Job, error)
	ClaimJob(ctx context.Context, id string) error
	UpdateJob(ctx context.Context, id string, upd model.JobUpdate) error
}
