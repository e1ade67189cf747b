package sim

import (
	"fmt"
	"strconv"
	"strings"

	"radiosim/internal/model"
)

// Step is one unit of the work plan: an identifier and the position of every
// entity for that step.
type Step struct {
	ID        string
	Positions []model.Vec3
}

// BuildPlan enumerates the steps of a job from its per-entity trajectories.
//
// Synchronized mode yields exactly one step per sample index, every entity at
// index k of its own trajectory, identified by the decimal index. Independent
// mode yields the cartesian product over only the moving entities'
// trajectories, stationary entities fixed at their location; each step is
// identified by d<entity>s<sample> parts joined with "_" so results stay
// addressable.
func BuildPlan(cfg model.JobConfig, paths [][]model.Vec3) []Step {
	if cfg.MoveTogether {
		return synchronizedPlan(cfg, paths)
	}
	return independentPlan(cfg, paths)
}

func synchronizedPlan(cfg model.JobConfig, paths [][]model.Vec3) []Step {
	steps := make([]Step, cfg.SimulationSteps)
	for k := range steps {
		positions := make([]model.Vec3, len(paths))
		for i, path := range paths {
			positions[i] = path[k]
		}
		steps[k] = Step{ID: strconv.Itoa(k), Positions: positions}
	}
	return steps
}

func independentPlan(cfg model.JobConfig, paths [][]model.Vec3) []Step {
	var moving []int
	for i, d := range cfg.Drones {
		if d.HasMotion && d.Motion != nil {
			moving = append(moving, i)
		}
	}

	total := 1
	for _, i := range moving {
		total *= len(paths[i])
	}

	// Odometer over the moving entities' sample indices. With no moving
	// entities the product degenerates to a single all-stationary step.
	indices := make([]int, len(moving))
	steps := make([]Step, 0, total)
	for n := 0; n < total; n++ {
		positions := make([]model.Vec3, len(cfg.Drones))
		for i, d := range cfg.Drones {
			positions[i] = d.Location
		}

		parts := make([]string, len(moving))
		for m, i := range moving {
			positions[i] = paths[i][indices[m]]
			parts[m] = fmt.Sprintf("d%ds%d", i, indices[m])
		}

		steps = append(steps, Step{ID: strings.Join(parts, "_"), Positions: positions})

		for m := len(indices) - 1; m >= 0; m-- {
			indices[m]++
			if indices[m] < len(paths[moving[m]]) {
				break
			}
			indices[m] = 0
		}
	}
	return steps
}
