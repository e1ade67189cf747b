package model

import (
	"encoding/json"
	"fmt"

	"github.com/hashicorp/go-multierror"
)

// Motion type constants.
const (
	MotionLine   = "line"
	MotionCircle = "circle"
)

// Vec3 is a 3D position, serialized as a JSON array of [x, y, z].
type Vec3 [3]float64

// Motion describes how an entity moves over the course of a simulation.
// EndPosition is required for line motion, Radius for circle motion.
type Motion struct {
	Type        string  `json:"motion_type"`
	Radius      float64 `json:"radius,omitempty"`
	EndPosition *Vec3   `json:"end_position,omitempty"`
}

// EntityConfig places one simulated entity in the scene, optionally with a
// motion profile. Entities without motion hold their location for every step.
type EntityConfig struct {
	Location  Vec3    `json:"location"`
	HasMotion bool    `json:"has_motion"`
	Motion    *Motion `json:"motion,omitempty"`
}

// AntennaConfig is the planar-array antenna description shared by every
// entity in a job. It is passed through to the solver untouched.
type AntennaConfig struct {
	NumRows           int     `json:"num_rows"`
	NumCols           int     `json:"num_cols"`
	VerticalSpacing   float64 `json:"vertical_spacing"`
	HorizontalSpacing float64 `json:"horizontal_spacing"`
	Pattern           string  `json:"pattern"`
	Polarization      string  `json:"polarization"`
}

// RadioConfig holds the RF parameters shared by every entity in a job.
type RadioConfig struct {
	Frequency float64 `json:"frequency"`
	Bandwidth float64 `json:"bandwidth"`
}

// JobConfig is the full declarative description of a simulation job. It is
// immutable once attached to a job.
type JobConfig struct {
	JobID           string         `json:"job_id,omitempty"`
	SceneName       string         `json:"scene_name"`
	SimulationSteps int            `json:"simulation_steps"`
	MoveTogether    bool           `json:"move_together"`
	Antenna         AntennaConfig  `json:"antenna_configs"`
	Radio           RadioConfig    `json:"radio_configs"`
	Drones          []EntityConfig `json:"drones"`
}

// DefaultSimulationSteps is used when a config omits simulation_steps.
const DefaultSimulationSteps = 5

// UnmarshalJSON decodes a config with defaults prefilled: omitting
// simulation_steps means DefaultSimulationSteps, omitting move_together means
// synchronized motion.
func (c *JobConfig) UnmarshalJSON(data []byte) error {
	type plain JobConfig
	cfg := plain{
		SimulationSteps: DefaultSimulationSteps,
		MoveTogether:    true,
	}
	if err := json.Unmarshal(data, &cfg); err != nil {
		return err
	}
	*c = JobConfig(cfg)
	return nil
}

// Validate checks the config for structural problems and reports all of them
// at once. A job with an invalid config fails before any step runs.
func (c *JobConfig) Validate() error {
	var result *multierror.Error

	if c.SceneName == "" {
		result = multierror.Append(result, fmt.Errorf("scene_name is required"))
	}
	if c.SimulationSteps < 1 {
		result = multierror.Append(result, fmt.Errorf("simulation_steps must be >= 1, got %d", c.SimulationSteps))
	}
	if len(c.Drones) == 0 {
		result = multierror.Append(result, fmt.Errorf("at least one drone is required"))
	}

	for i, d := range c.Drones {
		if !d.HasMotion || d.Motion == nil {
			continue
		}
		switch d.Motion.Type {
		case MotionLine:
			if d.Motion.EndPosition == nil {
				result = multierror.Append(result, fmt.Errorf("drone %d: line motion requires end_position", i))
			}
		case MotionCircle:
			if d.Motion.Radius <= 0 {
				result = multierror.Append(result, fmt.Errorf("drone %d: circle motion requires a positive radius", i))
			}
		default:
			result = multierror.Append(result, fmt.Errorf("drone %d: unknown motion type %q", i, d.Motion.Type))
		}
	}

	return result.ErrorOrNil()
}
