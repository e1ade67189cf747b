// Package trajectory expands per-entity motion declarations into ordered
// position sequences. Generation is a pure function of its inputs.
package trajectory

import (
	"fmt"
	"math"

	"radiosim/internal/model"
)

// Generate returns one sequence of n positions per entity, in input order.
// Entities without motion repeat their location; line motion interpolates
// inclusively between location and end_position; circle motion walks a circle
// of the given radius whose center sits at radius along +X from the entity,
// starting at the entity's own location (180 degrees from the center offset)
// with the Z coordinate held fixed.
func Generate(entities []model.EntityConfig, n int) ([][]model.Vec3, error) {
	if n < 1 {
		return nil, fmt.Errorf("step count must be >= 1, got %d", n)
	}

	paths := make([][]model.Vec3, 0, len(entities))
	for i, e := range entities {
		if !e.HasMotion || e.Motion == nil {
			paths = append(paths, stationary(e.Location, n))
			continue
		}
		switch e.Motion.Type {
		case model.MotionLine:
			if e.Motion.EndPosition == nil {
				return nil, fmt.Errorf("entity %d: line motion without end_position", i)
			}
			paths = append(paths, line(e.Location, *e.Motion.EndPosition, n))
		case model.MotionCircle:
			if e.Motion.Radius <= 0 {
				return nil, fmt.Errorf("entity %d: circle motion without a positive radius", i)
			}
			paths = append(paths, circle(e.Location, e.Motion.Radius, n))
		default:
			return nil, fmt.Errorf("entity %d: unknown motion type %q", i, e.Motion.Type)
		}
	}
	return paths, nil
}

func stationary(p model.Vec3, n int) []model.Vec3 {
	path := make([]model.Vec3, n)
	for i := range path {
		path[i] = p
	}
	return path
}

// line samples n points from start to end inclusive of both endpoints.
// A single sample degenerates to the start point.
func line(start, end model.Vec3, n int) []model.Vec3 {
	if n == 1 {
		return []model.Vec3{start}
	}
	path := make([]model.Vec3, n)
	for i := 0; i < n; i++ {
		t := float64(i) / float64(n-1)
		for axis := 0; axis < 3; axis++ {
			path[i][axis] = start[axis] + t*(end[axis]-start[axis])
		}
	}
	return path
}

// circle samples n points on the circle of the given radius centered at
// (x+radius, y), starting at angle 180 degrees so the first sample is the
// entity's own location, and advancing 360/n degrees per step.
func circle(p model.Vec3, radius float64, n int) []model.Vec3 {
	centerX := p[0] + radius
	centerY := p[1]
	step := 360.0 / float64(n)

	path := make([]model.Vec3, n)
	for i := 0; i < n; i++ {
		rad := (180.0 + float64(i)*step) * math.Pi / 180.0
		path[i] = model.Vec3{
			centerX + radius*math.Cos(rad),
			centerY + radius*math.Sin(rad),
			p[2],
		}
	}
	return path
}
