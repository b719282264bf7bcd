// Package jointtraj holds the joint-space trajectory container shared by
// the retiming service, the HTTP API and the CLI: named joints, waypoints,
// and per-joint kinematic limits.
package jointtraj

import (
	"fmt"
)

// JointKind distinguishes rotary from sliding joints. The retiming
// tolerance is expressed in radians for revolute joints and metres for
// prismatic joints, so mixing kinds in one group makes it ambiguous.
type JointKind string

const (
	Revolute  JointKind = "revolute"
	Prismatic JointKind = "prismatic"
)

// Point is one waypoint of a joint trajectory. Velocities and
// Accelerations may be nil for untimed input paths; TimeFromStart is
// seconds from the trajectory start.
type Point struct {
	Positions     []float64 `json:"positions"`
	Velocities    []float64 `json:"velocities,omitempty"`
	Accelerations []float64 `json:"accelerations,omitempty"`
	TimeFromStart float64   `json:"time_from_start"`
}

// Trajectory is an ordered list of waypoints over a fixed set of named
// joints. Before retiming only Positions need to be filled in; the
// retiming pass rewrites Points with timed, fully populated samples.
type Trajectory struct {
	JointNames []string    `json:"joint_names"`
	JointKinds []JointKind `json:"joint_kinds,omitempty"`
	Points     []Point     `json:"points"`
}

// Validate checks structural consistency: at least one joint, and every
// point sized to the joint count.
func (t *Trajectory) Validate() error {
	n := len(t.JointNames)
	if n == 0 {
		return fmt.Errorf("trajectory has no joints")
	}
	if len(t.JointKinds) != 0 && len(t.JointKinds) != n {
		return fmt.Errorf("trajectory has %d joint kinds for %d joints", len(t.JointKinds), n)
	}
	if len(t.Points) == 0 {
		return fmt.Errorf("trajectory has no points")
	}
	for i, p := range t.Points {
		if len(p.Positions) != n {
			return fmt.Errorf("point %d has %d positions for %d joints", i, len(p.Positions), n)
		}
	}
	return nil
}

// Waypoints extracts the position vectors of all points.
func (t *Trajectory) Waypoints() [][]float64 {
	out := make([][]float64, len(t.Points))
	for i, p := range t.Points {
		out[i] = append([]float64(nil), p.Positions...)
	}
	return out
}

// HasMixedJointKinds reports whether the trajectory declares both revolute
// and prismatic joints.
func (t *Trajectory) HasMixedJointKinds() bool {
	var revolute, prismatic bool
	for _, k := range t.JointKinds {
		switch k {
		case Revolute:
			revolute = true
		case Prismatic:
			prismatic = true
		}
	}
	return revolute && prismatic
}

// Duration returns the time of the last point, or zero for untimed
// trajectories.
func (t *Trajectory) Duration() float64 {
	if len(t.Points) == 0 {
		return 0
	}
	return t.Points[len(t.Points)-1].TimeFromStart
}

// Limits carries per-joint velocity and acceleration bounds keyed by joint
// name. Each joint has exactly one bound of each kind; there is no
// separate override set.
type Limits struct {
	MaxVelocity     map[string]float64 `json:"max_velocity"`
	MaxAcceleration map[string]float64 `json:"max_acceleration"`
}

// Resolve produces limit vectors aligned with jointNames. Every joint must
// have strictly positive bounds of both kinds.
func (l *Limits) Resolve(jointNames []string) (maxVelocity, maxAcceleration []float64, err error) {
	maxVelocity = make([]float64, len(jointNames))
	maxAcceleration = make([]float64, len(jointNames))
	for i, name := range jointNames {
		v, ok := l.MaxVelocity[name]
		if !ok {
			return nil, nil, fmt.Errorf("no velocity limit for joint %q", name)
		}
		if v <= 0 {
			return nil, nil, fmt.Errorf("velocity limit for joint %q must be positive, got %g", name, v)
		}
		a, ok := l.MaxAcceleration[name]
		if !ok {
			return nil, nil, fmt.Errorf("no acceleration limit for joint %q", name)
		}
		if a <= 0 {
			return nil, nil, fmt.Errorf("acceleration limit for joint %q must be positive, got %g", name, a)
		}
		maxVelocity[i] = v
		maxAcceleration[i] = a
	}
	return maxVelocity, maxAcceleration, nil
}
