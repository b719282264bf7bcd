// Package retime wraps the core trajectory generator into the service used
// by the API and the CLI: it resolves named joint limits, validates scaling
// factors, pre-filters waypoints, and resamples the optimal trajectory back
// onto the host container at a fixed interval.
package retime

import (
	"fmt"
	"log"
	"math"

	"github.com/waypoint-robotics/pathtime/internal/jointtraj"
	"github.com/waypoint-robotics/pathtime/internal/totg"
)

// Defaults for the retiming options. The path tolerance is in radians for
// revolute joints and metres for prismatic joints.
const (
	DefaultPathTolerance  = 0.1
	DefaultResampleDt     = 0.1
	DefaultMinAngleChange = 1e-3
)

// LimitType labels which family of limits a scaling factor applies to.
type LimitType int

const (
	Velocity LimitType = iota
	Acceleration
)

var limitTypeNames = map[LimitType]string{
	Velocity:     "velocity",
	Acceleration: "acceleration",
}

func (lt LimitType) String() string { return limitTypeNames[lt] }

// Parameterization holds the retiming options. The zero value is not
// usable; construct with New.
type Parameterization struct {
	// PathTolerance is the maximum deviation allowed at interior waypoints
	// when blending the path.
	PathTolerance float64
	// ResampleDt is the output sample interval in seconds.
	ResampleDt float64
	// MinAngleChange drops adjacent waypoints whose largest per-joint
	// change is below it, before the path is built.
	MinAngleChange float64
	// TimeStep is the phase-plane integration step.
	TimeStep float64
}

// New returns a Parameterization with the given options; non-positive
// values fall back to the defaults.
func New(pathTolerance, resampleDt, minAngleChange float64) *Parameterization {
	p := &Parameterization{
		PathTolerance:  pathTolerance,
		ResampleDt:     resampleDt,
		MinAngleChange: minAngleChange,
		TimeStep:       totg.DefaultTimeStep,
	}
	if p.PathTolerance <= 0 {
		p.PathTolerance = DefaultPathTolerance
	}
	if p.ResampleDt <= 0 {
		p.ResampleDt = DefaultResampleDt
	}
	if p.MinAngleChange <= 0 {
		p.MinAngleChange = DefaultMinAngleChange
	}
	return p
}

// verifyScalingFactor returns the requested factor if it lies in (0, 1],
// and 1.0 otherwise, logging what was coerced.
func verifyScalingFactor(requested float64, limitType LimitType) float64 {
	if requested <= 0 || requested > 1 {
		log.Printf("[retime] invalid max_%s_scaling_factor %g specified, defaulting to 1.0 instead",
			limitType, requested)
		return 1.0
	}
	return requested
}

// filterWaypoints drops adjacent waypoints whose largest per-joint change
// does not exceed minChange. The first waypoint is always kept; the last
// is kept whenever it differs at all from the previous kept waypoint.
func filterWaypoints(waypoints [][]float64, minChange float64) [][]float64 {
	if len(waypoints) == 0 {
		return nil
	}
	kept := [][]float64{waypoints[0]}
	for i := 1; i < len(waypoints); i++ {
		last := kept[len(kept)-1]
		maxChange := 0.0
		for j := range waypoints[i] {
			if change := math.Abs(waypoints[i][j] - last[j]); change > maxChange {
				maxChange = change
			}
		}
		if maxChange > minChange || i == len(waypoints)-1 && maxChange > 0 {
			kept = append(kept, waypoints[i])
		}
	}
	return kept
}

// Solve builds the blended path through traj's waypoints and generates the
// time-optimal trajectory along it, without touching the container.
// Scaling factors outside (0, 1] are coerced to 1.0. A nil result with a
// nil error means the trajectory has nothing to retime (fewer than two
// distinct waypoints after filtering).
func (p *Parameterization) Solve(traj *jointtraj.Trajectory, limits jointtraj.Limits, velocityScale, accelerationScale float64) (*totg.Trajectory, error) {
	if err := traj.Validate(); err != nil {
		return nil, fmt.Errorf("invalid trajectory: %w", err)
	}
	if traj.HasMixedJointKinds() {
		log.Printf("[retime] group mixes revolute and prismatic joints; path tolerance %g has ambiguous units", p.PathTolerance)
	}

	maxVelocity, maxAcceleration, err := limits.Resolve(traj.JointNames)
	if err != nil {
		return nil, fmt.Errorf("resolve limits: %w", err)
	}
	velocityScale = verifyScalingFactor(velocityScale, Velocity)
	accelerationScale = verifyScalingFactor(accelerationScale, Acceleration)
	for i := range maxVelocity {
		maxVelocity[i] *= velocityScale
		maxAcceleration[i] *= accelerationScale
	}

	waypoints := filterWaypoints(traj.Waypoints(), p.MinAngleChange)
	if len(waypoints) < 2 {
		// Nothing moves far enough to retime; a single-point trajectory is
		// already at its goal.
		return nil, nil
	}

	path, err := totg.NewPath(waypoints, p.PathTolerance)
	if err != nil {
		return nil, fmt.Errorf("build path: %w", err)
	}
	optimal, err := totg.NewTrajectory(path, maxVelocity, maxAcceleration, p.TimeStep)
	if err != nil {
		return nil, fmt.Errorf("parameterize path: %w", err)
	}
	return optimal, nil
}

// ComputeTimeStamps retimes traj in place: waypoint times, velocities and
// accelerations are replaced with samples of the time-optimal trajectory
// at ResampleDt intervals. The start and goal configurations are
// preserved; intermediate samples lie on the blended path within
// PathTolerance.
//
// On error the container is left untouched.
func (p *Parameterization) ComputeTimeStamps(traj *jointtraj.Trajectory, limits jointtraj.Limits, velocityScale, accelerationScale float64) error {
	optimal, err := p.Solve(traj, limits, velocityScale, accelerationScale)
	if err != nil {
		return err
	}
	if optimal == nil {
		return nil
	}
	p.Resample(traj, optimal)
	return nil
}

// ComputeTimeStampsWithCount retimes traj to approximately numWaypoints
// equally spaced samples: a first pass finds the optimal duration, a
// second pass resamples at duration/(numWaypoints-1).
func (p *Parameterization) ComputeTimeStampsWithCount(numWaypoints int, traj *jointtraj.Trajectory, limits jointtraj.Limits, velocityScale, accelerationScale float64) error {
	if numWaypoints < 2 {
		return fmt.Errorf("need at least 2 output waypoints, got %d", numWaypoints)
	}
	if err := p.ComputeTimeStamps(traj, limits, velocityScale, accelerationScale); err != nil {
		return err
	}
	resampled := New(p.PathTolerance, traj.Duration()/float64(numWaypoints-1), p.MinAngleChange)
	resampled.TimeStep = p.TimeStep
	return resampled.ComputeTimeStamps(traj, limits, velocityScale, accelerationScale)
}

// Resample replaces the container's points with samples of the optimal
// trajectory spaced ResampleDt apart, the last sample landing exactly on
// the optimal duration.
func (p *Parameterization) Resample(traj *jointtraj.Trajectory, optimal *totg.Trajectory) {
	duration := optimal.Duration()
	sampleCount := int(math.Ceil(duration / p.ResampleDt))
	points := make([]jointtraj.Point, 0, sampleCount+1)
	for sample := 0; sample <= sampleCount; sample++ {
		t := math.Min(duration, float64(sample)*p.ResampleDt)
		points = append(points, jointtraj.Point{
			Positions:     optimal.Position(t),
			Velocities:    optimal.Velocity(t),
			Accelerations: optimal.Acceleration(t),
			TimeFromStart: t,
		})
	}
	traj.Points = points
}
