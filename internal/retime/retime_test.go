package retime

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/waypoint-robotics/pathtime/internal/jointtraj"
)

func testLimits() jointtraj.Limits {
	return jointtraj.Limits{
		MaxVelocity:     map[string]float64{"shoulder": 1, "elbow": 1},
		MaxAcceleration: map[string]float64{"shoulder": 1, "elbow": 1},
	}
}

func testTrajectory(waypoints ...[]float64) *jointtraj.Trajectory {
	traj := &jointtraj.Trajectory{JointNames: []string{"shoulder", "elbow"}}
	for _, w := range waypoints {
		traj.Points = append(traj.Points, jointtraj.Point{Positions: w})
	}
	return traj
}

func TestNewAppliesDefaults(t *testing.T) {
	t.Parallel()

	p := New(0, 0, 0)
	assert.Equal(t, DefaultPathTolerance, p.PathTolerance)
	assert.Equal(t, DefaultResampleDt, p.ResampleDt)
	assert.Equal(t, DefaultMinAngleChange, p.MinAngleChange)

	p = New(0.2, 0.05, 0.01)
	assert.Equal(t, 0.2, p.PathTolerance)
	assert.Equal(t, 0.05, p.ResampleDt)
	assert.Equal(t, 0.01, p.MinAngleChange)
}

func TestVerifyScalingFactor(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 0.5, verifyScalingFactor(0.5, Velocity))
	assert.Equal(t, 1.0, verifyScalingFactor(1.0, Acceleration))
	assert.Equal(t, 1.0, verifyScalingFactor(0, Velocity))
	assert.Equal(t, 1.0, verifyScalingFactor(-0.3, Velocity))
	assert.Equal(t, 1.0, verifyScalingFactor(2.5, Acceleration))
}

func TestFilterWaypoints(t *testing.T) {
	t.Parallel()

	t.Run("drops small interior changes", func(t *testing.T) {
		t.Parallel()
		kept := filterWaypoints([][]float64{
			{0, 0},
			{1e-5, 0},
			{0.5, 0},
			{1, 0},
		}, 1e-3)
		assert.Len(t, kept, 3)
	})

	t.Run("keeps the final waypoint", func(t *testing.T) {
		t.Parallel()
		kept := filterWaypoints([][]float64{
			{0, 0},
			{1, 0},
			{1 + 1e-5, 0},
		}, 1e-3)
		require.Len(t, kept, 3)
		assert.Equal(t, []float64{1 + 1e-5, 0}, kept[2])
	})

	t.Run("collapses exact duplicates", func(t *testing.T) {
		t.Parallel()
		kept := filterWaypoints([][]float64{
			{0, 0},
			{0, 0},
			{1, 0},
			{1, 0},
		}, 1e-3)
		assert.Len(t, kept, 2)
	})
}

func TestComputeTimeStampsStraightLine(t *testing.T) {
	t.Parallel()

	traj := testTrajectory([]float64{0, 0}, []float64{1, 0})
	p := New(0.1, 0.1, 1e-3)
	require.NoError(t, p.ComputeTimeStamps(traj, testLimits(), 1.0, 1.0))

	require.GreaterOrEqual(t, len(traj.Points), 2)

	// Samples spaced ResampleDt apart, the last landing on the duration.
	for i := 0; i < len(traj.Points)-1; i++ {
		assert.InDelta(t, float64(i)*p.ResampleDt, traj.Points[i].TimeFromStart, 1e-12)
	}
	duration := traj.Duration()
	assert.InDelta(t, 2.0, duration, 0.01)

	// Start and goal configurations preserved; rest-to-rest.
	first, last := traj.Points[0], traj.Points[len(traj.Points)-1]
	assert.InDelta(t, 0, first.Positions[0], 1e-9)
	assert.InDelta(t, 1, last.Positions[0], 1e-6)
	assert.InDelta(t, 0, math.Abs(first.Velocities[0]), 1e-6)
	assert.InDelta(t, 0, math.Abs(last.Velocities[0]), 1e-6)

	// Every sample is fully populated.
	for i, pt := range traj.Points {
		assert.Len(t, pt.Positions, 2, "point %d", i)
		assert.Len(t, pt.Velocities, 2, "point %d", i)
		assert.Len(t, pt.Accelerations, 2, "point %d", i)
	}
}

func TestComputeTimeStampsScalingSlowsTrajectory(t *testing.T) {
	t.Parallel()

	limits := testLimits()

	full := testTrajectory([]float64{0, 0}, []float64{1, 0})
	p := New(0.1, 0.1, 1e-3)
	require.NoError(t, p.ComputeTimeStamps(full, limits, 1.0, 1.0))

	slowed := testTrajectory([]float64{0, 0}, []float64{1, 0})
	require.NoError(t, p.ComputeTimeStamps(slowed, limits, 0.5, 0.25))

	assert.Greater(t, slowed.Duration(), full.Duration())
}

func TestComputeTimeStampsCoercesInvalidScaling(t *testing.T) {
	t.Parallel()

	limits := testLimits()

	base := testTrajectory([]float64{0, 0}, []float64{1, 0})
	p := New(0.1, 0.1, 1e-3)
	require.NoError(t, p.ComputeTimeStamps(base, limits, 1.0, 1.0))

	coerced := testTrajectory([]float64{0, 0}, []float64{1, 0})
	require.NoError(t, p.ComputeTimeStamps(coerced, limits, 7.0, -1.0))

	assert.InDelta(t, base.Duration(), coerced.Duration(), 1e-9)
}

func TestComputeTimeStampsMissingLimit(t *testing.T) {
	t.Parallel()

	traj := testTrajectory([]float64{0, 0}, []float64{1, 0})
	limits := jointtraj.Limits{
		MaxVelocity:     map[string]float64{"shoulder": 1},
		MaxAcceleration: map[string]float64{"shoulder": 1, "elbow": 1},
	}
	err := New(0.1, 0.1, 1e-3).ComputeTimeStamps(traj, limits, 1.0, 1.0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "elbow")
}

func TestComputeTimeStampsSinglePointNoop(t *testing.T) {
	t.Parallel()

	traj := testTrajectory([]float64{0.5, 0.5})
	require.NoError(t, New(0.1, 0.1, 1e-3).ComputeTimeStamps(traj, testLimits(), 1.0, 1.0))
	assert.Len(t, traj.Points, 1)
}

func TestComputeTimeStampsWithCount(t *testing.T) {
	t.Parallel()

	traj := testTrajectory([]float64{0, 0}, []float64{1, 0})
	p := New(0.1, 0.1, 1e-3)
	require.NoError(t, p.ComputeTimeStampsWithCount(11, traj, testLimits(), 1.0, 1.0))

	// Equally spaced in time, within rounding of the final interval.
	require.GreaterOrEqual(t, len(traj.Points), 10)
	assert.LessOrEqual(t, len(traj.Points), 12)
	dt := traj.Points[1].TimeFromStart - traj.Points[0].TimeFromStart
	for i := 1; i < len(traj.Points)-1; i++ {
		assert.InDelta(t, dt, traj.Points[i].TimeFromStart-traj.Points[i-1].TimeFromStart, 1e-9)
	}
}
