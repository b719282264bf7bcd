package totg_test

import (
	"errors"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/waypoint-robotics/pathtime/internal/totg"
)

func norm(v []float64) float64 {
	sum := 0.0
	for _, x := range v {
		sum += x * x
	}
	return math.Sqrt(sum)
}

func sub(a, b []float64) []float64 {
	out := make([]float64, len(a))
	for i := range a {
		out[i] = a[i] - b[i]
	}
	return out
}

func TestNewPathInvalidInput(t *testing.T) {
	t.Parallel()

	t.Run("no waypoints", func(t *testing.T) {
		t.Parallel()
		_, err := totg.NewPath(nil, 0.1)
		assert.ErrorIs(t, err, totg.ErrInvalidInput)
	})

	t.Run("zero deviation", func(t *testing.T) {
		t.Parallel()
		_, err := totg.NewPath([][]float64{{0, 0}, {1, 0}}, 0)
		assert.ErrorIs(t, err, totg.ErrInvalidInput)
	})

	t.Run("negative deviation", func(t *testing.T) {
		t.Parallel()
		_, err := totg.NewPath([][]float64{{0, 0}, {1, 0}}, -0.5)
		assert.ErrorIs(t, err, totg.ErrInvalidInput)
	})

	t.Run("dimension mismatch", func(t *testing.T) {
		t.Parallel()
		_, err := totg.NewPath([][]float64{{0, 0}, {1, 0, 0}}, 0.1)
		assert.ErrorIs(t, err, totg.ErrInvalidInput)
	})

	t.Run("all waypoints coincident", func(t *testing.T) {
		t.Parallel()
		_, err := totg.NewPath([][]float64{{1, 1}, {1, 1}, {1, 1}}, 0.1)
		assert.ErrorIs(t, err, totg.ErrInvalidInput)
		assert.True(t, errors.Is(err, totg.ErrInvalidInput))
	})
}

func TestNewPathStraightLine(t *testing.T) {
	t.Parallel()

	p, err := totg.NewPath([][]float64{{0, 0}, {1, 0}}, 0.1)
	require.NoError(t, err)

	assert.Equal(t, 1, p.Segments())
	assert.InDelta(t, 1.0, p.Length(), 1e-9)

	approx := cmpopts.EquateApprox(0, 1e-9)
	assert.Empty(t, cmp.Diff([]float64{0.5, 0}, p.Config(0.5), approx))
	assert.Empty(t, cmp.Diff([]float64{1, 0}, p.Tangent(0.5), approx))
	assert.Empty(t, cmp.Diff([]float64{0, 0}, p.Curvature(0.5), approx))
}

func TestNewPathCollinearWaypointsCollapse(t *testing.T) {
	t.Parallel()

	// The interior waypoint adds no geometry; the path is one straight
	// segment spanning the whole line.
	p, err := totg.NewPath([][]float64{{0, 0}, {0.5, 0}, {1, 0}}, 0.1)
	require.NoError(t, err)

	assert.Equal(t, 1, p.Segments())
	assert.InDelta(t, 1.0, p.Length(), 1e-9)
}

func TestNewPathDuplicateWaypointsCollapse(t *testing.T) {
	t.Parallel()

	p, err := totg.NewPath([][]float64{{0, 0}, {0, 0}, {1, 0}, {1, 0}}, 0.1)
	require.NoError(t, err)

	assert.Equal(t, 1, p.Segments())
	assert.InDelta(t, 1.0, p.Length(), 1e-9)
}

func TestNewPathRightAngleCorner(t *testing.T) {
	t.Parallel()

	const deviation = 0.1
	p, err := totg.NewPath([][]float64{{0, 0}, {1, 0}, {1, 1}}, deviation)
	require.NoError(t, err)

	// Blend radius for a 90° turn, with the tangency distance equal to the
	// radius.
	radius := deviation * math.Sin(math.Pi/4) / (1 - math.Cos(math.Pi/4))
	wantLength := 2*(1-radius) + radius*math.Pi/2

	assert.Equal(t, 3, p.Segments())
	assert.InDelta(t, wantLength, p.Length(), 1e-9)

	// Endpoints are preserved exactly.
	approx := cmpopts.EquateApprox(0, 1e-9)
	assert.Empty(t, cmp.Diff([]float64{0, 0}, p.Config(0), approx))
	assert.Empty(t, cmp.Diff([]float64{1, 1}, p.Config(p.Length()), approx))

	// The blend stays within the deviation bound of the dropped corner and
	// actually attains it.
	corner := []float64{1, 0}
	minDist := math.Inf(1)
	for s := 0.0; s <= p.Length(); s += p.Length() / 5000 {
		if d := norm(sub(p.Config(s), corner)); d < minDist {
			minDist = d
		}
	}
	assert.LessOrEqual(t, minDist, deviation+1e-9)
	assert.InDelta(t, deviation, minDist, 1e-3)
}

func TestPathArcLengthDominatesChord(t *testing.T) {
	t.Parallel()

	p, err := totg.NewPath([][]float64{{0, 0}, {1, 0}, {1, 1}, {2, 1}}, 0.1)
	require.NoError(t, err)

	for _, pair := range [][2]float64{
		{0, p.Length()},
		{0.1, 0.9},
		{0.5, 1.7},
		{p.Length() / 3, p.Length() / 2},
	} {
		chord := norm(sub(p.Config(pair[1]), p.Config(pair[0])))
		assert.LessOrEqual(t, chord, pair[1]-pair[0]+1e-9,
			"chord between s=%g and s=%g exceeds arc length", pair[0], pair[1])
	}
}

func TestPathTangentContinuity(t *testing.T) {
	t.Parallel()

	// Tangents match across every segment boundary: the blends are
	// constructed tangent to both incident lines.
	p, err := totg.NewPath([][]float64{{0, 0}, {1, 0}, {1, 1}, {2, 1}}, 0.1)
	require.NoError(t, err)

	boundaries := make(map[float64]bool)
	for _, sp := range p.SwitchingPoints() {
		if sp.Discontinuity {
			boundaries[sp.Pos] = true
		}
	}
	require.NotEmpty(t, boundaries)

	for b := range boundaries {
		before := p.Tangent(b - 1e-9)
		after := p.Tangent(b + 1e-9)
		dot := 0.0
		for i := range before {
			dot += before[i] * after[i]
		}
		assert.GreaterOrEqual(t, dot, 1-1e-6, "tangent discontinuity at s=%g", b)
	}
}

func TestPathQueriesClampOutOfRange(t *testing.T) {
	t.Parallel()

	p, err := totg.NewPath([][]float64{{0, 0}, {1, 0}}, 0.1)
	require.NoError(t, err)

	approx := cmpopts.EquateApprox(0, 1e-9)
	assert.Empty(t, cmp.Diff(p.Config(0), p.Config(-5), approx))
	assert.Empty(t, cmp.Diff(p.Config(p.Length()), p.Config(p.Length()+5), approx))
}

func TestPathSwitchingPoints(t *testing.T) {
	t.Parallel()

	p, err := totg.NewPath([][]float64{{0, 0}, {1, 0}, {1, 1}}, 0.1)
	require.NoError(t, err)

	points := p.SwitchingPoints()
	require.NotEmpty(t, points)

	// Increasing order, all interior.
	for i, sp := range points {
		assert.Greater(t, sp.Pos, 0.0)
		assert.Less(t, sp.Pos, p.Length())
		if i > 0 {
			assert.GreaterOrEqual(t, sp.Pos, points[i-1].Pos)
		}
	}

	// The two blend boundaries are flagged as discontinuities.
	var discontinuities int
	for _, sp := range points {
		if sp.Discontinuity {
			discontinuities++
		}
	}
	assert.Equal(t, 2, discontinuities)

	// NextSwitchingPoint walks the list and ends at the path length.
	s, _ := p.NextSwitchingPoint(0)
	assert.InDelta(t, points[0].Pos, s, 1e-12)
	end, discontinuity := p.NextSwitchingPoint(p.Length() - 1e-9)
	assert.InDelta(t, p.Length(), end, 1e-12)
	assert.True(t, discontinuity)
}
