package totg

import (
	"errors"
	"fmt"
)

// ErrInvalidInput is returned by the factories when the waypoints, limits
// or tuning parameters cannot describe a solvable problem.
var ErrInvalidInput = errors.New("invalid input")

// SwitchingPoint is an arc length at which the binding constraint on the
// path velocity may change. Discontinuity marks curvature jumps at segment
// boundaries; the remaining points lie inside blends, where some joint's
// tangent component crosses zero.
type SwitchingPoint struct {
	Pos           float64
	Discontinuity bool
}

// Path is a piecewise C¹ arc-length-parameterized curve through
// configuration space: straight segments joined by circular blends at the
// interior waypoints. Immutable after construction.
type Path struct {
	length          float64
	segments        []PathSegment
	switchingPoints []SwitchingPoint
}

// NewPath builds a path through the given waypoints, inserting a circular
// blend at every interior corner so that the result deviates from the
// corner waypoint by at most maxDeviation. Coincident and collinear
// interior waypoints are absorbed without a blend.
//
// Fails if no two distinct waypoints remain, if the waypoints disagree in
// dimension, or if maxDeviation is not strictly positive.
func NewPath(waypoints [][]float64, maxDeviation float64) (*Path, error) {
	if len(waypoints) == 0 {
		return nil, fmt.Errorf("%w: no waypoints", ErrInvalidInput)
	}
	if maxDeviation <= 0 {
		return nil, fmt.Errorf("%w: max deviation must be positive, got %g", ErrInvalidInput, maxDeviation)
	}
	dim := len(waypoints[0])
	if dim == 0 {
		return nil, fmt.Errorf("%w: zero-dimension waypoints", ErrInvalidInput)
	}
	for i, w := range waypoints {
		if len(w) != dim {
			return nil, fmt.Errorf("%w: waypoint %d has dimension %d, want %d", ErrInvalidInput, i, len(w), dim)
		}
	}

	p := &Path{}
	startConfig := vecClone(waypoints[0])
	for i := 1; i < len(waypoints); i++ {
		if i+1 < len(waypoints) {
			blend := newCircularBlend(
				vecMidpoint(waypoints[i-1], waypoints[i]),
				waypoints[i],
				vecMidpoint(waypoints[i], waypoints[i+1]),
				maxDeviation)
			if blend.Length() < Eps {
				// Degenerate corner: drop the waypoint and let the next
				// linear segment span straight through it.
				continue
			}
			if blendStart := blend.Config(0); vecNorm(vecSub(blendStart, startConfig)) > Eps {
				p.segments = append(p.segments, newLinearSegment(startConfig, blendStart))
			}
			p.segments = append(p.segments, blend)
			startConfig = blend.Config(blend.Length())
		} else if vecNorm(vecSub(waypoints[i], startConfig)) > Eps {
			p.segments = append(p.segments, newLinearSegment(startConfig, waypoints[i]))
			startConfig = vecClone(waypoints[i])
		}
	}
	if len(p.segments) == 0 {
		return nil, fmt.Errorf("%w: waypoints do not span a path", ErrInvalidInput)
	}

	// Assign start offsets and collect switching points. Every segment
	// boundary is a potential curvature discontinuity; interior points
	// reported by the segments are not.
	pos := 0.0
	for _, segment := range p.segments {
		segment.setPosition(pos)
		for _, sp := range segment.SwitchingPoints() {
			p.switchingPoints = append(p.switchingPoints, SwitchingPoint{Pos: pos + sp, Discontinuity: false})
		}
		pos += segment.Length()
		for len(p.switchingPoints) > 0 && p.switchingPoints[len(p.switchingPoints)-1].Pos >= pos {
			p.switchingPoints = p.switchingPoints[:len(p.switchingPoints)-1]
		}
		p.switchingPoints = append(p.switchingPoints, SwitchingPoint{Pos: pos, Discontinuity: true})
	}
	// The terminal boundary is the end of the path, not a switching point.
	p.switchingPoints = p.switchingPoints[:len(p.switchingPoints)-1]
	p.length = pos
	return p, nil
}

// Length returns the total arc length of the path.
func (p *Path) Length() float64 { return p.length }

// segmentAt locates the segment owning arc length s and returns it with
// the local arc length. Out-of-range values clamp to the path ends.
func (p *Path) segmentAt(s float64) (PathSegment, float64) {
	if s < 0 {
		s = 0
	} else if s > p.length {
		s = p.length
	}
	i := 0
	for i+1 < len(p.segments) && s >= p.segments[i+1].Position() {
		i++
	}
	return p.segments[i], s - p.segments[i].Position()
}

// Config returns the configuration at arc length s, clamped to [0, Length].
func (p *Path) Config(s float64) []float64 {
	segment, local := p.segmentAt(s)
	return segment.Config(local)
}

// Tangent returns the unit tangent at arc length s, clamped to [0, Length].
func (p *Path) Tangent(s float64) []float64 {
	segment, local := p.segmentAt(s)
	return segment.Tangent(local)
}

// Curvature returns the second derivative with respect to arc length at s,
// clamped to [0, Length].
func (p *Path) Curvature(s float64) []float64 {
	segment, local := p.segmentAt(s)
	return segment.Curvature(local)
}

// NextSwitchingPoint returns the first switching point strictly after s and
// whether it is a curvature discontinuity. Past the last switching point it
// returns the path length with the discontinuity flag set.
func (p *Path) NextSwitchingPoint(s float64) (float64, bool) {
	for _, sp := range p.switchingPoints {
		if sp.Pos > s {
			return sp.Pos, sp.Discontinuity
		}
	}
	return p.length, true
}

// SwitchingPoints returns all switching points in increasing arc-length
// order. The returned slice is shared and must not be modified.
func (p *Path) SwitchingPoints() []SwitchingPoint {
	return p.switchingPoints
}

// Segments returns the number of primitive segments in the path.
func (p *Path) Segments() int { return len(p.segments) }
