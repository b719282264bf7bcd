package totg

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
)

// Eps is the shared tolerance for collinearity checks, tangent matching and
// switching-point bracketing, in arc-length units.
const Eps = 1e-6

// PathSegment is a single arc-length-parameterized primitive of a Path.
// All queries take a local arc length s in [0, Length()]. Position() is the
// offset of the segment start along the owning path, assigned at assembly.
//
// Implementations live in this package; a Path owns its segments
// exclusively.
type PathSegment interface {
	// Length returns the arc length of the segment.
	Length() float64

	// Position returns the segment's start offset along the owning path.
	Position() float64

	// Config returns the configuration at local arc length s.
	Config(s float64) []float64

	// Tangent returns the unit tangent (first derivative with respect to
	// arc length) at local arc length s.
	Tangent(s float64) []float64

	// Curvature returns the second derivative with respect to arc length
	// at local arc length s. Zero for straight segments.
	Curvature(s float64) []float64

	// SwitchingPoints returns local arc lengths, in increasing order, at
	// which the maximum-velocity profile may switch between acceleration
	// and deceleration within the segment.
	SwitchingPoints() []float64

	setPosition(pos float64)
}

// linearSegment is a straight-line segment between two configurations.
type linearSegment struct {
	start, end []float64
	tangent    []float64
	length     float64
	position   float64
}

func newLinearSegment(start, end []float64) *linearSegment {
	length := vecNorm(vecSub(end, start))
	return &linearSegment{
		start:   vecClone(start),
		end:     vecClone(end),
		tangent: vecScale(1/length, vecSub(end, start)),
		length:  length,
	}
}

func (l *linearSegment) Length() float64        { return l.length }
func (l *linearSegment) Position() float64      { return l.position }
func (l *linearSegment) setPosition(pos float64) { l.position = pos }

func (l *linearSegment) Config(s float64) []float64 {
	return vecAddScaled(l.start, s/l.length, vecSub(l.end, l.start))
}

func (l *linearSegment) Tangent(float64) []float64 {
	return vecClone(l.tangent)
}

func (l *linearSegment) Curvature(float64) []float64 {
	return vecZero(len(l.start))
}

func (l *linearSegment) SwitchingPoints() []float64 { return nil }

// circularSegment is a circular blend replacing a sharp corner so that the
// path stays within a maximum deviation of the original waypoint. The arc
// lies in the plane spanned by the orthonormal frame (x, y) about center.
type circularSegment struct {
	radius   float64
	center   []float64
	x, y     []float64
	length   float64
	position float64
}

// newCircularBlend builds the blend for the corner at intersection, with the
// incident edges entering from start and leaving toward end. The tangency
// distance is bounded by the distance to either anchor, so callers pass the
// midpoints of the incident edges to keep adjacent blends from overlapping.
// Degenerate corners (coincident anchors or collinear edges) yield a
// zero-length segment which the path assembly drops.
func newCircularBlend(start, intersection, end []float64, maxDeviation float64) *circularSegment {
	dim := len(intersection)
	degenerate := &circularSegment{
		radius: 1,
		center: vecClone(intersection),
		x:      vecZero(dim),
		y:      vecZero(dim),
	}

	startDelta := vecSub(intersection, start)
	endDelta := vecSub(end, intersection)
	if vecNorm(startDelta) < Eps || vecNorm(endDelta) < Eps {
		return degenerate
	}

	startDirection := vecNormalize(startDelta)
	endDirection := vecNormalize(endDelta)
	if vecNorm(vecSub(startDirection, endDirection)) < Eps {
		return degenerate
	}

	// Turn angle between the incident edge directions.
	angle := math.Acos(math.Max(-1, math.Min(1, floats.Dot(startDirection, endDirection))))

	// Tangency distance along each edge: limited by the anchors and by the
	// requested deviation of the arc from the corner.
	distance := math.Min(vecNorm(startDelta), vecNorm(endDelta))
	distance = math.Min(distance, maxDeviation*math.Sin(0.5*angle)/(1-math.Cos(0.5*angle)))

	radius := distance / math.Tan(0.5*angle)

	center := vecAddScaled(intersection,
		radius/math.Cos(0.5*angle),
		vecNormalize(vecSub(endDirection, startDirection)))

	x := vecNormalize(vecSub(vecAddScaled(intersection, -distance, startDirection), center))

	return &circularSegment{
		radius: radius,
		center: center,
		x:      x,
		y:      vecClone(startDirection),
		length: angle * radius,
	}
}

func (c *circularSegment) Length() float64        { return c.length }
func (c *circularSegment) Position() float64      { return c.position }
func (c *circularSegment) setPosition(pos float64) { c.position = pos }

func (c *circularSegment) Config(s float64) []float64 {
	angle := s / c.radius
	out := vecClone(c.center)
	floats.AddScaled(out, c.radius*math.Cos(angle), c.x)
	floats.AddScaled(out, c.radius*math.Sin(angle), c.y)
	return out
}

func (c *circularSegment) Tangent(s float64) []float64 {
	angle := s / c.radius
	out := vecScale(-math.Sin(angle), c.x)
	floats.AddScaled(out, math.Cos(angle), c.y)
	return out
}

func (c *circularSegment) Curvature(s float64) []float64 {
	angle := s / c.radius
	out := vecScale(-math.Cos(angle)/c.radius, c.x)
	floats.AddScaled(out, -math.Sin(angle)/c.radius, c.y)
	return out
}

// SwitchingPoints reports the arc lengths at which some joint's tangent
// component crosses zero; the velocity limit curve is not differentiable
// there.
func (c *circularSegment) SwitchingPoints() []float64 {
	var points []float64
	for i := range c.x {
		angle := math.Atan2(c.y[i], c.x[i])
		if angle < 0 {
			angle += math.Pi
		}
		if point := angle * c.radius; point < c.length {
			points = append(points, point)
		}
	}
	sort.Float64s(points)
	return points
}
