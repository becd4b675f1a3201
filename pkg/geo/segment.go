package geo

import "math"

// SegmentIntersect reports whether segments (a0,a1) and (b0,b1) intersect,
// and if so returns the intersection point plus the parametric distance t
// along (a0,a1) at which it occurs (0 at a0, 1 at a1). Cut-profile
// construction needs t to order intersection points along the
// source-receiver segment.
func SegmentIntersect(a0, a1, b0, b1 Point2D) (pt Point2D, t float64, ok bool) {
	d1 := a1.Sub(a0)
	d2 := b1.Sub(b0)
	denom := d1.Cross(d2)
	if math.Abs(denom) < 1e-12 {
		return Point2D{}, 0, false
	}
	diff := b0.Sub(a0)
	t = diff.Cross(d2) / denom
	u := diff.Cross(d1) / denom
	if t < -1e-9 || t > 1+1e-9 || u < -1e-9 || u > 1+1e-9 {
		return Point2D{}, 0, false
	}
	return a0.Add(d1.Scale(t)), t, true
}

// LineIntersection returns the intersection of the infinite lines through
// (a0,a1) and (b0,b1), without segment bound checks. ok is false when the
// lines are parallel.
func LineIntersection(a0, a1, b0, b1 Point2D) (pt Point2D, ok bool) {
	d1 := a1.Sub(a0)
	d2 := b1.Sub(b0)
	denom := d1.Cross(d2)
	if math.Abs(denom) < 1e-12 {
		return Point2D{}, false
	}
	diff := b0.Sub(a0)
	t := diff.Cross(d2) / denom
	return a0.Add(d1.Scale(t)), true
}

// IsInsideEdge reports whether point p lies on the left side of the
// directed edge (edgeStart, edgeEnd), i.e. inside when the polygon is
// wound counterclockwise. Points on the edge's line count as inside.
func IsInsideEdge(p, edgeStart, edgeEnd Point2D) bool {
	return orientation(edgeStart, edgeEnd, p) >= 0
}

