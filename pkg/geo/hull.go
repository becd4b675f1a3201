package geo

import "sort"

// orientation returns > 0 if a->b->c turns counterclockwise (left turn),
// < 0 for clockwise, 0 for collinear. Same determinant test as the
// in-circumcircle predicate used for Delaunay triangulation: both rely on
// the sign of a 2x2/3x3 determinant built from vector differences.
func orientation(a, b, c Point2D) float64 {
	return b.Sub(a).Cross(c.Sub(a))
}

// ConvexHull2D returns the full convex hull of pts in counterclockwise
// order, using the monotone chain (Andrew) algorithm. Collinear points on
// a hull edge are dropped. Returns nil if fewer than 3 distinct points
// remain after dedup.
func ConvexHull2D(pts []Point2D) []Point2D {
	uniq := sortedUnique(pts)
	n := len(uniq)
	if n < 3 {
		return nil
	}

	lower := make([]Point2D, 0, n)
	for _, p := range uniq {
		for len(lower) >= 2 && orientation(lower[len(lower)-2], lower[len(lower)-1], p) <= 0 {
			lower = lower[:len(lower)-1]
		}
		lower = append(lower, p)
	}

	upper := make([]Point2D, 0, n)
	for i := n - 1; i >= 0; i-- {
		p := uniq[i]
		for len(upper) >= 2 && orientation(upper[len(upper)-2], upper[len(upper)-1], p) <= 0 {
			upper = upper[:len(upper)-1]
		}
		upper = append(upper, p)
	}

	hull := append(lower[:len(lower)-1], upper[:len(upper)-1]...)
	if len(hull) < 3 {
		return nil
	}
	return hull
}

// UpperHull returns the upper convex hull of pts, ordered by increasing X:
// the chain of points visible from above (z = Y here represents elevation
// along a vertical cut-profile). Used by horizontal-edge (roof) diffraction
// over a source-receiver cut profile: the profile's (distance,
// elevation) samples are passed as Point2D{X: distance, Y: elevation}, and
// the returned chain is the taut string over the rooftops between source
// and receiver.
func UpperHull(pts []Point2D) []Point2D {
	uniq := sortedUnique(pts)
	n := len(uniq)
	if n < 2 {
		return uniq
	}
	upper := make([]Point2D, 0, n)
	for _, p := range uniq {
		for len(upper) >= 2 && orientation(upper[len(upper)-2], upper[len(upper)-1], p) >= 0 {
			upper = upper[:len(upper)-1]
		}
		upper = append(upper, p)
	}
	return upper
}

// sortedUnique sorts points lexicographically by (X, Y) and removes exact
// duplicates, as the monotone-chain construction requires.
func sortedUnique(pts []Point2D) []Point2D {
	if len(pts) == 0 {
		return nil
	}
	cp := make([]Point2D, len(pts))
	copy(cp, pts)
	sort.Slice(cp, func(i, j int) bool {
		if cp[i].X != cp[j].X {
			return cp[i].X < cp[j].X
		}
		return cp[i].Y < cp[j].Y
	})
	out := cp[:1]
	for _, p := range cp[1:] {
		last := out[len(out)-1]
		if p.X == last.X && p.Y == last.Y {
			continue
		}
		out = append(out, p)
	}
	return out
}
