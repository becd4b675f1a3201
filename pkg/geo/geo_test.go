package geo

import (
	"math"
	"testing"
)

func approxEqual(a, b, tol float64) bool {
	return math.Abs(a-b) <= tol
}

func TestPoint2DVectorOps(t *testing.T) {
	cases := []struct {
		name string
		a, b Point2D
		want float64
		fn   func(a, b Point2D) float64
	}{
		{"dot", Pt(1, 0), Pt(0, 1), 0, Point2D.Dot},
		{"dot_parallel", Pt(2, 0), Pt(3, 0), 6, Point2D.Dot},
		{"cross_perp", Pt(1, 0), Pt(0, 1), 1, Point2D.Cross},
		{"distance_3_4", Pt(0, 0), Pt(3, 4), 5, Point2D.Distance},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := tc.fn(tc.a, tc.b)
			if !approxEqual(got, tc.want, 1e-9) {
				t.Fatalf("got %v, want %v", got, tc.want)
			}
		})
	}
}

func TestPoint2DNormalizeZero(t *testing.T) {
	z := Point2D{}.Normalize()
	if z.X != 0 || z.Y != 0 {
		t.Fatalf("expected zero vector, got %v", z)
	}
}

func TestCoordinateDistance(t *testing.T) {
	a := Coordinate{0, 0, 0}
	b := Coordinate{3, 4, 0}
	if !approxEqual(a.Distance2D(b), 5, 1e-9) {
		t.Fatalf("Distance2D mismatch")
	}
	c := Coordinate{0, 0, 5}
	if !approxEqual(a.Distance3D(c), 5, 1e-9) {
		t.Fatalf("Distance3D mismatch")
	}
}

func TestPolygonSignedAreaSquareCCW(t *testing.T) {
	sq := NewPolygon(Pt(0, 0), Pt(10, 0), Pt(10, 10), Pt(0, 10))
	area := sq.SignedArea()
	if !approxEqual(area, 100, 1e-9) {
		t.Fatalf("expected +100, got %v", area)
	}
	if !sq.IsCounterClockwise() {
		t.Fatalf("expected CCW")
	}
}

func TestPolygonSignedAreaSquareCW(t *testing.T) {
	sq := NewPolygon(Pt(0, 0), Pt(0, 10), Pt(10, 10), Pt(10, 0))
	if sq.IsCounterClockwise() {
		t.Fatalf("expected CW")
	}
	ccw := sq.EnsureCCW()
	if !ccw.IsCounterClockwise() {
		t.Fatalf("EnsureCCW did not flip winding")
	}
}

func TestPolygonContains(t *testing.T) {
	sq := NewPolygon(Pt(0, 0), Pt(10, 0), Pt(10, 10), Pt(0, 10))
	if !sq.Contains(Pt(5, 5)) {
		t.Fatalf("expected interior point contained")
	}
	if sq.Contains(Pt(15, 5)) {
		t.Fatalf("expected exterior point not contained")
	}
}

func TestPolygonPerimeterSquare(t *testing.T) {
	sq := NewPolygon(Pt(0, 0), Pt(10, 0), Pt(10, 10), Pt(0, 10))
	if !approxEqual(sq.Perimeter(), 40, 1e-9) {
		t.Fatalf("expected perimeter 40, got %v", sq.Perimeter())
	}
}

func TestPolygonWideAngleCornersSquareAllFour(t *testing.T) {
	// A square's interior angles are all pi/2, so each corner's outside
	// measure is 3*pi/2 (270 degrees) - inside the spec's
	// (pi*(1+1/16), pi*(2-1/16)) default band, making all 4 box corners
	// candidate diffraction points.
	sq := NewPolygon(Pt(0, 0), Pt(10, 0), Pt(10, 10), Pt(0, 10))
	corners := sq.WideAngleCorners(math.Pi*(1+1.0/16), math.Pi*(2-1.0/16))
	if len(corners) != 4 {
		t.Fatalf("expected all 4 box corners to be wide-angle corners, got %d", len(corners))
	}
}

func TestPolygonWideAngleCornersLShapeExcludesReflexNotch(t *testing.T) {
	// An L-shaped footprint has one reflex (interior angle > pi) corner at
	// the notch; its outside measure is pi/2, so it falls outside the
	// band while the 5 ordinary convex corners (outside measure 3*pi/2)
	// fall inside it.
	l := NewPolygon(
		Pt(0, 0), Pt(10, 0), Pt(10, 5), Pt(5, 5), Pt(5, 10), Pt(0, 10),
	)
	corners := l.WideAngleCorners(math.Pi*(1+1.0/16), math.Pi*(2-1.0/16))
	if len(corners) != 5 {
		t.Fatalf("expected the 5 convex corners and not the reflex notch, got %d: %v", len(corners), corners)
	}
	for _, c := range corners {
		if c == Pt(5, 5) {
			t.Fatalf("expected the reflex notch corner to be excluded, got %v", corners)
		}
	}
}

func TestConvexHull2DSquareWithInteriorPoint(t *testing.T) {
	pts := []Point2D{
		Pt(0, 0), Pt(10, 0), Pt(10, 10), Pt(0, 10), Pt(5, 5),
	}
	hull := ConvexHull2D(pts)
	if len(hull) != 4 {
		t.Fatalf("expected 4 hull vertices, got %d: %v", len(hull), hull)
	}
}

func TestUpperHullRoofProfile(t *testing.T) {
	// Source-receiver elevation profile with one building roof poking above
	// the straight line between endpoints.
	profile := []Point2D{
		Pt(0, 0), Pt(5, 10), Pt(10, 2), Pt(15, 0),
	}
	hull := UpperHull(profile)
	if len(hull) < 3 {
		t.Fatalf("expected the roof peak to remain on the upper hull, got %v", hull)
	}
	foundPeak := false
	for _, p := range hull {
		if p.X == 5 && p.Y == 10 {
			foundPeak = true
		}
	}
	if !foundPeak {
		t.Fatalf("roof peak dropped from upper hull: %v", hull)
	}
}

func TestSegmentIntersectCrossing(t *testing.T) {
	pt, tParam, ok := SegmentIntersect(Pt(0, 0), Pt(10, 0), Pt(5, -5), Pt(5, 5))
	if !ok {
		t.Fatalf("expected intersection")
	}
	if !approxEqual(pt.X, 5, 1e-9) || !approxEqual(pt.Y, 0, 1e-9) {
		t.Fatalf("unexpected intersection point: %v", pt)
	}
	if !approxEqual(tParam, 0.5, 1e-9) {
		t.Fatalf("unexpected t: %v", tParam)
	}
}

func TestSegmentIntersectParallelNoHit(t *testing.T) {
	_, _, ok := SegmentIntersect(Pt(0, 0), Pt(10, 0), Pt(0, 1), Pt(10, 1))
	if ok {
		t.Fatalf("expected no intersection for parallel segments")
	}
}

func TestSegmentIntersectMissesBeyondExtent(t *testing.T) {
	_, _, ok := SegmentIntersect(Pt(0, 0), Pt(10, 0), Pt(20, -5), Pt(20, 5))
	if ok {
		t.Fatalf("expected no intersection beyond segment extent")
	}
}

func TestPolylineLengthAndPointAt(t *testing.T) {
	pl := NewPolyline(Pt(0, 0), Pt(10, 0), Pt(10, 10))
	if !approxEqual(pl.Length(), 20, 1e-9) {
		t.Fatalf("expected length 20, got %v", pl.Length())
	}
	mid := pl.PointAt(0.5)
	if !approxEqual(mid.X, 10, 1e-9) || !approxEqual(mid.Y, 0, 1e-9) {
		t.Fatalf("unexpected midpoint: %v", mid)
	}
}

func TestPolylineDiscretizeEndpoints(t *testing.T) {
	pl := NewPolyline(Pt(0, 0), Pt(10, 0))
	pts := pl.Discretize(3)
	if len(pts) != 3 {
		t.Fatalf("expected 3 points, got %d", len(pts))
	}
	if !approxEqual(pts[0].X, 0, 1e-9) || !approxEqual(pts[2].X, 10, 1e-9) {
		t.Fatalf("expected endpoints preserved, got %v", pts)
	}
}

func TestPolylineNearestPoint(t *testing.T) {
	pl := NewPolyline(Pt(0, 0), Pt(10, 0))
	pt, dist := pl.NearestPoint(Pt(5, 3))
	if !approxEqual(pt.X, 5, 1e-9) || !approxEqual(pt.Y, 0, 1e-9) {
		t.Fatalf("unexpected nearest point: %v", pt)
	}
	if !approxEqual(dist, 3, 1e-9) {
		t.Fatalf("unexpected distance: %v", dist)
	}
}
