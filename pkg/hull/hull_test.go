package hull

import (
	"math"
	"testing"

	"github.com/opennoise/raypath/pkg/cutprofile"
	"github.com/opennoise/raypath/pkg/geo"
	"github.com/opennoise/raypath/pkg/scene"
)

func approxEqual(a, b, tol float64) bool {
	return math.Abs(a-b) <= tol
}

func TestRoofDiffractionFreeFieldReducesToEndpoints(t *testing.T) {
	cp := &cutprofile.CutProfile{
		Source:   geo.Coordinate{X: 0, Y: 0, Z: 4},
		Receiver: geo.Coordinate{X: 10, Y: 0, Z: 0.05},
		Points: []cutprofile.CutPoint{
			{Kind: cutprofile.KindSource, Coordinate: geo.Coordinate{X: 0, Y: 0, Z: 4}, T: 0},
			{Kind: cutprofile.KindReceiver, Coordinate: geo.Coordinate{X: 10, Y: 0, Z: 0.05}, T: 1},
		},
	}
	apex := RoofDiffraction(cp)
	if len(apex) != 2 {
		t.Fatalf("expected exactly 2 points for a free-field profile, got %d", len(apex))
	}
}

func TestRoofDiffractionOverRoofEdges(t *testing.T) {
	// Matches scenario S5: single building crossing the sight line, roof
	// z=6, src and rcv both at z=2.
	cp := &cutprofile.CutProfile{
		Source:   geo.Coordinate{X: 0, Y: 0, Z: 2},
		Receiver: geo.Coordinate{X: 20, Y: 0, Z: 2},
		Points: []cutprofile.CutPoint{
			{Kind: cutprofile.KindSource, Coordinate: geo.Coordinate{X: 0, Y: 0, Z: 2}, T: 0},
			{Kind: cutprofile.KindBuildingWall, Coordinate: geo.Coordinate{X: 8, Y: 0, Z: 6}, T: 0.4},
			{Kind: cutprofile.KindBuildingWall, Coordinate: geo.Coordinate{X: 12, Y: 0, Z: 6}, T: 0.6},
			{Kind: cutprofile.KindReceiver, Coordinate: geo.Coordinate{X: 20, Y: 0, Z: 2}, T: 1},
		},
	}
	apex := RoofDiffraction(cp)
	if len(apex) != 4 {
		t.Fatalf("expected [SRCE, DIFH, DIFH, RECV], got %d points: %+v", len(apex), apex)
	}
	for _, p := range apex[1:3] {
		if !approxEqual(p.Coordinate.Z, 6, 1e-9) {
			t.Fatalf("expected DIFH z = 6, got %v", p.Coordinate.Z)
		}
	}
}

func TestSideHullSymmetricAroundCenteredBuilding(t *testing.T) {
	// Matches scenario S4: building 10m wide centered on the src-rcv
	// segment; the two DIFV paths must have equal total length.
	b := scene.NewBuilder()
	footprint := geo.NewPolygon(geo.Pt(10, -5), geo.Pt(20, -5), geo.Pt(20, 5), geo.Pt(10, 5))
	b.AddBuilding("bldg1", footprint, 8, []float64{0.1})
	sc, _ := b.Finish(geo.Polygon{})

	src := geo.Coordinate{X: 0, Y: 0, Z: 1}
	rcv := geo.Coordinate{X: 30, Y: 0, Z: 1}

	left, right, ok := SideHull(sc, src, rcv)
	if !ok {
		t.Fatalf("expected side hull to converge")
	}
	if len(left) == 0 || len(right) == 0 {
		t.Fatalf("expected non-empty left and right side polylines")
	}

	pathLen := func(pts []SidePoint) float64 {
		total := 0.0
		for i := 1; i < len(pts); i++ {
			total += pts[i-1].Coordinate.Distance2D(pts[i].Coordinate)
		}
		return total
	}
	lLen := pathLen(left)
	rLen := pathLen(right)
	if !approxEqual(lLen, rLen, 1e-3) {
		t.Fatalf("expected symmetric side paths, got left=%v right=%v", lLen, rLen)
	}
}

func TestSideHullNoBuildingReturnsNotOK(t *testing.T) {
	b := scene.NewBuilder()
	sc, _ := b.Finish(geo.Polygon{})
	src := geo.Coordinate{X: 0, Y: 0, Z: 1}
	rcv := geo.Coordinate{X: 30, Y: 0, Z: 1}
	_, _, ok := SideHull(sc, src, rcv)
	if ok {
		t.Fatalf("expected no side hull when no buildings intersect the sight line")
	}
}
