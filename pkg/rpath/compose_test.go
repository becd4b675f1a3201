package rpath

import (
	"math"
	"testing"

	"github.com/opennoise/raypath/pkg/config"
	"github.com/opennoise/raypath/pkg/geo"
	"github.com/opennoise/raypath/pkg/scene"
)

func approxEqual(a, b, tol float64) bool {
	return math.Abs(a-b) <= tol
}

func flatScene(t *testing.T) *scene.Scene {
	t.Helper()
	b := scene.NewBuilder()
	b.SetTerrain(scene.BuildTerrain([]scene.TerrainVertex{
		{Coordinate: geo.Coordinate{X: -50, Y: -50, Z: 0}},
		{Coordinate: geo.Coordinate{X: 50, Y: -50, Z: 0}},
		{Coordinate: geo.Coordinate{X: 50, Y: 50, Z: 0}},
		{Coordinate: geo.Coordinate{X: -50, Y: 50, Z: 0}},
	}))
	sc, _ := b.Finish(geo.Polygon{})
	return sc
}

func sceneWithBuilding(t *testing.T) *scene.Scene {
	t.Helper()
	b := scene.NewBuilder()
	footprint := geo.NewPolygon(
		geo.Pt(8, -2), geo.Pt(12, -2), geo.Pt(12, 2), geo.Pt(8, 2),
	)
	b.AddBuilding("blocker", footprint, 6, []float64{0.1, 0.1, 0.1, 0.1, 0.1, 0.1, 0.1, 0.1})
	b.SetTerrain(scene.BuildTerrain([]scene.TerrainVertex{
		{Coordinate: geo.Coordinate{X: -50, Y: -50, Z: 0}},
		{Coordinate: geo.Coordinate{X: 50, Y: -50, Z: 0}},
		{Coordinate: geo.Coordinate{X: 50, Y: 50, Z: 0}},
		{Coordinate: geo.Coordinate{X: -50, Y: 50, Z: 0}},
	}))
	sc, _ := b.Finish(geo.Polygon{})
	return sc
}

func TestComposeFreeFieldEmitsDirectPath(t *testing.T) {
	sc := flatScene(t)
	s := &config.Settings{
		ComputeHorizontalDiffraction: true,
		ComputeVerticalDiffraction:   true,
	}
	src := geo.Coordinate{X: 0, Y: 0, Z: 2}
	rcv := geo.Coordinate{X: 20, Y: 0, Z: 2}

	paths, report := Compose(sc, s, "s1", src, "r1", rcv)
	if len(paths) != 1 {
		t.Fatalf("expected exactly one direct path, got %d", len(paths))
	}
	p := paths[0]
	if len(p.Points) != 2 {
		t.Fatalf("expected 2 points on direct path, got %d", len(p.Points))
	}
	if p.Points[0].Kind != KindSource || p.Points[1].Kind != KindReceiver {
		t.Fatalf("unexpected point kinds: %v, %v", p.Points[0].Kind, p.Points[1].Kind)
	}
	if len(p.Segments) != 1 {
		t.Fatalf("expected 1 segment, got %d", len(p.Segments))
	}
	if report == nil {
		t.Fatalf("expected a non-nil report")
	}
}

func TestComposeBuildingBlocksDirectPathAndEmitsDiffraction(t *testing.T) {
	sc := sceneWithBuilding(t)
	s := &config.Settings{
		ComputeHorizontalDiffraction: true,
		ComputeVerticalDiffraction:   true,
	}
	src := geo.Coordinate{X: 0, Y: 0, Z: 2}
	rcv := geo.Coordinate{X: 20, Y: 0, Z: 2}

	paths, _ := Compose(sc, s, "s1", src, "r1", rcv)
	if len(paths) == 0 {
		t.Fatalf("expected at least one diffraction path around the blocking building")
	}
	for _, p := range paths {
		diffracted := false
		for _, pt := range p.Points {
			if pt.Kind == KindSource || pt.Kind == KindReceiver {
				continue
			}
			if pt.Kind != KindDiffHoriz && pt.Kind != KindDiffVert {
				t.Fatalf("unexpected point kind on obstructed path: %v", pt.Kind)
			}
			diffracted = true
		}
		if !diffracted {
			t.Fatalf("expected the blocked direct path to be replaced by a diffracted one, got %v", p.Points)
		}
	}
}

func TestComposeAppliesFavourableFlag(t *testing.T) {
	sc := flatScene(t)
	s := &config.Settings{Favourable: true}
	src := geo.Coordinate{X: 0, Y: 0, Z: 2}
	rcv := geo.Coordinate{X: 20, Y: 0, Z: 2}

	paths, _ := Compose(sc, s, "s1", src, "r1", rcv)
	if len(paths) != 1 || !paths[0].Favourable {
		t.Fatalf("expected the emitted path to carry favourable=true")
	}
}

func TestComposeReportsOutOfRangeReceiver(t *testing.T) {
	b := scene.NewBuilder()
	b.SetTerrain(scene.BuildTerrain([]scene.TerrainVertex{
		{Coordinate: geo.Coordinate{X: -50, Y: -50, Z: 0}},
		{Coordinate: geo.Coordinate{X: 50, Y: -50, Z: 0}},
		{Coordinate: geo.Coordinate{X: 50, Y: 50, Z: 0}},
		{Coordinate: geo.Coordinate{X: -50, Y: 50, Z: 0}},
	}))
	envelope := geo.NewPolygon(
		geo.Pt(-10, -10), geo.Pt(10, -10), geo.Pt(10, 10), geo.Pt(-10, 10),
	)
	sc, _ := b.Finish(envelope)

	s := &config.Settings{ComputeHorizontalDiffraction: true, ComputeVerticalDiffraction: true}
	src := geo.Coordinate{X: 0, Y: 0, Z: 2}
	rcv := geo.Coordinate{X: 100, Y: 0, Z: 2}

	paths, report := Compose(sc, s, "s1", src, "r1", rcv)
	if paths != nil {
		t.Fatalf("expected no paths for a receiver outside the scene envelope, got %v", paths)
	}
	if report == nil || len(report.Info) == 0 {
		t.Fatalf("expected an informational out-of-range result, got %+v", report)
	}
}

func TestComposeOrder2ReflectionAcrossTwoBuildings(t *testing.T) {
	// Matches scenario S3: src and rcv sit in the gap between two facing
	// buildings, close enough together that the direct path is unobstructed
	// but the reflection search also finds an order-2 chain bouncing off
	// one wall of each building before reaching the receiver.
	b := scene.NewBuilder()
	westFootprint := geo.NewPolygon(
		geo.Pt(-10, -5), geo.Pt(-2, -5), geo.Pt(-2, 5), geo.Pt(-10, 5),
	)
	eastFootprint := geo.NewPolygon(
		geo.Pt(2, -5), geo.Pt(10, -5), geo.Pt(10, 5), geo.Pt(2, 5),
	)
	absorption := []float64{0.1, 0.1, 0.1, 0.1, 0.1, 0.1, 0.1, 0.1}
	b.AddBuilding("west", westFootprint, 6, absorption)
	b.AddBuilding("east", eastFootprint, 6, absorption)
	sc, _ := b.Finish(geo.Polygon{})

	s := &config.Settings{ReflexionOrder: 2, MaxSrcDist: 200, MaxRefDist: 50}
	src := geo.Coordinate{X: -1, Y: -6, Z: 2}
	rcv := geo.Coordinate{X: 1, Y: 6, Z: 2}

	paths, _ := Compose(sc, s, "s1", src, "r1", rcv)

	var order2 *PropagationPath
	for i := range paths {
		if len(paths[i].Points) == 4 {
			order2 = &paths[i]
			break
		}
	}
	if order2 == nil {
		t.Fatalf("expected an order-2 4-point reflection path among %d emitted paths", len(paths))
	}
	wantKinds := []PointKind{KindSource, KindReflection, KindReflection, KindReceiver}
	for i, pt := range order2.Points {
		if pt.Kind != wantKinds[i] {
			t.Fatalf("point %d: expected kind %v, got %v", i, wantKinds[i], pt.Kind)
		}
	}
	if order2.Points[1].BuildingID == order2.Points[2].BuildingID {
		t.Fatalf("expected the two reflection points on distinct buildings, got %v and %v",
			order2.Points[1].BuildingID, order2.Points[2].BuildingID)
	}
}

func TestBuildSegmentsDirectionIsUnit(t *testing.T) {
	points := []PointPath{
		{Kind: KindSource, Coordinate: geo.Coordinate{X: 0, Y: 0, Z: 0}},
		{Kind: KindReceiver, Coordinate: geo.Coordinate{X: 3, Y: 4, Z: 0}},
	}
	segs := buildSegments(points, nil)
	if len(segs) != 1 {
		t.Fatalf("expected 1 segment, got %d", len(segs))
	}
	d := segs[0].Direction
	length := math.Sqrt(d.X*d.X + d.Y*d.Y + d.Z*d.Z)
	if !approxEqual(length, 1, 1e-9) {
		t.Fatalf("expected unit direction vector, got length %v", length)
	}
	if !approxEqual(d.X, 0.6, 1e-9) || !approxEqual(d.Y, 0.8, 1e-9) {
		t.Fatalf("unexpected direction: %+v", d)
	}
}

func TestAppendLegSegmentsInsertsDiffHorizOnObstructedLeg(t *testing.T) {
	sc := sceneWithBuilding(t)
	a := geo.Coordinate{X: 0, Y: 0, Z: 2}
	end := PointPath{Kind: KindReflection, Coordinate: geo.Coordinate{X: 20, Y: 0, Z: 2}, BuildingID: "other"}

	var points []PointPath
	var segG []float64
	appendLegSegments(sc, &points, &segG, a, end)

	if len(points) < 2 {
		t.Fatalf("expected at least the DIFH apex plus the leg endpoint, got %d points", len(points))
	}
	last := points[len(points)-1]
	if last.Kind != KindReflection || last.BuildingID != "other" {
		t.Fatalf("expected the leg endpoint preserved as the last point, got %+v", last)
	}
	foundDiffHoriz := false
	for _, p := range points[:len(points)-1] {
		if p.Kind == KindDiffHoriz {
			foundDiffHoriz = true
		}
	}
	if !foundDiffHoriz {
		t.Fatalf("expected a KindDiffHoriz apex inserted for an obstructed leg, got %+v", points)
	}
	if len(segG) != len(points) {
		t.Fatalf("expected one ground factor per appended point, got %d segG for %d points", len(segG), len(points))
	}
}

func TestAppendLegSegmentsDirectOnFreeFieldLeg(t *testing.T) {
	sc := flatScene(t)
	a := geo.Coordinate{X: 0, Y: 0, Z: 2}
	end := PointPath{Kind: KindReceiver, Coordinate: geo.Coordinate{X: 20, Y: 0, Z: 2}}

	var points []PointPath
	var segG []float64
	appendLegSegments(sc, &points, &segG, a, end)

	if len(points) != 1 || points[0].Kind != KindReceiver {
		t.Fatalf("expected a single direct endpoint on a free-field leg, got %+v", points)
	}
	if len(segG) != 1 {
		t.Fatalf("expected one ground factor entry, got %d", len(segG))
	}
}

func TestBuildSegmentsSinglePointReturnsNil(t *testing.T) {
	points := []PointPath{{Kind: KindSource, Coordinate: geo.Coordinate{}}}
	if segs := buildSegments(points, nil); segs != nil {
		t.Fatalf("expected nil segments for a single point, got %v", segs)
	}
}
