package cutprofile

import (
	"math"
	"testing"

	"github.com/opennoise/raypath/pkg/geo"
	"github.com/opennoise/raypath/pkg/scene"
)

func approxEqual(a, b, tol float64) bool {
	return math.Abs(a-b) <= tol
}

func flatTerrain() *scene.Terrain {
	verts := []scene.TerrainVertex{
		{Coordinate: geo.Coordinate{X: -100, Y: -100, Z: 0}},
		{Coordinate: geo.Coordinate{X: 100, Y: -100, Z: 0}},
		{Coordinate: geo.Coordinate{X: 100, Y: 100, Z: 0}},
		{Coordinate: geo.Coordinate{X: -100, Y: 100, Z: 0}},
	}
	return scene.BuildTerrain(verts)
}

func TestGetProfileFreeField(t *testing.T) {
	b := scene.NewBuilder()
	b.SetTerrain(flatTerrain())
	sc, _ := b.Finish(geo.Polygon{})

	a := geo.Coordinate{X: 0, Y: 0, Z: 4}
	recv := geo.Coordinate{X: 10, Y: 0, Z: 0.05}

	cp := GetProfile(sc, a, recv, 0)
	if len(cp.Points) != 2 {
		t.Fatalf("expected SOURCE+RECEIVER only, got %d points: %+v", len(cp.Points), cp.Points)
	}
	if cp.Points[0].Kind != KindSource || cp.Points[len(cp.Points)-1].Kind != KindReceiver {
		t.Fatalf("endpoint kinds wrong: %+v", cp.Points)
	}
	if !cp.IsFreeField() {
		t.Fatalf("expected free field over flat terrain with no obstacles")
	}
}

func TestGetProfileBuildingWallCrossing(t *testing.T) {
	b := scene.NewBuilder()
	footprint := geo.NewPolygon(geo.Pt(4, -2), geo.Pt(6, -2), geo.Pt(6, 2), geo.Pt(4, 2))
	b.AddBuilding("bldg1", footprint, 10, []float64{0.1})
	sc, _ := b.Finish(geo.Polygon{})

	a := geo.Coordinate{X: 0, Y: 0, Z: 1}
	recv := geo.Coordinate{X: 10, Y: 0, Z: 1}

	cp := GetProfile(sc, a, recv, 0)
	if cp.IsFreeField() {
		t.Fatalf("expected building wall crossing to block free field")
	}
	found := 0
	for _, p := range cp.Points {
		if p.Kind == KindBuildingWall {
			found++
		}
	}
	if found == 0 {
		t.Fatalf("expected at least one BUILDING_WALL cut point, got %+v", cp.Points)
	}
}

func TestIsFreeFieldSymmetric(t *testing.T) {
	b := scene.NewBuilder()
	footprint := geo.NewPolygon(geo.Pt(4, -2), geo.Pt(6, -2), geo.Pt(6, 2), geo.Pt(4, 2))
	b.AddBuilding("bldg1", footprint, 10, []float64{0.1})
	sc, _ := b.Finish(geo.Polygon{})

	a := geo.Coordinate{X: 0, Y: 0, Z: 1}
	recv := geo.Coordinate{X: 10, Y: 0, Z: 1}

	if sc.IsFreeField(a, recv) != sc.IsFreeField(recv, a) {
		t.Fatalf("IsFreeField must be symmetric")
	}
}

func TestGroundFactorWeightedAverage(t *testing.T) {
	cp := &CutProfile{
		Source:   geo.Coordinate{X: 0, Y: 0, Z: 0},
		Receiver: geo.Coordinate{X: 10, Y: 0, Z: 0},
		Points: []CutPoint{
			{Kind: KindSource, T: 0, GAfter: 0, HasGAfter: true},
			{Kind: KindGroundEffect, T: 0.5, GAfter: 1, HasGAfter: true},
			{Kind: KindReceiver, T: 1},
		},
	}
	g := cp.GroundFactor(0, 1)
	if !approxEqual(g, 0.5, 1e-9) {
		t.Fatalf("expected average G 0.5, got %v", g)
	}
}

func TestGroundFactorRevertsToAmbientAfterExit(t *testing.T) {
	cp := &CutProfile{
		Source:   geo.Coordinate{X: 0, Y: 0, Z: 0},
		Receiver: geo.Coordinate{X: 10, Y: 0, Z: 0},
		Points: []CutPoint{
			{Kind: KindSource, T: 0, GAfter: 0, HasGAfter: true},
			{Kind: KindGroundEffect, T: 0.25, GAfter: 1, HasGAfter: true},
			{Kind: KindGroundEffect, T: 0.75, GBefore: 1, HasGBefore: true},
			{Kind: KindReceiver, T: 1},
		},
	}
	// [0, 0.25): ambient G=0, [0.25, 0.75): region G=1, [0.75, 1]: back to
	// ambient G=0. Weighted average over the full span is 0.5.
	g := cp.GroundFactor(0, 1)
	if !approxEqual(g, 0.5, 1e-9) {
		t.Fatalf("expected average G 0.5 after exiting the region, got %v", g)
	}
	// Querying only the post-exit span must read pure ambient G, not the
	// region's G persisting past its boundary.
	after := cp.GroundFactor(0.75, 1)
	if !approxEqual(after, 0, 1e-9) {
		t.Fatalf("expected ambient G 0 after region exit, got %v", after)
	}
}
