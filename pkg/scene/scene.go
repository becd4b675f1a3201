package scene

import (
	"github.com/dhconnelly/rtreego"
	"github.com/google/uuid"

	"github.com/opennoise/raypath/pkg/geo"
	"github.com/opennoise/raypath/pkg/validation"
)

// rtreeMinChildren/rtreeMaxChildren bound the R-tree node fanout, following
// rtreego's own recommended defaults for small-to-medium scenes.
const (
	rtreeMinChildren = 25
	rtreeMaxChildren = 50
)

// Scene holds the immutable, read-only, concurrency-safe geometry that the
// pathfinder queries. It is built once by Builder.Finish and shared by
// reference across all scheduler workers.
type Scene struct {
	Buildings     []Building
	Walls         []Wall
	GroundRegions []GroundRegion
	Sources       []Source
	Terrain       *Terrain

	// Envelope bounds the area queries are answerable over. An empty
	// (fewer than 3 vertices) Envelope means no bound was supplied and
	// every position is considered in range.
	Envelope geo.Polygon

	buildingIdx *rtreego.Rtree
	wallIdx     *rtreego.Rtree
	groundIdx   *rtreego.Rtree
	sourceIdx   *rtreego.Rtree

	buildingByID map[string]int
	wallByID     map[string]int
}

// Builder accumulates scene entities before Finish produces an immutable
// Scene. Mirrors the teacher's assemble-then-freeze shape: entities are
// appended with plain methods and only indexed once at Finish.
type Builder struct {
	buildings []Building
	walls     []Wall
	ground    []GroundRegion
	sources   []Source
	terrain   *Terrain
	report    *validation.Report
}

// NewBuilder creates an empty scene builder.
func NewBuilder() *Builder {
	return &Builder{report: validation.NewReport()}
}

// AddBuilding ingests a building footprint with roof altitude and
// absorption spectrum. Wall segments are derived from
// the CCW-ensured footprint edges; malformed footprints (fewer than 3
// vertices, zero area) are skipped and reported as InvalidGeometry.
func (b *Builder) AddBuilding(id string, footprint geo.Polygon, roofZ float64, absorption []float64) string {
	if id == "" {
		id = uuid.NewString()
	}
	if footprint.IsEmpty() || footprint.Area() < 1e-9 {
		b.report.AddError(validation.Result{
			Level:    validation.LevelScene,
			Message:  "building footprint is degenerate (fewer than 3 vertices or zero area)",
			EntityID: id,
		})
		return id
	}
	ccw := footprint.EnsureCCW()
	corners := ccw.WideAngleCorners(wideAngleMin, wideAngleMax)

	n := ccw.Len()
	wallIDs := make([]string, 0, n)
	for i := 0; i < n; i++ {
		p0, p1 := ccw.Edge(i)
		wallID := uuid.NewString()
		wallIDs = append(wallIDs, wallID)
		b.walls = append(b.walls, Wall{
			ID:         wallID,
			P0:         p0,
			P1:         p1,
			TopZ:       roofZ,
			BuildingID: id,
			Absorption: absorption,
		})
	}

	b.buildings = append(b.buildings, Building{
		ID:          id,
		Footprint:   ccw,
		RoofZ:       roofZ,
		Absorption:  absorption,
		WideCorners: corners,
		WallIDs:     wallIDs,
	})
	return id
}

// wideAngleMin/wideAngleMax bound the candidate diffraction-corner band:
// interior angle measured outside the polygon, in
// (pi*(1+1/16), pi*(2-1/16)).
const (
	wideAngleMin = piTimes17Over16
	wideAngleMax = piTimes31Over16
)

// AddGroundRegion ingests a polygon with absorption class G in [0,1].
func (b *Builder) AddGroundRegion(id string, footprint geo.Polygon, g float64) string {
	if id == "" {
		id = uuid.NewString()
	}
	if g < 0 {
		g = 0
	}
	if g > 1 {
		g = 1
	}
	b.ground = append(b.ground, GroundRegion{ID: id, Footprint: footprint.EnsureCCW(), G: g})
	return id
}

// AddPointSource ingests a point source.
func (b *Builder) AddPointSource(id string, p geo.Coordinate, maxPower float64) string {
	if id == "" {
		id = uuid.NewString()
	}
	b.sources = append(b.sources, Source{ID: id, Kind: SourcePoint, Point: p, MaxPower: maxPower})
	return id
}

// AddLineSource ingests a line-string (or multi-line-string, represented
// as one Polyline per contiguous run) source, discretized into equivalent
// point sources at query time.
func (b *Builder) AddLineSource(id string, kind SourceKind, line geo.Polyline, z []float64, maxPower float64) string {
	if id == "" {
		id = uuid.NewString()
	}
	if kind == SourcePoint {
		kind = SourceLineString
	}
	b.sources = append(b.sources, Source{ID: id, Kind: kind, Line: line, LineZ: z, MaxPower: maxPower})
	return id
}

// SetTerrain ingests a terrain already triangulated by BuildTerrain.
func (b *Builder) SetTerrain(t *Terrain) {
	b.terrain = t
}

// Report returns the accumulated ingestion report so far.
func (b *Builder) Report() *validation.Report {
	return b.report
}

// Finish freezes the builder into an immutable Scene, building the R-tree
// indices over buildings, walls, ground regions, and sources. After Finish
// the scene must not be mutated. envelope bounds the area a source or
// receiver must fall within for InEnvelope to accept it; an empty envelope
// (fewer than 3 vertices) disables the bound, since the R-trees themselves
// already self-bound from the ingested geometry.
func (b *Builder) Finish(envelope geo.Polygon) (*Scene, *validation.Report) {
	sc := &Scene{
		Buildings:     b.buildings,
		Walls:         b.walls,
		GroundRegions: b.ground,
		Sources:       b.sources,
		Terrain:       b.terrain,
		Envelope:      envelope,
		buildingByID:  make(map[string]int, len(b.buildings)),
		wallByID:      make(map[string]int, len(b.walls)),
	}

	sc.buildingIdx = rtreego.NewTree(2, rtreeMinChildren, rtreeMaxChildren)
	for i, bldg := range sc.Buildings {
		sc.buildingByID[bldg.ID] = i
		_, rect := polygonBound(bldg.Footprint)
		sc.buildingIdx.Insert(&buildingSpatial{idx: i, rect: rect})
	}

	sc.wallIdx = rtreego.NewTree(2, rtreeMinChildren, rtreeMaxChildren)
	for i, w := range sc.Walls {
		sc.wallByID[w.ID] = i
		rect := bounds2D(w.P0, w.P1, 1e-6)
		sc.wallIdx.Insert(&wallSpatial{idx: i, rect: rect})
	}

	sc.groundIdx = rtreego.NewTree(2, rtreeMinChildren, rtreeMaxChildren)
	for i, g := range sc.GroundRegions {
		_, rect := polygonBound(g.Footprint)
		sc.groundIdx.Insert(&groundSpatial{idx: i, rect: rect})
	}

	sc.sourceIdx = rtreego.NewTree(2, rtreeMinChildren, rtreeMaxChildren)
	for i, s := range sc.Sources {
		var rect rtreego.Rect
		if s.Kind == SourcePoint {
			rect = bounds2D(s.Point.XY(), s.Point.XY(), 1e-3)
		} else {
			minP, maxP := geo.NewPolygon(s.Line.Points...).BoundingBox()
			rect = bounds2D(minP, maxP, 1e-3)
		}
		sc.sourceIdx.Insert(&sourceSpatial{idx: i, rect: rect})
	}

	return sc, b.report
}
