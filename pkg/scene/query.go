package scene

import (
	"github.com/dhconnelly/rtreego"

	"github.com/opennoise/raypath/pkg/geo"
)

// StopVisitor lets an R-tree traversal exit early instead of unwinding via
// a thrown exception.
type StopVisitor interface {
	// Visit is called once per candidate; returning false stops the scan.
	Visit(entityID string) (keepGoing bool)
}

// WallHit is one 2D intersection of a probe segment with a wall segment.
type WallHit struct {
	Wall  Wall
	Point geo.Point2D
	T     float64
}

// GroundCrossing is one boundary crossing of a probe segment with a ground
// region polygon, carrying the absorption class on both sides.
type GroundCrossing struct {
	Point      geo.Point2D
	T          float64
	GBefore    float64
	GAfter     float64
	HasGBefore bool
	HasGAfter  bool
}

// BuildingsOnPath returns every building whose envelope intersects the
// bounding box of segment (a, b), invoking visitor per candidate if
// non-nil so callers can stop the scan early. Candidates are not tested
// against the segment itself.
func (s *Scene) BuildingsOnPath(a, b geo.Point2D, visitor StopVisitor) []Building {
	rect := bounds2D(a, b, 1e-6)
	candidates := s.buildingIdx.SearchIntersect(rect)
	out := make([]Building, 0, len(candidates))
	for _, c := range candidates {
		bs := c.(*buildingSpatial)
		bldg := s.Buildings[bs.idx]
		if visitor != nil && !visitor.Visit(bldg.ID) {
			break
		}
		out = append(out, bldg)
	}
	return out
}

// WallsOnPath returns every wall intersection along segment (a, b), sorted
// by parametric distance t from a.
func (s *Scene) WallsOnPath(a, b geo.Point2D) []WallHit {
	rect := bounds2D(a, b, 1e-6)
	candidates := s.wallIdx.SearchIntersect(rect)
	out := make([]WallHit, 0, len(candidates))
	for _, c := range candidates {
		ws := c.(*wallSpatial)
		w := s.Walls[ws.idx]
		pt, t, ok := geo.SegmentIntersect(a, b, w.P0, w.P1)
		if !ok {
			continue
		}
		out = append(out, WallHit{Wall: w, Point: pt, T: t})
	}
	sortWallHits(out)
	return out
}

func sortWallHits(hits []WallHit) {
	for i := 1; i < len(hits); i++ {
		for j := i; j > 0 && hits[j].T < hits[j-1].T; j-- {
			hits[j], hits[j-1] = hits[j-1], hits[j]
		}
	}
}

// WallsInRange returns every wall within radius of center.
func (s *Scene) WallsInRange(center geo.Point2D, radius float64) []Wall {
	rect := bounds2D(center, center, radius)
	candidates := s.wallIdx.SearchIntersect(rect)
	out := make([]Wall, 0, len(candidates))
	for _, c := range candidates {
		ws := c.(*wallSpatial)
		w := s.Walls[ws.idx]
		_, dist := closestPointOnWall(center, w)
		if dist <= radius {
			out = append(out, w)
		}
	}
	return out
}

func closestPointOnWall(p geo.Point2D, w Wall) (geo.Point2D, float64) {
	ab := w.P1.Sub(w.P0)
	abLen2 := ab.Dot(ab)
	if abLen2 < 1e-12 {
		return w.P0, p.Distance(w.P0)
	}
	t := p.Sub(w.P0).Dot(ab) / abLen2
	if t < 0 {
		t = 0
	}
	if t > 1 {
		t = 1
	}
	closest := w.P0.Add(ab.Scale(t))
	return closest, p.Distance(closest)
}

// SourcesNear returns every source whose envelope intersects the
// axis-aligned box of the given half-width around center.
func (s *Scene) SourcesNear(center geo.Point2D, halfWidth float64) []Source {
	rect := bounds2D(center, center, halfWidth)
	candidates := s.sourceIdx.SearchIntersect(rect)
	out := make([]Source, 0, len(candidates))
	for _, c := range candidates {
		ss := c.(*sourceSpatial)
		out = append(out, s.Sources[ss.idx])
	}
	return out
}

// ProcessedWalls returns the walls eligible for reflection search:
// every BUILDING wall within maxRefDist of the src-rcv segment.
func (s *Scene) ProcessedWalls(src, rcv geo.Point2D, maxRefDist float64) []Wall {
	rect := bounds2D(src, rcv, maxRefDist)
	candidates := s.wallIdx.SearchIntersect(rect)
	out := make([]Wall, 0, len(candidates))
	for _, c := range candidates {
		ws := c.(*wallSpatial)
		w := s.Walls[ws.idx]
		if _, dist := closestSegmentDistance(src, rcv, w.P0, w.P1); dist <= maxRefDist {
			out = append(out, w)
		}
	}
	return out
}

// closestSegmentDistance approximates the minimum distance between two 2D
// segments by checking endpoint-to-segment distances (sufficient for the
// coarse maxRefDist filter; exact segment-segment distance is not needed
// since the R-tree envelope query already bounds candidates tightly).
func closestSegmentDistance(a0, a1, b0, b1 geo.Point2D) (geo.Point2D, float64) {
	best := a0
	bestDist := b0.Distance(a0)
	for _, p := range []geo.Point2D{a0, a1} {
		if cp, d := closestPointOnSeg(p, b0, b1); d < bestDist {
			bestDist = d
			best = cp
		}
	}
	for _, p := range []geo.Point2D{b0, b1} {
		if cp, d := closestPointOnSeg(p, a0, a1); d < bestDist {
			bestDist = d
			best = cp
		}
	}
	return best, bestDist
}

func closestPointOnSeg(p, a, b geo.Point2D) (geo.Point2D, float64) {
	ab := b.Sub(a)
	abLen2 := ab.Dot(ab)
	if abLen2 < 1e-12 {
		return a, p.Distance(a)
	}
	t := p.Sub(a).Dot(ab) / abLen2
	if t < 0 {
		t = 0
	}
	if t > 1 {
		t = 1
	}
	closest := a.Add(ab.Scale(t))
	return closest, p.Distance(closest)
}

// InEnvelope reports whether p falls within the scene's envelope. A scene
// built without one (Envelope has fewer than 3 vertices) accepts every
// position.
func (s *Scene) InEnvelope(p geo.Point2D) bool {
	if s.Envelope.IsEmpty() {
		return true
	}
	return s.Envelope.Contains(p)
}

// GroundCrossings returns every ground-region boundary crossing along
// segment (a, b), with the G value attached on both sides.
func (s *Scene) GroundCrossings(a, b geo.Point2D) []GroundCrossing {
	rect := bounds2D(a, b, 1e-6)
	candidates := s.groundIdx.SearchIntersect(rect)
	var out []GroundCrossing
	for _, c := range candidates {
		gs := c.(*groundSpatial)
		region := s.GroundRegions[gs.idx]
		poly := region.Footprint
		n := poly.Len()
		for i := 0; i < n; i++ {
			p0, p1 := poly.Edge(i)
			pt, t, ok := geo.SegmentIntersect(a, b, p0, p1)
			if !ok {
				continue
			}
			mid := a.Lerp(b, t+1e-6)
			inside := poly.Contains(mid)
			cross := GroundCrossing{Point: pt, T: t}
			if inside {
				cross.GAfter, cross.HasGAfter = region.G, true
			} else {
				cross.GBefore, cross.HasGBefore = region.G, true
			}
			out = append(out, cross)
		}
	}
	sortGroundCrossings(out)
	return out
}

func sortGroundCrossings(cs []GroundCrossing) {
	for i := 1; i < len(cs); i++ {
		for j := i; j > 0 && cs[j].T < cs[j-1].T; j-- {
			cs[j], cs[j-1] = cs[j-1], cs[j]
		}
	}
}

// HeightAtPosition returns the terrain altitude at p, if the terrain
// covers that position.
func (s *Scene) HeightAtPosition(p geo.Point2D) (float64, bool) {
	if s.Terrain == nil {
		return 0, false
	}
	return s.Terrain.HeightAt(p)
}

// BuildingRoofZ returns the roof altitude of the building with the given
// id, and whether it was found.
func (s *Scene) BuildingRoofZ(id string) (float64, bool) {
	idx, ok := s.buildingByID[id]
	if !ok {
		return 0, false
	}
	return s.Buildings[idx].RoofZ, true
}

// BuildingByID returns the building with the given id.
func (s *Scene) BuildingByID(id string) (Building, bool) {
	idx, ok := s.buildingByID[id]
	if !ok {
		return Building{}, false
	}
	return s.Buildings[idx], true
}

// WideAngleCorners returns the coordinates of every building wide-angle
// corner (cached at scene-build time) whose footprint envelope intersects
// the given search rectangle, lifted to 3D at roof altitude.
func (s *Scene) WideAngleCorners(min geo.Point2D, max geo.Point2D) []geo.Coordinate {
	w := max.X - min.X
	h := max.Y - min.Y
	if w <= 0 {
		w = 1e-6
	}
	if h <= 0 {
		h = 1e-6
	}
	rect, _ := rtreego.NewRect(rtreego.Point{min.X, min.Y}, []float64{w, h})
	candidates := s.buildingIdx.SearchIntersect(rect)
	var out []geo.Coordinate
	for _, c := range candidates {
		bs := c.(*buildingSpatial)
		bldg := s.Buildings[bs.idx]
		for _, corner := range bldg.WideCorners {
			out = append(out, corner.WithZ(bldg.RoofZ))
		}
	}
	return out
}

// IsFreeField reports whether the straight line between a and b is
// unobstructed: no building wall crossing and every terrain crossing lies
// at or below the sight line. By construction this is symmetric in
// (a, b): WallsOnPath/terrain crossings only depend on
// the undirected segment, and the sight-line comparison uses the same
// linear interpolation regardless of traversal direction.
func (s *Scene) IsFreeField(a, b geo.Coordinate) bool {
	if len(s.WallsOnPath(a.XY(), b.XY())) > 0 {
		return false
	}
	if s.Terrain == nil {
		return true
	}
	for _, cr := range s.Terrain.Crossings(a.XY(), b.XY()) {
		sightZ := a.Z + (b.Z-a.Z)*cr.T
		if cr.Z > sightZ+1e-9 {
			return false
		}
	}
	return true
}
