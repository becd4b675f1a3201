// Package scene stores the immutable 2.5D geometry (buildings, terrain,
// walls, ground regions, sources) that the pathfinder queries, and indexes
// it in R-trees for fast envelope search.
package scene

import (
	"github.com/dhconnelly/rtreego"
	"github.com/paulmach/orb"

	"github.com/opennoise/raypath/pkg/geo"
)

// SourceKind distinguishes point sources from line sources.
type SourceKind string

const (
	SourcePoint          SourceKind = "point"
	SourceLineString     SourceKind = "line_string"
	SourceMultiLineString SourceKind = "multi_line_string"
)

// Wall is an oriented vertical segment (p0, p1) with a top altitude, an
// owning building id, and a per-frequency absorption spectrum. Vertices
// are wound counterclockwise around the building exterior, so the outward
// normal is the right-hand perpendicular of (p1 - p0).
type Wall struct {
	ID         string
	P0, P1     geo.Point2D
	TopZ       float64
	BuildingID string
	Absorption []float64
}

// Length returns the 2D length of the wall segment.
func (w Wall) Length() float64 {
	return w.P0.Distance(w.P1)
}

// Direction returns the unit vector from P0 to P1.
func (w Wall) Direction() geo.Point2D {
	return w.P1.Sub(w.P0).Normalize()
}

// OutwardNormal returns the unit vector pointing away from the building
// interior. With CCW-wound exterior vertices, the outward normal is the
// right-hand perpendicular of the wall direction (rotate -90deg), i.e. the
// negation of Point2D.Perp (which rotates +90deg / left).
func (w Wall) OutwardNormal() geo.Point2D {
	d := w.Direction()
	return geo.Point2D{X: d.Y, Y: -d.X}
}

// bounds2D returns an rtreego.Rect covering the 2D extent of (p0, p1),
// expanded by margin on every side so near-miss segment queries still hit.
func bounds2D(p0, p1 geo.Point2D, margin float64) rtreego.Rect {
	minX, maxX := p0.X, p1.X
	if minX > maxX {
		minX, maxX = maxX, minX
	}
	minY, maxY := p0.Y, p1.Y
	if minY > maxY {
		minY, maxY = maxY, minY
	}
	minX -= margin
	minY -= margin
	w := (maxX - minX) + 2*margin
	h := (maxY - minY) + 2*margin
	if w <= 0 {
		w = 1e-6
	}
	if h <= 0 {
		h = 1e-6
	}
	rect, _ := rtreego.NewRect(rtreego.Point{minX, minY}, []float64{w, h})
	return rect
}

// wallSpatial adapts a Wall index entry to rtreego.Spatial.
type wallSpatial struct {
	idx  int
	rect rtreego.Rect
}

func (w *wallSpatial) Bounds() rtreego.Rect { return w.rect }

// Building is a footprint polygon with a roof altitude and absorption
// spectrum. WideCorners is computed once at scene-build time and cached for the lifetime of the immutable scene.
type Building struct {
	ID          string
	Footprint   geo.Polygon
	RoofZ       float64
	Absorption  []float64
	WideCorners []geo.Point2D
	WallIDs     []string
	bound       orb.Bound
}

// buildingSpatial adapts a Building index entry to rtreego.Spatial.
type buildingSpatial struct {
	idx  int
	rect rtreego.Rect
}

func (b *buildingSpatial) Bounds() rtreego.Rect { return b.rect }

func polygonBound(p geo.Polygon) (orb.Bound, rtreego.Rect) {
	minP, maxP := p.BoundingBox()
	bound := orb.Bound{Min: orb.Point{minP.X, minP.Y}, Max: orb.Point{maxP.X, maxP.Y}}
	w := maxP.X - minP.X
	h := maxP.Y - minP.Y
	if w <= 0 {
		w = 1e-6
	}
	if h <= 0 {
		h = 1e-6
	}
	rect, _ := rtreego.NewRect(rtreego.Point{minP.X, minP.Y}, []float64{w, h})
	return bound, rect
}

// GroundRegion is a polygon with an absorption class G in [0,1].
type GroundRegion struct {
	ID        string
	Footprint geo.Polygon
	G         float64
}

type groundSpatial struct {
	idx  int
	rect rtreego.Rect
}

func (g *groundSpatial) Bounds() rtreego.Rect { return g.rect }

// Source is a noise emitter: a point, or a polyline discretized into
// equivalent point sources at query time.
type Source struct {
	ID       string
	Kind     SourceKind
	Point    geo.Coordinate // valid when Kind == SourcePoint
	Line     geo.Polyline   // valid when Kind != SourcePoint; Z per point mirrors Points index
	LineZ    []float64
	MaxPower float64
}

type sourceSpatial struct {
	idx  int
	rect rtreego.Rect
}

func (s *sourceSpatial) Bounds() rtreego.Rect { return s.rect }

// Receiver is a query point for the pathfinder.
type Receiver struct {
	ID       string
	Position geo.Coordinate
}
