// Package rpath assembles PropagationPaths from cut profiles, roof and
// side hulls, and reflection chains: the path composer.
package rpath

import "github.com/opennoise/raypath/pkg/geo"

// PointKind classifies a PointPath entry.
type PointKind string

const (
	KindSource      PointKind = "SRCE"
	KindReceiver    PointKind = "RECV"
	KindReflection  PointKind = "REFL"
	KindDiffHoriz   PointKind = "DIFH"
	KindDiffVert    PointKind = "DIFV"
)

// PointPath is one vertex of a PropagationPath.
type PointPath struct {
	Kind       PointKind
	Coordinate geo.Coordinate
	BuildingID string
	WallID     string
	Absorption []float64
}

// SegmentPath pairs two consecutive PointPaths with their ground factor
// and 3D direction vector.
type SegmentPath struct {
	FromIndex int
	ToIndex   int
	G         float64
	Direction geo.Coordinate
}

// PropagationPath is an ordered list of PointPaths plus the SegmentPaths
// between consecutive points. Invariants: first point kind SRCE, last
// RECV, len(Segments) == len(Points)-1.
type PropagationPath struct {
	SourceID    string
	ReceiverID  string
	Favourable  bool
	Points      []PointPath
	Segments    []SegmentPath
}

// buildSegments derives SegmentPaths from a finished Points slice, given a
// function returning the ground factor between two parametric positions.
func buildSegments(points []PointPath, groundFactor func(i, j int) float64) []SegmentPath {
	if len(points) < 2 {
		return nil
	}
	segs := make([]SegmentPath, 0, len(points)-1)
	for i := 1; i < len(points); i++ {
		dir := points[i].Coordinate
		from := points[i-1].Coordinate
		d := geo.Coordinate{X: dir.X - from.X, Y: dir.Y - from.Y, Z: dir.Z - from.Z}
		length := from.Distance3D(dir)
		if length > 1e-12 {
			d = geo.Coordinate{X: d.X / length, Y: d.Y / length, Z: d.Z / length}
		}
		g := 0.0
		if groundFactor != nil {
			g = groundFactor(i-1, i)
		}
		segs = append(segs, SegmentPath{FromIndex: i - 1, ToIndex: i, G: g, Direction: d})
	}
	return segs
}
