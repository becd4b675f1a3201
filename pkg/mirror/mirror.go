// Package mirror implements the image-source reflection search: the
// arena-indexed MirrorReceiver tree, the wallWallTest facing predicate, and
// the trace-back validation that turns an accepted mirror chain into real
// reflection points.
package mirror

import (
	"github.com/opennoise/raypath/pkg/geo"
	"github.com/opennoise/raypath/pkg/scene"
)

// nudgeEps is the horizontal offset applied to an accepted reflection
// point, against the wall's outward normal, so later visibility tests do
// not re-hit the generating wall.
const nudgeEps = 1e-4

// zTolerance bounds all z comparisons during trace-back.
const zTolerance = 1e-6

// Node is one entry in the arena-indexed MirrorReceiver tree: an image
// position, its parent index (-1 at the root), and the wall used to
// produce it. Depth equals the reflection order of that image.
type Node struct {
	Pos        geo.Point2D
	Parent     int
	WallID     string
	BuildingID string
	Depth      int
}

// Tree is the flat arena of MirrorReceiver nodes for one src/rcv query,
// grounded in style on the teacher's flat value-slice entities (no pointer
// trees anywhere in the source repo) rather than a linked node structure.
type Tree struct {
	Nodes []Node
}

// ReflectionPoint is one accepted, trace-back-validated reflection point
// along the real (unfolded) path from src to rcv.
type ReflectionPoint struct {
	Position   geo.Coordinate
	WallID     string
	BuildingID string
}

// mirrorAcrossWall reflects p across wall w's infinite supporting line.
func mirrorAcrossWall(p geo.Point2D, w scene.Wall) geo.Point2D {
	d := w.Direction()
	v := p.Sub(w.P0)
	proj := d.Scale(v.Dot(d))
	perp := v.Sub(proj)
	return p.Sub(perp.Scale(2))
}

// outwardOffset returns the signed distance of p from wall w's supporting
// line, positive on the outward-normal side.
func outwardOffset(w scene.Wall, p geo.Point2D) float64 {
	return p.Sub(w.P0).Dot(w.OutwardNormal())
}

// wallWallTest reports whether a and b face each other: each wall's
// supporting line has at least one endpoint of the other wall strictly on
// its outward side, tested in both directions.
func wallWallTest(a, b scene.Wall) bool {
	return hasOutwardEndpoint(a, b) && hasOutwardEndpoint(b, a)
}

func hasOutwardEndpoint(reference, other scene.Wall) bool {
	const eps = 1e-9
	return outwardOffset(reference, other.P0) > eps || outwardOffset(reference, other.P1) > eps
}

// Build constructs the MirrorReceiver tree for rcv across the given wall
// set up to maxOrder reflections, pruning images beyond maxSrcDist or
// whose wall does not face its parent.
func Build(walls []scene.Wall, src, rcv geo.Coordinate, maxOrder int, maxSrcDist float64) *Tree {
	t := &Tree{}
	if maxOrder < 1 {
		return t
	}

	srcXY := src.XY()
	rcvXY := rcv.XY()

	depthStart := 0
	for _, w := range walls {
		img := mirrorAcrossWall(rcvXY, w)
		if srcXY.Distance(img) > maxSrcDist {
			continue
		}
		if _, _, ok := geo.SegmentIntersect(srcXY, img, w.P0, w.P1); !ok {
			continue
		}
		t.Nodes = append(t.Nodes, Node{
			Pos: img, Parent: -1, WallID: w.ID, BuildingID: w.BuildingID, Depth: 1,
		})
	}
	depthEnd := len(t.Nodes)

	for depth := 1; depth < maxOrder; depth++ {
		for idx := depthStart; idx < depthEnd; idx++ {
			node := t.Nodes[idx]
			var parentWall scene.Wall
			found := false
			for _, w := range walls {
				if w.ID == node.WallID {
					parentWall = w
					found = true
					break
				}
			}
			if !found {
				continue
			}
			for _, w := range walls {
				if w.ID == node.WallID {
					continue
				}
				if !wallWallTest(parentWall, w) {
					continue
				}
				img := mirrorAcrossWall(node.Pos, w)
				if srcXY.Distance(img) > maxSrcDist {
					continue
				}
				t.Nodes = append(t.Nodes, Node{
					Pos: img, Parent: idx, WallID: w.ID, BuildingID: w.BuildingID, Depth: depth + 1,
				})
			}
		}
		depthStart = depthEnd
		depthEnd = len(t.Nodes)
		if depthStart == depthEnd {
			break
		}
	}

	return t
}
