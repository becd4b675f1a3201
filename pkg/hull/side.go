package hull

import (
	"github.com/opennoise/raypath/pkg/geo"
	"github.com/opennoise/raypath/pkg/scene"
)

// MaxPerimeterRatio is the abort threshold: if the growing hull's
// perimeter exceeds this multiple of |src-rcv|, the side hull does not
// converge and the attempt is abandoned.
const MaxPerimeterRatio = 4.0

// cornerDedupeTol groups candidate corners that coincide within this
// distance, so revisiting a shared building vertex does not loop forever.
const cornerDedupeTol = 1e-6

// SidePoint is one vertex of a vertical-edge diffraction side, carrying
// the building the corner belongs to (empty for src/rcv).
type SidePoint struct {
	Coordinate geo.Coordinate
	BuildingID string
}

// SideHull grows the iterative convex hull of src, rcv, and intersected
// building corners and splits the result into left and right
// diffraction polylines. ok is false if the hull failed to converge
// (perimeter/|src-rcv| exceeded MaxPerimeterRatio) or if fewer than 3
// points remain (degenerate: no buildings intersect the sight line, so
// there is no side-hull path distinct from free field).
func SideHull(sc *scene.Scene, src, rcv geo.Coordinate) (left, right []SidePoint, ok bool) {
	chordLen := src.Distance2D(rcv)
	if chordLen < 1e-9 {
		return nil, nil, false
	}

	type candidate struct {
		pos        geo.Point2D
		z          float64
		buildingID string
	}
	candidates := []candidate{
		{pos: src.XY(), z: src.Z},
		{pos: rcv.XY(), z: rcv.Z},
	}
	processed := make(map[string]bool)

	maxIterations := len(sc.Buildings) + 8
	for iter := 0; iter < maxIterations; iter++ {
		pts := make([]geo.Point2D, len(candidates))
		for i, c := range candidates {
			pts[i] = c.pos
		}
		hullPts := geo.ConvexHull2D(pts)

		var edges [][2]geo.Point2D
		if len(hullPts) < 3 {
			// Too few distinct points for a polygon yet (the very first
			// iteration always starts here, with just src and rcv): walk
			// the src-rcv segment itself in both directions so the
			// building lookup below isn't starved waiting for a real
			// hull to exist.
			edges = [][2]geo.Point2D{{src.XY(), rcv.XY()}, {rcv.XY(), src.XY()}}
		} else {
			perimeter := geo.NewPolygon(hullPts...).Perimeter()
			if perimeter/chordLen > MaxPerimeterRatio {
				return nil, nil, false
			}
			n := len(hullPts)
			edges = make([][2]geo.Point2D, n)
			for i := 0; i < n; i++ {
				edges[i] = [2]geo.Point2D{hullPts[i], hullPts[(i+1)%n]}
			}
		}

		added := false
		for _, e := range edges {
			for _, bldg := range sc.BuildingsOnPath(e[0], e[1], nil) {
				if processed[bldg.ID] {
					continue
				}
				processed[bldg.ID] = true
				for _, corner := range bldg.WideCorners {
					if corner.X == src.X && corner.Y == src.Y {
						continue
					}
					dup := false
					for _, c := range candidates {
						if c.pos.Distance(corner) <= cornerDedupeTol {
							dup = true
							break
						}
					}
					if dup {
						continue
					}
					candidates = append(candidates, candidate{
						pos: corner, z: bldg.RoofZ, buildingID: bldg.ID,
					})
					added = true
				}
			}
		}
		if !added {
			break
		}
	}

	pts := make([]geo.Point2D, len(candidates))
	for i, c := range candidates {
		pts[i] = c.pos
	}
	hullPts := geo.ConvexHull2D(pts)
	if len(hullPts) < 3 {
		return nil, nil, false
	}

	byPos := make(map[geo.Point2D]candidate, len(candidates))
	for _, c := range candidates {
		byPos[c.pos] = c
	}

	srcIdx, rcvIdx := -1, -1
	for i, p := range hullPts {
		if p.Distance(src.XY()) <= cornerDedupeTol {
			srcIdx = i
		}
		if p.Distance(rcv.XY()) <= cornerDedupeTol {
			rcvIdx = i
		}
	}
	if srcIdx < 0 || rcvIdx < 0 {
		return nil, nil, false
	}

	n := len(hullPts)
	walk := func(from, to int, forward bool) []SidePoint {
		out := []SidePoint{}
		i := from
		for {
			c, found := byPos[hullPts[i]]
			if !found {
				c = candidate{pos: hullPts[i]}
			}
			out = append(out, SidePoint{Coordinate: c.pos.WithZ(c.z), BuildingID: c.buildingID})
			if i == to {
				break
			}
			if forward {
				i = (i + 1) % n
			} else {
				i = (i - 1 + n) % n
			}
		}
		return out
	}

	leftSide := walk(srcIdx, rcvIdx, true)
	rightSide := walk(srcIdx, rcvIdx, false)
	return leftSide, rightSide, true
}
