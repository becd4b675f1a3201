package mirror

import (
	"github.com/opennoise/raypath/pkg/geo"
	"github.com/opennoise/raypath/pkg/scene"
)

// TraceBack walks the chain from leaf up to the root, intersecting the
// line (current destination, current mirror image) with the chain's wall
// at each step, and returns the real reflection points in src-to-rcv
// order. ok is false if any intersection misses its finite wall segment,
// if the interpolated z exceeds the wall's top altitude, or if z falls
// below terrain at that position.
func TraceBack(tree *Tree, leafIdx int, wallsByID map[string]scene.Wall, src, rcv geo.Coordinate, sc *scene.Scene) ([]ReflectionPoint, bool) {
	// Collect the chain from leaf (closest wall to src) down to the root
	// (closest wall to rcv).
	var chain []int
	for i := leafIdx; i != -1; i = tree.Nodes[i].Parent {
		chain = append(chain, i)
	}

	points := make([]ReflectionPoint, 0, len(chain))
	currentDest := src
	for _, nodeIdx := range chain {
		node := tree.Nodes[nodeIdx]
		w, ok := wallsByID[node.WallID]
		if !ok {
			return nil, false
		}
		mirrorImage := node.Pos.WithZ(rcv.Z)

		pt2d, t, hit := geo.SegmentIntersect(currentDest.XY(), mirrorImage.XY(), w.P0, w.P1)
		if !hit || t <= 1e-9 || t >= 1-1e-9 {
			return nil, false
		}

		z := currentDest.Z + (mirrorImage.Z-currentDest.Z)*t
		if z > w.TopZ+zTolerance {
			return nil, false
		}
		if groundZ, ok := sc.HeightAtPosition(pt2d); ok && z < groundZ-zTolerance {
			return nil, false
		}

		normal := w.OutwardNormal()
		nudged := pt2d.Add(normal.Scale(nudgeEps))
		reflectionPoint := nudged.WithZ(z)

		points = append(points, ReflectionPoint{
			Position: reflectionPoint, WallID: w.ID, BuildingID: w.BuildingID,
		})
		currentDest = reflectionPoint
	}

	return points, true
}

// Search runs the full reflection search for one src/rcv pair: builds the
// mirror tree over walls within maxRefDist, trace-backs every node (every
// depth is a candidate terminal chain, not only the deepest), and verifies
// each consecutive leg's cut profile is resolvable (free-field or
// obstructed by terrain only, see legsResolvable) before accepting the
// chain.
func Search(sc *scene.Scene, src, rcv geo.Coordinate, maxOrder int, maxSrcDist, maxRefDist float64) [][]ReflectionPoint {
	walls := sc.ProcessedWalls(src.XY(), rcv.XY(), maxRefDist)
	if len(walls) == 0 || maxOrder < 1 {
		return nil
	}
	wallsByID := make(map[string]scene.Wall, len(walls))
	for _, w := range walls {
		wallsByID[w.ID] = w
	}

	tree := Build(walls, src, rcv, maxOrder, maxSrcDist)
	var accepted [][]ReflectionPoint
	for i := range tree.Nodes {
		points, ok := TraceBack(tree, i, wallsByID, src, rcv, sc)
		if !ok {
			continue
		}
		if !legsResolvable(sc, src, rcv, points) {
			continue
		}
		accepted = append(accepted, points)
	}
	return accepted
}

// legsResolvable verifies every consecutive leg of the reflection chain
// (src -> points... -> rcv) is either free-field or obstructed by terrain
// only. A leg that crosses any building wall rejects the chain; such a
// leg is not checked for whether horizontal-edge diffraction over the
// roof could resolve it.
func legsResolvable(sc *scene.Scene, src, rcv geo.Coordinate, points []ReflectionPoint) bool {
	legs := make([]geo.Coordinate, 0, len(points)+2)
	legs = append(legs, src)
	for _, p := range points {
		legs = append(legs, p.Position)
	}
	legs = append(legs, rcv)

	for i := 1; i < len(legs); i++ {
		if sc.IsFreeField(legs[i-1], legs[i]) {
			continue
		}
		// Not free-field: accepted only when no building wall is crossed,
		// i.e. the obstruction is terrain.
		hits := sc.WallsOnPath(legs[i-1].XY(), legs[i].XY())
		if len(hits) > 0 {
			return false
		}
	}
	return true
}
