package scene

import (
	"math"
	"sort"

	"github.com/opennoise/raypath/pkg/geo"
)

// TerrainVertex is a triangulation vertex with absolute altitude.
type TerrainVertex struct {
	geo.Coordinate
}

// terrainTriangle is a Delaunay triangle over Terrain.Vertices, with
// per-edge neighbor links: Neighbor[k] is the triangle across the edge
// opposite Verts[k] (Verts[(k+1)%3], Verts[(k+2)%3]), or -1 at the
// triangulation boundary.
type terrainTriangle struct {
	Verts    [3]int
	Neighbor [3]int
}

// Terrain is a Delaunay triangulation with per-vertex altitude. It is
// built only by BuildTerrain, which triangulates a bare point cloud;
// precomputed triangle indices or neighbor ids are not accepted.
type Terrain struct {
	Vertices  []TerrainVertex
	triangles []terrainTriangle
}

// TerrainCrossing is one terrain-triangle-edge intersection along a probe
// segment, with the parametric distance t in [0,1] from a to b and the
// z interpolated along the crossed edge.
type TerrainCrossing struct {
	Point geo.Point2D
	Z     float64
	T     float64
}

// BuildTerrain triangulates the given point cloud with Bowyer-Watson
// (super-triangle technique) and derives the triangle-adjacency graph
// used by crossing queries.
func BuildTerrain(vertices []TerrainVertex) *Terrain {
	t := &Terrain{Vertices: vertices}
	t.triangles = delaunayTriangulate(vertices)
	return t
}

// delaunayTriangulate runs Bowyer-Watson over the 2D projection of verts
// and returns triangles with computed neighbor links. Grounded on the same
// incremental-insertion / bad-triangle-removal / re-triangulate-cavity
// shape used for Voronoi neighbor detection, generalized to keep the
// triangles themselves (not just the adjacency) since terrain crossing
// queries need per-triangle vertex altitudes.
func delaunayTriangulate(verts []TerrainVertex) []terrainTriangle {
	n := len(verts)
	if n < 3 {
		return nil
	}

	pts := make([]geo.Point2D, n)
	minX, minY := math.MaxFloat64, math.MaxFloat64
	maxX, maxY := -math.MaxFloat64, -math.MaxFloat64
	for i, v := range verts {
		// Jitter to avoid degenerate cocircular configurations.
		pts[i] = geo.Point2D{X: v.X + float64(i)*1e-8, Y: v.Y + float64(i)*1e-8}
		if pts[i].X < minX {
			minX = pts[i].X
		}
		if pts[i].X > maxX {
			maxX = pts[i].X
		}
		if pts[i].Y < minY {
			minY = pts[i].Y
		}
		if pts[i].Y > maxY {
			maxY = pts[i].Y
		}
	}

	dx := maxX - minX
	dy := maxY - minY
	maxD := math.Max(dx, dy)*4 + 1
	superA := geo.Point2D{X: minX - maxD, Y: minY - maxD}
	superB := geo.Point2D{X: maxX + maxD, Y: minY - maxD}
	superC := geo.Point2D{X: (minX + maxX) / 2, Y: maxY + maxD}

	allPts := make([]geo.Point2D, n+3)
	copy(allPts, pts)
	allPts[n] = superA
	allPts[n+1] = superB
	allPts[n+2] = superC

	type rawTri struct{ v [3]int }
	tris := []rawTri{{v: [3]int{n, n + 1, n + 2}}}

	for pi := 0; pi < n; pi++ {
		p := allPts[pi]
		bad := make([]int, 0)
		for ti, tr := range tris {
			if inCircumcircle(p, allPts[tr.v[0]], allPts[tr.v[1]], allPts[tr.v[2]]) {
				bad = append(bad, ti)
			}
		}

		type edge struct{ a, b int }
		edgeCount := make(map[edge]int)
		for _, ti := range bad {
			tr := tris[ti]
			for k := 0; k < 3; k++ {
				e := edge{tr.v[k], tr.v[(k+1)%3]}
				if e.a > e.b {
					e.a, e.b = e.b, e.a
				}
				edgeCount[e]++
			}
		}

		boundary := make([]edge, 0)
		for _, ti := range bad {
			tr := tris[ti]
			for k := 0; k < 3; k++ {
				e := edge{tr.v[k], tr.v[(k+1)%3]}
				n := e
				if n.a > n.b {
					n.a, n.b = n.b, n.a
				}
				if edgeCount[n] == 1 {
					boundary = append(boundary, e)
				}
			}
		}

		sort.Sort(sort.Reverse(sort.IntSlice(bad)))
		for _, ti := range bad {
			tris[ti] = tris[len(tris)-1]
			tris = tris[:len(tris)-1]
		}
		for _, e := range boundary {
			tris = append(tris, rawTri{v: [3]int{e.a, e.b, pi}})
		}
	}

	out := make([]terrainTriangle, 0, len(tris))
	for _, tr := range tris {
		if tr.v[0] >= n || tr.v[1] >= n || tr.v[2] >= n {
			continue
		}
		out = append(out, terrainTriangle{Verts: tr.v, Neighbor: [3]int{-1, -1, -1}})
	}

	type edgeOwner struct {
		tri, side int
	}
	edgeOwners := make(map[[2]int]edgeOwner)
	for ti, tr := range out {
		for k := 0; k < 3; k++ {
			a, b := tr.Verts[(k+1)%3], tr.Verts[(k+2)%3]
			key := [2]int{a, b}
			if key[0] > key[1] {
				key[0], key[1] = key[1], key[0]
			}
			if owner, ok := edgeOwners[key]; ok {
				out[ti].Neighbor[k] = owner.tri
				out[owner.tri].Neighbor[owner.side] = ti
			} else {
				edgeOwners[key] = edgeOwner{tri: ti, side: k}
			}
		}
	}

	return out
}

// inCircumcircle returns true if p is inside the circumcircle of (a,b,c).
func inCircumcircle(p, a, b, c geo.Point2D) bool {
	ax, ay := a.X-p.X, a.Y-p.Y
	bx, by := b.X-p.X, b.Y-p.Y
	cx, cy := c.X-p.X, c.Y-p.Y

	det := ax*(by*(cx*cx+cy*cy)-cy*(bx*bx+by*by)) -
		ay*(bx*(cx*cx+cy*cy)-cx*(bx*bx+by*by)) +
		(ax*ax+ay*ay)*(bx*cy-cx*by)

	orient := (b.X-a.X)*(c.Y-a.Y) - (b.Y-a.Y)*(c.X-a.X)
	if orient < 0 {
		det = -det
	}
	return det > 0
}

func (t *Terrain) vertex2D(i int) geo.Point2D {
	return t.Vertices[i].XY()
}

// triangleContains reports whether p lies inside triangle tri (barycentric).
func (t *Terrain) triangleContains(tri terrainTriangle, p geo.Point2D) (inside bool, u, v, w float64) {
	a, b, c := t.vertex2D(tri.Verts[0]), t.vertex2D(tri.Verts[1]), t.vertex2D(tri.Verts[2])
	v0 := b.Sub(a)
	v1 := c.Sub(a)
	v2 := p.Sub(a)
	d00 := v0.Dot(v0)
	d01 := v0.Dot(v1)
	d11 := v1.Dot(v1)
	d20 := v2.Dot(v0)
	d21 := v2.Dot(v1)
	denom := d00*d11 - d01*d01
	if math.Abs(denom) < 1e-15 {
		return false, 0, 0, 0
	}
	vb := (d11*d20 - d01*d21) / denom
	wb := (d00*d21 - d01*d20) / denom
	ub := 1 - vb - wb
	const eps = 1e-9
	inside = ub >= -eps && vb >= -eps && wb >= -eps
	return inside, ub, vb, wb
}

func (t *Terrain) triangleIndexAt(p geo.Point2D) (int, float64, float64, float64, bool) {
	for i, tri := range t.triangles {
		if inside, u, v, w := t.triangleContains(tri, p); inside {
			return i, u, v, w, true
		}
	}
	return -1, 0, 0, 0, false
}

// HeightAt returns the interpolated terrain altitude at p, and whether p
// falls within the triangulated extent.
func (t *Terrain) HeightAt(p geo.Point2D) (float64, bool) {
	ti, u, v, w, ok := t.triangleIndexAt(p)
	if !ok {
		return 0, false
	}
	tri := t.triangles[ti]
	z := u*t.Vertices[tri.Verts[0]].Z + v*t.Vertices[tri.Verts[1]].Z + w*t.Vertices[tri.Verts[2]].Z
	return z, true
}

// Crossings walks the triangles crossed by segment (a, b) via neighbor
// links, starting from the triangle containing a, and returns one
// TerrainCrossing per triangle edge traversed, each with z linearly
// interpolated along that edge and t its parametric distance from a to b.
// If a point coincides with a vertex, a single crossing is emitted there
// rather than two near-duplicates; any remaining near-duplicate crossings
// are left for the caller's cut-profile assembly to merge (see
// cutprofile.mergeCoincident's parametric-distance tolerance).
func (t *Terrain) Crossings(a, b geo.Point2D) []TerrainCrossing {
	if len(t.triangles) == 0 {
		return nil
	}
	startTri, _, _, _, ok := t.triangleIndexAt(a)
	if !ok {
		return nil
	}
	abLen := a.Distance(b)
	if abLen < 1e-12 {
		return nil
	}

	var out []TerrainCrossing
	curTri := startTri
	prevT := 0.0
	visited := make(map[int]bool)
	for step := 0; step < len(t.triangles)+8; step++ {
		if curTri < 0 || visited[curTri] {
			break
		}
		visited[curTri] = true
		tri := t.triangles[curTri]

		bestT := math.Inf(1)
		bestSide := -1
		var bestPt geo.Point2D
		var bestEdgeT float64
		for k := 0; k < 3; k++ {
			v0 := tri.Verts[(k+1)%3]
			v1 := tri.Verts[(k+2)%3]
			p0 := t.vertex2D(v0)
			p1 := t.vertex2D(v1)
			pt, tParam, hit := geo.SegmentIntersect(a, b, p0, p1)
			if !hit || tParam <= prevT+1e-9 {
				continue
			}
			if tParam < bestT {
				bestT = tParam
				bestSide = k
				bestPt = pt
				_, bestEdgeT, _ = geo.SegmentIntersect(p0, p1, a, b)
			}
		}
		if bestSide < 0 || bestT > 1+1e-9 {
			break
		}

		v0 := tri.Verts[(bestSide+1)%3]
		v1 := tri.Verts[(bestSide+2)%3]
		z0, z1 := t.Vertices[v0].Z, t.Vertices[v1].Z
		z := z0 + (z1-z0)*bestEdgeT

		out = append(out, TerrainCrossing{Point: bestPt, Z: z, T: bestT})
		prevT = bestT

		if bestT >= 1-1e-9 {
			break
		}
		curTri = tri.Neighbor[bestSide]
	}
	return out
}
