// Package cutprofile builds the ordered, classified intersection list
// along a 2D source-receiver segment from the raw index queries exposed
// by pkg/scene.
package cutprofile

import (
	"sort"

	"github.com/opennoise/raypath/pkg/geo"
	"github.com/opennoise/raypath/pkg/scene"
)

// Kind classifies a CutPoint.
type Kind string

const (
	KindSource       Kind = "SOURCE"
	KindReceiver     Kind = "RECEIVER"
	KindBuildingWall Kind = "BUILDING_WALL"
	KindTopography   Kind = "TOPOGRAPHY"
	KindGroundEffect Kind = "GROUND_EFFECT"
)

// coincidenceTolerance is the 2D merge epsilon for collapsing nearly
// coincident cut points.
const coincidenceTolerance = 1e-7

// CutPoint is one classified point along the probe segment.
type CutPoint struct {
	Kind       Kind
	Coordinate geo.Coordinate
	T          float64 // parametric distance from source, in [0,1]
	WallID     string  // set when Kind == KindBuildingWall
	BuildingID string  // set when Kind == KindBuildingWall
	GBefore    float64
	GAfter     float64
	HasGBefore bool
	HasGAfter  bool
}

// CutProfile is the ordered classified intersection list between a source
// and a receiver. Invariant: Points[0].Kind == SOURCE,
// Points[len-1].Kind == RECEIVER, sorted by T ascending.
type CutProfile struct {
	Source   geo.Coordinate
	Receiver geo.Coordinate
	Points   []CutPoint
}

// GetProfile builds the cut profile between a and b by merging wall, ground
// and terrain crossings from the scene index and sorting by parametric
// distance. gs is the ground factor attached to the
// source point.
func GetProfile(sc *scene.Scene, a, b geo.Coordinate, gs float64) *CutProfile {
	a2, b2 := a.XY(), b.XY()
	cp := &CutProfile{Source: a, Receiver: b}

	points := []CutPoint{{
		Kind: KindSource, Coordinate: a, T: 0,
		GAfter: gs, HasGAfter: true,
	}}

	for _, wh := range sc.WallsOnPath(a2, b2) {
		z := wh.Wall.TopZ
		points = append(points, CutPoint{
			Kind:       KindBuildingWall,
			Coordinate: wh.Point.WithZ(z),
			T:          wh.T,
			WallID:     wh.Wall.ID,
			BuildingID: wh.Wall.BuildingID,
		})
	}

	if sc.Terrain != nil {
		for _, tc := range sc.Terrain.Crossings(a2, b2) {
			points = append(points, CutPoint{
				Kind:       KindTopography,
				Coordinate: tc.Point.WithZ(tc.Z),
				T:          tc.T,
			})
		}
	}

	for _, gc := range sc.GroundCrossings(a2, b2) {
		z := a.Z + (b.Z-a.Z)*gc.T
		points = append(points, CutPoint{
			Kind:       KindGroundEffect,
			Coordinate: gc.Point.WithZ(z),
			T:          gc.T,
			GBefore:    gc.GBefore,
			GAfter:     gc.GAfter,
			HasGBefore: gc.HasGBefore,
			HasGAfter:  gc.HasGAfter,
		})
	}

	points = append(points, CutPoint{
		Kind: KindReceiver, Coordinate: b, T: 1,
	})

	sort.SliceStable(points, func(i, j int) bool { return points[i].T < points[j].T })
	cp.Points = mergeCoincident(points, a2.Distance(b2))
	return cp
}

// mergeCoincident merges CutPoints whose 2D positions lie within
// coincidenceTolerance of each other along the probe segment, keeping
// SOURCE/RECEIVER endpoints and preferring the more specific classification
// (a BUILDING_WALL point absorbs a coincident TOPOGRAPHY point at the same
// location, since a building edge running along a terrain break line is
// the wall's z, not the terrain's).
func mergeCoincident(points []CutPoint, segLen float64) []CutPoint {
	if len(points) == 0 || segLen < 1e-12 {
		return points
	}
	tTol := coincidenceTolerance / segLen

	out := make([]CutPoint, 0, len(points))
	i := 0
	for i < len(points) {
		j := i + 1
		best := points[i]
		for j < len(points) && points[j].T-points[i].T <= tTol {
			if rank(points[j].Kind) > rank(best.Kind) {
				best = points[j]
			}
			j++
		}
		out = append(out, best)
		i = j
	}
	return out
}

func rank(k Kind) int {
	switch k {
	case KindSource, KindReceiver:
		return 4
	case KindBuildingWall:
		return 3
	case KindTopography:
		return 2
	case KindGroundEffect:
		return 1
	default:
		return 0
	}
}

// IsFreeField reports whether profile cp contains no BUILDING_WALL point
// and every TOPOGRAPHY point lies at or below the source-receiver sight
// line z.
func (cp *CutProfile) IsFreeField() bool {
	for _, p := range cp.Points {
		if p.Kind == KindBuildingWall {
			return false
		}
		if p.Kind == KindTopography {
			sightZ := cp.Source.Z + (cp.Receiver.Z-cp.Source.Z)*p.T
			if p.Coordinate.Z > sightZ+1e-9 {
				return false
			}
		}
	}
	return true
}

// GroundFactor returns the 2D-length-weighted average ground factor along
// the profile between parametric positions t0 and t1 (t0 < t1), using the
// GROUND_EFFECT crossings recorded in the profile plus the source's
// initial gs. Pure function over the CutPoint sequence: no global state
// is touched.
func (cp *CutProfile) GroundFactor(t0, t1 float64) float64 {
	if t1 <= t0 {
		return 0
	}
	ambientG := 0.0
	if len(cp.Points) > 0 && cp.Points[0].HasGAfter {
		ambientG = cp.Points[0].GAfter
	}
	currentG := ambientG
	type span struct{ from, to, g float64 }
	var spans []span
	cursor := t0
	for _, p := range cp.Points {
		if p.Kind != KindGroundEffect {
			continue
		}
		if p.T <= t0 {
			if p.HasGAfter {
				currentG = p.GAfter
			} else if p.HasGBefore {
				currentG = ambientG
			}
			continue
		}
		if p.T >= t1 {
			break
		}
		spans = append(spans, span{from: cursor, to: p.T, g: currentG})
		cursor = p.T
		if p.HasGAfter {
			currentG = p.GAfter
		} else if p.HasGBefore {
			currentG = ambientG
		}
	}
	spans = append(spans, span{from: cursor, to: t1, g: currentG})

	total := 0.0
	weighted := 0.0
	for _, s := range spans {
		w := s.to - s.from
		if w <= 0 {
			continue
		}
		total += w
		weighted += w * s.g
	}
	if total <= 0 {
		return 0
	}
	return weighted / total
}
