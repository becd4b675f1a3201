// Package hull implements the two diffraction-path constructions that sit
// above the cut profile and the scene index: the horizontal-edge (roof)
// upper hull and the vertical-edge (side) iterative hull.
package hull

import (
	"math"

	"github.com/opennoise/raypath/pkg/cutprofile"
	"github.com/opennoise/raypath/pkg/geo"
)

// RoofEps is the altitude nudge applied when a DIFH point's (x,y) coincides
// with a building corner's top, to avoid clipping against the roof plane.
const RoofEps = 1e-3

// RoofPoint is one vertex of the horizontal-edge diffraction path: SOURCE,
// RECEIVER, or an intermediate DIFH apex.
type RoofPoint struct {
	Coordinate geo.Coordinate
	T          float64
	IsSource   bool
	IsReceiver bool
}

// profileSample pairs a (distance, altitude) projection with the CutPoint
// it came from, so the hull result can be mapped back to a RoofPoint.
type profileSample struct {
	pt2d geo.Point2D // X = parametric distance, Y = altitude
	src  cutprofile.CutPoint
}

// RoofDiffraction computes the upper convex hull of the cut profile
// (excluding GROUND_EFFECT points) in (distance, altitude) space and
// returns the resulting apex sequence including the SOURCE and RECEIVER
// endpoints. If the hull reduces to exactly {SOURCE, RECEIVER} the
// free-field path is implied and the caller should not emit a separate
// DIFH path.
func RoofDiffraction(cp *cutprofile.CutProfile) []RoofPoint {
	var samples []profileSample
	for _, p := range cp.Points {
		if p.Kind == cutprofile.KindGroundEffect {
			continue
		}
		samples = append(samples, profileSample{
			pt2d: geo.Pt(p.T, p.Coordinate.Z),
			src:  p,
		})
	}
	if len(samples) < 2 {
		return nil
	}

	pts := make([]geo.Point2D, len(samples))
	byPos := make(map[geo.Point2D]profileSample, len(samples))
	for i, s := range samples {
		pts[i] = s.pt2d
		byPos[s.pt2d] = s
	}

	hullPts := geo.UpperHull(pts)
	out := make([]RoofPoint, 0, len(hullPts))
	for _, hp := range hullPts {
		s, ok := byPos[hp]
		if !ok {
			// Numerically nudged duplicate X; fall back to nearest sample.
			s = nearestSample(samples, hp)
		}
		out = append(out, RoofPoint{
			Coordinate: s.src.Coordinate,
			T:          s.src.T,
			IsSource:   s.src.Kind == cutprofile.KindSource,
			IsReceiver: s.src.Kind == cutprofile.KindReceiver,
		})
	}
	return out
}

func nearestSample(samples []profileSample, target geo.Point2D) profileSample {
	best := samples[0]
	bestDist := math.Inf(1)
	for _, s := range samples {
		d := s.pt2d.Distance(target)
		if d < bestDist {
			bestDist = d
			best = s
		}
	}
	return best
}
