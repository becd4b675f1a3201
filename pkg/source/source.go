// Package source turns the scene's point and line sources near a receiver
// into the ordered, weighted list of equivalent point sources the path
// composer iterates: point sources pass through unchanged, line sources
// are split into points spaced by the receiver-distance-adaptive delta
// rule, and the whole set is sorted by descending weight so a caller can
// stop early once the remaining weight falls below a configured error
// bound.
package source

import (
	"math"
	"sort"

	"github.com/opennoise/raypath/pkg/geo"
	"github.com/opennoise/raypath/pkg/scene"
)

// EquivalentSource is one point-source contribution toward a receiver.
type EquivalentSource struct {
	SourceID string
	Position geo.Coordinate
	Li       float64 // line-density coefficient; 1 for point sources
	Weight   float64 // maximum power scaled by Li and geometric divergence
}

// minDivergenceDist floors the distance used in the inverse-square
// divergence weighting, so a source colocated with the receiver does not
// produce an infinite weight.
const minDivergenceDist = 0.1

// ForReceiver builds the descending-weight equivalent source list for one
// receiver: queries the scene's sources within maxSrcDist, includes point
// sources directly, and discretizes line/multi-line sources with spacing
// delta = max(1, d_rcv/2) where d_rcv is the 3D distance from the
// receiver to the nearest point of the line, starting the split at that
// projected nearest point.
func ForReceiver(sc *scene.Scene, rcv geo.Coordinate, maxSrcDist float64) []EquivalentSource {
	candidates := sc.SourcesNear(rcv.XY(), maxSrcDist)
	var out []EquivalentSource

	for _, s := range candidates {
		switch s.Kind {
		case scene.SourcePoint:
			d := s.Point.Distance3D(rcv)
			if d > maxSrcDist {
				continue
			}
			out = append(out, EquivalentSource{
				SourceID: s.ID,
				Position: s.Point,
				Li:       1,
				Weight:   divergenceWeight(s.MaxPower, 1, d),
			})
		case scene.SourceLineString, scene.SourceMultiLineString:
			out = append(out, discretizeLine(s, rcv, maxSrcDist)...)
		}
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].Weight > out[j].Weight })
	return out
}

// TotalWeight sums the weight of every equivalent source. A caller walking
// the descending-weight list returned by ForReceiver can track how much of
// this total remains unprocessed and stop early once that remainder, as a
// fraction of the total, falls below a configured error bound.
func TotalWeight(sources []EquivalentSource) float64 {
	total := 0.0
	for _, s := range sources {
		total += s.Weight
	}
	return total
}

func divergenceWeight(maxPower, li, dist float64) float64 {
	if dist < minDivergenceDist {
		dist = minDivergenceDist
	}
	return li * maxPower / (dist * dist)
}

// discretizeLine splits a line source into equivalent point sources spaced
// by delta = max(1, d_rcv/2), starting at the point on the line nearest
// the receiver and stepping outward in both directions along arc length.
func discretizeLine(s scene.Source, rcv geo.Coordinate, maxSrcDist float64) []EquivalentSource {
	if len(s.Line.Points) == 0 {
		return nil
	}
	nearestXY, d2D := s.Line.NearestPoint(rcv.XY())
	t0 := arcLengthFraction(s.Line, nearestXY)
	nearestZ := zAt(s, t0)
	dRcv := math.Hypot(d2D, rcv.Z-nearestZ)
	if dRcv > maxSrcDist {
		return nil
	}

	totalLen := s.Line.Length()
	if totalLen < 1e-9 {
		pos := s.Line.Points[0].WithZ(zAt(s, 0))
		return []EquivalentSource{{
			SourceID: s.ID, Position: pos, Li: 1,
			Weight: divergenceWeight(s.MaxPower, 1, pos.Distance3D(rcv)),
		}}
	}

	delta := math.Max(1, dRcv/2)
	deltaFrac := delta / totalLen

	var fracs []float64
	fracs = append(fracs, t0)
	for f := t0 - deltaFrac; f > 0; f -= deltaFrac {
		fracs = append(fracs, f)
	}
	for f := t0 + deltaFrac; f < 1; f += deltaFrac {
		fracs = append(fracs, f)
	}
	sort.Float64s(fracs)

	li := delta
	if len(fracs) > 1 {
		li = totalLen / float64(len(fracs))
	}

	out := make([]EquivalentSource, 0, len(fracs))
	for _, f := range fracs {
		pos2d := s.Line.PointAt(f)
		pos := pos2d.WithZ(zAt(s, f))
		dist := pos.Distance3D(rcv)
		out = append(out, EquivalentSource{
			SourceID: s.ID,
			Position: pos,
			Li:       li,
			Weight:   divergenceWeight(s.MaxPower, li, dist),
		})
	}
	return out
}

// arcLengthFraction returns the parametric fraction t such that
// pl.PointAt(t) is (approximately) target, by locating target's segment
// and walking the accumulated length up to it.
func arcLengthFraction(pl geo.Polyline, target geo.Point2D) float64 {
	total := pl.Length()
	if total < 1e-9 || len(pl.Points) < 2 {
		return 0
	}
	walked := 0.0
	best := 0.0
	bestDist := math.Inf(1)
	for i := 1; i < len(pl.Points); i++ {
		a, b := pl.Points[i-1], pl.Points[i]
		segLen := a.Distance(b)
		proj, dist := nearestOnSegmentFrac(target, a, b)
		if dist < bestDist {
			bestDist = dist
			best = (walked + proj*segLen) / total
		}
		walked += segLen
	}
	return best
}

func nearestOnSegmentFrac(p, a, b geo.Point2D) (float64, float64) {
	ab := b.Sub(a)
	abLen2 := ab.Dot(ab)
	if abLen2 < 1e-12 {
		return 0, p.Distance(a)
	}
	t := p.Sub(a).Dot(ab) / abLen2
	if t < 0 {
		t = 0
	}
	if t > 1 {
		t = 1
	}
	closest := a.Add(ab.Scale(t))
	return t, p.Distance(closest)
}

// zAt interpolates a line source's per-vertex altitude at parametric
// fraction t along its 2D arc length, mirroring geo.Polyline.PointAt's
// segment walk but lerping LineZ instead of horizontal position.
func zAt(s scene.Source, t float64) float64 {
	n := len(s.Line.Points)
	if n == 0 {
		return 0
	}
	if len(s.LineZ) != n {
		return 0
	}
	if n == 1 || t <= 0 {
		return s.LineZ[0]
	}
	if t >= 1 {
		return s.LineZ[n-1]
	}

	total := s.Line.Length()
	target := t * total
	walked := 0.0
	for i := 1; i < n; i++ {
		segLen := s.Line.Points[i-1].Distance(s.Line.Points[i])
		if walked+segLen >= target {
			frac := 0.0
			if segLen > 1e-12 {
				frac = (target - walked) / segLen
			}
			return s.LineZ[i-1] + (s.LineZ[i]-s.LineZ[i-1])*frac
		}
		walked += segLen
	}
	return s.LineZ[n-1]
}
