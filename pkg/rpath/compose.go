package rpath

import (
	"github.com/opennoise/raypath/pkg/config"
	"github.com/opennoise/raypath/pkg/cutprofile"
	"github.com/opennoise/raypath/pkg/geo"
	"github.com/opennoise/raypath/pkg/hull"
	"github.com/opennoise/raypath/pkg/mirror"
	"github.com/opennoise/raypath/pkg/scene"
	"github.com/opennoise/raypath/pkg/validation"
)

// Compose runs the full dispatcher for one source/receiver pair: direct
// path if free-field, else horizontal- and/or vertical-edge diffraction,
// plus reflection search when reflexionOrder > 0. All emitted paths carry
// srcID/rcvID and the favourable flag; paths with any point above its
// building's roof or below terrain are discarded.
func Compose(sc *scene.Scene, s *config.Settings, srcID string, src geo.Coordinate, rcvID string, rcv geo.Coordinate) ([]PropagationPath, *validation.Report) {
	report := validation.NewReport()
	var paths []PropagationPath

	if !sc.InEnvelope(src.XY()) || !sc.InEnvelope(rcv.XY()) {
		report.AddInfo(validation.Result{
			Level:    validation.LevelQuery,
			Message:  "source or receiver outside the scene envelope",
			EntityID: rcvID,
		})
		return nil, report
	}

	cp := cutprofile.GetProfile(sc, src, rcv, s.GS)

	if cp.IsFreeField() {
		p := directPath(srcID, src, rcvID, rcv, cp, s.Favourable)
		if keepPath(sc, p) {
			paths = append(paths, p)
		}
	} else {
		if s.ComputeHorizontalDiffraction {
			if p, ok := roofPath(srcID, src, rcvID, rcv, cp, s.Favourable); ok {
				if keepPath(sc, p) {
					paths = append(paths, p)
				} else {
					report.AddWarning(validation.Result{
						Level:   validation.LevelDiffraction,
						Message: "roof diffraction path discarded: point above roof or below terrain",
					})
				}
			}
		}
		if s.ComputeVerticalDiffraction {
			left, right, ok := hull.SideHull(sc, src, rcv)
			if !ok {
				report.AddInfo(validation.Result{
					Level:   validation.LevelDiffraction,
					Message: "side hull did not converge or no buildings intersect the sight line",
				})
			} else {
				for _, side := range [][]hull.SidePoint{left, right} {
					p, ok := sidePath(srcID, src, rcvID, rcv, side, s.Favourable)
					if !ok {
						continue
					}
					if keepPath(sc, p) {
						paths = append(paths, p)
					}
				}
			}
		}
	}

	if s.ReflexionOrder > 0 {
		chains := mirror.Search(sc, src, rcv, s.ReflexionOrder, s.MaxSrcDist, s.MaxRefDist)
		for _, chain := range chains {
			p := reflectionPath(sc, srcID, src, rcvID, rcv, chain, s.Favourable)
			if keepPath(sc, p) {
				paths = append(paths, p)
			}
		}
	}

	return paths, report
}

func directPath(srcID string, src geo.Coordinate, rcvID string, rcv geo.Coordinate, cp *cutprofile.CutProfile, favourable bool) PropagationPath {
	points := []PointPath{
		{Kind: KindSource, Coordinate: src},
		{Kind: KindReceiver, Coordinate: rcv},
	}
	g := cp.GroundFactor(0, 1)
	segs := buildSegments(points, func(int, int) float64 { return g })
	return PropagationPath{SourceID: srcID, ReceiverID: rcvID, Favourable: favourable, Points: points, Segments: segs}
}

func roofPath(srcID string, src geo.Coordinate, rcvID string, rcv geo.Coordinate, cp *cutprofile.CutProfile, favourable bool) (PropagationPath, bool) {
	apex := hull.RoofDiffraction(cp)
	if len(apex) < 2 {
		return PropagationPath{}, false
	}
	if len(apex) == 2 {
		// Hull reduced to {SOURCE, RECEIVER}: this is the free-field path,
		// already handled by the direct branch.
		return PropagationPath{}, false
	}

	points := make([]PointPath, len(apex))
	for i, a := range apex {
		kind := KindDiffHoriz
		coord := a.Coordinate
		if a.IsSource {
			kind = KindSource
		} else if a.IsReceiver {
			kind = KindReceiver
		} else {
			coord.Z += hull.RoofEps
		}
		points[i] = PointPath{Kind: kind, Coordinate: coord}
	}

	segs := buildSegments(points, func(i, j int) float64 {
		return cp.GroundFactor(apex[i].T, apex[j].T)
	})
	return PropagationPath{SourceID: srcID, ReceiverID: rcvID, Favourable: favourable, Points: points, Segments: segs}, true
}

func sidePath(srcID string, src geo.Coordinate, rcvID string, rcv geo.Coordinate, side []hull.SidePoint, favourable bool) (PropagationPath, bool) {
	if len(side) < 2 {
		return PropagationPath{}, false
	}
	points := make([]PointPath, len(side))
	for i, sp := range side {
		kind := KindDiffVert
		if i == 0 {
			kind = KindSource
		} else if i == len(side)-1 {
			kind = KindReceiver
		} else if sp.Coordinate.Z < 0 {
			return PropagationPath{}, false
		}
		points[i] = PointPath{Kind: kind, Coordinate: sp.Coordinate, BuildingID: sp.BuildingID}
	}
	segs := buildSegments(points, nil)
	return PropagationPath{SourceID: srcID, ReceiverID: rcvID, Favourable: favourable, Points: points, Segments: segs}, true
}

func reflectionPath(sc *scene.Scene, srcID string, src geo.Coordinate, rcvID string, rcv geo.Coordinate, chain []mirror.ReflectionPoint, favourable bool) PropagationPath {
	points := []PointPath{{Kind: KindSource, Coordinate: src}}
	var segG []float64

	prev := src
	for _, r := range chain {
		bldg, _ := sc.BuildingByID(r.BuildingID)
		reflPoint := PointPath{
			Kind: KindReflection, Coordinate: r.Position,
			BuildingID: r.BuildingID, WallID: r.WallID, Absorption: bldg.Absorption,
		}
		appendLegSegments(sc, &points, &segG, prev, reflPoint)
		prev = r.Position
	}
	appendLegSegments(sc, &points, &segG, prev, PointPath{Kind: KindReceiver, Coordinate: rcv})

	segs := buildSegments(points, func(i, j int) float64 { return segG[i] })
	return PropagationPath{SourceID: srcID, ReceiverID: rcvID, Favourable: favourable, Points: points, Segments: segs}
}

// appendLegSegments appends the sub-path between a and the next chain
// point (end) to points/segG: a direct sub-segment when the leg's cut
// profile is free-field, otherwise the leg's horizontal-edge diffraction
// apexes (matching roofPath's RoofEps nudge) followed by end. Matches
// legsResolvable's acceptance of legs that are diffractable-but-not-free-
// field by actually inserting the DIFH sub-path instead of treating the
// leg as a single bare segment.
func appendLegSegments(sc *scene.Scene, points *[]PointPath, segG *[]float64, a geo.Coordinate, end PointPath) {
	cp := cutprofile.GetProfile(sc, a, end.Coordinate, 0)
	if cp.IsFreeField() {
		*points = append(*points, end)
		*segG = append(*segG, cp.GroundFactor(0, 1))
		return
	}

	apex := hull.RoofDiffraction(cp)
	if len(apex) < 3 {
		*points = append(*points, end)
		*segG = append(*segG, cp.GroundFactor(0, 1))
		return
	}

	prevT := apex[0].T
	for _, ap := range apex[1 : len(apex)-1] {
		coord := ap.Coordinate
		coord.Z += hull.RoofEps
		*points = append(*points, PointPath{Kind: KindDiffHoriz, Coordinate: coord})
		*segG = append(*segG, cp.GroundFactor(prevT, ap.T))
		prevT = ap.T
	}
	*points = append(*points, end)
	*segG = append(*segG, cp.GroundFactor(prevT, apex[len(apex)-1].T))
}

// keepPath enforces the discard rule: every point's z must lie at or
// below the roof of its building id (when it carries one) and at or above
// terrain at its (x, y).
func keepPath(sc *scene.Scene, p PropagationPath) bool {
	for _, pt := range p.Points {
		if pt.BuildingID != "" {
			if roofZ, ok := sc.BuildingRoofZ(pt.BuildingID); ok && pt.Coordinate.Z > roofZ+1e-6 {
				return false
			}
		}
		if z, ok := sc.HeightAtPosition(pt.Coordinate.XY()); ok && pt.Coordinate.Z < z-1e-6 {
			return false
		}
	}
	return true
}
