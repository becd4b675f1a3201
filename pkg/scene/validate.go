package scene

import (
	"fmt"

	"github.com/opennoise/raypath/pkg/validation"
)

// Validate performs structural validation on a built scene: duplicate
// entity ids, degenerate wall segments, and buildings whose roof altitude
// is below the terrain beneath them. Grounded on the teacher's
// scene.ValidateGraph shape (one Report, one check function per concern,
// Level relabeled for this domain).
func (s *Scene) Validate() *validation.Report {
	r := validation.NewReport()
	validateBuildingIDs(s, r)
	validateWalls(s, r)
	validateRoofAboveTerrain(s, r)
	return r
}

func validateBuildingIDs(s *Scene, r *validation.Report) {
	seen := make(map[string]int, len(s.Buildings))
	for i, b := range s.Buildings {
		if b.ID == "" {
			r.AddError(validation.Result{
				Level:   validation.LevelScene,
				Message: fmt.Sprintf("building at index %d has empty id", i),
			})
			continue
		}
		if prev, ok := seen[b.ID]; ok {
			r.AddError(validation.Result{
				Level:    validation.LevelScene,
				Message:  fmt.Sprintf("duplicate building id %q at indices %d and %d", b.ID, prev, i),
				EntityID: b.ID,
			})
		}
		seen[b.ID] = i
	}
}

func validateWalls(s *Scene, r *validation.Report) {
	for _, w := range s.Walls {
		if w.Length() < 1e-9 {
			r.AddWarning(validation.Result{
				Level:       validation.LevelScene,
				Message:     fmt.Sprintf("wall %q on building %q is degenerate (near-zero length)", w.ID, w.BuildingID),
				EntityID:    w.ID,
				ActualValue: w.Length(),
				Expected:    "> 0",
			})
		}
	}
}

func validateRoofAboveTerrain(s *Scene, r *validation.Report) {
	if s.Terrain == nil {
		return
	}
	for _, b := range s.Buildings {
		centroid := b.Footprint.Centroid()
		z, ok := s.Terrain.HeightAt(centroid)
		if !ok {
			continue
		}
		if b.RoofZ < z {
			r.AddWarning(validation.Result{
				Level:       validation.LevelScene,
				Message:     fmt.Sprintf("building %q roof altitude %.3f is below terrain %.3f at its centroid", b.ID, b.RoofZ, z),
				EntityID:    b.ID,
				ActualValue: b.RoofZ,
				Expected:    fmt.Sprintf(">= %.3f", z),
			})
		}
	}
}
