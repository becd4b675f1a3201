// Package sceneio loads a pathfinder project directory from YAML, the
// same os.ReadFile -> yaml.Unmarshal shape as pkg/config.Load and the
// teacher's pkg/spec.LoadProject, and assembles it into a scene.Scene
// through scene.Builder.
package sceneio

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/opennoise/raypath/pkg/geo"
	"github.com/opennoise/raypath/pkg/scene"
	"github.com/opennoise/raypath/pkg/validation"
)

// sceneFile is the on-disk YAML shape for a project's scene.yaml.
type sceneFile struct {
	Buildings     []buildingFile `yaml:"buildings"`
	GroundRegions []groundFile   `yaml:"ground_regions"`
	Sources       []sourceFile   `yaml:"sources"`
	Receivers     []receiverFile `yaml:"receivers"`
	Terrain       []vertexFile   `yaml:"terrain"`
	// Envelope optionally bounds the area sources/receivers must fall
	// within; omitted or fewer than 3 vertices disables the bound.
	Envelope []pointFile `yaml:"envelope"`
}

type buildingFile struct {
	ID         string      `yaml:"id"`
	Footprint  []pointFile `yaml:"footprint"`
	RoofZ      float64     `yaml:"roof_z"`
	Absorption []float64   `yaml:"absorption"`
}

type groundFile struct {
	ID        string      `yaml:"id"`
	Footprint []pointFile `yaml:"footprint"`
	G         float64     `yaml:"g"`
}

type sourceFile struct {
	ID       string      `yaml:"id"`
	Kind     string      `yaml:"kind"` // "point", "line_string", "multi_line_string"
	Point    *vertexFile `yaml:"point"`
	Line     []pointFile `yaml:"line"`
	LineZ    []float64   `yaml:"line_z"`
	MaxPower float64     `yaml:"max_power"`
}

type receiverFile struct {
	ID       string     `yaml:"id"`
	Position vertexFile `yaml:"position"`
}

type pointFile struct {
	X float64 `yaml:"x"`
	Y float64 `yaml:"y"`
}

type vertexFile struct {
	X float64 `yaml:"x"`
	Y float64 `yaml:"y"`
	Z float64 `yaml:"z"`
}

// Project is a fully ingested scene plus the separate list of query
// receivers (receivers are not scene geometry; they are never indexed by
// the scene's R-trees).
type Project struct {
	Scene     *scene.Scene
	Receivers []scene.Receiver
}

// Load reads scene.yaml from dir and assembles a Project, merging the
// builder's own ingestion findings (degenerate footprints, etc.) into the
// returned report.
func Load(dir string) (*Project, *validation.Report, error) {
	path := filepath.Join(dir, "scene.yaml")
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("reading scene file: %w", err)
	}

	var raw sceneFile
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, nil, fmt.Errorf("parsing scene YAML: %w", err)
	}

	b := scene.NewBuilder()

	for _, bf := range raw.Buildings {
		b.AddBuilding(bf.ID, toPolygon(bf.Footprint), bf.RoofZ, bf.Absorption)
	}
	for _, gf := range raw.GroundRegions {
		b.AddGroundRegion(gf.ID, toPolygon(gf.Footprint), gf.G)
	}
	for _, sf := range raw.Sources {
		switch sf.Kind {
		case "", "point":
			if sf.Point == nil {
				return nil, nil, fmt.Errorf("source %q: kind point requires a point", sf.ID)
			}
			b.AddPointSource(sf.ID, geo.Coordinate{X: sf.Point.X, Y: sf.Point.Y, Z: sf.Point.Z}, sf.MaxPower)
		case "line_string", "multi_line_string":
			b.AddLineSource(sf.ID, scene.SourceKind(sf.Kind), toPolyline(sf.Line), sf.LineZ, sf.MaxPower)
		default:
			return nil, nil, fmt.Errorf("source %q: unknown kind %q", sf.ID, sf.Kind)
		}
	}
	if len(raw.Terrain) > 0 {
		verts := make([]scene.TerrainVertex, len(raw.Terrain))
		for i, v := range raw.Terrain {
			verts[i] = scene.TerrainVertex{Coordinate: geo.Coordinate{X: v.X, Y: v.Y, Z: v.Z}}
		}
		b.SetTerrain(scene.BuildTerrain(verts))
	}

	sc, report := b.Finish(toPolygon(raw.Envelope))

	receivers := make([]scene.Receiver, len(raw.Receivers))
	for i, rf := range raw.Receivers {
		receivers[i] = scene.Receiver{
			ID:       rf.ID,
			Position: geo.Coordinate{X: rf.Position.X, Y: rf.Position.Y, Z: rf.Position.Z},
		}
	}

	return &Project{Scene: sc, Receivers: receivers}, report, nil
}

func toPolygon(pts []pointFile) geo.Polygon {
	out := make([]geo.Point2D, len(pts))
	for i, p := range pts {
		out[i] = geo.Point2D{X: p.X, Y: p.Y}
	}
	return geo.NewPolygon(out...)
}

func toPolyline(pts []pointFile) geo.Polyline {
	out := make([]geo.Point2D, len(pts))
	for i, p := range pts {
		out[i] = geo.Point2D{X: p.X, Y: p.Y}
	}
	return geo.NewPolyline(out...)
}
