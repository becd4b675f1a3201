package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/opennoise/raypath/internal/logging"
	"github.com/opennoise/raypath/internal/server"
	"github.com/opennoise/raypath/pkg/config"
	"github.com/opennoise/raypath/pkg/metrics"
	"github.com/opennoise/raypath/pkg/rpath"
	"github.com/opennoise/raypath/pkg/sceneio"
	"github.com/opennoise/raypath/pkg/scheduler"
	"github.com/opennoise/raypath/pkg/sink"
	"github.com/opennoise/raypath/pkg/source"
	"github.com/opennoise/raypath/pkg/validation"
)

// loaded bundles everything a project load produces: the assembled scene
// and its receivers, the closed settings, and the merged ingestion +
// structural validation report.
type loaded struct {
	proj   *sceneio.Project
	s      *config.Settings
	report *validation.Report
}

// loadAndValidate reads scene.yaml and config.yaml from projectPath and
// runs scene-structural validation, mirroring the teacher's
// loadAndValidate(projectPath) shape: one helper both the validate and
// compute commands share.
func loadAndValidate(projectPath string) (*loaded, error) {
	proj, ingestReport, err := sceneio.Load(projectPath)
	if err != nil {
		return nil, fmt.Errorf("loading scene: %w", err)
	}

	settings, err := config.Load(projectPath + "/config.yaml")
	if err != nil {
		return nil, fmt.Errorf("loading settings: %w", err)
	}

	report := proj.Scene.Validate()
	report.Merge(ingestReport)

	return &loaded{proj: proj, s: settings, report: report}, nil
}

func runValidate(projectPath string) error {
	ld, err := loadAndValidate(projectPath)
	if err != nil {
		return err
	}
	printValidationReport(ld.report)
	if !ld.report.Valid {
		os.Exit(1)
	}
	return nil
}

// runCompute runs the full pathfinder over every receiver in the project
// and prints the accumulated per-band levels each receiver finalized to.
func runCompute(projectPath string, workers int) error {
	ld, err := loadAndValidate(projectPath)
	if err != nil {
		return err
	}
	if !ld.report.Valid {
		printValidationReport(ld.report)
		return fmt.Errorf("scene has validation errors; fix before computing")
	}

	if workers <= 0 {
		workers = ld.s.ThreadCount
	}

	bandCount := len(ld.s.FreqLevels)
	if bandCount == 0 {
		bandCount = 1
	}
	memSink := sink.NewMemorySink(bandCount)

	receivers := ld.proj.Receivers
	sc := ld.proj.Scene
	s := ld.s

	err = scheduler.Run(context.Background(), len(receivers), workers, memSink,
		func(ctx context.Context, idx int, batchSink sink.Sink) error {
			rcv := receivers[idx]
			start := time.Now()

			equivSources := source.ForReceiver(sc, rcv.Position, s.MaxSrcDist)
			totalWeight := source.TotalWeight(equivSources)
			cumWeight := 0.0
			for _, eq := range equivSources {
				if err := ctx.Err(); err != nil {
					return err
				}
				if s.MaximumError > 0 && totalWeight > 0 {
					remaining := totalWeight - cumWeight
					if remaining/totalWeight < s.MaximumError {
						break
					}
				}
				cumWeight += eq.Weight
				if rcv.Position.Distance3D(eq.Position) < s.MinRecDist {
					continue
				}
				paths, compReport := rpath.Compose(sc, s, eq.SourceID, eq.Position, rcv.ID, rcv.Position)
				for _, p := range paths {
					metrics.PathsEmittedTotal.WithLabelValues(pathKind(p)).Inc()
				}
				for _, w := range compReport.Warnings {
					metrics.ValidationWarningsTotal.WithLabelValues(string(w.Level)).Inc()
				}
				if len(paths) > 0 {
					if _, err := batchSink.AddPropagationPaths(eq.SourceID, eq.Li, rcv.ID, paths); err != nil {
						return fmt.Errorf("receiver %s: %w", rcv.ID, err)
					}
				}
			}
			if err := batchSink.FinalizeReceiver(rcv.ID); err != nil {
				return fmt.Errorf("receiver %s: %w", rcv.ID, err)
			}

			metrics.ReceiverDurationMs.Observe(float64(time.Since(start).Milliseconds()))
			metrics.ReceiversProcessedTotal.Inc()
			return nil
		})
	if err != nil {
		return fmt.Errorf("computing paths: %w", err)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(memSink.Results())
}

func runServe(projectPath string, addr string) error {
	ld, err := loadAndValidate(projectPath)
	if err != nil {
		return err
	}

	srv := server.New(addr)
	srv.SetReport(ld.report)

	logging.L().Info("serving project", "path", projectPath, "buildings", len(ld.proj.Scene.Buildings), "receivers", len(ld.proj.Receivers))
	return srv.Start()
}

func pathKind(p rpath.PropagationPath) string {
	hasReflection, hasDiffHoriz, hasDiffVert := false, false, false
	for _, pt := range p.Points {
		switch pt.Kind {
		case rpath.KindReflection:
			hasReflection = true
		case rpath.KindDiffHoriz:
			hasDiffHoriz = true
		case rpath.KindDiffVert:
			hasDiffVert = true
		}
	}
	switch {
	case hasReflection:
		return "reflection"
	case hasDiffHoriz:
		return "diffh"
	case hasDiffVert:
		return "difv"
	default:
		return "direct"
	}
}

func printValidationReport(r *validation.Report) {
	if len(r.Errors) > 0 {
		fmt.Printf("ERRORS (%d):\n", len(r.Errors))
		for _, e := range r.Errors {
			fmt.Printf("  [%s] %s\n", e.Level, e.Message)
			if e.EntityID != "" {
				fmt.Printf("    entity: %s\n", e.EntityID)
			}
		}
		fmt.Println()
	}
	if len(r.Warnings) > 0 {
		fmt.Printf("WARNINGS (%d):\n", len(r.Warnings))
		for _, w := range r.Warnings {
			fmt.Printf("  [%s] %s\n", w.Level, w.Message)
		}
		fmt.Println()
	}
	if len(r.Info) > 0 {
		fmt.Printf("INFO (%d):\n", len(r.Info))
		for _, i := range r.Info {
			fmt.Printf("  [%s] %s\n", i.Level, i.Message)
		}
		fmt.Println()
	}
	if r.Valid {
		fmt.Printf("Result: VALID (%s)\n", r.Summary)
	} else {
		fmt.Printf("Result: INVALID (%s)\n", r.Summary)
	}
}
