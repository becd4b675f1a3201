// Package config loads the closed pathfinder configuration parameter set
// from YAML, the same library and os.ReadFile -> yaml.Unmarshal shape as
// the teacher's pkg/spec.Load.
package config

import (
	"fmt"
	"os"
	"runtime"

	"gopkg.in/yaml.v3"
)

// Settings is the closed configuration parameter set.
type Settings struct {
	ReflexionOrder               int       `yaml:"reflexionOrder"`
	DiffractionOrder             int       `yaml:"diffractionOrder"`
	ComputeHorizontalDiffraction bool      `yaml:"computeHorizontalDiffraction"`
	ComputeVerticalDiffraction   bool      `yaml:"computeVerticalDiffraction"`
	MaxSrcDist                   float64   `yaml:"maxSrcDist"`
	MaxRefDist                   float64   `yaml:"maxRefDist"`
	MinRecDist                   float64   `yaml:"minRecDist"`
	GS                           float64   `yaml:"gS"`
	MaximumError                 float64   `yaml:"maximumError"`
	ThreadCount                  int       `yaml:"threadCount"`
	FreqLevels                   []float64 `yaml:"freq_lvl"`
	Temperature                  float64   `yaml:"temperature"`
	Pressure                     float64   `yaml:"pressure"`
	Humidity                     float64   `yaml:"humidity"`
	Celerity                     float64   `yaml:"celerity"`
	// Favourable is the caller-supplied meteorological downward-refraction
	// flag attached to every emitted path when no per-path override is
	// given.
	Favourable bool `yaml:"favourable"`
}

// defaults mirrors the teacher's routing.RouteInfrastructure post-unmarshal
// fill-in: every parameter the YAML omits gets a safe default rather than
// silently zero-valuing a field that means something different at zero.
func defaults() Settings {
	return Settings{
		ReflexionOrder:               0,
		DiffractionOrder:             1,
		ComputeHorizontalDiffraction: true,
		ComputeVerticalDiffraction:   true,
		MaxSrcDist:                   100,
		MaxRefDist:                   50,
		MinRecDist:                   1,
		GS:                           0,
		MaximumError:                 0,
		ThreadCount:                  runtime.NumCPU(),
		FreqLevels:                   []float64{63, 125, 250, 500, 1000, 2000, 4000, 8000},
		Temperature:                  15,
		Pressure:                     101325,
		Humidity:                     70,
		Celerity:                     340,
		Favourable:                   false,
	}
}

// Load reads pathfinder settings from a YAML file, applying defaults for
// every field the file omits.
func Load(path string) (*Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading settings file: %w", err)
	}

	s := defaults()
	raw := rawSettings{}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parsing settings YAML: %w", err)
	}
	raw.applyTo(&s)
	return &s, nil
}

// rawSettings mirrors Settings with pointer fields so Load can detect which
// keys were actually present in the YAML and apply defaults only to the
// rest, instead of yaml.v3's int/float zero-value ambiguity clobbering a
// deliberately-configured zero (e.g. reflexionOrder: 0 is a real value).
type rawSettings struct {
	ReflexionOrder               *int       `yaml:"reflexionOrder"`
	DiffractionOrder             *int       `yaml:"diffractionOrder"`
	ComputeHorizontalDiffraction *bool      `yaml:"computeHorizontalDiffraction"`
	ComputeVerticalDiffraction   *bool      `yaml:"computeVerticalDiffraction"`
	MaxSrcDist                   *float64   `yaml:"maxSrcDist"`
	MaxRefDist                   *float64   `yaml:"maxRefDist"`
	MinRecDist                   *float64   `yaml:"minRecDist"`
	GS                           *float64   `yaml:"gS"`
	MaximumError                 *float64   `yaml:"maximumError"`
	ThreadCount                  *int       `yaml:"threadCount"`
	FreqLevels                   []float64  `yaml:"freq_lvl"`
	Temperature                  *float64   `yaml:"temperature"`
	Pressure                     *float64   `yaml:"pressure"`
	Humidity                     *float64   `yaml:"humidity"`
	Celerity                     *float64   `yaml:"celerity"`
	Favourable                   *bool      `yaml:"favourable"`
}

func (r rawSettings) applyTo(s *Settings) {
	if r.ReflexionOrder != nil {
		s.ReflexionOrder = *r.ReflexionOrder
	}
	if r.DiffractionOrder != nil {
		s.DiffractionOrder = *r.DiffractionOrder
	}
	if r.ComputeHorizontalDiffraction != nil {
		s.ComputeHorizontalDiffraction = *r.ComputeHorizontalDiffraction
	}
	if r.ComputeVerticalDiffraction != nil {
		s.ComputeVerticalDiffraction = *r.ComputeVerticalDiffraction
	}
	if r.MaxSrcDist != nil {
		s.MaxSrcDist = *r.MaxSrcDist
	}
	if r.MaxRefDist != nil {
		s.MaxRefDist = *r.MaxRefDist
	}
	if r.MinRecDist != nil {
		s.MinRecDist = *r.MinRecDist
	}
	if r.GS != nil {
		s.GS = *r.GS
	}
	if r.MaximumError != nil {
		s.MaximumError = *r.MaximumError
	}
	if r.ThreadCount != nil {
		s.ThreadCount = *r.ThreadCount
	}
	if len(r.FreqLevels) > 0 {
		s.FreqLevels = r.FreqLevels
	}
	if r.Temperature != nil {
		s.Temperature = *r.Temperature
	}
	if r.Pressure != nil {
		s.Pressure = *r.Pressure
	}
	if r.Humidity != nil {
		s.Humidity = *r.Humidity
	}
	if r.Celerity != nil {
		s.Celerity = *r.Celerity
	}
	if r.Favourable != nil {
		s.Favourable = *r.Favourable
	}
}
