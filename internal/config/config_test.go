package config

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/san-kum/mdsim/internal/md"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	if cfg.Integrator.Dt <= 0 {
		t.Error("dt should be positive")
	}
	if cfg.Steps <= 0 {
		t.Error("steps should be positive")
	}
}

func TestValidate_Errors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"bad dimension", func(c *Config) { c.Dimension = 4 }},
		{"no particles", func(c *Config) { c.Particles = 0 }},
		{"no species", func(c *Config) { c.Species = 0 }},
		{"box edge count", func(c *Config) { c.Box = []float64{10, 10} }},
		{"no box no density", func(c *Config) { c.Box = nil; c.Density = 0 }},
		{"bad dt", func(c *Config) { c.Integrator.Dt = 0 }},
		{"unknown integrator", func(c *Config) { c.Integrator.Type = "leapfrog" }},
		{"thermostat without temperature", func(c *Config) { c.Integrator.Type = "nose_hoover" }},
		{"unknown potential", func(c *Config) { c.Potential.Type = "yukawa" }},
		{"unknown external", func(c *Config) { c.External.Type = "gravity" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if !errors.Is(err, md.ErrInvalidArgument) {
				t.Errorf("expected ErrInvalidArgument, got %v", err)
			}
		})
	}
}

func TestEdges_FromDensity(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Dimension = 2
	cfg.Particles = 300
	cfg.Density = 0.75
	cfg.Box = nil

	edges := cfg.Edges()
	if len(edges) != 2 {
		t.Fatalf("expected 2 edges, got %d", len(edges))
	}
	want := math.Sqrt(300 / 0.75)
	if math.Abs(edges[0]-want) > 1e-12 || edges[0] != edges[1] {
		t.Errorf("expected square box of edge %g, got %v", want, edges)
	}
}

func TestLoadSave_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.yaml")

	cfg := GetPreset("binary", "kob_andersen")
	if err := Save(path, cfg); err != nil {
		t.Fatalf("save: %v", err)
	}

	got, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got.Species != 2 {
		t.Errorf("expected 2 species, got %d", got.Species)
	}
	if got.Potential.Epsilon[0][1] != 1.5 {
		t.Errorf("expected cross epsilon 1.5, got %g", got.Potential.Epsilon[0][1])
	}
	if got.Integrator.Type != "nose_hoover" {
		t.Errorf("expected nose_hoover, got %s", got.Integrator.Type)
	}
}

func TestLoad_MergesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "partial.yaml")
	partial := "dimension: 2\nparticles: 64\nintegrator:\n  type: verlet\n  dt: 0.005\n"
	if err := os.WriteFile(path, []byte(partial), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Particles != 64 || cfg.Integrator.Dt != 0.005 {
		t.Error("explicit fields not applied")
	}
	if cfg.Potential.Type != "lennard_jones" {
		t.Errorf("default potential lost, got %q", cfg.Potential.Type)
	}
}

func TestGetPreset(t *testing.T) {
	cfg := GetPreset("lennard_jones", "liquid")
	if cfg == nil {
		t.Fatal("expected preset, got nil")
	}
	if cfg.Density != 0.8442 {
		t.Errorf("expected density 0.8442, got %g", cfg.Density)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("preset invalid: %v", err)
	}
}

func TestGetPreset_NotFound(t *testing.T) {
	if GetPreset("lennard_jones", "nonexistent") != nil {
		t.Error("expected nil for nonexistent preset")
	}
	if GetPreset("nonexistent", "liquid") != nil {
		t.Error("expected nil for nonexistent family")
	}
}

func TestListPresets(t *testing.T) {
	if len(ListPresets("lennard_jones")) == 0 {
		t.Error("expected presets for lennard_jones")
	}
	if ListPresets("nonexistent") != nil {
		t.Error("expected nil for nonexistent family")
	}
}

func TestAllPresetsValid(t *testing.T) {
	for family, presets := range Presets {
		for name, cfg := range presets {
			if err := cfg.Validate(); err != nil {
				t.Errorf("preset %s/%s invalid: %v", family, name, err)
			}
		}
	}
}
