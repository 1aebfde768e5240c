package config

import (
	"fmt"
	"math"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/mdsim/internal/md"
)

const (
	DefaultDt          = 0.001
	DefaultSteps       = 10000
	DefaultTemperature = 1.5
	DefaultDensity     = 0.75
	DefaultParticles   = 1000
	DefaultCutoff      = 2.5
	DefaultResonance   = 5.0
	DefaultRate        = 10.0
)

type Config struct {
	Dimension int       `yaml:"dimension"`
	Particles int       `yaml:"particles"`
	Species   int       `yaml:"species"`
	Box       []float64 `yaml:"box"`
	Density   float64   `yaml:"density"`

	Potential  PotentialConfig  `yaml:"potential"`
	External   ExternalConfig   `yaml:"external"`
	Integrator IntegratorConfig `yaml:"integrator"`
	Neighbor   NeighborConfig   `yaml:"neighbor"`

	Steps          int     `yaml:"steps"`
	SampleInterval int     `yaml:"sample_interval"`
	SortInterval   int     `yaml:"sort_interval"`
	Temperature    float64 `yaml:"temperature"`
	Seed           int64   `yaml:"seed"`
}

type PotentialConfig struct {
	Type    string      `yaml:"type"`
	Epsilon [][]float64 `yaml:"epsilon"`
	Sigma   [][]float64 `yaml:"sigma"`
	RMin    [][]float64 `yaml:"r_min"`
	Index   [][]float64 `yaml:"index"`
	Cutoff  [][]float64 `yaml:"cutoff"`
	// Smoothing is the C2 smoothing scale h in units of the cutoff;
	// zero leaves the potential sharply truncated.
	Smoothing float64 `yaml:"smoothing"`
}

type ExternalConfig struct {
	Type    string      `yaml:"type"`
	Width   float64     `yaml:"width"`
	Offset  []float64   `yaml:"offset"`
	Normal  []float64   `yaml:"normal"`
	Epsilon [][]float64 `yaml:"epsilon"`
	Sigma   [][]float64 `yaml:"sigma"`
	Wetting [][]float64 `yaml:"wetting"`
}

type IntegratorConfig struct {
	Type          string  `yaml:"type"`
	Dt            float64 `yaml:"dt"`
	Temperature   float64 `yaml:"temperature"`
	Resonance     float64 `yaml:"resonance"`
	CollisionRate float64 `yaml:"collision_rate"`
}

type NeighborConfig struct {
	// Skin is the Verlet list margin; zero falls back to evaluating
	// all pairs every step.
	Skin     float64 `yaml:"skin"`
	AllPairs bool    `yaml:"all_pairs"`
}

func DefaultConfig() *Config {
	return &Config{
		Dimension: 3,
		Particles: DefaultParticles,
		Species:   1,
		Density:   DefaultDensity,
		Potential: PotentialConfig{
			Type:    "lennard_jones",
			Epsilon: [][]float64{{1.0}},
			Sigma:   [][]float64{{1.0}},
			Cutoff:  [][]float64{{DefaultCutoff}},
		},
		Integrator: IntegratorConfig{
			Type: "verlet",
			Dt:   DefaultDt,
		},
		Neighbor:       NeighborConfig{Skin: 0.5},
		Steps:          DefaultSteps,
		SampleInterval: 100,
		SortInterval:   100,
		Temperature:    DefaultTemperature,
		Seed:           42,
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	return cfg, cfg.Validate()
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Validate checks the fields no constructor downstream will see, plus
// the cross-field constraints. Parameter matrix shapes are left to the
// potential constructors.
func (c *Config) Validate() error {
	if c.Dimension != 2 && c.Dimension != 3 {
		return fmt.Errorf("dimension must be 2 or 3, got %d: %w", c.Dimension, md.ErrInvalidArgument)
	}
	if c.Particles <= 0 {
		return fmt.Errorf("particles must be positive, got %d: %w", c.Particles, md.ErrInvalidArgument)
	}
	if c.Species <= 0 {
		return fmt.Errorf("species must be positive, got %d: %w", c.Species, md.ErrInvalidArgument)
	}
	if len(c.Box) != 0 && len(c.Box) != c.Dimension {
		return fmt.Errorf("box has %d edges, want %d: %w", len(c.Box), c.Dimension, md.ErrInvalidArgument)
	}
	if len(c.Box) == 0 && c.Density <= 0 {
		return fmt.Errorf("either box edges or a positive density is required: %w", md.ErrInvalidArgument)
	}
	if c.Integrator.Dt <= 0 {
		return fmt.Errorf("dt must be positive, got %g: %w", c.Integrator.Dt, md.ErrInvalidArgument)
	}
	if c.Steps <= 0 {
		return fmt.Errorf("steps must be positive, got %d: %w", c.Steps, md.ErrInvalidArgument)
	}
	switch c.Integrator.Type {
	case "verlet", "euler":
	case "nose_hoover":
		if c.Integrator.Temperature <= 0 {
			return fmt.Errorf("nose_hoover needs a positive temperature: %w", md.ErrInvalidArgument)
		}
	case "andersen":
		if c.Integrator.Temperature <= 0 || c.Integrator.CollisionRate <= 0 {
			return fmt.Errorf("andersen needs a positive temperature and collision rate: %w", md.ErrInvalidArgument)
		}
	default:
		return fmt.Errorf("unknown integrator %q: %w", c.Integrator.Type, md.ErrInvalidArgument)
	}
	switch c.Potential.Type {
	case "lennard_jones", "morse", "power_law":
	default:
		return fmt.Errorf("unknown potential %q: %w", c.Potential.Type, md.ErrInvalidArgument)
	}
	switch c.External.Type {
	case "", "slit":
	default:
		return fmt.Errorf("unknown external potential %q: %w", c.External.Type, md.ErrInvalidArgument)
	}
	return nil
}

// Edges returns the box edge lengths, deriving a cube from the density
// when no explicit edges are configured.
func (c *Config) Edges() []float64 {
	if len(c.Box) == c.Dimension {
		return c.Box
	}
	l := cubeEdge(c.Particles, c.Density, c.Dimension)
	edges := make([]float64, c.Dimension)
	for i := range edges {
		edges[i] = l
	}
	return edges
}

func cubeEdge(n int, density float64, dim int) float64 {
	v := float64(n) / density
	if dim == 2 {
		return math.Sqrt(v)
	}
	return math.Cbrt(v)
}
