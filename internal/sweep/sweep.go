// Package sweep runs a grid of state points off one base config, e.g. a
// temperature scan along an isochore, and collects the equilibrium
// averages of each run.
package sweep

import (
	"context"
	"fmt"

	"github.com/san-kum/mdsim/internal/config"
	"github.com/san-kum/mdsim/internal/md"
	"github.com/san-kum/mdsim/internal/numeric"
	"github.com/san-kum/mdsim/internal/setup"
	"github.com/san-kum/mdsim/internal/sim"
)

// Axis is one swept parameter.
type Axis struct {
	Name   string
	Values []float64
}

// Point is the outcome of one grid cell: the swept parameters and the
// observable averages over the second half of the run, where the system
// has had time to equilibrate.
type Point struct {
	Params      map[string]float64
	Temperature float64
	Pressure    float64
	EnPot       float64
	EnergyDrift float64
}

// Run executes every grid combination sequentially and in grid order.
// A failed state point aborts the sweep with the points finished so far.
func Run(ctx context.Context, base *config.Config, axes []Axis) ([]Point, error) {
	if len(axes) == 0 {
		return nil, fmt.Errorf("sweep needs at least one axis: %w", md.ErrInvalidArgument)
	}
	for _, ax := range axes {
		if len(ax.Values) == 0 {
			return nil, fmt.Errorf("sweep axis %q has no values: %w", ax.Name, md.ErrInvalidArgument)
		}
	}

	var points []Point
	grid := make([]int, len(axes))
	for {
		cfg := *base
		params := make(map[string]float64, len(axes))
		for k, ax := range axes {
			v := ax.Values[grid[k]]
			params[ax.Name] = v
			if err := apply(&cfg, ax.Name, v); err != nil {
				return points, err
			}
		}

		p, err := runPoint(ctx, &cfg)
		if err != nil {
			return points, fmt.Errorf("state point %v: %w", params, err)
		}
		p.Params = params
		points = append(points, p)

		// advance the grid odometer
		k := 0
		for ; k < len(axes); k++ {
			grid[k]++
			if grid[k] < len(axes[k].Values) {
				break
			}
			grid[k] = 0
		}
		if k == len(axes) {
			return points, nil
		}
	}
}

func apply(cfg *config.Config, name string, v float64) error {
	switch name {
	case "temperature":
		cfg.Temperature = v
		if cfg.Integrator.Temperature > 0 {
			cfg.Integrator.Temperature = v
		}
	case "density":
		cfg.Box = nil
		cfg.Density = v
	case "dt":
		cfg.Integrator.Dt = v
	default:
		return fmt.Errorf("unknown sweep parameter %q: %w", name, md.ErrInvalidArgument)
	}
	return nil
}

func runPoint(ctx context.Context, cfg *config.Config) (Point, error) {
	if cfg.Dimension == 2 {
		return runPointDim[numeric.Vec2](ctx, cfg)
	}
	return runPointDim[numeric.Vec3](ctx, cfg)
}

func runPointDim[V numeric.Vector[V]](ctx context.Context, cfg *config.Config) (Point, error) {
	s, err := setup.Build[V](cfg)
	if err != nil {
		return Point{}, err
	}
	result, err := s.Runner.Run(ctx, sim.Config{
		Steps:          cfg.Steps,
		SampleInterval: cfg.SampleInterval,
		SortInterval:   cfg.SortInterval,
	})
	if err != nil {
		return Point{}, err
	}

	tail := result.Samples[len(result.Samples)/2:]
	if len(tail) == 0 {
		return Point{}, fmt.Errorf("state point produced no samples: %w", md.ErrInvalidArgument)
	}
	var temp, press, enPot numeric.DSFloat
	for _, smp := range tail {
		temp = temp.Add(smp.Temperature)
		press = press.Add(smp.Pressure)
		enPot = enPot.Add(smp.EnPot)
	}
	n := float64(len(tail))
	return Point{
		Temperature: temp.Value() / n,
		Pressure:    press.Value() / n,
		EnPot:       enPot.Value() / n,
		EnergyDrift: result.EnergyDrift,
	}, nil
}
