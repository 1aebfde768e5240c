// Package setup assembles a ready-to-run simulation from a config: box,
// particles on a lattice, thermal velocities, potential, force
// contributors, integrator, and the derived observables.
package setup

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/san-kum/mdsim/internal/box"
	"github.com/san-kum/mdsim/internal/config"
	"github.com/san-kum/mdsim/internal/force"
	"github.com/san-kum/mdsim/internal/integrators"
	"github.com/san-kum/mdsim/internal/md"
	"github.com/san-kum/mdsim/internal/neighbor"
	"github.com/san-kum/mdsim/internal/numeric"
	"github.com/san-kum/mdsim/internal/observables"
	"github.com/san-kum/mdsim/internal/particle"
	"github.com/san-kum/mdsim/internal/potential"
	"github.com/san-kum/mdsim/internal/sim"
	"github.com/san-kum/mdsim/internal/sorter"
	"github.com/san-kum/mdsim/internal/velocity"
)

// Simulation bundles everything a driver needs for one run.
type Simulation[V numeric.Vector[V]] struct {
	Sys        *particle.System[V]
	Box        *box.Box[V]
	Integrator md.Integrator
	Clock      *observables.Clock
	Thermo     *observables.Thermodynamics[V]
	Sorter     *sorter.Hilbert[V]
	Runner     *sim.Runner[V]
}

// Build wires a simulation from the validated config. The vector type
// must match cfg.Dimension.
func Build[V numeric.Vector[V]](cfg *config.Config) (*Simulation[V], error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	var zero V
	if zero.Dim() != cfg.Dimension {
		return nil, fmt.Errorf("vector type is %d-dimensional, config wants %d: %w",
			zero.Dim(), cfg.Dimension, md.ErrInvalidArgument)
	}

	var length V
	for k, e := range cfg.Edges() {
		length = length.With(k, e)
	}
	bx, err := box.New(length)
	if err != nil {
		return nil, err
	}

	sys, err := particle.New[V](cfg.Particles, cfg.Species)
	if err != nil {
		return nil, err
	}
	assignSpecies(sys, cfg.Species)
	if err := Lattice(sys, bx); err != nil {
		return nil, err
	}

	rng := rand.New(rand.NewSource(cfg.Seed))
	if err := velocity.Boltzmann(sys, cfg.Temperature, rng); err != nil {
		return nil, err
	}

	pot, err := buildPotential(&cfg.Potential)
	if err != nil {
		return nil, err
	}

	var src neighbor.Source
	if cfg.Neighbor.AllPairs || cfg.Neighbor.Skin <= 0 {
		src = neighbor.NewAllPairs(sys.Len())
	} else {
		list, err := neighbor.NewList(sys, bx, potential.MaxRCut(pot), cfg.Neighbor.Skin)
		if err != nil {
			return nil, err
		}
		src = list
	}
	if _, err := force.NewPairwise[V, potential.Pair](sys, bx, pot, src); err != nil {
		return nil, err
	}

	if cfg.External.Type == "slit" {
		if err := buildSlit(sys, cfg); err != nil {
			return nil, err
		}
	}

	integ, err := buildIntegrator(sys, bx, &cfg.Integrator, rng)
	if err != nil {
		return nil, err
	}

	clock := &observables.Clock{}
	thermo := observables.NewThermodynamics(sys, bx, clock)

	s := &Simulation[V]{
		Sys:        sys,
		Box:        bx,
		Integrator: integ,
		Clock:      clock,
		Thermo:     thermo,
		Runner:     sim.New(sys, bx, integ, clock, thermo),
	}
	if cfg.SortInterval > 0 {
		s.Sorter = sorter.NewHilbert(sys, bx, cfg.SortInterval)
		s.Runner.SetSorter(s.Sorter)
	}
	return s, nil
}

func buildPotential(pc *config.PotentialConfig) (potential.Pair, error) {
	epsilon, err := numeric.MatrixFrom(pc.Epsilon)
	if err != nil {
		return nil, err
	}
	sigma, err := numeric.MatrixFrom(pc.Sigma)
	if err != nil {
		return nil, err
	}
	cutoff, err := numeric.MatrixFrom(pc.Cutoff)
	if err != nil {
		return nil, err
	}

	var pot potential.Pair
	switch pc.Type {
	case "lennard_jones":
		pot, err = potential.NewLennardJones(epsilon, sigma, cutoff)
	case "morse":
		var rMin *numeric.Matrix
		rMin, err = numeric.MatrixFrom(pc.RMin)
		if err != nil {
			return nil, err
		}
		pot, err = potential.NewMorse(epsilon, sigma, rMin, cutoff)
	case "power_law":
		var index *numeric.Matrix
		index, err = numeric.MatrixFrom(pc.Index)
		if err != nil {
			return nil, err
		}
		pot, err = potential.NewPowerLaw(epsilon, sigma, index, cutoff)
	default:
		return nil, fmt.Errorf("unknown potential %q: %w", pc.Type, md.ErrInvalidArgument)
	}
	if err != nil {
		return nil, err
	}

	if pc.Smoothing > 0 {
		return potential.NewSmooth(pot, pc.Smoothing)
	}
	return pot, nil
}

func buildSlit[V numeric.Vector[V]](sys *particle.System[V], cfg *config.Config) error {
	ec := &cfg.External
	if len(ec.Offset) != cfg.Dimension || len(ec.Normal) != cfg.Dimension {
		return fmt.Errorf("slit offset and normal must have %d components: %w",
			cfg.Dimension, md.ErrInvalidArgument)
	}
	var offset, normal V
	for k := 0; k < cfg.Dimension; k++ {
		offset = offset.With(k, ec.Offset[k])
		normal = normal.With(k, ec.Normal[k])
	}
	slit, err := potential.NewSlit(ec.Width, offset, normal, ec.Epsilon, ec.Sigma, ec.Wetting)
	if err != nil {
		return err
	}
	force.NewExternal[V](sys, slit)
	return nil
}

func buildIntegrator[V numeric.Vector[V]](sys *particle.System[V], bx *box.Box[V], ic *config.IntegratorConfig, rng *rand.Rand) (md.Integrator, error) {
	switch ic.Type {
	case "verlet":
		return integrators.NewVerlet(sys, bx, ic.Dt), nil
	case "euler":
		return integrators.NewEuler(sys, bx, ic.Dt), nil
	case "nose_hoover":
		resonance := ic.Resonance
		if resonance <= 0 {
			resonance = config.DefaultResonance
		}
		return integrators.NewNoseHoover(sys, bx, ic.Dt, ic.Temperature, resonance)
	case "andersen":
		return integrators.NewAndersen(sys, bx, ic.Dt, ic.Temperature, ic.CollisionRate, rng)
	default:
		return nil, fmt.Errorf("unknown integrator %q: %w", ic.Type, md.ErrInvalidArgument)
	}
}

func assignSpecies[V numeric.Vector[V]](sys *particle.System[V], nspecies int) {
	species := sys.MutableSpecies()
	n := len(species)
	for i := range species {
		species[i] = uint32(i * nspecies / n)
	}
	sys.MarkForceDirty()
	sys.MarkAuxDirty()
}

// Lattice places particles on a close-packed lattice filling the box:
// a face-centered cubic cell with 4 sites in 3 dimensions, a square cell
// with 2 sites in 2.
func Lattice[V numeric.Vector[V]](sys *particle.System[V], bx *box.Box[V]) error {
	var zero V
	dim := zero.Dim()
	n := sys.Len()
	l := bx.Length()

	sites := 2
	if dim == 3 {
		sites = 4
	}
	// smallest cell count whose lattice holds all particles
	m := int(math.Ceil(math.Pow(float64(n)/float64(sites), 1/float64(dim))))
	if m < 1 {
		m = 1
	}

	basis2 := [][]float64{{0.25, 0.25}, {0.75, 0.75}}
	basis3 := [][]float64{
		{0.25, 0.25, 0.25},
		{0.25, 0.75, 0.75},
		{0.75, 0.25, 0.75},
		{0.75, 0.75, 0.25},
	}
	basis := basis2
	if dim == 3 {
		basis = basis3
	}

	pos := sys.MutablePosition()
	img := sys.MutableImage()
	i := 0
fill:
	for cell := 0; cell < intPow(m, dim); cell++ {
		c := cell
		idx := make([]int, dim)
		for k := 0; k < dim; k++ {
			idx[k] = c % m
			c /= m
		}
		for _, b := range basis {
			if i == n {
				break fill
			}
			var r V
			for k := 0; k < dim; k++ {
				r = r.With(k, (float64(idx[k])+b[k])*l.At(k)/float64(m))
			}
			pos[i] = r
			img[i] = zero
			i++
		}
	}
	if i < n {
		return fmt.Errorf("lattice of %d cells holds %d particles, need %d: %w",
			intPow(m, dim), i, n, md.ErrInvalidArgument)
	}
	sys.MarkForceDirty()
	sys.MarkAuxDirty()
	return nil
}

func intPow(b, e int) int {
	r := 1
	for ; e > 0; e-- {
		r *= b
	}
	return r
}
