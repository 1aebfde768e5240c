// Package velocity initializes particle velocities.
package velocity

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/san-kum/mdsim/internal/md"
	"github.com/san-kum/mdsim/internal/numeric"
	"github.com/san-kum/mdsim/internal/particle"
)

// Boltzmann assigns Maxwell-Boltzmann velocities at the given temperature,
// shifts them to zero centre-of-mass momentum and rescales to the exact
// target temperature, so short runs do not start with a thermal offset
// from the finite sample.
func Boltzmann[V numeric.Vector[V]](sys *particle.System[V], temperature float64, rng *rand.Rand) error {
	if temperature <= 0 {
		return fmt.Errorf("temperature %g, must be positive: %w",
			temperature, md.ErrInvalidArgument)
	}

	v := sys.MutableVelocity()
	mass := sys.Mass()

	for i := range v {
		sigma := math.Sqrt(temperature / mass[i])
		var vi V
		for d := 0; d < vi.Dim(); d++ {
			vi = vi.With(d, sigma*rng.NormFloat64())
		}
		v[i] = vi
	}

	// shift to zero net momentum
	var p V
	m := 0.0
	for i := range v {
		p = p.Add(v[i].Scale(mass[i]))
		m += mass[i]
	}
	vcm := p.Scale(1 / m)
	for i := range v {
		v[i] = v[i].Sub(vcm)
	}

	// rescale to the exact temperature
	var mv2 numeric.DSFloat
	for i := range v {
		mv2 = mv2.Add(mass[i] * v[i].Dot(v[i]))
	}
	var zero V
	dim := float64(zero.Dim())
	current := mv2.Value() / (dim * float64(sys.Len()))
	if current > 0 {
		scale := math.Sqrt(temperature / current)
		for i := range v {
			v[i] = v[i].Scale(scale)
		}
	}
	return nil
}
