package integrators

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/san-kum/mdsim/internal/box"
	"github.com/san-kum/mdsim/internal/md"
	"github.com/san-kum/mdsim/internal/numeric"
	"github.com/san-kum/mdsim/internal/particle"
)

// Andersen couples velocity-Verlet to an Andersen thermostat: after the
// second half-step each particle collides with the heat bath at the given
// rate and draws a fresh Maxwell-Boltzmann velocity.
type Andersen[V numeric.Vector[V]] struct {
	verlet *Verlet[V]
	sys    *particle.System[V]

	temperature float64
	rate        float64
	rng         *rand.Rand
}

func NewAndersen[V numeric.Vector[V]](sys *particle.System[V], bx *box.Box[V], timestep, temperature, rate float64, rng *rand.Rand) (*Andersen[V], error) {
	if temperature <= 0 {
		return nil, fmt.Errorf("heat bath temperature %g, must be positive: %w",
			temperature, md.ErrInvalidArgument)
	}
	if rate <= 0 {
		return nil, fmt.Errorf("heat bath collision rate %g, must be positive: %w",
			rate, md.ErrInvalidArgument)
	}
	return &Andersen[V]{
		verlet:      NewVerlet(sys, bx, timestep),
		sys:         sys,
		temperature: temperature,
		rate:        rate,
		rng:         rng,
	}, nil
}

func (in *Andersen[V]) Timestep() float64            { return in.verlet.Timestep() }
func (in *Andersen[V]) SetTimestep(timestep float64) { in.verlet.SetTimestep(timestep) }

func (in *Andersen[V]) Integrate() error { return in.verlet.Integrate() }

func (in *Andersen[V]) Finalize() error {
	if err := in.verlet.Finalize(); err != nil {
		return err
	}

	coll := in.rate * in.verlet.Timestep()
	mass := in.sys.Mass()
	v := in.sys.MutableVelocity()

	for i := range v {
		if in.rng.Float64() >= coll {
			continue
		}
		sigma := math.Sqrt(in.temperature / mass[i])
		var vi V
		for d := 0; d < vi.Dim(); d++ {
			vi = vi.With(d, sigma*in.rng.NormFloat64())
		}
		v[i] = vi
	}
	return nil
}
