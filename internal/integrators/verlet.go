// Package integrators provides the explicit time-stepping schemes.
//
// Every integrator follows the two-phase contract: Integrate performs the
// first half-step and leaves the cached forces invalid, the driving loop
// recomputes forces at the new positions, and Finalize applies the second
// half-step with the fresh forces.
package integrators

import (
	"github.com/san-kum/mdsim/internal/box"
	"github.com/san-kum/mdsim/internal/numeric"
	"github.com/san-kum/mdsim/internal/particle"
)

// Verlet is the velocity-Verlet scheme.
type Verlet[V numeric.Vector[V]] struct {
	sys *particle.System[V]
	box *box.Box[V]

	timestep     float64
	timestepHalf float64
}

func NewVerlet[V numeric.Vector[V]](sys *particle.System[V], bx *box.Box[V], timestep float64) *Verlet[V] {
	in := &Verlet[V]{sys: sys, box: bx}
	in.SetTimestep(timestep)
	return in
}

func (in *Verlet[V]) Timestep() float64 { return in.timestep }

func (in *Verlet[V]) SetTimestep(timestep float64) {
	in.timestep = timestep
	in.timestepHalf = timestep / 2
}

// Integrate applies the first half-step velocity impulse, moves positions
// a full step with the updated velocities and folds periodic crossings
// into the image counters.
func (in *Verlet[V]) Integrate() error {
	f, err := in.sys.Force()
	if err != nil {
		return err
	}
	mass := in.sys.Mass()
	v := in.sys.MutableVelocity()
	r := in.sys.MutablePosition()
	image := in.sys.MutableImage()

	for i := range r {
		v[i] = v[i].Add(f[i].Scale(in.timestepHalf / mass[i]))
		r[i] = r[i].Add(v[i].Scale(in.timestep))
		wrapped, crossing := in.box.ReducePeriodic(r[i])
		r[i] = wrapped
		image[i] = image[i].Add(crossing)
	}

	// new positions invalidate the cached forces
	in.sys.MarkForceDirty()
	in.sys.MarkAuxDirty()
	return nil
}

// Finalize applies the second half-step velocity impulse with the forces
// evaluated at the new positions.
func (in *Verlet[V]) Finalize() error {
	f, err := in.sys.Force()
	if err != nil {
		return err
	}
	mass := in.sys.Mass()
	v := in.sys.MutableVelocity()

	for i := range v {
		v[i] = v[i].Add(f[i].Scale(in.timestepHalf / mass[i]))
	}
	return nil
}
