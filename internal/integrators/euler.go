package integrators

import (
	"github.com/san-kum/mdsim/internal/box"
	"github.com/san-kum/mdsim/internal/numeric"
	"github.com/san-kum/mdsim/internal/particle"
)

// Euler is the explicit Euler scheme: positions advance a full step along
// the current velocities. It needs no finalisation.
type Euler[V numeric.Vector[V]] struct {
	sys *particle.System[V]
	box *box.Box[V]

	timestep float64
}

func NewEuler[V numeric.Vector[V]](sys *particle.System[V], bx *box.Box[V], timestep float64) *Euler[V] {
	return &Euler[V]{sys: sys, box: bx, timestep: timestep}
}

func (in *Euler[V]) Timestep() float64            { return in.timestep }
func (in *Euler[V]) SetTimestep(timestep float64) { in.timestep = timestep }

func (in *Euler[V]) Integrate() error {
	v := in.sys.Velocity()
	r := in.sys.MutablePosition()
	image := in.sys.MutableImage()

	for i := range r {
		r[i] = r[i].Add(v[i].Scale(in.timestep))
		wrapped, crossing := in.box.ReducePeriodic(r[i])
		r[i] = wrapped
		image[i] = image[i].Add(crossing)
	}

	in.sys.MarkForceDirty()
	in.sys.MarkAuxDirty()
	return nil
}

func (in *Euler[V]) Finalize() error { return nil }
