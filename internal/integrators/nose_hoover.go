package integrators

import (
	"fmt"
	"math"

	"github.com/san-kum/mdsim/internal/box"
	"github.com/san-kum/mdsim/internal/md"
	"github.com/san-kum/mdsim/internal/numeric"
	"github.com/san-kum/mdsim/internal/particle"
)

// NoseHoover couples velocity-Verlet to a Nosé-Hoover chain of two
// heat-bath variables, sampling the canonical ensemble at the target
// temperature. The chain masses derive from the coupling resonance
// frequency (Martyna, Klein, Tuckerman 1992).
//
// Chain propagation uses a symmetric head/propagate/tail split with 1/2,
// 1/4 and 1/8 timestep fractions; the split is required for the
// time-reversibility of the integrator and must not be reordered.
type NoseHoover[V numeric.Vector[V]] struct {
	sys *particle.System[V]
	box *box.Box[V]

	timestep     float64
	timestepHalf float64
	timestep4    float64
	timestep8    float64

	temperature  float64
	enKinTarget2 float64

	// chain state: friction coefficients and their velocities
	xi     [2]float64
	vXi    [2]float64
	massXi [2]float64
}

// NewNoseHoover validates the target temperature and coupling frequency
// and derives the chain masses.
func NewNoseHoover[V numeric.Vector[V]](sys *particle.System[V], bx *box.Box[V], timestep, temperature, resonance float64) (*NoseHoover[V], error) {
	if temperature <= 0 {
		return nil, fmt.Errorf("heat bath temperature %g, must be positive: %w",
			temperature, md.ErrInvalidArgument)
	}
	if resonance <= 0 {
		return nil, fmt.Errorf("thermostat resonance frequency %g, must be positive: %w",
			resonance, md.ErrInvalidArgument)
	}
	in := &NoseHoover[V]{sys: sys, box: bx}
	in.SetTimestep(timestep)
	in.SetTemperature(temperature, resonance)
	return in, nil
}

func (in *NoseHoover[V]) Timestep() float64 { return in.timestep }

func (in *NoseHoover[V]) SetTimestep(timestep float64) {
	in.timestep = timestep
	in.timestepHalf = timestep / 2
	in.timestep4 = timestep / 4
	in.timestep8 = timestep / 8
}

// SetTemperature retargets the heat bath and rederives the chain masses
// from the resonance frequency.
func (in *NoseHoover[V]) SetTemperature(temperature, resonance float64) {
	n := float64(in.sys.Len())
	dim := float64(in.sys.Dim())
	omega2 := resonance * resonance

	in.temperature = temperature
	in.enKinTarget2 = dim * n * temperature
	in.massXi[0] = dim * n * temperature / omega2
	in.massXi[1] = temperature / omega2
}

// Chain returns the chain coordinates and velocities, for checkpointing
// and diagnostics.
func (in *NoseHoover[V]) Chain() (xi, vXi [2]float64) { return in.xi, in.vXi }

// SetChain restores the chain state from a checkpoint.
func (in *NoseHoover[V]) SetChain(xi, vXi [2]float64) {
	in.xi = xi
	in.vXi = vXi
}

// EnChain returns the energy of the chain variables, the correction that
// makes kinetic plus potential plus chain energy a conserved quantity.
func (in *NoseHoover[V]) EnChain() float64 {
	en := 0.5*in.massXi[0]*in.vXi[0]*in.vXi[0] + in.enKinTarget2*in.xi[0]
	en += 0.5*in.massXi[1]*in.vXi[1]*in.vXi[1] + in.temperature*in.xi[1]
	return en
}

func (in *NoseHoover[V]) Integrate() error {
	scale := in.propagateChain()

	f, err := in.sys.Force()
	if err != nil {
		return err
	}
	mass := in.sys.Mass()
	v := in.sys.MutableVelocity()
	r := in.sys.MutablePosition()
	image := in.sys.MutableImage()

	for i := range r {
		v[i] = v[i].Scale(scale).Add(f[i].Scale(in.timestepHalf / mass[i]))
		r[i] = r[i].Add(v[i].Scale(in.timestep))
		wrapped, crossing := in.box.ReducePeriodic(r[i])
		r[i] = wrapped
		image[i] = image[i].Add(crossing)
	}

	in.sys.MarkForceDirty()
	in.sys.MarkAuxDirty()
	return nil
}

func (in *NoseHoover[V]) Finalize() error {
	f, err := in.sys.Force()
	if err != nil {
		return err
	}
	mass := in.sys.Mass()
	v := in.sys.MutableVelocity()

	for i := range v {
		v[i] = v[i].Add(f[i].Scale(in.timestepHalf / mass[i]))
	}

	scale := in.propagateChain()
	for i := range v {
		v[i] = v[i].Scale(scale)
	}
	return nil
}

// propagateChain advances the heat-bath variables by a half-step and
// returns the uniform velocity-rescaling factor. The tail mirrors the
// head so the propagation is symmetric in time.
func (in *NoseHoover[V]) propagateChain() float64 {
	enKin2 := in.enKin2()

	// head of the chain
	in.vXi[1] += (in.massXi[0]*in.vXi[0]*in.vXi[0] - in.temperature) / in.massXi[1] * in.timestep4
	t := math.Exp(-in.vXi[1] * in.timestep8)
	in.vXi[0] *= t
	in.vXi[0] += (enKin2 - in.enKinTarget2) / in.massXi[0] * in.timestep4
	in.vXi[0] *= t

	// propagate heat bath variables
	for i := 0; i < 2; i++ {
		in.xi[i] += in.vXi[i] * in.timestepHalf
	}

	// velocity-rescaling factor; the rescaling itself happens elsewhere
	s := math.Exp(-in.vXi[0] * in.timestepHalf)
	enKin2 *= s * s

	// tail of the chain, (almost) mirrors the head
	in.vXi[0] *= t
	in.vXi[0] += (enKin2 - in.enKinTarget2) / in.massXi[0] * in.timestep4
	in.vXi[0] *= t
	in.vXi[1] += (in.massXi[0]*in.vXi[0]*in.vXi[0] - in.temperature) / in.massXi[1] * in.timestep4

	return s
}

// enKin2 reduces twice the total kinetic energy with compensated
// accumulation.
func (in *NoseHoover[V]) enKin2() float64 {
	v := in.sys.Velocity()
	mass := in.sys.Mass()

	var mv2 numeric.DSFloat
	for i := range v {
		mv2 = mv2.Add(mass[i] * v[i].Dot(v[i]))
	}
	return mv2.Value()
}
