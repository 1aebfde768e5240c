package observables

import (
	"github.com/san-kum/mdsim/internal/box"
	"github.com/san-kum/mdsim/internal/numeric"
	"github.com/san-kum/mdsim/internal/particle"
)

// Thermodynamics reads validated particle arrays and reduces them to
// instantaneous thermodynamic observables. Kinetic quantities come from
// the velocities directly; potential energy and virial consume the
// auxiliary arrays, so a consumer that samples them for a step must call
// PrepareAux before that step's force update.
//
// All energies are per particle; reductions run over the logical particle
// count with compensated accumulation.
type Thermodynamics[V numeric.Vector[V]] struct {
	sys   *particle.System[V]
	box   *box.Box[V]
	clock *Clock

	enKin  cachedScalar
	enPot  cachedScalar
	virial cachedScalar
	vcm    struct {
		step  uint64
		valid bool
		value V
	}
}

func NewThermodynamics[V numeric.Vector[V]](sys *particle.System[V], bx *box.Box[V], clock *Clock) *Thermodynamics[V] {
	return &Thermodynamics[V]{sys: sys, box: bx, clock: clock}
}

// PrepareAux requests auxiliary variables for the next force update.
func (t *Thermodynamics[V]) PrepareAux() {
	t.sys.RequestAux()
}

// EnKin returns the mean kinetic energy per particle.
func (t *Thermodynamics[V]) EnKin() float64 {
	return t.enKin.get(t.clock, func() float64 {
		v := t.sys.Velocity()
		mass := t.sys.Mass()
		var mv2 numeric.DSFloat
		for i := range v {
			mv2 = mv2.Add(mass[i] * v[i].Dot(v[i]))
		}
		return 0.5 * mv2.Value() / float64(t.sys.Len())
	})
}

// VCm returns the centre-of-mass velocity.
func (t *Thermodynamics[V]) VCm() V {
	if !t.vcm.valid || t.vcm.step != t.clock.Step() {
		v := t.sys.Velocity()
		mass := t.sys.Mass()
		var p V
		m := 0.0
		for i := range v {
			p = p.Add(v[i].Scale(mass[i]))
			m += mass[i]
		}
		t.vcm.value = p.Scale(1 / m)
		t.vcm.step = t.clock.Step()
		t.vcm.valid = true
	}
	return t.vcm.value
}

// Temperature returns the instantaneous temperature.
func (t *Thermodynamics[V]) Temperature() float64 {
	return 2 * t.EnKin() / float64(t.sys.Dim())
}

// EnPot returns the mean potential energy per particle.
func (t *Thermodynamics[V]) EnPot() (float64, error) {
	enPot, err := t.sys.PotentialEnergy()
	if err != nil {
		return 0, err
	}
	return t.enPot.get(t.clock, func() float64 {
		var sum numeric.DSFloat
		for _, en := range enPot {
			sum = sum.Add(en)
		}
		return sum.Value() / float64(t.sys.Len())
	}), nil
}

// Virial returns the mean virial per particle, the trace of the potential
// stress tensor over the dimension.
func (t *Thermodynamics[V]) Virial() (float64, error) {
	stress, err := t.sys.StressPot()
	if err != nil {
		return 0, err
	}
	dim := t.sys.Dim()
	sl := numeric.SymLen(dim)
	return t.virial.get(t.clock, func() float64 {
		var sum numeric.DSFloat
		for i := 0; i < t.sys.Len(); i++ {
			sum = sum.Add(numeric.SymTrace(stress[i*sl:(i+1)*sl], dim))
		}
		return sum.Value() / float64(dim) / float64(t.sys.Len())
	}), nil
}

// Pressure returns the instantaneous pressure from the virial theorem.
func (t *Thermodynamics[V]) Pressure() (float64, error) {
	vir, err := t.Virial()
	if err != nil {
		return 0, err
	}
	n := float64(t.sys.Len())
	return n * (t.Temperature() + vir) / t.box.Volume(), nil
}

// Density returns the number density.
func (t *Thermodynamics[V]) Density() float64 {
	return float64(t.sys.Len()) / t.box.Volume()
}
