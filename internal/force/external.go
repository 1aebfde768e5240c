package force

import (
	"fmt"

	"github.com/san-kum/mdsim/internal/md"
	"github.com/san-kum/mdsim/internal/numeric"
	"github.com/san-kum/mdsim/internal/particle"
	"github.com/san-kum/mdsim/internal/potential"
)

// External accumulates a per-particle external potential, e.g. confining
// walls. It composes with pair contributors through the registration-order
// contract: whichever contributor runs first resets the accumulators.
type External[V numeric.Vector[V], P potential.External[V]] struct {
	sys *particle.System[V]
	pot P

	enTotal numeric.DSFloat
}

// NewExternal registers the contributor with sys.
func NewExternal[V numeric.Vector[V], P potential.External[V]](sys *particle.System[V], pot P) *External[V, P] {
	f := &External[V, P]{sys: sys, pot: pot}
	sys.OnForce(f.compute)
	return f
}

// EnTotal returns the total external potential energy of the last pass.
func (f *External[V, P]) EnTotal() float64 { return f.enTotal.Value() }

func (f *External[V, P]) compute() error {
	sys := f.sys
	pos := sys.Position()
	species := sys.Species()
	force := sys.MutableForce()
	aux := sys.AuxEnabled()
	enPot := sys.MutableEnPot()

	if sys.ForceZero() {
		zeroAccumulators(sys, aux)
		sys.ForceZeroDisable()
	}

	var enTotal numeric.DSFloat
	for i, r := range pos {
		fi, en := f.pot.EvaluateAt(r, int(species[i]))
		force[i] = force[i].Add(fi)
		enTotal = enTotal.Add(en)
		if aux {
			enPot[i] += en
		}
	}
	f.enTotal = enTotal

	if !enTotal.IsFinite() {
		return fmt.Errorf("external force pass: total potential energy %g: %w",
			enTotal.Value(), md.ErrPotentialDivergence)
	}
	return nil
}
