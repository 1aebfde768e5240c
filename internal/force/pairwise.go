// Package force implements the force contributors that plug into the
// particle system's update protocol.
package force

import (
	"fmt"

	"github.com/san-kum/mdsim/internal/box"
	"github.com/san-kum/mdsim/internal/md"
	"github.com/san-kum/mdsim/internal/neighbor"
	"github.com/san-kum/mdsim/internal/numeric"
	"github.com/san-kum/mdsim/internal/particle"
	"github.com/san-kum/mdsim/internal/potential"
)

// Pairwise accumulates pair forces, potential energy and stress tensor
// contributions over a neighbor relation, exploiting Newton's third law.
// It is generic over both the vector and the potential type, so the pair
// loop is monomorphized and evaluation does not dispatch through an
// interface value.
type Pairwise[V numeric.Vector[V], P potential.Pair] struct {
	sys *particle.System[V]
	box *box.Box[V]
	pot P
	src neighbor.Source

	enTotal numeric.DSFloat
}

// NewPairwise registers the evaluator as a force contributor of sys. The
// source provides half neighbor lists; use neighbor.NewAllPairs for the
// full O(N²) mode.
func NewPairwise[V numeric.Vector[V], P potential.Pair](sys *particle.System[V], bx *box.Box[V], pot P, src neighbor.Source) (*Pairwise[V, P], error) {
	if pot.Size() < sys.Nspecies() {
		return nil, fmt.Errorf("potential covers %d species, system has %d: %w",
			pot.Size(), sys.Nspecies(), md.ErrInvalidArgument)
	}
	f := &Pairwise[V, P]{sys: sys, box: bx, pot: pot, src: src}
	sys.OnForce(f.compute)
	return f, nil
}

// EnTotal returns the total potential energy accumulated by the last
// pass, compensated-summed over all pair contributions.
func (f *Pairwise[V, P]) EnTotal() float64 { return f.enTotal.Value() }

func (f *Pairwise[V, P]) compute() error {
	sys := f.sys
	pos := sys.Position()
	species := sys.Species()
	force := sys.MutableForce()
	aux := sys.AuxEnabled()
	enPot := sys.MutableEnPot()
	stress := sys.MutableStressPot()
	sl := numeric.SymLen(sys.Dim())

	if sys.ForceZero() {
		zeroAccumulators(sys, aux)
		sys.ForceZeroDisable()
	}

	var enTotal numeric.DSFloat
	for i := range pos {
		a := int(species[i])
		for _, j := range f.src.Neighbors(i) {
			b := int(species[j])
			dr := f.box.MinImage(pos[i].Sub(pos[j]))
			rr := dr.Dot(dr)
			if rr >= f.pot.RRCut(a, b) {
				continue
			}
			fval, en := f.pot.Evaluate(rr, a, b)

			fdr := dr.Scale(fval)
			force[i] = force[i].Add(fdr)
			force[j] = force[j].Sub(fdr)
			enTotal = enTotal.Add(en)

			if aux {
				enPot[i] += en / 2
				enPot[j] += en / 2
				numeric.AddOuter(stress[i*sl:(i+1)*sl], fval/2, dr)
				numeric.AddOuter(stress[j*sl:(j+1)*sl], fval/2, dr)
			}
		}
	}
	f.enTotal = enTotal

	if !enTotal.IsFinite() {
		return fmt.Errorf("pair force pass: total potential energy %g: %w",
			enTotal.Value(), md.ErrPotentialDivergence)
	}
	return nil
}

// zeroAccumulators resets force, and with aux the auxiliary accumulators,
// before the first contribution of a pass.
func zeroAccumulators[V numeric.Vector[V]](sys *particle.System[V], aux bool) {
	var zero V
	force := sys.MutableForce()
	for i := range force {
		force[i] = zero
	}
	if aux {
		enPot := sys.MutableEnPot()
		for i := range enPot {
			enPot[i] = 0
		}
		stress := sys.MutableStressPot()
		for i := range stress {
			stress[i] = 0
		}
	}
}
