package force

import (
	"fmt"

	"github.com/san-kum/mdsim/internal/box"
	"github.com/san-kum/mdsim/internal/compute"
	"github.com/san-kum/mdsim/internal/md"
	"github.com/san-kum/mdsim/internal/numeric"
	"github.com/san-kum/mdsim/internal/particle"
	"github.com/san-kum/mdsim/internal/potential"
)

// PairFull accumulates pair forces over all pairs without exploiting
// Newton's third law: each lane owns one particle and sums contributions
// from every other, so lanes never write to shared accumulators and the
// loop fans out across the compute backend. Pair energies are split half
// to each partner, as in the symmetric evaluator.
type PairFull[V numeric.Vector[V], P potential.Pair] struct {
	sys     *particle.System[V]
	box     *box.Box[V]
	pot     P
	backend compute.Backend

	enPartial []numeric.DSFloat
	enTotal   numeric.DSFloat
}

// NewPairFull registers the evaluator as a force contributor of sys,
// executing on the given backend (nil selects the active one).
func NewPairFull[V numeric.Vector[V], P potential.Pair](sys *particle.System[V], bx *box.Box[V], pot P, backend compute.Backend) (*PairFull[V, P], error) {
	if pot.Size() < sys.Nspecies() {
		return nil, fmt.Errorf("potential covers %d species, system has %d: %w",
			pot.Size(), sys.Nspecies(), md.ErrInvalidArgument)
	}
	if backend == nil {
		backend = compute.GetBackend()
	}
	f := &PairFull[V, P]{
		sys:       sys,
		box:       bx,
		pot:       pot,
		backend:   backend,
		enPartial: make([]numeric.DSFloat, sys.Len()),
	}
	sys.OnForce(f.compute)
	return f, nil
}

// EnTotal returns the total potential energy of the last pass.
func (f *PairFull[V, P]) EnTotal() float64 { return f.enTotal.Value() }

func (f *PairFull[V, P]) compute() error {
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

	err := f.backend.Run("pair force (full)", len(pos), func(lo, hi int) error {
		for i := lo; i < hi; i++ {
			a := int(species[i])
			var fi V
			var en numeric.DSFloat
			si := stress[i*sl : (i+1)*sl]

			for j := range pos {
				if j == i {
					continue
				}
				b := int(species[j])
				dr := f.box.MinImage(pos[i].Sub(pos[j]))
				rr := dr.Dot(dr)
				if rr >= f.pot.RRCut(a, b) {
					continue
				}
				fval, enPair := f.pot.Evaluate(rr, a, b)

				fi = fi.Add(dr.Scale(fval))
				en = en.Add(enPair / 2)
				if aux {
					numeric.AddOuter(si, fval/2, dr)
				}
			}

			force[i] = force[i].Add(fi)
			f.enPartial[i] = en
			if aux {
				enPot[i] += en.Value()
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	// deterministic combine order, independent of lane scheduling
	var enTotal numeric.DSFloat
	for _, en := range f.enPartial {
		enTotal = enTotal.AddDS(en)
	}
	f.enTotal = enTotal

	if !enTotal.IsFinite() {
		return fmt.Errorf("pair force pass (full): total potential energy %g: %w",
			enTotal.Value(), md.ErrPotentialDivergence)
	}
	return nil
}
