package force

import (
	"errors"
	"math"
	"math/rand"
	"testing"

	"github.com/san-kum/mdsim/internal/box"
	"github.com/san-kum/mdsim/internal/md"
	"github.com/san-kum/mdsim/internal/neighbor"
	"github.com/san-kum/mdsim/internal/numeric"
	"github.com/san-kum/mdsim/internal/particle"
	"github.com/san-kum/mdsim/internal/potential"
)

func newLJ(t *testing.T, nspecies int) *potential.LennardJones {
	t.Helper()
	p, err := potential.NewLennardJones(
		numeric.Uniform(nspecies, 1), numeric.Uniform(nspecies, 1),
		numeric.Uniform(nspecies, 2.5))
	if err != nil {
		t.Fatal(err)
	}
	return p
}

// randomSystem scatters n particles uniformly over a cubic box. The seed
// is fixed so failures reproduce.
func randomSystem(t *testing.T, n int, l float64) (*particle.System[numeric.Vec3], *box.Box[numeric.Vec3]) {
	t.Helper()
	sys, err := particle.New[numeric.Vec3](n, 1)
	if err != nil {
		t.Fatal(err)
	}
	bx, err := box.Cube[numeric.Vec3](l)
	if err != nil {
		t.Fatal(err)
	}
	rng := rand.New(rand.NewSource(17))
	pos := make([]numeric.Vec3, n)
	for i := range pos {
		pos[i] = numeric.Vec3{rng.Float64() * l, rng.Float64() * l, rng.Float64() * l}
	}
	if err := particle.SetData(sys, particle.NamePosition, pos); err != nil {
		t.Fatal(err)
	}
	return sys, bx
}

func TestPairwise_TwoParticles(t *testing.T) {
	sys, err := particle.New[numeric.Vec3](2, 1)
	if err != nil {
		t.Fatal(err)
	}
	bx, _ := box.Cube[numeric.Vec3](10)
	pos := []numeric.Vec3{{0, 0, 0}, {1.5, 0, 0}}
	if err := particle.SetData(sys, particle.NamePosition, pos); err != nil {
		t.Fatal(err)
	}

	pot := newLJ(t, 1)
	f, err := NewPairwise[numeric.Vec3](sys, bx, pot, neighbor.NewAllPairs(2))
	if err != nil {
		t.Fatal(err)
	}
	if err := sys.EnsureForce(false); err != nil {
		t.Fatal(err)
	}

	force, err := sys.Force()
	if err != nil {
		t.Fatal(err)
	}
	if got := force[0].Add(force[1]); !isZero(got, 1e-14) {
		t.Errorf("net force %v, want 0", got)
	}
	// beyond the minimum the pair attracts
	if force[0][0] <= 0 {
		t.Errorf("force on the left particle points left: %v", force[0])
	}

	fval, en := pot.Evaluate(1.5*1.5, 0, 0)
	if math.Abs(f.EnTotal()-en) > 1e-14 {
		t.Errorf("EnTotal %g, want %g", f.EnTotal(), en)
	}
	// dr points from particle 1 to particle 0
	if math.Abs(force[0][0]-fval*(-1.5)) > 1e-14 {
		t.Errorf("force %g does not match fval·dr = %g", force[0][0], fval*(-1.5))
	}
}

func TestPairwise_MomentumConservation(t *testing.T) {
	sys, bx := randomSystem(t, 64, 5)
	if _, err := NewPairwise[numeric.Vec3](sys, bx, newLJ(t, 1), neighbor.NewAllPairs(64)); err != nil {
		t.Fatal(err)
	}
	if err := sys.EnsureForce(false); err != nil {
		t.Fatal(err)
	}
	force, _ := sys.Force()
	var sum numeric.Vec3
	for _, fi := range force {
		sum = sum.Add(fi)
	}
	if !isZero(sum, 1e-10) {
		t.Errorf("net force %v, want 0", sum)
	}
}

func TestPairwise_AuxAccumulators(t *testing.T) {
	sys, bx := randomSystem(t, 32, 4)
	f, err := NewPairwise[numeric.Vec3](sys, bx, newLJ(t, 1), neighbor.NewAllPairs(32))
	if err != nil {
		t.Fatal(err)
	}
	if err := sys.EnsureForce(true); err != nil {
		t.Fatal(err)
	}

	enPot, err := sys.PotentialEnergy()
	if err != nil {
		t.Fatal(err)
	}
	var sum numeric.DSFloat
	for _, en := range enPot {
		sum = sum.Add(en)
	}
	if math.Abs(sum.Value()-f.EnTotal()) > 1e-9 {
		t.Errorf("per-particle energies sum to %g, total %g", sum.Value(), f.EnTotal())
	}

	// the virial from the stress trace matches the direct pair sum
	stress, err := sys.StressPot()
	if err != nil {
		t.Fatal(err)
	}
	sl := numeric.SymLen(3)
	var trace float64
	for i := 0; i < sys.Len(); i++ {
		trace += numeric.SymTrace(stress[i*sl:(i+1)*sl], 3)
	}
	virial := directVirial(sys, bx, newLJ(t, 1))
	if math.Abs(trace-virial) > 1e-8*math.Max(1, math.Abs(virial)) {
		t.Errorf("stress trace %g, direct virial %g", trace, virial)
	}
}

func directVirial(sys *particle.System[numeric.Vec3], bx *box.Box[numeric.Vec3], pot potential.Pair) float64 {
	pos := sys.Position()
	var v float64
	for i := range pos {
		for j := i + 1; j < len(pos); j++ {
			dr := bx.MinImage(pos[i].Sub(pos[j]))
			rr := dr.Dot(dr)
			if rr >= pot.RRCut(0, 0) {
				continue
			}
			fval, _ := pot.Evaluate(rr, 0, 0)
			v += fval * rr
		}
	}
	return v
}

func TestPairFull_MatchesPairwise(t *testing.T) {
	sysA, bx := randomSystem(t, 48, 5)
	sysB, _ := randomSystem(t, 48, 5)

	fA, err := NewPairwise[numeric.Vec3](sysA, bx, newLJ(t, 1), neighbor.NewAllPairs(48))
	if err != nil {
		t.Fatal(err)
	}
	fB, err := NewPairFull[numeric.Vec3](sysB, bx, newLJ(t, 1), nil)
	if err != nil {
		t.Fatal(err)
	}

	if err := sysA.EnsureForce(true); err != nil {
		t.Fatal(err)
	}
	if err := sysB.EnsureForce(true); err != nil {
		t.Fatal(err)
	}

	forceA, _ := sysA.Force()
	forceB, _ := sysB.Force()
	for i := range forceA {
		if !isZero(forceA[i].Sub(forceB[i]), 1e-10) {
			t.Fatalf("particle %d: half-list force %v, full force %v", i, forceA[i], forceB[i])
		}
	}
	if math.Abs(fA.EnTotal()-fB.EnTotal()) > 1e-9 {
		t.Errorf("EnTotal: half %g, full %g", fA.EnTotal(), fB.EnTotal())
	}

	enA, _ := sysA.PotentialEnergy()
	enB, _ := sysB.PotentialEnergy()
	for i := range enA {
		if math.Abs(enA[i]-enB[i]) > 1e-10 {
			t.Fatalf("particle %d: per-particle energy %g vs %g", i, enA[i], enB[i])
		}
	}
}

func TestPairwise_Divergence(t *testing.T) {
	sys, err := particle.New[numeric.Vec3](2, 1)
	if err != nil {
		t.Fatal(err)
	}
	bx, _ := box.Cube[numeric.Vec3](10)
	// coincident particles blow up the inverse-power terms
	pos := []numeric.Vec3{{1, 1, 1}, {1, 1, 1}}
	if err := particle.SetData(sys, particle.NamePosition, pos); err != nil {
		t.Fatal(err)
	}
	if _, err := NewPairwise[numeric.Vec3](sys, bx, newLJ(t, 1), neighbor.NewAllPairs(2)); err != nil {
		t.Fatal(err)
	}

	err = sys.EnsureForce(false)
	if !errors.Is(err, md.ErrPotentialDivergence) {
		t.Errorf("got %v, want potential divergence", err)
	}
}

func TestPairwise_SpeciesMismatch(t *testing.T) {
	sys, err := particle.New[numeric.Vec3](4, 2)
	if err != nil {
		t.Fatal(err)
	}
	bx, _ := box.Cube[numeric.Vec3](5)
	_, err = NewPairwise[numeric.Vec3](sys, bx, newLJ(t, 1), neighbor.NewAllPairs(4))
	if !errors.Is(err, md.ErrInvalidArgument) {
		t.Errorf("got %v", err)
	}
}

func TestExternal_ComposesWithPair(t *testing.T) {
	sys, bx := randomSystem(t, 16, 6)
	pair, err := NewPairwise[numeric.Vec3](sys, bx, newLJ(t, 1), neighbor.NewAllPairs(16))
	if err != nil {
		t.Fatal(err)
	}
	slit, err := potential.NewSlit[numeric.Vec3](
		8, numeric.Vec3{3, 3, 3}, numeric.Vec3{0, 0, 1},
		[][]float64{{1, 1}}, [][]float64{{1, 1}}, [][]float64{{0.5, 0.5}})
	if err != nil {
		t.Fatal(err)
	}
	ext := NewExternal[numeric.Vec3](sys, slit)

	if err := sys.EnsureForce(true); err != nil {
		t.Fatal(err)
	}

	enPot, err := sys.PotentialEnergy()
	if err != nil {
		t.Fatal(err)
	}
	var sum numeric.DSFloat
	for _, en := range enPot {
		sum = sum.Add(en)
	}
	want := pair.EnTotal() + ext.EnTotal()
	if math.Abs(sum.Value()-want) > 1e-9 {
		t.Errorf("per-particle energies sum to %g, contributors total %g", sum.Value(), want)
	}
}

func isZero(v numeric.Vec3, tol float64) bool {
	for d := 0; d < v.Dim(); d++ {
		if math.Abs(v.At(d)) > tol {
			return false
		}
	}
	return true
}
