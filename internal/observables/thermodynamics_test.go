package observables

import (
	"math"
	"testing"

	"github.com/san-kum/mdsim/internal/box"
	"github.com/san-kum/mdsim/internal/force"
	"github.com/san-kum/mdsim/internal/neighbor"
	"github.com/san-kum/mdsim/internal/numeric"
	"github.com/san-kum/mdsim/internal/particle"
	"github.com/san-kum/mdsim/internal/potential"
)

func pairState(t *testing.T) (*particle.System[numeric.Vec3], *box.Box[numeric.Vec3]) {
	t.Helper()
	sys, err := particle.New[numeric.Vec3](2, 1)
	if err != nil {
		t.Fatal(err)
	}
	bx, err := box.Cube[numeric.Vec3](10)
	if err != nil {
		t.Fatal(err)
	}
	if err := particle.SetData(sys, particle.NamePosition,
		[]numeric.Vec3{{0, 0, 0}, {1.5, 0, 0}}); err != nil {
		t.Fatal(err)
	}
	if err := particle.SetData(sys, particle.NameVelocity,
		[]numeric.Vec3{{1, 0, 0}, {-1, 2, 0}}); err != nil {
		t.Fatal(err)
	}
	return sys, bx
}

func TestThermodynamics_Kinetic(t *testing.T) {
	sys, bx := pairState(t)
	clock := &Clock{}
	th := NewThermodynamics(sys, bx, clock)

	// mv² = 1 + 5, per particle: 6/2/2
	if got := th.EnKin(); math.Abs(got-1.5) > 1e-14 {
		t.Errorf("EnKin %g, want 1.5", got)
	}
	if got := th.Temperature(); math.Abs(got-1.0) > 1e-14 {
		t.Errorf("Temperature %g, want 1", got)
	}
	vcm := th.VCm()
	if math.Abs(vcm[0]) > 1e-14 || math.Abs(vcm[1]-1) > 1e-14 {
		t.Errorf("VCm %v, want (0,1,0)", vcm)
	}
}

func TestThermodynamics_CachedPerStep(t *testing.T) {
	sys, bx := pairState(t)
	clock := &Clock{}
	th := NewThermodynamics(sys, bx, clock)

	first := th.EnKin()
	// mutating state without advancing the clock returns the cached value
	sys.MutableVelocity()[0] = numeric.Vec3{10, 0, 0}
	if got := th.EnKin(); got != first {
		t.Errorf("EnKin %g recomputed within a step, cached %g", got, first)
	}

	clock.Advance()
	if got := th.EnKin(); got == first {
		t.Error("EnKin not recomputed after the clock advanced")
	}
}

func TestThermodynamics_PotentialAndPressure(t *testing.T) {
	sys, bx := pairState(t)
	pot, err := potential.NewLennardJones(
		numeric.Uniform(1, 1), numeric.Uniform(1, 1), numeric.Uniform(1, 2.5))
	if err != nil {
		t.Fatal(err)
	}
	pair, err := force.NewPairwise[numeric.Vec3](sys, bx, pot, neighbor.NewAllPairs(2))
	if err != nil {
		t.Fatal(err)
	}
	clock := &Clock{}
	th := NewThermodynamics(sys, bx, clock)
	th.PrepareAux()

	enPot, err := th.EnPot()
	if err != nil {
		t.Fatal(err)
	}
	if want := pair.EnTotal() / 2; math.Abs(enPot-want) > 1e-14 {
		t.Errorf("EnPot %g, want %g", enPot, want)
	}

	fval, _ := pot.Evaluate(1.5*1.5, 0, 0)
	wantVirial := fval * 1.5 * 1.5 / 3 / 2
	vir, err := th.Virial()
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(vir-wantVirial) > 1e-14 {
		t.Errorf("Virial %g, want %g", vir, wantVirial)
	}

	p, err := th.Pressure()
	if err != nil {
		t.Fatal(err)
	}
	want := 2 * (th.Temperature() + vir) / bx.Volume()
	if math.Abs(p-want) > 1e-14 {
		t.Errorf("Pressure %g, want %g", p, want)
	}

	if got := th.Density(); math.Abs(got-2.0/1000) > 1e-16 {
		t.Errorf("Density %g", got)
	}
}

func TestClock(t *testing.T) {
	var c Clock
	if c.Step() != 0 {
		t.Errorf("fresh clock at %d", c.Step())
	}
	c.Advance()
	c.Advance()
	if c.Step() != 2 {
		t.Errorf("clock at %d, want 2", c.Step())
	}
}
