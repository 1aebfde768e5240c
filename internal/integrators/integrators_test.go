package integrators

import (
	"errors"
	"math"
	"math/rand"
	"testing"

	g "github.com/onsi/gomega"

	"github.com/san-kum/mdsim/internal/box"
	"github.com/san-kum/mdsim/internal/force"
	"github.com/san-kum/mdsim/internal/md"
	"github.com/san-kum/mdsim/internal/neighbor"
	"github.com/san-kum/mdsim/internal/numeric"
	"github.com/san-kum/mdsim/internal/particle"
	"github.com/san-kum/mdsim/internal/potential"
)

// boundPair builds two Lennard-Jones particles slightly stretched from the
// potential minimum, so they oscillate without escaping.
func boundPair(t *testing.T) (*particle.System[numeric.Vec3], *box.Box[numeric.Vec3], *force.Pairwise[numeric.Vec3, *potential.LennardJones]) {
	t.Helper()
	sys, err := particle.New[numeric.Vec3](2, 1)
	if err != nil {
		t.Fatal(err)
	}
	bx, err := box.Cube[numeric.Vec3](20)
	if err != nil {
		t.Fatal(err)
	}
	if err := particle.SetData(sys, particle.NamePosition,
		[]numeric.Vec3{{10, 10, 10}, {11.2, 10, 10}}); err != nil {
		t.Fatal(err)
	}
	pot, err := potential.NewLennardJones(
		numeric.Uniform(1, 1), numeric.Uniform(1, 1), numeric.Uniform(1, 2.5))
	if err != nil {
		t.Fatal(err)
	}
	f, err := force.NewPairwise[numeric.Vec3](sys, bx, pot, neighbor.NewAllPairs(2))
	if err != nil {
		t.Fatal(err)
	}
	return sys, bx, f
}

func enKin(sys *particle.System[numeric.Vec3]) float64 {
	v := sys.Velocity()
	mass := sys.Mass()
	var en numeric.DSFloat
	for i := range v {
		en = en.Add(0.5 * mass[i] * v[i].Dot(v[i]))
	}
	return en.Value()
}

func step(t *testing.T, in md.Integrator) {
	t.Helper()
	if err := in.Integrate(); err != nil {
		t.Fatal(err)
	}
	if err := in.Finalize(); err != nil {
		t.Fatal(err)
	}
}

func TestEuler_FreeFlight(t *testing.T) {
	sys, err := particle.New[numeric.Vec3](1, 1)
	if err != nil {
		t.Fatal(err)
	}
	bx, _ := box.Cube[numeric.Vec3](10)
	if err := particle.SetData(sys, particle.NamePosition, []numeric.Vec3{{9.9, 5, 5}}); err != nil {
		t.Fatal(err)
	}
	if err := particle.SetData(sys, particle.NameVelocity, []numeric.Vec3{{1, 0, 0}}); err != nil {
		t.Fatal(err)
	}

	in := NewEuler(sys, bx, 0.2)
	step(t, in)

	r := sys.Position()[0]
	img := sys.Image()[0]
	if math.Abs(r[0]-0.1) > 1e-12 {
		t.Errorf("wrapped position %v", r)
	}
	if img[0] != 1 {
		t.Errorf("image %v, want one crossing", img)
	}
}

func TestEuler_InvalidatesForces(t *testing.T) {
	sys, bx, _ := boundPair(t)
	if _, err := sys.Force(); err != nil {
		t.Fatal(err)
	}
	before := sys.Stats().ForceUpdates

	in := NewEuler(sys, bx, 0.001)
	if err := in.Integrate(); err != nil {
		t.Fatal(err)
	}
	if _, err := sys.Force(); err != nil {
		t.Fatal(err)
	}
	if got := sys.Stats().ForceUpdates; got != before+1 {
		t.Errorf("force passes %d, want %d", got, before+1)
	}
}

func TestVerlet_EnergyConservation(t *testing.T) {
	gm := g.NewWithT(t)
	sys, bx, f := boundPair(t)
	in := NewVerlet(sys, bx, 0.001)

	if _, err := sys.Force(); err != nil {
		t.Fatal(err)
	}
	en0 := f.EnTotal() + enKin(sys)

	for s := 0; s < 2000; s++ {
		step(t, in)
	}
	en := f.EnTotal() + enKin(sys)
	gm.Expect(en).To(g.BeNumerically("~", en0, 1e-4))

	// the pair oscillates: some energy is kinetic by now
	gm.Expect(enKin(sys)).To(g.BeNumerically(">", 0))
}

func TestVerlet_TimestepHalving(t *testing.T) {
	sys, bx, _ := boundPair(t)
	in := NewVerlet(sys, bx, 0.002)
	if in.Timestep() != 0.002 {
		t.Errorf("timestep %g", in.Timestep())
	}
	in.SetTimestep(0.001)
	if in.Timestep() != 0.001 || in.timestepHalf != 0.0005 {
		t.Errorf("timestep %g, half %g", in.timestep, in.timestepHalf)
	}
}

func TestNoseHoover_ConservedQuantity(t *testing.T) {
	gm := g.NewWithT(t)
	sys, bx, f := boundPair(t)
	in, err := NewNoseHoover(sys, bx, 0.001, 0.5, 1.0)
	if err != nil {
		t.Fatal(err)
	}

	if _, err := sys.Force(); err != nil {
		t.Fatal(err)
	}
	en0 := f.EnTotal() + enKin(sys) + in.EnChain()

	for s := 0; s < 1000; s++ {
		step(t, in)
	}
	en := f.EnTotal() + enKin(sys) + in.EnChain()
	gm.Expect(en).To(g.BeNumerically("~", en0, 1e-3))

	// the chain has picked up motion
	_, vXi := in.Chain()
	gm.Expect(vXi[0]).NotTo(g.BeZero())
}

func TestNoseHoover_ChainRoundtrip(t *testing.T) {
	sys, bx, _ := boundPair(t)
	in, err := NewNoseHoover(sys, bx, 0.001, 1.0, 2.0)
	if err != nil {
		t.Fatal(err)
	}
	if in.EnChain() != 0 {
		t.Errorf("fresh chain energy %g", in.EnChain())
	}

	xi := [2]float64{0.1, -0.2}
	vXi := [2]float64{0.3, 0.4}
	in.SetChain(xi, vXi)
	gotXi, gotVXi := in.Chain()
	if gotXi != xi || gotVXi != vXi {
		t.Errorf("chain state %v %v", gotXi, gotVXi)
	}
}

func TestNoseHoover_RejectsBadParams(t *testing.T) {
	sys, bx, _ := boundPair(t)
	if _, err := NewNoseHoover(sys, bx, 0.001, 0, 1); !errors.Is(err, md.ErrInvalidArgument) {
		t.Errorf("zero temperature: %v", err)
	}
	if _, err := NewNoseHoover(sys, bx, 0.001, 1, -1); !errors.Is(err, md.ErrInvalidArgument) {
		t.Errorf("negative resonance: %v", err)
	}
}

func TestAndersen_SamplesBathTemperature(t *testing.T) {
	gm := g.NewWithT(t)
	n := 1000
	sys, err := particle.New[numeric.Vec3](n, 1)
	if err != nil {
		t.Fatal(err)
	}
	bx, _ := box.Cube[numeric.Vec3](100)
	// spread out so nothing interacts
	pos := make([]numeric.Vec3, n)
	for i := range pos {
		pos[i] = numeric.Vec3{float64(i % 10) * 10, float64(i / 10 % 10) * 10, float64(i / 100) * 10}
	}
	if err := particle.SetData(sys, particle.NamePosition, pos); err != nil {
		t.Fatal(err)
	}

	const temp = 1.5
	// collision probability rate·dt = 1: every particle thermalises each step
	in, err := NewAndersen(sys, bx, 0.001, temp, 1000, rand.New(rand.NewSource(99)))
	if err != nil {
		t.Fatal(err)
	}
	step(t, in)

	got := 2 * enKin(sys) / (3 * float64(n))
	gm.Expect(got).To(g.BeNumerically("~", temp, 0.15))
}

func TestAndersen_RejectsBadParams(t *testing.T) {
	sys, bx, _ := boundPair(t)
	rng := rand.New(rand.NewSource(1))
	if _, err := NewAndersen(sys, bx, 0.001, -1, 10, rng); !errors.Is(err, md.ErrInvalidArgument) {
		t.Errorf("negative temperature: %v", err)
	}
	if _, err := NewAndersen(sys, bx, 0.001, 1, 0, rng); !errors.Is(err, md.ErrInvalidArgument) {
		t.Errorf("zero rate: %v", err)
	}
}
