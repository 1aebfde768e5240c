package neighbor

import (
	"errors"
	"math"
	"math/rand"
	"testing"

	"github.com/san-kum/mdsim/internal/box"
	"github.com/san-kum/mdsim/internal/md"
	"github.com/san-kum/mdsim/internal/numeric"
	"github.com/san-kum/mdsim/internal/particle"
)

func scattered(t *testing.T, n int, l float64) (*particle.System[numeric.Vec3], *box.Box[numeric.Vec3]) {
	t.Helper()
	sys, err := particle.New[numeric.Vec3](n, 1)
	if err != nil {
		t.Fatal(err)
	}
	bx, err := box.Cube[numeric.Vec3](l)
	if err != nil {
		t.Fatal(err)
	}
	rng := rand.New(rand.NewSource(23))
	pos := make([]numeric.Vec3, n)
	for i := range pos {
		for d := 0; d < 3; d++ {
			pos[i] = pos[i].With(d, (rng.Float64()-0.5)*l)
		}
	}
	if err := particle.SetData(sys, particle.NamePosition, pos); err != nil {
		t.Fatal(err)
	}
	return sys, bx
}

func TestAllPairs_HalfLists(t *testing.T) {
	src := NewAllPairs(4)
	want := [][]int{{1, 2, 3}, {2, 3}, {3}, {}}
	for i, w := range want {
		got := src.Neighbors(i)
		if len(got) != len(w) {
			t.Fatalf("particle %d: %v, want %v", i, got, w)
		}
		for k := range w {
			if got[k] != w[k] {
				t.Fatalf("particle %d: %v, want %v", i, got, w)
			}
		}
	}
}

// pairSet collects the pair relation {i,j} of a source as i*n+j keys.
func pairSet(src Source, n int) map[int]bool {
	set := make(map[int]bool)
	for i := 0; i < n; i++ {
		for _, j := range src.Neighbors(i) {
			set[i*n+j] = true
		}
	}
	return set
}

func TestList_CoversCutoffPairs(t *testing.T) {
	const n = 150
	sys, bx := scattered(t, n, 8)
	const rCut = 2.5
	l, err := NewList(sys, bx, rCut, 0.5)
	if err != nil {
		t.Fatal(err)
	}
	// the list hangs off the force update; trigger one pass
	if _, err := sys.Force(); err != nil {
		t.Fatal(err)
	}
	if l.Rebuilds() != 1 {
		t.Fatalf("rebuilds %d, want 1", l.Rebuilds())
	}

	listed := pairSet(l, n)
	pos := sys.Position()
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			dr := bx.MinImage(pos[i].Sub(pos[j]))
			if dr.Dot(dr) < rCut*rCut && !listed[i*n+j] {
				t.Fatalf("pair (%d,%d) at r=%g missing from the list",
					i, j, math.Sqrt(dr.Dot(dr)))
			}
		}
	}
}

func TestList_SkinDefersRebuild(t *testing.T) {
	sys, bx := scattered(t, 60, 6)
	l, err := NewList(sys, bx, 2.0, 0.8)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := sys.Force(); err != nil {
		t.Fatal(err)
	}

	// small displacement, under half the skin: no rebuild
	pos := sys.MutablePosition()
	pos[0] = pos[0].Add(numeric.Vec3{0.3, 0, 0})
	sys.MarkForceDirty()
	if _, err := sys.Force(); err != nil {
		t.Fatal(err)
	}
	if l.Rebuilds() != 1 {
		t.Errorf("rebuilds %d after small move, want 1", l.Rebuilds())
	}

	// push the same particle past half the skin
	pos[0] = pos[0].Add(numeric.Vec3{0.2, 0, 0})
	sys.MarkForceDirty()
	if _, err := sys.Force(); err != nil {
		t.Fatal(err)
	}
	if l.Rebuilds() != 2 {
		t.Errorf("rebuilds %d after large move, want 2", l.Rebuilds())
	}
}

func TestList_RearrangeForcesRebuild(t *testing.T) {
	const n = 40
	sys, bx := scattered(t, n, 6)
	l, err := NewList(sys, bx, 2.0, 0.5)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := sys.Force(); err != nil {
		t.Fatal(err)
	}

	index := make([]int, n)
	for i := range index {
		index[i] = n - 1 - i
	}
	if err := sys.Rearrange(index); err != nil {
		t.Fatal(err)
	}
	if _, err := sys.Force(); err != nil {
		t.Fatal(err)
	}
	if l.Rebuilds() != 2 {
		t.Errorf("rebuilds %d after rearrange, want 2", l.Rebuilds())
	}

	// the fresh list is consistent with the new storage order
	listed := pairSet(l, n)
	pos := sys.Position()
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			dr := bx.MinImage(pos[i].Sub(pos[j]))
			if dr.Dot(dr) < 2.0*2.0 && !listed[i*n+j] {
				t.Fatalf("pair (%d,%d) missing after rearrange", i, j)
			}
		}
	}
}

func TestList_RejectsBadGeometry(t *testing.T) {
	sys, bx := scattered(t, 8, 4)
	if _, err := NewList(sys, bx, 0, 0.5); !errors.Is(err, md.ErrInvalidArgument) {
		t.Errorf("zero cutoff: %v", err)
	}
	if _, err := NewList(sys, bx, 2, -0.1); !errors.Is(err, md.ErrInvalidArgument) {
		t.Errorf("negative skin: %v", err)
	}
}
