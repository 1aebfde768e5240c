package particle

import (
	"errors"
	"testing"

	"github.com/san-kum/mdsim/internal/md"
	"github.com/san-kum/mdsim/internal/numeric"
)

func TestNew_Defaults(t *testing.T) {
	s, err := New[numeric.Vec3](5, 2)
	if err != nil {
		t.Fatal(err)
	}

	if s.Len() != 5 || s.Nspecies() != 2 || s.Dim() != 3 {
		t.Errorf("got n=%d nspecies=%d dim=%d", s.Len(), s.Nspecies(), s.Dim())
	}
	for i, m := range s.Mass() {
		if m != 1 {
			t.Errorf("mass[%d] = %g, want 1", i, m)
		}
	}
	id, rid := s.ID(), s.ReverseID()
	for i := range id {
		if id[i] != uint32(i) || rid[i] != uint32(i) {
			t.Errorf("slot %d: id=%d rid=%d, want identity", i, id[i], rid[i])
		}
	}
	if len(s.Position()) != 5 {
		t.Errorf("view length %d includes padding", len(s.Position()))
	}
}

func TestNew_Invalid(t *testing.T) {
	if _, err := New[numeric.Vec2](0, 1); !errors.Is(err, md.ErrInvalidArgument) {
		t.Errorf("zero particles: got %v", err)
	}
	if _, err := New[numeric.Vec2](4, 0); !errors.Is(err, md.ErrInvalidArgument) {
		t.Errorf("zero species: got %v", err)
	}
}

func TestEnsureForce_RunsContributorsOnce(t *testing.T) {
	s, err := New[numeric.Vec2](4, 1)
	if err != nil {
		t.Fatal(err)
	}

	calls := 0
	s.OnForce(func() error {
		calls++
		s.ForceZeroDisable()
		return nil
	})

	// first request computes, repeats hit the cache
	for i := 0; i < 3; i++ {
		if err := s.EnsureForce(false); err != nil {
			t.Fatal(err)
		}
	}
	if calls != 1 {
		t.Errorf("contributor ran %d times, want 1", calls)
	}
	if s.Stats().ForceUpdates != 1 {
		t.Errorf("force updates %d, want 1", s.Stats().ForceUpdates)
	}

	s.MarkForceDirty()
	if err := s.EnsureForce(false); err != nil {
		t.Fatal(err)
	}
	if calls != 2 {
		t.Errorf("contributor ran %d times after invalidation, want 2", calls)
	}
}

func TestEnsureForce_AuxRequestIsOneShot(t *testing.T) {
	s, err := New[numeric.Vec2](4, 1)
	if err != nil {
		t.Fatal(err)
	}

	var sawAux []bool
	s.OnForce(func() error {
		sawAux = append(sawAux, s.AuxEnabled())
		s.ForceZeroDisable()
		return nil
	})

	s.RequestAux()
	if err := s.EnsureForce(false); err != nil {
		t.Fatal(err)
	}
	s.MarkForceDirty()
	if err := s.EnsureForce(false); err != nil {
		t.Fatal(err)
	}

	if len(sawAux) != 2 || !sawAux[0] || sawAux[1] {
		t.Errorf("aux enablement across passes = %v, want [true false]", sawAux)
	}
	if s.Stats().AuxUpdates != 1 {
		t.Errorf("aux updates %d, want 1", s.Stats().AuxUpdates)
	}
}

func TestEnsureForce_PendingAuxRequestSurvivesCacheHit(t *testing.T) {
	s, err := New[numeric.Vec2](4, 1)
	if err != nil {
		t.Fatal(err)
	}
	s.OnForce(func() error {
		s.ForceZeroDisable()
		return nil
	})

	// settle, then request aux while forces are clean: the request must
	// trigger a pass on the next consumer that needs aux
	if err := s.EnsureForce(false); err != nil {
		t.Fatal(err)
	}
	s.RequestAux()
	if err := s.EnsureForce(false); err != nil {
		t.Fatal(err)
	}
	if s.Stats().AuxUpdates != 1 {
		t.Errorf("aux updates %d, want 1", s.Stats().AuxUpdates)
	}
}

func TestEnsureForce_WithAuxRecomputesOnlyAuxStale(t *testing.T) {
	s, err := New[numeric.Vec2](4, 1)
	if err != nil {
		t.Fatal(err)
	}
	s.OnForce(func() error {
		s.ForceZeroDisable()
		return nil
	})

	if err := s.EnsureForce(false); err != nil {
		t.Fatal(err)
	}
	// forces clean, aux still dirty: a consumer of aux forces a pass
	if _, err := s.PotentialEnergy(); err != nil {
		t.Fatal(err)
	}
	if s.Stats().ForceUpdates != 2 || s.Stats().AuxUpdates != 1 {
		t.Errorf("stats %+v, want 2 force / 1 aux", s.Stats())
	}
}

func TestEnsureForce_ContributorError(t *testing.T) {
	s, err := New[numeric.Vec2](4, 1)
	if err != nil {
		t.Fatal(err)
	}
	boom := errors.New("boom")
	s.OnForce(func() error { return boom })

	if err := s.EnsureForce(false); !errors.Is(err, boom) {
		t.Fatalf("got %v, want contributor error", err)
	}
	// caches stay dirty, a later request retries
	calls := 0
	s.onForce[0] = func() error {
		calls++
		s.ForceZeroDisable()
		return nil
	}
	if err := s.EnsureForce(false); err != nil {
		t.Fatal(err)
	}
	if calls != 1 {
		t.Error("failed update did not stay dirty")
	}
}

func TestEnsureForce_PrependObserverMayInvalidate(t *testing.T) {
	s, err := New[numeric.Vec2](4, 1)
	if err != nil {
		t.Fatal(err)
	}
	calls := 0
	s.OnForce(func() error {
		calls++
		s.ForceZeroDisable()
		return nil
	})
	if err := s.EnsureForce(false); err != nil {
		t.Fatal(err)
	}

	// a pre-force observer marking dirty (like a stale neighbor list)
	// must cause a recompute within the same request
	invalidate := true
	s.OnPrependForce(func() error {
		if invalidate {
			s.MarkForceDirty()
			invalidate = false
		}
		return nil
	})
	if err := s.EnsureForce(false); err != nil {
		t.Fatal(err)
	}
	if calls != 2 {
		t.Errorf("contributor ran %d times, want 2", calls)
	}
}

func TestSetData_InvalidatesForceArrays(t *testing.T) {
	s, err := New[numeric.Vec2](2, 1)
	if err != nil {
		t.Fatal(err)
	}
	s.OnForce(func() error {
		s.ForceZeroDisable()
		return nil
	})
	if err := s.EnsureForce(false); err != nil {
		t.Fatal(err)
	}

	if err := SetData[numeric.Vec2](s, NamePosition, []numeric.Vec2{{1, 1}, {2, 2}}); err != nil {
		t.Fatal(err)
	}
	if err := s.EnsureForce(false); err != nil {
		t.Fatal(err)
	}
	if s.Stats().ForceUpdates != 2 {
		t.Error("replacing positions did not invalidate forces")
	}

	// velocity is not a force input
	if err := SetData[numeric.Vec2](s, NameVelocity, []numeric.Vec2{{1, 0}, {0, 1}}); err != nil {
		t.Fatal(err)
	}
	if err := s.EnsureForce(false); err != nil {
		t.Fatal(err)
	}
	if s.Stats().ForceUpdates != 2 {
		t.Error("replacing velocities invalidated forces")
	}
}

func TestSetData_LengthMismatch(t *testing.T) {
	s, err := New[numeric.Vec2](3, 1)
	if err != nil {
		t.Fatal(err)
	}
	err = SetData[numeric.Vec2](s, NamePosition, []numeric.Vec2{{1, 1}})
	if !errors.Is(err, md.ErrInvalidArgument) {
		t.Errorf("got %v", err)
	}
}

func TestRegister_CustomArray(t *testing.T) {
	s, err := New[numeric.Vec2](3, 1)
	if err != nil {
		t.Fatal(err)
	}
	if err := Register[float64](s, "charge", 1); err != nil {
		t.Fatal(err)
	}
	if err := Register[float64](s, "charge", 1); !errors.Is(err, md.ErrInvalidArgument) {
		t.Errorf("duplicate registration: got %v", err)
	}

	charge, err := MutableData[float64](s, "charge")
	if err != nil {
		t.Fatal(err)
	}
	charge[0], charge[1], charge[2] = -1, 0, 1

	// custom arrays are co-permuted
	if err := s.Rearrange([]int{2, 1, 0}); err != nil {
		t.Fatal(err)
	}
	got, err := Data[float64](s, "charge")
	if err != nil {
		t.Fatal(err)
	}
	if got[0] != 1 || got[2] != -1 {
		t.Errorf("charge not permuted: %v", got)
	}
}

func TestData_Errors(t *testing.T) {
	s, err := New[numeric.Vec2](3, 1)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := Data[float64](s, "missing"); !errors.Is(err, md.ErrInvalidArgument) {
		t.Errorf("missing array: got %v", err)
	}
	if _, err := Data[float64](s, NamePosition); !errors.Is(err, md.ErrInvalidArgument) {
		t.Errorf("wrong element type: got %v", err)
	}
}

func TestRearrange_MaintainsIdentityInvariant(t *testing.T) {
	s, err := New[numeric.Vec2](6, 1)
	if err != nil {
		t.Fatal(err)
	}
	pos := s.MutablePosition()
	for i := range pos {
		pos[i] = numeric.Vec2{float64(i), 0}
	}
	s.MarkForceDirty()

	perm := []int{3, 0, 5, 1, 4, 2}
	if err := s.Rearrange(perm); err != nil {
		t.Fatal(err)
	}

	id, rid := s.ID(), s.ReverseID()
	pos = s.Position()
	for k := range id {
		// rid[id[k]] == k, and the tag still names the original particle
		if rid[id[k]] != uint32(k) {
			t.Errorf("slot %d: rid[id[%d]]=%d", k, k, rid[id[k]])
		}
		if pos[k][0] != float64(id[k]) {
			t.Errorf("slot %d: position %v does not match tag %d", k, pos[k], id[k])
		}
	}

	// a second rearrange composes correctly
	if err := s.Rearrange([]int{1, 2, 3, 4, 5, 0}); err != nil {
		t.Fatal(err)
	}
	id, rid = s.ID(), s.ReverseID()
	for k := range id {
		if rid[id[k]] != uint32(k) {
			t.Errorf("after second rearrange, slot %d: rid[id[%d]]=%d", k, k, rid[id[k]])
		}
	}
}

func TestRearrange_Validation(t *testing.T) {
	s, err := New[numeric.Vec2](3, 1)
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Rearrange([]int{0, 1}); !errors.Is(err, md.ErrInvalidArgument) {
		t.Errorf("short permutation: got %v", err)
	}
	if err := s.Rearrange([]int{0, 1, 3}); !errors.Is(err, md.ErrInvalidArgument) {
		t.Errorf("out of range entry: got %v", err)
	}
}

func TestRearrange_InvalidatesAndNotifies(t *testing.T) {
	s, err := New[numeric.Vec2](4, 1)
	if err != nil {
		t.Fatal(err)
	}
	s.OnForce(func() error {
		s.ForceZeroDisable()
		return nil
	})
	if err := s.EnsureForce(false); err != nil {
		t.Fatal(err)
	}

	notified := false
	s.OnRearrange(func() { notified = true })

	if err := s.Rearrange([]int{1, 0, 3, 2}); err != nil {
		t.Fatal(err)
	}
	if !notified {
		t.Error("rearrange observer not called")
	}
	if err := s.EnsureForce(false); err != nil {
		t.Fatal(err)
	}
	if s.Stats().ForceUpdates != 2 {
		t.Error("rearrange did not invalidate forces")
	}
}
