package particle

import (
	"fmt"
	"log"

	"github.com/san-kum/mdsim/internal/md"
)

// RequestAux enables computation of the auxiliary variables (potential
// energy, stress tensor) for the next force update only. Consumers that
// need auxiliary data for a step must call this before the step's force
// update runs.
func (s *System[V]) RequestAux() {
	s.auxEnabled = true
}

// AuxEnabled reports whether the current (or next) force update computes
// auxiliary variables. Force contributors consult it inside an update
// pass.
func (s *System[V]) AuxEnabled() bool { return s.auxEnabled }

// ForceZero reports whether the force accumulators must be reset before
// the first contribution is added.
func (s *System[V]) ForceZero() bool { return s.forceZero }

// ForceZeroDisable must be called by the contributor that performed the
// reset, so later contributors accumulate instead.
func (s *System[V]) ForceZeroDisable() { s.forceZero = false }

// MarkForceDirty flags the cached forces as stale.
func (s *System[V]) MarkForceDirty() { s.forceDirty = true }

// MarkAuxDirty flags the cached auxiliary variables as stale.
func (s *System[V]) MarkAuxDirty() { s.auxDirty = true }

// OnPrependForce registers an observer invoked before the staleness check
// of every force update. It may itself mark the force dirty, e.g. when a
// neighbor list went stale.
func (s *System[V]) OnPrependForce(fn func() error) {
	s.prependForce = append(s.prependForce, fn)
}

// OnForce registers a force contributor. Contributors run in registration
// order; the first one consumes the reset flag.
func (s *System[V]) OnForce(fn func() error) {
	s.onForce = append(s.onForce, fn)
}

// OnAppendForce registers an observer invoked after every force update
// request, once the result is settled.
func (s *System[V]) OnAppendForce(fn func() error) {
	s.appendForce = append(s.appendForce, fn)
}

// OnRearrange registers an observer invoked after every Rearrange.
func (s *System[V]) OnRearrange(fn func()) {
	s.onRearrange = append(s.onRearrange, fn)
}

// EnsureForce brings the force cache, and with withAux the auxiliary
// caches, up to date. Contributors run at most once regardless of how many
// consumers request the data during a step.
//
// A force update solely for the sake of auxiliary variables wastes the
// force pass that was already valid; that case is honored but logged once
// as a performance warning. Hard errors from observers abort the update
// and propagate; the caches stay dirty.
func (s *System[V]) EnsureForce(withAux bool) error {
	if s.updating {
		return fmt.Errorf("reentrant force update: %w", md.ErrInvalidArgument)
	}
	s.updating = true
	defer func() { s.updating = false }()

	for _, fn := range s.prependForce {
		if err := fn(); err != nil {
			return err
		}
	}

	if s.forceDirty || (s.auxDirty && (withAux || s.auxEnabled)) {
		if !s.forceDirty && !s.auxWarned {
			log.Printf("mdsim: forced recompute for auxiliary variables only; " +
				"call RequestAux before the step to fold it into the force pass")
			s.auxWarned = true
		}
		doAux := s.auxDirty && (withAux || s.auxEnabled)
		s.auxEnabled = doAux
		s.forceZero = true

		for _, fn := range s.onForce {
			if err := fn(); err != nil {
				return err
			}
		}

		s.forceDirty = false
		s.stats.ForceUpdates++
		if doAux {
			s.auxDirty = false
			s.stats.AuxUpdates++
		}
		// the request is one-shot, consumed by this pass
		s.auxEnabled = false
	}

	for _, fn := range s.appendForce {
		if err := fn(); err != nil {
			return err
		}
	}
	return nil
}

// Rearrange permutes particle storage by index, where index[new] gives the
// old storage slot. Every registered array is gathered into a fresh buffer
// and swapped in, so the operation is atomic from the caller's
// perspective; the reverse-id map is then rebuilt as the exact inverse of
// the permuted ids. Forces are invalidated.
func (s *System[V]) Rearrange(index []int) error {
	if len(index) != s.n {
		return fmt.Errorf("permutation length %d, want %d: %w",
			len(index), s.n, md.ErrInvalidArgument)
	}
	for _, oldi := range index {
		if oldi < 0 || oldi >= s.n {
			return fmt.Errorf("permutation entry %d out of range [0,%d): %w",
				oldi, s.n, md.ErrInvalidArgument)
		}
	}

	fresh := make(map[string]slot, len(s.slots))
	for _, name := range s.names {
		if name == NameReverseID {
			continue
		}
		fresh[name] = s.slots[name].gather(index)
	}
	for name, sl := range fresh {
		s.slots[name] = sl
	}

	id := mustSlot[uint32](s, NameID).view()
	rid := mustSlot[uint32](s, NameReverseID).view()
	for k, tag := range id {
		rid[tag] = uint32(k)
	}

	s.MarkForceDirty()
	s.MarkAuxDirty()
	for _, fn := range s.onRearrange {
		fn()
	}
	return nil
}
