package particle

import (
	"fmt"

	"github.com/san-kum/mdsim/internal/md"
	"github.com/san-kum/mdsim/internal/numeric"
)

// Names of the arrays every System registers at construction.
const (
	NamePosition  = "position"
	NameSpecies   = "species"
	NameVelocity  = "velocity"
	NameMass      = "mass"
	NameImage     = "image"
	NameID        = "id"
	NameReverseID = "reverse_id"
	NameForce     = "force"
	NameEnPot     = "en_pot"
	NameStressPot = "stress_pot"
)

// Arrays are padded to a multiple of this particle count. The pad region
// is zero-filled and excluded from the logical views handed to consumers,
// so bulk kernels may run over full padded rows without corrupting
// reductions.
const padGranule = 32

type slot interface {
	gather(index []int) slot
}

type array[T any] struct {
	data   []T // padded backing store
	n      int // logical particle count
	stride int // elements per particle
}

func newArray[T any](n, stride int) *array[T] {
	padded := (n + padGranule - 1) / padGranule * padGranule
	return &array[T]{data: make([]T, padded*stride), n: n, stride: stride}
}

// view returns the logical, pad-free prefix.
func (a *array[T]) view() []T {
	return a.data[:a.n*a.stride]
}

func (a *array[T]) gather(index []int) slot {
	buf := &array[T]{data: make([]T, len(a.data)), n: a.n, stride: a.stride}
	for newi, oldi := range index {
		copy(buf.data[newi*a.stride:(newi+1)*a.stride],
			a.data[oldi*a.stride:(oldi+1)*a.stride])
	}
	return buf
}

// Stats counts completed recomputation passes, for instrumentation.
type Stats struct {
	ForceUpdates uint64
	AuxUpdates   uint64
}

// System is the particle state container. It is not safe for concurrent
// use; the driving loop serializes timesteps and with them all calls into
// the container.
type System[V numeric.Vector[V]] struct {
	n        int
	nspecies int
	dim      int

	slots map[string]slot
	names []string // registration order

	// dirty/force-update protocol state
	forceZero  bool
	forceDirty bool
	auxDirty   bool
	auxEnabled bool

	prependForce []func() error
	onForce      []func() error
	appendForce  []func() error
	onRearrange  []func()

	updating  bool
	auxWarned bool
	stats     Stats
}

// New allocates the particle arrays for n particles of nspecies species.
// All arrays are zero-initialized except the masses, which default to unit
// mass, and the id/reverse-id maps, which start as the identity
// permutation.
func New[V numeric.Vector[V]](n, nspecies int) (*System[V], error) {
	if n <= 0 {
		return nil, fmt.Errorf("number of particles is %d, must be positive: %w",
			n, md.ErrInvalidArgument)
	}
	if nspecies <= 0 {
		return nil, fmt.Errorf("number of species is %d, must be positive: %w",
			nspecies, md.ErrInvalidArgument)
	}

	var zero V
	s := &System[V]{
		n:        n,
		nspecies: nspecies,
		dim:      zero.Dim(),
		slots:    make(map[string]slot),

		// the first EnsureForce after construction must run a full pass
		forceDirty: true,
		auxDirty:   true,
	}

	s.register(NamePosition, newArray[V](n, 1))
	s.register(NameSpecies, newArray[uint32](n, 1))
	s.register(NameVelocity, newArray[V](n, 1))
	s.register(NameMass, newArray[float64](n, 1))
	s.register(NameImage, newArray[V](n, 1))
	s.register(NameID, newArray[uint32](n, 1))
	s.register(NameReverseID, newArray[uint32](n, 1))
	s.register(NameForce, newArray[V](n, 1))
	s.register(NameEnPot, newArray[float64](n, 1))
	s.register(NameStressPot, newArray[float64](n, numeric.SymLen(s.dim)))

	mass := mustSlot[float64](s, NameMass).view()
	for i := range mass {
		mass[i] = 1
	}
	id := mustSlot[uint32](s, NameID).view()
	rid := mustSlot[uint32](s, NameReverseID).view()
	for i := range id {
		id[i] = uint32(i)
		rid[i] = uint32(i)
	}
	return s, nil
}

func (s *System[V]) register(name string, a slot) {
	s.slots[name] = a
	s.names = append(s.names, name)
}

// Len returns the number of particles. The count is fixed at construction.
func (s *System[V]) Len() int { return s.n }

// Nspecies returns the number of particle species.
func (s *System[V]) Nspecies() int { return s.nspecies }

// Dim returns the spatial dimension.
func (s *System[V]) Dim() int { return s.dim }

// Register adds a user-defined named array with the given elements per
// particle. Registered arrays are co-permuted by Rearrange.
func Register[T any, V numeric.Vector[V]](s *System[V], name string, stride int) error {
	if _, ok := s.slots[name]; ok {
		return fmt.Errorf("particle array %q already registered: %w",
			name, md.ErrInvalidArgument)
	}
	if stride <= 0 {
		return fmt.Errorf("particle array %q stride %d, must be positive: %w",
			name, stride, md.ErrInvalidArgument)
	}
	s.register(name, newArray[T](s.n, stride))
	return nil
}

func lookup[T any, V numeric.Vector[V]](s *System[V], name string) (*array[T], error) {
	sl, ok := s.slots[name]
	if !ok {
		return nil, fmt.Errorf("particle array %q not registered: %w",
			name, md.ErrInvalidArgument)
	}
	a, ok := sl.(*array[T])
	if !ok {
		return nil, fmt.Errorf("particle array %q has a different element type: %w",
			name, md.ErrInvalidArgument)
	}
	return a, nil
}

func mustSlot[T any, V numeric.Vector[V]](s *System[V], name string) *array[T] {
	a, err := lookup[T](s, name)
	if err != nil {
		panic(err)
	}
	return a
}

// Data returns a read-only view of a named array. The slice must not be
// mutated; use MutableData for write access.
func Data[T any, V numeric.Vector[V]](s *System[V], name string) ([]T, error) {
	a, err := lookup[T](s, name)
	if err != nil {
		return nil, err
	}
	return a.view(), nil
}

// MutableData returns a writable view of a named array. The caller is
// responsible for marking the relevant dirty flag after mutating a
// quantity that forces depend on; see MarkForceDirty.
func MutableData[T any, V numeric.Vector[V]](s *System[V], name string) ([]T, error) {
	a, err := lookup[T](s, name)
	if err != nil {
		return nil, err
	}
	return a.view(), nil
}

// SetData replaces the contents of a named array in bulk. Replacing an
// array that forces depend on (position, species, image) invalidates the
// cached force and auxiliary variables.
func SetData[T any, V numeric.Vector[V]](s *System[V], name string, values []T) error {
	dst, err := MutableData[T](s, name)
	if err != nil {
		return err
	}
	if len(values) != len(dst) {
		return fmt.Errorf("particle array %q: input length %d, want %d: %w",
			name, len(values), len(dst), md.ErrInvalidArgument)
	}
	copy(dst, values)
	switch name {
	case NamePosition, NameSpecies, NameImage:
		s.MarkForceDirty()
		s.MarkAuxDirty()
	}
	return nil
}

// Typed accessors for the built-in arrays. Like MutableData, the mutable
// variants leave dirty-marking to the caller.

func (s *System[V]) Position() []V  { return mustSlot[V](s, NamePosition).view() }
func (s *System[V]) Species() []uint32 {
	return mustSlot[uint32](s, NameSpecies).view()
}
func (s *System[V]) Velocity() []V     { return mustSlot[V](s, NameVelocity).view() }
func (s *System[V]) Mass() []float64   { return mustSlot[float64](s, NameMass).view() }
func (s *System[V]) Image() []V        { return mustSlot[V](s, NameImage).view() }
func (s *System[V]) ID() []uint32      { return mustSlot[uint32](s, NameID).view() }
func (s *System[V]) ReverseID() []uint32 {
	return mustSlot[uint32](s, NameReverseID).view()
}

func (s *System[V]) MutablePosition() []V {
	v, _ := MutableData[V](s, NamePosition)
	return v
}

func (s *System[V]) MutableSpecies() []uint32 {
	v, _ := MutableData[uint32](s, NameSpecies)
	return v
}

func (s *System[V]) MutableVelocity() []V {
	v, _ := MutableData[V](s, NameVelocity)
	return v
}

func (s *System[V]) MutableImage() []V {
	v, _ := MutableData[V](s, NameImage)
	return v
}

// Accessors for the accumulator arrays, used by force contributors inside
// an update pass. They do not mark anything dirty.

func (s *System[V]) MutableForce() []V { return mustSlot[V](s, NameForce).view() }
func (s *System[V]) MutableEnPot() []float64 {
	return mustSlot[float64](s, NameEnPot).view()
}
func (s *System[V]) MutableStressPot() []float64 {
	return mustSlot[float64](s, NameStressPot).view()
}

// Force returns the per-particle forces, recomputing them if stale.
func (s *System[V]) Force() ([]V, error) {
	if err := s.EnsureForce(false); err != nil {
		return nil, err
	}
	return mustSlot[V](s, NameForce).view(), nil
}

// PotentialEnergy returns the per-particle potential energies, recomputing
// force and auxiliary variables if stale.
func (s *System[V]) PotentialEnergy() ([]float64, error) {
	if err := s.EnsureForce(true); err != nil {
		return nil, err
	}
	return mustSlot[float64](s, NameEnPot).view(), nil
}

// StressPot returns the packed per-particle potential stress tensors,
// recomputing force and auxiliary variables if stale.
func (s *System[V]) StressPot() ([]float64, error) {
	if err := s.EnsureForce(true); err != nil {
		return nil, err
	}
	return mustSlot[float64](s, NameStressPot).view(), nil
}

// Stats returns recomputation counters.
func (s *System[V]) Stats() Stats { return s.stats }
