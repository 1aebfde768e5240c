// Package neighbor provides the pair relations consumed by truncated
// force evaluation.
package neighbor

import (
	"fmt"
	"math"

	"github.com/san-kum/mdsim/internal/box"
	"github.com/san-kum/mdsim/internal/md"
	"github.com/san-kum/mdsim/internal/numeric"
	"github.com/san-kum/mdsim/internal/particle"
)

// Source yields, for each particle i, the half list of neighbors j > i by
// storage index, so Newton's third law is exploited exactly once per pair.
type Source interface {
	Neighbors(i int) []int
}

// AllPairs is the trivial source pairing every particle with every other.
type AllPairs struct {
	lists [][]int
}

func NewAllPairs(n int) *AllPairs {
	lists := make([][]int, n)
	for i := range lists {
		js := make([]int, 0, n-i-1)
		for j := i + 1; j < n; j++ {
			js = append(js, j)
		}
		lists[i] = js
	}
	return &AllPairs{lists: lists}
}

func (a *AllPairs) Neighbors(i int) []int { return a.lists[i] }

// List is a Verlet neighbor list with skin. It registers itself as a
// pre-force observer of the particle system: before every force update it
// checks the maximum displacement since the last rebuild and rebuilds when
// half the skin has been consumed. A storage rearrange always forces a
// rebuild, since the recorded reference positions are keyed by storage
// slot.
type List[V numeric.Vector[V]] struct {
	sys  *particle.System[V]
	box  *box.Box[V]
	skin float64

	rrCutSkin float64
	lists     [][]int
	ref       []V // positions at last rebuild
	stale     bool

	rebuilds uint64
}

// NewList sizes the list for the largest pair cutoff plus skin and hooks
// it into the system's force update.
func NewList[V numeric.Vector[V]](sys *particle.System[V], bx *box.Box[V], rCutMax, skin float64) (*List[V], error) {
	if rCutMax <= 0 || skin < 0 {
		return nil, fmt.Errorf("neighbor list cutoff %g, skin %g: %w",
			rCutMax, skin, md.ErrInvalidArgument)
	}
	l := &List[V]{
		sys:       sys,
		box:       bx,
		skin:      skin,
		rrCutSkin: (rCutMax + skin) * (rCutMax + skin),
		lists:     make([][]int, sys.Len()),
		stale:     true,
	}
	sys.OnPrependForce(l.check)
	sys.OnRearrange(func() { l.stale = true })
	return l, nil
}

func (l *List[V]) Neighbors(i int) []int { return l.lists[i] }

// Rebuilds returns how many times the list was reconstructed.
func (l *List[V]) Rebuilds() uint64 { return l.rebuilds }

func (l *List[V]) check() error {
	if !l.stale && !l.displaced() {
		return nil
	}
	l.rebuild()
	return nil
}

// displaced reports whether any particle moved more than half the skin
// since the last rebuild.
func (l *List[V]) displaced() bool {
	limit := l.skin / 2
	pos := l.sys.Position()
	max := 0.0
	for i, r := range pos {
		dr := l.box.MinImage(r.Sub(l.ref[i]))
		max = math.Max(max, math.Sqrt(dr.Dot(dr)))
	}
	return max > limit
}

func (l *List[V]) rebuild() {
	pos := l.sys.Position()
	n := len(pos)
	for i := 0; i < n; i++ {
		l.lists[i] = l.lists[i][:0]
		for j := i + 1; j < n; j++ {
			dr := l.box.MinImage(pos[i].Sub(pos[j]))
			if dr.Dot(dr) < l.rrCutSkin {
				l.lists[i] = append(l.lists[i], j)
			}
		}
	}
	l.ref = append(l.ref[:0], pos...)
	l.stale = false
	l.rebuilds++
}
