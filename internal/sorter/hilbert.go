// Package sorter reorders particle storage along a space-filling curve
// for cache locality in the pair loops.
package sorter

import (
	"math"
	"sort"

	"github.com/san-kum/mdsim/internal/box"
	"github.com/san-kum/mdsim/internal/numeric"
	"github.com/san-kum/mdsim/internal/particle"
)

// Hilbert orders particles by their Hilbert-curve index. Ordering is
// O(N log N) and invalidates neighbor lists downstream, so the driving
// loop runs it only every Interval steps.
type Hilbert[V numeric.Vector[V]] struct {
	sys *particle.System[V]
	box *box.Box[V]

	depth uint
	// Interval is the number of steps between orderings.
	Interval int

	orders uint64
}

// NewHilbert picks the curve recursion depth from the box extent, clamped
// so the cell keys fit 32 bits (depth 16 in 2D, 10 in 3D).
func NewHilbert[V numeric.Vector[V]](sys *particle.System[V], bx *box.Box[V], interval int) *Hilbert[V] {
	maxLength := 0.0
	l := bx.Length()
	for i := 0; i < l.Dim(); i++ {
		maxLength = math.Max(maxLength, l.At(i))
	}

	depth := uint(math.Ceil(math.Log2(math.Max(maxLength, 1))))
	limit := uint(16)
	if sys.Dim() == 3 {
		limit = 10
	}
	if depth > limit {
		depth = limit
	}
	if depth == 0 {
		depth = 1
	}

	return &Hilbert[V]{sys: sys, box: bx, depth: depth, Interval: interval}
}

// Depth returns the curve recursion depth.
func (h *Hilbert[V]) Depth() uint { return h.depth }

// Orders returns how many orderings have run.
func (h *Hilbert[V]) Orders() uint64 { return h.orders }

// Order computes a locality key per particle, stable-sorts the storage
// slots by key and applies the permutation atomically through the
// particle system.
func (h *Hilbert[V]) Order() error {
	pos := h.sys.Position()
	keys := make([]uint32, len(pos))
	for i, r := range pos {
		keys[i] = h.key(r)
	}

	index := make([]int, len(pos))
	for i := range index {
		index[i] = i
	}
	sort.SliceStable(index, func(a, b int) bool {
		return keys[index[a]] < keys[index[b]]
	})

	if err := h.sys.Rearrange(index); err != nil {
		return err
	}
	h.orders++
	return nil
}

// key maps a position inside the box onto the Hilbert curve.
func (h *Hilbert[V]) key(r V) uint32 {
	l := h.box.Length()
	dim := r.Dim()
	cells := uint32(1) << h.depth

	coord := make([]uint32, dim)
	for i := 0; i < dim; i++ {
		// positions are folded to [-L/2, L/2)
		f := r.At(i)/l.At(i) + 0.5
		c := int64(f * float64(cells))
		if c < 0 {
			c = 0
		}
		if c >= int64(cells) {
			c = int64(cells) - 1
		}
		coord[i] = uint32(c)
	}

	if dim == 2 {
		return hilbert2D(coord[0], coord[1], h.depth)
	}
	return hilbertND(coord, h.depth)
}

// hilbert2D is the classic coordinate-to-distance mapping with quadrant
// rotation at each recursion level.
func hilbert2D(x, y uint32, depth uint) uint32 {
	var d uint32
	for s := uint32(1) << (depth - 1); s > 0; s >>= 1 {
		var rx, ry uint32
		if x&s > 0 {
			rx = 1
		}
		if y&s > 0 {
			ry = 1
		}
		d += s * s * ((3 * rx) ^ ry)

		// rotate the quadrant
		if ry == 0 {
			if rx == 1 {
				x = s - 1 - x
				y = s - 1 - y
			}
			x, y = y, x
		}
	}
	return d
}

// hilbertND converts grid coordinates to a Hilbert index via Skilling's
// transpose representation; used for the 3D curve.
func hilbertND(coord []uint32, depth uint) uint32 {
	n := len(coord)
	x := append([]uint32(nil), coord...)

	// inverse undo excess work
	for q := uint32(1) << (depth - 1); q > 1; q >>= 1 {
		p := q - 1
		for i := 0; i < n; i++ {
			if x[i]&q != 0 {
				x[0] ^= p
			} else {
				t := (x[0] ^ x[i]) & p
				x[0] ^= t
				x[i] ^= t
			}
		}
	}

	// Gray encode
	for i := 1; i < n; i++ {
		x[i] ^= x[i-1]
	}
	var t uint32
	for q := uint32(1) << (depth - 1); q > 1; q >>= 1 {
		if x[n-1]&q != 0 {
			t ^= q - 1
		}
	}
	for i := 0; i < n; i++ {
		x[i] ^= t
	}

	// interleave the transposed bits, x[0] carrying the highest
	var key uint32
	for b := int(depth) - 1; b >= 0; b-- {
		for i := 0; i < n; i++ {
			key = key<<1 | (x[i]>>uint(b))&1
		}
	}
	return key
}
