// Package box defines the periodic simulation cell and the minimum-image
// reduction shared by the force evaluators and the integrators.
package box

import (
	"fmt"

	"github.com/san-kum/mdsim/internal/md"
	"github.com/san-kum/mdsim/internal/numeric"
)

// Box is a periodic rectangular cell. The edge lengths are fixed for the
// duration of a simulation.
type Box[V numeric.Vector[V]] struct {
	length V
	volume float64
}

// New validates the edge-length vector and returns the cell.
func New[V numeric.Vector[V]](length V) (*Box[V], error) {
	vol := 1.0
	for i := 0; i < length.Dim(); i++ {
		l := length.At(i)
		if l <= 0 {
			return nil, fmt.Errorf("box edge %d is %g, must be positive: %w",
				i, l, md.ErrInvalidArgument)
		}
		vol *= l
	}
	return &Box[V]{length: length, volume: vol}, nil
}

// Cube returns a box with every edge set to l.
func Cube[V numeric.Vector[V]](l float64) (*Box[V], error) {
	var length V
	for i := 0; i < length.Dim(); i++ {
		length = length.With(i, l)
	}
	return New(length)
}

func (b *Box[V]) Length() V      { return b.length }
func (b *Box[V]) Volume() float64 { return b.volume }

// ReducePeriodic folds r into [-L/2, L/2) componentwise and returns the
// wrapped vector together with the number of periodic crossings.
//
// Single-subtraction folding is exact only for |r| < L per component;
// displacements accumulated over one timestep satisfy this by a wide
// margin.
func (b *Box[V]) ReducePeriodic(r V) (V, V) {
	image := r.Div(b.length).Round()
	return r.Sub(image.Mul(b.length)), image
}

// MinImage returns the minimum-image displacement for a raw pair
// separation.
func (b *Box[V]) MinImage(dr V) V {
	wrapped, _ := b.ReducePeriodic(dr)
	return wrapped
}
