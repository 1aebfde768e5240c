package potential

import (
	"fmt"
	"math"

	"github.com/san-kum/mdsim/internal/md"
	"github.com/san-kum/mdsim/internal/numeric"
)

// External is a per-particle potential evaluated at an absolute position.
type External[V numeric.Vector[V]] interface {
	// EvaluateAt returns the force on a particle of the given species at
	// position r and the potential energy contribution.
	EvaluateAt(r V, species int) (force V, en float64)
}

// Slit confines particles between two planar walls a distance width apart,
// centred at offset with the given surface normal. Each wall carries a 9-3
// potential per species,
//
//	U(d) = eps ((2/15)(sigma/d)^9 - c (sigma/d)^3)
//
// where d is the distance to the wall and c the wetting parameter.
// Parameter matrices have one row per species and one column per wall.
type Slit[V numeric.Vector[V]] struct {
	width  float64
	offset V
	normal V

	epsilon [][]float64
	sigma   [][]float64
	wetting [][]float64

	offsetDotNormal float64
	width2          float64
}

// NewSlit validates the geometry and the parameter lists, which carry one
// row per species and one column per wall.
func NewSlit[V numeric.Vector[V]](width float64, offset, normal V, epsilon, sigma, wetting [][]float64) (*Slit[V], error) {
	if width <= 0 {
		return nil, fmt.Errorf("slit width %g, must be positive: %w",
			width, md.ErrInvalidArgument)
	}
	nn := normal.Dot(normal)
	if nn == 0 {
		return nil, fmt.Errorf("slit surface normal is zero: %w", md.ErrInvalidArgument)
	}
	for _, m := range [][][]float64{epsilon, sigma, wetting} {
		if len(m) != len(epsilon) {
			return nil, fmt.Errorf("slit parameter lists have mismatching shapes: %w",
				md.ErrInvalidArgument)
		}
		for _, row := range m {
			if len(row) != 2 {
				return nil, fmt.Errorf("slit parameters need one column per wall, got %d: %w",
					len(row), md.ErrInvalidArgument)
			}
		}
	}

	normal = normal.Scale(1 / math.Sqrt(nn))
	return &Slit[V]{
		width:           width,
		offset:          offset,
		normal:          normal,
		epsilon:         epsilon,
		sigma:           sigma,
		wetting:         wetting,
		offsetDotNormal: offset.Dot(normal),
		width2:          width / 2,
	}, nil
}

func (p *Slit[V]) EvaluateAt(r V, species int) (V, float64) {
	// signed distance from the slit centre plane
	h := r.Dot(p.normal) - p.offsetDotNormal

	var force V
	en := 0.0
	for wall := 0; wall < 2; wall++ {
		// distance to this wall; wall 0 sits at -width/2, wall 1 at +width/2
		var d, sign float64
		if wall == 0 {
			d, sign = p.width2+h, 1
		} else {
			d, sign = p.width2-h, -1
		}

		eps := p.epsilon[species][wall]
		c := p.wetting[species][wall]
		s3 := powUint(p.sigma[species][wall]/d, 3)
		s9 := s3 * s3 * s3

		en += eps * (2.0/15.0*s9 - c*s3)
		// -dU/dd along the wall normal
		dU := eps * (1.2*s9 - 3*c*s3) / d
		force = force.Add(p.normal.Scale(sign * dU))
	}
	return force, en
}

func (p *Slit[V]) Width() float64         { return p.width }
func (p *Slit[V]) Epsilon() [][]float64   { return p.epsilon }
func (p *Slit[V]) Sigma() [][]float64     { return p.sigma }
func (p *Slit[V]) Wetting() [][]float64   { return p.wetting }
