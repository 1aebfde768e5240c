// Package potential defines pair and external interaction potentials.
//
// A pair potential maps a squared pair distance and a species pair to the
// scalar pseudo-force -U'(r)/r and the potential energy U(r). Evaluation
// is pure: results depend only on the arguments and the parameter
// matrices fixed at construction, never on call order.
package potential

import "math"

// Pair is the contract every pair potential implements. Evaluate is only
// called for squared distances below RRCut(a, b); the returned energy is
// shifted so it vanishes continuously at the cutoff.
type Pair interface {
	// Evaluate returns (-U'(r)/r, U(r)) at squared distance rr for the
	// species pair (a, b).
	Evaluate(rr float64, a, b int) (fval, en float64)
	// RRCut returns the squared cutoff distance for a species pair. The
	// squared form avoids a square root in the pair loop.
	RRCut(a, b int) float64
	// RCut returns the cutoff distance for a species pair.
	RCut(a, b int) float64
	// Size returns the number of species the parameter matrices cover.
	Size() int
}

// powUint computes x^n for small non-negative integer exponents by
// squaring, avoiding math.Pow in the pair loop.
func powUint(x float64, n uint) float64 {
	r := 1.0
	for n > 0 {
		if n&1 == 1 {
			r *= x
		}
		x *= x
		n >>= 1
	}
	return r
}

// MaxRCut returns the largest pair cutoff of a potential, used to size
// neighbor lists.
func MaxRCut(p Pair) float64 {
	rc := 0.0
	for a := 0; a < p.Size(); a++ {
		for b := 0; b < p.Size(); b++ {
			rc = math.Max(rc, p.RCut(a, b))
		}
	}
	return rc
}
