package potential

import (
	"fmt"
	"math"

	"github.com/san-kum/mdsim/internal/md"
)

// Smooth composes a C² smoothing window over a pair potential near its
// cutoff. The window
//
//	g(x) = x^4 / (1 + x^4),  x = (r_cut - r) / h
//
// takes the shifted potential smoothly to zero, keeping force and its
// derivative continuous at r = r_cut.
type Smooth struct {
	inner Pair
	h     float64
}

// NewSmooth wraps a pair potential with smoothing scale h in units of
// distance.
func NewSmooth(inner Pair, h float64) (*Smooth, error) {
	if h <= 0 {
		return nil, fmt.Errorf("smoothing scale %g, must be positive: %w",
			h, md.ErrInvalidArgument)
	}
	return &Smooth{inner: inner, h: h}, nil
}

func (p *Smooth) Evaluate(rr float64, a, b int) (float64, float64) {
	fval, en := p.inner.Evaluate(rr, a, b)

	r := math.Sqrt(rr)
	x := (p.inner.RCut(a, b) - r) / p.h
	x2 := x * x
	x4 := x2 * x2
	g := x4 / (1 + x4)
	// dg/dr = -g'(x)/h
	dg := 4 * x2 * x / ((1 + x4) * (1 + x4)) / p.h

	// U_s = g U; -U_s'/r = g (-U'/r) + U dg/dr / r
	return g*fval + en*dg/r, g * en
}

func (p *Smooth) RRCut(a, b int) float64 { return p.inner.RRCut(a, b) }
func (p *Smooth) RCut(a, b int) float64  { return p.inner.RCut(a, b) }
func (p *Smooth) Size() int              { return p.inner.Size() }

// Inner returns the wrapped potential.
func (p *Smooth) Inner() Pair { return p.inner }
