package potential

import (
	"fmt"
	"math"

	"github.com/san-kum/mdsim/internal/md"
	"github.com/san-kum/mdsim/internal/numeric"
)

// PowerLaw is the inverse power-law potential with energy shift at the
// cutoff,
//
//	U(r) = eps (sigma/r)^n
//
// with a per-species-pair integer index n.
type PowerLaw struct {
	epsilon   *numeric.Matrix
	sigma     *numeric.Matrix
	index     *numeric.Matrix
	rCutSigma *numeric.Matrix

	sigma2 *numeric.Matrix
	rCut   *numeric.Matrix
	rrCut  *numeric.Matrix
	enCut  *numeric.Matrix
}

// NewPowerLaw builds the potential. The index matrix holds positive
// integer exponents stored as floats.
func NewPowerLaw(epsilon, sigma, index, rCutSigma *numeric.Matrix) (*PowerLaw, error) {
	n := epsilon.Size()
	if err := numeric.CheckShapes(n, epsilon, sigma, index, rCutSigma); err != nil {
		return nil, err
	}
	for a := 0; a < n; a++ {
		for b := 0; b < n; b++ {
			idx := index.At(a, b)
			if idx < 1 || idx != math.Trunc(idx) {
				return nil, fmt.Errorf("power law index %g for pair (%d,%d), "+
					"must be a positive integer: %w", idx, a, b, md.ErrInvalidArgument)
			}
		}
	}

	p := &PowerLaw{
		epsilon:   epsilon,
		sigma:     sigma,
		index:     index,
		rCutSigma: rCutSigma,
		sigma2:    sigma.MapWith(sigma, func(a, b float64) float64 { return a * b }),
		rCut:      rCutSigma.MapWith(sigma, func(a, b float64) float64 { return a * b }),
	}
	p.rrCut = p.rCut.MapWith(p.rCut, func(a, b float64) float64 { return a * b })

	p.enCut = numeric.NewMatrix(n)
	for a := 0; a < n; a++ {
		for b := 0; b < n; b++ {
			rni := powUint(1/rCutSigma.At(a, b), uint(index.At(a, b)))
			p.enCut.Set(a, b, epsilon.At(a, b)*rni)
		}
	}
	return p, nil
}

func (p *PowerLaw) Evaluate(rr float64, a, b int) (float64, float64) {
	n := uint(p.index.At(a, b))
	rri := p.sigma2.At(a, b) / rr
	var rni float64
	if n%2 == 0 {
		rni = powUint(rri, n/2)
	} else {
		rni = powUint(math.Sqrt(rri), n)
	}
	enUnshifted := p.epsilon.At(a, b) * rni
	fval := float64(n) * enUnshifted / rr
	return fval, enUnshifted - p.enCut.At(a, b)
}

func (p *PowerLaw) RRCut(a, b int) float64 { return p.rrCut.At(a, b) }
func (p *PowerLaw) RCut(a, b int) float64  { return p.rCut.At(a, b) }
func (p *PowerLaw) Size() int              { return p.epsilon.Size() }

func (p *PowerLaw) Epsilon() *numeric.Matrix { return p.epsilon }
func (p *PowerLaw) Sigma() *numeric.Matrix   { return p.sigma }
func (p *PowerLaw) Index() *numeric.Matrix   { return p.index }
