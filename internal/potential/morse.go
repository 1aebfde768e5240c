package potential

import (
	"math"

	"github.com/san-kum/mdsim/internal/numeric"
)

// Morse is the Morse potential with energy shift at the cutoff,
//
//	U(r) = eps (exp(x) - 2) exp(x),  x = (r_min - r) / sigma
//
// with the well of depth eps at the pair separation r_min.
type Morse struct {
	epsilon   *numeric.Matrix
	sigma     *numeric.Matrix
	rMin      *numeric.Matrix
	rCutSigma *numeric.Matrix

	rCut  *numeric.Matrix
	rrCut *numeric.Matrix
	enCut *numeric.Matrix
}

// NewMorse builds the potential from species-pair matrices of well depth,
// well width, well position and cutoff in units of sigma.
func NewMorse(epsilon, sigma, rMin, rCutSigma *numeric.Matrix) (*Morse, error) {
	n := epsilon.Size()
	if err := numeric.CheckShapes(n, epsilon, sigma, rMin, rCutSigma); err != nil {
		return nil, err
	}

	p := &Morse{
		epsilon:   epsilon,
		sigma:     sigma,
		rMin:      rMin,
		rCutSigma: rCutSigma,
		rCut:      rCutSigma.MapWith(sigma, func(a, b float64) float64 { return a * b }),
	}
	p.rrCut = p.rCut.MapWith(p.rCut, func(a, b float64) float64 { return a * b })

	p.enCut = numeric.NewMatrix(n)
	for a := 0; a < n; a++ {
		for b := 0; b < n; b++ {
			exp := math.Exp((rMin.At(a, b) - p.rCut.At(a, b)) / sigma.At(a, b))
			p.enCut.Set(a, b, epsilon.At(a, b)*(exp-2)*exp)
		}
	}
	return p, nil
}

func (p *Morse) Evaluate(rr float64, a, b int) (float64, float64) {
	r := math.Sqrt(rr)
	sigma := p.sigma.At(a, b)
	eps := p.epsilon.At(a, b)
	exp := math.Exp((p.rMin.At(a, b) - r) / sigma)
	fval := 2 * eps / sigma * (exp - 1) * exp / r
	en := eps*(exp-2)*exp - p.enCut.At(a, b)
	return fval, en
}

func (p *Morse) RRCut(a, b int) float64 { return p.rrCut.At(a, b) }
func (p *Morse) RCut(a, b int) float64  { return p.rCut.At(a, b) }
func (p *Morse) Size() int              { return p.epsilon.Size() }

func (p *Morse) Epsilon() *numeric.Matrix { return p.epsilon }
func (p *Morse) Sigma() *numeric.Matrix   { return p.sigma }
func (p *Morse) RMin() *numeric.Matrix    { return p.rMin }
