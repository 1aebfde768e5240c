package potential

import (
	"github.com/san-kum/mdsim/internal/numeric"
)

// LennardJones is the 12-6 Lennard-Jones potential with energy shift at
// the cutoff,
//
//	U(r) = 4 eps ((sigma/r)^12 - (sigma/r)^6) - U_c
//
// parameterized per species pair.
type LennardJones struct {
	epsilon   *numeric.Matrix
	sigma     *numeric.Matrix
	rCutSigma *numeric.Matrix

	sigma2 *numeric.Matrix
	rCut   *numeric.Matrix
	rrCut  *numeric.Matrix
	enCut  *numeric.Matrix
}

// NewLennardJones builds the potential from species-pair matrices of well
// depth, pair separation and cutoff in units of sigma. All matrices must
// share the same square shape.
func NewLennardJones(epsilon, sigma, rCutSigma *numeric.Matrix) (*LennardJones, error) {
	n := epsilon.Size()
	if err := numeric.CheckShapes(n, epsilon, sigma, rCutSigma); err != nil {
		return nil, err
	}

	p := &LennardJones{
		epsilon:   epsilon,
		sigma:     sigma,
		rCutSigma: rCutSigma,
		sigma2:    sigma.MapWith(sigma, func(a, b float64) float64 { return a * b }),
		rCut:      rCutSigma.MapWith(sigma, func(a, b float64) float64 { return a * b }),
	}
	p.rrCut = p.rCut.MapWith(p.rCut, func(a, b float64) float64 { return a * b })

	// energy at the cutoff, subtracted so U(r_cut) == 0
	p.enCut = numeric.NewMatrix(n)
	for a := 0; a < n; a++ {
		for b := 0; b < n; b++ {
			rri := 1 / (p.rCutSigma.At(a, b) * p.rCutSigma.At(a, b))
			r6i := rri * rri * rri
			p.enCut.Set(a, b, 4*epsilon.At(a, b)*r6i*(r6i-1))
		}
	}
	return p, nil
}

func (p *LennardJones) Evaluate(rr float64, a, b int) (float64, float64) {
	sigma2 := p.sigma2.At(a, b)
	rri := sigma2 / rr
	r6i := rri * rri * rri
	epsR6i := p.epsilon.At(a, b) * r6i
	fval := 48 * rri * epsR6i * (r6i - 0.5) / sigma2
	en := 4*epsR6i*(r6i-1) - p.enCut.At(a, b)
	return fval, en
}

func (p *LennardJones) RRCut(a, b int) float64 { return p.rrCut.At(a, b) }
func (p *LennardJones) RCut(a, b int) float64  { return p.rCut.At(a, b) }
func (p *LennardJones) Size() int              { return p.epsilon.Size() }

// Parameter matrices, for introspection and logging.

func (p *LennardJones) Epsilon() *numeric.Matrix   { return p.epsilon }
func (p *LennardJones) Sigma() *numeric.Matrix     { return p.sigma }
func (p *LennardJones) RCutSigma() *numeric.Matrix { return p.rCutSigma }
