package analysis

import (
	"github.com/san-kum/mdsim/internal/box"
	"github.com/san-kum/mdsim/internal/numeric"
	"github.com/san-kum/mdsim/internal/particle"
)

// Correlator accumulates trajectory snapshots for time correlations.
type Correlator[V numeric.Vector[V]] struct {
	box *box.Box[V]
	dt  float64

	// snapshots indexed [frame][particle id]
	positions  [][]V
	velocities [][]V
}

// NewCorrelator records frames spaced dt apart in simulation time.
func NewCorrelator[V numeric.Vector[V]](bx *box.Box[V], dt float64) *Correlator[V] {
	return &Correlator[V]{box: bx, dt: dt}
}

// Record snapshots the current state. Positions are unwrapped through the
// periodic image counters and stored by particle id.
func (c *Correlator[V]) Record(sys *particle.System[V]) {
	pos := sys.Position()
	img := sys.Image()
	vel := sys.Velocity()
	id := sys.ID()
	l := c.box.Length()

	r := make([]V, len(pos))
	v := make([]V, len(pos))
	for i := range pos {
		r[id[i]] = pos[i].Add(img[i].Mul(l))
		v[id[i]] = vel[i]
	}
	c.positions = append(c.positions, r)
	c.velocities = append(c.velocities, v)
}

// Frames returns the number of recorded snapshots.
func (c *Correlator[V]) Frames() int { return len(c.positions) }

// Dt returns the frame spacing in simulation time.
func (c *Correlator[V]) Dt() float64 { return c.dt }

// MSD returns the mean-square displacement for every lag, averaged over
// particles and time origins.
func (c *Correlator[V]) MSD() []float64 {
	nf := len(c.positions)
	if nf < 2 {
		return nil
	}
	msd := make([]float64, nf)
	for lag := 1; lag < nf; lag++ {
		var sum numeric.DSFloat
		count := 0
		for t0 := 0; t0+lag < nf; t0++ {
			a, b := c.positions[t0], c.positions[t0+lag]
			for i := range a {
				dr := b[i].Sub(a[i])
				sum = sum.Add(dr.Dot(dr))
			}
			count += len(a)
		}
		msd[lag] = sum.Value() / float64(count)
	}
	return msd
}

// VACF returns the velocity autocorrelation for every lag, averaged over
// particles and time origins.
func (c *Correlator[V]) VACF() []float64 {
	nf := len(c.velocities)
	if nf == 0 {
		return nil
	}
	vacf := make([]float64, nf)
	for lag := 0; lag < nf; lag++ {
		var sum numeric.DSFloat
		count := 0
		for t0 := 0; t0+lag < nf; t0++ {
			a, b := c.velocities[t0], c.velocities[t0+lag]
			for i := range a {
				sum = sum.Add(a[i].Dot(b[i]))
			}
			count += len(a)
		}
		vacf[lag] = sum.Value() / float64(count)
	}
	return vacf
}

// Spectrum returns the power spectrum of a correlation series, truncated
// to the largest power-of-two prefix.
func Spectrum(series []float64) []float64 {
	n := 1
	for n*2 <= len(series) {
		n *= 2
	}
	if n < 2 {
		return nil
	}
	return PowerSpectrum(series[:n])
}
