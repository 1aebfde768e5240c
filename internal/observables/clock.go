// Package observables derives thermodynamic quantities from the settled
// particle state.
package observables

// Clock counts completed simulation steps. Observable caches are keyed by
// it, so a quantity is computed at most once per step no matter how many
// consumers read it.
type Clock struct {
	step uint64
}

func (c *Clock) Step() uint64 { return c.step }
func (c *Clock) Advance()     { c.step++ }

type cachedScalar struct {
	step  uint64
	valid bool
	value float64
}

func (c *cachedScalar) get(clock *Clock, compute func() float64) float64 {
	if !c.valid || c.step != clock.Step() {
		c.value = compute()
		c.step = clock.Step()
		c.valid = true
	}
	return c.value
}
