package numeric

import "math"

// DSFloat is a compensated accumulator built from a paired high/low word
// and Knuth's exact two-sum. Round-off does not grow with the number of
// accumulated terms, which matters for energy and virial sums over many
// millions of pair contributions feeding thermodynamic averages.
type DSFloat struct {
	Hi, Lo float64
}

// Add accumulates x and returns the updated accumulator.
func (d DSFloat) Add(x float64) DSFloat {
	// two-sum: s + e == d.Hi + x exactly
	s := d.Hi + x
	b := s - d.Hi
	e := (d.Hi - (s - b)) + (x - b)
	return DSFloat{Hi: s, Lo: d.Lo + e}
}

// AddDS accumulates another compensated value.
func (d DSFloat) AddDS(o DSFloat) DSFloat {
	return d.Add(o.Hi).Add(o.Lo)
}

// Value collapses the accumulator to a single float64.
func (d DSFloat) Value() float64 {
	return d.Hi + d.Lo
}

// IsFinite reports whether the accumulated value is finite.
func (d DSFloat) IsFinite() bool {
	v := d.Value()
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
