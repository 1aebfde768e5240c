package numeric

import "math"

// Vector is the constraint satisfied by the fixed-size vector types. Core
// packages are generic over it, so pair-force loops and integrators are
// monomorphized per dimension instead of dispatching through an interface
// value in the hot path.
type Vector[V any] interface {
	Add(V) V
	Sub(V) V
	Scale(s float64) V
	// Mul and Div are elementwise.
	Mul(V) V
	Div(V) V
	// Round rounds each component to the nearest integer.
	Round() V
	Dot(V) float64
	At(i int) float64
	// With returns a copy with component i replaced by x.
	With(i int, x float64) V
	Dim() int
	IsFinite() bool
}

// Vec2 is a two-dimensional float64 vector.
type Vec2 [2]float64

func (v Vec2) Add(o Vec2) Vec2        { return Vec2{v[0] + o[0], v[1] + o[1]} }
func (v Vec2) Sub(o Vec2) Vec2        { return Vec2{v[0] - o[0], v[1] - o[1]} }
func (v Vec2) Scale(s float64) Vec2   { return Vec2{v[0] * s, v[1] * s} }
func (v Vec2) Mul(o Vec2) Vec2        { return Vec2{v[0] * o[0], v[1] * o[1]} }
func (v Vec2) Div(o Vec2) Vec2        { return Vec2{v[0] / o[0], v[1] / o[1]} }
func (v Vec2) Round() Vec2            { return Vec2{math.Round(v[0]), math.Round(v[1])} }
func (v Vec2) Dot(o Vec2) float64     { return v[0]*o[0] + v[1]*o[1] }
func (v Vec2) At(i int) float64       { return v[i] }
func (v Vec2) With(i int, x float64) Vec2 {
	v[i] = x
	return v
}
func (v Vec2) Dim() int { return 2 }

func (v Vec2) IsFinite() bool {
	return !math.IsNaN(v[0]) && !math.IsInf(v[0], 0) &&
		!math.IsNaN(v[1]) && !math.IsInf(v[1], 0)
}

// Vec3 is a three-dimensional float64 vector.
type Vec3 [3]float64

func (v Vec3) Add(o Vec3) Vec3      { return Vec3{v[0] + o[0], v[1] + o[1], v[2] + o[2]} }
func (v Vec3) Sub(o Vec3) Vec3      { return Vec3{v[0] - o[0], v[1] - o[1], v[2] - o[2]} }
func (v Vec3) Scale(s float64) Vec3 { return Vec3{v[0] * s, v[1] * s, v[2] * s} }
func (v Vec3) Mul(o Vec3) Vec3      { return Vec3{v[0] * o[0], v[1] * o[1], v[2] * o[2]} }
func (v Vec3) Div(o Vec3) Vec3      { return Vec3{v[0] / o[0], v[1] / o[1], v[2] / o[2]} }
func (v Vec3) Round() Vec3 {
	return Vec3{math.Round(v[0]), math.Round(v[1]), math.Round(v[2])}
}
func (v Vec3) Dot(o Vec3) float64 { return v[0]*o[0] + v[1]*o[1] + v[2]*o[2] }
func (v Vec3) At(i int) float64   { return v[i] }
func (v Vec3) With(i int, x float64) Vec3 {
	v[i] = x
	return v
}
func (v Vec3) Dim() int { return 3 }

func (v Vec3) IsFinite() bool {
	for _, x := range v {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return false
		}
	}
	return true
}
