package numeric

// Packed symmetric tensor layout: diagonal entries first, then the
// off-diagonal entries in row-major order. In two dimensions that is
// [xx yy xy], in three [xx yy zz xy xz yz].

// SymLen returns the packed length of a symmetric dim x dim tensor.
func SymLen(dim int) int {
	return dim * (dim + 1) / 2
}

// AddOuter accumulates f times the outer product r (x) r into the packed
// symmetric tensor s. len(s) must be SymLen(r.Dim()).
func AddOuter[V Vector[V]](s []float64, f float64, r V) {
	d := r.Dim()
	for i := 0; i < d; i++ {
		s[i] += f * r.At(i) * r.At(i)
	}
	k := d
	for i := 0; i < d; i++ {
		for j := i + 1; j < d; j++ {
			s[k] += f * r.At(i) * r.At(j)
			k++
		}
	}
}

// SymTrace returns the trace of a packed symmetric tensor of dimension dim.
func SymTrace(s []float64, dim int) float64 {
	t := 0.0
	for i := 0; i < dim; i++ {
		t += s[i]
	}
	return t
}
