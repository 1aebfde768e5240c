package numeric

import (
	"fmt"

	"github.com/san-kum/mdsim/internal/md"
)

// Matrix is a square species-by-species parameter matrix. Values need not
// be symmetric, only the shape is.
type Matrix struct {
	n    int
	data []float64
}

// NewMatrix returns a zero-filled n by n matrix.
func NewMatrix(n int) *Matrix {
	return &Matrix{n: n, data: make([]float64, n*n)}
}

// Uniform returns an n by n matrix with every entry set to v.
func Uniform(n int, v float64) *Matrix {
	m := NewMatrix(n)
	for i := range m.data {
		m.data[i] = v
	}
	return m
}

// MatrixFrom builds a matrix from row slices. All rows must have the same
// length as the number of rows.
func MatrixFrom(rows [][]float64) (*Matrix, error) {
	n := len(rows)
	if n == 0 {
		return nil, fmt.Errorf("empty parameter matrix: %w", md.ErrInvalidArgument)
	}
	m := NewMatrix(n)
	for i, row := range rows {
		if len(row) != n {
			return nil, fmt.Errorf("parameter matrix row %d has %d columns, want %d: %w",
				i, len(row), n, md.ErrInvalidArgument)
		}
		copy(m.data[i*n:(i+1)*n], row)
	}
	return m, nil
}

func (m *Matrix) Size() int { return m.n }

func (m *Matrix) At(a, b int) float64 {
	return m.data[a*m.n+b]
}

func (m *Matrix) Set(a, b int, v float64) {
	m.data[a*m.n+b] = v
}

// Map returns a new matrix with f applied to every entry.
func (m *Matrix) Map(f func(float64) float64) *Matrix {
	out := NewMatrix(m.n)
	for i, v := range m.data {
		out.data[i] = f(v)
	}
	return out
}

// MapWith returns a new matrix combining entries of m and o elementwise.
func (m *Matrix) MapWith(o *Matrix, f func(a, b float64) float64) *Matrix {
	out := NewMatrix(m.n)
	for i := range m.data {
		out.data[i] = f(m.data[i], o.data[i])
	}
	return out
}

// Rows returns the matrix as row slices, for introspection and logging.
func (m *Matrix) Rows() [][]float64 {
	rows := make([][]float64, m.n)
	for i := range rows {
		rows[i] = append([]float64(nil), m.data[i*m.n:(i+1)*m.n]...)
	}
	return rows
}

// CheckShapes verifies that every matrix is n by n.
func CheckShapes(n int, ms ...*Matrix) error {
	for _, m := range ms {
		if m == nil {
			return fmt.Errorf("missing parameter matrix: %w", md.ErrInvalidArgument)
		}
		if m.n != n {
			return fmt.Errorf("parameter matrix is %dx%d, want %dx%d: %w",
				m.n, m.n, n, n, md.ErrInvalidArgument)
		}
	}
	return nil
}
