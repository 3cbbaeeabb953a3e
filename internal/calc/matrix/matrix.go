// Package matrix holds the fixed-size vectors and matrices used by the
// laminate calculations. All dimensions are compile-time constants, so the
// types are plain arrays; gonum is used only where a general solver is needed.
package matrix

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// ErrSingular is returned when a 6x6 system cannot be inverted reliably.
var ErrSingular = errors.New("matrix: singular matrix")

// Vec3 is an in-plane triple ordered (x, y, xy).
type Vec3 [3]float64

// Vec6 is a force/moment or strain/curvature state ordered
// (x, y, xy) for the membrane part followed by (x, y, xy) for bending.
type Vec6 [6]float64

// Mat3 is a 3x3 matrix in Voigt order (1, 2, 6).
type Mat3 [3][3]float64

// Mat6 is the assembled 6x6 laminate operator.
type Mat6 [6][6]float64

// Concat joins two triples into one state vector.
func Concat(a, b Vec3) Vec6 {
	return Vec6{a[0], a[1], a[2], b[0], b[1], b[2]}
}

// Split returns the membrane and bending halves of v.
func (v Vec6) Split() (Vec3, Vec3) {
	return Vec3{v[0], v[1], v[2]}, Vec3{v[3], v[4], v[5]}
}

func (v Vec3) Add(o Vec3) Vec3 {
	return Vec3{v[0] + o[0], v[1] + o[1], v[2] + o[2]}
}

func (v Vec3) Scale(f float64) Vec3 {
	return Vec3{v[0] * f, v[1] * f, v[2] * f}
}

func (m Mat3) Add(o Mat3) Mat3 {
	var r Mat3
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			r[i][j] = m[i][j] + o[i][j]
		}
	}
	return r
}

func (m Mat3) Scale(f float64) Mat3 {
	var r Mat3
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			r[i][j] = m[i][j] * f
		}
	}
	return r
}

func (m Mat3) MulVec(v Vec3) Vec3 {
	var r Vec3
	for i := 0; i < 3; i++ {
		r[i] = m[i][0]*v[0] + m[i][1]*v[1] + m[i][2]*v[2]
	}
	return r
}

// IsSymmetric reports whether m equals its transpose within tol
// (absolute, scaled by the largest entry magnitude when that exceeds one).
func (m Mat3) IsSymmetric(tol float64) bool {
	scale := math.Max(1, m.MaxAbs())
	for i := 0; i < 3; i++ {
		for j := i + 1; j < 3; j++ {
			if math.Abs(m[i][j]-m[j][i]) > tol*scale {
				return false
			}
		}
	}
	return true
}

// MaxAbs returns the largest absolute entry.
func (m Mat3) MaxAbs() float64 {
	var mx float64
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			mx = math.Max(mx, math.Abs(m[i][j]))
		}
	}
	return mx
}

// Block assembles [[a, b], [c, d]].
func Block(a, b, c, d Mat3) Mat6 {
	var r Mat6
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			r[i][j] = a[i][j]
			r[i][j+3] = b[i][j]
			r[i+3][j] = c[i][j]
			r[i+3][j+3] = d[i][j]
		}
	}
	return r
}

// Sub returns the 3x3 block starting at (row, col), both 0 or 3.
func (m Mat6) Sub(row, col int) Mat3 {
	var r Mat3
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			r[i][j] = m[row+i][col+j]
		}
	}
	return r
}

func (m Mat6) MulVec(v Vec6) Vec6 {
	var r Vec6
	for i := 0; i < 6; i++ {
		var s float64
		for j := 0; j < 6; j++ {
			s += m[i][j] * v[j]
		}
		r[i] = s
	}
	return r
}

func (m Mat6) IsSymmetric(tol float64) bool {
	var scale float64 = 1
	for i := 0; i < 6; i++ {
		for j := 0; j < 6; j++ {
			scale = math.Max(scale, math.Abs(m[i][j]))
		}
	}
	for i := 0; i < 6; i++ {
		for j := i + 1; j < 6; j++ {
			if math.Abs(m[i][j]-m[j][i]) > tol*scale {
				return false
			}
		}
	}
	return true
}

// Dense copies m into a gonum matrix.
func (m Mat6) Dense() *mat.Dense {
	data := make([]float64, 0, 36)
	for i := 0; i < 6; i++ {
		data = append(data, m[i][:]...)
	}
	return mat.NewDense(6, 6, data)
}

// Inverse returns m⁻¹. A gonum Condition error (exactly singular or a
// condition number past mat.ConditionTolerance) is reported as ErrSingular.
func (m Mat6) Inverse() (Mat6, error) {
	for i := 0; i < 6; i++ {
		for j := 0; j < 6; j++ {
			if math.IsNaN(m[i][j]) || math.IsInf(m[i][j], 0) {
				return Mat6{}, fmt.Errorf("%w: non-finite entry at [%d,%d]", ErrSingular, i, j)
			}
		}
	}
	var inv mat.Dense
	if err := inv.Inverse(m.Dense()); err != nil {
		var cond mat.Condition
		if errors.As(err, &cond) {
			return Mat6{}, fmt.Errorf("%w: condition number %g", ErrSingular, float64(cond))
		}
		return Mat6{}, fmt.Errorf("%w: %v", ErrSingular, err)
	}
	var r Mat6
	for i := 0; i < 6; i++ {
		for j := 0; j < 6; j++ {
			r[i][j] = inv.At(i, j)
		}
	}
	return r, nil
}
