package matrix

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// IsSymmetric returns true if m is a square matrix whose elements satisfy
// |m[i,j] - m[j,i]| <= tol. It panics if m is nil.
func IsSymmetric(m mat.Matrix, tol float64) bool {
	r, c := m.Dims()
	if r != c {
		return false
	}

	for i := 0; i < r; i++ {
		for j := i + 1; j < c; j++ {
			if math.Abs(m.At(i, j)-m.At(j, i)) > tol {
				return false
			}
		}
	}

	return true
}

// ToSymDense returns symmetric part of square matrix m i.e. (m + m')/2.
// It panics if m is not square.
func ToSymDense(m mat.Matrix) *mat.SymDense {
	r, c := m.Dims()
	if r != c {
		panic(mat.ErrSquare)
	}

	s := mat.NewSymDense(r, nil)
	for i := 0; i < r; i++ {
		for j := i; j < r; j++ {
			s.SetSym(i, j, 0.5*(m.At(i, j)+m.At(j, i)))
		}
	}

	return s
}

// MaxAbsDiff returns the largest absolute element-wise difference between a and b.
// It panics if the dimensions of a and b are not the same.
func MaxAbsDiff(a, b mat.Matrix) float64 {
	ra, ca := a.Dims()
	rb, cb := b.Dims()
	if ra != rb || ca != cb {
		panic(mat.ErrShape)
	}

	var max float64
	for i := 0; i < ra; i++ {
		for j := 0; j < ca; j++ {
			if d := math.Abs(a.At(i, j) - b.At(i, j)); d > max || math.IsNaN(d) {
				max = d
			}
		}
	}

	return max
}

// Clamp clamps every element of v into [min[i], max[i]] in place and returns
// the number of elements which had to be clamped.
// Empty min or max leaves the corresponding side unbounded.
// It panics if non-empty bounds length differs from v length.
func Clamp(v *mat.VecDense, min, max []float64) int {
	n := v.Len()
	if (len(min) != 0 && len(min) != n) || (len(max) != 0 && len(max) != n) {
		panic(mat.ErrShape)
	}

	clamped := 0
	for i := 0; i < n; i++ {
		val := v.AtVec(i)
		switch {
		case len(min) != 0 && val < min[i]:
			v.SetVec(i, min[i])
			clamped++
		case len(max) != 0 && val > max[i]:
			v.SetVec(i, max[i])
			clamped++
		}
	}

	return clamped
}

// IsFinite returns true if none of the elements of x is NaN or Inf.
func IsFinite(x []float64) bool {
	for _, v := range x {
		if math.IsInf(v, 0) {
			return false
		}
	}

	return !floats.HasNaN(x)
}
