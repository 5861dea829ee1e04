package sim

import (
	"fmt"

	lqr "github.com/milosgajdos/go-lqr"
	"gonum.org/v1/gonum/mat"
)

// System defines a linear model of a plant using
// traditional matrices of modern control theory.
//
// It contains the System (A) and input (B) matrices.
// The state is assumed to be fully observed.
type System struct {
	// System/State matrix A
	A *mat.Dense
	// Control/Input Matrix B
	B *mat.Dense
}

// newSystem validates dimensions of A and B and returns System which holds their copies.
func newSystem(A, B mat.Matrix) (System, error) {
	if A == nil {
		return System{}, fmt.Errorf("system matrix must be defined for a model")
	}

	nx, cols := A.Dims()
	if nx == 0 || nx != cols {
		return System{}, fmt.Errorf("%w: system matrix must be square: [%d x %d]", lqr.ErrDimensionMismatch, nx, cols)
	}

	sys := System{A: mat.DenseCopyOf(A)}
	if B != nil {
		rows, nu := B.Dims()
		if rows != nx || nu == 0 {
			return System{}, fmt.Errorf("%w: invalid control matrix dimensions: [%d x %d]", lqr.ErrDimensionMismatch, rows, nu)
		}
		sys.B = mat.DenseCopyOf(B)
	}

	return sys, nil
}

// SystemDims returns internal state length (nx) and input vector length (nu).
func (s System) SystemDims() (nx, nu int) {
	nx, _ = s.A.Dims()
	if s.B != nil {
		_, nu = s.B.Dims()
	}
	return nx, nu
}

// SystemMatrix returns state propagation matrix `A`.
func (s System) SystemMatrix() (A mat.Matrix) { return s.A }

// ControlMatrix returns state propagation control matrix `B`
func (s System) ControlMatrix() (B mat.Matrix) {
	if s.B == nil {
		return nil
	}
	return s.B
}
