package riccati

import (
	"fmt"

	lqr "github.com/milosgajdos/go-lqr"
	"github.com/milosgajdos/go-lqr/matrix"
	"gonum.org/v1/gonum/mat"
)

// Solution is the result of Riccati recursion.
// Solution is immutable: its accessors return copies.
type Solution struct {
	// p is the iterated Riccati solution
	p *mat.Dense
	// k is the optimal feedback gain
	k *mat.Dense
	// iters is the number of recursion steps taken
	iters int
	// delta is the largest element-wise change of P in the last step
	delta float64
}

// P returns cost-to-go matrix P.
// The recursion keeps P symmetric up to rounding; P returns its symmetric part.
func (s *Solution) P() mat.Symmetric {
	return matrix.ToSymDense(s.p)
}

// Gain returns [nu x nx] feedback gain K of the control law u = -K*x
func (s *Solution) Gain() mat.Matrix {
	return mat.DenseCopyOf(s.k)
}

// Iterations returns the number of recursion steps taken
func (s *Solution) Iterations() int {
	return s.iters
}

// Delta returns the largest element-wise change of P in the last recursion step.
// It is zero if no step was taken.
func (s *Solution) Delta() float64 {
	return s.delta
}

// CostToGo returns optimal infinite horizon cost x'*P*x from state x.
// It returns error if x length does not match P.
func (s *Solution) CostToGo(x mat.Vector) (float64, error) {
	if n, _ := s.p.Dims(); x == nil || x.Len() != n {
		return 0, fmt.Errorf("%w: invalid state vector", lqr.ErrDimensionMismatch)
	}

	return mat.Inner(x, s.p, x), nil
}

// String implements the Stringer interface.
func (s *Solution) String() string {
	return fmt.Sprintf("Solution{\nIterations=%d\nDelta=%v\nK=%v\n}",
		s.iters, s.delta, mat.Formatted(s.k, mat.Prefix("  "), mat.Squeeze()))
}
