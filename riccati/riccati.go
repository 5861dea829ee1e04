package riccati

import (
	"context"
	"fmt"
	"math"

	lqr "github.com/milosgajdos/go-lqr"
	"github.com/milosgajdos/go-lqr/matrix"
	"gonum.org/v1/gonum/mat"
)

const (
	// DefaultIterations is the default number of Riccati recursion steps
	DefaultIterations = 800
	// psdTol is relative tolerance of negative eigenvalues of Q
	psdTol = 1e-12
	// epsilon is float64 machine epsilon
	epsilon = 0x1p-52
)

// Weights are quadratic cost weights of the infinite horizon cost
//
//	J = sum x[k]'*Q*x[k] + u[k]'*R*u[k]
type Weights struct {
	// Q is state cost matrix: symmetric positive semidefinite
	Q mat.Symmetric
	// R is control cost matrix: symmetric positive definite
	R mat.Symmetric
}

// NewDiagWeights creates Weights with diagonal state cost q and diagonal control cost r.
func NewDiagWeights(q []float64, r ...float64) *Weights {
	return &Weights{
		Q: diag(q),
		R: diag(r),
	}
}

func diag(d []float64) *mat.SymDense {
	m := mat.NewSymDense(len(d), nil)
	for i, v := range d {
		m.SetSym(i, i, v)
	}
	return m
}

// Config is Riccati solver configuration
type Config struct {
	// Iterations is the number of recursion steps
	Iterations int
	// Tolerance stops the recursion early once the largest element-wise
	// change of P drops below it. Zero runs exactly Iterations steps.
	Tolerance float64
}

// DefaultConfig returns default solver configuration: DefaultIterations steps
// without early stopping.
func DefaultConfig() *Config {
	return &Config{
		Iterations: DefaultIterations,
	}
}

// DARE solves discrete algebraic Riccati equation
//
//	P = Q + A'*P*A - A'*P*B*(R + B'*P*B)^-1*B'*P*A
//
// by fixed-point iteration started from P = Q and derives the optimal
// state feedback gain K = (R + B'*P*B)^-1*B'*P*A of the control law u = -K*x.
type DARE struct {
	// a is system matrix
	a *mat.Dense
	// b is control matrix
	b *mat.Dense
	// q is state cost
	q *mat.SymDense
	// r is control cost
	r *mat.SymDense
	// iters is number of recursion steps
	iters int
	// tol is early stopping tolerance
	tol float64
}

// New creates new DARE solver for system matrices A, B and cost weights w and returns it.
// If c is nil, DefaultConfig is used.
// It returns error if either of the following conditions is met:
//   - A is not square, B rows differ from A rows, Q or R do not match A and B dimensions
//   - A or B contain NaN or Inf
//   - Q or R contain NaN or Inf, R is not positive definite or Q is not positive semidefinite
//   - iteration count is negative or tolerance is negative or NaN
func New(A, B mat.Matrix, w *Weights, c *Config) (*DARE, error) {
	if A == nil || B == nil {
		return nil, fmt.Errorf("%w: system and control matrices must be defined", lqr.ErrDimensionMismatch)
	}

	if w == nil || w.Q == nil || w.R == nil {
		return nil, fmt.Errorf("%w: cost weights must be defined", lqr.ErrInvalidCostWeights)
	}

	if c == nil {
		c = DefaultConfig()
	}

	if c.Iterations < 0 {
		return nil, fmt.Errorf("%w: %d", lqr.ErrInvalidIterations, c.Iterations)
	}

	if c.Tolerance < 0 || math.IsNaN(c.Tolerance) {
		return nil, fmt.Errorf("%w: invalid tolerance: %v", lqr.ErrInvalidConfig, c.Tolerance)
	}

	nx, cols := A.Dims()
	if nx == 0 || nx != cols {
		return nil, fmt.Errorf("%w: invalid system matrix dimensions: [%d x %d]", lqr.ErrDimensionMismatch, nx, cols)
	}

	rows, nu := B.Dims()
	if rows != nx || nu == 0 {
		return nil, fmt.Errorf("%w: invalid control matrix dimensions: [%d x %d]", lqr.ErrDimensionMismatch, rows, nu)
	}

	if n := w.Q.SymmetricDim(); n != nx {
		return nil, fmt.Errorf("%w: invalid state cost dimensions: [%d x %d]", lqr.ErrDimensionMismatch, n, n)
	}

	if n := w.R.SymmetricDim(); n != nu {
		return nil, fmt.Errorf("%w: invalid control cost dimensions: [%d x %d]", lqr.ErrDimensionMismatch, n, n)
	}

	a, b := mat.DenseCopyOf(A), mat.DenseCopyOf(B)
	if !matrix.IsFinite(a.RawMatrix().Data) || !matrix.IsFinite(b.RawMatrix().Data) {
		return nil, fmt.Errorf("%w: system matrices must be finite", lqr.ErrInvalidConfig)
	}

	q := mat.NewSymDense(nx, nil)
	q.CopySym(w.Q)
	r := mat.NewSymDense(nu, nil)
	r.CopySym(w.R)

	if err := checkWeights(q, r); err != nil {
		return nil, err
	}

	return &DARE{
		a:     a,
		b:     b,
		q:     q,
		r:     r,
		iters: c.Iterations,
		tol:   c.Tolerance,
	}, nil
}

// checkWeights makes sure R is positive definite and Q is positive semidefinite.
func checkWeights(q, r *mat.SymDense) error {
	if !matrix.IsFinite(mat.DenseCopyOf(q).RawMatrix().Data) || !matrix.IsFinite(mat.DenseCopyOf(r).RawMatrix().Data) {
		return fmt.Errorf("%w: weights must be finite", lqr.ErrInvalidCostWeights)
	}

	var chol mat.Cholesky
	if ok := chol.Factorize(r); !ok {
		return fmt.Errorf("%w: control cost R is not positive definite", lqr.ErrInvalidCostWeights)
	}

	var eig mat.EigenSym
	if ok := eig.Factorize(q, false); !ok {
		return fmt.Errorf("%w: failed to factorize state cost Q", lqr.ErrInvalidCostWeights)
	}

	vals := eig.Values(nil)
	scale := 1.0
	for _, v := range vals {
		scale = math.Max(scale, math.Abs(v))
	}
	for _, v := range vals {
		if v < -psdTol*scale {
			return fmt.Errorf("%w: state cost Q is not positive semidefinite: eigenvalue %v", lqr.ErrInvalidCostWeights, v)
		}
	}

	return nil
}

// Solve runs the Riccati recursion and returns the solution.
// ctx is only checked between recursion steps so a completed solve
// returns the same result regardless of ctx.
// It returns error if ctx is done, R + B'*P*B becomes singular or P stops being finite.
func (d *DARE) Solve(ctx context.Context) (*Solution, error) {
	p := mat.DenseCopyOf(d.q)

	var delta float64
	iters := 0
	for i := 0; i < d.iters; i++ {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("riccati recursion canceled at iteration %d: %w", i, err)
		}

		pNext, err := d.step(p)
		if err != nil {
			return nil, fmt.Errorf("iteration %d: %w", i, err)
		}

		if !matrix.IsFinite(pNext.RawMatrix().Data) {
			return nil, fmt.Errorf("%w: iteration %d", lqr.ErrDiverged, i)
		}

		delta = matrix.MaxAbsDiff(pNext, p)
		p = pNext
		iters++

		if d.tol > 0 && delta < d.tol {
			break
		}
	}

	k, err := d.gain(p)
	if err != nil {
		return nil, err
	}

	return &Solution{
		p:     p,
		k:     k,
		iters: iters,
		delta: delta,
	}, nil
}

// step computes one recursion step
//
//	P_next = Q + A'*P*A - (A'*P*B)*S^-1*(B'*P*A), S = R + B'*P*B
func (d *DARE) step(p *mat.Dense) (*mat.Dense, error) {
	pa := &mat.Dense{}
	pa.Mul(p, d.a)

	pb := &mat.Dense{}
	pb.Mul(p, d.b)

	// S^-1*B'*P*A
	sInvBPA, err := d.solveS(pa, pb)
	if err != nil {
		return nil, err
	}

	// A'*P*A
	apa := &mat.Dense{}
	apa.Mul(d.a.T(), pa)

	// A'*P*B
	apb := &mat.Dense{}
	apb.Mul(d.a.T(), pb)

	corr := &mat.Dense{}
	corr.Mul(apb, sInvBPA)

	pNext := &mat.Dense{}
	pNext.Sub(apa, corr)
	pNext.Add(d.q, pNext)

	return pNext, nil
}

// gain computes feedback gain K = S^-1*B'*P*A
func (d *DARE) gain(p *mat.Dense) (*mat.Dense, error) {
	pa := &mat.Dense{}
	pa.Mul(p, d.a)

	pb := &mat.Dense{}
	pb.Mul(p, d.b)

	return d.solveS(pa, pb)
}

// solveS returns S^-1*B'*P*A where S = R + B'*P*B given pa = P*A and pb = P*B.
// It returns error if S is not positive definite or numerically singular.
func (d *DARE) solveS(pa, pb *mat.Dense) (*mat.Dense, error) {
	// B'*P*B
	bpb := &mat.Dense{}
	bpb.Mul(d.b.T(), pb)

	s := &mat.Dense{}
	s.Add(d.r, bpb)

	var chol mat.Cholesky
	if ok := chol.Factorize(matrix.ToSymDense(s)); !ok {
		return nil, fmt.Errorf("%w: R + B'*P*B is not positive definite", lqr.ErrInvalidCostWeights)
	}

	if cond := chol.Cond(); cond > 1/epsilon || math.IsNaN(cond) {
		return nil, fmt.Errorf("%w: R + B'*P*B is singular: condition number %v", lqr.ErrInvalidCostWeights, cond)
	}

	// B'*P*A
	bpa := &mat.Dense{}
	bpa.Mul(d.b.T(), pa)

	x := &mat.Dense{}
	if err := chol.SolveTo(x, bpa); err != nil {
		return nil, fmt.Errorf("%w: failed to solve R + B'*P*B: %v", lqr.ErrInvalidCostWeights, err)
	}

	return x, nil
}

// Solve creates new DARE solver and solves it in one go.
// See New and DARE.Solve for the details.
func Solve(ctx context.Context, A, B mat.Matrix, w *Weights, c *Config) (*Solution, error) {
	d, err := New(A, B, w, c)
	if err != nil {
		return nil, err
	}

	return d.Solve(ctx)
}
