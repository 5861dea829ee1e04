package sim

import (
	"fmt"

	lqr "github.com/milosgajdos/go-lqr"
	"gonum.org/v1/gonum/mat"
)

// Discrete is a basic model of a linear, discrete-time, dynamical system
type Discrete struct {
	System
}

// NewDiscrete creates a linear discrete-time model based on the control theory equations.
//
//	x[n+1] = A*x[n] + B*u[n] + wd[n]
//
// A and B are copied so later changes to them do not affect the model.
func NewDiscrete(A, B mat.Matrix) (*Discrete, error) {
	sys, err := newSystem(A, B)
	if err != nil {
		return nil, err
	}
	return &Discrete{System: sys}, nil
}

// Propagate returns the next internal state x of a linear, discrete-time system
// given an input vector u and a disturbance vector wd.
// Both u and wd can be nil; wd is ignored unless it matches the state dimension.
func (dt *Discrete) Propagate(x, u, wd mat.Vector) (mat.Vector, error) {
	nx, nu := dt.SystemDims()
	if u != nil && u.Len() != nu {
		return nil, fmt.Errorf("%w: invalid input vector length: %d", lqr.ErrDimensionMismatch, u.Len())
	}

	if x.Len() != nx {
		return nil, fmt.Errorf("%w: invalid state vector length: %d", lqr.ErrDimensionMismatch, x.Len())
	}

	out := mat.NewVecDense(nx, nil)
	out.MulVec(dt.A, x)
	if u != nil && dt.B != nil {
		outU := mat.NewVecDense(nx, nil)
		outU.MulVec(dt.B, u)

		out.AddVec(out, outU)
	}

	if wd != nil && wd.Len() == nx {
		out.AddVec(out, wd)
	}

	return out, nil
}
