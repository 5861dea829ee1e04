package sim

import (
	"fmt"
	"math"

	lqr "github.com/milosgajdos/go-lqr"
	"github.com/milosgajdos/matrix"
	"gonum.org/v1/gonum/mat"
)

// Continuous is a basic model of a linear, continuous-time, dynamical system
type Continuous struct {
	System
}

// NewContinuous creates a linear continuous-time model based on the control theory equations
//
//	dx/dt = A*x + B*u
func NewContinuous(A, B mat.Matrix) (*Continuous, error) {
	sys, err := newSystem(A, B)
	if err != nil {
		return nil, err
	}
	return &Continuous{System: sys}, nil
}

// ToDiscrete creates a discrete-time model from a continuous time model
// using Ts as the sampling time and a zero-order hold on the input.
//
// Both discrete matrices are read off a single matrix exponential
//
//	exp([A B; 0 0]*Ts) = [Ad Bd; 0 I]
//
// which stays valid when A is singular.
func (ct *Continuous) ToDiscrete(Ts float64) (*Discrete, error) {
	if !(Ts > 0) || math.IsInf(Ts, 1) {
		return nil, fmt.Errorf("%w: %v", lqr.ErrInvalidTimeStep, Ts)
	}

	nx, nu := ct.SystemDims()

	aug := mat.NewDense(nx+nu, nx+nu, nil)
	aug.Slice(0, nx, 0, nx).(*mat.Dense).Scale(Ts, ct.A)
	if nu > 0 {
		aug.Slice(0, nx, nx, nx+nu).(*mat.Dense).Scale(Ts, ct.B)
	}
	phi := &mat.Dense{}
	phi.Exp(aug)

	Ad := mat.DenseCopyOf(phi.Slice(0, nx, 0, nx))
	if nu == 0 {
		return NewDiscrete(Ad, nil)
	}
	Bd := mat.DenseCopyOf(phi.Slice(0, nx, nx, nx+nu))

	return NewDiscrete(Ad, Bd)
}

// ToDiscreteEuler creates a discrete-time model from a continuous time model
// using forward Euler method with sampling time Ts:
//
//	Ad = I + A*Ts
//	Bd = B*Ts
//
// It is an approximation valid for small timesteps.
func (ct *Continuous) ToDiscreteEuler(Ts float64) (*Discrete, error) {
	if !(Ts > 0) || math.IsInf(Ts, 1) {
		return nil, fmt.Errorf("%w: %v", lqr.ErrInvalidTimeStep, Ts)
	}

	nx, _ := ct.SystemDims()
	eye, err := matrix.NewDenseValIdentity(nx, 1.0)
	if err != nil {
		return nil, err
	}

	Ad := &mat.Dense{}
	Ad.Scale(Ts, ct.A)
	Ad.Add(eye, Ad)

	if ct.B == nil {
		return NewDiscrete(Ad, nil)
	}

	Bd := &mat.Dense{}
	Bd.Scale(Ts, ct.B)

	return NewDiscrete(Ad, Bd)
}
