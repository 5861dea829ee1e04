package lqr

import "gonum.org/v1/gonum/mat"

// Propagator propagates internal state of the system to the next step
type Propagator interface {
	// Propagate propagates internal state x of the system to the next step
	// given an input vector u and a disturbance vector wd.
	Propagate(x, u, wd mat.Vector) (mat.Vector, error)
}

// DiscreteControlSystem is a linear discrete-time system
//
//	x[k+1] = A*x[k] + B*u[k]
//
// whose propagation matrices stay fixed for the lifetime of the system.
type DiscreteControlSystem interface {
	// Propagator is system propagator
	Propagator
	// SystemDims returns state vector length nx and input vector length nu
	SystemDims() (nx, nu int)
	// SystemMatrix returns state propagation matrix A
	SystemMatrix() mat.Matrix
	// ControlMatrix returns state propagation control matrix B
	ControlMatrix() mat.Matrix
}

// Controller computes control input from the observed system state
type Controller interface {
	// Control returns control input for state x
	Control(x mat.Vector) (mat.Vector, error)
}

// InitCond is initial condition of a simulation
type InitCond interface {
	// State returns initial state
	State() mat.Vector
	// Time returns initial time
	Time() float64
}

// Noise is dynamical system noise
type Noise interface {
	// Mean returns noise mean
	Mean() []float64
	// Cov returns covariance matrix of the noise
	Cov() mat.Symmetric
	// Sample returns a sample of the noise
	Sample() mat.Vector
	// Reset resets the noise
	Reset() error
}
