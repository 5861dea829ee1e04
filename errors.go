package lqr

import "errors"

var (
	// ErrInvalidCostWeights is returned when R is not positive definite, Q is not
	// symmetric positive semidefinite or R + B'*P*B becomes singular.
	ErrInvalidCostWeights = errors.New("lqr: invalid cost weights")

	// ErrInvalidTimeStep is returned when simulation step size is not positive.
	ErrInvalidTimeStep = errors.New("lqr: invalid time step")

	// ErrInvalidStepCount is returned when simulation step count is negative.
	ErrInvalidStepCount = errors.New("lqr: invalid step count")

	// ErrDimensionMismatch is returned when matrix or vector dimensions are inconsistent
	// with the system state and control dimensions.
	ErrDimensionMismatch = errors.New("lqr: dimension mismatch")

	// ErrInvalidLimits is returned when actuator saturation bounds are inverted or not finite.
	ErrInvalidLimits = errors.New("lqr: invalid control limits")

	// ErrInvalidIterations is returned when Riccati iteration count is negative.
	ErrInvalidIterations = errors.New("lqr: invalid iteration count")

	// ErrDiverged is returned when Riccati recursion produces non-finite values,
	// which happens when the system is not stabilizable.
	ErrDiverged = errors.New("lqr: riccati recursion diverged")

	// ErrInvalidConfig is returned when configuration values are out of range.
	ErrInvalidConfig = errors.New("lqr: invalid configuration")
)
