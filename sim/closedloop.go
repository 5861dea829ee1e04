package sim

import (
	"context"
	"fmt"
	"math"

	lqr "github.com/milosgajdos/go-lqr"
	"github.com/milosgajdos/go-lqr/noise"
	"gonum.org/v1/gonum/mat"
)

// Option configures ClosedLoop
type Option func(*ClosedLoop)

// WithDisturbance adds process disturbance wd to every state transition.
func WithDisturbance(wd lqr.Noise) Option {
	return func(c *ClosedLoop) {
		c.wd = wd
	}
}

// ClosedLoop simulates a linear discrete-time plant driven by saturated state feedback.
type ClosedLoop struct {
	// sys is the plant
	sys lqr.DiscreteControlSystem
	// ctrl computes control input from the plant state
	ctrl lqr.Controller
	// wd is process disturbance
	wd lqr.Noise
}

// NewClosedLoop creates new ClosedLoop simulation of the plant sys controlled by
// u = sat(-K*x) and returns it.
// It returns error if either of the following conditions is met:
//   - K is not [nu x nx] where nx and nu are sys dimensions
//   - limits are invalid or do not match the control dimension
//   - disturbance covariance does not match the state dimension
func NewClosedLoop(sys lqr.DiscreteControlSystem, K mat.Matrix, limits Limits, opts ...Option) (*ClosedLoop, error) {
	if sys == nil {
		return nil, fmt.Errorf("system must be defined for a simulation")
	}

	nx, nu := sys.SystemDims()
	if nx <= 0 || nu <= 0 {
		return nil, fmt.Errorf("%w: invalid system dimensions: [%d x %d]", lqr.ErrDimensionMismatch, nx, nu)
	}

	if K == nil {
		return nil, fmt.Errorf("%w: feedback gain must be defined", lqr.ErrDimensionMismatch)
	}

	if rows, cols := K.Dims(); rows != nu || cols != nx {
		return nil, fmt.Errorf("%w: invalid gain dimensions: [%d x %d], expected [%d x %d]",
			lqr.ErrDimensionMismatch, rows, cols, nu, nx)
	}

	ctrl, err := NewStateFeedback(K, limits)
	if err != nil {
		return nil, err
	}

	return NewControlledLoop(sys, ctrl, opts...)
}

// NewControlledLoop creates new ClosedLoop simulation of the plant sys driven by
// an arbitrary controller ctrl and returns it.
// Samples record saturation only when ctrl is a *StateFeedback.
// It returns error if sys or ctrl are nil or the disturbance covariance does not
// match the state dimension.
func NewControlledLoop(sys lqr.DiscreteControlSystem, ctrl lqr.Controller, opts ...Option) (*ClosedLoop, error) {
	if sys == nil {
		return nil, fmt.Errorf("system must be defined for a simulation")
	}

	if ctrl == nil {
		return nil, fmt.Errorf("controller must be defined for a simulation")
	}

	nx, nu := sys.SystemDims()
	if nx <= 0 || nu <= 0 {
		return nil, fmt.Errorf("%w: invalid system dimensions: [%d x %d]", lqr.ErrDimensionMismatch, nx, nu)
	}

	c := &ClosedLoop{
		sys:  sys,
		ctrl: ctrl,
	}

	for _, opt := range opts {
		opt(c)
	}

	if c.wd == nil {
		c.wd, _ = noise.NewNone()
	}

	if _, ok := c.wd.(*noise.None); !ok {
		if c.wd.Cov().SymmetricDim() != nx {
			return nil, fmt.Errorf("%w: invalid disturbance dimension: %d != %d",
				lqr.ErrDimensionMismatch, c.wd.Cov().SymmetricDim(), nx)
		}
	}

	return c, nil
}

// Controller returns the controller driving the plant
func (c *ClosedLoop) Controller() lqr.Controller {
	return c.ctrl
}

// control returns control input for state x and reports whether it was saturated.
func (c *ClosedLoop) control(x mat.Vector) (*mat.VecDense, bool, error) {
	if f, ok := c.ctrl.(*StateFeedback); ok {
		return f.control(x)
	}

	u, err := c.ctrl.Control(x)
	if err != nil {
		return nil, false, err
	}

	if _, nu := c.sys.SystemDims(); u == nil || u.Len() != nu {
		return nil, false, fmt.Errorf("%w: invalid control vector length", lqr.ErrDimensionMismatch)
	}

	return mat.VecDenseCopyOf(u), false, nil
}

// Run simulates the closed loop for the given number of steps of size dt starting
// from initial condition ic and returns the simulated trajectory.
// Sample k holds time t0 + k*dt, the state observed at that time and the control
// computed from it. The state is then advanced using the saturated control.
// Run does not detect divergence: it always runs exactly steps steps.
// It returns error if steps is negative, dt is not positive and finite, the initial
// state does not match the system or if ctx is done before the simulation finishes.
func (c *ClosedLoop) Run(ctx context.Context, ic lqr.InitCond, dt float64, steps int) (*Trajectory, error) {
	if steps < 0 {
		return nil, fmt.Errorf("%w: %d", lqr.ErrInvalidStepCount, steps)
	}

	if !(dt > 0) || math.IsInf(dt, 1) {
		return nil, fmt.Errorf("%w: %v", lqr.ErrInvalidTimeStep, dt)
	}

	if ic == nil {
		return nil, fmt.Errorf("initial condition must be defined for a simulation")
	}

	nx, _ := c.sys.SystemDims()
	if ic.State().Len() != nx {
		return nil, fmt.Errorf("%w: invalid initial state length: %d != %d", lqr.ErrDimensionMismatch, ic.State().Len(), nx)
	}

	// every run replays the same disturbance sequence
	if err := c.wd.Reset(); err != nil {
		return nil, fmt.Errorf("failed to reset disturbance: %w", err)
	}

	t0 := ic.Time()
	x := mat.VecDenseCopyOf(ic.State())
	samples := make([]Sample, 0, steps)

	for k := 0; k < steps; k++ {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("simulation canceled at step %d: %w", k, err)
		}

		u, saturated, err := c.control(x)
		if err != nil {
			return nil, err
		}

		samples = append(samples, Sample{
			T:         t0 + float64(k)*dt,
			X:         mat.VecDenseCopyOf(x),
			U:         u,
			Saturated: saturated,
		})

		xNext, err := c.sys.Propagate(x, u, c.wd.Sample())
		if err != nil {
			return nil, fmt.Errorf("system state propagation failed: %w", err)
		}
		x = mat.VecDenseCopyOf(xNext)
	}

	return &Trajectory{
		samples: samples,
		final:   x,
		tFinal:  t0 + float64(steps)*dt,
	}, nil
}
