package lanekeep

import (
	"fmt"
	"math"

	lqr "github.com/milosgajdos/go-lqr"
	"github.com/milosgajdos/go-lqr/config"
	"github.com/milosgajdos/go-lqr/sim"
	"gonum.org/v1/gonum/mat"
)

// Vehicle is kinematic lateral vehicle model linearized around straight lane driving:
//
//	ey'   = v*epsi
//	epsi' = (v/L)*delta
//
// where ey is lateral error, epsi is heading error and delta is steering angle.
type Vehicle struct {
	// v is longitudinal speed
	v float64
	// l is wheel base
	l float64
}

// NewVehicle creates new Vehicle with speed v and wheel base L and returns it.
// It returns error if v is not finite or L is not positive.
func NewVehicle(v, L float64) (*Vehicle, error) {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil, fmt.Errorf("%w: invalid speed: %v", lqr.ErrInvalidConfig, v)
	}

	if !(L > 0) || math.IsInf(L, 1) {
		return nil, fmt.Errorf("%w: invalid wheel base: %v", lqr.ErrInvalidConfig, L)
	}

	return &Vehicle{v: v, l: L}, nil
}

// Continuous returns continuous-time vehicle model
func (v *Vehicle) Continuous() (*sim.Continuous, error) {
	A := mat.NewDense(2, 2, []float64{
		0.0, v.v,
		0.0, 0.0,
	})

	B := mat.NewDense(2, 1, []float64{
		0.0,
		v.v / v.l,
	})

	return sim.NewContinuous(A, B)
}

// Discretize returns discrete-time vehicle model with sample time dt using the given method.
// It returns error if the method is unknown or dt is not positive.
func (v *Vehicle) Discretize(method string, dt float64) (*sim.Discrete, error) {
	c, err := v.Continuous()
	if err != nil {
		return nil, err
	}

	switch method {
	case config.Euler:
		return c.ToDiscreteEuler(dt)
	case config.ZOH:
		return c.ToDiscrete(dt)
	}

	return nil, fmt.Errorf("%w: unknown discretization: %q", lqr.ErrInvalidConfig, method)
}
