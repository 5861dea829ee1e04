package sim

import (
	"fmt"
	"math"

	lqr "github.com/milosgajdos/go-lqr"
	"github.com/milosgajdos/go-lqr/matrix"
	"gonum.org/v1/gonum/mat"
)

// Limits are actuator saturation bounds.
// Control element i is hard clamped into [Min[i], Max[i]].
// Empty Min and Max leave the control unconstrained.
type Limits struct {
	// Min is the lower bound of every control element
	Min []float64
	// Max is the upper bound of every control element
	Max []float64
}

// NewScalarLimits returns Limits for a single control input.
func NewScalarLimits(min, max float64) Limits {
	return Limits{Min: []float64{min}, Max: []float64{max}}
}

// validate checks the limits against control dimension nu.
func (l Limits) validate(nu int) error {
	if len(l.Min) != 0 && len(l.Min) != nu {
		return fmt.Errorf("%w: lower control limit length %d != %d", lqr.ErrDimensionMismatch, len(l.Min), nu)
	}

	if len(l.Max) != 0 && len(l.Max) != nu {
		return fmt.Errorf("%w: upper control limit length %d != %d", lqr.ErrDimensionMismatch, len(l.Max), nu)
	}

	for i := range l.Min {
		if math.IsNaN(l.Min[i]) {
			return fmt.Errorf("%w: lower limit %d is NaN", lqr.ErrInvalidLimits, i)
		}
	}

	for i := range l.Max {
		if math.IsNaN(l.Max[i]) {
			return fmt.Errorf("%w: upper limit %d is NaN", lqr.ErrInvalidLimits, i)
		}
		if len(l.Min) != 0 && l.Min[i] > l.Max[i] {
			return fmt.Errorf("%w: [%v, %v]", lqr.ErrInvalidLimits, l.Min[i], l.Max[i])
		}
	}

	return nil
}

func (l Limits) clone() Limits {
	c := Limits{}
	if len(l.Min) != 0 {
		c.Min = append([]float64(nil), l.Min...)
	}
	if len(l.Max) != 0 {
		c.Max = append([]float64(nil), l.Max...)
	}
	return c
}

// StateFeedback is saturated linear state feedback u = sat(-K*x).
// It implements lqr.Controller.
type StateFeedback struct {
	// k is feedback gain
	k *mat.Dense
	// limits are actuator limits
	limits Limits
}

// NewStateFeedback creates new StateFeedback with gain K and actuator limits and returns it.
// It returns error if the limits do not match the number of rows of K or if they are invalid.
func NewStateFeedback(K mat.Matrix, limits Limits) (*StateFeedback, error) {
	if K == nil {
		return nil, fmt.Errorf("%w: feedback gain must be defined", lqr.ErrDimensionMismatch)
	}

	nu, nx := K.Dims()
	if nu == 0 || nx == 0 {
		return nil, fmt.Errorf("%w: invalid gain dimensions: [%d x %d]", lqr.ErrDimensionMismatch, nu, nx)
	}

	if err := limits.validate(nu); err != nil {
		return nil, err
	}

	return &StateFeedback{
		k:      mat.DenseCopyOf(K),
		limits: limits.clone(),
	}, nil
}

// Control returns saturated control input for state x.
// It returns error if x length does not match the gain.
func (f *StateFeedback) Control(x mat.Vector) (mat.Vector, error) {
	u, _, err := f.control(x)
	if err != nil {
		return nil, err
	}

	return u, nil
}

// control computes u = -K*x, clamps it and reports whether any element was clamped.
func (f *StateFeedback) control(x mat.Vector) (*mat.VecDense, bool, error) {
	nu, nx := f.k.Dims()
	if x.Len() != nx {
		return nil, false, fmt.Errorf("%w: invalid state vector length: %d", lqr.ErrDimensionMismatch, x.Len())
	}

	u := mat.NewVecDense(nu, nil)
	u.MulVec(f.k, x)
	u.ScaleVec(-1.0, u)

	clamped := matrix.Clamp(u, f.limits.Min, f.limits.Max)

	return u, clamped > 0, nil
}

// Gain returns feedback gain
func (f *StateFeedback) Gain() mat.Matrix {
	return mat.DenseCopyOf(f.k)
}

// Limits returns actuator limits
func (f *StateFeedback) Limits() Limits {
	return f.limits.clone()
}
