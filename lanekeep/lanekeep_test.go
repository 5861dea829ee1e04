package lanekeep

import (
	"context"
	"errors"
	"math"
	"testing"

	lqr "github.com/milosgajdos/go-lqr"
	"github.com/milosgajdos/go-lqr/config"
	"github.com/stretchr/testify/assert"
	"gonum.org/v1/gonum/mat"
)

func TestNewVehicle(t *testing.T) {
	assert := assert.New(t)

	v, err := NewVehicle(10.0, 2.5)
	assert.NotNil(v)
	assert.NoError(err)

	// reversing is fine
	v, err = NewVehicle(-2.0, 2.5)
	assert.NotNil(v)
	assert.NoError(err)

	for _, p := range [][2]float64{
		{math.NaN(), 2.5},
		{math.Inf(1), 2.5},
		{10.0, 0.0},
		{10.0, -1.0},
		{10.0, math.Inf(1)},
	} {
		v, err := NewVehicle(p[0], p[1])
		assert.Nil(v)
		assert.True(errors.Is(err, lqr.ErrInvalidConfig))
	}
}

func TestDiscretize(t *testing.T) {
	assert := assert.New(t)

	v, err := NewVehicle(10.0, 2.5)
	assert.NoError(err)

	c, err := v.Continuous()
	assert.NoError(err)
	assert.True(mat.Equal(mat.NewDense(2, 2, []float64{0, 10, 0, 0}), c.SystemMatrix()))
	assert.True(mat.Equal(mat.NewDense(2, 1, []float64{0, 4}), c.ControlMatrix()))

	euler, err := v.Discretize(config.Euler, 0.05)
	assert.NoError(err)
	assert.True(mat.EqualApprox(mat.NewDense(2, 2, []float64{1, 0.5, 0, 1}), euler.SystemMatrix(), 1e-15))
	assert.True(mat.EqualApprox(mat.NewDense(2, 1, []float64{0, 0.2}), euler.ControlMatrix(), 1e-15))

	// exact discretization picks up the steering to lateral error path
	zoh, err := v.Discretize(config.ZOH, 0.05)
	assert.NoError(err)
	assert.True(mat.EqualApprox(mat.NewDense(2, 2, []float64{1, 0.5, 0, 1}), zoh.SystemMatrix(), 1e-12))
	assert.True(mat.EqualApprox(mat.NewDense(2, 1, []float64{0.05, 0.2}), zoh.ControlMatrix(), 1e-12))

	_, err = v.Discretize("rk4", 0.05)
	assert.True(errors.Is(err, lqr.ErrInvalidConfig))

	_, err = v.Discretize(config.Euler, 0)
	assert.True(errors.Is(err, lqr.ErrInvalidTimeStep))
}

func TestSolve(t *testing.T) {
	assert := assert.New(t)

	plant, sol, err := Solve(context.Background(), nil)
	assert.NoError(err)
	assert.NotNil(plant)

	k := sol.Gain()
	assert.InDelta(1.6545079644270813, k.At(0, 0), 1e-9)
	assert.InDelta(3.546090145253004, k.At(0, 1), 1e-9)
	assert.Equal(800, sol.Iterations())

	cfg := config.DefaultConfig()
	cfg.Cost.R = -1
	_, _, err = Solve(context.Background(), cfg)
	assert.True(errors.Is(err, lqr.ErrInvalidCostWeights))
}

func TestRun(t *testing.T) {
	assert := assert.New(t)

	res, err := Run(context.Background(), config.DefaultConfig())
	assert.NoError(err)

	traj := res.Trajectory
	assert.Equal(600, traj.Len())

	k := res.Solution.Gain()
	first := traj.At(0)
	assert.Equal(0.0, first.T)
	assert.Equal(1.0, first.X.AtVec(0))
	assert.Equal(0.2, first.X.AtVec(1))
	u := -(k.At(0, 0)*1.0 + k.At(0, 1)*0.2)
	assert.Equal(math.Max(-0.6, math.Min(0.6, u)), first.U.AtVec(0))
	assert.Equal(-0.6, first.U.AtVec(0))
	assert.True(first.Saturated)

	for i := 0; i < traj.Len(); i++ {
		s := traj.At(i)
		assert.InDelta(float64(i)*0.05, s.T, 1e-12)
		assert.True(s.U.AtVec(0) >= -0.6 && s.U.AtVec(0) <= 0.6)
	}

	final := traj.Final()
	assert.True(math.Abs(final.AtVec(0)) < 1e-3)
	assert.True(math.Abs(final.AtVec(1)) < 1e-3)
	assert.True(math.Abs(final.AtVec(0)) < math.Abs(first.X.AtVec(0)))
	assert.True(math.Abs(final.AtVec(1)) < math.Abs(first.X.AtVec(1)))

	assert.Equal(5, res.Summary.Saturated)
	assert.InDelta(30.0, res.Summary.FinalTime, 1e-12)
}

func TestRunDeterminism(t *testing.T) {
	assert := assert.New(t)

	for _, name := range []string{"default", "gusty", "highway"} {
		r1, err := Run(context.Background(), config.GetPreset(name))
		assert.NoError(err, name)
		r2, err := Run(context.Background(), config.GetPreset(name))
		assert.NoError(err, name)

		assert.Equal(r1.Trajectory.Times(), r2.Trajectory.Times(), name)
		assert.True(mat.Equal(r1.Trajectory.States(), r2.Trajectory.States()), name)
		assert.True(mat.Equal(r1.Trajectory.Controls(), r2.Trajectory.Controls()), name)
	}

	// disturbance changes the trajectory
	r1, err := Run(context.Background(), config.GetPreset("default"))
	assert.NoError(err)
	r2, err := Run(context.Background(), config.GetPreset("gusty"))
	assert.NoError(err)
	assert.False(mat.Equal(r1.Trajectory.States(), r2.Trajectory.States()))
}

func TestRunErrors(t *testing.T) {
	assert := assert.New(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	res, err := Run(ctx, nil)
	assert.Nil(res)
	assert.True(errors.Is(err, context.Canceled))

	cfg := config.DefaultConfig()
	cfg.Steps = -1
	res, err = Run(context.Background(), cfg)
	assert.Nil(res)
	assert.True(errors.Is(err, lqr.ErrInvalidStepCount))

	cfg = config.DefaultConfig()
	cfg.Dt = 0
	res, err = Run(context.Background(), cfg)
	assert.Nil(res)
	assert.True(errors.Is(err, lqr.ErrInvalidTimeStep))

	cfg = config.DefaultConfig()
	cfg.Steps = 0
	res, err = Run(context.Background(), cfg)
	assert.NoError(err)
	assert.Equal(0, res.Trajectory.Len())
	assert.Equal(1.0, res.Trajectory.Final().AtVec(0))
}
