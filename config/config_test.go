package config

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	lqr "github.com/milosgajdos/go-lqr"
	"github.com/milosgajdos/go-lqr/noise"
	"github.com/milosgajdos/go-lqr/riccati"
	"github.com/stretchr/testify/assert"
	"gonum.org/v1/gonum/mat"
)

func TestDefaultConfig(t *testing.T) {
	assert := assert.New(t)

	cfg := DefaultConfig()
	assert.NoError(cfg.Validate())
	assert.Equal(Euler, cfg.Discretization)
	assert.Equal(riccati.DefaultIterations, cfg.Solver.Iterations)
	assert.Equal(0.0, cfg.Solver.Tolerance)
	assert.Equal(600, cfg.Steps)
	assert.Equal(0.05, cfg.Dt)

	w, err := cfg.Weights()
	assert.NoError(err)
	assert.True(mat.Equal(mat.NewDiagDense(2, []float64{3.0, 1.5}), w.Q))
	assert.Equal(0.5, w.R.At(0, 0))

	l := cfg.SteeringLimits()
	assert.Equal([]float64{-0.6}, l.Min)
	assert.Equal([]float64{0.6}, l.Max)

	ic, err := cfg.InitCond()
	assert.NoError(err)
	assert.Equal(1.0, ic.State().AtVec(0))
	assert.Equal(0.2, ic.State().AtVec(1))
	assert.Equal(0.0, ic.Time())

	c := cfg.SolverConfig()
	assert.Equal(riccati.DefaultIterations, c.Iterations)

	wd, err := cfg.ProcessNoise()
	assert.NoError(err)
	_, ok := wd.(*noise.None)
	assert.True(ok)
}

func TestValidate(t *testing.T) {
	assert := assert.New(t)

	for _, test := range []struct {
		name   string
		modify func(*Config)
		err    error
	}{
		{"speed", func(c *Config) { c.Vehicle.V = math.NaN() }, lqr.ErrInvalidConfig},
		{"wheel base", func(c *Config) { c.Vehicle.L = 0 }, lqr.ErrInvalidConfig},
		{"discretization", func(c *Config) { c.Discretization = "rk4" }, lqr.ErrInvalidConfig},
		{"zero dt", func(c *Config) { c.Dt = 0 }, lqr.ErrInvalidTimeStep},
		{"negative dt", func(c *Config) { c.Dt = -0.05 }, lqr.ErrInvalidTimeStep},
		{"steps", func(c *Config) { c.Steps = -1 }, lqr.ErrInvalidStepCount},
		{"init state", func(c *Config) { c.InitState.Ey = math.Inf(1) }, lqr.ErrInvalidConfig},
		{"zero R", func(c *Config) { c.Cost.R = 0 }, lqr.ErrInvalidCostWeights},
		{"negative Q", func(c *Config) { c.Cost.Q = []float64{-1, 1} }, lqr.ErrInvalidCostWeights},
		{"Q dims", func(c *Config) { c.Cost.Q = []float64{1, 1, 1} }, lqr.ErrDimensionMismatch},
		{"asymmetric Q", func(c *Config) { c.Cost.QFull = [][]float64{{1, 2}, {0, 1}} }, lqr.ErrInvalidCostWeights},
		{"Q rows", func(c *Config) { c.Cost.QFull = [][]float64{{1, 0}, {0}} }, lqr.ErrDimensionMismatch},
		{"limits", func(c *Config) { c.Limits.DeltaMin = 1 }, lqr.ErrInvalidLimits},
		{"iterations", func(c *Config) { c.Solver.Iterations = -1 }, lqr.ErrInvalidIterations},
		{"tolerance", func(c *Config) { c.Solver.Tolerance = -1 }, lqr.ErrInvalidConfig},
		{"disturbance dims", func(c *Config) { c.Disturbance.Cov = []float64{1} }, lqr.ErrDimensionMismatch},
		{"disturbance variance", func(c *Config) { c.Disturbance.Cov = []float64{1, 0} }, lqr.ErrInvalidConfig},
	} {
		cfg := DefaultConfig()
		test.modify(cfg)
		err := cfg.Validate()
		assert.True(errors.Is(err, test.err), "%s: %v", test.name, err)
	}

	// zero iterations is a valid, if crude, solver setting
	cfg := DefaultConfig()
	cfg.Solver.Iterations = 0
	assert.NoError(cfg.Validate())
}

func TestWeightsFull(t *testing.T) {
	assert := assert.New(t)

	cfg := DefaultConfig()
	cfg.Cost.QFull = [][]float64{{3, 0.5}, {0.5, 1.5}}

	w, err := cfg.Weights()
	assert.NoError(err)
	assert.Equal(0.5, w.Q.At(0, 1))
	assert.Equal(0.5, w.Q.At(1, 0))
	assert.Equal(1.5, w.Q.At(1, 1))
}

func TestProcessNoise(t *testing.T) {
	assert := assert.New(t)

	cfg := GetPreset("gusty")
	assert.NotNil(cfg)

	wd, err := cfg.ProcessNoise()
	assert.NoError(err)
	assert.Equal(2, wd.Cov().SymmetricDim())
	assert.Equal(1e-4, wd.Cov().At(0, 0))
	assert.Equal([]float64{0, 0}, wd.Mean())
}

func TestLoadSave(t *testing.T) {
	assert := assert.New(t)

	path := filepath.Join(t.TempDir(), "lanekeep.yaml")

	cfg := DefaultConfig()
	cfg.Vehicle.V = 15.0
	cfg.Solver.Tolerance = 1e-9
	assert.NoError(Save(path, cfg))

	loaded, err := Load(path)
	assert.NoError(err)
	assert.Equal(cfg, loaded)

	// missing fields fall back to defaults
	assert.NoError(os.WriteFile(path, []byte("dt: 0.1\nsolver:\n  iterations: 0\n"), 0644))
	loaded, err = Load(path)
	assert.NoError(err)
	assert.Equal(0.1, loaded.Dt)
	assert.Equal(0, loaded.Solver.Iterations)
	assert.Equal(DefaultSpeed, loaded.Vehicle.V)
	assert.Equal([]float64{3.0, 1.5}, loaded.Cost.Q)

	assert.NoError(os.WriteFile(path, []byte("dt: -1\n"), 0644))
	_, err = Load(path)
	assert.True(errors.Is(err, lqr.ErrInvalidTimeStep))

	assert.NoError(os.WriteFile(path, []byte("dt: [\n"), 0644))
	_, err = Load(path)
	assert.True(errors.Is(err, lqr.ErrInvalidConfig))

	// misspelled keys do not silently keep defaults
	assert.NoError(os.WriteFile(path, []byte("limits:\n  delta_mn: -0.1\n"), 0644))
	_, err = Load(path)
	assert.True(errors.Is(err, lqr.ErrInvalidConfig))

	// empty file is the default configuration
	assert.NoError(os.WriteFile(path, nil, 0644))
	loaded, err = Load(path)
	assert.NoError(err)
	assert.Equal(DefaultConfig(), loaded)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(err)
}

func TestPresets(t *testing.T) {
	assert := assert.New(t)

	names := ListPresets()
	assert.Equal([]string{"default", "gusty", "highway", "urban"}, names)

	for _, name := range names {
		cfg := GetPreset(name)
		assert.NotNil(cfg, name)
		assert.NoError(cfg.Validate(), name)
	}

	assert.Equal(DefaultConfig(), GetPreset("default"))
	assert.Equal(ZOH, GetPreset("highway").Discretization)
	assert.Nil(GetPreset("nonexistent"))
}
