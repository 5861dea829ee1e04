package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"math"
	"os"

	lqr "github.com/milosgajdos/go-lqr"
	"github.com/milosgajdos/go-lqr/matrix"
	"github.com/milosgajdos/go-lqr/noise"
	"github.com/milosgajdos/go-lqr/riccati"
	"github.com/milosgajdos/go-lqr/sim"
	"gopkg.in/yaml.v3"
	"gonum.org/v1/gonum/mat"
)

const (
	DefaultSpeed      = 10.0
	DefaultWheelBase  = 2.5
	DefaultDt         = 0.05
	DefaultSteps      = 600
	DefaultR          = 0.5
	DefaultDeltaLimit = 0.6
	DefaultEy         = 1.0
	DefaultEpsi       = 0.2
)

// Discretization methods
const (
	Euler = "euler"
	ZOH   = "zoh"
)

// StateDim is the lane keeping state dimension: lateral and heading error
const StateDim = 2

// Config is lane keeping session configuration
type Config struct {
	Vehicle        VehicleConfig     `yaml:"vehicle"`
	Discretization string            `yaml:"discretization"`
	Dt             float64           `yaml:"dt"`
	Steps          int               `yaml:"steps"`
	T0             float64           `yaml:"t0"`
	Cost           CostConfig        `yaml:"cost"`
	Limits         LimitsConfig      `yaml:"limits"`
	InitState      InitStateConfig   `yaml:"init_state"`
	Solver         SolverConfig      `yaml:"solver"`
	Disturbance    DisturbanceConfig `yaml:"disturbance"`
}

type VehicleConfig struct {
	// V is longitudinal speed [m/s]
	V float64 `yaml:"v"`
	// L is wheel base [m]
	L float64 `yaml:"l"`
}

type CostConfig struct {
	// Q is diagonal of the state cost
	Q []float64 `yaml:"q"`
	// QFull is full state cost. It takes precedence over Q when set.
	QFull [][]float64 `yaml:"q_full,omitempty"`
	// R is steering cost
	R float64 `yaml:"r"`
}

type LimitsConfig struct {
	DeltaMin float64 `yaml:"delta_min"`
	DeltaMax float64 `yaml:"delta_max"`
}

type InitStateConfig struct {
	Ey   float64 `yaml:"ey"`
	Epsi float64 `yaml:"epsi"`
}

type SolverConfig struct {
	Iterations int     `yaml:"iterations"`
	Tolerance  float64 `yaml:"tolerance"`
}

type DisturbanceConfig struct {
	// Cov is diagonal of process disturbance covariance. Empty disables disturbance.
	Cov  []float64 `yaml:"cov,omitempty"`
	Seed uint64    `yaml:"seed"`
}

// DefaultConfig returns the default lane keeping configuration.
func DefaultConfig() *Config {
	return &Config{
		Vehicle: VehicleConfig{
			V: DefaultSpeed,
			L: DefaultWheelBase,
		},
		Discretization: Euler,
		Dt:             DefaultDt,
		Steps:          DefaultSteps,
		Cost: CostConfig{
			Q: []float64{3.0, 1.5},
			R: DefaultR,
		},
		Limits: LimitsConfig{
			DeltaMin: -DefaultDeltaLimit,
			DeltaMax: DefaultDeltaLimit,
		},
		InitState: InitStateConfig{
			Ey:   DefaultEy,
			Epsi: DefaultEpsi,
		},
		Solver: SolverConfig{
			Iterations: riccati.DefaultIterations,
		},
	}
}

// Load reads YAML configuration from path on top of DefaultConfig and validates it.
// Unknown keys are rejected.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := DefaultConfig()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: %v", lqr.ErrInvalidConfig, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Save writes cfg to path as YAML.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Validate checks configuration values.
func (c *Config) Validate() error {
	if !isFinite(c.Vehicle.V) {
		return fmt.Errorf("%w: invalid speed: %v", lqr.ErrInvalidConfig, c.Vehicle.V)
	}

	if !(c.Vehicle.L > 0) || math.IsInf(c.Vehicle.L, 1) {
		return fmt.Errorf("%w: invalid wheel base: %v", lqr.ErrInvalidConfig, c.Vehicle.L)
	}

	switch c.Discretization {
	case Euler, ZOH:
	default:
		return fmt.Errorf("%w: unknown discretization: %q", lqr.ErrInvalidConfig, c.Discretization)
	}

	if !(c.Dt > 0) || math.IsInf(c.Dt, 1) {
		return fmt.Errorf("%w: %v", lqr.ErrInvalidTimeStep, c.Dt)
	}

	if c.Steps < 0 {
		return fmt.Errorf("%w: %d", lqr.ErrInvalidStepCount, c.Steps)
	}

	if !isFinite(c.T0) || !isFinite(c.InitState.Ey) || !isFinite(c.InitState.Epsi) {
		return fmt.Errorf("%w: initial condition must be finite", lqr.ErrInvalidConfig)
	}

	if _, err := c.Weights(); err != nil {
		return err
	}

	if c.Limits.DeltaMin > c.Limits.DeltaMax || math.IsNaN(c.Limits.DeltaMin) || math.IsNaN(c.Limits.DeltaMax) {
		return fmt.Errorf("%w: [%v, %v]", lqr.ErrInvalidLimits, c.Limits.DeltaMin, c.Limits.DeltaMax)
	}

	if c.Solver.Iterations < 0 {
		return fmt.Errorf("%w: %d", lqr.ErrInvalidIterations, c.Solver.Iterations)
	}

	if !(c.Solver.Tolerance >= 0) {
		return fmt.Errorf("%w: invalid tolerance: %v", lqr.ErrInvalidConfig, c.Solver.Tolerance)
	}

	if n := len(c.Disturbance.Cov); n != 0 && n != StateDim {
		return fmt.Errorf("%w: invalid disturbance dimension: %d", lqr.ErrDimensionMismatch, n)
	}

	for _, v := range c.Disturbance.Cov {
		if !(v > 0) || math.IsInf(v, 1) {
			return fmt.Errorf("%w: invalid disturbance variance: %v", lqr.ErrInvalidConfig, v)
		}
	}

	return nil
}

// Weights returns LQR cost weights.
// It returns error if the state cost is not a symmetric [2 x 2] matrix or R is not positive.
func (c *Config) Weights() (*riccati.Weights, error) {
	if !(c.Cost.R > 0) || math.IsInf(c.Cost.R, 1) {
		return nil, fmt.Errorf("%w: steering cost must be positive: %v", lqr.ErrInvalidCostWeights, c.Cost.R)
	}

	r := mat.NewSymDense(1, []float64{c.Cost.R})

	if len(c.Cost.QFull) == 0 {
		if len(c.Cost.Q) != StateDim {
			return nil, fmt.Errorf("%w: invalid state cost dimension: %d", lqr.ErrDimensionMismatch, len(c.Cost.Q))
		}
		for _, v := range c.Cost.Q {
			if !(v >= 0) || math.IsInf(v, 1) {
				return nil, fmt.Errorf("%w: invalid state cost: %v", lqr.ErrInvalidCostWeights, v)
			}
		}
		return riccati.NewDiagWeights(c.Cost.Q, c.Cost.R), nil
	}

	if len(c.Cost.QFull) != StateDim {
		return nil, fmt.Errorf("%w: invalid state cost dimension: %d", lqr.ErrDimensionMismatch, len(c.Cost.QFull))
	}

	q := mat.NewDense(StateDim, StateDim, nil)
	for i, row := range c.Cost.QFull {
		if len(row) != StateDim {
			return nil, fmt.Errorf("%w: invalid state cost row %d: %d", lqr.ErrDimensionMismatch, i, len(row))
		}
		q.SetRow(i, row)
	}

	if !matrix.IsFinite(q.RawMatrix().Data) || !matrix.IsSymmetric(q, 1e-12) {
		return nil, fmt.Errorf("%w: state cost must be finite and symmetric", lqr.ErrInvalidCostWeights)
	}

	return &riccati.Weights{
		Q: matrix.ToSymDense(q),
		R: r,
	}, nil
}

// SteeringLimits returns steering angle limits.
func (c *Config) SteeringLimits() sim.Limits {
	return sim.NewScalarLimits(c.Limits.DeltaMin, c.Limits.DeltaMax)
}

// InitCond returns initial condition of the simulation.
func (c *Config) InitCond() (*sim.InitCond, error) {
	x := mat.NewVecDense(StateDim, []float64{c.InitState.Ey, c.InitState.Epsi})
	return sim.NewInitCond(x, c.T0)
}

// SolverConfig returns Riccati solver configuration.
func (c *Config) SolverConfig() *riccati.Config {
	return &riccati.Config{
		Iterations: c.Solver.Iterations,
		Tolerance:  c.Solver.Tolerance,
	}
}

// ProcessNoise returns process disturbance. It returns noise.None if no disturbance is configured.
func (c *Config) ProcessNoise() (lqr.Noise, error) {
	if len(c.Disturbance.Cov) == 0 {
		return noise.NewNone()
	}

	cov := mat.NewSymDense(len(c.Disturbance.Cov), nil)
	for i, v := range c.Disturbance.Cov {
		cov.SetSym(i, i, v)
	}

	g, err := noise.NewGaussianWithSeed(make([]float64, len(c.Disturbance.Cov)), cov, c.Disturbance.Seed)
	if err != nil {
		return nil, err
	}

	return g, nil
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
