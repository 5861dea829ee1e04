package lanekeep

import (
	"context"
	"fmt"

	"github.com/milosgajdos/go-lqr/config"
	"github.com/milosgajdos/go-lqr/report"
	"github.com/milosgajdos/go-lqr/riccati"
	"github.com/milosgajdos/go-lqr/sim"
)

// Result is lane keeping session result
type Result struct {
	// Plant is the discretized vehicle model
	Plant *sim.Discrete
	// Solution is the Riccati solution
	Solution *riccati.Solution
	// Trajectory is the closed-loop trajectory
	Trajectory *sim.Trajectory
	// Summary is the run summary
	Summary *report.Summary
}

// Plant builds the discrete-time vehicle model configured by cfg.
func Plant(cfg *config.Config) (*sim.Discrete, error) {
	v, err := NewVehicle(cfg.Vehicle.V, cfg.Vehicle.L)
	if err != nil {
		return nil, err
	}

	return v.Discretize(cfg.Discretization, cfg.Dt)
}

// Solve computes the LQR gain of the vehicle model configured by cfg.
// If cfg is nil, config.DefaultConfig is used.
func Solve(ctx context.Context, cfg *config.Config) (*sim.Discrete, *riccati.Solution, error) {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}

	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}

	plant, err := Plant(cfg)
	if err != nil {
		return nil, nil, err
	}

	w, err := cfg.Weights()
	if err != nil {
		return nil, nil, err
	}

	sol, err := riccati.Solve(ctx, plant.SystemMatrix(), plant.ControlMatrix(), w, cfg.SolverConfig())
	if err != nil {
		return nil, nil, fmt.Errorf("failed to solve riccati equation: %w", err)
	}

	return plant, sol, nil
}

// Run solves the LQR gain of the vehicle model configured by cfg and simulates
// the closed loop driven by it.
// If cfg is nil, config.DefaultConfig is used.
func Run(ctx context.Context, cfg *config.Config) (*Result, error) {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}

	plant, sol, err := Solve(ctx, cfg)
	if err != nil {
		return nil, err
	}

	wd, err := cfg.ProcessNoise()
	if err != nil {
		return nil, err
	}

	cl, err := sim.NewClosedLoop(plant, sol.Gain(), cfg.SteeringLimits(), sim.WithDisturbance(wd))
	if err != nil {
		return nil, err
	}

	ic, err := cfg.InitCond()
	if err != nil {
		return nil, err
	}

	traj, err := cl.Run(ctx, ic, cfg.Dt, cfg.Steps)
	if err != nil {
		return nil, fmt.Errorf("failed to simulate closed loop: %w", err)
	}

	summary, err := report.Summarize(traj, sol)
	if err != nil {
		return nil, err
	}

	return &Result{
		Plant:      plant,
		Solution:   sol,
		Trajectory: traj,
		Summary:    summary,
	}, nil
}
