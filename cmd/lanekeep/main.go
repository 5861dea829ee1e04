package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/milosgajdos/go-lqr/config"
	"github.com/milosgajdos/go-lqr/export"
	"github.com/milosgajdos/go-lqr/lanekeep"
	"github.com/milosgajdos/go-lqr/report"
	"github.com/milosgajdos/go-lqr/riccati"
	"github.com/milosgajdos/go-lqr/sim"
	"github.com/spf13/cobra"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/plot/vg"
)

var (
	configFile string
	preset     string
	// overrides
	speed          float64
	wheelBase      float64
	dt             float64
	steps          int
	iterations     int
	tolerance      float64
	discretization string
	// sinks
	csvOut  string
	jsonOut string
	plotOut string
	chart   bool
)

var (
	headerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("86")).Bold(true)
	labelStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	valueStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "lanekeep",
		Short:         "LQR lane keeping simulation",
		SilenceErrors: true,
		SilenceUsage:  true,
	}

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "solve LQR gain and simulate the closed loop",
		RunE:  runSimulation,
	}
	addConfigFlags(runCmd)
	runCmd.Flags().StringVar(&csvOut, "out", "lqr_log.csv", "CSV output path (empty disables)")
	runCmd.Flags().StringVar(&jsonOut, "json", "", "JSON output path")
	runCmd.Flags().StringVar(&plotOut, "plot", "", "PNG plot output path")
	runCmd.Flags().BoolVar(&chart, "chart", false, "print ASCII charts of the state")

	gainCmd := &cobra.Command{
		Use:   "gain",
		Short: "solve LQR gain",
		RunE:  solveGain,
	}
	addConfigFlags(gainCmd)

	configCmd := &cobra.Command{
		Use:   "config [path]",
		Short: "write configuration to a YAML file",
		Args:  cobra.ExactArgs(1),
		RunE:  writeConfig,
	}
	configCmd.Flags().StringVar(&preset, "preset", "", "preset configuration")

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list preset configurations",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println(strings.Join(config.ListPresets(), "\n"))
		},
	}

	rootCmd.AddCommand(runCmd, gainCmd, configCmd, presetsCmd)

	if err := rootCmd.Execute(); err != nil {
		log.Fatalf("lanekeep: %v", err)
	}
}

func addConfigFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&configFile, "config", "", "config file path (yaml)")
	cmd.Flags().StringVar(&preset, "preset", "", "use preset configuration")
	cmd.Flags().Float64Var(&speed, "v", config.DefaultSpeed, "longitudinal speed [m/s]")
	cmd.Flags().Float64Var(&wheelBase, "L", config.DefaultWheelBase, "wheel base [m]")
	cmd.Flags().Float64Var(&dt, "dt", config.DefaultDt, "timestep [s]")
	cmd.Flags().IntVar(&steps, "steps", config.DefaultSteps, "number of simulation steps")
	cmd.Flags().IntVar(&iterations, "iterations", riccati.DefaultIterations, "number of Riccati iterations")
	cmd.Flags().Float64Var(&tolerance, "tolerance", 0, "Riccati early stopping tolerance (0 disables)")
	cmd.Flags().StringVar(&discretization, "discretization", config.Euler, "discretization: euler or zoh")
}

// loadConfig loads configuration from a file or a preset and applies flag overrides
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.DefaultConfig()

	switch {
	case configFile != "":
		c, err := config.Load(configFile)
		if err != nil {
			return nil, err
		}
		cfg = c
	case preset != "":
		cfg = config.GetPreset(preset)
		if cfg == nil {
			return nil, fmt.Errorf("unknown preset: %q (available: %s)", preset, strings.Join(config.ListPresets(), ", "))
		}
	}

	flags := cmd.Flags()
	if flags.Changed("v") {
		cfg.Vehicle.V = speed
	}
	if flags.Changed("L") {
		cfg.Vehicle.L = wheelBase
	}
	if flags.Changed("dt") {
		cfg.Dt = dt
	}
	if flags.Changed("steps") {
		cfg.Steps = steps
	}
	if flags.Changed("iterations") {
		cfg.Solver.Iterations = iterations
	}
	if flags.Changed("tolerance") {
		cfg.Solver.Tolerance = tolerance
	}
	if flags.Changed("discretization") {
		cfg.Discretization = discretization
	}

	return cfg, cfg.Validate()
}

func runSimulation(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	res, err := lanekeep.Run(ctx, cfg)
	if err != nil {
		return err
	}

	fmt.Println(headerStyle.Render("LQR lane keeping simulation finished."))

	if csvOut != "" {
		if err := export.SaveCSV(csvOut, res.Trajectory, nil); err != nil {
			return fmt.Errorf("failed to save CSV: %w", err)
		}
		fmt.Printf("CSV saved to %s (%s).\n", csvOut, strings.Join(export.DefaultHeader, ", "))
	}

	if jsonOut != "" {
		if err := export.SaveJSON(jsonOut, res.Trajectory, res.Summary); err != nil {
			return fmt.Errorf("failed to save JSON: %w", err)
		}
		fmt.Printf("JSON saved to %s.\n", jsonOut)
	}

	if plotOut != "" && res.Trajectory.Len() > 0 {
		p, err := sim.NewTrajectoryPlot(res.Trajectory, export.DefaultHeader[1:])
		if err != nil {
			return fmt.Errorf("failed to plot trajectory: %w", err)
		}
		p.Title.Text = "LQR lane keeping"
		if err := p.Save(8*vg.Inch, 4*vg.Inch, plotOut); err != nil {
			return fmt.Errorf("failed to save plot: %w", err)
		}
		fmt.Printf("Plot saved to %s.\n", plotOut)
	}

	fmt.Print(res.Summary)

	s := res.Summary
	printStat("iterations", fmt.Sprintf("%d (delta %.3e)", s.Iterations, s.Delta))
	printStat("saturated", fmt.Sprintf("%d / %d", s.Saturated, s.Steps))
	printStat("effort", fmt.Sprintf("%.6f", s.ControlEffort))
	printStat("cost", fmt.Sprintf("%.6f", s.Cost))

	if chart && res.Trajectory.Len() > 0 {
		for i := range report.StateLabels {
			c, err := report.Chart(res.Trajectory, i)
			if err != nil {
				return err
			}
			fmt.Println()
			fmt.Println(c)
		}
	}

	return nil
}

func solveGain(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	plant, sol, err := lanekeep.Solve(cmd.Context(), cfg)
	if err != nil {
		return err
	}

	fmt.Println(headerStyle.Render("Plant"))
	fmt.Printf("A =\n%v\n", mxFormat(plant.SystemMatrix()))
	fmt.Printf("B =\n%v\n", mxFormat(plant.ControlMatrix()))
	fmt.Println(headerStyle.Render("Riccati solution"))
	fmt.Printf("P =\n%v\n", mxFormat(sol.P()))
	fmt.Printf("K =\n%v\n", mxFormat(sol.Gain()))
	printStat("iterations", fmt.Sprintf("%d (delta %.3e)", sol.Iterations(), sol.Delta()))

	return nil
}

func writeConfig(cmd *cobra.Command, args []string) error {
	cfg := config.DefaultConfig()
	if preset != "" {
		cfg = config.GetPreset(preset)
		if cfg == nil {
			return fmt.Errorf("unknown preset: %q", preset)
		}
	}

	if err := config.Save(args[0], cfg); err != nil {
		return err
	}
	fmt.Printf("Config saved to %s.\n", args[0])

	return nil
}

func printStat(label, value string) {
	fmt.Printf("%s %s\n", labelStyle.Render(fmt.Sprintf("%-12s", label)), valueStyle.Render(value))
}

func mxFormat(m mat.Matrix) fmt.Formatter {
	return mat.Formatted(m, mat.Prefix(""), mat.Squeeze())
}
