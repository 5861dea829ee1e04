package report

import (
	"fmt"
	"math"
	"strings"

	"github.com/guptarohit/asciigraph"
	lqr "github.com/milosgajdos/go-lqr"
	"github.com/milosgajdos/go-lqr/riccati"
	"github.com/milosgajdos/go-lqr/sim"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// StateLabels are lane keeping state names
var StateLabels = []string{"ey", "epsi"}

// Summary is a read-only summary of a closed-loop run.
type Summary struct {
	// Steps is the number of simulated steps
	Steps int
	// FinalTime is the time of the final state
	FinalTime float64
	// FinalState is the state after the last step
	FinalState []float64
	// Gain is the feedback gain driving the run
	Gain *mat.Dense
	// Iterations is the number of Riccati recursion steps
	Iterations int
	// Delta is the last change of the Riccati solution
	Delta float64
	// Saturated is the number of samples with clamped control
	Saturated int
	// ControlEffort is the mean absolute control per sample
	ControlEffort float64
	// PeakState is the largest absolute value of every state element
	PeakState []float64
	// Cost is the optimal cost-to-go from the initial state
	Cost float64
}

// Summarize computes run summary from the simulated trajectory traj and the Riccati solution sol.
// It returns error if either is nil or their dimensions do not match.
func Summarize(traj *sim.Trajectory, sol *riccati.Solution) (*Summary, error) {
	if traj == nil || sol == nil {
		return nil, fmt.Errorf("trajectory and solution must be defined")
	}

	final := traj.Final()
	k := mat.DenseCopyOf(sol.Gain())
	if _, nx := k.Dims(); nx != final.Len() {
		return nil, fmt.Errorf("%w: gain has %d columns, state has %d elements", lqr.ErrDimensionMismatch, nx, final.Len())
	}

	s := &Summary{
		Steps:      traj.Len(),
		FinalTime:  traj.FinalTime(),
		FinalState: mat.Col(nil, 0, final),
		Gain:       k,
		Iterations: sol.Iterations(),
		Delta:      sol.Delta(),
		Saturated:  traj.SaturatedCount(),
		PeakState:  make([]float64, final.Len()),
	}

	if traj.Len() == 0 {
		for i := range s.PeakState {
			s.PeakState[i] = math.Abs(s.FinalState[i])
		}
		cost, err := sol.CostToGo(final)
		if err != nil {
			return nil, err
		}
		s.Cost = cost
		return s, nil
	}

	states := traj.States()
	for i := range s.PeakState {
		col := mat.Col(nil, i, states)
		s.PeakState[i] = math.Max(math.Abs(floats.Max(col)), math.Abs(floats.Min(col)))
	}

	controls := traj.Controls()
	rows, _ := controls.Dims()
	var effort float64
	for i := 0; i < rows; i++ {
		effort += floats.Norm(controls.RawRowView(i), 1)
	}
	s.ControlEffort = effort / float64(rows)

	cost, err := sol.CostToGo(traj.At(0).X)
	if err != nil {
		return nil, err
	}
	s.Cost = cost

	return s, nil
}

// Metrics returns summary metrics keyed by name.
func (s *Summary) Metrics() map[string]float64 {
	m := map[string]float64{
		"final_time":     s.FinalTime,
		"iterations":     float64(s.Iterations),
		"delta":          s.Delta,
		"saturated":      float64(s.Saturated),
		"control_effort": s.ControlEffort,
		"cost":           s.Cost,
	}

	for i := range s.FinalState {
		m["final_"+label(i)] = s.FinalState[i]
		m["peak_"+label(i)] = s.PeakState[i]
	}

	return m
}

// String implements the Stringer interface.
func (s *Summary) String() string {
	var b strings.Builder

	b.WriteString("Final ")
	for i, v := range s.FinalState {
		if i > 0 {
			b.WriteString(", ")
		}
		fmt.Fprintf(&b, "%s=%.4f", label(i), v)
	}
	b.WriteString("\n")

	b.WriteString("Gain K = [")
	rows, cols := s.Gain.Dims()
	for i := 0; i < rows; i++ {
		if i > 0 {
			b.WriteString("; ")
		}
		for j := 0; j < cols; j++ {
			if j > 0 {
				b.WriteString(", ")
			}
			fmt.Fprintf(&b, "%.4f", s.Gain.At(i, j))
		}
	}
	b.WriteString("]\n")

	return b.String()
}

// Chart renders an ASCII chart of state element i over the trajectory.
func Chart(traj *sim.Trajectory, i int) (string, error) {
	if traj == nil || traj.Len() == 0 {
		return "", fmt.Errorf("trajectory has no samples")
	}

	states := traj.States()
	if _, nx := states.Dims(); i < 0 || i >= nx {
		return "", fmt.Errorf("%w: invalid state index: %d", lqr.ErrDimensionMismatch, i)
	}

	return asciigraph.Plot(mat.Col(nil, i, states),
		asciigraph.Height(10),
		asciigraph.Width(80),
		asciigraph.Caption(label(i)+" vs time"),
	), nil
}

func label(i int) string {
	if i < len(StateLabels) {
		return StateLabels[i]
	}
	return fmt.Sprintf("x%d", i)
}
