package sim

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
)

// NewTrajectoryPlot creates new plot of the simulated trajectory traj.
// Every state and control element is drawn as a line over time and labelled with
// the matching entry in labels: state labels first, followed by control labels.
// It returns error if the plot fails to be created. This can be due to either of the following conditions:
// * traj is nil or has no samples
// * labels length does not match the number of state and control elements
// * gonum plot fails to be created
func NewTrajectoryPlot(traj *Trajectory, labels []string) (*plot.Plot, error) {
	if traj == nil || traj.Len() == 0 {
		return nil, fmt.Errorf("invalid trajectory supplied")
	}

	states, controls := traj.States(), traj.Controls()
	_, nx := states.Dims()
	_, nu := controls.Dims()

	if len(labels) != nx+nu {
		return nil, fmt.Errorf("invalid number of labels: %d != %d", len(labels), nx+nu)
	}

	p := plot.New()

	p.Title.Text = "Closed loop simulation"
	p.X.Label.Text = "t"
	p.Y.Label.Text = "value"

	legend := plot.NewLegend()
	legend.Top = true
	p.Legend = legend

	times := traj.Times()
	for i, label := range labels {
		var pts plotter.XYs
		if i < nx {
			pts = makePoints(times, states, i)
		} else {
			pts = makePoints(times, controls, i-nx)
		}

		line, err := plotter.NewLine(pts)
		if err != nil {
			return nil, fmt.Errorf("failed to create line %q: %v", label, err)
		}
		line.LineStyle.Color = plotutil.Color(i)
		line.LineStyle.Dashes = plotutil.Dashes(i)
		line.LineStyle.Width = vg.Points(1)

		p.Add(line)
		p.Legend.Add(label, line)
	}

	return p, nil
}

// makePoints pairs times with column col of m.
func makePoints(times []float64, m mat.Matrix, col int) plotter.XYs {
	pts := make(plotter.XYs, len(times))
	for i := range times {
		pts[i].X = times[i]
		pts[i].Y = m.At(i, col)
	}

	return pts
}
