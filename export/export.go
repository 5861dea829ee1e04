package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"

	lqr "github.com/milosgajdos/go-lqr"
	"github.com/milosgajdos/go-lqr/report"
	"github.com/milosgajdos/go-lqr/sim"
	"gonum.org/v1/gonum/mat"
)

// DefaultHeader is lane keeping CSV header
var DefaultHeader = []string{"t", "ey", "epsi", "delta"}

// Data is JSON export of a closed-loop run
type Data struct {
	Steps    int                `json:"steps"`
	Times    []float64          `json:"times"`
	States   [][]float64        `json:"states"`
	Controls [][]float64        `json:"controls"`
	Gain     [][]float64        `json:"gain,omitempty"`
	Metrics  map[string]float64 `json:"metrics,omitempty"`
}

// WriteCSV writes trajectory samples to w, one row per sample: time, state, control.
// Values are written with six decimals. If header is nil, DefaultHeader is used.
// It returns error if header length does not match the sample length.
func WriteCSV(w io.Writer, traj *sim.Trajectory, header []string) error {
	if traj == nil {
		return fmt.Errorf("trajectory must be defined")
	}

	if header == nil {
		header = DefaultHeader
	}

	cw := csv.NewWriter(w)

	if traj.Len() > 0 {
		s := traj.At(0)
		if n := 1 + s.X.Len() + s.U.Len(); n != len(header) {
			return fmt.Errorf("%w: header has %d columns, samples have %d", lqr.ErrDimensionMismatch, len(header), n)
		}
	}

	if err := cw.Write(header); err != nil {
		return err
	}

	row := make([]string, len(header))
	for i := 0; i < traj.Len(); i++ {
		s := traj.At(i)
		row = row[:0]
		row = append(row, formatFloat(s.T))
		for j := 0; j < s.X.Len(); j++ {
			row = append(row, formatFloat(s.X.AtVec(j)))
		}
		for j := 0; j < s.U.Len(); j++ {
			row = append(row, formatFloat(s.U.AtVec(j)))
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

// WriteJSON writes trajectory and optional summary to w as indented JSON.
func WriteJSON(w io.Writer, traj *sim.Trajectory, summary *report.Summary) error {
	if traj == nil {
		return fmt.Errorf("trajectory must be defined")
	}

	data := Data{
		Steps:    traj.Len(),
		Times:    traj.Times(),
		States:   rows(traj.States()),
		Controls: rows(traj.Controls()),
	}

	if summary != nil {
		data.Gain = rows(summary.Gain)
		data.Metrics = summary.Metrics()
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}

// SaveCSV writes trajectory samples to a CSV file at path.
func SaveCSV(path string, traj *sim.Trajectory, header []string) error {
	return save(path, func(w io.Writer) error {
		return WriteCSV(w, traj, header)
	})
}

// SaveJSON writes trajectory and summary to a JSON file at path.
func SaveJSON(path string, traj *sim.Trajectory, summary *report.Summary) error {
	return save(path, func(w io.Writer) error {
		return WriteJSON(w, traj, summary)
	})
}

func save(path string, write func(io.Writer) error) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}

	if err := write(file); err != nil {
		file.Close()
		return err
	}

	return file.Close()
}

func rows(m *mat.Dense) [][]float64 {
	if m == nil || m.IsEmpty() {
		return [][]float64{}
	}

	r, _ := m.Dims()
	out := make([][]float64, r)
	for i := range out {
		out[i] = mat.Row(nil, i, m)
	}

	return out
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', 6, 64)
}
