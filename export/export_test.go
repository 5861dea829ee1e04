package export

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	lqr "github.com/milosgajdos/go-lqr"
	"github.com/milosgajdos/go-lqr/report"
	"github.com/milosgajdos/go-lqr/riccati"
	"github.com/milosgajdos/go-lqr/sim"
	"github.com/stretchr/testify/assert"
	"gonum.org/v1/gonum/mat"
)

var (
	traj    *sim.Trajectory
	summary *report.Summary
)

func setup() {
	A := mat.NewDense(2, 2, []float64{1.0, 0.5, 0.0, 1.0})
	B := mat.NewDense(2, 1, []float64{0.0, 0.2})
	K := mat.NewDense(1, 2, []float64{1.0, 2.0})

	plant, err := sim.NewDiscrete(A, B)
	if err != nil {
		panic(err)
	}

	cl, err := sim.NewClosedLoop(plant, K, sim.NewScalarLimits(-0.6, 0.6))
	if err != nil {
		panic(err)
	}

	ic, err := sim.NewInitCond(mat.NewVecDense(2, []float64{1.0, 0.2}), 0.0)
	if err != nil {
		panic(err)
	}

	traj, err = cl.Run(context.Background(), ic, 0.05, 3)
	if err != nil {
		panic(err)
	}

	sol, err := riccati.Solve(context.Background(), A, B, riccati.NewDiagWeights([]float64{3.0, 1.5}, 0.5), &riccati.Config{Iterations: 10})
	if err != nil {
		panic(err)
	}

	summary, err = report.Summarize(traj, sol)
	if err != nil {
		panic(err)
	}
}

func TestMain(m *testing.M) {
	// set up tests
	setup()
	// run the tests
	retCode := m.Run()
	// call with result of m.Run()
	os.Exit(retCode)
}

func TestWriteCSV(t *testing.T) {
	assert := assert.New(t)

	var buf bytes.Buffer
	assert.NoError(WriteCSV(&buf, traj, nil))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	assert.Len(lines, 4)
	assert.Equal("t,ey,epsi,delta", lines[0])
	// u = -(1*1.0 + 2*0.2) = -1.4 clamped to -0.6
	assert.Equal("0.000000,1.000000,0.200000,-0.600000", lines[1])
	assert.Equal("0.050000,1.100000,0.080000,-0.600000", lines[2])
	assert.True(strings.HasPrefix(lines[3], "0.100000,"))

	buf.Reset()
	err := WriteCSV(&buf, traj, []string{"t", "ey"})
	assert.True(errors.Is(err, lqr.ErrDimensionMismatch))

	assert.Error(WriteCSV(&buf, nil, nil))
}

func TestWriteJSON(t *testing.T) {
	assert := assert.New(t)

	var buf bytes.Buffer
	assert.NoError(WriteJSON(&buf, traj, summary))

	var data Data
	assert.NoError(json.Unmarshal(buf.Bytes(), &data))
	assert.Equal(3, data.Steps)
	assert.Equal(traj.Times(), data.Times)
	assert.Equal([]float64{1.0, 0.2}, data.States[0])
	assert.Equal([]float64{-0.6}, data.Controls[0])
	assert.Len(data.Gain, 1)
	assert.Len(data.Gain[0], 2)
	assert.Equal(3.0, data.Metrics["saturated"])

	buf.Reset()
	assert.NoError(WriteJSON(&buf, traj, nil))
	data = Data{}
	assert.NoError(json.Unmarshal(buf.Bytes(), &data))
	assert.Nil(data.Metrics)
	assert.Nil(data.Gain)
}

func TestSave(t *testing.T) {
	assert := assert.New(t)

	dir := t.TempDir()

	csvPath := filepath.Join(dir, "lqr_log.csv")
	assert.NoError(SaveCSV(csvPath, traj, nil))
	b, err := os.ReadFile(csvPath)
	assert.NoError(err)
	assert.True(strings.HasPrefix(string(b), "t,ey,epsi,delta\n"))

	jsonPath := filepath.Join(dir, "lqr_log.json")
	assert.NoError(SaveJSON(jsonPath, traj, summary))
	b, err = os.ReadFile(jsonPath)
	assert.NoError(err)
	assert.Contains(string(b), "\"metrics\"")

	assert.Error(SaveCSV(filepath.Join(dir, "missing", "lqr_log.csv"), traj, nil))
}
