package sim

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewTrajectoryPlot(t *testing.T) {
	assert := assert.New(t)

	cl, err := NewClosedLoop(plant, K, limits)
	assert.NotNil(cl)
	assert.NoError(err)

	traj, err := cl.Run(context.Background(), ic, 0.05, 10)
	assert.NotNil(traj)
	assert.NoError(err)

	plt, err := NewTrajectoryPlot(traj, []string{"ey", "epsi", "delta"})
	assert.NotNil(plt)
	assert.NoError(err)

	plt, err = NewTrajectoryPlot(nil, nil)
	assert.Nil(plt)
	assert.Error(err)

	// labels must cover every state and control element
	plt, err = NewTrajectoryPlot(traj, []string{"ey"})
	assert.Nil(plt)
	assert.Error(err)

	empty, err := cl.Run(context.Background(), ic, 0.05, 0)
	assert.NoError(err)
	plt, err = NewTrajectoryPlot(empty, []string{"ey", "epsi", "delta"})
	assert.Nil(plt)
	assert.Error(err)
}
