package sim

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// InitCond implements lqr.InitCond
type InitCond struct {
	state *mat.VecDense
	t0    float64
}

// NewInitCond creates new InitCond with initial state and initial time t0 and returns it.
// It returns error if state is nil or empty.
func NewInitCond(state mat.Vector, t0 float64) (*InitCond, error) {
	if state == nil || state.Len() == 0 {
		return nil, fmt.Errorf("invalid initial state: %v", state)
	}

	s := &mat.VecDense{}
	s.CloneFromVec(state)

	return &InitCond{
		state: s,
		t0:    t0,
	}, nil
}

// State returns initial state
func (c *InitCond) State() mat.Vector {
	state := mat.NewVecDense(c.state.Len(), nil)
	state.CloneFromVec(c.state)

	return state
}

// Time returns initial time
func (c *InitCond) Time() float64 {
	return c.t0
}
