package sim

import "gonum.org/v1/gonum/mat"

// Sample is a single closed-loop simulation record.
// X is the state observed by the controller and U is the (saturated)
// control computed from it, both taken before the state transition.
type Sample struct {
	// T is sample time
	T float64
	// X is system state
	X mat.Vector
	// U is control input
	U mat.Vector
	// Saturated is true if any element of U was clamped
	Saturated bool
}

// Trajectory is a time ordered sequence of closed-loop samples.
// Trajectory is read-only: all accessors return copies.
type Trajectory struct {
	samples []Sample
	// final is the state after the last step
	final *mat.VecDense
	// tFinal is the time of the final state
	tFinal float64
}

// Len returns number of samples
func (t *Trajectory) Len() int {
	return len(t.samples)
}

// At returns a copy of i-th sample.
// It panics if i is out of range.
func (t *Trajectory) At(i int) Sample {
	s := t.samples[i]

	return Sample{
		T:         s.T,
		X:         mat.VecDenseCopyOf(s.X),
		U:         mat.VecDenseCopyOf(s.U),
		Saturated: s.Saturated,
	}
}

// Times returns sample times
func (t *Trajectory) Times() []float64 {
	times := make([]float64, len(t.samples))
	for i, s := range t.samples {
		times[i] = s.T
	}

	return times
}

// States returns sampled states stored in matrix rows.
// It returns empty matrix if the trajectory has no samples.
func (t *Trajectory) States() *mat.Dense {
	if len(t.samples) == 0 {
		return &mat.Dense{}
	}

	m := mat.NewDense(len(t.samples), t.samples[0].X.Len(), nil)
	for i, s := range t.samples {
		m.SetRow(i, mat.VecDenseCopyOf(s.X).RawVector().Data)
	}

	return m
}

// Controls returns sampled controls stored in matrix rows.
// It returns empty matrix if the trajectory has no samples.
func (t *Trajectory) Controls() *mat.Dense {
	if len(t.samples) == 0 {
		return &mat.Dense{}
	}

	m := mat.NewDense(len(t.samples), t.samples[0].U.Len(), nil)
	for i, s := range t.samples {
		m.SetRow(i, mat.VecDenseCopyOf(s.U).RawVector().Data)
	}

	return m
}

// Final returns the system state after the last simulation step.
// For a trajectory with no samples it is the initial state.
func (t *Trajectory) Final() mat.Vector {
	return mat.VecDenseCopyOf(t.final)
}

// FinalTime returns the time of the final state
func (t *Trajectory) FinalTime() float64 {
	return t.tFinal
}

// SaturatedCount returns number of samples whose control was clamped
func (t *Trajectory) SaturatedCount() int {
	n := 0
	for _, s := range t.samples {
		if s.Saturated {
			n++
		}
	}

	return n
}
