package noise

import "gonum.org/v1/gonum/mat"

// None is noise with empty mean and zero size covariance matrix.
// It stands for no noise at all: its samples are zero length vectors
// which propagation ignores.
type None struct{}

// NewNone creates new None noise and returns it
func NewNone() (*None, error) {
	return &None{}, nil
}

// Sample returns zero size vector.
func (e *None) Sample() mat.Vector {
	sample := &mat.VecDense{}

	return sample
}

// Cov returns zero size covariance matrix.
func (e *None) Cov() mat.Symmetric {
	cov := &mat.SymDense{}

	return cov
}

// Mean returns None mean.
func (e *None) Mean() []float64 {
	var mean []float64

	return mean
}

// Reset does nothing: it's here to implement lqr.Noise interface
func (e *None) Reset() error { return nil }
