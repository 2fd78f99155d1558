package nn

import (
	"gonum.org/v1/gonum/mat"
)

// ReLU is a Rectified Linear Unit activation.
//
// Applies the element-wise function: f(x) = max(0, x)
//
// The gradient mask is input > 0, so an input of exactly 0 passes no gradient.
//
// Example:
//
//	relu := nn.NewReLU()
//	output := relu.Forward(input)  // All negative values become 0
type ReLU struct {
	input *mat.Dense // last Forward input
}

// NewReLU creates a new ReLU activation.
func NewReLU() *ReLU {
	return &ReLU{}
}

// Forward applies max(0, x) and caches the pre-activation input.
func (r *ReLU) Forward(input *mat.Dense) *mat.Dense {
	r.input = input

	var output mat.Dense
	output.Apply(func(_, _ int, v float64) float64 {
		if v > 0 {
			return v
		}
		return 0
	}, input)
	return &output
}

// Backward multiplies grad element-wise by the indicator input > 0.
//
// ReLU has no parameters, so opt is unused.
func (r *ReLU) Backward(grad *mat.Dense, _ Updater) *mat.Dense {
	var output mat.Dense
	output.Apply(func(i, j int, v float64) float64 {
		if r.input.At(i, j) > 0 {
			return v
		}
		return 0
	}, grad)
	return &output
}

// Parameters returns nil (ReLU has no trainable parameters).
func (r *ReLU) Parameters() []*Parameter {
	return nil
}
