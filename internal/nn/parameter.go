package nn

import (
	"gonum.org/v1/gonum/mat"
)

// Parameter represents a trainable parameter in a neural network.
//
// Parameters hold the weights and biases owned by a layer. The value is
// updated in place by the optimizer after each backward pass, and the most
// recent gradient is kept for inspection.
//
// Example:
//
//	weight := nn.NewParameter("weight", weightMatrix)
//
//	// Access the matrix
//	w := weight.Tensor()
//
//	// Get gradient after backward pass
//	grad := weight.Grad()
type Parameter struct {
	name   string     // Parameter name (e.g., "weight", "bias")
	tensor *mat.Dense // The parameter values
	grad   *mat.Dense // Gradient from the most recent backward pass
}

// NewParameter creates a new trainable parameter.
//
// The matrix should be initialized before creating the Parameter.
func NewParameter(name string, t *mat.Dense) *Parameter {
	return &Parameter{
		name:   name,
		tensor: t,
	}
}

// Name returns the parameter name.
func (p *Parameter) Name() string {
	return p.name
}

// Tensor returns the parameter matrix.
func (p *Parameter) Tensor() *mat.Dense {
	return p.tensor
}

// Grad returns the gradient from the most recent backward pass.
//
// Returns nil if no gradient has been computed yet.
func (p *Parameter) Grad() *mat.Dense {
	return p.grad
}

// SetGrad sets the gradient matrix.
func (p *Parameter) SetGrad(grad *mat.Dense) {
	p.grad = grad
}

// ZeroGrad clears the gradient.
func (p *Parameter) ZeroGrad() {
	p.grad = nil
}

// NumElements returns the number of scalar values held by the parameter.
func (p *Parameter) NumElements() int {
	r, c := p.tensor.Dims()
	return r * c
}
