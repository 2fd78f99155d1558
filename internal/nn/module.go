// Package nn implements the neural network building blocks of the trainer.
//
// This package provides:
//   - Layer interface: forward/backward pair with an explicit cached state
//   - Parameter: trainable weights and biases
//   - Linear: fully connected layer with Xavier initialization
//   - Activations: ReLU, Softmax
//   - CrossEntropyLoss
//   - Sequential and MLP containers
//
// Gradients are derived by hand per layer; there is no autodiff tape. Every
// layer caches what its backward pass needs during Forward, so Backward must
// only be called after a Forward on the same layer. That precondition is not
// checked.
package nn

import (
	"gonum.org/v1/gonum/mat"
)

// Updater applies a gradient to a parameter in place.
//
// optim.Optimizer satisfies this interface. It is declared here so that
// layers can drive parameter updates without importing the optim package.
type Updater interface {
	Update(p *Parameter, grad *mat.Dense)
}

// Layer is the base interface for all network components.
//
// Every layer must implement:
//   - Forward: compute the output for a batch and cache what Backward needs
//   - Backward: map the gradient w.r.t. the output to the gradient w.r.t. the
//     input, applying parameter updates through the Updater
//   - Parameters: return the trainable parameters (empty for activations)
type Layer interface {
	// Forward computes the output for a [batch, in] input.
	Forward(input *mat.Dense) *mat.Dense

	// Backward receives the gradient w.r.t. the last Forward output and returns
	// the gradient w.r.t. that Forward's input. Layers with parameters update
	// them through opt before returning.
	Backward(grad *mat.Dense, opt Updater) *mat.Dense

	// Parameters returns all trainable parameters of this layer.
	Parameters() []*Parameter
}
