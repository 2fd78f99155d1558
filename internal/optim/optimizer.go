// Package optim implements the parameter update rules used during training.
//
// This package provides:
//   - Optimizer interface: base interface for update rules
//   - SGD: plain Stochastic Gradient Descent
//
// Layers call the optimizer from inside their Backward pass, one parameter at
// a time, as soon as that parameter's gradient is known:
//
//	sgd := optim.NewSGD(optim.SGDConfig{LR: 0.01})
//
//	probs := model.Forward(batch)
//	loss := criterion.Forward(probs, labels)
//	model.Backward(criterion.Backward(labels), sgd)
package optim

import (
	"gonum.org/v1/gonum/mat"

	"github.com/born-ml/mlp/internal/nn"
)

// Optimizer is the base interface for all optimization algorithms.
//
// All optimizers must implement:
//   - Update: apply one gradient to one parameter in place
//   - GetLR: report the learning rate (for logging)
type Optimizer interface {
	nn.Updater

	// GetLR returns the learning rate.
	GetLR() float64
}

// Compile-time check that SGD drives nn layers.
var _ Optimizer = (*SGD)(nil)

// ZeroGrad clears the stored gradients of params.
func ZeroGrad(params []*nn.Parameter) {
	for _, p := range params {
		p.ZeroGrad()
	}
}

// Step applies opt to every parameter that carries a gradient.
//
// Parameters without a gradient are skipped.
func Step(opt Optimizer, params []*nn.Parameter) {
	for _, p := range params {
		grad := p.Grad()
		if grad == nil {
			continue
		}
		opt.Update(p, grad)
	}
}

// scaled returns lr * grad as a new matrix.
func scaled(lr float64, grad mat.Matrix) *mat.Dense {
	var out mat.Dense
	out.Scale(lr, grad)
	return &out
}
