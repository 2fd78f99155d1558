package optim

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/born-ml/mlp/internal/nn"
	"github.com/born-ml/mlp/internal/tensor"
)

// DefaultLR is the learning rate used when SGDConfig.LR is zero.
const DefaultLR = 0.001

// SGD implements plain Stochastic Gradient Descent.
//
// Update rule:
//
//	param = param - lr * gradient
//
// SGD keeps no state between calls and the learning rate is fixed for the run.
//
// Example:
//
//	sgd := optim.NewSGD(optim.SGDConfig{LR: 0.01})
//	layer.Backward(grad, sgd)
type SGD struct {
	lr float64
}

// SGDConfig holds configuration for SGD optimizer.
type SGDConfig struct {
	LR float64 // Learning rate (default: 0.001)
}

// NewSGD creates a new SGD optimizer.
func NewSGD(config SGDConfig) *SGD {
	if config.LR == 0 {
		config.LR = DefaultLR
	}
	return &SGD{lr: config.LR}
}

// Update performs param -= lr * grad in place.
//
// Panics if grad does not have the parameter's shape.
func (s *SGD) Update(param *nn.Parameter, grad *mat.Dense) {
	value := param.Tensor()
	if !tensor.ShapeOf(value).Equal(tensor.ShapeOf(grad)) {
		panic(fmt.Sprintf("SGD.Update: gradient shape %v does not match parameter %q shape %v",
			tensor.ShapeOf(grad), param.Name(), tensor.ShapeOf(value)))
	}
	value.Sub(value, scaled(s.lr, grad))
}

// GetLR returns the learning rate.
func (s *SGD) GetLR() float64 {
	return s.lr
}
