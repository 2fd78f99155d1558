package nn

import (
	"fmt"
	"math/rand"

	"gonum.org/v1/gonum/mat"

	"github.com/born-ml/mlp/internal/tensor"
)

// Linear implements a fully connected (dense) layer.
//
// Performs the transformation: y = x @ W.T + b
// where:
//   - x is the input matrix with shape [batch_size, in_features]
//   - W is the weight matrix with shape [out_features, in_features]
//   - b is the bias row vector with shape [1, out_features]
//   - y is the output matrix with shape [batch_size, out_features]
//
// Weights are initialized using Xavier/Glorot initialization.
// Biases are initialized to zeros.
//
// Backward computes the gradient for the previous layer from the weights as
// they were before this call's update.
//
// Example:
//
//	rng := rand.New(rand.NewSource(42))
//	layer := nn.NewLinear(784, 128, rng)
//
//	output := layer.Forward(input)            // [32, 784] -> [32, 128]
//	gradIn := layer.Backward(gradOut, sgd)    // [32, 128] -> [32, 784]
type Linear struct {
	inFeatures  int
	outFeatures int
	weight      *Parameter // [out_features, in_features]
	bias        *Parameter // [1, out_features]

	input *mat.Dense // last Forward input
}

// NewLinear creates a new Linear layer.
//
// Weights are drawn from rng with Xavier/Glorot uniform distribution.
// Biases are initialized to zeros.
func NewLinear(inFeatures, outFeatures int, rng *rand.Rand) *Linear {
	weight := NewParameter("weight", Xavier(inFeatures, outFeatures, outFeatures, inFeatures, rng))
	bias := NewParameter("bias", Zeros(1, outFeatures))

	return &Linear{
		inFeatures:  inFeatures,
		outFeatures: outFeatures,
		weight:      weight,
		bias:        bias,
	}
}

// Forward computes the output of the linear layer and caches the input.
//
// Input shape: [batch_size, in_features]
// Output shape: [batch_size, out_features]
func (l *Linear) Forward(input *mat.Dense) *mat.Dense {
	_, cols := input.Dims()
	if cols != l.inFeatures {
		panic(fmt.Sprintf("Linear.Forward: expected input with %d features, got %d", l.inFeatures, cols))
	}
	l.input = input

	var output mat.Dense
	output.Mul(input, l.weight.Tensor().T())
	tensor.AddRowVector(&output, l.bias.Tensor())

	return &output
}

// Backward computes parameter gradients, updates the parameters through opt,
// and returns the gradient w.r.t. the cached input.
//
//	dW      = grad.T @ x          [out_features, in_features]
//	db      = column sums of grad [1, out_features]
//	grad_in = grad @ W            [batch_size, in_features], pre-update W
//
// Forward must have been called first.
func (l *Linear) Backward(grad *mat.Dense, opt Updater) *mat.Dense {
	_, cols := grad.Dims()
	if cols != l.outFeatures {
		panic(fmt.Sprintf("Linear.Backward: expected gradient with %d features, got %d", l.outFeatures, cols))
	}

	var dW mat.Dense
	dW.Mul(grad.T(), l.input)
	db := tensor.ColSums(grad)

	var gradInput mat.Dense
	gradInput.Mul(grad, l.weight.Tensor())

	l.weight.SetGrad(&dW)
	l.bias.SetGrad(db)
	opt.Update(l.weight, &dW)
	opt.Update(l.bias, db)

	return &gradInput
}

// Parameters returns [weight, bias].
func (l *Linear) Parameters() []*Parameter {
	return []*Parameter{l.weight, l.bias}
}

// Weight returns the weight parameter.
func (l *Linear) Weight() *Parameter {
	return l.weight
}

// Bias returns the bias parameter.
func (l *Linear) Bias() *Parameter {
	return l.bias
}

// InFeatures returns the number of input features.
func (l *Linear) InFeatures() int {
	return l.inFeatures
}

// OutFeatures returns the number of output features.
func (l *Linear) OutFeatures() int {
	return l.outFeatures
}
