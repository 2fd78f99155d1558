package nn

import (
	"math/rand"

	"gonum.org/v1/gonum/mat"
)

// MLP is the one-hidden-layer perceptron used for digit classification.
//
// Architecture:
//   - fc1: Linear (in → hidden)
//   - ReLU
//   - fc2: Linear (hidden → classes)
//   - Softmax
//
// Forward returns class probabilities. Backward takes the gradient w.r.t.
// the softmax input (CrossEntropyLoss.Backward) and propagates it through
// fc2, ReLU and fc1, updating both Linear layers on the way.
type MLP struct {
	fc1     *Linear
	relu    *ReLU
	fc2     *Linear
	softmax *Softmax
	body    *Sequential // fc1 → relu → fc2
}

// NewMLP creates the network. Weights of both Linear layers are drawn from rng
// in construction order (fc1 first).
func NewMLP(inFeatures, hidden, classes int, rng *rand.Rand) *MLP {
	fc1 := NewLinear(inFeatures, hidden, rng)
	relu := NewReLU()
	fc2 := NewLinear(hidden, classes, rng)

	return &MLP{
		fc1:     fc1,
		relu:    relu,
		fc2:     fc2,
		softmax: NewSoftmax(),
		body:    NewSequential(fc1, relu, fc2),
	}
}

// Forward computes class probabilities for a [batch_size, in] input.
func (m *MLP) Forward(input *mat.Dense) *mat.Dense {
	return m.softmax.Forward(m.body.Forward(input))
}

// Backward propagates the gradient w.r.t. the logits and returns the gradient
// w.r.t. the network input.
func (m *MLP) Backward(logitGrad *mat.Dense, opt Updater) *mat.Dense {
	return m.body.Backward(logitGrad, opt)
}

// Parameters returns [fc1.weight, fc1.bias, fc2.weight, fc2.bias].
func (m *MLP) Parameters() []*Parameter {
	return m.body.Parameters()
}

// NumParameters returns the total number of trainable scalars.
func (m *MLP) NumParameters() int {
	n := 0
	for _, p := range m.Parameters() {
		n += p.NumElements()
	}
	return n
}

// FC1 returns the hidden layer.
func (m *MLP) FC1() *Linear {
	return m.fc1
}

// FC2 returns the output layer.
func (m *MLP) FC2() *Linear {
	return m.fc2
}
