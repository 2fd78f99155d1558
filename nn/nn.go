// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package nn

import (
	"math/rand"

	"gonum.org/v1/gonum/mat"

	"github.com/born-ml/mlp/internal/nn"
)

// Layer is the forward/backward contract shared by all layers.
type Layer = nn.Layer

// Updater applies a gradient to a parameter. optim.Optimizer satisfies it.
type Updater = nn.Updater

// Parameter represents a trainable parameter in a neural network.
type Parameter = nn.Parameter

// NewParameter creates a new parameter with the given name and tensor.
func NewParameter(name string, t *mat.Dense) *Parameter {
	return nn.NewParameter(name, t)
}

// Layers

// Linear represents a fully connected (dense) layer.
type Linear = nn.Linear

// NewLinear creates a new linear layer with Xavier initialization and zero bias.
//
// Example:
//
//	rng := rand.New(rand.NewSource(42))
//	layer := nn.NewLinear(784, 128, rng)
func NewLinear(inFeatures, outFeatures int, rng *rand.Rand) *Linear {
	return nn.NewLinear(inFeatures, outFeatures, rng)
}

// Activations

// ReLU represents the Rectified Linear Unit activation function.
type ReLU = nn.ReLU

// NewReLU creates a new ReLU activation layer.
func NewReLU() *ReLU {
	return nn.NewReLU()
}

// Softmax normalizes every row into a probability distribution.
type Softmax = nn.Softmax

// NewSoftmax creates a new softmax activation layer.
func NewSoftmax() *Softmax {
	return nn.NewSoftmax()
}

// Loss

// Epsilon is added to probabilities before taking the logarithm.
const Epsilon = nn.Epsilon

// CrossEntropyLoss is the cross-entropy of softmax probabilities and one-hot labels.
type CrossEntropyLoss = nn.CrossEntropyLoss

// NewCrossEntropyLoss creates a new cross-entropy loss.
func NewCrossEntropyLoss() *CrossEntropyLoss {
	return nn.NewCrossEntropyLoss()
}

// Accuracy returns the fraction of rows whose argmax matches the label argmax.
func Accuracy(predictions, labels mat.Matrix) float64 {
	return nn.Accuracy(predictions, labels)
}

// Containers

// Sequential chains layers; Backward runs them in reverse.
type Sequential = nn.Sequential

// NewSequential creates a sequential container.
//
// Example:
//
//	model := nn.NewSequential(
//	    nn.NewLinear(784, 128, rng),
//	    nn.NewReLU(),
//	    nn.NewLinear(128, 10, rng),
//	)
func NewSequential(layers ...Layer) *Sequential {
	return nn.NewSequential(layers...)
}

// MLP is the Linear → ReLU → Linear → Softmax classifier.
type MLP = nn.MLP

// NewMLP creates the perceptron. fc1 draws its weights from rng before fc2.
func NewMLP(inFeatures, hidden, classes int, rng *rand.Rand) *MLP {
	return nn.NewMLP(inFeatures, hidden, classes, rng)
}

// Initialization

// Xavier returns a rows×cols matrix drawn uniformly from ±sqrt(6/(fanIn+fanOut)).
func Xavier(fanIn, fanOut, rows, cols int, rng *rand.Rand) *mat.Dense {
	return nn.Xavier(fanIn, fanOut, rows, cols, rng)
}

// Zeros returns a rows×cols zero matrix.
func Zeros(rows, cols int) *mat.Dense {
	return nn.Zeros(rows, cols)
}
