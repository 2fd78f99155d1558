// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package nn provides the layers, activations and loss of the MNIST perceptron.
//
// # Overview
//
// This package contains:
//   - Layers: Linear
//   - Activations: ReLU, Softmax
//   - Loss: CrossEntropyLoss
//   - Utilities: Sequential, Layer interface, Parameter, MLP
//   - Initialization: Xavier, Zeros
//
// All tensors are gonum *mat.Dense values with one sample per row. There is
// no autodiff: every layer caches what its Backward needs during Forward, and
// Linear layers apply the optimizer inside Backward.
//
// # Basic Usage
//
//	import (
//	    "math/rand"
//
//	    "github.com/born-ml/mlp/nn"
//	    "github.com/born-ml/mlp/optim"
//	)
//
//	func main() {
//	    rng := rand.New(rand.NewSource(42))
//	    model := nn.NewMLP(784, 128, 10, rng)
//	    criterion := nn.NewCrossEntropyLoss()
//	    opt := optim.NewSGD(optim.SGDConfig{LR: 0.01})
//
//	    probs := model.Forward(images)           // [batch, 10]
//	    loss := criterion.Forward(probs, labels) // monitoring only
//	    model.Backward(criterion.Backward(labels), opt)
//	}
//
// # Gradient Conventions
//
// Linear computes y = x·Wᵀ + b with W shaped [out, in] and b a separate
// [1, out] row. Backward derives the input gradient from the weights as they
// were before the update.
//
// CrossEntropyLoss.Backward returns (p - y) / batch, the gradient with
// respect to the softmax input. MLP.Backward therefore starts below the
// softmax.
package nn
