// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package optim provides the optimizer used to train the perceptron.
//
// # Overview
//
// This package contains:
//   - SGD: plain stochastic gradient descent, p ← p - lr·grad
//   - Optimizer interface for custom optimizers
//
// # Basic Usage
//
//	import (
//	    "github.com/born-ml/mlp/nn"
//	    "github.com/born-ml/mlp/optim"
//	)
//
//	func main() {
//	    opt := optim.NewSGD(optim.SGDConfig{LR: 0.01})
//
//	    // Linear layers call opt.Update from inside Backward.
//	    model.Backward(criterion.Backward(labels), opt)
//	}
//
// SGD keeps no state between calls and the learning rate is fixed for the
// whole run.
package optim
