// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package mnist reads the MNIST IDX files into batched float64 matrices.
//
// # Basic Usage
//
//	images, err := mnist.LoadImages("data/train-images-idx3-ubyte", 64)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	labels, err := mnist.LoadLabels("data/train-labels-idx1-ubyte", 64)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	for b := 0; b < images.NumBatches(); b++ {
//	    x, _ := images.Batch(b) // [rows, 784], pixels in [0, 1]
//	    y, _ := labels.Batch(b) // [rows, 10], one-hot
//	    ...
//	}
//
// Files ending in ".gz" are decompressed while reading. Label bytes outside
// [0, 9] are logged and leave their row zero.
//
// # Sample Files
//
// WriteImage and WriteLabel export a single sample as a text tensor (rank,
// dimensions, then one value per line). ReadTensor parses it back exactly.
package mnist
