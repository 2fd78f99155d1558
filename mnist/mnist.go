// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package mnist

import (
	"io"
	"log"

	"gonum.org/v1/gonum/mat"

	"github.com/born-ml/mlp/internal/mnist"
)

// NumClasses is the width of a one-hot label row.
const NumClasses = mnist.NumClasses

// IDX magic numbers.
const (
	ImageMagic = mnist.ImageMagic
	LabelMagic = mnist.LabelMagic
)

// Decoder limits on header values.
const (
	MaxDim     = mnist.MaxDim
	MaxSamples = mnist.MaxSamples
)

// Errors returned by the decoder.
var (
	ErrBadMagic          = mnist.ErrBadMagic
	ErrIndexOutOfRange   = mnist.ErrIndexOutOfRange
	ErrInvalidBatchSize  = mnist.ErrInvalidBatchSize
	ErrInvalidDimensions = mnist.ErrInvalidDimensions
)

// ImageSet holds a decoded image file split into batches.
type ImageSet = mnist.ImageSet

// LabelSet holds a decoded label file as one-hot batches.
type LabelSet = mnist.LabelSet

// Option configures a decoder.
type Option = mnist.Option

// WithLogger sets the logger used for label range warnings.
func WithLogger(l *log.Logger) Option {
	return mnist.WithLogger(l)
}

// LoadImages reads an IDX image file.
func LoadImages(path string, batchSize int) (*ImageSet, error) {
	return mnist.LoadImages(path, batchSize)
}

// ReadImages decodes an IDX image stream.
func ReadImages(r io.Reader, batchSize int) (*ImageSet, error) {
	return mnist.ReadImages(r, batchSize)
}

// LoadLabels reads an IDX label file.
func LoadLabels(path string, batchSize int, opts ...Option) (*LabelSet, error) {
	return mnist.LoadLabels(path, batchSize, opts...)
}

// ReadLabels decodes an IDX label stream.
func ReadLabels(r io.Reader, batchSize int, opts ...Option) (*LabelSet, error) {
	return mnist.ReadLabels(r, batchSize, opts...)
}

// EncodeImages writes images in IDX image format.
func EncodeImages(w io.Writer, rows, cols int, images [][]byte) error {
	return mnist.EncodeImages(w, rows, cols, images)
}

// EncodeLabels writes labels in IDX label format.
func EncodeLabels(w io.Writer, labels []byte) error {
	return mnist.EncodeLabels(w, labels)
}

// ClassOf returns the class of a one-hot row, or -1 for a zero row.
func ClassOf(row []float64) int {
	return mnist.ClassOf(row)
}

// WriteTensor writes m in the text tensor format.
func WriteTensor(w io.Writer, m mat.Matrix, dims ...int) error {
	return mnist.WriteTensor(w, m, dims...)
}

// ReadTensor parses the text tensor format.
func ReadTensor(r io.Reader) (*mat.Dense, error) {
	return mnist.ReadTensor(r)
}

// ReadTensorFile parses a text tensor file.
func ReadTensorFile(path string) (*mat.Dense, error) {
	return mnist.ReadTensorFile(path)
}
