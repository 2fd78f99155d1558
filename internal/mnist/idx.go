// Package mnist decodes the MNIST IDX image and label files into batched
// float64 matrices.
//
// IDX file format for images:
//
//	magic number: 0x00000803 (2051)
//	number of images: 4 bytes
//	number of rows: 4 bytes (28)
//	number of cols: 4 bytes (28)
//	pixel data: unsigned bytes (0-255), row-major per image
//
// IDX file format for labels:
//
//	magic number: 0x00000801 (2049)
//	number of labels: 4 bytes
//	label data: unsigned bytes (0-9)
//
// All header fields are big-endian. Files whose name ends in ".gz" are
// decompressed on the fly.
package mnist

import (
	"compress/gzip"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"strings"
)

// Magic numbers of the two IDX file kinds.
const (
	ImageMagic uint32 = 0x00000803
	LabelMagic uint32 = 0x00000801
)

// NumClasses is the width of a one-hot label row.
const NumClasses = 10

// Limits on header values. Files beyond them are rejected before anything
// is allocated from the header.
const (
	MaxDim     = 1 << 12 // image rows or cols, and text tensor dimensions
	MaxSamples = 1 << 26 // images or labels per file

	maxPixels int64 = 1 << 32 // images * rows * cols

	// Allocations sized from a header never start larger than this; they grow
	// with the data actually read.
	maxPrealloc = 1 << 16
)

var (
	// ErrBadMagic is returned when a file does not start with the expected magic number.
	ErrBadMagic = errors.New("mnist: invalid magic number")

	// ErrIndexOutOfRange is returned for batch or sample indices past the loaded data.
	ErrIndexOutOfRange = errors.New("mnist: index out of range")

	// ErrInvalidBatchSize is returned when the batch size is not positive.
	ErrInvalidBatchSize = errors.New("mnist: batch size must be positive")

	// ErrInvalidDimensions is returned for counts or dimensions outside the decoder limits.
	ErrInvalidDimensions = errors.New("mnist: invalid dimensions")
)

// Option configures a decoder.
type Option func(*options)

type options struct {
	logger *log.Logger
}

// WithLogger sets the logger used for recoverable format warnings.
func WithLogger(l *log.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

func buildOptions(opts []Option) options {
	o := options{logger: log.Default()}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// partition describes a sequential split of count samples into batches.
type partition struct {
	batchSize int
	count     int
}

func newPartition(batchSize, count int) (partition, error) {
	if batchSize < 1 {
		return partition{}, fmt.Errorf("%w: got %d", ErrInvalidBatchSize, batchSize)
	}
	return partition{batchSize: batchSize, count: count}, nil
}

// numBatches returns ceil(count / batchSize).
func (p partition) numBatches() int {
	return (p.count + p.batchSize - 1) / p.batchSize
}

// rowsIn returns the number of samples in batch b.
func (p partition) rowsIn(b int) int {
	return min(p.batchSize, p.count-b*p.batchSize)
}

// locate maps a global sample index to (batch, row within batch).
func (p partition) locate(index int) (int, int, error) {
	if index < 0 || index >= p.count {
		return 0, 0, fmt.Errorf("%w: sample %d of %d", ErrIndexOutOfRange, index, p.count)
	}
	return index / p.batchSize, index % p.batchSize, nil
}

func checkBatch(b, n int) error {
	if b < 0 || b >= n {
		return fmt.Errorf("%w: batch %d of %d", ErrIndexOutOfRange, b, n)
	}
	return nil
}

func checkCount(count uint32) error {
	if count > MaxSamples {
		return fmt.Errorf("%w: %d samples exceeds %d", ErrInvalidDimensions, count, MaxSamples)
	}
	return nil
}

func checkImageDims(count, rows, cols uint32) error {
	if err := checkCount(count); err != nil {
		return err
	}
	if rows > MaxDim || cols > MaxDim {
		return fmt.Errorf("%w: image %dx%d exceeds %dx%d", ErrInvalidDimensions, rows, cols, MaxDim, MaxDim)
	}
	if count > 0 && (rows == 0 || cols == 0) {
		return fmt.Errorf("%w: image dimensions %dx%d are empty", ErrInvalidDimensions, rows, cols)
	}
	if int64(count)*int64(rows)*int64(cols) > maxPixels {
		return fmt.Errorf("%w: %d images of %dx%d exceed %d pixels", ErrInvalidDimensions, count, rows, cols, maxPixels)
	}
	return nil
}

func checkMagic(got, want uint32) error {
	if got != want {
		return fmt.Errorf("%w: got 0x%08x, want 0x%08x", ErrBadMagic, got, want)
	}
	return nil
}

// openIDX opens path for reading, transparently gunzipping ".gz" files.
func openIDX(path string) (io.ReadCloser, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	if !strings.HasSuffix(path, ".gz") {
		return f, nil
	}

	zr, err := gzip.NewReader(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("mnist: open gzip %s: %w", path, err)
	}
	return &gzipFile{Reader: zr, file: f}, nil
}

type gzipFile struct {
	*gzip.Reader
	file *os.File
}

func (g *gzipFile) Close() error {
	err := g.Reader.Close()
	if cerr := g.file.Close(); err == nil {
		err = cerr
	}
	return err
}

// unexpectedEOF turns a clean EOF in the middle of a payload into io.ErrUnexpectedEOF.
func unexpectedEOF(err error) error {
	if errors.Is(err, io.EOF) {
		return io.ErrUnexpectedEOF
	}
	return err
}
