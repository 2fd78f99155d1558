package mnist

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"

	"gonum.org/v1/gonum/mat"

	"github.com/born-ml/mlp/internal/tensor"
)

type imageHeader struct {
	Magic uint32
	Count uint32
	Rows  uint32
	Cols  uint32
}

// ImageSet holds a decoded image file split into batches.
//
// Each batch is a [rows_in_batch, Rows*Cols] matrix with pixel values
// normalized to [0, 1]. Every batch holds BatchSize samples except possibly
// the last, which holds Count mod BatchSize. Batches are not modified after
// loading.
type ImageSet struct {
	part    partition
	rows    int
	cols    int
	batches []*mat.Dense
}

// LoadImages reads an IDX image file from disk.
func LoadImages(path string, batchSize int) (*ImageSet, error) {
	f, err := openIDX(path)
	if err != nil {
		return nil, fmt.Errorf("mnist: open images: %w", err)
	}
	defer f.Close()

	set, err := ReadImages(f, batchSize)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return set, nil
}

// ReadImages decodes an IDX image stream.
//
// Returns ErrBadMagic if the stream is not an image file,
// ErrInvalidDimensions if the header exceeds MaxSamples or MaxDim, and an
// error wrapping io.ErrUnexpectedEOF if the payload is shorter than the
// header declares.
func ReadImages(r io.Reader, batchSize int) (*ImageSet, error) {
	br := bufio.NewReader(r)

	var hdr imageHeader
	if err := binary.Read(br, binary.BigEndian, &hdr); err != nil {
		return nil, fmt.Errorf("mnist: read image header: %w", unexpectedEOF(err))
	}
	if err := checkMagic(hdr.Magic, ImageMagic); err != nil {
		return nil, err
	}
	if err := checkImageDims(hdr.Count, hdr.Rows, hdr.Cols); err != nil {
		return nil, err
	}

	part, err := newPartition(batchSize, int(hdr.Count))
	if err != nil {
		return nil, err
	}
	set := &ImageSet{
		part: part,
		rows: int(hdr.Rows),
		cols: int(hdr.Cols),
	}

	features := set.rows * set.cols
	pixels := make([]byte, features)
	numBatches := part.numBatches()
	set.batches = make([]*mat.Dense, 0, min(numBatches, maxPrealloc))
	for b := 0; b < numBatches; b++ {
		n := part.rowsIn(b)
		data := make([]float64, 0, min(n*features, maxPrealloc))
		for i := 0; i < n; i++ {
			if _, err := io.ReadFull(br, pixels); err != nil {
				return nil, fmt.Errorf("mnist: read image %d: %w", b*batchSize+i, unexpectedEOF(err))
			}
			for _, p := range pixels {
				data = append(data, float64(p)/255.0)
			}
		}
		set.batches = append(set.batches, mat.NewDense(n, features, data))
	}

	return set, nil
}

// Count returns the number of images.
func (s *ImageSet) Count() int {
	return s.part.count
}

// Rows returns the image height in pixels.
func (s *ImageSet) Rows() int {
	return s.rows
}

// Cols returns the image width in pixels.
func (s *ImageSet) Cols() int {
	return s.cols
}

// Features returns Rows*Cols, the width of a batch matrix.
func (s *ImageSet) Features() int {
	return s.rows * s.cols
}

// BatchSize returns the configured batch size.
func (s *ImageSet) BatchSize() int {
	return s.part.batchSize
}

// NumBatches returns ceil(Count / BatchSize).
func (s *ImageSet) NumBatches() int {
	return len(s.batches)
}

// Batch returns batch b. The matrix is shared; callers must not modify it.
func (s *ImageSet) Batch(b int) (*mat.Dense, error) {
	if err := checkBatch(b, len(s.batches)); err != nil {
		return nil, err
	}
	return s.batches[b], nil
}

// Locate maps a global sample index to its batch and row within that batch.
func (s *ImageSet) Locate(index int) (batch, row int, err error) {
	return s.part.locate(index)
}

// Sample returns a Rows×Cols copy of image index.
func (s *ImageSet) Sample(index int) (*mat.Dense, error) {
	b, r, err := s.part.locate(index)
	if err != nil {
		return nil, err
	}
	return mat.NewDense(s.rows, s.cols, tensor.Row(s.batches[b], r)), nil
}

// WriteImage writes image index in the text tensor format (rank 2).
func (s *ImageSet) WriteImage(w io.Writer, index int) error {
	sample, err := s.Sample(index)
	if err != nil {
		return err
	}
	return WriteTensor(w, sample, s.rows, s.cols)
}

// WriteImageFile writes image index to path. Nothing is created when the
// index is out of range.
func (s *ImageSet) WriteImageFile(path string, index int) error {
	if _, _, err := s.part.locate(index); err != nil {
		return err
	}
	return writeFile(path, func(w io.Writer) error {
		return s.WriteImage(w, index)
	})
}
