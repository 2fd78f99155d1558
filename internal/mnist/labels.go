package mnist

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"

	"gonum.org/v1/gonum/mat"

	"github.com/born-ml/mlp/internal/tensor"
)

type labelHeader struct {
	Magic uint32
	Count uint32
}

// LabelSet holds a decoded label file as one-hot batches.
//
// Each batch is a [rows_in_batch, NumClasses] matrix, partitioned exactly like
// an ImageSet with the same batch size. A label byte outside [0, 9] leaves its
// row all zero and is counted by Skipped.
type LabelSet struct {
	part    partition
	batches []*mat.Dense
	skipped int
}

// LoadLabels reads an IDX label file from disk.
func LoadLabels(path string, batchSize int, opts ...Option) (*LabelSet, error) {
	f, err := openIDX(path)
	if err != nil {
		return nil, fmt.Errorf("mnist: open labels: %w", err)
	}
	defer f.Close()

	set, err := ReadLabels(f, batchSize, opts...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return set, nil
}

// ReadLabels decodes an IDX label stream into one-hot batches.
//
// Out-of-range label bytes are logged as warnings and produce zero rows; they
// never fail the load.
func ReadLabels(r io.Reader, batchSize int, opts ...Option) (*LabelSet, error) {
	o := buildOptions(opts)
	br := bufio.NewReader(r)

	var hdr labelHeader
	if err := binary.Read(br, binary.BigEndian, &hdr); err != nil {
		return nil, fmt.Errorf("mnist: read label header: %w", unexpectedEOF(err))
	}
	if err := checkMagic(hdr.Magic, LabelMagic); err != nil {
		return nil, err
	}
	if err := checkCount(hdr.Count); err != nil {
		return nil, err
	}

	part, err := newPartition(batchSize, int(hdr.Count))
	if err != nil {
		return nil, err
	}
	set := &LabelSet{part: part}

	numBatches := part.numBatches()
	set.batches = make([]*mat.Dense, 0, min(numBatches, maxPrealloc))
	for b := 0; b < numBatches; b++ {
		n := part.rowsIn(b)
		raw := make([]byte, 0, min(n, maxPrealloc))
		for i := 0; i < n; i++ {
			label, err := br.ReadByte()
			if err != nil {
				return nil, fmt.Errorf("mnist: read label %d: %w", b*batchSize+i, unexpectedEOF(err))
			}
			raw = append(raw, label)
		}

		batch := mat.NewDense(n, NumClasses, nil)
		for i, label := range raw {
			if int(label) >= NumClasses {
				o.logger.Printf("mnist: warning: label %d at index %d outside [0, %d], row left zero",
					label, b*batchSize+i, NumClasses-1)
				set.skipped++
				continue
			}
			tensor.SetOneHot(batch, i, int(label))
		}
		set.batches = append(set.batches, batch)
	}

	return set, nil
}

// Count returns the number of labels.
func (s *LabelSet) Count() int {
	return s.part.count
}

// BatchSize returns the configured batch size.
func (s *LabelSet) BatchSize() int {
	return s.part.batchSize
}

// NumBatches returns ceil(Count / BatchSize).
func (s *LabelSet) NumBatches() int {
	return len(s.batches)
}

// Skipped returns how many label bytes were outside [0, 9].
func (s *LabelSet) Skipped() int {
	return s.skipped
}

// Batch returns batch b. The matrix is shared; callers must not modify it.
func (s *LabelSet) Batch(b int) (*mat.Dense, error) {
	if err := checkBatch(b, len(s.batches)); err != nil {
		return nil, err
	}
	return s.batches[b], nil
}

// Locate maps a global sample index to its batch and row within that batch.
func (s *LabelSet) Locate(index int) (batch, row int, err error) {
	return s.part.locate(index)
}

// Sample returns a 1×NumClasses copy of the one-hot row of label index.
func (s *LabelSet) Sample(index int) (*mat.Dense, error) {
	b, r, err := s.part.locate(index)
	if err != nil {
		return nil, err
	}
	return mat.NewDense(1, NumClasses, tensor.Row(s.batches[b], r)), nil
}

// Label returns the class of label index, or -1 if its row was left zero.
func (s *LabelSet) Label(index int) (int, error) {
	row, err := s.Sample(index)
	if err != nil {
		return 0, err
	}
	return ClassOf(tensor.Row(row, 0)), nil
}

// ClassOf returns the class encoded by a one-hot row, or -1 for a zero row.
func ClassOf(row []float64) int {
	class := tensor.ArgMax(row)
	if class < 0 || row[class] == 0 {
		return -1
	}
	return class
}

// WriteLabel writes the one-hot row of label index in the text tensor format
// (rank 1, NumClasses values).
func (s *LabelSet) WriteLabel(w io.Writer, index int) error {
	sample, err := s.Sample(index)
	if err != nil {
		return err
	}
	return WriteTensor(w, sample, NumClasses)
}

// WriteLabelFile writes label index to path. Nothing is created when the
// index is out of range.
func (s *LabelSet) WriteLabelFile(path string, index int) error {
	if _, _, err := s.part.locate(index); err != nil {
		return err
	}
	return writeFile(path, func(w io.Writer) error {
		return s.WriteLabel(w, index)
	})
}
