package mnist

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"

	"gonum.org/v1/gonum/mat"

	"github.com/born-ml/mlp/internal/tensor"
)

// WriteTensor writes m in the per-sample text format:
//
//	rank
//	dim_1
//	...
//	dim_rank
//	value_1
//	...
//
// one entry per line, values in row-major order. Values use the shortest
// representation that parses back to the same float64.
//
// dims must describe exactly the number of elements in m.
func WriteTensor(w io.Writer, m mat.Matrix, dims ...int) error {
	shape := tensor.Shape(dims)
	r, c := m.Dims()
	if len(dims) == 0 || shape.NumElements() != r*c {
		return fmt.Errorf("mnist: dims %v do not describe a %dx%d matrix", dims, r, c)
	}

	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "%d\n", len(dims))
	for _, d := range dims {
		fmt.Fprintf(bw, "%d\n", d)
	}

	buf := make([]byte, 0, 32)
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			buf = strconv.AppendFloat(buf[:0], m.At(i, j), 'g', -1, 64)
			buf = append(buf, '\n')
			if _, err := bw.Write(buf); err != nil {
				return err
			}
		}
	}
	return bw.Flush()
}

// ReadTensor parses the format written by WriteTensor.
//
// A rank-2 tensor becomes a dim_1×dim_2 matrix; a rank-1 tensor becomes a
// 1×dim_1 row. Every dimension must lie in [1, MaxDim].
func ReadTensor(r io.Reader) (*mat.Dense, error) {
	sc := bufio.NewScanner(r)
	sc.Split(bufio.ScanWords)

	next := func(what string) (string, error) {
		if !sc.Scan() {
			if err := sc.Err(); err != nil {
				return "", err
			}
			return "", fmt.Errorf("mnist: tensor truncated reading %s: %w", what, io.ErrUnexpectedEOF)
		}
		return sc.Text(), nil
	}
	nextInt := func(what string) (int, error) {
		tok, err := next(what)
		if err != nil {
			return 0, err
		}
		v, err := strconv.Atoi(tok)
		if err != nil {
			return 0, fmt.Errorf("mnist: tensor %s: %w", what, err)
		}
		return v, nil
	}

	rank, err := nextInt("rank")
	if err != nil {
		return nil, err
	}
	if rank != 1 && rank != 2 {
		return nil, fmt.Errorf("mnist: unsupported tensor rank %d", rank)
	}

	shape := make(tensor.Shape, rank)
	for i := range shape {
		if shape[i], err = nextInt(fmt.Sprintf("dim %d", i)); err != nil {
			return nil, err
		}
	}
	if err := shape.Validate(); err != nil {
		return nil, fmt.Errorf("mnist: tensor shape: %w", err)
	}
	for i, d := range shape {
		if d > MaxDim {
			return nil, fmt.Errorf("%w: tensor dim %d is %d, limit %d", ErrInvalidDimensions, i, d, MaxDim)
		}
	}

	n := shape.NumElements()
	data := make([]float64, 0, min(n, maxPrealloc))
	for i := 0; i < n; i++ {
		tok, err := next(fmt.Sprintf("value %d", i))
		if err != nil {
			return nil, err
		}
		v, err := strconv.ParseFloat(tok, 64)
		if err != nil {
			return nil, fmt.Errorf("mnist: tensor value %d: %w", i, err)
		}
		data = append(data, v)
	}
	if sc.Scan() {
		return nil, errors.New("mnist: tensor has trailing values")
	}

	if rank == 1 {
		return mat.NewDense(1, shape[0], data), nil
	}
	return mat.NewDense(shape[0], shape[1], data), nil
}

// ReadTensorFile parses a tensor file written by WriteTensor.
func ReadTensorFile(path string) (*mat.Dense, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadTensor(f)
}

func writeFile(path string, write func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("mnist: create %s: %w", path, err)
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
