// Package tensor provides the dense float64 matrix helpers shared by the network
// layers and the dataset decoder.
//
// Matrices are gonum *mat.Dense values. Batches are laid out row-major:
// one sample per row, one feature per column.
package tensor

import (
	"fmt"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// Zeros creates a rows×cols matrix filled with zeros.
//
// Panics if either dimension is not positive.
func Zeros(rows, cols int) *mat.Dense {
	if err := (Shape{rows, cols}).Validate(); err != nil {
		panic(fmt.Sprintf("tensor.Zeros: %v", err))
	}
	return mat.NewDense(rows, cols, nil)
}

// Full creates a rows×cols matrix filled with value.
func Full(rows, cols int, value float64) *mat.Dense {
	m := Zeros(rows, cols)
	floats.AddConst(value, m.RawMatrix().Data)
	return m
}

// FromRows builds a matrix from equally sized rows. The data is copied.
//
// Example:
//
//	m := tensor.FromRows([][]float64{{1, 2}, {3, 4}})  // 2×2
func FromRows(rows [][]float64) *mat.Dense {
	if len(rows) == 0 || len(rows[0]) == 0 {
		panic("tensor.FromRows: empty input")
	}
	cols := len(rows[0])
	data := make([]float64, 0, len(rows)*cols)
	for i, row := range rows {
		if len(row) != cols {
			panic(fmt.Sprintf("tensor.FromRows: row %d has %d columns, want %d", i, len(row), cols))
		}
		data = append(data, row...)
	}
	return mat.NewDense(len(rows), cols, data)
}

// Clone returns a deep copy of m.
func Clone(m mat.Matrix) *mat.Dense {
	return mat.DenseCopyOf(m)
}

// Row returns a copy of row i of m.
func Row(m mat.Matrix, i int) []float64 {
	return mat.Row(nil, i, m)
}

// ArgMax returns the index of the largest value in v.
//
// Ties resolve to the first occurrence of the maximum. Returns -1 for an empty slice.
func ArgMax(v []float64) int {
	if len(v) == 0 {
		return -1
	}
	maxIdx := 0
	maxVal := v[0]
	for i := 1; i < len(v); i++ {
		if v[i] > maxVal {
			maxVal = v[i]
			maxIdx = i
		}
	}
	return maxIdx
}

// ArgMaxRows applies ArgMax to every row of m.
func ArgMaxRows(m mat.Matrix) []int {
	rows, _ := m.Dims()
	out := make([]int, rows)
	for i := range out {
		out[i] = ArgMax(Row(m, i))
	}
	return out
}

// RowSums returns the sum of every row of m.
func RowSums(m mat.Matrix) []float64 {
	rows, _ := m.Dims()
	out := make([]float64, rows)
	for i := range out {
		out[i] = floats.Sum(Row(m, i))
	}
	return out
}

// ColSums returns a 1×cols matrix holding the sum of every column of m.
func ColSums(m mat.Matrix) *mat.Dense {
	rows, cols := m.Dims()
	out := mat.NewDense(1, cols, nil)
	sums := out.RawRowView(0)
	for i := 0; i < rows; i++ {
		floats.Add(sums, Row(m, i))
	}
	return out
}

// AddRowVector adds the 1×cols vector v to every row of dst in place.
func AddRowVector(dst *mat.Dense, v mat.Matrix) {
	_, cols := dst.Dims()
	vr, vc := v.Dims()
	if vr != 1 || vc != cols {
		panic(fmt.Sprintf("tensor.AddRowVector: vector shape %v does not broadcast over %v", ShapeOf(v), ShapeOf(dst)))
	}
	vec := Row(v, 0)
	rows, _ := dst.Dims()
	for i := 0; i < rows; i++ {
		floats.Add(dst.RawRowView(i), vec)
	}
}

// SetOneHot overwrites row i of dst with a one-hot encoding of class.
//
// Panics if class is outside [0, cols).
func SetOneHot(dst *mat.Dense, i, class int) {
	_, cols := dst.Dims()
	if class < 0 || class >= cols {
		panic(fmt.Sprintf("tensor.SetOneHot: class %d out of range [0, %d)", class, cols))
	}
	row := dst.RawRowView(i)
	for j := range row {
		row[j] = 0
	}
	row[class] = 1
}
