package tensor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

// TestArgMax_FirstOccurrence checks that ties resolve to the lowest index.
func TestArgMax_FirstOccurrence(t *testing.T) {
	assert.Equal(t, 1, ArgMax([]float64{0.1, 0.7, 0.7, 0.2}))
	assert.Equal(t, 0, ArgMax([]float64{0.25, 0.25, 0.25, 0.25}))
	assert.Equal(t, 3, ArgMax([]float64{-3, -2, -1, 0}))
	assert.Equal(t, -1, ArgMax(nil))
}

func TestArgMaxRows(t *testing.T) {
	m := FromRows([][]float64{
		{0, 1, 0},
		{5, 5, 1},
		{0, 0, 2},
	})
	assert.Equal(t, []int{1, 0, 2}, ArgMaxRows(m))
}

func TestRowAndColSums(t *testing.T) {
	m := FromRows([][]float64{
		{1, 2, 3},
		{4, 5, 6},
	})

	assert.Equal(t, []float64{6, 15}, RowSums(m))

	cols := ColSums(m)
	assert.True(t, ShapeOf(cols).Equal(Shape{1, 3}))
	assert.Equal(t, []float64{5, 7, 9}, Row(cols, 0))
}

func TestAddRowVector(t *testing.T) {
	m := FromRows([][]float64{
		{1, 1},
		{2, 2},
	})
	AddRowVector(m, FromRows([][]float64{{0.5, -1}}))

	want := FromRows([][]float64{
		{1.5, 0},
		{2.5, 1},
	})
	assert.True(t, mat.Equal(want, m))
}

func TestAddRowVector_ShapeMismatchPanics(t *testing.T) {
	m := Zeros(2, 3)
	assert.Panics(t, func() { AddRowVector(m, Zeros(1, 2)) })
}

// TestSetOneHot checks one-hot rows for every digit, including overwriting
// a row that already holds values.
func TestSetOneHot(t *testing.T) {
	m := Full(10, 10, 0.5)
	for class := 0; class < 10; class++ {
		SetOneHot(m, class, class)
		row := Row(m, class)
		require.Len(t, row, 10)
		for i, v := range row {
			if i == class {
				assert.Equal(t, 1.0, v)
			} else {
				assert.Equal(t, 0.0, v)
			}
		}
	}
	assert.Panics(t, func() { SetOneHot(m, 0, 10) })
	assert.Panics(t, func() { SetOneHot(m, 0, -1) })
}

func TestFullAndClone(t *testing.T) {
	m := Full(2, 2, 3)
	c := Clone(m)
	c.Set(0, 0, 0)

	assert.Equal(t, 3.0, m.At(0, 0), "Clone must not alias the source")
	assert.Equal(t, 3.0, c.At(1, 1))
}

func TestShape(t *testing.T) {
	s := Shape{3, 4}
	assert.Equal(t, 12, s.NumElements())
	assert.NoError(t, s.Validate())
	assert.Error(t, Shape{0, 4}.Validate())
	assert.True(t, s.Equal(s.Clone()))
	assert.False(t, s.Equal(Shape{4, 3}))
	assert.Panics(t, func() { Zeros(0, 1) })
}
