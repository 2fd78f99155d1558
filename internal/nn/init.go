package nn

import (
	"math"
	"math/rand"

	"gonum.org/v1/gonum/mat"

	"github.com/born-ml/mlp/internal/tensor"
)

// Xavier (Glorot) initialization for weights.
//
// Initializes weights with values drawn from a uniform distribution:
// U(-sqrt(6/(fan_in + fan_out)), sqrt(6/(fan_in + fan_out)))
//
// Values are drawn row-major from rng, so a fixed seed gives identical weights.
//
// Parameters:
//   - fanIn: Number of input units
//   - fanOut: Number of output units
//   - rows, cols: Shape of the weight matrix
//   - rng: Random source (seeded by the caller)
func Xavier(fanIn, fanOut, rows, cols int, rng *rand.Rand) *mat.Dense {
	bound := XavierBound(fanIn, fanOut)

	m := tensor.Zeros(rows, cols)
	data := m.RawMatrix().Data
	for i := range data {
		//nolint:gosec // Using math/rand for weight initialization (not security-critical)
		data[i] = (rng.Float64()*2.0 - 1.0) * bound
	}
	return m
}

// XavierBound returns sqrt(6/(fanIn+fanOut)), the half-width of the Xavier range.
func XavierBound(fanIn, fanOut int) float64 {
	return math.Sqrt(6.0 / float64(fanIn+fanOut))
}

// Zeros creates a zero-filled matrix.
//
// This is used for bias initialization.
func Zeros(rows, cols int) *mat.Dense {
	return tensor.Zeros(rows, cols)
}
