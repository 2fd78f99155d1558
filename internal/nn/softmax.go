package nn

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// Softmax normalizes each row into a probability distribution.
//
// Formula:
//
//	Softmax(z)[i] = exp(z[i] - max(z)) / Σ exp(z[j] - max(z))
//
// Subtracting the row maximum keeps exp from overflowing.
//
// Backward is the full Jacobian-vector product. The training loop does not
// call it: CrossEntropyLoss.Backward already returns the combined
// softmax + cross-entropy gradient w.r.t. the logits.
type Softmax struct {
	output *mat.Dense // last Forward output
}

// NewSoftmax creates a new Softmax activation.
func NewSoftmax() *Softmax {
	return &Softmax{}
}

// Forward computes the row-wise softmax and caches the result.
func (s *Softmax) Forward(input *mat.Dense) *mat.Dense {
	rows, cols := input.Dims()
	output := mat.NewDense(rows, cols, nil)

	for i := 0; i < rows; i++ {
		src := input.RawRowView(i)
		dst := output.RawRowView(i)

		maxZ := floats.Max(src)
		for j, z := range src {
			dst[j] = math.Exp(z - maxZ)
		}
		floats.Scale(1/floats.Sum(dst), dst)
	}

	s.output = output
	return output
}

// Backward computes output ⊙ (grad - rowsum(grad ⊙ output)).
//
// Softmax has no parameters, so opt is unused.
func (s *Softmax) Backward(grad *mat.Dense, _ Updater) *mat.Dense {
	rows, cols := grad.Dims()
	result := mat.NewDense(rows, cols, nil)

	for i := 0; i < rows; i++ {
		g := grad.RawRowView(i)
		y := s.output.RawRowView(i)
		dot := floats.Dot(g, y)

		dst := result.RawRowView(i)
		for j := range dst {
			dst[j] = y[j] * (g[j] - dot)
		}
	}
	return result
}

// Parameters returns nil (Softmax has no trainable parameters).
func (s *Softmax) Parameters() []*Parameter {
	return nil
}
