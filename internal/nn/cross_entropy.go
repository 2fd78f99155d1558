package nn

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/born-ml/mlp/internal/tensor"
)

// Epsilon is added to every probability before taking its logarithm so that
// log(0) never occurs.
const Epsilon = 1e-10

// CrossEntropyLoss computes cross-entropy loss for multi-class classification
// on softmax probabilities and one-hot labels.
//
// Mathematical Formulation:
//
//	Loss = -Σ y * log(p + ε) / batch_size
//
// Gradient (Backward), w.r.t. the logits that produced p:
//
//	∂L/∂logits = (p - y) / batch_size
//
// Usage:
//
//	criterion := nn.NewCrossEntropyLoss()
//	probs := model.Forward(input)                 // [batch_size, num_classes]
//	loss := criterion.Forward(probs, labels)      // labels: one-hot [batch_size, num_classes]
//	grad := criterion.Backward(labels)
type CrossEntropyLoss struct {
	predictions *mat.Dense // last Forward predictions
}

// NewCrossEntropyLoss creates a new cross-entropy loss function.
func NewCrossEntropyLoss() *CrossEntropyLoss {
	return &CrossEntropyLoss{}
}

// Forward computes the mean loss over the batch and caches the predictions.
func (c *CrossEntropyLoss) Forward(predictions, labels *mat.Dense) float64 {
	checkSameShape("CrossEntropyLoss.Forward", predictions, labels)
	c.predictions = predictions

	rows, cols := predictions.Dims()
	var loss float64
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			if y := labels.At(i, j); y != 0 {
				loss -= y * math.Log(predictions.At(i, j)+Epsilon)
			}
		}
	}
	return loss / float64(rows)
}

// Backward returns (p - y) / batch_size for the predictions cached by the
// most recent Forward.
//
// This is the gradient w.r.t. the softmax input and is injected directly at
// the last Linear layer.
func (c *CrossEntropyLoss) Backward(labels *mat.Dense) *mat.Dense {
	checkSameShape("CrossEntropyLoss.Backward", c.predictions, labels)
	rows, _ := labels.Dims()

	var grad mat.Dense
	grad.Sub(c.predictions, labels)
	grad.Scale(1/float64(rows), &grad)
	return &grad
}

// ProbabilityGradient returns ∂L/∂p = -y / (p + ε) / batch_size for the cached
// predictions.
//
// Feeding this through Softmax.Backward gives the same result as Backward, up
// to the ε term.
func (c *CrossEntropyLoss) ProbabilityGradient(labels *mat.Dense) *mat.Dense {
	checkSameShape("CrossEntropyLoss.ProbabilityGradient", c.predictions, labels)
	rows, _ := labels.Dims()
	scale := 1 / float64(rows)

	var grad mat.Dense
	grad.Apply(func(i, j int, y float64) float64 {
		return -y / (c.predictions.At(i, j) + Epsilon) * scale
	}, labels)
	return &grad
}

// Accuracy returns the fraction of rows whose predicted class (first maximum)
// matches the labelled class.
func Accuracy(predictions, labels mat.Matrix) float64 {
	pred := tensor.ArgMaxRows(predictions)
	want := tensor.ArgMaxRows(labels)
	if len(pred) == 0 {
		return 0
	}

	correct := 0
	for i := range pred {
		if pred[i] == want[i] {
			correct++
		}
	}
	return float64(correct) / float64(len(pred))
}

func checkSameShape(op string, a, b mat.Matrix) {
	if !tensor.ShapeOf(a).Equal(tensor.ShapeOf(b)) {
		panic(fmt.Sprintf("%s: predictions %v and labels %v must have the same shape",
			op, tensor.ShapeOf(a), tensor.ShapeOf(b)))
	}
}
