package nn

import (
	"gonum.org/v1/gonum/mat"
)

// Sequential is a container that chains multiple layers together.
//
// Forward feeds each layer's output into the next. Backward walks the layers
// in reverse, so each layer receives the gradient of the one after it.
//
// Example:
//
//	model := nn.NewSequential(
//	    nn.NewLinear(784, 128, rng),
//	    nn.NewReLU(),
//	    nn.NewLinear(128, 10, rng),
//	)
//
//	output := model.Forward(input)
//	model.Backward(grad, sgd)
type Sequential struct {
	layers []Layer
}

// NewSequential creates a new Sequential container.
func NewSequential(layers ...Layer) *Sequential {
	return &Sequential{
		layers: layers,
	}
}

// Forward applies all layers in sequence.
func (s *Sequential) Forward(input *mat.Dense) *mat.Dense {
	output := input
	for _, layer := range s.layers {
		output = layer.Forward(output)
	}
	return output
}

// Backward propagates grad through the layers in reverse order and returns
// the gradient w.r.t. the input of the first layer.
//
// Each layer applies its own parameter update before the gradient moves on
// to the previous layer.
func (s *Sequential) Backward(grad *mat.Dense, opt Updater) *mat.Dense {
	for i := len(s.layers) - 1; i >= 0; i-- {
		grad = s.layers[i].Backward(grad, opt)
	}
	return grad
}

// Parameters returns all trainable parameters from all layers, in layer order.
func (s *Sequential) Parameters() []*Parameter {
	var params []*Parameter
	for _, layer := range s.layers {
		params = append(params, layer.Parameters()...)
	}
	return params
}

// Add appends a layer to the sequence.
func (s *Sequential) Add(layer Layer) {
	s.layers = append(s.layers, layer)
}

// Len returns the number of layers in the sequence.
func (s *Sequential) Len() int {
	return len(s.layers)
}

// Layer returns the layer at the given index.
//
// Panics if index is out of bounds.
func (s *Sequential) Layer(index int) Layer {
	if index < 0 || index >= len(s.layers) {
		panic("Sequential.Layer: index out of bounds")
	}
	return s.layers[index]
}
