package nn

import "github.com/aster-ml/aster/internal/tensor"

// Parameter is a trainable tensor. Creating a Parameter marks the tensor
// as a differentiation leaf, so the autodiff engine tracks every
// operation touching it and accumulates its gradient during backward.
type Parameter[B tensor.Backend] struct {
	name   string
	tensor *tensor.Tensor[float32, B]
}

// NewParameter creates a trainable parameter and registers the tensor
// with the backend for gradient tracking.
func NewParameter[B tensor.Backend](name string, t *tensor.Tensor[float32, B]) *Parameter[B] {
	t.RequireGrad()
	return &Parameter[B]{name: name, tensor: t}
}

// Name returns the parameter name (e.g. "linear.weight").
func (p *Parameter[B]) Name() string { return p.name }

// Tensor returns the parameter tensor.
func (p *Parameter[B]) Tensor() *tensor.Tensor[float32, B] { return p.tensor }

// Raw returns the underlying RawTensor, the key under which the engine
// reports this parameter's gradient.
func (p *Parameter[B]) Raw() *tensor.RawTensor { return p.tensor.Raw() }
