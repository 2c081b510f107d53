// Package nn implements neural network modules.
//
// This package provides building blocks for constructing networks:
//   - Module interface: base interface for all components
//   - Parameter: trainable tensors registered with the autodiff engine
//   - Linear, Embedding: layers with learnable weights
//   - Activations: ReLU, Sigmoid, Tanh
//   - Loss functions: MSE, cross-entropy
//   - Sequential: container for stacking layers
//
// Design inspired by PyTorch's nn.Module but adapted for Go generics.
package nn

import "github.com/aster-ml/aster/internal/tensor"

// Module is the base interface for all neural network components.
//
// Modules compose into larger architectures:
//
//	model := nn.NewSequential[B](
//	    nn.NewLinear(784, 128, backend),
//	    nn.NewReLU[B](),
//	    nn.NewLinear(128, 10, backend),
//	)
type Module[B tensor.Backend] interface {
	// Forward computes the module output for the given input.
	Forward(input *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B]

	// Parameters returns all trainable parameters, including those of
	// nested modules. Modules without parameters return nil.
	Parameters() []*Parameter[B]
}
