// Package ops defines the differentiable operations recorded by the
// autodiff engine during the forward pass.
//
// Each operation captures its input and output tensors and knows how to
// turn the gradient of its output into gradients of its inputs:
//   - AddOp: d(a+b)/da = 1, d(a+b)/db = 1
//   - MulOp: d(a*b)/da = b, d(a*b)/db = a
//   - MatMulOp: d(A@B)/dA = grad@B^T, d(A@B)/dB = A^T@grad
//   - ReLUOp: d(relu(x))/dx = 1 where x > 0, else 0
//
// Broadcast-aware ops reduce their gradients back to the input shapes.
package ops

import "github.com/aster-ml/aster/internal/tensor"

// Operation is one recorded node of the computation graph.
type Operation interface {
	// Backward computes the input gradients given the output gradient.
	// The returned slice is parallel to Inputs(); a nil entry means the
	// corresponding input is not differentiable (index tensors).
	Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor

	// Inputs returns the operation's input tensors.
	Inputs() []*tensor.RawTensor

	// Output returns the tensor produced by the forward pass.
	Output() *tensor.RawTensor
}
