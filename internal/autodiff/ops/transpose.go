package ops

import "github.com/aster-ml/aster/internal/tensor"

// TransposeOp records a dimension permutation. The backward pass applies
// the inverse permutation to the gradient.
type TransposeOp struct {
	axes   []int
	inputs []*tensor.RawTensor
	output *tensor.RawTensor
}

// NewTransposeOp creates a new TransposeOp. axes holds the resolved
// permutation actually applied in the forward pass.
func NewTransposeOp(x *tensor.RawTensor, axes []int, output *tensor.RawTensor) *TransposeOp {
	return &TransposeOp{axes: axes, inputs: []*tensor.RawTensor{x}, output: output}
}

// Backward transposes the gradient with the inverse permutation.
func (op *TransposeOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	inverse := make([]int, len(op.axes))
	for i, ax := range op.axes {
		inverse[ax] = i
	}
	return []*tensor.RawTensor{backend.Transpose(outputGrad, inverse...)}
}

// Inputs returns [x].
func (op *TransposeOp) Inputs() []*tensor.RawTensor { return op.inputs }

// Output returns the transposed tensor.
func (op *TransposeOp) Output() *tensor.RawTensor { return op.output }
