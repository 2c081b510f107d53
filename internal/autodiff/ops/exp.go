package ops

import "github.com/aster-ml/aster/internal/tensor"

// ExpOp records the element-wise exponential: output = e^x.
// Since d(e^x)/dx = e^x, the backward pass reuses the forward output.
type ExpOp struct {
	inputs []*tensor.RawTensor
	output *tensor.RawTensor
}

// NewExpOp creates a new ExpOp.
func NewExpOp(x, output *tensor.RawTensor) *ExpOp {
	return &ExpOp{inputs: []*tensor.RawTensor{x}, output: output}
}

// Backward computes grad_x = outputGrad * e^x.
func (op *ExpOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	return []*tensor.RawTensor{backend.Mul(outputGrad, op.output)}
}

// Inputs returns [x].
func (op *ExpOp) Inputs() []*tensor.RawTensor { return op.inputs }

// Output returns e^x.
func (op *ExpOp) Output() *tensor.RawTensor { return op.output }
