package ops

import "github.com/aster-ml/aster/internal/tensor"

// SqrtOp records the element-wise square root: output = sqrt(x).
//
// Backward pass: d(sqrt(x))/dx = 1/(2*sqrt(x)), so
// grad_x = outputGrad / (2 * output).
type SqrtOp struct {
	inputs []*tensor.RawTensor
	output *tensor.RawTensor
}

// NewSqrtOp creates a new SqrtOp.
func NewSqrtOp(x, output *tensor.RawTensor) *SqrtOp {
	return &SqrtOp{inputs: []*tensor.RawTensor{x}, output: output}
}

// Backward computes grad_x = outputGrad / (2 * sqrt(x)).
func (op *SqrtOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	grad := backend.Div(outputGrad, op.output)
	grad = backend.MulScalar(grad, 0.5)
	return []*tensor.RawTensor{grad}
}

// Inputs returns [x].
func (op *SqrtOp) Inputs() []*tensor.RawTensor { return op.inputs }

// Output returns sqrt(x).
func (op *SqrtOp) Output() *tensor.RawTensor { return op.output }
