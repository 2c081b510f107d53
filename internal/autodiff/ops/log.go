package ops

import "github.com/aster-ml/aster/internal/tensor"

// LogOp records the element-wise natural logarithm: output = ln(x).
//
// Backward pass: d(ln(x))/dx = 1/x, so grad_x = outputGrad / x.
type LogOp struct {
	inputs []*tensor.RawTensor
	output *tensor.RawTensor
}

// NewLogOp creates a new LogOp.
func NewLogOp(x, output *tensor.RawTensor) *LogOp {
	return &LogOp{inputs: []*tensor.RawTensor{x}, output: output}
}

// Backward computes grad_x = outputGrad / x.
func (op *LogOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	return []*tensor.RawTensor{backend.Div(outputGrad, op.inputs[0])}
}

// Inputs returns [x].
func (op *LogOp) Inputs() []*tensor.RawTensor { return op.inputs }

// Output returns ln(x).
func (op *LogOp) Output() *tensor.RawTensor { return op.output }
