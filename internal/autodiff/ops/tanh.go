package ops

import "github.com/aster-ml/aster/internal/tensor"

// TanhOp records the hyperbolic tangent: output = tanh(x).
//
// Backward pass: d(tanh(x))/dx = 1 - tanh(x)^2, computed from the
// forward output.
type TanhOp struct {
	inputs []*tensor.RawTensor
	output *tensor.RawTensor
}

// NewTanhOp creates a new TanhOp.
func NewTanhOp(x, output *tensor.RawTensor) *TanhOp {
	return &TanhOp{inputs: []*tensor.RawTensor{x}, output: output}
}

// Backward computes grad_x = outputGrad * (1 - tanh(x)^2).
func (op *TanhOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	t := op.output

	deriv := backend.MulScalar(backend.Mul(t, t), -1.0)
	deriv = backend.AddScalar(deriv, 1.0)
	grad := backend.Mul(outputGrad, deriv)

	return []*tensor.RawTensor{grad}
}

// Inputs returns [x].
func (op *TanhOp) Inputs() []*tensor.RawTensor { return op.inputs }

// Output returns tanh(x).
func (op *TanhOp) Output() *tensor.RawTensor { return op.output }
