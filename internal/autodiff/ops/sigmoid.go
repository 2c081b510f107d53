package ops

import "github.com/aster-ml/aster/internal/tensor"

// SigmoidOp records the logistic function: output = 1 / (1 + e^-x).
//
// Backward pass: d(sigmoid(x))/dx = sigmoid(x) * (1 - sigmoid(x)),
// computed from the forward output.
type SigmoidOp struct {
	inputs []*tensor.RawTensor
	output *tensor.RawTensor
}

// NewSigmoidOp creates a new SigmoidOp.
func NewSigmoidOp(x, output *tensor.RawTensor) *SigmoidOp {
	return &SigmoidOp{inputs: []*tensor.RawTensor{x}, output: output}
}

// Backward computes grad_x = outputGrad * s * (1 - s) where s is the
// forward output.
func (op *SigmoidOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	s := op.output

	// s * (1 - s) = s - s*s
	deriv := backend.Sub(backend.Mul(s, s), s)
	deriv = backend.MulScalar(deriv, -1.0)
	grad := backend.Mul(outputGrad, deriv)

	return []*tensor.RawTensor{grad}
}

// Inputs returns [x].
func (op *SigmoidOp) Inputs() []*tensor.RawTensor { return op.inputs }

// Output returns sigmoid(x).
func (op *SigmoidOp) Output() *tensor.RawTensor { return op.output }
