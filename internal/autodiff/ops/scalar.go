package ops

import "github.com/aster-ml/aster/internal/tensor"

// ScalarOpKind identifies which scalar operation was recorded.
type ScalarOpKind int

// Scalar operation kinds.
const (
	ScalarAdd ScalarOpKind = iota
	ScalarSub
	ScalarMul
	ScalarDiv
)

// ScalarOp records an element-wise operation with a scalar operand:
// output = x (+|-|*|/) s.
//
// Backward pass:
//   - add/sub: grad_x = outputGrad
//   - mul:     grad_x = outputGrad * s
//   - div:     grad_x = outputGrad / s
type ScalarOp struct {
	kind   ScalarOpKind
	scalar float64
	inputs []*tensor.RawTensor
	output *tensor.RawTensor
}

// NewScalarOp creates a new ScalarOp.
func NewScalarOp(kind ScalarOpKind, x *tensor.RawTensor, scalar float64, output *tensor.RawTensor) *ScalarOp {
	return &ScalarOp{
		kind:   kind,
		scalar: scalar,
		inputs: []*tensor.RawTensor{x},
		output: output,
	}
}

// Backward computes the input gradient for the scalar operation.
func (op *ScalarOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	var grad *tensor.RawTensor
	switch op.kind {
	case ScalarAdd, ScalarSub:
		grad = outputGrad.Clone()
	case ScalarMul:
		grad = backend.MulScalar(outputGrad, op.scalar)
	case ScalarDiv:
		grad = backend.DivScalar(outputGrad, op.scalar)
	}
	return []*tensor.RawTensor{grad}
}

// Inputs returns [x].
func (op *ScalarOp) Inputs() []*tensor.RawTensor { return op.inputs }

// Output returns the operation result.
func (op *ScalarOp) Output() *tensor.RawTensor { return op.output }
