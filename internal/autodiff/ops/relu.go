package ops

import (
	"fmt"

	"github.com/aster-ml/aster/internal/tensor"
)

// ReLUOp records the rectified linear unit: output = max(x, 0).
//
// Backward pass: the gradient passes through where x > 0 and is zero
// elsewhere.
type ReLUOp struct {
	inputs []*tensor.RawTensor
	output *tensor.RawTensor
}

// NewReLUOp creates a new ReLUOp.
func NewReLUOp(x, output *tensor.RawTensor) *ReLUOp {
	return &ReLUOp{inputs: []*tensor.RawTensor{x}, output: output}
}

// Backward masks the output gradient by the sign of the forward input.
func (op *ReLUOp) Backward(outputGrad *tensor.RawTensor, _ tensor.Backend) []*tensor.RawTensor {
	x := op.inputs[0]
	grad := zerosLike(x)

	switch x.DType() {
	case tensor.Float32:
		in, g, out := x.AsFloat32(), outputGrad.AsFloat32(), grad.AsFloat32()
		for i := range in {
			if in[i] > 0 {
				out[i] = g[i]
			}
		}
	case tensor.Float64:
		in, g, out := x.AsFloat64(), outputGrad.AsFloat64(), grad.AsFloat64()
		for i := range in {
			if in[i] > 0 {
				out[i] = g[i]
			}
		}
	default:
		panic(fmt.Sprintf("relu backward: unsupported dtype %s", x.DType()))
	}

	return []*tensor.RawTensor{grad}
}

// Inputs returns [x].
func (op *ReLUOp) Inputs() []*tensor.RawTensor { return op.inputs }

// Output returns max(x, 0).
func (op *ReLUOp) Output() *tensor.RawTensor { return op.output }
