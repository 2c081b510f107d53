package ops

import "github.com/aster-ml/aster/internal/tensor"

// SumOp records a full reduction to a single element.
//
// Backward pass: every input element contributed with weight 1, so the
// scalar gradient is broadcast back over the input shape.
type SumOp struct {
	inputs []*tensor.RawTensor
	output *tensor.RawTensor
}

// NewSumOp creates a new SumOp.
func NewSumOp(x, output *tensor.RawTensor) *SumOp {
	return &SumOp{inputs: []*tensor.RawTensor{x}, output: output}
}

// Backward broadcasts the scalar gradient over the input shape.
func (op *SumOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	return []*tensor.RawTensor{broadcastGrad(outputGrad, op.inputs[0].Shape(), backend)}
}

// Inputs returns [x].
func (op *SumOp) Inputs() []*tensor.RawTensor { return op.inputs }

// Output returns the reduction result.
func (op *SumOp) Output() *tensor.RawTensor { return op.output }

// MeanOp records a full mean reduction.
//
// Backward pass: like SumOp scaled by 1/n.
type MeanOp struct {
	inputs []*tensor.RawTensor
	output *tensor.RawTensor
}

// NewMeanOp creates a new MeanOp.
func NewMeanOp(x, output *tensor.RawTensor) *MeanOp {
	return &MeanOp{inputs: []*tensor.RawTensor{x}, output: output}
}

// Backward broadcasts the scalar gradient scaled by 1/n.
func (op *MeanOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	x := op.inputs[0]
	grad := broadcastGrad(outputGrad, x.Shape(), backend)
	grad = backend.DivScalar(grad, float64(x.NumElements()))
	return []*tensor.RawTensor{grad}
}

// Inputs returns [x].
func (op *MeanOp) Inputs() []*tensor.RawTensor { return op.inputs }

// Output returns the reduction result.
func (op *MeanOp) Output() *tensor.RawTensor { return op.output }
