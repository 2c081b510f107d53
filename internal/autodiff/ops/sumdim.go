package ops

import "github.com/aster-ml/aster/internal/tensor"

// SumDimOp records a sum along one dimension.
//
// Backward pass: the gradient is broadcast back over the reduced
// dimension, restoring it first when the forward pass removed it.
type SumDimOp struct {
	dim     int
	keepDim bool
	inputs  []*tensor.RawTensor
	output  *tensor.RawTensor
}

// NewSumDimOp creates a new SumDimOp. dim must already be normalized.
func NewSumDimOp(x *tensor.RawTensor, dim int, keepDim bool, output *tensor.RawTensor) *SumDimOp {
	return &SumDimOp{dim: dim, keepDim: keepDim, inputs: []*tensor.RawTensor{x}, output: output}
}

// Backward broadcasts the gradient over the reduced dimension.
func (op *SumDimOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	grad := outputGrad
	if !op.keepDim {
		grad = unsqueeze(grad, op.dim, backend)
	}
	return []*tensor.RawTensor{broadcastGrad(grad, op.inputs[0].Shape(), backend)}
}

// Inputs returns [x].
func (op *SumDimOp) Inputs() []*tensor.RawTensor { return op.inputs }

// Output returns the reduced tensor.
func (op *SumDimOp) Output() *tensor.RawTensor { return op.output }

// MeanDimOp records a mean along one dimension.
//
// Backward pass: like SumDimOp scaled by 1/size(dim).
type MeanDimOp struct {
	dim     int
	keepDim bool
	inputs  []*tensor.RawTensor
	output  *tensor.RawTensor
}

// NewMeanDimOp creates a new MeanDimOp. dim must already be normalized.
func NewMeanDimOp(x *tensor.RawTensor, dim int, keepDim bool, output *tensor.RawTensor) *MeanDimOp {
	return &MeanDimOp{dim: dim, keepDim: keepDim, inputs: []*tensor.RawTensor{x}, output: output}
}

// Backward broadcasts the gradient scaled by 1/size(dim).
func (op *MeanDimOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	x := op.inputs[0]

	grad := outputGrad
	if !op.keepDim {
		grad = unsqueeze(grad, op.dim, backend)
	}
	grad = broadcastGrad(grad, x.Shape(), backend)
	grad = backend.DivScalar(grad, float64(x.Shape()[op.dim]))

	return []*tensor.RawTensor{grad}
}

// Inputs returns [x].
func (op *MeanDimOp) Inputs() []*tensor.RawTensor { return op.inputs }

// Output returns the reduced tensor.
func (op *MeanDimOp) Output() *tensor.RawTensor { return op.output }
