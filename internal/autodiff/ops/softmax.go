package ops

import "github.com/aster-ml/aster/internal/tensor"

// SoftmaxOp records a softmax along one dimension.
//
// Backward pass: with s = softmax(x) along dim,
// grad_x = s * (outputGrad - sum(outputGrad * s, dim, keepDim)).
type SoftmaxOp struct {
	dim    int
	inputs []*tensor.RawTensor
	output *tensor.RawTensor
}

// NewSoftmaxOp creates a new SoftmaxOp. dim must already be normalized
// to a non-negative index.
func NewSoftmaxOp(x *tensor.RawTensor, dim int, output *tensor.RawTensor) *SoftmaxOp {
	return &SoftmaxOp{dim: dim, inputs: []*tensor.RawTensor{x}, output: output}
}

// Backward computes the softmax Jacobian-vector product.
func (op *SoftmaxOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	s := op.output

	dot := backend.SumDim(backend.Mul(outputGrad, s), op.dim, true)
	grad := backend.Mul(s, backend.Sub(outputGrad, dot))

	return []*tensor.RawTensor{grad}
}

// Inputs returns [x].
func (op *SoftmaxOp) Inputs() []*tensor.RawTensor { return op.inputs }

// Output returns softmax(x).
func (op *SoftmaxOp) Output() *tensor.RawTensor { return op.output }
