package ops

import (
	"fmt"

	"github.com/aster-ml/aster/internal/tensor"
)

// EmbeddingOp records a row lookup into an embedding table.
//
// Backward pass: each looked-up row scatter-adds its gradient back into
// the corresponding table row. Indices are not differentiable.
type EmbeddingOp struct {
	inputs []*tensor.RawTensor // [weight, indices]
	output *tensor.RawTensor
}

// NewEmbeddingOp creates a new EmbeddingOp.
func NewEmbeddingOp(weight, indices, output *tensor.RawTensor) *EmbeddingOp {
	return &EmbeddingOp{
		inputs: []*tensor.RawTensor{weight, indices},
		output: output,
	}
}

// Backward scatter-adds the output gradient into a weight-shaped gradient.
// Repeated indices accumulate.
func (op *EmbeddingOp) Backward(outputGrad *tensor.RawTensor, _ tensor.Backend) []*tensor.RawTensor {
	weight, indices := op.inputs[0], op.inputs[1]
	embedDim := weight.Shape()[1]

	grad := zerosLike(weight)
	idx := indices.AsInt32()

	switch weight.DType() {
	case tensor.Float32:
		g, out := outputGrad.AsFloat32(), grad.AsFloat32()
		for i, id := range idx {
			row := out[int(id)*embedDim : (int(id)+1)*embedDim]
			src := g[i*embedDim : (i+1)*embedDim]
			for j := range row {
				row[j] += src[j]
			}
		}
	case tensor.Float64:
		g, out := outputGrad.AsFloat64(), grad.AsFloat64()
		for i, id := range idx {
			row := out[int(id)*embedDim : (int(id)+1)*embedDim]
			src := g[i*embedDim : (i+1)*embedDim]
			for j := range row {
				row[j] += src[j]
			}
		}
	default:
		panic(fmt.Sprintf("embedding backward: unsupported dtype %s", weight.DType()))
	}

	return []*tensor.RawTensor{grad, nil}
}

// Inputs returns [weight, indices].
func (op *EmbeddingOp) Inputs() []*tensor.RawTensor { return op.inputs }

// Output returns the gathered rows.
func (op *EmbeddingOp) Output() *tensor.RawTensor { return op.output }
