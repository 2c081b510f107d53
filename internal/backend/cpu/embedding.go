package cpu

import (
	"fmt"

	"github.com/aster-ml/aster/internal/tensor"
)

// Embedding gathers rows of weight by int32 index. weight is
// [vocabSize, embedDim]; the output has the indices' shape with embedDim
// appended.
func (c *CPUBackend) Embedding(weight, indices *tensor.RawTensor) *tensor.RawTensor {
	wShape := weight.Shape()
	if len(wShape) != 2 {
		panic(fmt.Sprintf("embedding: weight must be 2D, got %v", wShape))
	}
	if indices.DType() != tensor.Int32 {
		panic(fmt.Sprintf("embedding: indices must be int32, got %s", indices.DType()))
	}

	vocabSize, embedDim := wShape[0], wShape[1]
	outShape := append(indices.Shape().Clone(), embedDim)
	result := newResult("embedding", outShape, weight.DType(), c.device)

	idx := indices.AsInt32()
	elemSize := weight.DType().Size()
	rowBytes := embedDim * elemSize
	wData := weight.Data()
	outData := result.Data()

	for i, id := range idx {
		if id < 0 || int(id) >= vocabSize {
			panic(fmt.Sprintf("embedding: index %d out of range [0, %d)", id, vocabSize))
		}
		copy(outData[i*rowBytes:(i+1)*rowBytes], wData[int(id)*rowBytes:(int(id)+1)*rowBytes])
	}

	return result
}
