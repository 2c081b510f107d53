package cpu

import (
	"fmt"

	"github.com/aster-ml/aster/internal/tensor"
)

// Reshape returns a tensor with the same data and a new shape.
func (c *CPUBackend) Reshape(t *tensor.RawTensor, newShape tensor.Shape) *tensor.RawTensor {
	if err := newShape.Validate(); err != nil {
		panic(fmt.Sprintf("reshape: invalid shape: %v", err))
	}
	if t.NumElements() != newShape.NumElements() {
		panic(fmt.Sprintf("reshape: incompatible shapes: %v -> %v (different number of elements)",
			t.Shape(), newShape))
	}

	result := newResult("reshape", newShape, t.DType(), c.device)
	copy(result.Data(), t.Data()[:t.ByteSize()])
	return result
}

// Transpose permutes the tensor's dimensions. With no axes given, all
// dimensions are reversed.
func (c *CPUBackend) Transpose(t *tensor.RawTensor, axes ...int) *tensor.RawTensor {
	shape := t.Shape()
	ndim := len(shape)

	if len(axes) == 0 {
		axes = make([]int, ndim)
		for i := range axes {
			axes[i] = ndim - 1 - i
		}
	}

	if len(axes) != ndim {
		panic(fmt.Sprintf("transpose: axes length %d != ndim %d", len(axes), ndim))
	}
	seen := make([]bool, ndim)
	for _, ax := range axes {
		if ax < 0 || ax >= ndim {
			panic(fmt.Sprintf("transpose: invalid axis %d for %dD tensor", ax, ndim))
		}
		if seen[ax] {
			panic(fmt.Sprintf("transpose: duplicate axis %d", ax))
		}
		seen[ax] = true
	}

	newShape := make(tensor.Shape, ndim)
	for i, ax := range axes {
		newShape[i] = shape[ax]
	}

	result := newResult("transpose", newShape, t.DType(), c.device)

	// Element-wise move: for each output position, copy the element from
	// the permuted input position. Works for every dtype via byte copies.
	elemSize := t.DType().Size()
	inStrides := shape.ComputeStrides()
	outData := result.Data()
	inData := t.Data()

	coords := make([]int, ndim)
	n := newShape.NumElements()
	for flat := 0; flat < n; flat++ {
		inIdx := 0
		for d := 0; d < ndim; d++ {
			inIdx += coords[d] * inStrides[axes[d]]
		}
		copy(outData[flat*elemSize:(flat+1)*elemSize], inData[inIdx*elemSize:(inIdx+1)*elemSize])

		for d := ndim - 1; d >= 0; d-- {
			coords[d]++
			if coords[d] < newShape[d] {
				break
			}
			coords[d] = 0
		}
	}

	return result
}
