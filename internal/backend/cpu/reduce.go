package cpu

import (
	"fmt"

	"github.com/aster-ml/aster/internal/tensor"
)

// Sum reduces all elements to a single scalar tensor of shape [1].
func (c *CPUBackend) Sum(t *tensor.RawTensor) *tensor.RawTensor {
	result := newResult("sum", tensor.Shape{1}, t.DType(), c.device)

	switch t.DType() {
	case tensor.Float32:
		var sum float32
		for _, v := range t.AsFloat32() {
			sum += v
		}
		result.AsFloat32()[0] = sum
	case tensor.Float64:
		var sum float64
		for _, v := range t.AsFloat64() {
			sum += v
		}
		result.AsFloat64()[0] = sum
	default:
		panic(fmt.Sprintf("sum: unsupported dtype %s", t.DType()))
	}

	return result
}

// Mean reduces all elements to their average, shape [1].
func (c *CPUBackend) Mean(t *tensor.RawTensor) *tensor.RawTensor {
	n := t.NumElements()
	if n == 0 {
		panic("mean: empty tensor")
	}
	return c.DivScalar(c.Sum(t), float64(n))
}

// SumDim sums along a single dimension. With keepDim the reduced dimension
// stays in the shape with size 1, otherwise it is removed.
func (c *CPUBackend) SumDim(t *tensor.RawTensor, dim int, keepDim bool) *tensor.RawTensor {
	shape := t.Shape()
	dim = shape.Normalize(dim)

	outShape := reducedShape(shape, dim, keepDim)
	result := newResult("sum_dim", outShape, t.DType(), c.device)

	n := shape[dim]
	outer, inner := 1, 1
	for i := 0; i < dim; i++ {
		outer *= shape[i]
	}
	for i := dim + 1; i < len(shape); i++ {
		inner *= shape[i]
	}

	switch t.DType() {
	case tensor.Float32:
		sumDimSlices(result.AsFloat32(), t.AsFloat32(), outer, n, inner)
	case tensor.Float64:
		sumDimSlices(result.AsFloat64(), t.AsFloat64(), outer, n, inner)
	default:
		panic(fmt.Sprintf("sum_dim: unsupported dtype %s", t.DType()))
	}

	return result
}

// MeanDim averages along a single dimension.
func (c *CPUBackend) MeanDim(t *tensor.RawTensor, dim int, keepDim bool) *tensor.RawTensor {
	shape := t.Shape()
	n := shape[shape.Normalize(dim)]
	return c.DivScalar(c.SumDim(t, dim, keepDim), float64(n))
}

// Argmax returns the index of the maximum along dim as an Int32 tensor.
// The reduced dimension is removed from the shape. Ties resolve to the
// lowest index.
func (c *CPUBackend) Argmax(t *tensor.RawTensor, dim int) *tensor.RawTensor {
	shape := t.Shape()
	dim = shape.Normalize(dim)

	outShape := reducedShape(shape, dim, false)
	result := newResult("argmax", outShape, tensor.Int32, c.device)

	n := shape[dim]
	outer, inner := 1, 1
	for i := 0; i < dim; i++ {
		outer *= shape[i]
	}
	for i := dim + 1; i < len(shape); i++ {
		inner *= shape[i]
	}

	switch t.DType() {
	case tensor.Float32:
		argmaxSlices(result.AsInt32(), t.AsFloat32(), outer, n, inner)
	case tensor.Float64:
		argmaxSlices(result.AsInt32(), t.AsFloat64(), outer, n, inner)
	default:
		panic(fmt.Sprintf("argmax: unsupported dtype %s", t.DType()))
	}

	return result
}

func reducedShape(shape tensor.Shape, dim int, keepDim bool) tensor.Shape {
	out := make(tensor.Shape, 0, len(shape))
	for i, s := range shape {
		switch {
		case i != dim:
			out = append(out, s)
		case keepDim:
			out = append(out, 1)
		}
	}
	if len(out) == 0 {
		out = tensor.Shape{1}
	}
	return out
}

func sumDimSlices[T float32 | float64](out, in []T, outer, n, inner int) {
	for o := 0; o < outer; o++ {
		for i := 0; i < inner; i++ {
			base := o*n*inner + i
			var sum T
			for k := 0; k < n; k++ {
				sum += in[base+k*inner]
			}
			out[o*inner+i] = sum
		}
	}
}

func argmaxSlices[T float32 | float64](out []int32, in []T, outer, n, inner int) {
	for o := 0; o < outer; o++ {
		for i := 0; i < inner; i++ {
			base := o*n*inner + i
			best, bestIdx := in[base], int32(0)
			for k := 1; k < n; k++ {
				if v := in[base+k*inner]; v > best {
					best, bestIdx = v, int32(k)
				}
			}
			out[o*inner+i] = bestIdx
		}
	}
}
