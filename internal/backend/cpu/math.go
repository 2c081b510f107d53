package cpu

import (
	"fmt"
	"math"

	"github.com/aster-ml/aster/internal/tensor"
)

// Exp computes e^x element-wise.
func (c *CPUBackend) Exp(t *tensor.RawTensor) *tensor.RawTensor {
	return c.unary("exp", t, math.Exp)
}

// Log computes the natural logarithm element-wise.
func (c *CPUBackend) Log(t *tensor.RawTensor) *tensor.RawTensor {
	return c.unary("log", t, math.Log)
}

// Sqrt computes the square root element-wise.
func (c *CPUBackend) Sqrt(t *tensor.RawTensor) *tensor.RawTensor {
	return c.unary("sqrt", t, math.Sqrt)
}

func (c *CPUBackend) unary(name string, t *tensor.RawTensor, f func(float64) float64) *tensor.RawTensor {
	dst := t
	if !t.IsUnique() {
		dst = newResult(name, t.Shape(), t.DType(), c.device)
	}

	switch t.DType() {
	case tensor.Float32:
		out, in := dst.AsFloat32(), t.AsFloat32()
		for i := range out {
			out[i] = float32(f(float64(in[i])))
		}
	case tensor.Float64:
		out, in := dst.AsFloat64(), t.AsFloat64()
		for i := range out {
			out[i] = f(in[i])
		}
	default:
		panic(fmt.Sprintf("%s: unsupported dtype %s", name, t.DType()))
	}

	return dst
}

// Softmax computes the softmax along the given dimension, shifted by the
// per-slice maximum for numerical stability.
func (c *CPUBackend) Softmax(t *tensor.RawTensor, dim int) *tensor.RawTensor {
	shape := t.Shape()
	dim = shape.Normalize(dim)

	// Decompose the tensor into outer * n * inner slices around dim.
	n := shape[dim]
	outer, inner := 1, 1
	for i := 0; i < dim; i++ {
		outer *= shape[i]
	}
	for i := dim + 1; i < len(shape); i++ {
		inner *= shape[i]
	}

	result := newResult("softmax", shape, t.DType(), c.device)

	switch t.DType() {
	case tensor.Float32:
		softmaxSlices(result.AsFloat32(), t.AsFloat32(), outer, n, inner)
	case tensor.Float64:
		softmaxSlices(result.AsFloat64(), t.AsFloat64(), outer, n, inner)
	default:
		panic(fmt.Sprintf("softmax: unsupported dtype %s", t.DType()))
	}

	return result
}

func softmaxSlices[T float32 | float64](out, in []T, outer, n, inner int) {
	for o := 0; o < outer; o++ {
		for i := 0; i < inner; i++ {
			base := o*n*inner + i

			maxVal := in[base]
			for k := 1; k < n; k++ {
				if v := in[base+k*inner]; v > maxVal {
					maxVal = v
				}
			}

			var sum T
			for k := 0; k < n; k++ {
				e := T(math.Exp(float64(in[base+k*inner] - maxVal)))
				out[base+k*inner] = e
				sum += e
			}

			for k := 0; k < n; k++ {
				out[base+k*inner] /= sum
			}
		}
	}
}
