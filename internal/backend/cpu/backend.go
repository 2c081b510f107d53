// Package cpu implements the CPU compute backend.
package cpu

import (
	"fmt"

	"github.com/aster-ml/aster/internal/parallel"
	"github.com/aster-ml/aster/internal/tensor"
)

// CPUBackend implements tensor operations in pure Go.
type CPUBackend struct {
	device   tensor.Device
	parallel parallel.Config
}

// New creates a new CPU backend.
func New() *CPUBackend {
	return &CPUBackend{
		device:   tensor.CPU,
		parallel: parallel.DefaultConfig(),
	}
}

// Name returns the backend name.
func (c *CPUBackend) Name() string { return "CPU" }

// Device returns the compute device.
func (c *CPUBackend) Device() tensor.Device { return c.device }

// Add performs element-wise addition with NumPy-style broadcasting.
func (c *CPUBackend) Add(a, b *tensor.RawTensor) *tensor.RawTensor {
	return c.binary("add", a, b,
		func(x, y float32) float32 { return x + y },
		func(x, y float64) float64 { return x + y })
}

// Sub performs element-wise subtraction with broadcasting.
func (c *CPUBackend) Sub(a, b *tensor.RawTensor) *tensor.RawTensor {
	return c.binary("sub", a, b,
		func(x, y float32) float32 { return x - y },
		func(x, y float64) float64 { return x - y })
}

// Mul performs element-wise multiplication with broadcasting.
func (c *CPUBackend) Mul(a, b *tensor.RawTensor) *tensor.RawTensor {
	return c.binary("mul", a, b,
		func(x, y float32) float32 { return x * y },
		func(x, y float64) float64 { return x * y })
}

// Div performs element-wise division with broadcasting.
func (c *CPUBackend) Div(a, b *tensor.RawTensor) *tensor.RawTensor {
	return c.binary("div", a, b,
		func(x, y float32) float32 { return x / y },
		func(x, y float64) float64 { return x / y })
}

// binary applies an element-wise binary op, reusing a's storage when a is
// the unique owner of its buffer and no broadcasting is involved.
func (c *CPUBackend) binary(
	name string,
	a, b *tensor.RawTensor,
	f32 func(x, y float32) float32,
	f64 func(x, y float64) float64,
) *tensor.RawTensor {
	if a.DType() != b.DType() {
		panic(fmt.Sprintf("%s: dtype mismatch: %s vs %s", name, a.DType(), b.DType()))
	}

	outShape, needsBroadcast, err := tensor.BroadcastShapes(a.Shape(), b.Shape())
	if err != nil {
		panic(fmt.Sprintf("%s: %v", name, err))
	}

	if !needsBroadcast {
		// Fast path: identical shapes, contiguous data.
		if a.IsUnique() {
			applySame(name, a, a, b, f32, f64)
			return a
		}
		result := newResult(name, outShape, a.DType(), c.device)
		applySame(name, result, a, b, f32, f64)
		return result
	}

	result := newResult(name, outShape, a.DType(), c.device)
	applyBroadcast(name, result, a, b, outShape, f32, f64)
	return result
}

// newResult allocates an output tensor or panics with op context.
func newResult(name string, shape tensor.Shape, dtype tensor.DataType, device tensor.Device) *tensor.RawTensor {
	result, err := tensor.NewRaw(shape, dtype, device)
	if err != nil {
		panic(fmt.Sprintf("%s: failed to create result tensor: %v", name, err))
	}
	return result
}

func applySame(
	name string,
	dst, a, b *tensor.RawTensor,
	f32 func(x, y float32) float32,
	f64 func(x, y float64) float64,
) {
	switch a.DType() {
	case tensor.Float32:
		out, x, y := dst.AsFloat32(), a.AsFloat32(), b.AsFloat32()
		for i := range out {
			out[i] = f32(x[i], y[i])
		}
	case tensor.Float64:
		out, x, y := dst.AsFloat64(), a.AsFloat64(), b.AsFloat64()
		for i := range out {
			out[i] = f64(x[i], y[i])
		}
	default:
		panic(fmt.Sprintf("%s: unsupported dtype %s", name, a.DType()))
	}
}

func applyBroadcast(
	name string,
	dst, a, b *tensor.RawTensor,
	outShape tensor.Shape,
	f32 func(x, y float32) float32,
	f64 func(x, y float64) float64,
) {
	aStrides := broadcastStrides(a.Shape(), outShape)
	bStrides := broadcastStrides(b.Shape(), outShape)

	switch a.DType() {
	case tensor.Float32:
		out, x, y := dst.AsFloat32(), a.AsFloat32(), b.AsFloat32()
		forEachIndex(outShape, func(flat int, aIdx, bIdx int) {
			out[flat] = f32(x[aIdx], y[bIdx])
		}, aStrides, bStrides)
	case tensor.Float64:
		out, x, y := dst.AsFloat64(), a.AsFloat64(), b.AsFloat64()
		forEachIndex(outShape, func(flat int, aIdx, bIdx int) {
			out[flat] = f64(x[aIdx], y[bIdx])
		}, aStrides, bStrides)
	default:
		panic(fmt.Sprintf("%s: unsupported dtype %s", name, a.DType()))
	}
}
