package cpu

import (
	"fmt"

	"github.com/aster-ml/aster/internal/tensor"
)

// AddScalar adds a scalar to every element.
func (c *CPUBackend) AddScalar(t *tensor.RawTensor, scalar any) *tensor.RawTensor {
	return c.scalarOp("add_scalar", t, scalar,
		func(x, s float32) float32 { return x + s },
		func(x, s float64) float64 { return x + s })
}

// SubScalar subtracts a scalar from every element.
func (c *CPUBackend) SubScalar(t *tensor.RawTensor, scalar any) *tensor.RawTensor {
	return c.scalarOp("sub_scalar", t, scalar,
		func(x, s float32) float32 { return x - s },
		func(x, s float64) float64 { return x - s })
}

// MulScalar multiplies every element by a scalar.
func (c *CPUBackend) MulScalar(t *tensor.RawTensor, scalar any) *tensor.RawTensor {
	return c.scalarOp("mul_scalar", t, scalar,
		func(x, s float32) float32 { return x * s },
		func(x, s float64) float64 { return x * s })
}

// DivScalar divides every element by a scalar.
func (c *CPUBackend) DivScalar(t *tensor.RawTensor, scalar any) *tensor.RawTensor {
	return c.scalarOp("div_scalar", t, scalar,
		func(x, s float32) float32 { return x / s },
		func(x, s float64) float64 { return x / s })
}

func (c *CPUBackend) scalarOp(
	name string,
	t *tensor.RawTensor,
	scalar any,
	f32 func(x, s float32) float32,
	f64 func(x, s float64) float64,
) *tensor.RawTensor {
	s, err := toFloat64(scalar)
	if err != nil {
		panic(fmt.Sprintf("%s: %v", name, err))
	}

	dst := t
	if !t.IsUnique() {
		dst = newResult(name, t.Shape(), t.DType(), c.device)
	}

	switch t.DType() {
	case tensor.Float32:
		out, in, sv := dst.AsFloat32(), t.AsFloat32(), float32(s)
		for i := range out {
			out[i] = f32(in[i], sv)
		}
	case tensor.Float64:
		out, in := dst.AsFloat64(), t.AsFloat64()
		for i := range out {
			out[i] = f64(in[i], s)
		}
	default:
		panic(fmt.Sprintf("%s: unsupported dtype %s", name, t.DType()))
	}

	return dst
}

// toFloat64 converts any supported numeric scalar to float64.
func toFloat64(scalar any) (float64, error) {
	switch v := scalar.(type) {
	case float32:
		return float64(v), nil
	case float64:
		return v, nil
	case int:
		return float64(v), nil
	case int32:
		return float64(v), nil
	case int64:
		return float64(v), nil
	case uint8:
		return float64(v), nil
	default:
		return 0, fmt.Errorf("unsupported scalar type %T", scalar)
	}
}
