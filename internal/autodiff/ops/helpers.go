package ops

import (
	"fmt"

	"github.com/aster-ml/aster/internal/tensor"
)

// reduceBroadcast sums a gradient back down to the target input shape,
// undoing NumPy-style broadcasting from the forward pass.
//
// Example:
//
//	forward:  a[3, 1] + b[3, 4] -> c[3, 4]
//	backward: grad_c[3, 4] -> grad_a[3, 1] (summed along dim 1)
func reduceBroadcast(grad *tensor.RawTensor, target tensor.Shape, backend tensor.Backend) *tensor.RawTensor {
	gradShape := grad.Shape()

	// Clone on the fast path so callers never alias the incoming gradient.
	if gradShape.Equal(target) {
		return grad.Clone()
	}

	// Broadcasting aligns from the right: extra leading dims are summed away
	// first, then dims where the input had size 1.
	result := grad
	for len(result.Shape()) > len(target) {
		result = backend.SumDim(result, 0, false)
	}
	for i, s := range target {
		if s == 1 && result.Shape()[i] > 1 {
			result = backend.SumDim(result, i, true)
		}
	}

	if !result.Shape().Equal(target) {
		result = backend.Reshape(result, target)
	}
	return result
}

// onesLike returns a tensor of ones with the given shape and dtype.
func onesLike(shape tensor.Shape, dtype tensor.DataType, device tensor.Device) *tensor.RawTensor {
	result, err := tensor.NewRaw(shape, dtype, device)
	if err != nil {
		panic(fmt.Sprintf("onesLike: %v", err))
	}
	switch dtype {
	case tensor.Float32:
		data := result.AsFloat32()
		for i := range data {
			data[i] = 1
		}
	case tensor.Float64:
		data := result.AsFloat64()
		for i := range data {
			data[i] = 1
		}
	default:
		panic(fmt.Sprintf("onesLike: unsupported dtype %s", dtype))
	}
	return result
}

// zerosLike returns a zero tensor with the same shape and dtype as t.
func zerosLike(t *tensor.RawTensor) *tensor.RawTensor {
	result, err := tensor.NewRaw(t.Shape(), t.DType(), t.Device())
	if err != nil {
		panic(fmt.Sprintf("zerosLike: %v", err))
	}
	return result
}

// unsqueeze reinserts a size-1 dimension at dim, used to restore a reduced
// dimension before broadcasting a gradient back over it.
func unsqueeze(t *tensor.RawTensor, dim int, backend tensor.Backend) *tensor.RawTensor {
	shape := t.Shape()
	newShape := make(tensor.Shape, 0, len(shape)+1)
	newShape = append(newShape, shape[:dim]...)
	newShape = append(newShape, 1)
	newShape = append(newShape, shape[dim:]...)
	return backend.Reshape(t, newShape)
}

// broadcastGrad expands grad to the full input shape by multiplying a ones
// tensor of that shape, relying on the backend's broadcasting.
func broadcastGrad(grad *tensor.RawTensor, shape tensor.Shape, backend tensor.Backend) *tensor.RawTensor {
	ones := onesLike(shape, grad.DType(), grad.Device())
	return backend.Mul(ones, grad)
}
