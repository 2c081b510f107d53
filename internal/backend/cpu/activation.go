package cpu

import (
	"math"

	"github.com/aster-ml/aster/internal/tensor"
)

// ReLU computes max(x, 0) element-wise.
func (c *CPUBackend) ReLU(t *tensor.RawTensor) *tensor.RawTensor {
	return c.unary("relu", t, func(x float64) float64 {
		if x > 0 {
			return x
		}
		return 0
	})
}

// Sigmoid computes 1 / (1 + e^-x) element-wise.
func (c *CPUBackend) Sigmoid(t *tensor.RawTensor) *tensor.RawTensor {
	return c.unary("sigmoid", t, func(x float64) float64 {
		return 1 / (1 + math.Exp(-x))
	})
}

// Tanh computes the hyperbolic tangent element-wise.
func (c *CPUBackend) Tanh(t *tensor.RawTensor) *tensor.RawTensor {
	return c.unary("tanh", t, math.Tanh)
}
