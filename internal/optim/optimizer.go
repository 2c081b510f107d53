// Package optim implements optimization algorithms for training neural
// networks.
//
// This package provides:
//   - Optimizer interface: base interface for all optimizers
//   - SGD: stochastic gradient descent with momentum
//   - Adam: adaptive moment estimation
//
// Example usage:
//
//	optimizer := optim.NewAdam(model.Parameters(), optim.AdamConfig{LR: 0.001})
//
//	for epoch := 0; epoch < epochs; epoch++ {
//	    output := model.Forward(input)
//	    loss := lossFn.Forward(output, targets)
//	    optimizer.ZeroGrad()
//	    grads := engine.Backward(loss.Raw())
//	    optimizer.Step(grads)
//	}
package optim

import (
	"github.com/aster-ml/aster/internal/nn"
	"github.com/aster-ml/aster/internal/tensor"
)

// Optimizer is the base interface for all optimization algorithms.
type Optimizer interface {
	// Step applies one update to all parameters, keyed by the gradient
	// map a backward pass returns. Parameters without a gradient are
	// skipped.
	Step(grads map[*tensor.RawTensor]*tensor.RawTensor)

	// ZeroGrad clears accumulated gradients before the next backward
	// pass.
	ZeroGrad()

	// LR returns the current learning rate.
	LR() float32
}

// gradZeroer is satisfied by the autodiff engine.
type gradZeroer interface {
	ZeroGrad()
}

// getGradient looks up a parameter's gradient in the backward result.
func getGradient[B tensor.Backend](param *nn.Parameter[B], grads map[*tensor.RawTensor]*tensor.RawTensor) []float32 {
	grad, ok := grads[param.Raw()]
	if !ok || grad == nil {
		return nil
	}
	return grad.AsFloat32()
}

// zeroParamGrads clears the engine-side accumulated gradients through the
// parameters' backend.
func zeroParamGrads[B tensor.Backend](params []*nn.Parameter[B]) {
	if len(params) == 0 {
		return
	}
	if z, ok := any(params[0].Tensor().Backend()).(gradZeroer); ok {
		z.ZeroGrad()
	}
}
