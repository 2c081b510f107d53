// Copyright 2025 Aster ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package autodiff provides automatic differentiation capabilities.
//
// This package implements reverse-mode automatic differentiation
// (backpropagation) over a graph of recorded operations. It wraps any
// backend to add autodiff capabilities.
//
// Example:
//
//	import (
//	    "github.com/aster-ml/aster/autodiff"
//	    "github.com/aster-ml/aster/backend/cpu"
//	    "github.com/aster-ml/aster/tensor"
//	)
//
//	func main() {
//	    // Wrap CPU backend with autodiff
//	    engine := autodiff.New(cpu.New())
//
//	    // Use for training
//	    x := tensor.Randn[float32](tensor.Shape{2, 3}, engine)
//	    x.RequireGrad()
//	    y := x.Mul(x)  // Operations recorded in the graph
//
//	    // Compute gradients
//	    grads := engine.Backward(y.Raw())
//	}
//
// Inference code uses a non-recording view of the same engine:
//
//	eval := engine.NoGrad()
//	logits := model.Forward(input)  // built on eval, nothing recorded
package autodiff

import (
	"github.com/aster-ml/aster/internal/autodiff"
	"github.com/aster-ml/aster/internal/tensor"
)

// Engine is the autodiff-enabled backend. It implements tensor.Backend
// by delegating to the wrapped backend and recording every operation on
// tracked tensors.
type Engine[B tensor.Backend] = autodiff.Engine[B]

// New creates a recording engine wrapping the given backend.
//
// Example:
//
//	engine := autodiff.New(cpu.New())
func New[B tensor.Backend](backend B) *Engine[B] {
	return autodiff.New(backend)
}

// BackwardRequest configures a single backward pass. The zero value
// seeds the output gradient with ones and frees the graph afterwards.
type BackwardRequest = autodiff.BackwardRequest

// Graph holds the recorded operations of an engine between backward
// passes. Exposed for inspection; most users never touch it.
type Graph = autodiff.Graph

// NodeID identifies a recorded tensor within a Graph.
type NodeID = autodiff.NodeID
