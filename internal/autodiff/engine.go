// Package autodiff implements reverse-mode automatic differentiation using
// the decorator pattern.
//
// Engine wraps any Backend implementation and records every differentiable
// operation into an arena-based computation Graph during the forward pass.
// A backward pass walks the arena in reverse and accumulates gradients
// into the watched leaf tensors.
//
// Architecture:
//   - Decorator pattern: Engine[B] wraps any Backend implementation
//   - Graph: flat arena of nodes addressed by NodeID, shared by all views
//   - Operation interface: each op implements its own backward pass
//   - NoGrad views: non-recording engines derived from the same graph
//
// Usage:
//
//	engine := autodiff.New(cpu.New())
//	x, _ := tensor.FromSlice([]float32{2}, tensor.Shape{1}, engine)
//	x.RequireGrad()
//	y := x.Mul(x) // y = x^2
//	engine.Backward(y.Raw())
//	fmt.Println(engine.Grad(x.Raw()).AsFloat32()) // dy/dx = 2x = 4
package autodiff

import (
	"github.com/aster-ml/aster/internal/autodiff/ops"
	"github.com/aster-ml/aster/internal/tensor"
)

// Engine wraps a Backend and adds automatic differentiation. It implements
// tensor.Backend, so typed tensors use it like any other backend.
//
// Whether an engine records is fixed at construction: New returns a
// recording engine, NoGrad derives a non-recording view over the same
// graph. There is no global or mutable recording switch.
type Engine[B tensor.Backend] struct {
	inner  B
	graph  *Graph
	record bool
}

// New creates a recording Engine wrapping the given backend.
func New[B tensor.Backend](backend B) *Engine[B] {
	return &Engine[B]{
		inner:  backend,
		graph:  NewGraph(),
		record: true,
	}
}

// NoGrad returns a view of this engine that never records. Tensors remain
// interchangeable between the view and the parent since both share the
// same graph; only recording differs.
func (e *Engine[B]) NoGrad() *Engine[B] {
	if !e.record {
		return e
	}
	return &Engine[B]{inner: e.inner, graph: e.graph, record: false}
}

// Recording reports whether this engine view records operations.
func (e *Engine[B]) Recording() bool { return e.record }

// Inner returns the wrapped backend.
func (e *Engine[B]) Inner() B { return e.inner }

// Graph returns the shared computation graph.
func (e *Engine[B]) Graph() *Graph { return e.graph }

// Watch registers a leaf tensor for gradient tracking. Tensor.RequireGrad
// calls this through the tensor.GradientWatcher interface.
func (e *Engine[B]) Watch(t *tensor.RawTensor) {
	e.graph.watch(t)
}

// Grad returns the accumulated gradient of a watched leaf, or nil if no
// backward pass has produced one.
func (e *Engine[B]) Grad(t *tensor.RawTensor) *tensor.RawTensor {
	return e.graph.leafGrads[t]
}

// ZeroGrad drops all accumulated leaf gradients.
func (e *Engine[B]) ZeroGrad() {
	clear(e.graph.leafGrads)
}

// Name returns the backend name.
func (e *Engine[B]) Name() string {
	return "Autodiff(" + e.inner.Name() + ")"
}

// Device returns the compute device.
func (e *Engine[B]) Device() tensor.Device {
	return e.inner.Device()
}

// shouldRecord reports whether an operation over the given inputs belongs
// in the graph. Operations on untracked tensors are skipped entirely.
func (e *Engine[B]) shouldRecord(inputs ...*tensor.RawTensor) bool {
	return e.record && e.graph.anyTracked(inputs...)
}

// Add performs element-wise addition and records the operation.
func (e *Engine[B]) Add(a, b *tensor.RawTensor) *tensor.RawTensor {
	// Recorded inputs must survive the forward pass unchanged, so block
	// the inner backend's in-place reuse while the op runs.
	defer a.Retain()()
	defer b.Retain()()

	result := e.inner.Add(a, b)
	if e.shouldRecord(a, b) {
		e.graph.record(ops.NewAddOp(a, b, result))
	}
	return result
}

// Sub performs element-wise subtraction and records the operation.
func (e *Engine[B]) Sub(a, b *tensor.RawTensor) *tensor.RawTensor {
	defer a.Retain()()
	defer b.Retain()()

	result := e.inner.Sub(a, b)
	if e.shouldRecord(a, b) {
		e.graph.record(ops.NewSubOp(a, b, result))
	}
	return result
}

// Mul performs element-wise multiplication and records the operation.
func (e *Engine[B]) Mul(a, b *tensor.RawTensor) *tensor.RawTensor {
	defer a.Retain()()
	defer b.Retain()()

	result := e.inner.Mul(a, b)
	if e.shouldRecord(a, b) {
		e.graph.record(ops.NewMulOp(a, b, result))
	}
	return result
}

// Div performs element-wise division and records the operation.
func (e *Engine[B]) Div(a, b *tensor.RawTensor) *tensor.RawTensor {
	defer a.Retain()()
	defer b.Retain()()

	result := e.inner.Div(a, b)
	if e.shouldRecord(a, b) {
		e.graph.record(ops.NewDivOp(a, b, result))
	}
	return result
}

// MatMul performs matrix multiplication and records the operation.
func (e *Engine[B]) MatMul(a, b *tensor.RawTensor) *tensor.RawTensor {
	defer a.Retain()()
	defer b.Retain()()

	result := e.inner.MatMul(a, b)
	if e.shouldRecord(a, b) {
		e.graph.record(ops.NewMatMulOp(a, b, result))
	}
	return result
}

// Reshape changes the tensor shape and records the operation.
func (e *Engine[B]) Reshape(t *tensor.RawTensor, newShape tensor.Shape) *tensor.RawTensor {
	defer t.Retain()()

	result := e.inner.Reshape(t, newShape)
	if e.shouldRecord(t) {
		e.graph.record(ops.NewReshapeOp(t, result))
	}
	return result
}

// Transpose permutes dimensions and records the operation.
func (e *Engine[B]) Transpose(t *tensor.RawTensor, axes ...int) *tensor.RawTensor {
	defer t.Retain()()

	if len(axes) == 0 {
		ndim := len(t.Shape())
		axes = make([]int, ndim)
		for i := range axes {
			axes[i] = ndim - 1 - i
		}
	}

	result := e.inner.Transpose(t, axes...)
	if e.shouldRecord(t) {
		e.graph.record(ops.NewTransposeOp(t, axes, result))
	}
	return result
}

// AddScalar adds a scalar and records the operation.
func (e *Engine[B]) AddScalar(t *tensor.RawTensor, scalar any) *tensor.RawTensor {
	return e.scalarOp(ops.ScalarAdd, t, scalar, e.inner.AddScalar)
}

// SubScalar subtracts a scalar and records the operation.
func (e *Engine[B]) SubScalar(t *tensor.RawTensor, scalar any) *tensor.RawTensor {
	return e.scalarOp(ops.ScalarSub, t, scalar, e.inner.SubScalar)
}

// MulScalar multiplies by a scalar and records the operation.
func (e *Engine[B]) MulScalar(t *tensor.RawTensor, scalar any) *tensor.RawTensor {
	return e.scalarOp(ops.ScalarMul, t, scalar, e.inner.MulScalar)
}

// DivScalar divides by a scalar and records the operation.
func (e *Engine[B]) DivScalar(t *tensor.RawTensor, scalar any) *tensor.RawTensor {
	return e.scalarOp(ops.ScalarDiv, t, scalar, e.inner.DivScalar)
}

func (e *Engine[B]) scalarOp(
	kind ops.ScalarOpKind,
	t *tensor.RawTensor,
	scalar any,
	forward func(*tensor.RawTensor, any) *tensor.RawTensor,
) *tensor.RawTensor {
	defer t.Retain()()

	result := forward(t, scalar)
	if e.shouldRecord(t) {
		e.graph.record(ops.NewScalarOp(kind, t, scalarToFloat64(scalar), result))
	}
	return result
}

// Exp computes e^x and records the operation.
func (e *Engine[B]) Exp(t *tensor.RawTensor) *tensor.RawTensor {
	defer t.Retain()()

	result := e.inner.Exp(t)
	if e.shouldRecord(t) {
		e.graph.record(ops.NewExpOp(t, result))
	}
	return result
}

// Log computes ln(x) and records the operation.
func (e *Engine[B]) Log(t *tensor.RawTensor) *tensor.RawTensor {
	defer t.Retain()()

	result := e.inner.Log(t)
	if e.shouldRecord(t) {
		e.graph.record(ops.NewLogOp(t, result))
	}
	return result
}

// Sqrt computes the square root and records the operation.
func (e *Engine[B]) Sqrt(t *tensor.RawTensor) *tensor.RawTensor {
	defer t.Retain()()

	result := e.inner.Sqrt(t)
	if e.shouldRecord(t) {
		e.graph.record(ops.NewSqrtOp(t, result))
	}
	return result
}

// ReLU computes max(x, 0) and records the operation.
func (e *Engine[B]) ReLU(t *tensor.RawTensor) *tensor.RawTensor {
	defer t.Retain()()

	result := e.inner.ReLU(t)
	if e.shouldRecord(t) {
		e.graph.record(ops.NewReLUOp(t, result))
	}
	return result
}

// Sigmoid computes the logistic function and records the operation.
func (e *Engine[B]) Sigmoid(t *tensor.RawTensor) *tensor.RawTensor {
	defer t.Retain()()

	result := e.inner.Sigmoid(t)
	if e.shouldRecord(t) {
		e.graph.record(ops.NewSigmoidOp(t, result))
	}
	return result
}

// Tanh computes the hyperbolic tangent and records the operation.
func (e *Engine[B]) Tanh(t *tensor.RawTensor) *tensor.RawTensor {
	defer t.Retain()()

	result := e.inner.Tanh(t)
	if e.shouldRecord(t) {
		e.graph.record(ops.NewTanhOp(t, result))
	}
	return result
}

// Softmax computes softmax along dim and records the operation.
func (e *Engine[B]) Softmax(t *tensor.RawTensor, dim int) *tensor.RawTensor {
	defer t.Retain()()

	dim = t.Shape().Normalize(dim)
	result := e.inner.Softmax(t, dim)
	if e.shouldRecord(t) {
		e.graph.record(ops.NewSoftmaxOp(t, dim, result))
	}
	return result
}

// Sum reduces to a scalar and records the operation.
func (e *Engine[B]) Sum(t *tensor.RawTensor) *tensor.RawTensor {
	defer t.Retain()()

	result := e.inner.Sum(t)
	if e.shouldRecord(t) {
		e.graph.record(ops.NewSumOp(t, result))
	}
	return result
}

// SumDim sums along a dimension and records the operation.
func (e *Engine[B]) SumDim(t *tensor.RawTensor, dim int, keepDim bool) *tensor.RawTensor {
	defer t.Retain()()

	dim = t.Shape().Normalize(dim)
	result := e.inner.SumDim(t, dim, keepDim)
	if e.shouldRecord(t) {
		e.graph.record(ops.NewSumDimOp(t, dim, keepDim, result))
	}
	return result
}

// Mean reduces to the scalar average and records the operation.
func (e *Engine[B]) Mean(t *tensor.RawTensor) *tensor.RawTensor {
	defer t.Retain()()

	result := e.inner.Mean(t)
	if e.shouldRecord(t) {
		e.graph.record(ops.NewMeanOp(t, result))
	}
	return result
}

// MeanDim averages along a dimension and records the operation.
func (e *Engine[B]) MeanDim(t *tensor.RawTensor, dim int, keepDim bool) *tensor.RawTensor {
	defer t.Retain()()

	dim = t.Shape().Normalize(dim)
	result := e.inner.MeanDim(t, dim, keepDim)
	if e.shouldRecord(t) {
		e.graph.record(ops.NewMeanDimOp(t, dim, keepDim, result))
	}
	return result
}

// Argmax returns indices of the maximum along dim. Not differentiable,
// never recorded.
func (e *Engine[B]) Argmax(t *tensor.RawTensor, dim int) *tensor.RawTensor {
	defer t.Retain()()
	return e.inner.Argmax(t, dim)
}

// Embedding looks up rows of weight by index and records the operation.
func (e *Engine[B]) Embedding(weight, indices *tensor.RawTensor) *tensor.RawTensor {
	defer weight.Retain()()
	defer indices.Retain()()

	result := e.inner.Embedding(weight, indices)
	if e.shouldRecord(weight) {
		e.graph.record(ops.NewEmbeddingOp(weight, indices, result))
	}
	return result
}

// CrossEntropy computes the fused softmax cross-entropy loss between
// logits [batch, classes] and int32 class targets [batch], returning a
// scalar tensor. The fused form keeps the backward pass numerically
// stable and cheap.
func (e *Engine[B]) CrossEntropy(logits, targets *tensor.RawTensor) *tensor.RawTensor {
	defer logits.Retain()()
	defer targets.Retain()()

	result := ops.CrossEntropyForward(logits, targets, e.Device())
	if e.shouldRecord(logits) {
		e.graph.record(ops.NewCrossEntropyOp(logits, targets, result))
	}
	return result
}

func scalarToFloat64(scalar any) float64 {
	switch v := scalar.(type) {
	case float32:
		return float64(v)
	case float64:
		return v
	case int:
		return float64(v)
	case int32:
		return float64(v)
	case int64:
		return float64(v)
	case uint8:
		return float64(v)
	default:
		return 0
	}
}
