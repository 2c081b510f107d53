package nn

import "github.com/aster-ml/aster/internal/tensor"

// MSELoss computes mean squared error: mean((predictions - targets)^2).
//
// The loss is built from recorded tensor operations, so gradients flow
// back through predictions during backward.
type MSELoss[B tensor.Backend] struct{}

// NewMSELoss creates an MSE loss function.
func NewMSELoss[B tensor.Backend]() *MSELoss[B] { return &MSELoss[B]{} }

// Forward computes the scalar loss. Predictions and targets must share a
// shape.
func (m *MSELoss[B]) Forward(predictions, targets *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	if !predictions.Shape().Equal(targets.Shape()) {
		panic("MSELoss: predictions and targets must have the same shape")
	}

	diff := predictions.Sub(targets)
	return diff.Mul(diff).Mean()
}

// Parameters returns nil; loss functions have no trainable parameters.
func (m *MSELoss[B]) Parameters() []*Parameter[B] { return nil }

// crossEntropyBackend is satisfied by the autodiff engine, which provides
// the fused softmax cross-entropy with its stable backward pass.
type crossEntropyBackend interface {
	CrossEntropy(logits, targets *tensor.RawTensor) *tensor.RawTensor
}

// CrossEntropyLoss computes mean(-log_softmax(logits)[target]) for
// classification. Targets are int32 class indices.
type CrossEntropyLoss[B tensor.Backend] struct{}

// NewCrossEntropyLoss creates a cross-entropy loss function.
func NewCrossEntropyLoss[B tensor.Backend]() *CrossEntropyLoss[B] { return &CrossEntropyLoss[B]{} }

// Forward computes the scalar loss from logits [batch, classes] and
// targets [batch].
func (c *CrossEntropyLoss[B]) Forward(logits *tensor.Tensor[float32, B], targets *tensor.Tensor[int32, B]) *tensor.Tensor[float32, B] {
	backend := logits.Backend()

	ce, ok := any(backend).(crossEntropyBackend)
	if !ok {
		panic("CrossEntropyLoss: backend does not provide CrossEntropy (wrap it with autodiff.New)")
	}

	return tensor.New[float32, B](ce.CrossEntropy(logits.Raw(), targets.Raw()), backend)
}

// Parameters returns nil; loss functions have no trainable parameters.
func (c *CrossEntropyLoss[B]) Parameters() []*Parameter[B] { return nil }
