package nn_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aster-ml/aster/internal/autodiff"
	"github.com/aster-ml/aster/internal/backend/cpu"
	"github.com/aster-ml/aster/internal/nn"
	"github.com/aster-ml/aster/internal/tensor"
)

type engine = autodiff.Engine[*cpu.CPUBackend]

func newEngine() *engine {
	return autodiff.New(cpu.New())
}

func TestLinear_ForwardShape(t *testing.T) {
	e := newEngine()
	layer := nn.NewLinear(4, 3, e)

	input := nn.Randn(tensor.Shape{2, 4}, e)
	output := layer.Forward(input)

	assert.True(t, output.Shape().Equal(tensor.Shape{2, 3}),
		"output shape = %v, want [2 3]", output.Shape())
	assert.Equal(t, 4, layer.InFeatures())
	assert.Equal(t, 3, layer.OutFeatures())
	assert.Len(t, layer.Parameters(), 2)
}

func TestLinear_KnownWeights(t *testing.T) {
	e := newEngine()
	layer := nn.NewLinear(2, 2, e)

	// W = [[1, 2], [3, 4]], b = [10, 20]
	copy(layer.Weight().Tensor().Data(), []float32{1, 2, 3, 4})
	copy(layer.Bias().Tensor().Data(), []float32{10, 20})

	input, err := tensor.FromSlice([]float32{1, 1}, tensor.Shape{1, 2}, e)
	require.NoError(t, err)

	output := layer.Forward(input)

	// y = x @ W^T + b = [3, 7] + [10, 20]
	assert.InDelta(t, 13, output.At(0, 0), 1e-5)
	assert.InDelta(t, 27, output.At(0, 1), 1e-5)
}

func TestLinear_WrongInputPanics(t *testing.T) {
	e := newEngine()
	layer := nn.NewLinear(4, 2, e)

	input := nn.Randn(tensor.Shape{2, 3}, e)
	assert.Panics(t, func() { layer.Forward(input) })
}

func TestLinear_GradientsReachParameters(t *testing.T) {
	e := newEngine()
	layer := nn.NewLinear(3, 2, e)

	input := nn.Randn(tensor.Shape{4, 3}, e)
	loss := layer.Forward(input).Sum()
	e.Backward(loss.Raw())

	for _, p := range layer.Parameters() {
		grad := e.Grad(p.Raw())
		require.NotNil(t, grad, "no gradient for %s", p.Name())
		assert.True(t, grad.Shape().Equal(p.Tensor().Shape()),
			"%s grad shape = %v, want %v", p.Name(), grad.Shape(), p.Tensor().Shape())
	}
}

func TestActivations(t *testing.T) {
	e := newEngine()

	input, err := tensor.FromSlice([]float32{-2, 0, 2}, tensor.Shape{3}, e)
	require.NoError(t, err)

	t.Run("ReLU", func(t *testing.T) {
		out := nn.NewReLU[*engine]().Forward(input)
		assert.Equal(t, []float32{0, 0, 2}, out.Data())
		assert.Nil(t, nn.NewReLU[*engine]().Parameters())
	})

	t.Run("Sigmoid", func(t *testing.T) {
		out := nn.NewSigmoid[*engine]().Forward(input)
		assert.InDelta(t, 0.1192, out.Data()[0], 1e-3)
		assert.InDelta(t, 0.5, out.Data()[1], 1e-5)
		assert.InDelta(t, 0.8808, out.Data()[2], 1e-3)
	})

	t.Run("Tanh", func(t *testing.T) {
		out := nn.NewTanh[*engine]().Forward(input)
		assert.InDelta(t, math.Tanh(-2), float64(out.Data()[0]), 1e-5)
		assert.InDelta(t, 0, out.Data()[1], 1e-6)
	})
}

func TestSequential(t *testing.T) {
	e := newEngine()

	model := nn.NewSequential[*engine](
		nn.NewLinear(3, 5, e),
		nn.NewReLU[*engine](),
		nn.NewLinear(5, 2, e),
	)

	input := nn.Randn(tensor.Shape{4, 3}, e)
	output := model.Forward(input)

	assert.True(t, output.Shape().Equal(tensor.Shape{4, 2}),
		"output shape = %v, want [4 2]", output.Shape())
	// Two Linear layers with weight and bias each.
	assert.Len(t, model.Parameters(), 4)
	assert.Len(t, model.Modules(), 3)
}

func TestMSELoss(t *testing.T) {
	e := newEngine()

	pred, err := tensor.FromSlice([]float32{1, 2, 3}, tensor.Shape{3}, e)
	require.NoError(t, err)
	pred.RequireGrad()

	target, err := tensor.FromSlice([]float32{2, 2, 5}, tensor.Shape{3}, e)
	require.NoError(t, err)

	loss := nn.NewMSELoss[*engine]().Forward(pred, target)

	// ((1)^2 + 0 + (2)^2) / 3
	assert.InDelta(t, 5.0/3.0, loss.Item(), 1e-5)

	// The loss is differentiable: d/dpred = 2(pred - target)/n.
	e.Backward(loss.Raw())
	grad := e.Grad(pred.Raw())
	require.NotNil(t, grad)
	want := []float32{-2.0 / 3.0, 0, -4.0 / 3.0}
	for i, w := range want {
		assert.InDelta(t, w, grad.AsFloat32()[i], 1e-5)
	}
}

func TestMSELoss_ShapeMismatchPanics(t *testing.T) {
	e := newEngine()
	a := nn.Zeros(tensor.Shape{2}, e)
	b := nn.Zeros(tensor.Shape{3}, e)
	assert.Panics(t, func() { nn.NewMSELoss[*engine]().Forward(a, b) })
}

func TestCrossEntropyLoss(t *testing.T) {
	e := newEngine()

	logits, err := tensor.FromSlice([]float32{10, 0, 0, 0, 10, 0}, tensor.Shape{2, 3}, e)
	require.NoError(t, err)
	logits.RequireGrad()

	targets, err := tensor.FromSlice([]int32{0, 1}, tensor.Shape{2}, e)
	require.NoError(t, err)

	loss := nn.NewCrossEntropyLoss[*engine]().Forward(logits, targets)

	// Confident, correct predictions give a loss near zero.
	assert.Less(t, float64(loss.Item()), 0.01)

	e.Backward(loss.Raw())
	assert.NotNil(t, e.Grad(logits.Raw()))
}

func TestEmbedding(t *testing.T) {
	e := newEngine()

	weight, err := tensor.FromSlice([]float32{
		1, 2,
		3, 4,
		5, 6,
	}, tensor.Shape{3, 2}, e)
	require.NoError(t, err)

	embed := nn.NewEmbeddingWithWeight(weight)
	assert.Equal(t, 3, embed.NumEmbed)
	assert.Equal(t, 2, embed.EmbedDim)

	indices, err := tensor.FromSlice([]int32{2, 0}, tensor.Shape{2}, e)
	require.NoError(t, err)

	out := embed.Forward(indices)
	assert.True(t, out.Shape().Equal(tensor.Shape{2, 2}))
	assert.Equal(t, []float32{5, 6, 1, 2}, out.Data())

	// Gradients scatter back into the table rows.
	e.Backward(out.Sum().Raw())
	grad := e.Grad(embed.Weight.Raw())
	require.NotNil(t, grad)
	assert.Equal(t, []float32{1, 1, 0, 0, 1, 1}, grad.AsFloat32())
}

func TestTrainingStepReducesLoss(t *testing.T) {
	e := newEngine()

	model := nn.NewLinear(1, 1, e)
	mse := nn.NewMSELoss[*engine]()

	x, err := tensor.FromSlice([]float32{1, 2, 3, 4}, tensor.Shape{4, 1}, e)
	require.NoError(t, err)
	// y = 2x
	y, err := tensor.FromSlice([]float32{2, 4, 6, 8}, tensor.Shape{4, 1}, e)
	require.NoError(t, err)

	const lr = 0.01
	var first, last float32
	for step := 0; step < 50; step++ {
		loss := mse.Forward(model.Forward(x), y)
		if step == 0 {
			first = loss.Item()
		}
		last = loss.Item()

		e.ZeroGrad()
		e.Backward(loss.Raw())

		for _, p := range model.Parameters() {
			grad := e.Grad(p.Raw())
			require.NotNil(t, grad)
			data := p.Tensor().Data()
			g := grad.AsFloat32()
			for i := range data {
				data[i] -= lr * g[i]
			}
		}
	}

	assert.Less(t, last, first, "loss did not decrease: first %v, last %v", first, last)
}
