package autodiff_test

import (
	"math"
	"testing"

	"github.com/aster-ml/aster/internal/autodiff"
	"github.com/aster-ml/aster/internal/backend/cpu"
	"github.com/aster-ml/aster/internal/tensor"
)

type testEngine = autodiff.Engine[*cpu.CPUBackend]

func newEngine() *testEngine {
	return autodiff.New(cpu.New())
}

func leaf(t *testing.T, e *testEngine, shape tensor.Shape, data []float32) *tensor.Tensor[float32, *testEngine] {
	t.Helper()
	x, err := tensor.FromSlice(data, shape, e)
	if err != nil {
		t.Fatalf("FromSlice: %v", err)
	}
	return x.RequireGrad()
}

func approxEqual(a, b []float32, tol float64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if math.Abs(float64(a[i]-b[i])) > tol {
			return false
		}
	}
	return true
}

func TestBackward_Square(t *testing.T) {
	e := newEngine()
	x := leaf(t, e, tensor.Shape{3}, []float32{1, 2, 3})

	y := x.Mul(x)
	e.Backward(y.Raw())

	// dy/dx = 2x
	grad := e.Grad(x.Raw())
	if grad == nil {
		t.Fatal("no gradient for x")
	}
	if !approxEqual(grad.AsFloat32(), []float32{2, 4, 6}, 1e-5) {
		t.Errorf("grad = %v, want [2 4 6]", grad.AsFloat32())
	}
}

func TestBackward_Chain(t *testing.T) {
	e := newEngine()
	x := leaf(t, e, tensor.Shape{2}, []float32{1, 2})

	// y = (x + 3) * x, dy/dx = 2x + 3
	y := x.AddScalar(3).Mul(x)
	e.Backward(y.Raw())

	grad := e.Grad(x.Raw())
	if !approxEqual(grad.AsFloat32(), []float32{5, 7}, 1e-5) {
		t.Errorf("grad = %v, want [5 7]", grad.AsFloat32())
	}
}

func TestBackward_DoubleUseSumsGradients(t *testing.T) {
	e := newEngine()
	x := leaf(t, e, tensor.Shape{2}, []float32{1, 2})

	// y = x + x, dy/dx = 2
	y := x.Add(x)
	e.Backward(y.Raw())

	grad := e.Grad(x.Raw())
	if !approxEqual(grad.AsFloat32(), []float32{2, 2}, 1e-5) {
		t.Errorf("grad = %v, want [2 2]", grad.AsFloat32())
	}
}

func TestBackward_MatMul(t *testing.T) {
	e := newEngine()
	a := leaf(t, e, tensor.Shape{2, 2}, []float32{1, 2, 3, 4})
	b := leaf(t, e, tensor.Shape{2, 2}, []float32{5, 6, 7, 8})

	y := a.MatMul(b)
	e.Backward(y.Raw())

	// With ones seed G: grad_a = G @ b^T, grad_b = a^T @ G.
	gradA := e.Grad(a.Raw())
	if !approxEqual(gradA.AsFloat32(), []float32{11, 15, 11, 15}, 1e-5) {
		t.Errorf("grad_a = %v, want [11 15 11 15]", gradA.AsFloat32())
	}
	gradB := e.Grad(b.Raw())
	if !approxEqual(gradB.AsFloat32(), []float32{4, 4, 6, 6}, 1e-5) {
		t.Errorf("grad_b = %v, want [4 4 6 6]", gradB.AsFloat32())
	}
}

func TestBackward_BroadcastReducesToInputShape(t *testing.T) {
	e := newEngine()
	x := leaf(t, e, tensor.Shape{2, 3}, []float32{1, 2, 3, 4, 5, 6})
	bias := leaf(t, e, tensor.Shape{3}, []float32{10, 20, 30})

	y := x.Add(bias)
	e.Backward(y.Raw())

	grad := e.Grad(bias.Raw())
	if !grad.Shape().Equal(tensor.Shape{3}) {
		t.Fatalf("bias grad shape = %v, want [3]", grad.Shape())
	}
	// Each bias element fed 2 output elements.
	if !approxEqual(grad.AsFloat32(), []float32{2, 2, 2}, 1e-5) {
		t.Errorf("bias grad = %v, want [2 2 2]", grad.AsFloat32())
	}
}

func TestBackward_UntrackedOperationsAreNotRecorded(t *testing.T) {
	e := newEngine()

	a, _ := tensor.FromSlice([]float32{1, 2}, tensor.Shape{2}, e)
	b, _ := tensor.FromSlice([]float32{3, 4}, tensor.Shape{2}, e)

	// Neither input requires grad, so nothing goes into the graph.
	a.Add(b).Mul(a)

	if got := e.Graph().NumOps(); got != 0 {
		t.Errorf("NumOps() = %d, want 0", got)
	}
}

func TestBackward_MixedTrackedUntracked(t *testing.T) {
	e := newEngine()
	x := leaf(t, e, tensor.Shape{2}, []float32{1, 2})
	c, _ := tensor.FromSlice([]float32{3, 4}, tensor.Shape{2}, e)

	// y = x * c, only x gets a gradient.
	y := x.Mul(c)
	grads := e.Backward(y.Raw())

	if grad := e.Grad(x.Raw()); !approxEqual(grad.AsFloat32(), []float32{3, 4}, 1e-5) {
		t.Errorf("grad_x = %v, want [3 4]", grad.AsFloat32())
	}
	if _, ok := grads[c.Raw()]; ok {
		t.Error("untracked constant must not receive a gradient")
	}
}

func TestNoGrad_ViewDoesNotRecord(t *testing.T) {
	e := newEngine()
	x := leaf(t, e, tensor.Shape{2}, []float32{1, 2})

	ng := e.NoGrad()
	if ng.Recording() {
		t.Fatal("NoGrad view must not record")
	}

	// Same raw tensors flow through the view without touching the graph.
	ng.Mul(x.Raw(), x.Raw())
	if got := e.Graph().NumOps(); got != 0 {
		t.Errorf("NumOps() after no-grad op = %d, want 0", got)
	}

	// The parent still records.
	y := x.Mul(x)
	if got := e.Graph().NumOps(); got != 1 {
		t.Errorf("NumOps() after recorded op = %d, want 1", got)
	}
	e.Backward(y.Raw())
}

func TestNoGrad_Nested(t *testing.T) {
	e := newEngine()

	ng := e.NoGrad()
	if ng == e {
		t.Fatal("NoGrad of a recording engine must be a distinct view")
	}
	if nested := ng.NoGrad(); nested != ng {
		t.Error("NoGrad of a non-recording view should return the view itself")
	}
	if ng.Graph() != e.Graph() {
		t.Error("views must share the graph")
	}
}

func TestBackward_SecondPassOnFreedGraphFails(t *testing.T) {
	e := newEngine()
	x := leaf(t, e, tensor.Shape{2}, []float32{1, 2})

	y := x.Mul(x)
	if _, err := e.BackwardWith(y.Raw(), autodiff.BackwardRequest{}); err != nil {
		t.Fatalf("first backward: %v", err)
	}

	if _, err := e.BackwardWith(y.Raw(), autodiff.BackwardRequest{}); err == nil {
		t.Fatal("second backward over a freed graph must fail")
	}
}

func TestBackward_RetainGraphAllowsSecondPass(t *testing.T) {
	e := newEngine()
	x := leaf(t, e, tensor.Shape{2}, []float32{1, 2})

	y := x.Mul(x)
	req := autodiff.BackwardRequest{RetainGraph: true}

	if _, err := e.BackwardWith(y.Raw(), req); err != nil {
		t.Fatalf("first backward: %v", err)
	}
	if _, err := e.BackwardWith(y.Raw(), req); err != nil {
		t.Fatalf("second backward with retained graph: %v", err)
	}

	// Two passes accumulate: 2 * (2x).
	grad := e.Grad(x.Raw())
	if !approxEqual(grad.AsFloat32(), []float32{4, 8}, 1e-5) {
		t.Errorf("grad = %v, want [4 8]", grad.AsFloat32())
	}
}

func TestBackward_AccumulatesAcrossFreshGraphs(t *testing.T) {
	e := newEngine()
	x := leaf(t, e, tensor.Shape{1}, []float32{3})

	// Two separate forward/backward rounds against the same leaf.
	e.Backward(x.Mul(x).Raw())
	e.Backward(x.Mul(x).Raw())

	// Each round contributes 2x = 6.
	grad := e.Grad(x.Raw())
	if !approxEqual(grad.AsFloat32(), []float32{12}, 1e-5) {
		t.Errorf("grad = %v, want [12]", grad.AsFloat32())
	}
}

func TestZeroGrad(t *testing.T) {
	e := newEngine()
	x := leaf(t, e, tensor.Shape{1}, []float32{3})

	e.Backward(x.Mul(x).Raw())
	if e.Grad(x.Raw()) == nil {
		t.Fatal("expected gradient before ZeroGrad")
	}

	e.ZeroGrad()
	if e.Grad(x.Raw()) != nil {
		t.Error("expected nil gradient after ZeroGrad")
	}

	// The leaf is still watched after zeroing.
	e.Backward(x.Mul(x).Raw())
	grad := e.Grad(x.Raw())
	if !approxEqual(grad.AsFloat32(), []float32{6}, 1e-5) {
		t.Errorf("grad = %v, want [6]", grad.AsFloat32())
	}
}

func TestBackwardWith_CustomSeed(t *testing.T) {
	e := newEngine()
	x := leaf(t, e, tensor.Shape{2}, []float32{1, 2})

	y := x.Mul(x)

	seed, err := tensor.NewRaw(tensor.Shape{2}, tensor.Float32, tensor.CPU)
	if err != nil {
		t.Fatal(err)
	}
	copy(seed.AsFloat32(), []float32{10, 100})

	if _, err := e.BackwardWith(y.Raw(), autodiff.BackwardRequest{Grad: seed}); err != nil {
		t.Fatalf("backward: %v", err)
	}

	// grad = seed * 2x
	grad := e.Grad(x.Raw())
	if !approxEqual(grad.AsFloat32(), []float32{20, 400}, 1e-4) {
		t.Errorf("grad = %v, want [20 400]", grad.AsFloat32())
	}
}

func TestBackwardWith_SeedShapeMismatch(t *testing.T) {
	e := newEngine()
	x := leaf(t, e, tensor.Shape{2}, []float32{1, 2})

	y := x.Mul(x)

	seed, _ := tensor.NewRaw(tensor.Shape{3}, tensor.Float32, tensor.CPU)
	if _, err := e.BackwardWith(y.Raw(), autodiff.BackwardRequest{Grad: seed}); err == nil {
		t.Fatal("expected error for mismatched seed shape")
	}
}

func TestBackward_UnrecordedOutputPanics(t *testing.T) {
	e := newEngine()
	x, _ := tensor.FromSlice([]float32{1}, tensor.Shape{1}, e)

	defer func() {
		if recover() == nil {
			t.Error("expected panic for output outside the graph")
		}
	}()
	e.Backward(x.Mul(x).Raw())
}

func TestBackward_CrossEntropy(t *testing.T) {
	e := newEngine()
	logits := leaf(t, e, tensor.Shape{2, 3}, []float32{2, 1, 0, 0, 1, 2})

	targets, err := tensor.NewRaw(tensor.Shape{2}, tensor.Int32, tensor.CPU)
	if err != nil {
		t.Fatal(err)
	}
	copy(targets.AsInt32(), []int32{0, 2})

	loss := e.CrossEntropy(logits.Raw(), targets)
	if !loss.Shape().Equal(tensor.Shape{1}) {
		t.Fatalf("loss shape = %v, want [1]", loss.Shape())
	}

	e.Backward(loss)

	grad := e.Grad(logits.Raw())
	if grad == nil {
		t.Fatal("no gradient for logits")
	}

	// Rows of (softmax - onehot)/batch sum to zero.
	g := grad.AsFloat32()
	for r := 0; r < 2; r++ {
		sum := g[r*3] + g[r*3+1] + g[r*3+2]
		if math.Abs(float64(sum)) > 1e-5 {
			t.Errorf("row %d gradient sums to %v, want 0", r, sum)
		}
	}
	// The target logit's gradient is negative, pushing its probability up.
	if g[0] >= 0 || g[5] >= 0 {
		t.Errorf("target gradients must be negative: %v", g)
	}
}

func TestBackward_Embedding(t *testing.T) {
	e := newEngine()
	weight := leaf(t, e, tensor.Shape{3, 2}, []float32{1, 2, 3, 4, 5, 6})

	indices, err := tensor.NewRaw(tensor.Shape{3}, tensor.Int32, tensor.CPU)
	if err != nil {
		t.Fatal(err)
	}
	copy(indices.AsInt32(), []int32{1, 1, 0})

	out := e.Embedding(weight.Raw(), indices)
	loss := e.Sum(out)
	e.Backward(loss)

	// Row 1 was looked up twice, row 0 once, row 2 never.
	grad := e.Grad(weight.Raw())
	if !approxEqual(grad.AsFloat32(), []float32{1, 1, 2, 2, 0, 0}, 1e-5) {
		t.Errorf("weight grad = %v, want [1 1 2 2 0 0]", grad.AsFloat32())
	}
}

func TestEngine_Name(t *testing.T) {
	e := newEngine()
	if got := e.Name(); got != "Autodiff(CPU)" {
		t.Errorf("Name() = %q, want \"Autodiff(CPU)\"", got)
	}
}
