package cpu

import (
	"math"
	"testing"

	"github.com/aster-ml/aster/internal/tensor"
)

func newTestBackend() *CPUBackend {
	return New()
}

func newFloat32(t *testing.T, shape tensor.Shape, data []float32) *tensor.RawTensor {
	t.Helper()
	raw, err := tensor.NewRaw(shape, tensor.Float32, tensor.CPU)
	if err != nil {
		t.Fatalf("NewRaw(%v): %v", shape, err)
	}
	copy(raw.AsFloat32(), data)
	return raw
}

func float32SliceEqual(a, b []float32) bool {
	const epsilon = 1e-5
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if math.Abs(float64(a[i]-b[i])) > epsilon {
			return false
		}
	}
	return true
}

func TestCPUBackend_New(t *testing.T) {
	backend := New()
	if backend.Name() != "CPU" {
		t.Errorf("Name() = %q, want \"CPU\"", backend.Name())
	}
	if backend.Device() != tensor.CPU {
		t.Errorf("Device() = %v, want CPU", backend.Device())
	}
}

func TestCPUBackend_Add(t *testing.T) {
	backend := newTestBackend()

	t.Run("SameShape", func(t *testing.T) {
		a := newFloat32(t, tensor.Shape{2, 3}, []float32{1, 2, 3, 4, 5, 6})
		b := newFloat32(t, tensor.Shape{2, 3}, []float32{10, 11, 12, 13, 14, 15})

		result := backend.Add(a, b)

		expected := []float32{11, 13, 15, 17, 19, 21}
		if !float32SliceEqual(result.AsFloat32(), expected) {
			t.Errorf("Add = %v, want %v", result.AsFloat32(), expected)
		}
	})

	t.Run("BroadcastRow", func(t *testing.T) {
		a := newFloat32(t, tensor.Shape{2, 3}, []float32{1, 2, 3, 4, 5, 6})
		b := newFloat32(t, tensor.Shape{3}, []float32{10, 20, 30})

		result := backend.Add(a, b)

		if !result.Shape().Equal(tensor.Shape{2, 3}) {
			t.Fatalf("shape = %v, want [2 3]", result.Shape())
		}
		expected := []float32{11, 22, 33, 14, 25, 36}
		if !float32SliceEqual(result.AsFloat32(), expected) {
			t.Errorf("Add broadcast = %v, want %v", result.AsFloat32(), expected)
		}
	})

	t.Run("BroadcastColumn", func(t *testing.T) {
		a := newFloat32(t, tensor.Shape{2, 1}, []float32{1, 2})
		b := newFloat32(t, tensor.Shape{1, 3}, []float32{10, 20, 30})

		result := backend.Add(a, b)

		if !result.Shape().Equal(tensor.Shape{2, 3}) {
			t.Fatalf("shape = %v, want [2 3]", result.Shape())
		}
		expected := []float32{11, 21, 31, 12, 22, 32}
		if !float32SliceEqual(result.AsFloat32(), expected) {
			t.Errorf("Add broadcast = %v, want %v", result.AsFloat32(), expected)
		}
	})

	t.Run("InplaceWhenUnique", func(t *testing.T) {
		a := newFloat32(t, tensor.Shape{3}, []float32{1, 2, 3})
		b := newFloat32(t, tensor.Shape{3}, []float32{10, 20, 30})

		result := backend.Add(a, b)

		if result != a {
			t.Error("expected inplace result when a uniquely owns its buffer")
		}
	})

	t.Run("NoInplaceWhenShared", func(t *testing.T) {
		a := newFloat32(t, tensor.Shape{3}, []float32{1, 2, 3})
		b := newFloat32(t, tensor.Shape{3}, []float32{10, 20, 30})

		release := a.Retain()
		defer release()

		result := backend.Add(a, b)

		if result == a {
			t.Error("expected fresh result when a's buffer is shared")
		}
		if !float32SliceEqual(a.AsFloat32(), []float32{1, 2, 3}) {
			t.Errorf("input mutated: %v", a.AsFloat32())
		}
	})

	t.Run("IncompatibleShapesPanics", func(t *testing.T) {
		defer func() {
			if recover() == nil {
				t.Error("expected panic for incompatible shapes")
			}
		}()
		a := newFloat32(t, tensor.Shape{2, 3}, make([]float32, 6))
		b := newFloat32(t, tensor.Shape{4}, make([]float32, 4))
		backend.Add(a, b)
	})
}

func TestCPUBackend_SubMulDiv(t *testing.T) {
	backend := newTestBackend()
	a := newFloat32(t, tensor.Shape{4}, []float32{10, 20, 30, 40})
	b := newFloat32(t, tensor.Shape{4}, []float32{2, 4, 5, 8})
	release := a.Retain()
	defer release()

	if got := backend.Sub(a, b).AsFloat32(); !float32SliceEqual(got, []float32{8, 16, 25, 32}) {
		t.Errorf("Sub = %v", got)
	}
	if got := backend.Mul(a, b).AsFloat32(); !float32SliceEqual(got, []float32{20, 80, 150, 320}) {
		t.Errorf("Mul = %v", got)
	}
	if got := backend.Div(a, b).AsFloat32(); !float32SliceEqual(got, []float32{5, 5, 6, 5}) {
		t.Errorf("Div = %v", got)
	}
}

func TestCPUBackend_MatMul(t *testing.T) {
	backend := newTestBackend()

	// [2, 3] @ [3, 2] -> [2, 2]
	a := newFloat32(t, tensor.Shape{2, 3}, []float32{1, 2, 3, 4, 5, 6})
	b := newFloat32(t, tensor.Shape{3, 2}, []float32{7, 8, 9, 10, 11, 12})

	result := backend.MatMul(a, b)

	if !result.Shape().Equal(tensor.Shape{2, 2}) {
		t.Fatalf("shape = %v, want [2 2]", result.Shape())
	}
	expected := []float32{58, 64, 139, 154}
	if !float32SliceEqual(result.AsFloat32(), expected) {
		t.Errorf("MatMul = %v, want %v", result.AsFloat32(), expected)
	}
}

func TestCPUBackend_MatMul_ShapeMismatchPanics(t *testing.T) {
	backend := newTestBackend()
	defer func() {
		if recover() == nil {
			t.Error("expected panic for mismatched inner dimensions")
		}
	}()
	a := newFloat32(t, tensor.Shape{2, 3}, make([]float32, 6))
	b := newFloat32(t, tensor.Shape{2, 2}, make([]float32, 4))
	backend.MatMul(a, b)
}

func TestCPUBackend_Scalar(t *testing.T) {
	backend := newTestBackend()

	fresh := func() *tensor.RawTensor {
		return newFloat32(t, tensor.Shape{3}, []float32{2, 4, 8})
	}

	if got := backend.AddScalar(fresh(), float32(1)).AsFloat32(); !float32SliceEqual(got, []float32{3, 5, 9}) {
		t.Errorf("AddScalar = %v", got)
	}
	if got := backend.SubScalar(fresh(), 1).AsFloat32(); !float32SliceEqual(got, []float32{1, 3, 7}) {
		t.Errorf("SubScalar = %v", got)
	}
	if got := backend.MulScalar(fresh(), 2.0).AsFloat32(); !float32SliceEqual(got, []float32{4, 8, 16}) {
		t.Errorf("MulScalar = %v", got)
	}
	if got := backend.DivScalar(fresh(), 2).AsFloat32(); !float32SliceEqual(got, []float32{1, 2, 4}) {
		t.Errorf("DivScalar = %v", got)
	}
}

func TestCPUBackend_Math(t *testing.T) {
	backend := newTestBackend()

	x := newFloat32(t, tensor.Shape{3}, []float32{0, 1, 2})
	release := x.Retain()
	defer release()

	exp := backend.Exp(x).AsFloat32()
	expectedExp := []float32{1, float32(math.E), float32(math.Exp(2))}
	if !float32SliceEqual(exp, expectedExp) {
		t.Errorf("Exp = %v, want %v", exp, expectedExp)
	}

	y := newFloat32(t, tensor.Shape{3}, []float32{1, float32(math.E), 4})
	yRelease := y.Retain()
	defer yRelease()

	log := backend.Log(y).AsFloat32()
	expectedLog := []float32{0, 1, float32(math.Log(4))}
	if !float32SliceEqual(log, expectedLog) {
		t.Errorf("Log = %v, want %v", log, expectedLog)
	}

	sqrt := backend.Sqrt(newFloat32(t, tensor.Shape{3}, []float32{4, 9, 16})).AsFloat32()
	if !float32SliceEqual(sqrt, []float32{2, 3, 4}) {
		t.Errorf("Sqrt = %v", sqrt)
	}
}

func TestCPUBackend_Softmax(t *testing.T) {
	backend := newTestBackend()

	t.Run("LastDim", func(t *testing.T) {
		x := newFloat32(t, tensor.Shape{2, 3}, []float32{1, 2, 3, 1, 1, 1})
		result := backend.Softmax(x, -1)

		got := result.AsFloat32()
		// Each row sums to 1.
		for r := 0; r < 2; r++ {
			sum := got[r*3] + got[r*3+1] + got[r*3+2]
			if math.Abs(float64(sum)-1) > 1e-5 {
				t.Errorf("row %d sums to %v, want 1", r, sum)
			}
		}
		// Uniform row gives uniform probabilities.
		third := float32(1.0 / 3.0)
		if !float32SliceEqual(got[3:], []float32{third, third, third}) {
			t.Errorf("uniform row = %v", got[3:])
		}
		// Monotone row preserves order.
		if !(got[0] < got[1] && got[1] < got[2]) {
			t.Errorf("expected increasing probabilities, got %v", got[:3])
		}
	})

	t.Run("NumericalStability", func(t *testing.T) {
		x := newFloat32(t, tensor.Shape{2}, []float32{1000, 1001})
		result := backend.Softmax(x, 0)

		got := result.AsFloat32()
		for i, v := range got {
			if math.IsNaN(float64(v)) || math.IsInf(float64(v), 0) {
				t.Fatalf("element %d = %v", i, v)
			}
		}
		if math.Abs(float64(got[0]+got[1])-1) > 1e-5 {
			t.Errorf("probabilities sum to %v", got[0]+got[1])
		}
	})

	t.Run("InnerDim", func(t *testing.T) {
		x := newFloat32(t, tensor.Shape{2, 2}, []float32{1, 5, 3, 5})
		result := backend.Softmax(x, 0)

		got := result.AsFloat32()
		// Columns sum to 1.
		for c := 0; c < 2; c++ {
			sum := got[c] + got[2+c]
			if math.Abs(float64(sum)-1) > 1e-5 {
				t.Errorf("column %d sums to %v, want 1", c, sum)
			}
		}
	})
}

func TestCPUBackend_Reductions(t *testing.T) {
	backend := newTestBackend()

	x := newFloat32(t, tensor.Shape{2, 3}, []float32{1, 2, 3, 4, 5, 6})
	release := x.Retain()
	defer release()

	t.Run("Sum", func(t *testing.T) {
		result := backend.Sum(x)
		if !result.Shape().Equal(tensor.Shape{1}) {
			t.Fatalf("shape = %v, want [1]", result.Shape())
		}
		if got := result.AsFloat32()[0]; got != 21 {
			t.Errorf("Sum = %v, want 21", got)
		}
	})

	t.Run("Mean", func(t *testing.T) {
		if got := backend.Mean(x).AsFloat32()[0]; got != 3.5 {
			t.Errorf("Mean = %v, want 3.5", got)
		}
	})

	t.Run("SumDim0", func(t *testing.T) {
		result := backend.SumDim(x, 0, false)
		if !result.Shape().Equal(tensor.Shape{3}) {
			t.Fatalf("shape = %v, want [3]", result.Shape())
		}
		if !float32SliceEqual(result.AsFloat32(), []float32{5, 7, 9}) {
			t.Errorf("SumDim(0) = %v", result.AsFloat32())
		}
	})

	t.Run("SumDim1KeepDim", func(t *testing.T) {
		result := backend.SumDim(x, 1, true)
		if !result.Shape().Equal(tensor.Shape{2, 1}) {
			t.Fatalf("shape = %v, want [2 1]", result.Shape())
		}
		if !float32SliceEqual(result.AsFloat32(), []float32{6, 15}) {
			t.Errorf("SumDim(1, keep) = %v", result.AsFloat32())
		}
	})

	t.Run("MeanDimNegative", func(t *testing.T) {
		result := backend.MeanDim(x, -1, false)
		if !float32SliceEqual(result.AsFloat32(), []float32{2, 5}) {
			t.Errorf("MeanDim(-1) = %v", result.AsFloat32())
		}
	})

	t.Run("Argmax", func(t *testing.T) {
		y := newFloat32(t, tensor.Shape{2, 3}, []float32{1, 9, 3, 7, 2, 7})
		result := backend.Argmax(y, 1)

		if result.DType() != tensor.Int32 {
			t.Fatalf("dtype = %s, want int32", result.DType())
		}
		if !result.Shape().Equal(tensor.Shape{2}) {
			t.Fatalf("shape = %v, want [2]", result.Shape())
		}
		got := result.AsInt32()
		// Ties resolve to the lowest index.
		if got[0] != 1 || got[1] != 0 {
			t.Errorf("Argmax = %v, want [1 0]", got)
		}
	})
}

func TestCPUBackend_Reshape(t *testing.T) {
	backend := newTestBackend()

	x := newFloat32(t, tensor.Shape{2, 3}, []float32{1, 2, 3, 4, 5, 6})
	result := backend.Reshape(x, tensor.Shape{3, 2})

	if !result.Shape().Equal(tensor.Shape{3, 2}) {
		t.Fatalf("shape = %v, want [3 2]", result.Shape())
	}
	if !float32SliceEqual(result.AsFloat32(), []float32{1, 2, 3, 4, 5, 6}) {
		t.Errorf("Reshape changed data: %v", result.AsFloat32())
	}

	defer func() {
		if recover() == nil {
			t.Error("expected panic for incompatible reshape")
		}
	}()
	backend.Reshape(x, tensor.Shape{4, 2})
}

func TestCPUBackend_Transpose(t *testing.T) {
	backend := newTestBackend()

	t.Run("2D", func(t *testing.T) {
		x := newFloat32(t, tensor.Shape{2, 3}, []float32{1, 2, 3, 4, 5, 6})
		result := backend.Transpose(x)

		if !result.Shape().Equal(tensor.Shape{3, 2}) {
			t.Fatalf("shape = %v, want [3 2]", result.Shape())
		}
		if !float32SliceEqual(result.AsFloat32(), []float32{1, 4, 2, 5, 3, 6}) {
			t.Errorf("Transpose = %v", result.AsFloat32())
		}
	})

	t.Run("ExplicitAxes", func(t *testing.T) {
		x := newFloat32(t, tensor.Shape{2, 3, 4}, arange(24))
		result := backend.Transpose(x, 1, 0, 2)

		if !result.Shape().Equal(tensor.Shape{3, 2, 4}) {
			t.Fatalf("shape = %v, want [3 2 4]", result.Shape())
		}
		// result[j][i][k] == x[i][j][k]
		got := result.AsFloat32()
		in := x.AsFloat32()
		for j := 0; j < 3; j++ {
			for i := 0; i < 2; i++ {
				for k := 0; k < 4; k++ {
					if got[j*8+i*4+k] != in[i*12+j*4+k] {
						t.Fatalf("mismatch at [%d %d %d]", j, i, k)
					}
				}
			}
		}
	})
}

func TestCPUBackend_Embedding(t *testing.T) {
	backend := newTestBackend()

	weight := newFloat32(t, tensor.Shape{4, 2}, []float32{
		0, 0,
		10, 11,
		20, 21,
		30, 31,
	})

	indices, err := tensor.NewRaw(tensor.Shape{3}, tensor.Int32, tensor.CPU)
	if err != nil {
		t.Fatal(err)
	}
	copy(indices.AsInt32(), []int32{2, 0, 3})

	result := backend.Embedding(weight, indices)

	if !result.Shape().Equal(tensor.Shape{3, 2}) {
		t.Fatalf("shape = %v, want [3 2]", result.Shape())
	}
	expected := []float32{20, 21, 0, 0, 30, 31}
	if !float32SliceEqual(result.AsFloat32(), expected) {
		t.Errorf("Embedding = %v, want %v", result.AsFloat32(), expected)
	}

	t.Run("OutOfRangePanics", func(t *testing.T) {
		defer func() {
			if recover() == nil {
				t.Error("expected panic for out-of-range index")
			}
		}()
		bad, _ := tensor.NewRaw(tensor.Shape{1}, tensor.Int32, tensor.CPU)
		bad.AsInt32()[0] = 4
		backend.Embedding(weight, bad)
	})
}

func arange(n int) []float32 {
	out := make([]float32, n)
	for i := range out {
		out[i] = float32(i)
	}
	return out
}
