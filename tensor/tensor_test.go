// Copyright 2025 Aster ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package tensor_test

import (
	"testing"

	"github.com/aster-ml/aster/backend/cpu"
	"github.com/aster-ml/aster/tensor"
)

// The facade re-exports the internal implementation; these tests only
// pin the public surface, the behavior is covered in internal/tensor.

func TestPublicAPI_Creation(t *testing.T) {
	backend := cpu.New()

	x := tensor.Zeros[float32](tensor.Shape{2, 3}, backend)
	if !x.Shape().Equal(tensor.Shape{2, 3}) {
		t.Fatalf("Zeros shape = %v, want [2 3]", x.Shape())
	}

	y := tensor.Ones[float32](tensor.Shape{2, 3}, backend)
	z := x.Add(y)
	for i, v := range z.Data() {
		if v != 1 {
			t.Fatalf("Add result[%d] = %v, want 1", i, v)
		}
	}
}

func TestPublicAPI_FromSliceAndMatMul(t *testing.T) {
	backend := cpu.New()

	a, err := tensor.FromSlice([]float32{1, 2, 3, 4}, tensor.Shape{2, 2}, backend)
	if err != nil {
		t.Fatalf("FromSlice: %v", err)
	}
	eye := tensor.Eye[float32](2, backend)

	product := a.MatMul(eye)
	want := []float32{1, 2, 3, 4}
	for i, v := range product.Data() {
		if v != want[i] {
			t.Fatalf("MatMul result[%d] = %v, want %v", i, v, want[i])
		}
	}
}

func TestPublicAPI_BroadcastShapes(t *testing.T) {
	shape, broadcast, err := tensor.BroadcastShapes(tensor.Shape{3, 1}, tensor.Shape{3, 4})
	if err != nil {
		t.Fatalf("BroadcastShapes: %v", err)
	}
	if !shape.Equal(tensor.Shape{3, 4}) || !broadcast {
		t.Fatalf("BroadcastShapes = %v, %v; want [3 4], true", shape, broadcast)
	}
}
