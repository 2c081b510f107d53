package cpu

import "github.com/aster-ml/aster/internal/tensor"

// broadcastStrides returns per-output-dimension strides into an input
// tensor whose shape broadcasts to out. Dimensions of size 1 (and missing
// leading dimensions) get stride 0, so the same input element is reused
// across the broadcast axis.
func broadcastStrides(in, out tensor.Shape) []int {
	strides := make([]int, len(out))
	inStrides := in.ComputeStrides()
	offset := len(out) - len(in)
	for i := range out {
		j := i - offset
		if j < 0 || in[j] == 1 {
			strides[i] = 0
		} else {
			strides[i] = inStrides[j]
		}
	}
	return strides
}

// forEachIndex walks the output shape in row-major order, maintaining flat
// offsets into two (possibly broadcast) inputs via their adjusted strides.
func forEachIndex(out tensor.Shape, f func(flat, aIdx, bIdx int), aStrides, bStrides []int) {
	ndim := len(out)
	coords := make([]int, ndim)
	aIdx, bIdx := 0, 0

	n := out.NumElements()
	for flat := 0; flat < n; flat++ {
		f(flat, aIdx, bIdx)

		// Advance the multi-dimensional counter.
		for d := ndim - 1; d >= 0; d-- {
			coords[d]++
			aIdx += aStrides[d]
			bIdx += bStrides[d]
			if coords[d] < out[d] {
				break
			}
			coords[d] = 0
			aIdx -= aStrides[d] * out[d]
			bIdx -= bStrides[d] * out[d]
		}
	}
}
