package autodiff

import (
	"errors"
	"fmt"

	"github.com/aster-ml/aster/internal/tensor"
)

// BackwardRequest configures one backward pass. The zero value seeds the
// output gradient with ones and frees the graph afterwards.
//
// Requests are plain values: the pass never mutates them and the same
// request can be reused across calls.
type BackwardRequest struct {
	// Grad seeds the output gradient. When nil, a ones tensor of the
	// output's shape is used.
	Grad *tensor.RawTensor

	// RetainGraph keeps the recorded operations alive after the pass so
	// backward can run again over the same graph.
	RetainGraph bool
}

// Backward runs a backward pass from output with a ones seed, freeing the
// graph afterwards. Gradients accumulate into the watched leaves: running
// several passes adds up until ZeroGrad. Panics if output is not part of
// the graph; use BackwardWith to handle that case as an error.
func (e *Engine[B]) Backward(output *tensor.RawTensor) map[*tensor.RawTensor]*tensor.RawTensor {
	grads, err := e.BackwardWith(output, BackwardRequest{})
	if err != nil {
		panic(fmt.Sprintf("backward: %v", err))
	}
	return grads
}

// BackwardWith runs a backward pass from output as configured by req.
// It returns the gradients of all watched leaves, keyed by leaf tensor.
//
// The returned map reflects the accumulated state: a leaf touched by an
// earlier, un-zeroed pass includes that history.
func (e *Engine[B]) BackwardWith(output *tensor.RawTensor, req BackwardRequest) (map[*tensor.RawTensor]*tensor.RawTensor, error) {
	g := e.graph

	outID, ok := g.ids[output]
	if !ok {
		return nil, errors.New("output is not part of the computation graph (already freed, or produced without recording)")
	}

	seed := req.Grad
	if seed == nil {
		seed = onesSeed(output)
	} else {
		if !seed.Shape().Equal(output.Shape()) {
			return nil, fmt.Errorf("gradient seed shape %v does not match output shape %v", seed.Shape(), output.Shape())
		}
		release := seed.Retain()
		defer release()
	}

	// Per-node gradient slots for this pass. Slot i collects the gradient
	// of node i's output; walking IDs in descending order guarantees a
	// slot is complete before its own backward runs.
	slots := make([]*tensor.RawTensor, outID+1)
	slots[outID] = seed

	for id := outID; id >= 0; id-- {
		n := g.nodes[id]
		grad := slots[id]
		if n.op == nil || grad == nil {
			continue
		}

		// The inner backend computes gradient math so nothing recorded
		// here ends up back in the graph. Retaining the slot gradient
		// keeps op backwards from consuming it in place.
		release := grad.Retain()
		inputGrads := n.op.Backward(grad, e.inner)
		release()

		for i, inID := range n.inputs {
			if inID == invalidNode || inputGrads[i] == nil {
				continue
			}
			if slots[inID] == nil {
				slots[inID] = inputGrads[i]
			} else {
				slots[inID] = e.inner.Add(slots[inID], inputGrads[i])
			}
		}
	}

	// Fold this pass into the persistent leaf gradients.
	result := make(map[*tensor.RawTensor]*tensor.RawTensor, len(g.watched))
	for _, leaf := range g.watched {
		id, ok := g.ids[leaf]
		if ok && int(id) <= int(outID) && slots[id] != nil {
			if acc := g.leafGrads[leaf]; acc != nil {
				g.leafGrads[leaf] = e.inner.Add(acc, slots[id])
			} else {
				g.leafGrads[leaf] = slots[id]
			}
		}
		if acc := g.leafGrads[leaf]; acc != nil {
			result[leaf] = acc
		}
	}

	if !req.RetainGraph {
		g.free()
	}

	return result, nil
}

// onesSeed builds the default all-ones output gradient.
func onesSeed(output *tensor.RawTensor) *tensor.RawTensor {
	seed, err := tensor.NewRaw(output.Shape(), output.DType(), output.Device())
	if err != nil {
		panic(fmt.Sprintf("backward: failed to create gradient seed: %v", err))
	}
	switch output.DType() {
	case tensor.Float32:
		data := seed.AsFloat32()
		for i := range data {
			data[i] = 1
		}
	case tensor.Float64:
		data := seed.AsFloat64()
		for i := range data {
			data[i] = 1
		}
	default:
		panic(fmt.Sprintf("backward: unsupported dtype %s", output.DType()))
	}
	return seed
}
