package autodiff

import (
	"github.com/aster-ml/aster/internal/autodiff/ops"
	"github.com/aster-ml/aster/internal/tensor"
)

// NodeID indexes a node inside a Graph's arena. Inputs of a node always
// carry smaller IDs than the node itself, so walking the arena from an
// output's ID down to zero visits operations in reverse topological order.
type NodeID int

// invalidNode marks an operation input that is not part of the graph
// (constants and other untracked tensors).
const invalidNode NodeID = -1

// node is one arena entry. Leaf nodes (watched tensors) have a nil op.
type node struct {
	op     ops.Operation
	inputs []NodeID
}

// Graph is an arena of computation nodes built during the forward pass.
// Instead of linking nodes through pointers, every node lives at an index
// in a flat slice and refers to its inputs by index. All engine views
// derived from the same engine share one Graph.
//
// The graph also owns the accumulated leaf gradients, which survive graph
// frees so that repeated backward passes add up until ZeroGrad.
type Graph struct {
	nodes   []node
	ids     map[*tensor.RawTensor]NodeID
	watched []*tensor.RawTensor

	// Recorded tensors are protected against in-place reuse for the
	// lifetime of the graph; free runs releases to drop the protection.
	releases []func()

	leafGrads map[*tensor.RawTensor]*tensor.RawTensor
}

// NewGraph creates an empty computation graph.
func NewGraph() *Graph {
	return &Graph{
		nodes:     make([]node, 0, 64),
		ids:       make(map[*tensor.RawTensor]NodeID),
		leafGrads: make(map[*tensor.RawTensor]*tensor.RawTensor),
	}
}

// watch registers a leaf tensor. Operations touching a watched tensor
// (or anything derived from one) are recorded.
func (g *Graph) watch(t *tensor.RawTensor) {
	if _, ok := g.ids[t]; ok {
		return
	}
	g.watched = append(g.watched, t)
	g.addLeaf(t)
}

func (g *Graph) addLeaf(t *tensor.RawTensor) {
	id := NodeID(len(g.nodes))
	g.nodes = append(g.nodes, node{})
	g.ids[t] = id
	g.releases = append(g.releases, t.Retain())
}

// tracked reports whether t is part of the graph.
func (g *Graph) tracked(t *tensor.RawTensor) bool {
	_, ok := g.ids[t]
	return ok
}

// record appends an operation node. At least one input must be tracked;
// untracked inputs are stored as invalidNode and receive no gradient.
func (g *Graph) record(op ops.Operation) {
	inputs := op.Inputs()
	nodeInputs := make([]NodeID, len(inputs))
	for i, in := range inputs {
		if id, ok := g.ids[in]; ok {
			nodeInputs[i] = id
		} else {
			nodeInputs[i] = invalidNode
		}
		g.releases = append(g.releases, in.Retain())
	}

	out := op.Output()
	id := NodeID(len(g.nodes))
	g.nodes = append(g.nodes, node{op: op, inputs: nodeInputs})
	g.ids[out] = id
	g.releases = append(g.releases, out.Retain())
}

// anyTracked reports whether any of the given tensors is in the graph.
func (g *Graph) anyTracked(tensors ...*tensor.RawTensor) bool {
	for _, t := range tensors {
		if g.tracked(t) {
			return true
		}
	}
	return false
}

// free discards all recorded operations and releases the forward tensors
// they held. Watched leaves are re-registered so the next forward pass
// records against the same parameters. Accumulated leaf gradients are
// kept.
func (g *Graph) free() {
	for _, release := range g.releases {
		release()
	}
	g.releases = g.releases[:0]
	g.nodes = g.nodes[:0]
	clear(g.ids)

	for _, t := range g.watched {
		g.addLeaf(t)
	}
}

// NumOps returns the number of recorded operation nodes (leaves excluded).
func (g *Graph) NumOps() int {
	count := 0
	for _, n := range g.nodes {
		if n.op != nil {
			count++
		}
	}
	return count
}
