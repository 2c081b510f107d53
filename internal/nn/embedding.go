package nn

import (
	"fmt"
	"math/rand"

	"github.com/aster-ml/aster/internal/tensor"
)

// Embedding maps discrete indices to dense learnable vectors.
//
// The weight matrix is [numEmbeddings, embeddingDim]; looking up indices
// of shape [...] yields embeddings of shape [..., embeddingDim].
// Gradients scatter-add back into the looked-up weight rows.
type Embedding[B tensor.Backend] struct {
	Weight   *Parameter[B]
	NumEmbed int
	EmbedDim int
}

// NewEmbedding creates an Embedding layer with weights drawn from N(0, 1).
func NewEmbedding[B tensor.Backend](numEmbeddings, embeddingDim int, backend B) *Embedding[B] {
	data := make([]float32, numEmbeddings*embeddingDim)
	for i := range data {
		//nolint:gosec // math/rand is fine for weight initialization
		data[i] = float32(rand.NormFloat64())
	}

	weight, err := tensor.FromSlice[float32, B](data, tensor.Shape{numEmbeddings, embeddingDim}, backend)
	if err != nil {
		panic(fmt.Sprintf("embedding: %v", err))
	}

	return NewEmbeddingWithWeight(weight)
}

// NewEmbeddingWithWeight creates an Embedding layer from a pre-initialized
// [numEmbeddings, embeddingDim] weight tensor.
func NewEmbeddingWithWeight[B tensor.Backend](weight *tensor.Tensor[float32, B]) *Embedding[B] {
	shape := weight.Shape()
	if len(shape) != 2 {
		panic(fmt.Sprintf("embedding: weight must be 2D, got %v", shape))
	}

	return &Embedding[B]{
		Weight:   NewParameter[B]("embedding.weight", weight),
		NumEmbed: shape[0],
		EmbedDim: shape[1],
	}
}

// Forward looks up the embedding vector for every index.
// Panics if an index falls outside [0, NumEmbed).
func (e *Embedding[B]) Forward(indices *tensor.Tensor[int32, B]) *tensor.Tensor[float32, B] {
	// The lookup runs on the indices' backend so no-grad views apply.
	weight := tensor.New[float32](e.Weight.Raw(), indices.Backend())
	return weight.Embedding(indices)
}

// Parameters returns [weight].
func (e *Embedding[B]) Parameters() []*Parameter[B] {
	return []*Parameter[B]{e.Weight}
}
