// Package tokenizer turns text into int32 token IDs ready for an
// embedding lookup. It wraps pkoukk/tiktoken-go for the BPE itself and
// adds the fixed-length, hashed-vocabulary encoding that small models
// train on.
package tokenizer

import (
	"fmt"

	"github.com/pkoukk/tiktoken-go"
)

// Encoding names accepted by New.
const (
	// EncodingCL100kBase is the encoding used by GPT-4 era models.
	EncodingCL100kBase = "cl100k_base"
	// EncodingP50kBase is the encoding used by GPT-3 era models.
	EncodingP50kBase = "p50k_base"
)

// Encoder tokenizes text with a tiktoken BPE encoding.
type Encoder struct {
	encoding *tiktoken.Tiktoken
	name     string
}

// New creates an Encoder for the named tiktoken encoding,
// e.g. "cl100k_base".
func New(encodingName string) (*Encoder, error) {
	encoding, err := tiktoken.GetEncoding(encodingName)
	if err != nil {
		return nil, fmt.Errorf("tokenizer: load encoding %q: %w", encodingName, err)
	}

	return &Encoder{encoding: encoding, name: encodingName}, nil
}

// NewForModel creates an Encoder for a specific model name,
// e.g. "gpt-4".
func NewForModel(modelName string) (*Encoder, error) {
	encoding, err := tiktoken.EncodingForModel(modelName)
	if err != nil {
		return nil, fmt.Errorf("tokenizer: load encoding for model %q: %w", modelName, err)
	}

	return &Encoder{encoding: encoding, name: modelName}, nil
}

// Encode converts text to token IDs.
func (e *Encoder) Encode(text string) []int32 {
	tokens := e.encoding.Encode(text, nil, nil)

	ids := make([]int32, len(tokens))
	for i, tok := range tokens {
		ids[i] = int32(tok) //nolint:gosec // G115: token IDs fit in int32, vocab size < 2^31
	}
	return ids
}

// Decode converts token IDs back to text.
func (e *Encoder) Decode(ids []int32) string {
	tokens := make([]int, len(ids))
	for i, id := range ids {
		tokens[i] = int(id)
	}
	return e.encoding.Decode(tokens)
}

// EncodeFixed tokenizes text into exactly seqLen IDs, truncating long
// inputs and padding short ones with zeros. Each ID is reduced modulo
// vocabSize so the result indexes directly into an embedding table
// smaller than the full BPE vocabulary.
func (e *Encoder) EncodeFixed(text string, seqLen, vocabSize int) []int32 {
	tokens := e.encoding.Encode(text, nil, nil)

	ids := make([]int32, seqLen)
	for i := 0; i < seqLen && i < len(tokens); i++ {
		ids[i] = int32(tokens[i] % vocabSize) //nolint:gosec // G115: bounded by vocabSize
	}
	return ids
}

// Name returns the encoding name.
func (e *Encoder) Name() string { return e.name }
