package tokenizer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newEncoder skips the test when the BPE files cannot be fetched,
// so the suite stays green offline.
func newEncoder(t *testing.T) *Encoder {
	t.Helper()
	enc, err := New(EncodingCL100kBase)
	if err != nil {
		t.Skipf("tiktoken encoding unavailable: %v", err)
	}
	return enc
}

func TestNew_InvalidEncoding(t *testing.T) {
	enc, err := New("no_such_encoding")
	assert.Error(t, err)
	assert.Nil(t, enc)
}

func TestEncode_Roundtrip(t *testing.T) {
	enc := newEncoder(t)

	texts := []string{
		"hello world",
		"The quick brown fox jumps over the lazy dog.",
		"numbers 123 and symbols !@#",
	}
	for _, text := range texts {
		ids := enc.Encode(text)
		require.NotEmpty(t, ids)
		assert.Equal(t, text, enc.Decode(ids))
	}
}

func TestEncode_Empty(t *testing.T) {
	enc := newEncoder(t)
	assert.Empty(t, enc.Encode(""))
}

func TestEncodeFixed(t *testing.T) {
	enc := newEncoder(t)

	const seqLen, vocab = 8, 4096

	short := enc.EncodeFixed("hi", seqLen, vocab)
	require.Len(t, short, seqLen)
	assert.Equal(t, int32(0), short[seqLen-1], "short input pads with zeros")

	long := enc.EncodeFixed("one two three four five six seven eight nine ten eleven", seqLen, vocab)
	require.Len(t, long, seqLen)

	for _, id := range long {
		assert.GreaterOrEqual(t, id, int32(0))
		assert.Less(t, id, int32(vocab))
	}
}

func TestName(t *testing.T) {
	enc := newEncoder(t)
	assert.Equal(t, EncodingCL100kBase, enc.Name())
}
