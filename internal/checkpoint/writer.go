package checkpoint

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"time"

	"github.com/klauspost/compress/zstd"

	"github.com/aster-ml/aster/internal/tensor"
)

const asterVersion = "0.1.0"

// SaveOptions configures how a state dict is written. The zero value
// compresses the data section and carries no training state.
type SaveOptions struct {
	// NoCompression writes the data section uncompressed.
	NoCompression bool

	// Metadata is stored verbatim in the header.
	Metadata map[string]string

	// Training attaches checkpoint state for resuming.
	Training *TrainingMeta
}

// Save writes a state dict to path in the .aster format. Tensors are
// written in sorted name order so identical state produces identical
// files.
func Save(path string, stateDict map[string]*tensor.RawTensor, opts SaveOptions) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("checkpoint: create %s: %w", path, err)
	}
	defer file.Close()

	if err := write(file, stateDict, opts); err != nil {
		return fmt.Errorf("checkpoint: write %s: %w", path, err)
	}
	return file.Close()
}

func write(w io.Writer, stateDict map[string]*tensor.RawTensor, opts SaveOptions) error {
	names := make([]string, 0, len(stateDict))
	for name := range stateDict {
		names = append(names, name)
	}
	sort.Strings(names)

	header := Header{
		FormatVersion: FormatVersion,
		AsterVersion:  asterVersion,
		CreatedAt:     time.Now().UTC(),
		Tensors:       make([]TensorMeta, 0, len(names)),
		Metadata:      opts.Metadata,
		Training:      opts.Training,
	}

	var offset int64
	for _, name := range names {
		raw := stateDict[name]
		size := int64(raw.ByteSize())
		header.Tensors = append(header.Tensors, TensorMeta{
			Name:   name,
			DType:  dtypeToString(raw.DType()),
			Shape:  []int(raw.Shape()),
			Offset: offset,
			Size:   size,
		})
		offset += size
	}

	headerJSON, err := json.Marshal(header)
	if err != nil {
		return fmt.Errorf("marshal header: %w", err)
	}

	if _, err := io.WriteString(w, MagicBytes); err != nil {
		return fmt.Errorf("write magic: %w", err)
	}
	if err := binary.Write(w, binary.LittleEndian, uint32(FormatVersion)); err != nil {
		return fmt.Errorf("write version: %w", err)
	}

	var flags uint32
	if !opts.NoCompression {
		flags |= FlagCompressed
	}
	if opts.Training != nil {
		flags |= FlagTraining
	}
	if err := binary.Write(w, binary.LittleEndian, flags); err != nil {
		return fmt.Errorf("write flags: %w", err)
	}

	if err := binary.Write(w, binary.LittleEndian, uint64(len(headerJSON))); err != nil {
		return fmt.Errorf("write header size: %w", err)
	}
	if _, err := w.Write(headerJSON); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	data := w
	var enc *zstd.Encoder
	if !opts.NoCompression {
		enc, err = zstd.NewWriter(w)
		if err != nil {
			return fmt.Errorf("init zstd: %w", err)
		}
		data = enc
	}

	for _, name := range names {
		raw := stateDict[name]
		if _, err := data.Write(raw.Data()[:raw.ByteSize()]); err != nil {
			return fmt.Errorf("write tensor %s: %w", name, err)
		}
	}

	if enc != nil {
		if err := enc.Close(); err != nil {
			return fmt.Errorf("flush zstd: %w", err)
		}
	}
	return nil
}
