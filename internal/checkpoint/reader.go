package checkpoint

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/klauspost/compress/zstd"

	"github.com/aster-ml/aster/internal/tensor"
)

// Load reads a .aster file and returns the state dict and its header.
// All tensors are placed on the CPU device.
func Load(path string) (map[string]*tensor.RawTensor, *Header, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("checkpoint: open %s: %w", path, err)
	}
	defer file.Close()

	stateDict, header, err := read(file)
	if err != nil {
		return nil, nil, fmt.Errorf("checkpoint: read %s: %w", path, err)
	}
	return stateDict, header, nil
}

func read(r io.Reader) (map[string]*tensor.RawTensor, *Header, error) {
	magic := make([]byte, len(MagicBytes))
	if _, err := io.ReadFull(r, magic); err != nil {
		return nil, nil, fmt.Errorf("read magic: %w", err)
	}
	if string(magic) != MagicBytes {
		return nil, nil, fmt.Errorf("bad magic %q, not a .aster file", magic)
	}

	var version uint32
	if err := binary.Read(r, binary.LittleEndian, &version); err != nil {
		return nil, nil, fmt.Errorf("read version: %w", err)
	}
	if version != FormatVersion {
		return nil, nil, fmt.Errorf("unsupported format version %d", version)
	}

	var flags uint32
	if err := binary.Read(r, binary.LittleEndian, &flags); err != nil {
		return nil, nil, fmt.Errorf("read flags: %w", err)
	}

	var headerSize uint64
	if err := binary.Read(r, binary.LittleEndian, &headerSize); err != nil {
		return nil, nil, fmt.Errorf("read header size: %w", err)
	}

	headerJSON := make([]byte, headerSize)
	if _, err := io.ReadFull(r, headerJSON); err != nil {
		return nil, nil, fmt.Errorf("read header: %w", err)
	}
	var header Header
	if err := json.Unmarshal(headerJSON, &header); err != nil {
		return nil, nil, fmt.Errorf("decode header: %w", err)
	}

	data := r
	if flags&FlagCompressed != 0 {
		dec, err := zstd.NewReader(r)
		if err != nil {
			return nil, nil, fmt.Errorf("init zstd: %w", err)
		}
		defer dec.Close()
		data = dec.IOReadCloser()
	}

	// Tensors were written back to back in header order, so a sequential
	// read matches the recorded offsets.
	stateDict := make(map[string]*tensor.RawTensor, len(header.Tensors))
	var pos int64
	for _, meta := range header.Tensors {
		if meta.Offset != pos {
			return nil, nil, fmt.Errorf("tensor %s: offset %d does not match stream position %d",
				meta.Name, meta.Offset, pos)
		}

		dtype, ok := stringToDtype(meta.DType)
		if !ok {
			return nil, nil, fmt.Errorf("tensor %s: unknown dtype %q", meta.Name, meta.DType)
		}

		shape := tensor.Shape(meta.Shape)
		raw, err := tensor.NewRaw(shape, dtype, tensor.CPU)
		if err != nil {
			return nil, nil, fmt.Errorf("tensor %s: %w", meta.Name, err)
		}
		if int64(raw.ByteSize()) != meta.Size {
			return nil, nil, fmt.Errorf("tensor %s: size %d does not match shape %v", meta.Name, meta.Size, shape)
		}

		if _, err := io.ReadFull(data, raw.Data()[:meta.Size]); err != nil {
			return nil, nil, fmt.Errorf("tensor %s: read data: %w", meta.Name, err)
		}

		stateDict[meta.Name] = raw
		pos += meta.Size
	}

	return stateDict, &header, nil
}
