// Package checkpoint reads and writes model state in the .aster format.
//
// File layout:
//
//	magic "ASTR" | version uint32 | flags uint32 | header size uint64 |
//	header JSON | tensor data section
//
// The header describes every tensor (name, dtype, shape, offset, size)
// plus optional training state. The data section holds the raw tensor
// payloads back to back, zstd-compressed unless compression is disabled.
package checkpoint

import (
	"time"

	"github.com/aster-ml/aster/internal/tensor"
)

// Format constants.
const (
	MagicBytes    = "ASTR"
	FormatVersion = 1
)

// Data type names used in the JSON header.
const (
	DTypeFloat32 = "float32"
	DTypeFloat64 = "float64"
	DTypeInt32   = "int32"
	DTypeInt64   = "int64"
	DTypeUint8   = "uint8"
	DTypeBool    = "bool"
)

// Header flags.
const (
	FlagCompressed uint32 = 1 << 0 // data section is zstd-compressed
	FlagTraining   uint32 = 1 << 1 // training state included
)

// Header is the JSON header of a .aster file.
type Header struct {
	FormatVersion int               `json:"format_version"`
	AsterVersion  string            `json:"aster_version"`
	CreatedAt     time.Time         `json:"created_at"`
	Tensors       []TensorMeta      `json:"tensors"`
	Metadata      map[string]string `json:"metadata,omitempty"`
	Training      *TrainingMeta     `json:"training,omitempty"`
}

// TrainingMeta carries checkpoint state for resuming a training run.
type TrainingMeta struct {
	Epoch     int     `json:"epoch"`
	Step      int64   `json:"step"`
	Loss      float64 `json:"loss"`
	Optimizer string  `json:"optimizer,omitempty"`
}

// TensorMeta describes one tensor in the data section. Offset and Size
// refer to the uncompressed data stream.
type TensorMeta struct {
	Name   string `json:"name"`
	DType  string `json:"dtype"`
	Shape  []int  `json:"shape"`
	Offset int64  `json:"offset"`
	Size   int64  `json:"size"`
}

func dtypeToString(dt tensor.DataType) string {
	switch dt {
	case tensor.Float32:
		return DTypeFloat32
	case tensor.Float64:
		return DTypeFloat64
	case tensor.Int32:
		return DTypeInt32
	case tensor.Int64:
		return DTypeInt64
	case tensor.Uint8:
		return DTypeUint8
	case tensor.Bool:
		return DTypeBool
	default:
		return "unknown"
	}
}

func stringToDtype(s string) (tensor.DataType, bool) {
	switch s {
	case DTypeFloat32:
		return tensor.Float32, true
	case DTypeFloat64:
		return tensor.Float64, true
	case DTypeInt32:
		return tensor.Int32, true
	case DTypeInt64:
		return tensor.Int64, true
	case DTypeUint8:
		return tensor.Uint8, true
	case DTypeBool:
		return tensor.Bool, true
	default:
		return 0, false
	}
}
