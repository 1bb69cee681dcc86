package checkpoint

import (
	"time"

	"github.com/born-ml/toygrad/internal/network"
	"github.com/born-ml/toygrad/internal/trainer"
)

// Format constants.
const (
	MagicBytes      = "TGRD"
	FormatVersion   = 1
	FixedHeaderSize = 64
	HeaderAlignment = 64
	ChecksumOffset  = 0x20
	ChecksumSize    = 32
	MaxHeaderSize   = 64 * 1024 * 1024
)

// Flags.
const (
	FlagHasTrainer  uint32 = 1 << 0 // trainer config and state included
	FlagHasMetadata uint32 = 1 << 1 // custom metadata included
)

// Header is the JSON header of a checkpoint file.
type Header struct {
	FormatVersion int               `json:"format_version"`
	CreatedAt     time.Time         `json:"created_at"`
	Model         network.Model     `json:"model"`
	Trainer       *TrainerMeta      `json:"trainer,omitempty"`
	Tensors       []TensorMeta      `json:"tensors"`
	Metadata      map[string]string `json:"metadata,omitempty"`
}

// TrainerMeta is the scalar part of the trainer state.
type TrainerMeta struct {
	Config trainer.Config `json:"config"`
	Step   int            `json:"step"`
	Loss   float32        `json:"loss"`
}

// TensorMeta locates one accumulator buffer in the data section.
type TensorMeta struct {
	Name   string `json:"name"`   // "gsum.<i>" or "xsum.<i>"
	Length int    `json:"length"` // Number of float32 values
	Offset int64  `json:"offset"` // Bytes from the start of the data section
	Size   int64  `json:"size"`   // Size in bytes
}

// padding returns the number of zero bytes that align pos to HeaderAlignment.
func padding(pos int64) int64 {
	return (HeaderAlignment - pos%HeaderAlignment) % HeaderAlignment
}
