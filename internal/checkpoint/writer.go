package checkpoint

import (
	"bufio"
	"bytes"
	"crypto/sha256"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"
	"time"
)

// Write serialises c to w.
func Write(w io.Writer, c *Checkpoint) error {
	header := Header{
		FormatVersion: FormatVersion,
		CreatedAt:     c.CreatedAt,
		Model:         c.Model,
		Metadata:      c.Metadata,
	}
	if header.CreatedAt.IsZero() {
		header.CreatedAt = time.Now().UTC()
	}

	var data bytes.Buffer
	flags := uint32(0)
	if len(c.Metadata) > 0 {
		flags |= FlagHasMetadata
	}
	if c.Trainer != nil {
		flags |= FlagHasTrainer
		header.Trainer = &TrainerMeta{
			Config: c.Trainer.Config,
			Step:   c.Trainer.State.Step,
			Loss:   c.Trainer.Loss,
		}
		header.Tensors = appendBuffers(header.Tensors, &data, "gsum", c.Trainer.State.GSum)
		header.Tensors = appendBuffers(header.Tensors, &data, "xsum", c.Trainer.State.XSum)
	}

	headerJSON, err := json.Marshal(header)
	if err != nil {
		return fmt.Errorf("failed to marshal header: %w", err)
	}
	if len(headerJSON) > MaxHeaderSize {
		return ErrHeaderTooLarge
	}

	h := sha256.New()
	h.Write(headerJSON)
	h.Write(data.Bytes())

	fixed := make([]byte, FixedHeaderSize)
	copy(fixed[0:4], MagicBytes)
	binary.LittleEndian.PutUint32(fixed[4:8], FormatVersion)
	binary.LittleEndian.PutUint32(fixed[8:12], flags)
	binary.LittleEndian.PutUint64(fixed[16:24], uint64(len(headerJSON)))
	binary.LittleEndian.PutUint64(fixed[24:32], uint64(data.Len()))
	copy(fixed[ChecksumOffset:ChecksumOffset+ChecksumSize], h.Sum(nil))

	bw := bufio.NewWriter(w)
	if _, err := bw.Write(fixed); err != nil {
		return fmt.Errorf("failed to write fixed header: %w", err)
	}
	if _, err := bw.Write(headerJSON); err != nil {
		return fmt.Errorf("failed to write header JSON: %w", err)
	}
	if pad := padding(int64(FixedHeaderSize + len(headerJSON))); pad > 0 {
		if _, err := bw.Write(make([]byte, pad)); err != nil {
			return fmt.Errorf("failed to write padding: %w", err)
		}
	}
	if _, err := bw.Write(data.Bytes()); err != nil {
		return fmt.Errorf("failed to write tensor data: %w", err)
	}
	return bw.Flush()
}

// appendBuffers writes each buffer as little-endian float32 and records
// its location.
func appendBuffers(metas []TensorMeta, data *bytes.Buffer, prefix string, bufs [][]float32) []TensorMeta {
	var scratch [4]byte
	for i, buf := range bufs {
		metas = append(metas, TensorMeta{
			Name:   fmt.Sprintf("%s.%d", prefix, i),
			Length: len(buf),
			Offset: int64(data.Len()),
			Size:   int64(4 * len(buf)),
		})
		for _, v := range buf {
			binary.LittleEndian.PutUint32(scratch[:], math.Float32bits(v))
			data.Write(scratch[:])
		}
	}
	return metas
}

// Save writes c to a file at path, replacing any existing file.
func Save(path string, c *Checkpoint) (err error) {
	//nolint:gosec // G304: path comes from the caller
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()
	return Write(f, c)
}
