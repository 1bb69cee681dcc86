package checkpoint

import (
	"bytes"
	"crypto/sha256"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/born-ml/toygrad/internal/trainer"
)

// Read parses a checkpoint written by Write.
func Read(r io.Reader) (*Checkpoint, error) {
	fixed := make([]byte, FixedHeaderSize)
	if _, err := io.ReadFull(r, fixed); err != nil {
		return nil, fmt.Errorf("failed to read fixed header: %w", err)
	}
	if string(fixed[0:4]) != MagicBytes {
		return nil, ErrInvalidMagic
	}
	if v := binary.LittleEndian.Uint32(fixed[4:8]); v != FormatVersion {
		return nil, fmt.Errorf("%w: got %d, expected %d", ErrUnsupportedVersion, v, FormatVersion)
	}
	flags := binary.LittleEndian.Uint32(fixed[8:12])
	headerSize := binary.LittleEndian.Uint64(fixed[16:24])
	dataSize := binary.LittleEndian.Uint64(fixed[24:32])
	if headerSize > MaxHeaderSize {
		return nil, ErrHeaderTooLarge
	}

	headerJSON := make([]byte, headerSize)
	if _, err := io.ReadFull(r, headerJSON); err != nil {
		return nil, fmt.Errorf("failed to read header JSON: %w", err)
	}
	if _, err := io.CopyN(io.Discard, r, padding(int64(FixedHeaderSize)+int64(headerSize))); err != nil {
		return nil, fmt.Errorf("failed to skip padding: %w", err)
	}

	var data bytes.Buffer
	if n, err := io.CopyN(&data, r, int64(dataSize)); err != nil {
		return nil, fmt.Errorf("failed to read tensor data (%d of %d bytes): %w", n, dataSize, err)
	}

	h := sha256.New()
	h.Write(headerJSON)
	h.Write(data.Bytes())
	if !bytes.Equal(h.Sum(nil), fixed[ChecksumOffset:ChecksumOffset+ChecksumSize]) {
		return nil, ErrChecksumMismatch
	}

	var header Header
	if err := json.Unmarshal(headerJSON, &header); err != nil {
		return nil, fmt.Errorf("failed to parse header JSON: %w", err)
	}

	cp := &Checkpoint{
		Model:     header.Model,
		Metadata:  header.Metadata,
		CreatedAt: header.CreatedAt,
	}
	if flags&FlagHasTrainer != 0 {
		if header.Trainer == nil {
			return nil, &ValidationError{Type: "missing_trainer", Details: "trainer flag set but header has no trainer"}
		}
		state, err := readState(header.Tensors, data.Bytes())
		if err != nil {
			return nil, err
		}
		state.Step = header.Trainer.Step
		cp.Trainer = &TrainerState{
			Config: header.Trainer.Config,
			State:  state,
			Loss:   header.Trainer.Loss,
		}
	}
	return cp, nil
}

// readState rebuilds the accumulator lists from the tensor table.
func readState(metas []TensorMeta, data []byte) (trainer.State, error) {
	if err := ValidateTensors(metas, int64(len(data))); err != nil {
		return trainer.State{}, err
	}

	var state trainer.State
	for _, m := range metas {
		buf := make([]float32, m.Length)
		raw := data[m.Offset : m.Offset+m.Size]
		for i := range buf {
			buf[i] = math.Float32frombits(binary.LittleEndian.Uint32(raw[4*i:]))
		}

		prefix, _ := splitName(m.Name)
		if prefix == "gsum" {
			state.GSum = append(state.GSum, buf)
		} else {
			state.XSum = append(state.XSum, buf)
		}
	}
	return state, nil
}

// Load reads a checkpoint file.
func Load(path string) (*Checkpoint, error) {
	//nolint:gosec // G304: path comes from the caller
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer func() { _ = f.Close() }()

	cp, err := Read(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cp, nil
}
