package checkpoint

import (
	"fmt"
	"maps"
	"time"

	"github.com/born-ml/toygrad/internal/codec"
	"github.com/born-ml/toygrad/internal/network"
	"github.com/born-ml/toygrad/internal/trainer"
)

// Checkpoint is an in-memory training snapshot.
type Checkpoint struct {
	Model     network.Model     // Exported layer descriptions with parameters
	Trainer   *TrainerState     // Nil for inference-only checkpoints
	Metadata  map[string]string // Free-form annotations
	CreatedAt time.Time         // Set by Write when zero
}

// TrainerState is everything needed to resume training.
type TrainerState struct {
	Config trainer.Config
	State  trainer.State
	Loss   float32 // Loss reported by the last Train call
}

// Capture snapshots net and, when tr is non-nil, its trainer. Parameters
// are encoded at precision; only F32 resumes training exactly.
func Capture(net *network.Network, tr *trainer.Trainer, precision codec.Precision) (*Checkpoint, error) {
	model, err := net.Export(precision)
	if err != nil {
		return nil, fmt.Errorf("failed to export model: %w", err)
	}
	cp := &Checkpoint{Model: model, CreatedAt: time.Now().UTC()}
	if tr != nil {
		cp.Trainer = &TrainerState{Config: tr.Config(), State: tr.State()}
	}
	return cp, nil
}

// WithMetadata returns a copy of c with the given annotations merged in.
func (c *Checkpoint) WithMetadata(md map[string]string) *Checkpoint {
	out := *c
	out.Metadata = make(map[string]string, len(c.Metadata)+len(md))
	maps.Copy(out.Metadata, c.Metadata)
	maps.Copy(out.Metadata, md)
	return &out
}

// Network rebuilds the network described by the checkpoint.
func (c *Checkpoint) Network(opts ...network.Option) (*network.Network, error) {
	return c.Model.Build(opts...)
}

// Predictor builds an inference-only predictor from the checkpoint.
func (c *Checkpoint) Predictor() (*network.Predictor, error) {
	return network.NewPredictor(c.Model)
}

// Restore rebuilds the network and a trainer resumed from the saved state.
// It fails with ErrNoTrainer for inference-only checkpoints.
func (c *Checkpoint) Restore(opts ...network.Option) (*network.Network, *trainer.Trainer, error) {
	if c.Trainer == nil {
		return nil, nil, ErrNoTrainer
	}
	net, err := c.Network(opts...)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to rebuild network: %w", err)
	}
	tr := trainer.New(net, c.Trainer.Config)
	if err := tr.LoadState(c.Trainer.State); err != nil {
		return nil, nil, fmt.Errorf("failed to restore trainer: %w", err)
	}
	return net, tr, nil
}
