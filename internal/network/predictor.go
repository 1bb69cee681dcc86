package network

import (
	"fmt"
	"sync"

	"github.com/born-ml/toygrad/internal/layer"
	"github.com/born-ml/toygrad/internal/tensor"
)

// Predictor is a fixed inference routine over an exported Model.
//
// It owns a private network rebuilt from the model, so later changes to the
// source network do not affect it. Predict is safe for concurrent use.
type Predictor struct {
	mu  sync.Mutex
	net *Network
}

// NewPredictor builds a predictor from an exported model.
func NewPredictor(m Model) (*Predictor, error) {
	for i, opts := range m {
		if len(opts.EncodedFilters) == 0 && isTrainable(opts.Type) {
			return nil, &layer.ConfigError{Index: i, Type: opts.Type,
				Err: fmt.Errorf("%w: model carries no parameters", layer.ErrConfiguration)}
		}
	}
	net, err := New(m)
	if err != nil {
		return nil, err
	}
	return &Predictor{net: net}, nil
}

func isTrainable(typ string) bool {
	return typ == layer.TypeDense || typ == layer.TypeConv
}

// InShape returns the expected input shape.
func (p *Predictor) InShape() tensor.Shape { return p.net.InShape() }

// OutShape returns the output shape.
func (p *Predictor) OutShape() tensor.Shape { return p.net.OutShape() }

// Predict returns the network output for a flat input.
func (p *Predictor) Predict(values []float32) ([]float32, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.net.Predict(values)
}

// Classify returns the index of the largest output.
func (p *Predictor) Classify(values []float32) (int, error) {
	out, err := p.Predict(values)
	if err != nil {
		return 0, err
	}
	best := 0
	for i, v := range out {
		if v > out[best] {
			best = i
		}
	}
	return best, nil
}
