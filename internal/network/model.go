package network

import (
	"encoding/json"
	"fmt"

	"github.com/born-ml/toygrad/internal/layer"
)

// Model is a plain-data network description: the layer list, optionally
// carrying encoded parameters. It marshals to a JSON array of layer
// descriptions.
type Model []layer.Options

// ParseModel decodes a JSON model.
func ParseModel(data []byte) (Model, error) {
	var m Model
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("%w: parse model: %w", layer.ErrConfiguration, err)
	}
	return m, nil
}

// Build resolves the model into a network.
func (m Model) Build(opts ...Option) (*Network, error) {
	return New(m, opts...)
}
