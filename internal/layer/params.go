package layer

import (
	"fmt"

	"github.com/born-ml/toygrad/internal/codec"
	"github.com/born-ml/toygrad/internal/tensor"
)

// buildFilters decodes count filters of the given shape, or draws them from
// env.Rand when no encoded filters are supplied.
func buildFilters(encoded []string, count int, shape tensor.Shape, env Env) ([]*tensor.Tensor, error) {
	filters := make([]*tensor.Tensor, count)
	if len(encoded) == 0 {
		for i := range filters {
			filters[i] = tensor.Randn(shape, env.Rand)
		}
		return filters, nil
	}

	if len(encoded) != count {
		return nil, configErrorf("expected %d encoded filters, got %d", count, len(encoded))
	}
	for i, text := range encoded {
		t, err := decodeTensor(text, shape)
		if err != nil {
			return nil, fmt.Errorf("filter %d: %w", i, err)
		}
		filters[i] = t
	}
	return filters, nil
}

// buildBiases decodes the bias tensor, or fills it with value.
func buildBiases(encoded string, count int, value float32) (*tensor.Tensor, error) {
	shape := tensor.NewShape(1, 1, count)
	if encoded == "" {
		return tensor.Full(shape, value), nil
	}
	t, err := decodeTensor(encoded, shape)
	if err != nil {
		return nil, fmt.Errorf("biases: %w", err)
	}
	return t, nil
}

func decodeTensor(text string, shape tensor.Shape) (*tensor.Tensor, error) {
	buf, err := codec.Decode(text)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConfiguration, err)
	}
	t, err := tensor.Wrap(shape, buf)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConfiguration, err)
	}
	return t, nil
}

// paramsAndGrads lists filters with the layer's decay multipliers followed
// by the biases, which are never regularised.
func paramsAndGrads(filters []*tensor.Tensor, biases *tensor.Tensor, biased bool, l1, l2 float32) []ParamGrad {
	pg := make([]ParamGrad, 0, len(filters)+1)
	for _, f := range filters {
		pg = append(pg, ParamGrad{Params: f.Data(), Grads: f.Grad(), L1Decay: l1, L2Decay: l2})
	}
	if biased {
		pg = append(pg, ParamGrad{Params: biases.Data(), Grads: biases.Grad()})
	}
	return pg
}

func exportParams(opts Options, filters []*tensor.Tensor, biases *tensor.Tensor, biased bool, precision codec.Precision) (Options, error) {
	opts.EncodedFilters = make([]string, len(filters))
	for i, f := range filters {
		text, err := codec.Encode(f.Data(), precision)
		if err != nil {
			return Options{}, fmt.Errorf("filter %d: %w", i, err)
		}
		opts.EncodedFilters[i] = text
	}
	if biased {
		text, err := codec.Encode(biases.Data(), precision)
		if err != nil {
			return Options{}, fmt.Errorf("biases: %w", err)
		}
		opts.EncodedBiases = text
	}
	return opts, nil
}
