package layer

// Layer type tags.
const (
	TypeInput      = "input"
	TypeDense      = "dense"
	TypeConv       = "conv"
	TypePool       = "pool"
	TypeDropout    = "dropout"
	TypeMaxout     = "maxout"
	TypeRelu       = "relu"
	TypeLeakyRelu  = "leakyrelu"
	TypeSigmoid    = "sigmoid"
	TypeTanh       = "tanh"
	TypeRegression = "regression"
	TypeSoftmax    = "softmax"
)

// Options describes one layer. Which fields apply depends on Type:
//
//	input:      Sx, Sy, Sz (width, height, depth of the network input)
//	dense:      Filters, Bias, L1Decay, L2Decay
//	conv:       Sx, Sy, Filters, Stride, Pad, Bias, L1Decay, L2Decay
//	pool:       Sx, Sy, Stride, Pad
//	dropout:    Probability
//	maxout:     Sx (group size)
//	activation: none (relu, leakyrelu, sigmoid, tanh)
//	output:     none (regression, softmax)
//
// Defaults are resolved once at construction:
//
//	Sy          = Sx
//	Stride      = 1 for conv, 2 for pool
//	Pad         = 0
//	Bias        = 0 (dense only: -1 disables biases)
//	L1Decay     = 0 for filters, always 0 for biases
//	L2Decay     = 1 for filters, always 0 for biases
//	Probability = 0.5
//	maxout Sx   = 2
//
// EncodedFilters and EncodedBiases carry persisted parameters produced by
// Export; when present they replace random initialisation.
type Options struct {
	Type        string   `json:"type"`
	Sx          int      `json:"sx,omitempty"`
	Sy          int      `json:"sy,omitempty"`
	Sz          int      `json:"sz,omitempty"`
	Filters     int      `json:"filters,omitempty"`
	Stride      int      `json:"stride,omitempty"`
	Pad         int      `json:"pad,omitempty"`
	Bias        *float32 `json:"bias,omitempty"`
	L1Decay     *float32 `json:"l1decay,omitempty"`
	L2Decay     *float32 `json:"l2decay,omitempty"`
	Probability *float32 `json:"probability,omitempty"`

	EncodedFilters []string `json:"_filters,omitempty"`
	EncodedBiases  string   `json:"_biases,omitempty"`
}

// Float returns a pointer to v, for the optional Options fields.
func Float(v float32) *float32 {
	return &v
}

func orFloat(p *float32, def float32) float32 {
	if p == nil {
		return def
	}
	return *p
}

func orInt(v, def int) int {
	if v == 0 {
		return def
	}
	return v
}
