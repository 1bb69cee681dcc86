package trainer

import (
	"fmt"

	"github.com/born-ml/toygrad/internal/layer"
)

// Method names a parameter update rule.
type Method string

// Supported methods. SGD with Momentum > 0 is classical momentum.
const (
	MethodSGD      Method = "sgd"
	MethodNesterov Method = "nesterov"
	MethodAdagrad  Method = "adagrad"
	MethodAdadelta Method = "adadelta"
	MethodAdam     Method = "adam"
)

// ParseMethod validates a method name.
func ParseMethod(s string) (Method, error) {
	switch m := Method(s); m {
	case MethodSGD, MethodNesterov, MethodAdagrad, MethodAdadelta, MethodAdam:
		return m, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownMethod, s)
	}
}

// Config holds trainer hyperparameters.
//
// New fills zero-valued fields from DefaultConfig, except Momentum, L1Decay
// and L2Decay where zero is meaningful. Start from DefaultConfig to get the
// default momentum.
type Config struct {
	Method       Method  `json:"method"`        // Update rule (default: sgd)
	BatchSize    int     `json:"batch_size"`    // Train calls per update (default: 1)
	LearningRate float32 `json:"learning_rate"` // Step size (default: 0.01, also used for 0)
	L1Decay      float32 `json:"l1_decay"`      // Global L1 penalty (default: 0)
	L2Decay      float32 `json:"l2_decay"`      // Global L2 penalty (default: 0)
	Momentum     float32 `json:"momentum"`      // sgd and nesterov (default: 0.9)
	Ro           float32 `json:"ro"`            // adadelta decay (default: 0.95)
	Eps          float32 `json:"eps"`           // Numerical stability term (default: 1e-8)
	Beta1        float32 `json:"beta1"`         // adam first moment decay (default: 0.9)
	Beta2        float32 `json:"beta2"`         // adam second moment decay (default: 0.999)
}

// DefaultConfig returns the default hyperparameters.
func DefaultConfig() Config {
	return Config{
		Method:       MethodSGD,
		BatchSize:    1,
		LearningRate: 0.01,
		Momentum:     0.9,
		Ro:           0.95,
		Eps:          1e-8,
		Beta1:        0.9,
		Beta2:        0.999,
	}
}

// withDefaults fills unset fields from DefaultConfig. Zero means unset for
// every field except Momentum, L1Decay and L2Decay, where zero disables the
// feature. A zero LearningRate therefore trains at 0.01; freezing parameters
// is done by not calling Train.
func (c Config) withDefaults() Config {
	def := DefaultConfig()
	if c.Method == "" {
		c.Method = def.Method
	}
	if c.BatchSize <= 0 {
		c.BatchSize = def.BatchSize
	}
	if c.LearningRate == 0 {
		c.LearningRate = def.LearningRate
	}
	if c.Ro == 0 {
		c.Ro = def.Ro
	}
	if c.Eps == 0 {
		c.Eps = def.Eps
	}
	if c.Beta1 == 0 {
		c.Beta1 = def.Beta1
	}
	if c.Beta2 == 0 {
		c.Beta2 = def.Beta2
	}
	return c
}

// needsGSum reports whether the method keeps a first accumulator.
func (c Config) needsGSum() bool {
	return c.Method != MethodSGD || c.Momentum > 0
}

// needsXSum reports whether the method keeps a second accumulator.
func (c Config) needsXSum() bool {
	return c.Method == MethodAdam || c.Method == MethodAdadelta
}

// Validate checks the method name and numeric ranges.
func (c Config) Validate() error {
	if _, err := ParseMethod(string(c.Method)); err != nil {
		return err
	}
	if c.BatchSize <= 0 {
		return fmt.Errorf("%w: batch size must be > 0, got %d", layer.ErrConfiguration, c.BatchSize)
	}
	if c.LearningRate < 0 {
		return fmt.Errorf("%w: learning rate must be >= 0, got %g", layer.ErrConfiguration, c.LearningRate)
	}
	return nil
}
