// Package trainer implements the gradient-descent trainers that update a
// network's parameters.
//
// A Trainer runs one forward and backward pass per Train call and applies
// an update every BatchSize calls. Gradients accumulate across the batch in
// the parameters' own gradient buffers, which the trainer zeroes after each
// update. Per-parameter accumulators (gsum, xsum) are allocated once on the
// first update and persist for the trainer's lifetime.
//
// Supported methods:
//
//	sgd       p -= lr·g                    (Momentum = 0)
//	          v = μ·v - lr·g; p += v       (Momentum > 0)
//	nesterov  Nesterov accelerated gradient
//	adagrad   per-parameter rates from accumulated squared gradients
//	adadelta  Zeiler's Adadelta
//	adam      Adam with moment scaling by (1-β^k)
//
// Example:
//
//	tr := trainer.NewSGD(net, 0.1, 0.9)
//	for range epochs {
//	    for _, s := range samples {
//	        res, err := tr.Train(s.Input, layer.Values(s.Want...))
//	        ...
//	    }
//	}
package trainer

import (
	"fmt"

	"github.com/chewxy/math32"

	"github.com/born-ml/toygrad/internal/layer"
	"github.com/born-ml/toygrad/internal/tensor"
)

// Model is what a Trainer drives. *network.Network implements it.
type Model interface {
	Forward(input *tensor.Tensor, training bool) (*tensor.Tensor, error)
	Backward(target layer.Target) (float32, error)
	ParamsAndGrads() []layer.ParamGrad
}

// Result reports the losses of one Train call. L1Loss and L2Loss are only
// non-zero on calls that applied an update.
type Result struct {
	Cost   float32 // Output layer loss
	L1Loss float32 // Σ l1·|p|
	L2Loss float32 // Σ l2·p²/2
	Loss   float32 // Cost + L1Loss + L2Loss
}

// Trainer applies one update rule to a model's parameters.
type Trainer struct {
	model Model
	cfg   Config
	k     int
	gsum  [][]float32
	xsum  [][]float32
}

// New creates a trainer for model. Zero-valued fields of cfg take their
// defaults; see Config.
func New(model Model, cfg Config) *Trainer {
	return &Trainer{model: model, cfg: cfg.withDefaults()}
}

// NewSGD creates a plain (momentum = 0) or momentum SGD trainer.
func NewSGD(model Model, learningRate, momentum float32) *Trainer {
	cfg := DefaultConfig()
	cfg.LearningRate = learningRate
	cfg.Momentum = momentum
	return New(model, cfg)
}

// NewNesterov creates a Nesterov momentum trainer.
func NewNesterov(model Model, learningRate, momentum float32) *Trainer {
	cfg := DefaultConfig()
	cfg.Method = MethodNesterov
	cfg.LearningRate = learningRate
	cfg.Momentum = momentum
	return New(model, cfg)
}

// NewAdagrad creates an Adagrad trainer.
func NewAdagrad(model Model, learningRate float32) *Trainer {
	cfg := DefaultConfig()
	cfg.Method = MethodAdagrad
	cfg.LearningRate = learningRate
	return New(model, cfg)
}

// NewAdadelta creates an Adadelta trainer. Adadelta takes no learning rate.
func NewAdadelta(model Model, ro, eps float32) *Trainer {
	cfg := DefaultConfig()
	cfg.Method = MethodAdadelta
	cfg.Ro = ro
	cfg.Eps = eps
	return New(model, cfg)
}

// NewAdam creates an Adam trainer.
func NewAdam(model Model, learningRate, beta1, beta2 float32) *Trainer {
	cfg := DefaultConfig()
	cfg.Method = MethodAdam
	cfg.LearningRate = learningRate
	cfg.Beta1 = beta1
	cfg.Beta2 = beta2
	return New(model, cfg)
}

// Config returns the resolved configuration.
func (t *Trainer) Config() Config {
	return t.cfg
}

// Step returns the number of Train calls so far.
func (t *Trainer) Step() int {
	return t.k
}

// Accumulators returns the live gsum and xsum buffers, one per parameter
// pair. Both are nil before the first update, and xsum stays nil for
// methods that do not use it.
func (t *Trainer) Accumulators() (gsum, xsum [][]float32) {
	return t.gsum, t.xsum
}

// Train runs one forward/backward pass on a single sample and applies an
// update when the batch is complete.
func (t *Trainer) Train(input *tensor.Tensor, target layer.Target) (Result, error) {
	if _, err := t.model.Forward(input, true); err != nil {
		return Result{}, err
	}
	cost, err := t.model.Backward(target)
	if err != nil {
		return Result{}, err
	}

	res := Result{Cost: cost}
	t.k++
	if t.k%t.cfg.BatchSize == 0 {
		if res.L1Loss, res.L2Loss, err = t.update(); err != nil {
			return Result{}, err
		}
	}
	res.Loss = res.Cost + res.L1Loss + res.L2Loss
	return res, nil
}

// update applies the configured rule to every parameter and zeroes the
// gradients it consumed.
func (t *Trainer) update() (l1loss, l2loss float32, err error) {
	apply, ok := rules[t.cfg.Method]
	if !ok {
		return 0, 0, fmt.Errorf("%w: %q", ErrUnknownMethod, t.cfg.Method)
	}

	pglist := t.model.ParamsAndGrads()
	t.allocate(pglist)

	batch := float32(t.cfg.BatchSize)
	for i, pg := range pglist {
		l1 := t.cfg.L1Decay * pg.L1Decay
		l2 := t.cfg.L2Decay * pg.L2Decay

		var gsum, xsum []float32
		if t.gsum != nil {
			gsum = t.gsum[i]
		}
		if t.xsum != nil {
			xsum = t.xsum[i]
		}

		p, g := pg.Params, pg.Grads
		for j := range p {
			l2loss += l2 * p[j] * p[j] / 2
			l1loss += l1 * math32.Abs(p[j])

			l1grad := -l1
			if p[j] > 0 {
				l1grad = l1
			}
			l2grad := l2 * p[j]

			gij := (l2grad + l1grad + g[j]) / batch
			apply(&t.cfg, t.k, p, gsum, xsum, j, gij)
			g[j] = 0
		}
	}
	return l1loss, l2loss, nil
}

// allocate creates the accumulators on the first update.
func (t *Trainer) allocate(pglist []layer.ParamGrad) {
	if t.gsum != nil || !t.cfg.needsGSum() {
		return
	}
	t.gsum = make([][]float32, len(pglist))
	if t.cfg.needsXSum() {
		t.xsum = make([][]float32, len(pglist))
	}
	for i, pg := range pglist {
		t.gsum[i] = make([]float32, len(pg.Params))
		if t.xsum != nil {
			t.xsum[i] = make([]float32, len(pg.Params))
		}
	}
}
