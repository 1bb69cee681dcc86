package trainer

import (
	"fmt"

	"github.com/born-ml/toygrad/internal/layer"
)

// State is a snapshot of a trainer's mutable state: the step counter and
// copies of its accumulators.
type State struct {
	Step int
	GSum [][]float32
	XSum [][]float32
}

// State returns a deep copy of the trainer's state.
func (t *Trainer) State() State {
	return State{
		Step: t.k,
		GSum: cloneBuffers(t.gsum),
		XSum: cloneBuffers(t.xsum),
	}
}

// LoadState restores a snapshot taken from a trainer over a model with the
// same parameter layout. The buffers are copied.
func (t *Trainer) LoadState(s State) error {
	if s.Step < 0 {
		return fmt.Errorf("%w: negative step %d", ErrStateMismatch, s.Step)
	}
	if err := t.checkMethod(s); err != nil {
		return err
	}
	pglist := t.model.ParamsAndGrads()
	if err := checkBuffers("gsum", s.GSum, pglist); err != nil {
		return err
	}
	if err := checkBuffers("xsum", s.XSum, pglist); err != nil {
		return err
	}

	t.k = s.Step
	t.gsum = cloneBuffers(s.GSum)
	t.xsum = cloneBuffers(s.XSum)
	return nil
}

// checkMethod verifies that the snapshot carries exactly the accumulators
// this trainer's method keeps. A snapshot taken before the first update has
// none, which is always accepted.
func (t *Trainer) checkMethod(s State) error {
	if s.GSum == nil {
		if s.XSum != nil {
			return fmt.Errorf("%w: xsum present without gsum", ErrStateMismatch)
		}
		return nil
	}
	if !t.cfg.needsGSum() {
		return fmt.Errorf("%w: method %s keeps no accumulators", ErrStateMismatch, t.cfg.Method)
	}
	if t.cfg.needsXSum() != (s.XSum != nil) {
		return fmt.Errorf("%w: xsum presence does not match method %s", ErrStateMismatch, t.cfg.Method)
	}
	return nil
}

func checkBuffers(name string, bufs [][]float32, pglist []layer.ParamGrad) error {
	if bufs == nil {
		return nil
	}
	if len(bufs) != len(pglist) {
		return fmt.Errorf("%w: %s has %d buffers, model has %d parameter tensors", ErrStateMismatch, name, len(bufs), len(pglist))
	}
	for i, b := range bufs {
		if len(b) != len(pglist[i].Params) {
			return fmt.Errorf("%w: %s[%d] has %d values, want %d", ErrStateMismatch, name, i, len(b), len(pglist[i].Params))
		}
	}
	return nil
}

func cloneBuffers(bufs [][]float32) [][]float32 {
	if bufs == nil {
		return nil
	}
	out := make([][]float32, len(bufs))
	for i, b := range bufs {
		out[i] = append([]float32(nil), b...)
	}
	return out
}
