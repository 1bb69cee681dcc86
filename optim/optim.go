// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package optim

import "github.com/born-ml/toygrad/internal/trainer"

// Trainer applies one update rule to a model's parameters.
type Trainer = trainer.Trainer

// Model is what a Trainer drives.
type Model = trainer.Model

// Config holds trainer hyperparameters.
type Config = trainer.Config

// Result reports the losses of one Train call.
type Result = trainer.Result

// State is a snapshot of a trainer's accumulators and step counter.
type State = trainer.State

// Method names an update rule.
type Method = trainer.Method

// Methods.
const (
	MethodSGD      = trainer.MethodSGD
	MethodNesterov = trainer.MethodNesterov
	MethodAdagrad  = trainer.MethodAdagrad
	MethodAdadelta = trainer.MethodAdadelta
	MethodAdam     = trainer.MethodAdam
)

// ErrUnknownMethod is returned by the first update of a misconfigured
// trainer.
var ErrUnknownMethod = trainer.ErrUnknownMethod

// DefaultConfig returns the default hyperparameters.
func DefaultConfig() Config {
	return trainer.DefaultConfig()
}

// New creates a trainer.
func New(model Model, cfg Config) *Trainer {
	return trainer.New(model, cfg)
}

// NewSGD creates a plain or momentum SGD trainer.
func NewSGD(model Model, learningRate, momentum float32) *Trainer {
	return trainer.NewSGD(model, learningRate, momentum)
}

// NewNesterov creates a Nesterov momentum trainer.
func NewNesterov(model Model, learningRate, momentum float32) *Trainer {
	return trainer.NewNesterov(model, learningRate, momentum)
}

// NewAdagrad creates an Adagrad trainer.
func NewAdagrad(model Model, learningRate float32) *Trainer {
	return trainer.NewAdagrad(model, learningRate)
}

// NewAdadelta creates an Adadelta trainer.
func NewAdadelta(model Model, ro, eps float32) *Trainer {
	return trainer.NewAdadelta(model, ro, eps)
}

// NewAdam creates an Adam trainer.
func NewAdam(model Model, learningRate, beta1, beta2 float32) *Trainer {
	return trainer.NewAdam(model, learningRate, beta1, beta2)
}
