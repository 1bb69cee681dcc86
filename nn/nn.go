// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package nn

import (
	"github.com/born-ml/toygrad/internal/checkpoint"
	"github.com/born-ml/toygrad/internal/codec"
	"github.com/born-ml/toygrad/internal/layer"
	"github.com/born-ml/toygrad/internal/network"
	"github.com/born-ml/toygrad/internal/parallel"
	"github.com/born-ml/toygrad/internal/trainer"
)

// Layers

// Layer is the contract shared by every layer variant.
type Layer = layer.Layer

// Options describes one layer.
type Options = layer.Options

// Target is the value an output layer compares against.
type Target = layer.Target

// ParamGrad is a view of one trainable tensor and its gradient.
type ParamGrad = layer.ParamGrad

// Layer type tags.
const (
	TypeInput      = layer.TypeInput
	TypeDense      = layer.TypeDense
	TypeConv       = layer.TypeConv
	TypePool       = layer.TypePool
	TypeDropout    = layer.TypeDropout
	TypeMaxout     = layer.TypeMaxout
	TypeRelu       = layer.TypeRelu
	TypeLeakyRelu  = layer.TypeLeakyRelu
	TypeSigmoid    = layer.TypeSigmoid
	TypeTanh       = layer.TypeTanh
	TypeRegression = layer.TypeRegression
	TypeSoftmax    = layer.TypeSoftmax
)

// Class returns a classification target for softmax outputs.
func Class(i int) Target {
	return layer.Class(i)
}

// Values returns a regression target.
func Values(v ...float32) Target {
	return layer.Values(v...)
}

// Float returns a pointer to v, for optional Options fields.
func Float(v float32) *float32 {
	return layer.Float(v)
}

// Errors.
var (
	ErrConfiguration = layer.ErrConfiguration
	ErrPrecondition  = layer.ErrPrecondition
)

// ConfigError locates a construction failure in a layer list.
type ConfigError = layer.ConfigError

// Networks

// Network is a resolved feed-forward network.
type Network = network.Network

// Model is a plain-data network description.
type Model = network.Model

// Predictor is a goroutine-safe inference routine over a Model.
type Predictor = network.Predictor

// Option configures network construction.
type Option = network.Option

// New resolves descs into a network.
func New(descs []Options, opts ...Option) (*Network, error) {
	return network.New(descs, opts...)
}

// ParseModel decodes a JSON model.
func ParseModel(data []byte) (Model, error) {
	return network.ParseModel(data)
}

// NewPredictor builds a predictor from an exported model.
func NewPredictor(m Model) (*Predictor, error) {
	return network.NewPredictor(m)
}

// WithSeed seeds weight initialisation and dropout.
func WithSeed(seed uint64) Option {
	return network.WithSeed(seed)
}

// WithParallel enables multi-goroutine Dense and Conv layers.
func WithParallel() Option {
	return network.WithParallel(parallel.DefaultConfig())
}

// Weight precision

// Precision selects how exported parameters are encoded.
type Precision = codec.Precision

// Precisions.
const (
	F32 = codec.F32
	F16 = codec.F16
	F8  = codec.F8
)

// Checkpoints

// Checkpoint is a network plus optional trainer state.
type Checkpoint = checkpoint.Checkpoint

// CaptureCheckpoint snapshots net and, when tr is non-nil, its trainer.
func CaptureCheckpoint(net *Network, tr *trainer.Trainer, precision Precision) (*Checkpoint, error) {
	return checkpoint.Capture(net, tr, precision)
}

// SaveCheckpoint writes cp to path.
func SaveCheckpoint(path string, cp *Checkpoint) error {
	return checkpoint.Save(path, cp)
}

// LoadCheckpoint reads a checkpoint file.
func LoadCheckpoint(path string) (*Checkpoint, error) {
	return checkpoint.Load(path)
}
