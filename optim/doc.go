// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package optim provides the trainers that fit a network's parameters.
//
// # Overview
//
// A Trainer runs one forward and backward pass per sample and applies an
// update every BatchSize samples, using one of:
//   - SGD, with optional momentum
//   - Nesterov momentum
//   - Adagrad
//   - Adadelta
//   - Adam
//
// L1 and L2 weight decay are applied per parameter tensor, scaled by each
// layer's own decay multipliers.
//
// # Basic Usage
//
//	tr := optim.NewSGD(net, 0.1, 0.9)
//	for range 1000 {
//	    for _, s := range samples {
//	        res, err := tr.Train(s.Input, nn.Values(s.Want...))
//	        if err != nil {
//	            return err
//	        }
//	        _ = res.Loss
//	    }
//	}
//
// Custom hyperparameters go through Config:
//
//	cfg := optim.DefaultConfig()
//	cfg.Method = optim.MethodAdam
//	cfg.BatchSize = 8
//	tr := optim.New(net, cfg)
package optim
