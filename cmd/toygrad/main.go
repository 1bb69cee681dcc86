// Package main provides the toygrad CLI.
//
// Usage:
//
//	toygrad version
//	toygrad xor   [-method sgd] [-epochs 2000] [-seed 1] [-lr 0.1] [-out xor.tgrd] [-v]
//	toygrad infer -checkpoint xor.tgrd -input 0,1
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/born-ml/toygrad/internal/checkpoint"
	"github.com/born-ml/toygrad/internal/codec"
	"github.com/born-ml/toygrad/internal/layer"
	"github.com/born-ml/toygrad/internal/network"
	"github.com/born-ml/toygrad/internal/tensor"
	"github.com/born-ml/toygrad/internal/trainer"
)

const version = "v0.1.0-dev"

func main() {
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "toygrad: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, stdout, stderr io.Writer) error {
	if len(args) == 0 {
		usage(stdout)
		return nil
	}
	switch args[0] {
	case "version":
		fmt.Fprintf(stdout, "toygrad %s\n", version)
		return nil
	case "xor":
		return runXOR(args[1:], stdout, stderr)
	case "infer":
		return runInfer(args[1:], stdout, stderr)
	case "help", "-h", "--help":
		usage(stdout)
		return nil
	default:
		usage(stderr)
		return fmt.Errorf("unknown command %q", args[0])
	}
}

func usage(w io.Writer) {
	fmt.Fprintln(w, "toygrad - a small neural network toolkit")
	fmt.Fprintf(w, "Version: %s\n\n", version)
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  version    Show version")
	fmt.Fprintln(w, "  xor        Train a 2-8-1 network on XOR")
	fmt.Fprintln(w, "  infer      Run a saved checkpoint on one input")
}

func newLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

var xorSamples = []struct {
	in   []float32
	want float32
}{
	{[]float32{0, 0}, 0},
	{[]float32{0, 1}, 1},
	{[]float32{1, 0}, 1},
	{[]float32{1, 1}, 0},
}

func xorModel() []layer.Options {
	return []layer.Options{
		{Type: layer.TypeInput, Sx: 1, Sy: 1, Sz: 2},
		{Type: layer.TypeDense, Filters: 8},
		{Type: layer.TypeSigmoid},
		{Type: layer.TypeDense, Filters: 1},
		{Type: layer.TypeRegression},
	}
}

func runXOR(args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("xor", flag.ContinueOnError)
	fs.SetOutput(stderr)
	method := fs.String("method", string(trainer.MethodSGD), "update rule: sgd, nesterov, adagrad, adadelta, adam")
	epochs := fs.Int("epochs", 2000, "passes over the four XOR samples")
	seed := fs.Uint64("seed", 1, "weight initialisation seed")
	lr := fs.Float64("lr", 0.1, "learning rate")
	batch := fs.Int("batch", 1, "samples per update")
	out := fs.String("out", "", "write a checkpoint to this path")
	precision := fs.String("precision", string(codec.F32), "checkpoint weight precision: f32, f16, f8")
	verbose := fs.Bool("v", false, "log progress every 100 epochs")
	if err := fs.Parse(args); err != nil {
		return err
	}
	log := newLogger(stderr, *verbose)

	m, err := trainer.ParseMethod(*method)
	if err != nil {
		return err
	}
	prec, err := codec.ParsePrecision(*precision)
	if err != nil {
		return err
	}

	net, err := network.New(xorModel(), network.WithSeed(*seed))
	if err != nil {
		return fmt.Errorf("failed to build network: %w", err)
	}

	cfg := trainer.DefaultConfig()
	cfg.Method = m
	cfg.LearningRate = float32(*lr)
	cfg.BatchSize = *batch
	if err := cfg.Validate(); err != nil {
		return err
	}
	tr := trainer.New(net, cfg)

	log.Info("training", "method", m, "epochs", *epochs, "seed", *seed, "lr", *lr)

	var last trainer.Result
	for epoch := range *epochs {
		var sum float32
		for _, s := range xorSamples {
			res, err := tr.Train(tensor.Vector(s.in...), layer.Values(s.want))
			if err != nil {
				return fmt.Errorf("epoch %d: %w", epoch, err)
			}
			sum += res.Loss
			last = res
		}
		if epoch%100 == 0 {
			log.Debug("epoch", "n", epoch, "loss", sum/float32(len(xorSamples)))
		}
	}

	for _, s := range xorSamples {
		y, err := net.Predict(s.in)
		if err != nil {
			return err
		}
		fmt.Fprintf(stdout, "%v -> %.4f (want %v)\n", s.in, y[0], s.want)
	}

	if *out == "" {
		return nil
	}
	cp, err := checkpoint.Capture(net, tr, prec)
	if err != nil {
		return err
	}
	cp.Trainer.Loss = last.Loss
	cp = cp.WithMetadata(map[string]string{
		"task": "xor",
		"seed": strconv.FormatUint(*seed, 10),
	})
	if err := checkpoint.Save(*out, cp); err != nil {
		return err
	}
	log.Info("checkpoint saved", "path", *out, "precision", prec, "step", tr.Step())
	return nil
}

func runInfer(args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("infer", flag.ContinueOnError)
	fs.SetOutput(stderr)
	path := fs.String("checkpoint", "", "checkpoint file to load")
	input := fs.String("input", "", "comma-separated input values")
	verbose := fs.Bool("v", false, "verbose logging")
	if err := fs.Parse(args); err != nil {
		return err
	}
	log := newLogger(stderr, *verbose)

	if *path == "" {
		return errors.New("-checkpoint is required")
	}
	values, err := parseValues(*input)
	if err != nil {
		return err
	}

	cp, err := checkpoint.Load(*path)
	if err != nil {
		return err
	}
	log.Debug("checkpoint loaded", "path", *path, "layers", len(cp.Model), "created", cp.CreatedAt)

	p, err := cp.Predictor()
	if err != nil {
		return err
	}
	y, err := p.Predict(values)
	if err != nil {
		return err
	}

	parts := make([]string, len(y))
	for i, v := range y {
		parts[i] = strconv.FormatFloat(float64(v), 'f', 4, 32)
	}
	fmt.Fprintln(stdout, strings.Join(parts, " "))
	return nil
}

func parseValues(s string) ([]float32, error) {
	if strings.TrimSpace(s) == "" {
		return nil, errors.New("-input is required")
	}
	fields := strings.Split(s, ",")
	out := make([]float32, len(fields))
	for i, f := range fields {
		v, err := strconv.ParseFloat(strings.TrimSpace(f), 32)
		if err != nil {
			return nil, fmt.Errorf("invalid input value %q: %w", f, err)
		}
		out[i] = float32(v)
	}
	return out, nil
}
