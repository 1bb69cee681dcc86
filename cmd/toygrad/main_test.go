package main

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRun_Version(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, run([]string{"version"}, &out, &out))
	assert.Contains(t, out.String(), version)
}

func TestRun_UnknownCommand(t *testing.T) {
	var out bytes.Buffer
	assert.Error(t, run([]string{"serve"}, &out, &out))
}

func TestRun_XORThenInfer(t *testing.T) {
	if testing.Short() {
		t.Skip("trains a network")
	}
	path := filepath.Join(t.TempDir(), "xor.tgrd")

	var out, logs bytes.Buffer
	err := run([]string{"xor", "-method", "adam", "-lr", "0.05", "-epochs", "1500", "-seed", "3", "-out", path}, &out, &logs)
	require.NoError(t, err)
	assert.Equal(t, 4, strings.Count(out.String(), "->"))
	assert.Contains(t, logs.String(), "checkpoint saved")

	out.Reset()
	require.NoError(t, run([]string{"infer", "-checkpoint", path, "-input", "0, 1"}, &out, &logs))
	assert.NotEmpty(t, strings.TrimSpace(out.String()))
}

func TestRun_XORBadMethod(t *testing.T) {
	var out bytes.Buffer
	err := run([]string{"xor", "-method", "rmsprop", "-epochs", "1"}, &out, &out)
	assert.Error(t, err)
}

func TestParseValues(t *testing.T) {
	got, err := parseValues("0, 1.5,-2")
	require.NoError(t, err)
	assert.Equal(t, []float32{0, 1.5, -2}, got)

	_, err = parseValues("")
	assert.Error(t, err)
	_, err = parseValues("1,x")
	assert.Error(t, err)
}
