// Package codec encodes raw float32 buffers as self-describing text tokens.
//
// A token has the form
//
//	<precision>|<count>|<payload>            (f32, f16)
//	<precision>|<count>|<scale>|<payload>    (f8)
//
// where payload is standard base64. f32 stores the little-endian IEEE-754
// bytes and round-trips bit-exactly. f16 keeps only the upper two bytes of
// each float32 (truncation, not IEEE half precision). f8 stores one
// affine-quantised byte per value: byte = round(v*scale) + 127.
package codec

import (
	"encoding/base64"
	"encoding/binary"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Precision selects the encoded width of each value.
type Precision string

// Supported precisions.
const (
	F32 Precision = "f32"
	F16 Precision = "f16"
	F8  Precision = "f8"
)

// ParsePrecision validates a precision tag.
func ParsePrecision(s string) (Precision, error) {
	switch p := Precision(s); p {
	case F32, F16, F8:
		return p, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedPrecision, s)
	}
}

// f8 maps the largest magnitude to this many quantisation steps.
const f8Steps = 126

// Encode converts buf into a text token at the given precision.
func Encode(buf []float32, precision Precision) (string, error) {
	var sb strings.Builder
	sb.WriteString(string(precision))
	sb.WriteByte('|')
	sb.WriteString(strconv.Itoa(len(buf)))
	sb.WriteByte('|')

	var raw []byte
	switch precision {
	case F32:
		raw = make([]byte, 4*len(buf))
		for i, v := range buf {
			binary.LittleEndian.PutUint32(raw[4*i:], math.Float32bits(v))
		}
	case F16:
		raw = make([]byte, 2*len(buf))
		for i, v := range buf {
			binary.LittleEndian.PutUint16(raw[2*i:], uint16(math.Float32bits(v)>>16))
		}
	case F8:
		scale := f8Scale(buf)
		raw = make([]byte, len(buf))
		for i, v := range buf {
			raw[i] = quantise(v, scale)
		}
		sb.WriteString(strconv.FormatFloat(float64(scale), 'g', -1, 32))
		sb.WriteByte('|')
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedPrecision, precision)
	}

	sb.WriteString(base64.StdEncoding.EncodeToString(raw))
	return sb.String(), nil
}

// quantise maps v onto [0, 254]. Values beyond the scale saturate and NaN
// maps to the zero code.
func quantise(v, scale float32) byte {
	q := math.Round(float64(v) * float64(scale))
	if math.IsNaN(q) {
		q = 0
	}
	return byte(min(max(q, -127), 127) + 127)
}

// f8Scale picks the multiplier that maps max|v| onto f8Steps.
func f8Scale(buf []float32) float32 {
	var peak float32
	for _, v := range buf {
		if a := float32(math.Abs(float64(v))); a > peak {
			peak = a
		}
	}
	if peak == 0 || math.IsInf(float64(peak), 0) || math.IsNaN(float64(peak)) {
		return 1
	}
	return f8Steps / peak
}

// Decode parses a token produced by Encode.
func Decode(text string) ([]float32, error) {
	parts := strings.Split(text, "|")
	if len(parts) < 3 {
		return nil, fmt.Errorf("%w: expected at least 3 fields, got %d", ErrMalformed, len(parts))
	}

	precision, err := ParsePrecision(parts[0])
	if err != nil {
		return nil, err
	}

	count, err := strconv.Atoi(parts[1])
	if err != nil || count < 0 {
		return nil, fmt.Errorf("%w: invalid element count %q", ErrMalformed, parts[1])
	}

	payload := parts[2]
	var scale float32
	if precision == F8 {
		if len(parts) != 4 {
			return nil, fmt.Errorf("%w: f8 token needs 4 fields, got %d", ErrMalformed, len(parts))
		}
		s, err := strconv.ParseFloat(parts[2], 32)
		if err != nil || s <= 0 {
			return nil, fmt.Errorf("%w: invalid f8 scale %q", ErrMalformed, parts[2])
		}
		scale = float32(s)
		payload = parts[3]
	} else if len(parts) != 3 {
		return nil, fmt.Errorf("%w: %s token needs 3 fields, got %d", ErrMalformed, precision, len(parts))
	}

	raw, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformed, err)
	}

	width := map[Precision]int{F32: 4, F16: 2, F8: 1}[precision]
	if len(raw)%width != 0 || len(raw)/width != count {
		return nil, fmt.Errorf("%w: %d elements of %d bytes do not match a %d-byte payload", ErrMalformed, count, width, len(raw))
	}

	out := make([]float32, count)
	switch precision {
	case F32:
		for i := range out {
			out[i] = math.Float32frombits(binary.LittleEndian.Uint32(raw[4*i:]))
		}
	case F16:
		for i := range out {
			out[i] = math.Float32frombits(uint32(binary.LittleEndian.Uint16(raw[2*i:])) << 16)
		}
	case F8:
		for i, b := range raw {
			out[i] = (float32(b) - 127) / scale
		}
	}
	return out, nil
}
