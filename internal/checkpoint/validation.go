package checkpoint

import (
	"fmt"
	"strconv"
	"strings"
)

// ValidateTensors checks that the accumulator table is well formed:
// names are gsum.<i> / xsum.<i> with consecutive indices per prefix in
// file order, sizes match lengths and every region lies inside the data
// section without overlapping its neighbour.
func ValidateTensors(metas []TensorMeta, dataSize int64) error {
	next := map[string]int{}
	var end int64
	for _, m := range metas {
		prefix, index := splitName(m.Name)
		if prefix != "gsum" && prefix != "xsum" {
			return &ValidationError{Type: "bad_name", Tensor: m.Name, Details: "want gsum.<i> or xsum.<i>"}
		}
		if index != next[prefix] {
			return &ValidationError{Type: "bad_name", Tensor: m.Name, Details: fmt.Sprintf("expected index %d", next[prefix])}
		}
		next[prefix]++

		if m.Offset < 0 || m.Size < 0 || m.Length < 0 {
			return &ValidationError{Type: "negative_offset", Tensor: m.Name,
				Details: fmt.Sprintf("offset=%d, size=%d, length=%d", m.Offset, m.Size, m.Length)}
		}
		if m.Size != int64(4*m.Length) {
			return &ValidationError{Type: "size_mismatch", Tensor: m.Name,
				Details: fmt.Sprintf("%d float32 values need %d bytes, got %d", m.Length, 4*m.Length, m.Size)}
		}
		if m.Offset < end {
			return &ValidationError{Type: "offset_overlap", Tensor: m.Name,
				Details: fmt.Sprintf("starts at %d before previous end %d", m.Offset, end)}
		}
		if m.Offset+m.Size > dataSize {
			return &ValidationError{Type: "out_of_bounds", Tensor: m.Name,
				Details: fmt.Sprintf("offset %d + size %d > data_size %d", m.Offset, m.Size, dataSize)}
		}
		end = m.Offset + m.Size
	}
	return nil
}

// splitName parses "<prefix>.<index>"; index is -1 when malformed.
func splitName(name string) (string, int) {
	prefix, num, ok := strings.Cut(name, ".")
	if !ok {
		return name, -1
	}
	i, err := strconv.Atoi(num)
	if err != nil || i < 0 {
		return prefix, -1
	}
	return prefix, i
}
