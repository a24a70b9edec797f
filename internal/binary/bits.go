package binary

import (
	"bytes"
	"fmt"

	"github.com/eaburns/bit"
)

// Fields splits b into consecutive big-endian bit fields of the given widths,
// starting at the most significant bit of b[0]. Fields may straddle byte
// boundaries.
//
// Example, the packed part of FLAC STREAMINFO:
//
//	f, err := binary.Fields(data[10:18], 20, 3, 5, 36)
//	sampleRate, channels := f[0], f[1]+1
func Fields(b []byte, widths ...uint) ([]uint64, error) {
	var total uint
	for _, w := range widths {
		total += w
	}
	if total > uint(len(b))*8 {
		return nil, fmt.Errorf("bit fields need %d bits, have %d", total, len(b)*8)
	}

	br := bit.NewReader(bytes.NewReader(b))
	return br.ReadFields(widths...)
}
