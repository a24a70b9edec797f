package binary

import "bytes"

// ScanWindow is the number of bytes read per step by the sync scanners.
const ScanWindow = 1024

// Pattern is a byte sequence matched under a per-byte mask.
type Pattern struct {
	value []byte
	mask  []byte
}

// Literal returns a pattern matching s exactly.
func Literal(s string) Pattern {
	return Pattern{value: []byte(s), mask: bytes.Repeat([]byte{0xFF}, len(s))}
}

// Masked returns a pattern matching value under mask. Both must have the same length.
//
// The MPEG frame sync is Masked([]byte{0xFF, 0xE0}, []byte{0xFF, 0xE0}).
func Masked(value, mask []byte) Pattern {
	return Pattern{value: value, mask: mask}
}

// Len returns the pattern length in bytes.
func (p Pattern) Len() int {
	return len(p.value)
}

func (p Pattern) matchAt(buf []byte, i int) bool {
	for j, v := range p.value {
		if buf[i+j]&p.mask[j] != v {
			return false
		}
	}
	return true
}

// Validator reports whether a byte match at off is a structurally valid
// occurrence. Scanners skip matches it rejects.
type Validator func(off int64) bool

// Scan searches [from, to) for the first occurrence of p accepted by valid.
//
// The range is read in ScanWindow sized steps that overlap by p.Len()-1
// bytes, so a match spanning two windows is seen exactly once. Returns -1
// when nothing matches. A nil valid accepts every byte match.
func (sr *SafeReader) Scan(from, to int64, p Pattern, valid Validator) (int64, error) {
	to = min(to, sr.size)
	n := p.Len()
	if n == 0 || from < 0 || to-from < int64(n) {
		return -1, nil
	}

	buf := make([]byte, ScanWindow)
	for pos := from; pos+int64(n) <= to; {
		chunk := min(int64(ScanWindow), to-pos)
		window := buf[:chunk]
		if err := sr.ReadAt(window, pos, "sync scan window"); err != nil {
			return -1, err
		}

		for i := 0; i+n <= len(window); i++ {
			if p.matchAt(window, i) && (valid == nil || valid(pos+int64(i))) {
				return pos + int64(i), nil
			}
		}

		if pos+chunk >= to {
			break
		}
		pos += chunk - int64(n-1)
	}

	return -1, nil
}

// ScanBackward searches [from, to) for the last occurrence of p accepted by valid.
// Windows overlap the same way as Scan.
func (sr *SafeReader) ScanBackward(from, to int64, p Pattern, valid Validator) (int64, error) {
	to = min(to, sr.size)
	n := p.Len()
	if n == 0 || from < 0 || to-from < int64(n) {
		return -1, nil
	}

	buf := make([]byte, ScanWindow)
	for end := to; end-from >= int64(n); {
		start := max(from, end-ScanWindow)
		window := buf[:end-start]
		if err := sr.ReadAt(window, start, "reverse sync scan window"); err != nil {
			return -1, err
		}

		for i := len(window) - n; i >= 0; i-- {
			if p.matchAt(window, i) && (valid == nil || valid(start+int64(i))) {
				return start + int64(i), nil
			}
		}

		if start == from {
			break
		}
		end = start + int64(n-1)
	}

	return -1, nil
}

// ScanMarkers finds the first accepted occurrence of each marker in [from, to)
// during a single forward pass. The result maps each found marker to its
// offset; markers never seen are absent. The pass stops early once every
// marker has been found.
func (sr *SafeReader) ScanMarkers(from, to int64, markers []string, valid func(marker string, off int64) bool) (map[string]int64, error) {
	to = min(to, sr.size)
	found := make(map[string]int64, len(markers))

	longest := 0
	for _, m := range markers {
		longest = max(longest, len(m))
	}
	if longest == 0 || from < 0 || to <= from {
		return found, nil
	}

	buf := make([]byte, ScanWindow)
	for pos := from; pos < to; {
		chunk := min(int64(ScanWindow), to-pos)
		window := buf[:chunk]
		if err := sr.ReadAt(window, pos, "marker scan window"); err != nil {
			return nil, err
		}

		for i := range window {
			for _, m := range markers {
				if _, ok := found[m]; ok || i+len(m) > len(window) {
					continue
				}
				if string(window[i:i+len(m)]) != m {
					continue
				}
				if valid == nil || valid(m, pos+int64(i)) {
					found[m] = pos + int64(i)
				}
			}
		}

		if len(found) == len(markers) || pos+chunk >= to {
			break
		}
		pos += max(1, chunk-int64(longest-1))
	}

	return found, nil
}
