// Package vorbis parses Vorbis comment lists.
//
// Vorbis comments are used by both FLAC and Ogg Vorbis formats.
// The format is identical: a vendor string followed by UTF-8 strings in
// "KEY=VALUE" format, all length-prefixed little-endian.
package vorbis

import (
	"encoding/binary"
	"fmt"
	"strings"

	"github.com/simonhull/audiodir/internal/types"
)

// Field is one KEY=VALUE comment.
type Field struct {
	Key   string
	Value string
}

// Comments is a decoded comment list.
type Comments struct {
	Vendor string
	Fields []Field

	// Truncated is set when the declared count ran past the data.
	Truncated bool
}

// Parse decodes a comment list (without any packet type or framing
// prefix). Comments without '=' are skipped.
func Parse(data []byte) (*Comments, error) {
	if len(data) < 4 {
		return nil, fmt.Errorf("comment list too short: %d bytes", len(data))
	}

	vendorLen := int(binary.LittleEndian.Uint32(data))
	offset := 4
	if vendorLen < 0 || offset+vendorLen > len(data) {
		return nil, fmt.Errorf("truncated vendor string")
	}
	c := &Comments{Vendor: string(data[offset : offset+vendorLen])}
	offset += vendorLen

	if offset+4 > len(data) {
		return nil, fmt.Errorf("truncated comment count")
	}
	count := binary.LittleEndian.Uint32(data[offset:])
	offset += 4

	for i := uint32(0); i < count; i++ {
		if offset+4 > len(data) {
			c.Truncated = true
			break
		}
		n := int(binary.LittleEndian.Uint32(data[offset:]))
		offset += 4
		if n < 0 || offset+n > len(data) {
			c.Truncated = true
			break
		}

		if key, value, ok := strings.Cut(string(data[offset:offset+n]), "="); ok && key != "" {
			c.Fields = append(c.Fields, Field{Key: key, Value: value})
		}
		offset += n
	}

	return c, nil
}

// Get returns the first value for key, compared case-insensitively.
func (c *Comments) Get(key string) string {
	for _, f := range c.Fields {
		if strings.EqualFold(f.Key, key) {
			return f.Value
		}
	}
	return ""
}

// Values returns the fields relevant to directory reconciliation.
func (c *Comments) Values() types.TagValues {
	return types.TagValues{Artist: c.Get("ARTIST"), Album: c.Get("ALBUM")}
}

// Warning describes a truncated list, or returns false.
func (c *Comments) Warning(offset int64) (types.Warning, bool) {
	if !c.Truncated {
		return types.Warning{}, false
	}
	return types.Warning{Stage: "vorbis", Message: "comment list truncated", Offset: offset}, true
}

// Encode builds a comment list, for test fixtures and tools.
func Encode(vendor string, fields ...Field) []byte {
	var b []byte
	b = binary.LittleEndian.AppendUint32(b, uint32(len(vendor)))
	b = append(b, vendor...)
	b = binary.LittleEndian.AppendUint32(b, uint32(len(fields)))
	for _, f := range fields {
		kv := f.Key + "=" + f.Value
		b = binary.LittleEndian.AppendUint32(b, uint32(len(kv)))
		b = append(b, kv...)
	}
	return b
}
