// Package id3v2 parses ID3v2.3 and ID3v2.4 tags.
package id3v2

import (
	"github.com/simonhull/audiodir/internal/binary"
	"github.com/simonhull/audiodir/internal/types"
)

// HeaderSize is the size of an ID3v2 header or footer.
const HeaderSize = 10

// Markers for the header at the start of a tag and the footer at its end.
const (
	HeaderMarker = "ID3"
	FooterMarker = "3DI"
)

// Header flag bits.
const (
	FlagUnsynchronisation = 0x80
	FlagExtendedHeader    = 0x40
	FlagExperimental      = 0x20
	FlagFooter            = 0x10

	flagsUndefined = 0x0F
)

// Header is an ID3v2 header or footer.
type Header struct {
	Version  uint8
	Revision uint8
	Flags    uint8

	// Size is the tag body size, excluding header and footer.
	Size uint32
}

// Unsynchronised reports whether the unsynchronisation flag is set.
func (h Header) Unsynchronised() bool { return h.Flags&FlagUnsynchronisation != 0 }

// HasFooter reports whether a footer follows the body.
func (h Header) HasFooter() bool { return h.Flags&FlagFooter != 0 }

// TotalSize returns the number of bytes the tag occupies in the file.
func (h Header) TotalSize() int64 {
	n := HeaderSize + int64(h.Size)
	if h.HasFooter() {
		n += HeaderSize
	}
	return n
}

// ReadHeader reads a header (marker "ID3") or footer (marker "3DI") at off.
//
// ok is false when the bytes at off are not a plausible header: wrong
// marker, 0xFF version bytes or a size that is not synchsafe. Version and
// flag validation is left to Parse, so callers that only need to skip a tag
// can do so even when its contents are unsupported.
func ReadHeader(sr *binary.SafeReader, off int64, marker string) (Header, bool, error) {
	if off < 0 || off+HeaderSize > sr.Size() {
		return Header{}, false, nil
	}

	b, err := sr.Bytes(off, HeaderSize, "ID3v2 header")
	if err != nil {
		return Header{}, false, err
	}

	h, ok := decodeHeader(b, marker)
	return h, ok, nil
}

func decodeHeader(b []byte, marker string) (Header, bool) {
	if string(b[:3]) != marker || b[3] == 0xFF || b[4] == 0xFF || !binary.IsSynchsafe(b[6:10]) {
		return Header{}, false
	}
	return Header{
		Version:  b[3],
		Revision: b[4],
		Flags:    b[5],
		Size:     binary.DecodeSynchsafe(b[6:10]),
	}, true
}

// validate applies the checks that make a tag unreadable.
func (h Header) validate(path string, off int64) error {
	if h.Version != 3 && h.Version != 4 {
		return &types.UnsupportedVersionError{Path: path, Version: h.Version}
	}
	if h.Flags&flagsUndefined != 0 {
		return &types.MalformedTagError{Path: path, Tag: "ID3v2", Offset: off + 5, Reason: "undefined header flags set"}
	}
	if h.Flags&FlagExtendedHeader != 0 {
		return &types.MalformedTagError{Path: path, Tag: "ID3v2", Offset: off + 5, Reason: "extended header not supported"}
	}
	return nil
}

// resync reverses unsynchronisation by dropping the 0x00 stuffed after
// every 0xFF.
func resync(b []byte) []byte {
	out := make([]byte, 0, len(b))
	for i := 0; i < len(b); i++ {
		out = append(out, b[i])
		if b[i] == 0xFF && i+1 < len(b) && b[i+1] == 0x00 {
			i++
		}
	}
	return out
}
