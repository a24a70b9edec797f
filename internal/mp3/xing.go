package mp3

import (
	"strconv"
	"strings"

	"github.com/simonhull/audiodir/internal/binary"
)

// Xing header flags.
const (
	xingFrames  = 0x1
	xingBytes   = 0x2
	xingTOC     = 0x4
	xingQuality = 0x8
)

// vbriOffset is where Fraunhofer's VBRI header sits after the frame header.
const vbriOffset = 4 + 32

// VBRHeader is the information found in a Xing, Info or VBRI header.
type VBRHeader struct {
	Marker  string // "Xing", "Info" or "VBRI"
	Frames  int64
	Bytes   int64
	Quality int
	LAME    *LAMETag
}

// readVBRHeader looks for a Xing/Info header after the side information of
// the frame at off, then for a VBRI header. It returns nil when neither is
// present.
func readVBRHeader(sr *binary.SafeReader, off int64, h FrameHeader) *VBRHeader {
	xoff := off + 4 + int64(h.SideInfoSize())
	if h.Protected {
		xoff += 2
	}

	if marker, err := sr.Bytes(xoff, 4, "Xing marker"); err == nil {
		if m := string(marker); m == "Xing" || m == "Info" {
			return readXing(sr, xoff, m)
		}
	}

	if marker, err := sr.Bytes(off+vbriOffset, 4, "VBRI marker"); err == nil && string(marker) == "VBRI" {
		return readVBRI(sr, off+vbriOffset)
	}
	return nil
}

func readXing(sr *binary.SafeReader, off int64, marker string) *VBRHeader {
	v := &VBRHeader{Marker: marker}
	flags, err := binary.ReadBE[uint32](sr, off+4, "Xing flags")
	if err != nil {
		return v
	}

	pos := off + 8
	if flags&xingFrames != 0 {
		n, err := binary.ReadBE[uint32](sr, pos, "Xing frame count")
		if err != nil {
			return v
		}
		v.Frames = int64(n)
		pos += 4
	}
	if flags&xingBytes != 0 {
		n, err := binary.ReadBE[uint32](sr, pos, "Xing byte count")
		if err != nil {
			return v
		}
		v.Bytes = int64(n)
		pos += 4
	}
	if flags&xingTOC != 0 {
		pos += 100
	}
	if flags&xingQuality != 0 {
		q, err := binary.ReadBE[uint32](sr, pos, "Xing quality")
		if err != nil {
			return v
		}
		v.Quality = int(q)
		pos += 4
	}

	v.LAME = readLAMETag(sr, pos)
	return v
}

func readVBRI(sr *binary.SafeReader, off int64) *VBRHeader {
	v := &VBRHeader{Marker: "VBRI"}
	r := binary.NewChainReader(binary.NewReader(sr, off+4))
	_ = binary.ReadChained[uint16](r, "VBRI version")
	_ = binary.ReadChained[uint16](r, "VBRI delay")
	quality := binary.ReadChained[uint16](r, "VBRI quality")
	nbytes := binary.ReadChained[uint32](r, "VBRI byte count")
	frames := binary.ReadChained[uint32](r, "VBRI frame count")
	if r.Error() != nil {
		return v
	}
	v.Quality = int(quality)
	v.Bytes = int64(nbytes)
	v.Frames = int64(frames)
	return v
}

// LAME VBR method codes, as stored in the low nibble of the tag's ninth byte.
const (
	MethodUnknown  = 0
	MethodCBR      = 1
	MethodABR      = 2
	MethodVBRRH    = 3 // --vbr-old
	MethodVBRMTRH  = 4 // --vbr-new
	MethodVBRMT    = 5
	MethodCBR2Pass = 8
	MethodABR2Pass = 9
)

const lameTagSize = 36

// LAMETag is the LAME extension that follows the Xing fields.
type LAMETag struct {
	Encoder    string // e.g. "LAME3.99r"
	Major      int
	Minor      int
	Revision   int
	Method     int
	Lowpass    int // Hz
	ATH        int
	ABRBitrate int // kbps; CBR bitrate or ABR target, 255 means 255 or more
	Preset     int
}

// readLAMETag decodes a LAME tag at off, or returns nil.
func readLAMETag(sr *binary.SafeReader, off int64) *LAMETag {
	b, err := sr.Bytes(off, lameTagSize, "LAME tag")
	if err != nil || string(b[:4]) != "LAME" {
		return nil
	}

	t := &LAMETag{
		Encoder:    strings.TrimRight(string(b[:9]), " \x00"),
		Revision:   int(b[9] >> 4),
		Method:     int(b[9] & 0x0F),
		Lowpass:    int(b[10]) * 100,
		ATH:        int(b[19] & 0x0F),
		ABRBitrate: int(b[20]),
		Preset:     int(uint16(b[26])<<8|uint16(b[27])) & 0x07FF,
	}
	t.Major, t.Minor = parseLAMEVersion(t.Encoder)
	return t
}

// parseLAMEVersion extracts 3 and 99 from "LAME3.99r".
func parseLAMEVersion(s string) (major, minor int) {
	s = strings.TrimPrefix(s, "LAME")
	maj, rest, ok := strings.Cut(s, ".")
	if !ok {
		return 0, 0
	}
	end := 0
	for end < len(rest) && rest[end] >= '0' && rest[end] <= '9' {
		end++
	}
	major, _ = strconv.Atoi(maj)
	minor, _ = strconv.Atoi(rest[:end])
	return major, minor
}

// atLeast reports whether the tag's version is major.minor or newer.
func (t *LAMETag) atLeast(major, minor int) bool {
	return t.Major > major || (t.Major == major && t.Minor >= minor)
}
