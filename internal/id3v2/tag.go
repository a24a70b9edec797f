package id3v2

import (
	"encoding/binary"
	"fmt"

	bin "github.com/simonhull/audiodir/internal/binary"
	"github.com/simonhull/audiodir/internal/types"
)

// Frame flag bits for ID3v2.4; ID3v2.3 uses different positions.
const (
	v4FlagGrouping    = 0x0040
	v4FlagCompression = 0x0008
	v4FlagEncryption  = 0x0004
	v4FlagUnsync      = 0x0002
	v4FlagDataLength  = 0x0001
	v3FlagCompression = 0x0080
	v3FlagEncryption  = 0x0040
	v3FlagGrouping    = 0x0020
)

const (
	frameHeaderSize = 10

	// MP3ext writes this over the start of the padding.
	mp3extPadding = "MP3e"
)

// Tag is a parsed ID3v2 tag.
type Tag struct {
	Header Header

	// Offset is where the tag header starts in the file.
	Offset int64

	Frames []Frame

	// Padding is the number of bytes after the last frame. Under the drop
	// policy it includes the broken frame and everything after it.
	Padding int64

	// Dropped is set when a broken frame was discarded under the drop policy.
	Dropped bool
}

// Parse reads the ID3v2 tag whose header starts at off.
//
// Parse returns nil, nil when there is no tag at off. An unsupported major
// version yields *types.UnsupportedVersionError; callers can still skip the
// tag with ReadHeader. Frames are read until the body is consumed, padding
// begins, or a frame overruns the body, which policy resolves.
func Parse(sr *bin.SafeReader, off int64, policy types.FramePolicy) (*Tag, error) {
	h, ok, err := ReadHeader(sr, off, HeaderMarker)
	if err != nil || !ok {
		return nil, err
	}
	if err := h.validate(sr.Path(), off); err != nil {
		return nil, err
	}

	if off+h.TotalSize() > sr.Size() {
		return nil, &types.MalformedTagError{
			Path:   sr.Path(),
			Tag:    "ID3v2",
			Offset: off,
			Reason: fmt.Sprintf("tag size %d exceeds file size %d", h.TotalSize(), sr.Size()),
		}
	}

	body, err := sr.Bytes(off+HeaderSize, int(h.Size), "ID3v2 body")
	if err != nil {
		return nil, err
	}

	return decodeBody(h, off, body, sr.Path(), policy)
}

// Decode parses a tag held entirely in memory.
func Decode(data []byte, policy types.FramePolicy) (*Tag, error) {
	if len(data) < HeaderSize {
		return nil, &types.MalformedTagError{Tag: "ID3v2", Reason: "short header"}
	}
	h, ok := decodeHeader(data[:HeaderSize], HeaderMarker)
	if !ok {
		return nil, &types.MalformedTagError{Tag: "ID3v2", Reason: "bad header"}
	}
	if err := h.validate("", 0); err != nil {
		return nil, err
	}
	if int64(len(data)) < HeaderSize+int64(h.Size) {
		return nil, &types.MalformedTagError{Tag: "ID3v2", Reason: "truncated body"}
	}
	return decodeBody(h, 0, data[HeaderSize:HeaderSize+int(h.Size)], "", policy)
}

func decodeBody(h Header, off int64, body []byte, path string, policy types.FramePolicy) (*Tag, error) {
	if h.Version == 3 && h.Unsynchronised() {
		body = resync(body)
	}

	tag := &Tag{Header: h, Offset: off}
	bodyStart := off + HeaderSize

	pos := 0
	for pos+frameHeaderSize <= len(body) {
		id := string(body[pos : pos+4])

		// Padding, or the MP3ext bug that writes "MP3e" into it.
		if id[0] == 0 || id == mp3extPadding {
			break
		}
		if !validFrameID(id) {
			return nil, &types.MalformedTagError{
				Path:   path,
				Tag:    "ID3v2",
				Offset: bodyStart + int64(pos),
				Reason: fmt.Sprintf("invalid frame identifier %q", id),
			}
		}

		var size int64
		if h.Version >= 4 {
			size = int64(bin.DecodeSynchsafe(body[pos+4 : pos+8]))
		} else {
			size = int64(binary.BigEndian.Uint32(body[pos+4 : pos+8]))
		}
		flags := binary.BigEndian.Uint16(body[pos+8 : pos+10])

		remaining := int64(len(body) - pos - frameHeaderSize)
		if size > remaining {
			if policy == types.FramePolicyError {
				return nil, &types.BrokenFrameError{
					Path:      path,
					FrameID:   id,
					Offset:    bodyStart + int64(pos),
					Size:      size,
					Remaining: remaining,
				}
			}
			tag.Dropped = true
			break
		}

		data := body[pos+frameHeaderSize : pos+frameHeaderSize+int(size)]
		tag.Frames = append(tag.Frames, newFrame(h, id, flags, data))
		pos += frameHeaderSize + int(size)
	}

	tag.Padding = int64(len(body) - pos)
	return tag, nil
}

func newFrame(h Header, id string, flags uint16, data []byte) Frame {
	kind, _ := Lookup(id)
	f := Frame{ID: id, Flags: flags, Data: data, Kind: kind}

	body, ok := frameBody(h, flags, data)
	if !ok {
		// Compressed or encrypted bodies stay opaque.
		f.Kind = KindRaw
		return f
	}
	f.decode(body)
	return f
}

// frameBody strips per-frame encodings from data.
func frameBody(h Header, flags uint16, data []byte) ([]byte, bool) {
	if h.Version == 3 {
		if flags&(v3FlagCompression|v3FlagEncryption) != 0 {
			return nil, false
		}
		if flags&v3FlagGrouping != 0 {
			if len(data) < 1 {
				return nil, false
			}
			data = data[1:]
		}
		return data, true
	}

	if flags&(v4FlagCompression|v4FlagEncryption) != 0 {
		return nil, false
	}
	if flags&v4FlagGrouping != 0 {
		if len(data) < 1 {
			return nil, false
		}
		data = data[1:]
	}
	if flags&v4FlagDataLength != 0 {
		if len(data) < 4 {
			return nil, false
		}
		data = data[4:]
	}
	if flags&v4FlagUnsync != 0 || h.Unsynchronised() {
		data = resync(data)
	}
	return data, true
}

func validFrameID(id string) bool {
	for i := 0; i < 4; i++ {
		c := id[i]
		if (c < 'A' || c > 'Z') && (c < '0' || c > '9') {
			return false
		}
	}
	return true
}

// Frame returns the first frame with the given identifier.
func (t *Tag) Frame(id string) *Frame {
	for i := range t.Frames {
		if t.Frames[i].ID == id {
			return &t.Frames[i]
		}
	}
	return nil
}

// Text returns the first value of the first frame with the identifier.
func (t *Tag) Text(id string) string {
	if f := t.Frame(id); f != nil {
		return f.Text()
	}
	return ""
}

// Artist returns TPE1.
func (t *Tag) Artist() string { return t.Text("TPE1") }

// Album returns TALB.
func (t *Tag) Album() string { return t.Text("TALB") }

// Values returns the fields relevant to directory reconciliation.
func (t *Tag) Values() types.TagValues {
	return types.TagValues{Artist: t.Artist(), Album: t.Album()}
}

// End returns the file offset just past the tag.
func (t *Tag) End() int64 {
	return t.Offset + t.Header.TotalSize()
}
