package id3v2

import (
	"bytes"
	"fmt"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"

	bin "github.com/simonhull/audiodir/internal/binary"
)

// NewTag returns an empty tag of the given major version.
func NewTag(version uint8) *Tag {
	return &Tag{Header: Header{Version: version}}
}

// SetText replaces (or adds) a text frame holding value.
//
// Version 4 tags store UTF-8. Version 3 tags store Latin-1 when the value
// fits and UTF-16 with a byte order mark otherwise.
func (t *Tag) SetText(id, value string) error {
	enc, text, err := t.encodeText(value)
	if err != nil {
		return err
	}

	data := append([]byte{enc}, text...)
	f := Frame{ID: id, Data: data, Kind: KindText, Encoding: enc, Values: []string{value}}

	for i := range t.Frames {
		if t.Frames[i].ID == id {
			t.Frames[i] = f
			return nil
		}
	}
	t.Frames = append(t.Frames, f)
	return nil
}

// AddRaw appends an opaque frame.
func (t *Tag) AddRaw(id string, data []byte) {
	t.Frames = append(t.Frames, Frame{ID: id, Data: data, Kind: KindRaw})
}

func (t *Tag) encodeText(value string) (byte, []byte, error) {
	if t.Header.Version >= 4 {
		return EncodingUTF8, []byte(value), nil
	}
	if b, err := charmap.ISO8859_1.NewEncoder().String(value); err == nil {
		return EncodingISO88591, []byte(b), nil
	}
	b, err := unicode.UTF16(unicode.LittleEndian, unicode.UseBOM).NewEncoder().String(value)
	if err != nil {
		return 0, nil, fmt.Errorf("encode %q: %w", value, err)
	}
	return EncodingUTF16, []byte(b), nil
}

// Bytes encodes the tag with its frames followed by Padding zero bytes.
//
// Frames are written from their stored Data, so a parsed tag re-encodes to
// the same frame bytes. Unsynchronisation and footers are not written.
func (t *Tag) Bytes() ([]byte, error) {
	if t.Header.Version != 3 && t.Header.Version != 4 {
		return nil, fmt.Errorf("cannot encode ID3v2 version %d", t.Header.Version)
	}

	var frames bytes.Buffer
	fw := bin.NewSafeWriter(&frames)
	for _, f := range t.Frames {
		if !validFrameID(f.ID) {
			return nil, fmt.Errorf("invalid frame identifier %q", f.ID)
		}
		if err := fw.WriteString(f.ID); err != nil {
			return nil, err
		}
		size := uint32(len(f.Data))
		if t.Header.Version >= 4 {
			if size > bin.MaxSynchsafe {
				return nil, fmt.Errorf("frame %s too large", f.ID)
			}
			if err := fw.WriteSynchsafe(size); err != nil {
				return nil, err
			}
		} else if err := bin.Write[uint32](fw, size); err != nil {
			return nil, err
		}
		if err := bin.Write[uint16](fw, f.Flags); err != nil {
			return nil, err
		}
		if err := fw.WriteBytes(f.Data); err != nil {
			return nil, err
		}
	}

	bodySize := int64(frames.Len()) + t.Padding
	if bodySize > bin.MaxSynchsafe {
		return nil, fmt.Errorf("tag too large: %d bytes", bodySize)
	}

	var out bytes.Buffer
	w := bin.NewSafeWriter(&out)
	if err := w.WriteString(HeaderMarker); err != nil {
		return nil, err
	}
	if err := w.WriteBytes([]byte{t.Header.Version, t.Header.Revision, 0}); err != nil {
		return nil, err
	}
	if err := w.WriteSynchsafe(uint32(bodySize)); err != nil {
		return nil, err
	}
	if err := w.WriteBytes(frames.Bytes()); err != nil {
		return nil, err
	}
	if err := w.WriteBytes(make([]byte, t.Padding)); err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}
