package m4a

import (
	"errors"
	"fmt"
	"io"

	"github.com/simonhull/audiodir/internal/binary"
	"github.com/simonhull/audiodir/internal/bounds"
	"github.com/simonhull/audiodir/internal/types"
)

// Markers located by the single forward pass over the file.
const (
	markerMvhd   = "mvhd"
	markerStsd   = "stsd"
	markerEsds   = "esds"
	markerArtist = "\xa9ART"
	markerAlbum  = "\xa9alb"
)

var markers = []string{markerMvhd, markerStsd, markerEsds, markerArtist, markerAlbum}

// ES descriptor tags inside esds.
const (
	tagESDescriptor  = 0x03
	tagDecoderConfig = 0x04
)

// Field positions, counted from the atom's type code.
const (
	mvhdTimescaleV0 = 16
	mvhdTimescaleV1 = 24
	stsdChannels    = 36
	stsdSampleRate  = 44

	// ilst item header plus its data atom header
	ilstDataHeader = 24
)

// Field positions within the esds descriptors.
const (
	esHeaderSkip      = 3 // ES_ID and flags
	decoderAvgBitrate = 9 // object type, stream type, buffer size, max bitrate
)

// Parse measures the AAC stream in r.
//
// Rather than walking the atom tree, Parse finds the atoms it needs by
// their type codes in one forward pass; each hit is accepted only where a
// plausible atom size precedes it. MPEG-4 audio is always reported as
// constant bitrate.
func Parse(r io.ReaderAt, size int64, path string, policy types.Policy) (*types.Stream, error) {
	sr := binary.NewSafeReader(r, size, path)

	// MPEG-4 files carry no ID3 tags to strip, so the layout only decides
	// whether there is any audio at all.
	layout, err := bounds.Detect(sr)
	if err != nil {
		return nil, err
	}
	if err := layout.Spacer(path); err != nil {
		return nil, err
	}
	rng := types.Range{Begin: 0, End: size}

	found, err := sr.ScanMarkers(rng.Begin, rng.End, markers, func(_ string, off int64) bool {
		return atomAt(sr, off-4, rng.End)
	})
	if err != nil {
		return nil, err
	}

	mvhd, ok := found[markerMvhd]
	if !ok {
		return nil, decodeError(path, 0, errors.New("no mvhd atom"))
	}
	stsd, ok := found[markerStsd]
	if !ok {
		return nil, decodeError(path, 0, errors.New("no stsd atom"))
	}

	duration, err := movieDuration(sr, mvhd)
	if err != nil {
		return nil, decodeError(path, mvhd, err)
	}

	channels, err := binary.Read[uint16](sr, stsd+stsdChannels, "stsd channel count")
	if err != nil {
		return nil, decodeError(path, stsd, err)
	}
	rate, err := binary.Read[uint32](sr, stsd+stsdSampleRate, "stsd sample rate")
	if err != nil {
		return nil, decodeError(path, stsd, err)
	}

	s := &types.Stream{
		Path:        path,
		Format:      types.FormatAAC,
		Range:       rng,
		Duration:    duration,
		Channels:    int(channels),
		SampleRate:  int(rate >> 16), // 16.16 fixed point
		BitrateType: types.BitrateConstant,
		Tags:        map[types.Namespace]types.TagValues{},
	}

	if esds, ok := found[markerEsds]; ok {
		avg, err := averageBitrate(sr, esds)
		if err != nil {
			s.Warnings = append(s.Warnings, types.Warning{Stage: "stream", Message: err.Error(), Offset: esds})
		}
		s.Bitrate = avg / 1000 * 1000
	}
	if s.Bitrate == 0 && duration > 0 {
		s.Bitrate = int(float64(rng.Len()*8) / duration)
	}

	artistAt, hasArtist := found[markerArtist]
	albumAt, hasAlbum := found[markerAlbum]
	if hasArtist || hasAlbum {
		var tv types.TagValues
		if hasArtist {
			tv.Artist = itemText(sr, artistAt)
		}
		if hasAlbum {
			tv.Album = itemText(sr, albumAt)
		}
		s.Tags[types.NamespaceMP4] = tv
	}

	return s, nil
}

// atomAt reports whether a plausible atom header starts at off.
func atomAt(sr *binary.SafeReader, off, end int64) bool {
	if off < 0 {
		return false
	}
	atom, err := readAtomHeader(sr, off)
	return err == nil && atom.End() <= end
}

// movieDuration reads the mvhd whose type code is at off.
func movieDuration(sr *binary.SafeReader, off int64) (float64, error) {
	version, err := binary.Read[uint8](sr, off+4, "mvhd version")
	if err != nil {
		return 0, err
	}

	var timescale uint32
	var duration uint64
	if version == 1 {
		timescale, err = binary.Read[uint32](sr, off+mvhdTimescaleV1, "mvhd timescale")
		if err == nil {
			duration, err = binary.Read[uint64](sr, off+mvhdTimescaleV1+4, "mvhd duration")
		}
	} else {
		timescale, err = binary.Read[uint32](sr, off+mvhdTimescaleV0, "mvhd timescale")
		if err == nil {
			var d uint32
			d, err = binary.Read[uint32](sr, off+mvhdTimescaleV0+4, "mvhd duration")
			duration = uint64(d)
		}
	}
	if err != nil {
		return 0, err
	}
	if timescale == 0 {
		return 0, fmt.Errorf("mvhd timescale is zero")
	}
	return float64(duration) / float64(timescale), nil
}

// averageBitrate walks the descriptors of the esds whose type code is at
// off down to the decoder config and returns its average bitrate.
func averageBitrate(sr *binary.SafeReader, off int64) (int, error) {
	pos := off + 8 // type code, version and flags

	tag, err := binary.Read[uint8](sr, pos, "ES descriptor tag")
	if err != nil {
		return 0, err
	}
	if tag != tagESDescriptor {
		return 0, fmt.Errorf("esds: expected ES descriptor, found tag 0x%02x", tag)
	}
	pos, err = skipDescriptorLength(sr, pos+1)
	if err != nil {
		return 0, err
	}
	pos += esHeaderSkip

	tag, err = binary.Read[uint8](sr, pos, "decoder config tag")
	if err != nil {
		return 0, err
	}
	if tag != tagDecoderConfig {
		return 0, fmt.Errorf("esds: expected decoder config, found tag 0x%02x", tag)
	}
	pos, err = skipDescriptorLength(sr, pos+1)
	if err != nil {
		return 0, err
	}

	avg, err := binary.Read[uint32](sr, pos+decoderAvgBitrate, "average bitrate")
	return int(avg), err
}

// skipDescriptorLength steps over a descriptor length of one to four
// bytes, each but the last with its top bit set.
func skipDescriptorLength(sr *binary.SafeReader, pos int64) (int64, error) {
	for range 4 {
		b, err := binary.Read[uint8](sr, pos, "descriptor length")
		if err != nil {
			return 0, err
		}
		pos++
		if b&0x80 == 0 {
			return pos, nil
		}
	}
	return pos, nil
}

// itemText reads the UTF-8 payload of the ilst item whose type code is at
// off. The item wraps a single data atom with 16 bytes of header.
func itemText(sr *binary.SafeReader, off int64) string {
	size, err := binary.Read[uint32](sr, off-4, "ilst item size")
	if err != nil || size < ilstDataHeader {
		return ""
	}
	kind, err := sr.Bytes(off+8, 4, "ilst data atom")
	if err != nil || string(kind) != "data" {
		return ""
	}
	text, err := sr.Bytes(off+20, int(size)-ilstDataHeader, "ilst item text")
	if err != nil {
		return ""
	}
	return string(text)
}

func decodeError(path string, off int64, err error) error {
	var ioErr *types.IOError
	if errors.As(err, &ioErr) {
		return err
	}
	return &types.DecodeError{
		Path:   path,
		Format: types.FormatAAC,
		Offset: off,
		Reason: err.Error(),
	}
}
