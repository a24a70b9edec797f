package mp3

import (
	"fmt"
	"io"

	"github.com/simonhull/audiodir/internal/binary"
	"github.com/simonhull/audiodir/internal/bounds"
	"github.com/simonhull/audiodir/internal/types"
)

var frameSync = binary.Masked([]byte{0xFF, 0xE0}, []byte{0xFF, 0xE0})

// Parse measures the MPEG audio stream in r.
//
// It returns *types.SpacerError when the file holds tags but no audio,
// *types.DecodeError when no valid frame header can be found, and the
// ID3 errors described by bounds.ReadID3.
func Parse(r io.ReaderAt, size int64, path string, policy types.Policy) (*types.Stream, error) {
	sr := binary.NewSafeReader(r, size, path)

	layout, err := bounds.Detect(sr)
	if err != nil {
		return nil, err
	}
	if err := layout.Spacer(path); err != nil {
		return nil, err
	}

	id3, err := bounds.ReadID3(sr, layout, policy)
	if err != nil {
		return nil, err
	}

	off, h, err := findFrame(sr, layout.Range)
	if err != nil {
		return nil, err
	}
	if off < 0 {
		return nil, noFrame(sr, layout.Range)
	}

	s := &types.Stream{
		Path:        path,
		Format:      types.FormatMP3,
		Range:       layout.Range,
		SampleRate:  h.SampleRate,
		Channels:    h.Channels(),
		ChannelMode: h.ChannelMode.String(),
		Tags:        id3.Tags(),
		Warnings:    id3.Warnings,
	}

	payload := layout.Range.Len()
	vbr := readVBRHeader(sr, off, h)
	if vbr != nil && vbr.Frames > 0 {
		samples := int64(h.SamplesPerFrame()) * vbr.Frames
		s.BitrateType = types.BitrateVariable
		s.Frames = vbr.Frames
		s.Bitrate = int(payload * 8 * int64(h.SampleRate) / samples)
		s.Duration = float64(samples) / float64(h.SampleRate)
	} else {
		s.BitrateType = types.BitrateConstant
		s.Bitrate = h.Bitrate
		s.Duration = float64(payload*8) / float64(h.Bitrate)
	}

	if vbr != nil && vbr.LAME != nil {
		s.Encoder = vbr.LAME.Encoder
		s.Profile, s.LegacyProfile = vbr.LAME.Profile()
		if s.LegacyProfile == "" {
			s.LegacyProfile = s.Profile
		}
	}

	return s, nil
}

// findFrame returns the offset and header of the first valid frame in rng,
// or -1 when there is none.
func findFrame(sr *binary.SafeReader, rng types.Range) (int64, FrameHeader, error) {
	var h FrameHeader
	valid := func(off int64) bool {
		b, err := sr.Bytes(off, 4, "MPEG frame header")
		if err != nil {
			return false
		}
		h, err = DecodeHeader(b)
		return err == nil
	}

	off, err := sr.Scan(rng.Begin, rng.End, frameSync, valid)
	if err != nil {
		return -1, h, err
	}
	return off, h, nil
}

// noFrame classifies a payload without a valid frame. Zero-filled payloads,
// as left behind by some taggers, count as spacers.
func noFrame(sr *binary.SafeReader, rng types.Range) error {
	zero, err := allZero(sr, rng)
	if err != nil {
		return err
	}
	if zero {
		return &types.SpacerError{
			Path:   sr.Path(),
			Reason: fmt.Sprintf("%d zero bytes and no MPEG frame", rng.Len()),
		}
	}
	return &types.DecodeError{
		Path:   sr.Path(),
		Format: types.FormatMP3,
		Offset: rng.Begin,
		Reason: "no valid MPEG frame header",
	}
}

func allZero(sr *binary.SafeReader, rng types.Range) (bool, error) {
	buf := make([]byte, binary.ScanWindow)
	for pos := rng.Begin; pos < rng.End; {
		window := buf[:min(int64(len(buf)), rng.End-pos)]
		if err := sr.ReadAt(window, pos, "payload"); err != nil {
			return false, err
		}
		for _, c := range window {
			if c != 0 {
				return false, nil
			}
		}
		pos += int64(len(window))
	}
	return true, nil
}
