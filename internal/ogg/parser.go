package ogg

import (
	"errors"
	"io"

	"github.com/simonhull/audiodir/internal/binary"
	"github.com/simonhull/audiodir/internal/bounds"
	"github.com/simonhull/audiodir/internal/types"
)

// Parse measures the Ogg Vorbis stream in r.
//
// Duration comes from the granule position of the last page, bitrate from
// the payload size over that duration. Ogg Vorbis is always reported as
// variable bitrate.
func Parse(r io.ReaderAt, size int64, path string, policy types.Policy) (*types.Stream, error) {
	sr := binary.NewSafeReader(r, size, path)

	layout, err := bounds.Detect(sr)
	if err != nil {
		return nil, err
	}
	if err := layout.Spacer(path); err != nil {
		return nil, err
	}
	rng := layout.Range

	start, err := sr.Scan(rng.Begin, rng.End, capture, nil)
	if err != nil {
		return nil, err
	}
	if start < 0 {
		return nil, decodeError(path, rng.Begin, errors.New("no Ogg page"))
	}

	pr := newPacketReader(sr, start, rng.End)
	first, err := pr.Packet()
	if err != nil {
		return nil, decodeError(path, start, err)
	}
	id, err := parseIdentification(first)
	if err != nil {
		return nil, decodeError(path, start, err)
	}

	s := &types.Stream{
		Path:        path,
		Format:      types.FormatOgg,
		Range:       rng,
		SampleRate:  id.SampleRate,
		Channels:    id.Channels,
		BitrateType: types.BitrateVariable,
		Tags:        map[types.Namespace]types.TagValues{},
	}
	s.Profile = id.Profile()
	s.LegacyProfile = s.Profile

	second, err := pr.Packet()
	if err != nil {
		return nil, decodeError(path, pr.next, err)
	}
	comments, err := parseComment(second)
	if err != nil {
		return nil, decodeError(path, pr.next, err)
	}
	s.Encoder = comments.Vendor
	s.Tags[types.NamespaceVorbis] = comments.Values()
	if w, ok := comments.Warning(start); ok {
		s.Warnings = append(s.Warnings, w)
	}

	granule, err := lastGranule(sr, start, rng.End, pr.serial)
	if err != nil {
		return nil, err
	}
	if granule <= 0 {
		return nil, decodeError(path, rng.End, errors.New("no final granule position"))
	}
	s.TotalSamples = granule
	s.Duration = float64(granule) / float64(id.SampleRate)
	s.Bitrate = int(float64(rng.Len()*8) / s.Duration)

	return s, nil
}

// decodeError classifies err as a structural failure unless the file
// itself could not be read.
func decodeError(path string, off int64, err error) error {
	var ioErr *types.IOError
	if errors.As(err, &ioErr) {
		return err
	}
	return &types.DecodeError{
		Path:   path,
		Format: types.FormatOgg,
		Offset: off,
		Reason: err.Error(),
	}
}
