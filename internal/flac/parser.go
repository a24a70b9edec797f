// Package flac measures native FLAC streams.
package flac

import (
	"errors"
	"fmt"
	"io"

	"github.com/simonhull/audiodir/internal/binary"
	"github.com/simonhull/audiodir/internal/bounds"
	"github.com/simonhull/audiodir/internal/types"
	"github.com/simonhull/audiodir/internal/vorbis"
)

// Metadata block types
const (
	blockTypeStreamInfo    = 0
	blockTypePadding       = 1
	blockTypeApplication   = 2
	blockTypeSeekTable     = 3
	blockTypeVorbisComment = 4
	blockTypeCueSheet      = 5
	blockTypePicture       = 6
)

const (
	streamInfoSize = 34
	seekPointSize  = 18
)

// StreamInfo is the decoded STREAMINFO block.
type StreamInfo struct {
	MinBlockSize  int
	MaxBlockSize  int
	SampleRate    int
	Channels      int
	BitsPerSample int
	TotalSamples  int64
}

// decodeStreamInfo unpacks a STREAMINFO block. The 20-bit sample rate,
// 3-bit channel count, 5-bit sample size and 36-bit sample count share
// bytes 10 to 17.
func decodeStreamInfo(data []byte) (StreamInfo, error) {
	if len(data) != streamInfoSize {
		return StreamInfo{}, fmt.Errorf("invalid STREAMINFO size: %d (expected %d)", len(data), streamInfoSize)
	}

	f, err := binary.Fields(data[10:18], 20, 3, 5, 36)
	if err != nil {
		return StreamInfo{}, err
	}

	si := StreamInfo{
		MinBlockSize:  int(data[0])<<8 | int(data[1]),
		MaxBlockSize:  int(data[2])<<8 | int(data[3]),
		SampleRate:    int(f[0]),
		Channels:      int(f[1]) + 1,
		BitsPerSample: int(f[2]) + 1,
		TotalSamples:  int64(f[3]),
	}
	if si.SampleRate == 0 {
		return si, fmt.Errorf("STREAMINFO declares a zero sample rate")
	}
	return si, nil
}

// metadata is what the block walk collects.
type metadata struct {
	info       *StreamInfo
	comments   *vorbis.Comments
	commentsAt int64
	seekPoints int
}

// Parse measures the FLAC stream in r.
//
// FLAC is always reported as lossless. Bitrate is the payload size over the
// duration; the compression ratio compares the payload with the PCM size
// the STREAMINFO describes.
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

	magic, err := sr.Bytes(rng.Begin, 4, "FLAC marker")
	if err != nil {
		return nil, decodeError(path, rng.Begin, err)
	}
	if string(magic) != "fLaC" {
		return nil, decodeError(path, rng.Begin, errors.New("missing fLaC marker"))
	}

	meta, err := readBlocks(sr, rng.Begin+4, rng.End)
	if err != nil {
		return nil, err
	}
	if meta.info == nil {
		return nil, decodeError(path, rng.Begin+4, errors.New("no STREAMINFO block"))
	}
	si := meta.info

	s := &types.Stream{
		Path:          path,
		Format:        types.FormatFLAC,
		Range:         rng,
		SampleRate:    si.SampleRate,
		Channels:      si.Channels,
		BitsPerSample: si.BitsPerSample,
		TotalSamples:  si.TotalSamples,
		BitrateType:   types.BitrateLossless,
		SeekPoints:    meta.seekPoints,
		Tags:          map[types.Namespace]types.TagValues{},
	}

	if si.TotalSamples > 0 {
		s.Duration = float64(si.TotalSamples) / float64(si.SampleRate)
		s.Bitrate = int(float64(rng.Len()*8) / s.Duration)
		pcm := float64(si.TotalSamples) * float64(si.BitsPerSample) * float64(si.Channels) / 8
		s.CompressionRatio = float64(rng.Len()) / pcm
	}

	if meta.comments != nil {
		s.Encoder = meta.comments.Vendor
		s.Tags[types.NamespaceVorbis] = meta.comments.Values()
		if w, ok := meta.comments.Warning(meta.commentsAt); ok {
			s.Warnings = append(s.Warnings, w)
		}
	}

	return s, nil
}

// readBlocks walks the metadata blocks starting at offset until the block
// flagged as last.
func readBlocks(sr *binary.SafeReader, offset, end int64) (*metadata, error) {
	meta := &metadata{}
	for offset < end {
		header, err := binary.Read[uint32](sr, offset, "metadata block header")
		if err != nil {
			return nil, decodeError(sr.Path(), offset, err)
		}

		isLast := header>>31 == 1
		blockType := (header >> 24) & 0x7F
		length := int(header & 0x00FFFFFF)
		offset += 4

		switch blockType {
		case blockTypeStreamInfo:
			data, err := sr.Bytes(offset, length, "STREAMINFO block")
			if err != nil {
				return nil, decodeError(sr.Path(), offset, err)
			}
			si, err := decodeStreamInfo(data)
			if err != nil {
				return nil, decodeError(sr.Path(), offset, err)
			}
			meta.info = &si

		case blockTypeVorbisComment:
			data, err := sr.Bytes(offset, length, "VORBIS_COMMENT block")
			if err != nil {
				return nil, decodeError(sr.Path(), offset, err)
			}
			c, err := vorbis.Parse(data)
			if err != nil {
				return nil, decodeError(sr.Path(), offset, err)
			}
			meta.comments = c
			meta.commentsAt = offset

		case blockTypeSeekTable:
			meta.seekPoints = length / seekPointSize

		case blockTypePadding, blockTypeApplication, blockTypeCueSheet, blockTypePicture:
			// Not needed for measurement.
		}

		offset += int64(length)
		if isLast {
			break
		}
	}
	return meta, nil
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
		Format: types.FormatFLAC,
		Offset: off,
		Reason: err.Error(),
	}
}
