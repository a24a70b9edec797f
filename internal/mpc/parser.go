// Package mpc measures Musepack SV7 streams.
package mpc

import (
	"encoding/binary"
	"errors"
	"io"
	"math"

	bin "github.com/simonhull/audiodir/internal/binary"
	"github.com/simonhull/audiodir/internal/bounds"
	"github.com/simonhull/audiodir/internal/types"
)

// streamVersion is the low nibble of the byte after "MP+".
const streamVersion = 7

// samplesPerFrame is fixed for SV7.
const samplesPerFrame = 1152

var marker = bin.Literal("MP+")

var sampleRates = [4]int{44100, 48000, 37800, 32000}

// profiles maps the 4-bit profile field to the encoder switch that selects it.
var profiles = [16]string{
	0:  "",
	1:  "--experimental",
	2:  "",
	3:  "",
	4:  "",
	5:  "--quality 0",
	6:  "--quality 1",
	7:  "--telephone",
	8:  "--thumb",
	9:  "--radio",
	10: "--standard",
	11: "--xtreme",
	12: "--insane",
	13: "--braindead",
	14: "--quality 9",
	15: "--quality 10",
}

// Header is the decoded SV7 stream header.
type Header struct {
	Version         int
	Frames          int64
	Profile         int
	SampleRateIndex int
	MaxLevel        int
}

// SampleRate returns the sample rate in Hz.
func (h Header) SampleRate() int {
	return sampleRates[h.SampleRateIndex]
}

// ProfileName returns the encoder profile, or "" for unnamed profiles.
func (h Header) ProfileName() string {
	return profiles[h.Profile]
}

// readHeader decodes the header at off, which must point at "MP+".
func readHeader(sr *bin.SafeReader, off int64) (Header, error) {
	b, err := sr.Bytes(off, 12, "MPC header")
	if err != nil {
		return Header{}, err
	}

	var be [4]byte
	binary.BigEndian.PutUint32(be[:], binary.LittleEndian.Uint32(b[8:12]))
	// max band, profile, link, sample frequency, max level
	f, err := bin.Fields(be[:], 8, 4, 2, 2, 16)
	if err != nil {
		return Header{}, err
	}

	return Header{
		Version:         int(b[3] & 0x0F),
		Frames:          int64(binary.LittleEndian.Uint32(b[4:8])),
		Profile:         int(f[1]),
		SampleRateIndex: int(f[3]),
		MaxLevel:        int(f[4]),
	}, nil
}

// Parse measures the Musepack stream in r.
//
// Musepack is always reported as variable bitrate. ID3v1 and ID3v2 tags are
// read the same way as for MP3.
func Parse(r io.ReaderAt, size int64, path string, policy types.Policy) (*types.Stream, error) {
	sr := bin.NewSafeReader(r, size, path)

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

	rng := layout.Range
	valid := func(off int64) bool {
		v, err := bin.Read[uint8](sr, off+3, "MPC stream version")
		return err == nil && v&0x0F == streamVersion
	}
	off, err := sr.Scan(rng.Begin, rng.End, marker, valid)
	if err != nil {
		return nil, err
	}
	if off < 0 {
		return nil, decodeError(path, rng.Begin, errors.New("no SV7 header"))
	}

	h, err := readHeader(sr, off)
	if err != nil {
		return nil, decodeError(path, off, err)
	}
	if h.Frames == 0 {
		return nil, decodeError(path, off+4, errors.New("header declares no frames"))
	}

	s := &types.Stream{
		Path:          path,
		Format:        types.FormatMPC,
		Range:         rng,
		SampleRate:    h.SampleRate(),
		Channels:      2,
		BitrateType:   types.BitrateVariable,
		Profile:       h.ProfileName(),
		LegacyProfile: h.ProfileName(),
		Frames:        h.Frames,
		Tags:          id3.Tags(),
		Warnings:      id3.Warnings,
	}

	// Duration is counted in 44.1 kHz frames whatever the header says.
	s.Bitrate = int(rng.Len() * int64(s.SampleRate) / (h.Frames * samplesPerFrame / 8))
	s.Duration = math.Floor(float64(h.Frames)*samplesPerFrame/44100 + 0.5)

	return s, nil
}

func decodeError(path string, off int64, err error) error {
	var ioErr *types.IOError
	if errors.As(err, &ioErr) {
		return err
	}
	return &types.DecodeError{
		Path:   path,
		Format: types.FormatMPC,
		Offset: off,
		Reason: err.Error(),
	}
}
