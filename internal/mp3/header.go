// Package mp3 measures MPEG audio streams.
package mp3

import (
	"fmt"

	"github.com/simonhull/audiodir/internal/binary"
)

// Version is the MPEG audio version.
type Version int

// MPEG versions, numbered by their 2-bit header code.
const (
	MPEG25   Version = 0
	reserved Version = 1
	MPEG2    Version = 2
	MPEG1    Version = 3
)

func (v Version) String() string {
	switch v {
	case MPEG1:
		return "MPEG-1"
	case MPEG2:
		return "MPEG-2"
	case MPEG25:
		return "MPEG-2.5"
	default:
		return "reserved"
	}
}

// ChannelMode is the 2-bit channel mode.
type ChannelMode int

// Channel modes.
const (
	Stereo ChannelMode = iota
	JointStereo
	DualChannel
	Mono
)

func (m ChannelMode) String() string {
	switch m {
	case Stereo:
		return "stereo"
	case JointStereo:
		return "joint stereo"
	case DualChannel:
		return "dual channel"
	default:
		return "mono"
	}
}

// bitrates in kbps, indexed [MPEG-1 or not][layer-1][bitrate index].
var bitrates = [2][3][16]int{
	{ // MPEG-1
		{0, 32, 64, 96, 128, 160, 192, 224, 256, 288, 320, 352, 384, 416, 448, 0},
		{0, 32, 48, 56, 64, 80, 96, 112, 128, 160, 192, 224, 256, 320, 384, 0},
		{0, 32, 40, 48, 56, 64, 80, 96, 112, 128, 160, 192, 224, 256, 320, 0},
	},
	{ // MPEG-2 and MPEG-2.5
		{0, 32, 48, 56, 64, 80, 96, 112, 128, 144, 160, 176, 192, 224, 256, 0},
		{0, 8, 16, 24, 32, 40, 48, 56, 64, 80, 96, 112, 128, 144, 160, 0},
		{0, 8, 16, 24, 32, 40, 48, 56, 64, 80, 96, 112, 128, 144, 160, 0},
	},
}

var sampleRates = map[Version][3]int{
	MPEG1:  {44100, 48000, 32000},
	MPEG2:  {22050, 24000, 16000},
	MPEG25: {11025, 12000, 8000},
}

// FrameHeader is a decoded 32-bit MPEG audio frame header.
type FrameHeader struct {
	Version         Version
	Layer           int // 1, 2 or 3
	Protected       bool
	BitrateIndex    int
	SampleRateIndex int
	Padding         bool
	ChannelMode     ChannelMode
	Emphasis        int

	Bitrate    int // bits per second
	SampleRate int
}

// DecodeHeader decodes and validates a frame header. It rejects the
// reserved version, layer, bitrate, sample rate and emphasis codes, which
// is what tells a real frame from sync-like bytes inside audio data.
func DecodeHeader(b []byte) (FrameHeader, error) {
	if len(b) < 4 {
		return FrameHeader{}, fmt.Errorf("frame header needs 4 bytes")
	}

	// sync, version, layer, protection, bitrate, sample rate, padding,
	// private, channel mode, mode extension, copyright, original, emphasis
	f, err := binary.Fields(b[:4], 11, 2, 2, 1, 4, 2, 1, 1, 2, 2, 1, 1, 2)
	if err != nil {
		return FrameHeader{}, err
	}

	h := FrameHeader{
		Version:         Version(f[1]),
		Layer:           4 - int(f[2]),
		Protected:       f[3] == 0,
		BitrateIndex:    int(f[4]),
		SampleRateIndex: int(f[5]),
		Padding:         f[6] == 1,
		ChannelMode:     ChannelMode(f[8]),
		Emphasis:        int(f[12]),
	}

	switch {
	case f[0] != 0x7FF:
		return h, fmt.Errorf("no frame sync")
	case h.Version == reserved:
		return h, fmt.Errorf("reserved MPEG version")
	case f[2] == 0:
		return h, fmt.Errorf("reserved layer")
	case h.BitrateIndex == 0 || h.BitrateIndex == 15:
		return h, fmt.Errorf("free or bad bitrate index %d", h.BitrateIndex)
	case h.SampleRateIndex == 3:
		return h, fmt.Errorf("reserved sample rate index")
	case h.Emphasis == 2:
		return h, fmt.Errorf("reserved emphasis")
	}

	group := 1
	if h.Version == MPEG1 {
		group = 0
	}
	h.Bitrate = bitrates[group][h.Layer-1][h.BitrateIndex] * 1000
	h.SampleRate = sampleRates[h.Version][h.SampleRateIndex]
	return h, nil
}

// Channels returns 1 for mono and 2 otherwise.
func (h FrameHeader) Channels() int {
	if h.ChannelMode == Mono {
		return 1
	}
	return 2
}

// SamplesPerFrame returns the number of PCM samples one frame decodes to.
func (h FrameHeader) SamplesPerFrame() int {
	switch {
	case h.Layer == 1:
		return 384
	case h.Layer == 2 || h.Version == MPEG1:
		return 1152
	default:
		return 576
	}
}

// SideInfoSize returns the Layer III side information length, which is
// where a Xing or Info header starts after the frame header.
func (h FrameHeader) SideInfoSize() int {
	if h.Version == MPEG1 {
		if h.ChannelMode == Mono {
			return 17
		}
		return 32
	}
	if h.ChannelMode == Mono {
		return 9
	}
	return 17
}

// FrameLength returns the frame length in bytes including the header.
func (h FrameHeader) FrameLength() int {
	pad := 0
	if h.Padding {
		pad = 1
	}
	if h.Layer == 1 {
		return (12*h.Bitrate/h.SampleRate + pad) * 4
	}
	return h.SamplesPerFrame()/8*h.Bitrate/h.SampleRate + pad
}
