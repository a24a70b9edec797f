package types

import (
	"fmt"
	"maps"
	"slices"
	"strings"
)

// BitrateType classifies how a stream's bitrate behaves.
type BitrateType int

const (
	// BitrateUnknown means the parser could not classify the stream.
	BitrateUnknown BitrateType = iota
	// BitrateConstant is a fixed bitrate (C).
	BitrateConstant
	// BitrateVariable is a variable bitrate (V).
	BitrateVariable
	// BitrateLossless is lossless compression (L).
	BitrateLossless
)

// MixedBitrate is the directory-level bitrate type when streams disagree.
const MixedBitrate = "~"

// Tag returns the one-letter code used in summaries.
func (b BitrateType) Tag() string {
	switch b {
	case BitrateConstant:
		return "C"
	case BitrateVariable:
		return "V"
	case BitrateLossless:
		return "L"
	case BitrateUnknown:
		return ""
	default:
		return ""
	}
}

// Namespace names the tag format a value came from.
type Namespace string

// Tag namespaces, in display order.
const (
	NamespaceID3v1  Namespace = "id3v1"
	NamespaceID3v2  Namespace = "id3v2"
	NamespaceVorbis Namespace = "vorbis"
	NamespaceMP4    Namespace = "mp4"
)

// TagValues holds the artist and album read from one tag. An empty string
// means the tag did not carry that field.
type TagValues struct {
	Artist string `json:"artist,omitempty"`
	Album  string `json:"album,omitempty"`
}

// Range is a half-open byte range [Begin, End).
type Range struct {
	Begin int64 `json:"begin"`
	End   int64 `json:"end"`
}

// Len returns the number of bytes in the range.
func (r Range) Len() int64 {
	return r.End - r.Begin
}

// Stream is one parsed audio file.
//
// Streams are built once by a format parser and never modified afterwards.
type Stream struct {
	Path   string
	Format Format

	// Range excludes leading and trailing tag regions.
	Range Range

	Duration    float64 // seconds
	SampleRate  int
	Channels    int
	Bitrate     int // bits per second
	BitrateType BitrateType

	// Profile is the encoder preset, e.g. "-V2" or "-q5". LegacyProfile
	// is the same preset under its historical name ("--alt-preset
	// standard" era), equal to Profile when no older name exists.
	Profile       string
	LegacyProfile string

	// Tags maps each tag format found in the file to its values. A key is
	// present when the tag exists, even if it carries neither field.
	Tags map[Namespace]TagValues

	// Format-specific details, zero when not applicable.
	Encoder          string  // LAME version, Vorbis/FLAC vendor string
	ChannelMode      string  // MPEG channel mode
	BitsPerSample    int     // FLAC
	TotalSamples     int64   // FLAC, Ogg
	Frames           int64   // MP3 (from Xing/VBRI), MPC
	SeekPoints       int     // FLAC seek table entries
	CompressionRatio float64 // FLAC

	// Warnings are non-fatal problems, such as a dropped ID3v2 tail.
	Warnings []Warning
}

// Size returns the audio payload size in bytes.
func (s *Stream) Size() int64 {
	return s.Range.Len()
}

// ProfileFor returns the profile under the requested naming scheme.
func (s *Stream) ProfileFor(legacy bool) string {
	if legacy && s.LegacyProfile != "" {
		return s.LegacyProfile
	}
	return s.Profile
}

// Namespaces returns the tag namespaces present, sorted.
func (s *Stream) Namespaces() []Namespace {
	return slices.Sorted(maps.Keys(s.Tags))
}

// String returns a one-line description such as
// "MP3 44.1kHz stereo 320kbps C -b 320".
func (s *Stream) String() string {
	parts := []string{s.Format.String()}
	if s.SampleRate > 0 {
		parts = append(parts, fmt.Sprintf("%.1fkHz", float64(s.SampleRate)/1000))
	}
	if s.BitsPerSample > 0 {
		parts = append(parts, fmt.Sprintf("%d-bit", s.BitsPerSample))
	}
	parts = append(parts, channelDescription(s.Channels))
	if s.Bitrate > 0 {
		parts = append(parts, fmt.Sprintf("%dkbps", s.Bitrate/1000))
	}
	parts = append(parts, s.BitrateType.Tag(), s.Profile)
	return join(parts, " ")
}

func channelDescription(channels int) string {
	switch channels {
	case 0:
		return ""
	case 1:
		return "mono"
	case 2:
		return "stereo"
	case 6:
		return "5.1"
	case 8:
		return "7.1"
	default:
		return fmt.Sprintf("%dch", channels)
	}
}

// join concatenates strings with a separator, skipping empty strings.
func join(parts []string, sep string) string {
	out := parts[:0:0]
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, sep)
}
