package types

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Format identifies the container/codec family of an audio stream.
//
// The set is closed: every switch over Format in this module is exhaustive,
// so adding a format is a compile-checked change.
type Format int

const (
	// FormatUnknown represents an unknown or unsupported format.
	FormatUnknown Format = iota
	// FormatMP3 represents MPEG audio (layers I-III).
	FormatMP3
	// FormatOgg represents Ogg Vorbis.
	FormatOgg
	// FormatFLAC represents native FLAC.
	FormatFLAC
	// FormatMPC represents Musepack SV7.
	FormatMPC
	// FormatAAC represents AAC in an MPEG-4 container.
	FormatAAC
)

// Formats lists every supported format in display order.
func Formats() []Format {
	return []Format{FormatMP3, FormatOgg, FormatFLAC, FormatMPC, FormatAAC}
}

// String returns the mediatype name used in directory summaries.
func (f Format) String() string {
	switch f {
	case FormatMP3:
		return "MP3"
	case FormatOgg:
		return "Ogg"
	case FormatFLAC:
		return "FLAC"
	case FormatMPC:
		return "MPC"
	case FormatAAC:
		return "AAC"
	case FormatUnknown:
		return "Unknown"
	default:
		return fmt.Sprintf("Format(%d)", int(f))
	}
}

// Extensions returns the lower-case file extensions handled as this format.
func (f Format) Extensions() []string {
	switch f {
	case FormatMP3:
		return []string{".mp3", ".mp2"}
	case FormatOgg:
		return []string{".ogg", ".oga"}
	case FormatFLAC:
		return []string{".flac"}
	case FormatMPC:
		return []string{".mpc", ".mp+"}
	case FormatAAC:
		return []string{".m4a", ".mp4", ".m4b"}
	case FormatUnknown:
		return nil
	default:
		return nil
	}
}

// FormatForPath selects a format from the file extension, case-insensitively.
func FormatForPath(path string) Format {
	ext := strings.ToLower(filepath.Ext(path))
	for _, f := range Formats() {
		for _, e := range f.Extensions() {
			if e == ext {
				return f
			}
		}
	}
	return FormatUnknown
}

// ParseFormat is the inverse of Format.String.
func ParseFormat(s string) (Format, error) {
	for _, f := range Formats() {
		if strings.EqualFold(f.String(), s) {
			return f, nil
		}
	}
	return FormatUnknown, fmt.Errorf("unknown format %q", s)
}

// MarshalText encodes the format by name, so it can key JSON maps.
func (f Format) MarshalText() ([]byte, error) {
	return []byte(f.String()), nil
}

// UnmarshalText decodes a format name.
func (f *Format) UnmarshalText(b []byte) error {
	v, err := ParseFormat(string(b))
	if err != nil {
		return err
	}
	*f = v
	return nil
}
