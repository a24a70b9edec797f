package audiodir

import (
	"github.com/simonhull/audiodir/internal/types"
)

// Format is an alias to types.Format.
type Format = types.Format

// Re-export all format constants.
const (
	FormatUnknown = types.FormatUnknown
	FormatMP3     = types.FormatMP3
	FormatOgg     = types.FormatOgg
	FormatFLAC    = types.FormatFLAC
	FormatMPC     = types.FormatMPC
	FormatAAC     = types.FormatAAC
)

// Formats lists every supported format.
func Formats() []Format {
	return types.Formats()
}

// FormatForPath selects a format from the file extension. Files are never
// sniffed: an unknown extension is FormatUnknown.
func FormatForPath(path string) Format {
	return types.FormatForPath(path)
}

// Extensions returns every extension ScanDir's callers should collect.
func Extensions() []string {
	var exts []string
	for _, f := range types.Formats() {
		exts = append(exts, f.Extensions()...)
	}
	return exts
}
