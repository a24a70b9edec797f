package audiodir

import (
	"github.com/simonhull/audiodir/internal/types"
)

// Error types returned by OpenStream and Inspect. Re-exported from
// internal/types.
type (
	OutOfBoundsError        = types.OutOfBoundsError
	IOError                 = types.IOError
	UnsupportedFormatError  = types.UnsupportedFormatError
	SpacerError             = types.SpacerError
	DecodeError             = types.DecodeError
	MalformedTagError       = types.MalformedTagError
	UnsupportedVersionError = types.UnsupportedVersionError
	BrokenFrameError        = types.BrokenFrameError
	NoTagError              = types.NoTagError
)

// Warning is a non-fatal issue recorded on a Stream.
type Warning = types.Warning
