package types

import "fmt"

// OutOfBoundsError is returned when attempting to read beyond file bounds.
type OutOfBoundsError struct {
	Path   string
	What   string
	Offset int64
	Length int
	Size   int64
}

func (e *OutOfBoundsError) Error() string {
	if e.Offset >= e.Size || e.Offset < 0 {
		return fmt.Sprintf("%s: offset %d out of bounds (file size: %d) while reading %s",
			e.Path, e.Offset, e.Size, e.What)
	}
	return fmt.Sprintf("%s: read of %d bytes at offset %d would exceed file size %d while reading %s",
		e.Path, e.Length, e.Offset, e.Size, e.What)
}

// IOError wraps a failure of the underlying file, such as a permission
// problem or a read error. It is never turned into a BadFile.
type IOError struct {
	Path string
	Op   string
	Err  error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Path, e.Op, e.Err)
}

func (e *IOError) Unwrap() error {
	return e.Err
}

// UnsupportedFormatError is returned when no parser handles the file extension.
type UnsupportedFormatError struct {
	Path   string
	Reason string
}

func (e *UnsupportedFormatError) Error() string {
	return fmt.Sprintf("%s: unsupported format: %s", e.Path, e.Reason)
}

// SpacerError reports a file that holds tags but no audio payload.
// It is a classification, not a failure: such files are neither streams
// nor bad files.
type SpacerError struct {
	Path   string
	Reason string
}

func (e *SpacerError) Error() string {
	return fmt.Sprintf("%s: not an audio stream: %s", e.Path, e.Reason)
}

// DecodeError reports a structural failure in a stream parser.
type DecodeError struct {
	Path   string
	Format Format
	Offset int64
	Reason string
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("%s: %s decode failed at offset %d: %s", e.Path, e.Format, e.Offset, e.Reason)
}

// MalformedTagError reports a structurally invalid tag.
type MalformedTagError struct {
	Path   string
	Tag    string
	Offset int64
	Reason string
}

func (e *MalformedTagError) Error() string {
	return fmt.Sprintf("%s: malformed %s tag at offset %d: %s", e.Path, e.Tag, e.Offset, e.Reason)
}

// UnsupportedVersionError reports an ID3v2 major version other than 3 or 4.
// It only invalidates the ID3v2 tag; the stream and any ID3v1 tag still parse.
type UnsupportedVersionError struct {
	Path    string
	Version uint8
}

func (e *UnsupportedVersionError) Error() string {
	return fmt.Sprintf("%s: unsupported ID3v2 version 2.%d", e.Path, e.Version)
}

// BrokenFrameError reports an ID3v2 frame whose declared size runs past
// the end of the tag.
type BrokenFrameError struct {
	Path      string
	FrameID   string
	Offset    int64
	Size      int64
	Remaining int64
}

func (e *BrokenFrameError) Error() string {
	return fmt.Sprintf("%s: ID3v2 frame %s at offset %d declares %d bytes, only %d remain",
		e.Path, e.FrameID, e.Offset, e.Size, e.Remaining)
}

// NoTagError is returned in strict mode when a requested tag is absent.
type NoTagError struct {
	Path string
	Tag  string
}

func (e *NoTagError) Error() string {
	return fmt.Sprintf("%s: no %s tag", e.Path, e.Tag)
}

// Warning represents a non-fatal issue encountered during parsing.
//
// Warnings indicate problems that don't prevent the stream from being
// measured, for example an ID3v2 tag of an unsupported version or a tag
// truncated under the drop policy.
type Warning struct {
	// Stage where the warning occurred: "id3v1", "id3v2", "stream".
	Stage string

	// Warning message
	Message string

	// File offset where the issue occurred (0 if not applicable)
	Offset int64
}

// String returns a human-readable warning message.
func (w Warning) String() string {
	if w.Offset > 0 {
		return fmt.Sprintf("%s (at offset %d): %s", w.Stage, w.Offset, w.Message)
	}
	return fmt.Sprintf("%s: %s", w.Stage, w.Message)
}
