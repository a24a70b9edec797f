// Package dispatch routes a file to the parser for its format and turns
// the outcome into a Result.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/simonhull/audiodir/internal/flac"
	"github.com/simonhull/audiodir/internal/m4a"
	"github.com/simonhull/audiodir/internal/mp3"
	"github.com/simonhull/audiodir/internal/mpc"
	"github.com/simonhull/audiodir/internal/ogg"
	"github.com/simonhull/audiodir/internal/types"
)

// Parser measures one stream.
type Parser func(r io.ReaderAt, size int64, path string, policy types.Policy) (*types.Stream, error)

// ParserFor returns the parser for a format.
func ParserFor(f types.Format) (Parser, error) {
	switch f {
	case types.FormatMP3:
		return mp3.Parse, nil
	case types.FormatOgg:
		return ogg.Parse, nil
	case types.FormatFLAC:
		return flac.Parse, nil
	case types.FormatMPC:
		return mpc.Parse, nil
	case types.FormatAAC:
		return m4a.Parse, nil
	case types.FormatUnknown:
		return nil, fmt.Errorf("no parser for format %s", f)
	default:
		return nil, fmt.Errorf("no parser for format %s", f)
	}
}

// Kind is the outcome of dispatching one file.
type Kind int

const (
	// KindStream means the file parsed into a stream.
	KindStream Kind = iota
	// KindSpacer means the file holds tags but no audio. It is neither a
	// stream nor a bad file.
	KindSpacer
	// KindBad means the file was rejected and recorded.
	KindBad
)

func (k Kind) String() string {
	switch k {
	case KindStream:
		return "stream"
	case KindSpacer:
		return "spacer"
	case KindBad:
		return "bad"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Result is the outcome of dispatching one file. Exactly one of Stream,
// Spacer and Bad is set, according to Kind.
type Result struct {
	Path   string
	Kind   Kind
	Stream *types.Stream
	Spacer *types.SpacerError
	Bad    *types.BadFile
}

// File opens path, parses it with the parser for its extension and closes
// it again. Only I/O failures are returned as errors; every parse outcome
// is a Result.
func File(ctx context.Context, path string, policy types.Policy) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	format := types.FormatForPath(path)
	if format == types.FormatUnknown {
		return Classify(path, &types.UnsupportedFormatError{Path: path, Reason: "unknown extension"})
	}

	f, err := os.Open(path)
	if err != nil {
		return Result{}, err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return Result{}, err
	}

	return Reader(f, info.Size(), path, format, policy)
}

// Reader parses r as the given format.
func Reader(r io.ReaderAt, size int64, path string, format types.Format, policy types.Policy) (Result, error) {
	parse, err := ParserFor(format)
	if err != nil {
		return Classify(path, &types.UnsupportedFormatError{Path: path, Reason: err.Error()})
	}

	stream, err := parse(r, size, path, policy)
	if err != nil {
		return Classify(path, err)
	}
	return Result{Path: path, Kind: KindStream, Stream: stream}, nil
}

// Classify turns a parse error into a spacer or bad-file Result. I/O
// errors are returned unchanged.
func Classify(path string, err error) (Result, error) {
	var (
		ioErr       *types.IOError
		pathErr     *os.PathError
		spacer      *types.SpacerError
		broken      *types.BrokenFrameError
		malformed   *types.MalformedTagError
		noTag       *types.NoTagError
		unsupported *types.UnsupportedFormatError
	)

	var kind types.BadKind
	switch {
	case errors.As(err, &ioErr), errors.As(err, &pathErr):
		return Result{}, err
	case errors.As(err, &spacer):
		return Result{Path: path, Kind: KindSpacer, Spacer: spacer}, nil
	case errors.As(err, &broken):
		kind = types.BadBrokenFrame
	case errors.As(err, &malformed):
		kind = types.BadMalformed
	case errors.As(err, &noTag):
		kind = types.BadNoTag
	case errors.As(err, &unsupported):
		kind = types.BadUnsupported
	default:
		kind = types.BadDecode
	}

	return Result{
		Path: path,
		Kind: KindBad,
		Bad:  &types.BadFile{Path: path, Kind: kind, Reason: err.Error()},
	}, nil
}
