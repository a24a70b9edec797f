package audiodir

import (
	"context"
	"fmt"
	"os"
	"slices"

	"golang.org/x/sync/errgroup"

	"github.com/simonhull/audiodir/internal/aggregate"
	"github.com/simonhull/audiodir/internal/dispatch"
)

// OpenStream parses one audio file and returns its stream.
//
// The parser is chosen by extension. Parse failures come back as typed
// errors: a tag-only file is a *SpacerError, a structural failure a
// *DecodeError, and so on. The file is closed before OpenStream returns.
//
// Example:
//
//	s, err := audiodir.OpenStream(ctx, "01 Intro.mp3")
//	if err != nil {
//		return err
//	}
//	fmt.Println(s.Bitrate, s.BitrateType, s.Profile)
func OpenStream(ctx context.Context, path string, opts ...Option) (*Stream, error) {
	o, err := buildOptions(opts)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	format := FormatForPath(path)
	parse, err := dispatch.ParserFor(format)
	if err != nil {
		return nil, &UnsupportedFormatError{Path: path, Reason: err.Error()}
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer f.Close()

	stat, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat file: %w", err)
	}

	return parse(f, stat.Size(), path, o.policy)
}

// Inspect parses one audio file and classifies the outcome. Only I/O
// failures and cancellation are returned as errors; a file that does not
// parse is a Result of kind KindBad.
func Inspect(ctx context.Context, path string, opts ...Option) (Result, error) {
	o, err := buildOptions(opts)
	if err != nil {
		return Result{}, err
	}
	return inspect(ctx, path, o)
}

func inspect(ctx context.Context, path string, o *options) (Result, error) {
	r, err := dispatch.File(ctx, path, o.policy)
	if err != nil {
		return r, err
	}

	log := o.logger.With().Str("path", path).Logger()
	switch r.Kind {
	case KindStream:
		for _, w := range r.Stream.Warnings {
			log.Debug().Str("stage", w.Stage).Int64("offset", w.Offset).Msg(w.Message)
		}
	case KindSpacer:
		log.Debug().Str("reason", r.Spacer.Reason).Msg("skipping tag-only file")
	case KindBad:
		log.Warn().Str("kind", string(r.Bad.Kind)).Msg(r.Bad.Reason)
	}
	return r, nil
}

// Directory is the result of scanning one directory.
type Directory struct {
	Summary Summary

	// Streams are sorted by path.
	Streams []*Stream

	// Spacers are the tag-only files, sorted.
	Spacers []string
}

// ScanDir parses the given files of dir concurrently and summarizes them.
//
// Files are parsed by up to WithConcurrency goroutines and gathered in
// lexical path order, though the summary does not depend on order. Bad
// files end up in Summary.BadFiles. The first I/O error cancels the
// remaining parses and is returned.
//
// Example:
//
//	d, err := audiodir.ScanDir(ctx, dir, paths)
//	if err != nil {
//		return err
//	}
//	fmt.Println(d.Summary.Mediatype, d.Summary.Quality())
func ScanDir(ctx context.Context, dir string, paths []string, opts ...Option) (*Directory, error) {
	o, err := buildOptions(opts)
	if err != nil {
		return nil, err
	}

	sorted := slices.Sorted(slices.Values(paths))
	results := make([]Result, len(sorted))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(o.concurrency)
	for i, path := range sorted {
		g.Go(func() error {
			r, err := inspect(ctx, path, o)
			if err != nil {
				return err
			}
			results[i] = r
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	d := &Directory{}
	var bad []BadFile
	for _, r := range results {
		switch r.Kind {
		case KindStream:
			d.Streams = append(d.Streams, r.Stream)
		case KindSpacer:
			d.Spacers = append(d.Spacers, r.Path)
		case KindBad:
			bad = append(bad, *r.Bad)
		}
	}
	d.Summary = aggregate.Summarize(dir, d.Streams, bad, o.policy)

	o.logger.Debug().
		Str("dir", dir).
		Str("mediatype", d.Summary.Mediatype).
		Int("streams", len(d.Streams)).
		Int("bad", len(bad)).
		Int("spacers", len(d.Spacers)).
		Msg("directory summarized")

	return d, nil
}

// Summarize reconciles already parsed streams into a directory summary.
// The result does not depend on the order of streams or bad.
func Summarize(dir string, streams []*Stream, bad []BadFile, opts ...Option) (Summary, error) {
	o, err := buildOptions(opts)
	if err != nil {
		return Summary{}, err
	}
	return aggregate.Summarize(dir, streams, bad, o.policy), nil
}
