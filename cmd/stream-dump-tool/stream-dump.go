package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/simonhull/audiodir"
	"github.com/simonhull/audiodir/internal/m4a"
)

// Useful test tool to confirm what we're able to actually read from a file.
func main() {
	if len(os.Args) < 2 {
		fmt.Println("Usage: stream-dump <file>...")
		os.Exit(1)
	}

	status := 0
	for _, path := range os.Args[1:] {
		if err := dump(os.Stdout, path); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			status = 1
		}
	}
	os.Exit(status)
}

func dump(w io.Writer, path string) error {
	r, err := audiodir.Inspect(context.Background(), path)
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "%s: %s\n", path, r.Kind)
	switch r.Kind {
	case audiodir.KindSpacer:
		fmt.Fprintf(w, "  reason:   %s\n", r.Spacer.Reason)
	case audiodir.KindBad:
		fmt.Fprintf(w, "  kind:     %s\n", r.Bad.Kind)
		fmt.Fprintf(w, "  reason:   %s\n", r.Bad.Reason)
	case audiodir.KindStream:
		dumpStream(w, r.Stream)
	}

	if r.Kind != audiodir.KindSpacer && audiodir.FormatForPath(path) == audiodir.FormatAAC {
		return dumpAtoms(w, path)
	}
	return nil
}

func dumpStream(w io.Writer, s *audiodir.Stream) {
	fmt.Fprintf(w, "  stream:   %s\n", s)
	fmt.Fprintf(w, "  range:    [%d, %d) %d bytes\n", s.Range.Begin, s.Range.End, s.Size())
	fmt.Fprintf(w, "  duration: %.3fs\n", s.Duration)
	fmt.Fprintf(w, "  bitrate:  %d %s\n", s.Bitrate, s.BitrateType.Tag())
	if s.ChannelMode != "" {
		fmt.Fprintf(w, "  mode:     %s\n", s.ChannelMode)
	}
	if s.Encoder != "" {
		fmt.Fprintf(w, "  encoder:  %s\n", s.Encoder)
	}
	if s.Profile != "" {
		fmt.Fprintf(w, "  profile:  %s (legacy %s)\n", s.Profile, s.LegacyProfile)
	}
	if s.TotalSamples > 0 {
		fmt.Fprintf(w, "  samples:  %d\n", s.TotalSamples)
	}
	if s.Frames > 0 {
		fmt.Fprintf(w, "  frames:   %d\n", s.Frames)
	}
	if s.SeekPoints > 0 {
		fmt.Fprintf(w, "  seek:     %d points\n", s.SeekPoints)
	}
	if s.CompressionRatio > 0 {
		fmt.Fprintf(w, "  ratio:    %.3f\n", s.CompressionRatio)
	}
	for _, ns := range s.Namespaces() {
		tv := s.Tags[ns]
		fmt.Fprintf(w, "  %-8s  artist=%q album=%q\n", ns+":", tv.Artist, tv.Album)
	}
	for _, warn := range s.Warnings {
		fmt.Fprintf(w, "  warning:  %s\n", warn)
	}
}

func dumpAtoms(w io.Writer, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	stat, err := f.Stat()
	if err != nil {
		return err
	}

	nodes, err := m4a.Tree(f, stat.Size(), path)
	fmt.Fprintln(w, "  atoms:")
	for _, n := range nodes {
		fmt.Fprintf(w, "    %s%s (size: %d, offset: %d)\n", strings.Repeat("  ", n.Depth), n.Type, n.Size, n.Offset)
	}
	return err
}
