// Package bounds locates the audio payload of a file by stepping over the
// ID3 tags that may be prepended or appended to it.
package bounds

import (
	"fmt"

	"github.com/simonhull/audiodir/internal/binary"
	"github.com/simonhull/audiodir/internal/id3v1"
	"github.com/simonhull/audiodir/internal/id3v2"
	"github.com/simonhull/audiodir/internal/types"
)

// Layout describes where tags and audio sit in a file.
type Layout struct {
	// Range is the audio payload.
	Range types.Range

	// Leading holds the offsets of consecutive ID3v2 tags at the start.
	Leading []int64

	// ID3v1 is set when the file ends with a 128-byte ID3v1 tag.
	ID3v1 bool

	// Trailing is the offset of an appended ID3v2 tag, or -1.
	Trailing int64
}

// Detect finds the audio payload between leading ID3v2 tags and trailing
// ID3v1 and ID3v2 tags. Tags are only located by their headers and
// footers; their contents are not validated here.
func Detect(sr *binary.SafeReader) (Layout, error) {
	l := Layout{Trailing: -1}
	size := sr.Size()

	begin := int64(0)
	for begin < size {
		h, ok, err := id3v2.ReadHeader(sr, begin, id3v2.HeaderMarker)
		if err != nil {
			return l, err
		}
		if !ok {
			break
		}
		l.Leading = append(l.Leading, begin)
		begin = min(begin+h.TotalSize(), size)
	}

	end := size
	hasV1, err := id3v1.Present(sr)
	if err != nil {
		return l, err
	}
	if hasV1 {
		l.ID3v1 = true
		end -= id3v1.Size
	}

	h, ok, err := id3v2.ReadHeader(sr, end-id3v2.HeaderSize, id3v2.FooterMarker)
	if err != nil {
		return l, err
	}
	if ok {
		if start := end - h.TotalSize(); start >= begin {
			l.Trailing = start
			end = start
		}
	}

	l.Range = types.Range{Begin: begin, End: max(begin, end)}
	return l, nil
}

// Spacer returns *types.SpacerError when the layout holds no audio.
func (l Layout) Spacer(path string) error {
	if l.Range.Len() > 0 {
		return nil
	}
	return &types.SpacerError{
		Path:   path,
		Reason: fmt.Sprintf("%d tag bytes and no audio payload", l.Range.Begin),
	}
}
