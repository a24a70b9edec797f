package bounds

import (
	"errors"
	"fmt"

	"github.com/simonhull/audiodir/internal/binary"
	"github.com/simonhull/audiodir/internal/id3v1"
	"github.com/simonhull/audiodir/internal/id3v2"
	"github.com/simonhull/audiodir/internal/types"
)

// ID3 is the result of reading the ID3 tags located by a Layout.
type ID3 struct {
	V1 *id3v1.Tag
	V2 *id3v2.Tag

	Warnings []types.Warning
}

// ReadID3 parses the ID3v1 tag and the first ID3v2 tag (leading, or else
// trailing) of the layout.
//
// An ID3v2 tag of an unsupported version is skipped with a warning. A tag
// that is malformed, or broken under the error policy, fails the whole read.
func ReadID3(sr *binary.SafeReader, l Layout, policy types.Policy) (*ID3, error) {
	out := &ID3{}

	off := l.Trailing
	if len(l.Leading) > 0 {
		off = l.Leading[0]
	}
	if off >= 0 {
		tag, err := id3v2.Parse(sr, off, policy.BrokenFrames)
		var unsupported *types.UnsupportedVersionError
		switch {
		case errors.As(err, &unsupported):
			out.Warnings = append(out.Warnings, types.Warning{
				Stage:   "id3v2",
				Message: fmt.Sprintf("ignored tag: version 2.%d is not supported", unsupported.Version),
				Offset:  off,
			})
		case err != nil:
			return nil, err
		default:
			out.V2 = tag
			if tag.Dropped {
				out.Warnings = append(out.Warnings, types.Warning{
					Stage:   "id3v2",
					Message: fmt.Sprintf("broken frame, dropped %d trailing bytes", tag.Padding),
					Offset:  off,
				})
			}
		}
	}

	if l.ID3v1 || policy.StrictID3v1 {
		v1, err := id3v1.Parse(sr, policy.StrictID3v1)
		if err != nil {
			return nil, err
		}
		out.V1 = v1
	}

	return out, nil
}

// Tags returns the per-namespace values, with a key for each tag found.
func (t *ID3) Tags() map[types.Namespace]types.TagValues {
	tags := make(map[types.Namespace]types.TagValues, 2)
	if t.V1 != nil {
		tags[types.NamespaceID3v1] = t.V1.Values()
	}
	if t.V2 != nil {
		tags[types.NamespaceID3v2] = t.V2.Values()
	}
	return tags
}
