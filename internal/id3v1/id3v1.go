// Package id3v1 reads the fixed 128-byte ID3v1 trailer.
package id3v1

import (
	"fmt"
	"strings"
	"unicode"

	"golang.org/x/text/encoding/charmap"

	"github.com/simonhull/audiodir/internal/binary"
	"github.com/simonhull/audiodir/internal/types"
)

// Size is the length of an ID3v1 tag.
const Size = 128

// Tag is a decoded ID3v1 (or ID3v1.1) tag.
type Tag struct {
	Title   string
	Artist  string
	Album   string
	Year    string
	Comment string

	// Track is set only for ID3v1.1 tags, 0 otherwise.
	Track int

	GenreIndex uint8
	Genre      string
}

// Present reports whether the last 128 bytes of the file start with "TAG".
func Present(sr *binary.SafeReader) (bool, error) {
	if sr.Size() < Size {
		return false, nil
	}
	marker, err := sr.Bytes(sr.Size()-Size, 3, "ID3v1 marker")
	if err != nil {
		return false, err
	}
	return string(marker) == "TAG", nil
}

// Parse reads the ID3v1 tag at the end of the file.
//
// When the tag is absent Parse returns nil, nil, unless strict is set, in
// which case it returns *types.NoTagError.
func Parse(sr *binary.SafeReader, strict bool) (*Tag, error) {
	ok, err := Present(sr)
	if err != nil {
		return nil, err
	}
	if !ok {
		if strict {
			return nil, &types.NoTagError{Path: sr.Path(), Tag: "ID3v1"}
		}
		return nil, nil
	}

	block, err := sr.Bytes(sr.Size()-Size, Size, "ID3v1 tag")
	if err != nil {
		return nil, err
	}
	return Decode(block)
}

// Decode decodes a 128-byte ID3v1 block.
func Decode(block []byte) (*Tag, error) {
	if len(block) != Size || string(block[:3]) != "TAG" {
		return nil, fmt.Errorf("not an ID3v1 block")
	}

	tag := &Tag{
		Title:      text(block[3:33]),
		Artist:     text(block[33:63]),
		Album:      text(block[63:93]),
		Year:       text(block[93:97]),
		GenreIndex: block[127],
	}

	// ID3v1.1 steals the last two comment bytes for a zero and the track.
	if block[125] == 0 {
		tag.Comment = text(block[97:125])
		tag.Track = int(block[126])
	} else {
		tag.Comment = text(block[97:127])
	}

	tag.Genre = GenreName(tag.GenreIndex)
	return tag, nil
}

// Values returns the fields relevant to directory reconciliation.
func (t *Tag) Values() types.TagValues {
	return types.TagValues{Artist: t.Artist, Album: t.Album}
}

// text decodes a Latin-1 field and strips trailing whitespace and NULs.
func text(b []byte) string {
	out, err := charmap.ISO8859_1.NewDecoder().Bytes(b)
	if err != nil {
		out = b
	}
	return strings.TrimRightFunc(string(out), func(r rune) bool {
		return r == 0 || unicode.IsSpace(r)
	})
}
