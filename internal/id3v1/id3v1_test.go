package id3v1

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/simonhull/audiodir/internal/binary"
	"github.com/simonhull/audiodir/internal/types"
)

// buildTag creates a 128-byte ID3v1 block. track < 0 writes a v1.0 comment.
func buildTag(title, artist, album, year, comment string, track int, genre byte) []byte {
	b := make([]byte, Size)
	copy(b, "TAG")
	copy(b[3:33], title)
	copy(b[33:63], artist)
	copy(b[63:93], album)
	copy(b[93:97], year)
	if track >= 0 {
		copy(b[97:125], comment)
		b[125] = 0
		b[126] = byte(track)
	} else {
		copy(b[97:127], comment)
	}
	b[127] = genre
	return b
}

func readerFor(data []byte) *binary.SafeReader {
	return binary.NewSafeReader(bytes.NewReader(data), int64(len(data)), "test.mp3")
}

func TestParse_V11(t *testing.T) {
	data := append(make([]byte, 500), buildTag("Song", "Artist", "Album", "1999", "nice", 7, 17)...)

	tag, err := Parse(readerFor(data), false)
	require.NoError(t, err)
	require.NotNil(t, tag)

	assert.Equal(t, "Song", tag.Title)
	assert.Equal(t, "Artist", tag.Artist)
	assert.Equal(t, "Album", tag.Album)
	assert.Equal(t, "1999", tag.Year)
	assert.Equal(t, "nice", tag.Comment)
	assert.Equal(t, 7, tag.Track)
	assert.Equal(t, "Rock", tag.Genre)
	assert.Equal(t, types.TagValues{Artist: "Artist", Album: "Album"}, tag.Values())
}

func TestParse_V10FullComment(t *testing.T) {
	comment := "abcdefghijklmnopqrstuvwxyz1234" // 30 bytes
	data := buildTag("T", "A", "B", "2001", comment, -1, 0)

	tag, err := Parse(readerFor(data), false)
	require.NoError(t, err)
	assert.Equal(t, comment, tag.Comment)
	assert.Equal(t, 0, tag.Track)
	assert.Equal(t, "Blues", tag.Genre)
}

func TestParse_StripsSpacesAndNULs(t *testing.T) {
	block := buildTag("", "", "", "", "", -1, 12)
	copy(block[33:63], "Padded Artist      \x00\x00 \x00")

	tag, err := Decode(block)
	require.NoError(t, err)
	assert.Equal(t, "Padded Artist", tag.Artist)
	assert.Empty(t, tag.Title)
}

func TestParse_StripsTrailingWhitespace(t *testing.T) {
	block := buildTag("Title\t\t", "Artist\r\n\x00", "Album \t\x00 \n", "", "", -1, 0)

	tag, err := Decode(block)
	require.NoError(t, err)
	assert.Equal(t, "Title", tag.Title)
	assert.Equal(t, "Artist", tag.Artist)
	assert.Equal(t, "Album", tag.Album)
}

func TestParse_Latin1(t *testing.T) {
	block := buildTag("", "Bj\xf6rk", "", "", "", -1, 0)

	tag, err := Decode(block)
	require.NoError(t, err)
	assert.Equal(t, "Björk", tag.Artist)
}

func TestGenreName(t *testing.T) {
	assert.Equal(t, "Blues", GenreName(0))
	assert.Equal(t, "Synthpop", GenreName(147))
	assert.Equal(t, "unknown (148)", GenreName(148))
	assert.Equal(t, "unknown (255)", GenreName(255))
}

func TestParse_Absent(t *testing.T) {
	data := make([]byte, 300)

	tag, err := Parse(readerFor(data), false)
	require.NoError(t, err)
	assert.Nil(t, tag)

	_, err = Parse(readerFor(data), true)
	var noTag *types.NoTagError
	assert.ErrorAs(t, err, &noTag)
}

func TestParse_FileShorterThanTag(t *testing.T) {
	_, err := Parse(readerFor([]byte("TAG")), true)
	var noTag *types.NoTagError
	assert.ErrorAs(t, err, &noTag)
}
