package dispatch

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/simonhull/audiodir/internal/types"
)

func cbrMP3(n int) []byte {
	data := make([]byte, n)
	copy(data, []byte{0xFF, 0xFB, 0x90, 0x00})
	return data
}

func id3v1Only() []byte {
	b := make([]byte, 128)
	copy(b, "TAG")
	return b
}

// brokenID3v2 returns a v2.3 tag whose only frame declares more bytes
// than the tag holds.
func brokenID3v2() []byte {
	body := []byte{'T', 'P', 'E', '1', 0, 0, 0, 100, 0, 0, 0, 'A'}
	return append([]byte{'I', 'D', '3', 3, 0, 0, 0, 0, 0, byte(len(body))}, body...)
}

func writeFile(t *testing.T, dir, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func TestFile_Outcomes(t *testing.T) {
	dir := t.TempDir()
	policy := types.DefaultPolicy()

	tests := []struct {
		name     string
		data     []byte
		wantKind Kind
		wantBad  types.BadKind
	}{
		{"song.mp3", cbrMP3(48000), KindStream, ""},
		{"SHOUT.MP3", cbrMP3(48000), KindStream, ""},
		{"hidden.mp3", id3v1Only(), KindSpacer, ""},
		{"hidden.ogg", id3v1Only(), KindSpacer, ""},
		{"hidden.flac", id3v1Only(), KindSpacer, ""},
		{"hidden.mpc", id3v1Only(), KindSpacer, ""},
		{"hidden.m4a", id3v1Only(), KindSpacer, ""},
		{"noise.mp3", []byte("definitely not mpeg audio at all"), KindBad, types.BadDecode},
		{"fake.flac", []byte("RIFF....WAVEfmt "), KindBad, types.BadDecode},
		{"fake.ogg", make([]byte, 64), KindBad, types.BadDecode},
		{"broken.mp3", append(brokenID3v2(), cbrMP3(4800)...), KindStream, ""},
		{"cover.jpg", []byte{0xFF, 0xD8}, KindBad, types.BadUnsupported},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeFile(t, dir, tt.name, tt.data)

			res, err := File(context.Background(), path, policy)
			require.NoError(t, err)
			assert.Equal(t, path, res.Path)
			assert.Equal(t, tt.wantKind, res.Kind, res.Kind.String())

			switch res.Kind {
			case KindStream:
				assert.NotNil(t, res.Stream)
				assert.Nil(t, res.Bad)
			case KindSpacer:
				assert.NotNil(t, res.Spacer)
				assert.Nil(t, res.Stream)
			case KindBad:
				require.NotNil(t, res.Bad)
				assert.Equal(t, tt.wantBad, res.Bad.Kind)
				assert.NotEmpty(t, res.Bad.Reason)
			}
		})
	}
}

func TestFile_BrokenFramePolicy(t *testing.T) {
	path := writeFile(t, t.TempDir(), "broken.mp3", append(brokenID3v2(), cbrMP3(4800)...))

	policy := types.DefaultPolicy()
	policy.BrokenFrames = types.FramePolicyError

	res, err := File(context.Background(), path, policy)
	require.NoError(t, err)
	require.Equal(t, KindBad, res.Kind)
	assert.Equal(t, types.BadBrokenFrame, res.Bad.Kind)
}

func TestFile_StrictID3v1(t *testing.T) {
	path := writeFile(t, t.TempDir(), "plain.mp3", cbrMP3(4800))

	policy := types.DefaultPolicy()
	policy.StrictID3v1 = true

	res, err := File(context.Background(), path, policy)
	require.NoError(t, err)
	require.Equal(t, KindBad, res.Kind)
	assert.Equal(t, types.BadNoTag, res.Bad.Kind)
}

func TestFile_MissingFileIsAnError(t *testing.T) {
	_, err := File(context.Background(), filepath.Join(t.TempDir(), "gone.mp3"), types.DefaultPolicy())
	assert.ErrorIs(t, err, fs.ErrNotExist)
}

func TestFile_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := File(ctx, "whatever.mp3", types.DefaultPolicy())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestClassify(t *testing.T) {
	ioErr := &types.IOError{Path: "a.mp3", Op: "read", Err: errors.New("disk on fire")}
	_, err := Classify("a.mp3", ioErr)
	assert.Same(t, ioErr, err)

	res, err := Classify("a.mp3", &types.MalformedTagError{Path: "a.mp3", Tag: "ID3v2", Reason: "bad frame id"})
	require.NoError(t, err)
	assert.Equal(t, types.BadMalformed, res.Bad.Kind)

	res, err = Classify("a.mp3", &types.OutOfBoundsError{Path: "a.mp3", What: "header"})
	require.NoError(t, err)
	assert.Equal(t, types.BadDecode, res.Bad.Kind)
}

func TestParserFor(t *testing.T) {
	for _, f := range types.Formats() {
		p, err := ParserFor(f)
		require.NoError(t, err, f.String())
		assert.NotNil(t, p)
	}

	_, err := ParserFor(types.FormatUnknown)
	assert.Error(t, err)
}
