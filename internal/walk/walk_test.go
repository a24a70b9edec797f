package walk

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var audio = []string{".mp3", ".flac", ".ogg"}

func touch(t *testing.T, path string, size int) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, make([]byte, size), 0o644))
}

func collect(t *testing.T, root string) []Dir {
	t.Helper()
	var dirs []Dir
	require.NoError(t, Walk(context.Background(), root, audio, func(d Dir) error {
		dirs = append(dirs, d)
		return nil
	}))
	return dirs
}

func TestWalk_OrderAndFiltering(t *testing.T) {
	root := t.TempDir()
	touch(t, filepath.Join(root, "b", "02.mp3"), 10)
	touch(t, filepath.Join(root, "b", "01.MP3"), 10)
	touch(t, filepath.Join(root, "b", "cover.jpg"), 10)
	touch(t, filepath.Join(root, "a", "x", "track.flac"), 10)
	touch(t, filepath.Join(root, "a", "notes.txt"), 10)

	dirs := collect(t, root)

	var paths []string
	for _, d := range dirs {
		rel, err := filepath.Rel(root, d.Path)
		require.NoError(t, err)
		paths = append(paths, rel)
	}
	assert.Equal(t, []string{".", "a", filepath.Join("a", "x"), "b"}, paths)

	assert.Empty(t, dirs[0].Files)
	assert.Empty(t, dirs[1].Files)
	assert.Equal(t, []string{"track.flac"}, dirs[2].Files)
	assert.Equal(t, []string{"01.MP3", "02.mp3"}, dirs[3].Files)
	assert.Equal(t, []string{
		filepath.Join(root, "b", "01.MP3"),
		filepath.Join(root, "b", "02.mp3"),
	}, dirs[3].Paths())
}

func TestWalk_Fingerprint(t *testing.T) {
	root := t.TempDir()
	track := filepath.Join(root, "track.mp3")
	touch(t, track, 10)
	touch(t, filepath.Join(root, "cover.jpg"), 10)

	first := collect(t, root)[0].Fingerprint
	assert.Len(t, first, 40)
	assert.Equal(t, first, collect(t, root)[0].Fingerprint)

	// Non-candidate files do not count.
	touch(t, filepath.Join(root, "folder.jpg"), 99)
	assert.Equal(t, first, collect(t, root)[0].Fingerprint)

	later := time.Now().Add(time.Hour)
	require.NoError(t, os.Chtimes(track, later, later))
	touched := collect(t, root)[0].Fingerprint
	assert.NotEqual(t, first, touched)

	touch(t, filepath.Join(root, "bonus.ogg"), 1)
	assert.NotEqual(t, touched, collect(t, root)[0].Fingerprint)
}

func TestWalk_SkipDir(t *testing.T) {
	root := t.TempDir()
	touch(t, filepath.Join(root, "skip", "inner", "a.mp3"), 1)
	touch(t, filepath.Join(root, "keep", "b.mp3"), 1)

	var seen []string
	err := Walk(context.Background(), root, audio, func(d Dir) error {
		seen = append(seen, filepath.Base(d.Path))
		if filepath.Base(d.Path) == "skip" {
			return filepath.SkipDir
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Base(root), "keep", "skip"}, seen)
}

func TestWalk_Errors(t *testing.T) {
	err := Walk(context.Background(), filepath.Join(t.TempDir(), "missing"), audio, func(Dir) error { return nil })
	assert.ErrorIs(t, err, os.ErrNotExist)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err = Walk(ctx, t.TempDir(), audio, func(Dir) error { return nil })
	assert.ErrorIs(t, err, context.Canceled)

	root := t.TempDir()
	touch(t, filepath.Join(root, "sub", "a.mp3"), 1)
	stop := assert.AnError
	err = Walk(context.Background(), root, audio, func(Dir) error { return stop })
	assert.ErrorIs(t, err, stop)
}
