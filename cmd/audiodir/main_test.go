package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// cbrMP3 is a 10 second 128 kbps stream with an ID3v1 trailer.
func cbrMP3(artist, album string) []byte {
	data := make([]byte, 160000+128)
	copy(data, []byte{0xFF, 0xFB, 0x90, 0x00})
	tag := data[160000:]
	copy(tag, "TAG")
	copy(tag[33:], artist)
	copy(tag[63:], album)
	tag[127] = 255
	return data
}

func library(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	files := map[string][]byte{
		"Artist/First/01.mp3":  cbrMP3("Artist", "First"),
		"Artist/First/02.mp3":  cbrMP3("Artist", "First"),
		"Artist/Second/01.mp3": cbrMP3("Artist", "Second"),
		"Artist/cover.jpg":     {0xFF, 0xD8},
	}
	for name, data := range files {
		path := filepath.Join(root, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, data, 0o644))
	}
	return root
}

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("AUDIODIR_LOG_LEVEL", "error")
	var out bytes.Buffer
	err := run(context.Background(), append([]string{"-quiet"}, args...), &out, io.Discard)
	return out.String(), err
}

func TestRun_Text(t *testing.T) {
	root := library(t)

	out, err := runCLI(t, root)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 3)
	assert.Contains(t, lines[0], "QUALITY")
	assert.Equal(t, []string{filepath.Join(root, "Artist", "First"), "MP3", "Artist", "First", "128", "C", "0:20", "312.5KiB", "0"}, strings.Fields(lines[1]))
	assert.True(t, strings.HasPrefix(lines[2], filepath.Join(root, "Artist", "Second")))
}

func TestRun_JSONWithFlags(t *testing.T) {
	root := library(t)

	out, err := runCLI(t, "-format", "json", "-prefer", "1", "-workers", "2", root)
	require.NoError(t, err)

	var doc struct {
		RunID       string `json:"runId"`
		Directories []struct {
			Path   string `json:"path"`
			Album  string `json:"album"`
			Length float64
		} `json:"directories"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &doc))
	assert.Len(t, doc.RunID, 36)
	require.Len(t, doc.Directories, 2)
	assert.Equal(t, "First", doc.Directories[0].Album)
	assert.Equal(t, "Second", doc.Directories[1].Album)
	assert.InDelta(t, 10.0, doc.Directories[1].Length, 0.001)
}

func TestRun_CacheAndMetrics(t *testing.T) {
	root := library(t)
	mr := miniredis.RunT(t)
	metricsFile := filepath.Join(t.TempDir(), "audiodir.prom")

	cfg := filepath.Join(t.TempDir(), "audiodir.yaml")
	require.NoError(t, os.WriteFile(cfg, []byte("cache:\n  enabled: true\n  addr: \""+mr.Addr()+"\"\n"), 0o644))

	first, err := runCLI(t, "-config", cfg, "-metrics-file", metricsFile, root)
	require.NoError(t, err)
	assert.Len(t, mr.Keys(), 2)

	prom, err := os.ReadFile(metricsFile)
	require.NoError(t, err)
	assert.Contains(t, string(prom), `audiodir_files_parsed_total{format="MP3"} 3`)
	assert.Contains(t, string(prom), "audiodir_cache_hits_total 0")

	second, err := runCLI(t, "-config", cfg, "-metrics-file", metricsFile, root)
	require.NoError(t, err)
	assert.Equal(t, first, second)

	prom, err = os.ReadFile(metricsFile)
	require.NoError(t, err)
	assert.Contains(t, string(prom), "audiodir_cache_hits_total 2")

	// -no-cache scans again.
	_, err = runCLI(t, "-config", cfg, "-no-cache", "-metrics-file", metricsFile, root)
	require.NoError(t, err)
	prom, err = os.ReadFile(metricsFile)
	require.NoError(t, err)
	assert.Contains(t, string(prom), "audiodir_cache_hits_total 0")
}

func TestRun_Errors(t *testing.T) {
	_, err := runCLI(t)
	assert.ErrorContains(t, err, "no directories given")

	_, err = runCLI(t, "-prefer", "3", t.TempDir())
	assert.ErrorContains(t, err, "preferred tag version")

	_, err = runCLI(t, "-format", "html", t.TempDir())
	assert.ErrorContains(t, err, "unknown report format")

	_, err = runCLI(t, filepath.Join(t.TempDir(), "missing"))
	assert.ErrorIs(t, err, os.ErrNotExist)

	_, err = runCLI(t, "-bogus")
	assert.Error(t, err)
}

func TestRun_Version(t *testing.T) {
	out, err := runCLI(t, "-version")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "audiodir "))
}
