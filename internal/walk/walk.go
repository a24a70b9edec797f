// Package walk enumerates the directories of a tree together with the
// audio files each one holds.
package walk

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
)

// Dir is one directory and its candidate audio files.
type Dir struct {
	Path string

	// Files are base names, sorted, filtered by extension.
	Files []string

	// Fingerprint changes whenever a candidate file is added, removed,
	// resized or touched.
	Fingerprint string
}

// Paths returns the full path of every candidate file.
func (d Dir) Paths() []string {
	paths := make([]string, len(d.Files))
	for i, f := range d.Files {
		paths[i] = filepath.Join(d.Path, f)
	}
	return paths
}

// Func is called once per directory. Returning filepath.SkipDir skips the
// directory's subdirectories; any other error stops the walk.
type Func func(Dir) error

// Walk visits root and every directory below it depth-first, in lexical
// order. Directories without candidates are still visited. Extensions are
// matched case-insensitively and include the leading dot. Symlinked
// directories are not followed.
func Walk(ctx context.Context, root string, exts []string, fn Func) error {
	allowed := make(map[string]bool, len(exts))
	for _, e := range exts {
		allowed[strings.ToLower(e)] = true
	}
	err := walk(ctx, filepath.Clean(root), allowed, fn)
	if errors.Is(err, filepath.SkipDir) {
		return nil
	}
	return err
}

func walk(ctx context.Context, path string, allowed map[string]bool, fn Func) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	entries, err := os.ReadDir(path)
	if err != nil {
		return fmt.Errorf("walk %s: %w", path, err)
	}

	dir := Dir{Path: path}
	var files []fs.DirEntry
	var subdirs []string
	for _, e := range entries {
		switch {
		case e.IsDir():
			subdirs = append(subdirs, e.Name())
		case allowed[strings.ToLower(filepath.Ext(e.Name()))]:
			files = append(files, e)
			dir.Files = append(dir.Files, e.Name())
		}
	}

	dir.Fingerprint, err = fingerprint(files)
	if err != nil {
		return fmt.Errorf("walk %s: %w", path, err)
	}

	switch err := fn(dir); {
	case errors.Is(err, filepath.SkipDir):
		return nil
	case err != nil:
		return err
	}

	slices.Sort(subdirs)
	for _, sub := range subdirs {
		if err := walk(ctx, filepath.Join(path, sub), allowed, fn); err != nil {
			return err
		}
	}
	return nil
}

// fingerprint hashes name, size and modification time of each file.
// Entries must be sorted by name.
func fingerprint(files []fs.DirEntry) (string, error) {
	h := sha1.New()
	for _, f := range files {
		info, err := f.Info()
		if err != nil {
			return "", err
		}
		fmt.Fprintf(h, "%s\x00%d\x00%d\n", f.Name(), info.Size(), info.ModTime().UnixNano())
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
