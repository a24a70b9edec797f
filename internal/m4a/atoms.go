// Package m4a measures AAC streams in MPEG-4 containers.
package m4a

import (
	"fmt"
	"io"

	"github.com/simonhull/audiodir/internal/binary"
)

// Atom represents an MP4 atom (box)
type Atom struct {
	Size     uint64 // Total size including header
	Type     string // 4-character type code
	Offset   int64  // Position in file
	Extended bool   // Whether this uses 64-bit extended size
}

// DataSize returns the size of the atom's data (excluding header)
func (a *Atom) DataSize() uint64 {
	headerSize := uint64(8)
	if a.Extended {
		headerSize = 16
	}
	if a.Size < headerSize {
		return 0
	}
	return a.Size - headerSize
}

// DataOffset returns the file offset where the atom's data starts
func (a *Atom) DataOffset() int64 {
	headerSize := int64(8)
	if a.Extended {
		headerSize = 16
	}
	return a.Offset + headerSize
}

// End returns the offset just past the atom.
func (a *Atom) End() int64 {
	return a.Offset + int64(a.Size)
}

// containers lists the atoms whose data is a sequence of child atoms.
var containers = map[string]bool{
	"moov": true,
	"trak": true,
	"mdia": true,
	"minf": true,
	"stbl": true,
	"udta": true,
	"meta": true,
	"ilst": true,
	"edts": true,
}

// IsContainer returns true if this atom type can contain other atoms
func (a *Atom) IsContainer() bool {
	return containers[a.Type]
}

// readAtomHeader reads an atom header at the given offset
func readAtomHeader(sr *binary.SafeReader, offset int64) (*Atom, error) {
	size32, err := binary.Read[uint32](sr, offset, "atom size")
	if err != nil {
		return nil, err
	}
	typeBytes, err := sr.Bytes(offset+4, 4, "atom type")
	if err != nil {
		return nil, err
	}

	atom := &Atom{
		Type:   string(typeBytes),
		Offset: offset,
		Size:   uint64(size32),
	}

	// size == 1 means a 64-bit size follows
	if size32 == 1 {
		size64, err := binary.Read[uint64](sr, offset+8, "extended atom size")
		if err != nil {
			return nil, err
		}
		atom.Size = size64
		atom.Extended = true
	}

	if atom.Size < 8 {
		return nil, fmt.Errorf("invalid atom size %d at offset %d (minimum is 8)", atom.Size, offset)
	}
	return atom, nil
}

// Node is one atom of the tree returned by Tree.
type Node struct {
	Atom
	Depth int
}

// Tree lists the atoms of an MP4 file depth-first, descending into
// container atoms. It stops at the first unreadable header.
func Tree(r io.ReaderAt, size int64, path string) ([]Node, error) {
	sr := binary.NewSafeReader(r, size, path)
	var nodes []Node
	err := walk(sr, 0, size, 0, func(a *Atom, depth int) {
		nodes = append(nodes, Node{Atom: *a, Depth: depth})
	})
	return nodes, err
}

func walk(sr *binary.SafeReader, offset, end int64, depth int, fn func(*Atom, int)) error {
	for offset+8 <= end {
		atom, err := readAtomHeader(sr, offset)
		if err != nil {
			return err
		}
		fn(atom, depth)

		if atom.IsContainer() {
			start := atom.DataOffset()
			// meta is a full box: version and flags precede its children
			if atom.Type == "meta" {
				start += 4
			}
			if err := walk(sr, start, min(atom.End(), end), depth+1, fn); err != nil {
				return err
			}
		}
		offset = atom.End()
	}
	return nil
}
