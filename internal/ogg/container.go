// Package ogg measures Ogg Vorbis streams.
package ogg

import (
	"errors"
	"fmt"

	"github.com/simonhull/audiodir/internal/binary"
	"github.com/simonhull/audiodir/internal/types"
)

// Page header flags.
const (
	flagContinued = 0x01
	flagBOS       = 0x02
	flagEOS       = 0x04
)

const pageHeaderSize = 27

var capture = binary.Literal("OggS")

// Page represents an Ogg page.
//
// An Ogg page is the fundamental unit of the Ogg container format.
// Each page contains a header, a lacing table and the payload.
type Page struct {
	Offset          int64
	HeaderType      byte
	GranulePosition int64
	SerialNumber    uint32
	SequenceNumber  uint32
	Segments        []byte // lacing values
	Data            []byte
}

// Continued reports whether the page starts with the tail of a packet.
func (p *Page) Continued() bool {
	return p.HeaderType&flagContinued != 0
}

// readPage reads an Ogg page at the given offset.
//
// Returns the page and the offset of the next page.
func readPage(sr *binary.SafeReader, offset int64) (*Page, int64, error) {
	r := binary.NewChainReader(binary.NewReaderLE(sr, offset))
	magic := r.String(4, "Ogg capture pattern")
	version := binary.ReadChained[uint8](r, "Ogg version")
	headerType := binary.ReadChained[uint8](r, "Ogg header type")
	granule := binary.ReadChained[uint64](r, "granule position")
	serial := binary.ReadChained[uint32](r, "serial number")
	sequence := binary.ReadChained[uint32](r, "sequence number")
	_ = binary.ReadChained[uint32](r, "page checksum")
	count := binary.ReadChained[uint8](r, "segment count")
	if err := r.Error(); err != nil {
		return nil, 0, err
	}

	if magic != "OggS" {
		return nil, 0, fmt.Errorf("no Ogg page at offset %d", offset)
	}
	if version != 0 {
		return nil, 0, fmt.Errorf("unsupported Ogg version %d at offset %d", version, offset)
	}

	segments, err := sr.Bytes(offset+pageHeaderSize, int(count), "segment table")
	if err != nil {
		return nil, 0, err
	}

	dataSize := 0
	for _, seg := range segments {
		dataSize += int(seg)
	}

	dataOffset := offset + pageHeaderSize + int64(count)
	data, err := sr.Bytes(dataOffset, dataSize, "page data")
	if err != nil {
		return nil, 0, err
	}

	page := &Page{
		Offset:          offset,
		HeaderType:      headerType,
		GranulePosition: int64(granule),
		SerialNumber:    serial,
		SequenceNumber:  sequence,
		Segments:        segments,
		Data:            data,
	}
	return page, dataOffset + int64(dataSize), nil
}

// packetReader reassembles packets from consecutive pages of one logical
// stream. A packet ends at the first lacing value below 255; a page whose
// last lacing value is 255 continues its packet on the next page.
type packetReader struct {
	sr      *binary.SafeReader
	next    int64
	end     int64
	serial  uint32
	started bool

	partial []byte
	ready   [][]byte
}

func newPacketReader(sr *binary.SafeReader, offset, end int64) *packetReader {
	return &packetReader{sr: sr, next: offset, end: end}
}

// Packet returns the next complete packet.
func (pr *packetReader) Packet() ([]byte, error) {
	for len(pr.ready) == 0 {
		if pr.next >= pr.end {
			return nil, fmt.Errorf("stream ended inside the header packets")
		}
		page, next, err := readPage(pr.sr, pr.next)
		if err != nil {
			return nil, err
		}
		pr.next = next

		if !pr.started {
			pr.serial = page.SerialNumber
			pr.started = true
		} else if page.SerialNumber != pr.serial {
			continue
		}
		pr.add(page)
	}

	p := pr.ready[0]
	pr.ready = pr.ready[1:]
	return p, nil
}

func (pr *packetReader) add(page *Page) {
	if !page.Continued() {
		pr.partial = nil
	}
	pos := 0
	for _, lace := range page.Segments {
		pr.partial = append(pr.partial, page.Data[pos:pos+int(lace)]...)
		pos += int(lace)
		if lace < 255 {
			pr.ready = append(pr.ready, pr.partial)
			pr.partial = nil
		}
	}
}

// lastGranule finds the granule position of the last page in [from, to)
// belonging to serial, scanning backward from the end. A page that fails to
// decode is skipped; a failing read stops the scan.
func lastGranule(sr *binary.SafeReader, from, to int64, serial uint32) (int64, error) {
	var (
		granule int64 = -1
		ioErr   *types.IOError
	)
	valid := func(off int64) bool {
		page, _, err := readPage(sr, off)
		if errors.As(err, &ioErr) {
			return true
		}
		if err != nil || page.SerialNumber != serial || page.GranulePosition < 0 {
			return false
		}
		granule = page.GranulePosition
		return true
	}

	off, err := sr.ScanBackward(from, to, capture, valid)
	if err != nil {
		return -1, err
	}
	if ioErr != nil {
		return -1, ioErr
	}
	if off < 0 {
		return -1, nil
	}
	return granule, nil
}
