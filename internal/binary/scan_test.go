package binary

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var mpegSync = Masked([]byte{0xFF, 0xE0}, []byte{0xFF, 0xE0})

func TestScan_FindsAcrossWindowBoundary(t *testing.T) {
	// Place "OggS" so it straddles the first window edge.
	for _, at := range []int{ScanWindow - 3, ScanWindow - 2, ScanWindow - 1, ScanWindow} {
		data := make([]byte, 3*ScanWindow)
		copy(data[at:], "OggS")

		off, err := newTestReader(data).Scan(0, int64(len(data)), Literal("OggS"), nil)
		require.NoError(t, err)
		assert.Equal(t, int64(at), off, "pattern at %d", at)
	}
}

func TestScan_NotFound(t *testing.T) {
	data := make([]byte, 5000)

	off, err := newTestReader(data).Scan(0, int64(len(data)), Literal("MP+"), nil)
	require.NoError(t, err)
	assert.Equal(t, int64(-1), off)
}

func TestScan_ValidatorRejectsFalsePositive(t *testing.T) {
	data := make([]byte, 4096)
	data[100], data[101] = 0xFF, 0xE2 // rejected
	data[3000], data[3001] = 0xFF, 0xFB

	sr := newTestReader(data)
	var seen []int64
	off, err := sr.Scan(0, int64(len(data)), mpegSync, func(off int64) bool {
		seen = append(seen, off)
		return off != 100
	})
	require.NoError(t, err)
	assert.Equal(t, int64(3000), off)
	assert.Equal(t, []int64{100, 3000}, seen)
}

func TestScan_MaskedMatch(t *testing.T) {
	data := []byte{0x00, 0xFF, 0xF3, 0x44}

	off, err := newTestReader(data).Scan(0, 4, mpegSync, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(1), off)
}

func TestScan_RespectsRange(t *testing.T) {
	data := []byte("xxOggSxxxxOggS")

	off, err := newTestReader(data).Scan(3, int64(len(data)), Literal("OggS"), nil)
	require.NoError(t, err)
	assert.Equal(t, int64(10), off)

	off, err = newTestReader(data).Scan(0, 5, Literal("OggS"), nil)
	require.NoError(t, err)
	assert.Equal(t, int64(-1), off, "match ending past the range end")
}

func TestScanBackward_FindsLast(t *testing.T) {
	data := make([]byte, 4*ScanWindow+17)
	copy(data[10:], "OggS")
	copy(data[2*ScanWindow-2:], "OggS")

	sr := newTestReader(data)
	off, err := sr.ScanBackward(0, int64(len(data)), Literal("OggS"), nil)
	require.NoError(t, err)
	assert.Equal(t, int64(2*ScanWindow-2), off)

	off, err = sr.ScanBackward(0, int64(len(data)), Literal("OggS"), func(off int64) bool { return off < 100 })
	require.NoError(t, err)
	assert.Equal(t, int64(10), off)
}

func TestScanBackward_EveryBoundaryPosition(t *testing.T) {
	size := 3 * ScanWindow
	for at := size - ScanWindow - 4; at <= size-ScanWindow+1; at++ {
		data := make([]byte, size)
		copy(data[at:], "OggS")

		off, err := newTestReader(data).ScanBackward(0, int64(size), Literal("OggS"), nil)
		require.NoError(t, err)
		assert.Equal(t, int64(at), off)
	}
}

func TestScanMarkers_SinglePass(t *testing.T) {
	var buf bytes.Buffer
	buf.Write(make([]byte, 700))
	buf.WriteString("mvhd")
	buf.Write(make([]byte, ScanWindow-706))
	buf.WriteString("stsd") // straddles the window edge
	buf.Write(make([]byte, 3000))
	buf.WriteString("esds")
	buf.WriteString("mvhd") // second occurrence is ignored

	markers := []string{"mvhd", "stsd", "esds", "\xa9ART"}
	found, err := newTestReader(buf.Bytes()).ScanMarkers(0, int64(buf.Len()), markers, nil)
	require.NoError(t, err)

	assert.Equal(t, int64(700), found["mvhd"])
	assert.Equal(t, int64(ScanWindow-2), found["stsd"])
	assert.Equal(t, int64(ScanWindow+2+3000), found["esds"])
	assert.NotContains(t, found, "\xa9ART")
}

func TestScanMarkers_Validator(t *testing.T) {
	data := []byte("..esds....esds..")

	found, err := newTestReader(data).ScanMarkers(0, int64(len(data)), []string{"esds"}, func(_ string, off int64) bool {
		return off > 5
	})
	require.NoError(t, err)
	assert.Equal(t, int64(10), found["esds"])
}
