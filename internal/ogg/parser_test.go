package ogg

import (
	"bytes"
	"encoding/binary"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/simonhull/audiodir/internal/types"
	"github.com/simonhull/audiodir/internal/vorbis"
)

// lacing returns the segment table for one packet of n bytes.
func lacing(n int) []byte {
	var segments []byte
	for n >= 255 {
		segments = append(segments, 255)
		n -= 255
	}
	return append(segments, byte(n))
}

// writePage appends a page holding the given lacing values and data.
func writePage(buf *bytes.Buffer, headerType byte, granule int64, serial, sequence uint32, segments, data []byte) {
	buf.WriteString("OggS")
	buf.WriteByte(0x00)
	buf.WriteByte(headerType)
	binary.Write(buf, binary.LittleEndian, uint64(granule))
	binary.Write(buf, binary.LittleEndian, serial)
	binary.Write(buf, binary.LittleEndian, sequence)
	binary.Write(buf, binary.LittleEndian, uint32(0)) // checksum, not verified
	buf.WriteByte(byte(len(segments)))
	buf.Write(segments)
	buf.Write(data)
}

func identification(channels byte, rate, nominal uint32) []byte {
	b := &bytes.Buffer{}
	b.WriteByte(packetIdentification)
	b.WriteString("vorbis")
	binary.Write(b, binary.LittleEndian, uint32(0))
	b.WriteByte(channels)
	binary.Write(b, binary.LittleEndian, rate)
	binary.Write(b, binary.LittleEndian, uint32(0))
	binary.Write(b, binary.LittleEndian, nominal)
	binary.Write(b, binary.LittleEndian, uint32(0))
	b.WriteByte(0xB8)
	b.WriteByte(0x01)
	return b.Bytes()
}

func commentPacket(fields ...vorbis.Field) []byte {
	b := append([]byte{packetComment}, "vorbis"...)
	b = append(b, vorbis.Encode("Xiph.Org libVorbis I 20200704", fields...)...)
	return append(b, 0x01)
}

// createOgg builds a stream of the header pages followed by audio pages
// whose final granule is samples.
func createOgg(nominal uint32, samples int64, comment []byte) []byte {
	buf := &bytes.Buffer{}
	id := identification(2, 44100, nominal)
	writePage(buf, flagBOS, 0, 1234, 0, lacing(len(id)), id)

	setup := append([]byte{0x05}, "vorbis"...)
	segments := append(lacing(len(comment)), lacing(len(setup))...)
	writePage(buf, 0, 0, 1234, 1, segments, append(append([]byte{}, comment...), setup...))

	audio := make([]byte, 200)
	writePage(buf, 0, samples/2, 1234, 2, lacing(len(audio)), audio)
	writePage(buf, flagEOS, samples, 1234, 3, lacing(len(audio)), audio)
	return buf.Bytes()
}

func parse(t *testing.T, data []byte) (*types.Stream, error) {
	t.Helper()
	return Parse(bytes.NewReader(data), int64(len(data)), "test.ogg", types.DefaultPolicy())
}

func TestParse_Vorbis(t *testing.T) {
	data := createOgg(160000, 441000, commentPacket(
		vorbis.Field{Key: "TITLE", Value: "Song"},
		vorbis.Field{Key: "artist", Value: "Artist"},
		vorbis.Field{Key: "Album", Value: "Album"},
	))

	s, err := parse(t, data)
	require.NoError(t, err)

	assert.Equal(t, types.FormatOgg, s.Format)
	assert.Equal(t, types.BitrateVariable, s.BitrateType)
	assert.Equal(t, 44100, s.SampleRate)
	assert.Equal(t, 2, s.Channels)
	assert.InDelta(t, 10.0, s.Duration, 0.0001)
	assert.Equal(t, int64(441000), s.TotalSamples)
	assert.Equal(t, len(data)*8/10, s.Bitrate)
	assert.Equal(t, "-q5", s.Profile)
	assert.Equal(t, "Xiph.Org libVorbis I 20200704", s.Encoder)
	assert.Equal(t, map[types.Namespace]types.TagValues{
		types.NamespaceVorbis: {Artist: "Artist", Album: "Album"},
	}, s.Tags)
}

func TestParse_PacketSpanningPages(t *testing.T) {
	long := vorbis.Field{Key: "COMMENT", Value: string(bytes.Repeat([]byte("x"), 600))}
	comment := commentPacket(vorbis.Field{Key: "ARTIST", Value: "Spanning"}, long)

	buf := &bytes.Buffer{}
	id := identification(1, 48000, 0)
	writePage(buf, flagBOS, 0, 7, 0, lacing(len(id)), id)

	// Split the comment packet after two full segments.
	head, tail := comment[:510], comment[510:]
	writePage(buf, 0, -1, 7, 1, []byte{255, 255}, head)
	writePage(buf, flagContinued, 0, 7, 2, lacing(len(tail)), tail)
	writePage(buf, flagEOS, 96000, 7, 3, []byte{10}, make([]byte, 10))

	s, err := parse(t, buf.Bytes())
	require.NoError(t, err)
	assert.Equal(t, "Spanning", s.Tags[types.NamespaceVorbis].Artist)
	assert.InDelta(t, 2.0, s.Duration, 0.0001)
	assert.Equal(t, 1, s.Channels)
	assert.Empty(t, s.Profile)
}

func TestParse_IgnoresOtherLogicalStreams(t *testing.T) {
	data := createOgg(128000, 44100, commentPacket())
	// A trailing page from another stream must not supply the duration.
	other := &bytes.Buffer{}
	writePage(other, flagEOS, 9999999, 42, 0, []byte{4}, []byte("junk"))
	data = append(data, other.Bytes()...)

	s, err := parse(t, data)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, s.Duration, 0.0001)
	assert.Equal(t, "-q4", s.Profile)
}

func TestParse_Errors(t *testing.T) {
	t.Run("no pages", func(t *testing.T) {
		_, err := parse(t, make([]byte, 500))
		var decodeErr *types.DecodeError
		assert.ErrorAs(t, err, &decodeErr)
	})

	t.Run("not vorbis", func(t *testing.T) {
		buf := &bytes.Buffer{}
		head := []byte("OpusHead\x01\x02")
		writePage(buf, flagBOS, 0, 1, 0, lacing(len(head)), head)
		_, err := parse(t, buf.Bytes())
		var decodeErr *types.DecodeError
		assert.ErrorAs(t, err, &decodeErr)
	})

	t.Run("missing comment header", func(t *testing.T) {
		buf := &bytes.Buffer{}
		id := identification(2, 44100, 0)
		writePage(buf, flagBOS, 0, 1, 0, lacing(len(id)), id)
		_, err := parse(t, buf.Bytes())
		var decodeErr *types.DecodeError
		assert.ErrorAs(t, err, &decodeErr)
	})

	t.Run("no granule", func(t *testing.T) {
		buf := &bytes.Buffer{}
		id := identification(2, 44100, 0)
		writePage(buf, flagBOS, 0, 1, 0, lacing(len(id)), id)
		c := commentPacket()
		writePage(buf, 0, 0, 1, 1, lacing(len(c)), c)
		_, err := parse(t, buf.Bytes())
		var decodeErr *types.DecodeError
		assert.ErrorAs(t, err, &decodeErr)
	})
}

func TestIdentification_Profile(t *testing.T) {
	tests := []struct {
		id   Identification
		want string
	}{
		{Identification{Channels: 2, SampleRate: 44100, BitrateNominal: 45000}, "-q-1"},
		{Identification{Channels: 2, SampleRate: 44100, BitrateNominal: 192000}, "-q6"},
		{Identification{Channels: 2, SampleRate: 44100, BitrateNominal: 500000}, "-q10"},
		{Identification{Channels: 2, SampleRate: 44100, BitrateNominal: 150000}, ""},
		{Identification{Channels: 2, SampleRate: 48000, BitrateNominal: 160000}, ""},
		{Identification{Channels: 1, SampleRate: 44100, BitrateNominal: 160000}, ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.id.Profile())
	}
}

func TestParse_Spacer(t *testing.T) {
	trailer := make([]byte, 128)
	copy(trailer, "TAG")
	copy(trailer[3:], "Interlude")

	tests := map[string][]byte{
		"only ID3v1":       trailer,
		"ID3v2 then ID3v1": append([]byte{'I', 'D', '3', 3, 0, 0, 0, 0, 0, 0}, trailer...),
	}
	for name, data := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := parse(t, data)
			var spacer *types.SpacerError
			require.ErrorAs(t, err, &spacer)
			assert.Equal(t, "test.ogg", spacer.Path)
		})
	}
}

// failingReader fails every read that starts at failAt.
type failingReader struct {
	*bytes.Reader
	failAt int64
}

func (r failingReader) ReadAt(p []byte, off int64) (int, error) {
	if off == r.failAt {
		return 0, errDisk
	}
	return r.Reader.ReadAt(p, off)
}

var errDisk = errors.New("disk unreadable")

func TestParse_ReadErrorDuringGranuleScan(t *testing.T) {
	data := createOgg(128000, 441000, commentPacket())
	lastPage := int64(len(data) - (pageHeaderSize + 1 + 200))

	r := failingReader{Reader: bytes.NewReader(data), failAt: lastPage + pageHeaderSize + 1}
	_, err := Parse(r, int64(len(data)), "test.ogg", types.DefaultPolicy())

	var ioErr *types.IOError
	require.ErrorAs(t, err, &ioErr)
	assert.ErrorIs(t, err, errDisk)
}
