package m4a

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/simonhull/audiodir/internal/types"
)

type testFile struct {
	artist, album string
	avgBitrate    uint32
	mvhdVersion   byte
	timescale     uint32
	duration      uint64
	channels      uint16
	sampleRate    uint32
	mdatFirst     []byte // written before moov
}

func be16(v uint16) []byte { return binary.BigEndian.AppendUint16(nil, v) }
func be32(v uint32) []byte { return binary.BigEndian.AppendUint32(nil, v) }
func be64(v uint64) []byte { return binary.BigEndian.AppendUint64(nil, v) }

func mvhd(version byte, timescale uint32, duration uint64) []byte {
	body := []byte{version, 0, 0, 0}
	if version == 1 {
		body = append(body, make([]byte, 16)...)
		body = append(body, be32(timescale)...)
		body = append(body, be64(duration)...)
	} else {
		body = append(body, make([]byte, 8)...)
		body = append(body, be32(timescale)...)
		body = append(body, be32(uint32(duration))...)
	}
	body = append(body, make([]byte, 80)...)
	return createMockAtom("mvhd", body)
}

func esds(avg uint32) []byte {
	decoder := []byte{0x40, 0x15, 0, 0x18, 0}
	decoder = append(decoder, be32(avg+64000)...) // max bitrate
	decoder = append(decoder, be32(avg)...)
	decoder = append(decoder, 0x05, 0x02, 0x12, 0x10) // decoder specific info

	es := []byte{0x00, 0x01, 0x00} // ES_ID, flags
	es = append(es, tagDecoderConfig, 0x80, 0x80, 0x80, byte(len(decoder)))
	es = append(es, decoder...)

	body := []byte{0, 0, 0, 0, tagESDescriptor, 0x80, 0x80, 0x80, byte(len(es))}
	body = append(body, es...)
	return createMockAtom("esds", body)
}

func stsd(channels uint16, rate uint32, avg uint32) []byte {
	// reserved, data reference index, version, revision, vendor
	entry := append(make([]byte, 6), be16(1)...)
	entry = append(entry, make([]byte, 8)...)
	// channels, sample size, compression id, packet size
	entry = append(entry, be16(channels)...)
	entry = append(entry, be16(16)...)
	entry = append(entry, make([]byte, 4)...)
	entry = append(entry, be32(rate<<16)...)
	if avg > 0 {
		entry = append(entry, esds(avg)...)
	}
	body := append([]byte{0, 0, 0, 0}, be32(1)...)
	body = append(body, createMockAtom("mp4a", entry)...)
	return createMockAtom("stsd", body)
}

func item(kind, text string) []byte {
	data := append(be32(1), 0, 0, 0, 0) // UTF-8 type, locale
	return createMockAtom(kind, createMockAtom("data", data, []byte(text)))
}

func createM4A(f testFile) []byte {
	if f.timescale == 0 {
		f.timescale, f.duration = 44100, 44100*30
	}
	if f.channels == 0 {
		f.channels = 2
	}
	if f.sampleRate == 0 {
		f.sampleRate = 44100
	}

	var items [][]byte
	if f.artist != "" {
		items = append(items, item("\xa9ART", f.artist))
	}
	if f.album != "" {
		items = append(items, item("\xa9alb", f.album))
	}
	items = append(items, item("\xa9nam", "Title"))

	meta := createMockAtom("meta", []byte{0, 0, 0, 0}, createMockAtom("hdlr", make([]byte, 25)), createMockAtom("ilst", items...))
	moov := createMockAtom("moov",
		mvhd(f.mvhdVersion, f.timescale, f.duration),
		createMockAtom("trak", createMockAtom("mdia", createMockAtom("minf", createMockAtom("stbl", stsd(f.channels, f.sampleRate, f.avgBitrate))))),
		createMockAtom("udta", meta),
	)

	buf := &bytes.Buffer{}
	buf.Write(createMockAtom("ftyp", []byte("M4A "), be32(0), []byte("M4A isom")))
	if f.mdatFirst != nil {
		buf.Write(createMockAtom("mdat", f.mdatFirst))
		buf.Write(moov)
	} else {
		buf.Write(moov)
		buf.Write(createMockAtom("mdat", make([]byte, 4000)))
	}
	return buf.Bytes()
}

func parse(t *testing.T, data []byte) (*types.Stream, error) {
	t.Helper()
	return Parse(bytes.NewReader(data), int64(len(data)), "test.m4a", types.DefaultPolicy())
}

func TestParse_Success(t *testing.T) {
	s, err := parse(t, createM4A(testFile{artist: "Test Artist", album: "Test Album", avgBitrate: 128456}))
	require.NoError(t, err)

	assert.Equal(t, types.FormatAAC, s.Format)
	assert.Equal(t, types.BitrateConstant, s.BitrateType)
	assert.InDelta(t, 30.0, s.Duration, 0.0001)
	assert.Equal(t, 2, s.Channels)
	assert.Equal(t, 44100, s.SampleRate)
	assert.Equal(t, 128000, s.Bitrate)
	assert.Equal(t, map[types.Namespace]types.TagValues{
		types.NamespaceMP4: {Artist: "Test Artist", Album: "Test Album"},
	}, s.Tags)
}

func TestParse_MvhdVersion1(t *testing.T) {
	s, err := parse(t, createM4A(testFile{mvhdVersion: 1, timescale: 1000, duration: 90500, avgBitrate: 256000}))
	require.NoError(t, err)
	assert.InDelta(t, 90.5, s.Duration, 0.0001)
	assert.Equal(t, 256000, s.Bitrate)
}

func TestParse_BitrateFallback(t *testing.T) {
	data := createM4A(testFile{timescale: 1000, duration: 2000, channels: 1, sampleRate: 48000})

	s, err := parse(t, data)
	require.NoError(t, err)
	assert.Equal(t, len(data)*8/2, s.Bitrate)
	assert.Equal(t, 1, s.Channels)
	assert.Equal(t, 48000, s.SampleRate)
	assert.Empty(t, s.Tags)
}

func TestParse_OnlyAlbum(t *testing.T) {
	s, err := parse(t, createM4A(testFile{album: "Only Album", avgBitrate: 96000}))
	require.NoError(t, err)
	assert.Equal(t, types.TagValues{Album: "Only Album"}, s.Tags[types.NamespaceMP4])
}

func TestParse_RejectsFalseMarkers(t *testing.T) {
	// Audio data ahead of moov happens to contain type codes.
	junk := []byte("\xff\xff\xff\xffmvhd\xff\xff\xff\xff\xa9ART garbage")
	s, err := parse(t, createM4A(testFile{artist: "Real", avgBitrate: 128000, mdatFirst: junk}))
	require.NoError(t, err)
	assert.InDelta(t, 30.0, s.Duration, 0.0001)
	assert.Equal(t, "Real", s.Tags[types.NamespaceMP4].Artist)
}

func TestParse_MarkerAcrossScanWindows(t *testing.T) {
	// Push moov so that its atoms straddle scan window boundaries.
	for pad := 1000; pad < 1040; pad++ {
		s, err := parse(t, createM4A(testFile{artist: "Edge", avgBitrate: 64000, mdatFirst: make([]byte, pad)}))
		require.NoError(t, err, "pad %d", pad)
		assert.Equal(t, "Edge", s.Tags[types.NamespaceMP4].Artist, "pad %d", pad)
		assert.Equal(t, 64000, s.Bitrate, "pad %d", pad)
	}
}

func TestParse_Errors(t *testing.T) {
	t.Run("no moov", func(t *testing.T) {
		data := createMockAtom("ftyp", []byte("M4A "))
		_, err := parse(t, data)
		var decodeErr *types.DecodeError
		require.ErrorAs(t, err, &decodeErr)
		assert.Equal(t, types.FormatAAC, decodeErr.Format)
	})

	t.Run("zero timescale", func(t *testing.T) {
		data := createMockAtom("moov", mvhd(0, 0, 0), stsd(2, 44100, 0))
		_, err := parse(t, data)
		var decodeErr *types.DecodeError
		assert.ErrorAs(t, err, &decodeErr)
	})
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
			assert.Equal(t, "test.m4a", spacer.Path)
		})
	}
}
