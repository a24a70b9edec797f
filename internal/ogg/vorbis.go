package ogg

import (
	"encoding/binary"
	"fmt"

	"github.com/simonhull/audiodir/internal/vorbis"
)

// Header packet types.
const (
	packetIdentification = 0x01
	packetComment        = 0x03
)

// Identification is the Vorbis identification header.
type Identification struct {
	Channels       int
	SampleRate     int
	BitrateMaximum int
	BitrateNominal int
	BitrateMinimum int
}

func checkPacket(data []byte, kind byte) error {
	if len(data) < 7 || data[0] != kind || string(data[1:7]) != "vorbis" {
		return fmt.Errorf("not a Vorbis header of type %d", kind)
	}
	return nil
}

// parseIdentification decodes the identification header packet.
func parseIdentification(data []byte) (*Identification, error) {
	if err := checkPacket(data, packetIdentification); err != nil {
		return nil, err
	}
	if len(data) < 30 {
		return nil, fmt.Errorf("identification header too short: %d bytes", len(data))
	}

	if v := binary.LittleEndian.Uint32(data[7:11]); v != 0 {
		return nil, fmt.Errorf("unsupported Vorbis version %d", v)
	}

	id := &Identification{
		Channels:       int(data[11]),
		SampleRate:     int(binary.LittleEndian.Uint32(data[12:16])),
		BitrateMaximum: int(int32(binary.LittleEndian.Uint32(data[16:20]))),
		BitrateNominal: int(int32(binary.LittleEndian.Uint32(data[20:24]))),
		BitrateMinimum: int(int32(binary.LittleEndian.Uint32(data[24:28]))),
	}
	if id.Channels == 0 || id.SampleRate == 0 {
		return nil, fmt.Errorf("identification header declares %d channels at %d Hz", id.Channels, id.SampleRate)
	}
	return id, nil
}

// parseComment decodes the comment header packet.
func parseComment(data []byte) (*vorbis.Comments, error) {
	if err := checkPacket(data, packetComment); err != nil {
		return nil, err
	}
	return vorbis.Parse(data[7:])
}

// qualityLadder is libvorbis' nominal bitrate per -q setting for 44.1 kHz stereo.
var qualityLadder = map[int]string{
	45000:  "-q-1",
	64000:  "-q0",
	80000:  "-q1",
	96000:  "-q2",
	112000: "-q3",
	128000: "-q4",
	160000: "-q5",
	192000: "-q6",
	224000: "-q7",
	256000: "-q8",
	320000: "-q9",
	500000: "-q10",
}

// Profile returns the -q setting the nominal bitrate corresponds to, or "".
func (id *Identification) Profile() string {
	if id.SampleRate != 44100 || id.Channels != 2 {
		return ""
	}
	return qualityLadder[id.BitrateNominal]
}
