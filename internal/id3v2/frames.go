package id3v2

import (
	"bytes"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
)

// FrameKind selects how a frame body is decoded.
type FrameKind int

const (
	// KindRaw frames are kept as opaque bytes.
	KindRaw FrameKind = iota
	// KindText is an encoding byte plus one or more strings (T***).
	KindText
	// KindUserText is TXXX: description plus value.
	KindUserText
	// KindComment is COMM/USLT: language, description, text.
	KindComment
	// KindURL is a bare Latin-1 URL (W***).
	KindURL
	// KindUserURL is WXXX: description plus URL.
	KindUserURL
)

type frameSpec struct {
	kind FrameKind
	name string
}

// frameTable lists the frames this package knows by name. Unlisted T***
// and W*** frames still decode as text and URLs; everything else is raw.
var frameTable = map[string]frameSpec{
	"TIT1": {KindText, "content group"},
	"TIT2": {KindText, "title"},
	"TIT3": {KindText, "subtitle"},
	"TPE1": {KindText, "artist"},
	"TPE2": {KindText, "album artist"},
	"TPE3": {KindText, "conductor"},
	"TPE4": {KindText, "remixer"},
	"TALB": {KindText, "album"},
	"TRCK": {KindText, "track"},
	"TPOS": {KindText, "disc"},
	"TYER": {KindText, "year"},
	"TDAT": {KindText, "date"},
	"TDRC": {KindText, "recording time"},
	"TCON": {KindText, "genre"},
	"TCOM": {KindText, "composer"},
	"TENC": {KindText, "encoded by"},
	"TSSE": {KindText, "encoder settings"},
	"TLEN": {KindText, "length"},
	"TBPM": {KindText, "bpm"},
	"TKEY": {KindText, "key"},
	"TLAN": {KindText, "language"},
	"TCOP": {KindText, "copyright"},
	"TPUB": {KindText, "publisher"},
	"TSRC": {KindText, "isrc"},
	"TXXX": {KindUserText, "user text"},
	"COMM": {KindComment, "comment"},
	"USLT": {KindComment, "lyrics"},
	"WXXX": {KindUserURL, "user url"},
	"APIC": {KindRaw, "picture"},
	"GEOB": {KindRaw, "object"},
	"PRIV": {KindRaw, "private"},
	"UFID": {KindRaw, "file id"},
	"MCDI": {KindRaw, "cd id"},
	"PCNT": {KindRaw, "play count"},
	"POPM": {KindRaw, "popularimeter"},
}

// Lookup returns the kind and descriptive name of a frame identifier.
func Lookup(id string) (FrameKind, string) {
	if spec, ok := frameTable[id]; ok {
		return spec.kind, spec.name
	}
	switch id[0] {
	case 'T':
		return KindText, ""
	case 'W':
		return KindURL, ""
	default:
		return KindRaw, ""
	}
}

// Frame is one ID3v2 frame.
//
// Data always holds the body as stored (after tag-level unsynchronisation
// is undone), so frames re-encode byte for byte. The decoded fields are
// filled according to Kind.
type Frame struct {
	ID    string
	Flags uint16
	Data  []byte
	Kind  FrameKind

	Encoding    byte
	Language    string
	Description string
	Values      []string
}

// Text returns the first decoded value, or "".
func (f *Frame) Text() string {
	if len(f.Values) == 0 {
		return ""
	}
	return f.Values[0]
}

// decode fills the decoded fields from body, which is Data with any
// per-frame encodings removed.
func (f *Frame) decode(body []byte) {
	switch f.Kind {
	case KindText:
		if len(body) < 1 {
			return
		}
		f.Encoding = body[0]
		f.Values = splitStrings(f.Encoding, body[1:])
	case KindUserText, KindUserURL:
		if len(body) < 1 {
			return
		}
		f.Encoding = body[0]
		desc, rest := cutString(f.Encoding, body[1:])
		f.Description = decodeString(f.Encoding, desc)
		if f.Kind == KindUserURL {
			f.Values = []string{decodeString(0, trimNUL(rest))}
		} else {
			f.Values = splitStrings(f.Encoding, rest)
		}
	case KindComment:
		if len(body) < 4 {
			return
		}
		f.Encoding = body[0]
		f.Language = string(body[1:4])
		desc, rest := cutString(f.Encoding, body[4:])
		f.Description = decodeString(f.Encoding, desc)
		f.Values = splitStrings(f.Encoding, rest)
	case KindURL:
		f.Values = []string{decodeString(0, trimNUL(body))}
	case KindRaw:
	}
}

// Text encodings.
const (
	EncodingISO88591 byte = 0
	EncodingUTF16    byte = 1
	EncodingUTF16BE  byte = 2
	EncodingUTF8     byte = 3
)

func terminatorWidth(enc byte) int {
	if enc == EncodingUTF16 || enc == EncodingUTF16BE {
		return 2
	}
	return 1
}

// cutString splits b at the first terminator of the encoding.
func cutString(enc byte, b []byte) (before, after []byte) {
	w := terminatorWidth(enc)
	for i := 0; i+w <= len(b); i += w {
		if b[i] == 0 && (w == 1 || b[i+1] == 0) {
			return b[:i], b[i+w:]
		}
	}
	return b, nil
}

// splitStrings decodes a NUL separated list; a trailing terminator does
// not produce an empty value.
func splitStrings(enc byte, b []byte) []string {
	var out []string
	for len(b) > 0 {
		var s []byte
		s, b = cutString(enc, b)
		out = append(out, decodeString(enc, s))
	}
	for len(out) > 1 && out[len(out)-1] == "" {
		out = out[:len(out)-1]
	}
	return out
}

func decodeString(enc byte, b []byte) string {
	if len(b) == 0 {
		return ""
	}
	var (
		out []byte
		err error
	)
	switch enc {
	case EncodingISO88591:
		out, err = charmap.ISO8859_1.NewDecoder().Bytes(b)
	case EncodingUTF16:
		out, err = unicode.UTF16(unicode.BigEndian, unicode.UseBOM).NewDecoder().Bytes(b)
	case EncodingUTF16BE:
		out, err = unicode.UTF16(unicode.BigEndian, unicode.IgnoreBOM).NewDecoder().Bytes(b)
	default:
		out = b
	}
	if err != nil {
		return string(b)
	}
	return string(out)
}

func trimNUL(b []byte) []byte {
	return bytes.TrimRight(b, "\x00")
}
