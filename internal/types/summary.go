package types

import (
	"fmt"
	"maps"
	"slices"
)

// Mediatype values that are not a single format name.
const (
	MediatypeNone  = "?"
	MediatypeMixed = "Mixed"
)

// BadFile records a file that failed to parse.
type BadFile struct {
	Path   string  `json:"path" xml:"path,attr"`
	Kind   BadKind `json:"kind" xml:"kind,attr"`
	Reason string  `json:"reason" xml:",chardata"`
}

// BadKind classifies why a file was rejected.
type BadKind string

// Bad file classifications.
const (
	BadDecode      BadKind = "decode"
	BadMalformed   BadKind = "malformed-tag"
	BadBrokenFrame BadKind = "broken-frame"
	BadNoTag       BadKind = "no-tag"
	BadUnsupported BadKind = "unsupported"
)

// Totals accumulates stream sizes and durations.
type Totals struct {
	Size   int64   `json:"size"`
	Length float64 `json:"length"`
}

// Summary is the reconciled view of one directory.
//
// A Summary is rebuilt from scratch each time a directory is scanned.
type Summary struct {
	Path      string `json:"path"`
	Mediatype string `json:"mediatype"`

	// Artist and Album are empty when they could not be reconciled.
	Artist string `json:"artist,omitempty"`
	Album  string `json:"album,omitempty"`

	Size      int64             `json:"size"`
	Length    float64           `json:"length"`
	PerFormat map[Format]Totals `json:"perFormat,omitempty"`

	Bitrate     int    `json:"bitrate"`
	BitrateType string `json:"bitrateType"`
	Profile     string `json:"profile,omitempty"`

	Streams  int       `json:"streams"`
	BadFiles []BadFile `json:"badFiles,omitempty"`
}

// Empty reports whether the directory held no valid streams.
func (s *Summary) Empty() bool {
	return s.Mediatype == MediatypeNone
}

// Quality returns the profile, or "<kbps> <type>" when there is none.
func (s *Summary) Quality() string {
	if s.Profile != "" {
		return s.Profile
	}
	return fmt.Sprintf("%d %s", s.Bitrate/1000, s.BitrateType)
}

// Formats returns the formats present, in display order.
func (s *Summary) Formats() []Format {
	return slices.SortedFunc(maps.Keys(s.PerFormat), func(a, b Format) int { return int(a) - int(b) })
}
