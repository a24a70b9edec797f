// Package report renders directory summaries as text, JSON or XML.
package report

import (
	"encoding/json"
	"encoding/xml"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/simonhull/audiodir/internal/types"
)

// Report is one scan's output.
type Report struct {
	RunID     string
	Summaries []types.Summary
}

// visible drops directories that held no streams.
func (r Report) visible() []types.Summary {
	out := make([]types.Summary, 0, len(r.Summaries))
	for _, s := range r.Summaries {
		if !s.Empty() {
			out = append(out, s)
		}
	}
	return out
}

// Renderer writes a report.
type Renderer interface {
	Render(w io.Writer, r Report) error
}

// New returns the renderer for "text", "json" or "xml".
func New(format string) (Renderer, error) {
	switch format {
	case "text", "":
		return Text{}, nil
	case "json":
		return JSON{Indent: true}, nil
	case "xml":
		return XML{}, nil
	default:
		return nil, fmt.Errorf("unknown report format %q", format)
	}
}

// Text renders aligned columns, one directory per line.
type Text struct{}

func (Text) Render(w io.Writer, r Report) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "PATH\tTYPE\tARTIST\tALBUM\tQUALITY\tLENGTH\tSIZE\tBAD")
	for _, s := range r.visible() {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\t%d\n",
			s.Path, s.Mediatype, orDash(s.Artist), orDash(s.Album), s.Quality(),
			Length(s.Length), Size(s.Size), len(s.BadFiles))
	}
	return tw.Flush()
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

// Length formats seconds as h:mm:ss, or m:ss under an hour.
func Length(seconds float64) string {
	d := time.Duration(seconds * float64(time.Second)).Round(time.Second)
	h, m, s := int(d.Hours()), int(d.Minutes())%60, int(d.Seconds())%60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%d:%02d", m, s)
}

// Size formats bytes in binary units.
func Size(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%dB", n)
	}
	div, exp := int64(unit), 0
	for v := n / unit; v >= unit; v /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f%ciB", float64(n)/float64(div), "KMGTPE"[exp])
}

// JSON renders the summaries as one JSON document.
type JSON struct {
	Indent bool
}

func (j JSON) Render(w io.Writer, r Report) error {
	enc := json.NewEncoder(w)
	if j.Indent {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(struct {
		RunID       string          `json:"runId,omitempty"`
		Directories []types.Summary `json:"directories"`
	}{r.RunID, r.visible()})
}

// XML renders the summaries as one XML document. Per-format totals become
// repeated <format> elements since encoding/xml cannot encode maps.
type XML struct{}

type xmlReport struct {
	XMLName     xml.Name       `xml:"audiodir"`
	RunID       string         `xml:"run,attr,omitempty"`
	Directories []xmlDirectory `xml:"directory"`
}

type xmlDirectory struct {
	Path        string          `xml:"path,attr"`
	Mediatype   string          `xml:"mediatype,attr"`
	Artist      string          `xml:"artist,omitempty"`
	Album       string          `xml:"album,omitempty"`
	Size        int64           `xml:"size"`
	Length      float64         `xml:"length"`
	Bitrate     int             `xml:"bitrate"`
	BitrateType string          `xml:"bitrateType"`
	Profile     string          `xml:"profile,omitempty"`
	Quality     string          `xml:"quality"`
	Streams     int             `xml:"streams"`
	Formats     []xmlFormat     `xml:"format"`
	BadFiles    []types.BadFile `xml:"bad"`
}

type xmlFormat struct {
	Name   string  `xml:"name,attr"`
	Size   int64   `xml:"size,attr"`
	Length float64 `xml:"length,attr"`
}

func (XML) Render(w io.Writer, r Report) error {
	doc := xmlReport{RunID: r.RunID}
	for _, s := range r.visible() {
		d := xmlDirectory{
			Path:        s.Path,
			Mediatype:   s.Mediatype,
			Artist:      s.Artist,
			Album:       s.Album,
			Size:        s.Size,
			Length:      s.Length,
			Bitrate:     s.Bitrate,
			BitrateType: s.BitrateType,
			Profile:     s.Profile,
			Quality:     s.Quality(),
			Streams:     s.Streams,
			BadFiles:    s.BadFiles,
		}
		for _, f := range s.Formats() {
			t := s.PerFormat[f]
			d.Formats = append(d.Formats, xmlFormat{Name: f.String(), Size: t.Size, Length: t.Length})
		}
		doc.Directories = append(doc.Directories, d)
	}

	if _, err := io.WriteString(w, xml.Header); err != nil {
		return err
	}
	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return err
	}
	_, err := io.WriteString(w, "\n")
	return err
}
