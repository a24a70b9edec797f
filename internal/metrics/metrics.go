// Package metrics counts scan activity for the Prometheus textfile collector.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/simonhull/audiodir/internal/types"
)

// Metrics holds the scan collectors registered on one registry.
type Metrics struct {
	FilesParsed  *prometheus.CounterVec
	BadFiles     *prometheus.CounterVec
	Spacers      prometheus.Counter
	Directories  *prometheus.CounterVec
	CacheHits    prometheus.Counter
	ParseSeconds prometheus.Histogram
}

// New registers the collectors on reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		FilesParsed: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "audiodir_files_parsed_total",
				Help: "Total number of audio streams parsed",
			},
			[]string{"format"},
		),
		BadFiles: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "audiodir_bad_files_total",
				Help: "Total number of files that failed to parse",
			},
			[]string{"kind"},
		),
		Spacers: f.NewCounter(
			prometheus.CounterOpts{
				Name: "audiodir_spacer_files_total",
				Help: "Total number of tag-only files skipped",
			},
		),
		Directories: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "audiodir_directories_total",
				Help: "Total number of directories summarized",
			},
			[]string{"mediatype"},
		),
		CacheHits: f.NewCounter(
			prometheus.CounterOpts{
				Name: "audiodir_cache_hits_total",
				Help: "Total number of directory summaries served from cache",
			},
		),
		ParseSeconds: f.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "audiodir_directory_scan_seconds",
				Help:    "Time spent parsing the files of one directory",
				Buckets: prometheus.ExponentialBuckets(0.001, 4, 10), // 1ms to ~4min
			},
		),
	}
}

// RecordStream counts a parsed stream
func (m *Metrics) RecordStream(f types.Format) {
	m.FilesParsed.WithLabelValues(f.String()).Inc()
}

// RecordBadFile counts a rejected file
func (m *Metrics) RecordBadFile(kind types.BadKind) {
	m.BadFiles.WithLabelValues(string(kind)).Inc()
}

// RecordDirectory counts a freshly parsed directory: its streams, bad
// files and spacers, and the time the parse took.
func (m *Metrics) RecordDirectory(s types.Summary, streams []*types.Stream, spacers int, seconds float64) {
	m.Directories.WithLabelValues(s.Mediatype).Inc()
	m.ParseSeconds.Observe(seconds)
	m.Spacers.Add(float64(spacers))
	for _, st := range streams {
		m.RecordStream(st.Format)
	}
	for _, b := range s.BadFiles {
		m.RecordBadFile(b.Kind)
	}
}

// RecordCached counts a directory served from cache.
func (m *Metrics) RecordCached(s types.Summary) {
	m.Directories.WithLabelValues(s.Mediatype).Inc()
	m.CacheHits.Inc()
}

// WriteTextfile writes everything g gathers to path in the text exposition
// format, replacing the file atomically.
func WriteTextfile(path string, g prometheus.Gatherer) error {
	return prometheus.WriteToTextfile(path, g)
}
