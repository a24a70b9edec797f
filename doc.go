// Package audiodir inventories directories of audio files.
//
// It reads MP3, Ogg Vorbis, FLAC, Musepack and AAC/MP4 files straight from
// their bytes, measures each stream (bitrate, duration, sample rate,
// channels, encoder profile) and collects the artist and album from
// whatever tags the file carries: ID3v1, ID3v2, Vorbis comments or iTunes
// atoms. The streams of one directory are then reconciled into a single
// Summary.
//
// # Quick Start
//
// Measuring a single file:
//
//	s, err := audiodir.OpenStream(ctx, "track.mp3")
//	if err != nil {
//		log.Fatal(err)
//	}
//	fmt.Printf("%d bps %s, %.1fs, %s\n", s.Bitrate, s.BitrateType, s.Duration, s.Profile)
//
// Summarizing a directory:
//
//	d, err := audiodir.ScanDir(ctx, dir, paths, audiodir.WithLegacyPresets())
//	if err != nil {
//		log.Fatal(err)
//	}
//	fmt.Println(d.Summary.Mediatype, d.Summary.Artist, d.Summary.Album, d.Summary.Quality())
//
// # Summaries
//
// A Summary's Mediatype is the single format of its streams, "Mixed" when
// there are several, or "?" when the directory held no audio. Artist and
// Album are only set when the streams agree on one value; when a
// directory carries both ID3v1 and ID3v2 tags the preferred version (see
// WithPreferredTagVersion) is tried first. BitrateType is "C", "V" or "L"
// for uniform directories and "~" for mixed ones, including constant
// bitrate files of different rates.
//
// Every rule works on sets, so a summary never depends on the order in
// which files were listed or parsed.
//
// # Error Handling
//
// Files fall into three groups:
//
//   - streams, which are measured and summarized
//   - spacers, files holding tags but no audio, which are skipped silently
//   - bad files, which failed to parse and are listed in Summary.BadFiles
//
// Only I/O failures and cancellation stop a scan. OpenStream returns the
// underlying typed error instead, such as *SpacerError or *DecodeError.
//
// # Concurrency
//
// Parsing and summarizing hold no shared state. ScanDir fans out over the
// files of one directory; callers may scan several directories at once.
package audiodir
