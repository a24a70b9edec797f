// Package aggregate reconciles the streams of one directory into a Summary.
//
// Every rule here works on sets, so the result never depends on the order
// the streams are given in.
package aggregate

import (
	"cmp"
	"slices"

	"github.com/simonhull/audiodir/internal/types"
)

// Summarize builds the summary of dir from its parsed streams and the files
// that failed to parse. Bad files are listed but take no part in any other
// field.
func Summarize(dir string, streams []*types.Stream, bad []types.BadFile, policy types.Policy) types.Summary {
	s := types.Summary{
		Path:      dir,
		Mediatype: Mediatype(streams),
		Artist:    Reconcile(streams, Artist, policy.PreferredTagVersion),
		Album:     Reconcile(streams, Album, policy.PreferredTagVersion),
		Streams:   len(streams),
		BadFiles:  slices.SortedFunc(slices.Values(bad), func(a, b types.BadFile) int { return cmp.Compare(a.Path, b.Path) }),
	}

	s.Size, s.Length, s.PerFormat = Totals(streams)
	s.BitrateType = BitrateType(streams)
	if s.Mediatype == types.MediatypeMixed {
		s.BitrateType = types.MixedBitrate
	}
	s.Bitrate = Bitrate(streams)
	if s.BitrateType != types.MixedBitrate {
		s.Profile = Profile(streams, policy.LegacyPresets)
	}
	return s
}

// Mediatype returns the single format of the streams, "Mixed", or "?" when
// there are none.
func Mediatype(streams []*types.Stream) string {
	formats := map[types.Format]bool{}
	for _, st := range streams {
		formats[st.Format] = true
	}
	switch len(formats) {
	case 0:
		return types.MediatypeNone
	case 1:
		for f := range formats {
			return f.String()
		}
	}
	return types.MediatypeMixed
}

// Field selects artist or album from a tag.
type Field func(types.TagValues) string

// Artist selects the artist.
func Artist(v types.TagValues) string { return v.Artist }

// Album selects the album.
func Album(v types.TagValues) string { return v.Album }

// candidate collects what one namespace says about a field.
type candidate struct {
	values  map[string]bool
	missing bool // some stream carries the tag without the field
}

// populated reports whether any stream gave the field a value.
func (c candidate) populated() bool {
	return len(c.values) > 0
}

// unique returns the one value every stream carrying the tag agrees on.
func (c candidate) unique() (string, bool) {
	if len(c.values) != 1 || c.missing {
		return "", false
	}
	for v := range c.values {
		return v, true
	}
	return "", false
}

// Reconcile resolves one field across the streams' tag namespaces.
//
// When a single namespace holds values, it decides alone. When exactly
// id3v1 and id3v2 hold values, the preferred version is tried first and
// the other second. Any other mix of namespaces leaves the field empty.
func Reconcile(streams []*types.Stream, field Field, preferred int) string {
	candidates := map[types.Namespace]*candidate{}
	for _, st := range streams {
		for ns, tv := range st.Tags {
			c, ok := candidates[ns]
			if !ok {
				c = &candidate{values: map[string]bool{}}
				candidates[ns] = c
			}
			if v := field(tv); v != "" {
				c.values[v] = true
			} else {
				c.missing = true
			}
		}
	}

	var populated []types.Namespace
	for ns, c := range candidates {
		if c.populated() {
			populated = append(populated, ns)
		}
	}
	slices.Sort(populated)

	switch {
	case len(populated) == 1:
		v, _ := candidates[populated[0]].unique()
		return v
	case slices.Equal(populated, []types.Namespace{types.NamespaceID3v1, types.NamespaceID3v2}):
		order := []types.Namespace{types.NamespaceID3v2, types.NamespaceID3v1}
		if preferred == 1 {
			order = []types.Namespace{types.NamespaceID3v1, types.NamespaceID3v2}
		}
		for _, ns := range order {
			if v, ok := candidates[ns].unique(); ok {
				return v
			}
		}
	}
	return ""
}

type bitratePair struct {
	bitrate int
	kind    types.BitrateType
}

func pairs(streams []*types.Stream) (map[bitratePair]bool, map[types.BitrateType]bool) {
	ps := map[bitratePair]bool{}
	kinds := map[types.BitrateType]bool{}
	for _, st := range streams {
		if st.BitrateType == types.BitrateUnknown {
			continue
		}
		ps[bitratePair{st.Bitrate, st.BitrateType}] = true
		kinds[st.BitrateType] = true
	}
	return ps, kinds
}

// BitrateType returns "C", "V" or "L" when every stream agrees, "~" when
// they do not or when constant bitrate streams differ in rate, and "" when
// no stream has a type.
func BitrateType(streams []*types.Stream) string {
	ps, kinds := pairs(streams)
	switch {
	case len(kinds) == 0:
		return ""
	case len(kinds) > 1:
		return types.MixedBitrate
	case kinds[types.BitrateConstant] && len(ps) > 1:
		return types.MixedBitrate
	}
	for k := range kinds {
		return k.Tag()
	}
	return ""
}

// Bitrate returns the shared rate of uniformly constant bitrate streams,
// and otherwise the overall rate of all streams in bits per second.
func Bitrate(streams []*types.Stream) int {
	ps, _ := pairs(streams)
	if len(ps) == 1 {
		for p := range ps {
			if p.kind == types.BitrateConstant {
				return p.bitrate
			}
		}
	}

	size, length, _ := Totals(streams)
	if length == 0 {
		return 0
	}
	return int(float64(size*8) / length)
}

// Profile returns the profile shared by every stream, or "" if any stream
// has none or two streams differ.
func Profile(streams []*types.Stream, legacy bool) string {
	var profile string
	for i, st := range streams {
		p := st.ProfileFor(legacy)
		if p == "" || (i > 0 && p != profile) {
			return ""
		}
		profile = p
	}
	return profile
}

// Totals sums stream sizes and durations, overall and per format. Streams
// are added in path order so the float sums come out the same for any
// input order.
func Totals(streams []*types.Stream) (size int64, length float64, perFormat map[types.Format]types.Totals) {
	sorted := slices.SortedFunc(slices.Values(streams), func(a, b *types.Stream) int {
		return cmp.Or(cmp.Compare(a.Path, b.Path), cmp.Compare(a.Duration, b.Duration))
	})

	perFormat = map[types.Format]types.Totals{}
	for _, st := range sorted {
		t := perFormat[st.Format]
		t.Size += st.Size()
		t.Length += st.Duration
		perFormat[st.Format] = t

		size += st.Size()
		length += st.Duration
	}
	return size, length, perFormat
}
