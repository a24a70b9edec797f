package audiodir

import (
	"runtime"

	"github.com/rs/zerolog"

	"github.com/simonhull/audiodir/internal/types"
)

// Option configures parsing, aggregation and directory scans.
//
// Example:
//
//	dir, err := audiodir.ScanDir(ctx, "/music/album", paths,
//	    audiodir.WithPreferredTagVersion(1),
//	    audiodir.WithLegacyPresets(),
//	)
type Option func(*options)

type options struct {
	policy      types.Policy
	concurrency int
	logger      zerolog.Logger
}

func defaultOptions() *options {
	return &options{
		policy:      types.DefaultPolicy(),
		concurrency: runtime.NumCPU(),
		logger:      zerolog.Nop(),
	}
}

func buildOptions(opts []Option) (*options, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}
	if err := o.policy.Validate(); err != nil {
		return nil, err
	}
	return o, nil
}

// WithPolicy replaces the whole policy. Options given after it still apply.
func WithPolicy(p Policy) Option {
	return func(o *options) {
		o.policy = p
	}
}

// WithPreferredTagVersion selects which ID3 version wins when both ID3v1
// and ID3v2 name a unique artist or album. Only 1 and 2 are valid; the
// default is 2.
func WithPreferredTagVersion(v int) Option {
	return func(o *options) {
		o.policy.PreferredTagVersion = v
	}
}

// WithLegacyPresets reports LAME presets by their historical names, for
// example -apfe instead of -V0n.
func WithLegacyPresets() Option {
	return func(o *options) {
		o.policy.LegacyPresets = true
	}
}

// WithBrokenFramePolicy decides what happens to an ID3v2 frame whose size
// runs past its tag. FramePolicyDrop, the default, keeps the frames read
// so far; FramePolicyError rejects the file.
func WithBrokenFramePolicy(p FramePolicy) Option {
	return func(o *options) {
		o.policy.BrokenFrames = p
	}
}

// WithStrictID3v1 rejects MP3 and MPC files that carry no ID3v1 trailer.
func WithStrictID3v1() Option {
	return func(o *options) {
		o.policy.StrictID3v1 = true
	}
}

// WithConcurrency limits how many files ScanDir parses at once. Values
// below 1 mean one at a time. The default is runtime.NumCPU().
func WithConcurrency(n int) Option {
	return func(o *options) {
		o.concurrency = max(n, 1)
	}
}

// WithLogger logs bad files, spacers and parse warnings to l. Nothing is
// logged by default.
func WithLogger(l zerolog.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}
