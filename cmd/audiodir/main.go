// Command audiodir walks directory trees of audio files and prints one
// summary line per directory.
//
// Usage:
//
//	audiodir [flags] <root>...
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/schollz/progressbar/v3"
	"golang.org/x/sync/errgroup"

	"github.com/simonhull/audiodir"
	"github.com/simonhull/audiodir/internal/cache"
	"github.com/simonhull/audiodir/internal/config"
	"github.com/simonhull/audiodir/internal/logging"
	"github.com/simonhull/audiodir/internal/metrics"
	"github.com/simonhull/audiodir/internal/report"
	"github.com/simonhull/audiodir/internal/walk"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		if !errors.Is(err, flag.ErrHelp) {
			fmt.Fprintf(os.Stderr, "audiodir: %v\n", err)
		}
		os.Exit(1)
	}
}

type flags struct {
	config      string
	format      string
	prefer      int
	legacy      bool
	workers     int
	noCache     bool
	metricsFile string
	quiet       bool
	version     bool
}

func parseFlags(args []string, stderr io.Writer) (*flags, []string, map[string]bool, error) {
	var f flags
	fs := flag.NewFlagSet("audiodir", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		fmt.Fprintln(fs.Output(), "Usage: audiodir [flags] <root>...")
		fs.PrintDefaults()
	}

	fs.StringVar(&f.config, "config", "", "YAML configuration file")
	fs.StringVar(&f.format, "format", "", "Report format: text, json or xml")
	fs.IntVar(&f.prefer, "prefer", 0, "Preferred ID3 version when both tags resolve: 1 or 2")
	fs.BoolVar(&f.legacy, "legacy", false, "Report LAME presets by their historical names")
	fs.IntVar(&f.workers, "workers", 0, "Directories scanned at once")
	fs.BoolVar(&f.noCache, "no-cache", false, "Ignore the summary cache")
	fs.StringVar(&f.metricsFile, "metrics-file", "", "Write Prometheus metrics to this file")
	fs.BoolVar(&f.quiet, "quiet", false, "Hide the progress bar")
	fs.BoolVar(&f.version, "version", false, "Print version information")

	if err := fs.Parse(args); err != nil {
		return nil, nil, nil, err
	}

	set := map[string]bool{}
	fs.Visit(func(fl *flag.Flag) { set[fl.Name] = true })
	return &f, fs.Args(), set, nil
}

// apply overrides configuration with the flags given on the command line.
func (f *flags) apply(cfg *config.Config, set map[string]bool) {
	if set["format"] {
		cfg.Report.Format = f.format
	}
	if set["prefer"] {
		cfg.Tags.PreferredVersion = f.prefer
	}
	if set["legacy"] {
		cfg.Profiles.LegacyPresets = f.legacy
	}
	if set["workers"] {
		cfg.Scan.Workers = f.workers
	}
	if set["no-cache"] && f.noCache {
		cfg.Cache.Enabled = false
	}
	if set["metrics-file"] {
		cfg.Metrics.File = f.metricsFile
	}
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	f, roots, set, err := parseFlags(args, stderr)
	if err != nil {
		return err
	}
	if f.version {
		fmt.Fprintln(stdout, audiodir.GetVersionInfo())
		return nil
	}
	if len(roots) == 0 {
		return errors.New("no directories given")
	}

	cfg, err := config.Load(f.config)
	if err != nil {
		return err
	}
	f.apply(cfg, set)

	policy, err := cfg.Policy()
	if err != nil {
		return err
	}
	renderer, err := report.New(cfg.Report.Format)
	if err != nil {
		return err
	}

	logger, closer, err := logging.New(cfg.Log)
	if err != nil {
		return err
	}
	defer closer.Close()

	runID := uuid.NewString()
	logger = logger.With().Str("run", runID).Logger()

	a := &app{
		log:     logger,
		opts:    []audiodir.Option{audiodir.WithPolicy(policy), audiodir.WithConcurrency(1), audiodir.WithLogger(logger)},
		reg:     prometheus.NewRegistry(),
		workers: max(cfg.Scan.Workers, 1),
	}
	a.metrics = metrics.New(a.reg)

	if cfg.Cache.Enabled {
		c, err := cache.New(ctx, cfg.Cache.Addr, cfg.Cache.Password, cfg.Cache.DB, cfg.Cache.TTL)
		if err != nil {
			logger.Warn().Err(err).Msg("summary cache unavailable, scanning everything")
		} else {
			a.cache = c
			defer c.Close()
		}
	}

	var dirs []walk.Dir
	for _, root := range roots {
		err := walk.Walk(ctx, root, cfg.Scan.Extensions, func(d walk.Dir) error {
			if len(d.Files) > 0 {
				dirs = append(dirs, d)
			}
			return nil
		})
		if err != nil {
			return err
		}
	}

	logger.Info().Strs("roots", roots).Int("directories", len(dirs)).Msg("scan started")
	start := time.Now()

	bar := progressbar.NewOptions(len(dirs),
		progressbar.OptionSetWriter(stderr),
		progressbar.OptionSetDescription("scanning"),
		progressbar.OptionShowCount(),
		progressbar.OptionSetVisibility(!f.quiet),
		progressbar.OptionClearOnFinish(),
		progressbar.OptionThrottle(100*time.Millisecond),
	)

	summaries, failed, err := a.scan(ctx, dirs, bar)
	if err != nil {
		return err
	}
	bar.Finish()

	logger.Info().
		Int("directories", len(dirs)).
		Int64("failed", failed).
		Dur("elapsed", time.Since(start)).
		Msg("scan finished")

	if err := renderer.Render(stdout, report.Report{RunID: runID, Summaries: summaries}); err != nil {
		return err
	}

	if cfg.Metrics.File != "" {
		if err := metrics.WriteTextfile(cfg.Metrics.File, a.reg); err != nil {
			return fmt.Errorf("write metrics: %w", err)
		}
	}

	if failed > 0 {
		return fmt.Errorf("%d directories could not be read", failed)
	}
	return nil
}

type app struct {
	log     zerolog.Logger
	opts    []audiodir.Option
	cache   *cache.Cache
	metrics *metrics.Metrics
	reg     *prometheus.Registry
	workers int
}

// scan summarizes dirs, keeping their order. A directory that fails with
// an I/O error is logged, counted and left out; cancellation stops the scan.
func (a *app) scan(ctx context.Context, dirs []walk.Dir, bar *progressbar.ProgressBar) ([]audiodir.Summary, int64, error) {
	results := make([]*audiodir.Summary, len(dirs))
	var failed atomic.Int64

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(a.workers)
	for i, d := range dirs {
		g.Go(func() error {
			defer bar.Add(1)

			s, err := a.summarize(ctx, d)
			switch {
			case ctx.Err() != nil:
				return ctx.Err()
			case err != nil:
				a.log.Error().Err(err).Str("dir", d.Path).Msg("directory skipped")
				failed.Add(1)
				return nil
			}
			results[i] = &s
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, 0, err
	}

	summaries := make([]audiodir.Summary, 0, len(results))
	for _, s := range results {
		if s != nil {
			summaries = append(summaries, *s)
		}
	}
	return summaries, failed.Load(), nil
}

func (a *app) summarize(ctx context.Context, d walk.Dir) (audiodir.Summary, error) {
	if a.cache != nil {
		s, err := a.cache.Get(ctx, d.Path, d.Fingerprint)
		switch {
		case err != nil:
			a.log.Warn().Err(err).Str("dir", d.Path).Msg("cache read failed")
		case s != nil:
			a.log.Debug().Str("dir", d.Path).Msg("cache hit")
			a.metrics.RecordCached(*s)
			return *s, nil
		}
	}

	start := time.Now()
	res, err := audiodir.ScanDir(ctx, d.Path, d.Paths(), a.opts...)
	if err != nil {
		return audiodir.Summary{}, err
	}
	a.metrics.RecordDirectory(res.Summary, res.Streams, len(res.Spacers), time.Since(start).Seconds())

	if a.cache != nil {
		if err := a.cache.Put(ctx, res.Summary, d.Fingerprint); err != nil {
			a.log.Warn().Err(err).Str("dir", d.Path).Msg("cache write failed")
		}
	}
	return res.Summary, nil
}
