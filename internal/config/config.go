// Package config loads audiodir settings from an optional YAML file and
// AUDIODIR_ environment variables.
package config

import (
	"fmt"
	"runtime"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/simonhull/audiodir/internal/logging"
	"github.com/simonhull/audiodir/internal/types"
)

// EnvPrefix prefixes every environment override, e.g. AUDIODIR_TAGS_PREFERREDVERSION.
const EnvPrefix = "AUDIODIR"

// Config holds all configuration for the application
type Config struct {
	Tags     TagsConfig
	Profiles ProfilesConfig
	ID3v2    ID3v2Config
	ID3v1    ID3v1Config
	Scan     ScanConfig
	Cache    CacheConfig
	Log      logging.Config
	Report   ReportConfig
	Metrics  MetricsConfig
}

// TagsConfig holds tag reconciliation settings
type TagsConfig struct {
	PreferredVersion int
}

// ProfilesConfig holds encoder profile settings
type ProfilesConfig struct {
	LegacyPresets bool
}

// ID3v2Config holds ID3v2 parsing settings
type ID3v2Config struct {
	BrokenFrames string // drop, error
}

// ID3v1Config holds ID3v1 parsing settings
type ID3v1Config struct {
	Strict bool
}

// ScanConfig holds directory scan settings
type ScanConfig struct {
	Workers    int
	Extensions []string
}

// CacheConfig holds summary cache settings
type CacheConfig struct {
	Enabled  bool
	Addr     string
	Password string
	DB       int
	TTL      time.Duration
}

// ReportConfig holds output settings
type ReportConfig struct {
	Format string // text, json, xml
}

// MetricsConfig holds metrics settings
type MetricsConfig struct {
	File string // textfile collector path, empty disables
}

// Load reads configuration from path, when given, and the environment.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if _, err := config.Policy(); err != nil {
		return nil, err
	}
	return &config, nil
}

func setDefaults(v *viper.Viper) {
	def := types.DefaultPolicy()

	v.SetDefault("tags.preferredVersion", def.PreferredTagVersion)
	v.SetDefault("profiles.legacyPresets", def.LegacyPresets)
	v.SetDefault("id3v2.brokenFrames", def.BrokenFrames.String())
	v.SetDefault("id3v1.strict", def.StrictID3v1)

	var exts []string
	for _, f := range types.Formats() {
		exts = append(exts, f.Extensions()...)
	}
	v.SetDefault("scan.workers", runtime.NumCPU())
	v.SetDefault("scan.extensions", exts)

	v.SetDefault("cache.enabled", false)
	v.SetDefault("cache.addr", "localhost:6379")
	v.SetDefault("cache.password", "")
	v.SetDefault("cache.db", 0)
	v.SetDefault("cache.ttl", "168h")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
	v.SetDefault("log.output", "stderr")

	v.SetDefault("report.format", "text")

	v.SetDefault("metrics.file", "")
}

// Policy converts the parsing and aggregation settings.
func (c *Config) Policy() (types.Policy, error) {
	frames, err := types.ParseFramePolicy(c.ID3v2.BrokenFrames)
	if err != nil {
		return types.Policy{}, err
	}

	p := types.Policy{
		PreferredTagVersion: c.Tags.PreferredVersion,
		LegacyPresets:       c.Profiles.LegacyPresets,
		BrokenFrames:        frames,
		StrictID3v1:         c.ID3v1.Strict,
	}
	if err := p.Validate(); err != nil {
		return types.Policy{}, err
	}
	return p, nil
}
