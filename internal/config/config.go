// Package config holds the announcer's configuration: the JSON file with
// audio, speaker and voice defaults, and the environment-only settings.
package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/dustin/go-humanize"
	"github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"
)

// Default values, matching the file written by ensureConfigFile.
const (
	DefaultVoiceID          = "onwK4e9ZLuTAKqWW03F9"
	DefaultFormat           = "opus_48000_192"
	DefaultModel            = "eleven_multilingual_v2"
	DefaultVolume           = 0.7
	DefaultSource           = "System-Wide Audio"
	DefaultChimeFile        = "gong_stereo.mp3"
	DefaultChimeGap         = 300 * time.Millisecond
	DefaultConnectTimeout   = 30 * time.Second
	DefaultPollInterval     = time.Second
	DefaultDisconnectDelay  = 3 * time.Second
	DefaultSampleRate       = 48000
	DefaultChannels         = 2
	DefaultBitrate          = "256k"
	DefaultCodec            = "libmp3lame"
	DefaultRequestsPerMin   = 60
	DefaultTTSTimeout       = 60 * time.Second
	DefaultCacheSize        = "64MB"
	DefaultCompressionLevel = 3
)

// ErrInvalidConfig is wrapped by every validation failure.
var ErrInvalidConfig = errors.New("invalid configuration")

var formatPattern = regexp.MustCompile(`^[a-z0-9]+_[0-9]+(_[0-9]+)?$`)

// Config is the parsed configuration file.
type Config struct {
	Audio      Audio      `mapstructure:"audio"`
	Airfoil    Airfoil    `mapstructure:"airfoil"`
	Speakers   []string   `mapstructure:"speakers"`
	Excluded   []string   `mapstructure:"excluded"`
	ElevenLabs ElevenLabs `mapstructure:"elevenlabs"`
	Cache      Cache      `mapstructure:"cache"`

	// Dir is the directory holding the config file. Relative paths in the
	// file resolve against it.
	Dir string `mapstructure:"-"`
}

// Audio holds chime and transcoding defaults.
type Audio struct {
	ChimeFile  string        `mapstructure:"chime_file"`
	ChimeGap   time.Duration `mapstructure:"chime_gap"`
	SampleRate int           `mapstructure:"sample_rate"`
	Channels   int           `mapstructure:"channels"`
	Bitrate    string        `mapstructure:"bitrate"`
	Codec      string        `mapstructure:"codec"`
}

// Airfoil holds output routing defaults.
type Airfoil struct {
	Volume          float64       `mapstructure:"volume"`
	Source          string        `mapstructure:"source"`
	ConnectTimeout  time.Duration `mapstructure:"connect_timeout"`
	PollInterval    time.Duration `mapstructure:"poll_interval"`
	DisconnectDelay time.Duration `mapstructure:"disconnect_delay"`
}

// ElevenLabs holds voice and format defaults for synthesis. When Script is
// set the external script is used instead of the HTTP API.
type ElevenLabs struct {
	VoiceID           string        `mapstructure:"voice_id"`
	Format            string        `mapstructure:"format"`
	Model             string        `mapstructure:"model"`
	Script            string        `mapstructure:"script"`
	RequestsPerMinute int           `mapstructure:"requests_per_minute"`
	Timeout           time.Duration `mapstructure:"timeout"`
}

// Cache configures the synthesized audio cache.
type Cache struct {
	Enabled          bool   `mapstructure:"enabled"`
	Dir              string `mapstructure:"dir"`
	MaxSize          string `mapstructure:"max_size"`
	CompressionLevel int    `mapstructure:"compression_level"`
}

// Env contains settings that only come from the environment.
type Env struct {
	APIKey  string `env:"ELEVENLABS_API_KEY"`
	BaseURL string `env:"ELEVENLABS_BASE_URL" envDefault:"https://api.elevenlabs.io/v1"`
	Debug   bool   `env:"ANNOUNCE_DEBUG"`
	LogFile string `env:"ANNOUNCE_LOG_FILE"`
}

// LoadEnv reads Env from the process environment.
func LoadEnv() (Env, error) {
	e, err := env.ParseAs[Env]()
	if err != nil {
		return Env{}, fmt.Errorf("error parsing environment: %w", err)
	}
	return e, nil
}

// SetDefaults registers every default value on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("audio.chime_file", DefaultChimeFile)
	v.SetDefault("audio.chime_gap", DefaultChimeGap)
	v.SetDefault("audio.sample_rate", DefaultSampleRate)
	v.SetDefault("audio.channels", DefaultChannels)
	v.SetDefault("audio.bitrate", DefaultBitrate)
	v.SetDefault("audio.codec", DefaultCodec)

	v.SetDefault("airfoil.volume", DefaultVolume)
	v.SetDefault("airfoil.source", DefaultSource)
	v.SetDefault("airfoil.connect_timeout", DefaultConnectTimeout)
	v.SetDefault("airfoil.poll_interval", DefaultPollInterval)
	v.SetDefault("airfoil.disconnect_delay", DefaultDisconnectDelay)

	v.SetDefault("speakers", []string{})
	v.SetDefault("excluded", []string{})

	v.SetDefault("elevenlabs.voice_id", DefaultVoiceID)
	v.SetDefault("elevenlabs.format", DefaultFormat)
	v.SetDefault("elevenlabs.model", DefaultModel)
	v.SetDefault("elevenlabs.script", "")
	v.SetDefault("elevenlabs.requests_per_minute", DefaultRequestsPerMin)
	v.SetDefault("elevenlabs.timeout", DefaultTTSTimeout)

	v.SetDefault("cache.enabled", true)
	v.SetDefault("cache.dir", "")
	v.SetDefault("cache.max_size", DefaultCacheSize)
	v.SetDefault("cache.compression_level", DefaultCompressionLevel)
}

// Load decodes and validates the configuration held by v.
func Load(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode configuration: %w", err)
	}
	if used := v.ConfigFileUsed(); used != "" {
		cfg.Dir = filepath.Dir(used)
	}
	cfg.Speakers = cleanNames(cfg.Speakers)
	cfg.Excluded = cleanNames(cfg.Excluded)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks value ranges.
func (c *Config) Validate() error {
	if c.Airfoil.Volume < 0 || c.Airfoil.Volume > 1 {
		return fmt.Errorf("%w: airfoil volume must be between 0.0 and 1.0, got %.2f", ErrInvalidConfig, c.Airfoil.Volume)
	}
	if c.Airfoil.ConnectTimeout <= 0 {
		return fmt.Errorf("%w: airfoil connect_timeout must be positive", ErrInvalidConfig)
	}
	if c.Airfoil.PollInterval <= 0 {
		return fmt.Errorf("%w: airfoil poll_interval must be positive", ErrInvalidConfig)
	}
	if c.Airfoil.DisconnectDelay < 0 {
		return fmt.Errorf("%w: airfoil disconnect_delay cannot be negative", ErrInvalidConfig)
	}
	if c.Airfoil.Source == "" {
		return fmt.Errorf("%w: airfoil source is required", ErrInvalidConfig)
	}
	if c.Audio.ChimeGap < 0 {
		return fmt.Errorf("%w: audio chime_gap cannot be negative", ErrInvalidConfig)
	}
	if c.Audio.SampleRate <= 0 {
		return fmt.Errorf("%w: audio sample_rate must be positive, got %d", ErrInvalidConfig, c.Audio.SampleRate)
	}
	if c.Audio.Channels < 1 || c.Audio.Channels > 8 {
		return fmt.Errorf("%w: audio channels must be between 1 and 8, got %d", ErrInvalidConfig, c.Audio.Channels)
	}
	if c.Audio.Codec == "" || c.Audio.Bitrate == "" {
		return fmt.Errorf("%w: audio codec and bitrate are required", ErrInvalidConfig)
	}
	if c.ElevenLabs.VoiceID == "" {
		return fmt.Errorf("%w: elevenlabs voice_id is required", ErrInvalidConfig)
	}
	if !formatPattern.MatchString(c.ElevenLabs.Format) {
		return fmt.Errorf("%w: elevenlabs format %q is not of the form codec_rate[_bitrate]", ErrInvalidConfig, c.ElevenLabs.Format)
	}
	if c.ElevenLabs.RequestsPerMinute < 0 {
		return fmt.Errorf("%w: elevenlabs requests_per_minute cannot be negative", ErrInvalidConfig)
	}
	if c.Cache.Enabled {
		if _, err := c.CacheMaxBytes(); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
		}
		if c.Cache.CompressionLevel < 0 || c.Cache.CompressionLevel > 22 {
			return fmt.Errorf("%w: cache compression_level must be between 0 and 22, got %d", ErrInvalidConfig, c.Cache.CompressionLevel)
		}
	}
	return nil
}

// ValidFormat reports whether format looks like an ElevenLabs output format.
func ValidFormat(format string) bool {
	return formatPattern.MatchString(format)
}

// CacheMaxBytes parses the human readable cache size ("64MB", "1 GiB").
func (c *Config) CacheMaxBytes() (int64, error) {
	n, err := humanize.ParseBytes(c.Cache.MaxSize)
	if err != nil {
		return 0, fmt.Errorf("cache max_size %q: %w", c.Cache.MaxSize, err)
	}
	if n == 0 {
		return 0, fmt.Errorf("cache max_size must be greater than zero")
	}
	return int64(n), nil //nolint:gosec
}

// ChimePath returns the absolute path of the chime file, or "" when no chime
// is configured.
func (c *Config) ChimePath() string {
	return c.resolve(c.Audio.ChimeFile)
}

// ScriptPath returns the resolved TTS script path, or "" when the HTTP API
// is used.
func (c *Config) ScriptPath() string {
	return c.resolve(c.ElevenLabs.Script)
}

// CachePath returns the resolved cache directory, or "" when the default
// location should be used.
func (c *Config) CachePath() string {
	return c.resolve(c.Cache.Dir)
}

func (c *Config) resolve(p string) string {
	if p == "" {
		return ""
	}
	if expanded, err := homedir.Expand(p); err == nil {
		p = expanded
	}
	if !filepath.IsAbs(p) && c.Dir != "" {
		p = filepath.Join(c.Dir, p)
	}
	return p
}

// IsConfigured reports whether name is one of the configured speakers.
func (c *Config) IsConfigured(name string) bool {
	return contains(c.Speakers, name)
}

// IsExcluded reports whether name is on the excluded list.
func (c *Config) IsExcluded(name string) bool {
	return contains(c.Excluded, name)
}

func contains(list []string, name string) bool {
	for _, s := range list {
		if s == name {
			return true
		}
	}
	return false
}

func cleanNames(names []string) []string {
	out := make([]string, 0, len(names))
	for _, n := range names {
		if n = strings.TrimSpace(n); n != "" {
			out = append(out, n)
		}
	}
	return out
}
