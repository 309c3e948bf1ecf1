package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/viper"
)

func newViper(t *testing.T, body string) *viper.Viper {
	t.Helper()
	v := viper.New()
	SetDefaults(v)
	v.SetConfigType("json")
	if body != "" {
		if err := v.ReadConfig(strings.NewReader(body)); err != nil {
			t.Fatalf("Failed to read config: %v", err)
		}
	}
	return v
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(newViper(t, ""))
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if cfg.ElevenLabs.VoiceID != DefaultVoiceID {
		t.Errorf("Expected voice %s, got %s", DefaultVoiceID, cfg.ElevenLabs.VoiceID)
	}
	if cfg.ElevenLabs.Format != DefaultFormat {
		t.Errorf("Expected format %s, got %s", DefaultFormat, cfg.ElevenLabs.Format)
	}
	if cfg.Airfoil.Volume != DefaultVolume {
		t.Errorf("Expected volume %v, got %v", DefaultVolume, cfg.Airfoil.Volume)
	}
	if cfg.Airfoil.ConnectTimeout != 30*time.Second {
		t.Errorf("Expected 30s connect timeout, got %v", cfg.Airfoil.ConnectTimeout)
	}
	if cfg.Airfoil.PollInterval != time.Second {
		t.Errorf("Expected 1s poll interval, got %v", cfg.Airfoil.PollInterval)
	}
	if cfg.Audio.ChimeGap != 300*time.Millisecond {
		t.Errorf("Expected 300ms chime gap, got %v", cfg.Audio.ChimeGap)
	}
	if len(cfg.Speakers) != 0 {
		t.Errorf("Expected no speakers, got %v", cfg.Speakers)
	}
}

func TestLoadDefaultFile(t *testing.T) {
	cfg, err := Load(newViper(t, DefaultFile))
	if err != nil {
		t.Fatalf("Default file does not load: %v", err)
	}
	if cfg.Audio.Codec != DefaultCodec || cfg.Audio.SampleRate != DefaultSampleRate {
		t.Errorf("Unexpected audio section: %+v", cfg.Audio)
	}
	if !cfg.Cache.Enabled {
		t.Error("Expected cache enabled by default")
	}
}

func TestLoadFile(t *testing.T) {
	body := `{
		"airfoil": {"volume": 0.4, "connect_timeout": "10s"},
		"speakers": ["Kitchen", " Living Room ", ""],
		"excluded": ["Bedroom"],
		"elevenlabs": {"voice_id": "abc", "format": "mp3_44100_128"}
	}`
	cfg, err := Load(newViper(t, body))
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if cfg.Airfoil.Volume != 0.4 {
		t.Errorf("Expected volume 0.4, got %v", cfg.Airfoil.Volume)
	}
	if cfg.Airfoil.ConnectTimeout != 10*time.Second {
		t.Errorf("Expected 10s, got %v", cfg.Airfoil.ConnectTimeout)
	}
	// Unset keys in a section keep their defaults.
	if cfg.Airfoil.Source != DefaultSource {
		t.Errorf("Expected default source, got %q", cfg.Airfoil.Source)
	}
	if want := []string{"Kitchen", "Living Room"}; strings.Join(cfg.Speakers, "|") != strings.Join(want, "|") {
		t.Errorf("Expected speakers %v, got %v", want, cfg.Speakers)
	}
	if !cfg.IsConfigured("Kitchen") || cfg.IsConfigured("Bedroom") {
		t.Error("IsConfigured mismatch")
	}
	if !cfg.IsExcluded("Bedroom") || cfg.IsExcluded("Kitchen") {
		t.Error("IsExcluded mismatch")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "volume too high", body: `{"airfoil": {"volume": 1.5}}`},
		{name: "negative volume", body: `{"airfoil": {"volume": -0.1}}`},
		{name: "zero timeout", body: `{"airfoil": {"connect_timeout": "0s"}}`},
		{name: "bad format", body: `{"elevenlabs": {"format": "opus"}}`},
		{name: "empty voice", body: `{"elevenlabs": {"voice_id": ""}}`},
		{name: "too many channels", body: `{"audio": {"channels": 12}}`},
		{name: "bad cache size", body: `{"cache": {"max_size": "lots"}}`},
		{name: "bad compression", body: `{"cache": {"compression_level": 40}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(newViper(t, tt.body))
			if err == nil {
				t.Fatal("Expected validation error")
			}
			if !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("Expected ErrInvalidConfig, got %v", err)
			}
		})
	}
}

func TestCacheDisabledSkipsSizeCheck(t *testing.T) {
	if _, err := Load(newViper(t, `{"cache": {"enabled": false, "max_size": "lots"}}`)); err != nil {
		t.Errorf("Unexpected error: %v", err)
	}
}

func TestCacheMaxBytes(t *testing.T) {
	cfg := &Config{Cache: Cache{MaxSize: "64MB"}}
	n, err := cfg.CacheMaxBytes()
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if n != 64_000_000 {
		t.Errorf("Expected 64000000, got %d", n)
	}

	cfg.Cache.MaxSize = "0"
	if _, err := cfg.CacheMaxBytes(); err == nil {
		t.Error("Expected error for zero size")
	}
}

func TestResolvePaths(t *testing.T) {
	dir := t.TempDir()
	cfg := &Config{Dir: dir, Audio: Audio{ChimeFile: "gong.mp3"}}

	if got := cfg.ChimePath(); got != filepath.Join(dir, "gong.mp3") {
		t.Errorf("Expected chime next to config, got %s", got)
	}

	cfg.Audio.ChimeFile = "/opt/sounds/gong.mp3"
	if got := cfg.ChimePath(); got != "/opt/sounds/gong.mp3" {
		t.Errorf("Expected absolute path kept, got %s", got)
	}

	home, err := os.UserHomeDir()
	if err == nil {
		cfg.ElevenLabs.Script = "~/bin/speech.py"
		if got := cfg.ScriptPath(); got != filepath.Join(home, "bin", "speech.py") {
			t.Errorf("Expected home expansion, got %s", got)
		}
	}

	cfg.Audio.ChimeFile = ""
	if got := cfg.ChimePath(); got != "" {
		t.Errorf("Expected empty chime path, got %s", got)
	}

	if got := cfg.CachePath(); got != "" {
		t.Errorf("Expected default cache location, got %s", got)
	}
	cfg.Cache.Dir = "cache"
	if got := cfg.CachePath(); got != filepath.Join(dir, "cache") {
		t.Errorf("Expected cache next to config, got %s", got)
	}
}

func TestLoadEnv(t *testing.T) {
	t.Setenv("ELEVENLABS_API_KEY", "secret")
	t.Setenv("ANNOUNCE_DEBUG", "true")

	e, err := LoadEnv()
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if e.APIKey != "secret" {
		t.Errorf("Expected API key from env, got %q", e.APIKey)
	}
	if !e.Debug {
		t.Error("Expected debug enabled")
	}
	if e.BaseURL != "https://api.elevenlabs.io/v1" {
		t.Errorf("Expected default base URL, got %q", e.BaseURL)
	}
}

func TestValidFormat(t *testing.T) {
	for _, f := range []string{"opus_48000_192", "mp3_44100_128", "pcm_24000", "ulaw_8000"} {
		if !ValidFormat(f) {
			t.Errorf("Expected %s to be valid", f)
		}
	}
	for _, f := range []string{"", "mp3", "MP3_44100", "mp3-44100"} {
		if ValidFormat(f) {
			t.Errorf("Expected %s to be invalid", f)
		}
	}
}
