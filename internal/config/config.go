// Package config loads soundcheck settings from an optional YAML file with
// environment overrides.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/hashicorp/go-hclog"
	"gopkg.in/yaml.v3"

	"github.com/linuxmatters/soundcheck/internal/mediaerr"
)

// Environment variables that override file values
const (
	EnvUploadDir   = "SOUNDCHECK_UPLOAD_DIR"
	EnvAudioDir    = "SOUNDCHECK_AUDIO_DIR"
	EnvFFmpegPath  = "FFMPEG_PATH"
	EnvFFprobePath = "FFPROBE_PATH"
	EnvConcurrency = "SOUNDCHECK_CONCURRENCY"
	EnvLogLevel    = "SOUNDCHECK_LOG_LEVEL"
)

// maxConcurrency caps the wave size a user may configure
const maxConcurrency = 32

// Config holds directory and engine settings for a pipeline.Service
type Config struct {
	UploadDir   string `yaml:"upload_dir"`   // Where incoming media lands
	AudioDir    string `yaml:"audio_dir"`    // Where derived audio is written
	FFmpegPath  string `yaml:"ffmpeg_path"`  // "" = look up on PATH
	FFprobePath string `yaml:"ffprobe_path"` // "" = look up on PATH
	Concurrency int    `yaml:"concurrency"`  // Batch wave size, 0 = from CPU count
	LogLevel    string `yaml:"log_level"`

	Watch WatchConfig `yaml:"watch"`
}

// WatchConfig controls the upload directory watcher
type WatchConfig struct {
	Extensions []string      `yaml:"extensions"` // Lower case, with dot
	Settle     time.Duration `yaml:"settle"`     // Quiet period before a new file is picked up
}

// Default returns the built-in configuration
func Default() *Config {
	return &Config{
		UploadDir: "uploads",
		AudioDir:  "audio",
		LogLevel:  "info",
		Watch: WatchConfig{
			Extensions: []string{".mp4", ".mkv", ".mov", ".webm", ".avi", ".wav", ".mp3", ".flac", ".m4a", ".ogg"},
			Settle:     2 * time.Second,
		},
	}
}

// Load reads path over the defaults, applies environment overrides and
// validates the result. An empty path skips the file.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		if err := DecodeStrict(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	}

	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnv overlays environment values onto the config
func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	strs := map[string]*string{
		EnvUploadDir:   &c.UploadDir,
		EnvAudioDir:    &c.AudioDir,
		EnvFFmpegPath:  &c.FFmpegPath,
		EnvFFprobePath: &c.FFprobePath,
		EnvLogLevel:    &c.LogLevel,
	}
	for key, dst := range strs {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}

	if v, ok := lookup(EnvConcurrency); ok && v != "" {
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("invalid %s %q: %w", EnvConcurrency, v, err)
		}
		c.Concurrency = n
	}
	return nil
}

// Validate checks the configuration for values the pipeline cannot use
func (c *Config) Validate() error {
	if strings.TrimSpace(c.UploadDir) == "" {
		return mediaerr.Validation("config", "upload_dir must not be empty")
	}
	if strings.TrimSpace(c.AudioDir) == "" {
		return mediaerr.Validation("config", "audio_dir must not be empty")
	}
	if c.Concurrency < 0 || c.Concurrency > maxConcurrency {
		return mediaerr.Validation("config", "concurrency must be between 0 and %d, got %d", maxConcurrency, c.Concurrency)
	}
	if hclog.LevelFromString(c.LogLevel) == hclog.NoLevel {
		return mediaerr.Validation("config", "unknown log level %q", c.LogLevel)
	}
	if c.Watch.Settle < 0 {
		return mediaerr.Validation("config", "watch.settle must not be negative")
	}
	for _, ext := range c.Watch.Extensions {
		if !strings.HasPrefix(ext, ".") {
			return mediaerr.Validation("config", "watch extension %q must start with a dot", ext)
		}
	}
	return nil
}

// Level returns the configured hclog level
func (c *Config) Level() hclog.Level {
	return hclog.LevelFromString(c.LogLevel)
}

// DecodeStrict decodes YAML into v, rejecting keys v does not declare.
// An empty document leaves v untouched.
func DecodeStrict(data []byte, v any) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return mediaerr.New(mediaerr.KindValidation, "decode", "", err)
	}
	return nil
}
