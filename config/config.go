// Package config loads and validates the transcription service configuration
// from YAML files, .env files, and environment variables.
package config

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/filety/scribe/logger"
)

// Config is the root configuration for the transcription service.
type Config struct {
	Name        string        `yaml:"name" mapstructure:"name" validate:"required"`
	Environment string        `yaml:"environment" mapstructure:"environment" validate:"oneof=development staging production"`
	Debug       bool          `yaml:"debug" mapstructure:"debug"`
	Logging     logger.Config `yaml:"logging" mapstructure:"logging"`

	Server    ServerConfig    `yaml:"server" mapstructure:"server"`
	Media     MediaConfig     `yaml:"media" mapstructure:"media"`
	FFmpeg    FFmpegConfig    `yaml:"ffmpeg" mapstructure:"ffmpeg"`
	Whisper   WhisperConfig   `yaml:"whisper" mapstructure:"whisper"`
	Quota     QuotaConfig     `yaml:"quota" mapstructure:"quota"`
	Workers   WorkersConfig   `yaml:"workers" mapstructure:"workers"`
	Retention RetentionConfig `yaml:"retention" mapstructure:"retention"`
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Host string `yaml:"host" mapstructure:"host"`
	Port int    `yaml:"port" mapstructure:"port" validate:"gt=0,lte=65535"`
}

// MediaConfig configures upload ingestion and the spillover policy.
type MediaConfig struct {
	// MemoryLimitBytes is the threshold above which uploads spill to disk.
	MemoryLimitBytes int64 `yaml:"memory_limit_bytes" mapstructure:"memory_limit_bytes" validate:"gt=0"`
	// ProbeChunkBytes is the size of the first bounded read used to decide routing.
	ProbeChunkBytes int64 `yaml:"probe_chunk_bytes" mapstructure:"probe_chunk_bytes" validate:"gt=0"`
	// CopyChunkBytes is the buffer size for streaming spillover copies.
	CopyChunkBytes int64 `yaml:"copy_chunk_bytes" mapstructure:"copy_chunk_bytes" validate:"gt=0"`
	// ScratchDir is where disk-backed sources and extracted audio are written.
	ScratchDir string `yaml:"scratch_dir" mapstructure:"scratch_dir" validate:"required"`
}

// FFmpegConfig configures the external decode and probe tools.
type FFmpegConfig struct {
	Binary      string `yaml:"binary" mapstructure:"binary" validate:"required"`
	ProbeBinary string `yaml:"probe_binary" mapstructure:"probe_binary" validate:"required"`
}

// WhisperConfig configures the speech-recognition sidecar.
type WhisperConfig struct {
	URL      string        `yaml:"url" mapstructure:"url" validate:"required,url"`
	Model    string        `yaml:"model" mapstructure:"model"`
	Language string        `yaml:"language" mapstructure:"language"`
	Timeout  time.Duration `yaml:"timeout" mapstructure:"timeout"`
}

// QuotaConfig configures admission control.
type QuotaConfig struct {
	// AnonDailySeconds is the fixed daily ceiling for anonymous identities.
	AnonDailySeconds int64 `yaml:"anon_daily_seconds" mapstructure:"anon_daily_seconds" validate:"gt=0"`
}

// WorkersConfig configures the transcription worker pool.
type WorkersConfig struct {
	Count     int `yaml:"count" mapstructure:"count" validate:"gt=0"`
	QueueSize int `yaml:"queue_size" mapstructure:"queue_size" validate:"gt=0"`
}

// RetentionConfig configures the anonymous-identity sweeper.
type RetentionConfig struct {
	TTL      time.Duration `yaml:"ttl" mapstructure:"ttl" validate:"gt=0"`
	Interval time.Duration `yaml:"interval" mapstructure:"interval" validate:"gt=0"`
}

// ApplyDefaults fills unset fields with production-ready defaults.
func (c *Config) ApplyDefaults() {
	if c.Name == "" {
		c.Name = "scribed"
	}
	if c.Environment == "" {
		c.Environment = "development"
	}
	if c.Environment == "development" {
		c.Debug = true
	}
	c.Logging.ApplyDefaults()

	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Media.MemoryLimitBytes == 0 {
		c.Media.MemoryLimitBytes = 5 << 20
	}
	if c.Media.ProbeChunkBytes == 0 {
		c.Media.ProbeChunkBytes = 1 << 20
	}
	if c.Media.CopyChunkBytes == 0 {
		c.Media.CopyChunkBytes = 2 << 20
	}
	if c.Media.ScratchDir == "" {
		c.Media.ScratchDir = "files"
	}
	if c.FFmpeg.Binary == "" {
		c.FFmpeg.Binary = "ffmpeg"
	}
	if c.FFmpeg.ProbeBinary == "" {
		c.FFmpeg.ProbeBinary = "ffprobe"
	}
	if c.Whisper.URL == "" {
		c.Whisper.URL = "http://localhost:8387"
	}
	if c.Whisper.Model == "" {
		c.Whisper.Model = "small"
	}
	if c.Whisper.Timeout == 0 {
		c.Whisper.Timeout = 10 * time.Minute
	}
	if c.Quota.AnonDailySeconds == 0 {
		c.Quota.AnonDailySeconds = 540
	}
	if c.Workers.Count == 0 {
		c.Workers.Count = 2
	}
	if c.Workers.QueueSize == 0 {
		c.Workers.QueueSize = 32
	}
	if c.Retention.TTL == 0 {
		c.Retention.TTL = 24 * time.Hour
	}
	if c.Retention.Interval == 0 {
		c.Retention.Interval = time.Hour
	}
}

// Validate checks structural constraints on the configuration.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if err := c.Logging.Validate(); err != nil {
		return fmt.Errorf("config.logging: %w", err)
	}
	return nil
}

// Load reads, defaults, and validates configuration for the named service.
func Load(serviceName string, opts ...LoaderOption) (*Config, error) {
	cfg := &Config{}
	if err := LoadConfig(serviceName, cfg, opts...); err != nil {
		return nil, err
	}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
