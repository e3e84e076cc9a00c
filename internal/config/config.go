package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// EnvPrefix is prepended to every environment override, e.g.
// LIVEPHOTO_SERVER_HTTP_PORT.
const EnvPrefix = "LIVEPHOTO_"

// Config represents the application configuration
type Config struct {
	Server   ServerConfig   `yaml:"server" envPrefix:"SERVER_"`
	Splitter SplitterConfig `yaml:"splitter" envPrefix:"SPLITTER_"`
	Cache    CacheConfig    `yaml:"cache" envPrefix:"CACHE_"`
	History  HistoryConfig  `yaml:"history" envPrefix:"HISTORY_"`
	Handles  HandlesConfig  `yaml:"handles" envPrefix:"HANDLES_"`
	Sink     SinkConfig     `yaml:"sink" envPrefix:"SINK_"`
	Watch    WatchConfig    `yaml:"watch" envPrefix:"WATCH_"`
	Log      LogConfig      `yaml:"log" envPrefix:"LOG_"`
}

type ServerConfig struct {
	HTTPPort    int   `yaml:"http_port" env:"HTTP_PORT"`
	MetricsPort int   `yaml:"metrics_port" env:"METRICS_PORT"` // 0 disables
	MaxUploadMB int64 `yaml:"max_upload_mb" env:"MAX_UPLOAD_MB"`
}

type SplitterConfig struct {
	LookaheadBytes int `yaml:"lookahead_bytes" env:"LOOKAHEAD_BYTES"`
	CheckInterval  int `yaml:"check_interval" env:"CHECK_INTERVAL"`
	Workers        int `yaml:"workers" env:"WORKERS"`
}

type CacheConfig struct {
	Enabled bool   `yaml:"enabled" env:"ENABLED"`
	Path    string `yaml:"path" env:"PATH"`
	TTL     int    `yaml:"ttl" env:"TTL"` // seconds
}

type HistoryConfig struct {
	Driver string `yaml:"driver" env:"DRIVER"` // sqlite or pgx
	DSN    string `yaml:"dsn" env:"DSN"`
}

type HandlesConfig struct {
	IdleTimeout   int `yaml:"idle_timeout" env:"IDLE_TIMEOUT"`     // seconds
	SweepInterval int `yaml:"sweep_interval" env:"SWEEP_INTERVAL"` // seconds
}

type SinkConfig struct {
	Kind  string      `yaml:"kind" env:"KIND"` // local or minio
	Dir   string      `yaml:"dir" env:"DIR"`
	MinIO MinIOConfig `yaml:"minio" envPrefix:"MINIO_"`
}

type MinIOConfig struct {
	Endpoint  string `yaml:"endpoint" env:"ENDPOINT"`
	AccessKey string `yaml:"access_key" env:"ACCESS_KEY"`
	SecretKey string `yaml:"secret_key" env:"SECRET_KEY"`
	Bucket    string `yaml:"bucket" env:"BUCKET"`
	UseSSL    bool   `yaml:"use_ssl" env:"USE_SSL"`
}

type WatchConfig struct {
	Dir        string `yaml:"dir" env:"DIR"`
	DebounceMS int    `yaml:"debounce_ms" env:"DEBOUNCE_MS"`
}

type LogConfig struct {
	Level      string `yaml:"level" env:"LEVEL"`
	Format     string `yaml:"format" env:"FORMAT"` // text or json
	File       string `yaml:"file" env:"FILE"`
	MaxSizeMB  int    `yaml:"max_size_mb" env:"MAX_SIZE_MB"`
	MaxBackups int    `yaml:"max_backups" env:"MAX_BACKUPS"`
}

// DefaultConfig returns configuration with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			HTTPPort:    4480,
			MetricsPort: 9480,
			MaxUploadMB: 256,
		},
		Splitter: SplitterConfig{
			LookaheadBytes: 8192,
			CheckInterval:  4096,
			Workers:        4,
		},
		Cache: CacheConfig{
			Enabled: true,
			Path:    "./data/cache",
			TTL:     7 * 24 * 3600,
		},
		History: HistoryConfig{
			Driver: "sqlite",
			DSN:    "./data/history.db",
		},
		Handles: HandlesConfig{
			IdleTimeout:   600,
			SweepInterval: 30,
		},
		Sink: SinkConfig{
			Kind: "local",
			Dir:  "./data/out",
		},
		Watch: WatchConfig{
			DebounceMS: 500,
		},
		Log: LogConfig{
			Level:      "info",
			Format:     "text",
			MaxSizeMB:  50,
			MaxBackups: 3,
		},
	}
}

// Load reads configuration from a YAML file and applies LIVEPHOTO_*
// environment overrides on top.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	case os.IsNotExist(err):
		// Use defaults if no config file
	default:
		return nil, err
	}

	if err := env.ParseWithOptions(cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return nil, fmt.Errorf("environment overrides: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects settings the services cannot run with.
func (c *Config) Validate() error {
	var errs []error

	if c.Server.HTTPPort <= 0 || c.Server.HTTPPort > 65535 {
		errs = append(errs, fmt.Errorf("server.http_port %d out of range", c.Server.HTTPPort))
	}
	if c.Server.MetricsPort < 0 || c.Server.MetricsPort > 65535 {
		errs = append(errs, fmt.Errorf("server.metrics_port %d out of range", c.Server.MetricsPort))
	}
	if c.Server.MaxUploadMB <= 0 {
		errs = append(errs, errors.New("server.max_upload_mb must be positive"))
	}
	if c.Splitter.LookaheadBytes <= 0 {
		errs = append(errs, errors.New("splitter.lookahead_bytes must be positive"))
	}
	if c.Splitter.CheckInterval <= 0 {
		errs = append(errs, errors.New("splitter.check_interval must be positive"))
	}
	if c.Splitter.Workers <= 0 {
		errs = append(errs, errors.New("splitter.workers must be positive"))
	}
	if c.Cache.Enabled && c.Cache.Path == "" {
		errs = append(errs, errors.New("cache.path is required when the cache is enabled"))
	}
	switch c.History.Driver {
	case "sqlite", "pgx":
	default:
		errs = append(errs, fmt.Errorf("history.driver %q is not sqlite or pgx", c.History.Driver))
	}
	switch c.Sink.Kind {
	case "local":
		if c.Sink.Dir == "" {
			errs = append(errs, errors.New("sink.dir is required for the local sink"))
		}
	case "minio":
		if c.Sink.MinIO.Endpoint == "" || c.Sink.MinIO.Bucket == "" {
			errs = append(errs, errors.New("sink.minio.endpoint and sink.minio.bucket are required for the minio sink"))
		}
	default:
		errs = append(errs, fmt.Errorf("sink.kind %q is not local or minio", c.Sink.Kind))
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("log.format %q is not text or json", c.Log.Format))
	}

	return errors.Join(errs...)
}

// EnsureDirectories creates required directories
func (c *Config) EnsureDirectories() error {
	var dirs []string
	if c.Cache.Enabled {
		dirs = append(dirs, c.Cache.Path)
	}
	if c.History.Driver == "sqlite" && c.History.DSN != ":memory:" {
		dirs = append(dirs, filepath.Dir(c.History.DSN))
	}
	if c.Sink.Kind == "local" {
		dirs = append(dirs, c.Sink.Dir)
	}
	if c.Log.File != "" {
		dirs = append(dirs, filepath.Dir(c.Log.File))
	}

	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}

	return nil
}

// CacheTTL returns the cache entry lifetime; zero means entries never expire.
func (c *Config) CacheTTL() time.Duration {
	return time.Duration(c.Cache.TTL) * time.Second
}

func (c *Config) HandleIdleTimeout() time.Duration {
	return time.Duration(c.Handles.IdleTimeout) * time.Second
}

func (c *Config) HandleSweepInterval() time.Duration {
	return time.Duration(c.Handles.SweepInterval) * time.Second
}

func (c *Config) WatchDebounce() time.Duration {
	return time.Duration(c.Watch.DebounceMS) * time.Millisecond
}

// MaxUploadBytes returns the upload limit in bytes.
func (c *Config) MaxUploadBytes() int64 {
	return c.Server.MaxUploadMB << 20
}
