package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"

	"github.com/ppiankov/sitewatch/internal/logging"
	"github.com/ppiankov/sitewatch/internal/privacy"
	"github.com/ppiankov/sitewatch/internal/source"
)

const (
	DefaultConfigDir    = ".sitewatch"
	DefaultConfigFile   = "config.yaml"
	DefaultEnvFile      = ".env"
	DefaultStoragePath  = ".sitewatch/sitewatch.db"
	DefaultWorkers      = 4
	DefaultDomainDelay  = 3 * time.Second
	DefaultSchedule     = "@every 6h"
	DefaultLogLevel     = "info"
	DefaultLogFormat    = logging.FormatConsole
	DefaultMaxBodyBytes = source.DefaultMaxBodyBytes
)

// Environment overrides, applied after config.yaml and .env are read.
const (
	EnvStoragePath = "SITEWATCH_STORAGE_PATH"
	EnvLogLevel    = "SITEWATCH_LOG_LEVEL"
	EnvUserAgent   = "SITEWATCH_USER_AGENT"
)

// Duration wraps time.Duration for YAML unmarshaling from strings like "15s".
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("parse duration %q: %w", s, err)
	}
	d.Duration = parsed
	return nil
}

func (d Duration) MarshalYAML() (any, error) {
	return d.String(), nil
}

type Config struct {
	Storage StorageConfig `yaml:"storage"`
	HTTP    HTTPConfig    `yaml:"http"`
	Refresh RefreshConfig `yaml:"refresh"`
	Log     LogConfig     `yaml:"log"`
	Privacy PrivacyConfig `yaml:"privacy"`
}

type StorageConfig struct {
	Path string `yaml:"path"`
}

type HTTPConfig struct {
	UserAgent    string   `yaml:"user_agent"`
	PageTimeout  Duration `yaml:"page_timeout"`
	FeedTimeout  Duration `yaml:"feed_timeout"`
	MaxBodyBytes int64    `yaml:"max_body_bytes"`
}

type RefreshConfig struct {
	Workers     int      `yaml:"workers"`
	DomainDelay Duration `yaml:"domain_delay"`
	Schedule    string   `yaml:"schedule"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

type PrivacyConfig struct {
	// Pointer so an explicit false survives defaulting.
	StoreFullText *bool        `yaml:"store_full_text"`
	Redact        RedactConfig `yaml:"redact"`
}

type RedactConfig struct {
	Enabled  bool     `yaml:"enabled"`
	Patterns []string `yaml:"patterns"`
}

// FullText reports whether extracted page text is persisted.
func (p PrivacyConfig) FullText() bool {
	return p.StoreFullText == nil || *p.StoreFullText
}

// Policy builds the persistence policy for scraped text.
func (p PrivacyConfig) Policy() (*privacy.Policy, error) {
	return privacy.NewPolicy(p.FullText(), p.Redact.Enabled, p.Redact.Patterns)
}

// Load reads config.yaml from dir, applies defaults, resolves env vars, and validates.
// A .env file next to config.yaml is loaded first when present.
func Load(dir string) (*Config, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, errors.New("config dir is required")
	}

	path := filepath.Join(dir, DefaultConfigFile)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if err := loadEnvFile(dir); err != nil {
		return nil, err
	}

	applyDefaults(&cfg)
	resolveEnv(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &cfg, nil
}

// Default returns a validated config with every default applied and env
// overrides resolved. Used when no config.yaml exists yet.
func Default() *Config {
	var cfg Config
	applyDefaults(&cfg)
	resolveEnv(&cfg)
	return &cfg
}

// IsNotExist reports whether err came from a missing config.yaml.
func IsNotExist(err error) bool {
	return errors.Is(err, fs.ErrNotExist)
}

func loadEnvFile(dir string) error {
	path := filepath.Join(dir, DefaultEnvFile)
	if _, err := os.Stat(path); err != nil {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

func applyDefaults(cfg *Config) {
	if cfg.Storage.Path == "" {
		cfg.Storage.Path = DefaultStoragePath
	}
	if cfg.HTTP.UserAgent == "" {
		cfg.HTTP.UserAgent = source.DefaultUserAgent
	}
	if cfg.HTTP.PageTimeout.Duration == 0 {
		cfg.HTTP.PageTimeout.Duration = source.DefaultPageTimeout
	}
	if cfg.HTTP.FeedTimeout.Duration == 0 {
		cfg.HTTP.FeedTimeout.Duration = source.DefaultFeedTimeout
	}
	if cfg.HTTP.MaxBodyBytes == 0 {
		cfg.HTTP.MaxBodyBytes = DefaultMaxBodyBytes
	}
	if cfg.Refresh.Workers == 0 {
		cfg.Refresh.Workers = DefaultWorkers
	}
	if cfg.Refresh.DomainDelay.Duration == 0 {
		cfg.Refresh.DomainDelay.Duration = DefaultDomainDelay
	}
	if cfg.Refresh.Schedule == "" {
		cfg.Refresh.Schedule = DefaultSchedule
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = DefaultLogLevel
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = DefaultLogFormat
	}
}

func resolveEnv(cfg *Config) {
	if v := strings.TrimSpace(os.Getenv(EnvStoragePath)); v != "" {
		cfg.Storage.Path = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogLevel)); v != "" {
		cfg.Log.Level = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvUserAgent)); v != "" {
		cfg.HTTP.UserAgent = v
	}
}

func validate(cfg *Config) error {
	if cfg.HTTP.PageTimeout.Duration < 0 {
		return fmt.Errorf("http.page_timeout: must be positive, got %s", cfg.HTTP.PageTimeout)
	}
	if cfg.HTTP.FeedTimeout.Duration < 0 {
		return fmt.Errorf("http.feed_timeout: must be positive, got %s", cfg.HTTP.FeedTimeout)
	}
	if cfg.HTTP.MaxBodyBytes < 0 {
		return fmt.Errorf("http.max_body_bytes: must be positive, got %d", cfg.HTTP.MaxBodyBytes)
	}
	if cfg.Refresh.Workers < 0 {
		return fmt.Errorf("refresh.workers: must be positive, got %d", cfg.Refresh.Workers)
	}
	if cfg.Refresh.DomainDelay.Duration < 0 {
		return fmt.Errorf("refresh.domain_delay: must not be negative, got %s", cfg.Refresh.DomainDelay)
	}
	if _, err := cron.ParseStandard(cfg.Refresh.Schedule); err != nil {
		return fmt.Errorf("refresh.schedule: %w", err)
	}
	if _, err := logging.ParseLevel(cfg.Log.Level); err != nil {
		return fmt.Errorf("log.level: %w", err)
	}

	switch cfg.Log.Format {
	case logging.FormatConsole, logging.FormatJSON:
		// valid
	default:
		return fmt.Errorf("log.format: unknown format %q (want console or json)", cfg.Log.Format)
	}

	if cfg.Privacy.Redact.Enabled {
		if _, err := privacy.Compile(cfg.Privacy.Redact.Patterns); err != nil {
			return fmt.Errorf("privacy.redact.patterns: %w", err)
		}
	}

	return nil
}
