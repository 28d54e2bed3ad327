// Package config loads and validates service configuration via Viper.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/jobflow/jobflow/internal/extraction"
)

// Config captures all service configuration knobs loaded via Viper.
type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Extraction ExtractionConfig `mapstructure:"extraction"`
	HTTP       HTTPConfig       `mapstructure:"http"`
	Headless   HeadlessConfig   `mapstructure:"headless"`
	LLM        LLMConfig        `mapstructure:"llm"`
	Robots     RobotsConfig     `mapstructure:"robots"`
	DB         DBConfig         `mapstructure:"db"`
	Storage    StorageConfig    `mapstructure:"storage"`
	PubSub     PubSubConfig     `mapstructure:"pubsub"`
	Logging    LoggingConfig    `mapstructure:"logging"`
}

// ServerConfig controls HTTP server behavior.
type ServerConfig struct {
	Port int `mapstructure:"port"`
}

// ExtractionConfig sets the default pipeline stage toggles and limits.
type ExtractionConfig struct {
	UserAgent         string `mapstructure:"user_agent"`
	UseSecondaryFetch bool   `mapstructure:"use_secondary_fetch"`
	UseLLMFallback    bool   `mapstructure:"use_llm_fallback"`
	UseLLMValidation  bool   `mapstructure:"use_llm_validation"`
	ApplyPIIFilter    bool   `mapstructure:"apply_pii_filter"`
	CheckRobots       bool   `mapstructure:"check_robots"`
	BatchMaxParallel  int    `mapstructure:"batch_max_parallel"`
}

// HTTPConfig configures the primary fetch client.
type HTTPConfig struct {
	TimeoutSeconds int `mapstructure:"timeout_seconds"`
}

// HeadlessConfig configures the rendered fetch subsystem.
type HeadlessConfig struct {
	MaxParallel   int     `mapstructure:"max_parallel"`
	NavTimeoutSec int     `mapstructure:"nav_timeout_seconds"`
	SettleMillis  int     `mapstructure:"settle_ms"`
	DomainQPS     float64 `mapstructure:"domain_qps"`
}

// LLMConfig configures the Gemini-backed extractor and validator.
type LLMConfig struct {
	APIKey      string  `mapstructure:"api_key"`
	Model       string  `mapstructure:"model"`
	Temperature float64 `mapstructure:"temperature"`
}

// RobotsConfig controls robots.txt fetches.
type RobotsConfig struct {
	TimeoutSeconds int `mapstructure:"timeout_seconds"`
}

// DBConfig controls access to the relational database. An empty DSN
// selects the in-memory job store.
type DBConfig struct {
	DSN          string `mapstructure:"dsn"`
	MaxOpenConns int    `mapstructure:"max_open_conns"`
}

// StorageConfig selects where raw page snapshots are archived.
type StorageConfig struct {
	Backend   string `mapstructure:"backend"`
	GCSBucket string `mapstructure:"gcs_bucket"`
	LocalDir  string `mapstructure:"local_dir"`
	Prefix    string `mapstructure:"prefix"`
}

// PubSubConfig holds metadata for extraction completion events.
type PubSubConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	ProjectID string `mapstructure:"project_id"`
	TopicName string `mapstructure:"topic_name"`
}

// LoggingConfig toggles zap development features.
type LoggingConfig struct {
	Development bool `mapstructure:"development"`
}

// Load builds a Config from disk/environment.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("JOBFLOW")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("extraction.user_agent", "")
	v.SetDefault("extraction.use_secondary_fetch", true)
	v.SetDefault("extraction.use_llm_fallback", true)
	v.SetDefault("extraction.use_llm_validation", false)
	v.SetDefault("extraction.apply_pii_filter", true)
	v.SetDefault("extraction.check_robots", true)
	v.SetDefault("extraction.batch_max_parallel", 4)
	v.SetDefault("http.timeout_seconds", 15)
	v.SetDefault("headless.max_parallel", 2)
	v.SetDefault("headless.nav_timeout_seconds", 30)
	v.SetDefault("headless.settle_ms", 1000)
	v.SetDefault("headless.domain_qps", 1.0)
	v.SetDefault("llm.model", "gemini-2.0-flash")
	v.SetDefault("llm.temperature", 0.2)
	v.SetDefault("robots.timeout_seconds", 5)
	v.SetDefault("db.max_open_conns", 8)
	v.SetDefault("storage.backend", "memory")
	v.SetDefault("storage.prefix", "pages")
	v.SetDefault("logging.development", true)
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	if c.Server.Port <= 0 {
		return fmt.Errorf("server.port must be > 0")
	}
	if c.HTTP.TimeoutSeconds <= 0 {
		return fmt.Errorf("http.timeout_seconds must be > 0")
	}
	if c.Extraction.BatchMaxParallel <= 0 {
		return fmt.Errorf("extraction.batch_max_parallel must be > 0")
	}
	if c.Extraction.UseSecondaryFetch && c.Headless.MaxParallel <= 0 {
		return fmt.Errorf("headless.max_parallel must be > 0 when secondary fetch is enabled")
	}
	switch c.Storage.Backend {
	case "memory", "local", "gcs":
	default:
		return fmt.Errorf("storage.backend must be one of memory, local, gcs")
	}
	if c.Storage.Backend == "gcs" && c.Storage.GCSBucket == "" {
		return fmt.Errorf("storage.gcs_bucket must be set when backend is gcs")
	}
	if c.Storage.Backend == "local" && c.Storage.LocalDir == "" {
		return fmt.Errorf("storage.local_dir must be set when backend is local")
	}
	if c.PubSub.Enabled && (c.PubSub.ProjectID == "" || c.PubSub.TopicName == "") {
		return fmt.Errorf("pubsub.project_id and pubsub.topic_name must be set when pubsub is enabled")
	}
	return nil
}

// PrimaryTimeout is the probe fetch budget as a duration.
func (c Config) PrimaryTimeout() time.Duration {
	return time.Duration(c.HTTP.TimeoutSeconds) * time.Second
}

// NavTimeout is the rendered fetch navigation budget as a duration.
func (c Config) NavTimeout() time.Duration {
	return time.Duration(c.Headless.NavTimeoutSec) * time.Second
}

// SettleDelay is the post-ready settle wait as a duration.
func (c Config) SettleDelay() time.Duration {
	return time.Duration(c.Headless.SettleMillis) * time.Millisecond
}

// Options converts the extraction toggles into pipeline options.
func (c Config) Options() extraction.Options {
	return extraction.Options{
		UseSecondaryFetch: c.Extraction.UseSecondaryFetch,
		UseLLMFallback:    c.Extraction.UseLLMFallback,
		UseLLMValidation:  c.Extraction.UseLLMValidation,
		ApplyPIIFilter:    c.Extraction.ApplyPIIFilter,
		CheckRobots:       c.Extraction.CheckRobots,
	}
}
