// Package config provides application configuration management with
// multi-source priority.
//
// Configuration sources (highest to lowest priority):
//  1. Environment variables (runtime override, WORMS_ prefix)
//  2. Config file (~/.worms-agent/config.yaml or ./config.yaml)
//  3. Default values
//
// Error handling uses sentinel errors for errors.Is() checks; wrap with
// context using fmt.Errorf("%w: details", ErrXxx).
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

var (
	// ErrConfigNil indicates the configuration is nil.
	ErrConfigNil = errors.New("configuration is nil")

	// ErrInvalidProvider indicates the AI provider is not supported.
	ErrInvalidProvider = errors.New("invalid provider")

	// ErrInvalidModelName indicates the model name is invalid.
	ErrInvalidModelName = errors.New("invalid model name")

	// ErrInvalidBaseURL indicates the WoRMS base URL is invalid.
	ErrInvalidBaseURL = errors.New("invalid WoRMS base URL")

	// ErrInvalidTimeout indicates a timeout value is out of range.
	ErrInvalidTimeout = errors.New("invalid timeout")

	// ErrInvalidCacheCapacity indicates the name cache capacity is out of range.
	ErrInvalidCacheCapacity = errors.New("invalid cache capacity")

	// ErrInvalidMaxTurns indicates the max turns value is out of range.
	ErrInvalidMaxTurns = errors.New("invalid max turns")

	// ErrInvalidRecordCap indicates the recent-changes record cap is out of range.
	ErrInvalidRecordCap = errors.New("invalid record cap")

	// ErrInvalidConcurrency indicates the concurrent request bound is out of range.
	ErrInvalidConcurrency = errors.New("invalid concurrency")
)

// AI provider identifiers used in Config.Provider.
const (
	ProviderGemini   = "gemini"
	ProviderGoogleAI = "googleai"
)

const (
	// DefaultBaseURL is the public WoRMS REST endpoint.
	DefaultBaseURL = "https://www.marinespecies.org/rest"

	// DefaultRequestTimeout bounds every individual WoRMS call.
	DefaultRequestTimeout = 60 * time.Second

	// DefaultBatchTimeout bounds the bulk name-matching call.
	DefaultBatchTimeout = 30 * time.Second

	// DefaultCacheCapacity is the name-to-AphiaID cache size.
	DefaultCacheCapacity = 256

	// DefaultMaxTurns bounds the tool-calling loop per request.
	DefaultMaxTurns = 12

	// DefaultRecordCap bounds records kept from a recent-changes query.
	DefaultRecordCap = 50
)

// Config stores application configuration.
type Config struct {
	// AI provider and model configuration
	Provider  string `mapstructure:"provider" json:"provider"`
	ModelName string `mapstructure:"model_name" json:"model_name"`

	// WoRMS API configuration
	BaseURL        string        `mapstructure:"worms_base_url" json:"worms_base_url"`
	RequestTimeout time.Duration `mapstructure:"request_timeout" json:"request_timeout"`
	BatchTimeout   time.Duration `mapstructure:"batch_timeout" json:"batch_timeout"`
	MaxConcurrent  int           `mapstructure:"max_concurrent" json:"max_concurrent"`
	RatePerSecond  float64       `mapstructure:"rate_per_second" json:"rate_per_second"`
	RateBurst      int           `mapstructure:"rate_burst" json:"rate_burst"`

	// Agent behavior
	CacheCapacity int `mapstructure:"cache_capacity" json:"cache_capacity"`
	MaxTurns      int `mapstructure:"max_turns" json:"max_turns"`
	RecordCap     int `mapstructure:"record_cap" json:"record_cap"`

	// Logging
	LogJSON  bool   `mapstructure:"log_json" json:"log_json"`
	LogLevel string `mapstructure:"log_level" json:"log_level"`
}

// Load loads configuration.
// Priority: environment variables > configuration file > default values.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	if home, err := os.UserHomeDir(); err == nil {
		v.AddConfigPath(filepath.Join(home, ".worms-agent"))
	}
	v.AddConfigPath(".")

	setDefaults(v)

	v.SetEnvPrefix("WORMS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		// A missing config file is not an error, defaults apply.
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		slog.Debug("configuration file not found, using default values",
			"config_name", "config.yaml")
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parsing configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating configuration: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets all default configuration values.
func setDefaults(v *viper.Viper) {
	v.SetDefault("provider", ProviderGemini)
	v.SetDefault("model_name", "gemini-2.5-flash")

	v.SetDefault("worms_base_url", DefaultBaseURL)
	v.SetDefault("request_timeout", DefaultRequestTimeout)
	v.SetDefault("batch_timeout", DefaultBatchTimeout)
	v.SetDefault("max_concurrent", 4)
	v.SetDefault("rate_per_second", 5.0)
	v.SetDefault("rate_burst", 10)

	v.SetDefault("cache_capacity", DefaultCacheCapacity)
	v.SetDefault("max_turns", DefaultMaxTurns)
	v.SetDefault("record_cap", DefaultRecordCap)

	v.SetDefault("log_json", false)
	v.SetDefault("log_level", "info")
}

// Validate checks the configuration for out-of-range or missing values.
func (c *Config) Validate() error {
	if c == nil {
		return ErrConfigNil
	}

	switch c.Provider {
	case ProviderGemini, ProviderGoogleAI:
	default:
		return fmt.Errorf("%w: %q (supported: gemini, googleai)", ErrInvalidProvider, c.Provider)
	}

	if strings.TrimSpace(c.ModelName) == "" {
		return fmt.Errorf("%w: empty", ErrInvalidModelName)
	}

	if !strings.HasPrefix(c.BaseURL, "http://") && !strings.HasPrefix(c.BaseURL, "https://") {
		return fmt.Errorf("%w: %q", ErrInvalidBaseURL, c.BaseURL)
	}

	if c.RequestTimeout <= 0 || c.RequestTimeout > 10*time.Minute {
		return fmt.Errorf("%w: request_timeout %v", ErrInvalidTimeout, c.RequestTimeout)
	}
	if c.BatchTimeout <= 0 || c.BatchTimeout > c.RequestTimeout {
		return fmt.Errorf("%w: batch_timeout %v", ErrInvalidTimeout, c.BatchTimeout)
	}

	if c.CacheCapacity < 1 || c.CacheCapacity > 1<<16 {
		return fmt.Errorf("%w: %d", ErrInvalidCacheCapacity, c.CacheCapacity)
	}
	if c.MaxTurns < 1 || c.MaxTurns > 100 {
		return fmt.Errorf("%w: %d", ErrInvalidMaxTurns, c.MaxTurns)
	}
	if c.RecordCap < 1 || c.RecordCap > 1000 {
		return fmt.Errorf("%w: %d", ErrInvalidRecordCap, c.RecordCap)
	}
	if c.MaxConcurrent < 1 || c.MaxConcurrent > 64 {
		return fmt.Errorf("%w: %d", ErrInvalidConcurrency, c.MaxConcurrent)
	}
	if c.RatePerSecond <= 0 || c.RateBurst < 1 {
		return fmt.Errorf("%w: rate %v burst %d", ErrInvalidConcurrency, c.RatePerSecond, c.RateBurst)
	}

	return nil
}

// Default returns a configuration populated with default values only.
// Used by tests and by callers that bypass file and environment loading.
func Default() *Config {
	return &Config{
		Provider:       ProviderGemini,
		ModelName:      "gemini-2.5-flash",
		BaseURL:        DefaultBaseURL,
		RequestTimeout: DefaultRequestTimeout,
		BatchTimeout:   DefaultBatchTimeout,
		MaxConcurrent:  4,
		RatePerSecond:  5.0,
		RateBurst:      10,
		CacheCapacity:  DefaultCacheCapacity,
		MaxTurns:       DefaultMaxTurns,
		RecordCap:      DefaultRecordCap,
		LogLevel:       "info",
	}
}

// FullModelName returns the provider-qualified model name for Genkit.
// Example: "googleai/gemini-2.5-flash". If ModelName already contains a
// "/", it is returned as-is.
func (c *Config) FullModelName() string {
	if strings.Contains(c.ModelName, "/") {
		return c.ModelName
	}
	return ProviderGoogleAI + "/" + c.ModelName
}

// LogSlogLevel maps the configured log level string to a slog.Level.
func (c *Config) LogSlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
