package model

import (
	"os"
	"path/filepath"
	"runtime"
	"time"
)

// Config is the complete themecheck configuration
type Config struct {
	Policy      ValidationPolicy  `yaml:"policy" mapstructure:"policy"`
	Sources     SourcesConfig     `yaml:"sources" mapstructure:"sources"`
	Similarity  SimilarityConfig  `yaml:"similarity" mapstructure:"similarity"`
	Cache       CacheConfig       `yaml:"cache" mapstructure:"cache"`
	Concurrency ConcurrencyConfig `yaml:"concurrency" mapstructure:"concurrency"`
	Output      OutputConfig      `yaml:"output" mapstructure:"output"`
	Logging     LoggingConfig     `yaml:"logging" mapstructure:"logging"`
	Server      ServerConfig      `yaml:"server" mapstructure:"server"`
}

// SourcesConfig controls classification of records that arrive without a source tag
type SourcesConfig struct {
	ClassifyUntagged bool         `yaml:"classify_untagged" mapstructure:"classify_untagged"`
	Domains          []DomainRule `yaml:"domains,omitempty" mapstructure:"domains"`
}

// DomainRule pins a host and its subdomains to a source type tag
type DomainRule struct {
	Host string `yaml:"host" mapstructure:"host"`
	Type string `yaml:"type" mapstructure:"type"`
}

// DomainMap returns the rules keyed by host; later rules win
func (s SourcesConfig) DomainMap() map[string]string {
	if len(s.Domains) == 0 {
		return nil
	}
	m := make(map[string]string, len(s.Domains))
	for _, r := range s.Domains {
		m[r.Host] = r.Type
	}
	return m
}

// SimilarityConfig configures the optional embedding-based similarity enricher
type SimilarityConfig struct {
	Enabled  bool          `yaml:"enabled" mapstructure:"enabled"`
	Provider string        `yaml:"provider" mapstructure:"provider"` // openai, ollama (OpenAI-compatible endpoint)
	Model    string        `yaml:"model" mapstructure:"model"`
	APIKey   string        `yaml:"-" mapstructure:"api_key"`
	BaseURL  string        `yaml:"base_url,omitempty" mapstructure:"base_url"`
	Timeout  time.Duration `yaml:"timeout" mapstructure:"timeout"`

	RequestsPerSecond float64 `yaml:"requests_per_second" mapstructure:"requests_per_second"`
	BurstSize         int     `yaml:"burst_size" mapstructure:"burst_size"`

	RetryMaxAttempts int  `yaml:"retry_max_attempts" mapstructure:"retry_max_attempts"`
	BreakerEnabled   bool `yaml:"breaker_enabled" mapstructure:"breaker_enabled"`

	HTTPProxy  string `yaml:"http_proxy,omitempty" mapstructure:"http_proxy"`
	HTTPSProxy string `yaml:"https_proxy,omitempty" mapstructure:"https_proxy"`
	NoProxy    string `yaml:"no_proxy,omitempty" mapstructure:"no_proxy"`
}

// CacheConfig configures the embedding cache
type CacheConfig struct {
	Enabled        bool          `yaml:"enabled" mapstructure:"enabled"`
	Dir            string        `yaml:"dir" mapstructure:"dir"`
	MemoryTTL      time.Duration `yaml:"memory_ttl" mapstructure:"memory_ttl"`
	MemoryMaxBytes int64         `yaml:"memory_max_bytes" mapstructure:"memory_max_bytes"` // encoded vector bytes held in memory
	DiskTTL        time.Duration `yaml:"disk_ttl" mapstructure:"disk_ttl"`
}

// ConcurrencyConfig bounds parallelism
type ConcurrencyConfig struct {
	ThemeWorkers       int `yaml:"theme_workers" mapstructure:"theme_workers"`
	DestinationWorkers int `yaml:"destination_workers" mapstructure:"destination_workers"`
}

// OutputConfig controls report rendering
type OutputConfig struct {
	Verbose       bool `yaml:"verbose" mapstructure:"verbose"`
	IncludeFooter bool `yaml:"include_footer" mapstructure:"include_footer"`
}

// LoggingConfig controls the structured logger
type LoggingConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"` // json, text
}

// ServerConfig configures the HTTP API
type ServerConfig struct {
	Addr         string        `yaml:"addr" mapstructure:"addr"`
	ReadTimeout  time.Duration `yaml:"read_timeout" mapstructure:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout" mapstructure:"write_timeout"`
	MaxBodyBytes int64         `yaml:"max_body_bytes" mapstructure:"max_body_bytes"`
}

// DefaultConfig returns the configuration with all defaults applied
func DefaultConfig() *Config {
	cacheDir := filepath.Join(os.TempDir(), "themecheck-cache")
	if home, err := os.UserHomeDir(); err == nil {
		cacheDir = filepath.Join(home, ".themecheck", "cache")
	}

	return &Config{
		Policy: DefaultPolicy(),
		Sources: SourcesConfig{
			ClassifyUntagged: false,
		},
		Similarity: SimilarityConfig{
			Enabled:           false,
			Provider:          "openai",
			Model:             "text-embedding-3-small",
			Timeout:           30 * time.Second,
			RequestsPerSecond: 5,
			BurstSize:         5,
			RetryMaxAttempts:  3,
			BreakerEnabled:    true,
		},
		Cache: CacheConfig{
			Enabled:        true,
			Dir:            cacheDir,
			MemoryTTL:      1 * time.Hour,
			MemoryMaxBytes: 64 << 20,
			DiskTTL:        7 * 24 * time.Hour,
		},
		Concurrency: ConcurrencyConfig{
			ThemeWorkers:       runtime.NumCPU(),
			DestinationWorkers: 2,
		},
		Output: OutputConfig{
			Verbose:       false,
			IncludeFooter: true,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
		Server: ServerConfig{
			Addr:         ":8080",
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 60 * time.Second,
			MaxBodyBytes: 8 << 20,
		},
	}
}
