package model

import (
	"os"
	"path/filepath"
	"runtime"
	"time"
)

// Config is the complete intake configuration
type Config struct {
	Engine       EngineConfig       `yaml:"engine" mapstructure:"engine"`
	LLM          LLMConfig          `yaml:"llm" mapstructure:"llm"`
	HTTP         HTTPConfig         `yaml:"http" mapstructure:"http"`
	Cache        CacheConfig        `yaml:"cache" mapstructure:"cache"`
	Concurrency  ConcurrencyConfig  `yaml:"concurrency" mapstructure:"concurrency"`
	RateLimiting RateLimitingConfig `yaml:"rate_limiting" mapstructure:"rate_limiting"`
	Store        StoreConfig        `yaml:"store" mapstructure:"store"`
	Log          LogConfig          `yaml:"log" mapstructure:"log"`
	Output       OutputConfig       `yaml:"output" mapstructure:"output"`
}

// EngineConfig selects the lexicon used by the classification engine
type EngineConfig struct {
	Language    string `yaml:"language" mapstructure:"language"`         // ru (built-in)
	LexiconPath string `yaml:"lexicon_path" mapstructure:"lexicon_path"` // optional YAML override
}

// LLMConfig configures the optional generative draft provider
type LLMConfig struct {
	Provider    string  `yaml:"provider" mapstructure:"provider"` // openai, deepseek, ollama, mock, "" (disabled)
	Model       string  `yaml:"model" mapstructure:"model"`
	APIKey      string  `yaml:"api_key,omitempty" mapstructure:"api_key"`
	BaseURL     string  `yaml:"base_url,omitempty" mapstructure:"base_url"`
	Timeout     int     `yaml:"timeout" mapstructure:"timeout"` // seconds
	MaxTokens   int     `yaml:"max_tokens" mapstructure:"max_tokens"`
	Temperature float32 `yaml:"temperature" mapstructure:"temperature"`
	Language    string  `yaml:"language" mapstructure:"language"` // prompt language: ru, kk, en
}

// HTTPConfig holds outbound HTTP settings for the LLM client
type HTTPConfig struct {
	HTTPProxy  string `yaml:"http_proxy,omitempty" mapstructure:"http_proxy"`
	HTTPSProxy string `yaml:"https_proxy,omitempty" mapstructure:"https_proxy"`
	NoProxy    string `yaml:"no_proxy,omitempty" mapstructure:"no_proxy"`
}

// CacheConfig configures the LLM draft cache
type CacheConfig struct {
	Enabled   bool          `yaml:"enabled" mapstructure:"enabled"`
	Dir       string        `yaml:"dir" mapstructure:"dir"`
	MemoryTTL time.Duration `yaml:"memory_ttl" mapstructure:"memory_ttl"`
	DiskTTL   time.Duration `yaml:"disk_ttl" mapstructure:"disk_ttl"`
}

// ConcurrencyConfig sizes the batch worker pool
type ConcurrencyConfig struct {
	Workers int `yaml:"workers" mapstructure:"workers"`
}

// RateLimitingConfig throttles calls to the LLM provider
type RateLimitingConfig struct {
	RequestsPerSecond float64 `yaml:"requests_per_second" mapstructure:"requests_per_second"`
	BurstSize         int     `yaml:"burst_size" mapstructure:"burst_size"`
}

// StoreConfig configures the append-only record store
type StoreConfig struct {
	Enabled bool   `yaml:"enabled" mapstructure:"enabled"`
	Path    string `yaml:"path" mapstructure:"path"`
}

// LogConfig configures structured logging
type LogConfig struct {
	Level string `yaml:"level" mapstructure:"level"` // debug, info, warn, error
}

// OutputConfig controls rendering
type OutputConfig struct {
	Verbose       bool   `yaml:"verbose" mapstructure:"verbose"`
	IncludeFooter bool   `yaml:"include_footer" mapstructure:"include_footer"`
	MetricsFile   string `yaml:"metrics_file,omitempty" mapstructure:"metrics_file"`
}

// DefaultConfig returns the built-in defaults
func DefaultConfig() *Config {
	home, err := os.UserHomeDir()
	if err != nil {
		home = os.TempDir()
	}
	base := filepath.Join(home, ".intake")

	return &Config{
		Engine: EngineConfig{
			Language: "ru",
		},
		LLM: LLMConfig{
			Provider:    "", // Disabled by default
			Model:       "gpt-4o-mini",
			Timeout:     30,
			MaxTokens:   800,
			Temperature: 0.1,
			Language:    "ru",
		},
		Cache: CacheConfig{
			Enabled:   true,
			Dir:       filepath.Join(base, "cache"),
			MemoryTTL: 30 * time.Minute,
			DiskTTL:   7 * 24 * time.Hour,
		},
		Concurrency: ConcurrencyConfig{
			Workers: runtime.NumCPU(),
		},
		RateLimiting: RateLimitingConfig{
			RequestsPerSecond: 2,
			BurstSize:         4,
		},
		Store: StoreConfig{
			Enabled: false,
			Path:    filepath.Join(base, "records.db"),
		},
		Log: LogConfig{
			Level: "warn",
		},
		Output: OutputConfig{
			IncludeFooter: true,
		},
	}
}
