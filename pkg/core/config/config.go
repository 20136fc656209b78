// Package config loads application settings from config/app.yaml, a .env
// file and the process environment, in increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v2"

	"report_analysis/pkg/core/agent"
)

// DefaultPath is read when no explicit path is given. It may be absent.
const DefaultPath = "config/app.yaml"

type Config struct {
	Server    ServerConfig    `yaml:"server"`
	DataDir   string          `yaml:"data_dir"`
	CacheDir  string          `yaml:"cache_dir"`
	PromptDir string          `yaml:"prompt_dir"` // optional overrides of the embedded prompts
	Database  DatabaseConfig  `yaml:"database"`
	Log       LogConfig       `yaml:"log"`
	UseLLM    bool            `yaml:"use_llm"`
	LLM       agent.Config    `yaml:"llm"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
}

type ServerConfig struct {
	Addr string `yaml:"addr"`
}

type DatabaseConfig struct {
	URL string `yaml:"url"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // json or console
}

// RateLimitConfig bounds outbound LLM calls.
type RateLimitConfig struct {
	RequestsPerMinute float64 `yaml:"requests_per_minute"`
	Burst             int     `yaml:"burst"`
}

// PerSecond converts the configured limit for rate.Limit.
func (r RateLimitConfig) PerSecond() float64 {
	return r.RequestsPerMinute / 60
}

func Default() Config {
	return Config{
		Server:   ServerConfig{Addr: ":8000"},
		DataDir:  "data",
		CacheDir: ".cache/analysis",
		Log:      LogConfig{Level: "info", Format: "json"},
		LLM:      agent.Config{ActiveProvider: "deepseek"},
		RateLimit: RateLimitConfig{
			RequestsPerMinute: 30,
			Burst:             2,
		},
	}
}

// Load builds the configuration. An empty path means DefaultPath, which is
// allowed to be missing; an explicit path must exist.
func Load(path string) (*Config, error) {
	loadEnvFile()

	cfg := Default()
	optional := path == ""
	if optional {
		path = DefaultPath
	}

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("CONFIG_PARSE_ERROR: %s: %w", path, err)
		}
	case optional && errors.Is(err, fs.ErrNotExist):
	default:
		return nil, fmt.Errorf("CONFIG_READ_ERROR: %w", err)
	}

	cfg.applyEnv()
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &cfg, nil
}

func (c *Config) applyEnv() {
	c.Server.Addr = getEnv("API_ADDR", c.Server.Addr)
	c.DataDir = getEnv("DATA_DIR", c.DataDir)
	c.CacheDir = getEnv("CACHE_DIR", c.CacheDir)
	c.PromptDir = getEnv("PROMPT_DIR", c.PromptDir)
	c.Database.URL = getEnv("DATABASE_URL", c.Database.URL)
	c.Log.Level = getEnv("LOG_LEVEL", c.Log.Level)
	c.Log.Format = getEnv("LOG_FORMAT", c.Log.Format)
	c.UseLLM = getEnvAsBool("USE_LLM", c.UseLLM)
	c.LLM.ActiveProvider = getEnv("LLM_PROVIDER", c.LLM.ActiveProvider)
}

func (c *Config) validate() error {
	if c.DataDir == "" {
		return fmt.Errorf("data_dir is required")
	}
	if c.Log.Format != "json" && c.Log.Format != "console" && c.Log.Format != "pretty" {
		return fmt.Errorf("log.format must be one of: json, console, pretty")
	}
	if c.UseLLM && c.LLM.ActiveProvider == "" {
		return fmt.Errorf("llm.active_provider is required when use_llm is set")
	}
	if c.RateLimit.RequestsPerMinute < 0 || c.RateLimit.Burst < 0 {
		return fmt.Errorf("rate_limit values must not be negative")
	}
	return nil
}

// loadEnvFile loads the first .env found; existing variables win.
func loadEnvFile() {
	for _, path := range []string{".env", "../.env", "../../.env"} {
		if _, err := os.Stat(path); err == nil {
			_ = godotenv.Load(path)
			return
		}
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}
