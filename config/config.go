// Package config loads the backend configuration from a YAML file with
// ${VAR} environment expansion for secrets. Every section carries defaults so
// a minimal (or absent) file still yields a runnable configuration; only the
// credentials genuinely have to come from the environment.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration structure mirroring config.yaml.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Assistant AssistantConfig `yaml:"assistant"`
	Upstreams UpstreamsConfig `yaml:"upstreams"`
	Availity  AvailityConfig  `yaml:"availity"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// ServerConfig configures the HTTP transport.
type ServerConfig struct {
	Addr           string   `yaml:"addr"`
	AllowedOrigins []string `yaml:"allowed_origins"`
	ReadTimeout    string   `yaml:"read_timeout"`
	WriteTimeout   string   `yaml:"write_timeout"`
	RequestTimeout string   `yaml:"request_timeout"`
	MaxBodyBytes   int64    `yaml:"max_body_bytes"`
}

// AssistantConfig selects and tunes the chat model backend.
type AssistantConfig struct {
	Provider       string  `yaml:"provider"` // "openai" or "anthropic"
	Model          string  `yaml:"model"`
	APIKey         string  `yaml:"api_key"` // supports ${VAR}
	Temperature    float64 `yaml:"temperature"`
	MaxTokens      int64   `yaml:"max_tokens"`
	SystemPrompt   string  `yaml:"system_prompt"`
	ResultFeedback bool    `yaml:"result_feedback"`
}

// UpstreamConfig configures one read-only upstream adapter.
type UpstreamConfig struct {
	BaseURL   string  `yaml:"base_url"`
	Timeout   string  `yaml:"timeout"`
	Limit     int     `yaml:"limit"`
	RateLimit float64 `yaml:"rate_limit"` // requests per second, 0 disables
	Burst     int     `yaml:"burst"`
}

// UpstreamsConfig groups the four data-retrieval upstreams.
type UpstreamsConfig struct {
	NPI          UpstreamConfig `yaml:"npi"`
	Healthfinder UpstreamConfig `yaml:"healthfinder"`
	OpenFDA      UpstreamConfig `yaml:"openfda"`
	Trials       UpstreamConfig `yaml:"trials"`
}

// AvailityConfig configures the coverage upstream and its token exchange.
type AvailityConfig struct {
	BaseURL       string `yaml:"base_url"`
	TokenURL      string `yaml:"token_url"`
	Scope         string `yaml:"scope"`
	ClientID      string `yaml:"client_id"`     // supports ${VAR}
	ClientSecret  string `yaml:"client_secret"` // supports ${VAR}
	Timeout       string `yaml:"timeout"`
	CacheToken    bool   `yaml:"cache_token"`
	RefreshMargin string `yaml:"refresh_margin"`
}

// LoggingConfig configures the process logger.
type LoggingConfig struct {
	Level     string `yaml:"level"`  // debug, info, warn, error
	Format    string `yaml:"format"` // json or text
	AddSource bool   `yaml:"add_source"`
}

// Load reads and expands the file at path. A missing file yields pure
// defaults so local development works with nothing but environment variables.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg.withDefaults(), nil
		}
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	// Expand ${VAR} references before parsing so secrets never live in the file.
	if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(data))), cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg.withDefaults(), nil
}

// withDefaults fills every unset field.
func (c *Config) withDefaults() *Config {
	if c.Server.Addr == "" {
		c.Server.Addr = ":5000"
	}
	if c.Server.ReadTimeout == "" {
		c.Server.ReadTimeout = "15s"
	}
	if c.Server.WriteTimeout == "" {
		c.Server.WriteTimeout = "60s"
	}
	if c.Server.RequestTimeout == "" {
		c.Server.RequestTimeout = "45s"
	}
	if c.Server.MaxBodyBytes == 0 {
		c.Server.MaxBodyBytes = 1 << 20
	}

	if c.Assistant.Provider == "" {
		c.Assistant.Provider = "openai"
	}
	if c.Assistant.APIKey == "" {
		switch c.Assistant.Provider {
		case "anthropic":
			c.Assistant.APIKey = os.Getenv("ANTHROPIC_API_KEY")
		default:
			c.Assistant.APIKey = os.Getenv("OPENAI_API_KEY")
		}
	}
	if c.Assistant.Temperature == 0 {
		c.Assistant.Temperature = 0.5
	}
	if c.Assistant.MaxTokens == 0 {
		c.Assistant.MaxTokens = 1024
	}

	c.Upstreams.NPI = c.Upstreams.NPI.withDefaults(10)
	c.Upstreams.Healthfinder = c.Upstreams.Healthfinder.withDefaults(1)
	c.Upstreams.OpenFDA = c.Upstreams.OpenFDA.withDefaults(3)
	c.Upstreams.Trials = c.Upstreams.Trials.withDefaults(5)

	if c.Availity.ClientID == "" {
		c.Availity.ClientID = os.Getenv("AV_CLIENT_ID")
	}
	if c.Availity.ClientSecret == "" {
		c.Availity.ClientSecret = os.Getenv("AV_CLIENT_SECRET")
	}
	if c.Availity.Timeout == "" {
		c.Availity.Timeout = "20s"
	}
	if c.Availity.RefreshMargin == "" {
		c.Availity.RefreshMargin = "60s"
	}

	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "json"
	}
	return c
}

func (u UpstreamConfig) withDefaults(limit int) UpstreamConfig {
	if u.Timeout == "" {
		u.Timeout = "15s"
	}
	if u.Limit == 0 {
		u.Limit = limit
	}
	if u.Burst == 0 {
		u.Burst = 1
	}
	return u
}

// Validate rejects configurations that cannot produce a working backend.
func (c *Config) Validate() error {
	switch c.Assistant.Provider {
	case "openai", "anthropic":
	default:
		return fmt.Errorf("assistant.provider: unsupported provider %q", c.Assistant.Provider)
	}
	if c.Assistant.APIKey == "" {
		return fmt.Errorf("assistant.api_key: missing (set OPENAI_API_KEY / ANTHROPIC_API_KEY or configure api_key)")
	}
	for name, raw := range map[string]string{
		"server.read_timeout":     c.Server.ReadTimeout,
		"server.write_timeout":    c.Server.WriteTimeout,
		"server.request_timeout":  c.Server.RequestTimeout,
		"upstreams.npi.timeout":   c.Upstreams.NPI.Timeout,
		"availity.timeout":        c.Availity.Timeout,
		"availity.refresh_margin": c.Availity.RefreshMargin,
	} {
		if _, err := time.ParseDuration(raw); err != nil {
			return fmt.Errorf("%s: invalid duration %q", name, raw)
		}
	}
	return nil
}

// Duration parses a config duration string, falling back when unset or invalid.
func Duration(raw string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}
