// Package config provides configuration loading, validation, and defaults.
package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"
)

// redactedMask replaces passwords in URLs shown outside the config file.
const redactedMask = "xxxxx"

// Config represents the complete Parley configuration
type Config struct {
	Version   int             `yaml:"version" json:"version" mapstructure:"version"`
	LLM       LLMConfig       `yaml:"llm" json:"llm" mapstructure:"llm"`
	Embedding EmbeddingConfig `yaml:"embedding" json:"embedding" mapstructure:"embedding"`
	Store     StoreConfig     `yaml:"store" json:"store" mapstructure:"store"`
	Search    SearchConfig    `yaml:"search" json:"search" mapstructure:"search"`
	Daemon    DaemonConfig    `yaml:"daemon" json:"daemon" mapstructure:"daemon"`
}

// LLMConfig contains chat-completion endpoint settings
type LLMConfig struct {
	BaseURL string        `yaml:"base_url" json:"base_url" mapstructure:"base_url"`
	Model   string        `yaml:"model" json:"model" mapstructure:"model"`
	Timeout time.Duration `yaml:"timeout" json:"timeout" mapstructure:"timeout"` // 0 = no timeout
}

// EmbeddingConfig contains embedding model settings
type EmbeddingConfig struct {
	Provider   string `yaml:"provider" json:"provider" mapstructure:"provider"`
	OllamaURL  string `yaml:"ollama_url" json:"ollama_url" mapstructure:"ollama_url"`
	Model      string `yaml:"model" json:"model" mapstructure:"model"`
	Dimensions int    `yaml:"dimensions" json:"dimensions,omitempty" mapstructure:"dimensions"` // 0 = from model registry
	MaxTokens  int    `yaml:"max_tokens" json:"max_tokens" mapstructure:"max_tokens"`
	Overflow   string `yaml:"overflow" json:"overflow" mapstructure:"overflow"`
	CacheSize  int    `yaml:"cache_size" json:"cache_size" mapstructure:"cache_size"`
	RedisURL   string `yaml:"redis_url" json:"redis_url,omitempty" mapstructure:"redis_url"`
}

// StoreConfig contains vector store settings
type StoreConfig struct {
	DSN        string `yaml:"dsn" json:"dsn" mapstructure:"dsn"`
	Collection string `yaml:"collection" json:"collection" mapstructure:"collection"`
}

// SearchConfig contains search default settings
type SearchConfig struct {
	Limit int `yaml:"limit" json:"limit" mapstructure:"limit"`
}

// DaemonConfig contains daemon server settings
type DaemonConfig struct {
	Host           string        `yaml:"host" json:"host" mapstructure:"host"`
	Port           int           `yaml:"port" json:"port" mapstructure:"port"`
	LogLevel       string        `yaml:"log_level" json:"log_level" mapstructure:"log_level"`
	RequestTimeout time.Duration `yaml:"request_timeout" json:"request_timeout" mapstructure:"request_timeout"`
}

// Address returns the full host:port address for the daemon.
// If Port is 0, returns host:0 (system-assigned port).
func (d DaemonConfig) Address() string {
	return fmt.Sprintf("%s:%d", d.Host, d.Port)
}

// BaseURL returns the http URL clients use to reach the daemon.
func (d DaemonConfig) BaseURL() string {
	host := d.Host
	if host == "" || host == "0.0.0.0" {
		host = "127.0.0.1"
	}
	return fmt.Sprintf("http://%s:%d", host, d.Port)
}

// IsPersistent reports whether the configured store outlives the process.
func (s StoreConfig) IsPersistent() bool {
	return s.DSN != "" && s.DSN != MemoryDSN
}

// Redacted returns a copy of the config with passwords masked in every URL
// and DSN, for display over the API.
func (c *Config) Redacted() *Config {
	out := *c
	out.LLM.BaseURL = redactURL(c.LLM.BaseURL)
	out.Embedding.OllamaURL = redactURL(c.Embedding.OllamaURL)
	out.Embedding.RedisURL = redactURL(c.Embedding.RedisURL)
	out.Store.DSN = redactURL(c.Store.DSN)
	return &out
}

// redactURL masks the userinfo password and a password query parameter.
// Plain file paths are returned unchanged.
func redactURL(raw string) string {
	if !strings.Contains(raw, "://") {
		return raw
	}
	u, err := url.Parse(raw)
	if err != nil {
		return redactedMask
	}
	q := u.Query()
	if q.Has("password") {
		q.Set("password", redactedMask)
		u.RawQuery = q.Encode()
	}
	return u.Redacted()
}
