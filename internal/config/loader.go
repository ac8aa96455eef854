package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	// ConfigFileName is the name of the config file without extension
	ConfigFileName = "config"
	// ConfigFileExt is the config file extension
	ConfigFileExt = "yaml"
	// ParleyDir is the name of the Parley state directory
	ParleyDir = ".parley"
	// EnvPrefix prefixes environment variable overrides (PARLEY_LLM_MODEL, ...)
	EnvPrefix = "PARLEY"
	// EnvFile is the dotenv file read from the root directory before loading
	EnvFile = ".env"
)

// Loader handles configuration loading and saving
type Loader struct {
	root string
	v    *viper.Viper
}

// NewLoader creates a new config loader for the given root directory
func NewLoader(root string) *Loader {
	return &Loader{
		root: root,
		v:    viper.New(),
	}
}

// ConfigPath returns the full path to the config file
func (l *Loader) ConfigPath() string {
	return filepath.Join(l.root, ParleyDir, ConfigFileName+"."+ConfigFileExt)
}

// ParleyDirPath returns the full path to the .parley directory
func (l *Loader) ParleyDirPath() string {
	return filepath.Join(l.root, ParleyDir)
}

// Exists returns true if a config file exists at the expected location
func (l *Loader) Exists() bool {
	_, err := os.Stat(l.ConfigPath())
	return err == nil
}

// Load reads the configuration from disk, layered over the defaults and
// overridden by PARLEY_* environment variables.
// If the config file doesn't exist, it returns an error
func (l *Loader) Load() (*Config, error) {
	if !l.Exists() {
		return nil, fmt.Errorf("config file not found at %s", l.ConfigPath())
	}
	return l.load(true)
}

// LoadOrDefault loads the configuration from disk, or the defaults (still
// subject to environment overrides) if no config file exists
func (l *Loader) LoadOrDefault() (*Config, error) {
	return l.load(l.Exists())
}

func (l *Loader) load(readFile bool) (*Config, error) {
	if err := l.loadEnvFile(); err != nil {
		return nil, err
	}

	// Create a fresh viper instance for each load to avoid stale state
	l.v = viper.New()
	setDefaults(l.v, Default())
	l.v.SetEnvPrefix(EnvPrefix)
	l.v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	l.v.AutomaticEnv()

	if readFile {
		l.v.SetConfigFile(l.ConfigPath())
		l.v.SetConfigType(ConfigFileExt)
		if err := l.v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	cfg := &Config{}
	if err := l.v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return cfg, nil
}

// loadEnvFile populates the process environment from <root>/.env.
// Variables already set in the environment win.
func (l *Loader) loadEnvFile() error {
	err := godotenv.Load(filepath.Join(l.root, EnvFile))
	if err == nil || errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return fmt.Errorf("failed to load %s: %w", EnvFile, err)
}

// Save writes the configuration to disk
// It creates the .parley directory if it doesn't exist
func (l *Loader) Save(cfg *Config) error {
	if err := os.MkdirAll(l.ParleyDirPath(), 0755); err != nil {
		return fmt.Errorf("failed to create .parley directory: %w", err)
	}

	l.v = viper.New()
	l.v.Set("version", cfg.Version)
	l.v.Set("llm", cfg.LLM)
	l.v.Set("embedding", cfg.Embedding)
	l.v.Set("store", cfg.Store)
	l.v.Set("search", cfg.Search)
	l.v.Set("daemon", cfg.Daemon)

	if err := l.v.WriteConfigAs(l.ConfigPath()); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Init initializes a new Parley configuration in the root directory
// It creates the .parley directory and writes a default config file
func (l *Loader) Init() (*Config, error) {
	if l.Exists() {
		return nil, fmt.Errorf("config already exists at %s", l.ConfigPath())
	}

	cfg := Default()
	if err := l.Save(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// setDefaults registers every key with viper so AutomaticEnv can resolve
// overrides for keys that are absent from the config file.
func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("version", d.Version)

	v.SetDefault("llm.base_url", d.LLM.BaseURL)
	v.SetDefault("llm.model", d.LLM.Model)
	v.SetDefault("llm.timeout", d.LLM.Timeout)

	v.SetDefault("embedding.provider", d.Embedding.Provider)
	v.SetDefault("embedding.ollama_url", d.Embedding.OllamaURL)
	v.SetDefault("embedding.model", d.Embedding.Model)
	v.SetDefault("embedding.dimensions", d.Embedding.Dimensions)
	v.SetDefault("embedding.max_tokens", d.Embedding.MaxTokens)
	v.SetDefault("embedding.overflow", d.Embedding.Overflow)
	v.SetDefault("embedding.cache_size", d.Embedding.CacheSize)
	v.SetDefault("embedding.redis_url", d.Embedding.RedisURL)

	v.SetDefault("store.dsn", d.Store.DSN)
	v.SetDefault("store.collection", d.Store.Collection)

	v.SetDefault("search.limit", d.Search.Limit)

	v.SetDefault("daemon.host", d.Daemon.Host)
	v.SetDefault("daemon.port", d.Daemon.Port)
	v.SetDefault("daemon.log_level", d.Daemon.LogLevel)
	v.SetDefault("daemon.request_timeout", d.Daemon.RequestTimeout)
}
