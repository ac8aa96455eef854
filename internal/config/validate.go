package config

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

// ValidationError represents a configuration validation error
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationErrors is a collection of validation errors
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return ""
	}

	var sb strings.Builder
	sb.WriteString("configuration validation failed:\n")
	for _, err := range e {
		sb.WriteString("  - ")
		sb.WriteString(err.Error())
		sb.WriteString("\n")
	}
	return sb.String()
}

// HasErrors returns true if there are any validation errors
func (e ValidationErrors) HasErrors() bool {
	return len(e) > 0
}

// validLogLevels defines the allowed log level values
var validLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

// validProviders defines the allowed embedding providers
var validProviders = map[string]bool{
	"ollama": true,
	"mock":   true,
}

// validOverflow defines the allowed over-length input policies
var validOverflow = map[string]bool{
	"truncate": true,
	"chunk":    true,
	"reject":   true,
}

// collectionNamePattern matches names usable as a table suffix
var collectionNamePattern = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_]{0,62}$`)

// Validate checks the configuration for errors and returns all validation errors found
func Validate(cfg *Config) ValidationErrors {
	var errors ValidationErrors

	if cfg.Version < 1 {
		errors = append(errors, ValidationError{
			Field:   "version",
			Message: "must be at least 1",
		})
	}

	// LLM validation
	if err := validateHTTPURL(cfg.LLM.BaseURL); err != nil {
		errors = append(errors, ValidationError{
			Field:   "llm.base_url",
			Message: err.Error(),
		})
	}
	if cfg.LLM.Model == "" {
		errors = append(errors, ValidationError{
			Field:   "llm.model",
			Message: "must not be empty",
		})
	}
	if cfg.LLM.Timeout < 0 {
		errors = append(errors, ValidationError{
			Field:   "llm.timeout",
			Message: "must be non-negative",
		})
	}

	// Embedding validation
	if !validProviders[cfg.Embedding.Provider] {
		errors = append(errors, ValidationError{
			Field:   "embedding.provider",
			Message: fmt.Sprintf("invalid provider '%s'; valid values are: ollama, mock", cfg.Embedding.Provider),
		})
	}
	if cfg.Embedding.Provider == "ollama" {
		if err := validateHTTPURL(cfg.Embedding.OllamaURL); err != nil {
			errors = append(errors, ValidationError{
				Field:   "embedding.ollama_url",
				Message: err.Error(),
			})
		}
	}
	if cfg.Embedding.Model == "" {
		errors = append(errors, ValidationError{
			Field:   "embedding.model",
			Message: "must not be empty",
		})
	}
	if cfg.Embedding.Dimensions < 0 {
		errors = append(errors, ValidationError{
			Field:   "embedding.dimensions",
			Message: "must be non-negative",
		})
	}
	if cfg.Embedding.MaxTokens < 1 {
		errors = append(errors, ValidationError{
			Field:   "embedding.max_tokens",
			Message: "must be at least 1",
		})
	}
	if !validOverflow[cfg.Embedding.Overflow] {
		errors = append(errors, ValidationError{
			Field:   "embedding.overflow",
			Message: fmt.Sprintf("invalid overflow policy '%s'; valid values are: truncate, chunk, reject", cfg.Embedding.Overflow),
		})
	}
	if cfg.Embedding.CacheSize < 0 {
		errors = append(errors, ValidationError{
			Field:   "embedding.cache_size",
			Message: "must be non-negative",
		})
	}
	if cfg.Embedding.RedisURL != "" && !strings.HasPrefix(cfg.Embedding.RedisURL, "redis://") && !strings.HasPrefix(cfg.Embedding.RedisURL, "rediss://") {
		errors = append(errors, ValidationError{
			Field:   "embedding.redis_url",
			Message: "must start with redis:// or rediss://",
		})
	}

	// Store validation
	if cfg.Store.DSN == "" {
		errors = append(errors, ValidationError{
			Field:   "store.dsn",
			Message: "must not be empty; use :memory: for an in-process store",
		})
	}
	if !collectionNamePattern.MatchString(cfg.Store.Collection) {
		errors = append(errors, ValidationError{
			Field:   "store.collection",
			Message: "must start with a letter and contain only letters, digits and underscores",
		})
	}

	// Search validation
	if cfg.Search.Limit < 1 {
		errors = append(errors, ValidationError{
			Field:   "search.limit",
			Message: "must be at least 1",
		})
	}

	// Daemon validation
	if cfg.Daemon.Host == "" {
		errors = append(errors, ValidationError{
			Field:   "daemon.host",
			Message: "must not be empty",
		})
	}
	if cfg.Daemon.Port < 0 || cfg.Daemon.Port > 65535 {
		errors = append(errors, ValidationError{
			Field:   "daemon.port",
			Message: "must be between 0 and 65535",
		})
	}
	if !validLogLevels[cfg.Daemon.LogLevel] {
		errors = append(errors, ValidationError{
			Field:   "daemon.log_level",
			Message: fmt.Sprintf("invalid log level '%s'; valid values are: debug, info, warn, error", cfg.Daemon.LogLevel),
		})
	}
	if cfg.Daemon.RequestTimeout < 0 {
		errors = append(errors, ValidationError{
			Field:   "daemon.request_timeout",
			Message: "must be non-negative",
		})
	}

	return errors
}

// ValidateOrError is a convenience function that returns an error if validation fails
func ValidateOrError(cfg *Config) error {
	errors := Validate(cfg)
	if errors.HasErrors() {
		return errors
	}
	return nil
}

func validateHTTPURL(raw string) error {
	if raw == "" {
		return fmt.Errorf("must not be empty")
	}
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid URL: %v", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("must use http or https scheme")
	}
	if u.Host == "" {
		return fmt.Errorf("must include a host")
	}
	return nil
}
