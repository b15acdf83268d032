package config

import (
	"fmt"
	"strings"
	"time"
)

const minFetchTimeout = time.Second

// Validate checks if the configuration is valid
func (c *Config) Validate() []ValidationError {
	var errors []ValidationError

	errors = append(errors, c.validateCache()...)
	errors = append(errors, c.validateCatalog()...)
	errors = append(errors, c.validateLogging()...)
	errors = append(errors, c.validateChat()...)
	errors = append(errors, c.validateServer()...)

	return errors
}

func (c *Config) validateCache() []ValidationError {
	var errors []ValidationError

	if strings.TrimSpace(c.Cache.Dir) == "" {
		errors = append(errors, ValidationError{Path: "cache.dir", Message: "must not be empty"})
	}
	if strings.TrimSpace(c.Cache.StateDir) == "" {
		errors = append(errors, ValidationError{Path: "cache.state_dir", Message: "must not be empty"})
	}
	if c.Cache.FetchTimeout < minFetchTimeout {
		errors = append(errors, ValidationError{
			Path:    "cache.fetch_timeout",
			Message: fmt.Sprintf("must be at least %s, got %s", minFetchTimeout, c.Cache.FetchTimeout),
		})
	}

	return errors
}

func (c *Config) validateCatalog() []ValidationError {
	if strings.TrimSpace(c.Catalog.DefaultModel) != "" {
		return nil
	}

	return []ValidationError{{Path: "catalog.default_model", Message: "must not be empty"}}
}

func (c *Config) validateLogging() []ValidationError {
	var errors []ValidationError
	validLevels := []string{"debug", "info", "warn", "error"}
	if !contains(validLevels, c.Logging.Level) {
		errors = append(errors, ValidationError{
			Path:    "logging.level",
			Message: fmt.Sprintf("must be one of %v, got '%s'", validLevels, c.Logging.Level),
		})
	}

	validFormats := []string{"json", "text"}
	if !contains(validFormats, c.Logging.Format) {
		errors = append(errors, ValidationError{
			Path:    "logging.format",
			Message: fmt.Sprintf("must be one of %v, got '%s'", validFormats, c.Logging.Format),
		})
	}

	return errors
}

func (c *Config) validateChat() []ValidationError {
	var errors []ValidationError

	if c.Chat.MaxTokens <= 0 {
		errors = append(errors, ValidationError{
			Path:    "chat.max_tokens",
			Message: fmt.Sprintf("must be positive, got %d", c.Chat.MaxTokens),
		})
	}
	if c.Chat.Temperature < 0 || c.Chat.Temperature > 2 {
		errors = append(errors, ValidationError{
			Path:    "chat.temperature",
			Message: fmt.Sprintf("must be between 0 and 2, got %.2f", c.Chat.Temperature),
		})
	}
	if c.Chat.HistoryLimit < 1 {
		errors = append(errors, ValidationError{
			Path:    "chat.history_limit",
			Message: fmt.Sprintf("must be at least 1, got %d", c.Chat.HistoryLimit),
		})
	}
	if c.Chat.Endpoint != "" && !strings.HasPrefix(c.Chat.Endpoint, "http://") && !strings.HasPrefix(c.Chat.Endpoint, "https://") {
		errors = append(errors, ValidationError{
			Path:    "chat.endpoint",
			Message: fmt.Sprintf("must be an http(s) URL, got '%s'", c.Chat.Endpoint),
		})
	}

	return errors
}

func (c *Config) validateServer() []ValidationError {
	if strings.Contains(c.Server.Listen, ":") {
		return nil
	}

	return []ValidationError{{
		Path:    "server.listen",
		Message: fmt.Sprintf("must be host:port, got '%s'", c.Server.Listen),
	}}
}

// contains checks if a string is in a slice
func contains(slice []string, item string) bool {
	for _, s := range slice {
		if s == item {
			return true
		}
	}
	return false
}
