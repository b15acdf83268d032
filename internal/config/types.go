package config

import "time"

// Config represents the complete phistack configuration
type Config struct {
	Cache   CacheConfig   `yaml:"cache"`
	Catalog CatalogConfig `yaml:"catalog"`
	Advisor AdvisorConfig `yaml:"advisor"`
	Logging LoggingConfig `yaml:"logging"`
	Chat    ChatConfig    `yaml:"chat"`
	Server  ServerConfig  `yaml:"server"`
}

// CacheConfig controls where artifacts live and how they are fetched
type CacheConfig struct {
	Dir          string        `yaml:"dir"`
	StateDir     string        `yaml:"state_dir"`
	FetchTimeout time.Duration `yaml:"fetch_timeout"`
	// MirrorDir is a local directory laid out like the cache; empty disables fetching.
	MirrorDir string `yaml:"mirror_dir"`
}

// CatalogConfig selects the variant table
type CatalogConfig struct {
	File         string `yaml:"file"`
	DefaultModel string `yaml:"default_model"`
}

// AdvisorConfig configures host probing
type AdvisorConfig struct {
	// DiskPath is the filesystem whose free space is checked; defaults to the cache dir.
	DiskPath string `yaml:"disk_path"`
}

// LoggingConfig represents logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	File   string `yaml:"file"`
}

// ChatConfig configures the chat shell and its inference endpoint
type ChatConfig struct {
	Endpoint      string  `yaml:"endpoint"`
	Model         string  `yaml:"model"`
	APIKeyEnv     string  `yaml:"api_key_env"`
	MaxTokens     int     `yaml:"max_tokens"`
	Temperature   float32 `yaml:"temperature"`
	HistoryLimit  int     `yaml:"history_limit"`
	SystemPrompt  string  `yaml:"system_prompt"`
	CodingMode    bool    `yaml:"coding_mode"`
	MathMode      bool    `yaml:"math_mode"`
	TranscriptDir string  `yaml:"transcript_dir"`
}

// ServerConfig configures the HTTP API
type ServerConfig struct {
	Listen      string   `yaml:"listen"`
	CORSOrigins []string `yaml:"cors_origins"`
}

// ValidationError represents a configuration validation error
type ValidationError struct {
	Path    string
	Message string
}

func (e ValidationError) Error() string {
	return e.Path + ": " + e.Message
}
