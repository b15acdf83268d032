package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"phistack/internal/configdir"
	"phistack/internal/fsutil"
)

const (
	systemConfigFile = "config.yaml"
	userConfigDir    = ".phistack"
	userConfigFile   = "config.yaml"
)

// Load loads and merges configuration from system and user files
// Priority: defaults < system config < user config < environment
func Load() (Config, error) {
	cfg := DefaultConfig()

	if err := mergeConfigFile(&cfg, SystemConfigPath()); err != nil && !os.IsNotExist(err) {
		return cfg, fmt.Errorf("failed to load system config: %w", err)
	}

	if userPath := UserConfigPath(); userPath != "" {
		if err := mergeConfigFile(&cfg, userPath); err != nil && !os.IsNotExist(err) {
			return cfg, fmt.Errorf("failed to load user config: %w", err)
		}
	}

	return finish(cfg)
}

// LoadFrom loads configuration from a specific file path on top of defaults
func LoadFrom(path string) (Config, error) {
	cfg := DefaultConfig()
	if err := mergeConfigFile(&cfg, path); err != nil {
		return cfg, fmt.Errorf("failed to load config from %s: %w", path, err)
	}

	return finish(cfg)
}

func finish(cfg Config) (Config, error) {
	applyEnv(&cfg)
	if err := expandPaths(&cfg); err != nil {
		return cfg, err
	}

	if validationErrors := cfg.Validate(); len(validationErrors) > 0 {
		return cfg, fmt.Errorf("config.validation.error: %v", formatValidationErrors(validationErrors))
	}

	return cfg, nil
}

// mergeConfigFile reads a YAML file and merges it into the existing config
func mergeConfigFile(cfg *Config, path string) error {
	data, err := os.ReadFile(filepath.Clean(path)) // #nosec G304 -- path is constructed from trusted sources
	if err != nil {
		return err
	}

	var overlay Config
	if err := yaml.Unmarshal(data, &overlay); err != nil {
		return fmt.Errorf("failed to parse YAML: %w", err)
	}

	mergeConfig(cfg, &overlay)
	return nil
}

// mergeConfig merges non-zero values from src into dst
func mergeConfig(dst, src *Config) {
	mergeString(&dst.Cache.Dir, src.Cache.Dir)
	mergeString(&dst.Cache.StateDir, src.Cache.StateDir)
	mergeString(&dst.Cache.MirrorDir, src.Cache.MirrorDir)
	if src.Cache.FetchTimeout != 0 {
		dst.Cache.FetchTimeout = src.Cache.FetchTimeout
	}

	mergeString(&dst.Catalog.File, src.Catalog.File)
	mergeString(&dst.Catalog.DefaultModel, src.Catalog.DefaultModel)

	mergeString(&dst.Advisor.DiskPath, src.Advisor.DiskPath)

	mergeString(&dst.Logging.Level, src.Logging.Level)
	mergeString(&dst.Logging.Format, src.Logging.Format)
	mergeString(&dst.Logging.File, src.Logging.File)

	mergeString(&dst.Chat.Endpoint, src.Chat.Endpoint)
	mergeString(&dst.Chat.Model, src.Chat.Model)
	mergeString(&dst.Chat.APIKeyEnv, src.Chat.APIKeyEnv)
	mergeString(&dst.Chat.SystemPrompt, src.Chat.SystemPrompt)
	mergeString(&dst.Chat.TranscriptDir, src.Chat.TranscriptDir)
	if src.Chat.MaxTokens != 0 {
		dst.Chat.MaxTokens = src.Chat.MaxTokens
	}
	if src.Chat.Temperature != 0 {
		dst.Chat.Temperature = src.Chat.Temperature
	}
	if src.Chat.HistoryLimit != 0 {
		dst.Chat.HistoryLimit = src.Chat.HistoryLimit
	}
	// Modes are opt-in; a later layer can enable but not disable them.
	dst.Chat.CodingMode = dst.Chat.CodingMode || src.Chat.CodingMode
	dst.Chat.MathMode = dst.Chat.MathMode || src.Chat.MathMode

	mergeString(&dst.Server.Listen, src.Server.Listen)
	if len(src.Server.CORSOrigins) > 0 {
		dst.Server.CORSOrigins = append([]string(nil), src.Server.CORSOrigins...)
	}
}

func mergeString(dst *string, src string) {
	if src != "" {
		*dst = src
	}
}

func applyEnv(cfg *Config) {
	cfg.Cache.Dir = fsutil.GetCacheDir(cfg.Cache.Dir)
	cfg.Cache.StateDir = fsutil.GetStateDir(cfg.Cache.StateDir)
}

func expandPaths(cfg *Config) error {
	for _, p := range []*string{
		&cfg.Cache.Dir,
		&cfg.Cache.StateDir,
		&cfg.Cache.MirrorDir,
		&cfg.Catalog.File,
		&cfg.Advisor.DiskPath,
		&cfg.Logging.File,
		&cfg.Chat.TranscriptDir,
	} {
		expanded, err := fsutil.ExpandHome(*p)
		if err != nil {
			return fmt.Errorf("failed to expand path %q: %w", *p, err)
		}
		*p = expanded
	}
	return nil
}

// formatValidationErrors formats validation errors for display
func formatValidationErrors(errors []ValidationError) string {
	if len(errors) == 0 {
		return ""
	}
	if len(errors) == 1 {
		return errors[0].Error()
	}
	result := fmt.Sprintf("%d validation errors:\n", len(errors))
	for _, err := range errors {
		result += "  - " + err.Error() + "\n"
	}
	return result
}

// SystemConfigPath returns the path to the system configuration file
func SystemConfigPath() string {
	return filepath.Join(configdir.ConfigDir(), systemConfigFile)
}

// UserConfigPath returns the path to the user configuration file
func UserConfigPath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(homeDir, userConfigDir, userConfigFile)
}

// DiskProbePath returns the path whose filesystem the advisor inspects.
func (c *Config) DiskProbePath() string {
	if c.Advisor.DiskPath != "" {
		return c.Advisor.DiskPath
	}
	return c.Cache.Dir
}

// Marshal renders the effective configuration as YAML
func (c *Config) Marshal() ([]byte, error) {
	return yaml.Marshal(c)
}
