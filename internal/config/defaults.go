package config

import (
	"time"

	"phistack/internal/fsutil"
)

const (
	defaultFetchTimeout = 30 * time.Minute
	defaultModel        = "phi3"
	defaultAPIKeyEnv    = "PHISTACK_CHAT_API_KEY"
	defaultListen       = "127.0.0.1:8088"
)

// DefaultConfig returns a configuration with sensible defaults
func DefaultConfig() Config {
	return Config{
		Cache: CacheConfig{
			Dir:          fsutil.DefaultCacheDir(),
			StateDir:     fsutil.DefaultStateDir(),
			FetchTimeout: defaultFetchTimeout,
		},
		Catalog: CatalogConfig{
			DefaultModel: defaultModel,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Chat: ChatConfig{
			APIKeyEnv:    defaultAPIKeyEnv,
			MaxTokens:    512,
			Temperature:  0.7,
			HistoryLimit: 10,
		},
		Server: ServerConfig{
			Listen: defaultListen,
		},
	}
}
