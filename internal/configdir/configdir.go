package configdir

import (
	"os"
	"path/filepath"
)

const (
	defaultConfigDir = "/etc/phistack"
	// Env names the variable that overrides the system configuration directory
	Env = "PHISTACK_CONFIG_DIR"
)

// ConfigDir resolves the configuration directory respecting overrides
func ConfigDir() string {
	if env := os.Getenv(Env); env != "" {
		if abs, err := filepath.Abs(env); err == nil {
			return abs
		}
	}
	return defaultConfigDir
}
