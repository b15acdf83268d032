package diag

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"

	"golang.org/x/crypto/blake2b"

	"phistack/internal/logging"
)

// Collector turns Inputs into named bundle files
type Collector struct {
	redactor *Redactor
	logger   *logging.Logger
}

// NewCollector creates a collector
func NewCollector(logger *logging.Logger) *Collector {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Collector{redactor: NewRedactor(), logger: logger}
}

// Collect returns bundle paths mapped to contents. A missing log file is
// logged and skipped; other errors abort.
func (c *Collector) Collect(in Inputs) (map[string][]byte, error) {
	files := make(map[string][]byte)

	if in.Config != nil {
		files["config/effective.yaml"] = []byte(c.redactor.Redact(string(in.Config)))
	}

	for name, v := range map[string]interface{}{
		"system_profile.json": in.Profile,
		"cache_stats.json":    in.CacheStats,
	} {
		if v == nil {
			continue
		}
		data, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("failed to marshal %s: %w", name, err)
		}
		files[name] = data
	}

	if in.LogFile != "" {
		content, err := os.ReadFile(in.LogFile)
		switch {
		case os.IsNotExist(err):
			c.logger.Warn("diag.collect.log.missing", "Log file not found", map[string]interface{}{
				"path": in.LogFile,
			})
		case err != nil:
			return nil, fmt.Errorf("failed to read log file: %w", err)
		default:
			files["logs/phistack.log"] = []byte(c.redactor.Redact(string(content)))
		}
	}

	c.logger.Info("diag.collect.complete", "Diagnostics collected", map[string]interface{}{
		"file_count": len(files),
	})
	return files, nil
}

// Digest returns the hex BLAKE2b-256 of data.
func Digest(data []byte) string {
	sum := blake2b.Sum256(data)
	return hex.EncodeToString(sum[:])
}
