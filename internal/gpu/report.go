package gpu

import (
	"encoding/json"
	"fmt"

	"phistack/internal/fsutil"
	"phistack/internal/logging"
)

// SaveReport writes report as indented JSON to path atomically.
func SaveReport(report GPUReport, path string, logger *logging.Logger) error {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal report: %w", err)
	}

	if err := fsutil.AtomicWriteFile(path, data, fsutil.DefaultFilePermissions, logger); err != nil {
		return fmt.Errorf("failed to write report file: %w", err)
	}

	logger.Info("gpu.report.saved", "GPU report saved", map[string]interface{}{
		"path": path,
	})
	return nil
}
