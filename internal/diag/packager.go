package diag

import (
	"archive/zip"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"time"

	"phistack/internal/logging"
)

// ManifestName is the manifest's path inside the bundle
const ManifestName = "diag_manifest.json"

// Packager writes support bundles
type Packager struct {
	collector *Collector
	logger    *logging.Logger
}

// NewPackager creates a packager
func NewPackager(logger *logging.Logger) *Packager {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Packager{collector: NewCollector(logger), logger: logger}
}

// CreatePackage collects in and writes a ZIP to outputPath.
func (p *Packager) CreatePackage(in Inputs, outputPath string) error {
	files, err := p.collector.Collect(in)
	if err != nil {
		return err
	}

	manifest := buildManifest(in.Version, files)
	manifestJSON, err := json.MarshalIndent(manifest, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal manifest: %w", err)
	}
	files[ManifestName] = manifestJSON

	if err := writeZIP(outputPath, files); err != nil {
		return err
	}

	p.logger.Info("diag.package.complete", "Diagnostic package created", map[string]interface{}{
		"output":     outputPath,
		"file_count": len(files),
	})
	return nil
}

func buildManifest(version string, files map[string][]byte) *Manifest {
	host, err := os.Hostname()
	if err != nil {
		host = "unknown"
	}

	m := &Manifest{
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Host:      host,
		Version:   version,
		Files:     make([]ManifestFile, 0, len(files)),
	}
	for _, path := range sortedKeys(files) {
		content := files[path]
		m.Files = append(m.Files, ManifestFile{
			Path:      path,
			SizeBytes: int64(len(content)),
			Digest:    Digest(content),
		})
	}
	return m
}

func writeZIP(outputPath string, files map[string][]byte) (err error) {
	f, err := os.Create(outputPath) // #nosec G304 -- path chosen by the operator
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("failed to close output file: %w", cerr)
		}
	}()

	zw := zip.NewWriter(f)
	for _, path := range sortedKeys(files) {
		w, werr := zw.Create(path)
		if werr != nil {
			return fmt.Errorf("failed to add %s: %w", path, werr)
		}
		if _, werr := w.Write(files[path]); werr != nil {
			return fmt.Errorf("failed to write %s: %w", path, werr)
		}
	}
	if cerr := zw.Close(); cerr != nil {
		return fmt.Errorf("failed to finalize zip: %w", cerr)
	}
	return nil
}

func sortedKeys(m map[string][]byte) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
