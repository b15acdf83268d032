package diag

import "time"

// Manifest lists every file in a support bundle
type Manifest struct {
	Timestamp string         `json:"timestamp"`
	Host      string         `json:"host"`
	Version   string         `json:"phistack_version"`
	Files     []ManifestFile `json:"files"`
}

// ManifestFile describes one bundled file; Digest is hex BLAKE2b-256
type ManifestFile struct {
	Path      string `json:"path"`
	SizeBytes int64  `json:"size_bytes"`
	Digest    string `json:"blake2b"`
}

// Inputs are the already-gathered facts to bundle. Nil fields are skipped.
type Inputs struct {
	Version    string
	Config     []byte      // effective config as YAML; redacted before packaging
	Profile    interface{} // host capability snapshot
	CacheStats interface{} // cache statistics
	LogFile    string      // optional log file; redacted before packaging
}

// DefaultOutputPath names a bundle after the current UTC time.
func DefaultOutputPath() string {
	return "phistack-diag-" + time.Now().UTC().Format("20060102-150405") + ".zip"
}
