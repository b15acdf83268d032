package modelcache

import "time"

// ArtifactInfo records what the cache knows about one materialized artifact.
type ArtifactInfo struct {
	VariantID string    `json:"variant_id"`
	Repo      string    `json:"repo"`
	Path      string    `json:"path"`
	Size      int64     `json:"size"`             // Size in bytes
	Digest    string    `json:"digest,omitempty"` // hex BLAKE2b-256 of the artifact
	FetchedAt time.Time `json:"fetched_at"`
	LastUsed  time.Time `json:"last_used"`
}

// State is the persisted cache bookkeeping. It lives outside the cache root;
// presence of an artifact is decided by the filesystem alone.
type State struct {
	Root    string         `json:"root"`
	Items   []ArtifactInfo `json:"items"`
	Updated time.Time      `json:"updated"`
}

// CacheEntry maps a variant to its canonical path and presence.
type CacheEntry struct {
	VariantID string `json:"variant_id"`
	Path      string `json:"path"`
	Cached    bool   `json:"cached"`
}

// Progress statuses
const (
	StatusStarted   = "started"
	StatusProgress  = "progress"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// DownloadProgress represents fetch progress for one variant
type DownloadProgress struct {
	VariantID       string  `json:"variant_id"`
	BytesDownloaded int64   `json:"bytes_downloaded"`
	TotalBytes      int64   `json:"total_bytes,omitempty"`
	Percentage      float64 `json:"percentage"`
	Status          string  `json:"status"`
	Error           string  `json:"error,omitempty"`
}

// CacheStats summarizes the cache
type CacheStats struct {
	Root          string        `json:"root"`
	TotalSize     int64         `json:"total_size"`
	ArtifactCount int           `json:"artifact_count"`
	Oldest        *ArtifactInfo `json:"oldest,omitempty"`
}
