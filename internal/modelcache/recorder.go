package modelcache

import "time"

// Recorder receives cache events, typically to update metrics.
type Recorder interface {
	CacheHit(variantID string)
	FetchStarted(variantID string)
	FetchCompleted(variantID string, bytes int64, elapsed time.Duration)
	FetchFailed(variantID, kind string)
}

type nopRecorder struct{}

func (nopRecorder) CacheHit(string) {}
func (nopRecorder) FetchStarted(string) {}
func (nopRecorder) FetchCompleted(string, int64, time.Duration) {}
func (nopRecorder) FetchFailed(string, string) {}
