package modelcache

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"hash"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/crypto/blake2b"
	"golang.org/x/sync/singleflight"

	"phistack/internal/catalog"
	"phistack/internal/fsutil"
	"phistack/internal/logging"
)

// DefaultFetchTimeout bounds a single fetch when Options.FetchTimeout is zero.
const DefaultFetchTimeout = 30 * time.Minute

// Options configures a Manager
type Options struct {
	// Root is the cache directory owned exclusively by the manager.
	Root string
	// StateDir holds cache bookkeeping; empty places it next to Root.
	StateDir     string
	Fetcher      Fetcher
	FetchTimeout time.Duration
	Logger       *logging.Logger
	Recorder     Recorder
}

// Manager materializes variant artifacts under a cache root.
//
// Concurrent Ensure calls for the same variant share one in-flight fetch.
// Independent variants fetch in parallel. Separate Manager instances must
// not share a root without external coordination.
type Manager struct {
	root     string
	fetcher  Fetcher
	timeout  time.Duration
	state    *StateManager
	logger   *logging.Logger
	recorder Recorder

	// fsMu: fetches hold it shared, Clear holds it exclusively.
	fsMu  sync.RWMutex
	group singleflight.Group

	flightMu sync.Mutex
	flights  map[string]*flight
}

// flight tracks the callers waiting on one in-flight fetch so the fetch is
// canceled only once every waiter has given up.
type flight struct {
	ctx     context.Context
	cancel  context.CancelFunc
	waiters int
}

// NewManager creates a cache manager
func NewManager(opts Options) (*Manager, error) {
	if opts.Root == "" {
		return nil, fmt.Errorf("cache root must not be empty")
	}
	root, err := filepath.Abs(opts.Root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve cache root: %w", err)
	}

	logger := opts.Logger
	if logger == nil {
		logger = logging.Discard()
	}
	fetcher := opts.Fetcher
	if fetcher == nil {
		fetcher = UnavailableFetcher{}
	}
	timeout := opts.FetchTimeout
	if timeout <= 0 {
		timeout = DefaultFetchTimeout
	}
	recorder := opts.Recorder
	if recorder == nil {
		recorder = nopRecorder{}
	}
	stateDir := opts.StateDir
	if stateDir == "" {
		stateDir = root + ".state"
	}

	return &Manager{
		root:     root,
		fetcher:  fetcher,
		timeout:  timeout,
		state:    NewStateManager(stateDir, root, logger),
		logger:   logger,
		recorder: recorder,
		flights:  make(map[string]*flight),
	}, nil
}

// Root returns the cache root directory
func (m *Manager) Root() string {
	return m.root
}

// CanonicalPath returns the single local path for v's artifact.
func (m *Manager) CanonicalPath(v catalog.ModelVariant) string {
	return filepath.Join(m.root, ArtifactName(v.Repo))
}

// IsCached reports whether v's artifact exists and is readable.
func (m *Manager) IsCached(v catalog.ModelVariant) bool {
	path := m.CanonicalPath(v)
	info, err := os.Stat(path)
	if err != nil || !info.Mode().IsRegular() {
		return false
	}
	f, err := os.Open(path) // #nosec G304 -- path derived from cache root
	if err != nil {
		return false
	}
	_ = f.Close()
	return true
}

// Entry returns the cache entry for v.
func (m *Manager) Entry(v catalog.ModelVariant) CacheEntry {
	return CacheEntry{VariantID: v.ID, Path: m.CanonicalPath(v), Cached: m.IsCached(v)}
}

// Ensure returns the canonical path of v, fetching the artifact if needed.
// Errors are *FetchError or *IOError and are never retried here.
func (m *Manager) Ensure(ctx context.Context, v catalog.ModelVariant) (string, error) {
	return m.EnsureWithProgress(ctx, v, nil)
}

// EnsureWithProgress is Ensure with progress events sent to progress.
// When several callers share a fetch, only the caller that started it
// receives progress events. Once EnsureWithProgress returns, nothing more is
// sent to progress, so the caller may close it.
func (m *Manager) EnsureWithProgress(ctx context.Context, v catalog.ModelVariant, progress chan<- DownloadProgress) (string, error) {
	if m.IsCached(v) {
		m.recorder.CacheHit(v.ID)
		m.touch(v)
		m.logger.Debug("cache.hit", "Artifact already cached", map[string]interface{}{
			"variant": v.ID,
		})
		return m.CanonicalPath(v), nil
	}

	relay := newProgressRelay(progress)
	var started atomic.Bool

	f := m.join(ctx, v.ID)
	ch := m.group.DoChan(v.ID, func() (interface{}, error) {
		started.Store(true)
		defer m.finish(v.ID, f)
		defer relay.end()
		return m.fetch(f.ctx, v, relay)
	})

	select {
	case res := <-ch:
		m.leave(v.ID, f)
		if started.Load() {
			relay.drain(ctx)
		} else {
			relay.stop()
		}
		if res.Err != nil {
			return "", res.Err
		}
		return res.Val.(string), nil
	case <-ctx.Done():
		relay.stop()
		if m.leave(v.ID, f) {
			// Last waiter: the fetch is now canceled; wait for its cleanup.
			<-ch
		}
		return "", &FetchError{Repo: v.Repo, Err: ctx.Err()}
	}
}

func (m *Manager) join(ctx context.Context, id string) *flight {
	m.flightMu.Lock()
	defer m.flightMu.Unlock()

	f, ok := m.flights[id]
	if !ok {
		fctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), m.timeout)
		f = &flight{ctx: fctx, cancel: cancel}
		m.flights[id] = f
	}
	f.waiters++
	return f
}

// leave drops one waiter and reports whether it was the last one.
func (m *Manager) leave(id string, f *flight) bool {
	m.flightMu.Lock()
	defer m.flightMu.Unlock()

	f.waiters--
	if f.waiters > 0 {
		return false
	}
	f.cancel()
	if m.flights[id] == f {
		delete(m.flights, id)
	}
	return true
}

func (m *Manager) finish(id string, f *flight) {
	m.flightMu.Lock()
	defer m.flightMu.Unlock()
	if m.flights[id] == f {
		delete(m.flights, id)
	}
}

func (m *Manager) fetch(ctx context.Context, v catalog.ModelVariant, relay *progressRelay) (string, error) {
	m.fsMu.RLock()
	defer m.fsMu.RUnlock()

	path := m.CanonicalPath(v)
	if m.IsCached(v) {
		return path, nil
	}

	start := time.Now()
	m.recorder.FetchStarted(v.ID)
	m.logger.Info("cache.fetch.started", "Fetching artifact", map[string]interface{}{
		"variant": v.ID,
		"repo":    v.Repo,
	})

	pw := &progressWriter{ctx: ctx, variantID: v.ID, relay: relay}
	if sizer, ok := m.fetcher.(Sizer); ok {
		if total, err := sizer.Size(ctx, v.Repo); err == nil {
			pw.total = total
		}
	}
	pw.emit(StatusStarted, "")

	info, err := m.materialize(ctx, v, path, pw)
	if err != nil {
		kind := FailureKind(err)
		m.recorder.FetchFailed(v.ID, kind)
		pw.emit(StatusFailed, err.Error())
		m.logger.Error("cache.fetch.failed", "Fetch failed", map[string]interface{}{
			"variant": v.ID,
			"repo":    v.Repo,
			"kind":    kind,
			"error":   err.Error(),
		})
		return "", err
	}

	elapsed := time.Since(start)
	m.recorder.FetchCompleted(v.ID, info.Size, elapsed)
	pw.emit(StatusCompleted, "")

	if err := m.state.Put(info); err != nil {
		m.logger.Warn("cache.state.update_failed", "Failed to record artifact", map[string]interface{}{
			"variant": v.ID,
			"error":   err.Error(),
		})
	}

	m.logger.Info("cache.fetch.completed", "Artifact cached", map[string]interface{}{
		"variant":    v.ID,
		"path":       path,
		"bytes":      info.Size,
		"duration_s": elapsed.Seconds(),
	})
	return path, nil
}

// materialize streams the fetch into a temp file in the root and renames it
// into place. The temp file is removed on every failure path.
func (m *Manager) materialize(ctx context.Context, v catalog.ModelVariant, path string, pw *progressWriter) (ArtifactInfo, error) {
	if err := os.MkdirAll(m.root, fsutil.DefaultDirPermissions); err != nil {
		return ArtifactInfo{}, &IOError{Op: "mkdir", Path: m.root, Err: err}
	}

	tmp, err := os.CreateTemp(m.root, "."+ArtifactName(v.Repo)+".*.partial")
	if err != nil {
		return ArtifactInfo{}, &IOError{Op: "create", Path: m.root, Err: err}
	}
	tmpPath := tmp.Name()
	committed := false
	defer func() {
		if committed {
			return
		}
		_ = tmp.Close()
		if rmErr := os.Remove(tmpPath); rmErr != nil && !os.IsNotExist(rmErr) {
			m.logger.Warn("cache.cleanup_failed", "Failed to remove partial artifact", map[string]interface{}{
				"path":  tmpPath,
				"error": rmErr.Error(),
			})
		}
	}()

	fw := &fileWriter{f: tmp}
	hasher, err := blake2b.New256(nil)
	if err != nil {
		return ArtifactInfo{}, &FetchError{Repo: v.Repo, Err: err}
	}
	counter := &countingWriter{}

	n, fetchErr := m.fetcher.Fetch(ctx, v.Repo, io.MultiWriter(fw, hasher, counter, pw))
	switch {
	case fw.err != nil:
		return ArtifactInfo{}, &IOError{Op: "write", Path: tmpPath, Err: fw.err}
	case fetchErr != nil:
		return ArtifactInfo{}, wrapFetchError(v.Repo, fetchErr)
	case ctx.Err() != nil:
		return ArtifactInfo{}, &FetchError{Repo: v.Repo, Err: ctx.Err()}
	case n != counter.n:
		return ArtifactInfo{}, &FetchError{Repo: v.Repo, Err: fmt.Errorf("%w: fetcher reported %d bytes, wrote %d", ErrCorrupt, n, counter.n)}
	case pw.total > 0 && counter.n != pw.total:
		return ArtifactInfo{}, &FetchError{Repo: v.Repo, Err: fmt.Errorf("%w: expected %d bytes, got %d", ErrCorrupt, pw.total, counter.n)}
	}

	if err := tmp.Sync(); err != nil {
		return ArtifactInfo{}, &IOError{Op: "sync", Path: tmpPath, Err: err}
	}
	if err := tmp.Close(); err != nil {
		return ArtifactInfo{}, &IOError{Op: "close", Path: tmpPath, Err: err}
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return ArtifactInfo{}, &IOError{Op: "rename", Path: path, Err: err}
	}
	committed = true

	now := time.Now().UTC()
	return ArtifactInfo{
		VariantID: v.ID,
		Repo:      v.Repo,
		Path:      path,
		Size:      counter.n,
		Digest:    hex.EncodeToString(hasher.Sum(nil)),
		FetchedAt: now,
		LastUsed:  now,
	}, nil
}

func wrapFetchError(repo string, err error) error {
	var fe *FetchError
	var ioe *IOError
	if errors.As(err, &fe) || errors.As(err, &ioe) {
		return err
	}
	return &FetchError{Repo: repo, Err: err}
}

func (m *Manager) touch(v catalog.ModelVariant) {
	if err := m.state.Touch(v.ID, time.Now()); err != nil {
		m.logger.Warn("cache.state.touch_failed", "Failed to update last used", map[string]interface{}{
			"variant": v.ID,
			"error":   err.Error(),
		})
	}
}

// ListCached returns the repository identifiers of artifacts in the root.
// Names outside the naming convention are ignored. The identifiers are
// recovered from file names, so use CachedVariants to match a catalog.
func (m *Manager) ListCached() ([]string, error) {
	names, err := m.artifactNames()
	if err != nil {
		return nil, err
	}

	repos := make([]string, 0, len(names))
	for _, name := range names {
		repo, _ := RepoFromArtifact(name)
		repos = append(repos, repo)
	}
	return repos, nil
}

// CachedVariants returns the catalog variants whose artifacts are present, in
// catalog order, plus the repository identifiers of artifacts no variant
// claims. Variants are matched by their artifact file name.
func (m *Manager) CachedVariants(c *catalog.Catalog) ([]catalog.ModelVariant, []string, error) {
	names, err := m.artifactNames()
	if err != nil {
		return nil, nil, err
	}
	present := make(map[string]bool, len(names))
	for _, name := range names {
		present[name] = true
	}

	cached := []catalog.ModelVariant{}
	for _, v := range c.List() {
		name := ArtifactName(v.Repo)
		if present[name] {
			cached = append(cached, v)
			delete(present, name)
		}
	}

	var uncatalogued []string
	for _, name := range names {
		if present[name] {
			repo, _ := RepoFromArtifact(name)
			uncatalogued = append(uncatalogued, repo)
		}
	}
	return cached, uncatalogued, nil
}

// artifactNames lists the regular files in the root that follow the naming
// convention, in directory order.
func (m *Manager) artifactNames() ([]string, error) {
	entries, err := os.ReadDir(m.root)
	if err != nil {
		if os.IsNotExist(err) {
			return []string{}, nil
		}
		return nil, &IOError{Op: "readdir", Path: m.root, Err: err}
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.Type().IsRegular() {
			continue
		}
		if _, ok := RepoFromArtifact(e.Name()); ok {
			names = append(names, e.Name())
		}
	}
	return names, nil
}

// Clear removes the whole cache root and leaves an empty root behind.
// The root is first renamed aside so a failure never leaves it half pruned.
func (m *Manager) Clear() error {
	m.fsMu.Lock()
	defer m.fsMu.Unlock()

	if _, err := os.Stat(m.root); err != nil {
		if !os.IsNotExist(err) {
			return &IOError{Op: "stat", Path: m.root, Err: err}
		}
	} else {
		tomb := m.root + ".clearing-" + strconv.FormatInt(time.Now().UnixNano(), 36)
		if err := os.Rename(m.root, tomb); err != nil {
			return &IOError{Op: "rename", Path: m.root, Err: err}
		}
		if err := os.RemoveAll(tomb); err != nil {
			return &IOError{Op: "remove", Path: tomb, Err: err}
		}
	}

	if err := os.MkdirAll(m.root, fsutil.DefaultDirPermissions); err != nil {
		return &IOError{Op: "mkdir", Path: m.root, Err: err}
	}

	if err := m.state.Clear(); err != nil {
		m.logger.Warn("cache.state.clear_failed", "Failed to clear cache state", map[string]interface{}{
			"error": err.Error(),
		})
	}

	m.logger.Info("cache.cleared", "Cache cleared", map[string]interface{}{
		"root": m.root,
	})
	return nil
}

// CacheSize sums the sizes of regular files directly under the root.
// A missing root yields 0.
func (m *Manager) CacheSize() (int64, error) {
	entries, err := os.ReadDir(m.root)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, &IOError{Op: "readdir", Path: m.root, Err: err}
	}

	var total int64
	for _, e := range entries {
		if !e.Type().IsRegular() {
			continue
		}
		info, err := e.Info()
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return 0, &IOError{Op: "stat", Path: filepath.Join(m.root, e.Name()), Err: err}
		}
		total += info.Size()
	}
	return total, nil
}

// Remove deletes v's artifact if present.
func (m *Manager) Remove(v catalog.ModelVariant) error {
	m.fsMu.Lock()
	defer m.fsMu.Unlock()

	path := m.CanonicalPath(v)
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return &IOError{Op: "remove", Path: path, Err: err}
	}
	if err := m.state.Remove(v.ID); err != nil {
		m.logger.Warn("cache.state.update_failed", "Failed to drop artifact record", map[string]interface{}{
			"variant": v.ID,
			"error":   err.Error(),
		})
	}

	m.logger.Info("cache.removed", "Artifact removed", map[string]interface{}{
		"variant": v.ID,
	})
	return nil
}

// Verify recomputes v's digest and compares it with the recorded one.
func (m *Manager) Verify(v catalog.ModelVariant) error {
	path := m.CanonicalPath(v)
	if !m.IsCached(v) {
		return fmt.Errorf("%s: %w", v.ID, ErrNotCached)
	}

	info, ok, err := m.state.Get(v.ID)
	if err != nil {
		return fmt.Errorf("failed to load cache state: %w", err)
	}
	if !ok || info.Digest == "" {
		return fmt.Errorf("%s: no recorded digest", v.ID)
	}

	got, err := m.digestFile(path)
	if err != nil {
		return &IOError{Op: "read", Path: path, Err: err}
	}
	if got != info.Digest {
		m.logger.Error("cache.verify.mismatch", "Artifact digest mismatch", map[string]interface{}{
			"variant":  v.ID,
			"expected": info.Digest,
			"actual":   got,
		})
		return fmt.Errorf("%s: %w: digest mismatch", v.ID, ErrCorrupt)
	}
	return nil
}

func (m *Manager) digestFile(path string) (string, error) {
	f, err := os.Open(path) // #nosec G304 -- path derived from cache root
	if err != nil {
		return "", err
	}
	defer fsutil.CloseWithError(f.Close, m.logger, path)

	var h hash.Hash
	h, err = blake2b.New256(nil)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// Stats reports size and the least recently used artifact.
func (m *Manager) Stats() (*CacheStats, error) {
	if err := m.state.Reconcile(); err != nil {
		return nil, err
	}

	size, err := m.CacheSize()
	if err != nil {
		return nil, err
	}
	repos, err := m.ListCached()
	if err != nil {
		return nil, err
	}

	stats := &CacheStats{Root: m.root, TotalSize: size, ArtifactCount: len(repos)}

	oldest, err := m.state.OldestFirst()
	if err != nil {
		return nil, err
	}
	if len(oldest) > 0 {
		stats.Oldest = &oldest[0]
	}
	return stats, nil
}

// EvictOldest removes the least recently used recorded artifact.
func (m *Manager) EvictOldest() (*ArtifactInfo, error) {
	if err := m.state.Reconcile(); err != nil {
		return nil, err
	}

	oldest, err := m.state.OldestFirst()
	if err != nil {
		return nil, err
	}
	if len(oldest) == 0 {
		return nil, fmt.Errorf("no artifacts to evict")
	}

	victim := oldest[0]
	m.logger.Info("cache.evict.started", "Evicting least recently used artifact", map[string]interface{}{
		"variant":   victim.VariantID,
		"last_used": victim.LastUsed,
	})

	if err := m.Remove(catalog.ModelVariant{ID: victim.VariantID, Repo: victim.Repo}); err != nil {
		return nil, err
	}
	return &victim, nil
}

// fileWriter remembers write errors so they can be told apart from fetch errors.
type fileWriter struct {
	f   *os.File
	err error
}

func (w *fileWriter) Write(p []byte) (int, error) {
	n, err := w.f.Write(p)
	if err != nil && w.err == nil {
		w.err = err
	}
	return n, err
}

type countingWriter struct {
	n int64
}

func (w *countingWriter) Write(p []byte) (int, error) {
	w.n += int64(len(p))
	return len(p), nil
}
