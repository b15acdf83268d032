package modelcache

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// Fetcher produces the bytes of a repository's artifact.
//
// Fetch writes the artifact for repo into w and returns the number of bytes
// it produced. It must fail with an error wrapping ErrSourceUnreachable or
// ErrUnknownRepo when applicable and must never write another repository's
// data. Implementations should honor ctx cancellation.
type Fetcher interface {
	Fetch(ctx context.Context, repo string, w io.Writer) (int64, error)
}

// Sizer is optionally implemented by fetchers that know the artifact size up front.
type Sizer interface {
	Size(ctx context.Context, repo string) (int64, error)
}

// FetcherFunc adapts a function to the Fetcher interface.
type FetcherFunc func(ctx context.Context, repo string, w io.Writer) (int64, error)

// Fetch calls f.
func (f FetcherFunc) Fetch(ctx context.Context, repo string, w io.Writer) (int64, error) {
	return f(ctx, repo, w)
}

// UnavailableFetcher fails every fetch. Used when no source is configured.
type UnavailableFetcher struct{}

// Fetch always returns ErrSourceUnreachable.
func (UnavailableFetcher) Fetch(_ context.Context, repo string, _ io.Writer) (int64, error) {
	return 0, fmt.Errorf("%w: no fetch source configured for %s", ErrSourceUnreachable, repo)
}

// MirrorFetcher copies artifacts from a local directory that uses the cache
// naming convention, e.g. a shared network mount or a pre-seeded disk.
type MirrorFetcher struct {
	Dir string
}

// NewMirrorFetcher returns a fetcher reading from dir.
func NewMirrorFetcher(dir string) *MirrorFetcher {
	return &MirrorFetcher{Dir: dir}
}

func (m *MirrorFetcher) path(repo string) string {
	return filepath.Join(m.Dir, ArtifactName(repo))
}

func (m *MirrorFetcher) checkDir() error {
	info, err := os.Stat(m.Dir)
	if err != nil {
		return fmt.Errorf("%w: mirror %s: %v", ErrSourceUnreachable, m.Dir, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%w: mirror %s is not a directory", ErrSourceUnreachable, m.Dir)
	}
	return nil
}

// Size reports the mirror file size.
func (m *MirrorFetcher) Size(_ context.Context, repo string) (int64, error) {
	if err := m.checkDir(); err != nil {
		return 0, err
	}
	info, err := os.Stat(m.path(repo))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return 0, fmt.Errorf("%w: %s", ErrUnknownRepo, repo)
		}
		return 0, fmt.Errorf("%w: %v", ErrSourceUnreachable, err)
	}
	return info.Size(), nil
}

// Fetch copies the mirrored artifact into w, checking ctx between chunks.
func (m *MirrorFetcher) Fetch(ctx context.Context, repo string, w io.Writer) (int64, error) {
	if err := m.checkDir(); err != nil {
		return 0, err
	}

	f, err := os.Open(m.path(repo))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return 0, fmt.Errorf("%w: %s", ErrUnknownRepo, repo)
		}
		return 0, fmt.Errorf("%w: %v", ErrSourceUnreachable, err)
	}
	defer f.Close()

	return io.Copy(w, &ctxReader{ctx: ctx, r: f})
}

// ctxReader aborts reads once ctx is done.
type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func (c *ctxReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}
