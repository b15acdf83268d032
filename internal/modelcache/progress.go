package modelcache

import (
	"context"
	"sync"
)

// progressStep is the byte interval between events when the total size is unknown.
const progressStep = 4 << 20

// relayBuffer bounds the events queued between a fetch and its caller.
const relayBuffer = 16

// progressRelay forwards a fetch's events to one caller's channel. Once the
// caller leaves, nothing more is sent to that channel and the fetch never
// blocks on it.
type progressRelay struct {
	in       chan DownloadProgress
	out      chan<- DownloadProgress
	done     chan struct{}
	exited   chan struct{}
	stopOnce sync.Once
	endOnce  sync.Once
}

// newProgressRelay starts a relay to out. A nil out yields a nil relay,
// whose methods are no-ops.
func newProgressRelay(out chan<- DownloadProgress) *progressRelay {
	if out == nil {
		return nil
	}
	r := &progressRelay{
		in:     make(chan DownloadProgress, relayBuffer),
		out:    out,
		done:   make(chan struct{}),
		exited: make(chan struct{}),
	}
	go r.run()
	return r
}

func (r *progressRelay) run() {
	defer close(r.exited)
	for {
		select {
		case ev, ok := <-r.in:
			if !ok {
				return
			}
			select {
			case r.out <- ev:
			case <-r.done:
				return
			}
		case <-r.done:
			return
		}
	}
}

// send queues ev for the caller, giving up when ctx is done or the caller
// has left. Intermediate progress events are dropped when the queue is full.
func (r *progressRelay) send(ctx context.Context, ev DownloadProgress) {
	if r == nil {
		return
	}
	if ev.Status == StatusProgress {
		select {
		case r.in <- ev:
		default:
		}
		return
	}
	select {
	case r.in <- ev:
	case <-r.done:
	case <-ctx.Done():
	}
}

// end is called by the fetch once it has sent its last event.
func (r *progressRelay) end() {
	if r == nil {
		return
	}
	r.endOnce.Do(func() { close(r.in) })
}

// drain waits until every queued event has reached the caller, or detaches
// the caller once ctx is done.
func (r *progressRelay) drain(ctx context.Context) {
	if r == nil {
		return
	}
	select {
	case <-r.exited:
	case <-ctx.Done():
		r.stop()
	}
}

// stop detaches the caller. After it returns the relay never touches out.
func (r *progressRelay) stop() {
	if r == nil {
		return
	}
	r.stopOnce.Do(func() { close(r.done) })
	<-r.exited
}

// progressWriter counts bytes and forwards throttled DownloadProgress events.
type progressWriter struct {
	ctx       context.Context
	variantID string
	relay     *progressRelay
	total     int64
	written   int64
	lastSent  int64
	lastPct   int
}

func (p *progressWriter) Write(b []byte) (int, error) {
	p.written += int64(len(b))
	if p.relay == nil {
		return len(b), nil
	}

	if p.total > 0 {
		pct := int(p.written * 100 / p.total)
		if pct > p.lastPct {
			p.lastPct = pct
			p.emit(StatusProgress, "")
		}
	} else if p.written-p.lastSent >= progressStep {
		p.lastSent = p.written
		p.emit(StatusProgress, "")
	}
	return len(b), nil
}

func (p *progressWriter) emit(status, errMsg string) {
	if p.relay == nil {
		return
	}

	ev := DownloadProgress{
		VariantID:       p.variantID,
		BytesDownloaded: p.written,
		TotalBytes:      p.total,
		Status:          status,
		Error:           errMsg,
	}
	if p.total > 0 {
		ev.Percentage = float64(p.written) / float64(p.total) * 100
	}
	if status == StatusCompleted {
		ev.Percentage = 100
	}

	p.relay.send(p.ctx, ev)
}
