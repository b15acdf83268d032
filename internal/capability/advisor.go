package capability

import (
	"context"

	"phistack/internal/catalog"
	"phistack/internal/logging"
)

// ProfileObserver is notified of each snapshot, typically to update gauges.
type ProfileObserver interface {
	ObserveProfile(SystemProfile)
}

// Advisor turns raw probes into profiles and verdicts.
type Advisor struct {
	prober   Prober
	diskPath string
	logger   *logging.Logger
	observer ProfileObserver
}

// NewAdvisor creates an advisor. diskPath selects the filesystem whose free
// space is reported, usually the model cache directory.
func NewAdvisor(prober Prober, diskPath string, logger *logging.Logger, observer ProfileObserver) *Advisor {
	if logger == nil {
		logger = logging.Discard()
	}
	if diskPath == "" {
		diskPath = "."
	}
	return &Advisor{prober: prober, diskPath: diskPath, logger: logger, observer: observer}
}

// Snapshot probes the host. Failed probes contribute zeros and a warning; Snapshot never fails.
func (a *Advisor) Snapshot(ctx context.Context) SystemProfile {
	var p SystemProfile
	if ctx.Err() != nil {
		return p
	}

	var err error
	if p.MemTotal, p.MemAvailable, err = a.prober.Memory(); err != nil {
		a.probeFailed("memory", err)
		p.MemTotal, p.MemAvailable = 0, 0
	}
	if p.DiskTotal, p.DiskAvailable, err = a.prober.Disk(a.diskPath); err != nil {
		a.probeFailed("disk", err)
		p.DiskTotal, p.DiskAvailable = 0, 0
	}
	if p.CPUCores, err = a.prober.CPUCores(); err != nil {
		a.probeFailed("cpu", err)
		p.CPUCores = 0
	}
	if p.Accelerators, err = a.prober.Accelerators(); err != nil {
		a.probeFailed("accelerators", err)
		p.Accelerators = Accelerators{}
	}

	a.logger.Debug("advisor.snapshot", "System profile captured", map[string]interface{}{
		"mem_available":  p.MemAvailable,
		"disk_available": p.DiskAvailable,
		"cpu_cores":      p.CPUCores,
		"backend":        string(RecommendedBackend(p)),
	})

	if a.observer != nil {
		a.observer.ObserveProfile(p)
	}
	return p
}

func (a *Advisor) probeFailed(probe string, err error) {
	a.logger.Warn("advisor.probe.failed", "Host probe failed; reporting unknown", map[string]interface{}{
		"probe": probe,
		"error": err.Error(),
	})
}

// Check snapshots the host and judges v against it.
func (a *Advisor) Check(ctx context.Context, v catalog.ModelVariant) (SystemProfile, FeasibilityReport) {
	p := a.Snapshot(ctx)
	return p, CanRun(p, v)
}
