package capability

import "runtime"

// HostProber reads facts from the running machine.
type HostProber struct {
	gpu GPUDetector
}

// NewHostProber returns a prober for this host. gpu may be nil.
func NewHostProber(gpu GPUDetector) *HostProber {
	return &HostProber{gpu: gpu}
}

// CPUCores returns the logical CPU count.
func (h *HostProber) CPUCores() (int, error) {
	return runtime.NumCPU(), nil
}

func (h *HostProber) cudaDevices() (bool, int) {
	if h.gpu == nil {
		return false, 0
	}
	report := h.gpu.DetectGPUs()
	return report.HasCUDA(), report.DeviceCount()
}
