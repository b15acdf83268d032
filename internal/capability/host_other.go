//go:build !linux && !darwin && !windows

package capability

// Memory is not supported here.
func (h *HostProber) Memory() (uint64, uint64, error) { return 0, 0, ErrUnsupported }

// Disk is not supported here.
func (h *HostProber) Disk(string) (uint64, uint64, error) { return 0, 0, ErrUnsupported }

// Accelerators reports NVML devices only.
func (h *HostProber) Accelerators() (Accelerators, error) {
	acc := Accelerators{}
	acc.CUDA, acc.DeviceCount = h.cudaDevices()
	return acc, nil
}
