package gpu

// GPUInfo represents information about a single GPU
type GPUInfo struct {
	Name     string `json:"name"`
	UUID     string `json:"uuid"`
	MemoryMB uint64 `json:"memory_mb"`
	Index    int    `json:"index"`
}

// GPUReport represents the complete GPU detection report
type GPUReport struct {
	DriverVersion string    `json:"driver_version"`
	CUDAVersion   int       `json:"cuda_version"`
	NVMLOk        bool      `json:"nvml_ok"`
	GPUs          []GPUInfo `json:"gpus"`
	ErrorMessage  string    `json:"error_message,omitempty"`
}

// HasCUDA reports whether NVML initialized and found at least one device.
func (r GPUReport) HasCUDA() bool {
	return r.NVMLOk && len(r.GPUs) > 0
}

// DeviceCount returns the number of detected devices.
func (r GPUReport) DeviceCount() int {
	return len(r.GPUs)
}

// TotalMemoryMB sums device memory across GPUs.
func (r GPUReport) TotalMemoryMB() uint64 {
	var total uint64
	for _, g := range r.GPUs {
		total += g.MemoryMB
	}
	return total
}
