package capability

// Backend identifies the compute backend an inference engine should use
type Backend string

const (
	// BackendCUDA runs on NVIDIA GPUs.
	BackendCUDA Backend = "cuda"
	// BackendMetal runs on Apple GPUs.
	BackendMetal Backend = "metal"
	// BackendWGPU runs on Vulkan-capable GPUs through wgpu.
	BackendWGPU Backend = "wgpu"
	// BackendCPU is the CPU fallback and always valid.
	BackendCPU Backend = "ndarray"
)

// Accelerators records which GPU backends the host offers
type Accelerators struct {
	CUDA        bool `json:"cuda"`
	Metal       bool `json:"metal"`
	Vulkan      bool `json:"vulkan"`
	DeviceCount int  `json:"device_count"`
}

// SystemProfile is a point-in-time view of host resources.
// Zero means unknown for every numeric field.
type SystemProfile struct {
	MemTotal      uint64       `json:"mem_total"`
	MemAvailable  uint64       `json:"mem_available"`
	DiskTotal     uint64       `json:"disk_total"`
	DiskAvailable uint64       `json:"disk_available"`
	CPUCores      int          `json:"cpu_cores"`
	Accelerators  Accelerators `json:"accelerators"`
}

// FeasibilityReport is the verdict of CanRun.
// Only the memory and disk checks affect CanRun; other issues are advisory.
type FeasibilityReport struct {
	CanRun         bool     `json:"can_run"`
	Issues         []string `json:"issues"`
	RequiredMemory uint64   `json:"required_memory"`
	RequiredDisk   uint64   `json:"required_disk"`
}
