//go:build !cuda

package gpu

import "phistack/internal/logging"

// Detector reports no NVML support in builds without the cuda tag.
type Detector struct {
	logger *logging.Logger
}

// NewDetector creates a GPU detector that skips NVML.
func NewDetector(logger *logging.Logger) *Detector {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Detector{logger: logger}
}

// NewDetectorWithNVML ignores the NVML handle when CUDA is disabled.
func NewDetectorWithNVML(_ NVMLInterface, logger *logging.Logger) *Detector {
	return NewDetector(logger)
}

// DetectGPUs returns a report indicating that NVML is unavailable in this build.
func (d *Detector) DetectGPUs() GPUReport {
	d.logger.Debug("gpu.detect.disabled", "Skipping NVML detection (built without cuda tag)", nil)

	return GPUReport{
		GPUs:         []GPUInfo{},
		ErrorMessage: "NVML disabled: rebuild with -tags cuda",
	}
}
