//go:build cuda

package gpu

import (
	"fmt"

	"github.com/NVIDIA/go-nvml/pkg/nvml"

	"phistack/internal/logging"
)

// Detector probes NVIDIA GPUs through NVML
type Detector struct {
	nvml   NVMLInterface
	logger *logging.Logger
}

// NewDetector creates a new GPU detector
func NewDetector(logger *logging.Logger) *Detector {
	return NewDetectorWithNVML(NewRealNVML(), logger)
}

// NewDetectorWithNVML creates a detector with a custom NVML interface (for testing)
func NewDetectorWithNVML(nvmlInterface NVMLInterface, logger *logging.Logger) *Detector {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Detector{
		nvml:   nvmlInterface,
		logger: logger,
	}
}

// DetectGPUs performs GPU detection and returns a report. It never fails;
// problems are recorded in the report's ErrorMessage.
func (d *Detector) DetectGPUs() GPUReport {
	d.logger.Debug("gpu.detect.start", "Starting GPU detection", nil)

	report := GPUReport{
		GPUs: make([]GPUInfo, 0),
	}

	ret := d.nvml.Init()
	if ret != nvml.SUCCESS {
		report.ErrorMessage = fmt.Sprintf("Failed to initialize NVML: %v", nvml.ErrorString(ret))
		d.logger.Warn("gpu.nvml.init.failed", "NVML initialization failed", map[string]interface{}{
			"error": report.ErrorMessage,
		})
		return report
	}
	defer d.nvml.Shutdown()

	report.NVMLOk = true

	if driverVersion, ret := d.nvml.SystemGetDriverVersion(); ret == nvml.SUCCESS {
		report.DriverVersion = driverVersion
	} else {
		d.logger.Warn("gpu.driver.version.failed", "Failed to get driver version", map[string]interface{}{
			"error": nvml.ErrorString(ret),
		})
	}

	if cudaVersion, ret := d.nvml.SystemGetCudaDriverVersion(); ret == nvml.SUCCESS {
		report.CUDAVersion = cudaVersion
	} else {
		d.logger.Warn("gpu.cuda.version.failed", "Failed to get CUDA version", map[string]interface{}{
			"error": nvml.ErrorString(ret),
		})
	}

	count, ret := d.nvml.DeviceGetCount()
	if ret != nvml.SUCCESS {
		report.ErrorMessage = fmt.Sprintf("Failed to get device count: %v", nvml.ErrorString(ret))
		d.logger.Error("gpu.device.count.failed", "Failed to get GPU count", map[string]interface{}{
			"error": report.ErrorMessage,
		})
		return report
	}

	for i := 0; i < count; i++ {
		device, ret := d.nvml.DeviceGetHandleByIndex(i)
		if ret != nvml.SUCCESS {
			d.logger.Warn("gpu.device.handle.failed", "Failed to get device handle", map[string]interface{}{
				"index": i,
				"error": nvml.ErrorString(ret),
			})
			continue
		}

		info := GPUInfo{Index: i}
		if name, ret := device.GetName(); ret == nvml.SUCCESS {
			info.Name = name
		}
		if uuid, ret := device.GetUUID(); ret == nvml.SUCCESS {
			info.UUID = uuid
		}
		if mem, ret := device.GetMemoryInfo(); ret == nvml.SUCCESS {
			info.MemoryMB = mem.Total / (1024 * 1024)
		}

		report.GPUs = append(report.GPUs, info)
	}

	d.logger.Info("gpu.detect.completed", "GPU detection completed", map[string]interface{}{
		"count":          len(report.GPUs),
		"driver_version": report.DriverVersion,
	})

	return report
}
