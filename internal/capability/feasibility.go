package capability

import (
	"fmt"

	"phistack/internal/catalog"
)

const (
	// BytesPerParam assumes half-precision weights.
	BytesPerParam = 2
	// DiskFactor reserves room for the artifact plus working cache.
	DiskFactor = 2
	// MinRecommendedCores triggers an advisory issue below this count.
	MinRecommendedCores = 2

	gib = 1 << 30
)

// RequiredMemory estimates the bytes needed to hold v's weights.
func RequiredMemory(v catalog.ModelVariant) uint64 {
	return uint64(v.ParamsBillions * BytesPerParam * gib)
}

// CanRun judges whether profile has room for v.
func CanRun(profile SystemProfile, v catalog.ModelVariant) FeasibilityReport {
	mem := RequiredMemory(v)
	disk := mem * DiskFactor

	report := FeasibilityReport{
		CanRun:         true,
		Issues:         []string{},
		RequiredMemory: mem,
		RequiredDisk:   disk,
	}

	if profile.MemAvailable < mem {
		report.CanRun = false
		report.Issues = append(report.Issues, fmt.Sprintf("Insufficient memory: need ~%s, have %s",
			FormatBytes(mem), FormatBytes(profile.MemAvailable)))
	}

	if profile.DiskAvailable < disk {
		report.CanRun = false
		report.Issues = append(report.Issues, fmt.Sprintf("Insufficient disk space: need ~%s, have %s",
			FormatBytes(disk), FormatBytes(profile.DiskAvailable)))
	}

	if profile.CPUCores < MinRecommendedCores {
		report.Issues = append(report.Issues, fmt.Sprintf("Recommend at least %d CPU cores for optimal performance", MinRecommendedCores))
	}

	return report
}

// RecommendedBackend picks cuda, then metal, then wgpu, then the CPU fallback.
func RecommendedBackend(profile SystemProfile) Backend {
	switch {
	case profile.Accelerators.CUDA:
		return BackendCUDA
	case profile.Accelerators.Metal:
		return BackendMetal
	case profile.Accelerators.Vulkan:
		return BackendWGPU
	default:
		return BackendCPU
	}
}

// RunnableVariants filters c to the variants profile can run, in catalog order.
func RunnableVariants(profile SystemProfile, c *catalog.Catalog) []catalog.ModelVariant {
	var out []catalog.ModelVariant
	for _, v := range c.List() {
		if CanRun(profile, v).CanRun {
			out = append(out, v)
		}
	}
	return out
}
