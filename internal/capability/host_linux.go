//go:build linux

package capability

import (
	"os"
	"path/filepath"

	"golang.org/x/sys/unix"
)

var vulkanLibPaths = []string{
	"/usr/lib/x86_64-linux-gnu/libvulkan.so.1",
	"/usr/lib/aarch64-linux-gnu/libvulkan.so.1",
	"/usr/lib64/libvulkan.so.1",
	"/usr/lib/libvulkan.so.1",
}

// Memory reads /proc/meminfo.
func (h *HostProber) Memory() (uint64, uint64, error) {
	f, err := os.Open("/proc/meminfo")
	if err != nil {
		return 0, 0, err
	}
	defer f.Close()
	return parseMeminfo(f)
}

// Disk reports the filesystem holding path.
func (h *HostProber) Disk(path string) (uint64, uint64, error) {
	var st unix.Statfs_t
	if err := unix.Statfs(existingAncestor(path), &st); err != nil {
		return 0, 0, err
	}
	bsize := uint64(st.Bsize) //nolint:gosec // block size is positive
	return st.Blocks * bsize, st.Bavail * bsize, nil
}

// Accelerators combines NVML results with Vulkan loader and DRI render node presence.
func (h *HostProber) Accelerators() (Accelerators, error) {
	acc := Accelerators{}
	acc.CUDA, acc.DeviceCount = h.cudaDevices()

	for _, p := range vulkanLibPaths {
		if _, err := os.Stat(p); err == nil {
			acc.Vulkan = true
			break
		}
	}

	if acc.DeviceCount == 0 {
		nodes, _ := filepath.Glob("/dev/dri/renderD*")
		acc.DeviceCount = len(nodes)
	}
	if acc.DeviceCount == 0 {
		acc.Vulkan = false
	}
	return acc, nil
}
