//go:build windows

package capability

import (
	"unsafe"

	"golang.org/x/sys/windows"
)

// Memory queries GlobalMemoryStatusEx.
func (h *HostProber) Memory() (uint64, uint64, error) {
	var ms windows.MemoryStatusEx
	ms.Length = uint32(unsafe.Sizeof(ms))
	if err := windows.GlobalMemoryStatusEx(&ms); err != nil {
		return 0, 0, err
	}
	return ms.TotalPhys, ms.AvailPhys, nil
}

// Disk queries GetDiskFreeSpaceEx for the volume holding path.
func (h *HostProber) Disk(path string) (uint64, uint64, error) {
	p, err := windows.UTF16PtrFromString(existingAncestor(path))
	if err != nil {
		return 0, 0, err
	}
	var freeToCaller, total, totalFree uint64
	if err := windows.GetDiskFreeSpaceEx(p, &freeToCaller, &total, &totalFree); err != nil {
		return 0, 0, err
	}
	return total, freeToCaller, nil
}

// Accelerators combines NVML results with the Vulkan loader DLL.
func (h *HostProber) Accelerators() (Accelerators, error) {
	acc := Accelerators{}
	acc.CUDA, acc.DeviceCount = h.cudaDevices()
	if dll := windows.NewLazySystemDLL("vulkan-1.dll"); dll.Load() == nil {
		acc.Vulkan = true
	}
	return acc, nil
}
