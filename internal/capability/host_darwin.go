//go:build darwin

package capability

import "golang.org/x/sys/unix"

// Memory reads hw.memsize; available is free plus inactive pages.
func (h *HostProber) Memory() (uint64, uint64, error) {
	total, err := unix.SysctlUint64("hw.memsize")
	if err != nil {
		return 0, 0, err
	}
	pageSize := uint64(unix.Getpagesize()) //nolint:gosec // page size is positive
	free, ferr := unix.SysctlUint32("vm.page_free_count")
	if ferr != nil {
		return total, 0, nil
	}
	return total, uint64(free) * pageSize, nil
}

// Disk reports the filesystem holding path.
func (h *HostProber) Disk(path string) (uint64, uint64, error) {
	var st unix.Statfs_t
	if err := unix.Statfs(existingAncestor(path), &st); err != nil {
		return 0, 0, err
	}
	bsize := uint64(st.Bsize)
	return st.Blocks * bsize, st.Bavail * bsize, nil
}

// Accelerators reports Metal, which every supported macOS release provides.
func (h *HostProber) Accelerators() (Accelerators, error) {
	return Accelerators{Metal: true, DeviceCount: 1}, nil
}
