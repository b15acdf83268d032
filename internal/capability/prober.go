package capability

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"phistack/internal/gpu"
)

// Prober reads raw host facts. Each method may fail independently.
type Prober interface {
	Memory() (total, available uint64, err error)
	Disk(path string) (total, available uint64, err error)
	CPUCores() (int, error)
	Accelerators() (Accelerators, error)
}

// GPUDetector is satisfied by *gpu.Detector.
type GPUDetector interface {
	DetectGPUs() gpu.GPUReport
}

// ErrUnsupported is returned by probers on platforms without a native query.
var ErrUnsupported = errors.New("capability: probe not supported on this platform")

// parseMeminfo extracts MemTotal and MemAvailable from /proc/meminfo content.
// Older kernels lack MemAvailable; MemFree+Buffers+Cached is used instead.
func parseMeminfo(r io.Reader) (total, available uint64, err error) {
	fields := map[string]uint64{}
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		key, rest, ok := strings.Cut(scanner.Text(), ":")
		if !ok {
			continue
		}
		parts := strings.Fields(rest)
		if len(parts) == 0 {
			continue
		}
		n, perr := strconv.ParseUint(parts[0], 10, 64)
		if perr != nil {
			continue
		}
		if len(parts) > 1 && strings.EqualFold(parts[1], "kB") {
			n *= 1024
		}
		fields[key] = n
	}
	if err := scanner.Err(); err != nil {
		return 0, 0, err
	}

	total, ok := fields["MemTotal"]
	if !ok {
		return 0, 0, fmt.Errorf("meminfo: MemTotal missing")
	}
	if avail, ok := fields["MemAvailable"]; ok {
		return total, avail, nil
	}
	return total, fields["MemFree"] + fields["Buffers"] + fields["Cached"], nil
}

// existingAncestor walks up from path to the nearest directory that exists,
// so disk probes work before the cache directory is created.
func existingAncestor(path string) string {
	p := filepath.Clean(path)
	for {
		if _, err := os.Stat(p); err == nil {
			return p
		}
		parent := filepath.Dir(p)
		if parent == p {
			return p
		}
		p = parent
	}
}
