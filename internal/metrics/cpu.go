package metrics

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// CPUStats holds the aggregate jiffy counters from /proc/stat
type CPUStats struct {
	User    uint64
	Nice    uint64
	System  uint64
	Idle    uint64
	IOWait  uint64
	IRQ     uint64
	SoftIRQ uint64
	Steal   uint64
}

// Total returns total CPU time
func (s CPUStats) Total() uint64 {
	return s.User + s.Nice + s.System + s.Idle + s.IOWait + s.IRQ + s.SoftIRQ + s.Steal
}

// IdleTime returns idle plus iowait time
func (s CPUStats) IdleTime() uint64 {
	return s.Idle + s.IOWait
}

// CPUCollector reports host CPU utilization since the previous scrape.
// On hosts without /proc/stat it reports nothing.
type CPUCollector struct {
	desc     *prometheus.Desc
	statPath string

	mu   sync.Mutex
	last *CPUStats
}

// NewCPUCollector creates a collector reading /proc/stat.
func NewCPUCollector() *CPUCollector {
	return newCPUCollector("/proc/stat")
}

func newCPUCollector(path string) *CPUCollector {
	return &CPUCollector{
		desc: prometheus.NewDesc(
			prometheus.BuildFQName(Namespace, "host", "cpu_utilization_percent"),
			"CPU utilization since the previous scrape", nil, nil),
		statPath: path,
	}
}

// Describe implements prometheus.Collector.
func (c *CPUCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.desc
}

// Collect implements prometheus.Collector. The first scrape only primes the baseline.
func (c *CPUCollector) Collect(ch chan<- prometheus.Metric) {
	current, err := readCPUStats(c.statPath)
	if err != nil {
		return
	}

	c.mu.Lock()
	prev := c.last
	c.last = current
	c.mu.Unlock()

	if prev == nil {
		return
	}
	ch <- prometheus.MustNewConstMetric(c.desc, prometheus.GaugeValue, calculateUtilization(prev, current))
}

func readCPUStats(path string) (*CPUStats, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	line, _, _ := strings.Cut(string(data), "\n")
	return parseCPULine(line)
}

// parseCPULine parses "cpu user nice system idle iowait irq softirq [steal ...]".
func parseCPULine(line string) (*CPUStats, error) {
	fields := strings.Fields(line)
	if len(fields) < 8 || fields[0] != "cpu" {
		return nil, fmt.Errorf("invalid /proc/stat format")
	}

	values := make([]uint64, 8)
	for i := 1; i < len(fields) && i <= 8; i++ {
		v, err := strconv.ParseUint(fields[i], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid cpu stat value %q: %w", fields[i], err)
		}
		values[i-1] = v
	}

	return &CPUStats{
		User:    values[0],
		Nice:    values[1],
		System:  values[2],
		Idle:    values[3],
		IOWait:  values[4],
		IRQ:     values[5],
		SoftIRQ: values[6],
		Steal:   values[7],
	}, nil
}

func calculateUtilization(prev, current *CPUStats) float64 {
	totalDelta := current.Total() - prev.Total()
	idleDelta := current.IdleTime() - prev.IdleTime()
	if current.Total() < prev.Total() || totalDelta == 0 {
		return 0
	}

	util := 100.0 * (1.0 - float64(idleDelta)/float64(totalDelta))
	if util < 0 {
		util = 0
	}
	if util > 100 {
		util = 100
	}
	return util
}
