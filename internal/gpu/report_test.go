package gpu

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"phistack/internal/logging"
)

func TestGPUReport_Helpers(t *testing.T) {
	report := GPUReport{
		NVMLOk: true,
		GPUs: []GPUInfo{
			{Index: 0, MemoryMB: 24576},
			{Index: 1, MemoryMB: 10240},
		},
	}

	if !report.HasCUDA() {
		t.Error("Expected HasCUDA() true")
	}
	if report.DeviceCount() != 2 {
		t.Errorf("Expected 2 devices, got %d", report.DeviceCount())
	}
	if report.TotalMemoryMB() != 34816 {
		t.Errorf("Expected 34816 MB, got %d", report.TotalMemoryMB())
	}

	report.GPUs = nil
	if report.HasCUDA() {
		t.Error("Expected HasCUDA() false without devices")
	}
}

func TestSaveReport(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gpu_report.json")
	report := GPUReport{DriverVersion: "535.104.05", NVMLOk: true, GPUs: []GPUInfo{{Name: "RTX 4090"}}}

	if err := SaveReport(report, path, logging.NewLogger(logging.LevelError)); err != nil {
		t.Fatalf("SaveReport() error: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	var loaded GPUReport
	if err := json.Unmarshal(data, &loaded); err != nil {
		t.Fatalf("Saved report is not valid JSON: %v", err)
	}
	if loaded.DriverVersion != report.DriverVersion || len(loaded.GPUs) != 1 {
		t.Errorf("Loaded report mismatch: %+v", loaded)
	}
}
