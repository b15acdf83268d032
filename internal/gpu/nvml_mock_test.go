//go:build cuda

package gpu

import (
	"github.com/NVIDIA/go-nvml/pkg/nvml"
)

// MockNVML is a mock implementation of NVMLInterface for testing
type MockNVML struct {
	InitReturn          nvml.Return
	DeviceCount         int
	DeviceCountReturn   nvml.Return
	DriverVersion       string
	DriverVersionReturn nvml.Return
	CudaVersion         int
	CudaVersionReturn   nvml.Return
	Devices             []MockDevice
	shutdownCalls       int
}

// MockDevice represents a mock GPU device
type MockDevice struct {
	Name             string
	UUID             string
	MemoryTotal      uint64
	MemoryInfoReturn nvml.Return
}

// NewMockNVML creates a new mock NVML instance
func NewMockNVML() *MockNVML {
	return &MockNVML{
		InitReturn:          nvml.SUCCESS,
		DeviceCountReturn:   nvml.SUCCESS,
		DriverVersionReturn: nvml.SUCCESS,
		CudaVersionReturn:   nvml.SUCCESS,
	}
}

func (m *MockNVML) Init() nvml.Return {
	return m.InitReturn
}

func (m *MockNVML) Shutdown() nvml.Return {
	m.shutdownCalls++
	return nvml.SUCCESS
}

func (m *MockNVML) DeviceGetCount() (int, nvml.Return) {
	return m.DeviceCount, m.DeviceCountReturn
}

func (m *MockNVML) DeviceGetHandleByIndex(index int) (DeviceInterface, nvml.Return) {
	if index < 0 || index >= len(m.Devices) {
		return nil, nvml.ERROR_INVALID_ARGUMENT
	}
	return mockDevice{device: &m.Devices[index]}, nvml.SUCCESS
}

func (m *MockNVML) SystemGetDriverVersion() (string, nvml.Return) {
	return m.DriverVersion, m.DriverVersionReturn
}

func (m *MockNVML) SystemGetCudaDriverVersion() (int, nvml.Return) {
	return m.CudaVersion, m.CudaVersionReturn
}

type mockDevice struct {
	device *MockDevice
}

func (m mockDevice) GetName() (string, nvml.Return) {
	return m.device.Name, nvml.SUCCESS
}

func (m mockDevice) GetUUID() (string, nvml.Return) {
	return m.device.UUID, nvml.SUCCESS
}

func (m mockDevice) GetMemoryInfo() (nvml.Memory, nvml.Return) {
	return nvml.Memory{Total: m.device.MemoryTotal}, m.device.MemoryInfoReturn
}
