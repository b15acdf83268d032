//go:build !cuda

package gpu

// NVMLInterface is a placeholder for builds without CUDA support.
type NVMLInterface interface{}

// NewRealNVML returns nil when CUDA support is disabled.
func NewRealNVML() NVMLInterface {
	return nil
}
