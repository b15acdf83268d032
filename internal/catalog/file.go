package catalog

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

type catalogFile struct {
	Variants []ModelVariant `yaml:"variants"`
}

// LoadFile reads a YAML catalog of the form
//
//	variants:
//	  - id: phi3
//	    repo: microsoft/Phi-3-mini-4k-instruct-onnx
//	    params_billions: 3.8
//	    context_length: 4096
//	    tags: [coding, math]
func LoadFile(path string) (*Catalog, error) {
	data, err := os.ReadFile(filepath.Clean(path)) // #nosec G304 -- operator-supplied catalog path
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog file: %w", err)
	}

	var f catalogFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse catalog file: %w", err)
	}
	if len(f.Variants) == 0 {
		return nil, fmt.Errorf("catalog file %s defines no variants", path)
	}

	for i := range f.Variants {
		if f.Variants[i].DisplayName == "" {
			f.Variants[i].DisplayName = f.Variants[i].ID
		}
	}

	return New(f.Variants...)
}

// Load returns the catalog from path, or the built-in catalog when path is empty.
func Load(path string) (*Catalog, error) {
	if path == "" {
		return Default(), nil
	}
	return LoadFile(path)
}
