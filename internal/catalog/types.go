package catalog

import (
	"fmt"
	"strings"
)

// EdgeParamsLimit is the largest parameter count (billions) treated as edge-suitable.
const EdgeParamsLimit = 4.0

// ModelVariant describes one named configuration of a model family.
// Values are immutable once registered in a Catalog.
type ModelVariant struct {
	ID             string   `json:"id" yaml:"id"`
	DisplayName    string   `json:"display_name" yaml:"display_name"`
	Repo           string   `json:"repo" yaml:"repo"`
	ParamsBillions float64  `json:"params_billions" yaml:"params_billions"`
	ContextLength  int      `json:"context_length" yaml:"context_length"`
	Tags           []string `json:"tags" yaml:"tags"`
	UseCases       []string `json:"use_cases,omitempty" yaml:"use_cases"`
}

// EdgeSuitable reports whether the variant fits on-device deployment.
func (v ModelVariant) EdgeSuitable() bool {
	return v.ParamsBillions <= EdgeParamsLimit
}

// SupportsCoding reports whether any tag mentions code.
func (v ModelVariant) SupportsCoding() bool {
	return v.hasTagContaining("coding", "code")
}

// SupportsMath reports whether any tag mentions math or logic.
func (v ModelVariant) SupportsMath() bool {
	return v.hasTagContaining("math", "logic")
}

// HasTag reports an exact, case-insensitive tag match.
func (v ModelVariant) HasTag(tag string) bool {
	for _, t := range v.Tags {
		if strings.EqualFold(t, tag) {
			return true
		}
	}
	return false
}

func (v ModelVariant) hasTagContaining(needles ...string) bool {
	for _, t := range v.Tags {
		lower := strings.ToLower(t)
		for _, n := range needles {
			if strings.Contains(lower, n) {
				return true
			}
		}
	}
	return false
}

// Describe renders a multi-line summary for terminals.
func (v ModelVariant) Describe() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s (%gB parameters)\n", v.DisplayName, v.ParamsBillions)
	fmt.Fprintf(&b, "Repository: %s\n", v.Repo)
	fmt.Fprintf(&b, "Context: %d tokens\n", v.ContextLength)
	fmt.Fprintf(&b, "Specializations: %s\n", strings.Join(v.Tags, ", "))
	if len(v.UseCases) > 0 {
		fmt.Fprintf(&b, "Use cases: %s\n", strings.Join(v.UseCases, ", "))
	}
	edge := "no"
	if v.EdgeSuitable() {
		edge = "yes"
	}
	fmt.Fprintf(&b, "Edge suitable: %s", edge)
	return b.String()
}

func (v ModelVariant) clone() ModelVariant {
	v.Tags = append([]string(nil), v.Tags...)
	v.UseCases = append([]string(nil), v.UseCases...)
	return v
}
