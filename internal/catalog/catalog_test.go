package catalog

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDefault_ByIDRoundTrip(t *testing.T) {
	c := Default()

	for _, v := range c.List() {
		got, err := c.ByID(v.ID)
		if err != nil {
			t.Fatalf("ByID(%q) error: %v", v.ID, err)
		}
		if got.ID != v.ID {
			t.Errorf("ByID(%q).ID = %q", v.ID, got.ID)
		}
	}
}

func TestByID_NotFound(t *testing.T) {
	c := Default()

	_, err := c.ByID("phi9")
	if err == nil {
		t.Fatal("Expected error for unknown id")
	}
	if !IsNotFound(err) {
		t.Errorf("Expected NotFound, got %v", err)
	}
}

func TestList_StableOrderAndCopy(t *testing.T) {
	c := Default()

	first := c.List()
	first[0].Tags[0] = "mutated"
	first[0].ID = "mutated"

	second := c.List()
	if second[0].ID != "phi2" {
		t.Errorf("Expected first variant phi2, got %s", second[0].ID)
	}
	if second[0].Tags[0] == "mutated" {
		t.Error("List() must return copies")
	}

	want := []string{"phi2", "phi3", "phi3.5", "phi4", "phi4-mini"}
	if strings.Join(c.IDs(), ",") != strings.Join(want, ",") {
		t.Errorf("IDs() = %v, want %v", c.IDs(), want)
	}
}

func TestNew_Validation(t *testing.T) {
	valid := ModelVariant{ID: "v-small", Repo: "acme/v-small", ParamsBillions: 2.0, ContextLength: 2048}

	tests := []struct {
		name     string
		variants []ModelVariant
		wantErr  string
	}{
		{"valid", []ModelVariant{valid}, ""},
		{"duplicate id", []ModelVariant{valid, valid}, "duplicate id"},
		{"empty id", []ModelVariant{{Repo: "a/b", ParamsBillions: 1, ContextLength: 1}}, "id must not be empty"},
		{"zero params", []ModelVariant{{ID: "x", Repo: "a/b", ContextLength: 1}}, "params_billions"},
		{"zero context", []ModelVariant{{ID: "x", Repo: "a/b", ParamsBillions: 1}}, "context_length"},
		{"missing repo", []ModelVariant{{ID: "x", ParamsBillions: 1, ContextLength: 1}}, "repo"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.variants...)
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("New() unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("New() error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestVariantHelpers(t *testing.T) {
	c := Default()

	tests := []struct {
		id     string
		edge   bool
		coding bool
		math   bool
	}{
		{"phi2", true, true, false},
		{"phi3", true, true, true},
		{"phi3.5", true, false, false},
		{"phi4", false, false, true},
		{"phi4-mini", true, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			v, err := c.ByID(tt.id)
			if err != nil {
				t.Fatal(err)
			}
			if v.EdgeSuitable() != tt.edge {
				t.Errorf("EdgeSuitable() = %v, want %v", v.EdgeSuitable(), tt.edge)
			}
			if v.SupportsCoding() != tt.coding {
				t.Errorf("SupportsCoding() = %v, want %v", v.SupportsCoding(), tt.coding)
			}
			if v.SupportsMath() != tt.math {
				t.Errorf("SupportsMath() = %v, want %v", v.SupportsMath(), tt.math)
			}
		})
	}
}

func TestDescribe(t *testing.T) {
	v, _ := Default().ByID("phi4")

	out := v.Describe()
	for _, want := range []string{"Phi-4 (14B parameters)", "Context: 16384 tokens", "Edge suitable: no"} {
		if !strings.Contains(out, want) {
			t.Errorf("Describe() missing %q in:\n%s", want, out)
		}
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	content := `
variants:
  - id: v-small
    repo: acme/v-small
    params_billions: 2.0
    context_length: 2048
    tags: [coding]
  - id: v-large
    display_name: V Large
    repo: acme/v-large
    params_billions: 13
    context_length: 8192
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	c, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile() error: %v", err)
	}
	if c.Len() != 2 {
		t.Fatalf("Expected 2 variants, got %d", c.Len())
	}

	small, _ := c.ByID("v-small")
	if small.DisplayName != "v-small" {
		t.Errorf("Expected display name to default to id, got %q", small.DisplayName)
	}
	if !small.SupportsCoding() {
		t.Error("Expected v-small to support coding")
	}
}

func TestLoadFile_Empty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	if err := os.WriteFile(path, []byte("variants: []\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	if _, err := LoadFile(path); err == nil {
		t.Error("Expected error for empty catalog")
	}
}

func TestLoad_DefaultWhenEmptyPath(t *testing.T) {
	c, err := Load("")
	if err != nil {
		t.Fatal(err)
	}
	if c.Len() != Default().Len() {
		t.Errorf("Expected builtin catalog")
	}
}
