package diag

import (
	"archive/zip"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestRedactor(t *testing.T) {
	r := NewRedactor()

	tests := []struct {
		name    string
		input   string
		hidden  string
		visible string
	}{
		{"yaml api key", "api_key: sk-12345", "sk-12345", "api_key: [REDACTED]"},
		{"flag assignment", "--token=abc123", "abc123", "--token=[REDACTED]"},
		{"json secret", `{"secret":"hunter2"}`, "hunter2", `"secret":"[REDACTED]"`},
		{"bearer", "Authorization: Bearer eyJhbGciOi.x.y", "eyJhbGciOi", "Bearer [REDACTED]"},
		{"url credentials", "endpoint: http://user:pw@localhost:8080/v1", ":pw@", "http://user:[REDACTED]@"},
		{"env var name kept", "api_key_env: PHISTACK_CHAT_API_KEY", "", "PHISTACK_CHAT_API_KEY"},
		{"max tokens kept", "max_tokens: 512", "", "max_tokens: 512"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := r.Redact(tt.input)
			if tt.hidden != "" && strings.Contains(got, tt.hidden) {
				t.Errorf("Redact(%q) = %q still contains %q", tt.input, got, tt.hidden)
			}
			if tt.visible != "" && !strings.Contains(got, tt.visible) {
				t.Errorf("Redact(%q) = %q, want it to contain %q", tt.input, got, tt.visible)
			}
		})
	}
}

func TestCollect(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "phistack.log")
	if err := os.WriteFile(logPath, []byte("request with Bearer abc.def\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	files, err := NewCollector(nil).Collect(Inputs{
		Config:     []byte("chat:\n  api_key: sk-live\n"),
		Profile:    map[string]int{"cpu_cores": 8},
		CacheStats: nil,
		LogFile:    logPath,
	})
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}

	if _, ok := files["cache_stats.json"]; ok {
		t.Error("nil cache stats should be skipped")
	}
	if strings.Contains(string(files["config/effective.yaml"]), "sk-live") {
		t.Error("config not redacted")
	}
	if strings.Contains(string(files["logs/phistack.log"]), "abc.def") {
		t.Error("log not redacted")
	}
	if !strings.Contains(string(files["system_profile.json"]), `"cpu_cores": 8`) {
		t.Errorf("profile = %s", files["system_profile.json"])
	}
}

func TestCollect_MissingLogSkipped(t *testing.T) {
	files, err := NewCollector(nil).Collect(Inputs{LogFile: filepath.Join(t.TempDir(), "absent.log")})
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}
	if len(files) != 0 {
		t.Errorf("expected no files, got %v", files)
	}
}

func TestCreatePackage(t *testing.T) {
	out := filepath.Join(t.TempDir(), "bundle.zip")
	in := Inputs{
		Version:    "1.2.3",
		Config:     []byte("cache:\n  dir: /tmp/models\n"),
		Profile:    map[string]string{"backend": "ndarray"},
		CacheStats: map[string]int{"artifact_count": 2},
	}

	if err := NewPackager(nil).CreatePackage(in, out); err != nil {
		t.Fatalf("CreatePackage: %v", err)
	}

	zr, err := zip.OpenReader(out)
	if err != nil {
		t.Fatalf("open zip: %v", err)
	}
	defer zr.Close()

	contents := map[string][]byte{}
	for _, f := range zr.File {
		rc, err := f.Open()
		if err != nil {
			t.Fatal(err)
		}
		data, _ := io.ReadAll(rc)
		_ = rc.Close()
		contents[f.Name] = data
	}

	for _, name := range []string{"config/effective.yaml", "system_profile.json", "cache_stats.json", ManifestName} {
		if _, ok := contents[name]; !ok {
			t.Errorf("bundle missing %s", name)
		}
	}

	var manifest Manifest
	if err := json.Unmarshal(contents[ManifestName], &manifest); err != nil {
		t.Fatalf("manifest: %v", err)
	}
	if manifest.Version != "1.2.3" || len(manifest.Files) != 3 {
		t.Errorf("manifest = %+v", manifest)
	}
	for _, mf := range manifest.Files {
		if mf.Digest != Digest(contents[mf.Path]) {
			t.Errorf("digest mismatch for %s", mf.Path)
		}
	}
}

func TestCreatePackage_BadOutputPath(t *testing.T) {
	out := filepath.Join(t.TempDir(), "missing", "bundle.zip")
	if err := NewPackager(nil).CreatePackage(Inputs{}, out); err == nil {
		t.Fatal("expected error")
	}
}
