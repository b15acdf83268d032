package main

import (
	"archive/zip"
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"phistack/internal/modelcache"
)

type env struct {
	dir    string
	config string
	cache  string
}

func newEnv(t *testing.T) env {
	t.Helper()
	dir := t.TempDir()
	cache := filepath.Join(dir, "models")
	mirror := filepath.Join(dir, "mirror")
	if err := os.MkdirAll(mirror, 0o750); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(mirror, modelcache.ArtifactName("microsoft/phi-2")), []byte("phi-2 weights"), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg := "cache:\n  mirror_dir: " + mirror + "\nlogging:\n  level: error\n  format: text\n"
	configPath := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(configPath, []byte(cfg), 0o600); err != nil {
		t.Fatal(err)
	}

	t.Setenv("PHISTACK_CACHE_DIR", cache)
	t.Setenv("PHISTACK_STATE_DIR", filepath.Join(dir, "state"))
	return env{dir: dir, config: configPath, cache: cache}
}

func (e env) run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(append([]string{"--config", e.config}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func TestVersion(t *testing.T) {
	e := newEnv(t)
	out, err := e.run(t, "", "version")
	if err != nil {
		t.Fatalf("version: %v", err)
	}
	if !strings.Contains(out, "phistack version "+version) {
		t.Errorf("output = %q", out)
	}
}

func TestModelsCommands(t *testing.T) {
	e := newEnv(t)

	out, err := e.run(t, "", "models", "list")
	if err != nil {
		t.Fatalf("models list: %v", err)
	}
	for _, id := range []string{"phi2", "phi3", "phi3.5", "phi4", "phi4-mini"} {
		if !strings.Contains(out, id) {
			t.Errorf("models list missing %s", id)
		}
	}

	out, err = e.run(t, "", "models", "list", "--tag", "coding")
	if err != nil {
		t.Fatalf("models list --tag: %v", err)
	}
	if !strings.Contains(out, "phi3 ") || strings.Contains(out, "phi4") {
		t.Errorf("tag filter output = %q", out)
	}

	out, err = e.run(t, "", "models", "info", "phi4")
	if err != nil {
		t.Fatalf("models info: %v", err)
	}
	if !strings.Contains(out, "14B parameters") {
		t.Errorf("info output = %q", out)
	}

	if _, err := e.run(t, "", "models", "info", "nope"); err == nil {
		t.Error("expected error for unknown variant")
	}
}

func TestCacheLifecycle(t *testing.T) {
	e := newEnv(t)

	out, err := e.run(t, "", "cache", "ensure", "phi2")
	if err != nil {
		t.Fatalf("cache ensure: %v\n%s", err, out)
	}
	want := filepath.Join(e.cache, "microsoft_phi-2.onnx")
	if !strings.Contains(out, want) {
		t.Errorf("ensure output %q missing path %s", out, want)
	}

	out, err = e.run(t, "", "cache", "list")
	if err != nil || !strings.Contains(out, "microsoft/phi-2") {
		t.Errorf("cache list = %q, %v", out, err)
	}

	out, err = e.run(t, "", "cache", "size")
	if err != nil || !strings.Contains(out, "13 bytes") {
		t.Errorf("cache size = %q, %v", out, err)
	}

	out, err = e.run(t, "", "cache", "verify", "phi2")
	if err != nil || !strings.Contains(out, "phi2: OK") {
		t.Errorf("cache verify = %q, %v", out, err)
	}

	out, err = e.run(t, "", "cache", "stats")
	if err != nil || !strings.Contains(out, "Artifacts:  1") {
		t.Errorf("cache stats = %q, %v", out, err)
	}

	out, err = e.run(t, "no\n", "cache", "clear")
	if err != nil || !strings.Contains(out, "Aborted.") {
		t.Errorf("cache clear without confirmation = %q, %v", out, err)
	}

	if _, err := e.run(t, "", "cache", "clear", "--yes"); err != nil {
		t.Fatalf("cache clear: %v", err)
	}
	if _, err := os.Stat(want); !os.IsNotExist(err) {
		t.Errorf("artifact survived clear: %v", err)
	}
}

func TestCacheEnsureUnknownRepo(t *testing.T) {
	e := newEnv(t)
	_, err := e.run(t, "", "cache", "ensure", "-q", "phi4")
	if !modelcache.IsFetchError(err) {
		t.Fatalf("expected FetchError, got %v", err)
	}
}

func TestCacheRemoveAndEvict(t *testing.T) {
	e := newEnv(t)
	if _, err := e.run(t, "", "cache", "ensure", "-q", "phi2"); err != nil {
		t.Fatal(err)
	}

	out, err := e.run(t, "", "cache", "evict-oldest")
	if err != nil || !strings.Contains(out, "Evicted phi2") {
		t.Errorf("evict-oldest = %q, %v", out, err)
	}
	if _, err := e.run(t, "", "cache", "evict-oldest"); err == nil {
		t.Error("expected error evicting from an empty cache")
	}

	if _, err := e.run(t, "", "cache", "ensure", "-q", "phi2"); err != nil {
		t.Fatal(err)
	}
	out, err = e.run(t, "", "cache", "remove", "phi2")
	if err != nil || !strings.Contains(out, "Removed phi2") {
		t.Errorf("remove = %q, %v", out, err)
	}
}

func TestCheckAndSystem(t *testing.T) {
	e := newEnv(t)

	out, err := e.run(t, "", "check", "phi2")
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if !strings.Contains(out, "Can run:") || !strings.Contains(out, "Backend:") {
		t.Errorf("check output = %q", out)
	}

	if _, err := e.run(t, "", "check", "--all"); err != nil {
		t.Fatalf("check --all: %v", err)
	}

	out, err = e.run(t, "", "system")
	if err != nil || !strings.Contains(out, "CPU cores:") {
		t.Errorf("system = %q, %v", out, err)
	}

	report := filepath.Join(e.dir, "gpu.json")
	out, err = e.run(t, "", "system", "--gpu-report", report)
	if err != nil || !strings.Contains(out, "GPU report written") {
		t.Errorf("system --gpu-report = %q, %v", out, err)
	}
	if _, err := os.Stat(report); err != nil {
		t.Errorf("gpu report not written: %v", err)
	}
}

func TestConfigCommands(t *testing.T) {
	e := newEnv(t)

	out, err := e.run(t, "", "config", "show")
	if err != nil {
		t.Fatalf("config show: %v", err)
	}
	if !strings.Contains(out, "mirror_dir:") || !strings.Contains(out, e.cache) {
		t.Errorf("config show = %q", out)
	}

	bad := filepath.Join(e.dir, "bad.yaml")
	if err := os.WriteFile(bad, []byte("logging:\n  level: loud\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := e.run(t, "", "config", "validate", bad); err == nil {
		t.Error("expected validation error")
	}
	out, err = e.run(t, "", "config", "validate", e.config)
	if err != nil || !strings.Contains(out, "valid") {
		t.Errorf("validate = %q, %v", out, err)
	}
}

func TestGlobalFlagsOverrideConfig(t *testing.T) {
	e := newEnv(t)
	other := filepath.Join(e.dir, "other-cache")

	out, err := e.run(t, "", "--cache-dir", other, "--fetch-timeout", "5m", "--log-level", "warn", "config", "show")
	if err != nil {
		t.Fatalf("config show: %v", err)
	}
	for _, want := range []string{other, "5m0s", "level: warn"} {
		if !strings.Contains(out, want) {
			t.Errorf("config show missing %q:\n%s", want, out)
		}
	}
}

func TestDiagBundle(t *testing.T) {
	e := newEnv(t)
	if _, err := e.run(t, "", "cache", "ensure", "-q", "phi2"); err != nil {
		t.Fatalf("ensure: %v", err)
	}

	bundle := filepath.Join(e.dir, "bundle.zip")
	out, err := e.run(t, "", "diag", "--output", bundle)
	if err != nil {
		t.Fatalf("diag: %v", err)
	}
	if !strings.Contains(out, bundle) {
		t.Errorf("output = %q", out)
	}

	zr, err := zip.OpenReader(bundle)
	if err != nil {
		t.Fatalf("open bundle: %v", err)
	}
	defer zr.Close()

	names := map[string]bool{}
	for _, f := range zr.File {
		names[f.Name] = true
	}
	for _, want := range []string{"config/effective.yaml", "system_profile.json", "cache_stats.json", "diag_manifest.json"} {
		if !names[want] {
			t.Errorf("bundle missing %s (have %v)", want, names)
		}
	}
}
