package httpapi

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"phistack/internal/capability"
	"phistack/internal/catalog"
	"phistack/internal/metrics"
	"phistack/internal/modelcache"
)

type staticProber struct {
	profile capability.SystemProfile
}

func (p staticProber) Memory() (uint64, uint64, error) {
	return p.profile.MemTotal, p.profile.MemAvailable, nil
}

func (p staticProber) Disk(string) (uint64, uint64, error) {
	return p.profile.DiskTotal, p.profile.DiskAvailable, nil
}

func (p staticProber) CPUCores() (int, error) { return p.profile.CPUCores, nil }

func (p staticProber) Accelerators() (capability.Accelerators, error) {
	return p.profile.Accelerators, nil
}

type fixture struct {
	srv     *httptest.Server
	cache   *modelcache.Manager
	mirror  string
	metrics *metrics.Metrics
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	dir := t.TempDir()
	mirror := filepath.Join(dir, "mirror")
	if err := os.MkdirAll(mirror, 0o750); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(mirror, modelcache.ArtifactName("microsoft/phi-2")), []byte("phi2 weights"), 0o600); err != nil {
		t.Fatal(err)
	}

	cache, err := modelcache.NewManager(modelcache.Options{
		Root:    filepath.Join(dir, "models"),
		Fetcher: modelcache.NewMirrorFetcher(mirror),
	})
	if err != nil {
		t.Fatal(err)
	}

	const gib = uint64(1) << 30
	advisor := capability.NewAdvisor(staticProber{profile: capability.SystemProfile{
		MemTotal: 16 * gib, MemAvailable: 8 * gib,
		DiskTotal: 500 * gib, DiskAvailable: 100 * gib,
		CPUCores: 8, Accelerators: capability.Accelerators{CUDA: true, DeviceCount: 1},
	}}, dir, nil, nil)

	m := metrics.New()
	s, err := NewServer(Options{
		Catalog:     catalog.Default(),
		Cache:       cache,
		Advisor:     advisor,
		Metrics:     m,
		CORSOrigins: []string{"http://localhost:3000"},
	})
	if err != nil {
		t.Fatal(err)
	}

	srv := httptest.NewServer(s.Handler())
	t.Cleanup(srv.Close)
	return &fixture{srv: srv, cache: cache, mirror: mirror, metrics: m}
}

func (f *fixture) do(t *testing.T, method, path string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(method, f.srv.URL+path, nil)
	if err != nil {
		t.Fatal(err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func decode(t *testing.T, resp *http.Response, v interface{}) {
	t.Helper()
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		t.Fatalf("decode: %v", err)
	}
}

func TestNewServerRequiresDependencies(t *testing.T) {
	if _, err := NewServer(Options{}); err == nil {
		t.Fatal("expected error")
	}
}

func TestModels(t *testing.T) {
	f := newFixture(t)

	resp := f.do(t, http.MethodGet, "/models")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	var body struct {
		Models []catalog.ModelVariant `json:"models"`
	}
	decode(t, resp, &body)
	if len(body.Models) != 5 || body.Models[0].ID != "phi2" {
		t.Errorf("unexpected models %+v", body.Models)
	}

	resp = f.do(t, http.MethodGet, "/models/phi4")
	var v catalog.ModelVariant
	decode(t, resp, &v)
	if v.Repo != "microsoft/Phi-4-onnx" {
		t.Errorf("repo = %q", v.Repo)
	}
}

func TestUnknownModelIs404(t *testing.T) {
	f := newFixture(t)

	for _, path := range []string{"/models/nope", "/feasibility/nope"} {
		resp := f.do(t, http.MethodGet, path)
		if resp.StatusCode != http.StatusNotFound {
			t.Errorf("%s status = %d", path, resp.StatusCode)
		}
		var e ErrorResponse
		decode(t, resp, &e)
		if e.Code != "not_found" || e.Error == "" {
			t.Errorf("%s error body = %+v", path, e)
		}
	}
	if resp := f.do(t, http.MethodPost, "/cache/nope"); resp.StatusCode != http.StatusNotFound {
		t.Errorf("ensure unknown status = %d", resp.StatusCode)
	}
}

func TestSystemAndFeasibility(t *testing.T) {
	f := newFixture(t)

	var sys systemResponse
	decode(t, f.do(t, http.MethodGet, "/system"), &sys)
	if sys.Backend != capability.BackendCUDA || sys.MemAvailable != "8.0 GB" {
		t.Errorf("system = %+v", sys)
	}

	var small feasibilityResponse
	decode(t, f.do(t, http.MethodGet, "/feasibility/phi3"), &small)
	if !small.Report.CanRun {
		t.Errorf("phi3 should fit: %+v", small.Report)
	}

	var big feasibilityResponse
	decode(t, f.do(t, http.MethodGet, "/feasibility/phi4"), &big)
	if big.Report.CanRun || len(big.Report.Issues) == 0 {
		t.Errorf("phi4 should not fit: %+v", big.Report)
	}
}

func TestEnsureListAndClear(t *testing.T) {
	f := newFixture(t)

	resp := f.do(t, http.MethodPost, "/cache/phi2")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("ensure status = %d", resp.StatusCode)
	}
	var entry modelcache.CacheEntry
	decode(t, resp, &entry)
	if !entry.Cached || filepath.Base(entry.Path) != "microsoft_phi-2.onnx" {
		t.Errorf("entry = %+v", entry)
	}

	var listing cacheResponse
	decode(t, f.do(t, http.MethodGet, "/cache"), &listing)
	if listing.Size != int64(len("phi2 weights")) {
		t.Errorf("size = %d", listing.Size)
	}
	cached := 0
	for _, e := range listing.Entries {
		if e.Cached {
			cached++
		}
	}
	if len(listing.Entries) != 5 || cached != 1 {
		t.Errorf("entries = %+v", listing.Entries)
	}
	if len(listing.Foreign) != 0 {
		t.Errorf("uncatalogued = %v, want none", listing.Foreign)
	}

	if err := os.WriteFile(filepath.Join(f.cache.Root(), modelcache.ArtifactName("acme/extra")), []byte("x"), 0o600); err != nil {
		t.Fatal(err)
	}
	decode(t, f.do(t, http.MethodGet, "/cache"), &listing)
	if len(listing.Foreign) != 1 || listing.Foreign[0] != "acme/extra" {
		t.Errorf("uncatalogued = %v, want [acme/extra]", listing.Foreign)
	}

	if resp := f.do(t, http.MethodDelete, "/cache"); resp.StatusCode != http.StatusNoContent {
		t.Fatalf("clear status = %d", resp.StatusCode)
	}
	if size, _ := f.cache.CacheSize(); size != 0 {
		t.Errorf("size after clear = %d", size)
	}
}

func TestEnsureUnknownRepoIs502(t *testing.T) {
	f := newFixture(t)

	resp := f.do(t, http.MethodPost, "/cache/phi3")
	if resp.StatusCode != http.StatusBadGateway {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	var e ErrorResponse
	decode(t, resp, &e)
	if e.Code != "unknown_repo" {
		t.Errorf("code = %q", e.Code)
	}
}

func TestCacheIOErrorIs500(t *testing.T) {
	f := newFixture(t)
	if err := os.MkdirAll(filepath.Dir(f.cache.Root()), 0o750); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(f.cache.Root(), []byte("not a dir"), 0o600); err != nil {
		t.Fatal(err)
	}

	resp := f.do(t, http.MethodPost, "/cache/phi2")
	if resp.StatusCode != http.StatusInternalServerError {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	var e ErrorResponse
	decode(t, resp, &e)
	if e.Code != "io" {
		t.Errorf("code = %q", e.Code)
	}
}

func TestHealthzAndMetrics(t *testing.T) {
	f := newFixture(t)

	if resp := f.do(t, http.MethodGet, "/healthz"); resp.StatusCode != http.StatusOK {
		t.Fatalf("healthz status = %d", resp.StatusCode)
	}
	_ = f.do(t, http.MethodGet, "/models/phi2")
	if resp := f.do(t, http.MethodGet, "/no/such/route-7f3a"); resp.StatusCode != http.StatusNotFound {
		t.Fatalf("unknown route status = %d", resp.StatusCode)
	}

	resp := f.do(t, http.MethodGet, "/metrics")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("metrics status = %d", resp.StatusCode)
	}
	buf := new(strings.Builder)
	if _, err := io.Copy(buf, resp.Body); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), `path="/models/{id}"`) {
		t.Errorf("expected route pattern label in metrics output")
	}
	if !strings.Contains(buf.String(), `path="unmatched"`) || strings.Contains(buf.String(), "route-7f3a") {
		t.Errorf("unknown routes must be labelled unmatched, not by path")
	}
}

func TestCORSPreflight(t *testing.T) {
	f := newFixture(t)

	req, _ := http.NewRequest(http.MethodOptions, f.srv.URL+"/models", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodGet)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	if got := resp.Header.Get("Access-Control-Allow-Origin"); got != "http://localhost:3000" {
		t.Errorf("Allow-Origin = %q", got)
	}
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err    error
		status int
	}{
		{&modelcache.FetchError{Repo: "r", Err: modelcache.ErrCorrupt}, http.StatusBadGateway},
		{&modelcache.IOError{Op: "rename", Path: "/x", Err: os.ErrPermission}, http.StatusInternalServerError},
		{os.ErrClosed, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		if got, _ := statusFor(tt.err); got != tt.status {
			t.Errorf("statusFor(%v) = %d, want %d", tt.err, got, tt.status)
		}
	}
}
