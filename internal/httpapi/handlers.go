package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"phistack/internal/capability"
	"phistack/internal/catalog"
	"phistack/internal/modelcache"
)

type systemResponse struct {
	Profile       capability.SystemProfile `json:"profile"`
	Backend       capability.Backend       `json:"backend"`
	MemAvailable  string                   `json:"mem_available_human"`
	DiskAvailable string                   `json:"disk_available_human"`
}

type feasibilityResponse struct {
	Variant catalog.ModelVariant         `json:"variant"`
	Report  capability.FeasibilityReport `json:"report"`
	Backend capability.Backend           `json:"backend"`
}

type cacheResponse struct {
	Root    string                  `json:"root"`
	Size    int64                   `json:"size"`
	Entries []modelcache.CacheEntry `json:"entries"`
	Foreign []string                `json:"uncatalogued,omitempty"`
}

func (s *Server) variant(r *http.Request) (catalog.ModelVariant, error) {
	return s.opts.Catalog.ByID(chi.URLParam(r, "id"))
}

func (s *Server) listModels(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{"models": s.opts.Catalog.List()})
}

func (s *Server) getModel(w http.ResponseWriter, r *http.Request) {
	v, err := s.variant(r)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

func (s *Server) system(w http.ResponseWriter, r *http.Request) {
	p := s.opts.Advisor.Snapshot(r.Context())
	writeJSON(w, http.StatusOK, systemResponse{
		Profile:       p,
		Backend:       capability.RecommendedBackend(p),
		MemAvailable:  capability.FormatBytes(p.MemAvailable),
		DiskAvailable: capability.FormatBytes(p.DiskAvailable),
	})
}

func (s *Server) feasibility(w http.ResponseWriter, r *http.Request) {
	v, err := s.variant(r)
	if err != nil {
		writeError(w, err)
		return
	}
	p, report := s.opts.Advisor.Check(r.Context(), v)
	writeJSON(w, http.StatusOK, feasibilityResponse{Variant: v, Report: report, Backend: capability.RecommendedBackend(p)})
}

func (s *Server) listCache(w http.ResponseWriter, _ *http.Request) {
	size, err := s.opts.Cache.CacheSize()
	if err != nil {
		writeError(w, err)
		return
	}
	_, uncatalogued, err := s.opts.Cache.CachedVariants(s.opts.Catalog)
	if err != nil {
		writeError(w, err)
		return
	}

	resp := cacheResponse{Root: s.opts.Cache.Root(), Size: size, Entries: []modelcache.CacheEntry{}, Foreign: uncatalogued}
	for _, v := range s.opts.Catalog.List() {
		resp.Entries = append(resp.Entries, s.opts.Cache.Entry(v))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) ensure(w http.ResponseWriter, r *http.Request) {
	v, err := s.variant(r)
	if err != nil {
		writeError(w, err)
		return
	}
	path, err := s.opts.Cache.Ensure(r.Context(), v)
	if err != nil {
		s.logger.Warn("http.ensure.failed", "Ensure failed", map[string]interface{}{
			"variant": v.ID,
			"error":   err.Error(),
		})
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, modelcache.CacheEntry{VariantID: v.ID, Path: path, Cached: true})
}

func (s *Server) clearCache(w http.ResponseWriter, _ *http.Request) {
	if err := s.opts.Cache.Clear(); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
