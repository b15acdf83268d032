package httpapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"phistack/internal/capability"
	"phistack/internal/catalog"
	"phistack/internal/logging"
	"phistack/internal/metrics"
	"phistack/internal/modelcache"
)

// Options wires the server to the catalog, cache and advisor.
type Options struct {
	Catalog     *catalog.Catalog
	Cache       *modelcache.Manager
	Advisor     *capability.Advisor
	Metrics     *metrics.Metrics
	Logger      *logging.Logger
	CORSOrigins []string
}

// Server exposes the catalog, cache and advisor over HTTP.
type Server struct {
	opts   Options
	logger *logging.Logger
	router chi.Router
}

// NewServer builds the router.
func NewServer(opts Options) (*Server, error) {
	if opts.Catalog == nil || opts.Cache == nil || opts.Advisor == nil {
		return nil, fmt.Errorf("httpapi: catalog, cache and advisor are required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.Discard()
	}

	s := &Server{opts: opts, logger: logger}
	s.router = s.routes()
	return s, nil
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	if len(s.opts.CORSOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: s.opts.CORSOrigins,
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
			AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-Id"},
			MaxAge:         300,
		}))
	}
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("X-Content-Type-Options", "nosniff")
			next.ServeHTTP(w, r)
		})
	})
	r.Use(instrument(s.opts.Metrics, s.logger))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	if s.opts.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.opts.Metrics.Handler())
	}

	r.Get("/models", s.listModels)
	r.Get("/models/{id}", s.getModel)
	r.Get("/system", s.system)
	r.Get("/feasibility/{id}", s.feasibility)

	r.Get("/cache", s.listCache)
	r.Post("/cache/{id}", s.ensure)
	r.Delete("/cache", s.clearCache)

	return r
}

// ListenAndServe serves until ctx is canceled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http.server.start", "HTTP API listening", map[string]interface{}{
			"addr": addr,
		})
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	s.logger.Info("http.server.stop", "HTTP API shutting down", nil)
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
