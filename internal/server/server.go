// Package server exposes the catalog over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/sptk-project/sptkdl/internal/catalog"
	"github.com/sptk-project/sptkdl/internal/storage"
	"github.com/sptk-project/sptkdl/internal/version"
)

const shutdownTimeout = 5 * time.Second

// Options configures a Server.
type Options struct {
	Builder  *catalog.Builder
	// Files is the artifact tree served under /download. Nil disables downloads.
	Files    fs.FS
	Targets  []catalog.OSTarget
	Registry *prometheus.Registry
	Metrics  *Metrics
	Logger   *slog.Logger
}

// Server serves the catalog API, artifact downloads and metrics.
type Server struct {
	builder  *catalog.Builder
	files    fs.FS
	targets  map[string]bool
	registry *prometheus.Registry
	metrics  *Metrics
	logger   *slog.Logger
}

// New creates a Server. A nil Registry gets a fresh one with the catalog metrics registered.
func New(opts Options) *Server {
	s := &Server{
		builder:  opts.Builder,
		files:    opts.Files,
		targets:  make(map[string]bool, len(opts.Targets)),
		registry: opts.Registry,
		metrics:  opts.Metrics,
		logger:   opts.Logger,
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	if s.registry == nil {
		s.registry = prometheus.NewRegistry()
		if s.metrics == nil {
			s.metrics = NewMetrics(s.registry)
		}
	}
	for _, t := range opts.Targets {
		s.targets[t.Key] = true
	}
	return s
}

// Handler returns the routed handler.
func (s *Server) Handler() http.Handler {
	router := mux.NewRouter()
	router.StrictSlash(false)
	router.SkipClean(true)
	router.UseEncodedPath() // Allow encoded values in path segments.

	router.HandleFunc("/api/catalog", s.handleCatalog).Methods(http.MethodGet, http.MethodHead)
	router.HandleFunc("/download/{version}/{os}/{name}", s.handleDownload).Methods(http.MethodGet, http.MethodHead)
	router.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
	router.Handle("/metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))

	router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "not found")
	})

	return s.logRequests(router)
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("failed to serve: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	s.logger.Info("shutting down", "addr", addr)
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down: %w", err)
	}
	return nil
}

func (s *Server) handleCatalog(w http.ResponseWriter, r *http.Request) {
	if s.builder == nil {
		writeJSON(w, http.StatusOK, catalog.Empty())
		return
	}

	start := time.Now()
	cat, stats := s.builder.Scan(r.Context())
	s.metrics.ObserveScan(stats, time.Since(start))

	writeJSON(w, http.StatusOK, cat)
}

func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	if s.files == nil {
		writeError(w, http.StatusNotFound, "downloads are not available")
		return
	}

	versionID, osKey, name, ok := s.downloadVars(r)
	if !ok {
		writeError(w, http.StatusNotFound, "not found")
		return
	}

	filePath := storage.JoinPath(versionID, osKey, name)
	info, err := fs.Stat(s.files, filePath)
	if err != nil || !info.Mode().IsRegular() {
		writeError(w, http.StatusNotFound, "not found")
		return
	}

	f, err := s.files.Open(filePath)
	if err != nil {
		s.logger.Warn("failed to open artifact", "path", filePath, "error", err)
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	defer func() {
		_ = f.Close()
	}()

	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))

	rs, ok := f.(io.ReadSeeker)
	if !ok {
		w.Header().Set("Content-Type", "application/octet-stream")
		w.Header().Set("Content-Length", fmt.Sprint(info.Size()))
		if r.Method == http.MethodHead {
			return
		}
		_, _ = io.Copy(w, f)
		return
	}
	http.ServeContent(w, r, name, info.ModTime(), rs)
}

// downloadVars extracts and re-validates the path segments. Every segment must
// name something the catalog could have listed.
func (s *Server) downloadVars(r *http.Request) (versionID, osKey, name string, ok bool) {
	vars := mux.Vars(r)

	var err error
	if versionID, err = url.PathUnescape(vars["version"]); err != nil || !version.Match(versionID) {
		return "", "", "", false
	}
	if osKey, err = url.PathUnescape(vars["os"]); err != nil || !s.targets[osKey] {
		return "", "", "", false
	}
	if name, err = url.PathUnescape(vars["name"]); err != nil || !catalog.SafeName(name) {
		return "", "", "", false
	}
	return versionID, osKey, name, true
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		defer func() {
			if v := recover(); v != nil {
				s.logger.Error("handler panicked", "method", r.Method, "path", r.URL.Path, "panic", v)
				writeError(rec, http.StatusInternalServerError, "internal error")
			}
			s.logger.Debug("request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", rec.status,
				"duration", time.Since(start),
			)
		}()

		next.ServeHTTP(rec, r)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
