// Package server exposes the dataset catalog and the renderers over HTTP.
package server

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/pmav99/thalassa/internal/catalog"
	"github.com/pmav99/thalassa/internal/lru"
	"github.com/pmav99/thalassa/internal/observability"
	"github.com/pmav99/thalassa/tiles"
)

// Server serves the JSON API, rendered PNGs and the basemap tile proxy.
type Server struct {
	httpServer  *http.Server
	logger      *slog.Logger
	metrics     *observability.Metrics
	catalog     *catalog.Catalog
	tiles       tiles.Fetcher // nil disables the tile proxy and basemaps
	renderCache *lru.Cache[[]byte]
}

// NewServer wires the catalog and renderers into an HTTP server.
func NewServer(addr string, cat *catalog.Catalog, fetcher tiles.Fetcher, renderCacheSize int, logger *slog.Logger, metrics *observability.Metrics) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 120 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		logger:      logger,
		metrics:     metrics,
		catalog:     cat,
		tiles:       fetcher,
		renderCache: lru.New[[]byte](renderCacheSize),
	}

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.Handle("GET /metrics", promhttp.Handler())

	mux.HandleFunc("GET /api/colormaps", s.handleColormaps)
	mux.HandleFunc("GET /api/datasets", s.handleDatasets)
	mux.HandleFunc("GET /api/datasets/{name}", s.handleDataset)
	mux.HandleFunc("GET /api/datasets/{name}/raster", s.handleRaster)
	mux.HandleFunc("GET /api/datasets/{name}/mesh", s.handleMesh)
	mux.HandleFunc("GET /api/datasets/{name}/nodes", s.handleNodes)
	mux.HandleFunc("GET /api/datasets/{name}/timeseries", s.handleTimeseries)
	mux.HandleFunc("GET /api/datasets/{name}/boundary", s.handleBoundary)
	mux.HandleFunc("GET /tiles/{z}/{x}/{y}", s.handleTile)

	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func (s *Server) handleReady(w http.ResponseWriter, _ *http.Request) {
	if !s.catalog.Ready() {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status": "not ready",
			"error":  "initial catalog scan has not completed",
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // best-effort response
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func writePNG(w http.ResponseWriter, data []byte) {
	w.Header().Set("Content-Type", "image/png")
	w.Write(data) //nolint:errcheck // client gone
}

// renderID produces a deterministic cache key from the render parameters and
// the file's modification time, so stale images fall out after a reload.
func renderID(kind, dataset string, modTime time.Time, query string) string {
	input := fmt.Sprintf("%s|%s|%d|%s", kind, dataset, modTime.UnixNano(), query)
	hash := sha256.Sum256([]byte(input))
	return hex.EncodeToString(hash[:])
}
