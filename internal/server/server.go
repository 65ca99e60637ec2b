// Package server exposes the resolution and download engine over REST,
// mirroring the shape of the original SDS finder API.
package server

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"sdsfinder/internal/domain"
	"sdsfinder/internal/ports"
)

// BatchRunner is the slice of the batch coordinator the server needs.
type BatchRunner interface {
	RunBatch(ctx context.Context, identifiers []string, kind domain.Kind, targetDir string, concurrency int) (domain.BatchSummary, error)
}

// Server wires the search and download endpoints.
type Server struct {
	resolver ports.Resolver
	fetcher  ports.Fetcher
	batch    BatchRunner
	// tempRoot holds one directory per request so concurrent callers
	// never collide on filenames.
	tempRoot string
	poolSize int
	logger   *slog.Logger
}

// New constructs the server with its collaborators.
func New(resolver ports.Resolver, fetcher ports.Fetcher, batch BatchRunner, tempRoot string, poolSize int, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		resolver: resolver,
		fetcher:  fetcher,
		batch:    batch,
		tempRoot: tempRoot,
		poolSize: poolSize,
		logger:   logger,
	}
}

// Handler builds the HTTP routing table.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Get("/", s.handleIndex)
	r.Post("/search/cas", s.handleSearchCAS)
	r.Post("/search/product", s.handleSearchProduct)
	r.Post("/search/mixed", s.handleSearchMixed)
	r.Get("/download/{requestID}/{filename}", s.handleDownload)
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", promhttp.Handler())

	return r
}

func (s *Server) handleIndex(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"message":     "SDS Finder API",
		"description": "Search for Safety Data Sheets by CAS number or product name",
		"endpoints": map[string]string{
			"POST /search/cas":     "search by CAS number(s); optional download",
			"POST /search/product": "search by product name(s); optional download",
			"POST /search/mixed":   "search by CAS numbers and product names together",
			"GET /download/{request_id}/{filename}": "retrieve a previously downloaded sheet",
		},
	})
}

func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	requestID := chi.URLParam(r, "requestID")
	filename := chi.URLParam(r, "filename")

	// Request IDs are always UUIDs we minted; anything else is a probe.
	if _, err := uuid.Parse(requestID); err != nil {
		writeError(w, http.StatusNotFound, "file not found")
		return
	}
	if strings.ContainsAny(filename, "/\\") || filename == ".." {
		writeError(w, http.StatusNotFound, "file not found")
		return
	}

	path := filepath.Join(s.tempRoot, requestID, filename)
	http.ServeFile(w, r, path)
}

// requestDir mints the isolation directory for one search request.
func (s *Server) requestDir() (string, string) {
	requestID := uuid.NewString()
	return requestID, filepath.Join(s.tempRoot, requestID)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
