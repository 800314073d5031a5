// Package server exposes the parser registry and batch sessions over HTTP.
package server

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/joseph-ayodele/pdf-data-extractor/internal/common"
	"github.com/joseph-ayodele/pdf-data-extractor/internal/export"
	"github.com/joseph-ayodele/pdf-data-extractor/internal/extract"
	"github.com/joseph-ayodele/pdf-data-extractor/internal/registry"
)

// Server is the HTTP API server.
type Server struct {
	router    chi.Router
	registry  *registry.Registry
	extractor extract.TextExtractor
	exporter  *export.Service
	sessions  *sessionStore
	log       *slog.Logger
	cfg       common.ServerConfig
}

// NewServer creates and configures the HTTP server.
func NewServer(reg *registry.Registry, extractor extract.TextExtractor, log *slog.Logger, cfg common.ServerConfig) *Server {
	if log == nil {
		log = slog.Default()
	}
	s := &Server{
		registry:  reg,
		extractor: extractor,
		exporter:  export.NewService(log),
		sessions:  newSessionStore(),
		log:       log,
		cfg:       cfg,
	}
	s.setupRoutes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) setupRoutes() {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(RequestLogger(s.log))

	r.Get("/health", s.handleHealth)

	r.Route("/api/parsers", func(r chi.Router) {
		r.Get("/", s.handleListParsers)
		r.Post("/", s.handleUpsertParser)
		r.Delete("/{index}", s.handleRemoveParser)
		r.Get("/templates", s.handleExportTemplates)
		r.Put("/templates", s.handleImportTemplates)
	})

	r.Route("/api/sessions", func(r chi.Router) {
		r.Post("/", s.handleCreateSession)
		r.Route("/{sessionID}", func(r chi.Router) {
			r.Get("/", s.handleGetSession)
			r.Delete("/", s.handleDeleteSession)
			r.Post("/batches", s.handleStartBatch)
			r.Post("/credential", s.handleSubmitCredential)
			r.Post("/skip", s.handleSkip)
			r.Get("/consolidated", s.handleConsolidated)
			r.Get("/documents/{docIndex}/tsv", s.handleDocumentTSV)
			r.Get("/export.xlsx", s.handleExportXLSX)
		})
	})

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}
