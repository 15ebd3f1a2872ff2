// Package server provides the HTTP API for Shirabe.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/hyperjump/shirabe/internal/config"
	"github.com/hyperjump/shirabe/internal/engine"
	"github.com/hyperjump/shirabe/internal/index"
	"github.com/hyperjump/shirabe/internal/ingest"
	"github.com/hyperjump/shirabe/internal/store"
)

// Server is the HTTP server for the Shirabe API.
type Server struct {
	engine   *engine.Engine
	ingester *ingest.Ingester
	registry *store.SQLiteStore
	pages    *index.PageIndex
	signer   *store.LinkSigner
	config   *config.Config
	logger   *zap.Logger
	server   *http.Server
}

// NewServer creates a server with the given dependencies.
func NewServer(
	eng *engine.Engine,
	ingester *ingest.Ingester,
	registry *store.SQLiteStore,
	pages *index.PageIndex,
	signer *store.LinkSigner,
	cfg *config.Config,
	logger *zap.Logger,
) *Server {
	return &Server{
		engine:   eng,
		ingester: ingester,
		registry: registry,
		pages:    pages,
		signer:   signer,
		config:   cfg,
		logger:   logger,
	}
}

// Router builds the chi router with all routes mounted.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(middleware.Compress(5))

	r.Post("/api/v1/ask", s.handleAsk)
	r.Post("/api/v1/linkify", s.handleLinkify)
	r.Post("/api/v1/ingest", s.handleIngest)
	r.Get("/api/v1/documents", s.handleListDocuments)
	r.Delete("/api/v1/documents", s.handleDeleteDocument)
	r.Get("/api/v1/status", s.handleStatus)
	r.Get("/files/*", s.handleFile)
	r.Get("/health", s.handleHealth)

	return r
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Server.Host, s.config.Server.Port)
	s.server = &http.Server{
		Addr:    addr,
		Handler: s.Router(),
	}
	s.logger.Info("Starting server", zap.String("addr", addr))
	return s.server.ListenAndServe()
}

// Stop gracefully shuts down the server.
func (s *Server) Stop(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}
