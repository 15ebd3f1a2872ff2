package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/hyperjump/shirabe/internal/assemble"
	"github.com/hyperjump/shirabe/internal/models"
)

func (s *Server) handleAsk(w http.ResponseWriter, r *http.Request) {
	var req models.AskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	s.logger.Debug("ask request",
		zap.String("question", req.Question),
		zap.Strings("selected", req.SelectedDocuments),
		zap.String("folder", req.Folder))

	result, err := s.engine.Ask(r.Context(), &req)
	if errors.Is(err, assemble.ErrNoEvidence) {
		s.respondJSON(w, http.StatusOK, map[string]interface{}{
			"context":    "",
			"citations":  []models.Citation{},
			"no_results": true,
		})
		return
	}
	if err != nil {
		if req.Question == "" {
			s.respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		s.logger.Error("ask failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, result)
}

// linkifyRequest carries a generated answer together with the citations of
// the ask that produced it; only those pages are linkable.
type linkifyRequest struct {
	Answer    string            `json:"answer"`
	Folder    string            `json:"folder,omitempty"`
	Citations []models.Citation `json:"citations"`
}

func (s *Server) handleLinkify(w http.ResponseWriter, r *http.Request) {
	var req linkifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	linked := s.engine.LinkifyAnswer(r.Context(), req.Answer, req.Folder, req.Citations)
	s.respondJSON(w, http.StatusOK, map[string]string{"answer": linked})
}

type ingestRequest struct {
	Path   string `json:"path"`
	Folder string `json:"folder,omitempty"`
}

func (s *Server) handleIngest(w http.ResponseWriter, r *http.Request) {
	var req ingestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Path == "" {
		s.respondError(w, http.StatusBadRequest, "path is required")
		return
	}
	s.logger.Debug("ingest request", zap.String("path", req.Path), zap.String("folder", req.Folder))

	doc, err := s.ingester.IngestFile(r.Context(), req.Path, req.Folder, s.config.Watch.Extensions)
	if err != nil {
		s.logger.Error("ingest failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusCreated, doc)
}

func (s *Server) handleListDocuments(w http.ResponseWriter, r *http.Request) {
	folder := r.URL.Query().Get("folder")
	docs, err := s.registry.ListByFolder(r.Context(), folder)
	if err != nil {
		s.logger.Error("list documents failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if docs == nil {
		docs = []*models.Document{}
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{"documents": docs})
}

func (s *Server) handleDeleteDocument(w http.ResponseWriter, r *http.Request) {
	folder := r.URL.Query().Get("folder")
	name := r.URL.Query().Get("name")
	if name == "" {
		s.respondError(w, http.StatusBadRequest, "name is required")
		return
	}
	s.logger.Debug("delete document request", zap.String("folder", folder), zap.String("name", name))
	if err := s.ingester.DeleteDocument(r.Context(), folder, name); err != nil {
		s.logger.Error("deletion failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// handleFile serves a registered document file for a citation link, after
// verifying the link signature when signing is enabled.
func (s *Server) handleFile(w http.ResponseWriter, r *http.Request) {
	rel := chi.URLParam(r, "*")
	if rel == "" {
		s.respondError(w, http.StatusBadRequest, "file path is required")
		return
	}
	q := r.URL.Query()
	if err := s.signer.Verify(rel, q.Get("exp"), q.Get("sig")); err != nil {
		s.respondError(w, http.StatusForbidden, err.Error())
		return
	}

	// Confine to the files directory; a citation path is never absolute.
	clean := filepath.Clean("/" + rel)
	if strings.Contains(clean, "..") {
		s.respondError(w, http.StatusBadRequest, "invalid file path")
		return
	}
	http.ServeFile(w, r, filepath.Join(s.config.Storage.FilesDir, clean))
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	docCount, err := s.registry.CountDocuments(r.Context())
	if err != nil {
		s.logger.Error("status: count documents failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	pageCount, err := s.pages.DocCount()
	if err != nil {
		s.logger.Error("status: page count failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"documents": docCount,
		"pages":     pageCount,
		"config": map[string]interface{}{
			"database_path":         s.config.Storage.DatabasePath,
			"bleve_index_path":      s.config.Storage.BleveIndexPath,
			"exact_match_threshold": s.config.Retrieval.ExactMatchThreshold,
			"page_budget":           s.config.Assembly.PageBudget,
			"char_budget":           s.config.Assembly.CharBudget,
		},
	})
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message})
}
