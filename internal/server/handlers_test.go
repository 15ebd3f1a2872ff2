package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"go.uber.org/zap"

	"github.com/hyperjump/shirabe/internal/config"
	"github.com/hyperjump/shirabe/internal/engine"
	"github.com/hyperjump/shirabe/internal/index"
	"github.com/hyperjump/shirabe/internal/ingest"
	"github.com/hyperjump/shirabe/internal/store"
)

// newTestServer wires a full server over an in-memory page index and a
// temporary registry.
func newTestServer(t *testing.T) (*Server, *ingest.Ingester) {
	t.Helper()

	pages, err := index.NewMemPageIndex()
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = pages.Close() })

	dir := t.TempDir()
	registry, err := store.NewSQLiteStore(filepath.Join(dir, "documents.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = registry.Close() })

	cfg := &config.Config{}
	config.ApplyDefaults(cfg)
	cfg.Storage.FilesDir = dir

	signer := store.NewLinkSigner("", 0)
	ingester := ingest.NewIngester(registry, pages, nil)
	eng := engine.New(pages, engine.Options{},
		engine.WithLinkResolver(signer, registry))

	return NewServer(eng, ingester, registry, pages, signer, cfg, zap.NewNop()), ingester
}

func postJSON(t *testing.T, handler http.Handler, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	data, err := json.Marshal(body)
	if err != nil {
		t.Fatal(err)
	}
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func ingestText(t *testing.T, ing *ingest.Ingester, folder, name, content string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	if _, err := ing.IngestFile(context.Background(), path, folder, nil); err != nil {
		t.Fatal(err)
	}
}

func TestHandleHealth(t *testing.T) {
	s, _ := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d", rec.Code)
	}
}

func TestHandleAsk(t *testing.T) {
	s, ing := newTestServer(t)
	ingestText(t, ing, "site9", "valve-list.txt", "GATE VALVE 2 INCH CLASS 150")

	rec := postJSON(t, s.Router(), "/api/v1/ask", map[string]interface{}{
		"question": "gate valve class",
		"folder":   "site9",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		Context   string `json:"context"`
		Citations []struct {
			FilePath string `json:"filepath"`
			Page     int    `json:"page"`
		} `json:"citations"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if len(resp.Citations) != 1 {
		t.Fatalf("citations = %d, want 1", len(resp.Citations))
	}
	if resp.Citations[0].FilePath != "site9/drawings/valve-list.txt" || resp.Citations[0].Page != 1 {
		t.Errorf("citation = %+v", resp.Citations[0])
	}
	if resp.Context == "" {
		t.Error("context should not be empty")
	}
}

func TestHandleAsk_NoResults(t *testing.T) {
	s, _ := newTestServer(t)
	rec := postJSON(t, s.Router(), "/api/v1/ask", map[string]interface{}{
		"question": "anything at all",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var resp struct {
		NoResults bool `json:"no_results"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if !resp.NoResults {
		t.Error("expected no_results flag")
	}
}

func TestHandleAsk_EmptyQuestion(t *testing.T) {
	s, _ := newTestServer(t)
	rec := postJSON(t, s.Router(), "/api/v1/ask", map[string]interface{}{})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestHandleLinkify(t *testing.T) {
	s, ing := newTestServer(t)
	ingestText(t, ing, "site9", "A-101.txt", "drawing content")

	rec := postJSON(t, s.Router(), "/api/v1/linkify", map[string]interface{}{
		"answer": "See (A-101.txt: p.1).",
		"folder": "site9",
		"citations": []map[string]interface{}{
			{"filepath": "site9/drawings/A-101.txt", "page": 1},
		},
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var resp map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	want := "See [(A-101.txt: p.1)](/files/site9/drawings/A-101.txt#page=1)."
	if resp["answer"] != want {
		t.Errorf("answer = %q, want %q", resp["answer"], want)
	}
}

func TestHandleLinkify_UncitedPageStaysPlain(t *testing.T) {
	s, ing := newTestServer(t)
	ingestText(t, ing, "site9", "A-101.txt", "drawing content")

	answer := "See (A-101.txt: p. 99)."
	rec := postJSON(t, s.Router(), "/api/v1/linkify", map[string]interface{}{
		"answer": answer,
		"folder": "site9",
		"citations": []map[string]interface{}{
			{"filepath": "site9/drawings/A-101.txt", "page": 1},
		},
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var resp map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp["answer"] != answer {
		t.Errorf("uncited page was linked: %q", resp["answer"])
	}
}

func TestHandleListAndDeleteDocuments(t *testing.T) {
	s, ing := newTestServer(t)
	ingestText(t, ing, "site9", "a.txt", "alpha")
	ingestText(t, ing, "site9", "b.txt", "beta")

	req := httptest.NewRequest(http.MethodGet, "/api/v1/documents?folder=site9", nil)
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("list status = %d", rec.Code)
	}
	var listResp struct {
		Documents []struct {
			Name string `json:"name"`
		} `json:"documents"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &listResp); err != nil {
		t.Fatal(err)
	}
	if len(listResp.Documents) != 2 {
		t.Fatalf("documents = %d, want 2", len(listResp.Documents))
	}

	req = httptest.NewRequest(http.MethodDelete, "/api/v1/documents?folder=site9&name=a.txt", nil)
	rec = httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("delete status = %d", rec.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/v1/documents?folder=site9", nil)
	rec = httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)
	if err := json.Unmarshal(rec.Body.Bytes(), &listResp); err != nil {
		t.Fatal(err)
	}
	if len(listResp.Documents) != 1 || listResp.Documents[0].Name != "b.txt" {
		t.Errorf("after delete: %+v", listResp.Documents)
	}
}

func TestHandleDeleteDocument_MissingName(t *testing.T) {
	s, _ := newTestServer(t)
	req := httptest.NewRequest(http.MethodDelete, "/api/v1/documents?folder=site9", nil)
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestHandleIngest(t *testing.T) {
	s, _ := newTestServer(t)
	path := filepath.Join(t.TempDir(), "new.txt")
	if err := os.WriteFile(path, []byte("fresh content"), 0600); err != nil {
		t.Fatal(err)
	}

	rec := postJSON(t, s.Router(), "/api/v1/ingest", map[string]string{
		"path": path, "folder": "site9",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	var doc struct {
		Name  string `json:"name"`
		Pages int    `json:"pages"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &doc); err != nil {
		t.Fatal(err)
	}
	if doc.Name != "new.txt" || doc.Pages != 1 {
		t.Errorf("doc = %+v", doc)
	}
}

func TestHandleIngest_MissingPath(t *testing.T) {
	s, _ := newTestServer(t)
	rec := postJSON(t, s.Router(), "/api/v1/ingest", map[string]string{"folder": "site9"})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestHandleFile(t *testing.T) {
	s, _ := newTestServer(t)
	sub := filepath.Join(s.config.Storage.FilesDir, "site9", "drawings")
	if err := os.MkdirAll(sub, 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(sub, "a.txt"), []byte("served"), 0600); err != nil {
		t.Fatal(err)
	}

	req := httptest.NewRequest(http.MethodGet, "/files/site9/drawings/a.txt", nil)
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if rec.Body.String() != "served" {
		t.Errorf("body = %q", rec.Body.String())
	}
}

func TestHandleFile_SignatureRequired(t *testing.T) {
	s, _ := newTestServer(t)
	s.signer = store.NewLinkSigner("secret", 0)

	req := httptest.NewRequest(http.MethodGet, "/files/site9/drawings/a.txt?exp=1&sig=bad", nil)
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Errorf("status = %d, want 403", rec.Code)
	}
}

func TestHandleStatus(t *testing.T) {
	s, ing := newTestServer(t)
	ingestText(t, ing, "f", "doc.txt", "content")

	req := httptest.NewRequest(http.MethodGet, "/api/v1/status", nil)
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var resp struct {
		Documents int64  `json:"documents"`
		Pages     uint64 `json:"pages"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Documents != 1 || resp.Pages != 1 {
		t.Errorf("documents=%d pages=%d, want 1/1", resp.Documents, resp.Pages)
	}
}
