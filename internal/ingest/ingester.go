// Package ingest turns source files into registry rows and indexed pages:
// extract per page, register the document, and index every page under its
// page-qualified name.
package ingest

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hyperjump/shirabe/internal/extract"
	"github.com/hyperjump/shirabe/internal/index"
	"github.com/hyperjump/shirabe/internal/models"
)

// Registry is the document registry the ingester writes to.
type Registry interface {
	CreateDocument(ctx context.Context, doc *models.Document) error
	DeleteDocumentByName(ctx context.Context, folder, name string) error
}

// PageIndexer is the page index the ingester writes to.
type PageIndexer interface {
	IndexPage(ctx context.Context, id string, doc *index.PageDoc) error
	DeleteByNamePrefix(ctx context.Context, namePrefix string) (int, error)
}

// Ingester ingests files into the registry and the page index.
type Ingester struct {
	registry  Registry
	pages     PageIndexer
	extractor *extract.Extractor
	logger    *zap.Logger
}

// Option configures an Ingester.
type Option func(*Ingester)

// WithLogger sets a logger for debug output (file ingested, document deleted, etc.).
func WithLogger(l *zap.Logger) Option {
	return func(i *Ingester) { i.logger = l }
}

// NewIngester creates an ingester with the given dependencies.
// extractor may be nil; when nil, all files are treated as plain text.
func NewIngester(registry Registry, pages PageIndexer, extractor *extract.Extractor, opts ...Option) *Ingester {
	if extractor == nil {
		extractor = extract.NewExtractor()
	}
	i := &Ingester{registry: registry, pages: pages, extractor: extractor}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// PageName returns the page-qualified name a page is indexed under.
func PageName(fileName string, page int) string {
	return fmt.Sprintf("%s (p.%d)", fileName, page)
}

// pagePrefix is the index-name prefix covering exactly one document's pages.
// The " (p." marker keeps "A.pdf" from also matching pages of "A.pdf.bak".
func pagePrefix(fileName string) string {
	return fileName + " (p."
}

// PagePath returns the internal path a page is indexed with. The name is
// percent-encoded so names with spaces or non-ASCII survive URL handling.
func PagePath(folder, fileName string, page int) string {
	escaped := (&url.URL{Path: fileName}).EscapedPath()
	if folder != "" {
		return fmt.Sprintf("shirabe://%s/drawings/%s#page=%d", folder, escaped, page)
	}
	return fmt.Sprintf("shirabe://drawings/%s#page=%d", escaped, page)
}

// IngestFile extracts path page by page, registers the document under
// folder, and indexes every non-empty page. Re-ingesting a file replaces its
// previous pages. Returns the registered document.
func (i *Ingester) IngestFile(ctx context.Context, path, folder string, allowedExts []string) (*models.Document, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("absolute path: %w", err)
	}
	ext := strings.ToLower(filepath.Ext(absPath))
	if len(allowedExts) > 0 && !extensionAllowed(ext, allowedExts) {
		return nil, fmt.Errorf("extension %q not in allowed list", ext)
	}
	info, err := os.Stat(absPath)
	if err != nil {
		return nil, fmt.Errorf("stat file: %w", err)
	}
	if !info.Mode().IsRegular() {
		return nil, fmt.Errorf("not a regular file: %s", absPath)
	}

	if i.logger != nil {
		i.logger.Debug("ingesting file", zap.String("path", absPath), zap.String("folder", folder))
	}

	pages, err := i.extractor.Extract(absPath)
	if err != nil {
		return nil, fmt.Errorf("extract pages: %w", err)
	}

	name := filepath.Base(absPath)
	doc := &models.Document{
		ID:     uuid.New().String(),
		Name:   name,
		Folder: folder,
		Path:   logicalPath(folder, name),
		Title:  documentTitle(pages),
		Pages:  len(pages),
	}

	// Stale pages from a previous version must go before the new ones land:
	// a shrunk document would otherwise keep orphan pages.
	if _, err := i.pages.DeleteByNamePrefix(ctx, pagePrefix(name)); err != nil {
		return nil, fmt.Errorf("delete stale pages: %w", err)
	}

	if err := i.registry.CreateDocument(ctx, doc); err != nil {
		return nil, fmt.Errorf("register document: %w", err)
	}

	indexed := 0
	for _, page := range pages {
		if strings.TrimSpace(page.Content) == "" {
			continue
		}
		pageID := doc.ID + "_" + fmt.Sprint(page.Number)
		err := i.pages.IndexPage(ctx, pageID, &index.PageDoc{
			Name:    PageName(name, page.Number),
			Path:    PagePath(folder, name, page.Number),
			Content: page.Content,
			Title:   page.Title,
		})
		if err != nil {
			return nil, fmt.Errorf("index page %d: %w", page.Number, err)
		}
		indexed++
	}

	if i.logger != nil {
		i.logger.Debug("file ingested",
			zap.String("name", name),
			zap.String("doc_id", doc.ID),
			zap.Int("pages", len(pages)),
			zap.Int("indexed", indexed))
	}
	return doc, nil
}

// IngestDirectory walks dir recursively and ingests each regular file whose
// extension is in allowedExts (if non-empty; otherwise all files). Returns
// the number of files ingested and the first error encountered, if any.
func (i *Ingester) IngestDirectory(ctx context.Context, dir, folder string, allowedExts []string) (n int, err error) {
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return 0, fmt.Errorf("absolute path: %w", err)
	}
	info, err := os.Stat(absDir)
	if err != nil {
		return 0, fmt.Errorf("stat directory: %w", err)
	}
	if !info.IsDir() {
		return 0, fmt.Errorf("not a directory: %s", absDir)
	}
	err = filepath.WalkDir(absDir, func(path string, d os.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() {
			return nil
		}
		ext := strings.ToLower(filepath.Ext(path))
		if len(allowedExts) > 0 && !extensionAllowed(ext, allowedExts) {
			return nil
		}
		// Resolve symlinks so we only ingest regular files
		finfo, statErr := os.Stat(path)
		if statErr != nil {
			return nil
		}
		if !finfo.Mode().IsRegular() {
			return nil
		}
		if _, ingestErr := i.IngestFile(ctx, path, folder, allowedExts); ingestErr != nil {
			return ingestErr
		}
		n++
		return nil
	})
	return n, err
}

// DeleteDocument removes a document's pages from the index and its row from
// the registry.
func (i *Ingester) DeleteDocument(ctx context.Context, folder, name string) error {
	if i.logger != nil {
		i.logger.Debug("deleting document", zap.String("folder", folder), zap.String("name", name))
	}
	if _, err := i.pages.DeleteByNamePrefix(ctx, pagePrefix(name)); err != nil {
		return fmt.Errorf("delete pages: %w", err)
	}
	if err := i.registry.DeleteDocumentByName(ctx, folder, name); err != nil {
		return fmt.Errorf("delete registration: %w", err)
	}
	return nil
}

// logicalPath is the stable path citations and download links use.
func logicalPath(folder, name string) string {
	if folder != "" {
		return folder + "/drawings/" + name
	}
	return "drawings/" + name
}

// documentTitle takes the first page title as the document title.
func documentTitle(pages []models.Page) string {
	for _, p := range pages {
		if p.Title != "" {
			return p.Title
		}
	}
	return ""
}

func extensionAllowed(ext string, allowed []string) bool {
	extNorm := strings.ToLower(strings.TrimPrefix(ext, "."))
	for _, a := range allowed {
		if strings.ToLower(strings.TrimPrefix(a, ".")) == extNorm {
			return true
		}
	}
	return false
}
