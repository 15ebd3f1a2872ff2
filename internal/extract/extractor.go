// Package extract provides per-page text extraction from document formats.
// The page is the retrieval unit downstream, so every extractor returns a
// page list even for formats without a native page concept.
package extract

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/hyperjump/shirabe/internal/models"
)

// Extractor extracts page texts from document files.
type Extractor struct{}

// NewExtractor returns a new Extractor.
func NewExtractor() *Extractor {
	return &Extractor{}
}

// Extract reads the file at path and returns its pages in order.
// PDFs yield one page per PDF page, spreadsheets one page per sheet; flat
// formats (DOCX, ODT, RTF, plain text) yield a single page.
// Returns an error if the file cannot be read or the format is unsupported.
func (e *Extractor) Extract(path string) ([]models.Page, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}
	ext := strings.ToLower(filepath.Ext(path))
	return e.ExtractBytes(content, ext)
}

// ExtractBytes extracts pages from content based on the given extension.
// ext should include the leading dot (e.g. ".pdf").
func (e *Extractor) ExtractBytes(content []byte, ext string) ([]models.Page, error) {
	switch ext {
	case ".pdf":
		return extractPDF(content)
	case ".xlsx":
		return extractExcel(content)
	case ".docx":
		return extractDOCX(content)
	case ".odt", ".rtf":
		return extractCat(content)
	case ".txt", ".md", ".rst", "":
		return extractPlain(content)
	default:
		// Unknown extension: treat as plain text
		return extractPlain(content)
	}
}

// singlePage wraps flat-format text as a one-page document.
func singlePage(text string) []models.Page {
	return []models.Page{{Number: 1, Content: text}}
}

// maxTitleRunes bounds what the first line of a page may contribute as its
// title.
const maxTitleRunes = 80

// pageTitle derives a page title from extracted text: the first non-empty
// line, when it is short enough to plausibly be a heading.
func pageTitle(text string) string {
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if len([]rune(line)) > maxTitleRunes {
			return ""
		}
		return line
	}
	return ""
}
