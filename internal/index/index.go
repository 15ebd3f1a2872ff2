// Package index provides the Bleve-backed page index: the in-process
// implementation of the search backend contract. Each indexed unit is one
// page of one document, named "<file> (p.N)" so name-prefix predicates can
// scope a query to a document.
package index

import (
	"context"
	"fmt"
	"os"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/keyword"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/standard"

	"github.com/hyperjump/shirabe/internal/models"
)

// PageDoc is the indexed form of one page.
type PageDoc struct {
	// Name is the page-qualified document name, e.g. "A.pdf (p.7)".
	Name string `json:"name"`
	// Path carries page metadata in a "#page=N" fragment, e.g.
	// "shirabe://site9/drawings/A.pdf#page=7".
	Path    string `json:"path"`
	Content string `json:"content"`
	Title   string `json:"title,omitempty"`
}

// PageIndex is a Bleve index of pages.
type PageIndex struct {
	index bleve.Index
}

// NewPageIndex creates or opens a Bleve page index at path. An existing
// index is opened and reused; remove the directory to force a full
// re-index after a mapping change.
func NewPageIndex(path string) (*PageIndex, error) {
	im := bleve.NewIndexMapping()

	docMapping := bleve.NewDocumentMapping()

	// Standard analyzer (lowercase + tokenize, no stemming) so exact lexical
	// terms from drawings match as typed.
	textField := bleve.NewTextFieldMapping()
	textField.Analyzer = standard.Name
	docMapping.AddFieldMappingsAt("content", textField)
	docMapping.AddFieldMappingsAt("title", textField)

	// Names and paths index as single terms so prefix predicates match on
	// the whole page-qualified name.
	nameField := bleve.NewTextFieldMapping()
	nameField.Analyzer = keyword.Name
	docMapping.AddFieldMappingsAt("name", nameField)
	docMapping.AddFieldMappingsAt("path", nameField)

	im.AddDocumentMapping("page", docMapping)
	im.DefaultType = "page"
	im.DefaultMapping = docMapping

	if _, err := os.Stat(path); err == nil {
		idx, openErr := bleve.Open(path)
		if openErr != nil {
			return nil, fmt.Errorf("failed to open page index: %w", openErr)
		}
		return &PageIndex{index: idx}, nil
	}

	idx, err := bleve.New(path, im)
	if err != nil {
		return nil, fmt.Errorf("failed to create page index: %w", err)
	}
	return &PageIndex{index: idx}, nil
}

// NewMemPageIndex creates an in-memory page index, used by tests.
func NewMemPageIndex() (*PageIndex, error) {
	im := bleve.NewIndexMapping()
	docMapping := bleve.NewDocumentMapping()
	textField := bleve.NewTextFieldMapping()
	textField.Analyzer = standard.Name
	docMapping.AddFieldMappingsAt("content", textField)
	docMapping.AddFieldMappingsAt("title", textField)
	nameField := bleve.NewTextFieldMapping()
	nameField.Analyzer = keyword.Name
	docMapping.AddFieldMappingsAt("name", nameField)
	docMapping.AddFieldMappingsAt("path", nameField)
	im.AddDocumentMapping("page", docMapping)
	im.DefaultType = "page"
	im.DefaultMapping = docMapping

	idx, err := bleve.NewMemOnly(im)
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory page index: %w", err)
	}
	return &PageIndex{index: idx}, nil
}

// IndexPage indexes one page under id.
func (p *PageIndex) IndexPage(ctx context.Context, id string, doc *PageDoc) error {
	return p.index.Index(id, doc)
}

// DeleteByNamePrefix removes every page whose name starts with namePrefix.
// Returns the number of pages removed.
func (p *PageIndex) DeleteByNamePrefix(ctx context.Context, namePrefix string) (int, error) {
	q := bleve.NewPrefixQuery(namePrefix)
	q.SetField("name")
	req := bleve.NewSearchRequest(q)
	req.Size = 10000
	res, err := p.index.Search(req)
	if err != nil {
		return 0, fmt.Errorf("prefix delete search failed: %w", err)
	}
	for _, hit := range res.Hits {
		if err := p.index.Delete(hit.ID); err != nil {
			return 0, fmt.Errorf("delete %s: %w", hit.ID, err)
		}
	}
	return len(res.Hits), nil
}

// DocCount returns the number of indexed pages.
func (p *PageIndex) DocCount() (uint64, error) {
	return p.index.DocCount()
}

// Close closes the underlying index.
func (p *PageIndex) Close() error {
	return p.index.Close()
}

// hitFromFields converts stored Bleve fields into a SearchHit.
func hitFromFields(fields map[string]interface{}, rank int) *models.SearchHit {
	hit := &models.SearchHit{SourceRank: rank}
	if v, ok := fields["name"].(string); ok {
		hit.DocumentName = v
	}
	if v, ok := fields["path"].(string); ok {
		hit.PagePath = v
	}
	if v, ok := fields["content"].(string); ok {
		hit.Content = v
	}
	if v, ok := fields["title"].(string); ok {
		hit.Title = v
	}
	return hit
}
