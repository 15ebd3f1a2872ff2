// Package aggregate groups raw search hits into per-page units: chunks
// merged by (document, page), the best rank seen for each page, and a
// resolved citation free of backend-specific URI schemes.
package aggregate

import (
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/hyperjump/shirabe/internal/models"
)

// Scheme is the engine's internal path scheme, stripped during citation
// construction and never exposed downstream.
const Scheme = "shirabe://"

var (
	pageFragmentRE = regexp.MustCompile(`#page=(\d+)`)
	pageSuffixRE   = regexp.MustCompile(`\(p\.(\d+)\)`)
	pathSuffixRE   = regexp.MustCompile(`\s*\(p\.\d+\)$`)
)

// Aggregator folds hits into AggregatedPages.
type Aggregator struct {
	// Folder is the caller's current folder, used for the citation path
	// fallback when a hit carries no path metadata.
	Folder string
	// Container is the object-store container name; a URL path segment
	// matching it marks where the logical blob path begins.
	Container string

	logger *zap.Logger
}

// NewAggregator creates an Aggregator. logger may be nil.
func NewAggregator(folder, container string, logger *zap.Logger) *Aggregator {
	return &Aggregator{Folder: folder, Container: container, logger: logger}
}

// PageSet is the aggregation result: pages in first-seen order.
type PageSet struct {
	pages map[models.PageKey]*models.AggregatedPage
	order []models.PageKey
}

// Pages returns the aggregated pages in first-seen order.
func (s *PageSet) Pages() []*models.AggregatedPage {
	out := make([]*models.AggregatedPage, 0, len(s.order))
	for _, key := range s.order {
		out = append(out, s.pages[key])
	}
	return out
}

// Len returns the number of distinct pages.
func (s *PageSet) Len() int { return len(s.order) }

// Get returns the page for key, or nil.
func (s *PageSet) Get(key models.PageKey) *models.AggregatedPage {
	return s.pages[key]
}

// Aggregate folds the hit list, in list order, into a PageSet. Two hits
// with the same (document, page) merge into one entry: distinct chunks
// accumulate in insertion order and the best (lowest) rank is kept. A hit
// with no recoverable page number defaults to page 1 rather than being
// dropped; partial information beats silent data loss.
func (a *Aggregator) Aggregate(hits []*models.SearchHit) *PageSet {
	set := &PageSet{pages: make(map[models.PageKey]*models.AggregatedPage)}

	for rank, hit := range hits {
		name, page := ParsePageKey(hit.DocumentName, hit.PagePath)
		if page == 0 {
			if a.logger != nil {
				a.logger.Debug("rogue document, defaulting to page 1",
					zap.String("name", name))
			}
			page = 1
		}
		key := models.PageKey{DocumentName: name, Page: page}

		entry, ok := set.pages[key]
		if !ok {
			entry = &models.AggregatedPage{
				Key:      key,
				BestRank: rank,
				Citation: a.citation(name, page, hit),
			}
			set.pages[key] = entry
			set.order = append(set.order, key)
		} else if rank < entry.BestRank {
			entry.BestRank = rank
		}

		if !containsString(entry.Chunks, hit.Content) {
			entry.Chunks = append(entry.Chunks, hit.Content)
		}
	}
	return set
}

// ParsePageKey recovers the bare document name and page number from a hit's
// name and path. The path's "#page=N" fragment wins; a "(p.N)" name suffix
// is the fallback and is stripped from the returned name. Returns page 0
// when neither yields a number.
func ParsePageKey(documentName, pagePath string) (name string, page int) {
	name = documentName
	if unescaped, err := url.PathUnescape(name); err == nil {
		name = unescaped
	}

	if m := pageFragmentRE.FindStringSubmatch(pagePath); m != nil {
		page, _ = strconv.Atoi(m[1])
	}
	if m := pageSuffixRE.FindStringSubmatch(name); m != nil {
		if page == 0 {
			page, _ = strconv.Atoi(m[1])
		}
		if idx := strings.Index(name, " (p."); idx >= 0 {
			name = name[:idx]
		}
	}
	return name, page
}

// citation builds the resolved citation for a newly seen page. The logical
// file path is recovered from the hit's path metadata with the internal
// scheme and any container URL prefix stripped; when no path is usable, the
// fallback is "<folder>/drawings/<name>".
func (a *Aggregator) citation(name string, page int, hit *models.SearchHit) models.Citation {
	blobPath := "drawings/" + name
	if a.Folder != "" {
		blobPath = a.Folder + "/drawings/" + name
	}

	if path := hit.PagePath; path != "" {
		switch {
		case strings.HasPrefix(path, Scheme):
			trimmed := strings.SplitN(strings.TrimPrefix(path, Scheme), "#", 2)[0]
			if unescaped, err := url.PathUnescape(trimmed); err == nil {
				blobPath = unescaped
			} else {
				blobPath = trimmed
			}
		case a.Container != "" && strings.Contains(path, "/"+a.Container+"/"):
			parts := strings.SplitN(path, "/"+a.Container+"/", 2)
			if len(parts) == 2 {
				trimmed := strings.SplitN(parts[1], "#", 2)[0]
				if unescaped, err := url.PathUnescape(trimmed); err == nil {
					blobPath = unescaped
				} else {
					blobPath = trimmed
				}
			}
		case !strings.HasPrefix(path, "http"):
			blobPath = strings.SplitN(path, "#", 2)[0]
		}
		// The indexer may have appended the page suffix to the path too.
		blobPath = pathSuffixRE.ReplaceAllString(blobPath, "")
	}

	return models.Citation{FilePath: blobPath, Title: hit.Title, Page: page}
}

// FilterScope drops pages whose document is outside the selected set. It is
// the engine-side enforcement of the scope filter, independent of backend
// filter correctness. When filtering would remove every page the filter is
// skipped entirely: a too-aggressive scope must not turn results into
// nothing.
func FilterScope(pages []*models.AggregatedPage, selected []string) []*models.AggregatedPage {
	if len(selected) == 0 || len(pages) == 0 {
		return pages
	}
	kept := make([]*models.AggregatedPage, 0, len(pages))
	for _, page := range pages {
		for _, doc := range selected {
			if strings.HasPrefix(page.Key.DocumentName, doc) {
				kept = append(kept, page)
				break
			}
		}
	}
	if len(kept) == 0 {
		return pages
	}
	return kept
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
