// Package linkify rewrites plain-text citations of the form
// "(document: p.N)" in generated answers into markdown links that open the
// cited document at the cited page. Resolution runs against the evidence
// citation list, so a reference to a page that never appeared in the
// assembled context stays plain text instead of becoming a fabricated link.
package linkify

import (
	"fmt"
	"path"
	"regexp"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/hyperjump/shirabe/internal/models"
)

// citationRE matches "(name: p.N)" citations. The name part excludes colons
// and closing parens so nested or malformed spans never match.
var citationRE = regexp.MustCompile(`\(([^):]+):\s*p\.\s*(\d+)\)`)

// ellipsisSuffixes are trailing markers a model appends when it shortens a
// long document name inside a citation.
var ellipsisSuffixes = []string{"...", "…"}

// minPrefixRunes guards prefix matching: a truncated reference shorter than
// this is too ambiguous to trust.
const minPrefixRunes = 6

// Resolver turns a logical document path and page number into a viewable
// URL. ok is false when no link can be produced for that document.
type Resolver interface {
	Resolve(filePath string, page int) (url string, ok bool)
}

// ResolverFunc adapts a function to the Resolver interface.
type ResolverFunc func(filePath string, page int) (string, bool)

func (f ResolverFunc) Resolve(filePath string, page int) (string, bool) {
	return f(filePath, page)
}

// DocumentInfo is one document known to the engine's catalog. The catalog
// only enriches matching: it supplies extracted titles for citations that
// carry none, and never makes a page linkable by itself.
type DocumentInfo struct {
	// Name is the bare file name, e.g. "A-101.pdf".
	Name string
	// Path is the logical storage path resolvers understand.
	Path string
	// Title is the extracted document title, possibly empty.
	Title string
}

// Linkifier rewrites citations against the evidence citation list.
type Linkifier struct {
	resolver Resolver
	logger   *zap.Logger
}

// NewLinkifier creates a Linkifier. logger may be nil.
func NewLinkifier(resolver Resolver, logger *zap.Logger) *Linkifier {
	return &Linkifier{resolver: resolver, logger: logger}
}

// Linkify replaces every resolvable citation in answer with a markdown link
// wrapping the original citation text. A citation resolves only when the
// evidence list contains an entry for the same page number whose document
// matches the reference; everything else, including references to pages
// outside the evidence, passes through unchanged. Citations already inside a
// markdown link also pass through, so the operation is idempotent.
func (l *Linkifier) Linkify(answer string, citations []models.Citation, docs []DocumentInfo) string {
	if answer == "" || len(citations) == 0 {
		return answer
	}

	matches := citationRE.FindAllStringSubmatchIndex(answer, -1)
	if matches == nil {
		return answer
	}

	var b strings.Builder
	b.Grow(len(answer) + len(matches)*64)
	last := 0
	linked := 0
	for _, m := range matches {
		start, end := m[0], m[1]
		ref := strings.TrimSpace(answer[m[2]:m[3]])
		page, _ := strconv.Atoi(answer[m[4]:m[5]])

		b.WriteString(answer[last:start])
		last = end

		original := answer[start:end]
		if alreadyLinked(answer, start, end) {
			b.WriteString(original)
			continue
		}

		cit, ok := matchCitation(ref, page, citations, docs)
		if !ok {
			b.WriteString(original)
			continue
		}
		url, ok := l.resolver.Resolve(cit.FilePath, page)
		if !ok {
			b.WriteString(original)
			continue
		}

		fmt.Fprintf(&b, "[%s](%s)", original, url)
		linked++
	}
	b.WriteString(answer[last:])

	if l.logger != nil {
		l.logger.Debug("citations linkified",
			zap.Int("found", len(matches)), zap.Int("linked", linked))
	}
	return b.String()
}

// alreadyLinked reports whether answer[start:end] is the text of an existing
// markdown link, i.e. wrapped as "[...](".
func alreadyLinked(answer string, start, end int) bool {
	return start > 0 && answer[start-1] == '[' &&
		strings.HasPrefix(answer[end:], "](")
}

// matchCitation finds the evidence entry a citation reference points at.
// Only citations for the same page number are candidates. Matching is
// case-insensitive and tries, in order: the exact file name, the name without
// its extension, a name prefix (for references the model truncated with an
// ellipsis), and finally a title substring, with the catalog filling in
// titles the citation lacks.
func matchCitation(ref string, page int, citations []models.Citation, docs []DocumentInfo) (models.Citation, bool) {
	lowRef := strings.ToLower(ref)

	onPage := make([]models.Citation, 0, len(citations))
	for _, cit := range citations {
		if cit.Page == page {
			onPage = append(onPage, cit)
		}
	}

	for _, cit := range onPage {
		if strings.ToLower(path.Base(cit.FilePath)) == lowRef {
			return cit, true
		}
	}
	for _, cit := range onPage {
		if trimExt(strings.ToLower(path.Base(cit.FilePath))) == lowRef {
			return cit, true
		}
	}

	prefix := lowRef
	for _, suffix := range ellipsisSuffixes {
		prefix = strings.TrimSuffix(prefix, suffix)
	}
	prefix = strings.TrimSpace(prefix)
	if len([]rune(prefix)) >= minPrefixRunes {
		for _, cit := range onPage {
			if strings.HasPrefix(strings.ToLower(path.Base(cit.FilePath)), prefix) {
				return cit, true
			}
		}
	}

	for _, cit := range onPage {
		title := cit.Title
		if title == "" {
			title = catalogTitle(path.Base(cit.FilePath), docs)
		}
		if title != "" && strings.Contains(strings.ToLower(title), lowRef) {
			return cit, true
		}
	}
	return models.Citation{}, false
}

// catalogTitle looks up a document's extracted title by file name.
func catalogTitle(name string, docs []DocumentInfo) string {
	for _, doc := range docs {
		if strings.EqualFold(doc.Name, name) {
			return doc.Title
		}
	}
	return ""
}

func trimExt(name string) string {
	if idx := strings.LastIndex(name, "."); idx > 0 {
		return name[:idx]
	}
	return name
}
