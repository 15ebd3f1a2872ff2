// Package assemble selects a bounded set of aggregated pages and serializes
// them into one prompt-ready context string with a parallel citation list.
package assemble

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/hyperjump/shirabe/internal/models"
)

// ErrNoEvidence reports that zero pages survived selection and no
// conversation history exists to fall back on. It is a distinct outcome,
// not a system fault; callers show a "no results" message for it.
var ErrNoEvidence = errors.New("no evidence found and no conversation history")

// Placeholder is returned as the context when no pages survived but the
// caller has conversation history to rely on, so downstream consumers can
// distinguish "nothing relevant" from "system failure".
const Placeholder = "(No new documents found. Use conversation history.)"

// blockSeparator visually separates page blocks in the context string.
var blockSeparator = "\n" + strings.Repeat("=", 50) + "\n"

// Options holds the assembler's budgets and default policy.
type Options struct {
	// PageBudget caps the number of pages in the context.
	PageBudget int
	// CharBudget caps each page's text, in runes.
	CharBudget int
	// DefaultPolicy is used when a request does not choose one.
	DefaultPolicy models.AssemblyPolicy
}

// DefaultOptions returns the tuned defaults (25 pages, 8000 chars).
func DefaultOptions() Options {
	return Options{
		PageBudget:    25,
		CharBudget:    8000,
		DefaultPolicy: models.PolicyDiversity,
	}
}

// Assembler packs aggregated pages into a bounded context.
type Assembler struct {
	opts   Options
	logger *zap.Logger
}

// NewAssembler creates an Assembler. logger may be nil.
func NewAssembler(opts Options, logger *zap.Logger) *Assembler {
	if opts.PageBudget <= 0 {
		opts.PageBudget = DefaultOptions().PageBudget
	}
	if opts.CharBudget <= 0 {
		opts.CharBudget = DefaultOptions().CharBudget
	}
	if opts.DefaultPolicy == "" {
		opts.DefaultPolicy = DefaultOptions().DefaultPolicy
	}
	return &Assembler{opts: opts, logger: logger}
}

// Result is the assembled context.
type Result struct {
	Context   string
	Citations []models.Citation
	Entries   []models.ContextEntry
	// Placeholder reports that Context is the rely-on-history placeholder.
	Placeholder bool
}

// Assemble orders pages by the chosen policy, promotes an explicitly
// requested page to the front, takes the page budget, and serializes each
// surviving page as a labeled block. Citations parallel the blocks 1:1.
//
// With zero surviving pages, a non-empty history yields the placeholder
// result and an empty history yields ErrNoEvidence.
func (a *Assembler) Assemble(pages []*models.AggregatedPage, policy models.AssemblyPolicy, explicitPage int, hasHistory bool) (*Result, error) {
	if len(pages) == 0 {
		if hasHistory {
			return &Result{Context: Placeholder, Placeholder: true}, nil
		}
		return nil, ErrNoEvidence
	}

	if policy == "" {
		policy = a.opts.DefaultPolicy
	}
	var ordered []*models.AggregatedPage
	if policy == models.PolicyRank {
		ordered = orderByRank(pages)
	} else {
		ordered = orderByDiversity(pages)
	}

	if explicitPage > 0 {
		ordered = promotePage(ordered, explicitPage)
	}

	if len(ordered) > a.opts.PageBudget {
		ordered = ordered[:a.opts.PageBudget]
	}

	result := &Result{
		Citations: make([]models.Citation, 0, len(ordered)),
		Entries:   make([]models.ContextEntry, 0, len(ordered)),
	}
	blocks := make([]string, 0, len(ordered))
	for _, page := range ordered {
		cleaned := make([]string, 0, len(page.Chunks))
		for _, chunk := range page.Chunks {
			if c := CleanContent(chunk); c != "" {
				cleaned = append(cleaned, c)
			}
		}
		text := truncateRunes(strings.Join(cleaned, "\n...\n"), a.opts.CharBudget)

		entry := models.ContextEntry{
			DocumentName: page.Key.DocumentName,
			Page:         page.Key.Page,
			Title:        page.Citation.Title,
			Text:         text,
		}
		result.Entries = append(result.Entries, entry)
		result.Citations = append(result.Citations, page.Citation)
		blocks = append(blocks, formatBlock(entry))
	}

	result.Context = strings.Join(blocks, blockSeparator)
	if a.logger != nil {
		a.logger.Debug("context assembled",
			zap.String("policy", string(policy)),
			zap.Int("pages", len(ordered)),
			zap.Int("context_chars", len(result.Context)))
	}
	return result, nil
}

func formatBlock(e models.ContextEntry) string {
	if e.Title != "" {
		return fmt.Sprintf("[Document: %s, Page: %d, Title: %s]\n%s\n",
			e.DocumentName, e.Page, e.Title, e.Text)
	}
	return fmt.Sprintf("[Document: %s, Page: %d]\n%s\n", e.DocumentName, e.Page, e.Text)
}

// orderByRank sorts pages by best rank ascending, stable on input order.
func orderByRank(pages []*models.AggregatedPage) []*models.AggregatedPage {
	out := append([]*models.AggregatedPage(nil), pages...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].BestRank < out[j].BestRank })
	return out
}

// orderByDiversity interleaves pages round-robin across documents: each
// document's best page first, then each document's second-best, and so on.
// Documents take turns in order of their own best page's rank, so one
// dominant document cannot consume the whole page budget.
func orderByDiversity(pages []*models.AggregatedPage) []*models.AggregatedPage {
	byDoc := make(map[string][]*models.AggregatedPage)
	var docs []string
	for _, page := range orderByRank(pages) {
		doc := page.Key.DocumentName
		if _, ok := byDoc[doc]; !ok {
			docs = append(docs, doc)
		}
		byDoc[doc] = append(byDoc[doc], page)
	}

	out := make([]*models.AggregatedPage, 0, len(pages))
	for round := 0; len(out) < len(pages); round++ {
		for _, doc := range docs {
			if round < len(byDoc[doc]) {
				out = append(out, byDoc[doc][round])
			}
		}
	}
	return out
}

// promotePage moves every entry for page number n to the front, keeping
// relative order within both partitions.
func promotePage(pages []*models.AggregatedPage, n int) []*models.AggregatedPage {
	front := make([]*models.AggregatedPage, 0, len(pages))
	rest := make([]*models.AggregatedPage, 0, len(pages))
	for _, page := range pages {
		if page.Key.Page == n {
			front = append(front, page)
		} else {
			rest = append(rest, page)
		}
	}
	return append(front, rest...)
}
