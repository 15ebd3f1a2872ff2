// Package models defines core data structures for search hits, aggregated
// pages, citations, and ask requests/results.
package models

import "github.com/hyperjump/shirabe/internal/predicate"

// SearchHit is one raw result from the search backend.
// DocumentName may carry an embedded page suffix ("file.pdf (p.7)"), and
// PagePath carries page metadata in a "#page=N" fragment. Hits are immutable
// once returned by a backend and are discarded after aggregation.
type SearchHit struct {
	DocumentName string `json:"document_name"`
	PagePath     string `json:"page_path"`
	Content      string `json:"content"`
	Title        string `json:"title,omitempty"`
	// SourceRank is the 0-based rank assigned by the search pass that
	// produced the hit. The merged list's order carries stage priority;
	// SourceRank preserves per-pass provenance for diagnostics.
	SourceRank int `json:"source_rank"`
}

// BackendQuery is one request to the search backend.
type BackendQuery struct {
	// Text is the query string. "*" matches all pages.
	Text string
	// Filter restricts the searched set; nil or predicate.None means unfiltered.
	Filter predicate.Pred
	// MatchAll requires every term to be present (AND) instead of any (OR).
	MatchAll bool
	// RankingEnabled turns on the backend's relevance boosting. The precision
	// pass disables it because boosting has been observed to demote exact
	// lexical matches.
	RankingEnabled bool
	// Limit caps the number of hits returned.
	Limit int
}

// PageKey identifies one page of one document. Two hits with the same
// PageKey are the same logical unit and are merged, never duplicated.
type PageKey struct {
	DocumentName string `json:"document_name"`
	Page         int    `json:"page"`
}

// Citation is a resolved, stable reference to a page. FilePath is the
// logical path within the document store; backend URI schemes are stripped
// during construction and never exposed downstream.
type Citation struct {
	FilePath string `json:"filepath"`
	Title    string `json:"title,omitempty"`
	Page     int    `json:"page"`
}

// AggregatedPage is the merged view of all hits that mapped to one PageKey.
type AggregatedPage struct {
	Key PageKey `json:"key"`
	// Chunks holds distinct content strings in insertion order.
	Chunks []string `json:"chunks"`
	// BestRank is the minimum merged-list position observed for this key.
	// It only decreases as hits are folded in.
	BestRank int      `json:"best_rank"`
	Citation Citation `json:"citation"`
}

// ContextEntry is a single page's content truncated to the per-page budget,
// ready for concatenation into the prompt context.
type ContextEntry struct {
	DocumentName string `json:"document_name"`
	Page         int    `json:"page"`
	Title        string `json:"title,omitempty"`
	Text         string `json:"text"`
}
