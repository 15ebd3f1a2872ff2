package models

import (
	"fmt"

	"github.com/hyperjump/shirabe/internal/predicate"
)

// AssemblyPolicy selects how the context assembler orders pages.
type AssemblyPolicy string

const (
	// PolicyDiversity interleaves pages round-robin across documents so one
	// dominant document cannot consume the whole page budget.
	PolicyDiversity AssemblyPolicy = "diversity"
	// PolicyRank orders pages purely by best rank.
	PolicyRank AssemblyPolicy = "rank"
)

// HistoryTurn is one prior conversation turn, consumed opaquely.
type HistoryTurn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// AskRequest is one question-answering request.
type AskRequest struct {
	// Question is the user's free-form question.
	Question string `json:"question"`
	// SelectedDocuments restricts search to these document names and
	// guarantees each contributes at least one hit. Empty means no
	// restriction.
	SelectedDocuments []string `json:"selected_documents,omitempty"`
	// Folder is the caller's folder prefix, used for citation path fallback
	// and strict scoping.
	Folder string `json:"folder,omitempty"`
	// BasePredicate is an optional caller-supplied predicate (tenant/folder
	// isolation), passed through opaquely.
	BasePredicate predicate.Pred `json:"-"`
	// History is the prior conversation, only inspected for non-emptiness.
	History []HistoryTurn `json:"history,omitempty"`
	// Policy selects diversity or pure-rank assembly; empty uses the
	// configured default.
	Policy AssemblyPolicy `json:"policy,omitempty"`
	// StrictScope applies the engine-side post-filter that drops aggregated
	// pages outside SelectedDocuments, independent of backend filter
	// correctness.
	StrictScope bool `json:"strict_scope,omitempty"`
	// RecallMatchAll and RecallRanking are the caller-selected mode and
	// ranking toggle for the recall pass.
	RecallMatchAll bool `json:"recall_match_all,omitempty"`
	RecallRanking  bool `json:"recall_ranking,omitempty"`
}

// Validate checks required fields.
func (r *AskRequest) Validate() error {
	if r.Question == "" {
		return fmt.Errorf("question cannot be empty")
	}
	return nil
}

// AskResult is the engine's output for one request: a prompt-ready context
// string, the citation list matching the context blocks 1:1, and the
// diagnostics the caller may want for testing or debugging.
type AskResult struct {
	Context   string     `json:"context"`
	Citations []Citation `json:"citations"`
	// Placeholder is true when no pages survived selection and the context
	// is the "rely on history" placeholder rather than real evidence.
	Placeholder bool `json:"placeholder,omitempty"`
	// Filter is the final combined predicate used, for diagnostics.
	Filter predicate.Pred `json:"-"`
	// FilterString is the serialized form of Filter for JSON consumers.
	FilterString string `json:"filter,omitempty"`
	// Hits is the raw merged hit list, for diagnostics and testing.
	Hits []*SearchHit `json:"hits,omitempty"`
	// QueryTime is the total retrieval time in milliseconds.
	QueryTime int64 `json:"query_time_ms"`
}
