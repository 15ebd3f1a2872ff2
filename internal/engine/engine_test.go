package engine

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/hyperjump/shirabe/internal/assemble"
	"github.com/hyperjump/shirabe/internal/linkify"
	"github.com/hyperjump/shirabe/internal/models"
	"github.com/hyperjump/shirabe/internal/predicate"
)

// stubBackend returns the scripted hits for every query shape except the
// forced-inclusion wildcard, which is scoped per document.
type stubBackend struct {
	hits   []*models.SearchHit
	forced map[string][]*models.SearchHit
	err    error
}

func (s *stubBackend) Search(_ context.Context, req *models.BackendQuery) ([]*models.SearchHit, error) {
	if s.err != nil {
		return nil, s.err
	}
	if req.Text == "*" || strings.Contains(req.Text, "DRAWING LIST") {
		if doc := innerPrefix(req.Filter); doc != "" {
			return s.forced[doc], nil
		}
		return nil, nil
	}
	return s.hits, nil
}

func innerPrefix(p predicate.Pred) string {
	switch v := p.(type) {
	case predicate.Prefix:
		return v.Value
	case predicate.And:
		for _, child := range v.Preds {
			if doc := innerPrefix(child); doc != "" {
				return doc
			}
		}
	}
	return ""
}

func TestAsk_EndToEnd(t *testing.T) {
	backend := &stubBackend{
		hits: []*models.SearchHit{
			{DocumentName: "A-101.pdf (p.7)", PagePath: "shirabe://site9/drawings/A-101.pdf#page=7",
				Content: "PIPING AND INSTRUMENT DIAGRAM LIST", Title: "P&ID INDEX"},
			{DocumentName: "A-101.pdf (p.7)", PagePath: "shirabe://site9/drawings/A-101.pdf#page=7",
				Content: "second chunk of the same page"},
			{DocumentName: "B-200.pdf (p.1)", PagePath: "shirabe://site9/drawings/B-200.pdf#page=1",
				Content: "valve schedule"},
		},
	}
	e := New(backend, Options{})

	res, err := e.Ask(context.Background(), &models.AskRequest{
		Question: "P&ID 도면 목록 보여줘",
		Folder:   "site9",
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Citations) != 2 {
		t.Fatalf("citations = %d, want 2 (one per page)", len(res.Citations))
	}
	if !strings.Contains(res.Context, "[Document: A-101.pdf, Page: 7, Title: P&ID INDEX]") {
		t.Errorf("context missing titled page block:\n%s", res.Context)
	}
	if strings.Contains(res.Context, "shirabe://") {
		t.Error("internal scheme leaked into context")
	}
	for _, c := range res.Citations {
		if strings.Contains(c.FilePath, "shirabe://") {
			t.Errorf("internal scheme leaked into citation %q", c.FilePath)
		}
	}
	if res.QueryTime < 0 {
		t.Errorf("query time = %d", res.QueryTime)
	}
}

func TestAsk_EmptyQuestionRejected(t *testing.T) {
	e := New(&stubBackend{}, Options{})
	if _, err := e.Ask(context.Background(), &models.AskRequest{}); err == nil {
		t.Error("expected validation error for empty question")
	}
}

func TestAsk_NoEvidenceNoHistory(t *testing.T) {
	e := New(&stubBackend{}, Options{})
	_, err := e.Ask(context.Background(), &models.AskRequest{Question: "anything"})
	if !errors.Is(err, assemble.ErrNoEvidence) {
		t.Errorf("err = %v, want ErrNoEvidence", err)
	}
}

func TestAsk_NoEvidenceWithHistoryGivesPlaceholder(t *testing.T) {
	e := New(&stubBackend{}, Options{})
	res, err := e.Ask(context.Background(), &models.AskRequest{
		Question: "follow-up question",
		History:  []models.HistoryTurn{{Role: "user", Content: "earlier"}},
	})
	if err != nil {
		t.Fatal(err)
	}
	if !res.Placeholder {
		t.Error("expected placeholder result")
	}
	if res.Context != assemble.Placeholder {
		t.Errorf("context = %q", res.Context)
	}
}

func TestAsk_SelectedDocumentAlwaysRepresented(t *testing.T) {
	backend := &stubBackend{
		hits: []*models.SearchHit{
			{DocumentName: "A.pdf (p.1)", Content: "only document A matches"},
		},
		forced: map[string][]*models.SearchHit{
			"B.pdf": {{DocumentName: "B.pdf (p.1)", Content: "table of contents"}},
		},
	}
	e := New(backend, Options{})

	res, err := e.Ask(context.Background(), &models.AskRequest{
		Question:          "valve spec",
		SelectedDocuments: []string{"B.pdf"},
	})
	if err != nil {
		t.Fatal(err)
	}
	found := false
	for _, c := range res.Citations {
		if strings.Contains(c.FilePath, "B.pdf") {
			found = true
		}
	}
	if !found {
		t.Errorf("selected document missing from citations: %+v", res.Citations)
	}
}

func TestAsk_StrictScopeDropsOutsiders(t *testing.T) {
	backend := &stubBackend{
		hits: []*models.SearchHit{
			{DocumentName: "A.pdf (p.1)", Content: "in scope"},
			{DocumentName: "C.pdf (p.9)", Content: "leaked past the backend filter"},
		},
		forced: map[string][]*models.SearchHit{
			"A.pdf": {{DocumentName: "A.pdf (p.2)", Content: "first pages"}},
		},
	}
	e := New(backend, Options{})

	res, err := e.Ask(context.Background(), &models.AskRequest{
		Question:          "pump data",
		SelectedDocuments: []string{"A.pdf"},
		StrictScope:       true,
	})
	if err != nil {
		t.Fatal(err)
	}
	for _, c := range res.Citations {
		if strings.Contains(c.FilePath, "C.pdf") {
			t.Errorf("out-of-scope document survived strict scoping: %q", c.FilePath)
		}
	}
}

func TestAsk_FilterStringPopulated(t *testing.T) {
	backend := &stubBackend{
		hits: []*models.SearchHit{{DocumentName: "A.pdf (p.1)", Content: "x"}},
		forced: map[string][]*models.SearchHit{
			"A.pdf": {{DocumentName: "A.pdf (p.1)", Content: "x"}},
		},
	}
	e := New(backend, Options{})

	res, err := e.Ask(context.Background(), &models.AskRequest{
		Question:          "anything",
		SelectedDocuments: []string{"A.pdf"},
	})
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(res.FilterString, "A.pdf") {
		t.Errorf("filter string %q should reference the selection", res.FilterString)
	}
}

func TestLinkifyAnswer(t *testing.T) {
	backend := &stubBackend{}
	resolver := linkify.ResolverFunc(func(path string, page int) (string, bool) {
		return "/files/" + path, true
	})
	e := New(backend, Options{}, WithLinkResolver(resolver, nil))
	citations := []models.Citation{
		{FilePath: "site9/drawings/A-101.pdf", Page: 7},
	}

	got := e.LinkifyAnswer(context.Background(), "See (A-101.pdf: p.7).", "site9", citations)
	if !strings.Contains(got, "[(A-101.pdf: p.7)](/files/site9/drawings/A-101.pdf)") {
		t.Errorf("answer not linkified: %q", got)
	}
}

func TestLinkifyAnswer_UncitedPageStaysPlain(t *testing.T) {
	// The evidence cites page 7 only; a reference to any other page of the
	// same document must not become a link.
	resolver := linkify.ResolverFunc(func(path string, page int) (string, bool) {
		return "/files/" + path, true
	})
	e := New(&stubBackend{}, Options{}, WithLinkResolver(resolver, nil))
	citations := []models.Citation{
		{FilePath: "site9/drawings/A-101.pdf", Page: 7},
	}

	answer := "See (A-101.pdf: p. 99)."
	if got := e.LinkifyAnswer(context.Background(), answer, "site9", citations); got != answer {
		t.Errorf("uncited page was linked: %q", got)
	}
}

func TestLinkifyAnswer_NoCitationsPassesThrough(t *testing.T) {
	resolver := linkify.ResolverFunc(func(path string, page int) (string, bool) {
		return "/files/" + path, true
	})
	e := New(&stubBackend{}, Options{}, WithLinkResolver(resolver, nil))

	answer := "See (A-101.pdf: p.7)."
	if got := e.LinkifyAnswer(context.Background(), answer, "site9", nil); got != answer {
		t.Errorf("expected passthrough, got %q", got)
	}
}

func TestLinkifyAnswer_CatalogFailureStillLinks(t *testing.T) {
	// The catalog only enriches titles; its failure must not block links
	// that resolve by file name.
	resolver := linkify.ResolverFunc(func(path string, page int) (string, bool) {
		return "/files/" + path, true
	})
	catalog := catalogFunc(func(context.Context, string) ([]linkify.DocumentInfo, error) {
		return nil, errors.New("store down")
	})
	e := New(&stubBackend{}, Options{}, WithLinkResolver(resolver, catalog))
	citations := []models.Citation{
		{FilePath: "site9/drawings/A-101.pdf", Page: 7},
	}

	got := e.LinkifyAnswer(context.Background(), "See (A-101.pdf: p.7).", "site9", citations)
	if !strings.Contains(got, "](/files/site9/drawings/A-101.pdf)") {
		t.Errorf("catalog failure blocked linking: %q", got)
	}
}

type catalogFunc func(ctx context.Context, folder string) ([]linkify.DocumentInfo, error)

func (f catalogFunc) ListDocuments(ctx context.Context, folder string) ([]linkify.DocumentInfo, error) {
	return f(ctx, folder)
}
