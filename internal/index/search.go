package index

import (
	"context"
	"fmt"
	"strings"

	"github.com/blevesearch/bleve/v2"
	blevequery "github.com/blevesearch/bleve/v2/search/query"

	"github.com/hyperjump/shirabe/internal/models"
	"github.com/hyperjump/shirabe/internal/predicate"
)

// phraseBoost is applied to a match-phrase clause when ranking is enabled.
const phraseBoost = 2.0

// Search implements the search backend contract over the page index.
// Supports the wildcard query "*", ALL/ANY term modes, and a toggleable
// phrase-proximity boost standing in for the backend reranker.
func (p *PageIndex) Search(ctx context.Context, req *models.BackendQuery) ([]*models.SearchHit, error) {
	if req == nil {
		return nil, fmt.Errorf("nil backend query")
	}
	limit := req.Limit
	if limit <= 0 {
		limit = 10
	}

	q := buildTextQuery(req)
	if fq := serializePred(req.Filter); fq != nil {
		q = bleve.NewConjunctionQuery(fq, q)
	}

	sr := bleve.NewSearchRequestOptions(q, limit, 0, false)
	sr.Fields = []string{"*"}
	res, err := p.index.SearchInContext(ctx, sr)
	if err != nil {
		return nil, fmt.Errorf("page index search failed: %w", err)
	}

	hits := make([]*models.SearchHit, 0, len(res.Hits))
	for i, hit := range res.Hits {
		hits = append(hits, hitFromFields(hit.Fields, i))
	}
	return hits, nil
}

// buildTextQuery translates the query text and mode into a Bleve query.
func buildTextQuery(req *models.BackendQuery) blevequery.Query {
	text := strings.TrimSpace(req.Text)
	if text == "" || text == "*" {
		return bleve.NewMatchAllQuery()
	}

	var base blevequery.Query
	if req.MatchAll {
		// ALL mode: every term must be present somewhere in the page.
		terms := strings.Fields(strings.ToLower(text))
		conj := make([]blevequery.Query, 0, len(terms))
		for _, term := range terms {
			conj = append(conj, bleve.NewMatchQuery(term))
		}
		base = bleve.NewConjunctionQuery(conj...)
	} else {
		base = bleve.NewMatchQuery(text)
	}

	if !req.RankingEnabled {
		return base
	}

	// Ranking on: pages where the query appears as a phrase score higher,
	// the base query still matches alone.
	phrase := bleve.NewMatchPhraseQuery(text)
	phrase.SetField("content")
	phrase.SetBoost(phraseBoost)
	return bleve.NewDisjunctionQuery(base, phrase)
}

// serializePred translates the predicate AST into Bleve queries. This is
// the single backend-specific serializer; the AST itself never leaks query
// syntax. Returns nil for None (unfiltered).
func serializePred(p predicate.Pred) blevequery.Query {
	if predicate.IsNone(p) {
		return nil
	}
	switch v := p.(type) {
	case predicate.Equals:
		q := bleve.NewTermQuery(v.Value)
		q.SetField(v.Field)
		return q
	case predicate.Prefix:
		q := bleve.NewPrefixQuery(v.Value)
		q.SetField(v.Field)
		return q
	case predicate.And:
		children := serializeAll(v.Preds)
		if len(children) == 0 {
			return nil
		}
		return bleve.NewConjunctionQuery(children...)
	case predicate.Or:
		children := serializeAll(v.Preds)
		if len(children) == 0 {
			return nil
		}
		return bleve.NewDisjunctionQuery(children...)
	default:
		return nil
	}
}

func serializeAll(preds []predicate.Pred) []blevequery.Query {
	out := make([]blevequery.Query, 0, len(preds))
	for _, child := range preds {
		if q := serializePred(child); q != nil {
			out = append(out, q)
		}
	}
	return out
}
