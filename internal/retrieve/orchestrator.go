// Package retrieve implements the two-stage search orchestrator: a
// high-precision exact pass, a recall-boosting expanded pass when the
// precision pass under-delivers, rank-preserving deduplication, and a
// forced-inclusion guarantee for every document the caller selected.
package retrieve

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/hyperjump/shirabe/internal/models"
	"github.com/hyperjump/shirabe/internal/predicate"
	"github.com/hyperjump/shirabe/internal/query"
)

// Backend is the external search service. Implementations must support
// phrase queries, a wildcard "*" query, and independently toggleable
// ALL/ANY matching and relevance ranking.
type Backend interface {
	Search(ctx context.Context, req *models.BackendQuery) ([]*models.SearchHit, error)
}

// Options holds the orchestrator's policy knobs. The defaults mirror the
// empirically tuned values the system shipped with; they are knobs, not law.
type Options struct {
	// ExactMatchThreshold is the minimum precision-pass hit count that
	// skips the recall pass.
	ExactMatchThreshold int
	// PrecisionLimit caps the precision pass.
	PrecisionLimit int
	// RecallLimit caps the recall pass and the list-terms forced fetch.
	RecallLimit int
	// ForcedLimit caps the wildcard first-pages forced fetch.
	ForcedLimit int
	// SearchTimeout bounds each backend call.
	SearchTimeout time.Duration
}

// DefaultOptions returns the tuned defaults (threshold 3, stage-1 top 50).
func DefaultOptions() Options {
	return Options{
		ExactMatchThreshold: 3,
		PrecisionLimit:      50,
		RecallLimit:         10,
		ForcedLimit:         10,
		SearchTimeout:       15 * time.Second,
	}
}

// Orchestrator issues the staged backend searches for one request.
type Orchestrator struct {
	backend Backend
	opts    Options
	logger  *zap.Logger
}

// NewOrchestrator creates an Orchestrator. logger may be nil.
func NewOrchestrator(backend Backend, opts Options, logger *zap.Logger) *Orchestrator {
	if opts.ExactMatchThreshold <= 0 {
		opts.ExactMatchThreshold = DefaultOptions().ExactMatchThreshold
	}
	if opts.PrecisionLimit <= 0 {
		opts.PrecisionLimit = DefaultOptions().PrecisionLimit
	}
	if opts.RecallLimit <= 0 {
		opts.RecallLimit = DefaultOptions().RecallLimit
	}
	if opts.ForcedLimit <= 0 {
		opts.ForcedLimit = DefaultOptions().ForcedLimit
	}
	if opts.SearchTimeout <= 0 {
		opts.SearchTimeout = DefaultOptions().SearchTimeout
	}
	return &Orchestrator{backend: backend, opts: opts, logger: logger}
}

// Request is one retrieval request, already normalized.
type Request struct {
	Exact    string
	Expanded string
	Filter   predicate.Pred
	// MustInclude documents always contribute hits, independent of ranking.
	MustInclude []string
	// WantsList adds a list-terms forced fetch per selected document.
	WantsList bool
	// RecallMatchAll and RecallRanking are the caller-selected mode and
	// ranking toggle for the recall pass only; the precision pass always
	// runs ALL-terms with ranking off.
	RecallMatchAll bool
	RecallRanking  bool
}

// Retrieve runs the staged search and returns the merged, deduplicated hit
// list. List order carries the merge priority (stage 1 before stage 2,
// forced hits last); each hit keeps the SourceRank assigned by the pass that
// produced it. Individual backend failures degrade to zero hits for that
// call; an error is returned only when the precision pass failed and no
// other stage produced anything.
func (o *Orchestrator) Retrieve(ctx context.Context, req *Request) ([]*models.SearchHit, error) {
	// Stage 1: precision pass. Ranking is deliberately off: the backend
	// reranker has been observed to demote exact lexical matches in favor
	// of semantically-similar but wrong pages.
	exact, stage1Err := o.search(ctx, &models.BackendQuery{
		Text:     req.Exact,
		Filter:   req.Filter,
		MatchAll: true,
		Limit:    o.opts.PrecisionLimit,
	})
	if stage1Err != nil && o.logger != nil {
		o.logger.Warn("precision pass failed", zap.Error(stage1Err))
	}
	if o.logger != nil {
		o.logger.Debug("precision pass",
			zap.String("query", req.Exact),
			zap.Int("hits", len(exact)))
	}

	merged := append([]*models.SearchHit(nil), exact...)

	// Stage 2: recall pass, only when the precision pass under-delivered.
	// Enough exact matches should not be diluted with loose expansions.
	if len(exact) < o.opts.ExactMatchThreshold {
		expanded, err := o.search(ctx, &models.BackendQuery{
			Text:           req.Expanded,
			Filter:         req.Filter,
			MatchAll:       req.RecallMatchAll,
			RankingEnabled: req.RecallRanking,
			Limit:          o.opts.RecallLimit,
		})
		if err != nil {
			if o.logger != nil {
				o.logger.Warn("recall pass failed", zap.Error(err))
			}
		} else {
			merged = append(merged, expanded...)
		}
		if o.logger != nil {
			o.logger.Debug("recall pass",
				zap.String("query", req.Expanded),
				zap.Int("hits", len(expanded)))
		}
	}

	// Order-preserving dedup: the stage-1 copy of a duplicate wins.
	merged = Dedup(merged)

	// Forced inclusion: every selected document gets a wildcard first-pages
	// fetch (covers tables of contents) and, for list-type questions, a
	// list-terms fetch. Forced hits are appended exempt from dedup: a
	// missing selected document is a correctness failure, a duplicate page
	// is only a minor cost.
	forced := o.forcedFetch(ctx, req)
	merged = append(merged, forced...)

	if len(merged) == 0 && stage1Err != nil {
		return nil, fmt.Errorf("search backend unavailable: %w", stage1Err)
	}
	return merged, nil
}

// search runs one bounded backend call.
func (o *Orchestrator) search(ctx context.Context, bq *models.BackendQuery) ([]*models.SearchHit, error) {
	callCtx, cancel := context.WithTimeout(ctx, o.opts.SearchTimeout)
	defer cancel()
	return o.backend.Search(callCtx, bq)
}

// forcedFetch issues the per-document forced-inclusion fetches. Fetches for
// distinct documents run concurrently; the calls within one document's
// scope stay serialized. Results keep the selection order.
func (o *Orchestrator) forcedFetch(ctx context.Context, req *Request) []*models.SearchHit {
	if len(req.MustInclude) == 0 {
		return nil
	}

	perDoc := make([][]*models.SearchHit, len(req.MustInclude))
	var wg sync.WaitGroup
	for i, doc := range req.MustInclude {
		wg.Add(1)
		go func(i int, doc string) {
			defer wg.Done()
			perDoc[i] = o.fetchDocument(ctx, req, doc)
		}(i, doc)
	}
	wg.Wait()

	var out []*models.SearchHit
	for _, hits := range perDoc {
		out = append(out, hits...)
	}
	return out
}

// fetchDocument runs the bounded fetches for a single selected document.
func (o *Orchestrator) fetchDocument(ctx context.Context, req *Request, doc string) []*models.SearchHit {
	scoped := predicate.ScopedTo(req.Filter, doc)

	hits, err := o.search(ctx, &models.BackendQuery{
		Text:   "*",
		Filter: scoped,
		Limit:  o.opts.ForcedLimit,
	})
	if err != nil {
		if o.logger != nil {
			o.logger.Warn("forced first-pages fetch failed",
				zap.String("document", doc), zap.Error(err))
		}
		hits = nil
	}

	if req.WantsList {
		listHits, err := o.search(ctx, &models.BackendQuery{
			Text:   query.ListTerms,
			Filter: scoped,
			Limit:  o.opts.RecallLimit,
		})
		if err != nil {
			if o.logger != nil {
				o.logger.Warn("forced list fetch failed",
					zap.String("document", doc), zap.Error(err))
			}
		} else {
			hits = append(hits, listHits...)
		}
	}
	return hits
}

// dedupKeyLen is how many leading content runes identify a hit alongside
// its document name.
const dedupKeyLen = 50

// Dedup removes duplicate hits by (documentName, first 50 content runes),
// keeping the first occurrence so earlier stages win.
func Dedup(hits []*models.SearchHit) []*models.SearchHit {
	seen := make(map[string]struct{}, len(hits))
	out := make([]*models.SearchHit, 0, len(hits))
	for _, hit := range hits {
		key := hit.DocumentName + "\x00" + firstRunes(hit.Content, dedupKeyLen)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, hit)
	}
	return out
}

func firstRunes(s string, n int) string {
	if len(s) <= n {
		return s
	}
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
