// Package engine ties the retrieval pipeline together: predicate building,
// query normalization, staged search, page aggregation, scope filtering, and
// context assembly, exposed as a single Ask operation.
package engine

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/hyperjump/shirabe/internal/aggregate"
	"github.com/hyperjump/shirabe/internal/assemble"
	"github.com/hyperjump/shirabe/internal/linkify"
	"github.com/hyperjump/shirabe/internal/models"
	"github.com/hyperjump/shirabe/internal/predicate"
	"github.com/hyperjump/shirabe/internal/query"
	"github.com/hyperjump/shirabe/internal/retrieve"
)

// Catalog lists the known documents so the linkifier can fill in titles a
// citation lacks. The document store implements it.
type Catalog interface {
	ListDocuments(ctx context.Context, folder string) ([]linkify.DocumentInfo, error)
}

// Options configures an Engine.
type Options struct {
	// Container is the object-store container name used when stripping
	// absolute URLs during citation construction.
	Container string

	Retrieve retrieve.Options
	Assemble assemble.Options
}

// Engine runs the full context-building pipeline for one question.
type Engine struct {
	backend    retrieve.Backend
	normalizer *query.Normalizer
	linkifier  *linkify.Linkifier
	catalog    Catalog
	opts       Options
	logger     *zap.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithParaphraser enables LLM-assisted query expansion.
func WithParaphraser(p query.Paraphraser) Option {
	return func(e *Engine) {
		e.normalizer = query.NewNormalizer(
			query.WithParaphraser(p), query.WithLogger(e.logger))
	}
}

// WithLinkResolver enables citation linkification. catalog may be nil; it
// only enriches matching with extracted titles.
func WithLinkResolver(r linkify.Resolver, c Catalog) Option {
	return func(e *Engine) {
		e.linkifier = linkify.NewLinkifier(r, e.logger)
		e.catalog = c
	}
}

// WithLogger sets the engine logger. Must appear before options that capture
// it.
func WithLogger(l *zap.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// New creates an Engine over the given search backend.
func New(backend retrieve.Backend, opts Options, options ...Option) *Engine {
	e := &Engine{backend: backend, opts: opts}
	for _, opt := range options {
		opt(e)
	}
	if e.normalizer == nil {
		e.normalizer = query.NewNormalizer(query.WithLogger(e.logger))
	}
	return e
}

// Ask builds the evidence context for one question. The result's Context is
// ready for prompt injection and Citations parallels its blocks 1:1.
//
// assemble.ErrNoEvidence is returned when nothing was found and the request
// carries no history; every other retrieval failure degrades rather than
// erroring, unless every stage produced nothing.
func (e *Engine) Ask(ctx context.Context, req *models.AskRequest) (*models.AskResult, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	start := time.Now()

	named := query.NamedDocument(req.Question, req.SelectedDocuments)
	filter := predicate.Build(req.BasePredicate, req.SelectedDocuments, named)
	norm := e.normalizer.Normalize(ctx, req.Question)

	if e.logger != nil {
		e.logger.Debug("ask",
			zap.String("question", req.Question),
			zap.Strings("selected", req.SelectedDocuments),
			zap.String("named", named),
			zap.String("filter", filter.String()),
			zap.Bool("skipped_expansion", norm.SkippedExpansion))
	}

	orch := retrieve.NewOrchestrator(e.backend, e.opts.Retrieve, e.logger)
	hits, err := orch.Retrieve(ctx, &retrieve.Request{
		Exact:          norm.Exact,
		Expanded:       norm.Expanded,
		Filter:         filter,
		MustInclude:    req.SelectedDocuments,
		WantsList:      query.WantsList(req.Question),
		RecallMatchAll: req.RecallMatchAll,
		RecallRanking:  req.RecallRanking,
	})
	if err != nil {
		return nil, err
	}

	agg := aggregate.NewAggregator(req.Folder, e.opts.Container, e.logger)
	pages := agg.Aggregate(hits).Pages()
	if req.StrictScope {
		pages = aggregate.FilterScope(pages, req.SelectedDocuments)
	}

	asm := assemble.NewAssembler(e.opts.Assemble, e.logger)
	built, err := asm.Assemble(pages, req.Policy, norm.ExplicitPage, len(req.History) > 0)
	if err != nil {
		return nil, err
	}

	return &models.AskResult{
		Context:      built.Context,
		Citations:    built.Citations,
		Placeholder:  built.Placeholder,
		Filter:       filter,
		FilterString: filter.String(),
		Hits:         hits,
		QueryTime:    time.Since(start).Milliseconds(),
	}, nil
}

// LinkifyAnswer rewrites plain-text citations in a generated answer into
// markdown links, resolved against the evidence citations of the ask that
// produced the answer. Only a (document, page) pair present in citations can
// become a link; anything else stays plain text. The folder's catalog
// supplies titles for citations that carry none, and a catalog failure only
// loses that enrichment.
func (e *Engine) LinkifyAnswer(ctx context.Context, answer, folder string, citations []models.Citation) string {
	if e.linkifier == nil || len(citations) == 0 {
		return answer
	}
	var docs []linkify.DocumentInfo
	if e.catalog != nil {
		var err error
		docs, err = e.catalog.ListDocuments(ctx, folder)
		if err != nil {
			if e.logger != nil {
				e.logger.Warn("document catalog unavailable, linking without titles", zap.Error(err))
			}
			docs = nil
		}
	}
	return e.linkifier.Linkify(answer, citations, docs)
}
