// Package query normalizes free-form user questions into backend-search
// queries: a sanitized exact form for the precision pass and an expanded
// synonym form for the recall pass.
package query

import (
	"context"
	"regexp"
	"strings"

	"go.uber.org/zap"
)

// Paraphraser optionally rewrites a question into a search-friendly keyword
// query with a single bounded external call. It is advisory only: any error
// falls back to the rule-based expansion.
type Paraphraser interface {
	Paraphrase(ctx context.Context, question string) (string, error)
}

// Normalized is the result of normalizing one question.
type Normalized struct {
	// Exact is the question with query-syntax-special characters and
	// operator keywords blanked, whitespace collapsed.
	Exact string
	// Expanded is the exact form plus domain synonyms. Equal to the raw
	// question when expansion was skipped.
	Expanded string
	// ExplicitPage is the page number named in the question, or 0.
	ExplicitPage int
	// SkippedExpansion reports that the question was already precise (page
	// reference or structural keyword) and expansion was not applied.
	SkippedExpansion bool
}

// Normalizer turns questions into search queries. The zero value is usable;
// a Paraphraser and logger are optional.
type Normalizer struct {
	paraphraser Paraphraser
	logger      *zap.Logger
}

// Option configures a Normalizer.
type Option func(*Normalizer)

// WithParaphraser enables LLM-assisted expansion for questions no static
// rule covers.
func WithParaphraser(p Paraphraser) Option {
	return func(n *Normalizer) { n.paraphraser = p }
}

// WithLogger enables debug logging.
func WithLogger(l *zap.Logger) Option {
	return func(n *Normalizer) { n.logger = l }
}

// NewNormalizer creates a Normalizer.
func NewNormalizer(opts ...Option) *Normalizer {
	n := &Normalizer{}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

var (
	andWordRE  = regexp.MustCompile(`(?i)\bAND\b`)
	specialRE  = regexp.MustCompile(`[&+\-|!(){}\[\]^"~*?:\\]`)
	pagePatRES = []*regexp.Regexp{
		regexp.MustCompile(`(\d+)\s*페이지`),
		regexp.MustCompile(`(?i)p\.?\s*(\d+)`),
		regexp.MustCompile(`(?i)page\s*(\d+)`),
	}
)

// structuralKeywords mark questions asking for a titled structure (a list,
// index, or drawing table). Such questions are already precise and must not
// be diluted by expansion.
var structuralKeywords = []string{
	"LIST", "INDEX", "TABLE", "DIAGRAM",
	"목록", "리스트", "다이어그램", "도면",
}

// listRequestKeywords mark questions whose vocabulary asks for list-type
// pages; the orchestrator uses this to add a list-terms forced fetch.
var listRequestKeywords = []string{
	"LIST", "INDEX", "TABLE", "리스트", "목록", "비교", "COMPARE",
}

// ListTerms is the recall query used to fetch list/index/table pages during
// forced inclusion.
const ListTerms = "PIPING INSTRUMENT DIAGRAM LIST INDEX TABLE DRAWING LIST 도면 목록 리스트"

// Sanitize blanks query-syntax-special characters and the standalone AND
// operator, then collapses whitespace. No stopword removal: the precision
// pass wants the user's exact lexical terms.
func Sanitize(question string) string {
	s := andWordRE.ReplaceAllString(question, " ")
	s = specialRE.ReplaceAllString(s, " ")
	return strings.Join(strings.Fields(s), " ")
}

// ExplicitPage returns the page number the question names, or 0.
func ExplicitPage(question string) int {
	for _, re := range pagePatRES {
		if m := re.FindStringSubmatch(question); m != nil {
			if n := atoiSafe(m[1]); n > 0 {
				return n
			}
		}
	}
	return 0
}

func atoiSafe(s string) int {
	n := 0
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0
		}
		n = n*10 + int(r-'0')
		if n > 1<<20 {
			return 0
		}
	}
	return n
}

// HasStructuralKeyword reports whether the question contains a structural or
// title keyword.
func HasStructuralKeyword(question string) bool {
	upper := strings.ToUpper(question)
	for _, kw := range structuralKeywords {
		if strings.Contains(upper, kw) {
			return true
		}
	}
	return false
}

// WantsList reports whether the question's vocabulary suggests a
// list/index/table request.
func WantsList(question string) bool {
	upper := strings.ToUpper(question)
	for _, kw := range listRequestKeywords {
		if strings.Contains(upper, kw) {
			return true
		}
	}
	return false
}

// Normalize produces the exact and expanded queries for one question.
// Normalization is deterministic given the same input and rule tables; the
// paraphrase path is advisory and its failure falls back to the exact form.
func (n *Normalizer) Normalize(ctx context.Context, question string) Normalized {
	out := Normalized{
		Exact:        Sanitize(question),
		ExplicitPage: ExplicitPage(question),
	}

	// A page-specific or structural question is already precise; expansion
	// must never override it.
	if out.ExplicitPage > 0 || HasStructuralKeyword(question) {
		out.Expanded = question
		out.SkippedExpansion = true
		if n.logger != nil {
			n.logger.Debug("expansion skipped",
				zap.String("question", question),
				zap.Int("explicit_page", out.ExplicitPage))
		}
		return out
	}

	out.Expanded = n.expand(ctx, question)
	return out
}

// expand applies the static rule tables first (fast, deterministic), then
// the paraphraser when present.
func (n *Normalizer) expand(ctx context.Context, question string) string {
	upper := strings.ToUpper(question)

	if strings.Contains(question, "전기부하리스트") || strings.Contains(upper, "LOAD LIST") {
		return question + " Electrical Load List Motor Heater kW HP Tag No Rating"
	}

	pid := strings.Contains(upper, "P&ID") || strings.Contains(upper, "PID") ||
		strings.Contains(question, "피앤아이디")
	wantsIndex := strings.Contains(question, "리스트") || strings.Contains(question, "목록") ||
		strings.Contains(upper, "LIST") || strings.Contains(upper, "INDEX") ||
		strings.Contains(question, "비교")
	if pid && wantsIndex {
		expanded := question + " PIPING AND INSTRUMENT DIAGRAM LIST DRAWING INDEX TABLE"
		if n.logger != nil {
			n.logger.Debug("query expansion",
				zap.String("question", question),
				zap.String("expanded", expanded))
		}
		return expanded
	}

	if n.paraphraser != nil {
		rewritten, err := n.paraphraser.Paraphrase(ctx, question)
		if err == nil && strings.TrimSpace(rewritten) != "" {
			return strings.TrimSpace(rewritten)
		}
		if err != nil && n.logger != nil {
			n.logger.Warn("paraphrase failed, using exact query", zap.Error(err))
		}
	}

	return Sanitize(question)
}
