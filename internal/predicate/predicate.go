// Package predicate defines the boolean filter AST handed to the search
// backend. The AST is backend-agnostic; each backend carries its own
// serializer. Centralizing construction here keeps escaping in one place and
// makes filter building testable without a live index.
package predicate

import "strings"

// Pred is one node of the filter tree.
type Pred interface {
	// String renders a diagnostic form of the predicate. It is not the
	// backend wire format.
	String() string
	isPred()
}

// None matches everything. Builders degrade to None instead of erroring
// when no usable constraint remains.
type None struct{}

func (None) isPred()        {}
func (None) String() string { return "*" }

// Equals requires exact equality on a field.
type Equals struct {
	Field string
	Value string
}

func (Equals) isPred() {}
func (e Equals) String() string {
	return e.Field + " eq '" + strings.ReplaceAll(e.Value, "'", "''") + "'"
}

// Prefix requires the field value to start with Value. Document-name
// conditions use Prefix because the index stores page-qualified names
// ("file.pdf (p.7)").
type Prefix struct {
	Field string
	Value string
}

func (Prefix) isPred() {}
func (p Prefix) String() string {
	return "startswith(" + p.Field + ", '" + strings.ReplaceAll(p.Value, "'", "''") + "')"
}

// And requires all children to match.
type And struct {
	Preds []Pred
}

func (And) isPred() {}
func (a And) String() string { return joinPreds(a.Preds, " and ") }

// Or requires any child to match.
type Or struct {
	Preds []Pred
}

func (Or) isPred() {}
func (o Or) String() string { return joinPreds(o.Preds, " or ") }

func joinPreds(preds []Pred, sep string) string {
	parts := make([]string, 0, len(preds))
	for _, p := range preds {
		parts = append(parts, p.String())
	}
	return "(" + strings.Join(parts, sep) + ")"
}

// IsNone reports whether p is absent or matches everything.
func IsNone(p Pred) bool {
	if p == nil {
		return true
	}
	_, ok := p.(None)
	return ok
}

// NewAnd combines preds with AND, dropping nil/None sides. Returns None when
// nothing remains and the sole child when only one remains.
func NewAnd(preds ...Pred) Pred {
	kept := compact(preds)
	switch len(kept) {
	case 0:
		return None{}
	case 1:
		return kept[0]
	}
	return And{Preds: kept}
}

// NewOr combines preds with OR, dropping nil/None sides.
func NewOr(preds ...Pred) Pred {
	kept := compact(preds)
	switch len(kept) {
	case 0:
		return None{}
	case 1:
		return kept[0]
	}
	return Or{Preds: kept}
}

func compact(preds []Pred) []Pred {
	kept := make([]Pred, 0, len(preds))
	for _, p := range preds {
		if !IsNone(p) {
			kept = append(kept, p)
		}
	}
	return kept
}
