package predicate

import "strings"

// NameField is the indexed field holding the page-qualified document name.
const NameField = "name"

// queryEscaper blanks characters that are special to keyword-query syntax.
// Names containing only such characters escape to empty and are dropped.
var queryEscaper = strings.NewReplacer(
	`&`, " ", `+`, " ", `-`, " ", `|`, " ", `!`, " ",
	`(`, " ", `)`, " ", `{`, " ", `}`, " ", `[`, " ", `]`, " ",
	`^`, " ", `"`, " ", `~`, " ", `*`, " ", `?`, " ", `:`, " ", `\`, " ",
)

// SanitizeValue neutralizes filter-syntax-special characters in a document
// name before it is embedded in a predicate. Returns "" when nothing
// searchable remains.
func SanitizeValue(v string) string {
	return strings.Join(strings.Fields(queryEscaper.Replace(v)), " ")
}

// Build combines an optional base predicate, the user's selected document
// names, and an optional explicitly-named document into one predicate.
//
// Selected names become an OR-group of name-prefix conditions (the index
// stores "<name> (p.N)", so equality would never match). The named document,
// when present, is ANDed on top of the selection. A name that sanitizes to
// empty is skipped; if every side degrades, Build returns None and ranking
// does the work.
func Build(base Pred, selected []string, named string) Pred {
	conds := make([]Pred, 0, len(selected))
	for _, name := range selected {
		if SanitizeValue(name) == "" {
			continue
		}
		conds = append(conds, Prefix{Field: NameField, Value: name})
	}
	scope := NewOr(conds...)

	var namedPred Pred = None{}
	if named != "" && SanitizeValue(named) != "" {
		namedPred = Prefix{Field: NameField, Value: named}
	}

	if base == nil {
		base = None{}
	}
	return NewAnd(base, scope, namedPred)
}

// ScopedTo returns a predicate restricting base to the single document name,
// used by forced-inclusion fetches. Returns base unchanged when the name is
// not usable.
func ScopedTo(base Pred, name string) Pred {
	if SanitizeValue(name) == "" {
		return base
	}
	return NewAnd(base, Prefix{Field: NameField, Value: name})
}
