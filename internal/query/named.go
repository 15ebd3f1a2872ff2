package query

import (
	"path/filepath"
	"sort"
	"strings"
)

// NamedDocument returns the candidate document the question explicitly
// names, or "". Candidates are tried longest-name-first so a short name
// never matches inside a longer one ("Drawing.pdf" vs "Drawing_RevA.pdf"),
// and each candidate matches with or without its extension,
// case-insensitively.
func NamedDocument(question string, candidates []string) string {
	if len(candidates) == 0 {
		return ""
	}
	msg := strings.ToLower(question)

	sorted := make([]string, len(candidates))
	copy(sorted, candidates)
	sort.Slice(sorted, func(i, j int) bool { return len(sorted[i]) > len(sorted[j]) })

	for _, name := range sorted {
		lower := strings.ToLower(name)
		noExt := strings.TrimSuffix(lower, filepath.Ext(lower))
		if strings.Contains(msg, lower) || (noExt != "" && strings.Contains(msg, noExt)) {
			return name
		}
	}
	return ""
}
