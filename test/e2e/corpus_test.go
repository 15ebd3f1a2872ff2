package e2e

import (
	"strings"
	"testing"
)

func TestBuildCorpus(t *testing.T) {
	corpus := BuildCorpus()
	if corpus.TotalDocs != len(documentTopics)*len(corpusUnits) {
		t.Errorf("TotalDocs = %d, want %d", corpus.TotalDocs, len(documentTopics)*len(corpusUnits))
	}
	if corpus.TotalQueries == 0 {
		t.Error("corpus has no query test cases")
	}

	seen := make(map[string]bool)
	for _, d := range corpus.Documents {
		if d.Name == "" || d.Content == "" {
			t.Errorf("document with empty name or content: %+v", d)
		}
		if seen[d.Name] {
			t.Errorf("duplicate document name %q", d.Name)
		}
		seen[d.Name] = true
		if !strings.Contains(d.Content, d.Title) {
			t.Errorf("document %q content missing its title heading", d.Name)
		}
	}

	// Every test case must reference documents that exist in the corpus.
	for _, tc := range corpus.TestCases {
		for _, name := range tc.ExpectedDocs {
			if !seen[name] {
				t.Errorf("test case %q expects unknown document %q", tc.Description, name)
			}
		}
	}
}

func TestCorpusSignaturesAreUniquePerUnit(t *testing.T) {
	corpus := BuildCorpus()
	// The signature phrase plus the unit number must identify exactly one
	// document, otherwise the question test cases are ambiguous.
	for _, tc := range corpus.TestCases {
		matches := 0
		for _, d := range corpus.Documents {
			all := true
			for _, term := range strings.Fields(strings.ToLower(tc.Question)) {
				if !strings.Contains(strings.ToLower(d.Content), term) {
					all = false
					break
				}
			}
			if all {
				matches++
			}
		}
		if matches != 1 {
			t.Errorf("question %q matches %d documents, want exactly 1", tc.Question, matches)
		}
	}
}
