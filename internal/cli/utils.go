// Package cli provides CLI utilities for Shirabe.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/hyperjump/shirabe/internal/models"
)

// AskOutputFormat is the format for ask result output.
type AskOutputFormat string

const (
	// OutputText is human-readable text (default).
	OutputText AskOutputFormat = "text"
	// OutputContext is the bare assembled context, ready for prompt injection.
	OutputContext AskOutputFormat = "context"
	// OutputJSON is structured JSON for machine consumption.
	OutputJSON AskOutputFormat = "json"
)

// WriteAskResult writes an ask result to w in the given format.
// Use OutputJSON for parseable output consumable by other apps.
func WriteAskResult(w io.Writer, result *models.AskResult, format AskOutputFormat) error {
	switch format {
	case OutputJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	case OutputContext:
		fmt.Fprintln(w, result.Context)
		return nil
	default:
		writeAskResultText(w, result)
		return nil
	}
}

func writeAskResultText(w io.Writer, result *models.AskResult) {
	fmt.Fprintf(w, "\nAssembled %d evidence blocks in %dms\n",
		len(result.Citations), result.QueryTime)
	if result.FilterString != "" {
		fmt.Fprintf(w, "Filter: %s\n", result.FilterString)
	}
	if result.Placeholder {
		fmt.Fprintf(w, "\n%s\n", result.Context)
		return
	}
	if len(result.Citations) > 0 {
		fmt.Fprintln(w, "\n--- Citations ---")
		for i, c := range result.Citations {
			if c.Title != "" {
				fmt.Fprintf(w, "%2d. %s p.%d (%s)\n", i+1, c.FilePath, c.Page, c.Title)
			} else {
				fmt.Fprintf(w, "%2d. %s p.%d\n", i+1, c.FilePath, c.Page)
			}
		}
	}
	fmt.Fprintln(w, "\n--- Context ---")
	fmt.Fprintln(w, Truncate(result.Context, 2000))
}

// PrintAskResult prints an ask result to stdout in text format.
func PrintAskResult(result *models.AskResult) {
	_ = WriteAskResult(os.Stdout, result, OutputText)
}

// WriteDocuments writes a document listing to w in the given format.
func WriteDocuments(w io.Writer, docs []*models.Document, format AskOutputFormat) error {
	if format == OutputJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(docs)
	}
	fmt.Fprintf(w, "\n%d documents\n\n", len(docs))
	for _, doc := range docs {
		fmt.Fprintf(w, "%s  (%d pages)\n", doc.Path, doc.Pages)
		if doc.Title != "" {
			fmt.Fprintf(w, "    Title: %s\n", TruncateWords(doc.Title, 12))
		}
	}
	return nil
}

// Truncate truncates s to maxLen and appends "..." if truncated.
func Truncate(s string, maxLen int) string {
	if maxLen <= 0 || len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}

// TruncateWords returns up to maxWords from the space-separated string.
func TruncateWords(s string, maxWords int) string {
	words := strings.Fields(s)
	if len(words) <= maxWords {
		return s
	}
	return strings.Join(words[:maxWords], " ") + "..."
}
