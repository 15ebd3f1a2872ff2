package cli

import (
	"bytes"
	"encoding/json"
	"io"
	"os"
	"strings"
	"testing"

	"github.com/hyperjump/shirabe/internal/models"
)

func sampleResult() *models.AskResult {
	return &models.AskResult{
		Context: "[Document: A.pdf, Page: 3]\nvalve list content",
		Citations: []models.Citation{
			{FilePath: "site9/drawings/A.pdf", Title: "VALVE LIST", Page: 3},
			{FilePath: "site9/drawings/B.pdf", Page: 1},
		},
		FilterString: "name prefix \"A.pdf\"",
		QueryTime:    42,
	}
}

func TestWriteAskResult_JSON(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteAskResult(&buf, sampleResult(), OutputJSON); err != nil {
		t.Fatalf("WriteAskResult(json): %v", err)
	}
	var decoded models.AskResult
	if err := json.NewDecoder(&buf).Decode(&decoded); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if decoded.QueryTime != 42 || len(decoded.Citations) != 2 {
		t.Errorf("decoded query_time=%d citations=%d, want 42/2",
			decoded.QueryTime, len(decoded.Citations))
	}
	if decoded.Citations[0].FilePath != "site9/drawings/A.pdf" {
		t.Errorf("citation filepath = %q", decoded.Citations[0].FilePath)
	}
}

func TestWriteAskResult_text(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteAskResult(&buf, sampleResult(), OutputText); err != nil {
		t.Fatalf("WriteAskResult(text): %v", err)
	}
	out := buf.String()
	for _, sub := range []string{
		"Assembled 2 evidence blocks",
		"42ms",
		"Filter: name prefix \"A.pdf\"",
		"site9/drawings/A.pdf p.3 (VALVE LIST)",
		"site9/drawings/B.pdf p.1",
		"valve list content",
	} {
		if !strings.Contains(out, sub) {
			t.Errorf("text output missing %q:\n%s", sub, out)
		}
	}
}

func TestWriteAskResult_context(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteAskResult(&buf, sampleResult(), OutputContext); err != nil {
		t.Fatalf("WriteAskResult(context): %v", err)
	}
	want := "[Document: A.pdf, Page: 3]\nvalve list content\n"
	if buf.String() != want {
		t.Errorf("context output = %q, want %q", buf.String(), want)
	}
}

func TestWriteAskResult_placeholder(t *testing.T) {
	result := &models.AskResult{
		Context:     "(No new documents found. Use conversation history.)",
		Citations:   []models.Citation{},
		Placeholder: true,
		QueryTime:   1,
	}
	var buf bytes.Buffer
	if err := WriteAskResult(&buf, result, OutputText); err != nil {
		t.Fatalf("WriteAskResult(text): %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "No new documents found") {
		t.Errorf("placeholder output should carry the placeholder text:\n%s", out)
	}
	if strings.Contains(out, "--- Citations ---") {
		t.Errorf("placeholder output should not list citations:\n%s", out)
	}
}

func TestWriteAskResult_unknownFormatTreatedAsText(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteAskResult(&buf, sampleResult(), AskOutputFormat("unknown")); err != nil {
		t.Fatalf("WriteAskResult(unknown): %v", err)
	}
	if !strings.Contains(buf.String(), "Assembled") {
		t.Errorf("unknown format should fall back to text; got %q", buf.String())
	}
}

func TestWriteDocuments(t *testing.T) {
	docs := []*models.Document{
		{Name: "A.pdf", Path: "site9/drawings/A.pdf", Title: "P&ID OVERVIEW", Pages: 12},
		{Name: "B.pdf", Path: "site9/drawings/B.pdf", Pages: 1},
	}
	var buf bytes.Buffer
	if err := WriteDocuments(&buf, docs, OutputText); err != nil {
		t.Fatalf("WriteDocuments(text): %v", err)
	}
	out := buf.String()
	for _, sub := range []string{"2 documents", "site9/drawings/A.pdf  (12 pages)", "P&ID OVERVIEW", "site9/drawings/B.pdf  (1 pages)"} {
		if !strings.Contains(out, sub) {
			t.Errorf("documents output missing %q:\n%s", sub, out)
		}
	}

	buf.Reset()
	if err := WriteDocuments(&buf, docs, OutputJSON); err != nil {
		t.Fatalf("WriteDocuments(json): %v", err)
	}
	var decoded []*models.Document
	if err := json.NewDecoder(&buf).Decode(&decoded); err != nil {
		t.Fatalf("documents JSON decode: %v", err)
	}
	if len(decoded) != 2 || decoded[0].Name != "A.pdf" {
		t.Errorf("decoded documents = %+v", decoded)
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		name   string
		s      string
		maxLen int
		want   string
	}{
		{"empty", "", 5, ""},
		{"short", "hi", 5, "hi"},
		{"exact", "hello", 5, "hello"},
		{"long", "hello world", 5, "hello..."},
		{"maxLen zero", "ab", 0, "ab"},
		{"maxLen negative", "ab", -1, "ab"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Truncate(tt.s, tt.maxLen)
			if got != tt.want {
				t.Errorf("Truncate(%q, %d) = %q, want %q", tt.s, tt.maxLen, got, tt.want)
			}
		})
	}
}

func TestTruncateWords(t *testing.T) {
	tests := []struct {
		name     string
		s        string
		maxWords int
		want     string
	}{
		{"empty", "", 3, ""},
		{"few words", "one two", 3, "one two"},
		{"exact", "one two three", 3, "one two three"},
		{"more", "one two three four", 3, "one two three..."},
		{"single long", "word", 1, "word"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := TruncateWords(tt.s, tt.maxWords)
			if got != tt.want {
				t.Errorf("TruncateWords(%q, %d) = %q, want %q", tt.s, tt.maxWords, got, tt.want)
			}
		})
	}
}

func TestPrintAskResult(t *testing.T) {
	oldStdout := os.Stdout
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("pipe: %v", err)
	}
	os.Stdout = w
	defer func() {
		os.Stdout = oldStdout
		_ = w.Close()
	}()
	PrintAskResult(&models.AskResult{Context: "ctx", QueryTime: 1})
	_ = w.Close()
	var buf bytes.Buffer
	_, _ = io.Copy(&buf, r)
	if !strings.Contains(buf.String(), "Assembled 0 evidence blocks") {
		t.Errorf("PrintAskResult should write to stdout; got %q", buf.String())
	}
}
