package e2e

import (
	"testing"

	"github.com/hyperjump/shirabe/internal/extract"
)

func TestWriteMinimalFile_roundtripsThroughExtractor(t *testing.T) {
	const text = "VALVE LIST UNIT 100 gate valve globe valve schedule"
	ex := extract.NewExtractor()
	for _, ext := range SupportedFileExtensions {
		t.Run(ext, func(t *testing.T) {
			data, err := WriteMinimalFile(ext, text)
			if err != nil {
				t.Fatalf("WriteMinimalFile(%s): %v", ext, err)
			}
			if len(data) == 0 {
				t.Fatalf("empty fixture for %s", ext)
			}
			pages, err := ex.ExtractBytes(data, ext)
			if err != nil {
				t.Fatalf("extract %s: %v", ext, err)
			}
			if len(pages) == 0 {
				t.Fatalf("no pages extracted for %s", ext)
			}
			found := false
			for _, p := range pages {
				if p.Content != "" {
					found = true
				}
			}
			if !found {
				t.Errorf("no page content extracted for %s", ext)
			}
		})
	}
}
