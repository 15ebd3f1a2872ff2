package extract

import (
	"fmt"

	"github.com/lu4p/cat"

	"github.com/hyperjump/shirabe/internal/models"
)

// extractCat handles ODT and RTF through lu4p/cat, which sniffs the format
// from the bytes. Both are flat formats, so the result is a single page.
func extractCat(content []byte) ([]models.Page, error) {
	text, err := cat.FromBytes(content)
	if err != nil {
		return nil, fmt.Errorf("extract document: %w", err)
	}
	return singlePage(text), nil
}
