package extract

import (
	"bytes"
	"fmt"

	"github.com/ledongthuc/pdf"

	"github.com/hyperjump/shirabe/internal/models"
)

// extractPDF returns one page entry per PDF page. A page whose text cannot
// be extracted (a pure raster scan, a malformed content stream) becomes an
// empty page rather than failing the whole document: page numbering must
// stay aligned with the physical file for citations to point right.
func extractPDF(content []byte) ([]models.Page, error) {
	r, err := pdf.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return nil, fmt.Errorf("open PDF: %w", err)
	}

	numPages := r.NumPage()
	pages := make([]models.Page, 0, numPages)
	for i := 1; i <= numPages; i++ {
		page := r.Page(i)
		entry := models.Page{Number: i}
		if !page.V.IsNull() {
			if text, err := page.GetPlainText(nil); err == nil {
				entry.Content = text
				entry.Title = pageTitle(text)
			}
		}
		pages = append(pages, entry)
	}
	return pages, nil
}
