package services

import (
	"fmt"
	"os"
	"strings"

	"github.com/ledongthuc/pdf"
)

type PDFParserService interface {
	ExtractText(filepath string) (*PDFContent, error)
}

// PDFContent is the text of a PDF plus page accounting for diagnostics.
type PDFContent struct {
	Text         string
	PageCount    int
	SkippedPages int
}

type pdfParserService struct{}

func NewPDFParserService() PDFParserService {
	return &pdfParserService{}
}

// ExtractText returns the plain text of every page in page order, one
// newline between non-empty pages.
func (p *pdfParserService) ExtractText(filePath string) (*PDFContent, error) {
	if _, err := os.Stat(filePath); err != nil {
		return nil, fmt.Errorf("failed to stat PDF: %w", err)
	}

	f, r, err := pdf.Open(filePath)
	if err != nil {
		if f != nil {
			f.Close()
		}
		return nil, fmt.Errorf("failed to open PDF: %w", err)
	}
	defer f.Close()

	var textBuilder strings.Builder
	totalPage := r.NumPage()
	skipped := 0

	for pageIndex := 1; pageIndex <= totalPage; pageIndex++ {
		page := r.Page(pageIndex)
		if page.V.IsNull() {
			continue
		}

		text, err := page.GetPlainText(nil)
		if err != nil {
			// A broken page does not invalidate the rest of the document
			skipped++
			continue
		}

		// The reader opens every text object with a newline
		text = strings.TrimSpace(text)
		if text == "" {
			continue
		}
		if textBuilder.Len() > 0 {
			textBuilder.WriteString("\n")
		}
		textBuilder.WriteString(text)
	}

	if textBuilder.Len() == 0 {
		if skipped > 0 {
			return nil, fmt.Errorf("no text content found in PDF (%d of %d pages unreadable)", skipped, totalPage)
		}
		return nil, fmt.Errorf("no text content found in PDF")
	}

	return &PDFContent{
		Text:         textBuilder.String(),
		PageCount:    totalPage,
		SkippedPages: skipped,
	}, nil
}
