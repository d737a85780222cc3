package services

import (
	"fmt"
	"os"

	"go.uber.org/zap"

	applog "alfredoptarigan/resume-screener/internal/logger"
	"alfredoptarigan/resume-screener/internal/metrics"
	"alfredoptarigan/resume-screener/internal/models"
)

// DocumentExtractor turns an uploaded document into plain text. Extract never
// fails: any problem is logged and yields an empty string.
type DocumentExtractor interface {
	Extract(doc models.Document) string
}

type documentExtractor struct {
	pdfParser  PDFParserService
	docxParser DOCXParserService
	logger     *zap.Logger
}

func NewDocumentExtractor(pdfParser PDFParserService, docxParser DOCXParserService, logger *zap.Logger) DocumentExtractor {
	logger = applog.OrNop(logger)
	return &documentExtractor{
		pdfParser:  pdfParser,
		docxParser: docxParser,
		logger:     logger,
	}
}

func (e *documentExtractor) Extract(doc models.Document) (text string) {
	format := doc.Format
	if format == "" {
		format = models.DetectFormat(doc.Filename)
	}

	log := e.logger.With(zap.String("file", doc.Filename), zap.String("format", string(format)))

	defer func() {
		if r := recover(); r != nil {
			log.Error("Extraction panicked", zap.Any("panic", r))
			metrics.ExtractionFailuresTotal.WithLabelValues(string(format)).Inc()
			text = ""
		}
	}()

	var err error
	switch format {
	case models.FormatPDF:
		var content *PDFContent
		content, err = e.pdfParser.ExtractText(doc.Path)
		if err == nil {
			text = content.Text
			log = log.With(zap.Int("pages", content.PageCount), zap.Int("skipped_pages", content.SkippedPages))
		}
	case models.FormatDOCX:
		text, err = e.docxParser.ExtractText(doc.Path)
	case models.FormatTXT:
		text, err = readPlainText(doc.Path)
	default:
		log.Warn("Unsupported file type, skipping extraction")
		metrics.ExtractionFailuresTotal.WithLabelValues(string(models.FormatUnknown)).Inc()
		return ""
	}

	if err != nil {
		log.Warn("Text extraction failed", zap.Error(err))
		metrics.ExtractionFailuresTotal.WithLabelValues(string(format)).Inc()
		return ""
	}

	log.Debug("Text extracted", zap.Int("chars", len([]rune(text))))
	return text
}

func readPlainText(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read text file: %w", err)
	}
	return string(data), nil
}
