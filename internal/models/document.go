package models

import (
	"path/filepath"
	"strings"
)

type DocumentFormat string

const (
	FormatPDF     DocumentFormat = "pdf"
	FormatDOCX    DocumentFormat = "docx"
	FormatTXT     DocumentFormat = "txt"
	FormatUnknown DocumentFormat = "unknown"
)

// Document is an uploaded resume saved to local disk for the duration of one
// screening run.
type Document struct {
	Filename string         `json:"filename"`
	Path     string         `json:"-"`
	Format   DocumentFormat `json:"format"`
}

// NewDocument builds a Document whose format is inferred from the filename
// extension.
func NewDocument(filename, path string) Document {
	return Document{
		Filename: filename,
		Path:     path,
		Format:   DetectFormat(filename),
	}
}

// DetectFormat maps a filename extension to a DocumentFormat. Only the
// extension is trusted; file contents are never sniffed. Legacy .doc files are
// routed to the DOCX reader.
func DetectFormat(filename string) DocumentFormat {
	switch strings.ToLower(strings.TrimPrefix(filepath.Ext(filename), ".")) {
	case "pdf":
		return FormatPDF
	case "doc", "docx":
		return FormatDOCX
	case "txt":
		return FormatTXT
	default:
		return FormatUnknown
	}
}
