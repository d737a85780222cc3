package services

import (
	"archive/zip"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"alfredoptarigan/resume-screener/internal/models"
)

const documentXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
  <w:body>
    <w:p><w:r><w:t>Hello</w:t></w:r><w:r><w:t xml:space="preserve"> World</w:t></w:r></w:p>
    <w:p><w:r><w:t>Second</w:t><w:tab/><w:t>para</w:t></w:r></w:p>
    <w:p></w:p>
    <w:p><w:r><w:t>Python &amp; SQL</w:t></w:r></w:p>
    <w:p><w:pPr><w:tabs><w:tab w:val="right" w:pos="9360"/><w:tab w:val="left" w:pos="720"/></w:tabs></w:pPr><w:r><w:rPr><w:b/></w:rPr><w:t>Skills</w:t></w:r></w:p>
    <w:p><w:r><w:t>Analyst</w:t></w:r><w:r><w:tab/><w:t>2019</w:t><w:br/><w:t>Jakarta</w:t></w:r></w:p>
  </w:body>
</w:document>`

func writeDOCX(t *testing.T, path, body string) {
	t.Helper()

	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	zw := zip.NewWriter(f)
	w, err := zw.Create("[Content_Types].xml")
	require.NoError(t, err)
	_, err = w.Write([]byte(`<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types"/>`))
	require.NoError(t, err)

	if body != "" {
		w, err = zw.Create("word/document.xml")
		require.NoError(t, err)
		_, err = w.Write([]byte(body))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
}

func newTestExtractor(logger *zap.Logger) DocumentExtractor {
	return NewDocumentExtractor(NewPDFParserService(), NewDOCXParserService(), logger)
}

func TestDocumentExtractor_PlainTextIsByteForByte(t *testing.T) {
	dir := t.TempDir()
	content := "Résumé\r\n  Python, SQL\n\n\tdata analyst — 5 years\n"
	path := filepath.Join(dir, "cv.txt")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	got := newTestExtractor(nil).Extract(models.NewDocument("cv.txt", path))
	assert.Equal(t, content, got)
}

func TestDocumentExtractor_UnsupportedExtension(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	dir := t.TempDir()
	path := filepath.Join(dir, "cv.xyz")
	require.NoError(t, os.WriteFile(path, []byte("Python developer"), 0o600))

	got := newTestExtractor(zap.New(core)).Extract(models.NewDocument("cv.xyz", path))

	assert.Equal(t, "", got)
	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "Unsupported file type, skipping extraction", logs.All()[0].Message)
}

func TestDocumentExtractor_DOCX(t *testing.T) {
	dir := t.TempDir()
	extractor := newTestExtractor(nil)

	for _, name := range []string{"cv.docx", "legacy.doc"} {
		path := filepath.Join(dir, name)
		writeDOCX(t, path, documentXML)

		got := extractor.Extract(models.NewDocument(name, path))
		assert.Equal(t, "Hello World\nSecond\tpara\n\nPython & SQL\nSkills\nAnalyst\t2019\nJakarta", got, name)
	}
}

func TestDocumentExtractor_PDFPagesInOrder(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)

	got := newTestExtractor(zap.New(core)).Extract(models.NewDocument("cv.pdf", filepath.Join("testdata", "two_pages.pdf")))

	assert.Equal(t, "Data Analyst\nPython and SQL", got)
	require.Equal(t, 1, logs.FilterMessage("Text extracted").Len())
	fields := logs.FilterMessage("Text extracted").All()[0].ContextMap()
	assert.EqualValues(t, 2, fields["pages"])
	assert.EqualValues(t, 0, fields["skipped_pages"])
}

func TestPDFParserService_NoTextContent(t *testing.T) {
	content, err := NewPDFParserService().ExtractText(filepath.Join("testdata", "blank.pdf"))

	require.Error(t, err)
	assert.Nil(t, content)
	assert.Contains(t, err.Error(), "no text content found in PDF")

	got := newTestExtractor(nil).Extract(models.NewDocument("blank.pdf", filepath.Join("testdata", "blank.pdf")))
	assert.Equal(t, "", got)
}

func TestDocumentExtractor_FailuresDegradeToEmpty(t *testing.T) {
	dir := t.TempDir()
	extractor := newTestExtractor(nil)

	corruptPDF := filepath.Join(dir, "broken.pdf")
	require.NoError(t, os.WriteFile(corruptPDF, []byte("this is not a pdf"), 0o600))

	corruptDOCX := filepath.Join(dir, "broken.docx")
	require.NoError(t, os.WriteFile(corruptDOCX, []byte("PK not really a zip"), 0o600))

	noBody := filepath.Join(dir, "nobody.docx")
	writeDOCX(t, noBody, "")
	badXML := filepath.Join(dir, "badxml.docx")
	writeDOCX(t, badXML, "<w:document><w:body><w:p>")

	tests := []models.Document{
		models.NewDocument("broken.pdf", corruptPDF),
		models.NewDocument("broken.docx", corruptDOCX),
		models.NewDocument("nobody.docx", noBody),
		models.NewDocument("badxml.docx", badXML),
		models.NewDocument("missing.txt", filepath.Join(dir, "missing.txt")),
		models.NewDocument("missing.pdf", filepath.Join(dir, "missing.pdf")),
	}
	for _, doc := range tests {
		assert.NotPanics(t, func() {
			assert.Equal(t, "", extractor.Extract(doc), doc.Filename)
		})
	}
}
