package service

import (
	"archive/zip"
	"bytes"
	"io"
	"testing"

	"sop-quiz/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestParseExportFormat(t *testing.T) {
	f, err := ParseExportFormat("")
	require.NoError(t, err)
	assert.Equal(t, ExportDOCX, f)

	f, err = ParseExportFormat(" XLSX ")
	require.NoError(t, err)
	assert.Equal(t, ExportXLSX, f)

	_, err = ParseExportFormat("pdf")
	assert.True(t, domain.HasCode(err, domain.CodeValidation))
}

func readZipPart(t *testing.T, data []byte, name string) string {
	t.Helper()
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)
	f, err := zr.Open(name)
	require.NoError(t, err)
	defer f.Close()
	body, err := io.ReadAll(f)
	require.NoError(t, err)
	return string(body)
}

func TestExport_DOCX(t *testing.T) {
	raw := "Q1 | A & B | <C> | D | E | 1 | r | r | r | r\r\nQ2 | A | B | C | D | 2 | r | r | r | r"
	batch := &domain.QuizBatch{ID: "01HX", Raw: raw, Items: []domain.QuizItem{gowningItem()}}

	file, err := NewExportService().Export(ExportDOCX, batch)
	require.NoError(t, err)
	assert.Equal(t, "quiz-01HX.docx", file.Name)
	assert.Equal(t, docxContentType, file.ContentType)

	doc := readZipPart(t, file.Data, "word/document.xml")
	assert.Equal(t, 1, bytes.Count([]byte(doc), []byte("<w:p>")), "single paragraph")
	assert.Contains(t, doc, "Q1 | A &amp; B | &lt;C&gt; | D")
	assert.Contains(t, doc, "<w:br/>")
	assert.Contains(t, readZipPart(t, file.Data, "[Content_Types].xml"), "/word/document.xml")
	assert.Contains(t, readZipPart(t, file.Data, "_rels/.rels"), `Target="word/document.xml"`)
}

func TestExport_XLSX(t *testing.T) {
	item := gowningItem()
	batch := &domain.QuizBatch{ID: "01HY", Items: []domain.QuizItem{item, item}}

	file, err := NewExportService().Export(ExportXLSX, batch)
	require.NoError(t, err)
	assert.Equal(t, "quiz-01HY.xlsx", file.Name)
	assert.Equal(t, xlsxContentType, file.ContentType)

	wb, err := excelize.OpenReader(bytes.NewReader(file.Data))
	require.NoError(t, err)
	defer wb.Close()

	rows, err := wb.GetRows(quizSheet)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, quizHeaders, rows[0])
	assert.Equal(t, []string{
		"1", item.Question,
		"Gown", "Jeans", "Sandals", "Cap",
		"1",
		"Gowns are required", "Street clothes shed fibres", "Open shoes are forbidden", "A cap alone is not enough",
	}, rows[1])
	assert.Equal(t, "2", rows[2][0])
}

func TestExport_Errors(t *testing.T) {
	_, err := NewExportService().Export(ExportDOCX, nil)
	assert.True(t, domain.HasCode(err, domain.CodeInvalidInput))

	_, err = NewExportService().Export(ExportFormat("odt"), &domain.QuizBatch{})
	assert.True(t, domain.HasCode(err, domain.CodeValidation))
}

func TestExportName(t *testing.T) {
	assert.Equal(t, "quiz-export.docx", exportName("", ExportDOCX))
}
