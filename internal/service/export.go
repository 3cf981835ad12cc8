package service

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"strings"

	"sop-quiz/internal/domain"
	"sop-quiz/internal/logger"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

// ExportFormat names a downloadable file type.
type ExportFormat string

const (
	ExportDOCX ExportFormat = "docx"
	ExportXLSX ExportFormat = "xlsx"
)

const (
	docxContentType = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// ParseExportFormat maps a request value onto an ExportFormat. Empty means docx.
func ParseExportFormat(s string) (ExportFormat, error) {
	switch ExportFormat(strings.ToLower(strings.TrimSpace(s))) {
	case "", ExportDOCX:
		return ExportDOCX, nil
	case ExportXLSX:
		return ExportXLSX, nil
	default:
		return "", domain.NewError(domain.CodeValidation, "unsupported export format",
			domain.ValidationErrors{domain.NewInvalidFormatError("format", s)})
	}
}

// ExportService renders a generated quiz as a file.
type ExportService interface {
	Export(format ExportFormat, batch *domain.QuizBatch) (domain.ExportFile, error)
}

type exportServiceImpl struct{}

func NewExportService() ExportService {
	return exportServiceImpl{}
}

func (s exportServiceImpl) Export(format ExportFormat, batch *domain.QuizBatch) (domain.ExportFile, error) {
	if batch == nil {
		return domain.ExportFile{}, domain.NewInvalidInputError("nothing to export")
	}

	var (
		data []byte
		ct   string
		err  error
	)
	switch format {
	case ExportDOCX:
		data, err = rawTextDocx(batch.Raw)
		ct = docxContentType
	case ExportXLSX:
		data, err = itemsWorkbook(batch.Items)
		ct = xlsxContentType
	default:
		_, err = ParseExportFormat(string(format))
		return domain.ExportFile{}, err
	}
	if err != nil {
		return domain.ExportFile{}, domain.NewInternalError("failed to build export file", err)
	}

	logger.Get().Info("Quiz exported",
		zap.String("batch_id", batch.ID),
		zap.String("format", string(format)),
		zap.Int("bytes", len(data)))

	return domain.ExportFile{
		Name:        exportName(batch.ID, format),
		ContentType: ct,
		Data:        data,
	}, nil
}

func exportName(id string, format ExportFormat) string {
	if id == "" {
		id = "export"
	}
	return fmt.Sprintf("quiz-%s.%s", id, format)
}

const (
	docxContentTypes = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types">` +
		`<Default Extension="rels" ContentType="application/vnd.openxmlformats-package.relationships+xml"/>` +
		`<Default Extension="xml" ContentType="application/xml"/>` +
		`<Override PartName="/word/document.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml"/>` +
		`</Types>`
	docxRels = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">` +
		`<Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/officeDocument" Target="word/document.xml"/>` +
		`</Relationships>`
	docxDocumentHead = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body><w:p><w:r>`
	docxDocumentTail = `</w:r></w:p></w:body></w:document>`
)

// rawTextDocx writes text as a single paragraph. Line breaks inside the
// paragraph are kept as w:br elements.
func rawTextDocx(text string) ([]byte, error) {
	var doc bytes.Buffer
	doc.WriteString(docxDocumentHead)
	lines := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
	for i, line := range lines {
		if i > 0 {
			doc.WriteString("<w:br/>")
		}
		doc.WriteString(`<w:t xml:space="preserve">`)
		if err := xml.EscapeText(&doc, []byte(line)); err != nil {
			return nil, err
		}
		doc.WriteString("</w:t>")
	}
	doc.WriteString(docxDocumentTail)

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	parts := []struct {
		name string
		body []byte
	}{
		{"[Content_Types].xml", []byte(docxContentTypes)},
		{"_rels/.rels", []byte(docxRels)},
		{"word/document.xml", doc.Bytes()},
	}
	for _, part := range parts {
		w, err := zw.Create(part.name)
		if err != nil {
			return nil, err
		}
		if _, err := w.Write(part.body); err != nil {
			return nil, err
		}
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

const quizSheet = "Quiz"

var quizHeaders = []string{
	"#", "Question",
	"Option 1", "Option 2", "Option 3", "Option 4",
	"Correct option",
	"Reason 1", "Reason 2", "Reason 3", "Reason 4",
}

// itemsWorkbook writes one row per item. The correct option is 1-based, as
// in the generated text.
func itemsWorkbook(items []domain.QuizItem) ([]byte, error) {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName("Sheet1", quizSheet); err != nil {
		return nil, err
	}

	header := make([]interface{}, len(quizHeaders))
	for i, h := range quizHeaders {
		header[i] = h
	}
	if err := f.SetSheetRow(quizSheet, "A1", &header); err != nil {
		return nil, err
	}

	for i, item := range items {
		row := []interface{}{i + 1, item.Question}
		for _, o := range item.Options {
			row = append(row, o)
		}
		row = append(row, item.CorrectIndex+1)
		for _, r := range item.Reasons {
			row = append(row, r)
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		if err := f.SetSheetRow(quizSheet, cell, &row); err != nil {
			return nil, err
		}
	}

	_ = f.SetColWidth(quizSheet, "B", "B", 60)
	_ = f.SetColWidth(quizSheet, "C", "F", 28)
	_ = f.SetColWidth(quizSheet, "H", "K", 48)
	if err := f.SetPanes(quizSheet, &excelize.Panes{Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft"}); err != nil {
		return nil, err
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}
	return buf.Bytes(), nil
}
