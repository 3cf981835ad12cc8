// Package extractor turns uploaded documents into plain text.
package extractor

import (
	"context"
	"fmt"
	"io"
	"strings"

	"sop-quiz/internal/domain"
	"sop-quiz/internal/logger"

	"github.com/ledongthuc/pdf"
	"go.uber.org/zap"
)

// pageSource is the part of *pdf.Reader the extractor needs.
type pageSource interface {
	NumPage() int
	PageText(n int) (string, bool, error) // text, has content, error
}

type pdfPages struct {
	r *pdf.Reader
}

func (p pdfPages) NumPage() int { return p.r.NumPage() }

func (p pdfPages) PageText(n int) (string, bool, error) {
	page := p.r.Page(n)
	if page.V.IsNull() {
		return "", false, nil
	}
	text, err := page.GetPlainText(nil)
	return text, true, err
}

// PDFExtractor implements domain.TextExtractor with github.com/ledongthuc/pdf.
type PDFExtractor struct {
	open func(r io.ReaderAt, size int64) (pageSource, error)
}

func NewPDFExtractor() *PDFExtractor {
	return &PDFExtractor{open: openPDF}
}

func openPDF(r io.ReaderAt, size int64) (src pageSource, err error) {
	// The reader panics on some malformed cross-reference tables.
	defer func() {
		if rec := recover(); rec != nil {
			src, err = nil, fmt.Errorf("malformed pdf: %v", rec)
		}
	}()
	reader, err := pdf.NewReader(r, size)
	if err != nil {
		return nil, err
	}
	return pdfPages{r: reader}, nil
}

// Extract concatenates the plain text of every page in page order with no
// separator. Pages without text, or whose text cannot be decoded, are
// skipped. A document without any text yields "".
func (e *PDFExtractor) Extract(ctx context.Context, r io.ReaderAt, size int64) (string, error) {
	src, err := e.open(r, size)
	if err != nil {
		return "", domain.NewInvalidDocumentError(err)
	}

	l := logger.Get()
	var (
		sb      strings.Builder
		skipped int
	)
	total := src.NumPage()
	for n := 1; n <= total; n++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		text, ok, err := pageText(src, n)
		if err != nil {
			l.Debug("Skipping unreadable page", zap.Int("page", n), zap.Error(err))
		}
		if !ok || err != nil || text == "" {
			skipped++
			continue
		}
		sb.WriteString(text)
	}

	if sb.Len() == 0 {
		l.Warn("Document contains no extractable text", zap.Int("pages", total))
	} else if skipped > 0 {
		l.Info("Some pages had no extractable text", zap.Int("pages", total), zap.Int("skipped", skipped))
	}
	return sb.String(), nil
}

func pageText(src pageSource, n int) (text string, ok bool, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			text, ok, err = "", false, fmt.Errorf("page %d: %v", n, rec)
		}
	}()
	return src.PageText(n)
}

var _ domain.TextExtractor = (*PDFExtractor)(nil)
