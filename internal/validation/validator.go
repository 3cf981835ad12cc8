package validation

import (
	"strings"

	"sop-quiz/internal/domain"

	"github.com/gabriel-vasile/mimetype"
)

// PDFMimeType is the only document type the extractor reads.
const PDFMimeType = "application/pdf"

// Validator provides request validation functionality
type Validator struct{}

// NewValidator creates a new validator instance
func NewValidator() *Validator {
	return &Validator{}
}

// ValidateUpload checks the presence and size of an uploaded document.
func (v *Validator) ValidateUpload(size, maxBytes int64) domain.ValidationErrors {
	var errors domain.ValidationErrors

	if size <= 0 {
		errors = append(errors, domain.NewMissingFieldError("document"))
	} else if maxBytes > 0 && size > maxBytes {
		errors = append(errors, domain.NewOutOfRangeError("document", size, 1, maxBytes))
	}

	return errors
}

// DetectDocumentType sniffs the leading bytes of a document and rejects
// anything that is not a PDF with UNSUPPORTED_DOCUMENT.
func (v *Validator) DetectDocumentType(head []byte) (string, error) {
	mt := mimetype.Detect(head)
	if !mt.Is(PDFMimeType) {
		return mt.String(), domain.NewUnsupportedDocumentError(mt.String())
	}
	return PDFMimeType, nil
}

// ValidateCheckRequest validates a request to reveal an option of a quiz item.
func (v *Validator) ValidateCheckRequest(token string, item, selected, itemCount int) domain.ValidationErrors {
	var errors domain.ValidationErrors

	if strings.TrimSpace(token) == "" {
		errors = append(errors, domain.NewMissingFieldError("token"))
	}

	if itemCount >= 0 && (item < 0 || item >= itemCount) {
		errors = append(errors, domain.NewOutOfRangeError("item", item, 0, max(itemCount-1, 0)))
	}

	if selected < 0 || selected >= domain.OptionCount {
		errors = append(errors, domain.NewOutOfRangeError("selected", selected, 0, domain.OptionCount-1))
	}

	return errors
}

// ValidateExportRequest validates a request to download a quiz.
func (v *Validator) ValidateExportRequest(token string) domain.ValidationErrors {
	var errors domain.ValidationErrors

	if strings.TrimSpace(token) == "" {
		errors = append(errors, domain.NewMissingFieldError("token"))
	}

	return errors
}
