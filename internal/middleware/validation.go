package middleware

import (
	"fmt"
	"io"

	"sop-quiz/internal/domain"
	"sop-quiz/internal/validation"

	"github.com/gofiber/fiber/v2"
)

// LocalDocument is the fiber.Ctx locals key of a validated upload.
const LocalDocument = "validated_document"

// UploadedDocument is a multipart upload that passed validation.
type UploadedDocument struct {
	Name     string
	MimeType string
	Data     []byte
}

// ValidationMiddleware provides request validation middleware
type ValidationMiddleware struct {
	validator *validation.Validator
}

// NewValidationMiddleware creates a new validation middleware instance
func NewValidationMiddleware() *ValidationMiddleware {
	return &ValidationMiddleware{
		validator: validation.NewValidator(),
	}
}

// ValidateDocumentUpload requires a PDF in the multipart field and stores it
// in the request locals for the handler.
func (vm *ValidationMiddleware) ValidateDocumentUpload(field string, maxBytes int64) fiber.Handler {
	return func(c *fiber.Ctx) error {
		fh, err := c.FormFile(field)
		if err != nil {
			return domain.ValidationErrors{domain.NewMissingFieldError(field)}
		}
		if errs := vm.validator.ValidateUpload(fh.Size, maxBytes); len(errs) > 0 {
			return errs
		}

		f, err := fh.Open()
		if err != nil {
			return domain.NewInvalidDocumentError(fmt.Errorf("open upload: %w", err))
		}
		defer f.Close()

		data, err := io.ReadAll(io.LimitReader(f, fh.Size))
		if err != nil {
			return domain.NewInvalidDocumentError(fmt.Errorf("read upload: %w", err))
		}

		mimeType, err := vm.validator.DetectDocumentType(data)
		if err != nil {
			return err
		}

		c.Locals(LocalDocument, &UploadedDocument{
			Name:     fh.Filename,
			MimeType: mimeType,
			Data:     data,
		})
		return c.Next()
	}
}

// Document returns the upload stored by ValidateDocumentUpload.
func Document(c *fiber.Ctx) (*UploadedDocument, bool) {
	doc, ok := c.Locals(LocalDocument).(*UploadedDocument)
	return doc, ok && doc != nil
}
