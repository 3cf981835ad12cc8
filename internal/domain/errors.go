package domain

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrorCode represents a specific type of error in the domain
type ErrorCode string

const (
	// Common errors
	CodeInternal      ErrorCode = "INTERNAL_ERROR"
	CodeInvalidInput  ErrorCode = "INVALID_INPUT"
	CodeValidation    ErrorCode = "VALIDATION_ERROR"
	CodeMissingField  ErrorCode = "MISSING_FIELD"
	CodeInvalidFormat ErrorCode = "INVALID_FORMAT"
	CodeOutOfRange    ErrorCode = "OUT_OF_RANGE"

	// Document errors
	CodeInvalidDocument     ErrorCode = "INVALID_DOCUMENT"
	CodeUnsupportedDocument ErrorCode = "UNSUPPORTED_DOCUMENT"

	// Quiz generation errors
	CodeFormatError      ErrorCode = "FORMAT_ERROR"
	CodeExhaustedRetries ErrorCode = "EXHAUSTED_RETRIES"
	CodeLLMServiceError  ErrorCode = "LLM_SERVICE_ERROR"
	CodeInvalidQuizToken ErrorCode = "INVALID_QUIZ_TOKEN"
)

// DomainError represents a domain-specific error
type DomainError struct {
	Code    ErrorCode
	Message string
	Cause   error
	Context map[string]interface{}
}

func (e *DomainError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *DomainError) Unwrap() error {
	return e.Cause
}

// MarshalJSON implements the json.Marshaler interface
func (e *DomainError) MarshalJSON() ([]byte, error) {
	return json.Marshal(&struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	}{
		Code:    string(e.Code),
		Message: e.Message,
	})
}

// WithContext attaches a detail that is echoed in error responses.
func (e *DomainError) WithContext(key string, value interface{}) *DomainError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// NewError creates a new DomainError
func NewError(code ErrorCode, message string, cause error) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// HasCode reports whether err wraps a DomainError with the given code.
func HasCode(err error, code ErrorCode) bool {
	var domainErr *DomainError
	return errors.As(err, &domainErr) && domainErr.Code == code
}

func NewInvalidInputError(message string) *DomainError {
	return NewError(CodeInvalidInput, message, nil)
}

func NewInternalError(message string, err error) *DomainError {
	return NewError(CodeInternal, message, err)
}

func NewInvalidDocumentError(err error) *DomainError {
	return NewError(CodeInvalidDocument, "The uploaded file could not be read as a PDF document", err)
}

func NewUnsupportedDocumentError(mimeType string) *DomainError {
	return NewError(CodeUnsupportedDocument, fmt.Sprintf("Unsupported document type: %s", mimeType), nil).
		WithContext("mime_type", mimeType)
}

func NewFormatError(err error) *DomainError {
	return NewError(CodeFormatError, "The model response did not follow the quiz template", err)
}

func NewExhaustedRetriesError(attempts int, lastErr error) *DomainError {
	return NewError(CodeExhaustedRetries,
		fmt.Sprintf("Could not generate a valid quiz after %d attempts", attempts), lastErr).
		WithContext("attempts", attempts)
}

func NewLLMServiceError(err error) *DomainError {
	return NewError(CodeLLMServiceError, "Failed to process with LLM service", err)
}

func NewInvalidQuizTokenError(err error) *DomainError {
	return NewError(CodeInvalidQuizToken, "Quiz token is invalid or expired", err)
}

// ValidationError describes one rejected request field.
type ValidationError struct {
	Code    ErrorCode   `json:"code"`
	Field   string      `json:"field"`
	Message string      `json:"message"`
	Value   interface{} `json:"value,omitempty"`
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationErrors collects every rejected field of a request.
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	msgs := make([]string, 0, len(e))
	for _, v := range e {
		msgs = append(msgs, v.Error())
	}
	return "validation failed: " + strings.Join(msgs, "; ")
}

func NewMissingFieldError(field string) ValidationError {
	return ValidationError{Code: CodeMissingField, Field: field, Message: "field is required"}
}

func NewInvalidFormatError(field string, value interface{}) ValidationError {
	return ValidationError{Code: CodeInvalidFormat, Field: field, Message: "field has an invalid format", Value: value}
}

func NewOutOfRangeError(field string, value interface{}, min, max interface{}) ValidationError {
	return ValidationError{
		Code:    CodeOutOfRange,
		Field:   field,
		Message: fmt.Sprintf("must be between %v and %v", min, max),
		Value:   value,
	}
}
