package middleware

import (
	"errors"
	"net/http"
	"strings"

	"sop-quiz/internal/domain"
	"sop-quiz/internal/logger"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// ErrorResponse represents the standard error response structure
type ErrorResponse struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Status  int                    `json:"status"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// ValidationErrorResponse represents validation error response
type ValidationErrorResponse struct {
	Code    string                   `json:"code"`
	Message string                   `json:"message"`
	Status  int                      `json:"status"`
	Errors  []domain.ValidationError `json:"errors"`
}

// ErrorView is the template rendered for browser requests that fail.
const ErrorView = "error"

// ErrorHandler is a centralized error handling middleware. Browser pages get
// the error view, everything else JSON.
func ErrorHandler() fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		logger := logger.Get()
		status := StatusForError(err)

		var validationErrs domain.ValidationErrors
		if errors.As(err, &validationErrs) {
			logger.Warn("Validation errors occurred",
				zap.String("path", c.Path()),
				zap.Int("error_count", len(validationErrs)),
			)
			if renderErrorPage(c, status, "Request validation failed", validationErrs.Error()) {
				return nil
			}
			return c.Status(status).JSON(ValidationErrorResponse{
				Code:    string(domain.CodeValidation),
				Message: "Request validation failed",
				Status:  status,
				Errors:  validationErrs,
			})
		}

		var domainErr *domain.DomainError
		if errors.As(err, &domainErr) {
			fields := []zap.Field{
				zap.String("code", string(domainErr.Code)),
				zap.String("message", domainErr.Message),
				zap.Int("status", status),
				zap.Error(domainErr.Cause),
			}
			if status >= http.StatusInternalServerError {
				logger.Error("Domain error occurred", fields...)
			} else {
				logger.Warn("Domain error occurred", fields...)
			}

			if renderErrorPage(c, status, domainErr.Message, string(domainErr.Code)) {
				return nil
			}
			response := ErrorResponse{
				Code:    string(domainErr.Code),
				Message: domainErr.Message,
				Status:  status,
			}
			if len(domainErr.Context) > 0 {
				response.Details = domainErr.Context
			}
			return c.Status(status).JSON(response)
		}

		var fiberErr *fiber.Error
		if errors.As(err, &fiberErr) {
			logger.Warn("Fiber error occurred",
				zap.Int("code", fiberErr.Code),
				zap.String("message", fiberErr.Message),
			)
			if renderErrorPage(c, status, fiberErr.Message, "HTTP_ERROR") {
				return nil
			}
			return c.Status(status).JSON(ErrorResponse{
				Code:    "HTTP_ERROR",
				Message: fiberErr.Message,
				Status:  status,
			})
		}

		logger.Error("Unknown error occurred",
			zap.String("path", c.Path()),
			zap.Error(err),
		)
		if renderErrorPage(c, status, "Internal server error", string(domain.CodeInternal)) {
			return nil
		}
		return c.Status(status).JSON(ErrorResponse{
			Code:    string(domain.CodeInternal),
			Message: "Internal server error",
			Status:  status,
		})
	}
}

// StatusForError maps an error returned by a handler to an HTTP status.
func StatusForError(err error) int {
	var validationErrs domain.ValidationErrors
	if errors.As(err, &validationErrs) {
		return http.StatusBadRequest
	}
	var domainErr *domain.DomainError
	if errors.As(err, &domainErr) {
		return mapDomainErrorToHTTPStatus(domainErr)
	}
	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		return fiberErr.Code
	}
	return http.StatusInternalServerError
}

// mapDomainErrorToHTTPStatus maps domain errors to HTTP status codes
func mapDomainErrorToHTTPStatus(err *domain.DomainError) int {
	switch err.Code {
	case domain.CodeInvalidInput, domain.CodeValidation, domain.CodeMissingField,
		domain.CodeInvalidFormat, domain.CodeOutOfRange, domain.CodeInvalidDocument:
		return http.StatusBadRequest
	case domain.CodeUnsupportedDocument:
		return http.StatusUnsupportedMediaType
	case domain.CodeInvalidQuizToken:
		return http.StatusUnauthorized
	case domain.CodeExhaustedRetries, domain.CodeFormatError:
		return http.StatusBadGateway
	case domain.CodeLLMServiceError:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func wantsHTML(c *fiber.Ctx) bool {
	if strings.HasPrefix(c.Path(), "/api") || strings.HasPrefix(c.Path(), "/health") {
		return false
	}
	return c.Accepts(fiber.MIMEApplicationJSON, fiber.MIMETextHTML) == fiber.MIMETextHTML
}

// renderErrorPage reports whether the error view was written.
func renderErrorPage(c *fiber.Ctx, status int, message, detail string) bool {
	if !wantsHTML(c) {
		return false
	}
	err := c.Status(status).Render(ErrorView, fiber.Map{
		"Title":   http.StatusText(status),
		"Status":  status,
		"Message": message,
		"Detail":  detail,
	}, "layouts/main")
	return err == nil
}
