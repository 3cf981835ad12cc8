package middleware

import (
	"encoding/json"
	"strings"

	"sop-quiz/internal/domain"
	"sop-quiz/internal/logger"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

const (
	AuthorizationHeader = "Authorization"
	BearerSchema        = "Bearer "
	LocalQuizBatch      = "quiz_batch" // Key for storing the verified batch in fiber.Ctx locals
	LocalQuizToken      = "quiz_token"
)

// TokenVerifier decodes quiz tokens.
type TokenVerifier interface {
	Verify(token string) (*domain.QuizBatch, error)
}

// RequireQuizToken verifies the quiz token of a request and stores the quiz
// it carries in the request locals. The token is read from a Bearer
// Authorization header, a "token" form field, or a "token" JSON field.
func RequireQuizToken(verifier TokenVerifier) fiber.Handler {
	return func(c *fiber.Ctx) error {
		tokenString := tokenFromRequest(c)
		if tokenString == "" {
			return domain.ValidationErrors{domain.NewMissingFieldError("token")}
		}

		batch, err := verifier.Verify(tokenString)
		if err != nil {
			logger.Get().Debug("Quiz token rejected", zap.String("path", c.Path()), zap.Error(err))
			return err
		}

		c.Locals(LocalQuizBatch, batch)
		c.Locals(LocalQuizToken, tokenString)
		return c.Next()
	}
}

func tokenFromRequest(c *fiber.Ctx) string {
	if authHeader := c.Get(AuthorizationHeader); strings.HasPrefix(authHeader, BearerSchema) {
		if token := strings.TrimSpace(strings.TrimPrefix(authHeader, BearerSchema)); token != "" {
			return token
		}
	}

	if strings.HasPrefix(c.Get(fiber.HeaderContentType), fiber.MIMEApplicationJSON) {
		var body struct {
			Token string `json:"token"`
		}
		if err := json.Unmarshal(c.Body(), &body); err == nil {
			return strings.TrimSpace(body.Token)
		}
		return ""
	}
	return strings.TrimSpace(c.FormValue("token"))
}

// QuizBatch returns the quiz verified by RequireQuizToken.
func QuizBatch(c *fiber.Ctx) (*domain.QuizBatch, bool) {
	batch, ok := c.Locals(LocalQuizBatch).(*domain.QuizBatch)
	return batch, ok && batch != nil
}

// QuizToken returns the raw token verified by RequireQuizToken.
func QuizToken(c *fiber.Ctx) string {
	token, _ := c.Locals(LocalQuizToken).(string)
	return token
}
