package handler

import (
	"sop-quiz/internal/middleware"

	"github.com/gofiber/fiber/v2"
)

// Routes bundles what RegisterRoutes needs besides the handlers.
type Routes struct {
	Quiz           *QuizHandler
	Health         *HealthHandler
	Tokens         middleware.TokenVerifier
	MaxUploadBytes int64
}

// RegisterRoutes mounts the pages and the JSON API on app.
func RegisterRoutes(app fiber.Router, r Routes) {
	upload := middleware.NewValidationMiddleware().ValidateDocumentUpload("document", r.MaxUploadBytes)
	requireToken := middleware.RequireQuizToken(r.Tokens)

	app.Get("/", r.Quiz.Index)
	app.Post("/quiz", upload, r.Quiz.CreateQuizPage)
	app.Get("/health", r.Health.Health)

	api := app.Group("/api")
	api.Post("/quizzes", upload, r.Quiz.CreateQuiz)
	api.Post("/quizzes/check", requireToken, r.Quiz.CheckAnswer)
	api.Post("/quizzes/export", requireToken, r.Quiz.Export)
}
