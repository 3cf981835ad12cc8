package handler

import (
	"bytes"
	"strings"

	"sop-quiz/internal/config"
	"sop-quiz/internal/domain"
	"sop-quiz/internal/dto"
	"sop-quiz/internal/logger"
	"sop-quiz/internal/middleware"
	"sop-quiz/internal/prompt"
	"sop-quiz/internal/service"
	"sop-quiz/internal/validation"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

const layout = "layouts/main"

// TokenSigner issues quiz tokens for generated batches.
type TokenSigner interface {
	Sign(batch *domain.QuizBatch) (string, error)
}

// QuizHandler handles quiz-related HTTP requests
type QuizHandler struct {
	extractor domain.TextExtractor
	generator service.QuizGenerationService
	presenter service.PresenterService
	exporter  service.ExportService
	tokens    TokenSigner
	validator *validation.Validator
	defaults  config.QuizConfig
}

// NewQuizHandler creates a new QuizHandler instance
func NewQuizHandler(
	extractor domain.TextExtractor,
	generator service.QuizGenerationService,
	presenter service.PresenterService,
	exporter service.ExportService,
	tokens TokenSigner,
	defaults config.QuizConfig,
) *QuizHandler {
	return &QuizHandler{
		extractor: extractor,
		generator: generator,
		presenter: presenter,
		exporter:  exporter,
		tokens:    tokens,
		validator: validation.NewValidator(),
		defaults:  defaults,
	}
}

// Index renders the upload form.
func (h *QuizHandler) Index(c *fiber.Ctx) error {
	return c.Render("index", fiber.Map{
		"Title":             "New quiz",
		"DefaultCount":      prompt.DefaultCount,
		"DefaultDifficulty": h.defaults.DefaultDifficulty,
	}, layout)
}

// CreateQuizPage generates a quiz from the uploaded document and renders it.
func (h *QuizHandler) CreateQuizPage(c *fiber.Ctx) error {
	batch, token, err := h.generate(c)
	if err != nil {
		return err
	}

	items, err := h.presenter.Present(c.UserContext(), batch)
	if err != nil {
		return err
	}

	return c.Render("quiz", fiber.Map{
		"Title":   "Quiz",
		"BatchID": batch.ID,
		"Items":   items,
		"Token":   token,
	}, layout)
}

// CreateQuiz godoc
// @Summary Generate a quiz from an SOP document
// @Description Extracts the text of an uploaded PDF and asks the model for multiple-choice questions. Answers are not included; use the returned token to check them.
// @Tags quiz
// @Accept multipart/form-data
// @Produce json
// @Param document formData file true "SOP document (PDF)"
// @Param count formData string false "Number of questions" default(10)
// @Param difficulty formData string false "Difficulty, e.g. easy or hard"
// @Param variant formData string false "standard or labelled"
// @Param fresh formData bool false "Skip a memoized completion"
// @Success 200 {object} dto.GenerateQuizResponse
// @Failure 400 {object} middleware.ValidationErrorResponse
// @Failure 415 {object} middleware.ErrorResponse
// @Failure 502 {object} middleware.ErrorResponse
// @Failure 503 {object} middleware.ErrorResponse
// @Router /api/quizzes [post]
func (h *QuizHandler) CreateQuiz(c *fiber.Ctx) error {
	batch, token, err := h.generate(c)
	if err != nil {
		return err
	}

	items := make([]dto.QuizItemResponse, 0, len(batch.Items))
	for i, item := range batch.Items {
		item := item
		items = append(items, dto.QuizItemResponse{
			Index:    i,
			Question: item.Question,
			Options:  item.Options[:],
		})
	}

	return c.JSON(dto.GenerateQuizResponse{
		BatchID: batch.ID,
		Items:   items,
		Token:   token,
	})
}

// CheckAnswer godoc
// @Summary Reveal the answer for a selected option
// @Description Returns whether the selected option is correct together with the rationale to show.
// @Tags quiz
// @Accept json
// @Produce json
// @Param request body dto.CheckAnswerRequest true "Quiz token, 0-based item and 0-based option"
// @Success 200 {object} dto.RevealResponse
// @Failure 400 {object} middleware.ValidationErrorResponse
// @Failure 401 {object} middleware.ErrorResponse
// @Router /api/quizzes/check [post]
func (h *QuizHandler) CheckAnswer(c *fiber.Ctx) error {
	batch, ok := middleware.QuizBatch(c)
	if !ok {
		return domain.NewInvalidQuizTokenError(nil)
	}

	var req dto.CheckAnswerRequest
	if err := c.BodyParser(&req); err != nil {
		logger.Get().Debug("Failed to parse check request", zap.Error(err))
		return domain.NewInvalidInputError("Invalid request body")
	}
	if errs := h.validator.ValidateCheckRequest(middleware.QuizToken(c), req.Item, req.Selected, len(batch.Items)); len(errs) > 0 {
		return errs
	}

	reveal, err := h.presenter.Reveal(batch.Items[req.Item], req.Selected)
	if err != nil {
		return err
	}

	return c.JSON(dto.RevealResponse{
		Item:         req.Item,
		Selected:     reveal.Selected,
		CorrectIndex: reveal.CorrectIndex,
		Correct:      reveal.Correct,
		Rationale:    reveal.Rationale,
	})
}

// Export godoc
// @Summary Download a generated quiz
// @Description docx holds the raw model output, xlsx one row per question.
// @Tags quiz
// @Accept json,x-www-form-urlencoded
// @Produce application/vnd.openxmlformats-officedocument.wordprocessingml.document,application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param request body dto.ExportRequest true "Quiz token and format"
// @Success 200 {file} file
// @Failure 400 {object} middleware.ValidationErrorResponse
// @Failure 401 {object} middleware.ErrorResponse
// @Router /api/quizzes/export [post]
func (h *QuizHandler) Export(c *fiber.Ctx) error {
	batch, ok := middleware.QuizBatch(c)
	if !ok {
		return domain.NewInvalidQuizTokenError(nil)
	}

	var req dto.ExportRequest
	if err := c.BodyParser(&req); err != nil {
		return domain.NewInvalidInputError("Invalid request body")
	}
	if errs := h.validator.ValidateExportRequest(middleware.QuizToken(c)); len(errs) > 0 {
		return errs
	}

	format, err := service.ParseExportFormat(req.Format)
	if err != nil {
		return err
	}
	file, err := h.exporter.Export(format, batch)
	if err != nil {
		return err
	}

	c.Attachment(file.Name)
	c.Set(fiber.HeaderContentType, file.ContentType)
	return c.Send(file.Data)
}

func (h *QuizHandler) generate(c *fiber.Ctx) (*domain.QuizBatch, string, error) {
	doc, ok := middleware.Document(c)
	if !ok {
		return nil, "", domain.ValidationErrors{domain.NewMissingFieldError("document")}
	}

	ctx := c.UserContext()
	text, err := h.extractor.Extract(ctx, bytes.NewReader(doc.Data), int64(len(doc.Data)))
	if err != nil {
		return nil, "", err
	}

	req := service.GenerateRequest{
		Text:   text,
		Params: h.params(c),
		Fresh:  isChecked(c.FormValue("fresh")),
	}
	logger.Get().Info("Generating quiz",
		zap.String("document", doc.Name),
		zap.Int("text_length", len(text)),
		zap.String("count", req.Params.Count),
		zap.String("difficulty", req.Params.Difficulty),
		zap.Bool("fresh", req.Fresh),
	)

	batch, err := h.generator.Generate(ctx, req)
	if err != nil {
		return nil, "", err
	}

	token, err := h.tokens.Sign(batch)
	if err != nil {
		return nil, "", domain.NewInternalError("Failed to issue quiz token", err)
	}
	return batch, token, nil
}

func (h *QuizHandler) params(c *fiber.Ctx) prompt.Params {
	difficulty := strings.TrimSpace(c.FormValue("difficulty"))
	if difficulty == "" {
		difficulty = h.defaults.DefaultDifficulty
	}
	variant := c.FormValue("variant")
	if strings.TrimSpace(variant) == "" {
		variant = h.defaults.Variant
	}
	return prompt.Params{
		Count:      strings.TrimSpace(c.FormValue("count")),
		Difficulty: difficulty,
		Variant:    prompt.ParseVariant(variant),
	}
}

func isChecked(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "on", "true", "1", "yes":
		return true
	}
	return false
}
